package cli

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/eshaffer321/energysplit/internal/domain/assembler"
	"github.com/eshaffer321/energysplit/internal/domain/consumption"
)

// WorkingSetFile is the YAML layout read by the calculate command:
//
//	company: {name: Via Roma 12, type: condominium}
//	groups:
//	  - {id: a, name: Building A}
//	categories:
//	  office:
//	    bill: {total_amount: 120.50, billing_date: 2026-03-31}
//	    readings:
//	      - {id: r1, name: Flat 1, kwh: 40, group_id: a}
//	registry:
//	  - {category: office, reading_id: r1, company_name: Acme Srl}
type WorkingSetFile struct {
	Company    *consumption.CompanyInfo              `yaml:"company"`
	Groups     []consumption.Group                   `yaml:"groups"`
	Categories map[consumption.Category]CategoryFile `yaml:"categories"`
	Registry   []consumption.OfficeRegistry          `yaml:"registry"`
}

// CategoryFile holds one category's bill and readings.
type CategoryFile struct {
	Bill     consumption.Bill      `yaml:"bill"`
	Readings []consumption.Reading `yaml:"readings"`
}

// LoadWorkingSet reads and checks a working set file.
func LoadWorkingSet(path string) (*WorkingSetFile, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read working set: %w", err)
	}

	var ws WorkingSetFile
	if err := yaml.Unmarshal(data, &ws); err != nil {
		return nil, fmt.Errorf("failed to parse working set: %w", err)
	}

	for i, g := range ws.Groups {
		if g.ID == "" {
			return nil, fmt.Errorf("%w: group %d (%q) has no id in %s", consumption.ErrInvalidInput, i, g.Name, path)
		}
	}
	for c := range ws.Categories {
		if !c.Valid() {
			return nil, fmt.Errorf("%w: unknown category %q in %s", consumption.ErrInvalidInput, c, path)
		}
	}
	if ws.Company != nil {
		if err := ws.Company.Validate(); err != nil {
			return nil, fmt.Errorf("%w (in %s)", err, path)
		}
	}
	for _, r := range ws.Registry {
		if err := r.Validate(); err != nil {
			return nil, fmt.Errorf("%w (in %s)", err, path)
		}
		if !ws.hasReading(r.Category, r.ReadingID) {
			return nil, fmt.Errorf("%w: registry names unknown %s reading %q in %s",
				consumption.ErrInvalidInput, r.Category, r.ReadingID, path)
		}
	}
	return &ws, nil
}

// Inputs returns one assembler input per known category, in category order.
// Categories absent from the file allocate nothing.
func (ws *WorkingSetFile) Inputs() []assembler.CategoryInput {
	inputs := make([]assembler.CategoryInput, 0, len(consumption.Categories))
	for _, c := range consumption.Categories {
		cf := ws.Categories[c]
		inputs = append(inputs, assembler.CategoryInput{
			Category: c,
			Readings: cf.Readings,
			Bill:     cf.Bill,
		})
	}
	return inputs
}

func (ws *WorkingSetFile) hasReading(category consumption.Category, id string) bool {
	for _, r := range ws.Categories[category].Readings {
		if r.ID == id {
			return true
		}
	}
	return false
}

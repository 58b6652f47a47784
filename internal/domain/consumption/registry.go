package consumption

import (
	"fmt"
	"strings"
)

// DefaultCompanyName is shown for readings without a registry entry or name.
const DefaultCompanyName = "Unnamed"

// OfficeRegistry records who occupies a metered reading. At most one entry
// exists per category and reading.
type OfficeRegistry struct {
	ID            string   `json:"id" yaml:"id"`
	Category      Category `json:"category" yaml:"category"`
	ReadingID     string   `json:"reading_id" yaml:"reading_id"`
	GroupID       string   `json:"group_id,omitempty" yaml:"group_id"`
	CompanyName   string   `json:"company_name" yaml:"company_name"`
	ContactPerson string   `json:"contact_person,omitempty" yaml:"contact_person"`
	Email         string   `json:"email,omitempty" yaml:"email"`
	Phone         string   `json:"phone,omitempty" yaml:"phone"`
	Notes         string   `json:"notes,omitempty" yaml:"notes"`
}

// Validate checks the fields every registry entry needs.
func (r OfficeRegistry) Validate() error {
	if !r.Category.Valid() {
		return fmt.Errorf("%w: unknown category %q", ErrInvalidInput, r.Category)
	}
	if strings.TrimSpace(r.ReadingID) == "" {
		return fmt.Errorf("%w: registry entry needs a reading id", ErrInvalidInput)
	}
	if strings.TrimSpace(r.CompanyName) == "" {
		return fmt.Errorf("%w: registry entry for reading %q needs a company name", ErrInvalidInput, r.ReadingID)
	}
	return nil
}

// CompanyType tells whether the bill payer is a company or a condominium.
type CompanyType string

const (
	CompanyTypeCompany     CompanyType = "company"
	CompanyTypeCondominium CompanyType = "condominium"
)

// Administrator is the person managing a condominium.
type Administrator struct {
	Name  string `json:"name" yaml:"name"`
	Email string `json:"email,omitempty" yaml:"email"`
	Phone string `json:"phone,omitempty" yaml:"phone"`
}

// CompanyInfo describes the company or condominium that receives the bills.
// Only one is kept at a time.
type CompanyInfo struct {
	ID            string         `json:"id" yaml:"id"`
	Name          string         `json:"name" yaml:"name"`
	Type          CompanyType    `json:"type" yaml:"type"`
	Address       string         `json:"address,omitempty" yaml:"address"`
	VATNumber     string         `json:"vat_number,omitempty" yaml:"vat_number"`
	Administrator *Administrator `json:"administrator,omitempty" yaml:"administrator"`
	LogoURL       string         `json:"logo_url,omitempty" yaml:"logo_url"`
}

// Validate checks the name and type.
func (c CompanyInfo) Validate() error {
	if strings.TrimSpace(c.Name) == "" {
		return fmt.Errorf("%w: company name is required", ErrInvalidInput)
	}
	switch c.Type {
	case CompanyTypeCompany, CompanyTypeCondominium:
	default:
		return fmt.Errorf("%w: unknown company type %q", ErrInvalidInput, c.Type)
	}
	return nil
}

// Clone returns a deep copy, or nil for a nil receiver.
func (c *CompanyInfo) Clone() *CompanyInfo {
	if c == nil {
		return nil
	}
	out := *c
	if c.Administrator != nil {
		admin := *c.Administrator
		out.Administrator = &admin
	}
	return &out
}

// CompanyNameFor returns the registered company name of a reading, the
// fallback when no entry matches, or DefaultCompanyName when both are empty.
func CompanyNameFor(registries []OfficeRegistry, category Category, readingID, fallback string) string {
	for _, r := range registries {
		if r.Category == category && r.ReadingID == readingID && r.CompanyName != "" {
			return r.CompanyName
		}
	}
	if fallback != "" {
		return fallback
	}
	return DefaultCompanyName
}

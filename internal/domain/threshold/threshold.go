// Package threshold flags readings whose consumption exceeds a configured limit.
package threshold

import (
	"fmt"

	"github.com/eshaffer321/energysplit/internal/domain/consumption"
)

// Threshold is a kWh limit attached to one reading of one category.
type Threshold struct {
	Category  consumption.Category `json:"category"`
	ReadingID string               `json:"reading_id"`
	Limit     float64              `json:"limit_kwh"`
	Active    bool                 `json:"active"`
}

// Validate rejects negative or non-finite limits and unknown categories.
func (t Threshold) Validate() error {
	if !t.Category.Valid() {
		return fmt.Errorf("%w: unknown category %q", consumption.ErrInvalidInput, t.Category)
	}
	if t.ReadingID == "" {
		return fmt.Errorf("%w: threshold needs a reading id", consumption.ErrInvalidInput)
	}
	if err := (consumption.Reading{ID: t.ReadingID, Kwh: t.Limit}).Validate(); err != nil {
		return fmt.Errorf("threshold limit: %w", err)
	}
	return nil
}

// Alert reports a reading over its limit.
type Alert struct {
	Category  consumption.Category `json:"category"`
	ReadingID string               `json:"reading_id"`
	Name      string               `json:"name"`
	Kwh       float64              `json:"kwh"`
	Limit     float64              `json:"limit_kwh"`
}

// Check returns an alert for every reading of category whose consumption is
// strictly above an active threshold. Alerts follow reading order.
func Check(category consumption.Category, readings []consumption.Reading, thresholds []Threshold) []Alert {
	limits := make(map[string]float64)
	for _, t := range thresholds {
		if !t.Active || t.Category != category {
			continue
		}
		limits[t.ReadingID] = t.Limit
	}

	alerts := []Alert{}
	for _, r := range readings {
		limit, ok := limits[r.ID]
		if !ok || r.Kwh <= limit {
			continue
		}
		alerts = append(alerts, Alert{
			Category:  category,
			ReadingID: r.ID,
			Name:      r.Name,
			Kwh:       r.Kwh,
			Limit:     limit,
		})
	}
	return alerts
}

// Package history derives month-by-month summaries from stored calculations.
package history

import (
	"sort"

	"github.com/eshaffer321/energysplit/internal/domain/consumption"
)

// CategoryTotals is one category's consumption and cost in a month.
type CategoryTotals struct {
	Kwh  float64 `json:"kwh"`
	Cost float64 `json:"cost"`
}

// MonthlySummary aggregates the calculation that represents a month.
type MonthlySummary struct {
	Month         string                                  `json:"month"`
	CalculationID string                                  `json:"calculation_id"`
	Categories    map[consumption.Category]CategoryTotals `json:"categories"`
}

// MonthlySummaries returns one summary per month, ascending. When several
// calculations share a month the most recent one represents it.
func MonthlySummaries(results []consumption.CalculationResult) []MonthlySummary {
	latest := make(map[string]consumption.CalculationResult)
	for _, r := range results {
		current, ok := latest[r.Month]
		if !ok || r.CreatedAt.After(current.CreatedAt) {
			latest[r.Month] = r
		}
	}

	months := make([]string, 0, len(latest))
	for m := range latest {
		months = append(months, m)
	}
	sort.Strings(months)

	summaries := make([]MonthlySummary, 0, len(months))
	for _, m := range months {
		r := latest[m]
		s := MonthlySummary{
			Month:         m,
			CalculationID: r.ID,
			Categories:    make(map[consumption.Category]CategoryTotals, len(r.Categories)),
		}
		for _, c := range r.Categories {
			s.Categories[c.Category] = CategoryTotals{
				Kwh:  c.Total,
				Cost: c.AllocatedTotal,
			}
		}
		summaries = append(summaries, s)
	}
	return summaries
}

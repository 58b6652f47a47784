package allocator

import (
	"github.com/shopspring/decimal"

	"github.com/eshaffer321/energysplit/internal/domain/consumption"
)

// Summary holds the totals of an allocated reading list.
type Summary struct {
	Count           int
	BaseKwh         float64
	TotalCost       float64
	TotalPercentage float64
}

// Summarize totals consumption and computed shares. Readings whose shares
// have not been computed contribute zero cost and percentage.
func Summarize(readings []consumption.Reading) Summary {
	kwh, cost, pct := decimal.Zero, decimal.Zero, decimal.Zero
	for _, r := range readings {
		kwh = kwh.Add(decimal.NewFromFloat(r.Kwh))
		cost = cost.Add(decimal.NewFromFloat(r.Cost()))
		pct = pct.Add(decimal.NewFromFloat(r.Percentage()))
	}
	return Summary{
		Count:           len(readings),
		BaseKwh:         kwh.InexactFloat64(),
		TotalCost:       cost.Round(2).InexactFloat64(),
		TotalPercentage: pct.Round(2).InexactFloat64(),
	}
}

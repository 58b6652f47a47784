// Package allocator provides proportional cost allocation for metered readings.
//
// The pro-rata allocator distributes a bill total across readings in
// proportion to their consumption:
//
//	percentage = kwh / sum(kwh) * 100
//	cost       = kwh * bill_total / sum(kwh)
//
// Both values are rounded to cents half-up using decimal arithmetic, then any
// residual cents are handed out so the costs sum exactly to the bill total.
// The allocator is base-agnostic: callers that want shared counters excluded
// from the denominator filter them out before calling Allocate.
package allocator

import (
	"sort"

	"github.com/shopspring/decimal"

	"github.com/eshaffer321/energysplit/internal/domain/consumption"
)

var (
	hundred = decimal.NewFromInt(100)
	cent    = decimal.New(1, -2)
)

// Allocate returns a copy of readings with CostShare and PercentageShare
// populated. The input slice is never modified.
//
// A zero consumption base yields zero shares for every reading. Negative or
// non-finite amounts fail with consumption.ErrInvalidInput.
func Allocate(readings []consumption.Reading, totalAmount float64) ([]consumption.Reading, error) {
	if err := (consumption.Bill{TotalAmount: totalAmount}).Validate(); err != nil {
		return nil, err
	}

	// Step 1: Sum consumption
	base := decimal.Zero
	for _, r := range readings {
		if err := r.Validate(); err != nil {
			return nil, err
		}
		base = base.Add(decimal.NewFromFloat(r.Kwh))
	}

	out := consumption.CloneReadings(readings)

	if !base.IsPositive() {
		// Nothing consumed - nothing to split
		for i := range out {
			out[i].CostShare = consumption.Float(0)
			out[i].PercentageShare = consumption.Float(0)
		}
		return out, nil
	}

	// Step 2: Allocate each reading its rounded share
	total := decimal.NewFromFloat(totalAmount).Round(2)
	exact := make([]decimal.Decimal, len(out))
	costs := make([]decimal.Decimal, len(out))
	allocated := decimal.Zero

	for i, r := range out {
		kwh := decimal.NewFromFloat(r.Kwh)
		exact[i] = kwh.Mul(total).Div(base)
		costs[i] = exact[i].Round(2)
		allocated = allocated.Add(costs[i])

		pct := kwh.Mul(hundred).Div(base).Round(2)
		out[i].PercentageShare = consumption.Float(pct.InexactFloat64())
	}

	// Step 3: Fix rounding - largest remainder gets the residual cents
	distributeResidual(out, exact, costs, total.Sub(allocated))

	for i := range out {
		out[i].CostShare = consumption.Float(costs[i].InexactFloat64())
	}

	return out, nil
}

// distributeResidual moves whole cents onto (or off) the readings whose
// rounding moved them furthest from their exact share, at most one cent per
// reading, ties broken by input position. A deficit goes to the readings
// rounded down the most, a surplus comes off the readings rounded up the
// most. Readings with no consumption never receive or give up cents.
func distributeResidual(readings []consumption.Reading, exact, costs []decimal.Decimal, diff decimal.Decimal) {
	remaining := diff.Div(cent).Round(0).IntPart()
	if remaining == 0 {
		return
	}

	step := cent
	if remaining < 0 {
		step = cent.Neg()
		remaining = -remaining
	}

	// moved is how far rounding pushed a reading against the direction the
	// residual has to go
	moved := make([]decimal.Decimal, len(readings))
	order := make([]int, 0, len(readings))
	for i := range readings {
		if readings[i].Kwh == 0 {
			continue
		}
		if step.IsNegative() {
			moved[i] = costs[i].Sub(exact[i])
		} else {
			moved[i] = exact[i].Sub(costs[i])
		}
		order = append(order, i)
	}
	sort.SliceStable(order, func(a, b int) bool {
		return moved[order[a]].GreaterThan(moved[order[b]])
	})

	for _, idx := range order {
		if remaining == 0 {
			return
		}
		if step.IsNegative() && costs[idx].LessThan(cent) {
			continue
		}
		costs[idx] = costs[idx].Add(step)
		remaining--
	}
}

// RoundHalfUp rounds v to the given number of decimal places, with halves
// rounded away from zero. It works on the shortest decimal representation of
// v, so 1.005 rounds to 1.01 rather than the 1.00 that float scaling yields.
func RoundHalfUp(v float64, places int32) float64 {
	return decimal.NewFromFloat(v).Round(places).InexactFloat64()
}

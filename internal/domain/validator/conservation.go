// Package validator checks that allocated results are internally consistent.
//
// The conservation validator ensures that the costs of a category add up to
// its bill and that percentages add up to 100, within the error that per-line
// rounding to cents can introduce:
//
//	|sum(cost) - bill| <= 0.01 * n
//	|sum(pct)  - 100 | <= 0.01 * n
//
// where n counts only the readings in the allocation base. Excluded shared
// counters carry zero shares and add no rounding error.
package validator

import (
	"fmt"
	"math"

	"github.com/eshaffer321/energysplit/internal/domain/allocator"
	"github.com/eshaffer321/energysplit/internal/domain/consumption"
)

// AllocationValidation contains the result of validating one category block.
type AllocationValidation struct {
	// Valid is true if both sums are within tolerance
	Valid bool

	Category        consumption.Category
	CostSum         float64
	ExpectedCost    float64
	PercentageSum   float64
	Tolerance       float64
	CostDifference  float64
	PercentDistance float64

	// Reason explains why validation failed (empty if valid)
	Reason string
}

// ValidateAllocation checks a category block. A block with no consumption
// base is valid by definition: every share is zero.
func ValidateAllocation(block consumption.CategoryResult) *AllocationValidation {
	summary := allocator.Summarize(block.Readings)
	expected := allocator.RoundHalfUp(block.Bill.TotalAmount, 2)

	v := &AllocationValidation{
		Valid:         true,
		Category:      block.Category,
		CostSum:       summary.TotalCost,
		ExpectedCost:  expected,
		PercentageSum: summary.TotalPercentage,
		Tolerance:     allocator.RoundHalfUp(0.01*float64(baseCount(block, summary.Count)), 2),
	}

	if block.Total <= 0 {
		return v
	}

	v.CostDifference = allocator.RoundHalfUp(summary.TotalCost-expected, 2)
	v.PercentDistance = allocator.RoundHalfUp(summary.TotalPercentage-100, 2)

	switch {
	case math.Abs(v.CostDifference) > v.Tolerance:
		v.Valid = false
		v.Reason = fmt.Sprintf("%s costs (%.2f) differ from bill (%.2f) by %.2f",
			block.Category, summary.TotalCost, expected, v.CostDifference)
	case math.Abs(v.PercentDistance) > v.Tolerance:
		v.Valid = false
		v.Reason = fmt.Sprintf("%s percentages sum to %.2f instead of 100",
			block.Category, summary.TotalPercentage)
	}

	return v
}

func baseCount(block consumption.CategoryResult, fallback int) int {
	if block.AllocatedReadings > 0 {
		return block.AllocatedReadings
	}
	return fallback
}

// ValidateResult validates every category of a result and returns the
// failing checks.
func ValidateResult(result *consumption.CalculationResult) []*AllocationValidation {
	var failed []*AllocationValidation
	for _, block := range result.Categories {
		if v := ValidateAllocation(block); !v.Valid {
			failed = append(failed, v)
		}
	}
	return failed
}

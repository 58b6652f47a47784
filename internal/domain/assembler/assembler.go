// Package assembler builds immutable calculation snapshots from the working
// set of readings, bills and groups.
//
// Each category is allocated independently; categories never share a cost
// base. Whether shared counters take part in the allocation base is a
// policy of the Assembler, not of the allocator.
package assembler

import (
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/eshaffer321/energysplit/internal/domain/allocator"
	"github.com/eshaffer321/energysplit/internal/domain/consumption"
)

// SharedCounterPolicy decides whether shared counters join the allocation base.
type SharedCounterPolicy string

const (
	// ExcludeSharedCounters keeps shared counters out of the base; they are
	// reported with zero cost and percentage.
	ExcludeSharedCounters SharedCounterPolicy = "exclude"
	// IncludeSharedCounters allocates across every reading.
	IncludeSharedCounters SharedCounterPolicy = "include"
)

// ParsePolicy converts a config value into a policy. Empty means exclude.
func ParsePolicy(s string) (SharedCounterPolicy, error) {
	switch SharedCounterPolicy(s) {
	case "", ExcludeSharedCounters:
		return ExcludeSharedCounters, nil
	case IncludeSharedCounters:
		return IncludeSharedCounters, nil
	}
	return "", fmt.Errorf("unknown shared counter policy %q", s)
}

// CategoryInput is one category's readings and bill.
type CategoryInput struct {
	Category consumption.Category
	Readings []consumption.Reading
	Bill     consumption.Bill
}

// Assembler produces CalculationResults.
type Assembler struct {
	policy SharedCounterPolicy
	now    func() time.Time
	newID  func() string
}

// Option configures an Assembler.
type Option func(*Assembler)

// WithPolicy sets the shared counter policy.
func WithPolicy(p SharedCounterPolicy) Option {
	return func(a *Assembler) { a.policy = p }
}

// WithClock overrides the timestamp source.
func WithClock(now func() time.Time) Option {
	return func(a *Assembler) { a.now = now }
}

// WithIDGenerator overrides the result id source.
func WithIDGenerator(newID func() string) Option {
	return func(a *Assembler) { a.newID = newID }
}

// New creates an Assembler. Defaults: exclude shared counters, UTC wall clock,
// random UUIDs.
func New(opts ...Option) *Assembler {
	a := &Assembler{
		policy: ExcludeSharedCounters,
		now:    func() time.Time { return time.Now().UTC() },
		newID:  uuid.NewString,
	}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

// Policy returns the configured shared counter policy.
func (a *Assembler) Policy() SharedCounterPolicy {
	return a.policy
}

// Assemble allocates two categories and snapshots them together with the
// group list. Zero consumption produces a zero-cost block rather than an
// error; negative amounts fail with consumption.ErrInvalidInput.
func (a *Assembler) Assemble(first, second CategoryInput, groups []consumption.Group) (*consumption.CalculationResult, error) {
	return a.AssembleAll([]CategoryInput{first, second}, groups)
}

// AssembleAll is Assemble for any number of categories. Blocks keep the
// order of inputs.
func (a *Assembler) AssembleAll(inputs []CategoryInput, groups []consumption.Group) (*consumption.CalculationResult, error) {
	for _, in := range inputs {
		if err := in.Bill.Validate(); err != nil {
			return nil, fmt.Errorf("%s: %w", in.Category, err)
		}
		for _, r := range in.Readings {
			if err := r.Validate(); err != nil {
				return nil, fmt.Errorf("%s: %w", in.Category, err)
			}
		}
	}

	createdAt := a.now()
	result := &consumption.CalculationResult{
		ID:         a.newID(),
		CreatedAt:  createdAt,
		Month:      monthOf(inputs, createdAt),
		Categories: make([]consumption.CategoryResult, 0, len(inputs)),
		Groups:     consumption.CloneGroups(groups),
	}

	for _, in := range inputs {
		block, err := a.allocateCategory(in)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", in.Category, err)
		}
		result.Categories = append(result.Categories, block)
	}

	return result, nil
}

func (a *Assembler) allocateCategory(in CategoryInput) (consumption.CategoryResult, error) {
	block := consumption.CategoryResult{
		Category: in.Category,
		Bill:     in.Bill,
	}

	var base []consumption.Reading
	var baseIdx []int
	shared := decimal.Zero
	for i, r := range in.Readings {
		if r.IsSharedCounter {
			shared = shared.Add(decimal.NewFromFloat(r.Kwh))
			if a.policy == ExcludeSharedCounters {
				continue
			}
		}
		base = append(base, r)
		baseIdx = append(baseIdx, i)
	}

	allocated, err := allocator.Allocate(base, in.Bill.TotalAmount)
	if err != nil {
		return block, err
	}

	// Stitch allocated readings back into input order; excluded shared
	// counters carry zero shares.
	readings := consumption.CloneReadings(in.Readings)
	for i := range readings {
		readings[i].CostShare = consumption.Float(0)
		readings[i].PercentageShare = consumption.Float(0)
	}
	for j, idx := range baseIdx {
		readings[idx] = allocated[j]
	}

	summary := allocator.Summarize(allocated)
	block.Readings = readings
	block.Total = summary.BaseKwh
	block.SharedCounterTotal = shared.InexactFloat64()
	block.AllocatedTotal = summary.TotalCost
	block.AllocatedReadings = len(base)
	return block, nil
}

// monthOf stamps the result with the first bill's period, falling back to the
// creation time when no bill date was given.
func monthOf(inputs []CategoryInput, fallback time.Time) string {
	for _, in := range inputs {
		if !in.Bill.BillingDate.IsZero() {
			return in.Bill.BillingDate.Format("2006-01")
		}
	}
	return fallback.Format("2006-01")
}

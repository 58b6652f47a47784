// Package consumption defines the data shapes shared by the allocation engine:
// metered readings, groups, bill declarations and calculation snapshots.
//
// All types are plain values that serialize to JSON without custom
// marshalers, so storage and transport layers can persist them as-is.
package consumption

import (
	"errors"
	"fmt"
	"math"
	"time"
)

// ErrInvalidInput is returned when a caller supplies negative or non-finite
// consumption values or bill amounts.
var ErrInvalidInput = errors.New("invalid input")

// Category identifies a metering category that carries its own bill.
type Category string

const (
	CategoryOffice Category = "office"
	CategoryAC     Category = "ac"
)

// Categories lists the supported categories in display order.
var Categories = []Category{CategoryOffice, CategoryAC}

// Valid reports whether c is a known category.
func (c Category) Valid() bool {
	for _, known := range Categories {
		if c == known {
			return true
		}
	}
	return false
}

// ParseCategory converts a raw string into a Category.
func ParseCategory(s string) (Category, error) {
	c := Category(s)
	if !c.Valid() {
		return "", fmt.Errorf("%w: unknown category %q", ErrInvalidInput, s)
	}
	return c, nil
}

// Reading is a single metered entity's consumption for a billing period.
type Reading struct {
	ID              string   `json:"id" yaml:"id"`
	Name            string   `json:"name" yaml:"name"`
	Kwh             float64  `json:"kwh" yaml:"kwh"`
	GroupID         string   `json:"group_id,omitempty" yaml:"group_id"`
	IsSharedCounter bool     `json:"is_shared_counter" yaml:"is_shared_counter"`
	CostShare       *float64 `json:"cost_share,omitempty" yaml:"-"`
	PercentageShare *float64 `json:"percentage_share,omitempty" yaml:"-"`
}

// Validate checks that the reading carries a finite, non-negative kWh value.
func (r Reading) Validate() error {
	if err := checkAmount(r.Kwh); err != nil {
		return fmt.Errorf("%w: consumption for reading %q %s", ErrInvalidInput, r.ID, err.Error())
	}
	return nil
}

// Cost returns the computed cost share, or 0 when it has not been computed.
func (r Reading) Cost() float64 {
	if r.CostShare == nil {
		return 0
	}
	return *r.CostShare
}

// Percentage returns the computed percentage share, or 0 when it has not
// been computed.
func (r Reading) Percentage() float64 {
	if r.PercentageShare == nil {
		return 0
	}
	return *r.PercentageShare
}

// Group is a named partition of readings such as a building or cost center.
// Property fields are display-only.
type Group struct {
	ID             string   `json:"id" yaml:"id"`
	Name           string   `json:"name" yaml:"name"`
	Category       Category `json:"category,omitempty" yaml:"category"`
	PropertyType   string   `json:"property_type,omitempty" yaml:"property_type"`
	PropertyNumber string   `json:"property_number,omitempty" yaml:"property_number"`
	NumberOfUnits  int      `json:"number_of_units,omitempty" yaml:"number_of_units"`
	ParentGroupID  string   `json:"parent_group_id,omitempty" yaml:"parent_group_id"`
}

// Bill is the amount to distribute for one category in one billing period.
type Bill struct {
	TotalAmount  float64   `json:"total_amount" yaml:"total_amount"`
	BillingDate  time.Time `json:"billing_date" yaml:"billing_date"`
	ProviderName string    `json:"provider_name,omitempty" yaml:"provider_name"`
	BillNumber   string    `json:"bill_number,omitempty" yaml:"bill_number"`
	Description  string    `json:"description,omitempty" yaml:"description"`
}

// Validate checks that the bill amount is finite and non-negative.
func (b Bill) Validate() error {
	if err := checkAmount(b.TotalAmount); err != nil {
		return fmt.Errorf("%w: bill amount %s", ErrInvalidInput, err.Error())
	}
	return nil
}

// CategoryResult holds one category's allocated readings and totals.
type CategoryResult struct {
	Category           Category  `json:"category"`
	Readings           []Reading `json:"readings"`
	Bill               Bill      `json:"bill"`
	Total              float64   `json:"total_kwh"`
	SharedCounterTotal float64   `json:"shared_counter_kwh"`
	AllocatedTotal     float64   `json:"allocated_total"`
	// AllocatedReadings counts the readings that formed the allocation base
	AllocatedReadings int `json:"allocated_readings"`
}

// CalculationResult is an immutable snapshot produced by one calculation.
// It owns deep copies of everything it references.
type CalculationResult struct {
	ID         string           `json:"id"`
	CreatedAt  time.Time        `json:"created_at"`
	Month      string           `json:"month"`
	Categories []CategoryResult `json:"categories"`
	Groups     []Group          `json:"groups"`
	// CompanyInfo is the bill recipient at calculation time, if one was set
	CompanyInfo *CompanyInfo `json:"company_info,omitempty"`
}

// Category returns the block for c, or nil if the result has none.
func (r *CalculationResult) Category(c Category) *CategoryResult {
	for i := range r.Categories {
		if r.Categories[i].Category == c {
			return &r.Categories[i]
		}
	}
	return nil
}

func checkAmount(v float64) error {
	switch {
	case math.IsNaN(v):
		return errors.New("is not a number")
	case math.IsInf(v, 0):
		return errors.New("is not finite")
	case v < 0:
		return errors.New("cannot be negative")
	}
	return nil
}

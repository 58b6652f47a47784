package dto

import (
	"time"

	"github.com/eshaffer321/energysplit/internal/domain/consumption"
	"github.com/eshaffer321/energysplit/internal/domain/grouper"
	"github.com/eshaffer321/energysplit/internal/domain/history"
	"github.com/eshaffer321/energysplit/internal/domain/threshold"
)

// HealthResponse is returned by the health check endpoint.
type HealthResponse struct {
	Status    string `json:"status"`
	Timestamp string `json:"timestamp"`
}

// NewHealthResponse creates a healthy response stamped with the current time.
func NewHealthResponse() HealthResponse {
	return HealthResponse{
		Status:    "ok",
		Timestamp: time.Now().UTC().Format(time.RFC3339),
	}
}

// CategoryResponse describes a supported category.
type CategoryResponse struct {
	ID    consumption.Category `json:"id"`
	Label string               `json:"label"`
}

// GroupListResponse is returned when listing groups.
type GroupListResponse struct {
	Groups []consumption.Group `json:"groups"`
	Count  int                 `json:"count"`
}

// ReadingListResponse is returned when listing a category's readings.
type ReadingListResponse struct {
	Category consumption.Category  `json:"category"`
	Readings []consumption.Reading `json:"readings"`
	Count    int                   `json:"count"`
	TotalKwh float64               `json:"total_kwh"`
}

// ResetResponse reports how many readings were zeroed.
type ResetResponse struct {
	Category consumption.Category `json:"category"`
	GroupID  string               `json:"group_id,omitempty"`
	Reset    int64                `json:"reset"`
}

// BucketResponse is one group of the grouped view.
type BucketResponse struct {
	Group            consumption.Group     `json:"group"`
	Ordinary         []consumption.Reading `json:"ordinary"`
	SharedCounters   []consumption.Reading `json:"shared_counters"`
	OrdinaryKwh      float64               `json:"ordinary_kwh"`
	SharedCounterKwh float64               `json:"shared_counter_kwh"`
}

// GroupedResponse is returned by the grouped readings endpoint.
type GroupedResponse struct {
	Category consumption.Category `json:"category"`
	Groups   []BucketResponse     `json:"groups"`
}

// NewGroupedResponse converts ordered buckets.
func NewGroupedResponse(category consumption.Category, buckets []*grouper.Bucket) GroupedResponse {
	resp := GroupedResponse{
		Category: category,
		Groups:   make([]BucketResponse, 0, len(buckets)),
	}
	for _, b := range buckets {
		resp.Groups = append(resp.Groups, BucketResponse{
			Group:            b.Group,
			Ordinary:         nonNil(b.Ordinary),
			SharedCounters:   nonNil(b.SharedCounters),
			OrdinaryKwh:      b.OrdinaryTotal(),
			SharedCounterKwh: b.SharedCounterTotal(),
		})
	}
	return resp
}

func nonNil(readings []consumption.Reading) []consumption.Reading {
	if readings == nil {
		return []consumption.Reading{}
	}
	return readings
}

// RollupResponse is the hierarchical total of a group.
type RollupResponse struct {
	GroupID  string               `json:"group_id"`
	Category consumption.Category `json:"category"`
	grouper.Totals
}

// ThresholdListResponse is returned when listing thresholds.
type ThresholdListResponse struct {
	Thresholds []threshold.Threshold `json:"thresholds"`
	Count      int                   `json:"count"`
}

// AlertListResponse is returned by the threshold alerts endpoint.
type AlertListResponse struct {
	Alerts []threshold.Alert `json:"alerts"`
	Count  int               `json:"count"`
}

// RegistryListResponse is returned when listing registry entries.
type RegistryListResponse struct {
	Registries []consumption.OfficeRegistry `json:"registries"`
	Count      int                          `json:"count"`
}

// CompanyNameResponse resolves the company shown for one reading.
type CompanyNameResponse struct {
	Category    consumption.Category `json:"category"`
	ReadingID   string               `json:"reading_id"`
	CompanyName string               `json:"company_name"`
}

// CategorySummary is the headline of one category in a stored result.
type CategorySummary struct {
	Category       consumption.Category `json:"category"`
	TotalKwh       float64              `json:"total_kwh"`
	AllocatedTotal float64              `json:"allocated_total"`
	BillAmount     float64              `json:"bill_amount"`
}

// CalculationSummary lists a stored result without its readings.
type CalculationSummary struct {
	ID         string            `json:"id"`
	CreatedAt  string            `json:"created_at"`
	Month      string            `json:"month"`
	Categories []CategorySummary `json:"categories"`
}

// NewCalculationSummary converts a stored result.
func NewCalculationSummary(r consumption.CalculationResult) CalculationSummary {
	s := CalculationSummary{
		ID:         r.ID,
		CreatedAt:  r.CreatedAt.UTC().Format(time.RFC3339),
		Month:      r.Month,
		Categories: make([]CategorySummary, 0, len(r.Categories)),
	}
	for _, c := range r.Categories {
		s.Categories = append(s.Categories, CategorySummary{
			Category:       c.Category,
			TotalKwh:       c.Total,
			AllocatedTotal: c.AllocatedTotal,
			BillAmount:     c.Bill.TotalAmount,
		})
	}
	return s
}

// CalculationListResponse is returned when listing stored results.
type CalculationListResponse struct {
	Calculations []CalculationSummary `json:"calculations"`
	Count        int                  `json:"count"`
}

// MonthlyResponse is returned by the monthly history endpoint.
type MonthlyResponse struct {
	Months []history.MonthlySummary `json:"months"`
}

// AllocateResponse is returned by the stateless allocation endpoint.
type AllocateResponse struct {
	Readings        []consumption.Reading `json:"readings"`
	BaseKwh         float64               `json:"base_kwh"`
	TotalCost       float64               `json:"total_cost"`
	TotalPercentage float64               `json:"total_percentage"`
}

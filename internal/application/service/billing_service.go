// Package service owns the editable working set (groups, readings, bills,
// thresholds, office registry, company info) and runs calculations against it.
package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/eshaffer321/energysplit/internal/domain/assembler"
	"github.com/eshaffer321/energysplit/internal/domain/consumption"
	"github.com/eshaffer321/energysplit/internal/domain/grouper"
	"github.com/eshaffer321/energysplit/internal/domain/history"
	"github.com/eshaffer321/energysplit/internal/domain/threshold"
	"github.com/eshaffer321/energysplit/internal/domain/validator"
	"github.com/eshaffer321/energysplit/internal/infrastructure/storage"
	"github.com/eshaffer321/energysplit/internal/observability/metrics"
)

// MaxGeneratedReadings bounds a single GenerateReadings call.
const MaxGeneratedReadings = 500

// BillingService manages the working set and calculations.
type BillingService struct {
	storage   storage.Repository
	assembler *assembler.Assembler
	logger    *slog.Logger
	newID     func() string
}

// NewBillingService creates a new billing service. A nil assembler uses the
// default exclude policy.
func NewBillingService(store storage.Repository, asm *assembler.Assembler, logger *slog.Logger) *BillingService {
	if asm == nil {
		asm = assembler.New()
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &BillingService{
		storage:   store,
		assembler: asm,
		logger:    logger,
		newID:     uuid.NewString,
	}
}

func invalid(format string, args ...any) error {
	return fmt.Errorf("%w: %s", consumption.ErrInvalidInput, fmt.Sprintf(format, args...))
}

// Groups

// AddGroup stores a new group and returns it with its assigned ID.
func (s *BillingService) AddGroup(ctx context.Context, g consumption.Group) (*consumption.Group, error) {
	if g.ID == "" {
		g.ID = s.newID()
	} else if _, err := s.storage.GetGroup(ctx, g.ID); err == nil {
		return nil, invalid("group %s already exists", g.ID)
	}

	if err := s.checkGroup(ctx, g); err != nil {
		return nil, err
	}
	if err := s.storage.SaveGroup(ctx, &g); err != nil {
		return nil, err
	}

	s.logger.Info("group added", "group_id", g.ID, "name", g.Name)
	return &g, nil
}

// UpdateGroup replaces an existing group.
func (s *BillingService) UpdateGroup(ctx context.Context, g consumption.Group) error {
	if _, err := s.storage.GetGroup(ctx, g.ID); err != nil {
		return err
	}
	if err := s.checkGroup(ctx, g); err != nil {
		return err
	}
	return s.storage.SaveGroup(ctx, &g)
}

func (s *BillingService) checkGroup(ctx context.Context, g consumption.Group) error {
	if strings.TrimSpace(g.Name) == "" {
		return invalid("group name is required")
	}
	if g.Category != "" && !g.Category.Valid() {
		return invalid("unknown category %q", g.Category)
	}
	if g.NumberOfUnits < 0 {
		return invalid("number of units must not be negative")
	}
	if g.ParentGroupID == "" {
		return nil
	}
	if g.ParentGroupID == g.ID {
		return invalid("group %s cannot be its own parent", g.ID)
	}
	if _, err := s.storage.GetGroup(ctx, g.ParentGroupID); err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return invalid("parent group %s does not exist", g.ParentGroupID)
		}
		return err
	}
	return nil
}

// DeleteGroup removes a group together with its readings in every category.
func (s *BillingService) DeleteGroup(ctx context.Context, id string) error {
	if err := s.storage.DeleteGroup(ctx, id); err != nil {
		return err
	}
	s.logger.Info("group deleted", "group_id", id)
	return nil
}

// ListGroups returns all groups in creation order.
func (s *BillingService) ListGroups(ctx context.Context) ([]consumption.Group, error) {
	return s.storage.ListGroups(ctx)
}

// GroupedReadings partitions a category's readings by group, in group order.
func (s *BillingService) GroupedReadings(ctx context.Context, category consumption.Category) ([]*grouper.Bucket, error) {
	buckets, groups, err := s.buckets(ctx, category)
	if err != nil {
		return nil, err
	}
	return grouper.Ordered(buckets, groups), nil
}

// Rollup sums a group and its descendants for one category.
func (s *BillingService) Rollup(ctx context.Context, category consumption.Category, groupID string) (grouper.Totals, error) {
	if _, err := s.storage.GetGroup(ctx, groupID); err != nil {
		return grouper.Totals{}, err
	}
	buckets, _, err := s.buckets(ctx, category)
	if err != nil {
		return grouper.Totals{}, err
	}
	return grouper.Rollup(buckets, groupID), nil
}

func (s *BillingService) buckets(ctx context.Context, category consumption.Category) (map[string]*grouper.Bucket, []consumption.Group, error) {
	if !category.Valid() {
		return nil, nil, invalid("unknown category %q", category)
	}
	ws, err := s.storage.LoadWorkingSet(ctx)
	if err != nil {
		return nil, nil, err
	}
	return grouper.Group(ws.Readings[category], ws.Groups), ws.Groups, nil
}

// Readings

// UpsertReading creates or replaces a reading and returns it with its ID.
func (s *BillingService) UpsertReading(ctx context.Context, category consumption.Category, r consumption.Reading) (*consumption.Reading, error) {
	if !category.Valid() {
		return nil, invalid("unknown category %q", category)
	}
	if r.ID == "" {
		r.ID = s.newID()
	}
	if err := r.Validate(); err != nil {
		return nil, err
	}
	if r.GroupID != "" {
		if _, err := s.storage.GetGroup(ctx, r.GroupID); err != nil {
			if errors.Is(err, storage.ErrNotFound) {
				return nil, invalid("group %s does not exist", r.GroupID)
			}
			return nil, err
		}
	}

	r.CostShare, r.PercentageShare = nil, nil
	if err := s.storage.SaveReading(ctx, category, &r); err != nil {
		return nil, err
	}
	return &r, nil
}

// UpdateConsumption sets the kWh of an existing reading.
func (s *BillingService) UpdateConsumption(ctx context.Context, category consumption.Category, id string, kwh float64) (*consumption.Reading, error) {
	if !category.Valid() {
		return nil, invalid("unknown category %q", category)
	}
	r, err := s.storage.GetReading(ctx, category, id)
	if err != nil {
		return nil, err
	}
	r.Kwh = kwh
	if err := r.Validate(); err != nil {
		return nil, err
	}
	if err := s.storage.SaveReading(ctx, category, r); err != nil {
		return nil, err
	}
	return r, nil
}

// DeleteReading removes a reading with its threshold and registry entry.
func (s *BillingService) DeleteReading(ctx context.Context, category consumption.Category, id string) error {
	if !category.Valid() {
		return invalid("unknown category %q", category)
	}
	return s.storage.DeleteReading(ctx, category, id)
}

// ResetConsumption zeroes kWh for the whole category, or one group of it.
func (s *BillingService) ResetConsumption(ctx context.Context, category consumption.Category, groupID string) (int64, error) {
	if !category.Valid() {
		return 0, invalid("unknown category %q", category)
	}
	n, err := s.storage.ResetConsumption(ctx, category, groupID)
	if err != nil {
		return 0, err
	}
	s.logger.Info("consumption reset", "category", category, "group_id", groupID, "readings", n)
	return n, nil
}

// ListReadings returns a category's readings in insertion order.
func (s *BillingService) ListReadings(ctx context.Context, category consumption.Category) ([]consumption.Reading, error) {
	if !category.Valid() {
		return nil, invalid("unknown category %q", category)
	}
	return s.storage.ListReadings(ctx, category)
}

// GenerateRequest asks for default readings in a group.
type GenerateRequest struct {
	GroupID        string
	Count          int
	SharedCounters int
}

// GenerateReadings creates Count zero-consumption readings named after the
// group, followed by SharedCounters shared counters.
func (s *BillingService) GenerateReadings(ctx context.Context, category consumption.Category, req GenerateRequest) ([]consumption.Reading, error) {
	if !category.Valid() {
		return nil, invalid("unknown category %q", category)
	}
	if req.Count < 0 || req.SharedCounters < 0 {
		return nil, invalid("counts must not be negative")
	}
	if req.Count+req.SharedCounters > MaxGeneratedReadings {
		return nil, invalid("at most %d readings can be generated at once", MaxGeneratedReadings)
	}

	group, err := s.storage.GetGroup(ctx, req.GroupID)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return nil, invalid("group %s does not exist", req.GroupID)
		}
		return nil, err
	}

	created := make([]consumption.Reading, 0, req.Count+req.SharedCounters)
	for i := 0; i < req.Count; i++ {
		created = append(created, consumption.Reading{
			ID:      s.newID(),
			Name:    group.Name + " " + strconv.Itoa(i+1),
			GroupID: group.ID,
		})
	}
	for i := 0; i < req.SharedCounters; i++ {
		name := group.Name + " general counter"
		if req.SharedCounters > 1 {
			name += " " + strconv.Itoa(i+1)
		}
		created = append(created, consumption.Reading{
			ID:              s.newID(),
			Name:            name,
			GroupID:         group.ID,
			IsSharedCounter: true,
		})
	}

	for i := range created {
		if err := s.storage.SaveReading(ctx, category, &created[i]); err != nil {
			return nil, err
		}
	}

	s.logger.Info("readings generated",
		"category", category,
		"group_id", group.ID,
		"readings", req.Count,
		"shared_counters", req.SharedCounters,
	)
	return created, nil
}

// Bills

// SetBill replaces the bill of a category.
func (s *BillingService) SetBill(ctx context.Context, category consumption.Category, bill consumption.Bill) error {
	if !category.Valid() {
		return invalid("unknown category %q", category)
	}
	if err := bill.Validate(); err != nil {
		return err
	}
	return s.storage.SaveBill(ctx, category, bill)
}

// GetBill returns the bill of a category, or storage.ErrNotFound.
func (s *BillingService) GetBill(ctx context.Context, category consumption.Category) (*consumption.Bill, error) {
	if !category.Valid() {
		return nil, invalid("unknown category %q", category)
	}
	return s.storage.GetBill(ctx, category)
}

// Thresholds

// SetThreshold stores the limit of an existing reading.
func (s *BillingService) SetThreshold(ctx context.Context, t threshold.Threshold) error {
	if err := t.Validate(); err != nil {
		return err
	}
	if _, err := s.storage.GetReading(ctx, t.Category, t.ReadingID); err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return invalid("reading %s does not exist in %s", t.ReadingID, t.Category)
		}
		return err
	}
	return s.storage.SaveThreshold(ctx, t)
}

// ListThresholds returns every stored threshold.
func (s *BillingService) ListThresholds(ctx context.Context) ([]threshold.Threshold, error) {
	return s.storage.ListThresholds(ctx)
}

// CheckThresholds returns the readings above their active limits, office
// first, each category in reading order.
func (s *BillingService) CheckThresholds(ctx context.Context) ([]threshold.Alert, error) {
	thresholds, err := s.storage.ListThresholds(ctx)
	if err != nil {
		return nil, err
	}
	ws, err := s.storage.LoadWorkingSet(ctx)
	if err != nil {
		return nil, err
	}

	alerts := []threshold.Alert{}
	for _, c := range consumption.Categories {
		found := threshold.Check(c, ws.Readings[c], thresholds)
		metrics.SetThresholdAlerts(string(c), len(found))
		alerts = append(alerts, found...)
	}
	return alerts, nil
}

// Calculations

// Calculate allocates every category's bill over the current working set,
// stores the snapshot and returns it. A category without a bill allocates
// an amount of zero.
func (s *BillingService) Calculate(ctx context.Context) (*consumption.CalculationResult, error) {
	start := time.Now()
	result, err := s.calculate(ctx)

	outcome := metrics.ResultSuccess
	if err != nil {
		outcome = metrics.ResultError
	}
	metrics.ObserveCalculation(outcome, time.Since(start))

	return result, err
}

func (s *BillingService) calculate(ctx context.Context) (*consumption.CalculationResult, error) {
	ws, err := s.storage.LoadWorkingSet(ctx)
	if err != nil {
		return nil, fmt.Errorf("load working set: %w", err)
	}

	inputs := make([]assembler.CategoryInput, 0, len(consumption.Categories))
	for _, c := range consumption.Categories {
		bill, ok := ws.Bills[c]
		if !ok {
			s.logger.Warn("no bill set, allocating zero", "category", c)
		}
		inputs = append(inputs, assembler.CategoryInput{
			Category: c,
			Readings: ws.Readings[c],
			Bill:     bill,
		})
	}

	result, err := s.assembler.AssembleAll(inputs, ws.Groups)
	if err != nil {
		return nil, err
	}
	result.CompanyInfo = ws.Company.Clone()

	for _, v := range validator.ValidateResult(result) {
		metrics.IncConservationFailure(string(v.Category))
		s.logger.Warn("allocation out of tolerance",
			"calculation_id", result.ID,
			"category", v.Category,
			"reason", v.Reason,
		)
	}

	if err := s.storage.SaveResult(ctx, result); err != nil {
		return nil, fmt.Errorf("save result: %w", err)
	}

	for _, block := range result.Categories {
		metrics.SetAllocatedAmount(string(block.Category), block.AllocatedTotal)
	}

	s.logger.Info("calculation stored",
		"calculation_id", result.ID,
		"month", result.Month,
		"policy", s.assembler.Policy(),
	)
	return result, nil
}

// ListResults returns stored results newest first; limit <= 0 means all.
func (s *BillingService) ListResults(ctx context.Context, limit int) ([]consumption.CalculationResult, error) {
	return s.storage.ListResults(ctx, limit)
}

// GetResult returns a stored result or storage.ErrNotFound.
func (s *BillingService) GetResult(ctx context.Context, id string) (*consumption.CalculationResult, error) {
	return s.storage.GetResult(ctx, id)
}

// DeleteResult removes a stored result.
func (s *BillingService) DeleteResult(ctx context.Context, id string) error {
	return s.storage.DeleteResult(ctx, id)
}

// Monthly summarizes stored results per month, ascending.
func (s *BillingService) Monthly(ctx context.Context) ([]history.MonthlySummary, error) {
	results, err := s.storage.ListResults(ctx, 0)
	if err != nil {
		return nil, err
	}
	return history.MonthlySummaries(results), nil
}

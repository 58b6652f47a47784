package storage

import (
	"context"
	"sort"
	"sync"

	"github.com/eshaffer321/energysplit/internal/domain/consumption"
	"github.com/eshaffer321/energysplit/internal/domain/threshold"
)

// MockRepository is an in-memory implementation of Repository for testing.
// It stores all data in maps and slices, making tests fast and isolated.
// All methods are safe for concurrent use.
type MockRepository struct {
	mu         sync.Mutex
	groups     []consumption.Group
	readings   map[consumption.Category][]consumption.Reading
	bills      map[consumption.Category]consumption.Bill
	thresholds map[thresholdKey]threshold.Threshold
	results    map[string]*consumption.CalculationResult
	registries []consumption.OfficeRegistry
	company    *consumption.CompanyInfo

	// Hooks for test assertions
	SaveResultCalled bool
	LastSavedResult  *consumption.CalculationResult

	// Error injection for testing error paths
	SaveGroupErr      error
	SaveReadingErr    error
	SaveBillErr       error
	SaveResultErr     error
	SaveRegistryErr   error
	LoadWorkingSetErr error
}

type thresholdKey struct {
	category  consumption.Category
	readingID string
}

// NewMockRepository creates a new mock repository for testing
func NewMockRepository() *MockRepository {
	return &MockRepository{
		groups:     []consumption.Group{},
		readings:   make(map[consumption.Category][]consumption.Reading),
		bills:      make(map[consumption.Category]consumption.Bill),
		thresholds: make(map[thresholdKey]threshold.Threshold),
		results:    make(map[string]*consumption.CalculationResult),
		registries: []consumption.OfficeRegistry{},
	}
}

// Compile-time check that MockRepository implements Repository
var _ Repository = (*MockRepository)(nil)

// Close does nothing for mock
func (m *MockRepository) Close() error {
	return nil
}

func (m *MockRepository) groupIndex(id string) int {
	for i, g := range m.groups {
		if g.ID == id {
			return i
		}
	}
	return -1
}

func (m *MockRepository) readingIndex(category consumption.Category, id string) int {
	for i, r := range m.readings[category] {
		if r.ID == id {
			return i
		}
	}
	return -1
}

// SaveGroup inserts or replaces a group
func (m *MockRepository) SaveGroup(_ context.Context, group *consumption.Group) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.SaveGroupErr != nil {
		return m.SaveGroupErr
	}
	if i := m.groupIndex(group.ID); i >= 0 {
		m.groups[i] = *group
		return nil
	}
	m.groups = append(m.groups, *group)
	return nil
}

// GetGroup retrieves a group by ID
func (m *MockRepository) GetGroup(_ context.Context, id string) (*consumption.Group, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	i := m.groupIndex(id)
	if i < 0 {
		return nil, ErrNotFound
	}
	g := m.groups[i]
	return &g, nil
}

// ListGroups returns a copy of all groups in creation order
func (m *MockRepository) ListGroups(_ context.Context) ([]consumption.Group, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return consumption.CloneGroups(m.groups), nil
}

// DeleteGroup removes a group, its readings and their thresholds and
// registry entries
func (m *MockRepository) DeleteGroup(_ context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	i := m.groupIndex(id)
	if i < 0 {
		return ErrNotFound
	}
	m.groups = append(m.groups[:i], m.groups[i+1:]...)

	for c, readings := range m.readings {
		kept := readings[:0]
		for _, r := range readings {
			if r.GroupID == id {
				delete(m.thresholds, thresholdKey{c, r.ID})
				m.dropRegistry(c, r.ID)
				continue
			}
			kept = append(kept, r)
		}
		m.readings[c] = kept
	}

	for j := range m.groups {
		if m.groups[j].ParentGroupID == id {
			m.groups[j].ParentGroupID = ""
		}
	}
	return nil
}

// SaveReading inserts or updates a reading, keeping its position
func (m *MockRepository) SaveReading(_ context.Context, category consumption.Category, reading *consumption.Reading) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.SaveReadingErr != nil {
		return m.SaveReadingErr
	}
	r := reading.Clone()
	r.CostShare, r.PercentageShare = nil, nil
	if i := m.readingIndex(category, r.ID); i >= 0 {
		m.readings[category][i] = r
		return nil
	}
	m.readings[category] = append(m.readings[category], r)
	return nil
}

// GetReading retrieves a reading by ID
func (m *MockRepository) GetReading(_ context.Context, category consumption.Category, id string) (*consumption.Reading, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	i := m.readingIndex(category, id)
	if i < 0 {
		return nil, ErrNotFound
	}
	r := m.readings[category][i].Clone()
	return &r, nil
}

// ListReadings returns a copy of the readings of a category
func (m *MockRepository) ListReadings(_ context.Context, category consumption.Category) ([]consumption.Reading, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return consumption.CloneReadings(m.readings[category]), nil
}

// DeleteReading removes a reading with its threshold and registry entry
func (m *MockRepository) DeleteReading(_ context.Context, category consumption.Category, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	i := m.readingIndex(category, id)
	if i < 0 {
		return ErrNotFound
	}
	m.readings[category] = append(m.readings[category][:i], m.readings[category][i+1:]...)
	delete(m.thresholds, thresholdKey{category, id})
	m.dropRegistry(category, id)
	return nil
}

// ResetConsumption zeroes kWh for a category, optionally limited to a group
func (m *MockRepository) ResetConsumption(_ context.Context, category consumption.Category, groupID string) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var n int64
	for i := range m.readings[category] {
		if groupID != "" && m.readings[category][i].GroupID != groupID {
			continue
		}
		m.readings[category][i].Kwh = 0
		n++
	}
	return n, nil
}

// SaveBill replaces the bill of a category
func (m *MockRepository) SaveBill(_ context.Context, category consumption.Category, bill consumption.Bill) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.SaveBillErr != nil {
		return m.SaveBillErr
	}
	m.bills[category] = bill
	return nil
}

// GetBill retrieves the bill of a category
func (m *MockRepository) GetBill(_ context.Context, category consumption.Category) (*consumption.Bill, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	b, ok := m.bills[category]
	if !ok {
		return nil, ErrNotFound
	}
	return &b, nil
}

// SaveThreshold inserts or replaces a threshold
func (m *MockRepository) SaveThreshold(_ context.Context, t threshold.Threshold) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.thresholds[thresholdKey{t.Category, t.ReadingID}] = t
	return nil
}

// ListThresholds returns thresholds ordered by category and reading
func (m *MockRepository) ListThresholds(_ context.Context) ([]threshold.Threshold, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]threshold.Threshold, 0, len(m.thresholds))
	for _, t := range m.thresholds {
		out = append(out, t)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Category != out[j].Category {
			return out[i].Category < out[j].Category
		}
		return out[i].ReadingID < out[j].ReadingID
	})
	return out, nil
}

// SaveResult stores a copy of the result
func (m *MockRepository) SaveResult(_ context.Context, result *consumption.CalculationResult) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.SaveResultCalled = true
	m.LastSavedResult = result
	if m.SaveResultErr != nil {
		return m.SaveResultErr
	}
	m.results[result.ID] = result.Clone()
	return nil
}

// GetResult retrieves a copy of a stored result
func (m *MockRepository) GetResult(_ context.Context, id string) (*consumption.CalculationResult, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	r, ok := m.results[id]
	if !ok {
		return nil, ErrNotFound
	}
	return r.Clone(), nil
}

// ListResults returns stored results newest first
func (m *MockRepository) ListResults(_ context.Context, limit int) ([]consumption.CalculationResult, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]consumption.CalculationResult, 0, len(m.results))
	for _, r := range m.results {
		out = append(out, *r.Clone())
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].CreatedAt.After(out[j].CreatedAt)
		}
		return out[i].ID > out[j].ID
	})
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

// DeleteResult removes a stored result
func (m *MockRepository) DeleteResult(_ context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.results[id]; !ok {
		return ErrNotFound
	}
	delete(m.results, id)
	return nil
}

// LoadWorkingSet returns a copy of the current working set
func (m *MockRepository) LoadWorkingSet(_ context.Context) (*WorkingSet, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.LoadWorkingSetErr != nil {
		return nil, m.LoadWorkingSetErr
	}
	ws := NewWorkingSet()
	ws.Groups = consumption.CloneGroups(m.groups)
	for c, readings := range m.readings {
		ws.Readings[c] = consumption.CloneReadings(readings)
	}
	for c, b := range m.bills {
		ws.Bills[c] = b
	}
	ws.Registries = m.sortedRegistries("")
	ws.Company = m.company.Clone()
	return ws, nil
}

func (m *MockRepository) dropRegistry(category consumption.Category, readingID string) {
	kept := m.registries[:0]
	for _, r := range m.registries {
		if r.Category == category && r.ReadingID == readingID {
			continue
		}
		kept = append(kept, r)
	}
	m.registries = kept
}

func (m *MockRepository) sortedRegistries(category consumption.Category) []consumption.OfficeRegistry {
	out := []consumption.OfficeRegistry{}
	for _, r := range m.registries {
		if category == "" || r.Category == category {
			out = append(out, r)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Category != out[j].Category {
			return out[i].Category < out[j].Category
		}
		return out[i].ReadingID < out[j].ReadingID
	})
	return out
}

// SaveRegistry upserts the entry of a reading, keeping an existing ID
func (m *MockRepository) SaveRegistry(_ context.Context, registry *consumption.OfficeRegistry) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.SaveRegistryErr != nil {
		return m.SaveRegistryErr
	}

	kept := m.registries[:0]
	for _, r := range m.registries {
		if r.ID == registry.ID && (r.Category != registry.Category || r.ReadingID != registry.ReadingID) {
			continue
		}
		kept = append(kept, r)
	}
	m.registries = kept

	for i, r := range m.registries {
		if r.Category == registry.Category && r.ReadingID == registry.ReadingID {
			registry.ID = r.ID
			m.registries[i] = *registry
			return nil
		}
	}
	m.registries = append(m.registries, *registry)
	return nil
}

// GetRegistry retrieves a registry entry by ID
func (m *MockRepository) GetRegistry(_ context.Context, id string) (*consumption.OfficeRegistry, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, r := range m.registries {
		if r.ID == id {
			out := r
			return &out, nil
		}
	}
	return nil, ErrNotFound
}

// ListRegistries returns entries ordered by category and reading
func (m *MockRepository) ListRegistries(_ context.Context, category consumption.Category) ([]consumption.OfficeRegistry, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.sortedRegistries(category), nil
}

// DeleteRegistry removes a registry entry
func (m *MockRepository) DeleteRegistry(_ context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for i, r := range m.registries {
		if r.ID == id {
			m.registries = append(m.registries[:i], m.registries[i+1:]...)
			return nil
		}
	}
	return ErrNotFound
}

// SaveCompanyInfo replaces the company info
func (m *MockRepository) SaveCompanyInfo(_ context.Context, info *consumption.CompanyInfo) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.company = info.Clone()
	return nil
}

// GetCompanyInfo returns a copy of the company info
func (m *MockRepository) GetCompanyInfo(_ context.Context) (*consumption.CompanyInfo, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.company == nil {
		return nil, ErrNotFound
	}
	return m.company.Clone(), nil
}

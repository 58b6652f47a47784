package storage

import (
	"context"
	"errors"

	"github.com/eshaffer321/energysplit/internal/domain/consumption"
	"github.com/eshaffer321/energysplit/internal/domain/threshold"
)

// ErrNotFound is returned when a requested row does not exist.
var ErrNotFound = errors.New("not found")

// Repository defines the complete storage interface.
// This interface allows swapping implementations (SQLite, PostgreSQL, etc.)
// and makes testing with mocks straightforward.
type Repository interface {
	GroupRepository
	ReadingRepository
	BillRepository
	ThresholdRepository
	ResultRepository
	RegistryRepository
	CompanyRepository

	// LoadWorkingSet reads groups, readings, bills, registry entries and the
	// company info in a single consistent snapshot
	LoadWorkingSet(ctx context.Context) (*WorkingSet, error)

	Close() error
}

// GroupRepository handles reading groups
type GroupRepository interface {
	// SaveGroup inserts or replaces a group by ID
	SaveGroup(ctx context.Context, group *consumption.Group) error

	// GetGroup returns ErrNotFound for unknown IDs
	GetGroup(ctx context.Context, id string) (*consumption.Group, error)

	// ListGroups returns groups in creation order
	ListGroups(ctx context.Context) ([]consumption.Group, error)

	// DeleteGroup removes a group, its readings in every category and their
	// thresholds and registry entries. Child groups are detached.
	DeleteGroup(ctx context.Context, id string) error
}

// ReadingRepository handles the meter readings of a category
type ReadingRepository interface {
	// SaveReading inserts or updates a reading. Updates keep the reading's
	// position in the list.
	SaveReading(ctx context.Context, category consumption.Category, reading *consumption.Reading) error

	// GetReading returns ErrNotFound for unknown IDs
	GetReading(ctx context.Context, category consumption.Category, id string) (*consumption.Reading, error)

	// ListReadings returns readings in insertion order
	ListReadings(ctx context.Context, category consumption.Category) ([]consumption.Reading, error)

	// DeleteReading removes a reading with its threshold and registry entry
	DeleteReading(ctx context.Context, category consumption.Category, id string) error

	// ResetConsumption zeroes kWh for every reading of the category, or only
	// for those of groupID when it is not empty. Returns the rows touched.
	ResetConsumption(ctx context.Context, category consumption.Category, groupID string) (int64, error)
}

// BillRepository handles the current bill of each category
type BillRepository interface {
	SaveBill(ctx context.Context, category consumption.Category, bill consumption.Bill) error

	// GetBill returns ErrNotFound when no bill was set
	GetBill(ctx context.Context, category consumption.Category) (*consumption.Bill, error)
}

// ThresholdRepository handles consumption thresholds
type ThresholdRepository interface {
	// SaveThreshold inserts or replaces the threshold of a reading
	SaveThreshold(ctx context.Context, t threshold.Threshold) error

	ListThresholds(ctx context.Context) ([]threshold.Threshold, error)
}

// ResultRepository handles stored calculation results
type ResultRepository interface {
	SaveResult(ctx context.Context, result *consumption.CalculationResult) error

	// GetResult returns ErrNotFound for unknown IDs
	GetResult(ctx context.Context, id string) (*consumption.CalculationResult, error)

	// ListResults returns results newest first; limit <= 0 means all
	ListResults(ctx context.Context, limit int) ([]consumption.CalculationResult, error)

	// DeleteResult returns ErrNotFound for unknown IDs
	DeleteResult(ctx context.Context, id string) error
}

// RegistryRepository handles office registry entries
type RegistryRepository interface {
	// SaveRegistry inserts or updates the entry of a reading. An entry that
	// already exists for the same category and reading keeps its ID, which
	// is written back into registry.
	SaveRegistry(ctx context.Context, registry *consumption.OfficeRegistry) error

	// GetRegistry returns ErrNotFound for unknown IDs
	GetRegistry(ctx context.Context, id string) (*consumption.OfficeRegistry, error)

	// ListRegistries returns entries ordered by category and reading.
	// An empty category lists every category.
	ListRegistries(ctx context.Context, category consumption.Category) ([]consumption.OfficeRegistry, error)

	// DeleteRegistry returns ErrNotFound for unknown IDs
	DeleteRegistry(ctx context.Context, id string) error
}

// CompanyRepository handles the single company info record
type CompanyRepository interface {
	// SaveCompanyInfo replaces the stored company info
	SaveCompanyInfo(ctx context.Context, info *consumption.CompanyInfo) error

	// GetCompanyInfo returns ErrNotFound when none was saved
	GetCompanyInfo(ctx context.Context) (*consumption.CompanyInfo, error)
}

// WorkingSet is the editable state a calculation runs against
type WorkingSet struct {
	Groups     []consumption.Group
	Readings   map[consumption.Category][]consumption.Reading
	Bills      map[consumption.Category]consumption.Bill
	Registries []consumption.OfficeRegistry
	// Company is nil when no company info was saved
	Company *consumption.CompanyInfo
}

// NewWorkingSet returns an empty working set with every category present
func NewWorkingSet() *WorkingSet {
	ws := &WorkingSet{
		Groups:     []consumption.Group{},
		Readings:   make(map[consumption.Category][]consumption.Reading, len(consumption.Categories)),
		Bills:      make(map[consumption.Category]consumption.Bill, len(consumption.Categories)),
		Registries: []consumption.OfficeRegistry{},
	}
	for _, c := range consumption.Categories {
		ws.Readings[c] = []consumption.Reading{}
	}
	return ws
}

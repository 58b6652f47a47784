package service

import (
	"context"
	"errors"

	"github.com/eshaffer321/energysplit/internal/domain/consumption"
	"github.com/eshaffer321/energysplit/internal/infrastructure/storage"
)

// Office registry

// UpsertRegistry stores who occupies a reading. The reading must exist; an
// entry already present for it is updated in place and keeps its ID. An
// empty group ID is taken from the reading.
func (s *BillingService) UpsertRegistry(ctx context.Context, r consumption.OfficeRegistry) (*consumption.OfficeRegistry, error) {
	if err := r.Validate(); err != nil {
		return nil, err
	}

	reading, err := s.storage.GetReading(ctx, r.Category, r.ReadingID)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return nil, invalid("reading %s does not exist in %s", r.ReadingID, r.Category)
		}
		return nil, err
	}
	if r.GroupID == "" {
		r.GroupID = reading.GroupID
	}
	if r.ID == "" {
		r.ID = s.newID()
	}

	if err := s.storage.SaveRegistry(ctx, &r); err != nil {
		return nil, err
	}

	s.logger.Info("registry saved",
		"registry_id", r.ID,
		"category", r.Category,
		"reading_id", r.ReadingID,
		"company", r.CompanyName,
	)
	return &r, nil
}

// ListRegistries returns registry entries of one category, or of all of them
// when category is empty.
func (s *BillingService) ListRegistries(ctx context.Context, category consumption.Category) ([]consumption.OfficeRegistry, error) {
	if category != "" && !category.Valid() {
		return nil, invalid("unknown category %q", category)
	}
	return s.storage.ListRegistries(ctx, category)
}

// GetRegistry returns a registry entry or storage.ErrNotFound.
func (s *BillingService) GetRegistry(ctx context.Context, id string) (*consumption.OfficeRegistry, error) {
	return s.storage.GetRegistry(ctx, id)
}

// DeleteRegistry removes a registry entry.
func (s *BillingService) DeleteRegistry(ctx context.Context, id string) error {
	if err := s.storage.DeleteRegistry(ctx, id); err != nil {
		return err
	}
	s.logger.Info("registry deleted", "registry_id", id)
	return nil
}

// CompanyName returns the registered company of a reading, falling back to
// the reading's own name and then to consumption.DefaultCompanyName.
func (s *BillingService) CompanyName(ctx context.Context, category consumption.Category, readingID string) (string, error) {
	registries, err := s.ListRegistries(ctx, category)
	if err != nil {
		return "", err
	}

	fallback := ""
	if r, err := s.storage.GetReading(ctx, category, readingID); err == nil {
		fallback = r.Name
	} else if !errors.Is(err, storage.ErrNotFound) {
		return "", err
	}
	return consumption.CompanyNameFor(registries, category, readingID, fallback), nil
}

// Company info

// SetCompanyInfo replaces the company info. Without an ID the stored
// record's ID is kept.
func (s *BillingService) SetCompanyInfo(ctx context.Context, info consumption.CompanyInfo) (*consumption.CompanyInfo, error) {
	if err := info.Validate(); err != nil {
		return nil, err
	}

	if info.ID == "" {
		current, err := s.storage.GetCompanyInfo(ctx)
		switch {
		case err == nil:
			info.ID = current.ID
		case errors.Is(err, storage.ErrNotFound):
			info.ID = s.newID()
		default:
			return nil, err
		}
	}

	if err := s.storage.SaveCompanyInfo(ctx, &info); err != nil {
		return nil, err
	}
	s.logger.Info("company info saved", "company_id", info.ID, "name", info.Name, "type", info.Type)
	return &info, nil
}

// GetCompanyInfo returns the company info or storage.ErrNotFound.
func (s *BillingService) GetCompanyInfo(ctx context.Context) (*consumption.CompanyInfo, error) {
	return s.storage.GetCompanyInfo(ctx)
}

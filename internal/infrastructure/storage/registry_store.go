package storage

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/eshaffer321/energysplit/internal/domain/consumption"
)

// Office registry

const registryColumns = `id, category, reading_id, group_id, company_name, contact_person, email, phone, notes`

// SaveRegistry upserts the entry of a reading. Moving an existing entry to
// another reading drops its old row first.
func (s *sqlStore) SaveRegistry(ctx context.Context, r *consumption.OfficeRegistry) error {
	return s.withTx(ctx, func(tx *sql.Tx) error {
		_, err := tx.ExecContext(ctx, s.rebind(`
		DELETE FROM office_registry
		WHERE id = ? AND NOT (category = ? AND reading_id = ?)`),
			r.ID, string(r.Category), r.ReadingID)
		if err != nil {
			return fmt.Errorf("move registry %s: %w", r.ID, err)
		}

		query := s.rebind(`
		INSERT INTO office_registry (` + registryColumns + `)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT (category, reading_id) DO UPDATE SET
			group_id = excluded.group_id,
			company_name = excluded.company_name,
			contact_person = excluded.contact_person,
			email = excluded.email,
			phone = excluded.phone,
			notes = excluded.notes
		RETURNING id
		`)

		var id string
		err = tx.QueryRowContext(ctx, query,
			r.ID,
			string(r.Category),
			r.ReadingID,
			r.GroupID,
			r.CompanyName,
			r.ContactPerson,
			r.Email,
			r.Phone,
			r.Notes,
		).Scan(&id)
		if err != nil {
			return fmt.Errorf("save registry for %s reading %s: %w", r.Category, r.ReadingID, err)
		}
		r.ID = id
		return nil
	})
}

func scanRegistry(row interface{ Scan(...any) error }) (consumption.OfficeRegistry, error) {
	var r consumption.OfficeRegistry
	var category string
	err := row.Scan(
		&r.ID,
		&category,
		&r.ReadingID,
		&r.GroupID,
		&r.CompanyName,
		&r.ContactPerson,
		&r.Email,
		&r.Phone,
		&r.Notes,
	)
	r.Category = consumption.Category(category)
	return r, err
}

// GetRegistry retrieves a registry entry by ID
func (s *sqlStore) GetRegistry(ctx context.Context, id string) (*consumption.OfficeRegistry, error) {
	query := s.rebind(`SELECT ` + registryColumns + ` FROM office_registry WHERE id = ?`)
	r, err := scanRegistry(s.db.QueryRowContext(ctx, query, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get registry %s: %w", id, err)
	}
	return &r, nil
}

// ListRegistries returns registry entries, optionally for one category
func (s *sqlStore) ListRegistries(ctx context.Context, category consumption.Category) ([]consumption.OfficeRegistry, error) {
	return s.listRegistries(ctx, s.db, category)
}

func (s *sqlStore) listRegistries(ctx context.Context, q querier, category consumption.Category) ([]consumption.OfficeRegistry, error) {
	query := `SELECT ` + registryColumns + ` FROM office_registry`
	var args []any
	if category != "" {
		query += ` WHERE category = ?`
		args = append(args, string(category))
	}
	query += ` ORDER BY category, reading_id`

	rows, err := q.QueryContext(ctx, s.rebind(query), args...)
	if err != nil {
		return nil, fmt.Errorf("list registries: %w", err)
	}
	defer rows.Close()

	registries := []consumption.OfficeRegistry{}
	for rows.Next() {
		r, err := scanRegistry(rows)
		if err != nil {
			return nil, err
		}
		registries = append(registries, r)
	}
	return registries, rows.Err()
}

// DeleteRegistry removes a registry entry
func (s *sqlStore) DeleteRegistry(ctx context.Context, id string) error {
	res, err := s.db.ExecContext(ctx, s.rebind(`DELETE FROM office_registry WHERE id = ?`), id)
	if err != nil {
		return fmt.Errorf("delete registry %s: %w", id, err)
	}
	return requireAffected(res)
}

// Company info

// SaveCompanyInfo replaces the single company info row
func (s *sqlStore) SaveCompanyInfo(ctx context.Context, info *consumption.CompanyInfo) error {
	var admin sql.NullString
	if info.Administrator != nil {
		payload, err := json.Marshal(info.Administrator)
		if err != nil {
			return fmt.Errorf("encode administrator: %w", err)
		}
		admin = sql.NullString{String: string(payload), Valid: true}
	}

	return s.withTx(ctx, func(tx *sql.Tx) error {
		if _, err := tx.ExecContext(ctx, `DELETE FROM company_info`); err != nil {
			return fmt.Errorf("clear company info: %w", err)
		}
		query := s.rebind(`
		INSERT INTO company_info (id, name, type, address, vat_number, administrator, logo_url)
		VALUES (?, ?, ?, ?, ?, ?, ?)
		`)
		_, err := tx.ExecContext(ctx, query,
			info.ID,
			info.Name,
			string(info.Type),
			info.Address,
			info.VATNumber,
			admin,
			info.LogoURL,
		)
		if err != nil {
			return fmt.Errorf("save company info: %w", err)
		}
		return nil
	})
}

// GetCompanyInfo retrieves the stored company info
func (s *sqlStore) GetCompanyInfo(ctx context.Context) (*consumption.CompanyInfo, error) {
	return s.getCompanyInfo(ctx, s.db)
}

func (s *sqlStore) getCompanyInfo(ctx context.Context, q querier) (*consumption.CompanyInfo, error) {
	var info consumption.CompanyInfo
	var companyType string
	var admin sql.NullString
	err := q.QueryRowContext(ctx, `
	SELECT id, name, type, address, vat_number, administrator, logo_url
	FROM company_info LIMIT 1`).Scan(
		&info.ID,
		&info.Name,
		&companyType,
		&info.Address,
		&info.VATNumber,
		&admin,
		&info.LogoURL,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get company info: %w", err)
	}

	info.Type = consumption.CompanyType(companyType)
	if admin.Valid && admin.String != "" {
		info.Administrator = &consumption.Administrator{}
		if err := json.Unmarshal([]byte(admin.String), info.Administrator); err != nil {
			return nil, fmt.Errorf("decode administrator: %w", err)
		}
	}
	return &info, nil
}

package storage

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/eshaffer321/energysplit/internal/domain/consumption"
	"github.com/eshaffer321/energysplit/internal/domain/threshold"
)

// sqlStore holds the queries shared by the SQLite and PostgreSQL stores.
// Queries are written with ? placeholders and rebound per dialect.
type sqlStore struct {
	db       *sql.DB
	numbered bool // $1, $2... placeholders
}

type querier interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

func (s *sqlStore) rebind(query string) string {
	if !s.numbered {
		return query
	}
	var b strings.Builder
	n := 0
	for _, r := range query {
		if r == '?' {
			n++
			b.WriteString("$")
			b.WriteString(strconv.Itoa(n))
			continue
		}
		b.WriteRune(r)
	}
	return b.String()
}

// Close closes the database connection
func (s *sqlStore) Close() error {
	return s.db.Close()
}

func (s *sqlStore) withTx(ctx context.Context, fn func(tx *sql.Tx) error) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	if err := fn(tx); err != nil {
		_ = tx.Rollback()
		return err
	}
	return tx.Commit()
}

func requireAffected(res sql.Result) error {
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

// Groups

const groupColumns = `id, name, category, property_type, property_number, number_of_units, parent_group_id`

// SaveGroup inserts or replaces a group by ID
func (s *sqlStore) SaveGroup(ctx context.Context, g *consumption.Group) error {
	query := s.rebind(`
	INSERT INTO reading_groups (` + groupColumns + `)
	VALUES (?, ?, ?, ?, ?, ?, ?)
	ON CONFLICT (id) DO UPDATE SET
		name = excluded.name,
		category = excluded.category,
		property_type = excluded.property_type,
		property_number = excluded.property_number,
		number_of_units = excluded.number_of_units,
		parent_group_id = excluded.parent_group_id
	`)

	_, err := s.db.ExecContext(ctx, query,
		g.ID,
		g.Name,
		string(g.Category),
		g.PropertyType,
		g.PropertyNumber,
		g.NumberOfUnits,
		g.ParentGroupID,
	)
	if err != nil {
		return fmt.Errorf("save group %s: %w", g.ID, err)
	}
	return nil
}

func scanGroup(row interface{ Scan(...any) error }) (consumption.Group, error) {
	var g consumption.Group
	var category string
	err := row.Scan(
		&g.ID,
		&g.Name,
		&category,
		&g.PropertyType,
		&g.PropertyNumber,
		&g.NumberOfUnits,
		&g.ParentGroupID,
	)
	g.Category = consumption.Category(category)
	return g, err
}

// GetGroup retrieves a group by ID
func (s *sqlStore) GetGroup(ctx context.Context, id string) (*consumption.Group, error) {
	query := s.rebind(`SELECT ` + groupColumns + ` FROM reading_groups WHERE id = ?`)
	g, err := scanGroup(s.db.QueryRowContext(ctx, query, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get group %s: %w", id, err)
	}
	return &g, nil
}

// ListGroups returns all groups in creation order
func (s *sqlStore) ListGroups(ctx context.Context) ([]consumption.Group, error) {
	return s.listGroups(ctx, s.db)
}

func (s *sqlStore) listGroups(ctx context.Context, q querier) ([]consumption.Group, error) {
	rows, err := q.QueryContext(ctx, `SELECT `+groupColumns+` FROM reading_groups ORDER BY seq`)
	if err != nil {
		return nil, fmt.Errorf("list groups: %w", err)
	}
	defer rows.Close()

	groups := []consumption.Group{}
	for rows.Next() {
		g, err := scanGroup(rows)
		if err != nil {
			return nil, err
		}
		groups = append(groups, g)
	}
	return groups, rows.Err()
}

// DeleteGroup removes a group with its readings and their thresholds
func (s *sqlStore) DeleteGroup(ctx context.Context, id string) error {
	return s.withTx(ctx, func(tx *sql.Tx) error {
		res, err := tx.ExecContext(ctx, s.rebind(`DELETE FROM reading_groups WHERE id = ?`), id)
		if err != nil {
			return fmt.Errorf("delete group %s: %w", id, err)
		}
		if err := requireAffected(res); err != nil {
			return err
		}

		statements := []string{
			`DELETE FROM office_registry WHERE EXISTS (
				SELECT 1 FROM readings r
				WHERE r.category = office_registry.category
				  AND r.reading_id = office_registry.reading_id
				  AND r.group_id = ?)`,
			`DELETE FROM thresholds WHERE EXISTS (
				SELECT 1 FROM readings r
				WHERE r.category = thresholds.category
				  AND r.reading_id = thresholds.reading_id
				  AND r.group_id = ?)`,
			`DELETE FROM readings WHERE group_id = ?`,
			`UPDATE reading_groups SET parent_group_id = '' WHERE parent_group_id = ?`,
		}
		for _, stmt := range statements {
			if _, err := tx.ExecContext(ctx, s.rebind(stmt), id); err != nil {
				return fmt.Errorf("cascade group %s: %w", id, err)
			}
		}
		return nil
	})
}

// Readings

const readingColumns = `reading_id, name, kwh, group_id, is_shared_counter`

// SaveReading inserts or updates a reading, keeping its list position
func (s *sqlStore) SaveReading(ctx context.Context, category consumption.Category, r *consumption.Reading) error {
	query := s.rebind(`
	INSERT INTO readings (category, ` + readingColumns + `)
	VALUES (?, ?, ?, ?, ?, ?)
	ON CONFLICT (category, reading_id) DO UPDATE SET
		name = excluded.name,
		kwh = excluded.kwh,
		group_id = excluded.group_id,
		is_shared_counter = excluded.is_shared_counter
	`)

	_, err := s.db.ExecContext(ctx, query,
		string(category),
		r.ID,
		r.Name,
		r.Kwh,
		r.GroupID,
		r.IsSharedCounter,
	)
	if err != nil {
		return fmt.Errorf("save %s reading %s: %w", category, r.ID, err)
	}
	return nil
}

func scanReading(row interface{ Scan(...any) error }) (consumption.Reading, error) {
	var r consumption.Reading
	err := row.Scan(&r.ID, &r.Name, &r.Kwh, &r.GroupID, &r.IsSharedCounter)
	return r, err
}

// GetReading retrieves a reading by ID
func (s *sqlStore) GetReading(ctx context.Context, category consumption.Category, id string) (*consumption.Reading, error) {
	query := s.rebind(`SELECT ` + readingColumns + ` FROM readings WHERE category = ? AND reading_id = ?`)
	r, err := scanReading(s.db.QueryRowContext(ctx, query, string(category), id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get %s reading %s: %w", category, id, err)
	}
	return &r, nil
}

// ListReadings returns the readings of a category in insertion order
func (s *sqlStore) ListReadings(ctx context.Context, category consumption.Category) ([]consumption.Reading, error) {
	return s.listReadings(ctx, s.db, category)
}

func (s *sqlStore) listReadings(ctx context.Context, q querier, category consumption.Category) ([]consumption.Reading, error) {
	query := s.rebind(`SELECT ` + readingColumns + ` FROM readings WHERE category = ? ORDER BY seq`)
	rows, err := q.QueryContext(ctx, query, string(category))
	if err != nil {
		return nil, fmt.Errorf("list %s readings: %w", category, err)
	}
	defer rows.Close()

	readings := []consumption.Reading{}
	for rows.Next() {
		r, err := scanReading(rows)
		if err != nil {
			return nil, err
		}
		readings = append(readings, r)
	}
	return readings, rows.Err()
}

// DeleteReading removes a reading with its threshold and registry entry
func (s *sqlStore) DeleteReading(ctx context.Context, category consumption.Category, id string) error {
	return s.withTx(ctx, func(tx *sql.Tx) error {
		res, err := tx.ExecContext(ctx, s.rebind(`DELETE FROM readings WHERE category = ? AND reading_id = ?`), string(category), id)
		if err != nil {
			return fmt.Errorf("delete %s reading %s: %w", category, id, err)
		}
		if err := requireAffected(res); err != nil {
			return err
		}
		for _, table := range []string{"thresholds", "office_registry"} {
			stmt := s.rebind(`DELETE FROM ` + table + ` WHERE category = ? AND reading_id = ?`)
			if _, err := tx.ExecContext(ctx, stmt, string(category), id); err != nil {
				return fmt.Errorf("cascade %s reading %s: %w", category, id, err)
			}
		}
		return nil
	})
}

// ResetConsumption zeroes kWh for a category, optionally limited to one group
func (s *sqlStore) ResetConsumption(ctx context.Context, category consumption.Category, groupID string) (int64, error) {
	query := `UPDATE readings SET kwh = 0 WHERE category = ?`
	args := []any{string(category)}
	if groupID != "" {
		query += ` AND group_id = ?`
		args = append(args, groupID)
	}

	res, err := s.db.ExecContext(ctx, s.rebind(query), args...)
	if err != nil {
		return 0, fmt.Errorf("reset %s consumption: %w", category, err)
	}
	return res.RowsAffected()
}

// Bills

// SaveBill replaces the bill of a category
func (s *sqlStore) SaveBill(ctx context.Context, category consumption.Category, b consumption.Bill) error {
	query := s.rebind(`
	INSERT INTO bills (category, total_amount, billing_date, provider_name, bill_number, description)
	VALUES (?, ?, ?, ?, ?, ?)
	ON CONFLICT (category) DO UPDATE SET
		total_amount = excluded.total_amount,
		billing_date = excluded.billing_date,
		provider_name = excluded.provider_name,
		bill_number = excluded.bill_number,
		description = excluded.description
	`)

	var billingDate sql.NullTime
	if !b.BillingDate.IsZero() {
		billingDate = sql.NullTime{Time: b.BillingDate.UTC(), Valid: true}
	}

	_, err := s.db.ExecContext(ctx, query,
		string(category),
		b.TotalAmount,
		billingDate,
		b.ProviderName,
		b.BillNumber,
		b.Description,
	)
	if err != nil {
		return fmt.Errorf("save %s bill: %w", category, err)
	}
	return nil
}

const billColumns = `category, total_amount, billing_date, provider_name, bill_number, description`

func scanBill(row interface{ Scan(...any) error }) (consumption.Category, consumption.Bill, error) {
	var b consumption.Bill
	var category string
	var billingDate sql.NullTime
	err := row.Scan(&category, &b.TotalAmount, &billingDate, &b.ProviderName, &b.BillNumber, &b.Description)
	if billingDate.Valid {
		b.BillingDate = billingDate.Time.UTC()
	}
	return consumption.Category(category), b, err
}

// GetBill retrieves the bill of a category
func (s *sqlStore) GetBill(ctx context.Context, category consumption.Category) (*consumption.Bill, error) {
	query := s.rebind(`SELECT ` + billColumns + ` FROM bills WHERE category = ?`)
	_, b, err := scanBill(s.db.QueryRowContext(ctx, query, string(category)))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get %s bill: %w", category, err)
	}
	return &b, nil
}

// Thresholds

// SaveThreshold inserts or replaces the threshold of a reading
func (s *sqlStore) SaveThreshold(ctx context.Context, t threshold.Threshold) error {
	query := s.rebind(`
	INSERT INTO thresholds (category, reading_id, limit_kwh, active)
	VALUES (?, ?, ?, ?)
	ON CONFLICT (category, reading_id) DO UPDATE SET
		limit_kwh = excluded.limit_kwh,
		active = excluded.active
	`)
	if _, err := s.db.ExecContext(ctx, query, string(t.Category), t.ReadingID, t.Limit, t.Active); err != nil {
		return fmt.Errorf("save threshold %s/%s: %w", t.Category, t.ReadingID, err)
	}
	return nil
}

// ListThresholds returns every threshold ordered by category and reading
func (s *sqlStore) ListThresholds(ctx context.Context) ([]threshold.Threshold, error) {
	rows, err := s.db.QueryContext(ctx, `
	SELECT category, reading_id, limit_kwh, active
	FROM thresholds ORDER BY category, reading_id`)
	if err != nil {
		return nil, fmt.Errorf("list thresholds: %w", err)
	}
	defer rows.Close()

	thresholds := []threshold.Threshold{}
	for rows.Next() {
		var t threshold.Threshold
		var category string
		if err := rows.Scan(&category, &t.ReadingID, &t.Limit, &t.Active); err != nil {
			return nil, err
		}
		t.Category = consumption.Category(category)
		thresholds = append(thresholds, t)
	}
	return thresholds, rows.Err()
}

// Results

// SaveResult stores a calculation snapshot as JSON
func (s *sqlStore) SaveResult(ctx context.Context, result *consumption.CalculationResult) error {
	payload, err := json.Marshal(result)
	if err != nil {
		return fmt.Errorf("encode result %s: %w", result.ID, err)
	}

	query := s.rebind(`INSERT INTO calculations (id, created_at, month, payload) VALUES (?, ?, ?, ?)`)
	if _, err := s.db.ExecContext(ctx, query, result.ID, result.CreatedAt.UTC(), result.Month, string(payload)); err != nil {
		return fmt.Errorf("save result %s: %w", result.ID, err)
	}
	return nil
}

func decodeResult(payload []byte) (consumption.CalculationResult, error) {
	var result consumption.CalculationResult
	if err := json.Unmarshal(payload, &result); err != nil {
		return result, fmt.Errorf("decode result: %w", err)
	}
	return result, nil
}

// GetResult retrieves a calculation snapshot by ID
func (s *sqlStore) GetResult(ctx context.Context, id string) (*consumption.CalculationResult, error) {
	var payload []byte
	err := s.db.QueryRowContext(ctx, s.rebind(`SELECT payload FROM calculations WHERE id = ?`), id).Scan(&payload)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get result %s: %w", id, err)
	}

	result, err := decodeResult(payload)
	if err != nil {
		return nil, err
	}
	return &result, nil
}

// ListResults returns stored results newest first
func (s *sqlStore) ListResults(ctx context.Context, limit int) ([]consumption.CalculationResult, error) {
	query := `SELECT payload FROM calculations ORDER BY created_at DESC, id DESC`
	var args []any
	if limit > 0 {
		query += ` LIMIT ?`
		args = append(args, limit)
	}

	rows, err := s.db.QueryContext(ctx, s.rebind(query), args...)
	if err != nil {
		return nil, fmt.Errorf("list results: %w", err)
	}
	defer rows.Close()

	results := []consumption.CalculationResult{}
	for rows.Next() {
		var payload []byte
		if err := rows.Scan(&payload); err != nil {
			return nil, err
		}
		result, err := decodeResult(payload)
		if err != nil {
			return nil, err
		}
		results = append(results, result)
	}
	return results, rows.Err()
}

// DeleteResult removes a stored result
func (s *sqlStore) DeleteResult(ctx context.Context, id string) error {
	res, err := s.db.ExecContext(ctx, s.rebind(`DELETE FROM calculations WHERE id = ?`), id)
	if err != nil {
		return fmt.Errorf("delete result %s: %w", id, err)
	}
	return requireAffected(res)
}

// LoadWorkingSet reads the whole working set inside one read transaction
func (s *sqlStore) LoadWorkingSet(ctx context.Context) (*WorkingSet, error) {
	ws := NewWorkingSet()

	err := s.withTx(ctx, func(tx *sql.Tx) error {
		groups, err := s.listGroups(ctx, tx)
		if err != nil {
			return err
		}
		ws.Groups = groups

		for _, c := range consumption.Categories {
			readings, err := s.listReadings(ctx, tx, c)
			if err != nil {
				return err
			}
			ws.Readings[c] = readings
		}

		if err := s.loadBills(ctx, tx, ws); err != nil {
			return err
		}

		registries, err := s.listRegistries(ctx, tx, "")
		if err != nil {
			return err
		}
		ws.Registries = registries

		company, err := s.getCompanyInfo(ctx, tx)
		switch {
		case errors.Is(err, ErrNotFound):
		case err != nil:
			return err
		default:
			ws.Company = company
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return ws, nil
}

func (s *sqlStore) loadBills(ctx context.Context, q querier, ws *WorkingSet) error {
	rows, err := q.QueryContext(ctx, `SELECT `+billColumns+` FROM bills`)
	if err != nil {
		return fmt.Errorf("list bills: %w", err)
	}
	defer rows.Close()
	for rows.Next() {
		c, b, err := scanBill(rows)
		if err != nil {
			return err
		}
		ws.Bills[c] = b
	}
	return rows.Err()
}

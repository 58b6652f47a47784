package storage

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/eshaffer321/energysplit/internal/domain/consumption"
	"github.com/eshaffer321/energysplit/internal/domain/threshold"
)

// createTempDB creates a temporary database file for testing
func createTempDB(t *testing.T) string {
	t.Helper()
	f, err := os.CreateTemp("", "test_*.db")
	require.NoError(t, err)
	f.Close()
	return f.Name()
}

func newSQLite(t *testing.T) Repository {
	t.Helper()
	tmpDB := createTempDB(t)
	t.Cleanup(func() { os.Remove(tmpDB) })

	store, err := NewSQLiteStorage(tmpDB)
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })
	return store
}

func newPostgres(t *testing.T) Repository {
	t.Helper()
	dsn := os.Getenv("PG_DSN")
	if dsn == "" {
		t.Skip("PG_DSN not set")
	}

	store, err := NewPostgresStorage(context.Background(), dsn)
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })

	_, err = store.db.Exec(`TRUNCATE reading_groups, readings, bills, thresholds, calculations, office_registry, company_info`)
	require.NoError(t, err)
	return store
}

func TestRepository_SQLite(t *testing.T) {
	runRepositorySuite(t, newSQLite)
}

func TestRepository_Postgres(t *testing.T) {
	runRepositorySuite(t, newPostgres)
}

func TestRepository_Mock(t *testing.T) {
	runRepositorySuite(t, func(*testing.T) Repository { return NewMockRepository() })
}

// runRepositorySuite exercises the Repository contract against one backend
func runRepositorySuite(t *testing.T, newRepo func(t *testing.T) Repository) {
	ctx := context.Background()

	t.Run("groups keep creation order and upsert in place", func(t *testing.T) {
		repo := newRepo(t)

		require.NoError(t, repo.SaveGroup(ctx, &consumption.Group{ID: "g1", Name: "Block A", Category: consumption.CategoryOffice}))
		require.NoError(t, repo.SaveGroup(ctx, &consumption.Group{ID: "g2", Name: "Block B", NumberOfUnits: 4, ParentGroupID: "g1"}))
		require.NoError(t, repo.SaveGroup(ctx, &consumption.Group{ID: "g1", Name: "Block A (renamed)", PropertyType: "office"}))

		groups, err := repo.ListGroups(ctx)
		require.NoError(t, err)
		require.Len(t, groups, 2)
		assert.Equal(t, "Block A (renamed)", groups[0].Name)
		assert.Equal(t, "office", groups[0].PropertyType)
		assert.Equal(t, consumption.Group{ID: "g2", Name: "Block B", NumberOfUnits: 4, ParentGroupID: "g1"}, groups[1])

		g, err := repo.GetGroup(ctx, "g2")
		require.NoError(t, err)
		assert.Equal(t, "Block B", g.Name)

		_, err = repo.GetGroup(ctx, "missing")
		assert.ErrorIs(t, err, ErrNotFound)
	})

	t.Run("readings keep position on update", func(t *testing.T) {
		repo := newRepo(t)
		office := consumption.CategoryOffice

		require.NoError(t, repo.SaveReading(ctx, office, &consumption.Reading{ID: "r1", Name: "Office 1", Kwh: 120, GroupID: "g1"}))
		require.NoError(t, repo.SaveReading(ctx, office, &consumption.Reading{ID: "r2", Name: "Office 2", Kwh: 80}))
		require.NoError(t, repo.SaveReading(ctx, office, &consumption.Reading{ID: "r1", Name: "Office 1", Kwh: 125.5, GroupID: "g1", IsSharedCounter: true}))
		require.NoError(t, repo.SaveReading(ctx, consumption.CategoryAC, &consumption.Reading{ID: "r1", Name: "AC 1", Kwh: 10}))

		readings, err := repo.ListReadings(ctx, office)
		require.NoError(t, err)
		require.Len(t, readings, 2)
		assert.Equal(t, "r1", readings[0].ID)
		assert.Equal(t, 125.5, readings[0].Kwh)
		assert.True(t, readings[0].IsSharedCounter)
		assert.Equal(t, "r2", readings[1].ID)

		ac, err := repo.GetReading(ctx, consumption.CategoryAC, "r1")
		require.NoError(t, err)
		assert.Equal(t, "AC 1", ac.Name)

		require.NoError(t, repo.DeleteReading(ctx, office, "r2"))
		assert.ErrorIs(t, repo.DeleteReading(ctx, office, "r2"), ErrNotFound)
		_, err = repo.GetReading(ctx, office, "r2")
		assert.ErrorIs(t, err, ErrNotFound)
	})

	t.Run("computed shares are not persisted", func(t *testing.T) {
		repo := newRepo(t)
		r := &consumption.Reading{ID: "r1", Kwh: 10, CostShare: consumption.Float(5), PercentageShare: consumption.Float(50)}
		require.NoError(t, repo.SaveReading(ctx, consumption.CategoryOffice, r))

		got, err := repo.GetReading(ctx, consumption.CategoryOffice, "r1")
		require.NoError(t, err)
		assert.Nil(t, got.CostShare)
		assert.Nil(t, got.PercentageShare)
	})

	t.Run("reset consumption for one group or all", func(t *testing.T) {
		repo := newRepo(t)
		ac := consumption.CategoryAC
		require.NoError(t, repo.SaveReading(ctx, ac, &consumption.Reading{ID: "a", Kwh: 10, GroupID: "g1"}))
		require.NoError(t, repo.SaveReading(ctx, ac, &consumption.Reading{ID: "b", Kwh: 20, GroupID: "g2"}))
		require.NoError(t, repo.SaveReading(ctx, ac, &consumption.Reading{ID: "c", Kwh: 30, GroupID: "g1"}))

		n, err := repo.ResetConsumption(ctx, ac, "g1")
		require.NoError(t, err)
		assert.Equal(t, int64(2), n)

		readings, err := repo.ListReadings(ctx, ac)
		require.NoError(t, err)
		assert.Equal(t, []float64{0, 20, 0}, kwhOf(readings))

		n, err = repo.ResetConsumption(ctx, ac, "")
		require.NoError(t, err)
		assert.Equal(t, int64(3), n)
		readings, err = repo.ListReadings(ctx, ac)
		require.NoError(t, err)
		assert.Equal(t, []float64{0, 0, 0}, kwhOf(readings))
	})

	t.Run("delete group cascades", func(t *testing.T) {
		repo := newRepo(t)
		require.NoError(t, repo.SaveGroup(ctx, &consumption.Group{ID: "g1", Name: "Parent"}))
		require.NoError(t, repo.SaveGroup(ctx, &consumption.Group{ID: "g2", Name: "Child", ParentGroupID: "g1"}))
		require.NoError(t, repo.SaveReading(ctx, consumption.CategoryOffice, &consumption.Reading{ID: "o1", Kwh: 1, GroupID: "g1"}))
		require.NoError(t, repo.SaveReading(ctx, consumption.CategoryOffice, &consumption.Reading{ID: "o2", Kwh: 2, GroupID: "g2"}))
		require.NoError(t, repo.SaveReading(ctx, consumption.CategoryAC, &consumption.Reading{ID: "a1", Kwh: 3, GroupID: "g1"}))
		require.NoError(t, repo.SaveThreshold(ctx, threshold.Threshold{Category: consumption.CategoryOffice, ReadingID: "o1", Limit: 5, Active: true}))
		require.NoError(t, repo.SaveThreshold(ctx, threshold.Threshold{Category: consumption.CategoryOffice, ReadingID: "o2", Limit: 5, Active: true}))
		require.NoError(t, repo.SaveRegistry(ctx, &consumption.OfficeRegistry{ID: "reg-1", Category: consumption.CategoryOffice, ReadingID: "o1", CompanyName: "Acme"}))
		require.NoError(t, repo.SaveRegistry(ctx, &consumption.OfficeRegistry{ID: "reg-2", Category: consumption.CategoryOffice, ReadingID: "o2", CompanyName: "Beta"}))

		require.NoError(t, repo.DeleteGroup(ctx, "g1"))
		assert.ErrorIs(t, repo.DeleteGroup(ctx, "g1"), ErrNotFound)

		office, err := repo.ListReadings(ctx, consumption.CategoryOffice)
		require.NoError(t, err)
		require.Len(t, office, 1)
		assert.Equal(t, "o2", office[0].ID)

		ac, err := repo.ListReadings(ctx, consumption.CategoryAC)
		require.NoError(t, err)
		assert.Empty(t, ac)

		thresholds, err := repo.ListThresholds(ctx)
		require.NoError(t, err)
		require.Len(t, thresholds, 1)
		assert.Equal(t, "o2", thresholds[0].ReadingID)

		registries, err := repo.ListRegistries(ctx, "")
		require.NoError(t, err)
		require.Len(t, registries, 1)
		assert.Equal(t, "reg-2", registries[0].ID)

		child, err := repo.GetGroup(ctx, "g2")
		require.NoError(t, err)
		assert.Empty(t, child.ParentGroupID)
	})

	t.Run("bills", func(t *testing.T) {
		repo := newRepo(t)
		_, err := repo.GetBill(ctx, consumption.CategoryOffice)
		assert.ErrorIs(t, err, ErrNotFound)

		billed := time.Date(2026, time.February, 28, 0, 0, 0, 0, time.UTC)
		require.NoError(t, repo.SaveBill(ctx, consumption.CategoryOffice, consumption.Bill{TotalAmount: 400, BillingDate: billed, ProviderName: "Grid Co"}))
		require.NoError(t, repo.SaveBill(ctx, consumption.CategoryOffice, consumption.Bill{TotalAmount: 410.25, BillingDate: billed, BillNumber: "F-2"}))
		require.NoError(t, repo.SaveBill(ctx, consumption.CategoryAC, consumption.Bill{TotalAmount: 10}))

		b, err := repo.GetBill(ctx, consumption.CategoryOffice)
		require.NoError(t, err)
		assert.Equal(t, 410.25, b.TotalAmount)
		assert.True(t, billed.Equal(b.BillingDate))
		assert.Equal(t, "F-2", b.BillNumber)
		assert.Empty(t, b.ProviderName)

		acBill, err := repo.GetBill(ctx, consumption.CategoryAC)
		require.NoError(t, err)
		assert.True(t, acBill.BillingDate.IsZero())
	})

	t.Run("thresholds upsert", func(t *testing.T) {
		repo := newRepo(t)
		require.NoError(t, repo.SaveThreshold(ctx, threshold.Threshold{Category: consumption.CategoryOffice, ReadingID: "o1", Limit: 100, Active: true}))
		require.NoError(t, repo.SaveThreshold(ctx, threshold.Threshold{Category: consumption.CategoryAC, ReadingID: "a1", Limit: 50, Active: true}))
		require.NoError(t, repo.SaveThreshold(ctx, threshold.Threshold{Category: consumption.CategoryOffice, ReadingID: "o1", Limit: 90, Active: false}))

		thresholds, err := repo.ListThresholds(ctx)
		require.NoError(t, err)
		require.Len(t, thresholds, 2)
		assert.Equal(t, threshold.Threshold{Category: consumption.CategoryAC, ReadingID: "a1", Limit: 50, Active: true}, thresholds[0])
		assert.Equal(t, threshold.Threshold{Category: consumption.CategoryOffice, ReadingID: "o1", Limit: 90, Active: false}, thresholds[1])
	})

	t.Run("results round trip newest first", func(t *testing.T) {
		repo := newRepo(t)
		base := time.Date(2026, time.March, 1, 12, 0, 0, 0, time.UTC)

		older := sampleResult("calc-1", base)
		newer := sampleResult("calc-2", base.Add(time.Hour))
		require.NoError(t, repo.SaveResult(ctx, older))
		require.NoError(t, repo.SaveResult(ctx, newer))

		got, err := repo.GetResult(ctx, "calc-1")
		require.NoError(t, err)
		assert.Equal(t, "2026-03", got.Month)
		assert.True(t, base.Equal(got.CreatedAt))
		require.Len(t, got.Categories, 1)
		block := got.Categories[0]
		assert.Equal(t, consumption.CategoryOffice, block.Category)
		require.Len(t, block.Readings, 2)
		assert.Equal(t, 120.0, block.Readings[0].Cost())
		assert.Equal(t, 30.0, block.Readings[0].Percentage())
		assert.Equal(t, []consumption.Group{{ID: "g1", Name: "Block A"}}, got.Groups)

		all, err := repo.ListResults(ctx, 0)
		require.NoError(t, err)
		require.Len(t, all, 2)
		assert.Equal(t, "calc-2", all[0].ID)
		assert.Equal(t, "calc-1", all[1].ID)

		limited, err := repo.ListResults(ctx, 1)
		require.NoError(t, err)
		require.Len(t, limited, 1)
		assert.Equal(t, "calc-2", limited[0].ID)

		require.NoError(t, repo.DeleteResult(ctx, "calc-1"))
		assert.ErrorIs(t, repo.DeleteResult(ctx, "calc-1"), ErrNotFound)
		_, err = repo.GetResult(ctx, "calc-1")
		assert.ErrorIs(t, err, ErrNotFound)
	})

	t.Run("registry upserts per reading", func(t *testing.T) {
		repo := newRepo(t)

		first := &consumption.OfficeRegistry{
			ID:            "reg-1",
			Category:      consumption.CategoryOffice,
			ReadingID:     "o1",
			GroupID:       "g1",
			CompanyName:   "Acme Srl",
			ContactPerson: "Mario Rossi",
			Email:         "mario@acme.test",
		}
		require.NoError(t, repo.SaveRegistry(ctx, first))
		require.NoError(t, repo.SaveRegistry(ctx, &consumption.OfficeRegistry{ID: "reg-2", Category: consumption.CategoryAC, ReadingID: "a1", CompanyName: "Cool Spa"}))

		// A second entry for the same reading updates the first one
		again := &consumption.OfficeRegistry{ID: "reg-3", Category: consumption.CategoryOffice, ReadingID: "o1", CompanyName: "Acme Group", Phone: "555"}
		require.NoError(t, repo.SaveRegistry(ctx, again))
		assert.Equal(t, "reg-1", again.ID)

		got, err := repo.GetRegistry(ctx, "reg-1")
		require.NoError(t, err)
		assert.Equal(t, "Acme Group", got.CompanyName)
		assert.Equal(t, "555", got.Phone)
		assert.Empty(t, got.ContactPerson)
		_, err = repo.GetRegistry(ctx, "reg-3")
		assert.ErrorIs(t, err, ErrNotFound)

		all, err := repo.ListRegistries(ctx, "")
		require.NoError(t, err)
		require.Len(t, all, 2)
		assert.Equal(t, consumption.CategoryAC, all[0].Category)
		assert.Equal(t, consumption.CategoryOffice, all[1].Category)

		office, err := repo.ListRegistries(ctx, consumption.CategoryOffice)
		require.NoError(t, err)
		require.Len(t, office, 1)
		assert.Equal(t, "reg-1", office[0].ID)

		// Moving an entry to another reading keeps its ID
		moved := &consumption.OfficeRegistry{ID: "reg-1", Category: consumption.CategoryOffice, ReadingID: "o9", CompanyName: "Acme Group"}
		require.NoError(t, repo.SaveRegistry(ctx, moved))
		office, err = repo.ListRegistries(ctx, consumption.CategoryOffice)
		require.NoError(t, err)
		require.Len(t, office, 1)
		assert.Equal(t, "o9", office[0].ReadingID)
		assert.Equal(t, "reg-1", office[0].ID)

		require.NoError(t, repo.DeleteRegistry(ctx, "reg-1"))
		assert.ErrorIs(t, repo.DeleteRegistry(ctx, "reg-1"), ErrNotFound)
	})

	t.Run("delete reading drops its registry entry", func(t *testing.T) {
		repo := newRepo(t)
		require.NoError(t, repo.SaveReading(ctx, consumption.CategoryOffice, &consumption.Reading{ID: "o1", Kwh: 1}))
		require.NoError(t, repo.SaveReading(ctx, consumption.CategoryAC, &consumption.Reading{ID: "o1", Kwh: 1}))
		require.NoError(t, repo.SaveRegistry(ctx, &consumption.OfficeRegistry{ID: "reg-1", Category: consumption.CategoryOffice, ReadingID: "o1", CompanyName: "Acme"}))
		require.NoError(t, repo.SaveRegistry(ctx, &consumption.OfficeRegistry{ID: "reg-2", Category: consumption.CategoryAC, ReadingID: "o1", CompanyName: "Acme"}))

		require.NoError(t, repo.DeleteReading(ctx, consumption.CategoryOffice, "o1"))

		_, err := repo.GetRegistry(ctx, "reg-1")
		assert.ErrorIs(t, err, ErrNotFound)
		_, err = repo.GetRegistry(ctx, "reg-2")
		assert.NoError(t, err)
	})

	t.Run("company info is a single record", func(t *testing.T) {
		repo := newRepo(t)
		_, err := repo.GetCompanyInfo(ctx)
		assert.ErrorIs(t, err, ErrNotFound)

		require.NoError(t, repo.SaveCompanyInfo(ctx, &consumption.CompanyInfo{ID: "co-1", Name: "Acme Srl", Type: consumption.CompanyTypeCompany, VATNumber: "IT0123"}))
		condo := &consumption.CompanyInfo{
			ID:            "co-2",
			Name:          "Via Roma 12",
			Type:          consumption.CompanyTypeCondominium,
			Address:       "Via Roma 12, Milano",
			Administrator: &consumption.Administrator{Name: "Laura Bianchi", Email: "laura@studio.test"},
			LogoURL:       "https://example.test/logo.png",
		}
		require.NoError(t, repo.SaveCompanyInfo(ctx, condo))

		got, err := repo.GetCompanyInfo(ctx)
		require.NoError(t, err)
		assert.Equal(t, condo, got)

		require.NoError(t, repo.SaveCompanyInfo(ctx, &consumption.CompanyInfo{ID: "co-2", Name: "Via Roma 12", Type: consumption.CompanyTypeCondominium}))
		got, err = repo.GetCompanyInfo(ctx)
		require.NoError(t, err)
		assert.Nil(t, got.Administrator)
	})

	t.Run("result keeps company snapshot", func(t *testing.T) {
		repo := newRepo(t)
		result := sampleResult("calc-1", time.Date(2026, time.March, 1, 12, 0, 0, 0, time.UTC))
		result.CompanyInfo = &consumption.CompanyInfo{Name: "Acme Srl", Type: consumption.CompanyTypeCompany}
		require.NoError(t, repo.SaveResult(ctx, result))

		got, err := repo.GetResult(ctx, "calc-1")
		require.NoError(t, err)
		require.NotNil(t, got.CompanyInfo)
		assert.Equal(t, "Acme Srl", got.CompanyInfo.Name)
	})

	t.Run("working set snapshot", func(t *testing.T) {
		repo := newRepo(t)

		ws, err := repo.LoadWorkingSet(ctx)
		require.NoError(t, err)
		assert.Empty(t, ws.Groups)
		assert.NotNil(t, ws.Readings[consumption.CategoryOffice])
		assert.NotNil(t, ws.Readings[consumption.CategoryAC])
		assert.Empty(t, ws.Bills)
		assert.Empty(t, ws.Registries)
		assert.Nil(t, ws.Company)

		require.NoError(t, repo.SaveGroup(ctx, &consumption.Group{ID: "g1", Name: "Block A"}))
		require.NoError(t, repo.SaveReading(ctx, consumption.CategoryOffice, &consumption.Reading{ID: "o1", Kwh: 300, GroupID: "g1"}))
		require.NoError(t, repo.SaveReading(ctx, consumption.CategoryAC, &consumption.Reading{ID: "a1", Kwh: 40}))
		require.NoError(t, repo.SaveBill(ctx, consumption.CategoryAC, consumption.Bill{TotalAmount: 12.5}))
		require.NoError(t, repo.SaveRegistry(ctx, &consumption.OfficeRegistry{ID: "reg-1", Category: consumption.CategoryOffice, ReadingID: "o1", CompanyName: "Acme"}))
		require.NoError(t, repo.SaveCompanyInfo(ctx, &consumption.CompanyInfo{ID: "co-1", Name: "Block A Condo", Type: consumption.CompanyTypeCondominium}))

		ws, err = repo.LoadWorkingSet(ctx)
		require.NoError(t, err)
		require.Len(t, ws.Groups, 1)
		require.Len(t, ws.Readings[consumption.CategoryOffice], 1)
		assert.Equal(t, 300.0, ws.Readings[consumption.CategoryOffice][0].Kwh)
		require.Len(t, ws.Readings[consumption.CategoryAC], 1)
		assert.Equal(t, 12.5, ws.Bills[consumption.CategoryAC].TotalAmount)
		_, hasOfficeBill := ws.Bills[consumption.CategoryOffice]
		assert.False(t, hasOfficeBill)
		require.Len(t, ws.Registries, 1)
		assert.Equal(t, "Acme", ws.Registries[0].CompanyName)
		require.NotNil(t, ws.Company)
		assert.Equal(t, "Block A Condo", ws.Company.Name)
	})
}

func kwhOf(readings []consumption.Reading) []float64 {
	out := make([]float64, len(readings))
	for i, r := range readings {
		out[i] = r.Kwh
	}
	return out
}

func sampleResult(id string, created time.Time) *consumption.CalculationResult {
	return &consumption.CalculationResult{
		ID:        id,
		CreatedAt: created,
		Month:     created.Format("2006-01"),
		Categories: []consumption.CategoryResult{
			{
				Category: consumption.CategoryOffice,
				Readings: []consumption.Reading{
					{ID: "o1", Kwh: 300, GroupID: "g1", CostShare: consumption.Float(120), PercentageShare: consumption.Float(30)},
					{ID: "o2", Kwh: 700, CostShare: consumption.Float(280), PercentageShare: consumption.Float(70)},
				},
				Bill:           consumption.Bill{TotalAmount: 400},
				Total:          1000,
				AllocatedTotal: 400,
			},
		},
		Groups: []consumption.Group{{ID: "g1", Name: "Block A"}},
	}
}

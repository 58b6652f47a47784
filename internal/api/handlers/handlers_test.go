package handlers_test

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/eshaffer321/energysplit/internal/api/dto"
	"github.com/eshaffer321/energysplit/internal/api/handlers"
	"github.com/eshaffer321/energysplit/internal/application/service"
	"github.com/eshaffer321/energysplit/internal/domain/consumption"
	"github.com/eshaffer321/energysplit/internal/infrastructure/storage"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func newService(repo storage.Repository) *service.BillingService {
	return service.NewBillingService(repo, nil, nil)
}

func do(t *testing.T, r http.Handler, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)
	return rec
}

func decode[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&v))
	return v
}

func TestHealthHandler(t *testing.T) {
	r := gin.New()
	r.GET("/health", handlers.NewHealthHandler().Get)

	rec := do(t, r, http.MethodGet, "/health", nil)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Header().Get("Content-Type"), "application/json")
	resp := decode[dto.HealthResponse](t, rec)
	assert.Equal(t, "ok", resp.Status)
	assert.NotEmpty(t, resp.Timestamp)
}

func TestGroupsHandler(t *testing.T) {
	setup := func() (*gin.Engine, *storage.MockRepository) {
		repo := storage.NewMockRepository()
		h := handlers.NewGroupsHandler(newService(repo), nil)
		r := gin.New()
		r.GET("/api/groups", h.List)
		r.POST("/api/groups", h.Create)
		r.PUT("/api/groups/:id", h.Update)
		r.DELETE("/api/groups/:id", h.Delete)
		r.GET("/api/groups/:id/rollup", h.Rollup)
		return r, repo
	}

	t.Run("returns empty list when no groups", func(t *testing.T) {
		r, _ := setup()

		rec := do(t, r, http.MethodGet, "/api/groups", nil)

		assert.Equal(t, http.StatusOK, rec.Code)
		resp := decode[dto.GroupListResponse](t, rec)
		assert.NotNil(t, resp.Groups)
		assert.Equal(t, 0, resp.Count)
	})

	t.Run("creates a group with a generated id", func(t *testing.T) {
		r, repo := setup()

		rec := do(t, r, http.MethodPost, "/api/groups", dto.GroupRequest{Name: "Building A", NumberOfUnits: 4})

		require.Equal(t, http.StatusCreated, rec.Code)
		g := decode[consumption.Group](t, rec)
		assert.NotEmpty(t, g.ID)
		assert.Equal(t, "Building A", g.Name)

		groups, _ := repo.ListGroups(context.Background())
		assert.Len(t, groups, 1)
	})

	t.Run("rejects a missing name", func(t *testing.T) {
		r, _ := setup()

		rec := do(t, r, http.MethodPost, "/api/groups", map[string]any{"property_type": "office"})

		assert.Equal(t, http.StatusBadRequest, rec.Code)
		apiErr := decode[dto.APIError](t, rec)
		assert.Equal(t, dto.ErrCodeValidation, apiErr.Code)
		assert.Contains(t, apiErr.Message, "Name is required")
	})

	t.Run("rejects an unknown parent", func(t *testing.T) {
		r, _ := setup()

		rec := do(t, r, http.MethodPost, "/api/groups", dto.GroupRequest{Name: "Child", ParentGroupID: "nope"})

		assert.Equal(t, http.StatusBadRequest, rec.Code)
		assert.Equal(t, dto.ErrCodeValidation, decode[dto.APIError](t, rec).Code)
	})

	t.Run("update of an unknown group is 404", func(t *testing.T) {
		r, _ := setup()

		rec := do(t, r, http.MethodPut, "/api/groups/missing", dto.GroupRequest{Name: "X"})

		assert.Equal(t, http.StatusNotFound, rec.Code)
		assert.Equal(t, dto.ErrCodeNotFound, decode[dto.APIError](t, rec).Code)
	})

	t.Run("updates and deletes a group", func(t *testing.T) {
		r, repo := setup()
		require.NoError(t, repo.SaveGroup(context.Background(), &consumption.Group{ID: "g1", Name: "Old"}))

		rec := do(t, r, http.MethodPut, "/api/groups/g1", dto.GroupRequest{Name: "New"})
		require.Equal(t, http.StatusOK, rec.Code)
		g, err := repo.GetGroup(context.Background(), "g1")
		require.NoError(t, err)
		assert.Equal(t, "New", g.Name)

		rec = do(t, r, http.MethodDelete, "/api/groups/g1", nil)
		assert.Equal(t, http.StatusNoContent, rec.Code)
		_, err = repo.GetGroup(context.Background(), "g1")
		assert.ErrorIs(t, err, storage.ErrNotFound)
	})

	t.Run("rolls up children", func(t *testing.T) {
		r, repo := setup()
		ctx := context.Background()
		require.NoError(t, repo.SaveGroup(ctx, &consumption.Group{ID: "p", Name: "Parent"}))
		require.NoError(t, repo.SaveGroup(ctx, &consumption.Group{ID: "c", Name: "Child", ParentGroupID: "p"}))
		require.NoError(t, repo.SaveReading(ctx, consumption.CategoryOffice, &consumption.Reading{ID: "r1", Kwh: 10, GroupID: "p"}))
		require.NoError(t, repo.SaveReading(ctx, consumption.CategoryOffice, &consumption.Reading{ID: "r2", Kwh: 5, GroupID: "c"}))
		require.NoError(t, repo.SaveReading(ctx, consumption.CategoryOffice, &consumption.Reading{ID: "r3", Kwh: 2, GroupID: "c", IsSharedCounter: true}))

		rec := do(t, r, http.MethodGet, "/api/groups/p/rollup?category=office", nil)

		require.Equal(t, http.StatusOK, rec.Code)
		resp := decode[dto.RollupResponse](t, rec)
		assert.Equal(t, "p", resp.GroupID)
		assert.Equal(t, 15.0, resp.Ordinary)
		assert.Equal(t, 2.0, resp.SharedCounter)
		assert.Equal(t, 2, resp.Groups)
	})

	t.Run("rollup requires a category", func(t *testing.T) {
		r, _ := setup()

		rec := do(t, r, http.MethodGet, "/api/groups/p/rollup", nil)

		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})
}

func TestReadingsHandler(t *testing.T) {
	setup := func() (*gin.Engine, *storage.MockRepository) {
		repo := storage.NewMockRepository()
		require.NoError(t, repo.SaveGroup(context.Background(), &consumption.Group{ID: "g1", Name: "Tower"}))
		h := handlers.NewReadingsHandler(newService(repo), nil)
		r := gin.New()
		r.GET("/api/readings/:category", h.List)
		r.PUT("/api/readings/:category", h.Upsert)
		r.GET("/api/readings/:category/grouped", h.Grouped)
		r.POST("/api/readings/:category/reset", h.Reset)
		r.POST("/api/readings/:category/generate", h.Generate)
		r.PATCH("/api/readings/:category/:id", h.UpdateConsumption)
		r.DELETE("/api/readings/:category/:id", h.Delete)
		return r, repo
	}

	t.Run("unknown category is rejected", func(t *testing.T) {
		r, _ := setup()

		rec := do(t, r, http.MethodGet, "/api/readings/heating", nil)

		assert.Equal(t, http.StatusBadRequest, rec.Code)
		assert.Equal(t, dto.ErrCodeValidation, decode[dto.APIError](t, rec).Code)
	})

	t.Run("upserts and lists readings", func(t *testing.T) {
		r, _ := setup()
		kwh := 12.5

		rec := do(t, r, http.MethodPut, "/api/readings/office", dto.ReadingRequest{ID: "r1", Name: "Flat 1", Kwh: &kwh, GroupID: "g1"})
		require.Equal(t, http.StatusOK, rec.Code)

		rec = do(t, r, http.MethodGet, "/api/readings/office", nil)
		require.Equal(t, http.StatusOK, rec.Code)
		resp := decode[dto.ReadingListResponse](t, rec)
		assert.Equal(t, 1, resp.Count)
		assert.Equal(t, 12.5, resp.TotalKwh)
		assert.Equal(t, "Flat 1", resp.Readings[0].Name)
	})

	t.Run("zero kwh is accepted", func(t *testing.T) {
		r, _ := setup()
		zero := 0.0

		rec := do(t, r, http.MethodPut, "/api/readings/ac", dto.ReadingRequest{Name: "Unit", Kwh: &zero})

		require.Equal(t, http.StatusOK, rec.Code)
		assert.NotEmpty(t, decode[consumption.Reading](t, rec).ID)
	})

	t.Run("missing kwh is a validation error", func(t *testing.T) {
		r, _ := setup()

		rec := do(t, r, http.MethodPut, "/api/readings/office", map[string]any{"name": "no kwh"})

		assert.Equal(t, http.StatusBadRequest, rec.Code)
		apiErr := decode[dto.APIError](t, rec)
		assert.Equal(t, dto.ErrCodeValidation, apiErr.Code)
		assert.Contains(t, apiErr.Fields, "Kwh is required")
	})

	t.Run("negative kwh is a validation error", func(t *testing.T) {
		r, _ := setup()

		rec := do(t, r, http.MethodPut, "/api/readings/office", map[string]any{"kwh": -1})

		assert.Equal(t, http.StatusBadRequest, rec.Code)
		assert.Contains(t, decode[dto.APIError](t, rec).Message, "Kwh must be >= 0")
	})

	t.Run("malformed body is a bad request", func(t *testing.T) {
		r, _ := setup()
		req := httptest.NewRequest(http.MethodPut, "/api/readings/office", bytes.NewBufferString("{not json"))
		req.Header.Set("Content-Type", "application/json")
		rec := httptest.NewRecorder()

		r.ServeHTTP(rec, req)

		assert.Equal(t, http.StatusBadRequest, rec.Code)
		assert.Equal(t, dto.ErrCodeBadRequest, decode[dto.APIError](t, rec).Code)
	})

	t.Run("updates consumption and deletes", func(t *testing.T) {
		r, repo := setup()
		require.NoError(t, repo.SaveReading(context.Background(), consumption.CategoryOffice, &consumption.Reading{ID: "r1", Kwh: 1}))
		kwh := 42.0

		rec := do(t, r, http.MethodPatch, "/api/readings/office/r1", dto.ConsumptionRequest{Kwh: &kwh})
		require.Equal(t, http.StatusOK, rec.Code)
		assert.Equal(t, 42.0, decode[consumption.Reading](t, rec).Kwh)

		rec = do(t, r, http.MethodDelete, "/api/readings/office/r1", nil)
		assert.Equal(t, http.StatusNoContent, rec.Code)

		rec = do(t, r, http.MethodDelete, "/api/readings/office/r1", nil)
		assert.Equal(t, http.StatusNotFound, rec.Code)
	})

	t.Run("generates readings and groups them", func(t *testing.T) {
		r, _ := setup()

		rec := do(t, r, http.MethodPost, "/api/readings/office/generate", dto.GenerateRequest{GroupID: "g1", Count: 2, SharedCounters: 1})
		require.Equal(t, http.StatusCreated, rec.Code)
		created := decode[dto.ReadingListResponse](t, rec)
		require.Equal(t, 3, created.Count)
		assert.Equal(t, "Tower 1", created.Readings[0].Name)
		assert.Equal(t, "Tower general counter", created.Readings[2].Name)

		rec = do(t, r, http.MethodGet, "/api/readings/office/grouped", nil)
		require.Equal(t, http.StatusOK, rec.Code)
		grouped := decode[dto.GroupedResponse](t, rec)
		require.Len(t, grouped.Groups, 1)
		assert.Len(t, grouped.Groups[0].Ordinary, 2)
		assert.Len(t, grouped.Groups[0].SharedCounters, 1)
	})

	t.Run("generate over the limit is rejected", func(t *testing.T) {
		r, _ := setup()

		rec := do(t, r, http.MethodPost, "/api/readings/office/generate", dto.GenerateRequest{GroupID: "g1", Count: 501})

		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})

	t.Run("reset zeroes one group", func(t *testing.T) {
		r, repo := setup()
		ctx := context.Background()
		require.NoError(t, repo.SaveReading(ctx, consumption.CategoryAC, &consumption.Reading{ID: "a", Kwh: 3, GroupID: "g1"}))
		require.NoError(t, repo.SaveReading(ctx, consumption.CategoryAC, &consumption.Reading{ID: "b", Kwh: 4}))

		rec := do(t, r, http.MethodPost, "/api/readings/ac/reset?group_id=g1", nil)

		require.Equal(t, http.StatusOK, rec.Code)
		assert.Equal(t, int64(1), decode[dto.ResetResponse](t, rec).Reset)
		b, err := repo.GetReading(ctx, consumption.CategoryAC, "b")
		require.NoError(t, err)
		assert.Equal(t, 4.0, b.Kwh)
	})
}

func TestBillsHandler(t *testing.T) {
	repo := storage.NewMockRepository()
	h := handlers.NewBillsHandler(newService(repo), nil)
	r := gin.New()
	r.GET("/api/bills/:category", h.Get)
	r.PUT("/api/bills/:category", h.Put)

	rec := do(t, r, http.MethodGet, "/api/bills/office", nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)

	amount := 350.75
	rec = do(t, r, http.MethodPut, "/api/bills/office", dto.BillRequest{TotalAmount: &amount, BillingDate: "2026-03-31", ProviderName: "Grid Co"})
	require.Equal(t, http.StatusOK, rec.Code)

	rec = do(t, r, http.MethodGet, "/api/bills/office", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	bill := decode[consumption.Bill](t, rec)
	assert.Equal(t, 350.75, bill.TotalAmount)
	assert.Equal(t, "2026-03-31", bill.BillingDate.Format(dto.DateLayout))

	rec = do(t, r, http.MethodPut, "/api/bills/office", map[string]any{"total_amount": 10, "billing_date": "31/03/2026"})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, decode[dto.APIError](t, rec).Message, "BillingDate")
}

func TestThresholdsHandler(t *testing.T) {
	repo := storage.NewMockRepository()
	require.NoError(t, repo.SaveReading(context.Background(), consumption.CategoryOffice, &consumption.Reading{ID: "r1", Name: "Flat 1", Kwh: 120}))
	h := handlers.NewThresholdsHandler(newService(repo), nil)
	r := gin.New()
	r.GET("/api/thresholds", h.List)
	r.PUT("/api/thresholds", h.Put)
	r.GET("/api/thresholds/alerts", h.Alerts)

	limit := 100.0
	rec := do(t, r, http.MethodPut, "/api/thresholds", dto.ThresholdRequest{Category: "office", ReadingID: "r1", Limit: &limit})
	require.Equal(t, http.StatusOK, rec.Code)

	rec = do(t, r, http.MethodPut, "/api/thresholds", dto.ThresholdRequest{Category: "office", ReadingID: "ghost", Limit: &limit})
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = do(t, r, http.MethodGet, "/api/thresholds", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, 1, decode[dto.ThresholdListResponse](t, rec).Count)

	rec = do(t, r, http.MethodGet, "/api/thresholds/alerts", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	alerts := decode[dto.AlertListResponse](t, rec)
	require.Equal(t, 1, alerts.Count)
	assert.Equal(t, "r1", alerts.Alerts[0].ReadingID)
	assert.Equal(t, 120.0, alerts.Alerts[0].Kwh)
}

func TestRegistryHandler(t *testing.T) {
	repo := storage.NewMockRepository()
	require.NoError(t, repo.SaveReading(context.Background(), consumption.CategoryOffice, &consumption.Reading{ID: "r1", Name: "Flat 1", Kwh: 10, GroupID: "g1"}))
	require.NoError(t, repo.SaveReading(context.Background(), consumption.CategoryOffice, &consumption.Reading{ID: "r2", Name: "Flat 2", Kwh: 20}))
	h := handlers.NewRegistryHandler(newService(repo), nil)
	r := gin.New()
	r.GET("/api/registry", h.List)
	r.PUT("/api/registry", h.Put)
	r.GET("/api/registry/name/:category/:reading_id", h.CompanyName)
	r.GET("/api/registry/:id", h.Get)
	r.DELETE("/api/registry/:id", h.Delete)

	rec := do(t, r, http.MethodPut, "/api/registry", dto.RegistryRequest{
		Category:    "office",
		ReadingID:   "r1",
		CompanyName: "Acme Srl",
		Email:       "info@acme.test",
	})
	require.Equal(t, http.StatusOK, rec.Code)
	entry := decode[consumption.OfficeRegistry](t, rec)
	assert.NotEmpty(t, entry.ID)
	assert.Equal(t, "g1", entry.GroupID)

	t.Run("rejects bad payloads", func(t *testing.T) {
		rec := do(t, r, http.MethodPut, "/api/registry", dto.RegistryRequest{Category: "office", ReadingID: "r1"})
		assert.Equal(t, http.StatusBadRequest, rec.Code)
		assert.Contains(t, decode[dto.APIError](t, rec).Message, "CompanyName is required")

		rec = do(t, r, http.MethodPut, "/api/registry", dto.RegistryRequest{Category: "office", ReadingID: "r1", CompanyName: "X", Email: "nope"})
		assert.Equal(t, http.StatusBadRequest, rec.Code)
		assert.Contains(t, decode[dto.APIError](t, rec).Message, "Email must be an email address")

		rec = do(t, r, http.MethodPut, "/api/registry", dto.RegistryRequest{Category: "office", ReadingID: "ghost", CompanyName: "X"})
		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})

	rec = do(t, r, http.MethodGet, "/api/registry?category=office", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, 1, decode[dto.RegistryListResponse](t, rec).Count)

	rec = do(t, r, http.MethodGet, "/api/registry?category=ac", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	list := decode[dto.RegistryListResponse](t, rec)
	assert.Equal(t, 0, list.Count)
	assert.NotNil(t, list.Registries)

	rec = do(t, r, http.MethodGet, "/api/registry?category=gas", nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = do(t, r, http.MethodGet, "/api/registry/name/office/r1", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "Acme Srl", decode[dto.CompanyNameResponse](t, rec).CompanyName)

	rec = do(t, r, http.MethodGet, "/api/registry/name/office/r2", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "Flat 2", decode[dto.CompanyNameResponse](t, rec).CompanyName)

	rec = do(t, r, http.MethodGet, "/api/registry/"+entry.ID, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "Acme Srl", decode[consumption.OfficeRegistry](t, rec).CompanyName)

	rec = do(t, r, http.MethodDelete, "/api/registry/"+entry.ID, nil)
	assert.Equal(t, http.StatusNoContent, rec.Code)

	rec = do(t, r, http.MethodGet, "/api/registry/"+entry.ID, nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
	rec = do(t, r, http.MethodDelete, "/api/registry/"+entry.ID, nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestCompanyHandler(t *testing.T) {
	h := handlers.NewCompanyHandler(newService(storage.NewMockRepository()), nil)
	r := gin.New()
	r.GET("/api/company", h.Get)
	r.PUT("/api/company", h.Put)

	rec := do(t, r, http.MethodGet, "/api/company", nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = do(t, r, http.MethodPut, "/api/company", dto.CompanyRequest{Name: "Acme", Type: "cooperative"})
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = do(t, r, http.MethodPut, "/api/company", dto.CompanyRequest{Name: "Acme", Type: "company", LogoURL: "not a url"})
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = do(t, r, http.MethodPut, "/api/company", dto.CompanyRequest{
		Name:          "Via Roma 12",
		Type:          "condominium",
		Address:       "Via Roma 12, Milano",
		Administrator: &dto.AdministratorRequest{Name: "Laura Bianchi", Email: "laura@studio.test"},
	})
	require.Equal(t, http.StatusOK, rec.Code)
	saved := decode[consumption.CompanyInfo](t, rec)
	assert.NotEmpty(t, saved.ID)

	rec = do(t, r, http.MethodGet, "/api/company", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	got := decode[consumption.CompanyInfo](t, rec)
	assert.Equal(t, saved.ID, got.ID)
	assert.Equal(t, consumption.CompanyTypeCondominium, got.Type)
	require.NotNil(t, got.Administrator)
	assert.Equal(t, "Laura Bianchi", got.Administrator.Name)
}

func TestCalculationsHandler(t *testing.T) {
	setup := func() (*gin.Engine, *storage.MockRepository) {
		repo := storage.NewMockRepository()
		ctx := context.Background()
		require.NoError(t, repo.SaveReading(ctx, consumption.CategoryOffice, &consumption.Reading{ID: "a", Kwh: 30}))
		require.NoError(t, repo.SaveReading(ctx, consumption.CategoryOffice, &consumption.Reading{ID: "b", Kwh: 70}))
		require.NoError(t, repo.SaveBill(ctx, consumption.CategoryOffice, consumption.Bill{TotalAmount: 200}))

		h := handlers.NewCalculationsHandler(newService(repo), nil)
		r := gin.New()
		r.POST("/api/calculations", h.Create)
		r.GET("/api/calculations", h.List)
		r.GET("/api/calculations/monthly", h.Monthly)
		r.GET("/api/calculations/:id", h.Get)
		r.DELETE("/api/calculations/:id", h.Delete)
		return r, repo
	}

	t.Run("calculates, lists, fetches and deletes", func(t *testing.T) {
		r, _ := setup()

		rec := do(t, r, http.MethodPost, "/api/calculations", nil)
		require.Equal(t, http.StatusCreated, rec.Code)
		result := decode[consumption.CalculationResult](t, rec)
		office := result.Category(consumption.CategoryOffice)
		require.NotNil(t, office)
		assert.Equal(t, 60.0, office.Readings[0].Cost())
		assert.Equal(t, 140.0, office.Readings[1].Cost())

		rec = do(t, r, http.MethodGet, "/api/calculations", nil)
		require.Equal(t, http.StatusOK, rec.Code)
		list := decode[dto.CalculationListResponse](t, rec)
		require.Equal(t, 1, list.Count)
		assert.Equal(t, result.ID, list.Calculations[0].ID)

		rec = do(t, r, http.MethodGet, "/api/calculations/"+result.ID, nil)
		require.Equal(t, http.StatusOK, rec.Code)

		rec = do(t, r, http.MethodGet, "/api/calculations/monthly", nil)
		require.Equal(t, http.StatusOK, rec.Code)
		assert.Len(t, decode[dto.MonthlyResponse](t, rec).Months, 1)

		rec = do(t, r, http.MethodDelete, "/api/calculations/"+result.ID, nil)
		assert.Equal(t, http.StatusNoContent, rec.Code)

		rec = do(t, r, http.MethodGet, "/api/calculations/"+result.ID, nil)
		assert.Equal(t, http.StatusNotFound, rec.Code)
	})

	t.Run("storage failure is an internal error", func(t *testing.T) {
		r, repo := setup()
		repo.SaveResultErr = errors.New("disk full")

		rec := do(t, r, http.MethodPost, "/api/calculations", nil)

		assert.Equal(t, http.StatusInternalServerError, rec.Code)
		apiErr := decode[dto.APIError](t, rec)
		assert.Equal(t, dto.ErrCodeInternalError, apiErr.Code)
		assert.NotContains(t, apiErr.Message, "disk full")
	})
}

func TestAllocateHandler(t *testing.T) {
	r := gin.New()
	r.POST("/api/allocate", handlers.NewAllocateHandler(nil).Post)

	t.Run("splits the total by consumption", func(t *testing.T) {
		a, b, c := 1.0, 1.0, 1.0
		total := 100.0
		rec := do(t, r, http.MethodPost, "/api/allocate", dto.AllocateRequest{
			Readings:    []dto.ReadingRequest{{ID: "a", Kwh: &a}, {ID: "b", Kwh: &b}, {ID: "c", Kwh: &c}},
			TotalAmount: &total,
		})

		require.Equal(t, http.StatusOK, rec.Code)
		resp := decode[dto.AllocateResponse](t, rec)
		require.Len(t, resp.Readings, 3)
		assert.Equal(t, 100.0, resp.TotalCost)
		assert.Equal(t, 3.0, resp.BaseKwh)
	})

	t.Run("readings are validated", func(t *testing.T) {
		total := 10.0
		rec := do(t, r, http.MethodPost, "/api/allocate", map[string]any{
			"readings":     []map[string]any{{"id": "a"}},
			"total_amount": total,
		})

		assert.Equal(t, http.StatusBadRequest, rec.Code)
		assert.Equal(t, dto.ErrCodeValidation, decode[dto.APIError](t, rec).Code)
	})

	t.Run("total is required", func(t *testing.T) {
		rec := do(t, r, http.MethodPost, "/api/allocate", map[string]any{"readings": []any{}})

		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})
}

func TestCategoriesHandler(t *testing.T) {
	r := gin.New()
	r.GET("/api/categories", handlers.NewCategoriesHandler(map[string]string{"office": "Office"}).List)

	rec := do(t, r, http.MethodGet, "/api/categories", nil)

	require.Equal(t, http.StatusOK, rec.Code)
	cats := decode[[]dto.CategoryResponse](t, rec)
	require.Len(t, cats, 2)
	assert.Equal(t, "Office", cats[0].Label)
	assert.Equal(t, "ac", cats[1].Label)
}

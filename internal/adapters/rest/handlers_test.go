package rest

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"pricing-service/internal/core/domain"
	"pricing-service/internal/core/pricing"
	"pricing-service/internal/core/usecase"
	"pricing-service/internal/core/validation"
)

type fakeUnitStorage struct {
	unit     *domain.Unit
	pool     []domain.ComparableCandidate
	snapshot string
}

func (f *fakeUnitStorage) GetUnit(ctx context.Context, unitID string) (*domain.Unit, error) {
	if f.unit == nil || f.unit.ID != unitID {
		return nil, domain.ErrUnitNotFound
	}
	return f.unit, nil
}

func (f *fakeUnitStorage) GetCandidatePool(ctx context.Context, unit domain.Unit) ([]domain.ComparableCandidate, error) {
	return f.pool, nil
}

func (f *fakeUnitStorage) SnapshotVersion(ctx context.Context, propertyID string) (string, error) {
	return f.snapshot, nil
}

type noopCache struct{}

func (noopCache) Get(ctx context.Context, key domain.OptimizationCacheKey) (*domain.OptimizationResult, error) {
	return nil, nil
}

func (noopCache) Set(ctx context.Context, key domain.OptimizationCacheKey, result domain.OptimizationResult, ttl time.Duration) error {
	return nil
}

type fakeUploadStorage struct {
	history []domain.UploadMetadata
}

func (f *fakeUploadStorage) SaveUploadMetadata(ctx context.Context, meta domain.UploadMetadata) error {
	return nil
}

func (f *fakeUploadStorage) UpdateUploadStatus(ctx context.Context, uploadID string, status string) error {
	return nil
}

func (f *fakeUploadStorage) SaveAcceptedBatch(ctx context.Context, batch domain.UploadBatch) error {
	return nil
}

func (f *fakeUploadStorage) GetUploadHistory(ctx context.Context, filter domain.UploadHistoryFilter) ([]domain.UploadMetadata, error) {
	return f.history, nil
}

func testRouter(unitStorage *fakeUnitStorage, uploadStorage *fakeUploadStorage) http.Handler {
	cfg := pricing.DefaultConfig()
	matcher := pricing.NewComparableMatcher(cfg)
	optimizer := pricing.NewPricingOptimizer(cfg, pricing.NewDemandCurve(cfg))

	pricingHandler := NewPricingHandler(
		usecase.NewGetComparablesUseCase(unitStorage, matcher),
		usecase.NewOptimizeUnitUseCase(unitStorage, noopCache{}, matcher, optimizer, time.Hour),
	)
	uploadHandler := NewUploadHandler(
		usecase.NewValidateUploadUseCase(validation.NewValidator()),
		usecase.NewGetUploadHistoryUseCase(uploadStorage),
	)

	r := chi.NewRouter()
	r.Route("/api/v1", func(r chi.Router) {
		r.Get("/units/{unitID}/comparables", pricingHandler.GetComparables)
		r.Post("/units/{unitID}/optimize", pricingHandler.OptimizeUnit)
		r.Post("/uploads/validate", uploadHandler.ValidateUpload)
		r.Get("/uploads", uploadHandler.GetUploadHistory)
	})
	return r
}

func pricedUnitStorage() *fakeUnitStorage {
	storage := &fakeUnitStorage{
		unit: &domain.Unit{
			ID:             "oakwood_A101",
			Property:       "oakwood",
			Bedrooms:       2,
			Bathrooms:      2,
			Sqft:           1000,
			AdvertisedRent: 1200,
			Status:         domain.StatusVacant,
		},
		snapshot: "snap-1",
	}
	for _, price := range []float64{1150, 1190, 1220, 1250, 1300} {
		storage.pool = append(storage.pool, domain.ComparableCandidate{
			ID:          "comp",
			Property:    "rivergate",
			Bedrooms:    2,
			Bathrooms:   2,
			Sqft:        1000,
			Price:       price,
			IsAvailable: true,
		})
	}
	return storage
}

func TestGetComparables_ReturnsRankedSet(t *testing.T) {
	router := testRouter(pricedUnitStorage(), &fakeUploadStorage{})

	req := httptest.NewRequest(http.MethodGet, "/api/v1/units/oakwood_A101/comparables", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)

	var resp ComparablesResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "oakwood_A101", resp.Unit.ID)
	require.Len(t, resp.Comparables, 5)
	assert.Equal(t, 1, resp.Comparables[0].Rank)
}

func TestGetComparables_UnknownUnitIs404(t *testing.T) {
	router := testRouter(&fakeUnitStorage{}, &fakeUploadStorage{})

	req := httptest.NewRequest(http.MethodGet, "/api/v1/units/nope/comparables", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestOptimizeUnit_ReturnsRecommendation(t *testing.T) {
	router := testRouter(pricedUnitStorage(), &fakeUploadStorage{})

	body := strings.NewReader(`{"strategy": "revenue_max"}`)
	req := httptest.NewRequest(http.MethodPost, "/api/v1/units/oakwood_A101/optimize", body)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)

	var resp OptimizationResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "oakwood_A101", resp.UnitID)
	assert.Equal(t, 1200.0, resp.CurrentRent)
	assert.Greater(t, resp.RecommendedRent, 0.0)
	assert.Equal(t, "revenue_max", resp.Strategy)
	assert.Equal(t, 5, resp.ComparableCount)
	assert.Empty(t, resp.FallbackReason)
}

func TestOptimizeUnit_BadStrategyIs400(t *testing.T) {
	router := testRouter(pricedUnitStorage(), &fakeUploadStorage{})

	tests := []struct {
		name string
		body string
	}{
		{"unknown strategy", `{"strategy": "yolo"}`},
		{"balanced without weight", `{"strategy": "balanced"}`},
		{"weight out of range", `{"strategy": "balanced", "weight": 1.5}`},
		{"not json", `strategy=revenue_max`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodPost, "/api/v1/units/oakwood_A101/optimize", strings.NewReader(tt.body))
			rec := httptest.NewRecorder()
			router.ServeHTTP(rec, req)

			assert.Equal(t, http.StatusBadRequest, rec.Code)
		})
	}
}

func TestValidateUpload_ReturnsReport(t *testing.T) {
	router := testRouter(&fakeUnitStorage{}, &fakeUploadStorage{})

	body := strings.NewReader(`{
		"property_id": "oakwood",
		"file_type": "rent_roll",
		"data_month": "2026-08",
		"rows": [
			{"row_index": 1, "fields": {"unit": "A101", "property": "oakwood", "bedroom": 2,
			 "bathrooms": 2, "sqft": 950, "status": "Occupied", "advertised_rent": "$1,450.00"}}
		]
	}`)
	req := httptest.NewRequest(http.MethodPost, "/api/v1/uploads/validate", body)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)

	var resp ValidationReportResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.True(t, resp.IsValid)
	assert.Equal(t, 1, resp.RowCount)
	assert.Empty(t, resp.Errors)
	assert.Greater(t, resp.QualityScore, 0.0)
}

func TestValidateUpload_BadFileTypeIs400(t *testing.T) {
	router := testRouter(&fakeUnitStorage{}, &fakeUploadStorage{})

	body := strings.NewReader(`{"property_id": "oakwood", "file_type": "leases", "data_month": "2026-08", "rows": []}`)
	req := httptest.NewRequest(http.MethodPost, "/api/v1/uploads/validate", body)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestGetUploadHistory_FiltersAndMaps(t *testing.T) {
	now := time.Now().UTC()
	storage := &fakeUploadStorage{
		history: []domain.UploadMetadata{
			{
				PropertyID:   "oakwood",
				FileType:     domain.FileTypeRentRoll,
				DataMonth:    "2026-08",
				RowCount:     120,
				IsValid:      true,
				QualityScore: 0.93,
				Status:       domain.UploadStatusCompleted,
				CreatedAt:    now,
				UpdatedAt:    now,
			},
		},
	}
	router := testRouter(&fakeUnitStorage{}, storage)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/uploads?property_id=oakwood&file_type=rent_roll&limit=10", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)

	var resp UploadHistoryResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	require.Equal(t, 1, resp.Total)
	assert.Equal(t, "oakwood", resp.Uploads[0].PropertyID)
	assert.Equal(t, "rent_roll", resp.Uploads[0].FileType)
	assert.Equal(t, "completed", resp.Uploads[0].Status)
	assert.NotNil(t, resp.Uploads[0].Errors)
}

func TestGetUploadHistory_BadFileTypeIs400(t *testing.T) {
	router := testRouter(&fakeUnitStorage{}, &fakeUploadStorage{})

	req := httptest.NewRequest(http.MethodGet, "/api/v1/uploads?file_type=leases", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

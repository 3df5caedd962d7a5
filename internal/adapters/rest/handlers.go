package rest

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"pricing-service/internal/contextkeys"
	"pricing-service/internal/core/domain"
	"pricing-service/internal/core/port"
	"pricing-service/internal/core/usecase"
)

// PricingHandler serves the unit-facing endpoints: comparables and
// optimization.
type PricingHandler struct {
	getComparablesUC *usecase.GetComparablesUseCase
	optimizeUnitUC   *usecase.OptimizeUnitUseCase
}

func NewPricingHandler(getComparablesUC *usecase.GetComparablesUseCase, optimizeUnitUC *usecase.OptimizeUnitUseCase) *PricingHandler {
	return &PricingHandler{
		getComparablesUC: getComparablesUC,
		optimizeUnitUC:   optimizeUnitUC,
	}
}

// GetComparables handles GET /api/v1/units/{unitID}/comparables
func (h *PricingHandler) GetComparables(w http.ResponseWriter, r *http.Request) {
	logger := contextkeys.LoggerFromContext(r.Context())
	unitID := chi.URLParam(r, "unitID")

	handlerLogger := logger.WithFields(port.Fields{
		"handler": "GetComparables",
		"unit_id": unitID,
	})

	unit, comps, err := h.getComparablesUC.Execute(r.Context(), unitID)
	if err != nil {
		if errors.Is(err, domain.ErrUnitNotFound) {
			WriteJSONError(w, http.StatusNotFound, "Unit not found")
			return
		}
		handlerLogger.Error("Use case failed", err, nil)
		WriteJSONError(w, http.StatusInternalServerError, "Failed to find comparables")
		return
	}

	RespondWithJSON(w, http.StatusOK, ComparablesResponse{
		Unit:        toUnitResponse(*unit),
		Comparables: toComparableResponses(comps),
	})
}

// OptimizeUnit handles POST /api/v1/units/{unitID}/optimize
func (h *PricingHandler) OptimizeUnit(w http.ResponseWriter, r *http.Request) {
	logger := contextkeys.LoggerFromContext(r.Context())
	unitID := chi.URLParam(r, "unitID")

	var req OptimizeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		WriteJSONError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	strategy, err := domain.ParseStrategy(req.Strategy)
	if err != nil {
		WriteJSONError(w, http.StatusBadRequest, err.Error())
		return
	}
	strategyReq := domain.StrategyRequest{
		Strategy: strategy,
		Weight:   req.Weight,
	}
	if err := strategyReq.Validate(); err != nil {
		WriteJSONError(w, http.StatusBadRequest, err.Error())
		return
	}

	handlerLogger := logger.WithFields(port.Fields{
		"handler":  "OptimizeUnit",
		"unit_id":  unitID,
		"strategy": req.Strategy,
	})

	result, err := h.optimizeUnitUC.Execute(r.Context(), unitID, strategyReq)
	if err != nil {
		if errors.Is(err, domain.ErrUnitNotFound) {
			WriteJSONError(w, http.StatusNotFound, "Unit not found")
			return
		}
		handlerLogger.Error("Use case failed", err, nil)
		WriteJSONError(w, http.StatusInternalServerError, "Failed to optimize unit price")
		return
	}

	RespondWithJSON(w, http.StatusOK, toOptimizationResponse(result))
}

// UploadHandler serves the upload-facing endpoints: dry-run validation and
// history.
type UploadHandler struct {
	validateUploadUC   *usecase.ValidateUploadUseCase
	getUploadHistoryUC *usecase.GetUploadHistoryUseCase
}

func NewUploadHandler(validateUploadUC *usecase.ValidateUploadUseCase, getUploadHistoryUC *usecase.GetUploadHistoryUseCase) *UploadHandler {
	return &UploadHandler{
		validateUploadUC:   validateUploadUC,
		getUploadHistoryUC: getUploadHistoryUC,
	}
}

// ValidateUpload handles POST /api/v1/uploads/validate
func (h *UploadHandler) ValidateUpload(w http.ResponseWriter, r *http.Request) {
	var req ValidateUploadRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		WriteJSONError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	fileType, err := domain.ParseFileType(req.FileType)
	if err != nil {
		WriteJSONError(w, http.StatusBadRequest, err.Error())
		return
	}

	uploadID := uuid.New()
	if req.UploadID != "" {
		uploadID, err = uuid.Parse(req.UploadID)
		if err != nil {
			WriteJSONError(w, http.StatusBadRequest, "upload_id must be a UUID")
			return
		}
	}

	rows := make([]domain.UploadRecord, 0, len(req.Rows))
	for _, row := range req.Rows {
		rows = append(rows, domain.UploadRecord{
			RowIndex: row.RowIndex,
			Fields:   row.Fields,
		})
	}

	report := h.validateUploadUC.Execute(r.Context(), domain.UploadBatch{
		UploadID:   uploadID,
		PropertyID: req.PropertyID,
		FileType:   fileType,
		DataMonth:  req.DataMonth,
		Rows:       rows,
	})

	RespondWithJSON(w, http.StatusOK, toValidationReportResponse(report))
}

// GetUploadHistory handles GET /api/v1/uploads
func (h *UploadHandler) GetUploadHistory(w http.ResponseWriter, r *http.Request) {
	logger := contextkeys.LoggerFromContext(r.Context())
	query := r.URL.Query()

	limit, err := GetLimitOrDefault(r, 50)
	if err != nil {
		WriteJSONError(w, http.StatusBadRequest, "limit must be an integer")
		return
	}

	filter := domain.UploadHistoryFilter{
		PropertyID: query.Get("property_id"),
		Limit:      limit,
	}
	if ftStr := query.Get("file_type"); ftStr != "" {
		ft, err := domain.ParseFileType(ftStr)
		if err != nil {
			WriteJSONError(w, http.StatusBadRequest, err.Error())
			return
		}
		filter.FileType = &ft
	}

	history, err := h.getUploadHistoryUC.Execute(r.Context(), filter)
	if err != nil {
		logger.Error("Failed to read upload history", err, port.Fields{"handler": "GetUploadHistory"})
		WriteJSONError(w, http.StatusInternalServerError, "Failed to retrieve upload history")
		return
	}

	uploads := toUploadMetadataResponses(history)
	RespondWithJSON(w, http.StatusOK, UploadHistoryResponse{
		Uploads: uploads,
		Total:   len(uploads),
	})
}

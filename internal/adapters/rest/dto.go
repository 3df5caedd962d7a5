package rest

import (
	"time"

	"pricing-service/internal/core/domain"
)

// UnitResponse describes the unit a comparables or optimization request was
// made for.
type UnitResponse struct {
	ID             string   `json:"id"`
	PropertyID     string   `json:"property_id"`
	Bedrooms       int      `json:"bedrooms"`
	Bathrooms      float64  `json:"bathrooms"`
	Sqft           float64  `json:"sqft"`
	AdvertisedRent float64  `json:"advertised_rent"`
	MarketRent     *float64 `json:"market_rent,omitempty"`
	Status         string   `json:"status"`
}

// ComparableResponse is one ranked comparable listing.
type ComparableResponse struct {
	ID              string  `json:"id"`
	PropertyName    string  `json:"property_name"`
	Bedrooms        int     `json:"bedrooms"`
	Bathrooms       float64 `json:"bathrooms"`
	Sqft            float64 `json:"sqft"`
	Price           float64 `json:"price"`
	IsAvailable     bool    `json:"is_available"`
	SqftDeltaPct    float64 `json:"sqft_delta_pct"`
	PriceDeltaPct   float64 `json:"price_delta_pct"`
	SimilarityScore float64 `json:"similarity_score"`
	Rank            int     `json:"rank"`
}

// ComparablesResponse is the body of GET /units/{unitID}/comparables.
type ComparablesResponse struct {
	Unit        UnitResponse         `json:"unit"`
	Comparables []ComparableResponse `json:"comparables"`
}

// OptimizeRequest is the body of POST /units/{unitID}/optimize.
type OptimizeRequest struct {
	Strategy string   `json:"strategy"`
	Weight   *float64 `json:"weight,omitempty"`
}

// OptimizationResponse is the pricing recommendation for one unit.
type OptimizationResponse struct {
	UnitID              string   `json:"unit_id"`
	CurrentRent         float64  `json:"current_rent"`
	RecommendedRent     float64  `json:"recommended_rent"`
	RentChange          float64  `json:"rent_change"`
	RentChangePct       float64  `json:"rent_change_pct"`
	DemandProbability   *float64 `json:"demand_probability,omitempty"`
	ExpectedDaysToLease *int     `json:"expected_days_to_lease,omitempty"`
	AnnualRevenueImpact float64  `json:"annual_revenue_impact"`
	Confidence          float64  `json:"confidence"`
	Strategy            string   `json:"strategy"`
	ComparableCount     int      `json:"comparable_count"`
	FallbackReason      string   `json:"fallback_reason,omitempty"`
}

// ValidateUploadRequest is the body of POST /uploads/validate. It mirrors the
// queue event shape so clients can pre-flight the exact payload they would
// publish.
type ValidateUploadRequest struct {
	UploadID   string             `json:"upload_id"`
	PropertyID string             `json:"property_id"`
	FileType   string             `json:"file_type"`
	DataMonth  string             `json:"data_month"`
	Rows       []UploadRowRequest `json:"rows"`
}

type UploadRowRequest struct {
	RowIndex int            `json:"row_index"`
	Fields   map[string]any `json:"fields"`
}

// RowIssueResponse is one per-row diagnostic.
type RowIssueResponse struct {
	RowIndex int    `json:"row_index"`
	Field    string `json:"field"`
	Message  string `json:"message"`
}

// ValidationReportResponse is the dry-run validation verdict.
type ValidationReportResponse struct {
	FileType          string             `json:"file_type"`
	RowCount          int                `json:"row_count"`
	IsValid           bool               `json:"is_valid"`
	Errors            []string           `json:"errors"`
	Warnings          []string           `json:"warnings"`
	CompletenessScore float64            `json:"completeness_score"`
	QualityScore      float64            `json:"quality_score"`
	RowIssues         []RowIssueResponse `json:"row_issues,omitempty"`
}

// UploadMetadataResponse is one past upload attempt.
type UploadMetadataResponse struct {
	UploadID     string    `json:"upload_id"`
	PropertyID   string    `json:"property_id"`
	FileType     string    `json:"file_type"`
	DataMonth    string    `json:"data_month"`
	RowCount     int       `json:"row_count"`
	IsValid      bool      `json:"is_valid"`
	QualityScore float64   `json:"quality_score"`
	Errors       []string  `json:"errors"`
	Warnings     []string  `json:"warnings"`
	Status       string    `json:"status"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

// UploadHistoryResponse is the body of GET /uploads.
type UploadHistoryResponse struct {
	Uploads []UploadMetadataResponse `json:"uploads"`
	Total   int                      `json:"total"`
}

func toUnitResponse(u domain.Unit) UnitResponse {
	return UnitResponse{
		ID:             u.ID,
		PropertyID:     u.Property,
		Bedrooms:       u.Bedrooms,
		Bathrooms:      u.Bathrooms,
		Sqft:           u.Sqft,
		AdvertisedRent: u.AdvertisedRent,
		MarketRent:     u.MarketRent,
		Status:         string(u.Status),
	}
}

func toComparableResponses(comps []domain.RankedComparable) []ComparableResponse {
	out := make([]ComparableResponse, 0, len(comps))
	for _, c := range comps {
		out = append(out, ComparableResponse{
			ID:              c.ID,
			PropertyName:    c.Property,
			Bedrooms:        c.Bedrooms,
			Bathrooms:       c.Bathrooms,
			Sqft:            c.Sqft,
			Price:           c.Price,
			IsAvailable:     c.IsAvailable,
			SqftDeltaPct:    c.SqftDeltaPct,
			PriceDeltaPct:   c.PriceDeltaPct,
			SimilarityScore: c.SimilarityScore,
			Rank:            c.Rank,
		})
	}
	return out
}

func toOptimizationResponse(r domain.OptimizationResult) OptimizationResponse {
	return OptimizationResponse{
		UnitID:              r.UnitID,
		CurrentRent:         r.CurrentRent,
		RecommendedRent:     r.RecommendedRent,
		RentChange:          r.RentChange,
		RentChangePct:       r.RentChangePct,
		DemandProbability:   r.DemandProbability,
		ExpectedDaysToLease: r.ExpectedDaysToLease,
		AnnualRevenueImpact: r.AnnualRevenueImpact,
		Confidence:          r.Confidence,
		Strategy:            r.StrategyUsed.String(),
		ComparableCount:     r.ComparableCount,
		FallbackReason:      string(r.Reason),
	}
}

func toValidationReportResponse(rep domain.ValidationReport) ValidationReportResponse {
	issues := make([]RowIssueResponse, 0, len(rep.RowIssues))
	for _, issue := range rep.RowIssues {
		issues = append(issues, RowIssueResponse{
			RowIndex: issue.RowIndex,
			Field:    issue.Field,
			Message:  issue.Message,
		})
	}
	return ValidationReportResponse{
		FileType:          string(rep.FileType),
		RowCount:          rep.RowCount,
		IsValid:           rep.IsValid,
		Errors:            emptyIfNil(rep.Errors),
		Warnings:          emptyIfNil(rep.Warnings),
		CompletenessScore: rep.CompletenessScore,
		QualityScore:      rep.QualityScore,
		RowIssues:         issues,
	}
}

func toUploadMetadataResponses(history []domain.UploadMetadata) []UploadMetadataResponse {
	out := make([]UploadMetadataResponse, 0, len(history))
	for _, m := range history {
		out = append(out, UploadMetadataResponse{
			UploadID:     m.UploadID.String(),
			PropertyID:   m.PropertyID,
			FileType:     string(m.FileType),
			DataMonth:    m.DataMonth,
			RowCount:     m.RowCount,
			IsValid:      m.IsValid,
			QualityScore: m.QualityScore,
			Errors:       emptyIfNil(m.Errors),
			Warnings:     emptyIfNil(m.Warnings),
			Status:       m.Status,
			CreatedAt:    m.CreatedAt,
			UpdatedAt:    m.UpdatedAt,
		})
	}
	return out
}

func emptyIfNil(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}

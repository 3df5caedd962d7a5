package validation

import (
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"pricing-service/internal/core/domain"
)

func rentRollRow(idx int, overrides map[string]any) domain.UploadRecord {
	fields := map[string]any{
		"unit":            "A101",
		"property":        "oakwood",
		"bedroom":         2,
		"bathrooms":       2.0,
		"sqft":            950,
		"status":          "VACANT",
		"advertised_rent": "$1,450.00",
		"market_rent":     "$1,500",
		"rent":            "$1,425",
		"tenant":          "t0048213",
		"lease_from":      "2025-09-01",
		"lease_to":        "2026-08-31",
	}
	for k, v := range overrides {
		if v == nil {
			delete(fields, k)
			continue
		}
		fields[k] = v
	}
	return domain.UploadRecord{RowIndex: idx, Fields: fields}
}

func competitionRow(idx int, overrides map[string]any) domain.UploadRecord {
	fields := map[string]any{
		"reporting_property_name": "Rivergate Flats",
		"bedrooms":                "2",
		"market_rent":             "$1,520",
		"avg_sq_ft":               "980",
	}
	for k, v := range overrides {
		if v == nil {
			delete(fields, k)
			continue
		}
		fields[k] = v
	}
	return domain.UploadRecord{RowIndex: idx, Fields: fields}
}

func rentRollBatch(rows ...domain.UploadRecord) domain.UploadBatch {
	return domain.UploadBatch{
		UploadID:   uuid.New(),
		PropertyID: "oakwood",
		FileType:   domain.FileTypeRentRoll,
		DataMonth:  "2026-08",
		Rows:       rows,
	}
}

func TestValidate_CleanRentRoll(t *testing.T) {
	v := NewValidator()

	report := v.Validate(rentRollBatch(
		rentRollRow(1, map[string]any{"unit": "A101"}),
		rentRollRow(2, map[string]any{"unit": "A102"}),
	))

	assert.True(t, report.IsValid)
	assert.Equal(t, domain.FileTypeRentRoll, report.FileType)
	assert.Equal(t, 2, report.RowCount)
	assert.Empty(t, report.Errors)
	assert.Empty(t, report.Warnings)
	assert.Empty(t, report.RowIssues)
	// 12 of the 14 expected fields populated per row.
	assert.InDelta(t, 12.0/14.0, report.CompletenessScore, 1e-9)
}

func TestValidate_MissingRequiredFieldIsError(t *testing.T) {
	v := NewValidator()

	report := v.Validate(rentRollBatch(
		rentRollRow(1, nil),
		rentRollRow(2, map[string]any{"unit": "A102", "sqft": nil}),
	))

	assert.False(t, report.IsValid)
	require.Len(t, report.Errors, 1)
	assert.Contains(t, report.Errors[0], "row 2")
	assert.Contains(t, report.Errors[0], "sqft")
}

func TestValidate_BlankStringCountsAsMissing(t *testing.T) {
	v := NewValidator()

	report := v.Validate(rentRollBatch(
		rentRollRow(1, map[string]any{"status": "   "}),
	))

	assert.False(t, report.IsValid)
	require.Len(t, report.Errors, 1)
	assert.Contains(t, report.Errors[0], "status")
}

func TestValidate_AdvertisedRentRequired(t *testing.T) {
	v := NewValidator()

	tests := []struct {
		name string
		rent any
	}{
		{name: "absent", rent: nil},
		{name: "zero", rent: 0},
		{name: "negative", rent: -50.0},
		{name: "not a number", rent: "call for pricing"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			report := v.Validate(rentRollBatch(
				rentRollRow(1, map[string]any{"advertised_rent": tt.rent}),
			))
			assert.False(t, report.IsValid)
			require.NotEmpty(t, report.Errors)
			assert.Contains(t, report.Errors[0], "advertised_rent")
			assert.Contains(t, report.Errors[0], "row 1")
		})
	}
}

func TestValidate_NonPositiveSqftIsError(t *testing.T) {
	v := NewValidator()

	report := v.Validate(rentRollBatch(
		rentRollRow(1, map[string]any{"sqft": -200}),
	))

	assert.False(t, report.IsValid)
	require.Len(t, report.Errors, 1)
	assert.Contains(t, report.Errors[0], "square footage must be positive")
}

func TestValidate_CurrencyFormattingAccepted(t *testing.T) {
	v := NewValidator()

	report := v.Validate(rentRollBatch(
		rentRollRow(1, map[string]any{"advertised_rent": "\"$2,150\""}),
	))

	assert.True(t, report.IsValid)
}

func TestValidate_ImplausibleValuesWarn(t *testing.T) {
	v := NewValidator()

	report := v.Validate(rentRollBatch(
		rentRollRow(1, map[string]any{"unit": "A101", "bedroom": 12}),
		rentRollRow(2, map[string]any{"unit": "A102", "sqft": 25000}),
		rentRollRow(3, map[string]any{"unit": "A103", "advertised_rent": 45000}),
	))

	// Warnings do not invalidate the batch.
	assert.True(t, report.IsValid)
	require.Len(t, report.Warnings, 3)
	assert.Contains(t, report.Warnings[0], "bedroom")
	assert.Contains(t, report.Warnings[1], "square footage")
	assert.Contains(t, report.Warnings[2], "unusual rent")

	require.Len(t, report.RowIssues, 3)
	assert.Equal(t, 2, report.RowIssues[1].RowIndex)
	assert.Equal(t, "sqft", report.RowIssues[1].Field)
}

func TestValidate_DuplicateUnitsAreErrors(t *testing.T) {
	v := NewValidator()

	report := v.Validate(rentRollBatch(
		rentRollRow(1, map[string]any{"unit": "A101"}),
		rentRollRow(2, map[string]any{"unit": "A101"}),
		rentRollRow(3, map[string]any{"unit": "A101", "property": "rivergate"}),
	))

	// Same unit id under a different property is not a duplicate.
	assert.False(t, report.IsValid)
	require.Len(t, report.Errors, 1)
	assert.Contains(t, report.Errors[0], "row 2")
	assert.Contains(t, report.Errors[0], "duplicate")
	assert.Contains(t, report.Errors[0], "first seen at row 1")
}

func TestValidate_EmptyBatch(t *testing.T) {
	v := NewValidator()

	report := v.Validate(rentRollBatch())

	assert.False(t, report.IsValid)
	assert.Zero(t, report.RowCount)
	assert.Zero(t, report.CompletenessScore)
	assert.Zero(t, report.QualityScore)
}

func TestValidate_QualityScoreFoldsPenalties(t *testing.T) {
	v := NewValidator()

	clean := v.Validate(rentRollBatch(rentRollRow(1, nil)))
	flawed := v.Validate(rentRollBatch(rentRollRow(1, map[string]any{"bedroom": 15})))

	assert.InDelta(t, clean.CompletenessScore, clean.QualityScore, 1e-9)
	assert.InDelta(t, clean.QualityScore*0.95, flawed.QualityScore, 1e-9)
}

func TestValidate_Competition(t *testing.T) {
	v := NewValidator()

	batch := domain.UploadBatch{
		UploadID:   uuid.New(),
		PropertyID: "oakwood",
		FileType:   domain.FileTypeCompetition,
		DataMonth:  "2026-08",
		Rows: []domain.UploadRecord{
			competitionRow(1, nil),
			competitionRow(2, map[string]any{"market_rent": nil}),
			competitionRow(3, map[string]any{"market_rent": "TBD"}),
			competitionRow(4, map[string]any{"avg_sq_ft": "50"}),
		},
	}

	report := v.Validate(batch)

	assert.Equal(t, domain.FileTypeCompetition, report.FileType)
	assert.False(t, report.IsValid, "missing market_rent on row 2 is an error")
	require.Len(t, report.Errors, 1)
	assert.Contains(t, report.Errors[0], "row 2")

	// Row 3 is present but unparseable, row 4 implausibly small.
	require.Len(t, report.Warnings, 2)
	assert.Contains(t, report.Warnings[0], "invalid rent")
	assert.Contains(t, report.Warnings[1], "square footage")

	// 15 of 16 expected fields present.
	assert.InDelta(t, 15.0/16.0, report.CompletenessScore, 1e-9)
}

package validation

import (
	"fmt"

	"pricing-service/internal/core/domain"
)

// Field names of the normalized upload rows. The upload pipeline lowercases
// and snake_cases source column headers before publishing, so the validator
// only ever sees these canonical keys.
var (
	rentRollRequiredFields = []string{
		"unit", "property", "bedroom", "bathrooms", "sqft", "status",
	}
	rentRollOptionalFields = []string{
		"market_rent", "rent", "advertised_rent", "tenant",
		"lease_from", "lease_to", "move_in", "move_out",
	}
	competitionRequiredFields = []string{
		"reporting_property_name", "bedrooms", "market_rent", "avg_sq_ft",
	}
)

// Plausibility bounds. Values outside these produce warnings, not errors: bad
// outliers lower the quality score but a landlord's data entry quirk must not
// block a whole monthly upload.
const (
	maxBedrooms = 10

	minSqft            = 100
	maxRentRollSqft    = 10000
	maxCompetitionSqft = 5000

	minMonthlyRent = 100
	maxMonthlyRent = 20000

	lowCompletenessThreshold = 0.8
)

// Quality score penalties, multiplicative per triggered rule family.
const (
	penaltyMinor      = 0.95
	penaltyMajor      = 0.90
	penaltyDuplicates = 0.80
)

// Validator applies the data-quality rules to one upload batch before it may
// reach the warehouse. It is stateless.
type Validator struct{}

func NewValidator() *Validator {
	return &Validator{}
}

// Validate produces the full quality report for a batch. A batch is valid iff
// it accumulated no errors; warnings and the scores never gate acceptance on
// their own.
func (v *Validator) Validate(batch domain.UploadBatch) domain.ValidationReport {
	switch batch.FileType {
	case domain.FileTypeCompetition:
		return v.validateCompetition(batch)
	default:
		return v.validateRentRoll(batch)
	}
}

func (v *Validator) validateRentRoll(batch domain.UploadBatch) domain.ValidationReport {
	report := domain.ValidationReport{
		FileType: domain.FileTypeRentRoll,
		RowCount: len(batch.Rows),
	}
	quality := 1.0

	if len(batch.Rows) == 0 {
		report.Errors = append(report.Errors, "upload contains no data rows")
		return finalize(report, 0)
	}

	var invalidBedrooms, invalidSqft, unusualRents int
	seen := make(map[string]int, len(batch.Rows))
	var duplicates int

	for _, row := range batch.Rows {
		for _, field := range rentRollRequiredFields {
			if !row.Has(field) {
				report.RowIssues = append(report.RowIssues, domain.RowIssue{
					RowIndex: row.RowIndex,
					Field:    field,
					Message:  fmt.Sprintf("row %d: missing required field %q", row.RowIndex, field),
				})
				report.Errors = append(report.Errors,
					fmt.Sprintf("row %d: missing required field %q", row.RowIndex, field))
			}
		}

		// Advertised rent drives pricing, so a row without a positive value
		// is unusable even though the source schema treats it as optional.
		if rent, ok := row.Number("advertised_rent"); !ok || rent <= 0 {
			report.RowIssues = append(report.RowIssues, domain.RowIssue{
				RowIndex: row.RowIndex,
				Field:    "advertised_rent",
				Message:  fmt.Sprintf("row %d: advertised_rent must be a positive number", row.RowIndex),
			})
			report.Errors = append(report.Errors,
				fmt.Sprintf("row %d: advertised_rent must be a positive number", row.RowIndex))
		} else if rent < minMonthlyRent || rent > maxMonthlyRent {
			unusualRents++
			report.RowIssues = append(report.RowIssues, domain.RowIssue{
				RowIndex: row.RowIndex,
				Field:    "advertised_rent",
				Message:  fmt.Sprintf("row %d: rent %.2f outside plausible range", row.RowIndex, rent),
			})
		}

		if beds, ok := row.Number("bedroom"); ok && (beds < 0 || beds > maxBedrooms) {
			invalidBedrooms++
			report.RowIssues = append(report.RowIssues, domain.RowIssue{
				RowIndex: row.RowIndex,
				Field:    "bedroom",
				Message:  fmt.Sprintf("row %d: bedroom count %.0f outside plausible range", row.RowIndex, beds),
			})
		}

		if sqft, ok := row.Number("sqft"); ok {
			if sqft <= 0 {
				report.RowIssues = append(report.RowIssues, domain.RowIssue{
					RowIndex: row.RowIndex,
					Field:    "sqft",
					Message:  fmt.Sprintf("row %d: square footage must be positive", row.RowIndex),
				})
				report.Errors = append(report.Errors,
					fmt.Sprintf("row %d: square footage must be positive", row.RowIndex))
			} else if sqft < minSqft || sqft > maxRentRollSqft {
				invalidSqft++
				report.RowIssues = append(report.RowIssues, domain.RowIssue{
					RowIndex: row.RowIndex,
					Field:    "sqft",
					Message:  fmt.Sprintf("row %d: square footage %.0f outside plausible range", row.RowIndex, sqft),
				})
			}
		}

		if unit, ok := row.String("unit"); ok {
			property, _ := row.String("property")
			key := property + "\x00" + unit
			if firstRow, dup := seen[key]; dup {
				duplicates++
				report.Errors = append(report.Errors,
					fmt.Sprintf("row %d: duplicate unit %q for property %q (first seen at row %d)",
						row.RowIndex, unit, property, firstRow))
			} else {
				seen[key] = row.RowIndex
			}
		}
	}

	if invalidBedrooms > 0 {
		report.Warnings = append(report.Warnings,
			fmt.Sprintf("%d rows have invalid bedroom counts", invalidBedrooms))
		quality *= penaltyMinor
	}
	if invalidSqft > 0 {
		report.Warnings = append(report.Warnings,
			fmt.Sprintf("%d rows have invalid square footage", invalidSqft))
		quality *= penaltyMajor
	}
	if unusualRents > 0 {
		report.Warnings = append(report.Warnings,
			fmt.Sprintf("%d rows have unusual rent values", unusualRents))
		quality *= penaltyMinor
	}
	if duplicates > 0 {
		quality *= penaltyDuplicates
	}

	completeness := completenessOf(batch.Rows,
		append(append([]string{}, rentRollRequiredFields...), rentRollOptionalFields...))
	report.CompletenessScore = completeness
	if completeness < lowCompletenessThreshold {
		report.Warnings = append(report.Warnings,
			fmt.Sprintf("data completeness is only %.1f%%", completeness*100))
	}

	return finalize(report, quality*completeness)
}

func (v *Validator) validateCompetition(batch domain.UploadBatch) domain.ValidationReport {
	report := domain.ValidationReport{
		FileType: domain.FileTypeCompetition,
		RowCount: len(batch.Rows),
	}
	quality := 1.0

	if len(batch.Rows) == 0 {
		report.Errors = append(report.Errors, "upload contains no data rows")
		return finalize(report, 0)
	}

	var invalidRents, invalidSqft int

	for _, row := range batch.Rows {
		for _, field := range competitionRequiredFields {
			if !row.Has(field) {
				report.RowIssues = append(report.RowIssues, domain.RowIssue{
					RowIndex: row.RowIndex,
					Field:    field,
					Message:  fmt.Sprintf("row %d: missing required field %q", row.RowIndex, field),
				})
				report.Errors = append(report.Errors,
					fmt.Sprintf("row %d: missing required field %q", row.RowIndex, field))
			}
		}

		if row.Has("market_rent") {
			if _, ok := row.Number("market_rent"); !ok {
				invalidRents++
				report.RowIssues = append(report.RowIssues, domain.RowIssue{
					RowIndex: row.RowIndex,
					Field:    "market_rent",
					Message:  fmt.Sprintf("row %d: market_rent is not numeric", row.RowIndex),
				})
			}
		}

		if sqft, ok := row.Number("avg_sq_ft"); ok && (sqft < minSqft || sqft > maxCompetitionSqft) {
			invalidSqft++
			report.RowIssues = append(report.RowIssues, domain.RowIssue{
				RowIndex: row.RowIndex,
				Field:    "avg_sq_ft",
				Message:  fmt.Sprintf("row %d: square footage %.0f outside plausible range", row.RowIndex, sqft),
			})
		}
	}

	if invalidRents > 0 {
		report.Warnings = append(report.Warnings,
			fmt.Sprintf("%d rows have invalid rent values", invalidRents))
		quality *= penaltyMajor
	}
	if invalidSqft > 0 {
		report.Warnings = append(report.Warnings,
			fmt.Sprintf("%d rows have invalid square footage", invalidSqft))
		quality *= penaltyMinor
	}

	completeness := completenessOf(batch.Rows, competitionRequiredFields)
	report.CompletenessScore = completeness
	if completeness < lowCompletenessThreshold {
		report.Warnings = append(report.Warnings,
			fmt.Sprintf("data completeness is only %.1f%%", completeness*100))
	}

	return finalize(report, quality*completeness)
}

// completenessOf is the share of expected fields actually present across all
// rows.
func completenessOf(rows []domain.UploadRecord, fields []string) float64 {
	if len(rows) == 0 || len(fields) == 0 {
		return 0
	}
	present := 0
	for _, row := range rows {
		for _, field := range fields {
			if row.Has(field) {
				present++
			}
		}
	}
	return float64(present) / float64(len(rows)*len(fields))
}

func finalize(report domain.ValidationReport, quality float64) domain.ValidationReport {
	report.IsValid = len(report.Errors) == 0
	if quality < 0 {
		quality = 0
	}
	report.QualityScore = quality
	return report
}

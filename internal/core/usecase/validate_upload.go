package usecase

import (
	"context"

	"pricing-service/internal/contextkeys"
	"pricing-service/internal/core/domain"
	"pricing-service/internal/core/port"
	"pricing-service/internal/core/validation"
)

// ValidateUploadUseCase runs the data-quality checks without persisting
// anything, so clients can pre-flight a file before committing it.
type ValidateUploadUseCase struct {
	validator *validation.Validator
}

func NewValidateUploadUseCase(validator *validation.Validator) *ValidateUploadUseCase {
	return &ValidateUploadUseCase{validator: validator}
}

func (uc *ValidateUploadUseCase) Execute(ctx context.Context, batch domain.UploadBatch) domain.ValidationReport {
	logger := contextkeys.LoggerFromContext(ctx).WithFields(port.Fields{
		"use_case":    "ValidateUpload",
		"upload_id":   batch.UploadID.String(),
		"property_id": batch.PropertyID,
		"file_type":   string(batch.FileType),
	})

	report := uc.validator.Validate(batch)

	logger.Info("Dry-run validation finished", port.Fields{
		"row_count":     report.RowCount,
		"is_valid":      report.IsValid,
		"error_count":   len(report.Errors),
		"warning_count": len(report.Warnings),
		"completeness":  report.CompletenessScore,
	})

	return report
}

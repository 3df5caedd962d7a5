package usecase

import (
	"context"
	"fmt"
	"time"

	"pricing-service/internal/contextkeys"
	"pricing-service/internal/core/domain"
	"pricing-service/internal/core/port"
	"pricing-service/internal/core/validation"
)

// ProcessUploadBatchUseCase is the ingestion path: validate a consumed batch,
// record the attempt, and persist the rows only when the batch is clean.
// Rejected batches keep their metadata so the upload history explains why a
// month's data never landed.
type ProcessUploadBatchUseCase struct {
	validator *validation.Validator
	storage   port.UploadStoragePort
}

func NewProcessUploadBatchUseCase(validator *validation.Validator, storage port.UploadStoragePort) *ProcessUploadBatchUseCase {
	return &ProcessUploadBatchUseCase{validator: validator, storage: storage}
}

func (uc *ProcessUploadBatchUseCase) Execute(ctx context.Context, batch domain.UploadBatch) error {
	logger := contextkeys.LoggerFromContext(ctx).WithFields(port.Fields{
		"use_case":    "ProcessUploadBatch",
		"upload_id":   batch.UploadID.String(),
		"property_id": batch.PropertyID,
		"file_type":   string(batch.FileType),
	})

	report := uc.validator.Validate(batch)

	now := time.Now().UTC()
	status := domain.UploadStatusValidated
	if !report.IsValid {
		status = domain.UploadStatusRejected
	}

	meta := domain.UploadMetadata{
		UploadID:     batch.UploadID,
		PropertyID:   batch.PropertyID,
		FileType:     batch.FileType,
		DataMonth:    batch.DataMonth,
		RowCount:     report.RowCount,
		IsValid:      report.IsValid,
		QualityScore: report.QualityScore,
		Errors:       report.Errors,
		Warnings:     report.Warnings,
		Status:       status,
		CreatedAt:    now,
		UpdatedAt:    now,
	}

	if err := uc.storage.SaveUploadMetadata(ctx, meta); err != nil {
		logger.Error("Failed to save upload metadata", err, nil)
		return fmt.Errorf("could not save metadata for upload %s: %w", batch.UploadID, err)
	}

	if !report.IsValid {
		logger.Warn("Upload batch rejected", port.Fields{
			"row_count":   report.RowCount,
			"error_count": len(report.Errors),
		})
		return nil
	}

	if err := uc.storage.SaveAcceptedBatch(ctx, batch); err != nil {
		logger.Error("Failed to persist accepted batch", err, nil)
		if statusErr := uc.storage.UpdateUploadStatus(ctx, batch.UploadID.String(), domain.UploadStatusFailed); statusErr != nil {
			logger.Error("Failed to mark upload as failed", statusErr, nil)
		}
		return fmt.Errorf("could not persist upload %s: %w", batch.UploadID, err)
	}

	if err := uc.storage.UpdateUploadStatus(ctx, batch.UploadID.String(), domain.UploadStatusCompleted); err != nil {
		logger.Error("Failed to mark upload as completed", err, nil)
		return fmt.Errorf("could not complete upload %s: %w", batch.UploadID, err)
	}

	logger.Info("Upload batch processed", port.Fields{
		"row_count":     report.RowCount,
		"quality_score": report.QualityScore,
		"warning_count": len(report.Warnings),
	})
	return nil
}

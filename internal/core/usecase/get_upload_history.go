package usecase

import (
	"context"
	"fmt"

	"pricing-service/internal/contextkeys"
	"pricing-service/internal/core/domain"
	"pricing-service/internal/core/port"
)

// GetUploadHistoryUseCase lists past upload attempts, newest first.
type GetUploadHistoryUseCase struct {
	storage port.UploadStoragePort
}

func NewGetUploadHistoryUseCase(storage port.UploadStoragePort) *GetUploadHistoryUseCase {
	return &GetUploadHistoryUseCase{storage: storage}
}

func (uc *GetUploadHistoryUseCase) Execute(ctx context.Context, filter domain.UploadHistoryFilter) ([]domain.UploadMetadata, error) {
	logger := contextkeys.LoggerFromContext(ctx).WithFields(port.Fields{
		"use_case": "GetUploadHistory",
	})

	history, err := uc.storage.GetUploadHistory(ctx, filter)
	if err != nil {
		logger.Error("Failed to read upload history", err, nil)
		return nil, fmt.Errorf("could not read upload history: %w", err)
	}
	return history, nil
}

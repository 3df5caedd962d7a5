package port

import (
	"context"

	"pricing-service/internal/core/domain"
)

// UploadStoragePort persists upload batches and their processing metadata.
type UploadStoragePort interface {
	// SaveUploadMetadata records one upload attempt, valid or rejected.
	SaveUploadMetadata(ctx context.Context, meta domain.UploadMetadata) error

	// UpdateUploadStatus moves an upload through its processing lifecycle.
	UpdateUploadStatus(ctx context.Context, uploadID string, status string) error

	// SaveAcceptedBatch stores the rows of a batch that passed validation,
	// replacing the property's previous data for the same month.
	SaveAcceptedBatch(ctx context.Context, batch domain.UploadBatch) error

	// GetUploadHistory lists past uploads, newest first.
	GetUploadHistory(ctx context.Context, filter domain.UploadHistoryFilter) ([]domain.UploadMetadata, error)
}

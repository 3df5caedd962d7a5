package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"

	"pricing-service/internal/core/domain"
)

// SaveUploadMetadata records one upload attempt with its validation outcome.
func (a *PostgresStorageAdapter) SaveUploadMetadata(ctx context.Context, meta domain.UploadMetadata) error {
	query := `INSERT INTO upload_metadata
	              (upload_id, property_id, file_type, data_month, row_count,
	               is_valid, quality_score, errors, warnings, status, created_at, updated_at)
	          VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
	          ON CONFLICT (upload_id) DO UPDATE SET
	              row_count = EXCLUDED.row_count,
	              is_valid = EXCLUDED.is_valid,
	              quality_score = EXCLUDED.quality_score,
	              errors = EXCLUDED.errors,
	              warnings = EXCLUDED.warnings,
	              status = EXCLUDED.status,
	              updated_at = EXCLUDED.updated_at`

	_, err := a.pool.Exec(ctx, query,
		meta.UploadID, meta.PropertyID, string(meta.FileType), meta.DataMonth, meta.RowCount,
		meta.IsValid, meta.QualityScore, meta.Errors, meta.Warnings, meta.Status,
		meta.CreatedAt, meta.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("PostgresStorageAdapter: failed to save upload metadata: %w", err)
	}
	return nil
}

// UpdateUploadStatus moves an upload to the given lifecycle status.
func (a *PostgresStorageAdapter) UpdateUploadStatus(ctx context.Context, uploadID string, status string) error {
	tag, err := a.pool.Exec(ctx,
		`UPDATE upload_metadata SET status = $2, updated_at = $3 WHERE upload_id = $1`,
		uploadID, status, time.Now().UTC(),
	)
	if err != nil {
		return fmt.Errorf("PostgresStorageAdapter: failed to update upload status: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("PostgresStorageAdapter: upload %s not found", uploadID)
	}
	return nil
}

// SaveAcceptedBatch replaces the property's data for the batch month with the
// validated rows, using COPY for the bulk insert.
func (a *PostgresStorageAdapter) SaveAcceptedBatch(ctx context.Context, batch domain.UploadBatch) error {
	tx, err := a.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("PostgresStorageAdapter: failed to begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	switch batch.FileType {
	case domain.FileTypeRentRoll:
		err = a.saveRentRollRows(ctx, tx, batch)
	case domain.FileTypeCompetition:
		err = a.saveCompetitionRows(ctx, tx, batch)
	default:
		return fmt.Errorf("PostgresStorageAdapter: unknown file type %q", batch.FileType)
	}
	if err != nil {
		return err
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("PostgresStorageAdapter: failed to commit batch: %w", err)
	}
	return nil
}

func (a *PostgresStorageAdapter) saveRentRollRows(ctx context.Context, tx pgx.Tx, batch domain.UploadBatch) error {
	_, err := tx.Exec(ctx,
		`DELETE FROM rent_roll_units WHERE property_id = $1 AND data_month = $2`,
		batch.PropertyID, batch.DataMonth,
	)
	if err != nil {
		return fmt.Errorf("PostgresStorageAdapter: failed to clear previous rent roll rows: %w", err)
	}

	now := time.Now().UTC()
	rows := make([][]interface{}, 0, len(batch.Rows))
	for _, rec := range batch.Rows {
		unit, _ := rec.String("unit")
		bedrooms, _ := rec.Number("bedroom")
		bathrooms, _ := rec.Number("bathrooms")
		sqft, _ := rec.Number("sqft")
		rent, _ := rec.Number("advertised_rent")
		status, _ := rec.String("status")

		var marketRent *float64
		if v, ok := rec.Number("market_rent"); ok {
			marketRent = &v
		}
		var tenant *string
		if v, ok := rec.String("tenant"); ok {
			tenant = &v
		}
		var leaseTo *string
		if v, ok := rec.String("lease_to"); ok {
			leaseTo = &v
		}

		rows = append(rows, []interface{}{
			unitID(batch.PropertyID, unit), batch.PropertyID, unit, batch.UploadID, batch.DataMonth,
			int(bedrooms), bathrooms, sqft, rent, marketRent,
			string(normalizeStatus(status)), tenant, leaseTo, now,
		})
	}

	_, err = tx.CopyFrom(ctx,
		pgx.Identifier{"rent_roll_units"},
		[]string{
			"unit_id", "property_id", "unit_name", "upload_id", "data_month",
			"bedrooms", "bathrooms", "sqft", "advertised_rent", "market_rent",
			"status", "tenant", "lease_to", "created_at",
		},
		pgx.CopyFromRows(rows),
	)
	if err != nil {
		return fmt.Errorf("PostgresStorageAdapter: failed to copy rent roll rows: %w", err)
	}
	return nil
}

func (a *PostgresStorageAdapter) saveCompetitionRows(ctx context.Context, tx pgx.Tx, batch domain.UploadBatch) error {
	_, err := tx.Exec(ctx,
		`DELETE FROM competition_listings WHERE property_id = $1 AND data_month = $2`,
		batch.PropertyID, batch.DataMonth,
	)
	if err != nil {
		return fmt.Errorf("PostgresStorageAdapter: failed to clear previous competition rows: %w", err)
	}

	now := time.Now().UTC()
	rows := make([][]interface{}, 0, len(batch.Rows))
	for _, rec := range batch.Rows {
		name, _ := rec.String("reporting_property_name")
		bedrooms, _ := rec.Number("bedrooms")
		bathrooms, hasBaths := rec.Number("bathrooms")
		if !hasBaths {
			bathrooms = 1
		}
		sqft, _ := rec.Number("avg_sq_ft")
		rent, _ := rec.Number("market_rent")

		isAvailable := true
		if v, ok := rec.String("availability"); ok {
			isAvailable = v != "unavailable"
		}

		rows = append(rows, []interface{}{
			batch.PropertyID, batch.UploadID, batch.DataMonth, name,
			int(bedrooms), bathrooms, sqft, rent, isAvailable, now,
		})
	}

	_, err = tx.CopyFrom(ctx,
		pgx.Identifier{"competition_listings"},
		[]string{
			"property_id", "upload_id", "data_month", "reporting_property_name",
			"bedrooms", "bathrooms", "avg_sq_ft", "market_rent", "is_available", "created_at",
		},
		pgx.CopyFromRows(rows),
	)
	if err != nil {
		return fmt.Errorf("PostgresStorageAdapter: failed to copy competition rows: %w", err)
	}
	return nil
}

// GetUploadHistory lists past uploads for a property, newest first.
func (a *PostgresStorageAdapter) GetUploadHistory(ctx context.Context, filter domain.UploadHistoryFilter) ([]domain.UploadMetadata, error) {
	query := `SELECT upload_id, property_id, file_type, data_month, row_count,
	                 is_valid, quality_score, errors, warnings, status, created_at, updated_at
	          FROM upload_metadata
	          WHERE ($1 = '' OR property_id = $1)
	            AND ($2 = '' OR file_type = $2)
	          ORDER BY created_at DESC
	          LIMIT $3`

	fileType := ""
	if filter.FileType != nil {
		fileType = string(*filter.FileType)
	}
	limit := filter.Limit
	if limit <= 0 {
		limit = 50
	}

	rows, err := a.pool.Query(ctx, query, filter.PropertyID, fileType, limit)
	if err != nil {
		return nil, fmt.Errorf("PostgresStorageAdapter: failed to query upload history: %w", err)
	}
	defer rows.Close()

	var history []domain.UploadMetadata
	for rows.Next() {
		var m domain.UploadMetadata
		var ft string
		if err := rows.Scan(&m.UploadID, &m.PropertyID, &ft, &m.DataMonth, &m.RowCount,
			&m.IsValid, &m.QualityScore, &m.Errors, &m.Warnings, &m.Status,
			&m.CreatedAt, &m.UpdatedAt); err != nil {
			return nil, fmt.Errorf("PostgresStorageAdapter: failed to scan upload metadata: %w", err)
		}
		m.FileType = domain.FileType(ft)
		history = append(history, m)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("PostgresStorageAdapter: error during history rows iteration: %w", err)
	}

	return history, nil
}

// unitID is the canonical unit identity: property scoped, stable across
// months.
func unitID(propertyID, unit string) string {
	return fmt.Sprintf("%s_%s", propertyID, unit)
}

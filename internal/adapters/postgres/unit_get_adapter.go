package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	"pricing-service/internal/core/domain"
)

// GetUnit loads one unit from the latest rent roll month it appears in.
func (a *PostgresStorageAdapter) GetUnit(ctx context.Context, unitID string) (*domain.Unit, error) {
	query := `SELECT unit_id, property_id, bedrooms, bathrooms, sqft, advertised_rent,
	                 market_rent, status, days_to_lease_end
	          FROM rent_roll_units
	          WHERE unit_id = $1
	          ORDER BY data_month DESC
	          LIMIT 1`

	var u domain.Unit
	var status string
	err := a.pool.QueryRow(ctx, query, unitID).Scan(
		&u.ID, &u.Property, &u.Bedrooms, &u.Bathrooms, &u.Sqft, &u.AdvertisedRent,
		&u.MarketRent, &status, &u.DaysToLeaseEnd,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrUnitNotFound
		}
		return nil, fmt.Errorf("PostgresStorageAdapter: failed to query unit %s: %w", unitID, err)
	}
	u.Status = normalizeStatus(status)

	return &u, nil
}

// GetCandidatePool returns the comparable candidates for a unit: available
// competition listings for the unit's property market plus the unit's sibling
// units from the same rent roll month.
func (a *PostgresStorageAdapter) GetCandidatePool(ctx context.Context, unit domain.Unit) ([]domain.ComparableCandidate, error) {
	var pool []domain.ComparableCandidate

	compQuery := `SELECT id, reporting_property_name, bedrooms, bathrooms, avg_sq_ft, market_rent, is_available
	              FROM competition_listings
	              WHERE property_id = $1
	                AND data_month = (SELECT MAX(data_month) FROM competition_listings WHERE property_id = $1)`

	rows, err := a.pool.Query(ctx, compQuery, unit.Property)
	if err != nil {
		return nil, fmt.Errorf("PostgresStorageAdapter: failed to query competition listings: %w", err)
	}
	for rows.Next() {
		var c domain.ComparableCandidate
		if err := rows.Scan(&c.ID, &c.Property, &c.Bedrooms, &c.Bathrooms, &c.Sqft, &c.Price, &c.IsAvailable); err != nil {
			rows.Close()
			return nil, fmt.Errorf("PostgresStorageAdapter: failed to scan competition listing: %w", err)
		}
		pool = append(pool, c)
	}
	if err = rows.Err(); err != nil {
		rows.Close()
		return nil, fmt.Errorf("PostgresStorageAdapter: error during competition rows iteration: %w", err)
	}
	rows.Close()

	peerQuery := `SELECT unit_id, property_id, bedrooms, bathrooms, sqft, advertised_rent, status
	              FROM rent_roll_units
	              WHERE property_id = $1
	                AND unit_id <> $2
	                AND data_month = (SELECT MAX(data_month) FROM rent_roll_units WHERE property_id = $1)`

	rows, err = a.pool.Query(ctx, peerQuery, unit.Property, unit.ID)
	if err != nil {
		return nil, fmt.Errorf("PostgresStorageAdapter: failed to query sibling units: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var c domain.ComparableCandidate
		var status string
		if err := rows.Scan(&c.ID, &c.Property, &c.Bedrooms, &c.Bathrooms, &c.Sqft, &c.Price, &status); err != nil {
			return nil, fmt.Errorf("PostgresStorageAdapter: failed to scan sibling unit: %w", err)
		}
		c.IsAvailable = normalizeStatus(status) == domain.StatusVacant
		pool = append(pool, c)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("PostgresStorageAdapter: error during sibling rows iteration: %w", err)
	}

	return pool, nil
}

// SnapshotVersion identifies the newest completed upload generation for a
// property. Returns "" when the property has no completed uploads yet.
func (a *PostgresStorageAdapter) SnapshotVersion(ctx context.Context, propertyID string) (string, error) {
	query := `SELECT upload_id::text
	          FROM upload_metadata
	          WHERE property_id = $1 AND status = 'completed'
	          ORDER BY updated_at DESC
	          LIMIT 1`

	var version string
	err := a.pool.QueryRow(ctx, query, propertyID).Scan(&version)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return "", nil
		}
		return "", fmt.Errorf("PostgresStorageAdapter: failed to query snapshot version: %w", err)
	}
	return version, nil
}

func normalizeStatus(s string) domain.OccupancyStatus {
	switch domain.OccupancyStatus(s) {
	case domain.StatusOccupied, domain.StatusVacant, domain.StatusNotice:
		return domain.OccupancyStatus(s)
	default:
		return domain.StatusUnknown
	}
}

package domain

import (
	"errors"
	"fmt"
)

// ErrUnitNotFound is returned by storage adapters when a unit id does not exist
// in the latest accepted rent roll snapshot.
var ErrUnitNotFound = errors.New("unit not found")

// OccupancyStatus is the normalized occupancy state of a rent roll unit.
type OccupancyStatus string

const (
	StatusOccupied OccupancyStatus = "OCCUPIED"
	StatusVacant   OccupancyStatus = "VACANT"
	StatusNotice   OccupancyStatus = "NOTICE"
	StatusUnknown  OccupancyStatus = "UNKNOWN"
)

// Unit is a single rentable unit as read from the warehouse. It is immutable
// within one optimization request.
type Unit struct {
	ID             string
	Property       string
	Bedrooms       int
	Bathrooms      float64
	Sqft           float64
	AdvertisedRent float64
	MarketRent     *float64
	Status         OccupancyStatus
	DaysToLeaseEnd *int
}

// RentPerSqft returns the advertised rent per square foot, or 0 when it is
// undefined (zero sqft or zero rent).
func (u Unit) RentPerSqft() float64 {
	if u.Sqft <= 0 || u.AdvertisedRent <= 0 {
		return 0
	}
	return u.AdvertisedRent / u.Sqft
}

// Validate checks the structural invariants a unit must satisfy before it can
// be priced.
func (u Unit) Validate() error {
	if u.ID == "" {
		return fmt.Errorf("unit id is required")
	}
	if u.Sqft <= 0 {
		return fmt.Errorf("unit %s: square footage must be positive, got %.0f", u.ID, u.Sqft)
	}
	if u.AdvertisedRent <= 0 {
		return fmt.Errorf("unit %s: advertised rent must be positive, got %.2f", u.ID, u.AdvertisedRent)
	}
	return nil
}

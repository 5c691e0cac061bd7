package ports

import (
	"context"
	"errors"

	"delivery-route-optimizer/internal/domain"
)

// ErrAddressNotFound is returned by a Geocoder that has no match for an address.
var ErrAddressNotFound = errors.New("address not found")

// Geocoder resolves free-text addresses to coordinates.
type Geocoder interface {
	Geocode(ctx context.Context, address string) (domain.Coordinates, error)
}

// GeocodeCache is a shared address -> coordinates store. Implementations must
// be safe for concurrent use.
type GeocodeCache interface {
	// Return cached coordinates for the addresses that have an entry.
	GetMany(ctx context.Context, addresses []string) (map[string]domain.Coordinates, error)
	// Store address -> coordinate mappings.
	PutMany(ctx context.Context, results map[string]domain.Coordinates) error
}

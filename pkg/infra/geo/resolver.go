package geo

import "context"

// Location carries best-effort geo hints for a caller address. Any field
// may be absent.
type Location struct {
	Country   *string
	City      *string
	Latitude  *float64
	Longitude *float64
}

// Resolver looks up geo hints for a caller identifier. Lookups are
// best-effort; a failed or empty resolution returns a zero Location, not
// an error the engine would act on.
type Resolver interface {
	Resolve(ctx context.Context, ip string) Location
	Close() error
}

type noopResolver struct{}

// NewNoopResolver backs deployments without a geo database.
func NewNoopResolver() Resolver {
	return noopResolver{}
}

func (noopResolver) Resolve(_ context.Context, _ string) Location {
	return Location{}
}

func (noopResolver) Close() error {
	return nil
}

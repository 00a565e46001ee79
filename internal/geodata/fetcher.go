package geodata

import (
	"context"

	"github.com/i474232898/geo-dashboard/internal/geo"
)

// Fetcher calls one remote endpoint for a coordinate. Errors are always
// *FetchError; nothing is thrown past this boundary.
type Fetcher interface {
	Name() string
	Category() Category
	Fetch(ctx context.Context, loc geo.Location) (Reading, error)
}

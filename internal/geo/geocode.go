package geo

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"github.com/kelvins/geocoder"
)

// Resolver turns a free-text place name into a location.
type Resolver interface {
	Resolve(ctx context.Context, name string) (Location, error)
}

// geocoderMu guards the geocoder package's global API key.
var geocoderMu sync.Mutex

// Geocoder resolves place names through the Google Geocoding API.
type Geocoder struct {
	apiKey string
	lookup func(geocoder.Address) (geocoder.Location, error)
}

// NewGeocoder returns a Geocoder, or nil when apiKey is empty.
func NewGeocoder(apiKey string) *Geocoder {
	if apiKey == "" {
		return nil
	}
	return &Geocoder{apiKey: apiKey, lookup: geocoder.Geocoding}
}

// Resolve geocodes name as a city. The returned location keeps the caller's name.
func (g *Geocoder) Resolve(ctx context.Context, name string) (Location, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return Location{}, ErrUnknownLocation
	}

	type result struct {
		loc geocoder.Location
		err error
	}
	done := make(chan result, 1)

	go func() {
		geocoderMu.Lock()
		defer geocoderMu.Unlock()
		geocoder.ApiKey = g.apiKey
		loc, err := g.lookup(geocoder.Address{City: name})
		done <- result{loc: loc, err: err}
	}()

	select {
	case <-ctx.Done():
		return Location{}, ctx.Err()
	case r := <-done:
		if r.err != nil {
			return Location{}, fmt.Errorf("%w: %s: %v", ErrUnknownLocation, name, r.err)
		}
		return NewLocation(name, r.loc.Latitude, r.loc.Longitude)
	}
}

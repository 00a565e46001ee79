package providers

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"github.com/i474232898/geo-dashboard/internal/geo"
	"github.com/i474232898/geo-dashboard/internal/geodata"
)

const (
	SourceGoogle = "google"
	SourceWAQI   = "waqi"
)

// AirQualityRouter forwards air-quality fetches to the currently chosen
// source. Each view owns one router; the fetchers behind it are shared.
type AirQualityRouter struct {
	mu      sync.RWMutex
	sources map[string]geodata.Fetcher
	active  string
}

// NewAirQualityRouter builds a router over sources, starting on active.
func NewAirQualityRouter(sources map[string]geodata.Fetcher, active string) (*AirQualityRouter, error) {
	r := &AirQualityRouter{sources: make(map[string]geodata.Fetcher, len(sources))}
	for name, f := range sources {
		r.sources[name] = f
	}
	if err := r.SetSource(active); err != nil {
		return nil, err
	}
	return r, nil
}

// SetSource switches the active source.
func (r *AirQualityRouter) SetSource(name string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.sources[name]; !ok {
		return fmt.Errorf("unknown air quality source %q", name)
	}
	r.active = name
	return nil
}

// Source returns the active source name.
func (r *AirQualityRouter) Source() string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.active
}

// Sources lists the configured source names.
func (r *AirQualityRouter) Sources() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	names := make([]string, 0, len(r.sources))
	for name := range r.sources {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

func (r *AirQualityRouter) current() geodata.Fetcher {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.sources[r.active]
}

func (r *AirQualityRouter) Name() string { return r.current().Name() }

func (r *AirQualityRouter) Category() geodata.Category { return geodata.CategoryAirQuality }

func (r *AirQualityRouter) Fetch(ctx context.Context, loc geo.Location) (geodata.Reading, error) {
	return r.current().Fetch(ctx, loc)
}

package dashboard

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/i474232898/geo-dashboard/internal/geo"
	"github.com/i474232898/geo-dashboard/internal/geodata"
	"github.com/i474232898/geo-dashboard/internal/geodata/providers"
	"github.com/i474232898/geo-dashboard/internal/mapsurface"
	"github.com/i474232898/geo-dashboard/internal/present"
	"github.com/i474232898/geo-dashboard/internal/selection"
	"github.com/i474232898/geo-dashboard/internal/store"
)

var ErrInvalidSource = errors.New("invalid air quality source")

// Fetchers are shared by every view. AirQuality is keyed by source name.
type Fetchers struct {
	AirQuality map[string]geodata.Fetcher
	Weather    geodata.Fetcher
	Soil       geodata.Fetcher
}

type Settings struct {
	DefaultLocation string
	DefaultSource   string
	Zoom            int
	AutoOpenPopup   bool
	FetchTimeout    time.Duration
}

// Manager creates views and keeps them in a store with idle expiry.
type Manager struct {
	registry *geo.Registry
	resolver geo.Resolver
	surface  *mapsurface.Surface
	fetchers Fetchers
	settings Settings
	views    *store.MemoryStore[*View]
	logger   *zap.Logger
}

// NewManager wires a manager. resolver may be nil.
func NewManager(
	registry *geo.Registry,
	resolver geo.Resolver,
	surface *mapsurface.Surface,
	fetchers Fetchers,
	settings Settings,
	views *store.MemoryStore[*View],
	logger *zap.Logger,
) *Manager {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Manager{
		registry: registry,
		resolver: resolver,
		surface:  surface,
		fetchers: fetchers,
		settings: settings,
		views:    views,
		logger:   logger,
	}
}

// Registry exposes the location registry for search.
func (m *Manager) Registry() *geo.Registry { return m.registry }

// Create opens a view centered on the default location and selects it.
// When the map widget cannot load, mapsurface.ErrWidgetUnavailable is
// returned and no view is kept.
func (m *Manager) Create(ctx context.Context, source string) (*View, error) {
	if source == "" {
		source = m.settings.DefaultSource
	}
	router, err := providers.NewAirQualityRouter(m.fetchers.AirQuality, source)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidSource, err)
	}

	center := m.registry.Default(m.settings.DefaultLocation)
	handle, err := m.surface.Initialize(ctx, center, m.settings.Zoom)
	if err != nil {
		m.logger.Warn("map widget unavailable", zap.Error(err))
		return nil, err
	}

	id := uuid.NewString()
	logger := m.logger.With(zap.String("view", id))

	binder := present.NewBinder(m.surface, handle, m.settings.AutoOpenPopup, logger)

	fetchers := []geodata.Fetcher{router}
	if m.fetchers.Weather != nil {
		fetchers = append(fetchers, m.fetchers.Weather)
	}
	if m.fetchers.Soil != nil {
		fetchers = append(fetchers, m.fetchers.Soil)
	}

	controller := selection.New(fetchers, binder,
		selection.WithTimeout(m.settings.FetchTimeout),
		selection.WithLogger(logger),
		selection.WithLocations(m.registry, m.resolver),
		selection.WithRecenter(func(loc geo.Location) error {
			return m.surface.Recenter(handle, loc)
		}),
	)

	v := &View{
		ID:         id,
		CreatedAt:  time.Now().UTC(),
		zoom:       m.settings.Zoom,
		surface:    m.surface,
		handle:     handle,
		router:     router,
		controller: controller,
		binder:     binder,
	}

	for _, old := range m.views.Save(id, v) {
		m.release(old, "evicted")
	}

	if err := controller.Select(center); err != nil {
		logger.Warn("initial selection failed", zap.Error(err))
	}

	logger.Info("view created", zap.String("source", router.Source()), zap.String("center", center.Label()))
	return v, nil
}

func (m *Manager) Get(id string) (*View, error) {
	return m.views.Get(id)
}

// Delete tears the view down.
func (m *Manager) Delete(id string) error {
	v, err := m.views.Delete(id)
	if err != nil {
		return err
	}
	m.release(v, "deleted")
	return nil
}

// RefreshAll re-fetches the current selection of every live view.
func (m *Manager) RefreshAll() int {
	var n int
	for _, v := range m.views.All() {
		if err := v.Refresh(); err != nil {
			m.logger.Warn("refresh failed", zap.String("view", v.ID), zap.Error(err))
			continue
		}
		n++
	}
	return n
}

// Prune tears down views that have been idle past the store's max age.
func (m *Manager) Prune() int {
	pruned := m.views.Prune()
	for _, v := range pruned {
		m.release(v, "expired")
	}
	return len(pruned)
}

// Close tears down every view.
func (m *Manager) Close() {
	for _, v := range m.views.All() {
		if _, err := m.views.Delete(v.ID); err == nil {
			m.release(v, "shutdown")
		}
	}
}

func (m *Manager) release(v *View, reason string) {
	if err := v.close(); err != nil {
		m.logger.Warn("view teardown failed", zap.String("view", v.ID), zap.Error(err))
		return
	}
	m.logger.Info("view released", zap.String("view", v.ID), zap.String("reason", reason))
}

package mapsurface

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/google/uuid"
	"github.com/paulmach/orb/geojson"
	"go.uber.org/zap"

	"github.com/i474232898/geo-dashboard/internal/geo"
	"github.com/i474232898/geo-dashboard/internal/geodata"
)

// CircleRadiusMeters is the fixed radius of the overlay circle.
const CircleRadiusMeters = 10_000

var (
	// ErrWidgetUnavailable means the rendering widget could not be loaded.
	// Callers show a placeholder and may retry Initialize.
	ErrWidgetUnavailable = errors.New("map widget unavailable")
	ErrUnknownHandle     = errors.New("unknown surface handle")
)

// Handle identifies one initialized surface.
type Handle string

// StyleFunc picks the overlay color for a reading.
type StyleFunc func(geodata.Reading) string

// OverlayRequest describes the overlay set to draw for a location.
type OverlayRequest struct {
	Location geo.Location
	Reading  geodata.Reading
	Style    StyleFunc
	// Popup is HTML-safe content for the info popup.
	Popup    string
	AutoOpen bool
}

type surfaceState struct {
	mapID   string
	center  geo.Location
	zoom    int
	overlay *OverlaySet
}

// Surface adapts a Widget into handle-based operations and guarantees that
// at most one overlay set is attached per handle.
type Surface struct {
	widget Widget
	logger *zap.Logger

	mu       sync.Mutex
	surfaces map[Handle]*surfaceState
}

func New(widget Widget, logger *zap.Logger) *Surface {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Surface{
		widget:   widget,
		logger:   logger,
		surfaces: make(map[Handle]*surfaceState),
	}
}

// Initialize loads the widget and creates a map centered on center.
func (s *Surface) Initialize(ctx context.Context, center geo.Location, zoom int) (Handle, error) {
	if err := s.widget.Load(ctx); err != nil {
		return "", fmt.Errorf("%w: %w", ErrWidgetUnavailable, err)
	}

	mapID, err := s.widget.NewMap(center.Point(), zoom)
	if err != nil {
		return "", fmt.Errorf("%w: %w", ErrWidgetUnavailable, err)
	}

	h := Handle(uuid.NewString())

	s.mu.Lock()
	s.surfaces[h] = &surfaceState{mapID: mapID, center: center, zoom: zoom}
	s.mu.Unlock()

	s.logger.Debug("surface initialized", zap.String("handle", string(h)), zap.String("center", center.Label()))
	return h, nil
}

func (s *Surface) lookup(h Handle) (*surfaceState, error) {
	st, ok := s.surfaces[h]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownHandle, h)
	}
	return st, nil
}

// Recenter pans the map to loc.
func (s *Surface) Recenter(h Handle, loc geo.Location) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	st, err := s.lookup(h)
	if err != nil {
		return err
	}
	if err := s.widget.Pan(st.mapID, loc.Point()); err != nil {
		return err
	}
	st.center = loc
	return nil
}

// SetOverlay replaces whatever overlay set is attached to h with a marker
// and a fixed-radius circle at req.Location.
func (s *Surface) SetOverlay(h Handle, req OverlayRequest) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	st, err := s.lookup(h)
	if err != nil {
		return err
	}

	if st.overlay != nil {
		if err := s.widget.Detach(st.mapID, *st.overlay); err != nil {
			return fmt.Errorf("detach overlay: %w", err)
		}
		st.overlay = nil
	}

	color := ""
	if req.Style != nil {
		color = req.Style(req.Reading)
	}

	set := OverlaySet{
		Marker: Marker{
			ID:       uuid.NewString(),
			Position: req.Location.Point(),
			Title:    req.Location.Label(),
		},
		Circle: Circle{
			ID:           uuid.NewString(),
			Center:       req.Location.Point(),
			RadiusMeters: CircleRadiusMeters,
			Color:        color,
		},
		Popup: Popup{
			Content: req.Popup,
			Open:    req.AutoOpen,
		},
	}

	if err := s.widget.Attach(st.mapID, set); err != nil {
		return fmt.Errorf("attach overlay: %w", err)
	}
	st.overlay = &set
	return nil
}

// Overlay returns the attached overlay set, if any.
func (s *Surface) Overlay(h Handle) (OverlaySet, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	st, err := s.lookup(h)
	if err != nil {
		return OverlaySet{}, false, err
	}
	if st.overlay == nil {
		return OverlaySet{}, false, nil
	}
	return *st.overlay, true, nil
}

// Center returns the current map center.
func (s *Surface) Center(h Handle) (geo.Location, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	st, err := s.lookup(h)
	if err != nil {
		return geo.Location{}, err
	}
	return st.center, nil
}

// Teardown detaches the overlay set and destroys the widget instance.
func (s *Surface) Teardown(h Handle) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	st, err := s.lookup(h)
	if err != nil {
		return err
	}
	delete(s.surfaces, h)

	if st.overlay != nil {
		if err := s.widget.Detach(st.mapID, *st.overlay); err != nil {
			s.logger.Warn("detach on teardown failed", zap.String("handle", string(h)), zap.Error(err))
		}
	}
	return s.widget.Destroy(st.mapID)
}

// GeoJSON exports the attached overlay set as a feature collection: the
// marker and the circle center as Point features.
func (s *Surface) GeoJSON(h Handle) (*geojson.FeatureCollection, error) {
	set, ok, err := s.Overlay(h)
	if err != nil {
		return nil, err
	}

	fc := geojson.NewFeatureCollection()
	if !ok {
		return fc, nil
	}

	marker := geojson.NewFeature(set.Marker.Position)
	marker.ID = set.Marker.ID
	marker.Properties["kind"] = "marker"
	marker.Properties["title"] = set.Marker.Title
	marker.Properties["popup"] = set.Popup.Content
	marker.Properties["popupOpen"] = set.Popup.Open
	fc.Append(marker)

	circle := geojson.NewFeature(set.Circle.Center)
	circle.ID = set.Circle.ID
	circle.Properties["kind"] = "circle"
	circle.Properties["radius"] = set.Circle.RadiusMeters
	circle.Properties["color"] = set.Circle.Color
	fc.Append(circle)

	return fc, nil
}

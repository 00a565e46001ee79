package dashboard

import (
	"context"
	"fmt"
	"time"

	"github.com/paulmach/orb/geojson"

	"github.com/i474232898/geo-dashboard/internal/geo"
	"github.com/i474232898/geo-dashboard/internal/geodata/providers"
	"github.com/i474232898/geo-dashboard/internal/mapsurface"
	"github.com/i474232898/geo-dashboard/internal/present"
	"github.com/i474232898/geo-dashboard/internal/selection"
)

// View is one page view of the map dashboard: a surface handle, the
// selection controller driving it and the binder that displays results.
type View struct {
	ID        string
	CreatedAt time.Time

	zoom       int
	surface    *mapsurface.Surface
	handle     mapsurface.Handle
	router     *providers.AirQualityRouter
	controller *selection.Controller
	binder     *present.Binder
}

// MapState describes the rendering surface of a view.
type MapState struct {
	Handle mapsurface.Handle      `json:"handle"`
	Center geo.Location           `json:"center"`
	Zoom   int                    `json:"zoom"`
	Shapes *mapsurface.OverlaySet `json:"overlay,omitempty"`
}

// ViewState is the externally visible state of a view.
type ViewState struct {
	ID        string             `json:"id"`
	CreatedAt time.Time          `json:"createdAt"`
	Source    string             `json:"source"`
	Sources   []string           `json:"sources"`
	Selection selection.Snapshot `json:"selection"`
	Panels    []present.Panel    `json:"panels"`
	Map       MapState           `json:"map"`
}

func (v *View) State() ViewState {
	st := ViewState{
		ID:        v.ID,
		CreatedAt: v.CreatedAt,
		Source:    v.router.Source(),
		Sources:   v.router.Sources(),
		Selection: v.controller.Snapshot(),
		Panels:    v.binder.Panels(),
		Map:       MapState{Handle: v.handle, Zoom: v.zoom},
	}
	if center, err := v.surface.Center(v.handle); err == nil {
		st.Map.Center = center
	}
	if set, ok, err := v.surface.Overlay(v.handle); err == nil && ok {
		st.Map.Shapes = &set
	}
	return st
}

func (v *View) SelectByName(ctx context.Context, name string) error {
	return v.controller.SelectByName(ctx, name)
}

func (v *View) SelectCoordinates(lat, lon float64) error {
	loc, err := geo.NewLocation("", lat, lon)
	if err != nil {
		return err
	}
	return v.controller.Select(loc)
}

func (v *View) Geolocate(ctx context.Context, g selection.Geolocator) error {
	return v.controller.LocateDevice(ctx, g)
}

// SetSource switches the air quality source and re-fetches the current selection.
func (v *View) SetSource(source string) error {
	if err := v.router.SetSource(source); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidSource, err)
	}
	return v.controller.Refresh()
}

func (v *View) Refresh() error {
	return v.controller.Refresh()
}

func (v *View) WaitIdle(ctx context.Context) error {
	return v.controller.WaitIdle(ctx)
}

func (v *View) Subscribe(ctx context.Context) <-chan selection.Event {
	return v.controller.Subscribe(ctx)
}

// Overlay exports the attached overlay set as GeoJSON.
func (v *View) Overlay() (*geojson.FeatureCollection, error) {
	return v.surface.GeoJSON(v.handle)
}

func (v *View) close() error {
	v.controller.Close()
	return v.surface.Teardown(v.handle)
}

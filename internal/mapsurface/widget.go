package mapsurface

import (
	"context"
	"fmt"
	"sync"

	"github.com/google/uuid"
	"github.com/paulmach/orb"
)

type Marker struct {
	ID       string    `json:"id"`
	Position orb.Point `json:"position"`
	Title    string    `json:"title"`
}

type Circle struct {
	ID           string    `json:"id"`
	Center       orb.Point `json:"center"`
	RadiusMeters float64   `json:"radiusMeters"`
	Color        string    `json:"color"`
}

type Popup struct {
	Content string `json:"content"`
	Open    bool   `json:"open"`
}

// OverlaySet is what is drawn for the current location.
type OverlaySet struct {
	Marker Marker `json:"marker"`
	Circle Circle `json:"circle"`
	Popup  Popup  `json:"popup"`
}

// Widget is the rendering surface primitives the adapter drives.
type Widget interface {
	Load(ctx context.Context) error
	NewMap(center orb.Point, zoom int) (string, error)
	Pan(mapID string, center orb.Point) error
	Attach(mapID string, set OverlaySet) error
	Detach(mapID string, set OverlaySet) error
	Destroy(mapID string) error
}

type canvasMap struct {
	center  orb.Point
	zoom    int
	markers map[string]Marker
	circles map[string]Circle
	popups  map[string]Popup
}

// Canvas is an in-memory Widget. The browser widget mirrors it through the
// overlay endpoint.
type Canvas struct {
	mu      sync.Mutex
	loadErr error
	maps    map[string]*canvasMap
}

type CanvasOption func(*Canvas)

// WithLoadError makes Load fail, as when the widget script cannot be fetched.
func WithLoadError(err error) CanvasOption {
	return func(c *Canvas) { c.loadErr = err }
}

func NewCanvas(opts ...CanvasOption) *Canvas {
	c := &Canvas{maps: make(map[string]*canvasMap)}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

func (c *Canvas) Load(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	return c.loadErr
}

func (c *Canvas) NewMap(center orb.Point, zoom int) (string, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	id := uuid.NewString()
	c.maps[id] = &canvasMap{
		center:  center,
		zoom:    zoom,
		markers: make(map[string]Marker),
		circles: make(map[string]Circle),
		popups:  make(map[string]Popup),
	}
	return id, nil
}

func (c *Canvas) get(mapID string) (*canvasMap, error) {
	m, ok := c.maps[mapID]
	if !ok {
		return nil, fmt.Errorf("canvas: no map %q", mapID)
	}
	return m, nil
}

func (c *Canvas) Pan(mapID string, center orb.Point) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	m, err := c.get(mapID)
	if err != nil {
		return err
	}
	m.center = center
	return nil
}

func (c *Canvas) Attach(mapID string, set OverlaySet) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	m, err := c.get(mapID)
	if err != nil {
		return err
	}
	m.markers[set.Marker.ID] = set.Marker
	m.circles[set.Circle.ID] = set.Circle
	m.popups[set.Marker.ID] = set.Popup
	return nil
}

func (c *Canvas) Detach(mapID string, set OverlaySet) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	m, err := c.get(mapID)
	if err != nil {
		return err
	}
	delete(m.markers, set.Marker.ID)
	delete(m.circles, set.Circle.ID)
	delete(m.popups, set.Marker.ID)
	return nil
}

func (c *Canvas) Destroy(mapID string) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if _, err := c.get(mapID); err != nil {
		return err
	}
	delete(c.maps, mapID)
	return nil
}

// Counts reports how many markers and circles are attached to a map.
func (c *Canvas) Counts(mapID string) (markers, circles int) {
	c.mu.Lock()
	defer c.mu.Unlock()

	m, ok := c.maps[mapID]
	if !ok {
		return 0, 0
	}
	return len(m.markers), len(m.circles)
}

// Maps returns the number of live map instances.
func (c *Canvas) Maps() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.maps)
}

// Center returns a map's center point.
func (c *Canvas) Center(mapID string) (orb.Point, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	m, ok := c.maps[mapID]
	if !ok {
		return orb.Point{}, false
	}
	return m.center, true
}

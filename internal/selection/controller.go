package selection

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/i474232898/geo-dashboard/internal/geo"
	"github.com/i474232898/geo-dashboard/internal/geodata"
)

// ErrClosed is returned by Select after Close.
var ErrClosed = errors.New("controller closed")

// DefaultFetchTimeout bounds every fetch when no timeout is configured.
const DefaultFetchTimeout = 10 * time.Second

type State string

const (
	StateIdle    State = "idle"
	StateLoading State = "loading"
)

// Sink receives the outcome of every fetch that belongs to the current
// selection. Calls are serialized.
type Sink interface {
	Begin(loc geo.Location)
	Apply(loc geo.Location, r geodata.Reading)
	Fail(loc geo.Location, cat geodata.Category, err error)
}

// Snapshot is a point-in-time copy of the controller state.
type Snapshot struct {
	State            State         `json:"state"`
	Location         *geo.Location `json:"location,omitempty"`
	Generation       uint64        `json:"generation"`
	Pending          int           `json:"pending"`
	GeolocationError string        `json:"geolocationError,omitempty"`
	SelectedAt       time.Time     `json:"selectedAt,omitempty"`
}

type Option func(*Controller)

func WithTimeout(d time.Duration) Option {
	return func(c *Controller) {
		if d > 0 {
			c.timeout = d
		}
	}
}

func WithLogger(l *zap.Logger) Option {
	return func(c *Controller) {
		if l != nil {
			c.logger = l
		}
	}
}

// WithRecenter is called with every new location before fetches start.
func WithRecenter(fn func(geo.Location) error) Option {
	return func(c *Controller) { c.recenter = fn }
}

// WithLocations enables SelectByName. resolver may be nil.
func WithLocations(reg *geo.Registry, resolver geo.Resolver) Option {
	return func(c *Controller) {
		c.registry = reg
		c.resolver = resolver
	}
}

// Controller owns the current location. Every location change starts a new
// generation and fans out to all fetchers; a result is applied only while
// its generation is still current.
type Controller struct {
	fetchers []geodata.Fetcher
	sink     Sink
	timeout  time.Duration
	logger   *zap.Logger
	recenter func(geo.Location) error
	registry *geo.Registry
	resolver geo.Resolver
	bus      *Bus

	base   context.Context
	cancel context.CancelFunc

	mu          sync.Mutex
	state       State
	location    geo.Location
	hasLocation bool
	generation  uint64
	pending     int
	geoErr      string
	selectedAt  time.Time
	idle        chan struct{}
}

func New(fetchers []geodata.Fetcher, sink Sink, opts ...Option) *Controller {
	base, cancel := context.WithCancel(context.Background())

	idle := make(chan struct{})
	close(idle)

	c := &Controller{
		fetchers: fetchers,
		sink:     sink,
		timeout:  DefaultFetchTimeout,
		logger:   zap.NewNop(),
		bus:      NewBus(64),
		base:     base,
		cancel:   cancel,
		state:    StateIdle,
		idle:     idle,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Select makes loc the current location and fetches every category for it.
func (c *Controller) Select(loc geo.Location) error {
	if err := loc.Validate(); err != nil {
		return err
	}
	if c.base.Err() != nil {
		return ErrClosed
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	c.generation++
	gen := c.generation
	c.location = loc
	c.hasLocation = true
	c.geoErr = ""
	c.selectedAt = time.Now()
	c.pending = len(c.fetchers)

	switch {
	case c.pending > 0 && c.state == StateIdle:
		c.idle = make(chan struct{})
		c.state = StateLoading
	case c.pending == 0 && c.state == StateLoading:
		c.state = StateIdle
		close(c.idle)
	}

	if c.recenter != nil {
		if err := c.recenter(loc); err != nil {
			c.logger.Warn("recenter failed", zap.String("location", loc.Label()), zap.Error(err))
		}
	}
	c.sink.Begin(loc)
	c.publishLocked(EventSelected)

	c.logger.Info("location selected",
		zap.String("location", loc.Label()),
		zap.Uint64("generation", gen))

	for _, f := range c.fetchers {
		go c.run(gen, loc, f)
	}
	return nil
}

// SelectByName picks a registry location, falling back to the resolver for
// names the registry does not know.
func (c *Controller) SelectByName(ctx context.Context, name string) error {
	if c.registry != nil {
		if loc, ok := c.registry.Find(name); ok {
			return c.Select(loc)
		}
	}
	if c.resolver == nil {
		return fmt.Errorf("%w: %q", geo.ErrUnknownLocation, name)
	}

	loc, err := c.resolver.Resolve(ctx, name)
	if err != nil {
		return err
	}
	return c.Select(loc)
}

// LocateDevice selects the device position. When the position cannot be
// obtained the error is recorded and the current location is kept.
func (c *Controller) LocateDevice(ctx context.Context, g Geolocator) error {
	loc, err := g.Locate(ctx)
	if err != nil {
		c.mu.Lock()
		c.geoErr = err.Error()
		c.publishLocked(EventGeolocation)
		c.mu.Unlock()

		c.logger.Info("device geolocation failed", zap.Error(err))
		return err
	}
	return c.Select(loc)
}

// Refresh re-fetches the current location. It is a no-op before the first
// selection.
func (c *Controller) Refresh() error {
	c.mu.Lock()
	loc, ok := c.location, c.hasLocation
	c.mu.Unlock()

	if !ok {
		return nil
	}
	return c.Select(loc)
}

func (c *Controller) run(gen uint64, loc geo.Location, f geodata.Fetcher) {
	reading, err := c.fetch(loc, f)

	c.mu.Lock()
	defer c.mu.Unlock()

	if gen != c.generation {
		c.logger.Debug("discarding stale result",
			zap.String("fetcher", f.Name()),
			zap.String("location", loc.Label()),
			zap.Uint64("generation", gen))
		return
	}

	if err != nil {
		c.sink.Fail(loc, f.Category(), err)
	} else {
		c.sink.Apply(loc, reading)
	}

	c.pending--
	if c.pending > 0 {
		c.publishLocked(EventSettled)
		return
	}

	c.state = StateIdle
	close(c.idle)
	c.publishLocked(EventIdle)
}

// fetch runs f under the controller timeout. A panicking fetcher is reported
// as an unreachable upstream.
func (c *Controller) fetch(loc geo.Location, f geodata.Fetcher) (reading geodata.Reading, err error) {
	ctx, cancel := context.WithTimeout(c.base, c.timeout)
	defer cancel()

	defer func() {
		if r := recover(); r != nil {
			reading = nil
			err = &geodata.FetchError{
				Kind:     geodata.KindUnreachable,
				Category: f.Category(),
				Source:   f.Name(),
				Err:      fmt.Errorf("fetcher panicked: %v", r),
			}
		}
	}()

	reading, err = f.Fetch(ctx, loc)
	if err == nil && reading == nil {
		err = geodata.Rejected(f.Category(), f.Name(), 0, errors.New("empty reading"))
	}
	return reading, err
}

func (c *Controller) snapshotLocked() Snapshot {
	s := Snapshot{
		State:            c.state,
		Generation:       c.generation,
		Pending:          c.pending,
		GeolocationError: c.geoErr,
		SelectedAt:       c.selectedAt,
	}
	if c.hasLocation {
		loc := c.location
		s.Location = &loc
	}
	return s
}

func (c *Controller) publishLocked(eventType string) {
	c.bus.Publish(Event{Type: eventType, Snapshot: c.snapshotLocked()})
}

func (c *Controller) Snapshot() Snapshot {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.snapshotLocked()
}

// Location returns the current location, if one has been selected.
func (c *Controller) Location() (geo.Location, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.location, c.hasLocation
}

// WaitIdle blocks until no fetch for the current selection is in flight.
func (c *Controller) WaitIdle(ctx context.Context) error {
	for {
		c.mu.Lock()
		if c.state == StateIdle {
			c.mu.Unlock()
			return nil
		}
		idle := c.idle
		c.mu.Unlock()

		select {
		case <-idle:
		case <-ctx.Done():
			return ctx.Err()
		}
	}
}

// Subscribe streams controller events until ctx ends or the controller closes.
func (c *Controller) Subscribe(ctx context.Context) <-chan Event {
	return c.bus.Subscribe(ctx, 16)
}

// Close cancels in-flight fetches and closes every subscription.
func (c *Controller) Close() {
	c.cancel()
	c.bus.Close()
}

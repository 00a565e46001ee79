package present

import (
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/i474232898/geo-dashboard/internal/geo"
	"github.com/i474232898/geo-dashboard/internal/geodata"
	"github.com/i474232898/geo-dashboard/internal/mapsurface"
)

// PanelState is the display state of one category panel.
type PanelState string

const (
	PanelEmpty   PanelState = "empty"
	PanelLoading PanelState = "loading"
	PanelReady   PanelState = "ready"
	PanelFailed  PanelState = "failed"
)

// Panel is the side-panel model for one category. Reading and Fields keep
// the last successful result, even while loading or after a failure.
type Panel struct {
	Category  geodata.Category `json:"category"`
	State     PanelState       `json:"state"`
	Error     string           `json:"error,omitempty"`
	ErrorKind string           `json:"errorKind,omitempty"`
	Location  *geo.Location    `json:"location,omitempty"`
	Reading   geodata.Reading  `json:"reading,omitempty"`
	Fields    []Field          `json:"fields,omitempty"`
	UpdatedAt time.Time        `json:"updatedAt,omitempty"`
}

type panelEntry struct {
	Panel
	readingLoc geo.Location
	hasReading bool
}

// Binder owns the displayed readings and the overlay for one view. The
// surface may be nil when the widget failed to load; panels still update.
type Binder struct {
	surface  *mapsurface.Surface
	handle   mapsurface.Handle
	autoOpen bool
	logger   *zap.Logger
	now      func() time.Time

	mu       sync.Mutex
	location geo.Location
	panels   map[geodata.Category]*panelEntry
}

func NewBinder(surface *mapsurface.Surface, handle mapsurface.Handle, autoOpen bool, logger *zap.Logger) *Binder {
	if logger == nil {
		logger = zap.NewNop()
	}

	b := &Binder{
		surface:  surface,
		handle:   handle,
		autoOpen: autoOpen,
		logger:   logger,
		now:      time.Now,
		panels:   make(map[geodata.Category]*panelEntry, len(geodata.Categories)),
	}
	for _, cat := range geodata.Categories {
		b.panels[cat] = &panelEntry{Panel: Panel{Category: cat, State: PanelEmpty}}
	}
	return b
}

// Begin marks every panel as loading for loc and moves the overlay there.
// Readings from another location are not drawn.
func (b *Binder) Begin(loc geo.Location) {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.location = loc
	for _, p := range b.panels {
		p.State = PanelLoading
		p.Error = ""
		p.ErrorKind = ""
	}
	b.redraw()
}

// Apply shows r for loc and redraws the overlay.
func (b *Binder) Apply(loc geo.Location, r geodata.Reading) {
	b.mu.Lock()
	defer b.mu.Unlock()

	p, ok := b.panels[r.Category()]
	if !ok {
		return
	}

	l := loc
	p.State = PanelReady
	p.Error = ""
	p.ErrorKind = ""
	p.Reading = r
	p.Fields = Fields(r)
	p.Location = &l
	p.UpdatedAt = b.now()
	p.readingLoc = loc
	p.hasReading = true

	b.redraw()
}

// Fail records err on the category panel. The displayed reading is left as is.
func (b *Binder) Fail(loc geo.Location, cat geodata.Category, err error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	p, ok := b.panels[cat]
	if !ok {
		return
	}
	p.State = PanelFailed
	p.Error = err.Error()
	p.ErrorKind = string(geodata.KindOf(err))

	b.logger.Warn("fetch failed",
		zap.String("category", string(cat)),
		zap.String("location", loc.Label()),
		zap.Error(err))
}

// redraw replaces the overlay with one built from the readings that belong
// to the current location. Callers hold b.mu.
func (b *Binder) redraw() {
	if b.surface == nil {
		return
	}

	current := make(map[geodata.Category]geodata.Reading, len(b.panels))
	for cat, p := range b.panels {
		if p.hasReading && p.readingLoc == b.location {
			current[cat] = p.Reading
		}
	}

	popup, err := Popup(b.location, current)
	if err != nil {
		b.logger.Error("render popup", zap.Error(err))
		return
	}

	req := mapsurface.OverlayRequest{
		Location: b.location,
		Reading:  current[geodata.CategoryAirQuality],
		Style:    StyleFor,
		Popup:    popup,
		AutoOpen: b.autoOpen,
	}
	if err := b.surface.SetOverlay(b.handle, req); err != nil {
		b.logger.Error("set overlay", zap.String("location", b.location.Label()), zap.Error(err))
	}
}

// Panels returns a copy of every panel in display order.
func (b *Binder) Panels() []Panel {
	b.mu.Lock()
	defer b.mu.Unlock()

	out := make([]Panel, 0, len(geodata.Categories))
	for _, cat := range geodata.Categories {
		p := b.panels[cat].Panel
		p.Fields = append([]Field(nil), p.Fields...)
		out = append(out, p)
	}
	return out
}

// Reading returns the displayed reading for cat.
func (b *Binder) Reading(cat geodata.Category) (geodata.Reading, bool) {
	b.mu.Lock()
	defer b.mu.Unlock()

	p, ok := b.panels[cat]
	if !ok || !p.hasReading {
		return nil, false
	}
	return p.Reading, true
}

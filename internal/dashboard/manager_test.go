package dashboard

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/i474232898/geo-dashboard/internal/geo"
	"github.com/i474232898/geo-dashboard/internal/geodata"
	"github.com/i474232898/geo-dashboard/internal/geodata/providers"
	"github.com/i474232898/geo-dashboard/internal/mapsurface"
	"github.com/i474232898/geo-dashboard/internal/present"
	"github.com/i474232898/geo-dashboard/internal/store"
)

type stubFetcher struct {
	name     string
	category geodata.Category
	reading  geodata.Reading
}

func (s stubFetcher) Name() string                { return s.name }
func (s stubFetcher) Category() geodata.Category { return s.category }
func (s stubFetcher) Fetch(context.Context, geo.Location) (geodata.Reading, error) {
	return s.reading, nil
}

func newTestManager(t *testing.T, widget mapsurface.Widget) *Manager {
	t.Helper()

	fetchers := Fetchers{
		AirQuality: map[string]geodata.Fetcher{
			providers.SourceGoogle: stubFetcher{name: "google", category: geodata.CategoryAirQuality, reading: geodata.AirQualityReading{Index: 42}},
			providers.SourceWAQI:   stubFetcher{name: "waqi", category: geodata.CategoryAirQuality, reading: geodata.AirQualityReading{Index: 175}},
		},
		Weather: stubFetcher{name: "weatherapi", category: geodata.CategoryWeather, reading: geodata.WeatherReading{TempC: 30}},
		Soil:    stubFetcher{name: "soilgrids", category: geodata.CategorySoil, reading: geodata.SoilReading{DominantClass: "Calcisols"}},
	}
	settings := Settings{
		DefaultLocation: "Delhi",
		DefaultSource:   providers.SourceGoogle,
		Zoom:            10,
		AutoOpenPopup:   true,
		FetchTimeout:    time.Second,
	}

	m := NewManager(geo.DefaultRegistry(), nil, mapsurface.New(widget, nil), fetchers, settings,
		store.NewMemoryStore[*View](10, time.Hour), nil)
	t.Cleanup(m.Close)
	return m
}

func settle(t *testing.T, v *View) {
	t.Helper()

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	if err := v.WaitIdle(ctx); err != nil {
		t.Fatalf("view did not settle: %v", err)
	}
}

func TestCreateSelectsDefaultLocation(t *testing.T) {
	m := newTestManager(t, mapsurface.NewCanvas())

	v, err := m.Create(context.Background(), "")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	settle(t, v)

	st := v.State()
	if st.Selection.Location == nil || st.Selection.Location.Name != "Delhi" {
		t.Fatalf("expected Delhi selected, got %+v", st.Selection.Location)
	}
	for _, p := range st.Panels {
		if p.State != present.PanelReady {
			t.Fatalf("expected %s ready, got %s", p.Category, p.State)
		}
	}
	if st.Map.Shapes == nil || st.Map.Shapes.Circle.Color != present.ColorGreen {
		t.Fatalf("expected green overlay, got %+v", st.Map.Shapes)
	}
	if st.Source != providers.SourceGoogle {
		t.Fatalf("expected google source, got %s", st.Source)
	}
}

func TestSetSourceRefetches(t *testing.T) {
	m := newTestManager(t, mapsurface.NewCanvas())
	v, _ := m.Create(context.Background(), "")
	settle(t, v)

	if err := v.SetSource(providers.SourceWAQI); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	settle(t, v)

	st := v.State()
	if st.Map.Shapes.Circle.Color != present.ColorRed {
		t.Fatalf("expected red overlay after switching source, got %s", st.Map.Shapes.Circle.Color)
	}
	if err := v.SetSource("purpleair"); !errors.Is(err, ErrInvalidSource) {
		t.Fatalf("expected ErrInvalidSource, got %v", err)
	}
}

func TestCreateRejectsUnknownSource(t *testing.T) {
	m := newTestManager(t, mapsurface.NewCanvas())

	if _, err := m.Create(context.Background(), "purpleair"); !errors.Is(err, ErrInvalidSource) {
		t.Fatalf("expected ErrInvalidSource, got %v", err)
	}
}

func TestCreateReportsUnavailableWidget(t *testing.T) {
	m := newTestManager(t, mapsurface.NewCanvas(mapsurface.WithLoadError(errors.New("offline"))))

	if _, err := m.Create(context.Background(), ""); !errors.Is(err, mapsurface.ErrWidgetUnavailable) {
		t.Fatalf("expected ErrWidgetUnavailable, got %v", err)
	}
}

func TestDeleteTearsDownView(t *testing.T) {
	canvas := mapsurface.NewCanvas()
	m := newTestManager(t, canvas)
	v, _ := m.Create(context.Background(), "")
	settle(t, v)

	if err := m.Delete(v.ID); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if canvas.Maps() != 0 {
		t.Fatalf("expected widget instance destroyed")
	}
	if _, err := m.Get(v.ID); !errors.Is(err, store.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestRefreshAllStartsNewGeneration(t *testing.T) {
	m := newTestManager(t, mapsurface.NewCanvas())
	v, _ := m.Create(context.Background(), "")
	settle(t, v)
	before := v.State().Selection.Generation

	if n := m.RefreshAll(); n != 1 {
		t.Fatalf("expected 1 view refreshed, got %d", n)
	}
	settle(t, v)

	if after := v.State().Selection.Generation; after != before+1 {
		t.Fatalf("expected generation %d, got %d", before+1, after)
	}
}

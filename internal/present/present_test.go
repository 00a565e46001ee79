package present

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/i474232898/geo-dashboard/internal/geo"
	"github.com/i474232898/geo-dashboard/internal/geodata"
	"github.com/i474232898/geo-dashboard/internal/mapsurface"
)

func TestColorForBoundaries(t *testing.T) {
	cases := []struct {
		aqi  int
		want string
	}{
		{0, ColorGreen},
		{49, ColorGreen},
		{50, ColorGreen},
		{51, ColorYellow},
		{100, ColorYellow},
		{101, ColorOrange},
		{150, ColorOrange},
		{151, ColorRed},
		{200, ColorRed},
		{201, ColorMagenta},
		{300, ColorMagenta},
		{301, ColorMaroon},
		{999, ColorMaroon},
	}

	for _, tc := range cases {
		if got := ColorFor(tc.aqi); got != tc.want {
			t.Errorf("ColorFor(%d) = %s, want %s", tc.aqi, got, tc.want)
		}
	}
}

func TestStyleForNonAirQualityIsNeutral(t *testing.T) {
	if got := StyleFor(geodata.WeatherReading{}); got != ColorNeutral {
		t.Fatalf("expected neutral color, got %s", got)
	}
	if got := StyleFor(nil); got != ColorNeutral {
		t.Fatalf("expected neutral color for nil, got %s", got)
	}
}

func TestLegendEndsUnbounded(t *testing.T) {
	legend := Legend()
	if len(legend) != 6 {
		t.Fatalf("expected 6 entries, got %d", len(legend))
	}
	if legend[0].Max == nil || *legend[0].Max != 50 || legend[0].Color != ColorGreen {
		t.Fatalf("unexpected first entry: %+v", legend[0])
	}
	if legend[5].Max != nil || legend[5].Color != ColorMaroon {
		t.Fatalf("unexpected last entry: %+v", legend[5])
	}
}

func TestWeatherFieldsCarryUnits(t *testing.T) {
	fields := Fields(geodata.WeatherReading{TempC: 31.25, WindKph: 12, WindDir: "NW", HumidityPct: 40, VisibilityKm: 6})

	want := map[string]string{
		"Temperature": "31.2 °C",
		"Wind":        "12.0 km/h NW",
		"Humidity":    "40%",
		"Visibility":  "6.0 km",
	}
	for _, f := range fields {
		if w, ok := want[f.Label]; ok && f.Value != w {
			t.Errorf("%s = %q, want %q", f.Label, f.Value, w)
		}
	}
}

func TestAirQualityFieldsUppercaseCodes(t *testing.T) {
	fields := Fields(geodata.AirQualityReading{Index: 42, DominantPollutant: "pm25", Concentrations: map[string]float64{"o3": 12}})

	var sawO3 bool
	for _, f := range fields {
		if f.Label == "Dominant pollutant" && f.Value != "PM25" {
			t.Fatalf("expected PM25, got %q", f.Value)
		}
		if f.Label == "O3" {
			sawO3 = true
		}
	}
	if !sawO3 {
		t.Fatalf("expected O3 field, got %+v", fields)
	}
}

func TestPopupEscapesUpstreamText(t *testing.T) {
	html, err := Popup(geo.Location{Name: "Delhi"}, map[geodata.Category]geodata.Reading{
		geodata.CategoryAirQuality: geodata.AirQualityReading{Index: 42, CategoryLabel: "<script>x</script>", DominantPollutant: "pm25"},
		geodata.CategoryWeather:    geodata.WeatherReading{TempC: 30, ConditionText: "Sunny"},
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if strings.Contains(html, "<script>") {
		t.Fatalf("popup not escaped: %s", html)
	}
	for _, want := range []string{"Air Quality in Delhi", "AQI:</strong> 42", "PM25", "30.0 °C, Sunny"} {
		if !strings.Contains(html, want) {
			t.Errorf("popup missing %q: %s", want, html)
		}
	}
}

func newTestBinder(t *testing.T) (*Binder, *mapsurface.Surface, mapsurface.Handle) {
	t.Helper()

	surface := mapsurface.New(mapsurface.NewCanvas(), nil)
	h, err := surface.Initialize(context.Background(), geo.Location{Name: "Delhi", Latitude: 28.6, Longitude: 77.2}, 10)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	return NewBinder(surface, h, true, nil), surface, h
}

func TestBinderFailureKeepsReading(t *testing.T) {
	b, _, _ := newTestBinder(t)
	delhi := geo.Location{Name: "Delhi", Latitude: 28.6, Longitude: 77.2}

	b.Begin(delhi)
	b.Apply(delhi, geodata.AirQualityReading{Index: 42})

	b.Begin(delhi)
	if p := b.Panels()[0]; p.State != PanelLoading {
		t.Fatalf("expected loading, got %s", p.State)
	}

	b.Fail(delhi, geodata.CategoryAirQuality, geodata.Rejected(geodata.CategoryAirQuality, "waqi", 500, errors.New("boom")))

	p := b.Panels()[0]
	if p.State != PanelFailed || p.Error == "" || p.ErrorKind != string(geodata.KindUpstreamRejected) {
		t.Fatalf("unexpected panel: %+v", p)
	}
	r, ok := b.Reading(geodata.CategoryAirQuality)
	if !ok || r.(geodata.AirQualityReading).Index != 42 {
		t.Fatalf("reading should be unchanged, got %+v", r)
	}
}

func TestBinderDrawsStyledOverlay(t *testing.T) {
	b, surface, h := newTestBinder(t)
	beijing := geo.Location{Name: "Beijing", Latitude: 39.9, Longitude: 116.4}

	b.Begin(beijing)
	b.Apply(beijing, geodata.AirQualityReading{Index: 160})
	b.Apply(beijing, geodata.SoilReading{DominantClass: "Cambisols"})

	set, ok, err := surface.Overlay(h)
	if err != nil || !ok {
		t.Fatalf("expected overlay, got ok=%v err=%v", ok, err)
	}
	if set.Circle.Color != ColorRed {
		t.Fatalf("expected red circle, got %s", set.Circle.Color)
	}
	if !set.Popup.Open || !strings.Contains(set.Popup.Content, "Cambisols") {
		t.Fatalf("unexpected popup: %+v", set.Popup)
	}
}

func TestBinderIgnoresOtherLocationReadingsForStyle(t *testing.T) {
	b, surface, h := newTestBinder(t)
	delhi := geo.Location{Name: "Delhi", Latitude: 28.6, Longitude: 77.2}
	beijing := geo.Location{Name: "Beijing", Latitude: 39.9, Longitude: 116.4}

	b.Begin(delhi)
	b.Apply(delhi, geodata.AirQualityReading{Index: 160})

	b.Begin(beijing)
	b.Apply(beijing, geodata.WeatherReading{TempC: 20})

	set, _, _ := surface.Overlay(h)
	if set.Circle.Color != ColorNeutral {
		t.Fatalf("expected neutral circle before Beijing air quality arrives, got %s", set.Circle.Color)
	}
	if set.Marker.Title != "Beijing" {
		t.Fatalf("expected marker at Beijing, got %s", set.Marker.Title)
	}
}

func TestBinderFailedSelectionMovesOverlay(t *testing.T) {
	b, surface, h := newTestBinder(t)
	delhi := geo.Location{Name: "Delhi", Latitude: 28.6, Longitude: 77.2}
	beijing := geo.Location{Name: "Beijing", Latitude: 39.9, Longitude: 116.4}

	b.Begin(delhi)
	b.Apply(delhi, geodata.AirQualityReading{Index: 250})

	b.Begin(beijing)
	for _, cat := range geodata.Categories {
		b.Fail(beijing, cat, geodata.Rejected(cat, "test", 403, errors.New("forbidden")))
	}

	set, ok, err := surface.Overlay(h)
	if err != nil || !ok {
		t.Fatalf("expected overlay, got ok=%v err=%v", ok, err)
	}
	if set.Marker.Title != "Beijing" {
		t.Fatalf("expected marker at Beijing, got %s", set.Marker.Title)
	}
	if set.Circle.Color != ColorNeutral {
		t.Fatalf("expected neutral circle, got %s", set.Circle.Color)
	}
	if !strings.Contains(set.Popup.Content, "Air quality unavailable") {
		t.Fatalf("expected unavailable popup, got %q", set.Popup.Content)
	}
	if strings.Contains(set.Popup.Content, "250") {
		t.Fatalf("popup still shows Delhi reading: %q", set.Popup.Content)
	}
}

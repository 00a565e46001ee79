package mapsurface

import (
	"context"
	"errors"
	"testing"

	"github.com/i474232898/geo-dashboard/internal/geo"
	"github.com/i474232898/geo-dashboard/internal/geodata"
)

var (
	delhi   = geo.Location{Name: "Delhi", Latitude: 28.6139, Longitude: 77.2090}
	beijing = geo.Location{Name: "Beijing", Latitude: 39.9042, Longitude: 116.4074}
)

func fixedStyle(color string) StyleFunc {
	return func(geodata.Reading) string { return color }
}

func TestSetOverlayTwiceLeavesOneMarkerAndOneCircle(t *testing.T) {
	canvas := NewCanvas()
	s := New(canvas, nil)

	h, err := s.Initialize(context.Background(), delhi, 10)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	first := OverlayRequest{Location: delhi, Reading: geodata.AirQualityReading{Index: 42}, Style: fixedStyle("#00E400"), Popup: "Delhi", AutoOpen: true}
	second := OverlayRequest{Location: beijing, Reading: geodata.AirQualityReading{Index: 160}, Style: fixedStyle("#FF0000"), Popup: "Beijing", AutoOpen: true}

	if err := s.SetOverlay(h, first); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if err := s.SetOverlay(h, second); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	markers, circles := canvas.Counts(s.surfaces[h].mapID)
	if markers != 1 || circles != 1 {
		t.Fatalf("expected 1 marker and 1 circle, got %d and %d", markers, circles)
	}

	set, ok, err := s.Overlay(h)
	if err != nil || !ok {
		t.Fatalf("expected attached overlay, got ok=%v err=%v", ok, err)
	}
	if set.Circle.Color != "#FF0000" || set.Circle.RadiusMeters != CircleRadiusMeters {
		t.Fatalf("unexpected circle: %+v", set.Circle)
	}
	if set.Marker.Title != "Beijing" || !set.Popup.Open {
		t.Fatalf("unexpected marker/popup: %+v %+v", set.Marker, set.Popup)
	}
}

func TestPopupStaysClosedWithoutAutoOpen(t *testing.T) {
	s := New(NewCanvas(), nil)
	h, _ := s.Initialize(context.Background(), delhi, 10)

	if err := s.SetOverlay(h, OverlayRequest{Location: delhi, Popup: "x"}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	set, _, _ := s.Overlay(h)
	if set.Popup.Open {
		t.Fatalf("popup should stay closed")
	}
}

func TestInitializeReportsUnavailableWidget(t *testing.T) {
	s := New(NewCanvas(WithLoadError(errors.New("script blocked"))), nil)

	_, err := s.Initialize(context.Background(), delhi, 10)
	if !errors.Is(err, ErrWidgetUnavailable) {
		t.Fatalf("expected ErrWidgetUnavailable, got %v", err)
	}
}

func TestRecenterAndTeardown(t *testing.T) {
	canvas := NewCanvas()
	s := New(canvas, nil)
	h, _ := s.Initialize(context.Background(), delhi, 10)
	mapID := s.surfaces[h].mapID

	if err := s.Recenter(h, beijing); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if center, _ := canvas.Center(mapID); center != beijing.Point() {
		t.Fatalf("expected canvas centered on Beijing, got %v", center)
	}
	if err := s.SetOverlay(h, OverlayRequest{Location: beijing}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if err := s.Teardown(h); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if canvas.Maps() != 0 {
		t.Fatalf("expected map destroyed")
	}
	if err := s.Recenter(h, delhi); !errors.Is(err, ErrUnknownHandle) {
		t.Fatalf("expected ErrUnknownHandle, got %v", err)
	}
}

func TestGeoJSONExport(t *testing.T) {
	s := New(NewCanvas(), nil)
	h, _ := s.Initialize(context.Background(), delhi, 10)

	fc, err := s.GeoJSON(h)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(fc.Features) != 0 {
		t.Fatalf("expected empty collection before any overlay")
	}

	_ = s.SetOverlay(h, OverlayRequest{Location: delhi, Style: fixedStyle("#FFFF00")})
	fc, _ = s.GeoJSON(h)
	if len(fc.Features) != 2 {
		t.Fatalf("expected 2 features, got %d", len(fc.Features))
	}
	if fc.Features[1].Properties["color"] != "#FFFF00" {
		t.Fatalf("unexpected circle properties: %v", fc.Features[1].Properties)
	}
}

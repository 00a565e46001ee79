package present

import "github.com/i474232898/geo-dashboard/internal/geodata"

// Overlay colors for the index scale.
const (
	ColorGreen   = "#00E400"
	ColorYellow  = "#FFFF00"
	ColorOrange  = "#FF7E00"
	ColorRed     = "#FF0000"
	ColorMagenta = "#99004C"
	ColorMaroon  = "#7E0023"

	// ColorNeutral is used when there is no air quality reading to style by.
	ColorNeutral = "#808080"
)

var bandColors = []string{ColorGreen, ColorYellow, ColorOrange, ColorRed, ColorMagenta, ColorMaroon}

// ColorFor maps an index to its overlay color: ≤50 green, ≤100 yellow,
// ≤150 orange, ≤200 red, ≤300 magenta, else maroon.
func ColorFor(aqi int) string {
	return bandColors[geodata.BandIndex(aqi)]
}

// StyleFor is the overlay style function. Only air quality readings carry a
// color.
func StyleFor(r geodata.Reading) string {
	if aq, ok := r.(geodata.AirQualityReading); ok {
		return ColorFor(aq.Index)
	}
	return ColorNeutral
}

// LegendEntry is one row of the color legend.
type LegendEntry struct {
	Max   *int   `json:"max"`
	Label string `json:"label"`
	Color string `json:"color"`
}

// Legend returns the breakpoint table, lowest band first. The last band is
// unbounded and has a nil Max.
func Legend() []LegendEntry {
	out := make([]LegendEntry, 0, len(geodata.Bands))
	for i, b := range geodata.Bands {
		e := LegendEntry{Label: b.Label, Color: bandColors[i]}
		if b.Max >= 0 {
			bound := b.Max
			e.Max = &bound
		}
		out = append(out, e)
	}
	return out
}

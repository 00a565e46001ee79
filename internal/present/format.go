package present

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/i474232898/geo-dashboard/internal/geodata"
)

// Field is one label/value line of a side panel.
type Field struct {
	Label string `json:"label"`
	Value string `json:"value"`
}

func formatFloat(v float64) string {
	return strconv.FormatFloat(v, 'f', 1, 64)
}

func Celsius(v float64) string    { return formatFloat(v) + " °C" }
func KmPerHour(v float64) string  { return formatFloat(v) + " km/h" }
func Kilometers(v float64) string { return formatFloat(v) + " km" }
func Percent(v float64) string    { return strconv.FormatFloat(v, 'f', -1, 64) + "%" }

// PollutantCode normalizes a pollutant code for display.
func PollutantCode(code string) string {
	return strings.ToUpper(strings.TrimSpace(code))
}

// Fields maps a reading to its panel lines.
func Fields(r geodata.Reading) []Field {
	switch v := r.(type) {
	case geodata.AirQualityReading:
		return airQualityFields(v)
	case geodata.WeatherReading:
		return weatherFields(v)
	case geodata.SoilReading:
		return soilFields(v)
	default:
		return nil
	}
}

func airQualityFields(r geodata.AirQualityReading) []Field {
	fields := []Field{
		{Label: "AQI", Value: strconv.Itoa(r.Index)},
		{Label: "Category", Value: r.CategoryLabel},
		{Label: "Dominant pollutant", Value: PollutantCode(r.DominantPollutant)},
	}
	if !r.ObservedAt.IsZero() {
		fields = append(fields, Field{Label: "Updated", Value: r.ObservedAt.Format("2006-01-02 15:04")})
	}
	for _, code := range r.SortedPollutants() {
		fields = append(fields, Field{Label: PollutantCode(code), Value: formatFloat(r.Concentrations[code])})
	}
	return fields
}

func weatherFields(r geodata.WeatherReading) []Field {
	return []Field{
		{Label: "Temperature", Value: Celsius(r.TempC)},
		{Label: "Feels like", Value: Celsius(r.FeelsLikeC)},
		{Label: "Condition", Value: r.ConditionText},
		{Label: "Wind", Value: strings.TrimSpace(KmPerHour(r.WindKph) + " " + r.WindDir)},
		{Label: "Humidity", Value: Percent(float64(r.HumidityPct))},
		{Label: "Visibility", Value: Kilometers(r.VisibilityKm)},
		{Label: "Local time", Value: r.LocalTime},
	}
}

func soilFields(r geodata.SoilReading) []Field {
	fields := []Field{
		{Label: "Soil class", Value: r.DominantClass},
		{Label: "Coordinates", Value: fmt.Sprintf("%.4f, %.4f", r.Longitude, r.Latitude)},
	}
	for _, cp := range r.Probabilities {
		fields = append(fields, Field{Label: cp.ClassName, Value: Percent(cp.ProbabilityPct)})
	}
	return fields
}

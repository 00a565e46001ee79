package present

import (
	"bytes"
	"html/template"

	"github.com/i474232898/geo-dashboard/internal/geo"
	"github.com/i474232898/geo-dashboard/internal/geodata"
)

var popupTemplate = template.Must(template.New("popup").
	Funcs(template.FuncMap{"upper": PollutantCode}).
	Parse(
	`<div class="info-window">` +
		`<h3>Air Quality in {{.Title}}</h3>` +
		`{{with .AirQuality}}` +
		`<p><strong>AQI:</strong> {{.Index}} ({{.CategoryLabel}})</p>` +
		`<p><strong>Dominant pollutant:</strong> {{upper .DominantPollutant}}</p>` +
		`{{if not .ObservedAt.IsZero}}<p><strong>Updated:</strong> {{.ObservedAt.Format "2006-01-02 15:04"}}</p>{{end}}` +
		`{{else}}<p>Air quality unavailable</p>{{end}}` +
		`{{with .Pollutants}}<ul>{{range .}}<li>{{.Label}}: {{.Value}}</li>{{end}}</ul>{{end}}` +
		`{{with .Weather}}<p><strong>Weather:</strong> {{.Temp}}, {{.Condition}}</p>{{end}}` +
		`{{with .Soil}}<p><strong>Soil:</strong> {{.}}</p>{{end}}` +
		`</div>`))

type popupWeather struct {
	Temp      string
	Condition string
}

type popupData struct {
	Title      string
	AirQuality *geodata.AirQualityReading
	Pollutants []Field
	Weather    *popupWeather
	Soil       string
}

// Popup renders the info popup for loc from whichever readings are present.
// Values are escaped, so upstream text cannot inject markup.
func Popup(loc geo.Location, readings map[geodata.Category]geodata.Reading) (string, error) {
	data := popupData{Title: loc.Label()}

	if aq, ok := readings[geodata.CategoryAirQuality].(geodata.AirQualityReading); ok {
		data.AirQuality = &aq
		for _, code := range aq.SortedPollutants() {
			data.Pollutants = append(data.Pollutants, Field{Label: PollutantCode(code), Value: formatFloat(aq.Concentrations[code])})
		}
	}
	if w, ok := readings[geodata.CategoryWeather].(geodata.WeatherReading); ok {
		data.Weather = &popupWeather{Temp: Celsius(w.TempC), Condition: w.ConditionText}
	}
	if s, ok := readings[geodata.CategorySoil].(geodata.SoilReading); ok {
		data.Soil = s.DominantClass
	}

	var buf bytes.Buffer
	if err := popupTemplate.Execute(&buf, data); err != nil {
		return "", err
	}
	return buf.String(), nil
}

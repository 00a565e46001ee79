package providers

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"

	"github.com/i474232898/geo-dashboard/internal/geo"
	"github.com/i474232898/geo-dashboard/internal/geodata"
)

var errNoCurrent = errors.New("response has no current conditions")

// WeatherAPIProvider reads current conditions from WeatherAPI.com.
type WeatherAPIProvider struct {
	*endpoint
	apiKey string
}

func NewWeatherAPIProvider(httpCfg HTTPClientConfig, apiKey string, opts ...Option) *WeatherAPIProvider {
	return &WeatherAPIProvider{
		endpoint: newEndpoint("weatherapi", geodata.CategoryWeather, "https://api.weatherapi.com/v1", httpCfg, opts...),
		apiKey:   apiKey,
	}
}

func (p *WeatherAPIProvider) Name() string { return p.name }

func (p *WeatherAPIProvider) Category() geodata.Category { return geodata.CategoryWeather }

func (p *WeatherAPIProvider) Fetch(ctx context.Context, loc geo.Location) (geodata.Reading, error) {
	if p.apiKey == "" {
		return nil, p.fail(errNoAPIKey)
	}

	buildRequest := func() (*http.Request, error) {
		values := url.Values{}
		values.Set("key", p.apiKey)
		// WeatherAPI uses "q" for location; it accepts "lat,lon".
		values.Set("q", loc.Query())
		values.Set("aqi", "no")

		u := fmt.Sprintf("%s/current.json?%s", p.baseURL, values.Encode())
		return http.NewRequest(http.MethodGet, u, nil)
	}

	data, err := p.do(ctx, buildRequest)
	if err != nil {
		return nil, err
	}

	var payload struct {
		Location struct {
			Name      string `json:"name"`
			Localtime string `json:"localtime"`
		} `json:"location"`
		Current *struct {
			TempC     float64 `json:"temp_c"`
			Condition struct {
				Text string `json:"text"`
				Icon string `json:"icon"`
			} `json:"condition"`
			WindKph    float64 `json:"wind_kph"`
			WindDir    string  `json:"wind_dir"`
			Humidity   int     `json:"humidity"`
			FeelsLikeC float64 `json:"feelslike_c"`
			VisKm      float64 `json:"vis_km"`
		} `json:"current"`
	}

	if err := json.Unmarshal(data, &payload); err != nil {
		return nil, p.malformed(err)
	}
	if payload.Current == nil {
		return nil, p.malformed(errNoCurrent)
	}

	c := payload.Current
	return geodata.WeatherReading{
		TempC:         c.TempC,
		ConditionText: c.Condition.Text,
		ConditionIcon: c.Condition.Icon,
		WindKph:       c.WindKph,
		WindDir:       c.WindDir,
		HumidityPct:   c.Humidity,
		FeelsLikeC:    c.FeelsLikeC,
		VisibilityKm:  c.VisKm,
		LocalTime:     payload.Location.Localtime,
	}, nil
}

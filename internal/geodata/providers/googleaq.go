package providers

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/url"

	"github.com/i474232898/geo-dashboard/internal/geo"
	"github.com/i474232898/geo-dashboard/internal/geodata"
)

// GoogleAirQualityProvider looks up current conditions through the
// standardized-index API (indexes[] schema).
type GoogleAirQualityProvider struct {
	*endpoint
	apiKey string
}

func NewGoogleAirQualityProvider(httpCfg HTTPClientConfig, apiKey string, opts ...Option) *GoogleAirQualityProvider {
	return &GoogleAirQualityProvider{
		endpoint: newEndpoint("google-air-quality", geodata.CategoryAirQuality, "https://airquality.googleapis.com/v1", httpCfg, opts...),
		apiKey:   apiKey,
	}
}

func (p *GoogleAirQualityProvider) Name() string { return p.name }

func (p *GoogleAirQualityProvider) Category() geodata.Category { return geodata.CategoryAirQuality }

type lookupRequest struct {
	Location struct {
		Latitude  float64 `json:"latitude"`
		Longitude float64 `json:"longitude"`
	} `json:"location"`
	ExtraComputations []string `json:"extraComputations"`
}

func (p *GoogleAirQualityProvider) Fetch(ctx context.Context, loc geo.Location) (geodata.Reading, error) {
	if p.apiKey == "" {
		return nil, p.fail(errNoAPIKey)
	}

	var body lookupRequest
	body.Location.Latitude = loc.Latitude
	body.Location.Longitude = loc.Longitude
	// LOCAL_AQI adds the local index that normalizeIndexes prefers over uaqi.
	body.ExtraComputations = []string{"LOCAL_AQI", "POLLUTANT_CONCENTRATION", "DOMINANT_POLLUTANT_CONCENTRATION"}

	raw, err := json.Marshal(body)
	if err != nil {
		return nil, p.fail(err)
	}

	buildRequest := func() (*http.Request, error) {
		values := url.Values{}
		values.Set("key", p.apiKey)

		u := p.baseURL + "/currentConditions:lookup?" + values.Encode()
		req, err := http.NewRequest(http.MethodPost, u, bytes.NewReader(raw))
		if err != nil {
			return nil, err
		}
		req.Header.Set("Content-Type", "application/json")
		return req, nil
	}

	data, err := p.do(ctx, buildRequest)
	if err != nil {
		return nil, err
	}

	payload, err := geodata.DecodeAirQuality(data)
	if err != nil {
		return nil, p.malformed(err)
	}
	reading, err := payload.Normalize()
	if err != nil {
		return nil, p.malformed(err)
	}
	reading.Source = p.name
	return reading, nil
}

package providers

import (
	"context"
	"fmt"
	"net/http"
	"net/url"

	"github.com/i474232898/geo-dashboard/internal/geo"
	"github.com/i474232898/geo-dashboard/internal/geodata"
)

// WAQIProvider reads the nearest station feed (status + iaqi{} schema).
type WAQIProvider struct {
	*endpoint
	token string
}

func NewWAQIProvider(httpCfg HTTPClientConfig, token string, opts ...Option) *WAQIProvider {
	return &WAQIProvider{
		endpoint: newEndpoint("waqi", geodata.CategoryAirQuality, "https://api.waqi.info", httpCfg, opts...),
		token:    token,
	}
}

func (p *WAQIProvider) Name() string { return p.name }

func (p *WAQIProvider) Category() geodata.Category { return geodata.CategoryAirQuality }

// feedPath addresses named locations by city and device positions by coordinate.
func feedPath(loc geo.Location) string {
	if loc.Name != "" {
		return "/feed/" + url.PathEscape(loc.Name) + "/"
	}
	return fmt.Sprintf("/feed/geo:%f;%f/", loc.Latitude, loc.Longitude)
}

func (p *WAQIProvider) Fetch(ctx context.Context, loc geo.Location) (geodata.Reading, error) {
	if p.token == "" {
		return nil, p.fail(errNoAPIKey)
	}

	buildRequest := func() (*http.Request, error) {
		values := url.Values{}
		values.Set("token", p.token)

		u := fmt.Sprintf("%s%s?%s", p.baseURL, feedPath(loc), values.Encode())
		return http.NewRequest(http.MethodGet, u, nil)
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

package providers

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strconv"

	"github.com/i474232898/geo-dashboard/internal/geo"
	"github.com/i474232898/geo-dashboard/internal/geodata"
)

// DefaultSoilClasses is how many candidate classes are requested by default.
const DefaultSoilClasses = 5

var errNoSoilClass = errors.New("no soil classification at coordinate")

// SoilGridsProvider queries the SoilGrids WRB classification service.
type SoilGridsProvider struct {
	*endpoint
	classes int
}

func NewSoilGridsProvider(httpCfg HTTPClientConfig, classes int, opts ...Option) *SoilGridsProvider {
	if classes <= 0 {
		classes = DefaultSoilClasses
	}
	return &SoilGridsProvider{
		endpoint: newEndpoint("soilgrids", geodata.CategorySoil, "https://rest.isric.org/soilgrids/v2.0", httpCfg, opts...),
		classes:  classes,
	}
}

func (p *SoilGridsProvider) Name() string { return p.name }

func (p *SoilGridsProvider) Category() geodata.Category { return geodata.CategorySoil }

func (p *SoilGridsProvider) Fetch(ctx context.Context, loc geo.Location) (geodata.Reading, error) {
	buildRequest := func() (*http.Request, error) {
		values := url.Values{}
		values.Set("lon", strconv.FormatFloat(loc.Longitude, 'f', -1, 64))
		values.Set("lat", strconv.FormatFloat(loc.Latitude, 'f', -1, 64))
		values.Set("number_classes", strconv.Itoa(p.classes))

		u := fmt.Sprintf("%s/classification/query?%s", p.baseURL, values.Encode())
		req, err := http.NewRequest(http.MethodGet, u, nil)
		if err != nil {
			return nil, err
		}
		req.Header.Set("Accept", "application/json")
		return req, nil
	}

	data, err := p.do(ctx, buildRequest)
	if err != nil {
		return nil, err
	}

	var payload struct {
		Coordinates         []float64           `json:"coordinates"`
		WRBClassName        *string             `json:"wrb_class_name"`
		WRBClassProbability [][]json.RawMessage `json:"wrb_class_probability"`
	}
	if err := json.Unmarshal(data, &payload); err != nil {
		return nil, p.malformed(err)
	}
	if payload.WRBClassName == nil || *payload.WRBClassName == "" {
		return nil, p.malformed(errNoSoilClass)
	}

	reading := geodata.SoilReading{
		DominantClass: *payload.WRBClassName,
		Probabilities: make([]geodata.ClassProbability, 0, len(payload.WRBClassProbability)),
		Longitude:     loc.Longitude,
		Latitude:      loc.Latitude,
	}
	if len(payload.Coordinates) == 2 {
		reading.Longitude, reading.Latitude = payload.Coordinates[0], payload.Coordinates[1]
	}

	for _, pair := range payload.WRBClassProbability {
		if len(pair) != 2 {
			return nil, p.malformed(fmt.Errorf("class probability has %d elements", len(pair)))
		}
		var cp geodata.ClassProbability
		if err := json.Unmarshal(pair[0], &cp.ClassName); err != nil {
			return nil, p.malformed(err)
		}
		if err := json.Unmarshal(pair[1], &cp.ProbabilityPct); err != nil {
			return nil, p.malformed(err)
		}
		reading.Probabilities = append(reading.Probabilities, cp)
	}

	return reading, nil
}

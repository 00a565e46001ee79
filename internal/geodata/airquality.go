package geodata

import (
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"strconv"
	"strings"
	"time"
)

// PayloadKind tags which upstream schema an air-quality body uses.
type PayloadKind int

const (
	PayloadUnknown PayloadKind = iota
	// PayloadIndexes is the standardized-index schema: indexes[] + pollutants[].
	PayloadIndexes
	// PayloadStationFeed is the station-feed schema: status + data.iaqi{}.
	PayloadStationFeed
)

func (k PayloadKind) String() string {
	switch k {
	case PayloadIndexes:
		return "indexes"
	case PayloadStationFeed:
		return "station_feed"
	default:
		return "unknown"
	}
}

var (
	errNoIndex         = errors.New("payload carries no air quality index")
	errUnknownSchema   = errors.New("unrecognized air quality payload")
	errStationNotReady = errors.New("station feed reported failure")
)

// IndexesPayload is the standardized-index response shape.
type IndexesPayload struct {
	DateTime string `json:"dateTime"`
	Indexes  []struct {
		Code              string `json:"code"`
		DisplayName       string `json:"displayName"`
		AQI               int    `json:"aqi"`
		Category          string `json:"category"`
		DominantPollutant string `json:"dominantPollutant"`
	} `json:"indexes"`
	Pollutants []struct {
		Code          string `json:"code"`
		DisplayName   string `json:"displayName"`
		Concentration struct {
			Value float64 `json:"value"`
			Units string  `json:"units"`
		} `json:"concentration"`
	} `json:"pollutants"`
}

// StationFeedPayload is the station-feed response shape. Data is an object
// on success and a message string on failure.
type StationFeedPayload struct {
	Status string          `json:"status"`
	Data   json.RawMessage `json:"data"`
}

type stationFeedData struct {
	AQI         json.RawMessage `json:"aqi"`
	DominentPol string          `json:"dominentpol"`
	IAQI        map[string]struct {
		V float64 `json:"v"`
	} `json:"iaqi"`
	Time struct {
		S   string `json:"s"`
		ISO string `json:"iso"`
	} `json:"time"`
}

// AirQualityPayload is a tagged union over the two upstream schemas. Exactly
// one of Indexes or Station is set, matching Kind.
type AirQualityPayload struct {
	Kind    PayloadKind
	Indexes *IndexesPayload
	Station *StationFeedPayload
}

// DecodeAirQuality inspects body and decodes it into the matching variant.
func DecodeAirQuality(body []byte) (AirQualityPayload, error) {
	var fields map[string]json.RawMessage
	if err := json.Unmarshal(body, &fields); err != nil {
		return AirQualityPayload{}, fmt.Errorf("decode air quality payload: %w", err)
	}

	switch {
	case fields["status"] != nil:
		var p StationFeedPayload
		if err := json.Unmarshal(body, &p); err != nil {
			return AirQualityPayload{}, fmt.Errorf("decode station feed: %w", err)
		}
		return AirQualityPayload{Kind: PayloadStationFeed, Station: &p}, nil
	case fields["indexes"] != nil:
		var p IndexesPayload
		if err := json.Unmarshal(body, &p); err != nil {
			return AirQualityPayload{}, fmt.Errorf("decode indexes payload: %w", err)
		}
		return AirQualityPayload{Kind: PayloadIndexes, Indexes: &p}, nil
	default:
		return AirQualityPayload{}, errUnknownSchema
	}
}

// Normalize converts either variant into an AirQualityReading.
func (p AirQualityPayload) Normalize() (AirQualityReading, error) {
	switch p.Kind {
	case PayloadIndexes:
		if p.Indexes == nil {
			return AirQualityReading{}, errUnknownSchema
		}
		return normalizeIndexes(p.Indexes)
	case PayloadStationFeed:
		if p.Station == nil {
			return AirQualityReading{}, errUnknownSchema
		}
		return normalizeStationFeed(p.Station)
	default:
		return AirQualityReading{}, errUnknownSchema
	}
}

func normalizeIndexes(p *IndexesPayload) (AirQualityReading, error) {
	if len(p.Indexes) == 0 {
		return AirQualityReading{}, errNoIndex
	}

	// Local indexes grow with pollution like the station-feed scale; the
	// universal index runs the other way, so it is only a fallback. A local
	// index is only returned when the lookup requests LOCAL_AQI (googleaq.go).
	idx := p.Indexes[0]
	for _, candidate := range p.Indexes {
		if candidate.Code != "uaqi" {
			idx = candidate
			break
		}
	}

	reading := AirQualityReading{
		Index:             idx.AQI,
		CategoryLabel:     idx.Category,
		DominantPollutant: strings.ToUpper(idx.DominantPollutant),
		Concentrations:    make(map[string]float64, len(p.Pollutants)),
	}

	for _, pol := range p.Pollutants {
		reading.Concentrations[strings.ToUpper(pol.Code)] = pol.Concentration.Value
	}
	if reading.DominantPollutant == "" && len(p.Pollutants) > 0 {
		reading.DominantPollutant = strings.ToUpper(p.Pollutants[0].Code)
	}
	if reading.CategoryLabel == "" {
		reading.CategoryLabel = IndexCategory(reading.Index)
	}
	if ts, err := time.Parse(time.RFC3339, p.DateTime); err == nil {
		reading.ObservedAt = ts.UTC()
	}

	return reading, nil
}

func normalizeStationFeed(p *StationFeedPayload) (AirQualityReading, error) {
	if p.Status != "ok" {
		var msg string
		if err := json.Unmarshal(p.Data, &msg); err != nil || msg == "" {
			msg = p.Status
		}
		return AirQualityReading{}, fmt.Errorf("%w: %s", errStationNotReady, msg)
	}

	var data stationFeedData
	if err := json.Unmarshal(p.Data, &data); err != nil {
		return AirQualityReading{}, fmt.Errorf("decode station data: %w", err)
	}

	index, err := parseIndex(data.AQI)
	if err != nil {
		return AirQualityReading{}, err
	}

	reading := AirQualityReading{
		Index:             index,
		CategoryLabel:     IndexCategory(index),
		DominantPollutant: strings.ToUpper(data.DominentPol),
		Concentrations:    make(map[string]float64, len(data.IAQI)),
		ObservedAt:        parseStationTime(data.Time.ISO, data.Time.S),
	}
	for code, v := range data.IAQI {
		reading.Concentrations[strings.ToUpper(code)] = v.V
	}

	return reading, nil
}

// parseIndex accepts a number or a numeric string; stations report "-" when
// they have no current value.
func parseIndex(raw json.RawMessage) (int, error) {
	if len(raw) == 0 {
		return 0, errNoIndex
	}

	var n float64
	if err := json.Unmarshal(raw, &n); err == nil {
		return int(n), nil
	}

	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		if v, err := strconv.Atoi(strings.TrimSpace(s)); err == nil {
			return v, nil
		}
	}
	return 0, errNoIndex
}

func parseStationTime(iso, local string) time.Time {
	if ts, err := time.Parse(time.RFC3339, iso); err == nil {
		return ts.UTC()
	}
	for _, layout := range []string{"2006-01-02 15:04:05", "2006-01-02 15:04"} {
		if ts, err := time.Parse(layout, local); err == nil {
			return ts
		}
	}
	return time.Time{}
}

// SortedPollutants returns the concentration codes in a stable order.
func (r AirQualityReading) SortedPollutants() []string {
	codes := make([]string, 0, len(r.Concentrations))
	for code := range r.Concentrations {
		codes = append(codes, code)
	}
	sort.Strings(codes)
	return codes
}

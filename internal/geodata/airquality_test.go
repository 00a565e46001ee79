package geodata

import (
	"errors"
	"testing"
	"time"
)

func TestNormalizeStationFeed(t *testing.T) {
	body := []byte(`{"status":"ok","data":{"aqi":42,"dominentpol":"pm25","iaqi":{"pm25":{"v":42}},"time":{"s":"2023-01-01 00:00"}}}`)

	payload, err := DecodeAirQuality(body)
	if err != nil {
		t.Fatalf("decode failed: %v", err)
	}
	if payload.Kind != PayloadStationFeed || payload.Station == nil || payload.Indexes != nil {
		t.Fatalf("expected station feed variant, got %+v", payload)
	}

	reading, err := payload.Normalize()
	if err != nil {
		t.Fatalf("normalize failed: %v", err)
	}
	if reading.Index != 42 || reading.DominantPollutant != "PM25" {
		t.Fatalf("unexpected reading: %+v", reading)
	}
	if reading.CategoryLabel != "Good" {
		t.Fatalf("expected Good category, got %q", reading.CategoryLabel)
	}
	if reading.Concentrations["PM25"] != 42 {
		t.Fatalf("unexpected concentrations: %+v", reading.Concentrations)
	}
	want := time.Date(2023, 1, 1, 0, 0, 0, 0, time.UTC)
	if !reading.ObservedAt.Equal(want) {
		t.Fatalf("expected %v, got %v", want, reading.ObservedAt)
	}
}

func TestNormalizeStationFeedFailures(t *testing.T) {
	cases := map[string]string{
		"error status": `{"status":"error","data":"Unknown station"}`,
		"dash index":   `{"status":"ok","data":{"aqi":"-","iaqi":{}}}`,
		"missing aqi":  `{"status":"ok","data":{"iaqi":{}}}`,
	}
	for name, body := range cases {
		payload, err := DecodeAirQuality([]byte(body))
		if err != nil {
			t.Fatalf("%s: decode failed: %v", name, err)
		}
		if _, err := payload.Normalize(); err == nil {
			t.Fatalf("%s: expected normalize error", name)
		}
	}
}

func TestNormalizeStationFeedStringIndex(t *testing.T) {
	payload, err := DecodeAirQuality([]byte(`{"status":"ok","data":{"aqi":"163","dominentpol":"pm10","iaqi":{"pm10":{"v":163},"o3":{"v":12.5}},"time":{"iso":"2024-05-01T10:00:00+08:00"}}}`))
	if err != nil {
		t.Fatalf("decode failed: %v", err)
	}
	reading, err := payload.Normalize()
	if err != nil {
		t.Fatalf("normalize failed: %v", err)
	}
	if reading.Index != 163 || reading.CategoryLabel != "Unhealthy" {
		t.Fatalf("unexpected reading: %+v", reading)
	}
	if got := reading.SortedPollutants(); len(got) != 2 || got[0] != "O3" || got[1] != "PM10" {
		t.Fatalf("unexpected pollutant order: %v", got)
	}
	if reading.ObservedAt.Hour() != 2 {
		t.Fatalf("expected UTC observation time, got %v", reading.ObservedAt)
	}
}

func TestNormalizeIndexesPrefersLocalIndex(t *testing.T) {
	body := []byte(`{
		"dateTime": "2024-03-01T06:00:00Z",
		"indexes": [
			{"code":"uaqi","displayName":"Universal AQI","aqi":38,"category":"Low air quality","dominantPollutant":"pm10"},
			{"code":"ind_cpcb","displayName":"AQI (IN)","aqi":182,"category":"Moderate air quality","dominantPollutant":"pm25"}
		],
		"pollutants": [
			{"code":"pm25","displayName":"PM2.5","concentration":{"value":91.3,"units":"MICROGRAMS_PER_CUBIC_METER"}},
			{"code":"no2","displayName":"NO2","concentration":{"value":20.1,"units":"PARTS_PER_BILLION"}}
		]
	}`)

	payload, err := DecodeAirQuality(body)
	if err != nil {
		t.Fatalf("decode failed: %v", err)
	}
	if payload.Kind != PayloadIndexes {
		t.Fatalf("expected indexes variant, got %v", payload.Kind)
	}

	reading, err := payload.Normalize()
	if err != nil {
		t.Fatalf("normalize failed: %v", err)
	}
	if reading.Index != 182 || reading.CategoryLabel != "Moderate air quality" || reading.DominantPollutant != "PM25" {
		t.Fatalf("unexpected reading: %+v", reading)
	}
	if reading.Concentrations["NO2"] != 20.1 {
		t.Fatalf("unexpected concentrations: %+v", reading.Concentrations)
	}
	if reading.ObservedAt.IsZero() {
		t.Fatal("expected observation time")
	}
}

func TestNormalizeIndexesUniversalOnly(t *testing.T) {
	payload, err := DecodeAirQuality([]byte(`{"indexes":[{"code":"uaqi","aqi":71}],"pollutants":[{"code":"o3","concentration":{"value":40}}]}`))
	if err != nil {
		t.Fatalf("decode failed: %v", err)
	}
	reading, err := payload.Normalize()
	if err != nil {
		t.Fatalf("normalize failed: %v", err)
	}
	if reading.Index != 71 || reading.DominantPollutant != "O3" || reading.CategoryLabel != "Moderate" {
		t.Fatalf("unexpected reading: %+v", reading)
	}
}

func TestDecodeAirQualityRejectsUnknownShapes(t *testing.T) {
	if _, err := DecodeAirQuality([]byte(`{"error":{"code":403}}`)); !errors.Is(err, errUnknownSchema) {
		t.Fatalf("expected errUnknownSchema, got %v", err)
	}
	if _, err := DecodeAirQuality([]byte(`not json`)); err == nil {
		t.Fatal("expected decode error")
	}

	payload, err := DecodeAirQuality([]byte(`{"indexes":[]}`))
	if err != nil {
		t.Fatalf("decode failed: %v", err)
	}
	if _, err := payload.Normalize(); !errors.Is(err, errNoIndex) {
		t.Fatalf("expected errNoIndex, got %v", err)
	}
}

func TestIndexCategoryBoundaries(t *testing.T) {
	cases := map[int]string{
		0:   "Good",
		50:  "Good",
		51:  "Moderate",
		150: "Unhealthy for Sensitive Groups",
		300: "Very Unhealthy",
		301: "Hazardous",
		999: "Hazardous",
	}
	for aqi, want := range cases {
		if got := IndexCategory(aqi); got != want {
			t.Fatalf("IndexCategory(%d) = %q, want %q", aqi, got, want)
		}
	}
}

func TestFetchErrorKind(t *testing.T) {
	err := Rejected(CategoryWeather, "weatherapi", 503, errors.New("boom"))
	if KindOf(err) != KindUpstreamRejected {
		t.Fatalf("unexpected kind %q", KindOf(err))
	}
	if KindOf(errors.New("plain")) != "" {
		t.Fatal("plain errors have no kind")
	}
	if err.Error() != "weatherapi weather: upstream_rejected (status 503): boom" {
		t.Fatalf("unexpected message %q", err.Error())
	}
}

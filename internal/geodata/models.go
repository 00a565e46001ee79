package geodata

import "time"

// Category identifies one of the independent geo-keyed data feeds.
type Category string

const (
	CategoryAirQuality Category = "air_quality"
	CategoryWeather    Category = "weather"
	CategorySoil       Category = "soil"
)

// Categories lists every category in display order.
var Categories = []Category{CategoryAirQuality, CategoryWeather, CategorySoil}

// Reading is the value a fetcher produces. Readings are replaced wholesale
// on every fetch; no history is kept.
type Reading interface {
	Category() Category
}

// AirQualityReading is the normalized view over both air-quality schemas.
type AirQualityReading struct {
	Source            string             `json:"source"`
	Index             int                `json:"index"`
	CategoryLabel     string             `json:"category"`
	DominantPollutant string             `json:"dominantPollutant"`
	Concentrations    map[string]float64 `json:"concentrations"`
	ObservedAt        time.Time          `json:"observedAt"`
}

func (AirQualityReading) Category() Category { return CategoryAirQuality }

// WeatherReading holds current conditions at a coordinate.
type WeatherReading struct {
	TempC         float64 `json:"tempC"`
	ConditionText string  `json:"conditionText"`
	ConditionIcon string  `json:"conditionIcon"`
	WindKph       float64 `json:"windKph"`
	WindDir       string  `json:"windDir"`
	HumidityPct   int     `json:"humidityPct"`
	FeelsLikeC    float64 `json:"feelsLikeC"`
	VisibilityKm  float64 `json:"visibilityKm"`
	LocalTime     string  `json:"localTime"`
}

func (WeatherReading) Category() Category { return CategoryWeather }

// ClassProbability is one soil class candidate.
type ClassProbability struct {
	ClassName      string  `json:"className"`
	ProbabilityPct float64 `json:"probabilityPct"`
}

// SoilReading is a soil classification, candidates ordered as the upstream
// returned them (most probable first).
type SoilReading struct {
	DominantClass string             `json:"dominantClass"`
	Probabilities []ClassProbability `json:"probabilities"`
	Longitude     float64            `json:"longitude"`
	Latitude      float64            `json:"latitude"`
}

func (SoilReading) Category() Category { return CategorySoil }

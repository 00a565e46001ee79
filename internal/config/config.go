package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"go.uber.org/zap/zapcore"
)

type AppConfig struct {
	Port     string
	LogLevel zapcore.Level

	// DotEnvErr is set when no .env file could be loaded; it is informational.
	DotEnvErr error

	Fetch FetchConfig

	GoogleAirQualityAPIKey string
	WAQIToken              string
	AirQualitySource       string
	WeatherAPIKey          string
	GoogleGeocodingAPIKey  string
	SoilClasses            int

	DefaultLocation string
	MapZoom         int
	AutoOpenPopup   bool

	// RefreshInterval controls how often every live view re-fetches its selection.
	RefreshInterval time.Duration

	// View retention.
	ViewMaxAge time.Duration // views idle longer than this are torn down (0 = never)
	MaxViews   int           // max number of live views (0 = unlimited)

	BaseURLs BaseURLs
}

// FetchConfig holds the resilience settings shared by all upstream calls.
type FetchConfig struct {
	Timeout        time.Duration
	MaxRetries     int
	BackoffInitial time.Duration
	BackoffMax     time.Duration
	RateLimit      float64
	RateBurst      int
}

// BaseURLs overrides upstream hosts; empty means the public endpoint.
type BaseURLs struct {
	GoogleAirQuality string
	WAQI             string
	WeatherAPI       string
	SoilGrids        string
}

// Load reads configuration from environment with sensible defaults.
func Load() (*AppConfig, error) {
	cfg := &AppConfig{}
	if err := godotenv.Load(); err != nil {
		cfg.DotEnvErr = err
	}

	cfg.Port = getenvDefault("PORT", "8080")

	level, err := zapcore.ParseLevel(getenvDefault("LOG_LEVEL", "info"))
	if err != nil {
		return nil, fmt.Errorf("invalid LOG_LEVEL: %w", err)
	}
	cfg.LogLevel = level

	if cfg.Fetch.Timeout, err = getenvDuration("FETCH_TIMEOUT", "10s"); err != nil {
		return nil, err
	}
	cfg.Fetch.MaxRetries = getenvInt("FETCH_MAX_RETRIES", 2)
	if cfg.Fetch.BackoffInitial, err = getenvDuration("FETCH_BACKOFF_INITIAL", "500ms"); err != nil {
		return nil, err
	}
	if cfg.Fetch.BackoffMax, err = getenvDuration("FETCH_BACKOFF_MAX", "5s"); err != nil {
		return nil, err
	}
	if cfg.Fetch.RateLimit, err = getenvFloat("FETCH_RATE_LIMIT", 5); err != nil {
		return nil, err
	}
	cfg.Fetch.RateBurst = getenvInt("FETCH_RATE_BURST", 10)

	if cfg.Fetch.Timeout <= 0 {
		return nil, fmt.Errorf("FETCH_TIMEOUT must be positive")
	}
	if cfg.Fetch.MaxRetries < 0 || cfg.Fetch.BackoffInitial <= 0 {
		return nil, fmt.Errorf("invalid backoff: FETCH_MAX_RETRIES=%d FETCH_BACKOFF_INITIAL=%s",
			cfg.Fetch.MaxRetries, cfg.Fetch.BackoffInitial)
	}

	cfg.GoogleAirQualityAPIKey = os.Getenv("GOOGLE_AIR_QUALITY_API_KEY")
	cfg.WAQIToken = os.Getenv("WAQI_TOKEN")
	cfg.WeatherAPIKey = os.Getenv("WEATHERAPI_API_KEY")
	cfg.GoogleGeocodingAPIKey = os.Getenv("GOOGLE_GEOCODING_API_KEY")
	cfg.SoilClasses = getenvInt("SOIL_CLASSES", 5)

	cfg.AirQualitySource = strings.ToLower(getenvDefault("AIR_QUALITY_SOURCE", "google"))
	switch cfg.AirQualitySource {
	case "google", "waqi":
	default:
		return nil, fmt.Errorf("invalid AIR_QUALITY_SOURCE %q: want google or waqi", cfg.AirQualitySource)
	}

	cfg.DefaultLocation = getenvDefault("DEFAULT_LOCATION", "Delhi")
	cfg.MapZoom = getenvInt("MAP_ZOOM", 10)
	if cfg.AutoOpenPopup, err = strconv.ParseBool(getenvDefault("AUTO_OPEN_POPUP", "true")); err != nil {
		return nil, fmt.Errorf("invalid AUTO_OPEN_POPUP: %w", err)
	}

	// Periodic refresh: default 15 minutes.
	if cfg.RefreshInterval, err = getenvDuration("REFRESH_INTERVAL", "15m"); err != nil {
		return nil, err
	}
	if cfg.ViewMaxAge, err = getenvDuration("VIEW_MAX_AGE", "1h"); err != nil {
		return nil, err
	}
	cfg.MaxViews = getenvInt("MAX_VIEWS", 500)

	cfg.BaseURLs = BaseURLs{
		GoogleAirQuality: os.Getenv("GOOGLE_AIR_QUALITY_BASE_URL"),
		WAQI:             os.Getenv("WAQI_BASE_URL"),
		WeatherAPI:       os.Getenv("WEATHERAPI_BASE_URL"),
		SoilGrids:        os.Getenv("SOILGRIDS_BASE_URL"),
	}

	return cfg, nil
}

func getenvDefault(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func getenvInt(key string, def int) int {
	if v := os.Getenv(key); v != "" {
		n, err := strconv.Atoi(v)
		if err == nil {
			return n
		}
	}
	return def
}

func getenvFloat(key string, def float64) (float64, error) {
	v := os.Getenv(key)
	if v == "" {
		return def, nil
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid %s: %w", key, err)
	}
	return f, nil
}

func getenvDuration(key, def string) (time.Duration, error) {
	d, err := time.ParseDuration(getenvDefault(key, def))
	if err != nil {
		return 0, fmt.Errorf("invalid %s: %w", key, err)
	}
	return d, nil
}

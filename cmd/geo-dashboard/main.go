package main

import (
	"context"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/gofiber/fiber/v2/middleware/requestid"
	"go.uber.org/zap"

	httpapi "github.com/i474232898/geo-dashboard/internal/api/http"
	"github.com/i474232898/geo-dashboard/internal/config"
	"github.com/i474232898/geo-dashboard/internal/dashboard"
	"github.com/i474232898/geo-dashboard/internal/geo"
	"github.com/i474232898/geo-dashboard/internal/geodata"
	"github.com/i474232898/geo-dashboard/internal/geodata/providers"
	"github.com/i474232898/geo-dashboard/internal/mapsurface"
	"github.com/i474232898/geo-dashboard/internal/scheduler"
	"github.com/i474232898/geo-dashboard/internal/store"
)

func main() {
	// Load configuration.
	cfg, err := config.Load()
	if err != nil {
		panic("failed to load config: " + err.Error())
	}

	zcfg := zap.NewProductionConfig()
	zcfg.Level = zap.NewAtomicLevelAt(cfg.LogLevel)
	log, err := zcfg.Build()
	if err != nil {
		panic("failed to build logger: " + err.Error())
	}
	defer func() { _ = log.Sync() }()
	zap.ReplaceGlobals(log)

	if cfg.DotEnvErr != nil {
		log.Info("no .env file loaded", zap.Error(cfg.DotEnvErr))
	}

	// Shared HTTP client for outbound provider calls.
	httpCfg := providers.HTTPClientConfig{
		Client: &http.Client{Timeout: cfg.Fetch.Timeout},
		Backoff: providers.BackoffConfig{
			MaxRetries:      cfg.Fetch.MaxRetries,
			InitialInterval: cfg.Fetch.BackoffInitial,
			MaxInterval:     cfg.Fetch.BackoffMax,
		},
		RateLimit: cfg.Fetch.RateLimit,
		Burst:     cfg.Fetch.RateBurst,
		Logger:    log,
	}

	// Providers with resilience (rate limit + backoff + circuit breaker).
	fetchers := dashboard.Fetchers{
		AirQuality: map[string]geodata.Fetcher{
			providers.SourceGoogle: providers.NewGoogleAirQualityProvider(httpCfg, cfg.GoogleAirQualityAPIKey,
				baseURL(cfg.BaseURLs.GoogleAirQuality)...),
			providers.SourceWAQI: providers.NewWAQIProvider(httpCfg, cfg.WAQIToken,
				baseURL(cfg.BaseURLs.WAQI)...),
		},
		Weather: providers.NewWeatherAPIProvider(httpCfg, cfg.WeatherAPIKey, baseURL(cfg.BaseURLs.WeatherAPI)...),
		Soil:    providers.NewSoilGridsProvider(httpCfg, cfg.SoilClasses, baseURL(cfg.BaseURLs.SoilGrids)...),
	}
	if cfg.GoogleAirQualityAPIKey == "" {
		log.Warn("GOOGLE_AIR_QUALITY_API_KEY not set; google air quality source will report errors")
	}
	if cfg.WAQIToken == "" {
		log.Warn("WAQI_TOKEN not set; waqi air quality source will report errors")
	}
	if cfg.WeatherAPIKey == "" {
		log.Warn("WEATHERAPI_API_KEY not set; weather panel will report errors")
	}

	// Free-text geocoding is optional.
	var resolver geo.Resolver
	if g := geo.NewGeocoder(cfg.GoogleGeocodingAPIKey); g != nil {
		resolver = g
	}

	views := store.NewMemoryStore[*dashboard.View](cfg.MaxViews, cfg.ViewMaxAge)
	manager := dashboard.NewManager(
		geo.DefaultRegistry(),
		resolver,
		mapsurface.New(mapsurface.NewCanvas(), log),
		fetchers,
		dashboard.Settings{
			DefaultLocation: cfg.DefaultLocation,
			DefaultSource:   cfg.AirQualitySource,
			Zoom:            cfg.MapZoom,
			AutoOpenPopup:   cfg.AutoOpenPopup,
			FetchTimeout:    cfg.Fetch.Timeout,
		},
		views,
		log,
	)
	defer manager.Close()

	// Scheduler that periodically refreshes views and prunes idle ones.
	sched := scheduler.New(manager, cfg.RefreshInterval, log)
	if err := sched.Start(); err != nil {
		log.Fatal("failed to start scheduler", zap.Error(err))
	}
	defer sched.Stop()

	// Basic app configuration
	app := fiber.New(fiber.Config{
		AppName:               "geo-dashboard",
		DisableStartupMessage: true,
		ReadTimeout:           10 * time.Second,
		ErrorHandler:          httpapi.ErrorHandler,
	})

	// Global middleware
	app.Use(requestid.New())
	app.Use(logger.New())
	app.Use(recover.New())
	app.Use(cors.New())

	// Basic health endpoint
	app.Get("/health", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{
			"status":  "ok",
			"service": "geo-dashboard",
			"views":   views.Len(),
		})
	})

	// API routes.
	httpapi.RegisterRoutes(app, manager, httpapi.Options{WaitTimeout: cfg.Fetch.Timeout})

	go func() {
		log.Info("listening", zap.String("port", cfg.Port))
		if err := app.Listen(":" + cfg.Port); err != nil {
			log.Error("fiber server stopped", zap.Error(err))
		}
	}()

	// Wait for termination signal
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	<-ctx.Done()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := app.ShutdownWithContext(shutdownCtx); err != nil {
		log.Error("error during shutdown", zap.Error(err))
	}
}

func baseURL(u string) []providers.Option {
	if u == "" {
		return nil
	}
	return []providers.Option{providers.WithBaseURL(u)}
}

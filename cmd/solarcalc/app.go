package main

import (
	"fmt"
	"log/slog"
	"net/http"
	"os"

	"github.com/saviottt/solarcalc/internal/climate"
	"github.com/saviottt/solarcalc/internal/climate/providers"
	"github.com/saviottt/solarcalc/internal/config"
	"github.com/saviottt/solarcalc/internal/estimator"
	"github.com/saviottt/solarcalc/internal/geocode"
	"github.com/saviottt/solarcalc/internal/logging"
	"github.com/saviottt/solarcalc/internal/predictor"
	"github.com/saviottt/solarcalc/internal/store"
)

// app holds the components shared by every command.
type app struct {
	cfg     *config.AppConfig
	logger  *slog.Logger
	climate *climate.Service
	engine  *estimator.Engine
}

func newApp(configPath string) (*app, error) {
	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}

	logger := slog.New(logging.NewConsoleHandler(os.Stderr, logging.LevelFromString(cfg.LogLevel)))
	slog.SetDefault(logger)

	model, err := loadPredictor(cfg.Predictor.ModelPath, logger)
	if err != nil {
		return nil, err
	}
	logger.Info("irradiance model loaded",
		slog.String("schema", model.Schema().Version),
		slog.String("kind", string(model.Kind())))

	tariff, err := cfg.Tariff.Build()
	if err != nil {
		return nil, fmt.Errorf("invalid default tariff: %w", err)
	}

	// Shared HTTP client for outbound climate calls.
	httpClient := &http.Client{Timeout: cfg.HTTPTimeout}
	source := providers.NewNASAPowerProvider(httpClient, cfg.Climate.BaseURL)
	cache := store.NewMemoryStore(cfg.Climate.CacheMaxEntries, cfg.Climate.CacheMaxAge)
	svc := climate.NewService(cache, source, cfg.HTTPTimeout)

	engine := estimator.NewEngine(svc, model,
		estimator.WithDefaultTariff(tariff),
		estimator.WithResolver(geocode.NewGoogle(cfg.Geocoder.APIKey)),
	)

	return &app{cfg: cfg, logger: logger, climate: svc, engine: engine}, nil
}

func loadPredictor(path string, logger *slog.Logger) (*predictor.Model, error) {
	if path == "" {
		logger.Warn("using the bundled illustrative irradiance model; set predictor.model_path to a trained artifact")
		return predictor.Default()
	}
	return predictor.Load(path)
}

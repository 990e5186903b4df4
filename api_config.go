package main

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

const (
	locationSourceClient = "client"
	locationSourceStatic = "static"
	locationSourceNone   = "none"
)

type apiConfig struct {
	ometeoForecastURL    string
	ometeoGeocodingURL   string
	httpClient           *http.Client
	locationSource       string
	searchDebounce       time.Duration
	fenceRequests        bool
	sessionIdleTimeout   time.Duration
	sessionSweepInterval time.Duration
	port                 string
	devMode              bool
	logger               *slog.Logger
	gateway              WeatherGateway
	sessions             *SessionStore
}

// getRequiredEnv retrieves an environment variable by key, and errors if it's not set or empty.
func getRequiredEnv(key string, logger *slog.Logger) (string, error) {
	val, ok := os.LookupEnv(key)
	if !ok || val == "" {
		logger.Error("environment variable must be set", "key", key)
		return "", fmt.Errorf("environment variable %s must be set", key)
	}
	return val, nil
}

// getEnv retrieves an environment variable by key, with a fallback value.
func getEnv(key, fallback string, logger *slog.Logger) string {
	if val, ok := os.LookupEnv(key); ok && val != "" {
		return val
	}
	logger.Info("environment variable not set, using fallback", "key", key, "fallback", fallback)
	return fallback
}

// getEnvAsInt retrieves an environment variable as an integer, with a fallback value.
func getEnvAsInt(key string, fallback int, logger *slog.Logger) int {
	valStr, ok := os.LookupEnv(key)
	if !ok {
		logger.Info("environment variable not set, using fallback", "key", key, "fallback", fallback)
		return fallback
	}
	val, err := strconv.Atoi(valStr)
	if err != nil {
		logger.Warn("invalid integer value for environment variable, using fallback", "key", key, "value", valStr, "error", err)
		return fallback
	}
	return val
}

// getEnvAsPositiveInt is getEnvAsInt for values that must be greater than zero.
func getEnvAsPositiveInt(key string, fallback int, logger *slog.Logger) int {
	val := getEnvAsInt(key, fallback, logger)
	if val <= 0 {
		logger.Warn("non-positive value for environment variable, using fallback", "key", key, "value", val)
		return fallback
	}
	return val
}

// getEnvAsBool retrieves an environment variable as a boolean, with a fallback value.
func getEnvAsBool(key string, fallback bool, logger *slog.Logger) bool {
	valStr, ok := os.LookupEnv(key)
	if !ok {
		logger.Info("environment variable not set, using fallback", "key", key, "fallback", fallback)
		return fallback
	}
	val, err := strconv.ParseBool(valStr)
	if err != nil {
		logger.Warn("invalid boolean value for environment variable, using fallback", "key", key, "value", valStr, "error", err)
		return fallback
	}
	return val
}

// getRequiredEnvAsFloat retrieves a required environment variable as a float.
func getRequiredEnvAsFloat(key string, logger *slog.Logger) (float64, error) {
	valStr, err := getRequiredEnv(key, logger)
	if err != nil {
		return 0, err
	}
	val, err := strconv.ParseFloat(valStr, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid float value for %s: %w", key, err)
	}
	return val, nil
}

func newLogger(w io.Writer, devMode bool) *slog.Logger {
	if devMode {
		return slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{
			Level: slog.LevelDebug,
		}))
	}
	return slog.New(slog.NewJSONHandler(w, nil))
}

// NewAPIConfig reads the environment (and an optional .env file) and wires
// the gateway and the session store. Logs go to w.
func NewAPIConfig(w io.Writer) (*apiConfig, error) {
	devMode, err := strconv.ParseBool(os.Getenv("DEV_MODE"))
	if err != nil {
		devMode = false
	}
	logger := newLogger(w, devMode)

	if err := godotenv.Load(); err != nil {
		logger.Info("no .env file found, relying on environment variables")
	}

	timeoutSec := getEnvAsInt("HTTP_TIMEOUT_SEC", 0, logger)
	if timeoutSec < 0 {
		logger.Warn("negative HTTP timeout, using transport default", "value", timeoutSec)
		timeoutSec = 0
	}
	httpClient := &http.Client{
		Timeout:   time.Duration(timeoutSec) * time.Second,
		Transport: newMetricsTransport(http.DefaultTransport),
	}

	cfg := apiConfig{
		ometeoForecastURL:    getEnv("OMETEO_FORECAST_URL", "https://api.open-meteo.com/v1/forecast", logger),
		ometeoGeocodingURL:   getEnv("OMETEO_GEOCODING_URL", "https://geocoding-api.open-meteo.com/v1/search", logger),
		httpClient:           httpClient,
		locationSource:       strings.ToLower(getEnv("LOCATION_SOURCE", locationSourceClient, logger)),
		searchDebounce:       time.Duration(getEnvAsPositiveInt("SEARCH_DEBOUNCE_MS", 300, logger)) * time.Millisecond,
		fenceRequests:        getEnvAsBool("FENCE_REQUESTS", true, logger),
		sessionIdleTimeout:   time.Duration(getEnvAsPositiveInt("SESSION_IDLE_TIMEOUT_MIN", 30, logger)) * time.Minute,
		sessionSweepInterval: time.Duration(getEnvAsPositiveInt("SESSION_SWEEP_INTERVAL_MIN", 5, logger)) * time.Minute,
		port:                 getEnv("PORT", "8080", logger),
		devMode:              devMode,
		logger:               logger,
	}

	newSource, err := positionSourceFactory(cfg.locationSource, logger)
	if err != nil {
		return nil, err
	}

	cfg.gateway = NewOMeteoGateway(cfg.ometeoForecastURL, cfg.ometeoGeocodingURL, cfg.httpClient, logger)
	cfg.sessions = NewSessionStore(cfg.gateway, SessionSettings{
		NewSource:      newSource,
		SearchDebounce: cfg.searchDebounce,
		Fencing:        cfg.fenceRequests,
	}, logger)

	return &cfg, nil
}

// positionSourceFactory picks how sessions learn the device position.
// "client" relays browser lookups, "static" serves DEVICE_LATITUDE and
// DEVICE_LONGITUDE, and "none" leaves geolocation unsupported.
func positionSourceFactory(kind string, logger *slog.Logger) (func() PositionSource, error) {
	switch kind {
	case locationSourceClient:
		return func() PositionSource { return NewReportedSource() }, nil
	case locationSourceStatic:
		lat, err := getRequiredEnvAsFloat("DEVICE_LATITUDE", logger)
		if err != nil {
			return nil, err
		}
		lon, err := getRequiredEnvAsFloat("DEVICE_LONGITUDE", logger)
		if err != nil {
			return nil, err
		}
		if err := validate.Struct(coordinateQuery{Latitude: lat, Longitude: lon}); err != nil {
			return nil, fmt.Errorf("invalid device coordinates: %w", err)
		}
		source := StaticSource{Latitude: lat, Longitude: lon}
		return func() PositionSource { return source }, nil
	case locationSourceNone:
		return nil, nil
	default:
		return nil, errors.New("LOCATION_SOURCE must be one of client, static or none")
	}
}

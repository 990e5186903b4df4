package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"strings"
)

// This file is the forecast half of the weather gateway. Together with
// geocoding.go it is the only code in the service that talks to the network.
// Both operations are idempotent GETs with no retry, and every failure leaves
// the gateway as a *WeatherError.

var (
	ometeoCurrentVars = []string{
		"temperature_2m",
		"apparent_temperature",
		"relative_humidity_2m",
		"wind_speed_10m",
		"wind_direction_10m",
		"pressure_msl",
		"visibility",
		"uv_index",
		"weather_code",
	}
	ometeoDailyVars = []string{
		"weather_code",
		"temperature_2m_max",
		"temperature_2m_min",
		"precipitation_probability_max",
		"sunrise",
		"sunset",
	}
	ometeoHourlyVars = []string{
		"weather_code",
		"temperature_2m",
		"precipitation_probability",
		"relative_humidity_2m",
		"wind_speed_10m",
	}
)

// WeatherGateway is what the state controller needs from the provider.
type WeatherGateway interface {
	FetchForecast(ctx context.Context, latitude, longitude float64) (WeatherSnapshot, error)
	SearchLocations(ctx context.Context, query string) ([]Location, error)
}

// OMeteoGateway implements WeatherGateway against the Open-Meteo forecast and
// geocoding APIs.
type OMeteoGateway struct {
	forecastURL  string
	geocodingURL string
	httpClient   *http.Client
	logger       *slog.Logger
}

func NewOMeteoGateway(forecastURL, geocodingURL string, httpClient *http.Client, logger *slog.Logger) *OMeteoGateway {
	return &OMeteoGateway{
		forecastURL:  forecastURL,
		geocodingURL: geocodingURL,
		httpClient:   httpClient,
		logger:       logger.With("component", "gateway"),
	}
}

// FetchForecast retrieves current, daily and hourly blocks for the given
// coordinates and returns them transformed, tagged with a location synthesized
// from the same coordinates.
func (g *OMeteoGateway) FetchForecast(ctx context.Context, latitude, longitude float64) (WeatherSnapshot, error) {
	snapshot, err := g.fetchForecast(ctx, latitude, longitude)
	if err != nil {
		weatherErr := newWeatherError(CodeFetchError, err, "Failed to fetch weather data")
		gatewayRequestsTotal.WithLabelValues("forecast", "error").Inc()
		g.logger.Warn("forecast fetch failed", "latitude", latitude, "longitude", longitude, "error", err)
		return WeatherSnapshot{}, weatherErr
	}
	gatewayRequestsTotal.WithLabelValues("forecast", "ok").Inc()
	return snapshot, nil
}

func (g *OMeteoGateway) fetchForecast(ctx context.Context, latitude, longitude float64) (WeatherSnapshot, error) {
	forecastURL, err := g.wrapForForecast(latitude, longitude)
	if err != nil {
		return WeatherSnapshot{}, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, forecastURL, nil)
	if err != nil {
		return WeatherSnapshot{}, err
	}

	resp, err := g.httpClient.Do(req)
	if err != nil {
		return WeatherSnapshot{}, err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return WeatherSnapshot{}, httpStatusError(resp.StatusCode)
	}

	response, err := ParseForecastOMeteo(resp.Body)
	if err != nil {
		return WeatherSnapshot{}, err
	}

	g.logger.Debug("forecast fetched",
		"latitude", latitude,
		"longitude", longitude,
		"days", len(response.Daily.Time),
		"hours", len(response.Hourly.Time),
	)
	return transformForecast(response, synthesizeLocation(latitude, longitude)), nil
}

// wrapForForecast builds the forecast request URL. Coordinates are passed with
// full precision, as the dashboard received them.
func (g *OMeteoGateway) wrapForForecast(latitude, longitude float64) (string, error) {
	baseURL, err := url.Parse(g.forecastURL)
	if err != nil {
		return "", fmt.Errorf("failed to parse base forecast URL: %w", err)
	}

	q := baseURL.Query()
	q.Set("latitude", strconv.FormatFloat(latitude, 'f', -1, 64))
	q.Set("longitude", strconv.FormatFloat(longitude, 'f', -1, 64))
	q.Set("current", strings.Join(ometeoCurrentVars, ","))
	q.Set("daily", strings.Join(ometeoDailyVars, ","))
	q.Set("hourly", strings.Join(ometeoHourlyVars, ","))
	q.Set("timezone", "auto")
	baseURL.RawQuery = q.Encode()

	return baseURL.String(), nil
}

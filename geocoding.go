package main

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
)

// This file provides the location search half of the weather gateway: turning
// free text typed into the dashboard search box into up to five candidate
// locations via the Open-Meteo geocoding API.

const (
	geocodingResultCount = "5"
	geocodingLanguage    = "en"
)

// SearchLocations returns the provider's candidates in provider order. An
// empty slice with a nil error is a valid outcome, not a failure.
func (g *OMeteoGateway) SearchLocations(ctx context.Context, query string) ([]Location, error) {
	locations, err := g.searchLocations(ctx, query)
	if err != nil {
		weatherErr := newWeatherError(CodeSearchError, err, "Failed to search location")
		gatewayRequestsTotal.WithLabelValues("search", "error").Inc()
		g.logger.Warn("location search failed", "query", query, "error", err)
		return nil, weatherErr
	}
	gatewayRequestsTotal.WithLabelValues("search", "ok").Inc()
	return locations, nil
}

func (g *OMeteoGateway) searchLocations(ctx context.Context, query string) ([]Location, error) {
	normalized, err := normalizeQuery(query)
	if err != nil {
		return nil, fmt.Errorf("could not normalize query: %w", err)
	}

	searchURL, err := g.wrapForSearch(normalized)
	if err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, searchURL, nil)
	if err != nil {
		return nil, err
	}

	resp, err := g.httpClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, httpStatusError(resp.StatusCode)
	}

	locations, err := parseGeocodingOMeteo(resp.Body)
	if err != nil {
		return nil, err
	}

	g.logger.Debug("location search completed", "query", normalized, "results", len(locations))
	return locations, nil
}

func (g *OMeteoGateway) wrapForSearch(query string) (string, error) {
	baseURL, err := url.Parse(g.geocodingURL)
	if err != nil {
		return "", fmt.Errorf("failed to parse base geocoding URL: %w", err)
	}

	q := baseURL.Query()
	q.Set("name", query)
	q.Set("count", geocodingResultCount)
	q.Set("language", geocodingLanguage)
	q.Set("format", "json")
	baseURL.RawQuery = q.Encode()

	return baseURL.String(), nil
}

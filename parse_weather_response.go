package main

import (
	"encoding/json"
	"fmt"
	"io"
)

// hourlyForecastLength is how many hourly entries the dashboard shows.
const hourlyForecastLength = 12

// ForecastResponseOMeteo is the wire shape of the Open-Meteo forecast endpoint
// for the variable lists requested by forecastURL.
type ForecastResponseOMeteo struct {
	Current CurrentOMeteo `json:"current"`
	Daily   DailyOMeteo   `json:"daily"`
	Hourly  HourlyOMeteo  `json:"hourly"`
}

type CurrentOMeteo struct {
	Temperature2m      float64 `json:"temperature_2m"`
	ApparentTemp       float64 `json:"apparent_temperature"`
	RelativeHumidity2m float64 `json:"relative_humidity_2m"`
	WindSpeed10m       float64 `json:"wind_speed_10m"`
	WindDirection10m   float64 `json:"wind_direction_10m"`
	PressureMSL        float64 `json:"pressure_msl"`
	Visibility         float64 `json:"visibility"`
	UVIndex            float64 `json:"uv_index"`
	WeatherCode        *int    `json:"weather_code"`
}

type DailyOMeteo struct {
	Time                        []string  `json:"time"`
	Temperature2mMax            []float64 `json:"temperature_2m_max"`
	Temperature2mMin            []float64 `json:"temperature_2m_min"`
	PrecipitationProbabilityMax []float64 `json:"precipitation_probability_max"`
	WeatherCode                 []*int    `json:"weather_code"`
	Sunrise                     []string  `json:"sunrise"`
	Sunset                      []string  `json:"sunset"`
}

type HourlyOMeteo struct {
	Time                     []string  `json:"time"`
	Temperature2m            []float64 `json:"temperature_2m"`
	WeatherCode              []*int    `json:"weather_code"`
	PrecipitationProbability []float64 `json:"precipitation_probability"`
	RelativeHumidity2m       []float64 `json:"relative_humidity_2m"`
	WindSpeed10m             []float64 `json:"wind_speed_10m"`
}

// GeocodingResponseOMeteo is the wire shape of the Open-Meteo geocoding
// endpoint. A missing results field means zero matches.
type GeocodingResponseOMeteo struct {
	Results []GeocodingResultOMeteo `json:"results"`
}

type GeocodingResultOMeteo struct {
	Name      string  `json:"name"`
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
	Country   string  `json:"country"`
	Timezone  string  `json:"timezone"`
}

// ParseForecastOMeteo decodes a forecast body and checks its shape, so that
// transformForecast can index the parallel arrays without bounds failures.
func ParseForecastOMeteo(body io.Reader) (ForecastResponseOMeteo, error) {
	var response ForecastResponseOMeteo
	if err := json.NewDecoder(body).Decode(&response); err != nil {
		return ForecastResponseOMeteo{}, err
	}
	if err := validateForecastResponse(response); err != nil {
		return ForecastResponseOMeteo{}, err
	}
	return response, nil
}

// validateForecastResponse requires every daily array to share the index space
// of daily.time and every hourly array to share the index space of hourly.time.
func validateForecastResponse(response ForecastResponseOMeteo) error {
	days := len(response.Daily.Time)
	daily := []struct {
		name string
		n    int
	}{
		{"daily.temperature_2m_max", len(response.Daily.Temperature2mMax)},
		{"daily.temperature_2m_min", len(response.Daily.Temperature2mMin)},
		{"daily.precipitation_probability_max", len(response.Daily.PrecipitationProbabilityMax)},
		{"daily.weather_code", len(response.Daily.WeatherCode)},
		{"daily.sunrise", len(response.Daily.Sunrise)},
		{"daily.sunset", len(response.Daily.Sunset)},
	}
	for _, field := range daily {
		if field.n != days {
			return fmt.Errorf("%w: %s has %d entries, want %d", ErrMalformedResponse, field.name, field.n, days)
		}
	}

	hours := len(response.Hourly.Time)
	hourly := []struct {
		name string
		n    int
	}{
		{"hourly.temperature_2m", len(response.Hourly.Temperature2m)},
		{"hourly.weather_code", len(response.Hourly.WeatherCode)},
		{"hourly.precipitation_probability", len(response.Hourly.PrecipitationProbability)},
		{"hourly.relative_humidity_2m", len(response.Hourly.RelativeHumidity2m)},
		{"hourly.wind_speed_10m", len(response.Hourly.WindSpeed10m)},
	}
	for _, field := range hourly {
		if field.n != hours {
			return fmt.Errorf("%w: %s has %d entries, want %d", ErrMalformedResponse, field.name, field.n, hours)
		}
	}
	return nil
}

// transformForecast converts a validated provider response into the domain
// model. It is pure: the same input always yields the same snapshot, and
// provider ordering is kept as-is.
func transformForecast(response ForecastResponseOMeteo, location Location) WeatherSnapshot {
	current := response.Current
	currentInfo := lookupWeatherCodePtr(current.WeatherCode)

	daily := make([]DailyForecastEntry, len(response.Daily.Time))
	for i, date := range response.Daily.Time {
		info := lookupWeatherCodePtr(response.Daily.WeatherCode[i])
		daily[i] = DailyForecastEntry{
			Date:                     date,
			MaxTemp:                  response.Daily.Temperature2mMax[i],
			MinTemp:                  response.Daily.Temperature2mMin[i],
			PrecipitationProbability: response.Daily.PrecipitationProbabilityMax[i],
			Description:              info.Description,
			Icon:                     info.Icon,
			Sunrise:                  response.Daily.Sunrise[i],
			Sunset:                   response.Daily.Sunset[i],
		}
	}

	hours := min(hourlyForecastLength, len(response.Hourly.Time))
	hourly := make([]HourlyForecastEntry, hours)
	for i := range hours {
		info := lookupWeatherCodePtr(response.Hourly.WeatherCode[i])
		hourly[i] = HourlyForecastEntry{
			Time:                     response.Hourly.Time[i],
			Temperature:              response.Hourly.Temperature2m[i],
			PrecipitationProbability: response.Hourly.PrecipitationProbability[i],
			Humidity:                 response.Hourly.RelativeHumidity2m[i],
			WindSpeed:                response.Hourly.WindSpeed10m[i],
			Description:              info.Description,
			Icon:                     info.Icon,
		}
	}

	return WeatherSnapshot{
		Current: CurrentConditions{
			Temperature:   current.Temperature2m,
			FeelsLike:     current.ApparentTemp,
			Humidity:      current.RelativeHumidity2m,
			WindSpeed:     current.WindSpeed10m,
			WindDirection: current.WindDirection10m,
			Pressure:      current.PressureMSL,
			Visibility:    current.Visibility,
			UVIndex:       current.UVIndex,
			Description:   currentInfo.Description,
			Icon:          currentInfo.Icon,
		},
		Daily:    daily,
		Hourly:   hourly,
		Location: location,
	}
}

// parseGeocodingOMeteo maps every result to a Location by direct field copy.
func parseGeocodingOMeteo(body io.Reader) ([]Location, error) {
	var response GeocodingResponseOMeteo
	if err := json.NewDecoder(body).Decode(&response); err != nil {
		return nil, err
	}

	locations := make([]Location, len(response.Results))
	for i, result := range response.Results {
		locations[i] = Location{
			Name:      result.Name,
			Latitude:  result.Latitude,
			Longitude: result.Longitude,
			Country:   result.Country,
			Timezone:  result.Timezone,
		}
	}
	return locations, nil
}

package main

// This file holds the normalized domain model served to the dashboard. Values
// are built once by transformForecast and never mutated afterwards; a new fetch
// produces a new WeatherSnapshot that replaces the old one wholesale.

type Location struct {
	Name      string  `json:"name"`
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
	Country   string  `json:"country"`
	Timezone  string  `json:"timezone"`
}

type CurrentConditions struct {
	Temperature   float64 `json:"temperature"`
	FeelsLike     float64 `json:"feels_like"`
	Humidity      float64 `json:"humidity"`
	WindSpeed     float64 `json:"wind_speed"`
	WindDirection float64 `json:"wind_direction"`
	Pressure      float64 `json:"pressure"`
	Visibility    float64 `json:"visibility"`
	UVIndex       float64 `json:"uv_index"`
	Description   string  `json:"description"`
	Icon          string  `json:"icon"`
}

type DailyForecastEntry struct {
	Date                     string  `json:"date"`
	MaxTemp                  float64 `json:"max_temp"`
	MinTemp                  float64 `json:"min_temp"`
	PrecipitationProbability float64 `json:"precipitation_probability"`
	Description              string  `json:"description"`
	Icon                     string  `json:"icon"`
	Sunrise                  string  `json:"sunrise"`
	Sunset                   string  `json:"sunset"`
}

type HourlyForecastEntry struct {
	Time                     string  `json:"time"`
	Temperature              float64 `json:"temperature"`
	PrecipitationProbability float64 `json:"precipitation_probability"`
	Humidity                 float64 `json:"humidity"`
	WindSpeed                float64 `json:"wind_speed"`
	Description              string  `json:"description"`
	Icon                     string  `json:"icon"`
}

// WeatherSnapshot is one complete, internally consistent result for one
// location. Location is always the location that produced this exact snapshot.
type WeatherSnapshot struct {
	Current  CurrentConditions     `json:"current"`
	Daily    []DailyForecastEntry  `json:"daily"`
	Hourly   []HourlyForecastEntry `json:"hourly"`
	Location Location              `json:"location"`
}

// The following structs are the JSON shapes of the dashboard API.

type SessionCreatedResponse struct {
	ID string `json:"id"`
}

type SearchResponse struct {
	Query   string     `json:"query"`
	Results []Location `json:"results"`
}

type ErrorResponse struct {
	Error string `json:"error"`
}

type ConfigResponse struct {
	DevMode          bool   `json:"dev_mode"`
	LocationSource   string `json:"location_source"`
	SearchDebounceMS int64  `json:"search_debounce_ms"`
	FenceRequests    bool   `json:"fence_requests"`
}

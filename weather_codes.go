package main

// WeatherInfo is the human description and display glyph of a WMO weather code.
type WeatherInfo struct {
	Description string `json:"description"`
	Icon        string `json:"icon"`
}

// unknownWeather is returned for any code missing from weatherCodes.
var unknownWeather = WeatherInfo{Description: "Unknown", Icon: "❓"}

// weatherCodes is initialised once at startup and never written to again, so
// concurrent lookups need no locking. Extending it is a data change only.
var weatherCodes = map[int]WeatherInfo{
	0:  {Description: "Clear sky", Icon: "☀️"},
	1:  {Description: "Mainly clear", Icon: "🌤️"},
	2:  {Description: "Partly cloudy", Icon: "⛅"},
	3:  {Description: "Overcast", Icon: "☁️"},
	45: {Description: "Foggy", Icon: "🌫️"},
	48: {Description: "Depositing rime fog", Icon: "🌫️"},
	51: {Description: "Light drizzle", Icon: "🌦️"},
	53: {Description: "Moderate drizzle", Icon: "🌦️"},
	55: {Description: "Dense drizzle", Icon: "🌧️"},
	61: {Description: "Slight rain", Icon: "🌧️"},
	63: {Description: "Moderate rain", Icon: "🌧️"},
	65: {Description: "Heavy rain", Icon: "🌧️"},
	71: {Description: "Slight snow", Icon: "🌨️"},
	73: {Description: "Moderate snow", Icon: "🌨️"},
	75: {Description: "Heavy snow", Icon: "🌨️"},
	95: {Description: "Thunderstorm", Icon: "⛈️"},
}

// lookupWeatherCode never fails: unrecognized codes map to unknownWeather.
func lookupWeatherCode(code int) WeatherInfo {
	if info, ok := weatherCodes[code]; ok {
		return info
	}
	return unknownWeather
}

// lookupWeatherCodePtr handles codes the provider sent as null or omitted.
func lookupWeatherCodePtr(code *int) WeatherInfo {
	if code == nil {
		return unknownWeather
	}
	return lookupWeatherCode(*code)
}

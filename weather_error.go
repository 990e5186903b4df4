package main

import (
	"errors"
	"fmt"
)

const (
	CodeFetchError  = "FETCH_ERROR"
	CodeSearchError = "SEARCH_ERROR"
)

// ErrMalformedResponse is wrapped by every shape failure of a provider response.
var ErrMalformedResponse = errors.New("malformed response")

// WeatherError is the only error type that leaves the gateway. The state
// controller stores it as-is, so it carries just a message and a code.
type WeatherError struct {
	Message string `json:"message"`
	Code    string `json:"code,omitempty"`

	cause error
}

func (e *WeatherError) Error() string {
	if e.Code == "" {
		return e.Message
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func (e *WeatherError) Unwrap() error {
	return e.cause
}

// newWeatherError converts any failure into a WeatherError with the given code.
// The cause's own text becomes the message; fallback is used when it has none.
func newWeatherError(code string, cause error, fallback string) *WeatherError {
	var we *WeatherError
	if errors.As(cause, &we) {
		return &WeatherError{Message: we.Message, Code: code, cause: we.cause}
	}
	msg := fallback
	if cause != nil && cause.Error() != "" {
		msg = cause.Error()
	}
	return &WeatherError{Message: msg, Code: code, cause: cause}
}

// httpStatusError mirrors the message the dashboard shows for non-2xx responses.
func httpStatusError(status int) error {
	return fmt.Errorf("HTTP error! status: %d", status)
}

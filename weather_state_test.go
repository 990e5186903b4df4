package main

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFetchWeather_Success(t *testing.T) {
	gateway := snapshotGateway()
	state := NewWeatherState(gateway, newTestLogger())

	err := state.FetchWeather(context.Background(), 51.1, 17.03)
	require.NoError(t, err)

	snap := state.Snapshot()
	require.NotNil(t, snap.WeatherData)
	assert.Equal(t, 51.1, snap.WeatherData.Location.Latitude)
	assert.False(t, snap.Loading)
	assert.Nil(t, snap.Error)
	assert.Equal(t, [][2]float64{{51.1, 17.03}}, gateway.FetchCalls())
}

func TestFetchWeather_LoadingWhileInFlight(t *testing.T) {
	release := make(chan struct{})
	entered := make(chan struct{})
	gateway := &mockGateway{
		FetchForecastFunc: func(ctx context.Context, latitude, longitude float64) (WeatherSnapshot, error) {
			close(entered)
			<-release
			return testSnapshot(latitude, longitude), nil
		},
	}
	state := NewWeatherState(gateway, newTestLogger())

	done := make(chan error, 1)
	go func() { done <- state.FetchWeather(context.Background(), 1, 1) }()
	<-entered

	snap := state.Snapshot()
	assert.True(t, snap.Loading)
	assert.Nil(t, snap.Error)

	close(release)
	require.NoError(t, <-done)
	assert.False(t, state.Snapshot().Loading)
}

func TestFetchWeather_FailureClearsData(t *testing.T) {
	fail := false
	gateway := &mockGateway{
		FetchForecastFunc: func(ctx context.Context, latitude, longitude float64) (WeatherSnapshot, error) {
			if fail {
				return WeatherSnapshot{}, &WeatherError{Code: CodeFetchError, Message: "HTTP error! status: 502"}
			}
			return testSnapshot(latitude, longitude), nil
		},
	}
	state := NewWeatherState(gateway, newTestLogger())

	require.NoError(t, state.FetchWeather(context.Background(), 1, 2))
	require.NotNil(t, state.Snapshot().WeatherData)

	fail = true
	err := state.FetchWeather(context.Background(), 3, 4)
	require.Error(t, err)

	snap := state.Snapshot()
	assert.Nil(t, snap.WeatherData)
	assert.False(t, snap.Loading)
	require.NotNil(t, snap.Error)
	assert.Equal(t, CodeFetchError, snap.Error.Code)
	assert.Equal(t, "HTTP error! status: 502", snap.Error.Message)
}

func TestFetchWeather_PlainErrorIsCategorized(t *testing.T) {
	gateway := &mockGateway{
		FetchForecastFunc: func(ctx context.Context, latitude, longitude float64) (WeatherSnapshot, error) {
			return WeatherSnapshot{}, errors.New("dial tcp: connection refused")
		},
	}
	state := NewWeatherState(gateway, newTestLogger())

	_ = state.FetchWeather(context.Background(), 1, 2)

	snap := state.Snapshot()
	require.NotNil(t, snap.Error)
	assert.Equal(t, CodeFetchError, snap.Error.Code)
	assert.Equal(t, "dial tcp: connection refused", snap.Error.Message)
}

func TestClearError_KeepsEverythingElse(t *testing.T) {
	gateway := &mockGateway{
		FetchForecastFunc: func(ctx context.Context, latitude, longitude float64) (WeatherSnapshot, error) {
			return WeatherSnapshot{}, &WeatherError{Code: CodeFetchError, Message: "boom"}
		},
	}
	state := NewWeatherState(gateway, newTestLogger())
	_ = state.FetchWeather(context.Background(), 1, 2)

	state.ClearError()

	snap := state.Snapshot()
	assert.Nil(t, snap.Error)
	assert.Nil(t, snap.WeatherData, "a failure with no earlier success leaves no data behind")
	assert.False(t, snap.Loading)
}

func TestSearchLocations_State(t *testing.T) {
	t.Run("Results are passed through", func(t *testing.T) {
		want := []Location{{Name: "Wrocław", Latitude: 51.1, Longitude: 17.03, Country: "Poland", Timezone: "Europe/Warsaw"}}
		gateway := &mockGateway{
			SearchLocationsFunc: func(ctx context.Context, query string) ([]Location, error) {
				return want, nil
			},
		}
		state := NewWeatherState(gateway, newTestLogger())

		got := state.SearchLocations(context.Background(), "Wroc")
		assert.Equal(t, want, got)
		assert.Nil(t, state.Snapshot().Error)
	})

	t.Run("Nil results become an empty list", func(t *testing.T) {
		gateway := &mockGateway{
			SearchLocationsFunc: func(ctx context.Context, query string) ([]Location, error) {
				return nil, nil
			},
		}
		state := NewWeatherState(gateway, newTestLogger())

		got := state.SearchLocations(context.Background(), "Wroc")
		assert.NotNil(t, got)
		assert.Empty(t, got)
	})

	t.Run("Failure yields no results and sets the error", func(t *testing.T) {
		gateway := &mockGateway{
			SearchLocationsFunc: func(ctx context.Context, query string) ([]Location, error) {
				return nil, errors.New("geocoder down")
			},
		}
		state := NewWeatherState(gateway, newTestLogger())

		got := state.SearchLocations(context.Background(), "Wroc")
		assert.NotNil(t, got)
		assert.Empty(t, got)

		snap := state.Snapshot()
		require.NotNil(t, snap.Error)
		assert.Equal(t, CodeSearchError, snap.Error.Code)
		assert.Equal(t, "geocoder down", snap.Error.Message)
		assert.False(t, snap.Loading)
	})
}

// overlappingFetches starts a fetch for (1, 1) that blocks inside the gateway,
// then runs a fetch for (2, 2) to completion, then lets the first one finish.
func overlappingFetches(t *testing.T, state *WeatherState, release chan struct{}, entered chan struct{}) {
	t.Helper()
	first := make(chan error, 1)
	go func() { first <- state.FetchWeather(context.Background(), 1, 1) }()

	select {
	case <-entered:
	case <-time.After(time.Second):
		t.Fatal("first fetch never reached the gateway")
	}

	require.NoError(t, state.FetchWeather(context.Background(), 2, 2))
	close(release)
	require.NoError(t, <-first)
}

func blockingFirstGateway(release, entered chan struct{}) *mockGateway {
	return &mockGateway{
		FetchForecastFunc: func(ctx context.Context, latitude, longitude float64) (WeatherSnapshot, error) {
			if latitude == 1 {
				close(entered)
				<-release
			}
			return testSnapshot(latitude, longitude), nil
		},
	}
}

func TestFetchWeather_OverlappingFenced(t *testing.T) {
	release, entered := make(chan struct{}), make(chan struct{})
	state := NewWeatherState(blockingFirstGateway(release, entered), newTestLogger())
	before := testutil.ToFloat64(staleFetchesTotal)

	overlappingFetches(t, state, release, entered)

	snap := state.Snapshot()
	require.NotNil(t, snap.WeatherData)
	assert.Equal(t, 2.0, snap.WeatherData.Location.Latitude, "the most recently issued fetch should win")
	assert.False(t, snap.Loading)
	assert.Equal(t, before+1, testutil.ToFloat64(staleFetchesTotal))
}

func TestFetchWeather_OverlappingUnfenced(t *testing.T) {
	release, entered := make(chan struct{}), make(chan struct{})
	state := NewWeatherState(blockingFirstGateway(release, entered), newTestLogger(), WithoutFencing())
	before := testutil.ToFloat64(staleFetchesTotal)

	overlappingFetches(t, state, release, entered)

	snap := state.Snapshot()
	require.NotNil(t, snap.WeatherData)
	assert.Equal(t, 1.0, snap.WeatherData.Location.Latitude, "the last fetch to complete should win")
	assert.False(t, snap.Loading)
	assert.Equal(t, before, testutil.ToFloat64(staleFetchesTotal))
}

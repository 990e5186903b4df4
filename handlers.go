package main

import (
	"context"
	"errors"
	"net/http"
)

// This file contains the HTTP handlers of the dashboard API. Every browser tab
// creates a session first and then drives it through the session endpoints.
// Operations that talk to the provider or wait for the device position are
// started in the background and answered with 202; the dashboard polls the
// session view to see them land.

// statusClientClosedRequest is nginx's non-standard code for a request the
// client abandoned before a response was ready.
const statusClientClosedRequest = 499

// @Summary      Create a dashboard session
// @Description  Creates a session holding the location, weather and search state of one dashboard.
// @Tags         sessions
// @Produce      json
// @Success      201  {object}  SessionCreatedResponse
// @Router       /api/sessions [post]
func (cfg *apiConfig) handlerCreateSession(w http.ResponseWriter, r *http.Request) {
	session := cfg.sessions.Create(r.Context())
	cfg.respondWithJSON(w, http.StatusCreated, SessionCreatedResponse{ID: session.ID.String()})
}

// @Summary      Get session state
// @Description  Returns the phase the dashboard should show along with the location and weather state.
// @Tags         sessions
// @Produce      json
// @Param        id   path      string  true  "Session ID"
// @Success      200  {object}  SessionView
// @Failure      404  {object}  ErrorResponse "Session not found"
// @Router       /api/sessions/{id} [get]
func (cfg *apiConfig) handlerGetSession(w http.ResponseWriter, r *http.Request) {
	session, ok := cfg.sessionFromRequest(w, r)
	if !ok {
		return
	}
	cfg.respondWithJSON(w, http.StatusOK, session.View())
}

// @Summary      Delete a session
// @Tags         sessions
// @Param        id   path      string  true  "Session ID"
// @Success      204
// @Failure      404  {object}  ErrorResponse "Session not found"
// @Router       /api/sessions/{id} [delete]
func (cfg *apiConfig) handlerDeleteSession(w http.ResponseWriter, r *http.Request) {
	if err := cfg.sessions.Delete(r.PathValue("id")); err != nil {
		cfg.respondWithError(w, http.StatusNotFound, "Session not found", err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// @Summary      Locate the device
// @Description  Requests the device position and loads the weather for it once acquired.
// @Description  With the client location source the dashboard must then report the browser's
// @Description  lookup result to the position endpoint.
// @Tags         location
// @Param        id   path      string  true  "Session ID"
// @Success      202  {object}  SessionView
// @Failure      404  {object}  ErrorResponse "Session not found"
// @Router       /api/sessions/{id}/location [post]
func (cfg *apiConfig) handlerLocate(w http.ResponseWriter, r *http.Request) {
	session, ok := cfg.sessionFromRequest(w, r)
	if !ok {
		return
	}
	cfg.runDetached(r, session, "locate", session.Locate)
	cfg.respondWithJSON(w, http.StatusAccepted, session.View())
}

// @Summary      Report the browser position
// @Description  Delivers the outcome of the browser's native geolocation lookup: either
// @Description  coordinates or an error code (1 permission denied, 2 unavailable, 3 timeout).
// @Tags         location
// @Accept       json
// @Param        id   path      string          true  "Session ID"
// @Param        report body    positionReport  true  "Lookup outcome"
// @Success      202
// @Failure      400  {object}  ErrorResponse "Invalid position report"
// @Failure      404  {object}  ErrorResponse "Session not found"
// @Failure      409  {object}  ErrorResponse "Session does not accept position reports"
// @Router       /api/sessions/{id}/position [post]
func (cfg *apiConfig) handlerReportPosition(w http.ResponseWriter, r *http.Request) {
	session, ok := cfg.sessionFromRequest(w, r)
	if !ok {
		return
	}

	report, err := decodePositionReport(r)
	if err != nil {
		cfg.respondWithError(w, http.StatusBadRequest, "Invalid position report", err)
		return
	}

	if err := session.ReportPosition(report.toOutcome()); err != nil {
		cfg.respondWithError(w, http.StatusConflict, "Session does not accept position reports", err)
		return
	}
	w.WriteHeader(http.StatusAccepted)
}

// @Summary      Load weather for coordinates
// @Description  Fetches current, daily and hourly weather for a location picked by the user.
// @Tags         weather
// @Param        id   path      string  true  "Session ID"
// @Param        lat  query     number  true  "Latitude (e.g., 51.1079)"
// @Param        lon  query     number  true  "Longitude (e.g., 17.0385)"
// @Success      202  {object}  SessionView
// @Failure      400  {object}  ErrorResponse "Invalid coordinates"
// @Failure      404  {object}  ErrorResponse "Session not found"
// @Router       /api/sessions/{id}/weather [post]
func (cfg *apiConfig) handlerSelectLocation(w http.ResponseWriter, r *http.Request) {
	session, ok := cfg.sessionFromRequest(w, r)
	if !ok {
		return
	}

	lat, lon, err := getCoordinatesFromRequest(r)
	if err != nil {
		cfg.respondWithError(w, http.StatusBadRequest, "Invalid coordinates", err)
		return
	}
	cfg.logger.Debug("weather request", "session", session.ID.String(), "latitude", lat, "longitude", lon)

	cfg.runDetached(r, session, "fetch_weather", func(ctx context.Context) error {
		return session.SelectLocation(ctx, lat, lon)
	})
	cfg.respondWithJSON(w, http.StatusAccepted, session.View())
}

// @Summary      Search locations
// @Description  Debounced search-as-you-type. Returns up to five candidates; a request
// @Description  replaced by a newer one from the same session before the debounce delay
// @Description  ends is answered with 409. Failed searches yield no results and set the
// @Description  session error.
// @Tags         location
// @Produce      json
// @Param        id   path      string  true  "Session ID"
// @Param        q    query     string  true  "Free text query (e.g., 'Wrocław')"
// @Success      200  {object}  SearchResponse
// @Failure      400  {object}  ErrorResponse "Invalid query"
// @Failure      404  {object}  ErrorResponse "Session not found"
// @Failure      409  {object}  ErrorResponse "Search superseded"
// @Failure      499  "Client closed the request during the debounce delay"
// @Router       /api/sessions/{id}/search [get]
func (cfg *apiConfig) handlerSearch(w http.ResponseWriter, r *http.Request) {
	session, ok := cfg.sessionFromRequest(w, r)
	if !ok {
		return
	}

	query, err := getSearchQueryFromRequest(r)
	if err != nil {
		cfg.respondWithError(w, http.StatusBadRequest, "Invalid query", err)
		return
	}

	results, err := session.Search(r.Context(), query)
	switch {
	case errors.Is(err, ErrSearchSuperseded):
		cfg.respondWithError(w, http.StatusConflict, "Search superseded", nil)
		return
	case err != nil:
		// The client went away before the debounce delay ended.
		cfg.logger.Debug("search abandoned", "session", session.ID.String(), "error", err)
		w.WriteHeader(statusClientClosedRequest)
		return
	}

	cfg.respondWithJSON(w, http.StatusOK, SearchResponse{Query: query, Results: results})
}

// @Summary      Retry the failed operation
// @Description  Clears the error and re-fetches the weather for the known device position,
// @Description  or requests the device position again if none is known.
// @Tags         sessions
// @Param        id   path      string  true  "Session ID"
// @Success      202  {object}  SessionView
// @Failure      404  {object}  ErrorResponse "Session not found"
// @Router       /api/sessions/{id}/retry [post]
func (cfg *apiConfig) handlerRetry(w http.ResponseWriter, r *http.Request) {
	session, ok := cfg.sessionFromRequest(w, r)
	if !ok {
		return
	}
	cfg.runDetached(r, session, "retry", session.Retry)
	cfg.respondWithJSON(w, http.StatusAccepted, session.View())
}

// @Summary      Dismiss the weather error
// @Tags         sessions
// @Param        id   path      string  true  "Session ID"
// @Success      204
// @Failure      404  {object}  ErrorResponse "Session not found"
// @Router       /api/sessions/{id}/clear-error [post]
func (cfg *apiConfig) handlerClearError(w http.ResponseWriter, r *http.Request) {
	session, ok := cfg.sessionFromRequest(w, r)
	if !ok {
		return
	}
	session.ClearError()
	w.WriteHeader(http.StatusNoContent)
}

// handlerConfig provides client-side applications with the settings they
// need, such as which location source the server expects.

// @Summary      Get application configuration
// @Tags         configuration
// @Produce      json
// @Success      200  {object}  ConfigResponse
// @Router       /api/config [get]
func (cfg *apiConfig) handlerConfig(w http.ResponseWriter, r *http.Request) {
	cfg.respondWithJSON(w, http.StatusOK, ConfigResponse{
		DevMode:          cfg.devMode,
		LocationSource:   cfg.locationSource,
		SearchDebounceMS: cfg.searchDebounce.Milliseconds(),
		FenceRequests:    cfg.fenceRequests,
	})
}

func (cfg *apiConfig) handlerHealthz(w http.ResponseWriter, r *http.Request) {
	cfg.respondWithJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// handlerRunSchedulerJobs is a development-only endpoint that manually
// triggers a session sweep.

// @Summary      Manually trigger scheduler jobs (development only)
// @Tags         development
// @Produce      json
// @Success      202  {object}  map[string]string "Confirmation of triggering. Example:`{\"status\": \"scheduler jobs triggered\"}`"
// @Router       /dev/runschedulerjobs [post]
func (s *Scheduler) handlerRunSchedulerJobs(w http.ResponseWriter, r *http.Request) {
	s.cfg.logger.Info("manual scheduler run triggered")

	for _, ticker := range s.tickers {
		ticker.Reset(s.cfg.sessionSweepInterval)
	}

	go func() {
		s.sweepJobs()
		s.cfg.logger.Info("manual scheduler run finished")
	}()

	s.cfg.respondWithJSON(w, http.StatusAccepted, map[string]string{"status": "scheduler jobs triggered"})
}

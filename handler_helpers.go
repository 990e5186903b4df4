package main

import (
	"context"
	"errors"
	"net/http"
)

// sessionFromRequest resolves the {id} path value to a live session. On
// failure it has already written the 404 and reports false.
func (cfg *apiConfig) sessionFromRequest(w http.ResponseWriter, r *http.Request) (*Session, bool) {
	id := r.PathValue("id")
	session, err := cfg.sessions.Get(id)
	if err != nil {
		cfg.respondWithError(w, http.StatusNotFound, "Session not found", err)
		return nil, false
	}
	return session, true
}

// runDetached starts op for the session outside the request lifetime. Fetches
// and location requests are not cancelled when the client disconnects; their
// outcome lands in the session state and the dashboard polls for it.
func (cfg *apiConfig) runDetached(r *http.Request, session *Session, name string, op func(ctx context.Context) error) {
	ctx := context.WithoutCancel(r.Context())
	go func() {
		if err := op(ctx); err != nil {
			var weatherErr *WeatherError
			if errors.As(err, &weatherErr) {
				session.logger.Info("operation failed", "operation", name, "code", weatherErr.Code, "error", weatherErr.Message)
				return
			}
			session.logger.Info("operation failed", "operation", name, "error", err)
			return
		}
		session.logger.Debug("operation completed", "operation", name)
	}()
}

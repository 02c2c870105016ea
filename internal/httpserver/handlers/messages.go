package handlers

import (
	"errors"
	"net/http"

	"github.com/chatnav/compass/internal/httpserver/deps"
	"github.com/chatnav/compass/internal/logger"
	"github.com/chatnav/compass/internal/relay"
)

// Messages returns the latest snapshot of the attached session. An
// explicit ?session= overrides the default.
func Messages(d deps.Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		sessionID := r.URL.Query().Get("session")
		if sessionID == "" {
			sessionID = d.SessionID
		}

		reply, err := d.Bus.Request(r.Context(), relay.EndpointBroker, relay.SnapshotPull{SessionID: sessionID})
		if err != nil {
			status := http.StatusBadGateway
			if errors.Is(err, relay.ErrTimeout) {
				status = http.StatusGatewayTimeout
			}
			d.Logger.Warn("snapshot pull failed",
				logger.String("session_id", sessionID),
				logger.Error(err))
			writeError(w, status, "snapshot unavailable")
			return
		}

		result, ok := reply.(relay.SnapshotResult)
		if !ok {
			writeError(w, http.StatusBadGateway, "unexpected broker reply")
			return
		}
		writeJSON(w, http.StatusOK, result.Snapshot)
	}
}

// Refresh asks the source to re-extract outside the debounce schedule.
func Refresh(d deps.Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		d.Bus.Send(relay.EndpointSource, relay.RefreshCommand{SessionID: d.SessionID})
		w.WriteHeader(http.StatusAccepted)
	}
}

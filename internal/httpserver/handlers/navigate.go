package handlers

import (
	"errors"
	"net/http"

	"github.com/chatnav/compass/internal/httpserver/deps"
	"github.com/chatnav/compass/internal/relay"
)

type navigateRequest struct {
	MessageID string `json:"messageId"`
	Ordinal   int    `json:"ordinal"`
}

type navigateResponse struct {
	OK bool `json:"ok"`
}

// Navigate asks the source to scroll to a message.
func Navigate(d deps.Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req navigateRequest
		if !decodeJSON(w, r, &req) {
			return
		}
		if req.MessageID == "" && req.Ordinal <= 0 {
			writeError(w, http.StatusBadRequest, "messageId or ordinal required")
			return
		}

		reply, err := d.Bus.Request(r.Context(), relay.EndpointSource, relay.NavigateCommand{
			MessageID: req.MessageID,
			Ordinal:   req.Ordinal,
		})
		if err != nil {
			if errors.Is(err, relay.ErrNoReceiver) {
				writeError(w, http.StatusServiceUnavailable, "no page attached")
				return
			}
			writeError(w, http.StatusGatewayTimeout, "navigation timed out")
			return
		}

		result, ok := reply.(relay.NavigateResult)
		if !ok {
			writeError(w, http.StatusBadGateway, "unexpected source reply")
			return
		}
		if !result.OK {
			writeJSON(w, http.StatusNotFound, navigateResponse{OK: false})
			return
		}
		writeJSON(w, http.StatusOK, navigateResponse{OK: true})
	}
}

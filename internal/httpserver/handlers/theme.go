package handlers

import (
	"net/http"

	"github.com/chatnav/compass/internal/domain"
	"github.com/chatnav/compass/internal/httpserver/deps"
	"github.com/chatnav/compass/internal/relay"
)

type themeResponse struct {
	Theme domain.Theme `json:"theme"`
}

// Theme asks the source for the page theme. Falls back to light when
// no page is attached, matching what a fresh panel renders.
func Theme(d deps.Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		reply, err := d.Bus.Request(r.Context(), relay.EndpointSource, relay.ThemeQuery{})
		if err != nil {
			writeJSON(w, http.StatusOK, themeResponse{Theme: domain.ThemeLight})
			return
		}
		result, ok := reply.(relay.ThemeResult)
		if !ok {
			writeJSON(w, http.StatusOK, themeResponse{Theme: domain.ThemeLight})
			return
		}
		writeJSON(w, http.StatusOK, themeResponse{Theme: result.Theme})
	}
}

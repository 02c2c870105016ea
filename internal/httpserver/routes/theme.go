package routes

import (
	"github.com/go-chi/chi/v5"

	"github.com/chatnav/compass/internal/httpserver/deps"
	"github.com/chatnav/compass/internal/httpserver/handlers"
)

func init() { Register(registerTheme) }

func registerTheme(r chi.Router, d deps.Deps) {
	r.Get("/theme", handlers.Theme(d))
}

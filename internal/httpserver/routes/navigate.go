package routes

import (
	"github.com/go-chi/chi/v5"

	"github.com/chatnav/compass/internal/httpserver/deps"
	"github.com/chatnav/compass/internal/httpserver/handlers"
)

func init() { Register(registerNavigate) }

func registerNavigate(r chi.Router, d deps.Deps) {
	r.Post("/navigate", handlers.Navigate(d))
}

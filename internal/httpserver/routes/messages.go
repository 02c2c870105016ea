package routes

import (
	"github.com/go-chi/chi/v5"

	"github.com/chatnav/compass/internal/httpserver/deps"
	"github.com/chatnav/compass/internal/httpserver/handlers"
)

func init() { Register(registerMessages) }

func registerMessages(r chi.Router, d deps.Deps) {
	r.Get("/messages", handlers.Messages(d))
	r.Post("/messages/refresh", handlers.Refresh(d))
}

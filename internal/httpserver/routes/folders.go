package routes

import (
	"github.com/go-chi/chi/v5"

	"github.com/chatnav/compass/internal/httpserver/deps"
	"github.com/chatnav/compass/internal/httpserver/handlers"
)

func init() { Register(registerFolders) }

func registerFolders(r chi.Router, d deps.Deps) {
	r.Route("/folders", func(r chi.Router) {
		r.Get("/", handlers.ListFolders(d))
		r.Post("/", handlers.CreateFolder(d))
		r.Patch("/{id}", handlers.UpdateFolder(d))
		r.Delete("/{id}", handlers.DeleteFolder(d))
		r.Post("/{id}/bookmarks", handlers.AddFolderMember(d))
		r.Delete("/{id}/bookmarks/{bookmarkID}", handlers.RemoveFolderMember(d))
	})
}

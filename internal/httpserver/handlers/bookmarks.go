package handlers

import (
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/chatnav/compass/internal/bookmarks"
	"github.com/chatnav/compass/internal/domain"
	"github.com/chatnav/compass/internal/httpserver/deps"
	"github.com/chatnav/compass/internal/logger"
	"github.com/chatnav/compass/internal/relay"
)

type createBookmarkRequest struct {
	MessageID   string `json:"messageId"`
	Content     string `json:"content"`
	SourceURL   string `json:"sourceUrl"`
	SourceTitle string `json:"sourceTitle"`
	Ordinal     int    `json:"ordinal"`
	CreatedAt   int64  `json:"createdAt"`
	FolderID    string `json:"folderId"`
}

// ListBookmarks returns bookmarks, filtered by ?q=, ?folder=, or
// ?conversation=. Filters are mutually exclusive; search wins.
func ListBookmarks(d deps.Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query()

		var result []*domain.BookmarkedMessage
		switch {
		case q.Get("q") != "":
			result = d.Manager.Search(q.Get("q"))
		case q.Get("conversation") != "":
			result = d.Manager.ByConversation(q.Get("conversation"))
		case q.Has("folder"):
			result = d.Manager.ByFolder(q.Get("folder"))
		default:
			result = d.Manager.Search("")
		}
		if result == nil {
			result = []*domain.BookmarkedMessage{}
		}
		writeJSON(w, http.StatusOK, result)
	}
}

// CreateBookmark persists a new bookmark and tells the source to mark
// the message.
func CreateBookmark(d deps.Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req createBookmarkRequest
		if !decodeJSON(w, r, &req) {
			return
		}
		if req.MessageID == "" || req.Content == "" {
			writeError(w, http.StatusBadRequest, "messageId and content required")
			return
		}
		if d.Manager.IsBookmarked(req.MessageID, req.SourceURL) {
			writeError(w, http.StatusConflict, "message already bookmarked")
			return
		}

		bm, err := d.Manager.AddBookmark(r.Context(), domain.BookmarkDraft{
			MessageID:   req.MessageID,
			Content:     req.Content,
			SourceURL:   req.SourceURL,
			SourceTitle: req.SourceTitle,
			Ordinal:     req.Ordinal,
			CreatedAt:   req.CreatedAt,
		}, req.FolderID)
		if err != nil {
			if errors.Is(err, bookmarks.ErrNotFound) {
				writeError(w, http.StatusNotFound, "folder not found")
				return
			}
			d.Logger.Error("failed to create bookmark", logger.Error(err))
			writeError(w, http.StatusInternalServerError, "failed to create bookmark")
			return
		}

		d.Bus.Send(relay.EndpointSource, relay.MarkBookmark{MessageID: bm.MessageID})
		writeJSON(w, http.StatusCreated, bm)
	}
}

// GetBookmark returns one bookmark by id.
func GetBookmark(d deps.Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		bm := d.Manager.Find(chi.URLParam(r, "id"))
		if bm == nil {
			writeError(w, http.StatusNotFound, "bookmark not found")
			return
		}
		writeJSON(w, http.StatusOK, bm)
	}
}

type updateBookmarkRequest struct {
	UserNote *string   `json:"userNote"`
	Tags     *[]string `json:"tags"`
}

// UpdateBookmark patches the user-mutable fields.
func UpdateBookmark(d deps.Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req updateBookmarkRequest
		if !decodeJSON(w, r, &req) {
			return
		}
		id := chi.URLParam(r, "id")
		err := d.Manager.UpdateBookmark(r.Context(), id, bookmarks.BookmarkUpdate{
			UserNote: req.UserNote,
			Tags:     req.Tags,
		})
		if err != nil {
			if errors.Is(err, bookmarks.ErrNotFound) {
				writeError(w, http.StatusNotFound, "bookmark not found")
				return
			}
			d.Logger.Error("failed to update bookmark", logger.Error(err))
			writeError(w, http.StatusInternalServerError, "failed to update bookmark")
			return
		}
		writeJSON(w, http.StatusOK, d.Manager.Find(id))
	}
}

// DeleteBookmark removes a bookmark and tells the source to unmark it.
func DeleteBookmark(d deps.Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id := chi.URLParam(r, "id")
		bm := d.Manager.Find(id)
		if bm == nil {
			writeError(w, http.StatusNotFound, "bookmark not found")
			return
		}
		if err := d.Manager.RemoveBookmark(r.Context(), id); err != nil {
			d.Logger.Error("failed to delete bookmark", logger.Error(err))
			writeError(w, http.StatusInternalServerError, "failed to delete bookmark")
			return
		}
		d.Bus.Send(relay.EndpointSource, relay.UnmarkBookmark{MessageID: bm.MessageID})
		w.WriteHeader(http.StatusNoContent)
	}
}

type moveBookmarkRequest struct {
	FolderID string `json:"folderId"`
}

// MoveBookmark files a bookmark into a folder, or unfiles it when the
// folder id is empty.
func MoveBookmark(d deps.Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req moveBookmarkRequest
		if !decodeJSON(w, r, &req) {
			return
		}
		id := chi.URLParam(r, "id")
		if err := d.Manager.MoveToFolder(r.Context(), id, req.FolderID); err != nil {
			if errors.Is(err, bookmarks.ErrNotFound) {
				writeError(w, http.StatusNotFound, "bookmark or folder not found")
				return
			}
			d.Logger.Error("failed to move bookmark", logger.Error(err))
			writeError(w, http.StatusInternalServerError, "failed to move bookmark")
			return
		}
		writeJSON(w, http.StatusOK, d.Manager.Find(id))
	}
}

package handlers

import (
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/chatnav/compass/internal/bookmarks"
	"github.com/chatnav/compass/internal/httpserver/deps"
	"github.com/chatnav/compass/internal/logger"
)

type createFolderRequest struct {
	Name  string `json:"name"`
	Color string `json:"color"`
	Icon  string `json:"icon"`
}

// ListFolders returns all folders, oldest first.
func ListFolders(d deps.Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, d.Manager.Folders())
	}
}

// CreateFolder creates an empty folder.
func CreateFolder(d deps.Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req createFolderRequest
		if !decodeJSON(w, r, &req) {
			return
		}
		if req.Name == "" {
			writeError(w, http.StatusBadRequest, "name required")
			return
		}
		folder, err := d.Manager.CreateFolder(r.Context(), req.Name, req.Color, req.Icon)
		if err != nil {
			d.Logger.Error("failed to create folder", logger.Error(err))
			writeError(w, http.StatusInternalServerError, "failed to create folder")
			return
		}
		writeJSON(w, http.StatusCreated, folder)
	}
}

type updateFolderRequest struct {
	Name  *string `json:"name"`
	Color *string `json:"color"`
	Icon  *string `json:"icon"`
}

// UpdateFolder patches folder metadata.
func UpdateFolder(d deps.Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req updateFolderRequest
		if !decodeJSON(w, r, &req) {
			return
		}
		id := chi.URLParam(r, "id")
		err := d.Manager.UpdateFolder(r.Context(), id, bookmarks.FolderUpdate{
			Name:  req.Name,
			Color: req.Color,
			Icon:  req.Icon,
		})
		if err != nil {
			if errors.Is(err, bookmarks.ErrNotFound) {
				writeError(w, http.StatusNotFound, "folder not found")
				return
			}
			d.Logger.Error("failed to update folder", logger.Error(err))
			writeError(w, http.StatusInternalServerError, "failed to update folder")
			return
		}
		w.WriteHeader(http.StatusNoContent)
	}
}

// DeleteFolder removes a folder. Its bookmarks survive unfiled.
func DeleteFolder(d deps.Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id := chi.URLParam(r, "id")
		if err := d.Manager.DeleteFolder(r.Context(), id); err != nil {
			if errors.Is(err, bookmarks.ErrNotFound) {
				writeError(w, http.StatusNotFound, "folder not found")
				return
			}
			d.Logger.Error("failed to delete folder", logger.Error(err))
			writeError(w, http.StatusInternalServerError, "failed to delete folder")
			return
		}
		w.WriteHeader(http.StatusNoContent)
	}
}

type folderMemberRequest struct {
	BookmarkID string `json:"bookmarkId"`
}

// AddFolderMember files a bookmark into the folder.
func AddFolderMember(d deps.Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req folderMemberRequest
		if !decodeJSON(w, r, &req) {
			return
		}
		if req.BookmarkID == "" {
			writeError(w, http.StatusBadRequest, "bookmarkId required")
			return
		}
		err := d.Manager.AddToFolder(r.Context(), chi.URLParam(r, "id"), req.BookmarkID)
		if err != nil {
			if errors.Is(err, bookmarks.ErrNotFound) {
				writeError(w, http.StatusNotFound, "folder or bookmark not found")
				return
			}
			d.Logger.Error("failed to add folder member", logger.Error(err))
			writeError(w, http.StatusInternalServerError, "failed to add folder member")
			return
		}
		w.WriteHeader(http.StatusNoContent)
	}
}

// RemoveFolderMember unfiles a bookmark from the folder.
func RemoveFolderMember(d deps.Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		err := d.Manager.RemoveFromFolder(r.Context(), chi.URLParam(r, "id"), chi.URLParam(r, "bookmarkID"))
		if err != nil {
			if errors.Is(err, bookmarks.ErrNotFound) {
				writeError(w, http.StatusNotFound, "folder not found")
				return
			}
			d.Logger.Error("failed to remove folder member", logger.Error(err))
			writeError(w, http.StatusInternalServerError, "failed to remove folder member")
			return
		}
		w.WriteHeader(http.StatusNoContent)
	}
}

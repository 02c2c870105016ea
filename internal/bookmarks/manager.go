// Package bookmarks owns the persisted bookmark aggregate. Every write
// follows the same path: clone the cached aggregate, mutate the clone,
// persist the whole thing. The cache itself only advances when the
// store's change notification arrives, so every Manager watching the
// same store converges on the same state, the writer included.
package bookmarks

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/chatnav/compass/internal/domain"
	"github.com/chatnav/compass/internal/kv"
	"github.com/chatnav/compass/internal/logger"
)

var (
	// ErrNotFound means the referenced bookmark or folder does not exist.
	ErrNotFound = errors.New("bookmarks: not found")
)

// Manager reads and writes the bookmark aggregate through a kv.Store.
type Manager struct {
	mu    sync.RWMutex
	cache *domain.BookmarkStore

	store kv.Store
	log   logger.Logger

	cancelWatch func()
	now         func() time.Time
	newID       func() string
}

// NewManager creates a manager over store. Call Start before use.
func NewManager(store kv.Store, log logger.Logger) *Manager {
	return &Manager{
		cache: domain.NewBookmarkStore(),
		store: store,
		log:   log,
		now:   time.Now,
		newID: uuid.NewString,
	}
}

// Start loads the aggregate and subscribes to change notifications.
func (m *Manager) Start(ctx context.Context) error {
	data, err := m.store.Get(ctx, kv.KeyBookmarkStore)
	if err != nil {
		return fmt.Errorf("failed to load bookmark store: %w", err)
	}
	if data != nil {
		loaded := domain.NewBookmarkStore()
		if err := json.Unmarshal(data, loaded); err != nil {
			return fmt.Errorf("failed to decode bookmark store: %w", err)
		}
		loaded.Normalize()
		m.mu.Lock()
		m.cache = loaded
		m.mu.Unlock()
	}

	cancel, err := m.store.Watch(ctx, m.onChange)
	if err != nil {
		return fmt.Errorf("failed to watch bookmark store: %w", err)
	}
	m.cancelWatch = cancel

	m.log.Info("bookmark manager started",
		logger.Int("bookmarks", len(m.snapshot().Bookmarks)),
		logger.Int("folders", len(m.snapshot().Folders)))
	return nil
}

// Stop detaches from the store's change stream.
func (m *Manager) Stop() {
	if m.cancelWatch != nil {
		m.cancelWatch()
		m.cancelWatch = nil
	}
}

// onChange is the only place the cache advances.
func (m *Manager) onChange(change kv.Change) {
	if change.Key != kv.KeyBookmarkStore {
		return
	}
	next := domain.NewBookmarkStore()
	if change.New != nil {
		if err := json.Unmarshal(change.New, next); err != nil {
			m.log.Warn("ignoring malformed bookmark store update", logger.Error(err))
			return
		}
		next.Normalize()
	}
	m.mu.Lock()
	m.cache = next
	m.mu.Unlock()
}

func (m *Manager) snapshot() *domain.BookmarkStore {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.cache
}

// GetAll returns a deep copy of the aggregate.
func (m *Manager) GetAll() *domain.BookmarkStore {
	return m.snapshot().Clone()
}

// mutate runs fn against a clone of the cached aggregate and persists
// the result. The cache is left alone; the watch callback updates it.
func (m *Manager) mutate(ctx context.Context, fn func(*domain.BookmarkStore) error) error {
	next := m.snapshot().Clone()
	if err := fn(next); err != nil {
		return err
	}
	data, err := json.Marshal(next)
	if err != nil {
		return fmt.Errorf("failed to encode bookmark store: %w", err)
	}
	if err := m.store.Set(ctx, kv.KeyBookmarkStore, data); err != nil {
		return fmt.Errorf("failed to persist bookmark store: %w", err)
	}
	return nil
}

// AddBookmark creates a bookmark from draft. A non-empty folderID files
// it into that folder in the same write. The conversation's recency
// entry is refreshed as a side effect.
func (m *Manager) AddBookmark(ctx context.Context, draft domain.BookmarkDraft, folderID string) (*domain.BookmarkedMessage, error) {
	bm := &domain.BookmarkedMessage{
		ID:           m.newID(),
		MessageID:    draft.MessageID,
		Content:      draft.Content,
		SourceURL:    draft.SourceURL,
		SourceTitle:  draft.SourceTitle,
		Ordinal:      draft.Ordinal,
		CreatedAt:    draft.CreatedAt,
		BookmarkedAt: m.now().UnixMilli(),
	}

	err := m.mutate(ctx, func(s *domain.BookmarkStore) error {
		if folderID != "" {
			folder, ok := s.Folders[folderID]
			if !ok {
				return fmt.Errorf("folder %s: %w", folderID, ErrNotFound)
			}
			bm.FolderID = folderID
			folder.BookmarkIDs = append(folder.BookmarkIDs, bm.ID)
		}
		s.Bookmarks[bm.ID] = bm
		s.RecentConversations[bm.SourceURL] = domain.RecentConversation{
			Title:         bm.SourceTitle,
			LastVisitedAt: bm.BookmarkedAt,
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	m.log.Info("bookmark created",
		logger.String("id", bm.ID),
		logger.String("message_id", bm.MessageID),
		logger.String("folder_id", folderID))
	return bm, nil
}

// RemoveBookmark deletes a bookmark and strips it from any folder.
func (m *Manager) RemoveBookmark(ctx context.Context, id string) error {
	return m.mutate(ctx, func(s *domain.BookmarkStore) error {
		if _, ok := s.Bookmarks[id]; !ok {
			return fmt.Errorf("bookmark %s: %w", id, ErrNotFound)
		}
		delete(s.Bookmarks, id)
		for _, folder := range s.Folders {
			folder.BookmarkIDs = removeID(folder.BookmarkIDs, id)
		}
		return nil
	})
}

// BookmarkUpdate carries the user-mutable bookmark fields. Nil means
// leave the field alone.
type BookmarkUpdate struct {
	UserNote *string
	Tags     *[]string
}

// UpdateBookmark applies the non-nil fields of update.
func (m *Manager) UpdateBookmark(ctx context.Context, id string, update BookmarkUpdate) error {
	return m.mutate(ctx, func(s *domain.BookmarkStore) error {
		bm, ok := s.Bookmarks[id]
		if !ok {
			return fmt.Errorf("bookmark %s: %w", id, ErrNotFound)
		}
		if update.UserNote != nil {
			bm.UserNote = *update.UserNote
		}
		if update.Tags != nil {
			bm.Tags = append([]string(nil), (*update.Tags)...)
		}
		return nil
	})
}

// CreateFolder creates an empty folder and returns it.
func (m *Manager) CreateFolder(ctx context.Context, name, color, icon string) (*domain.Folder, error) {
	folder := &domain.Folder{
		ID:          m.newID(),
		Name:        name,
		Color:       color,
		Icon:        icon,
		CreatedAt:   m.now().UnixMilli(),
		BookmarkIDs: []string{},
	}
	err := m.mutate(ctx, func(s *domain.BookmarkStore) error {
		s.Folders[folder.ID] = folder
		return nil
	})
	if err != nil {
		return nil, err
	}
	m.log.Info("folder created",
		logger.String("id", folder.ID),
		logger.String("name", name))
	return folder, nil
}

// FolderUpdate carries the mutable folder fields. Nil means leave the
// field alone.
type FolderUpdate struct {
	Name  *string
	Color *string
	Icon  *string
}

// UpdateFolder applies the non-nil fields of update.
func (m *Manager) UpdateFolder(ctx context.Context, id string, update FolderUpdate) error {
	return m.mutate(ctx, func(s *domain.BookmarkStore) error {
		folder, ok := s.Folders[id]
		if !ok {
			return fmt.Errorf("folder %s: %w", id, ErrNotFound)
		}
		if update.Name != nil {
			folder.Name = *update.Name
		}
		if update.Color != nil {
			folder.Color = *update.Color
		}
		if update.Icon != nil {
			folder.Icon = *update.Icon
		}
		return nil
	})
}

// DeleteFolder removes a folder. Member bookmarks survive as unfiled.
func (m *Manager) DeleteFolder(ctx context.Context, id string) error {
	return m.mutate(ctx, func(s *domain.BookmarkStore) error {
		folder, ok := s.Folders[id]
		if !ok {
			return fmt.Errorf("folder %s: %w", id, ErrNotFound)
		}
		for _, bookmarkID := range folder.BookmarkIDs {
			if bm, ok := s.Bookmarks[bookmarkID]; ok && bm.FolderID == id {
				bm.FolderID = ""
			}
		}
		delete(s.Folders, id)
		return nil
	})
}

// AddToFolder files a bookmark into a folder, moving it out of any
// other folder first. Adding to the folder it is already in is a no-op.
func (m *Manager) AddToFolder(ctx context.Context, folderID, bookmarkID string) error {
	return m.mutate(ctx, func(s *domain.BookmarkStore) error {
		folder, ok := s.Folders[folderID]
		if !ok {
			return fmt.Errorf("folder %s: %w", folderID, ErrNotFound)
		}
		bm, ok := s.Bookmarks[bookmarkID]
		if !ok {
			return fmt.Errorf("bookmark %s: %w", bookmarkID, ErrNotFound)
		}
		if bm.FolderID == folderID && folder.Contains(bookmarkID) {
			return nil
		}
		for otherID, other := range s.Folders {
			if otherID != folderID {
				other.BookmarkIDs = removeID(other.BookmarkIDs, bookmarkID)
			}
		}
		if !folder.Contains(bookmarkID) {
			folder.BookmarkIDs = append(folder.BookmarkIDs, bookmarkID)
		}
		bm.FolderID = folderID
		return nil
	})
}

// RemoveFromFolder unfiles a bookmark from a specific folder.
func (m *Manager) RemoveFromFolder(ctx context.Context, folderID, bookmarkID string) error {
	return m.mutate(ctx, func(s *domain.BookmarkStore) error {
		folder, ok := s.Folders[folderID]
		if !ok {
			return fmt.Errorf("folder %s: %w", folderID, ErrNotFound)
		}
		folder.BookmarkIDs = removeID(folder.BookmarkIDs, bookmarkID)
		if bm, ok := s.Bookmarks[bookmarkID]; ok && bm.FolderID == folderID {
			bm.FolderID = ""
		}
		return nil
	})
}

// MoveToFolder moves a bookmark into folderID, or unfiles it when
// folderID is empty.
func (m *Manager) MoveToFolder(ctx context.Context, bookmarkID, folderID string) error {
	if folderID != "" {
		return m.AddToFolder(ctx, folderID, bookmarkID)
	}
	return m.mutate(ctx, func(s *domain.BookmarkStore) error {
		bm, ok := s.Bookmarks[bookmarkID]
		if !ok {
			return fmt.Errorf("bookmark %s: %w", bookmarkID, ErrNotFound)
		}
		for _, folder := range s.Folders {
			folder.BookmarkIDs = removeID(folder.BookmarkIDs, bookmarkID)
		}
		bm.FolderID = ""
		return nil
	})
}

// PruneRecentConversations drops recency entries last visited before
// cutoff. Returns how many were removed.
func (m *Manager) PruneRecentConversations(ctx context.Context, cutoff time.Time) (int, error) {
	removed := 0
	err := m.mutate(ctx, func(s *domain.BookmarkStore) error {
		limit := cutoff.UnixMilli()
		for url, rc := range s.RecentConversations {
			if rc.LastVisitedAt < limit {
				delete(s.RecentConversations, url)
				removed++
			}
		}
		return nil
	})
	if err != nil {
		return 0, err
	}
	return removed, nil
}

// TouchRecentConversation refreshes the recency entry for a conversation.
func (m *Manager) TouchRecentConversation(ctx context.Context, url, title string) error {
	return m.mutate(ctx, func(s *domain.BookmarkStore) error {
		s.RecentConversations[url] = domain.RecentConversation{
			Title:         title,
			LastVisitedAt: m.now().UnixMilli(),
		}
		return nil
	})
}

func removeID(ids []string, id string) []string {
	out := ids[:0]
	for _, existing := range ids {
		if existing != id {
			out = append(out, existing)
		}
	}
	return out
}

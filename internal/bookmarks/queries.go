package bookmarks

import (
	"sort"
	"strings"

	"github.com/chatnav/compass/internal/domain"
)

// Find returns the bookmark with id, or nil.
func (m *Manager) Find(id string) *domain.BookmarkedMessage {
	s := m.snapshot()
	bm, ok := s.Bookmarks[id]
	if !ok {
		return nil
	}
	cp := *bm
	cp.Tags = append([]string(nil), bm.Tags...)
	return &cp
}

// FindByMessage returns the bookmark for a message in a conversation,
// or nil. An empty sourceURL matches any conversation.
func (m *Manager) FindByMessage(messageID, sourceURL string) *domain.BookmarkedMessage {
	s := m.snapshot()
	for _, bm := range s.Bookmarks {
		if bm.MessageID != messageID {
			continue
		}
		if sourceURL != "" && bm.SourceURL != sourceURL {
			continue
		}
		cp := *bm
		cp.Tags = append([]string(nil), bm.Tags...)
		return &cp
	}
	return nil
}

// IsBookmarked reports whether a message is bookmarked. An empty
// sourceURL checks across all conversations.
func (m *Manager) IsBookmarked(messageID, sourceURL string) bool {
	return m.FindByMessage(messageID, sourceURL) != nil
}

// Search returns bookmarks whose content, note, title, or tags contain
// query, case-insensitively, newest first. An empty query matches all.
func (m *Manager) Search(query string) []*domain.BookmarkedMessage {
	needle := strings.ToLower(strings.TrimSpace(query))
	s := m.snapshot()

	var out []*domain.BookmarkedMessage
	for _, bm := range s.Bookmarks {
		if needle != "" && !matches(bm, needle) {
			continue
		}
		cp := *bm
		cp.Tags = append([]string(nil), bm.Tags...)
		out = append(out, &cp)
	}
	sortNewestFirst(out)
	return out
}

func matches(bm *domain.BookmarkedMessage, needle string) bool {
	if strings.Contains(strings.ToLower(bm.Content), needle) {
		return true
	}
	if strings.Contains(strings.ToLower(bm.UserNote), needle) {
		return true
	}
	if strings.Contains(strings.ToLower(bm.SourceTitle), needle) {
		return true
	}
	for _, tag := range bm.Tags {
		if strings.Contains(strings.ToLower(tag), needle) {
			return true
		}
	}
	return false
}

// ByConversation returns the bookmarks for one conversation, newest
// first.
func (m *Manager) ByConversation(sourceURL string) []*domain.BookmarkedMessage {
	s := m.snapshot()
	var out []*domain.BookmarkedMessage
	for _, bm := range s.Bookmarks {
		if bm.SourceURL != sourceURL {
			continue
		}
		cp := *bm
		cp.Tags = append([]string(nil), bm.Tags...)
		out = append(out, &cp)
	}
	sortNewestFirst(out)
	return out
}

// ByFolder returns the bookmarks filed in folderID, newest first. An
// empty folderID returns the unfiled ones.
func (m *Manager) ByFolder(folderID string) []*domain.BookmarkedMessage {
	s := m.snapshot()
	var out []*domain.BookmarkedMessage
	for _, bm := range s.Bookmarks {
		if bm.FolderID != folderID {
			continue
		}
		cp := *bm
		cp.Tags = append([]string(nil), bm.Tags...)
		out = append(out, &cp)
	}
	sortNewestFirst(out)
	return out
}

// Folders returns all folders sorted by creation time, oldest first.
func (m *Manager) Folders() []*domain.Folder {
	s := m.snapshot()
	out := make([]*domain.Folder, 0, len(s.Folders))
	for _, f := range s.Folders {
		cp := *f
		cp.BookmarkIDs = append([]string(nil), f.BookmarkIDs...)
		out = append(out, &cp)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].CreatedAt != out[j].CreatedAt {
			return out[i].CreatedAt < out[j].CreatedAt
		}
		return out[i].ID < out[j].ID
	})
	return out
}

// RecentConversations returns a copy of the recency entries keyed by
// conversation URL.
func (m *Manager) RecentConversations() map[string]domain.RecentConversation {
	s := m.snapshot()
	out := make(map[string]domain.RecentConversation, len(s.RecentConversations))
	for url, rc := range s.RecentConversations {
		out[url] = rc
	}
	return out
}

func sortNewestFirst(list []*domain.BookmarkedMessage) {
	sort.Slice(list, func(i, j int) bool {
		if list[i].BookmarkedAt != list[j].BookmarkedAt {
			return list[i].BookmarkedAt > list[j].BookmarkedAt
		}
		return list[i].ID < list[j].ID
	})
}

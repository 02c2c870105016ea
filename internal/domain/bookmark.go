package domain

// BookmarkedMessage is a persisted bookmark of a single conversation turn.
// The content is a snapshot taken at bookmark time; it is never re-synced
// against the live page.
type BookmarkedMessage struct {
	// ─────────────────────────────
	// Identity (immutable)
	// ─────────────────────────────

	// ID is the canonical unique identifier, generated at creation.
	ID string `json:"id"`

	// MessageID references the Message the bookmark was created from.
	// Not a live foreign key: the source turn may no longer exist.
	MessageID string `json:"messageId"`

	// ─────────────────────────────
	// Snapshot at bookmark time
	// ─────────────────────────────

	Content     string `json:"content"`
	SourceURL   string `json:"sourceUrl"`
	SourceTitle string `json:"sourceTitle"`
	Ordinal     int    `json:"ordinal"`

	// CreatedAt is the original message timestamp (unix millis,
	// informational only).
	CreatedAt int64 `json:"createdAt"`

	// BookmarkedAt is when the bookmark was created (unix millis).
	// Primary sort key for recency views.
	BookmarkedAt int64 `json:"bookmarkedAt"`

	// ─────────────────────────────
	// User-mutable fields
	// ─────────────────────────────

	UserNote string   `json:"userNote,omitempty"`
	Tags     []string `json:"tags,omitempty"`

	// FolderID references the containing Folder. Empty means unfiled.
	// Invariant: non-empty iff the folder's BookmarkIDs contains this ID.
	FolderID string `json:"folderId,omitempty"`
}

// Folder groups bookmarks. BookmarkIDs and the members' FolderID fields
// are two denormalized views of the same relationship; every membership
// mutation updates both sides in one persisted write.
type Folder struct {
	ID        string `json:"id"`
	Name      string `json:"name"`
	Color     string `json:"color"`
	Icon      string `json:"icon,omitempty"`
	CreatedAt int64  `json:"createdAt"`

	// BookmarkIDs is the ordered set of member bookmark ids.
	BookmarkIDs []string `json:"bookmarkIds"`
}

// Contains reports whether id is a member of the folder.
func (f *Folder) Contains(id string) bool {
	for _, existing := range f.BookmarkIDs {
		if existing == id {
			return true
		}
	}
	return false
}

// RecentConversation records the last bookmark activity for a conversation.
type RecentConversation struct {
	Title         string `json:"title"`
	LastVisitedAt int64  `json:"lastVisitedAt"`
}

// BookmarkStore is the root persisted aggregate. It is always read and
// written as one unit; there is no field-level persistence.
type BookmarkStore struct {
	Bookmarks           map[string]*BookmarkedMessage `json:"bookmarks"`
	Folders             map[string]*Folder            `json:"folders"`
	RecentConversations map[string]RecentConversation `json:"recentConversations"`
}

// NewBookmarkStore returns an empty aggregate with initialized maps.
func NewBookmarkStore() *BookmarkStore {
	return &BookmarkStore{
		Bookmarks:           make(map[string]*BookmarkedMessage),
		Folders:             make(map[string]*Folder),
		RecentConversations: make(map[string]RecentConversation),
	}
}

// Clone returns a deep copy. Mutations on the copy never leak into the
// original; the write path relies on this to keep the cached aggregate
// untouched until the store change notification lands.
func (s *BookmarkStore) Clone() *BookmarkStore {
	next := NewBookmarkStore()
	for id, bm := range s.Bookmarks {
		cp := *bm
		if bm.Tags != nil {
			cp.Tags = append([]string(nil), bm.Tags...)
		}
		next.Bookmarks[id] = &cp
	}
	for id, f := range s.Folders {
		cp := *f
		cp.BookmarkIDs = append([]string(nil), f.BookmarkIDs...)
		next.Folders[id] = &cp
	}
	for url, rc := range s.RecentConversations {
		next.RecentConversations[url] = rc
	}
	return next
}

// Normalize fills nil maps after unmarshalling an older or empty payload.
func (s *BookmarkStore) Normalize() {
	if s.Bookmarks == nil {
		s.Bookmarks = make(map[string]*BookmarkedMessage)
	}
	if s.Folders == nil {
		s.Folders = make(map[string]*Folder)
	}
	if s.RecentConversations == nil {
		s.RecentConversations = make(map[string]RecentConversation)
	}
}

// BookmarkDraft carries the message-derived fields of a bookmark about to
// be created. The manager fills in the generated id and BookmarkedAt.
type BookmarkDraft struct {
	MessageID   string `json:"messageId"`
	Content     string `json:"content"`
	SourceURL   string `json:"sourceUrl"`
	SourceTitle string `json:"sourceTitle"`
	Ordinal     int    `json:"ordinal"`
	CreatedAt   int64  `json:"createdAt"`
}

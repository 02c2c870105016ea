package kv

const (
	// KeyBookmarkStore holds the whole bookmark aggregate as one JSON blob.
	KeyBookmarkStore = "compass:bookmarks"

	// ChangeChannel is the pub/sub channel carrying change notifications.
	ChangeChannel = "compass:changes"
)

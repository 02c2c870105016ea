package domain

import "sort"

// Theme is the color scheme the host page is currently using.
type Theme string

const (
	ThemeLight Theme = "light"
	ThemeDark  Theme = "dark"
)

// Message is one user-authored conversation turn captured by an
// extraction pass. Messages are ephemeral: every pass rebuilds them
// wholesale, and only the ID is expected to survive between passes.
type Message struct {
	// ID is derived from the turn container's structural identifier when
	// the host page exposes one, else synthesized from the ordinal.
	ID string `json:"id"`

	// Content is the trimmed text of the message body.
	Content string `json:"content"`

	// Ordinal is the conversation-order position of the turn. It is the
	// authoritative sort key, not DOM order and not the timestamp.
	Ordinal int `json:"ordinal"`

	// CapturedAt is when the extraction pass observed the message
	// (unix millis). Informational only.
	CapturedAt int64 `json:"capturedAt"`
}

// Snapshot is the ordered message list produced by one extraction pass,
// together with the identity of the conversation it came from.
type Snapshot struct {
	URL      string    `json:"url"`
	Title    string    `json:"title"`
	Messages []Message `json:"messages"`
	TakenAt  int64     `json:"takenAt"`
}

// Find returns the message with the given id, or nil.
func (s Snapshot) Find(id string) *Message {
	for i := range s.Messages {
		if s.Messages[i].ID == id {
			return &s.Messages[i]
		}
	}
	return nil
}

// FindByOrdinal returns the first message with the given ordinal, or nil.
// Used as a fallback when a bookmarked id no longer resolves.
func (s Snapshot) FindByOrdinal(ordinal int) *Message {
	for i := range s.Messages {
		if s.Messages[i].Ordinal == ordinal {
			return &s.Messages[i]
		}
	}
	return nil
}

// SortMessages orders messages by ordinal ascending. Ties keep their
// first-encountered order.
func SortMessages(messages []Message) {
	sort.SliceStable(messages, func(i, j int) bool {
		return messages[i].Ordinal < messages[j].Ordinal
	})
}

// Package page abstracts the conversation document a source context
// reads from. A Source delivers the current document plus streams of
// mutations and location changes, and accepts navigation requests.
package page

// Document is one rendered conversation page.
type Document struct {
	HTML string
	URL  string
}

// Mutation reports a fragment added to the document. At carries the
// full document after the mutation so consumers never re-read racy
// shared state.
type Mutation struct {
	Added string
	At    Document
}

// Source is a live document feed.
type Source interface {
	// Document returns the current page.
	Document() Document

	// Mutations streams document changes as they happen.
	Mutations() <-chan Mutation

	// Locations streams the URL after each navigation.
	Locations() <-chan string

	// Navigate moves the page to url.
	Navigate(url string) error

	// Close releases the feed. The channels are closed afterwards.
	Close() error
}

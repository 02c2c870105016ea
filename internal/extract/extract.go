// Package extract turns a conversation document into a snapshot of the
// user messages it contains.
package extract

import (
	"strconv"
	"strings"
	"sync"
	"time"

	"golang.org/x/net/html"

	"github.com/chatnav/compass/internal/domain"
	"github.com/chatnav/compass/internal/page"
	"github.com/chatnav/compass/internal/sources/profile"
)

// Extractor parses documents according to a markup profile. The profile
// can be swapped at runtime when a reload picks up new selectors.
type Extractor struct {
	mu      sync.RWMutex
	profile profile.Profile
	now     func() time.Time
}

// New creates an extractor using the given profile.
func New(p profile.Profile) *Extractor {
	return &Extractor{profile: p, now: time.Now}
}

// SetProfile swaps the markup profile for subsequent extractions.
func (e *Extractor) SetProfile(p profile.Profile) {
	e.mu.Lock()
	e.profile = p
	e.mu.Unlock()
}

// Profile returns the active markup profile.
func (e *Extractor) Profile() profile.Profile {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.profile
}

// Extract scans doc and returns every user message it can identify,
// ordered by ordinal. Malformed or content-free entries are skipped
// rather than failing the whole pass.
func (e *Extractor) Extract(doc page.Document) domain.Snapshot {
	p := e.Profile()

	snap := domain.Snapshot{
		URL:     doc.URL,
		TakenAt: e.now().UnixMilli(),
	}

	root, err := html.Parse(strings.NewReader(doc.HTML))
	if err != nil {
		// html.Parse almost never fails, it repairs broken markup.
		// An empty snapshot is the honest answer when it does.
		return snap
	}

	snap.Title = pageTitle(root, p, doc.URL)

	seen := make(map[*html.Node]bool)
	capturedAt := snap.TakenAt

	walk(root, func(n *html.Node) {
		if !isMarker(n, p) {
			return
		}
		container := ancestorByTag(n, p.ContainerTag)
		if container == nil || seen[container] {
			return
		}
		seen[container] = true

		msg, ok := messageFromContainer(container, p, capturedAt)
		if !ok {
			return
		}
		snap.Messages = append(snap.Messages, msg)
	})

	domain.SortMessages(snap.Messages)
	return snap
}

// FragmentHasMarkers reports whether the HTML fragment contains at
// least one message marker. Observers use it to skip debounce passes
// for mutations that cannot possibly add a message.
func (e *Extractor) FragmentHasMarkers(fragment string) bool {
	p := e.Profile()

	root, err := html.Parse(strings.NewReader(fragment))
	if err != nil {
		return false
	}

	found := false
	walk(root, func(n *html.Node) {
		if isMarker(n, p) {
			found = true
		}
	})
	return found
}

// DetectTheme inspects the document root for dark-mode hints.
func DetectTheme(doc page.Document) domain.Theme {
	root, err := html.Parse(strings.NewReader(doc.HTML))
	if err != nil {
		return domain.ThemeLight
	}

	dark := false
	walk(root, func(n *html.Node) {
		if n.Type != html.ElementNode {
			return
		}
		if n.Data != "html" && n.Data != "body" {
			return
		}
		if hasClass(n, "dark") {
			dark = true
		}
		if attrValue(n, "data-theme") == "dark" {
			dark = true
		}
	})
	if dark {
		return domain.ThemeDark
	}
	return domain.ThemeLight
}

func messageFromContainer(container *html.Node, p profile.Profile, capturedAt int64) (domain.Message, bool) {
	content := contentText(container, p.ContentClass)
	if content == "" {
		// Image-only or otherwise empty turns carry nothing to index.
		return domain.Message{}, false
	}

	testid := attrValue(container, p.OrdinalAttr)
	ordinal := ordinalFromTestID(testid, p.OrdinalPrefix)

	var id string
	if testid != "" {
		id = "user-message-" + testid
	} else {
		id = "user-message-turn-" + strconv.Itoa(ordinal)
	}

	return domain.Message{
		ID:         id,
		Content:    content,
		Ordinal:    ordinal,
		CapturedAt: capturedAt,
	}, true
}

// contentText joins the trimmed text of every content-class descendant.
func contentText(container *html.Node, contentClass string) string {
	var parts []string
	walk(container, func(n *html.Node) {
		if n.Type != html.ElementNode || !hasClass(n, contentClass) {
			return
		}
		text := strings.TrimSpace(nodeText(n))
		if text != "" {
			parts = append(parts, text)
		}
	})
	return strings.Join(parts, "\n")
}

func ordinalFromTestID(testid, prefix string) int {
	if !strings.HasPrefix(testid, prefix) {
		return 0
	}
	n, err := strconv.Atoi(strings.TrimPrefix(testid, prefix))
	if err != nil || n < 0 {
		return 0
	}
	return n
}

// pageTitle tries each configured title tag in order, falling back to a
// label derived from the conversation URL.
func pageTitle(root *html.Node, p profile.Profile, url string) string {
	for _, tag := range p.TitleTags {
		if title := firstTagText(root, tag); title != "" {
			return title
		}
	}
	return titleFromURL(url)
}

func titleFromURL(url string) string {
	if idx := strings.Index(url, "/c/"); idx >= 0 {
		id := url[idx+len("/c/"):]
		if slash := strings.IndexByte(id, '/'); slash >= 0 {
			id = id[:slash]
		}
		if id != "" {
			return "Conversation " + id
		}
	}
	return "Untitled conversation"
}

func firstTagText(root *html.Node, tag string) string {
	var found string
	walk(root, func(n *html.Node) {
		if found != "" || n.Type != html.ElementNode || n.Data != tag {
			return
		}
		if text := strings.TrimSpace(nodeText(n)); text != "" {
			found = text
		}
	})
	return found
}

func isMarker(n *html.Node, p profile.Profile) bool {
	if n.Type != html.ElementNode || n.Data != p.MarkerTag {
		return false
	}
	if !hasClass(n, p.MarkerClass) {
		return false
	}
	return strings.TrimSpace(nodeText(n)) == p.MarkerText
}

func ancestorByTag(n *html.Node, tag string) *html.Node {
	for cur := n.Parent; cur != nil; cur = cur.Parent {
		if cur.Type == html.ElementNode && cur.Data == tag {
			return cur
		}
	}
	return nil
}

func walk(n *html.Node, fn func(*html.Node)) {
	fn(n)
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		walk(c, fn)
	}
}

func nodeText(n *html.Node) string {
	var sb strings.Builder
	walk(n, func(c *html.Node) {
		if c.Type == html.TextNode {
			sb.WriteString(c.Data)
		}
	})
	return sb.String()
}

func hasClass(n *html.Node, class string) bool {
	for _, field := range strings.Fields(attrValue(n, "class")) {
		if field == class {
			return true
		}
	}
	return false
}

func attrValue(n *html.Node, key string) string {
	for _, attr := range n.Attr {
		if attr.Key == key {
			return attr.Val
		}
	}
	return ""
}

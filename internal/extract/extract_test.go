package extract

import (
	"strings"
	"testing"

	"github.com/chatnav/compass/internal/page"
	"github.com/chatnav/compass/internal/sources/profile"
)

func turn(n int, content string) string {
	return `<article data-testid="conversation-turn-` + itoa(n) + `">` +
		`<h5 class="sr-only">You said:</h5>` +
		`<div class="whitespace-pre-wrap">` + content + `</div>` +
		`</article>`
}

func itoa(n int) string {
	digits := "0123456789"
	if n < 10 {
		return string(digits[n])
	}
	return itoa(n/10) + string(digits[n%10])
}

func doc(body string) page.Document {
	return page.Document{
		HTML: "<html><body>" + body + "</body></html>",
		URL:  "https://chat.example/c/abc123",
	}
}

func TestExtractOrdersByOrdinal(t *testing.T) {
	e := New(profile.Default())
	snap := e.Extract(doc(turn(5, "third") + turn(1, "first") + turn(3, "second")))

	if len(snap.Messages) != 3 {
		t.Fatalf("got %d messages, want 3", len(snap.Messages))
	}
	wantContent := []string{"first", "second", "third"}
	wantOrdinal := []int{1, 3, 5}
	for i, msg := range snap.Messages {
		if msg.Content != wantContent[i] {
			t.Errorf("messages[%d].Content = %q, want %q", i, msg.Content, wantContent[i])
		}
		if msg.Ordinal != wantOrdinal[i] {
			t.Errorf("messages[%d].Ordinal = %d, want %d", i, msg.Ordinal, wantOrdinal[i])
		}
		if msg.ID != "user-message-conversation-turn-"+itoa(wantOrdinal[i]) {
			t.Errorf("messages[%d].ID = %q", i, msg.ID)
		}
	}
}

func TestExtractEmptyDocument(t *testing.T) {
	e := New(profile.Default())
	snap := e.Extract(doc(""))
	if len(snap.Messages) != 0 {
		t.Errorf("got %d messages, want 0", len(snap.Messages))
	}
}

func TestExtractSkipsContentFreeTurn(t *testing.T) {
	imageOnly := `<article data-testid="conversation-turn-2">` +
		`<h5 class="sr-only">You said:</h5>` +
		`<div class="whitespace-pre-wrap">   </div>` +
		`<img src="x.png">` +
		`</article>`

	e := New(profile.Default())
	snap := e.Extract(doc(turn(1, "hello") + imageOnly))
	if len(snap.Messages) != 1 {
		t.Fatalf("got %d messages, want 1 (image-only turn skipped)", len(snap.Messages))
	}
	if snap.Messages[0].Content != "hello" {
		t.Errorf("Content = %q", snap.Messages[0].Content)
	}
}

func TestExtractIgnoresAssistantTurns(t *testing.T) {
	assistant := `<article data-testid="conversation-turn-2">` +
		`<h5 class="sr-only">ChatGPT said:</h5>` +
		`<div class="whitespace-pre-wrap">reply</div>` +
		`</article>`

	e := New(profile.Default())
	snap := e.Extract(doc(turn(1, "ask") + assistant))
	if len(snap.Messages) != 1 {
		t.Fatalf("got %d messages, want 1", len(snap.Messages))
	}
}

func TestExtractMarkerOutsideContainerSkipped(t *testing.T) {
	stray := `<div><h5 class="sr-only">You said:</h5>` +
		`<div class="whitespace-pre-wrap">floating</div></div>`

	e := New(profile.Default())
	snap := e.Extract(doc(stray))
	if len(snap.Messages) != 0 {
		t.Errorf("got %d messages, want 0 (marker without container)", len(snap.Messages))
	}
}

func TestExtractIDFallbackWithoutTestID(t *testing.T) {
	noTestID := `<article>` +
		`<h5 class="sr-only">You said:</h5>` +
		`<div class="whitespace-pre-wrap">legacy markup</div>` +
		`</article>`

	e := New(profile.Default())
	snap := e.Extract(doc(noTestID))
	if len(snap.Messages) != 1 {
		t.Fatalf("got %d messages, want 1", len(snap.Messages))
	}
	if snap.Messages[0].ID != "user-message-turn-0" {
		t.Errorf("ID = %q, want user-message-turn-0", snap.Messages[0].ID)
	}
	if snap.Messages[0].Ordinal != 0 {
		t.Errorf("Ordinal = %d, want 0", snap.Messages[0].Ordinal)
	}
}

func TestExtractJoinsMultipleContentBlocks(t *testing.T) {
	multi := `<article data-testid="conversation-turn-1">` +
		`<h5 class="sr-only">You said:</h5>` +
		`<div class="whitespace-pre-wrap">line one</div>` +
		`<div class="whitespace-pre-wrap">line two</div>` +
		`</article>`

	e := New(profile.Default())
	snap := e.Extract(doc(multi))
	if len(snap.Messages) != 1 {
		t.Fatalf("got %d messages, want 1", len(snap.Messages))
	}
	if snap.Messages[0].Content != "line one\nline two" {
		t.Errorf("Content = %q", snap.Messages[0].Content)
	}
}

func TestExtractTitleFallbackChain(t *testing.T) {
	tests := []struct {
		name string
		body string
		url  string
		want string
	}{
		{
			name: "h1 wins",
			body: "<h1>My Chat</h1><h2>sub</h2>",
			url:  "https://chat.example/c/abc",
			want: "My Chat",
		},
		{
			name: "h2 when no h1",
			body: "<h2>Section</h2>",
			url:  "https://chat.example/c/abc",
			want: "Section",
		},
		{
			name: "url derived",
			body: "",
			url:  "https://chat.example/c/abc123",
			want: "Conversation abc123",
		},
		{
			name: "no conversation id",
			body: "",
			url:  "https://chat.example/",
			want: "Untitled conversation",
		},
	}

	e := New(profile.Default())
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			snap := e.Extract(page.Document{
				HTML: "<html><body>" + tt.body + "</body></html>",
				URL:  tt.url,
			})
			if snap.Title != tt.want {
				t.Errorf("Title = %q, want %q", snap.Title, tt.want)
			}
		})
	}
}

func TestFragmentHasMarkers(t *testing.T) {
	e := New(profile.Default())

	if !e.FragmentHasMarkers(`<h5 class="sr-only">You said:</h5>`) {
		t.Error("marker fragment not detected")
	}
	if e.FragmentHasMarkers(`<div class="toolbar">buttons</div>`) {
		t.Error("non-marker fragment misdetected")
	}
}

func TestDetectTheme(t *testing.T) {
	dark := page.Document{HTML: `<html class="dark"><body></body></html>`}
	if got := DetectTheme(dark); got != "dark" {
		t.Errorf("DetectTheme(dark class) = %q", got)
	}

	attr := page.Document{HTML: `<html data-theme="dark"><body></body></html>`}
	if got := DetectTheme(attr); got != "dark" {
		t.Errorf("DetectTheme(data-theme) = %q", got)
	}

	light := page.Document{HTML: `<html><body></body></html>`}
	if got := DetectTheme(light); got != "light" {
		t.Errorf("DetectTheme(plain) = %q", got)
	}
}

func TestSetProfileTakesEffect(t *testing.T) {
	e := New(profile.Default())
	p := profile.Default()
	p.MarkerText = "Du sagtest:"
	e.SetProfile(p)

	german := strings.Replace(turn(1, "hallo"), "You said:", "Du sagtest:", 1)
	snap := e.Extract(doc(german))
	if len(snap.Messages) != 1 {
		t.Fatalf("got %d messages, want 1 after profile swap", len(snap.Messages))
	}

	snap = e.Extract(doc(turn(1, "hello")))
	if len(snap.Messages) != 0 {
		t.Errorf("old marker text still matched after swap")
	}
}

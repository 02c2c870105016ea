package page

import (
	"sync"
	"testing"
)

func TestMemoryDocumentAppendEmitsMutation(t *testing.T) {
	doc := NewMemoryDocument("<html></html>", "https://chat.example/c/1")
	defer doc.Close()

	doc.AppendHTML("<article>hi</article>")

	select {
	case mut := <-doc.Mutations():
		if mut.Added != "<article>hi</article>" {
			t.Errorf("Added = %q", mut.Added)
		}
		if mut.At.HTML != "<html></html><article>hi</article>" {
			t.Errorf("At.HTML = %q", mut.At.HTML)
		}
	default:
		t.Fatal("expected a buffered mutation")
	}
}

func TestMemoryDocumentNavigateEmitsLocation(t *testing.T) {
	doc := NewMemoryDocument("", "https://chat.example/c/1")
	defer doc.Close()

	if err := doc.Navigate("https://chat.example/c/2"); err != nil {
		t.Fatalf("Navigate() error = %v", err)
	}

	if got := doc.Document().URL; got != "https://chat.example/c/2" {
		t.Errorf("URL = %q", got)
	}
	select {
	case url := <-doc.Locations():
		if url != "https://chat.example/c/2" {
			t.Errorf("location = %q", url)
		}
	default:
		t.Fatal("expected a buffered location")
	}
}

func TestMemoryDocumentCloseIsIdempotent(t *testing.T) {
	doc := NewMemoryDocument("", "")
	if err := doc.Close(); err != nil {
		t.Fatalf("Close() error = %v", err)
	}
	if err := doc.Close(); err != nil {
		t.Fatalf("second Close() error = %v", err)
	}
	// Mutating after close must not panic on closed channels.
	doc.SetHTML("x")
	doc.AppendHTML("y")
	if err := doc.Navigate("u"); err != nil {
		t.Fatalf("Navigate() after close error = %v", err)
	}
}

func TestMemoryDocumentCloseRacingMutations(t *testing.T) {
	doc := NewMemoryDocument("<html></html>", "https://chat.example/c/1")

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < 200; j++ {
				doc.SetHTML("<p>x</p>")
				doc.AppendHTML("<p>y</p>")
				_ = doc.Navigate("https://chat.example/c/2")
			}
		}()
	}

	// Close mid-flight. A mutation slipping past the closed check would
	// panic with a send on a closed channel.
	if err := doc.Close(); err != nil {
		t.Fatalf("Close() error = %v", err)
	}
	wg.Wait()
}

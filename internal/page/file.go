package page

import (
	"fmt"
	"os"
	"sync"

	"github.com/fsnotify/fsnotify"

	"github.com/chatnav/compass/internal/logger"
)

// FileDocument watches an HTML file on disk and treats rewrites as page
// mutations. It is the deployment-facing Source: point it at a dump of
// the conversation page and edits flow through like live DOM changes.
type FileDocument struct {
	mu      sync.RWMutex
	doc     Document
	path    string
	watcher *fsnotify.Watcher
	log     logger.Logger

	mutations chan Mutation
	locations chan string
	closed    bool
	done      chan struct{}
	closeOnce sync.Once
}

// NewFileDocument reads path and starts watching it for rewrites.
func NewFileDocument(path, url string, log logger.Logger) (*FileDocument, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read document %s: %w", path, err)
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("failed to create file watcher: %w", err)
	}
	if err := watcher.Add(path); err != nil {
		_ = watcher.Close()
		return nil, fmt.Errorf("failed to watch %s: %w", path, err)
	}

	f := &FileDocument{
		doc:       Document{HTML: string(data), URL: url},
		path:      path,
		watcher:   watcher,
		log:       log,
		mutations: make(chan Mutation, 16),
		locations: make(chan string, 4),
		done:      make(chan struct{}),
	}
	go f.loop()
	return f, nil
}

func (f *FileDocument) Document() Document {
	f.mu.RLock()
	defer f.mu.RUnlock()
	return f.doc
}

func (f *FileDocument) Mutations() <-chan Mutation { return f.mutations }
func (f *FileDocument) Locations() <-chan string   { return f.locations }

// Navigate only relabels the URL. The backing file is the single page
// this source can show, so navigation does not change content.
func (f *FileDocument) Navigate(url string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.closed {
		return nil
	}
	f.doc.URL = url
	select {
	case f.locations <- url:
	default:
	}
	return nil
}

func (f *FileDocument) loop() {
	for {
		select {
		case <-f.done:
			return

		case event, ok := <-f.watcher.Events:
			if !ok {
				return
			}
			if event.Op&(fsnotify.Write|fsnotify.Create) == 0 {
				continue
			}
			f.reload()

		case err, ok := <-f.watcher.Errors:
			if !ok {
				return
			}
			f.log.Warn("document watcher error", logger.Error(err))
		}
	}
}

func (f *FileDocument) reload() {
	data, err := os.ReadFile(f.path)
	if err != nil {
		f.log.Warn("failed to re-read document",
			logger.String("path", f.path),
			logger.Error(err))
		return
	}

	// The send stays inside the critical section so a concurrent Close
	// cannot close the channel between the closed check and the send.
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.closed {
		return
	}
	old := f.doc.HTML
	f.doc.HTML = string(data)
	if old == f.doc.HTML {
		return
	}

	select {
	case f.mutations <- Mutation{Added: f.doc.HTML, At: f.doc}:
	default:
		f.log.Debug("dropping mutation, consumer behind",
			logger.String("path", f.path))
	}
}

func (f *FileDocument) Close() error {
	var err error
	f.closeOnce.Do(func() {
		close(f.done)
		err = f.watcher.Close()

		f.mu.Lock()
		f.closed = true
		close(f.mutations)
		close(f.locations)
		f.mu.Unlock()
	})
	return err
}

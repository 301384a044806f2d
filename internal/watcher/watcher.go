// ABOUTME: Directory watcher that ingests new and modified text files as documents
// ABOUTME: Bursts of writes to one file are debounced into a single ingest
package watcher

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"time"

	"github.com/charmbracelet/log"
	"github.com/fsnotify/fsnotify"
	"github.com/harper/recall/internal/models"
)

// DefaultDebounce is how long a file must be quiet before it is ingested
const DefaultDebounce = 500 * time.Millisecond

// DefaultExtensions are the file types ingested when none are configured
var DefaultExtensions = []string{".txt", ".md"}

// Ingester stores a document
type Ingester interface {
	Ingest(ctx context.Context, name, text string) (models.Document, error)
}

// Options configures a Watcher
type Options struct {
	Extensions []string
	Debounce   time.Duration
	Logger     *log.Logger
	// OnIngest is called after each successful ingest
	OnIngest func(path string, doc models.Document)
}

// Watcher monitors one directory
type Watcher struct {
	watcher    *fsnotify.Watcher
	ingester   Ingester
	extensions []string
	debounce   time.Duration
	onIngest   func(string, models.Document)
	logger     *log.Logger
}

// New creates a watcher that feeds ingester
func New(ingester Ingester, opts Options) (*Watcher, error) {
	w, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("failed to create watcher: %w", err)
	}

	if len(opts.Extensions) == 0 {
		opts.Extensions = DefaultExtensions
	}
	if opts.Debounce <= 0 {
		opts.Debounce = DefaultDebounce
	}
	if opts.Logger == nil {
		opts.Logger = log.Default()
	}

	return &Watcher{
		watcher:    w,
		ingester:   ingester,
		extensions: opts.Extensions,
		debounce:   opts.Debounce,
		onIngest:   opts.OnIngest,
		logger:     opts.Logger.WithPrefix("watcher"),
	}, nil
}

// Run watches dir until ctx is canceled
func (w *Watcher) Run(ctx context.Context, dir string) error {
	defer func() { _ = w.watcher.Close() }()

	if err := w.watcher.Add(dir); err != nil {
		return fmt.Errorf("watch %s: %w", dir, err)
	}
	w.logger.Info("watching", "dir", dir, "extensions", strings.Join(w.extensions, ","))

	d := newDebouncer(w.debounce)
	defer d.stop()

	for {
		select {
		case <-ctx.Done():
			return nil

		case event, ok := <-w.watcher.Events:
			if !ok {
				return nil
			}
			if !w.isWatchedExtension(event.Name) {
				continue
			}
			if !event.Has(fsnotify.Create) && !event.Has(fsnotify.Write) {
				continue
			}
			d.touch(ctx, event.Name)

		case r := <-d.ready:
			if !d.claim(r) {
				continue
			}
			doc, err := IngestFile(ctx, w.ingester, r.path, filepath.Base(r.path))
			if err != nil {
				w.logger.Warn("ingest failed", "path", r.path, "err", err)
				continue
			}
			w.logger.Info("ingested", "path", r.path, "id", doc.ID)
			if w.onIngest != nil {
				w.onIngest(r.path, doc)
			}

		case err, ok := <-w.watcher.Errors:
			if !ok {
				return nil
			}
			w.logger.Error("watch error", "err", err)
		}
	}
}

// readyPath is a quiet path tagged with the timer generation that produced it
type readyPath struct {
	path string
	gen  uint64
}

type pendingPath struct {
	timer *time.Timer
	gen   uint64
}

// debouncer delivers a path on ready once it has gone delay without a touch.
// touch and claim must be called from a single goroutine.
type debouncer struct {
	delay   time.Duration
	ready   chan readyPath
	pending map[string]*pendingPath
	gen     uint64
}

func newDebouncer(delay time.Duration) *debouncer {
	return &debouncer{
		delay:   delay,
		ready:   make(chan readyPath, 16),
		pending: make(map[string]*pendingPath),
	}
}

func (d *debouncer) touch(ctx context.Context, path string) {
	p, exists := d.pending[path]
	if exists && p.timer.Stop() {
		p.timer.Reset(d.delay)
		return
	}
	if !exists {
		p = &pendingPath{}
		d.pending[path] = p
	}
	// a fired timer may already have queued this path; the new generation makes that send stale
	d.gen++
	gen := d.gen
	p.gen = gen
	p.timer = time.AfterFunc(d.delay, func() {
		select {
		case d.ready <- readyPath{path: path, gen: gen}:
		case <-ctx.Done():
		}
	})
}

// claim reports whether r is the latest delivery for its path and forgets the path if so
func (d *debouncer) claim(r readyPath) bool {
	p, ok := d.pending[r.path]
	if !ok || p.gen != r.gen {
		return false
	}
	delete(d.pending, r.path)
	return true
}

func (d *debouncer) stop() {
	for _, p := range d.pending {
		p.timer.Stop()
	}
}

func (w *Watcher) isWatchedExtension(path string) bool {
	return slices.Contains(w.extensions, strings.ToLower(filepath.Ext(path)))
}

// ErrEmptyFile is returned for files with no text to embed
var ErrEmptyFile = errors.New("file is empty")

// IngestFile reads path and ingests its contents under name
func IngestFile(ctx context.Context, ingester Ingester, path, name string) (models.Document, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return models.Document{}, fmt.Errorf("read %s: %w", path, err)
	}
	text := strings.TrimSpace(string(data))
	if text == "" {
		return models.Document{}, fmt.Errorf("%s: %w", path, ErrEmptyFile)
	}
	return ingester.Ingest(ctx, name, text)
}

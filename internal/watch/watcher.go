// Package watch reports changes to Worldview documents under a directory
// so they can be re-validated as they are edited.
package watch

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/ppiankov/worldview/internal/model"
)

const eventBuffer = 256

// Op is the kind of change observed for a document
type Op string

const (
	OpCreate Op = "create"
	OpModify Op = "modify"
	OpDelete Op = "delete"
)

// Event is a debounced, content-deduplicated document change
type Event struct {
	Path    string // relative to the watched root
	AbsPath string
	Op      Op
}

// Watcher watches a directory tree for document changes
type Watcher struct {
	root       string
	debounce   time.Duration
	extensions map[string]bool
	excludes   map[string]bool
	fsw        *fsnotify.Watcher
	logger     *slog.Logger

	pendingMu sync.Mutex
	pending   map[string]fsnotify.Op

	hashMu sync.Mutex
	hashes map[string]string

	events  chan Event
	dropped atomic.Int64
}

// New creates a watcher for root. A nil logger uses slog.Default().
func New(cfg model.WatchConfig, root string, logger *slog.Logger) (*Watcher, error) {
	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}
	if logger == nil {
		logger = slog.Default()
	}

	debounce := cfg.Debounce
	if debounce <= 0 {
		debounce = 300 * time.Millisecond
	}

	extensions := make(map[string]bool)
	for _, ext := range cfg.Extensions {
		if !strings.HasPrefix(ext, ".") {
			ext = "." + ext
		}
		extensions[strings.ToLower(ext)] = true
	}
	if len(extensions) == 0 {
		extensions[".wvf"] = true
	}

	excludes := make(map[string]bool)
	for _, dir := range cfg.ExcludeDirs {
		excludes[dir] = true
	}

	return &Watcher{
		root:       root,
		debounce:   debounce,
		extensions: extensions,
		excludes:   excludes,
		fsw:        fsw,
		logger:     logger,
		pending:    make(map[string]fsnotify.Op),
		hashes:     make(map[string]string),
		events:     make(chan Event, eventBuffer),
	}, nil
}

// Events returns the change channel. It is closed when the watcher stops.
func (w *Watcher) Events() <-chan Event {
	return w.events
}

// Start adds watches under root and begins processing. Documents already
// present are hashed and, when emitExisting is set, reported as creates.
func (w *Watcher) Start(ctx context.Context, emitExisting bool) error {
	info, err := os.Stat(w.root)
	if err != nil {
		return err
	}
	if !info.IsDir() {
		return errors.New("watch root is not a directory: " + w.root)
	}

	var existing []string
	err = filepath.WalkDir(w.root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			if path != w.root && w.skipDir(d.Name()) {
				return filepath.SkipDir
			}
			if err := w.fsw.Add(path); err != nil {
				w.logger.Warn("Failed to watch directory", "path", path, "error", err)
			}
			return nil
		}
		if w.isDocument(path) {
			existing = append(existing, path)
		}
		return nil
	})
	if err != nil {
		return err
	}

	var initial []Event
	for _, path := range existing {
		if _, changed := w.rehash(path); changed && emitExisting {
			initial = append(initial, Event{Path: w.rel(path), AbsPath: path, Op: OpCreate})
		}
	}

	go w.loop(ctx, initial)

	w.logger.Info("Watching documents",
		"root", w.root,
		"documents", len(existing),
		"debounce", w.debounce)
	return nil
}

// Stop closes the underlying watcher; Events is closed shortly after
func (w *Watcher) Stop() error {
	return w.fsw.Close()
}

// Dropped returns how many events were dropped because nobody was reading
func (w *Watcher) Dropped() int64 {
	return w.dropped.Load()
}

func (w *Watcher) loop(ctx context.Context, initial []Event) {
	defer close(w.events)

	// the startup scan is delivered in full; only live changes may be dropped
	for _, ev := range initial {
		select {
		case w.events <- ev:
		case <-ctx.Done():
			return
		}
	}

	ticker := time.NewTicker(w.debounce)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return

		case ev, ok := <-w.fsw.Events:
			if !ok {
				return
			}
			w.handle(ev)

		case err, ok := <-w.fsw.Errors:
			if !ok {
				return
			}
			w.logger.Error("Watcher error", "error", err)

		case <-ticker.C:
			w.flush(ctx)
		}
	}
}

func (w *Watcher) handle(ev fsnotify.Event) {
	if ev.Has(fsnotify.Create) {
		if info, err := os.Stat(ev.Name); err == nil && info.IsDir() {
			if !w.skipDir(filepath.Base(ev.Name)) {
				if err := w.fsw.Add(ev.Name); err != nil {
					w.logger.Warn("Failed to watch new directory", "path", ev.Name, "error", err)
				}
			}
			return
		}
	}
	if !w.isDocument(ev.Name) || w.excluded(ev.Name) {
		return
	}

	w.pendingMu.Lock()
	w.pending[ev.Name] |= ev.Op
	w.pendingMu.Unlock()
}

func (w *Watcher) flush(ctx context.Context) {
	w.pendingMu.Lock()
	if len(w.pending) == 0 {
		w.pendingMu.Unlock()
		return
	}
	batch := w.pending
	w.pending = make(map[string]fsnotify.Op)
	w.pendingMu.Unlock()

	for path := range batch {
		if ctx.Err() != nil {
			return
		}

		ev := Event{Path: w.rel(path), AbsPath: path}
		if _, err := os.Stat(path); errors.Is(err, fs.ErrNotExist) {
			w.hashMu.Lock()
			_, known := w.hashes[path]
			delete(w.hashes, path)
			w.hashMu.Unlock()
			if known {
				ev.Op = OpDelete
				w.send(ev)
			}
			continue
		}

		existed, changed := w.rehash(path)
		if !changed {
			continue
		}
		ev.Op = OpModify
		if !existed {
			ev.Op = OpCreate
		}
		w.send(ev)
	}
}

// rehash records the file's content hash and reports whether it was known
// before and whether the content differs from the recorded hash
func (w *Watcher) rehash(path string) (existed, changed bool) {
	content, err := os.ReadFile(path)
	if err != nil {
		w.logger.Warn("Failed to read document", "path", path, "error", err)
		return false, false
	}
	sum := sha256.Sum256(content)
	hash := hex.EncodeToString(sum[:])

	w.hashMu.Lock()
	defer w.hashMu.Unlock()
	old, existed := w.hashes[path]
	w.hashes[path] = hash
	return existed, !existed || old != hash
}

func (w *Watcher) send(ev Event) {
	select {
	case w.events <- ev:
		w.logger.Debug("Document changed", "path", ev.Path, "op", ev.Op)
	default:
		dropped := w.dropped.Add(1)
		w.logger.Warn("Event channel full, dropping event", "path", ev.Path, "total_dropped", dropped)
	}
}

func (w *Watcher) isDocument(path string) bool {
	return w.extensions[strings.ToLower(filepath.Ext(path))]
}

func (w *Watcher) skipDir(name string) bool {
	return w.excludes[name] || (strings.HasPrefix(name, ".") && name != ".")
}

func (w *Watcher) excluded(path string) bool {
	rel := w.rel(path)
	for _, part := range strings.Split(filepath.Dir(rel), string(filepath.Separator)) {
		if w.skipDir(part) {
			return true
		}
	}
	return false
}

func (w *Watcher) rel(path string) string {
	rel, err := filepath.Rel(w.root, path)
	if err != nil {
		return path
	}
	return rel
}

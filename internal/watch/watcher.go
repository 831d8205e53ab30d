// Package watch reloads a workbook whenever its file changes on disk.
package watch

import (
	"context"
	"fmt"
	"io"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/sirupsen/logrus"

	"github.com/klytics/xlkit/internal/workbook"
)

// DefaultDebounce is how long a file must be quiet before it is reloaded.
const DefaultDebounce = 500 * time.Millisecond

// Event records one reload.
type Event struct {
	Time      time.Time `json:"time"`
	Path      string    `json:"path"`
	Operation string    `json:"operation"`
	Status    string    `json:"status"` // "processed", "error"
	Sheets    int       `json:"sheets,omitempty"`
	Error     string    `json:"error,omitempty"`
}

// Handler receives the reloaded workbook, or the error that prevented
// loading it.
type Handler func(wb *workbook.Workbook, err error)

// Status represents the current watcher status.
type Status struct {
	Running    bool      `json:"running"`
	Path       string    `json:"path"`
	EventCount int       `json:"eventCount"`
	StartedAt  time.Time `json:"startedAt,omitempty"`
}

// Config holds the watcher settings.
type Config struct {
	Debounce time.Duration
	Logger   *logrus.Logger
}

// Watcher monitors a single workbook file.
type Watcher struct {
	Handler Handler

	handle   *workbook.Handle
	path     string
	debounce time.Duration
	log      *logrus.Logger

	mu        sync.Mutex
	events    []Event
	running   bool
	startedAt time.Time
	watcher   *fsnotify.Watcher
}

// New creates a Watcher for the workbook behind h. The file does not need
// to exist yet; its directory does.
func New(h *workbook.Handle, cfg Config) (*Watcher, error) {
	path, err := filepath.Abs(h.Path())
	if err != nil {
		return nil, fmt.Errorf("could not resolve %s: %w", h.Path(), err)
	}

	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("could not create file watcher: %w", err)
	}

	if cfg.Debounce <= 0 {
		cfg.Debounce = DefaultDebounce
	}
	if cfg.Logger == nil {
		cfg.Logger = logrus.New()
		cfg.Logger.SetOutput(io.Discard)
	}

	return &Watcher{
		handle:   h,
		path:     path,
		debounce: cfg.Debounce,
		log:      cfg.Logger,
		watcher:  fsw,
	}, nil
}

// Start watches the workbook's directory. It blocks until ctx is cancelled.
// Reloads run on the calling goroutine one at a time, so Start never returns
// while a Handler call is in progress.
func (w *Watcher) Start(ctx context.Context) error {
	dir := filepath.Dir(w.path)
	if err := w.watcher.Add(dir); err != nil {
		w.watcher.Close()
		return fmt.Errorf("could not watch %s: %w", dir, err)
	}

	w.mu.Lock()
	w.startedAt = time.Now()
	w.running = true
	w.mu.Unlock()
	defer func() {
		w.mu.Lock()
		w.running = false
		w.mu.Unlock()
	}()

	w.log.WithField("path", w.path).Info("watching workbook")

	// Saves arrive as bursts of events; reload once they settle.
	debounce := time.NewTimer(w.debounce)
	debounce.Stop()
	defer debounce.Stop()
	var pending string

	for {
		select {
		case <-ctx.Done():
			w.log.Debug("stopping watcher")
			return w.watcher.Close()
		case event, ok := <-w.watcher.Events:
			if !ok {
				return nil
			}
			if !w.relevant(event) {
				continue
			}
			pending = event.Op.String()
			if !debounce.Stop() {
				select {
				case <-debounce.C:
				default:
				}
			}
			debounce.Reset(w.debounce)
		case <-debounce.C:
			if pending == "" {
				continue
			}
			w.reload(pending)
			pending = ""
		case err, ok := <-w.watcher.Errors:
			if !ok {
				return nil
			}
			w.log.WithError(err).Warn("watch error")
		}
	}
}

func (w *Watcher) relevant(event fsnotify.Event) bool {
	if !event.Has(fsnotify.Create) && !event.Has(fsnotify.Write) {
		return false
	}
	return w.matches(event.Name)
}

func (w *Watcher) matches(name string) bool {
	base := filepath.Base(name)
	if strings.HasPrefix(base, "~$") || strings.HasPrefix(base, ".~") {
		return false
	}
	abs, err := filepath.Abs(name)
	if err != nil {
		return false
	}
	return abs == w.path
}

func (w *Watcher) reload(operation string) {
	evt := Event{
		Time:      time.Now(),
		Path:      w.path,
		Operation: operation,
	}

	wb, err := w.load()
	if err != nil {
		evt.Status = "error"
		evt.Error = err.Error()
		w.log.WithError(err).WithField("path", w.path).Warn("could not reload workbook")
	} else {
		evt.Status = "processed"
		evt.Sheets = len(wb.Sheets)
		w.log.WithFields(logrus.Fields{"path": w.path, "sheets": evt.Sheets}).Debug("workbook reloaded")
	}

	w.mu.Lock()
	w.events = append(w.events, evt)
	handler := w.Handler
	w.mu.Unlock()

	if handler != nil {
		handler(wb, err)
	}
}

// load reads the file without creating it, unlike Handle.Open.
func (w *Watcher) load() (*workbook.Workbook, error) {
	s, err := w.handle.Begin()
	if err != nil {
		return nil, err
	}
	defer s.Close()
	return s.Snapshot()
}

// GetStatus returns the current watcher status.
func (w *Watcher) GetStatus() Status {
	w.mu.Lock()
	defer w.mu.Unlock()
	return Status{
		Running:    w.running,
		Path:       w.path,
		EventCount: len(w.events),
		StartedAt:  w.startedAt,
	}
}

// GetEvents returns all recorded events.
func (w *Watcher) GetEvents() []Event {
	w.mu.Lock()
	defer w.mu.Unlock()
	events := make([]Event, len(w.events))
	copy(events, w.events)
	return events
}

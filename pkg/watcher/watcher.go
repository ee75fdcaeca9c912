// Package watcher wraps fsnotify with per-path debouncing. Bursts of change
// notifications for one path coalesce into a single published event after a
// quiet period, bounded by a maximum wait from the first unhandled change.
package watcher

import (
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/moby/patternmatcher"
	"github.com/sirupsen/logrus"

	"github.com/specdeck/specdeck/config"
	"github.com/specdeck/specdeck/errors"
	"github.com/specdeck/specdeck/logging"
	"github.com/specdeck/specdeck/pkg/events"
)

// pendingDebounce tracks one path between its first unhandled change and the
// eventual publish. At most one live timer exists per path.
type pendingDebounce struct {
	timer      *time.Timer
	firstEvent time.Time
}

// Watcher watches a workflow root recursively and publishes debounced
// file.created/file.changed/file.deleted events on the bus.
type Watcher struct {
	bus      *events.Bus
	debounce time.Duration
	maxWait  time.Duration
	watched  map[string]struct{}
	matcher  *patternmatcher.PatternMatcher
	logger   *logrus.Entry

	mu       sync.Mutex
	fsw      *fsnotify.Watcher
	root     string
	watching bool
	pending  map[string]*pendingDebounce
	latest   map[string]events.EventType
	loopDone chan struct{}

	// fires counts in-flight debounce publishes. Entered under mu, so a
	// fire either registers here before StopWatching flips watching off or
	// observes the flip and publishes nothing.
	fires sync.WaitGroup
}

// New creates a watcher configured from cfg. It does not start watching.
func New(cfg *config.Config, bus *events.Bus) (*Watcher, error) {
	matcher, err := patternmatcher.New(cfg.Workflow.IgnorePatterns)
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrCodeConfigInvalid, "invalid ignore patterns")
	}

	watched := make(map[string]struct{}, len(cfg.Workflow.WatchedFiles))
	for _, name := range cfg.Workflow.WatchedFiles {
		watched[name] = struct{}{}
	}

	return &Watcher{
		bus:      bus,
		debounce: cfg.Sync.Debounce(),
		maxWait:  cfg.Sync.MaxWait(),
		watched:  watched,
		matcher:  matcher,
		logger:   logging.NewLogger("watcher"),
		pending:  make(map[string]*pendingDebounce),
		latest:   make(map[string]events.EventType),
	}, nil
}

// StartWatching begins recursive watching from root. A failure is returned,
// never panicked. Calling it while already watching stops and restarts.
func (w *Watcher) StartWatching(root string) error {
	// Idempotent: restart cleanly if already running.
	w.StopWatching()

	info, err := os.Stat(root)
	if err != nil {
		return errors.WatchRootNotFound(root)
	}
	if !info.IsDir() {
		return errors.WatchRootInvalid(root, nil)
	}

	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return errors.Wrap(err, errors.ErrCodeInternal, "failed to create fsnotify watcher")
	}

	if err := w.addRecursive(fsw, root); err != nil {
		fsw.Close()
		return errors.WatchRootInvalid(root, err)
	}

	done := make(chan struct{})

	w.mu.Lock()
	w.fsw = fsw
	w.root = root
	w.watching = true
	w.pending = make(map[string]*pendingDebounce)
	w.latest = make(map[string]events.EventType)
	w.loopDone = done
	w.mu.Unlock()

	go w.loop(fsw, done)

	w.logger.WithField("root", root).Info("Started watching")
	return nil
}

// StopWatching cancels every pending timer without firing, tears down the
// fsnotify watcher and waits for the event loop to exit. Safe to call
// repeatedly and from any goroutine; no event is published after it returns.
func (w *Watcher) StopWatching() {
	w.mu.Lock()
	if !w.watching {
		w.mu.Unlock()
		return
	}
	w.watching = false
	for _, p := range w.pending {
		p.timer.Stop()
	}
	w.pending = make(map[string]*pendingDebounce)
	w.latest = make(map[string]events.EventType)
	fsw := w.fsw
	w.fsw = nil
	done := w.loopDone
	w.mu.Unlock()

	// A fire that passed its check before the flip above may still be
	// publishing; the guarantee is that none completes after we return.
	w.fires.Wait()

	if err := fsw.Close(); err != nil {
		w.logger.WithError(err).Warn("Error closing fsnotify watcher")
	}
	<-done
	w.logger.Debug("Stopped watching")
}

// AddWatchDirectory extends the watch set with an additional directory.
func (w *Watcher) AddWatchDirectory(path string) error {
	w.mu.Lock()
	fsw := w.fsw
	watching := w.watching
	w.mu.Unlock()

	if !watching {
		return errors.WatcherClosed()
	}
	if err := fsw.Add(path); err != nil {
		return errors.WatchRootInvalid(path, err)
	}
	return nil
}

// addRecursive walks root and registers every non-ignored directory.
func (w *Watcher) addRecursive(fsw *fsnotify.Watcher, root string) error {
	return filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			// Unreadable subtrees are skipped, not fatal.
			w.logger.WithError(err).WithField("path", path).Debug("Skipping unreadable path")
			if d != nil && d.IsDir() {
				return filepath.SkipDir
			}
			return nil
		}
		if !d.IsDir() {
			return nil
		}
		if w.ignored(root, path) {
			return filepath.SkipDir
		}
		return fsw.Add(path)
	})
}

// ignored reports whether path matches one of the ignore patterns.
func (w *Watcher) ignored(root, path string) bool {
	rel, err := filepath.Rel(root, path)
	if err != nil || rel == "." || strings.HasPrefix(rel, "..") {
		return false
	}
	matched, err := w.matcher.MatchesOrParentMatches(filepath.ToSlash(rel))
	if err != nil {
		return false
	}
	return matched
}

// loop consumes raw fsnotify events until the watcher is closed.
func (w *Watcher) loop(fsw *fsnotify.Watcher, done chan struct{}) {
	defer close(done)
	for {
		select {
		case event, ok := <-fsw.Events:
			if !ok {
				return
			}
			w.handleRaw(fsw, event)
		case err, ok := <-fsw.Errors:
			if !ok {
				return
			}
			w.logger.WithError(err).Error("Watcher error")
		}
	}
}

// handleRaw filters one raw event down to the debounce state machine.
func (w *Watcher) handleRaw(fsw *fsnotify.Watcher, event fsnotify.Event) {
	w.logger.WithFields(logrus.Fields{"path": event.Name, "op": event.Op.String()}).Debug("fsnotify event")

	w.mu.Lock()
	root := w.root
	w.mu.Unlock()

	if w.ignored(root, event.Name) {
		return
	}

	// New directories join the watch set; directory events never reach the
	// state machine.
	if event.Op&fsnotify.Create != 0 {
		if info, err := os.Stat(event.Name); err == nil && info.IsDir() {
			if err := w.addRecursive(fsw, event.Name); err != nil {
				w.logger.WithError(err).WithField("path", event.Name).Warn("Failed to watch new directory")
			}
			// Files written before the watch landed would otherwise be missed.
			w.scanExisting(root, event.Name)
			return
		}
	}

	if !w.qualifies(event.Name) {
		return
	}

	var typ events.EventType
	switch {
	case event.Op&fsnotify.Create != 0:
		typ = events.EventFileCreated
	case event.Op&fsnotify.Write != 0:
		typ = events.EventFileChanged
	case event.Op&(fsnotify.Remove|fsnotify.Rename) != 0:
		typ = events.EventFileDeleted
	default:
		return
	}

	w.note(event.Name, typ)
}

// scanExisting synthesizes create events for qualifying files already
// present under a newly watched directory.
func (w *Watcher) scanExisting(root, dir string) {
	_ = filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil || d.IsDir() {
			return nil
		}
		if w.ignored(root, path) || !w.qualifies(path) {
			return nil
		}
		w.note(path, events.EventFileCreated)
		return nil
	})
}

// qualifies reports whether the filename belongs to the fixed watch-list.
// Markdown files directly under a recaps/ directory always qualify.
func (w *Watcher) qualifies(path string) bool {
	base := filepath.Base(path)
	if _, ok := w.watched[base]; ok {
		return true
	}
	parent := filepath.Base(filepath.Dir(path))
	return parent == "recaps" && strings.HasSuffix(base, ".md")
}

// note runs the per-path Idle/Pending transition for one qualifying change.
func (w *Watcher) note(path string, typ events.EventType) {
	w.mu.Lock()
	defer w.mu.Unlock()

	if !w.watching {
		return
	}

	// Latest observed op wins for the coalesced burst.
	w.latest[path] = typ
	now := time.Now()

	if p, ok := w.pending[path]; ok {
		// Pending: reschedule, clamped so the publish never slips past
		// maxWait from the first unhandled change.
		p.timer.Stop()
		elapsed := now.Sub(p.firstEvent)
		delay := w.debounce
		if elapsed >= w.maxWait {
			delay = 0
		} else if remaining := w.maxWait - elapsed; remaining < delay {
			delay = remaining
		}
		p.timer = time.AfterFunc(delay, func() { w.fire(path) })
		return
	}

	// Idle -> Pending.
	w.pending[path] = &pendingDebounce{
		firstEvent: now,
		timer:      time.AfterFunc(w.debounce, func() { w.fire(path) }),
	}
}

// fire publishes the coalesced event for path and returns it to Idle.
func (w *Watcher) fire(path string) {
	w.mu.Lock()
	if _, ok := w.pending[path]; !ok || !w.watching {
		w.mu.Unlock()
		return
	}
	delete(w.pending, path)
	typ := w.latest[path]
	delete(w.latest, path)
	w.fires.Add(1)
	w.mu.Unlock()
	defer w.fires.Done()

	w.logger.WithFields(logrus.Fields{"path": path, "event": typ}).Debug("Debounce fired")
	w.bus.Publish(typ, events.FilePayload{Path: path}, "watcher")
}

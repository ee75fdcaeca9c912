// Package data owns the in-memory mirror of the workflow directory. The
// Manager reconciles file-change events into entity snapshots, consulting the
// cache to avoid re-parsing unchanged files.
package data

import (
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/specdeck/specdeck/config"
	"github.com/specdeck/specdeck/logging"
	"github.com/specdeck/specdeck/pkg/cache"
	"github.com/specdeck/specdeck/pkg/events"
	"github.com/specdeck/specdeck/pkg/model"
	"github.com/specdeck/specdeck/pkg/parse"
)

// maxHistory bounds the in-memory change history.
const maxHistory = 200

// ChangeRecord describes one reconciled state change.
type ChangeRecord struct {
	Key    string
	Action string // "updated", "removed"
	At     time.Time
}

// cachedEntity is what the Manager stores per entity key: the parsed snapshot
// plus a content fingerprint used to short-circuit re-parsing.
type cachedEntity struct {
	fingerprint string
	snapshot    model.Snapshot
}

// Manager is the reconciler. It is the single logical owner of the
// application state; queries are safe to call concurrently with ongoing
// reconciliation.
type Manager struct {
	root    string
	bus     *events.Bus
	cache   *cache.Cache
	parsers parse.Registry
	logger  *logrus.Entry

	mu      sync.RWMutex
	state   map[string]model.Snapshot
	history []ChangeRecord

	subs []*events.Subscription
}

// New creates a Manager mirroring the workflow directory at root and
// subscribes it to the bus's file events.
func New(cfg *config.Config, root string, bus *events.Bus, c *cache.Cache) *Manager {
	m := &Manager{
		root:    root,
		bus:     bus,
		cache:   c,
		parsers: parse.DefaultRegistry(),
		logger:  logging.NewLogger("data-manager"),
		state:   make(map[string]model.Snapshot),
	}

	for _, typ := range []events.EventType{events.EventFileCreated, events.EventFileChanged, events.EventFileDeleted} {
		m.subs = append(m.subs, bus.Subscribe(typ, m.handleFileEvent))
	}
	return m
}

// Close detaches the Manager from the bus.
func (m *Manager) Close() {
	for _, sub := range m.subs {
		m.bus.Unsubscribe(sub)
	}
	m.subs = nil
}

// Initialize performs a full directory scan and builds the initial state from
// scratch. On a fresh process every entity is a cache miss.
func (m *Manager) Initialize() error {
	newState, err := m.scanAll()
	if err != nil {
		return err
	}

	m.mu.Lock()
	m.state = newState
	m.mu.Unlock()

	m.logger.WithField("entities", len(newState)).Info("Initialized state")
	m.bus.Publish(events.EventStateUpdated, events.StatePayload{
		Reason: "initialize",
		Full:   true,
	}, "data-manager")
	return nil
}

// RefreshAll re-scans the workflow directory. Entities whose content
// fingerprint has not changed since the last successful parse are served from
// the cache instead of re-parsed.
func (m *Manager) RefreshAll() error {
	newState, err := m.scanAll()
	if err != nil {
		return err
	}

	m.mu.Lock()
	var removed []string
	for key := range m.state {
		if _, ok := newState[key]; !ok {
			removed = append(removed, key)
		}
	}
	m.state = newState
	m.mu.Unlock()

	for _, key := range removed {
		m.cache.Invalidate(key)
		m.record(key, "removed")
	}

	m.bus.Publish(events.EventStateUpdated, events.StatePayload{
		Keys:   removed,
		Reason: "refresh",
		Full:   true,
	}, "data-manager")
	return nil
}

// scanAll walks the workflow root and parses (or cache-loads) every entity.
func (m *Manager) scanAll() (map[string]model.Snapshot, error) {
	if info, err := os.Stat(m.root); err != nil || !info.IsDir() {
		// A missing workflow directory is an empty state, not a failure.
		return make(map[string]model.Snapshot), nil
	}

	newState := make(map[string]model.Snapshot)
	err := filepath.WalkDir(m.root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			if d != nil && d.IsDir() {
				return filepath.SkipDir
			}
			return nil
		}
		if d.IsDir() {
			return nil
		}
		snap, ok := m.loadEntity(path)
		if ok {
			newState[snap.EntityKey()] = snap
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return newState, nil
}

// loadEntity parses one file, short-circuiting through the cache when its
// fingerprint is unchanged.
func (m *Manager) loadEntity(path string) (model.Snapshot, bool) {
	parser, kind, name, ok := m.parsers.For(path)
	if !ok {
		return nil, false
	}
	key := model.Key(kind, name)
	fp := fingerprint(path)

	if v, ok := m.cache.Get(key); ok {
		if ce, ok := v.(cachedEntity); ok && ce.fingerprint == fp {
			return ce.snapshot, true
		}
	}

	snap, ok := parser.Parse(path)
	if !ok {
		m.logger.WithField("path", path).Debug("Parse failed, entity unavailable")
		return nil, false
	}
	m.cache.Set(key, cachedEntity{fingerprint: fp, snapshot: snap}, -1)
	return snap, true
}

// handleFileEvent maps one debounced file event onto an incremental state
// update.
func (m *Manager) handleFileEvent(e events.Event) {
	payload, ok := e.Payload.(events.FilePayload)
	if !ok {
		return
	}

	parser, kind, name, ok := m.parsers.For(payload.Path)
	if !ok {
		return
	}
	key := model.Key(kind, name)

	switch e.Type {
	case events.EventFileCreated, events.EventFileChanged:
		m.cache.Invalidate(key)
		m.bus.Publish(events.EventCacheInvalidated, events.CachePayload{Key: key}, "data-manager")

		snap, parsed := parser.Parse(payload.Path)

		m.mu.Lock()
		old := m.state[key]
		if parsed {
			m.state[key] = snap
		}
		// Parse failure leaves the previous snapshot in place.
		m.mu.Unlock()

		if parsed {
			m.cache.Set(key, cachedEntity{fingerprint: fingerprint(payload.Path), snapshot: snap}, -1)
			m.record(key, "updated")
			if kind == model.KindTaskFile {
				m.publishTaskCompletions(name, old, snap)
			}
		} else {
			m.logger.WithField("path", payload.Path).Warn("Entity temporarily unavailable")
		}

		m.bus.Publish(events.EventStateUpdated, events.StatePayload{
			Keys:   []string{key},
			Reason: "file-change",
		}, "data-manager")

	case events.EventFileDeleted:
		m.mu.Lock()
		_, existed := m.state[key]
		delete(m.state, key)
		m.mu.Unlock()

		m.cache.Invalidate(key)
		if existed {
			m.record(key, "removed")
		}
		m.bus.Publish(events.EventStateUpdated, events.StatePayload{
			Keys:   []string{key},
			Reason: "file-delete",
		}, "data-manager")
	}
}

// publishTaskCompletions emits task.completed for every checkbox that
// transitioned to done between two task-file snapshots.
func (m *Manager) publishTaskCompletions(specName string, old, updated model.Snapshot) {
	oldFile, _ := old.(*model.TaskFile)
	newFile, ok := updated.(*model.TaskFile)
	if !ok {
		return
	}

	previouslyDone := make(map[string]bool)
	if oldFile != nil {
		for _, task := range oldFile.Tasks {
			previouslyDone[task.Label] = task.Done
		}
	}

	for _, task := range newFile.Tasks {
		if task.Done && !previouslyDone[task.Label] {
			m.bus.Publish(events.EventTaskCompleted, events.TaskPayload{
				SpecName: specName,
				Task:     task.Label,
			}, "data-manager")
		}
	}
}

func (m *Manager) record(key, action string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.history = append(m.history, ChangeRecord{Key: key, Action: action, At: time.Now()})
	if len(m.history) > maxHistory {
		m.history = m.history[len(m.history)-maxHistory:]
	}
}

// fingerprint derives a cheap content key from file metadata.
func fingerprint(path string) string {
	info, err := os.Stat(path)
	if err != nil {
		return ""
	}
	return fmt.Sprintf("%d:%d", info.Size(), info.ModTime().UnixNano())
}

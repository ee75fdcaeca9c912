package data

import (
	"os"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/specdeck/specdeck/config"
	"github.com/specdeck/specdeck/pkg/cache"
	"github.com/specdeck/specdeck/pkg/events"
	"github.com/specdeck/specdeck/pkg/watcher"
	"github.com/specdeck/specdeck/testutil"
)

// eventually polls cond until it holds or the deadline passes.
func eventually(t *testing.T, cond func() bool, msg string) {
	t.Helper()
	deadline := time.Now().Add(5 * time.Second)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(25 * time.Millisecond)
	}
	t.Fatalf("condition never held: %s", msg)
}

func TestWatcherToManagerPipeline(t *testing.T) {
	cfg := config.Default()
	cfg.Sync.DebounceMs = 50
	cfg.Sync.MaxWaitMs = 200

	root := testutil.WorkflowDir(t)
	bus := events.NewBus(events.WithEventLog())
	c := cache.New(cfg.Sync.CacheTTL())

	m := New(cfg, root, bus, c)
	t.Cleanup(m.Close)
	require.NoError(t, m.Initialize())

	w, err := watcher.New(cfg, bus)
	require.NoError(t, err)
	require.NoError(t, w.StartWatching(root))
	t.Cleanup(w.StopWatching)

	var mu sync.Mutex
	var completed []events.TaskPayload
	bus.Subscribe(events.EventTaskCompleted, func(e events.Event) {
		mu.Lock()
		completed = append(completed, e.Payload.(events.TaskPayload))
		mu.Unlock()
	})

	// A spec written into a brand new directory reaches the state.
	testutil.WriteSpec(t, root, "2025-10-15-x", "X", "draft", "Body of x.")
	eventually(t, func() bool {
		_, ok := m.SpecByName("2025-10-15-x")
		return ok
	}, "spec appears after create")

	spec, _ := m.SpecByName("2025-10-15-x")
	assert.Equal(t, "X", spec.Metadata.Title)

	// An edit flows through as an update.
	testutil.WriteSpec(t, root, "2025-10-15-x", "X revised", "in-progress", "New body.")
	eventually(t, func() bool {
		s, ok := m.SpecByName("2025-10-15-x")
		return ok && s.Metadata.Status == "in-progress"
	}, "spec status updates after edit")

	// Checking off a task emits task.completed.
	path := testutil.WriteTasks(t, root, "2025-10-15-x", map[string]bool{"implement": false})
	eventually(t, func() bool {
		_, ok := m.TasksByName("2025-10-15-x")
		return ok
	}, "task file appears")

	testutil.WriteTasks(t, root, "2025-10-15-x", map[string]bool{"implement": true})
	eventually(t, func() bool {
		mu.Lock()
		defer mu.Unlock()
		return len(completed) == 1
	}, "task completion event fires")

	mu.Lock()
	assert.Equal(t, "2025-10-15-x", completed[0].SpecName)
	assert.Equal(t, "implement", completed[0].Task)
	mu.Unlock()

	// Deleting the task file removes its entity.
	require.NoError(t, os.Remove(path))
	eventually(t, func() bool {
		_, ok := m.TasksByName("2025-10-15-x")
		return !ok
	}, "task file entity removed after delete")

	// The event log recorded the file traffic.
	var fileEvents int
	for _, e := range bus.EventLog() {
		switch e.Type {
		case events.EventFileCreated, events.EventFileChanged, events.EventFileDeleted:
			fileEvents++
		}
	}
	assert.GreaterOrEqual(t, fileEvents, 3)
}

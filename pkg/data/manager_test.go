package data

import (
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/specdeck/specdeck/config"
	"github.com/specdeck/specdeck/pkg/cache"
	"github.com/specdeck/specdeck/pkg/events"
	"github.com/specdeck/specdeck/testutil"
)

func newTestManager(t *testing.T) (*Manager, string, *events.Bus, *cache.Cache) {
	t.Helper()
	root := testutil.WorkflowDir(t)
	bus := events.NewBus()
	c := cache.New(time.Minute)
	m := New(config.Default(), root, bus, c)
	t.Cleanup(m.Close)
	return m, root, bus, c
}

func TestInitialize(t *testing.T) {
	m, root, _, c := newTestManager(t)

	testutil.WriteSpec(t, root, "2025-10-15-x", "X", "draft", "Body of x.")
	testutil.WriteTasks(t, root, "2025-10-15-x", map[string]bool{"write spec": true, "implement": false})
	testutil.WriteFix(t, root, "login-crash", "Login crash", "Fix the crash.")
	testutil.WriteRecap(t, root, "2025-09-01-y", "Y recap", "Shipped y.")

	require.NoError(t, m.Initialize())

	specs := m.AllSpecs()
	require.Len(t, specs, 1)
	assert.Equal(t, "2025-10-15-x", specs[0].Name)
	assert.Equal(t, "X", specs[0].Metadata.Title)

	require.Len(t, m.AllFixes(), 1)
	require.Len(t, m.AllRecaps(), 1)
	require.Len(t, m.AllTaskFiles(), 1)
	assert.Equal(t, 4, m.EntityCount())

	// A fresh initialize is all cache misses.
	stats := c.Stats()
	assert.Equal(t, int64(0), stats.Hits)
	assert.Equal(t, int64(4), stats.Misses)
}

func TestRefreshAllUsesCache(t *testing.T) {
	m, root, _, c := newTestManager(t)
	testutil.WriteSpec(t, root, "2025-10-15-x", "X", "draft", "Body.")

	require.NoError(t, m.Initialize())
	before := c.Stats()

	require.NoError(t, m.RefreshAll())
	after := c.Stats()

	// Unchanged content is served from the cache.
	assert.Greater(t, after.Hits, before.Hits)
	assert.Equal(t, before.Misses, after.Misses)

	specs := m.AllSpecs()
	require.Len(t, specs, 1)
}

func TestRefreshAllDropsRemovedEntities(t *testing.T) {
	m, root, _, _ := newTestManager(t)
	testutil.WriteSpec(t, root, "keep", "Keep", "draft", "kept")
	specPath := testutil.WriteSpec(t, root, "drop", "Drop", "draft", "dropped")

	require.NoError(t, m.Initialize())
	require.Equal(t, 2, m.EntityCount())

	require.NoError(t, os.RemoveAll(filepath.Dir(specPath)))
	require.NoError(t, m.RefreshAll())

	assert.Equal(t, 1, m.EntityCount())
	_, ok := m.SpecByName("drop")
	assert.False(t, ok)
}

func TestFileChangedEventUpdatesState(t *testing.T) {
	m, root, bus, c := newTestManager(t)
	path := testutil.WriteSpec(t, root, "2025-10-15-x", "Old title", "draft", "Old body.")
	require.NoError(t, m.Initialize())

	invalidationsBefore := c.Stats().Invalidations

	var stateEvents []events.Event
	bus.Subscribe(events.EventStateUpdated, func(e events.Event) { stateEvents = append(stateEvents, e) })

	testutil.WriteSpec(t, root, "2025-10-15-x", "New title", "in-progress", "New body.")
	bus.Publish(events.EventFileChanged, events.FilePayload{Path: path}, "test")

	spec, ok := m.SpecByName("2025-10-15-x")
	require.True(t, ok)
	assert.Equal(t, "New title", spec.Metadata.Title)
	assert.Equal(t, "in-progress", spec.Metadata.Status)

	// The entity's cache key was invalidated exactly once.
	assert.Equal(t, invalidationsBefore+1, c.Stats().Invalidations)

	require.Len(t, stateEvents, 1)
	payload := stateEvents[0].Payload.(events.StatePayload)
	assert.Equal(t, []string{"spec:2025-10-15-x"}, payload.Keys)
	assert.False(t, payload.Full)
}

func TestFileCreatedEventAddsEntity(t *testing.T) {
	m, root, bus, _ := newTestManager(t)
	require.NoError(t, m.Initialize())

	path := testutil.WriteFix(t, root, "new-fix", "New fix", "Body.")
	bus.Publish(events.EventFileCreated, events.FilePayload{Path: path}, "test")

	fix, ok := m.FixByName("new-fix")
	require.True(t, ok)
	assert.Equal(t, "New fix", fix.Metadata.Title)
}

func TestFileDeletedEventRemovesEntity(t *testing.T) {
	m, root, bus, _ := newTestManager(t)
	path := testutil.WriteSpec(t, root, "gone", "Gone", "draft", "Body.")
	require.NoError(t, m.Initialize())

	require.NoError(t, os.Remove(path))
	bus.Publish(events.EventFileDeleted, events.FilePayload{Path: path}, "test")

	_, ok := m.SpecByName("gone")
	assert.False(t, ok)

	history := m.RecentHistory(1)
	require.Len(t, history, 1)
	assert.Equal(t, "spec:gone", history[0].Key)
	assert.Equal(t, "removed", history[0].Action)
}

func TestParseFailureLeavesPreviousSnapshot(t *testing.T) {
	m, root, bus, _ := newTestManager(t)
	path := testutil.WriteSpec(t, root, "x", "Good", "draft", "Body.")
	require.NoError(t, m.Initialize())

	stateUpdates := 0
	bus.Subscribe(events.EventStateUpdated, func(events.Event) { stateUpdates++ })

	// Replace the file with malformed frontmatter.
	require.NoError(t, os.WriteFile(path, []byte("---\ntitle: [broken\n---\nbody\n"), 0644))
	bus.Publish(events.EventFileChanged, events.FilePayload{Path: path}, "test")

	spec, ok := m.SpecByName("x")
	require.True(t, ok, "previous snapshot survives a parse failure")
	assert.Equal(t, "Good", spec.Metadata.Title)
	assert.Equal(t, 1, stateUpdates, "the state.updated event is not suppressed")
}

func TestUnrelatedPathsAreIgnored(t *testing.T) {
	m, root, bus, _ := newTestManager(t)
	require.NoError(t, m.Initialize())

	bus.Publish(events.EventFileChanged, events.FilePayload{Path: filepath.Join(root, "README.md")}, "test")
	assert.Equal(t, 0, m.EntityCount())
}

func TestTaskCompletionEvents(t *testing.T) {
	m, root, bus, _ := newTestManager(t)
	path := testutil.WriteTasks(t, root, "x", map[string]bool{"a": false, "b": false})
	require.NoError(t, m.Initialize())

	var completed []events.TaskPayload
	bus.Subscribe(events.EventTaskCompleted, func(e events.Event) {
		completed = append(completed, e.Payload.(events.TaskPayload))
	})

	testutil.WriteTasks(t, root, "x", map[string]bool{"a": true, "b": false})
	bus.Publish(events.EventFileChanged, events.FilePayload{Path: path}, "test")

	require.Len(t, completed, 1)
	assert.Equal(t, "x", completed[0].SpecName)
	assert.Equal(t, "a", completed[0].Task)

	// Already-done tasks do not re-fire.
	testutil.WriteTasks(t, root, "x", map[string]bool{"a": true, "b": true})
	bus.Publish(events.EventFileChanged, events.FilePayload{Path: path}, "test")
	require.Len(t, completed, 2)
	assert.Equal(t, "b", completed[1].Task)
}

func TestRecentHistoryOrder(t *testing.T) {
	m, root, bus, _ := newTestManager(t)
	require.NoError(t, m.Initialize())

	first := testutil.WriteSpec(t, root, "a", "A", "draft", "a")
	bus.Publish(events.EventFileCreated, events.FilePayload{Path: first}, "test")
	second := testutil.WriteSpec(t, root, "b", "B", "draft", "b")
	bus.Publish(events.EventFileCreated, events.FilePayload{Path: second}, "test")

	history := m.RecentHistory(10)
	require.Len(t, history, 2)
	assert.Equal(t, "spec:b", history[0].Key, "newest first")
	assert.Equal(t, "spec:a", history[1].Key)

	assert.Len(t, m.RecentHistory(1), 1)
	assert.Nil(t, m.RecentHistory(0))
}

func TestQueriesAreSafeDuringReconciliation(t *testing.T) {
	m, root, bus, _ := newTestManager(t)
	path := testutil.WriteSpec(t, root, "x", "X", "draft", "Body.")
	require.NoError(t, m.Initialize())

	var wg sync.WaitGroup
	stop := make(chan struct{})

	wg.Add(1)
	go func() {
		defer wg.Done()
		for {
			select {
			case <-stop:
				return
			default:
				m.AllSpecs()
				m.SpecByName("x")
				m.RecentHistory(5)
			}
		}
	}()

	for i := 0; i < 50; i++ {
		bus.Publish(events.EventFileChanged, events.FilePayload{Path: path}, "test")
	}
	require.NoError(t, m.RefreshAll())

	close(stop)
	wg.Wait()

	_, ok := m.SpecByName("x")
	assert.True(t, ok)
}

func TestMissingWorkflowDirIsEmptyState(t *testing.T) {
	bus := events.NewBus()
	c := cache.New(time.Minute)
	m := New(config.Default(), filepath.Join(t.TempDir(), "absent"), bus, c)
	defer m.Close()

	require.NoError(t, m.Initialize())
	assert.Equal(t, 0, m.EntityCount())
	assert.Empty(t, m.AllSpecs())
}

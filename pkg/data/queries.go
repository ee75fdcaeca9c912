package data

import (
	"sort"

	"github.com/specdeck/specdeck/pkg/model"
)

// AllSpecs returns every spec snapshot, sorted by name.
func (m *Manager) AllSpecs() []*model.Spec {
	m.mu.RLock()
	defer m.mu.RUnlock()

	var specs []*model.Spec
	for _, snap := range m.state {
		if spec, ok := snap.(*model.Spec); ok {
			specs = append(specs, spec)
		}
	}
	sort.Slice(specs, func(i, j int) bool { return specs[i].Name < specs[j].Name })
	return specs
}

// AllFixes returns every fix snapshot, sorted by name.
func (m *Manager) AllFixes() []*model.Fix {
	m.mu.RLock()
	defer m.mu.RUnlock()

	var fixes []*model.Fix
	for _, snap := range m.state {
		if fix, ok := snap.(*model.Fix); ok {
			fixes = append(fixes, fix)
		}
	}
	sort.Slice(fixes, func(i, j int) bool { return fixes[i].Name < fixes[j].Name })
	return fixes
}

// AllRecaps returns every recap snapshot, sorted by name.
func (m *Manager) AllRecaps() []*model.Recap {
	m.mu.RLock()
	defer m.mu.RUnlock()

	var recaps []*model.Recap
	for _, snap := range m.state {
		if recap, ok := snap.(*model.Recap); ok {
			recaps = append(recaps, recap)
		}
	}
	sort.Slice(recaps, func(i, j int) bool { return recaps[i].Name < recaps[j].Name })
	return recaps
}

// AllTaskFiles returns every task-file snapshot, sorted by owning spec name.
func (m *Manager) AllTaskFiles() []*model.TaskFile {
	m.mu.RLock()
	defer m.mu.RUnlock()

	var files []*model.TaskFile
	for _, snap := range m.state {
		if tf, ok := snap.(*model.TaskFile); ok {
			files = append(files, tf)
		}
	}
	sort.Slice(files, func(i, j int) bool { return files[i].Name < files[j].Name })
	return files
}

// SpecByName returns one spec snapshot.
func (m *Manager) SpecByName(name string) (*model.Spec, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	spec, ok := m.state[model.Key(model.KindSpec, name)].(*model.Spec)
	return spec, ok
}

// FixByName returns one fix snapshot.
func (m *Manager) FixByName(name string) (*model.Fix, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	fix, ok := m.state[model.Key(model.KindFix, name)].(*model.Fix)
	return fix, ok
}

// RecapByName returns one recap snapshot.
func (m *Manager) RecapByName(name string) (*model.Recap, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	recap, ok := m.state[model.Key(model.KindRecap, name)].(*model.Recap)
	return recap, ok
}

// TasksByName returns the task file for a spec.
func (m *Manager) TasksByName(name string) (*model.TaskFile, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	tf, ok := m.state[model.Key(model.KindTaskFile, name)].(*model.TaskFile)
	return tf, ok
}

// EntityCount returns the number of tracked entities.
func (m *Manager) EntityCount() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.state)
}

// RecentHistory returns up to count change records, newest first.
func (m *Manager) RecentHistory(count int) []ChangeRecord {
	m.mu.RLock()
	defer m.mu.RUnlock()

	if count <= 0 || len(m.history) == 0 {
		return nil
	}
	if count > len(m.history) {
		count = len(m.history)
	}

	out := make([]ChangeRecord, count)
	for i := 0; i < count; i++ {
		out[i] = m.history[len(m.history)-1-i]
	}
	return out
}

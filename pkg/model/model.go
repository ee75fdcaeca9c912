// Package model defines the in-memory snapshots of on-disk workflow entities:
// specs, fixes, recaps and task files. Snapshots are replaced wholesale on
// each reconciliation and never partially mutated.
package model

import (
	"fmt"
	"time"
)

// Kind identifies the type of a workflow entity.
type Kind string

const (
	KindSpec     Kind = "spec"
	KindFix      Kind = "fix"
	KindRecap    Kind = "recap"
	KindTaskFile Kind = "tasks"
)

// Key derives the deterministic state key for an entity.
func Key(kind Kind, name string) string {
	return fmt.Sprintf("%s:%s", kind, name)
}

// Snapshot is the parsed, immutable representation of one on-disk entity.
type Snapshot interface {
	// EntityKind returns the entity's kind.
	EntityKind() Kind
	// EntityName returns the entity's name (derived from its path).
	EntityName() string
	// EntityKey returns the deterministic state key.
	EntityKey() string
}

// Metadata holds the common frontmatter fields shared by workflow documents.
type Metadata struct {
	Title     string    `yaml:"title"`
	Status    string    `yaml:"status"`
	CreatedAt time.Time `yaml:"created_at"`
	UpdatedAt time.Time `yaml:"updated_at"`
}

// Spec is a specification document under specs/<name>/spec.md.
type Spec struct {
	Name     string
	Path     string
	Metadata Metadata
	Summary  string
}

func (s *Spec) EntityKind() Kind   { return KindSpec }
func (s *Spec) EntityName() string { return s.Name }
func (s *Spec) EntityKey() string  { return Key(KindSpec, s.Name) }

// Fix is a fix document under fixes/<name>/fix.md.
type Fix struct {
	Name     string
	Path     string
	Metadata Metadata
	Summary  string
}

func (f *Fix) EntityKind() Kind   { return KindFix }
func (f *Fix) EntityName() string { return f.Name }
func (f *Fix) EntityKey() string  { return Key(KindFix, f.Name) }

// Recap is a recap document under recaps/<name>.md.
type Recap struct {
	Name     string
	Path     string
	Metadata Metadata
	Summary  string
}

func (r *Recap) EntityKind() Kind   { return KindRecap }
func (r *Recap) EntityName() string { return r.Name }
func (r *Recap) EntityKey() string  { return Key(KindRecap, r.Name) }

// TaskItem is one checkbox line in a task file.
type TaskItem struct {
	Label string
	Done  bool
}

// TaskFile is the parsed tasks.md for a spec.
type TaskFile struct {
	// Name is the owning spec's name.
	Name  string
	Path  string
	Tasks []TaskItem
}

func (t *TaskFile) EntityKind() Kind   { return KindTaskFile }
func (t *TaskFile) EntityName() string { return t.Name }
func (t *TaskFile) EntityKey() string  { return Key(KindTaskFile, t.Name) }

// Completed returns how many tasks are done.
func (t *TaskFile) Completed() int {
	n := 0
	for _, task := range t.Tasks {
		if task.Done {
			n++
		}
	}
	return n
}

// Progress returns completion as a fraction in [0,1]. Zero tasks count as 0.
func (t *TaskFile) Progress() float64 {
	if len(t.Tasks) == 0 {
		return 0
	}
	return float64(t.Completed()) / float64(len(t.Tasks))
}

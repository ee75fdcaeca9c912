// Package parse provides the entity parser collaborators consumed by the
// reconciler. Parsers never return errors: missing or malformed input yields
// absence, and the entity is treated as temporarily unavailable.
package parse

import (
	"path/filepath"
	"strings"

	"github.com/specdeck/specdeck/pkg/model"
)

// Parser turns one on-disk file into an entity snapshot. A false second
// return means the entity is absent (missing file, malformed content).
type Parser interface {
	Parse(path string) (model.Snapshot, bool)
}

// Identify maps a file path to the entity it represents. It is the single
// source of truth for path-to-key derivation; keys stay deterministic because
// names come from path structure alone.
//
//	<root>/specs/<name>/spec.md   -> (spec, <name>)
//	<root>/specs/<name>/tasks.md  -> (tasks, <name>)
//	<root>/fixes/<name>/fix.md    -> (fix, <name>)
//	<root>/recaps/<name>.md       -> (recap, <name>)
func Identify(path string) (model.Kind, string, bool) {
	base := filepath.Base(path)
	parent := filepath.Base(filepath.Dir(path))

	switch base {
	case "spec.md":
		if parentOf(path, 2) == "specs" {
			return model.KindSpec, parent, true
		}
	case "tasks.md":
		if parentOf(path, 2) == "specs" {
			return model.KindTaskFile, parent, true
		}
	case "fix.md":
		if parentOf(path, 2) == "fixes" {
			return model.KindFix, parent, true
		}
	default:
		if parent == "recaps" && strings.HasSuffix(base, ".md") {
			return model.KindRecap, strings.TrimSuffix(base, ".md"), true
		}
	}
	return "", "", false
}

// parentOf returns the n-th ancestor directory name of path.
func parentOf(path string, n int) string {
	for i := 0; i < n; i++ {
		path = filepath.Dir(path)
	}
	return filepath.Base(path)
}

// Registry holds the default parser for each entity kind.
type Registry map[model.Kind]Parser

// DefaultRegistry returns the standard markdown parsers for every kind.
func DefaultRegistry() Registry {
	return Registry{
		model.KindSpec:     &SpecParser{},
		model.KindFix:      &FixParser{},
		model.KindRecap:    &RecapParser{},
		model.KindTaskFile: &TaskParser{},
	}
}

// For returns the parser for the entity identified by path, if any.
func (r Registry) For(path string) (Parser, model.Kind, string, bool) {
	kind, name, ok := Identify(path)
	if !ok {
		return nil, "", "", false
	}
	p, ok := r[kind]
	if !ok {
		return nil, "", "", false
	}
	return p, kind, name, true
}

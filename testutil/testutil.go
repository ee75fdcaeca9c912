// Package testutil provides helpers for building temporary workflow trees in
// tests.
package testutil

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"testing"

	"github.com/stretchr/testify/require"
)

// WorkflowDir creates an empty workflow root under a temp directory.
func WorkflowDir(t *testing.T) string {
	t.Helper()
	root := filepath.Join(t.TempDir(), ".specdeck")
	require.NoError(t, os.MkdirAll(root, 0755))
	return root
}

// WriteSpec writes specs/<name>/spec.md with frontmatter and returns its path.
func WriteSpec(t *testing.T, root, name, title, status, body string) string {
	t.Helper()
	content := fmt.Sprintf("---\ntitle: %s\nstatus: %s\n---\n\n# %s\n\n%s\n", title, status, title, body)
	path := filepath.Join(root, "specs", name, "spec.md")
	writeFile(t, path, content)
	return path
}

// WriteTasks writes specs/<name>/tasks.md from (label, done) pairs.
func WriteTasks(t *testing.T, root, name string, tasks map[string]bool) string {
	t.Helper()
	content := "# Tasks\n\n"
	// Stable ordering keeps test output deterministic.
	labels := make([]string, 0, len(tasks))
	for label := range tasks {
		labels = append(labels, label)
	}
	sort.Strings(labels)
	for _, label := range labels {
		mark := " "
		if tasks[label] {
			mark = "x"
		}
		content += fmt.Sprintf("- [%s] %s\n", mark, label)
	}
	path := filepath.Join(root, "specs", name, "tasks.md")
	writeFile(t, path, content)
	return path
}

// WriteFix writes fixes/<name>/fix.md and returns its path.
func WriteFix(t *testing.T, root, name, title, body string) string {
	t.Helper()
	content := fmt.Sprintf("---\ntitle: %s\n---\n\n%s\n", title, body)
	path := filepath.Join(root, "fixes", name, "fix.md")
	writeFile(t, path, content)
	return path
}

// WriteRecap writes recaps/<name>.md and returns its path.
func WriteRecap(t *testing.T, root, name, title, body string) string {
	t.Helper()
	content := fmt.Sprintf("---\ntitle: %s\n---\n\n%s\n", title, body)
	path := filepath.Join(root, "recaps", name+".md")
	writeFile(t, path, content)
	return path
}

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0755))
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
}

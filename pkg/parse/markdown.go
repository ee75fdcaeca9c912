package parse

import (
	"bufio"
	"os"
	"strings"

	"github.com/specdeck/specdeck/pkg/model"
	"github.com/specdeck/specdeck/util/frontmatter"
)

// SpecParser parses specs/<name>/spec.md documents.
type SpecParser struct{}

// Parse reads the spec document. Absence on any read or parse failure.
func (p *SpecParser) Parse(path string) (model.Snapshot, bool) {
	meta, summary, ok := readDoc(path)
	if !ok {
		return nil, false
	}
	_, name, ok := Identify(path)
	if !ok {
		return nil, false
	}
	return &model.Spec{
		Name:     name,
		Path:     path,
		Metadata: meta,
		Summary:  summary,
	}, true
}

// FixParser parses fixes/<name>/fix.md documents.
type FixParser struct{}

func (p *FixParser) Parse(path string) (model.Snapshot, bool) {
	meta, summary, ok := readDoc(path)
	if !ok {
		return nil, false
	}
	_, name, ok := Identify(path)
	if !ok {
		return nil, false
	}
	return &model.Fix{
		Name:     name,
		Path:     path,
		Metadata: meta,
		Summary:  summary,
	}, true
}

// RecapParser parses recaps/<name>.md documents.
type RecapParser struct{}

func (p *RecapParser) Parse(path string) (model.Snapshot, bool) {
	meta, summary, ok := readDoc(path)
	if !ok {
		return nil, false
	}
	_, name, ok := Identify(path)
	if !ok {
		return nil, false
	}
	return &model.Recap{
		Name:     name,
		Path:     path,
		Metadata: meta,
		Summary:  summary,
	}, true
}

// TaskParser parses specs/<name>/tasks.md checkbox lists.
type TaskParser struct{}

func (p *TaskParser) Parse(path string) (model.Snapshot, bool) {
	_, name, ok := Identify(path)
	if !ok {
		return nil, false
	}

	f, err := os.Open(path)
	if err != nil {
		return nil, false
	}
	defer f.Close()

	var tasks []model.TaskItem
	scanner := bufio.NewScanner(f)
	scanner.Buffer(make([]byte, 64*1024), 1024*1024)
	for scanner.Scan() {
		if item, ok := parseTaskLine(scanner.Text()); ok {
			tasks = append(tasks, item)
		}
	}
	if scanner.Err() != nil {
		return nil, false
	}

	return &model.TaskFile{
		Name:  name,
		Path:  path,
		Tasks: tasks,
	}, true
}

// parseTaskLine matches markdown checkbox items ("- [ ] label", "- [x] label").
func parseTaskLine(line string) (model.TaskItem, bool) {
	trimmed := strings.TrimSpace(line)
	if !strings.HasPrefix(trimmed, "- [") && !strings.HasPrefix(trimmed, "* [") {
		return model.TaskItem{}, false
	}

	rest := trimmed[2:]
	if len(rest) < 3 || rest[0] != '[' || rest[2] != ']' {
		return model.TaskItem{}, false
	}

	var done bool
	switch rest[1] {
	case ' ':
		done = false
	case 'x', 'X':
		done = true
	default:
		return model.TaskItem{}, false
	}

	label := strings.TrimSpace(rest[3:])
	if label == "" {
		return model.TaskItem{}, false
	}
	return model.TaskItem{Label: label, Done: done}, true
}

// readDoc loads a markdown document and extracts metadata plus a one-line
// summary (the first non-heading body line).
func readDoc(path string) (model.Metadata, string, bool) {
	f, err := os.Open(path)
	if err != nil {
		return model.Metadata{}, "", false
	}
	defer f.Close()

	docMeta, body, err := frontmatter.Parse(f)
	if err != nil {
		return model.Metadata{}, "", false
	}

	meta := model.Metadata{
		Title:     docMeta.Title,
		Status:    docMeta.Status,
		CreatedAt: docMeta.CreatedAt,
		UpdatedAt: docMeta.UpdatedAt,
	}
	return meta, firstBodyLine(body), true
}

func firstBodyLine(body string) string {
	for _, line := range strings.Split(body, "\n") {
		trimmed := strings.TrimSpace(line)
		if trimmed == "" || strings.HasPrefix(trimmed, "#") {
			continue
		}
		return trimmed
	}
	return ""
}

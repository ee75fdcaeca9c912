// Package frontmatter provides lightweight YAML frontmatter parsing for
// markdown workflow documents.
package frontmatter

import (
	"bufio"
	"io"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// DocMetadata represents common fields found in markdown frontmatter.
type DocMetadata struct {
	Title     string    `yaml:"title"`
	Status    string    `yaml:"status"`
	CreatedAt time.Time `yaml:"created_at"`
	UpdatedAt time.Time `yaml:"updated_at"`
}

// Parse extracts frontmatter metadata and the markdown body from a reader.
// A document without a frontmatter block yields zero metadata and the full
// content as body.
func Parse(r io.Reader) (DocMetadata, string, error) {
	meta := DocMetadata{Status: "draft"}

	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 64*1024), 1024*1024)

	var frontmatterLines []string
	var bodyLines []string
	inFrontmatter := false
	frontmatterDone := false
	first := true

	for scanner.Scan() {
		line := scanner.Text()
		trimmed := strings.TrimSpace(line)

		if first {
			first = false
			if trimmed == "---" {
				inFrontmatter = true
				continue
			}
		}

		if inFrontmatter && !frontmatterDone {
			if trimmed == "---" {
				frontmatterDone = true
				continue
			}
			frontmatterLines = append(frontmatterLines, line)
			continue
		}

		bodyLines = append(bodyLines, line)
	}
	if err := scanner.Err(); err != nil {
		return meta, "", err
	}

	// An unterminated frontmatter block is treated as body content,
	// including the opening delimiter it started with.
	if inFrontmatter && !frontmatterDone {
		bodyLines = append(append([]string{"---"}, frontmatterLines...), bodyLines...)
		frontmatterLines = nil
	}

	if len(frontmatterLines) > 0 {
		block := strings.Join(frontmatterLines, "\n")
		if err := yaml.Unmarshal([]byte(block), &meta); err != nil {
			return meta, strings.Join(bodyLines, "\n"), err
		}
		if meta.Status == "" {
			meta.Status = "draft"
		}
	}

	return meta, strings.Join(bodyLines, "\n"), nil
}

// ParseString extracts metadata and body from a string.
func ParseString(content string) (DocMetadata, string, error) {
	return Parse(strings.NewReader(content))
}

package store

import (
	"fmt"
	"strings"

	"gopkg.in/yaml.v3"
)

const frontmatterDelimiter = "---"

// splitFrontmatter splits a markdown file into its YAML frontmatter and
// body. hasMeta is false when the file has no frontmatter at all.
func splitFrontmatter(content string) (meta, body string, hasMeta bool, err error) {
	content = strings.TrimSpace(content)

	if !strings.HasPrefix(content, frontmatterDelimiter) {
		return "", content, false, nil
	}

	rest := content[len(frontmatterDelimiter):]
	idx := strings.Index(rest, "\n"+frontmatterDelimiter)
	if idx == -1 {
		return "", "", false, fmt.Errorf("unclosed frontmatter delimiter")
	}

	meta = rest[:idx]
	body = rest[idx+len("\n"+frontmatterDelimiter):]
	body = strings.TrimLeft(body, "\n")
	return meta, body, true, nil
}

// ParseFrontmatter decodes the frontmatter of content into v and returns
// the remaining markdown body.
func ParseFrontmatter(content string, v any) (string, error) {
	meta, body, ok, err := splitFrontmatter(content)
	if err != nil {
		return "", err
	}
	if ok {
		if err := yaml.Unmarshal([]byte(meta), v); err != nil {
			return "", fmt.Errorf("parsing frontmatter YAML: %w", err)
		}
	}
	return body, nil
}

// SerializeFrontmatter renders v as YAML frontmatter followed by body.
func SerializeFrontmatter(v any, body string) (string, error) {
	yamlBytes, err := yaml.Marshal(v)
	if err != nil {
		return "", fmt.Errorf("serializing frontmatter YAML: %w", err)
	}

	var b strings.Builder
	b.WriteString(frontmatterDelimiter)
	b.WriteString("\n")
	b.WriteString(strings.TrimRight(string(yamlBytes), "\n"))
	b.WriteString("\n")
	b.WriteString(frontmatterDelimiter)
	b.WriteString("\n")
	if body != "" {
		b.WriteString("\n")
		b.WriteString(body)
		if !strings.HasSuffix(body, "\n") {
			b.WriteString("\n")
		}
	}

	return b.String(), nil
}

// ParseTask parses a task file.
func ParseTask(content string) (*Task, error) {
	var t Task
	body, err := ParseFrontmatter(content, &t)
	if err != nil {
		return nil, err
	}
	t.Body = body
	return &t, nil
}

// SerializeTask renders a task back to markdown.
func SerializeTask(t *Task) (string, error) {
	return SerializeFrontmatter(t, t.Body)
}

// ParseList parses a list file.
func ParseList(content string) (*List, error) {
	var l List
	body, err := ParseFrontmatter(content, &l)
	if err != nil {
		return nil, err
	}
	l.Body = body
	return &l, nil
}

// SerializeList renders a list back to markdown.
func SerializeList(l *List) (string, error) {
	return SerializeFrontmatter(l, l.Body)
}

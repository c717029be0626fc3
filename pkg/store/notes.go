package store

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

var (
	// ErrNotFound is returned when a list or task does not exist.
	ErrNotFound = errors.New("not found")
	// ErrExists is returned when creating a list whose slug is taken.
	ErrExists = errors.New("already exists")
)

// Slugify lowercases name and replaces whitespace with dashes.
func Slugify(name string) string {
	return strings.ToLower(strings.Join(strings.Fields(name), "-"))
}

// AppendNote adds "- text" under a "## YYYY-MM-DD" header for the day of
// now, creating the header when the body has none for that day yet.
func AppendNote(body, text string, now time.Time) string {
	dateHeader := fmt.Sprintf("## %s", now.Format("2006-01-02"))

	if idx := strings.Index(body, dateHeader); idx >= 0 {
		afterHeader := idx + len(dateHeader)
		nlIdx := strings.Index(body[afterHeader:], "\n")
		if nlIdx == -1 {
			return body + "\n- " + text + "\n"
		}
		insertAt := afterHeader + nlIdx + 1
		return body[:insertAt] + "- " + text + "\n" + body[insertAt:]
	}

	if body != "" && !strings.HasSuffix(body, "\n") {
		body += "\n"
	}
	if body != "" {
		body += "\n"
	}
	return body + dateHeader + "\n- " + text + "\n"
}

// Matches reports whether query occurs in the task's title or notes,
// ignoring case.
func (t *Task) Matches(query string) bool {
	query = strings.ToLower(query)
	return strings.Contains(strings.ToLower(t.Title), query) ||
		strings.Contains(strings.ToLower(t.Body), query)
}

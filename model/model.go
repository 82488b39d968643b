// Package model holds the value types shared across the collection
// pipeline: source descriptors, normalized events, and per-source errors.
package model

import (
	"fmt"
	"strings"
	"time"
)

// Source describes one remote origin of schedule data. It is built from
// configuration before a run and never mutated afterwards.
type Source struct {
	Key      string
	Name     string
	URL      string
	Shape    string
	Location *time.Location
	Options  map[string]any
}

// Event is one normalized scheduled occurrence produced by extraction.
// StartAt and EndAt always carry the zone they were parsed in;
// transformations copy, they never mutate.
type Event struct {
	SourceKey   string
	SourceName  string
	Title       string
	StartAt     time.Time
	EndAt       time.Time
	Description string
	URL         string
	Method      string
}

// NewEvent builds an Event, rejecting records that are missing identity
// fields or a start instant. Strategies parse all dates in the source's
// configured zone, so a valid StartAt is always zone-resolved.
func NewEvent(src Source, title string, startAt time.Time, method string) (Event, error) {
	title = strings.TrimSpace(title)
	if src.Key == "" || src.Name == "" {
		return Event{}, fmt.Errorf("event %q: source identity missing", title)
	}
	if title == "" {
		return Event{}, fmt.Errorf("event from %s: empty title", src.Key)
	}
	if startAt.IsZero() {
		return Event{}, fmt.Errorf("event %q from %s: no start instant", title, src.Key)
	}
	return Event{
		SourceKey:  src.Key,
		SourceName: src.Name,
		Title:      title,
		StartAt:    startAt,
		Method:     method,
	}, nil
}

// Valid reports whether an event still satisfies the construction
// invariants. The coordinator re-checks this on aggregation rather than
// trusting every strategy.
func (e Event) Valid() bool {
	return e.SourceKey != "" && e.SourceName != "" &&
		strings.TrimSpace(e.Title) != "" && !e.StartAt.IsZero()
}

func (e Event) String() string {
	s := e.StartAt.Format("2006-01-02 15:04")
	return fmt.Sprintf("%s: %s @ %s", s, e.Title, e.SourceName)
}

// Result is the outcome of one collection run: deduplicated, filtered,
// sorted events plus one error per source that ultimately failed.
type Result struct {
	Events []Event
	Errors []SourceError
}

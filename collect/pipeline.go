package collect

import (
	"fmt"
	"sort"
	"strings"

	"venuefeed/model"
)

// Normalize drops records that violate the construction invariants.
// Well-behaved strategies never produce them, but the coordinator does
// not trust strategies blindly: a bad record costs only itself, never
// the run.
func Normalize(events []model.Event) (valid []model.Event, dropped int) {
	valid = make([]model.Event, 0, len(events))
	for _, ev := range events {
		if !ev.Valid() {
			dropped++
			continue
		}
		valid = append(valid, ev)
	}
	return valid, dropped
}

// Dedupe collapses records that share a source key and a
// case-insensitive trimmed (title, start instant) pair, keeping the
// first-seen instance. Strategies that re-emit the same occurrence
// across paginated or redundant fetches collapse to one record.
func Dedupe(events []model.Event) []model.Event {
	seen := make(map[string]bool, len(events))
	out := make([]model.Event, 0, len(events))
	for _, ev := range events {
		key := fmt.Sprintf("%s\x00%s\x00%d",
			ev.SourceKey,
			strings.ToLower(strings.TrimSpace(ev.Title)),
			ev.StartAt.UnixNano())
		if seen[key] {
			continue
		}
		seen[key] = true
		out = append(out, ev)
	}
	return out
}

// FilterWindow keeps records whose start falls inside the window. The
// comparison reads each record's calendar date in its own zone, so a
// late-evening event never slides across midnight into the wrong day.
func FilterWindow(events []model.Event, w model.Window) []model.Event {
	out := make([]model.Event, 0, len(events))
	for _, ev := range events {
		if w.Contains(ev.StartAt) {
			out = append(out, ev)
		}
	}
	return out
}

// SortEvents orders by start time ascending; equal starts fall back to
// the source display name purely so output is deterministic.
func SortEvents(events []model.Event) []model.Event {
	sort.SliceStable(events, func(i, j int) bool {
		if !events[i].StartAt.Equal(events[j].StartAt) {
			return events[i].StartAt.Before(events[j].StartAt)
		}
		return events[i].SourceName < events[j].SourceName
	})
	return events
}

// Package render turns a collection result into user-facing output: a
// day-grouped console listing and the JSON payload the published site
// consumes.
package render

import (
	"fmt"
	"strings"
	"time"

	"venuefeed/model"
)

// Text formats events and errors for console display, grouped by day,
// with a processing summary whenever sources failed.
func Text(result *model.Result) string {
	var out []string

	if len(result.Events) > 0 {
		out = append(out, fmt.Sprintf("Found %d events:", len(result.Events)), "")

		currentDay := ""
		for _, ev := range result.Events {
			day := ev.StartAt.Format("Monday, January 2, 2006")
			if day != currentDay {
				if currentDay != "" {
					out = append(out, "")
				}
				out = append(out, "📅 "+day)
				currentDay = day
			}

			line := fmt.Sprintf("  🎫 %s @ %s%s", ev.Title, ev.SourceName, timeSuffix(ev))
			out = append(out, line)
			if ev.Description != "" {
				out = append(out, "     "+ev.Description)
			}
		}
	}

	if len(result.Errors) > 0 {
		if len(result.Events) > 0 {
			out = append(out, "",
				"⚠️  Processing Summary:",
				fmt.Sprintf("✅ %d events found successfully", len(result.Events)),
				fmt.Sprintf("❌ %d sources failed", len(result.Errors)))
		} else {
			out = append(out, "❌ No events found - all sources failed")
		}
		out = append(out, "", "❌ Errors:")
		for _, msg := range uniqueMessages(result.Errors) {
			out = append(out, "  • "+msg)
		}
	}

	if len(result.Events) == 0 && len(result.Errors) == 0 {
		out = append(out, "No events found in the requested window.")
	}

	return strings.Join(out, "\n")
}

func timeSuffix(ev model.Event) string {
	// Midnight starts come from date-only listings; showing 12:00 AM for
	// those would be misleading.
	h, m, s := ev.StartAt.Clock()
	if h == 0 && m == 0 && s == 0 {
		return ""
	}
	suffix := " " + clock(ev.StartAt)
	if !ev.EndAt.IsZero() {
		suffix += " - " + clock(ev.EndAt)
	}
	return suffix
}

func clock(t time.Time) string {
	return strings.TrimPrefix(t.Format("3:04 PM"), "0")
}

// Payload is the data.json structure the published site template reads.
type Payload struct {
	Events      []PayloadEvent `json:"events"`
	Updated     string         `json:"updated"`
	TotalEvents int            `json:"total_events"`
	SiteName    string         `json:"site_name"`
	SiteKey     string         `json:"site_key"`
	Timezone    string         `json:"timezone"`
	Errors      []string       `json:"errors"`
	Description string         `json:"description,omitempty"`
}

// PayloadEvent is one event in web form.
type PayloadEvent struct {
	Date        string `json:"date"`
	Title       string `json:"title"`
	Venue       string `json:"venue"`
	StartTime   string `json:"start_time,omitempty"`
	EndTime     string `json:"end_time,omitempty"`
	StartISO    string `json:"start_iso"`
	EndISO      string `json:"end_iso,omitempty"`
	Description string `json:"description,omitempty"`
	URL         string `json:"url,omitempty"`
	Method      string `json:"extraction_method"`
}

// Meta carries the site identity stamped into a payload.
type Meta struct {
	SiteKey  string
	SiteName string
	Timezone string
}

// Build assembles the web payload for a result. description may be
// empty; error messages are deduplicated for display.
func Build(result *model.Result, meta Meta, description string) Payload {
	events := make([]PayloadEvent, 0, len(result.Events))
	for _, ev := range result.Events {
		pe := PayloadEvent{
			Date:        ev.StartAt.Format("2006-01-02"),
			Title:       ev.Title,
			Venue:       ev.SourceName,
			StartISO:    ev.StartAt.Format(time.RFC3339),
			Description: ev.Description,
			URL:         ev.URL,
			Method:      ev.Method,
		}
		if suffix := timeSuffix(ev); suffix != "" {
			pe.StartTime = clock(ev.StartAt)
			if !ev.EndAt.IsZero() {
				pe.EndTime = clock(ev.EndAt)
				pe.EndISO = ev.EndAt.Format(time.RFC3339)
			}
		}
		events = append(events, pe)
	}

	return Payload{
		Events:      events,
		Updated:     time.Now().UTC().Format(time.RFC3339),
		TotalEvents: len(events),
		SiteName:    meta.SiteName,
		SiteKey:     meta.SiteKey,
		Timezone:    meta.Timezone,
		Errors:      uniqueMessages(result.Errors),
		Description: description,
	}
}

func uniqueMessages(errs []model.SourceError) []string {
	seen := make(map[string]bool, len(errs))
	out := make([]string, 0, len(errs))
	for _, e := range errs {
		msg := e.UserMessage()
		if seen[msg] {
			continue
		}
		seen[msg] = true
		out = append(out, msg)
	}
	return out
}

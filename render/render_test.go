package render

import (
	"strings"
	"testing"
	"time"

	"venuefeed/model"
)

func ev(title, venue string, start time.Time) model.Event {
	return model.Event{
		SourceKey:  strings.ToLower(venue),
		SourceName: venue,
		Title:      title,
		StartAt:    start,
		Method:     "html",
	}
}

func TestTextGroupsByDay(t *testing.T) {
	day1 := time.Date(2026, 9, 1, 17, 0, 0, 0, time.UTC)
	day2 := time.Date(2026, 9, 2, 12, 0, 0, 0, time.UTC)

	result := &model.Result{Events: []model.Event{
		ev("First Show", "Alpha", day1),
		ev("Second Show", "Beta", day1.Add(2*time.Hour)),
		ev("Next Day Show", "Alpha", day2),
	}}

	got := Text(result)

	if !strings.Contains(got, "Found 3 events:") {
		t.Errorf("missing count header in:\n%s", got)
	}
	if strings.Count(got, "📅") != 2 {
		t.Errorf("want 2 day headers in:\n%s", got)
	}
	if !strings.Contains(got, "Tuesday, September 1, 2026") {
		t.Errorf("missing day heading in:\n%s", got)
	}
	if !strings.Contains(got, "First Show @ Alpha 5:00 PM") {
		t.Errorf("missing event line with time in:\n%s", got)
	}
}

func TestTextOmitsMidnightTime(t *testing.T) {
	midnight := time.Date(2026, 9, 1, 0, 0, 0, 0, time.UTC)
	result := &model.Result{Events: []model.Event{ev("Date Only", "Alpha", midnight)}}

	got := Text(result)
	if strings.Contains(got, "12:00 AM") {
		t.Errorf("midnight rendered as a time in:\n%s", got)
	}
}

func TestTextAllSourcesFailed(t *testing.T) {
	result := &model.Result{Errors: []model.SourceError{
		{SourceKey: "a", SourceName: "Alpha", Kind: model.KindTimeout, Message: "deadline"},
	}}

	got := Text(result)
	if !strings.Contains(got, "No events found - all sources failed") {
		t.Errorf("missing total-failure line in:\n%s", got)
	}
	if !strings.Contains(got, "Failed to fetch information for venue: Alpha") {
		t.Errorf("missing user-facing error in:\n%s", got)
	}
}

func TestTextPartialFailureSummary(t *testing.T) {
	day := time.Date(2026, 9, 1, 17, 0, 0, 0, time.UTC)
	result := &model.Result{
		Events: []model.Event{ev("Survivor", "Alpha", day)},
		Errors: []model.SourceError{
			{SourceKey: "b", SourceName: "Beta", Kind: model.KindServerError, Message: "503"},
			{SourceKey: "b2", SourceName: "Beta", Kind: model.KindServerError, Message: "503 again"},
		},
	}

	got := Text(result)
	if !strings.Contains(got, "1 events found successfully") {
		t.Errorf("missing success tally in:\n%s", got)
	}
	if !strings.Contains(got, "2 sources failed") {
		t.Errorf("missing failure tally in:\n%s", got)
	}
	// Both failures are for the same venue; the display dedupes them.
	if strings.Count(got, "Failed to fetch information for venue: Beta") != 1 {
		t.Errorf("duplicate error messages not collapsed in:\n%s", got)
	}
}

func TestTextEmpty(t *testing.T) {
	got := Text(&model.Result{})
	if !strings.Contains(got, "No events found in the requested window.") {
		t.Errorf("empty result rendering = %q", got)
	}
}

func TestBuildPayload(t *testing.T) {
	la, err := time.LoadLocation("America/Los_Angeles")
	if err != nil {
		t.Fatalf("LoadLocation: %v", err)
	}
	start := time.Date(2026, 9, 1, 19, 0, 0, 0, la)

	e := ev("Patio Show", "Alpha", start)
	e.EndAt = start.Add(3 * time.Hour)
	e.URL = "https://example.com/patio"

	result := &model.Result{
		Events: []model.Event{e},
		Errors: []model.SourceError{
			{SourceKey: "b", SourceName: "Beta", Kind: model.KindUnreachable, Message: "refused"},
		},
	}

	payload := Build(result, Meta{SiteKey: "ballard", SiteName: "Ballard", Timezone: "America/Los_Angeles"}, "a haiku")

	if payload.TotalEvents != 1 || len(payload.Events) != 1 {
		t.Fatalf("TotalEvents = %d, Events = %d", payload.TotalEvents, len(payload.Events))
	}
	pe := payload.Events[0]
	if pe.Date != "2026-09-01" {
		t.Errorf("Date = %q", pe.Date)
	}
	if pe.StartTime != "7:00 PM" || pe.EndTime != "10:00 PM" {
		t.Errorf("times = %q - %q", pe.StartTime, pe.EndTime)
	}
	if !strings.Contains(pe.StartISO, "-07:00") {
		t.Errorf("StartISO = %q, want the zone offset preserved", pe.StartISO)
	}
	if pe.Venue != "Alpha" || pe.Method != "html" {
		t.Errorf("Venue/Method = %q/%q", pe.Venue, pe.Method)
	}

	if payload.SiteKey != "ballard" || payload.Timezone != "America/Los_Angeles" {
		t.Errorf("meta = %q/%q", payload.SiteKey, payload.Timezone)
	}
	if payload.Description != "a haiku" {
		t.Errorf("Description = %q", payload.Description)
	}
	if len(payload.Errors) != 1 || !strings.Contains(payload.Errors[0], "Beta") {
		t.Errorf("Errors = %v", payload.Errors)
	}
	if payload.Updated == "" {
		t.Error("Updated not stamped")
	}
}

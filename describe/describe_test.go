package describe

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"venuefeed/model"
)

func todayEvent(title string, start time.Time) model.Event {
	return model.Event{SourceKey: "src", SourceName: "Venue", Title: title, StartAt: start}
}

func geminiHandler(t *testing.T, haiku string, gotPrompt *string) http.HandlerFunc {
	t.Helper()
	return func(w http.ResponseWriter, r *http.Request) {
		if !strings.Contains(r.URL.Path, ":generateContent") {
			http.NotFound(w, r)
			return
		}
		var req struct {
			Contents []struct {
				Parts []struct {
					Text string `json:"text"`
				} `json:"parts"`
			} `json:"contents"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			t.Errorf("decode request: %v", err)
		}
		if len(req.Contents) > 0 && len(req.Contents[0].Parts) > 0 && gotPrompt != nil {
			*gotPrompt = req.Contents[0].Parts[0].Text
		}

		resp := map[string]any{
			"candidates": []map[string]any{
				{"content": map[string]any{"parts": []map[string]any{{"text": haiku}}}},
			},
		}
		json.NewEncoder(w).Encode(resp)
	}
}

func TestTodayGeneratesHaiku(t *testing.T) {
	now := time.Date(2026, 9, 1, 9, 0, 0, 0, time.UTC)
	haiku := "trucks line the sidewalk\nsteam rises from paper plates\nsummer holds its breath"

	var gotPrompt string
	server := httptest.NewServer(geminiHandler(t, haiku, &gotPrompt))
	defer server.Close()

	d := New("test-key", WithBaseURL(server.URL))
	got, err := d.Today(context.Background(), "Ballard", now, []model.Event{
		todayEvent("Taco Truck", now.Add(8*time.Hour)),
		todayEvent("Tomorrow Show", now.AddDate(0, 0, 1)),
	})
	if err != nil {
		t.Fatalf("Today() error = %v", err)
	}
	if got != haiku {
		t.Errorf("Today() = %q", got)
	}

	if !strings.Contains(gotPrompt, "Taco Truck") {
		t.Errorf("prompt missing today's event:\n%s", gotPrompt)
	}
	if strings.Contains(gotPrompt, "Tomorrow Show") {
		t.Errorf("prompt includes a non-today event:\n%s", gotPrompt)
	}
	if !strings.Contains(gotPrompt, "Ballard") {
		t.Errorf("prompt missing site name:\n%s", gotPrompt)
	}
}

func TestTodayNoEventsToday(t *testing.T) {
	now := time.Date(2026, 9, 1, 9, 0, 0, 0, time.UTC)

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Error("no request expected when nothing happens today")
	}))
	defer server.Close()

	d := New("test-key", WithBaseURL(server.URL))
	got, err := d.Today(context.Background(), "Ballard", now, []model.Event{
		todayEvent("Next Week", now.AddDate(0, 0, 5)),
	})
	if err != nil {
		t.Fatalf("Today() error = %v", err)
	}
	if got != "" {
		t.Errorf("Today() = %q, want empty", got)
	}
}

// An event late in the evening local time is still "today" even though
// the same instant falls on the next UTC day.
func TestTodayComparesInEventZone(t *testing.T) {
	la, err := time.LoadLocation("America/Los_Angeles")
	if err != nil {
		t.Fatalf("LoadLocation: %v", err)
	}
	now := time.Date(2026, 9, 1, 9, 0, 0, 0, la)
	lateShow := todayEvent("Late Show", time.Date(2026, 9, 1, 22, 0, 0, 0, la))

	server := httptest.NewServer(geminiHandler(t, "evening haiku", nil))
	defer server.Close()

	d := New("test-key", WithBaseURL(server.URL))
	got, err := d.Today(context.Background(), "Ballard", now, []model.Event{lateShow})
	if err != nil {
		t.Fatalf("Today() error = %v", err)
	}
	if got != "evening haiku" {
		t.Errorf("Today() = %q, want the late event counted as today", got)
	}
}

func TestTodayServerError(t *testing.T) {
	now := time.Date(2026, 9, 1, 9, 0, 0, 0, time.UTC)

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "quota exceeded", http.StatusTooManyRequests)
	}))
	defer server.Close()

	d := New("test-key", WithBaseURL(server.URL))
	_, err := d.Today(context.Background(), "Ballard", now, []model.Event{
		todayEvent("Show", now.Add(time.Hour)),
	})
	if err == nil {
		t.Error("Today() error = nil, want API failure")
	}
}

func TestTodayEmptyCandidates(t *testing.T) {
	now := time.Date(2026, 9, 1, 9, 0, 0, 0, time.UTC)

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(map[string]any{"candidates": []any{}})
	}))
	defer server.Close()

	d := New("test-key", WithBaseURL(server.URL))
	_, err := d.Today(context.Background(), "Ballard", now, []model.Event{
		todayEvent("Show", now.Add(time.Hour)),
	})
	if err == nil {
		t.Error("Today() error = nil, want empty-response failure")
	}
}

package extract

import (
	"reflect"
	"testing"
)

func TestOptString(t *testing.T) {
	opts := map[string]any{"set": "value", "empty": "", "wrong": 42}

	if got := optString(opts, "set", "def"); got != "value" {
		t.Errorf("optString(set) = %q", got)
	}
	if got := optString(opts, "empty", "def"); got != "def" {
		t.Errorf("optString(empty) = %q, want default", got)
	}
	if got := optString(opts, "wrong", "def"); got != "def" {
		t.Errorf("optString(wrong type) = %q, want default", got)
	}
	if got := optString(opts, "missing", "def"); got != "def" {
		t.Errorf("optString(missing) = %q, want default", got)
	}
	if got := optString(nil, "any", "def"); got != "def" {
		t.Errorf("optString(nil bag) = %q, want default", got)
	}
}

func TestOptInt(t *testing.T) {
	// JSON decoding yields float64 for every number.
	opts := map[string]any{"json": float64(7), "native": 3, "str": "12", "bad": "nope"}

	for key, want := range map[string]int{"json": 7, "native": 3, "str": 12, "bad": 99, "missing": 99} {
		if got := optInt(opts, key, 99); got != want {
			t.Errorf("optInt(%s) = %d, want %d", key, got, want)
		}
	}
}

func TestOptStringMap(t *testing.T) {
	opts := map[string]any{
		"decoded": map[string]any{"title": "headline", "skip": 1},
		"typed":   map[string]string{"start": "begins"},
	}

	got := optStringMap(opts, "decoded")
	if !reflect.DeepEqual(got, map[string]string{"title": "headline"}) {
		t.Errorf("optStringMap(decoded) = %v", got)
	}
	if got := optStringMap(opts, "typed"); got["start"] != "begins" {
		t.Errorf("optStringMap(typed) = %v", got)
	}
	if got := optStringMap(opts, "missing"); got != nil {
		t.Errorf("optStringMap(missing) = %v, want nil", got)
	}
}

func TestOptStringSlice(t *testing.T) {
	opts := map[string]any{
		"decoded": []any{"Event", "FoodEvent", 3},
		"typed":   []string{"MusicEvent"},
	}

	if got := optStringSlice(opts, "decoded"); !reflect.DeepEqual(got, []string{"Event", "FoodEvent"}) {
		t.Errorf("optStringSlice(decoded) = %v", got)
	}
	if got := optStringSlice(opts, "typed"); !reflect.DeepEqual(got, []string{"MusicEvent"}) {
		t.Errorf("optStringSlice(typed) = %v", got)
	}
	if got := optStringSlice(opts, "missing"); got != nil {
		t.Errorf("optStringSlice(missing) = %v, want nil", got)
	}
}

func TestDig(t *testing.T) {
	data := map[string]any{
		"data": map[string]any{
			"events": []any{
				map[string]any{"name": "First"},
				map[string]any{"name": "Second"},
			},
		},
	}

	events, ok := dig(data, "data.events").([]any)
	if !ok || len(events) != 2 {
		t.Fatalf("dig(data.events) = %v", dig(data, "data.events"))
	}
	if got := dig(data, "data.events.1.name"); got != "Second" {
		t.Errorf("dig(data.events.1.name) = %v", got)
	}
	if got := dig(data, "data.missing"); got != nil {
		t.Errorf("dig(miss) = %v, want nil", got)
	}
	if got := dig(data, "data.events.9"); got != nil {
		t.Errorf("dig(out of range) = %v, want nil", got)
	}
	if got := dig(data, ""); !reflect.DeepEqual(got, data) {
		t.Error("dig(empty path) should return the value unchanged")
	}
}

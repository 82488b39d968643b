package extract

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"venuefeed/model"
)

// Schema.org Event and its common subtypes.
var defaultEventTypes = []string{
	"Event", "MusicEvent", "ComedyEvent", "TheaterEvent", "DanceEvent",
	"SportsEvent", "FoodEvent", "Festival", "ScreeningEvent",
	"SocialEvent", "EducationEvent", "BusinessEvent", "ExhibitionEvent",
}

// JSONLD is the generic strategy for pages embedding schema.org event
// data in <script type="application/ld+json"> blocks. Options:
//
//	event_types  @type values to accept (defaults to Event + subtypes)
//	field_map    overrides for title/start/end/description/url keys
type JSONLD struct{}

func (*JSONLD) Name() string { return "json-ld" }

func (j *JSONLD) Extract(ctx context.Context, client *http.Client, src model.Source) ([]model.Event, error) {
	eventTypes := optStringSlice(src.Options, "event_types")
	if len(eventTypes) == 0 {
		eventTypes = defaultEventTypes
	}
	fieldMap := optStringMap(src.Options, "field_map")

	doc, err := fetchDocument(ctx, client, src.URL)
	if err != nil {
		return nil, err
	}

	var events []model.Event
	doc.Find(`script[type="application/ld+json"]`).Each(func(_ int, block *goquery.Selection) {
		var data any
		if err := json.Unmarshal([]byte(block.Text()), &data); err != nil {
			// Pages routinely carry one broken block alongside good ones.
			slog.Debug("skipping malformed JSON-LD block", "source", src.Key)
			return
		}
		events = append(events, j.walk(data, eventTypes, fieldMap, src)...)
	})

	slog.Debug("json-ld extraction complete", "source", src.Key, "events", len(events))
	return events, nil
}

// walk recursively finds event objects inside JSON-LD data, following
// arrays and @graph wrappers.
func (j *JSONLD) walk(data any, eventTypes []string, fieldMap map[string]string, src model.Source) []model.Event {
	switch node := data.(type) {
	case []any:
		var out []model.Event
		for _, item := range node {
			out = append(out, j.walk(item, eventTypes, fieldMap, src)...)
		}
		return out
	case map[string]any:
		if graph, ok := node["@graph"]; ok {
			return j.walk(graph, eventTypes, fieldMap, src)
		}
		if !typeMatches(node["@type"], eventTypes) {
			return nil
		}
		if ev, ok := j.mapEvent(node, fieldMap, src); ok {
			return []model.Event{ev}
		}
	}
	return nil
}

func typeMatches(ldType any, eventTypes []string) bool {
	switch t := ldType.(type) {
	case string:
		for _, want := range eventTypes {
			if t == want {
				return true
			}
		}
	case []any:
		for _, item := range t {
			if typeMatches(item, eventTypes) {
				return true
			}
		}
	}
	return false
}

func (j *JSONLD) mapEvent(data map[string]any, fieldMap map[string]string, src model.Source) (model.Event, bool) {
	key := func(name, def string) string {
		if v, ok := fieldMap[name]; ok && v != "" {
			return v
		}
		return def
	}

	title := strings.TrimSpace(asString(data[key("title", "name")]))
	if title == "" {
		return model.Event{}, false
	}
	startAt, err := parseWhen(asString(data[key("start", "startDate")]), src.Location)
	if err != nil {
		return model.Event{}, false
	}
	ev, err := model.NewEvent(src, title, startAt, j.Name())
	if err != nil {
		return model.Event{}, false
	}
	if endStr := asString(data[key("end", "endDate")]); endStr != "" {
		if end, perr := parseWhen(endStr, src.Location); perr == nil {
			ev.EndAt = end
		}
	}
	ev.Description = strings.TrimSpace(asString(data[key("description", "description")]))
	ev.URL = asString(data[key("url", "url")])
	return ev, true
}

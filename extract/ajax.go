package extract

import (
	"context"
	"io"
	"log/slog"
	"net/http"
	"regexp"
	"strings"

	"venuefeed/model"
)

var endpointPatterns = []*regexp.Regexp{
	regexp.MustCompile(`https?://[^\s"']+/api/events[^\s"']*`),
	regexp.MustCompile(`https?://api\.[^\s"']+/events[^\s"']*`),
}

// Ajax is the generic strategy for sites that serve events from a JSON
// endpoint. Options:
//
//	api_url        endpoint; when absent the page source is scanned for one
//	method         GET (default) or POST
//	params         query parameters or POST body fields
//	response_path  dot-path to the item array
//	field_map      overrides for title/start/end/description/url keys
type Ajax struct{}

func (*Ajax) Name() string { return "api" }

func (a *Ajax) Extract(ctx context.Context, client *http.Client, src model.Source) ([]model.Event, error) {
	apiURL := optString(src.Options, "api_url", "")
	method := strings.ToUpper(optString(src.Options, "method", http.MethodGet))
	responsePath := optString(src.Options, "response_path", "")
	fieldMap := optStringMap(src.Options, "field_map")

	var params map[string]any
	if p, ok := src.Options["params"].(map[string]any); ok {
		params = p
	}

	if apiURL == "" {
		var err error
		apiURL, err = a.discoverEndpoint(ctx, client, src.URL)
		if err != nil {
			return nil, err
		}
		if apiURL == "" {
			slog.Warn("no JSON endpoint found in page source", "source", src.Key, "url", src.URL)
			return nil, nil
		}
	}

	var raw any
	if err := fetchJSON(ctx, client, method, apiURL, params, &raw); err != nil {
		return nil, err
	}

	if responsePath != "" {
		raw = dig(raw, responsePath)
		if raw == nil {
			return nil, model.Tagf(model.KindUnparseable,
				"response_path %q matched nothing in %s", responsePath, apiURL)
		}
	}
	items, ok := raw.([]any)
	if !ok {
		return nil, model.Tagf(model.KindUnparseable,
			"expected JSON array at %q in %s", responsePath, apiURL)
	}

	var events []model.Event
	for _, item := range items {
		m, ok := item.(map[string]any)
		if !ok {
			continue
		}
		if ev, ok := a.mapItem(m, fieldMap, src); ok {
			events = append(events, ev)
		}
	}

	slog.Debug("ajax extraction complete", "source", src.Key, "events", len(events))
	return events, nil
}

func (a *Ajax) mapItem(item map[string]any, fieldMap map[string]string, src model.Source) (model.Event, bool) {
	key := func(name, def string) string {
		if v, ok := fieldMap[name]; ok && v != "" {
			return v
		}
		return def
	}

	title := strings.TrimSpace(asString(item[key("title", "name")]))
	if title == "" {
		return model.Event{}, false
	}
	startAt, err := parseWhen(asString(item[key("start", "start")]), src.Location)
	if err != nil {
		return model.Event{}, false
	}
	ev, err := model.NewEvent(src, title, startAt, a.Name())
	if err != nil {
		return model.Event{}, false
	}
	if endStr := asString(item[key("end", "end")]); endStr != "" {
		if end, perr := parseWhen(endStr, src.Location); perr == nil {
			ev.EndAt = end
		}
	}
	ev.Description = strings.TrimSpace(asString(item[key("description", "description")]))
	ev.URL = asString(item[key("url", "url")])
	return ev, true
}

// discoverEndpoint scans inline page source for a JSON API URL. A page
// that fetches fine but contains no recognizable endpoint is an empty
// (not failed) source.
func (a *Ajax) discoverEndpoint(ctx context.Context, client *http.Client, pageURL string) (string, error) {
	resp, err := get(ctx, client, pageURL)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", model.Tagf(model.KindUnparseable, "read %s: %v", pageURL, err)
	}

	for _, pattern := range endpointPatterns {
		if m := pattern.Find(body); m != nil {
			return string(m), nil
		}
	}
	return "", nil
}

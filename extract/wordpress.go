package extract

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"strings"

	"venuefeed/model"
)

// WordPress is the generic strategy for sites exposing the WordPress
// REST API, including The Events Calendar installs. Options:
//
//	api_path       endpoint under the site root (default /wp-json/wp/v2/posts)
//	per_page       page size (default 20)
//	category_id    numeric category filter
//	category_slug  category slug, resolved to an ID via the categories API
//	response_path  dot-path to the item array for wrapped responses
//	field_map      overrides for title/start/end/description/url keys
type WordPress struct{}

func (*WordPress) Name() string { return "api" }

func (w *WordPress) Extract(ctx context.Context, client *http.Client, src model.Source) ([]model.Event, error) {
	apiPath := optString(src.Options, "api_path", "/wp-json/wp/v2/posts")
	perPage := optInt(src.Options, "per_page", 20)
	categoryID := optInt(src.Options, "category_id", 0)
	responsePath := optString(src.Options, "response_path", "")
	fieldMap := optStringMap(src.Options, "field_map")

	base := strings.TrimRight(src.URL, "/")

	if slug := optString(src.Options, "category_slug", ""); slug != "" && categoryID == 0 {
		categoryID = w.resolveCategory(ctx, client, base, slug)
	}

	params := map[string]any{
		"per_page": perPage,
		"_embed":   "true",
	}
	if categoryID != 0 {
		params["categories"] = categoryID
	}

	var raw any
	if err := fetchJSON(ctx, client, http.MethodGet, base+apiPath, params, &raw); err != nil {
		return nil, err
	}

	if responsePath != "" {
		raw = dig(raw, responsePath)
	}
	items, ok := raw.([]any)
	if !ok {
		return nil, model.Tagf(model.KindUnparseable,
			"unexpected WordPress API response shape from %s%s", base, apiPath)
	}

	var events []model.Event
	for _, item := range items {
		post, ok := item.(map[string]any)
		if !ok {
			continue
		}
		var ev model.Event
		var mapped bool
		if fieldMap != nil {
			ev, mapped = w.mapItem(post, fieldMap, src)
		} else {
			ev, mapped = w.mapPost(post, src)
		}
		if mapped {
			events = append(events, ev)
		}
	}

	slog.Debug("wordpress extraction complete", "source", src.Key, "events", len(events))
	return events, nil
}

// mapPost handles the vanilla WP post shape: rendered title/excerpt
// objects and an ISO-ish local date.
func (w *WordPress) mapPost(post map[string]any, src model.Source) (model.Event, bool) {
	title := stripHTML(renderedText(post["title"]))
	if title == "" {
		return model.Event{}, false
	}
	startAt, err := parseWhen(asString(post["date"]), src.Location)
	if err != nil {
		slog.Debug("skipping WP post with unparseable date", "source", src.Key, "title", title)
		return model.Event{}, false
	}
	ev, err := model.NewEvent(src, title, startAt, w.Name())
	if err != nil {
		return model.Event{}, false
	}
	ev.Description = stripHTML(renderedText(post["excerpt"]))
	ev.URL = asString(post["link"])
	return ev, true
}

// mapItem handles field-mapped shapes such as Tribe Events, where titles
// are plain strings and dates live under start_date/end_date.
func (w *WordPress) mapItem(item map[string]any, fieldMap map[string]string, src model.Source) (model.Event, bool) {
	key := func(name, def string) string {
		if v, ok := fieldMap[name]; ok && v != "" {
			return v
		}
		return def
	}

	title := stripHTML(renderedText(item[key("title", "title")]))
	if title == "" {
		return model.Event{}, false
	}
	startAt, err := parseWhen(asString(item[key("start", "start_date")]), src.Location)
	if err != nil {
		return model.Event{}, false
	}
	ev, err := model.NewEvent(src, title, startAt, w.Name())
	if err != nil {
		return model.Event{}, false
	}
	if endStr := asString(item[key("end", "end_date")]); endStr != "" {
		if end, err := parseWhen(endStr, src.Location); err == nil {
			ev.EndAt = end
		}
	}
	ev.Description = stripHTML(asString(item[key("description", "description")]))
	ev.URL = asString(item[key("url", "url")])
	return ev, true
}

// resolveCategory looks a category slug up through the WP categories
// API. Failures just mean no category filter is applied.
func (w *WordPress) resolveCategory(ctx context.Context, client *http.Client, base, slug string) int {
	var cats []struct {
		ID int `json:"id"`
	}
	params := map[string]any{"slug": slug, "per_page": 1}
	if err := fetchJSON(ctx, client, http.MethodGet, base+"/wp-json/wp/v2/categories", params, &cats); err != nil {
		slog.Warn("failed to resolve WP category slug", "slug", slug, "error", err)
		return 0
	}
	if len(cats) == 0 {
		return 0
	}
	return cats[0].ID
}

// renderedText unwraps both plain strings and WP {"rendered": "..."}
// objects.
func renderedText(v any) string {
	switch vv := v.(type) {
	case string:
		return vv
	case map[string]any:
		return asString(vv["rendered"])
	}
	return ""
}

func asString(v any) string {
	switch vv := v.(type) {
	case string:
		return vv
	case nil:
		return ""
	case json.Number:
		return vv.String()
	default:
		return strings.TrimSpace(fmt.Sprint(vv))
	}
}

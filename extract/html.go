package extract

import (
	"context"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"

	"venuefeed/model"
)

// HTML is the generic CSS-selector strategy for server-rendered pages.
// Selectors come from the source's options:
//
//	container    selector for one event block (default ".event-item")
//	title        selector within the block (default ".event-title")
//	date         selector within the block (default ".event-date")
//	time         optional selector for a display time range
//	description  optional selector for descriptive text
//	date_format  Go time layout, or "auto" for flexible parsing
type HTML struct{}

func (*HTML) Name() string { return "html" }

func (h *HTML) Extract(ctx context.Context, client *http.Client, src model.Source) ([]model.Event, error) {
	container := optString(src.Options, "container", ".event-item")
	titleSel := optString(src.Options, "title", ".event-title")
	dateSel := optString(src.Options, "date", ".event-date")
	timeSel := optString(src.Options, "time", "")
	descSel := optString(src.Options, "description", "")
	layout := optString(src.Options, "date_format", "auto")

	doc, err := fetchDocument(ctx, client, src.URL)
	if err != nil {
		return nil, err
	}

	var events []model.Event
	doc.Find(container).Each(func(_ int, block *goquery.Selection) {
		ev, ok := h.parseBlock(block, src, titleSel, dateSel, timeSel, descSel, layout)
		if ok {
			events = append(events, ev)
		}
	})

	slog.Debug("html extraction complete", "source", src.Key, "events", len(events))
	return events, nil
}

// parseBlock maps one container to an event. A block that is missing its
// title or date is skipped individually; the rest of the page proceeds.
func (h *HTML) parseBlock(block *goquery.Selection, src model.Source, titleSel, dateSel, timeSel, descSel, layout string) (model.Event, bool) {
	title := strings.TrimSpace(block.Find(titleSel).First().Text())
	if title == "" {
		return model.Event{}, false
	}

	dateText := strings.TrimSpace(block.Find(dateSel).First().Text())
	day, err := parseDate(dateText, layout, src.Location)
	if err != nil {
		slog.Debug("skipping event block with unparseable date",
			"source", src.Key, "title", title, "date", dateText)
		return model.Event{}, false
	}

	startAt := day
	var endAt time.Time
	if timeSel != "" {
		if timeText := strings.TrimSpace(block.Find(timeSel).First().Text()); timeText != "" {
			s, e := parseTimeRange(timeText, day)
			if !s.IsZero() {
				startAt = s
			}
			endAt = e
		}
	}

	ev, err := model.NewEvent(src, title, startAt, h.Name())
	if err != nil {
		slog.Debug("dropping invalid event", "source", src.Key, "error", err)
		return model.Event{}, false
	}
	ev.EndAt = endAt
	if descSel != "" {
		ev.Description = strings.TrimSpace(block.Find(descSel).First().Text())
	}
	return ev, true
}

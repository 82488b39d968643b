package extract

import (
	"fmt"
	"html"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/araddon/dateparse"
)

// parseWhen parses a datetime string of unknown format. Explicit offsets
// in the text win; otherwise the value is read in loc, the source's
// configured zone. A date is never interpreted in a zone the
// configuration didn't name.
func parseWhen(text string, loc *time.Location) (time.Time, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return time.Time{}, fmt.Errorf("empty datetime")
	}
	if t, err := time.Parse(time.RFC3339, strings.Replace(text, "Z", "+00:00", 1)); err == nil {
		return t, nil
	}
	// WordPress-style local datetime: "2025-07-04 18:00:00".
	for _, layout := range []string{"2006-01-02 15:04:05", "2006-01-02T15:04:05"} {
		if t, err := time.ParseInLocation(layout, text, loc); err == nil {
			return t, nil
		}
	}
	t, err := dateparse.ParseIn(text, loc)
	if err != nil {
		return time.Time{}, fmt.Errorf("parse datetime %q: %w", text, err)
	}
	return t, nil
}

// parseDate parses with an explicit layout when the source configures
// one, falling back to flexible parsing for "auto".
func parseDate(text, layout string, loc *time.Location) (time.Time, error) {
	text = strings.TrimSpace(text)
	if layout == "" || layout == "auto" {
		return parseWhen(text, loc)
	}
	t, err := time.ParseInLocation(layout, text, loc)
	if err != nil {
		return time.Time{}, fmt.Errorf("parse date %q with layout %q: %w", text, layout, err)
	}
	return t, nil
}

var (
	rangeSplit = regexp.MustCompile(`\s*[-–—]\s*`)
	clockRe    = regexp.MustCompile(`(?i)(\d{1,2}):(\d{2})\s*(am|pm)?`)
	hourOnlyRe = regexp.MustCompile(`(?i)(\d{1,2})\s*(am|pm)`)
)

// parseTimeRange reads a display range like "7:00 PM - 10:00 PM" onto
// the calendar date of day, in day's zone. Either part may come back
// zero when unparseable.
func parseTimeRange(text string, day time.Time) (start, end time.Time) {
	parts := rangeSplit.Split(text, 2)
	for i, part := range parts {
		if i > 1 {
			break
		}
		t := parseClock(strings.TrimSpace(part), day)
		if i == 0 {
			start = t
		} else {
			end = t
		}
	}
	return start, end
}

func parseClock(text string, day time.Time) time.Time {
	var hour, minute int
	var period string

	if m := clockRe.FindStringSubmatch(text); m != nil {
		hour, _ = strconv.Atoi(m[1])
		minute, _ = strconv.Atoi(m[2])
		period = strings.ToLower(m[3])
	} else if m := hourOnlyRe.FindStringSubmatch(text); m != nil {
		hour, _ = strconv.Atoi(m[1])
		period = strings.ToLower(m[2])
	} else {
		return time.Time{}
	}

	if period == "pm" && hour != 12 {
		hour += 12
	} else if period == "am" && hour == 12 {
		hour = 0
	}
	if hour > 23 || minute > 59 {
		return time.Time{}
	}

	y, mo, d := day.Date()
	return time.Date(y, mo, d, hour, minute, 0, 0, day.Location())
}

var tagRe = regexp.MustCompile(`<[^>]+>`)

// stripHTML flattens rendered markup fragments (WordPress titles and
// excerpts) into plain text.
func stripHTML(s string) string {
	return strings.TrimSpace(html.UnescapeString(tagRe.ReplaceAllString(s, "")))
}

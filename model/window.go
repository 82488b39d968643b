package model

import "time"

// civilDate is a calendar date with no zone attached. Window comparisons
// happen on civil dates so an event never crosses a midnight boundary by
// being converted into another zone.
type civilDate struct {
	year  int
	month time.Month
	day   int
}

func dateOf(t time.Time) civilDate {
	y, m, d := t.Date()
	return civilDate{y, m, d}
}

func (d civilDate) before(o civilDate) bool {
	if d.year != o.year {
		return d.year < o.year
	}
	if d.month != o.month {
		return d.month < o.month
	}
	return d.day < o.day
}

// Window is the inclusive range of calendar dates a caller wants events
// filtered to.
type Window struct {
	from civilDate
	to   civilDate
}

// NewWindow builds a window spanning the anchor's calendar date through
// days later, inclusive. The anchor's own zone decides what "today" is.
func NewWindow(anchor time.Time, days int) Window {
	return Window{
		from: dateOf(anchor),
		to:   dateOf(anchor.AddDate(0, 0, days)),
	}
}

// Contains reports whether t's calendar date, read in t's own zone,
// falls inside the window.
func (w Window) Contains(t time.Time) bool {
	d := dateOf(t)
	return !d.before(w.from) && !w.to.before(d)
}

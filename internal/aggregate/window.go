package aggregate

import (
	"fmt"
	"strings"
	"time"
)

type Granularity string

const (
	Day   Granularity = "day"
	Week  Granularity = "week"
	Month Granularity = "month"
	All   Granularity = "all"
)

func ParseGranularity(s string) (Granularity, error) {
	switch g := Granularity(strings.ToLower(strings.TrimSpace(s))); g {
	case Day, Week, Month, All:
		return g, nil
	case "":
		return All, nil
	}
	return "", fmt.Errorf("unknown window granularity %q", s)
}

// From/To acotan la ventana "all" y absorben registros sin timestamp.
type WindowSpec struct {
	Granularity Granularity
	From        time.Time
	To          time.Time
}

// Bounds devuelve [start, end) de la ventana que contiene t.
func (w WindowSpec) Bounds(t time.Time) (time.Time, time.Time) {
	if t.IsZero() {
		t = w.From
	}
	if w.Granularity == All || w.Granularity == "" || t.IsZero() {
		start := dayUTC(w.From)
		end := time.Time{}
		if !w.To.IsZero() {
			end = dayUTC(w.To).AddDate(0, 0, 1)
		}
		if w.From.IsZero() {
			start = time.Time{}
		}
		return start, end
	}
	d := dayUTC(t)
	switch w.Granularity {
	case Week:
		offset := (int(d.Weekday()) + 6) % 7 // lunes = 0
		start := d.AddDate(0, 0, -offset)
		return start, start.AddDate(0, 0, 7)
	case Month:
		start := time.Date(d.Year(), d.Month(), 1, 0, 0, 0, 0, time.UTC)
		return start, start.AddDate(0, 1, 0)
	}
	return d, d.AddDate(0, 0, 1)
}

func dayUTC(t time.Time) time.Time {
	if t.IsZero() {
		return t
	}
	y, m, d := t.UTC().Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

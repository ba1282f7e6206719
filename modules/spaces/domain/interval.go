package domain

import (
	"fmt"
	"time"
)

// Interval is the half-open range [From, Until). A nil Until never ends.
type Interval struct {
	From  time.Time  `json:"from"`
	Until *time.Time `json:"until,omitempty"`
}

func NewInterval(from time.Time, until *time.Time) (Interval, error) {
	if until != nil && !from.Before(*until) {
		return Interval{}, fmt.Errorf("empty interval [%s, %s)", FormatDateTime(from), FormatDateTime(*until))
	}
	return Interval{From: from, Until: until}, nil
}

func ClosedInterval(from, until time.Time) (Interval, error) {
	return NewInterval(from, &until)
}

func (i Interval) Contains(t time.Time) bool {
	if t.Before(i.From) {
		return false
	}
	return i.Until == nil || t.Before(*i.Until)
}

// Overlaps reports max(a.from, b.from) < min(a.until, b.until).
func (i Interval) Overlaps(o Interval) bool {
	start := i.From
	if o.From.After(start) {
		start = o.From
	}
	switch {
	case i.Until == nil && o.Until == nil:
		return true
	case i.Until == nil:
		return start.Before(*o.Until)
	case o.Until == nil:
		return start.Before(*i.Until)
	}
	end := *i.Until
	if o.Until.Before(end) {
		end = *o.Until
	}
	return start.Before(end)
}

package domain

import (
	"fmt"
	"strings"
	"time"
)

const (
	DateLayout      = "02/01/2006"
	DateTimeLayout  = "02/01/2006 15:04:05"
	TimeOfDayLayout = "15:04:05"
)

// ParseDate parses a dd/MM/yyyy calendar date at midnight UTC.
func ParseDate(v string) (time.Time, error) {
	t, err := time.ParseInLocation(DateLayout, strings.TrimSpace(v), time.UTC)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid date %q (expected dd/MM/yyyy)", v)
	}
	return t, nil
}

func FormatDate(t time.Time) string {
	return t.UTC().Format(DateLayout)
}

func ParseDateTime(v string) (time.Time, error) {
	t, err := time.ParseInLocation(DateTimeLayout, strings.TrimSpace(v), time.UTC)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid datetime %q (expected dd/MM/yyyy HH:mm:ss)", v)
	}
	return t, nil
}

func FormatDateTime(t time.Time) string {
	return t.UTC().Format(DateTimeLayout)
}

// TimeOfDay is an offset from midnight with second precision.
type TimeOfDay time.Duration

func ParseTimeOfDay(v string) (TimeOfDay, error) {
	t, err := time.ParseInLocation(TimeOfDayLayout, strings.TrimSpace(v), time.UTC)
	if err != nil {
		return 0, fmt.Errorf("invalid time %q (expected HH:mm:ss)", v)
	}
	return TimeOfDay(time.Duration(t.Hour())*time.Hour +
		time.Duration(t.Minute())*time.Minute +
		time.Duration(t.Second())*time.Second), nil
}

func (d TimeOfDay) String() string {
	return time.Date(2000, 1, 1, 0, 0, 0, 0, time.UTC).Add(time.Duration(d)).Format(TimeOfDayLayout)
}

// ParseOptionalDate maps nil to nil.
func ParseOptionalDate(v *string) (*time.Time, error) {
	if v == nil {
		return nil, nil
	}
	t, err := ParseDate(*v)
	if err != nil {
		return nil, err
	}
	return &t, nil
}

func FormatOptionalDate(t *time.Time) *string {
	if t == nil {
		return nil
	}
	s := FormatDate(*t)
	return &s
}

// Package timestamp parses and renders the ISO-8601-like timestamps found in
// price CSVs, keeping track of whether a value carried a UTC offset.
//
// Go has no notion of a zone-less time, so a naive timestamp is stored with
// its clock value in UTC and Aware set to false. Only Aware values have a
// meaningful Location.
package timestamp

import (
	"fmt"
	"strings"
	"time"
)

const (
	DateLayout  = "2006-01-02"
	clockLayout = "2006-01-02 15:04:05"
)

var awareLayouts = []string{
	"2006-01-02 15:04:05Z07:00",
	"2006-01-02 15:04:05-0700",
	"2006-01-02 15:04:05-07",
	"2006-01-02 15:04Z07:00",
	"2006-01-02 15:04-0700",
	"2006-01-02 15Z07:00",
	"2006-01-02 15-0700",
}

// Fractional seconds after the seconds field are accepted by time.Parse even
// when the layout does not spell them out.
var naiveLayouts = []string{
	"2006-01-02 15:04:05",
	"2006-01-02 15:04",
	"2006-01-02 15",
	"2006-01-02",
}

// Timestamp is a parsed CSV timestamp.
type Timestamp struct {
	Time  time.Time
	Aware bool
}

// ParseError reports a value that matched none of the accepted layouts.
type ParseError struct {
	Value string
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("invalid timestamp %q", e.Value)
}

// Parse reads value, accepting either a space or a 'T' between date and
// clock, optional fractional seconds and an optional offset.
func Parse(value string) (Timestamp, error) {
	s := strings.Replace(strings.TrimSpace(value), "T", " ", 1)
	if s == "" {
		return Timestamp{}, &ParseError{Value: value}
	}

	for _, layout := range awareLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return Timestamp{Time: fixed(t), Aware: true}, nil
		}
	}
	for _, layout := range naiveLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return Timestamp{Time: t}, nil
		}
	}
	return Timestamp{}, &ParseError{Value: value}
}

// fixed pins t to a numeric offset zone; time.Parse may otherwise hand back
// time.Local when the offset happens to match the host zone.
func fixed(t time.Time) time.Time {
	_, off := t.Zone()
	return t.In(time.FixedZone("", off))
}

// Location returns the offset zone of an aware timestamp, or nil.
func (ts Timestamp) Location() *time.Location {
	if !ts.Aware {
		return nil
	}
	return ts.Time.Location()
}

// Date is the calendar date of the timestamp's own clock.
func (ts Timestamp) Date() string {
	return ts.Time.Format(DateLayout)
}

func (ts Timestamp) After(other Timestamp) bool {
	return ts.Time.After(other.Time)
}

// String renders YYYY-MM-DD HH:MM:SS[.ffffff][+HH:MM].
func (ts Timestamp) String() string {
	layout := clockLayout
	if ts.Time.Nanosecond()/int(time.Microsecond) != 0 {
		layout += ".000000"
	}
	if ts.Aware {
		layout += "-07:00"
	}
	return ts.Time.Format(layout)
}

// Normalize aligns ts with a target zone policy. A nil target means the
// reference data is naive.
func Normalize(ts Timestamp, target *time.Location) Timestamp {
	switch {
	case ts.Aware && target != nil:
		return Timestamp{Time: ts.Time.In(target), Aware: true}
	case !ts.Aware && target != nil:
		return Timestamp{Time: withLocation(ts.Time, target), Aware: true}
	case ts.Aware && target == nil:
		return Timestamp{Time: withLocation(ts.Time, time.UTC)}
	default:
		return ts
	}
}

// withLocation keeps the wall clock of t and reinterprets it in loc.
func withLocation(t time.Time, loc *time.Location) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, t.Hour(), t.Minute(), t.Second(), t.Nanosecond(), loc)
}

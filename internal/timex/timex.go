// Package timex holds time helpers: an injectable clock, the fixed timestamp
// layout used for credential creation times, and a JSON-friendly Duration.
package timex

import (
	"encoding/json"
	"errors"
	"fmt"
	"time"
)

// Layout is ISO-8601 UTC with second precision. Creation timestamps are part
// of the AEAD associated data, so the exact byte form must never change.
const Layout = "2006-01-02T15:04:05Z"

// Clock abstracts time.Now so callers can pin timestamps in tests.
type Clock interface {
	Now() time.Time
}

// ClockFunc adapts a function to Clock.
type ClockFunc func() time.Time

func (f ClockFunc) Now() time.Time { return f() }

// SystemClock returns the wall clock.
func SystemClock() Clock { return ClockFunc(time.Now) }

// FixedClock always returns t.
func FixedClock(t time.Time) Clock { return ClockFunc(func() time.Time { return t }) }

// FormatUTC renders t in Layout, truncated to whole seconds.
func FormatUTC(t time.Time) string {
	return t.UTC().Truncate(time.Second).Format(Layout)
}

// ParseUTC parses a timestamp produced by FormatUTC.
func ParseUTC(s string) (time.Time, error) {
	return time.Parse(Layout, s)
}

// Duration wraps time.Duration for JSON. It decodes either a string such as
// "3s" or an integer number of nanoseconds, and encodes as a string.
type Duration struct {
	time.Duration
}

func (d Duration) MarshalJSON() ([]byte, error) {
	return json.Marshal(d.String())
}

func (d *Duration) UnmarshalJSON(b []byte) error {
	var v any
	if err := json.Unmarshal(b, &v); err != nil {
		return err
	}
	switch value := v.(type) {
	case float64:
		d.Duration = time.Duration(value)
		return nil
	case string:
		parsed, err := time.ParseDuration(value)
		if err != nil {
			return fmt.Errorf("invalid duration %q: %w", value, err)
		}
		d.Duration = parsed
		return nil
	default:
		return errors.New("invalid duration")
	}
}

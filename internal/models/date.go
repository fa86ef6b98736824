package models

import (
	"strings"
	"time"
)

// DateLayout is the wire and storage format of calendar dates.
const DateLayout = "2006-01-02"

// NormalizeDate accepts a calendar date or an RFC 3339 timestamp and returns
// the calendar date. Blank input yields "" with no error.
func NormalizeDate(raw string) (string, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return "", nil
	}
	if d, err := time.Parse(DateLayout, raw); err == nil {
		return d.Format(DateLayout), nil
	}
	ts, err := time.Parse(time.RFC3339, raw)
	if err != nil {
		return "", Invalid("%q is not a date (want YYYY-MM-DD)", raw)
	}
	return ts.UTC().Format(DateLayout), nil
}

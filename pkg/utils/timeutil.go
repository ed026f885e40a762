package utils

import "time"

// UTCTimestamp formats t as an ISO-8601 UTC string with second precision
// and a trailing "Z", e.g. "2026-08-31T14:03:07Z". This is the cell
// format used for the computed-at column.
func UTCTimestamp(t time.Time) string {
	return t.UTC().Format("2006-01-02T15:04:05") + "Z"
}

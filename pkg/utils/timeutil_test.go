package utils

import (
	"testing"
	"time"
)

func TestUTCTimestamp(t *testing.T) {
	loc := time.FixedZone("IST", 5*3600+1800)
	in := time.Date(2026, 8, 31, 19, 33, 7, 999, loc)

	got := UTCTimestamp(in)
	want := "2026-08-31T14:03:07Z"
	if got != want {
		t.Errorf("UTCTimestamp = %q, want %q", got, want)
	}
}

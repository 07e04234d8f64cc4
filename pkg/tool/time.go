package tool

import "time"

// RFC3339Micro renders t in UTC with up to microsecond precision and a
// literal Z suffix, e.g. "2026-01-02T15:04:05.123456Z". Trailing zeros in
// the fraction are trimmed; a whole second renders with no fraction at all.
// API responses and webhook snapshots share this format so the same record
// serializes identically on both surfaces.
func RFC3339Micro(t time.Time) string {
	return t.UTC().Format("2006-01-02T15:04:05.999999") + "Z"
}

package common

import "time"

// Now is the persisted clock: UTC, microsecond precision, no monotonic reading.
func Now() time.Time {
	return time.Now().UTC().Truncate(time.Microsecond)
}

// NormalizeTime brings a client supplied time onto the persisted clock, nil stays nil.
func NormalizeTime(t *time.Time) *time.Time {
	if t == nil || t.IsZero() {
		return nil
	}
	v := t.UTC().Truncate(time.Microsecond)
	return &v
}

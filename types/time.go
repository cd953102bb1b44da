package types

import "time"

// TimeToSeconds converts a time.Time to round time (seconds since the
// Unix epoch). Times before the epoch clamp to zero.
func TimeToSeconds(t time.Time) uint64 {
	if s := t.Unix(); s > 0 {
		return uint64(s)
	}
	return 0
}

// SecondsToTime converts round time to a time.Time (UTC).
func SecondsToTime(s uint64) time.Time {
	return time.Unix(int64(s), 0).UTC()
}

// At returns a pointer to s, for setting optional period bounds.
func At(s uint64) *uint64 {
	return &s
}

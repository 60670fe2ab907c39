package utils

import "time"

// GetCurrentTimeMillis returns the current time as Unix milliseconds. All
// persisted timestamps use this representation.
func GetCurrentTimeMillis() int64 {
	return time.Now().UnixMilli()
}

// MillisToTime converts a Unix-millisecond timestamp back to time.Time.
func MillisToTime(millis int64) time.Time {
	return time.UnixMilli(millis)
}

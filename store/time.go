package store

import "time"

// Store timestamps as signed microseconds since the Unix epoch, the
// finest grain spec §4.1's monotonicity rule needs ("advances by one
// microsecond" on collision).

func timeToMicros(t time.Time) int64 {
	return t.UnixMicro()
}

func microsToTime(micros int64) time.Time {
	return time.UnixMicro(micros).UTC()
}

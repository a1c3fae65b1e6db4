package util

import "time"

// Now returns the current UTC time. Kept in one place so persisted timestamps
// share a single clock.
func Now() time.Time {
	return time.Now().UTC()
}

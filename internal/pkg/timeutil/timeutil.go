package timeutil

import "time"

func NowUnix() int64 {
	return time.Now().Unix()
}

// Expired reports whether a unix deadline has passed at now. Zero means no deadline.
func Expired(deadline int64, now time.Time) bool {
	if deadline <= 0 {
		return false
	}
	return now.Unix() > deadline
}

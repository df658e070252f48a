package forecast

import (
	"fmt"
	"time"
)

// Aggregate counts sessions per starting hour and returns a contiguous,
// zero-filled series from the earliest to the latest start hour, inclusive.
// Records without a start time are skipped.
func Aggregate(sessions []SessionRecord) ([]HourlyBucket, error) {
	counts := make(map[int64]int, len(sessions))
	var first, last int64
	seen := false

	for _, s := range sessions {
		if s.StartTime.IsZero() {
			continue
		}
		hour := floorHour(s.StartTime).Unix()
		counts[hour]++
		if !seen || hour < first {
			first = hour
		}
		if !seen || hour > last {
			last = hour
		}
		seen = true
	}

	if !seen {
		return nil, fmt.Errorf("%w: no sessions with a start time", ErrInsufficientData)
	}

	const step = int64(time.Hour / time.Second)
	buckets := make([]HourlyBucket, 0, (last-first)/step+1)
	for h := first; h <= last; h += step {
		buckets = append(buckets, HourlyBucket{
			HourStart:    time.Unix(h, 0).UTC(),
			SessionCount: counts[h],
		})
	}
	return buckets, nil
}

func floorHour(t time.Time) time.Time {
	return t.UTC().Truncate(time.Hour)
}

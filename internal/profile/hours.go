package profile

import (
	"fmt"

	"bess-roi/internal/model"
)

// NormalizeHour is the only place hour indexes are converted. Sources that
// number hours 1..24 (ENTSO-E positions, the legacy market CSV) pass
// oneBased=true; the result is always in 0..23. Anything outside the day,
// such as the 25th hour of a DST change, is rejected.
func NormalizeHour(hour int, oneBased bool) (int, error) {
	h := hour
	if oneBased {
		h = hour - 1
	}
	if h < 0 || h >= model.HoursPerDay {
		return 0, fmt.Errorf("%w: hour %d outside the day (one-based=%v)", model.ErrShapeMismatch, hour, oneBased)
	}
	return h, nil
}

// IsOneBased reports whether a set of raw hour indexes uses 1..24
// numbering, judged by the largest index seen.
func IsOneBased(hours []int) bool {
	for _, h := range hours {
		if h > model.HoursPerDay-1 {
			return true
		}
	}
	return false
}

// Package schedule evaluates institute service windows. All functions are
// pure; callers supply the clock.
package schedule

import (
	"time"

	"github.com/HarshChauhan10/Queues/internal/domain"
)

// CanJoin reports whether now falls inside the institute's daily service
// window. Only the time-of-day component of now is compared, and both
// bounds are inclusive. Callers must configure opens <= closes; windows
// crossing midnight are rejected at configuration time.
func CanJoin(opens, closes domain.TimeOfDay, now time.Time) bool {
	nowSec := now.Hour()*3600 + now.Minute()*60 + now.Second()
	return opens.Seconds() <= nowSec && nowSec <= closes.Seconds()
}

// ValidWindow reports whether the pair forms a usable daily window.
func ValidWindow(opens, closes domain.TimeOfDay) bool {
	return opens.Seconds() <= closes.Seconds()
}

// EstimateWindow derives the expected service window for a queue position
// from the institute's per-person duration: position 1 is served starting
// at now (or at opening, whichever is later), position n after n-1 full
// slots. The engine treats the result as opaque once assigned.
func EstimateWindow(opens domain.TimeOfDay, approx time.Duration, position int, now time.Time) domain.ServiceWindow {
	if position < 1 {
		position = 1
	}
	base := now
	if opening := opens.On(now); base.Before(opening) {
		base = opening
	}
	start := base.Add(time.Duration(position-1) * approx)
	return domain.ServiceWindow{Start: start, End: start.Add(approx)}
}

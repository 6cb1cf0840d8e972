// Package usage meters tool usage per user and per counting period.
//
// Every period boundary is computed in UTC: a day starts at 00:00 UTC, a
// week on Monday 00:00 UTC and a month on the 1st at 00:00 UTC. Rollovers are
// never scheduled; a counter whose stored period start differs from the
// current one is reset the next time it is read or written.
package usage

import (
	"errors"
	"fmt"
	"time"

	"github.com/daap14/coachgate/internal/catalog"
)

// ErrNoPeriod is returned for period kinds without a counting window.
var ErrNoPeriod = errors.New("period kind has no counting window")

// CurrentPeriodStart returns the start of the window of kind containing now.
func CurrentPeriodStart(kind catalog.PeriodKind, now time.Time) (time.Time, error) {
	now = now.UTC()
	day := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC)

	switch kind {
	case catalog.PeriodDaily:
		return day, nil
	case catalog.PeriodWeekly:
		sinceMonday := (int(day.Weekday()) + 6) % 7
		return day.AddDate(0, 0, -sinceMonday), nil
	case catalog.PeriodMonthly:
		return time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, time.UTC), nil
	case catalog.PeriodNone:
		return time.Time{}, ErrNoPeriod
	default:
		return time.Time{}, fmt.Errorf("%w: %q", ErrNoPeriod, kind)
	}
}

// NextPeriodStart returns the start of the window following the one that
// contains now.
func NextPeriodStart(kind catalog.PeriodKind, now time.Time) (time.Time, error) {
	start, err := CurrentPeriodStart(kind, now)
	if err != nil {
		return time.Time{}, err
	}

	switch kind {
	case catalog.PeriodDaily:
		return start.AddDate(0, 0, 1), nil
	case catalog.PeriodWeekly:
		return start.AddDate(0, 0, 7), nil
	default:
		return start.AddDate(0, 1, 0), nil
	}
}

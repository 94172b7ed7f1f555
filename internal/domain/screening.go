package domain

import (
	"context"
	"time"
)

type ScreeningStatus string

const (
	ScreeningStatusNotYetShowing ScreeningStatus = "NOT_YET_SHOWING"
	ScreeningStatusStartingSoon  ScreeningStatus = "STARTING_SOON"
	ScreeningStatusShowing       ScreeningStatus = "SHOWING"
	ScreeningStatusShown         ScreeningStatus = "SHOWN"
)

// StartingSoonWindow is how long before the start time a screening is
// announced as starting soon.
const StartingSoonWindow = 30 * time.Minute

var screeningStatusRank = map[ScreeningStatus]int{
	ScreeningStatusNotYetShowing: 0,
	ScreeningStatusStartingSoon:  1,
	ScreeningStatusShowing:       2,
	ScreeningStatusShown:         3,
}

func (s ScreeningStatus) rank() int {
	r, ok := screeningStatusRank[s]
	if !ok {
		return -1
	}

	return r
}

// OnSale reports whether seats of a screening in this status can still be
// held or booked.
func (s ScreeningStatus) OnSale() bool {
	return s == ScreeningStatusNotYetShowing || s == ScreeningStatusStartingSoon
}

type Screening struct {
	ID        int
	StartTime time.Time
	EndTime   time.Time
	Status    ScreeningStatus
}

// ScheduledStatus returns the status a screening should have at now
// according to its timetable alone.
func ScheduledStatus(start, end, now time.Time) ScreeningStatus {
	switch {
	case !now.Before(end):
		return ScreeningStatusShown
	case !now.Before(start):
		return ScreeningStatusShowing
	case !now.Before(start.Add(-StartingSoonWindow)):
		return ScreeningStatusStartingSoon
	default:
		return ScreeningStatusNotYetShowing
	}
}

// NextStatus returns the status the screening should move to at now and
// whether that is a forward move. Statuses never move backwards, so a
// screening whose times were pushed later keeps its current status.
func (s Screening) NextStatus(now time.Time) (ScreeningStatus, bool) {
	target := ScheduledStatus(s.StartTime, s.EndTime, now)
	if target.rank() <= s.Status.rank() {
		return s.Status, false
	}

	return target, true
}

type ScreeningRepository interface {
	ListUnfinished(ctx context.Context) ([]Screening, error)
	// AdvanceStatus sets the status to `to` only while it still equals
	// `from`, returning false when another writer got there first.
	AdvanceStatus(ctx context.Context, id int, from, to ScreeningStatus) (bool, error)
}

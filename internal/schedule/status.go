package schedule

import (
	"strings"
	"time"
)

type Status string

const (
	StatusUpcoming  Status = "Upcoming"
	StatusCurrent   Status = "Current"
	StatusOverdue   Status = "Overdue"
	StatusSubmitted Status = "Submitted"
	StatusLate      Status = "Late"
	StatusGraded    Status = "Graded"
	StatusPast      Status = "Past"
)

var statuses = []Status{
	StatusUpcoming, StatusCurrent, StatusOverdue, StatusSubmitted, StatusLate, StatusGraded, StatusPast,
}

// ParseStatus accepts the label case-insensitively.
func ParseStatus(s string) (Status, bool) {
	for _, st := range statuses {
		if strings.EqualFold(string(st), strings.TrimSpace(s)) {
			return st, true
		}
	}
	return "", false
}

// Window is the availability span of an item. A zero Available means the item
// has always been available, a zero Due means it never falls due.
type Window struct {
	Available time.Time
	Due       time.Time
}

func (w Window) availableBy(now time.Time) bool {
	return w.Available.IsZero() || !w.Available.After(now)
}

func (w Window) pastDue(now time.Time) bool {
	return !w.Due.IsZero() && w.Due.Before(now)
}

// SubmissionFacts is what the classifier needs to know about the viewer's own submission.
type SubmissionFacts struct {
	SubmittedAt time.Time
	Graded      bool
}

// Classify derives the label of one item. Leaders only see the lifecycle of
// the item; members see their personal progress on it.
func Classify(now time.Time, w Window, sub *SubmissionFacts, viewerIsLeader bool) Status {
	if viewerIsLeader {
		switch {
		case w.pastDue(now):
			return StatusPast
		case w.availableBy(now):
			return StatusCurrent
		default:
			return StatusUpcoming
		}
	}

	if !w.availableBy(now) {
		return StatusUpcoming
	}

	if w.pastDue(now) {
		switch {
		case sub != nil && sub.Graded:
			return StatusGraded
		case sub != nil:
			if sub.SubmittedAt.After(w.Due) {
				return StatusLate
			}
			return StatusSubmitted
		default:
			return StatusOverdue
		}
	}

	switch {
	case sub != nil && sub.Graded:
		return StatusGraded
	case sub != nil:
		return StatusSubmitted
	default:
		return StatusCurrent
	}
}

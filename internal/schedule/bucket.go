package schedule

import (
	"math"
	"time"
)

type Bucket string

const (
	BucketCurrent  Bucket = "current"
	BucketUpcoming Bucket = "upcoming"
	BucketOverdue  Bucket = "overdue"
	BucketPast     Bucket = "past"
)

// documents due within this many days count as current
const documentCurrentDays = 7

// Buckets is the board. Every scheduled item sits in exactly one of the four lists.
type Buckets struct {
	Current     []Item        `json:"current"`
	Upcoming    []Item        `json:"upcoming"`
	Overdue     []Item        `json:"overdue"`
	Past        []Item        `json:"past"`
	Unscheduled []Unscheduled `json:"unscheduled,omitempty"`
}

func newBuckets() Buckets {
	return Buckets{
		Current:  []Item{},
		Upcoming: []Item{},
		Overdue:  []Item{},
		Past:     []Item{},
	}
}

func (b *Buckets) add(bucket Bucket, it Item) {
	switch bucket {
	case BucketCurrent:
		b.Current = append(b.Current, it)
	case BucketUpcoming:
		b.Upcoming = append(b.Upcoming, it)
	case BucketOverdue:
		b.Overdue = append(b.Overdue, it)
	case BucketPast:
		b.Past = append(b.Past, it)
	}
}

// each visits the four lists in board order.
func (b *Buckets) each(f func(Bucket, *[]Item)) {
	f(BucketCurrent, &b.Current)
	f(BucketUpcoming, &b.Upcoming)
	f(BucketOverdue, &b.Overdue)
	f(BucketPast, &b.Past)
}

func (b Buckets) Len() int {
	return len(b.Current) + len(b.Upcoming) + len(b.Overdue) + len(b.Past)
}

// AssignmentBucket places an already classified assignment. Overdue is only
// for unsubmitted work: anything submitted after the due date is past.
func AssignmentBucket(st Status) Bucket {
	switch st {
	case StatusUpcoming:
		return BucketUpcoming
	case StatusOverdue:
		return BucketOverdue
	case StatusPast, StatusLate:
		return BucketPast
	default:
		return BucketCurrent
	}
}

func memberAssignmentBucket(now time.Time, it *AssignmentItem) Bucket {
	st := Classify(now, it.window, it.sub, false)
	switch st {
	case StatusGraded, StatusSubmitted:
		if it.window.pastDue(now) {
			return BucketPast
		}
	}
	return AssignmentBucket(st)
}

// DocumentOverdue is the derived isOverdue flag of a smart document.
func DocumentOverdue(now, due time.Time, status DocumentStatus) bool {
	return !due.IsZero() && due.Before(now) && status != DocumentCompleted
}

// DaysUntil counts the started days left before due, rounding up.
func DaysUntil(now, due time.Time) int {
	return int(math.Ceil(due.Sub(now).Hours() / 24))
}

// DocumentBucket is the document rule: past due documents are overdue while
// flagged and not completed, the rest are current within a week of due.
func DocumentBucket(now, due time.Time, isOverdue bool, status DocumentStatus) Bucket {
	if due.IsZero() {
		return BucketUpcoming
	}
	if due.Before(now) {
		if isOverdue && status != DocumentCompleted {
			return BucketOverdue
		}
		return BucketPast
	}
	if DaysUntil(now, due) <= documentCurrentDays {
		return BucketCurrent
	}
	return BucketUpcoming
}

func bucketLabel(b Bucket) Status {
	switch b {
	case BucketCurrent:
		return StatusCurrent
	case BucketUpcoming:
		return StatusUpcoming
	case BucketOverdue:
		return StatusOverdue
	default:
		return StatusPast
	}
}

// BucketAssignments groups assignments for the given viewer.
func BucketAssignments(now time.Time, viewerIsLeader bool, items []*AssignmentItem) Buckets {
	out := newBuckets()
	for _, it := range items {
		it.Label = Classify(now, it.window, it.sub, viewerIsLeader)
		if viewerIsLeader {
			out.add(AssignmentBucket(it.Label), it)
			continue
		}
		out.add(memberAssignmentBucket(now, it), it)
	}
	return out
}

// BucketDocuments groups smart documents with the document rule.
func BucketDocuments(now time.Time, items []*DocumentItem) Buckets {
	out := newBuckets()
	for _, it := range items {
		b := DocumentBucket(now, it.due, it.IsOverdue, it.Document.Status)
		it.Label = bucketLabel(b)
		out.add(b, it)
	}
	return out
}

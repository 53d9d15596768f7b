package schedule

import (
	"fmt"
	"time"

	"golang.org/x/text/language"
)

// View is who is looking at the board, and when.
type View struct {
	Now    time.Time
	Leader bool
}

// Merge builds the unified board. Members get each kind bucketed by its own
// rule; leaders get the whole merged set re-bucketed with the assignment
// lifecycle rule, documents included.
func Merge(v View, as []*AssignmentItem, ds []*DocumentItem) Buckets {
	ab := BucketAssignments(v.Now, v.Leader, as)
	db := BucketDocuments(v.Now, ds)

	merged := newBuckets()
	merged.each(func(name Bucket, dst *[]Item) {
		*dst = append(*dst, pick(ab, name)...)
		*dst = append(*dst, pick(db, name)...)
	})

	if !v.Leader {
		return merged
	}

	return recategorizeForLeader(v.Now, merged)
}

func pick(b Buckets, name Bucket) []Item {
	switch name {
	case BucketCurrent:
		return b.Current
	case BucketUpcoming:
		return b.Upcoming
	case BucketOverdue:
		return b.Overdue
	default:
		return b.Past
	}
}

func recategorizeForLeader(now time.Time, b Buckets) Buckets {
	out := newBuckets()
	b.each(func(_ Bucket, items *[]Item) {
		for _, it := range *items {
			label := Label(View{Now: now, Leader: true}, it)
			setLabel(it, label)
			out.add(AssignmentBucket(label), it)
		}
	})
	return out
}

// Label recomputes the status label of an item for a viewer, the same way
// Merge assigned it.
func Label(v View, it Item) Status {
	switch x := it.(type) {
	case *AssignmentItem:
		return Classify(v.Now, x.window, x.sub, v.Leader)
	case *DocumentItem:
		if v.Leader {
			return Classify(v.Now, Window{Due: x.due}, nil, true)
		}
		return bucketLabel(DocumentBucket(v.Now, x.due, x.IsOverdue, x.Document.Status))
	}
	panic(fmt.Sprintf("schedule: unknown item %T", it))
}

func setLabel(it Item, st Status) {
	switch x := it.(type) {
	case *AssignmentItem:
		x.Label = st
	case *DocumentItem:
		x.Label = st
	}
}

// Board is the whole pipeline over raw API records.
func Board(p Parser, v View, as []Assignment, ds []Document, q Query) Buckets {
	aItems, dItems, bad := p.Normalize(as, ds)
	b := Apply(v, Merge(v, aItems, dItems), q)
	b.Unscheduled = bad
	return b
}

// Combine joins boards that were built for different views, one per club for
// instance, and sorts every bucket again.
func Combine(s Sort, lang language.Tag, boards ...Buckets) Buckets {
	out := newBuckets()
	for _, b := range boards {
		b.each(func(name Bucket, items *[]Item) {
			for _, it := range *items {
				out.add(name, it)
			}
		})
		out.Unscheduled = append(out.Unscheduled, b.Unscheduled...)
	}
	out.each(func(_ Bucket, items *[]Item) {
		sortItems(*items, s, lang)
	})
	return out
}

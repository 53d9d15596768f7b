package schedule

import (
	"fmt"
	"slices"
	"strings"
	"time"

	"golang.org/x/text/collate"
	"golang.org/x/text/language"
)

type GradedFilter string

const (
	GradedAny          GradedFilter = ""
	GradedOnly         GradedFilter = "graded"
	GradedUngraded     GradedFilter = "ungraded"
	GradedNotSubmitted GradedFilter = "not-submitted"
)

func ParseGradedFilter(s string) (GradedFilter, error) {
	switch f := GradedFilter(strings.ToLower(strings.TrimSpace(s))); f {
	case GradedAny, GradedOnly, GradedUngraded, GradedNotSubmitted:
		return f, nil
	}
	return GradedAny, fmt.Errorf("unknown graded filter %q", s)
}

type SortField string

const (
	SortNone            SortField = ""
	SortDueDate         SortField = "dueDate"
	SortTitle           SortField = "title"
	SortCreatedAt       SortField = "createdAt"
	SortSubmissionCount SortField = "submissionCount"
)

type Sort struct {
	Field SortField
	Desc  bool
}

// ParseSort reads "field" or "field-asc" / "field-desc", e.g. "dueDate-desc".
func ParseSort(s string) (Sort, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return Sort{}, nil
	}

	field, dir, _ := strings.Cut(s, "-")
	out := Sort{Field: SortField(field)}
	switch out.Field {
	case SortDueDate, SortTitle, SortCreatedAt, SortSubmissionCount:
	default:
		return Sort{}, fmt.Errorf("unknown sort field %q", field)
	}

	switch strings.ToLower(dir) {
	case "", "asc":
	case "desc":
		out.Desc = true
	default:
		return Sort{}, fmt.Errorf("unknown sort direction %q", dir)
	}
	return out, nil
}

func (s Sort) String() string {
	if s.Field == SortNone {
		return ""
	}
	if s.Desc {
		return string(s.Field) + "-desc"
	}
	return string(s.Field) + "-asc"
}

// Query is the user's refinement of the board.
type Query struct {
	Search   string
	Statuses []Status
	Graded   GradedFilter
	Sort     Sort
	Language language.Tag
}

// Apply runs search, status filter, graded filter and sort, in that order,
// on every bucket separately.
func Apply(v View, b Buckets, q Query) Buckets {
	needle := strings.ToLower(strings.TrimSpace(q.Search))

	b.each(func(_ Bucket, items *[]Item) {
		kept := make([]Item, 0, len(*items))
		for _, it := range *items {
			if needle != "" && !matchesSearch(it, needle) {
				continue
			}
			if len(q.Statuses) > 0 && !slices.Contains(q.Statuses, Label(v, it)) {
				continue
			}
			if !v.Leader && !matchesGraded(it, q.Graded) {
				continue
			}
			kept = append(kept, it)
		}
		sortItems(kept, q.Sort, q.Language)
		*items = kept
	})

	return b
}

func matchesSearch(it Item, needle string) bool {
	switch x := it.(type) {
	case *AssignmentItem:
		return containsFold(x.Title, needle) || containsFold(x.Description, needle)
	case *DocumentItem:
		return containsFold(x.Title, needle) || containsFold(x.Description, needle) ||
			containsFold(x.ClubName, needle)
	}
	panic(fmt.Sprintf("schedule: unknown item %T", it))
}

func containsFold(s, lowerNeedle string) bool {
	return strings.Contains(strings.ToLower(s), lowerNeedle)
}

func matchesGraded(it Item, f GradedFilter) bool {
	switch x := it.(type) {
	case *AssignmentItem:
		switch f {
		case GradedOnly:
			return x.sub != nil && x.sub.Graded
		case GradedUngraded:
			return x.sub != nil && !x.sub.Graded
		case GradedNotSubmitted:
			return x.sub == nil
		}
		return true
	case *DocumentItem:
		return true
	}
	panic(fmt.Sprintf("schedule: unknown item %T", it))
}

func sortItems(items []Item, s Sort, lang language.Tag) {
	var cmp func(a, b Item) int

	switch s.Field {
	case SortDueDate:
		cmp = func(a, b Item) int { return compareTimes(itemDue(a), itemDue(b), s.Desc) }
	case SortCreatedAt:
		cmp = func(a, b Item) int { return compareTimes(itemCreated(a), itemCreated(b), s.Desc) }
	case SortTitle:
		col := collate.New(lang, collate.IgnoreCase)
		cmp = func(a, b Item) int {
			c := col.CompareString(itemTitle(a), itemTitle(b))
			if s.Desc {
				return -c
			}
			return c
		}
	case SortSubmissionCount:
		cmp = func(a, b Item) int {
			c := itemSubmissionCount(a) - itemSubmissionCount(b)
			if s.Desc {
				return -c
			}
			return c
		}
	default:
		return
	}

	slices.SortStableFunc(items, cmp)
}

// compareTimes orders instants with missing ones last in either direction.
func compareTimes(a, b time.Time, desc bool) int {
	switch {
	case a.IsZero() && b.IsZero():
		return 0
	case a.IsZero():
		return 1
	case b.IsZero():
		return -1
	}

	c := a.Compare(b)
	if desc {
		return -c
	}
	return c
}

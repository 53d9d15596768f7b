package schedule_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"kyri56xcaesar/clubs-proj/internal/schedule"
)

func dueDates(items []schedule.Item) []string {
	out := make([]string, 0, len(items))
	for _, it := range items {
		switch x := it.(type) {
		case *schedule.AssignmentItem:
			out = append(out, x.DueDate)
		case *schedule.DocumentItem:
			out = append(out, x.DueDate)
		}
	}
	return out
}

func TestSortByDueDate(t *testing.T) {
	as := []schedule.Assignment{
		{ID: 1, Title: "a", DueDate: "2025-12-01"},
		{ID: 2, Title: "b", DueDate: "2025-11-20"},
		{ID: 3, Title: "c", DueDate: "2025-11-25"},
	}
	v := schedule.View{Now: time.Date(2025, 11, 1, 0, 0, 0, 0, time.UTC), Leader: true}

	asc := schedule.Board(schedule.DefaultParser, v, as, nil, schedule.Query{Sort: schedule.Sort{Field: schedule.SortDueDate}})
	assert.Equal(t, []string{"2025-11-20", "2025-11-25", "2025-12-01"}, dueDates(asc.Current))

	desc := schedule.Board(schedule.DefaultParser, v, as, nil, schedule.Query{Sort: schedule.Sort{Field: schedule.SortDueDate, Desc: true}})
	assert.Equal(t, []string{"2025-12-01", "2025-11-25", "2025-11-20"}, dueDates(desc.Current))
}

func TestSortIsStableAndBucketLocal(t *testing.T) {
	as := []schedule.Assignment{
		{ID: 1, Title: "x", DueDate: sql(now.Add(48 * time.Hour))},
		{ID: 2, Title: "y", DueDate: sql(now.Add(24 * time.Hour))},
		{ID: 3, Title: "z", DueDate: sql(now.Add(24 * time.Hour))},
		{ID: 4, Title: "old", DueDate: sql(now.Add(-24 * time.Hour))},
		{ID: 5, Title: "undated"},
	}
	v := schedule.View{Now: now, Leader: true}

	b := schedule.Board(schedule.DefaultParser, v, as, nil, schedule.Query{Sort: schedule.Sort{Field: schedule.SortDueDate}})
	assert.Equal(t, []int64{2, 3, 1, 5}, ids(b.Current))
	assert.Equal(t, []int64{4}, ids(b.Past))

	b = schedule.Board(schedule.DefaultParser, v, as, nil, schedule.Query{Sort: schedule.Sort{Field: schedule.SortDueDate, Desc: true}})
	assert.Equal(t, []int64{1, 2, 3, 5}, ids(b.Current))
}

func TestSortByTitleAndSubmissionCount(t *testing.T) {
	as := []schedule.Assignment{
		{ID: 1, Title: "beta", SubmissionCount: 3},
		{ID: 2, Title: "Alpha", SubmissionCount: 1},
		{ID: 3, Title: "Ωmega", SubmissionCount: 3},
	}
	ds := []schedule.Document{{ID: 4, Title: "gamma", DueDate: sql(now.Add(time.Hour)), Status: schedule.DocumentOpen}}
	v := schedule.View{Now: now, Leader: true}

	b := schedule.Board(schedule.DefaultParser, v, as, ds, schedule.Query{Sort: schedule.Sort{Field: schedule.SortTitle}})
	assert.Equal(t, []int64{2, 1, 4, 3}, ids(b.Current))

	b = schedule.Board(schedule.DefaultParser, v, as, ds, schedule.Query{Sort: schedule.Sort{Field: schedule.SortSubmissionCount, Desc: true}})
	assert.Equal(t, []int64{1, 3, 2, 4}, ids(b.Current))
}

func TestSearchMatchesClubNameOnlyForDocuments(t *testing.T) {
	as := []schedule.Assignment{{ID: 1, Title: "Essay", Description: "chess openings"}}
	ds := []schedule.Document{
		{ID: 2, Title: "Minutes", ClubName: "Chess Club", DueDate: sql(now.Add(time.Hour)), Status: schedule.DocumentOpen},
		{ID: 3, Title: "Budget", ClubName: "Robotics", DueDate: sql(now.Add(time.Hour)), Status: schedule.DocumentOpen},
	}

	b := schedule.Board(schedule.DefaultParser, schedule.View{Now: now}, as, ds, schedule.Query{Search: "  CHESS "})
	assert.Equal(t, []int64{1, 2}, ids(b.Current))
}

func TestStatusFilterUsesRecomputedLabels(t *testing.T) {
	b := schedule.Board(schedule.DefaultParser, schedule.View{Now: now}, fixtureAssignments(), fixtureDocuments(),
		schedule.Query{Statuses: []schedule.Status{schedule.StatusOverdue, schedule.StatusLate}})

	assert.Equal(t, []int64{3, 101}, ids(b.Overdue))
	assert.Equal(t, []int64{4}, ids(b.Past))
	assert.Empty(t, b.Current)
	assert.Empty(t, b.Upcoming)
}

func TestGradedFilter(t *testing.T) {
	member := schedule.View{Now: now}

	graded := schedule.Board(schedule.DefaultParser, member, fixtureAssignments(), fixtureDocuments(), schedule.Query{Graded: schedule.GradedOnly})
	assert.Equal(t, []int64{5, 102}, ids(graded.Past))
	assert.Equal(t, []int64{103}, ids(graded.Current))

	ungraded := schedule.Board(schedule.DefaultParser, member, fixtureAssignments(), nil, schedule.Query{Graded: schedule.GradedUngraded})
	assert.Equal(t, []int64{6}, ids(ungraded.Current))
	assert.Equal(t, []int64{4}, ids(ungraded.Past))

	missing := schedule.Board(schedule.DefaultParser, member, fixtureAssignments(), nil, schedule.Query{Graded: schedule.GradedNotSubmitted})
	assert.Equal(t, []int64{2}, ids(missing.Current))
	assert.Equal(t, []int64{1}, ids(missing.Upcoming))
	assert.Equal(t, []int64{3}, ids(missing.Overdue))

	// leaders are never filtered by grading
	leader := schedule.Board(schedule.DefaultParser, schedule.View{Now: now, Leader: true}, fixtureAssignments(), nil,
		schedule.Query{Graded: schedule.GradedOnly})
	assert.Equal(t, len(fixtureAssignments()), leader.Len())
}

func TestParseSortAndGraded(t *testing.T) {
	s, err := schedule.ParseSort("dueDate-desc")
	require.NoError(t, err)
	assert.Equal(t, schedule.Sort{Field: schedule.SortDueDate, Desc: true}, s)
	assert.Equal(t, "dueDate-desc", s.String())

	s, err = schedule.ParseSort("title")
	require.NoError(t, err)
	assert.Equal(t, schedule.Sort{Field: schedule.SortTitle}, s)

	_, err = schedule.ParseSort("priority-asc")
	assert.Error(t, err)
	_, err = schedule.ParseSort("title-up")
	assert.Error(t, err)

	g, err := schedule.ParseGradedFilter("Not-Submitted")
	require.NoError(t, err)
	assert.Equal(t, schedule.GradedNotSubmitted, g)
	_, err = schedule.ParseGradedFilter("maybe")
	assert.Error(t, err)
}

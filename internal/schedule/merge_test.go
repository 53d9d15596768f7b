package schedule_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"golang.org/x/text/language"

	"kyri56xcaesar/clubs-proj/internal/schedule"
)

func TestCombineKeepsEachClubsView(t *testing.T) {
	missed := []schedule.Assignment{
		{ID: 1, ClubID: 1, Title: "missed", DueDate: sql(now.Add(-24 * time.Hour))},
	}
	soon := []schedule.Assignment{
		{ID: 2, ClubID: 2, Title: "soon", DueDate: sql(now.Add(48 * time.Hour))},
		{ID: 3, ClubID: 2, Title: "sooner", DueDate: sql(now.Add(24 * time.Hour))},
	}
	q := schedule.Query{Sort: schedule.Sort{Field: schedule.SortDueDate}}

	asLeader := schedule.Board(schedule.DefaultParser, schedule.View{Now: now, Leader: true}, missed, nil, q)
	asMember := schedule.Board(schedule.DefaultParser, schedule.View{Now: now}, missed, nil, q)
	other := schedule.Board(schedule.DefaultParser, schedule.View{Now: now}, soon, nil, q)

	b := schedule.Combine(q.Sort, language.English, asLeader, other)
	assert.Equal(t, []int64{1}, ids(b.Past))
	assert.Empty(t, b.Overdue)
	assert.Equal(t, []int64{3, 2}, ids(b.Current))

	b = schedule.Combine(q.Sort, language.English, asMember, other)
	assert.Equal(t, []int64{1}, ids(b.Overdue))
	assert.Empty(t, b.Past)
}

func TestCombineCarriesUnscheduled(t *testing.T) {
	bad := []schedule.Assignment{{ID: 9, Title: "broken", DueDate: "2025-13-45 99:00"}}
	b := schedule.Board(schedule.DefaultParser, schedule.View{Now: now}, bad, nil, schedule.Query{})

	out := schedule.Combine(schedule.Sort{}, language.English, b, schedule.Buckets{})
	assert.Len(t, out.Unscheduled, 1)
	assert.Equal(t, 0, out.Len())
	assert.NotNil(t, out.Current)
}

package schedule_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"kyri56xcaesar/clubs-proj/internal/schedule"
)

var now = time.Date(2025, 11, 15, 12, 0, 0, 0, time.UTC)

func window(availableOffset, dueOffset time.Duration) schedule.Window {
	return schedule.Window{Available: now.Add(availableOffset), Due: now.Add(dueOffset)}
}

func TestClassifyLeader(t *testing.T) {
	late := &schedule.SubmissionFacts{SubmittedAt: now, Graded: true}

	tests := []struct {
		name string
		w    schedule.Window
		sub  *schedule.SubmissionFacts
		want schedule.Status
	}{
		{"past due", window(-72*time.Hour, -time.Hour), nil, schedule.StatusPast},
		{"past due with graded submission", window(-72*time.Hour, -time.Hour), late, schedule.StatusPast},
		{"open", window(-time.Hour, time.Hour), nil, schedule.StatusCurrent},
		{"opens exactly now", window(0, time.Hour), nil, schedule.StatusCurrent},
		{"not yet open", window(time.Hour, 48*time.Hour), late, schedule.StatusUpcoming},
		{"no dates", schedule.Window{}, nil, schedule.StatusCurrent},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, schedule.Classify(now, tt.w, tt.sub, true))
		})
	}
}

func TestClassifyMember(t *testing.T) {
	open := window(-24*time.Hour, 24*time.Hour)
	closed := window(-72*time.Hour, -24*time.Hour)

	onTime := &schedule.SubmissionFacts{SubmittedAt: closed.Due.Add(-time.Hour)}
	lateSub := &schedule.SubmissionFacts{SubmittedAt: closed.Due.Add(time.Hour)}
	graded := &schedule.SubmissionFacts{SubmittedAt: closed.Due.Add(time.Hour), Graded: true}

	tests := []struct {
		name string
		w    schedule.Window
		sub  *schedule.SubmissionFacts
		want schedule.Status
	}{
		{"not yet available", window(time.Hour, 48*time.Hour), onTime, schedule.StatusUpcoming},
		{"open, nothing submitted", open, nil, schedule.StatusCurrent},
		{"open, submitted", open, onTime, schedule.StatusSubmitted},
		{"open, graded", open, graded, schedule.StatusGraded},
		{"closed, nothing submitted", closed, nil, schedule.StatusOverdue},
		{"closed, submitted on time", closed, onTime, schedule.StatusSubmitted},
		{"closed, submitted late", closed, lateSub, schedule.StatusLate},
		{"closed, graded", closed, graded, schedule.StatusGraded},
		{"available exactly now", window(0, time.Hour), nil, schedule.StatusCurrent},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, schedule.Classify(now, tt.w, tt.sub, false))
		})
	}
}

func TestClassifyMemberCrossingDueDate(t *testing.T) {
	w := schedule.Window{Available: now.Add(-time.Hour), Due: now.Add(time.Hour)}

	assert.Equal(t, schedule.StatusCurrent, schedule.Classify(now, w, nil, false))
	assert.Equal(t, schedule.StatusOverdue, schedule.Classify(now.Add(2*time.Hour), w, nil, false))
}

func TestClassifyNeverOverdueOnceSubmitted(t *testing.T) {
	w := schedule.Window{Available: now.Add(-48 * time.Hour), Due: now.Add(-24 * time.Hour)}

	for _, offset := range []time.Duration{-time.Hour, 0, time.Hour, 20 * time.Hour} {
		for _, graded := range []bool{false, true} {
			sub := &schedule.SubmissionFacts{SubmittedAt: w.Due.Add(offset), Graded: graded}
			assert.NotEqual(t, schedule.StatusOverdue, schedule.Classify(now, w, sub, false))
		}
	}
}

func TestParseStatus(t *testing.T) {
	st, ok := schedule.ParseStatus(" overdue ")
	assert.True(t, ok)
	assert.Equal(t, schedule.StatusOverdue, st)

	_, ok = schedule.ParseStatus("done")
	assert.False(t, ok)
}

package boardtui

import (
	"errors"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"kyri56xcaesar/clubs-proj/internal/apiclient"
	"kyri56xcaesar/clubs-proj/internal/schedule"
)

type fakeControl struct {
	refreshes, pauses, resumes int
}

func (f *fakeControl) Refresh() { f.refreshes++ }
func (f *fakeControl) Pause()   { f.pauses++ }
func (f *fakeControl) Resume()  { f.resumes++ }

func key(s string) tea.KeyMsg {
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)}
}

func step(t *testing.T, m Model, msg tea.Msg) (Model, tea.Cmd) {
	t.Helper()
	next, cmd := m.Update(msg)
	out, ok := next.(Model)
	require.True(t, ok)
	return out, cmd
}

func TestKeys(t *testing.T) {
	ctl := &fakeControl{}
	m := New(ctl, NewQueryBox(apiclient.BoardQuery{}))

	m, _ = step(t, m, key("r"))
	assert.Equal(t, 1, ctl.refreshes)

	m, _ = step(t, m, key("p"))
	assert.True(t, m.paused)
	assert.Equal(t, 1, ctl.pauses)
	m, _ = step(t, m, key("p"))
	assert.False(t, m.paused)
	assert.Equal(t, 1, ctl.resumes)

	_, cmd := step(t, m, key("q"))
	require.NotNil(t, cmd)
	assert.IsType(t, tea.QuitMsg{}, cmd())
}

func TestFocusPausesPolling(t *testing.T) {
	ctl := &fakeControl{}
	m := New(ctl, NewQueryBox(apiclient.BoardQuery{}))

	m, _ = step(t, m, tea.BlurMsg{})
	assert.True(t, m.paused)
	assert.Equal(t, 1, ctl.pauses)
	assert.Contains(t, m.View(), "paused")

	m, _ = step(t, m, tea.FocusMsg{})
	assert.False(t, m.paused)
	assert.Equal(t, 1, ctl.resumes)
}

func TestSearchUpdatesQueryAndRefreshes(t *testing.T) {
	ctl := &fakeControl{}
	box := NewQueryBox(apiclient.BoardQuery{ClubID: 3})
	m := New(ctl, box)

	m, _ = step(t, m, key("/"))
	assert.True(t, m.searching)

	m, _ = step(t, m, key("lab"))
	m, _ = step(t, m, key("q"))
	assert.True(t, m.searching, "q types while searching")

	m, _ = step(t, m, tea.KeyMsg{Type: tea.KeyEnter})
	assert.False(t, m.searching)
	assert.Equal(t, "labq", box.Get().Search)
	assert.Equal(t, int64(3), box.Get().ClubID)
	assert.Equal(t, 1, ctl.refreshes)

	m, _ = step(t, m, key("/"))
	m, _ = step(t, m, key("x"))
	m, _ = step(t, m, tea.KeyMsg{Type: tea.KeyEsc})
	assert.Equal(t, "labq", box.Get().Search)
	assert.Equal(t, "labq", m.search.Value())
	assert.Equal(t, 1, ctl.refreshes)
}

func TestBoardMessages(t *testing.T) {
	m := New(&fakeControl{}, NewQueryBox(apiclient.BoardQuery{}))
	m.now = func() time.Time { return time.Date(2025, 11, 15, 12, 0, 0, 0, time.UTC) }
	assert.Contains(t, m.View(), "loading board")

	board := apiclient.Board{ClubName: "Robotics", LeaderView: true}
	board.Board.Current = []apiclient.BoardEntry{{Type: schedule.KindAssignment, Title: "Essay", Label: schedule.StatusCurrent, DueDate: "2025-11-20 12:00:00"}}
	board.Board.Past = []apiclient.BoardEntry{{Type: schedule.KindSmartDocument, Title: "Minutes", Label: schedule.StatusPast, DueDate: "2025-11-10 12:00:00"}}

	m, _ = step(t, m, BoardMsg{Board: board, At: time.Now()})
	v := m.View()
	assert.Contains(t, v, "Robotics board")
	assert.Contains(t, v, "leader view")
	assert.Contains(t, v, "Essay")
	assert.Contains(t, v, "Minutes")
	assert.Contains(t, v, "Current (1)")
	assert.Contains(t, v, "Overdue (0)")

	m, _ = step(t, m, BoardMsg{Err: errors.New("gateway down"), At: time.Now()})
	v = m.View()
	assert.Contains(t, v, "refresh failed: gateway down")
	assert.Contains(t, v, "Essay", "last good board stays on screen")
}

func TestDueText(t *testing.T) {
	now := time.Date(2025, 11, 15, 12, 0, 0, 0, time.UTC)
	assert.Equal(t, "due in 5d", dueText(now, "2025-11-20 12:00:00"))
	assert.Equal(t, "due 3d ago", dueText(now, "2025-11-12 12:00:00"))
	assert.Equal(t, "no due date", dueText(now, ""))
}

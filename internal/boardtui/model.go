// Package boardtui is the terminal board: four bucket columns refreshed by a
// poller that pauses while the terminal is out of focus.
package boardtui

import (
	"sync"
	"time"

	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"kyri56xcaesar/clubs-proj/internal/apiclient"
)

// Control is the part of the poller the model drives.
type Control interface {
	Refresh()
	Pause()
	Resume()
}

// QueryBox hands the current query to the poller's task.
type QueryBox struct {
	mu sync.Mutex
	q  apiclient.BoardQuery
}

func NewQueryBox(q apiclient.BoardQuery) *QueryBox {
	return &QueryBox{q: q}
}

func (b *QueryBox) Get() apiclient.BoardQuery {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.q
}

func (b *QueryBox) setSearch(s string) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.q.Search = s
}

// BoardMsg carries a poll result into the program.
type BoardMsg struct {
	Board apiclient.Board
	Err   error
	At    time.Time
}

type Model struct {
	ctl   Control
	query *QueryBox

	board   apiclient.Board
	err     error
	loaded  bool
	updated time.Time
	paused  bool

	searching bool
	search    textinput.Model
	spin      spinner.Model

	width int
	now   func() time.Time
}

func New(ctl Control, query *QueryBox) Model {
	ti := textinput.New()
	ti.Prompt = "/ "
	ti.Placeholder = "title or club"
	ti.CharLimit = 64
	ti.Width = 32
	ti.TextStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#9b59b6"))
	ti.SetValue(query.Get().Search)

	s := spinner.New()
	s.Spinner = spinner.Dot
	s.Style = lipgloss.NewStyle().Foreground(lipgloss.Color("#3498db"))

	return Model{ctl: ctl, query: query, search: ti, spin: s, width: 120, now: time.Now}
}

func (m Model) Init() tea.Cmd {
	return m.spin.Tick
}

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case BoardMsg:
		m.loaded = true
		m.updated = msg.At
		m.err = msg.Err
		if msg.Err == nil {
			m.board = msg.Board
		}
		return m, nil

	case tea.WindowSizeMsg:
		m.width = msg.Width
		return m, nil

	case tea.BlurMsg:
		m.paused = true
		m.ctl.Pause()
		return m, nil

	case tea.FocusMsg:
		m.paused = false
		m.ctl.Resume()
		return m, nil

	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spin, cmd = m.spin.Update(msg)
		return m, cmd

	case tea.KeyMsg:
		if m.searching {
			return m.updateSearch(msg)
		}
		switch msg.String() {
		case "ctrl+c", "q":
			return m, tea.Quit
		case "r":
			m.ctl.Refresh()
			return m, nil
		case "p":
			m.paused = !m.paused
			if m.paused {
				m.ctl.Pause()
			} else {
				m.ctl.Resume()
			}
			return m, nil
		case "/":
			m.searching = true
			m.search.Focus()
			return m, textinput.Blink
		}
	}
	return m, nil
}

func (m Model) updateSearch(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.Type {
	case tea.KeyCtrlC:
		return m, tea.Quit
	case tea.KeyEnter:
		m.searching = false
		m.search.Blur()
		m.query.setSearch(m.search.Value())
		m.ctl.Refresh()
		return m, nil
	case tea.KeyEsc:
		m.searching = false
		m.search.Blur()
		m.search.SetValue(m.query.Get().Search)
		return m, nil
	}

	var cmd tea.Cmd
	m.search, cmd = m.search.Update(msg)
	return m, cmd
}

package boardtui

import (
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"

	"kyri56xcaesar/clubs-proj/internal/apiclient"
	"kyri56xcaesar/clubs-proj/internal/schedule"
)

var (
	titleStyle  = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#3498db"))
	mutedStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("#7f8c8d"))
	errorStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("#e74c3c"))
	columnStyle = lipgloss.NewStyle().Border(lipgloss.RoundedBorder()).Padding(0, 1)

	labelColors = map[schedule.Status]lipgloss.Color{
		schedule.StatusCurrent:   "#2ecc71",
		schedule.StatusUpcoming:  "#3498db",
		schedule.StatusOverdue:   "#e74c3c",
		schedule.StatusLate:      "#e67e22",
		schedule.StatusSubmitted: "#9b59b6",
		schedule.StatusGraded:    "#1abc9c",
		schedule.StatusPast:      "#7f8c8d",
	}
)

func (m Model) View() string {
	var sb strings.Builder

	sb.WriteString(titleStyle.Render(m.heading()))
	sb.WriteString("  ")
	sb.WriteString(mutedStyle.Render(m.statusLine()))
	sb.WriteString("\n\n")

	if m.err != nil {
		sb.WriteString(errorStyle.Render("refresh failed: " + m.err.Error()))
		sb.WriteString("\n\n")
	}

	if !m.loaded {
		sb.WriteString(m.spin.View() + " loading board...\n")
	} else {
		b := m.board.Board
		colWidth := max((m.width-8)/4-4, 20)
		sb.WriteString(lipgloss.JoinHorizontal(lipgloss.Top,
			m.column("Current", b.Current, colWidth),
			m.column("Upcoming", b.Upcoming, colWidth),
			m.column("Overdue", b.Overdue, colWidth),
			m.column("Past", b.Past, colWidth),
		))
		sb.WriteString("\n")
		if n := len(b.Unscheduled); n > 0 {
			sb.WriteString(mutedStyle.Render(fmt.Sprintf("%d item(s) with unreadable dates were left out", n)))
			sb.WriteString("\n")
		}
	}

	if m.searching {
		sb.WriteString("\n" + m.search.View() + "\n")
	}
	sb.WriteString("\n" + mutedStyle.Render("r refresh · / search · p pause · q quit") + "\n")
	return sb.String()
}

func (m Model) heading() string {
	switch {
	case m.board.ClubName != "":
		return m.board.ClubName + " board"
	case m.query.Get().ClubID > 0:
		return fmt.Sprintf("club %d board", m.query.Get().ClubID)
	}
	return "my board"
}

func (m Model) statusLine() string {
	parts := []string{}
	if m.board.LeaderView {
		parts = append(parts, "leader view")
	}
	if s := m.query.Get().Search; s != "" {
		parts = append(parts, fmt.Sprintf("search %q", s))
	}
	if !m.updated.IsZero() {
		parts = append(parts, "updated "+m.updated.Format("15:04:05"))
	}
	if m.paused {
		parts = append(parts, "paused")
	}
	return strings.Join(parts, " · ")
}

func (m Model) column(name string, items []apiclient.BoardEntry, width int) string {
	lines := []string{titleStyle.Render(fmt.Sprintf("%s (%d)", name, len(items)))}
	if len(items) == 0 {
		lines = append(lines, mutedStyle.Render("nothing here"))
	}
	for _, it := range items {
		lines = append(lines, m.entry(it, width))
	}
	return columnStyle.Width(width).Render(strings.Join(lines, "\n"))
}

func (m Model) entry(it apiclient.BoardEntry, width int) string {
	kind := "A"
	if it.Type == schedule.KindSmartDocument {
		kind = "D"
	}
	title := it.Title
	if it.ClubName != "" {
		title += mutedStyle.Render(" · " + it.ClubName)
	}

	label := lipgloss.NewStyle().Foreground(labelColors[it.Label]).Render(string(it.Label))
	line := fmt.Sprintf("%s %s\n  %s %s", kind, title, label, mutedStyle.Render(dueText(m.now(), it.DueDate)))
	return lipgloss.NewStyle().MaxWidth(width).Render(line)
}

// dueText renders a due date relative to now, e.g. "due in 3d".
func dueText(now time.Time, raw string) string {
	due, err := schedule.ParseDateTime(raw)
	if err != nil {
		return "no due date"
	}
	days := schedule.DaysUntil(now, due)
	switch {
	case days > 1:
		return fmt.Sprintf("due in %dd", days)
	case days == 1:
		return "due " + due.Local().Format("Mon 15:04")
	case days == 0:
		return "due since " + due.Local().Format("15:04")
	default:
		return fmt.Sprintf("due %dd ago", -days)
	}
}

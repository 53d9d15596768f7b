package boardtui

import (
	"context"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"kyri56xcaesar/clubs-proj/internal/apiclient"
	"kyri56xcaesar/clubs-proj/internal/poller"
)

type Fetcher func(ctx context.Context, q apiclient.BoardQuery) (apiclient.Board, error)

// Run shows the board until the user quits. The board is fetched right away
// and then every interval while the terminal has focus.
func Run(ctx context.Context, fetch Fetcher, q apiclient.BoardQuery, interval time.Duration) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	box := NewQueryBox(q)
	var prog *tea.Program

	p := poller.New(interval,
		func(ctx context.Context) (apiclient.Board, error) {
			return fetch(ctx, box.Get())
		},
		func(r poller.Result[apiclient.Board]) {
			prog.Send(BoardMsg{Board: r.Value, Err: r.Err, At: time.Now()})
		},
	)

	prog = tea.NewProgram(New(p, box), tea.WithAltScreen(), tea.WithReportFocus())

	done := make(chan struct{})
	go func() {
		defer close(done)
		_ = p.Run(ctx)
	}()

	_, err := prog.Run()
	cancel()
	<-done
	return err
}

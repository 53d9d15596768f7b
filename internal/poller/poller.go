// Package poller runs a fetch on a fixed interval until its context ends.
//
// Every run gets a sequence number when it starts. A result is handed to
// OnResult unless a newer run has already published, so a slow response can
// never overwrite a fresher one. Ticks are skipped while a run is in flight.
package poller

import (
	"context"
	"sync"
	"sync/atomic"
	"time"
)

const DefaultInterval = 30 * time.Second

type Result[T any] struct {
	Seq   uint64
	Value T
	Err   error
}

type Poller[T any] struct {
	Interval time.Duration
	Task     func(ctx context.Context) (T, error)
	OnResult func(Result[T])

	paused  atomic.Bool
	started  atomic.Uint64
	dropped  atomic.Uint64
	inFlight atomic.Int64

	pubMu     sync.Mutex
	published uint64

	kickOnce sync.Once
	kick     chan struct{}
}

func New[T any](interval time.Duration, task func(context.Context) (T, error), onResult func(Result[T])) *Poller[T] {
	return &Poller[T]{Interval: interval, Task: task, OnResult: onResult}
}

func (p *Poller[T]) interval() time.Duration {
	if p.Interval <= 0 {
		return DefaultInterval
	}
	return p.Interval
}

func (p *Poller[T]) kicks() chan struct{} {
	p.kickOnce.Do(func() { p.kick = make(chan struct{}, 1) })
	return p.kick
}

// Run fires the task at once and then on every tick, skipping ticks while
// paused or while the previous run is still going. Refresh always fires.
// It returns when ctx is done, after in-flight runs have finished.
func (p *Poller[T]) Run(ctx context.Context) error {
	var wg sync.WaitGroup
	defer wg.Wait()

	fire := func() {
		seq := p.started.Add(1)
		p.inFlight.Add(1)
		wg.Add(1)
		go func() {
			defer wg.Done()
			defer p.inFlight.Add(-1)
			v, err := p.Task(ctx)
			p.publish(ctx, Result[T]{Seq: seq, Value: v, Err: err})
		}()
	}

	ticker := time.NewTicker(p.interval())
	defer ticker.Stop()

	fire()
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			if !p.paused.Load() && p.inFlight.Load() == 0 {
				fire()
			}
		case <-p.kicks():
			fire()
			ticker.Reset(p.interval())
		}
	}
}

func (p *Poller[T]) publish(ctx context.Context, r Result[T]) {
	p.pubMu.Lock()
	defer p.pubMu.Unlock()

	if ctx.Err() != nil || r.Seq <= p.published {
		p.dropped.Add(1)
		return
	}
	p.published = r.Seq
	if p.OnResult != nil {
		p.OnResult(r)
	}
}

// Pause stops ticks from firing. A run already in flight still completes.
func (p *Poller[T]) Pause() {
	p.paused.Store(true)
}

// Resume clears a pause and fetches right away.
func (p *Poller[T]) Resume() {
	if p.paused.Swap(false) {
		p.Refresh()
	}
}

// Refresh asks for a run now and restarts the interval.
func (p *Poller[T]) Refresh() {
	select {
	case p.kicks() <- struct{}{}:
	default:
	}
}

func (p *Poller[T]) Paused() bool {
	return p.paused.Load()
}

// Dropped counts results discarded because a newer one was already published.
func (p *Poller[T]) Dropped() uint64 {
	return p.dropped.Load()
}

package poller

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recorder struct {
	mu   sync.Mutex
	seen []Result[int]
}

func (r *recorder) add(res Result[int]) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.seen = append(r.seen, res)
}

func (r *recorder) len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.seen)
}

func (r *recorder) values() []int {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]int, 0, len(r.seen))
	for _, s := range r.seen {
		out = append(out, s.Value)
	}
	return out
}

func (r *recorder) seqs() []uint64 {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]uint64, 0, len(r.seen))
	for _, s := range r.seen {
		out = append(out, s.Seq)
	}
	return out
}

func start(t *testing.T, p *Poller[int]) (context.CancelFunc, <-chan error) {
	t.Helper()
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- p.Run(ctx) }()
	t.Cleanup(cancel)
	return cancel, done
}

func TestRunsImmediatelyAndOnTicks(t *testing.T) {
	var calls atomic.Int64
	rec := &recorder{}
	p := New(10*time.Millisecond, func(context.Context) (int, error) {
		return int(calls.Add(1)), nil
	}, rec.add)

	start(t, p)

	assert.Eventually(t, func() bool { return rec.len() >= 3 }, time.Second, 5*time.Millisecond)
	vals := rec.values()
	assert.Equal(t, 1, vals[0])
	assert.IsIncreasing(t, vals)
}

func TestFirstRunIsNotDelayedByInterval(t *testing.T) {
	rec := &recorder{}
	p := New(time.Hour, func(context.Context) (int, error) { return 7, nil }, rec.add)

	start(t, p)

	assert.Eventually(t, func() bool { return rec.len() == 1 }, time.Second, 5*time.Millisecond)
}

func TestPauseAndResume(t *testing.T) {
	var calls atomic.Int64
	p := New(10*time.Millisecond, func(context.Context) (int, error) {
		return int(calls.Add(1)), nil
	}, nil)

	start(t, p)
	require.Eventually(t, func() bool { return calls.Load() >= 2 }, time.Second, 5*time.Millisecond)

	p.Pause()
	assert.True(t, p.Paused())
	time.Sleep(30 * time.Millisecond)
	frozen := calls.Load()
	time.Sleep(60 * time.Millisecond)
	assert.Equal(t, frozen, calls.Load(), "no ticks while paused")

	p.Resume()
	assert.False(t, p.Paused())
	assert.Eventually(t, func() bool { return calls.Load() > frozen }, time.Second, 5*time.Millisecond)
}

func TestCancelStops(t *testing.T) {
	var calls atomic.Int64
	p := New(5*time.Millisecond, func(context.Context) (int, error) {
		return int(calls.Add(1)), nil
	}, nil)

	cancel, done := start(t, p)
	require.Eventually(t, func() bool { return calls.Load() >= 1 }, time.Second, time.Millisecond)

	cancel()
	select {
	case err := <-done:
		assert.ErrorIs(t, err, context.Canceled)
	case <-time.After(time.Second):
		t.Fatal("Run did not return after cancel")
	}

	after := calls.Load()
	time.Sleep(30 * time.Millisecond)
	assert.Equal(t, after, calls.Load())
}

func TestCancelReachesInFlightTask(t *testing.T) {
	sawCancel := make(chan struct{})
	p := New(time.Hour, func(ctx context.Context) (int, error) {
		<-ctx.Done()
		close(sawCancel)
		return 0, ctx.Err()
	}, nil)

	cancel, done := start(t, p)
	time.Sleep(10 * time.Millisecond)
	cancel()

	select {
	case <-sawCancel:
	case <-time.After(time.Second):
		t.Fatal("task never saw the cancellation")
	}
	<-done
}

func TestStaleResultIsDropped(t *testing.T) {
	release := make(chan struct{})
	firstStarted := make(chan struct{})
	var calls atomic.Int64
	rec := &recorder{}

	p := New(time.Hour, func(context.Context) (int, error) {
		n := int(calls.Add(1))
		if n == 1 {
			close(firstStarted)
			<-release
		}
		return n, nil
	}, rec.add)

	start(t, p)
	<-firstStarted

	p.Refresh()
	require.Eventually(t, func() bool { return rec.len() == 1 }, time.Second, time.Millisecond)

	close(release)
	require.Eventually(t, func() bool { return p.Dropped() == 1 }, time.Second, time.Millisecond)

	assert.Equal(t, []int{2}, rec.values())
}

func TestErrorsArePublished(t *testing.T) {
	boom := errors.New("gateway down")
	rec := &recorder{}
	p := New(time.Hour, func(context.Context) (int, error) { return 0, boom }, rec.add)

	start(t, p)

	require.Eventually(t, func() bool { return rec.len() == 1 }, time.Second, time.Millisecond)
	rec.mu.Lock()
	defer rec.mu.Unlock()
	assert.ErrorIs(t, rec.seen[0].Err, boom)
	assert.Equal(t, uint64(1), rec.seen[0].Seq)
}

func TestSlowTaskStillPublishes(t *testing.T) {
	var calls, running, overlap atomic.Int64
	rec := &recorder{}
	p := New(5*time.Millisecond, func(context.Context) (int, error) {
		if running.Add(1) > 1 {
			overlap.Add(1)
		}
		defer running.Add(-1)
		time.Sleep(20 * time.Millisecond)
		return int(calls.Add(1)), nil
	}, rec.add)

	start(t, p)

	require.Eventually(t, func() bool { return rec.len() >= 3 }, time.Second, 5*time.Millisecond)
	assert.IsIncreasing(t, rec.values())
	assert.Zero(t, overlap.Load(), "ticks wait for the running fetch")
}

func TestRepeatedRefreshPublishesInOrder(t *testing.T) {
	var calls atomic.Int64
	rec := &recorder{}
	p := New(time.Hour, func(context.Context) (int, error) {
		n := int(calls.Add(1))
		time.Sleep(15 * time.Millisecond)
		return n, nil
	}, rec.add)

	start(t, p)
	for range 10 {
		p.Refresh()
		time.Sleep(5 * time.Millisecond)
	}

	require.Eventually(t, func() bool { return rec.len() >= 3 }, time.Second, 5*time.Millisecond)
	assert.IsIncreasing(t, rec.seqs())
}

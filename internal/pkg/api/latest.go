package api

import (
	"context"
	"sync"
)

// Latest enforces last-request-wins per logical resource. Starting a fetch
// for a key cancels the fetch still in flight for that key, and a result is
// only reported as current when no newer fetch started in the meantime.
type Latest struct {
	mu       sync.Mutex
	seq      uint64
	inflight map[string]*flight
}

type flight struct {
	seq    uint64
	cancel context.CancelFunc
}

func NewLatest() *Latest {
	return &Latest{inflight: make(map[string]*flight)}
}

// Run is Fetch for calls that only report an error.
func (l *Latest) Run(ctx context.Context, key string, fn func(ctx context.Context) error) (bool, error) {
	_, current, err := Fetch(ctx, l, key, func(ctx context.Context) (struct{}, error) {
		return struct{}{}, fn(ctx)
	})
	return current, err
}

// Fetch runs fn for key after canceling the previous fetch for the same key.
// When a newer fetch superseded this one, Fetch returns current=false and a
// nil error: the stale outcome, including its cancellation, is dropped.
func Fetch[T any](ctx context.Context, l *Latest, key string, fn func(ctx context.Context) (T, error)) (T, bool, error) {
	fctx, seq := l.begin(ctx, key)
	v, err := fn(fctx)
	if !l.finish(key, seq) {
		var zero T
		return zero, false, nil
	}
	return v, true, err
}

// Cancel aborts the fetch in flight for key, if any. Its caller sees
// current=false.
func (l *Latest) Cancel(key string) {
	l.mu.Lock()
	f := l.inflight[key]
	delete(l.inflight, key)
	l.mu.Unlock()
	if f != nil {
		f.cancel()
	}
}

// Close aborts every fetch in flight.
func (l *Latest) Close() {
	l.mu.Lock()
	flights := l.inflight
	l.inflight = make(map[string]*flight)
	l.mu.Unlock()
	for _, f := range flights {
		f.cancel()
	}
}

func (l *Latest) begin(ctx context.Context, key string) (context.Context, uint64) {
	fctx, cancel := context.WithCancel(ctx)

	l.mu.Lock()
	l.seq++
	seq := l.seq
	prev := l.inflight[key]
	l.inflight[key] = &flight{seq: seq, cancel: cancel}
	l.mu.Unlock()

	if prev != nil {
		prev.cancel()
	}
	return fctx, seq
}

func (l *Latest) finish(key string, seq uint64) bool {
	l.mu.Lock()
	defer l.mu.Unlock()

	f, ok := l.inflight[key]
	if !ok || f.seq != seq {
		return false
	}
	delete(l.inflight, key)
	f.cancel()
	return true
}

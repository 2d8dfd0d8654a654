// Package loader guards repeated data loads so that only the newest one
// publishes its result.
package loader

import (
	"context"
	"errors"
	"sync"

	"go.uber.org/zap"
)

// ErrSuperseded is returned by Load when a newer load started before it finished.
var ErrSuperseded = errors.New("load superseded by a newer request")

// LoadFunc fetches a value. It must return promptly once ctx is cancelled.
type LoadFunc[T any] func(ctx context.Context) (T, error)

// Latest runs loads with a generation counter. Starting a load cancels the
// one in flight, and a stale load never publishes its result.
type Latest[T any] struct {
	name string

	mu     sync.Mutex
	gen    uint64
	cancel context.CancelFunc
}

func New[T any](name string) *Latest[T] {
	return &Latest[T]{name: name}
}

// Load runs fn on the calling goroutine. It returns ErrSuperseded when a
// newer load started before fn returned.
func (l *Latest[T]) Load(ctx context.Context, fn LoadFunc[T]) (T, error) {
	gen, loadCtx := l.start(ctx)
	v, err := fn(loadCtx)
	if !l.finish(gen) {
		var zero T
		return zero, ErrSuperseded
	}
	return v, err
}

// Close cancels the load in flight.
func (l *Latest[T]) Close() {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.cancel != nil {
		l.cancel()
		l.cancel = nil
	}
}

func (l *Latest[T]) start(ctx context.Context) (uint64, context.Context) {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.cancel != nil {
		l.cancel()
	}
	l.gen++
	loadCtx, cancel := context.WithCancel(ctx)
	l.cancel = cancel
	return l.gen, loadCtx
}

// finish reports whether gen is still the newest load and releases its context.
func (l *Latest[T]) finish(gen uint64) bool {
	l.mu.Lock()
	defer l.mu.Unlock()

	if gen != l.gen {
		zap.L().Debug("Discarding superseded load", zap.String("load", l.name), zap.Uint64("generation", gen))
		return false
	}
	if l.cancel != nil {
		l.cancel()
		l.cancel = nil
	}
	return true
}

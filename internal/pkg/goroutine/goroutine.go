// Package goroutine runs background work with a bounded number of goroutines.
package goroutine

import (
	"context"
	"errors"
	"log/slog"
	"runtime"
	"runtime/debug"
	"sync"

	"go.uber.org/atomic"

	"github.com/shandysiswandi/campusguard/internal/pkg/stacktrace"
)

// DefaultMaxGoroutine is multiplied by NumCPU when NewManager receives a non-positive limit.
const DefaultMaxGoroutine int = 100

// Manager runs functions in goroutines with a configurable concurrency limit
// and collects the errors they return.
type Manager struct {
	mu      sync.Mutex
	errs    []error
	wg      sync.WaitGroup
	sema    chan struct{}
	stateMu sync.RWMutex
	closed  bool
	running *atomic.Int64
	dropped *atomic.Int64
}

// NewManager creates a new Manager with the provided maximum concurrency.
func NewManager(maxGoroutine int) *Manager {
	if maxGoroutine < 1 {
		maxGoroutine = runtime.NumCPU() * DefaultMaxGoroutine
	}

	return &Manager{
		sema:    make(chan struct{}, maxGoroutine),
		running: atomic.NewInt64(0),
		dropped: atomic.NewInt64(0),
	}
}

// Go schedules f if capacity is available; otherwise f is dropped and a
// warning is logged.
func (g *Manager) Go(pCtx context.Context, f func(ctx context.Context) error) {
	if g == nil {
		return
	}

	g.stateMu.RLock()
	if g.closed {
		g.stateMu.RUnlock()
		g.dropped.Inc()
		slog.WarnContext(pCtx, "goroutine manager is closed, skipping new goroutine")
		return
	}

	select {
	case g.sema <- struct{}{}:
		g.running.Inc()
		g.wg.Go(func() {
			g.stateMu.RUnlock()
			defer func() {
				<-g.sema
				g.running.Dec()

				if rvr := recover(); rvr != nil {
					stack := debug.Stack()
					if paths := stacktrace.InternalPaths(stack); len(paths) > 0 {
						slog.ErrorContext(pCtx, "panic occurred in goroutine", "panic", rvr, "stack", paths)
					} else {
						slog.ErrorContext(pCtx, "panic occurred in goroutine", "panic", rvr, "stack", string(stack))
					}
				}
			}()

			select {
			case <-pCtx.Done():
				slog.WarnContext(pCtx, "goroutine canceled", "because", pCtx.Err())
			default:
				if err := f(pCtx); err != nil {
					g.mu.Lock()
					g.errs = append(g.errs, err)
					g.mu.Unlock()
				}
			}
		})

	default:
		g.stateMu.RUnlock()
		g.dropped.Inc()
		slog.WarnContext(pCtx, "maximum goroutine limit reached, failed to start new goroutine")
	}
}

// Running returns the number of goroutines currently executing.
func (g *Manager) Running() int64 {
	return g.running.Load()
}

// Dropped returns how many functions were rejected.
func (g *Manager) Dropped() int64 {
	return g.dropped.Load()
}

// Wait stops accepting work, blocks until all scheduled goroutines finish and
// returns any collected errors.
func (g *Manager) Wait() error {
	if g == nil {
		return nil
	}

	g.stateMu.Lock()
	g.closed = true
	g.stateMu.Unlock()

	g.wg.Wait()

	g.mu.Lock()
	defer g.mu.Unlock()
	return errors.Join(g.errs...)
}

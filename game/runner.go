package game

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/pthm-cable/gridlife/config"
)

// Runner serializes access to a Simulation and steps it on a ticker.
// All access from other goroutines must go through Do.
type Runner struct {
	mu  sync.Mutex // guards sim
	sim *Simulation

	stateMu sync.Mutex // guards the fields below
	tps     float64
	cancel  context.CancelFunc
	done    chan struct{}
	speedCh chan struct{}
	onTick  func(*Simulation)
}

// NewRunner wraps sim with an auto-stepper running at tps ticks per second.
func NewRunner(sim *Simulation, tps float64) *Runner {
	return &Runner{
		sim:     sim,
		tps:     clampSpeed(tps),
		speedCh: make(chan struct{}, 1),
	}
}

func clampSpeed(tps float64) float64 {
	if tps < config.MinTicksPerSec {
		return config.MinTicksPerSec
	}
	return tps
}

// Do runs fn with exclusive access to the simulation.
func (r *Runner) Do(fn func(*Simulation)) {
	r.mu.Lock()
	defer r.mu.Unlock()
	fn(r.sim)
}

// OnTick sets a hook called after every automatic step while the
// simulation is locked. The hook must not call Do.
func (r *Runner) OnTick(fn func(*Simulation)) {
	r.stateMu.Lock()
	defer r.stateMu.Unlock()
	r.onTick = fn
}

// Speed returns the auto-step rate in ticks per second.
func (r *Runner) Speed() float64 {
	r.stateMu.Lock()
	defer r.stateMu.Unlock()
	return r.tps
}

// SetSpeed changes the auto-step rate, clamped to at least
// config.MinTicksPerSec, and returns the rate in effect.
func (r *Runner) SetSpeed(tps float64) float64 {
	r.stateMu.Lock()
	r.tps = clampSpeed(tps)
	tps = r.tps
	r.stateMu.Unlock()

	select {
	case r.speedCh <- struct{}{}:
	default:
	}
	return tps
}

// Running reports whether auto-stepping is active.
func (r *Runner) Running() bool {
	r.stateMu.Lock()
	defer r.stateMu.Unlock()
	return r.cancel != nil
}

// Start begins auto-stepping until ctx is done, Stop is called, or the
// population goes extinct. It returns false if already running or if there
// is nothing to simulate.
func (r *Runner) Start(ctx context.Context) bool {
	r.mu.Lock()
	extinct := r.sim.Extinct()
	r.mu.Unlock()
	if extinct {
		return false
	}

	r.stateMu.Lock()
	defer r.stateMu.Unlock()
	if r.cancel != nil {
		return false
	}

	ctx, cancel := context.WithCancel(ctx)
	done := make(chan struct{})
	r.cancel = cancel
	r.done = done

	go r.loop(ctx, done)
	return true
}

// Stop ends auto-stepping. A step already waiting for the simulation is
// skipped. Stop does not wait for the loop goroutine; use Wait for that.
func (r *Runner) Stop() {
	r.stateMu.Lock()
	cancel := r.cancel
	r.cancel = nil
	r.stateMu.Unlock()

	if cancel != nil {
		cancel()
	}
}

// Wait blocks until the most recently started loop has exited.
func (r *Runner) Wait() {
	r.stateMu.Lock()
	done := r.done
	r.stateMu.Unlock()

	if done != nil {
		<-done
	}
}

func (r *Runner) interval() time.Duration {
	return time.Duration(float64(time.Second) / r.Speed())
}

func (r *Runner) loop(ctx context.Context, done chan struct{}) {
	defer close(done)

	ticker := time.NewTicker(r.interval())
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			r.finish(done)
			return
		case <-r.speedCh:
			ticker.Reset(r.interval())
		case <-ticker.C:
			if !r.tick(ctx) {
				r.finish(done)
				return
			}
		}
	}
}

// tick performs one automatic step. Returns false once the population is
// extinct or the loop was cancelled while waiting for the lock.
func (r *Runner) tick(ctx context.Context) bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	if ctx.Err() != nil {
		return false
	}

	r.sim.Step()

	r.stateMu.Lock()
	onTick := r.onTick
	r.stateMu.Unlock()
	if onTick != nil {
		onTick(r.sim)
	}

	if r.sim.Extinct() {
		slog.Info("auto-run stopped", "reason", "extinct", "tick", r.sim.Tick())
		return false
	}
	return true
}

// finish clears the running state if it still belongs to this loop.
func (r *Runner) finish(done chan struct{}) {
	r.stateMu.Lock()
	defer r.stateMu.Unlock()
	if r.done == done && r.cancel != nil {
		r.cancel()
		r.cancel = nil
	}
}

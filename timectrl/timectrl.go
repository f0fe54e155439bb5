// Package timectrl provides the periodic tick source that drives route
// playback.
package timectrl

import (
	"context"
	"sync"
	"time"

	"github.com/signalsfoundry/scenekit/core"
)

// Mode describes how the FrameClock paces its frames.
type Mode int

const (
	// RealTime waits one frame duration of wall-clock time between ticks.
	RealTime Mode = iota
	// Accelerated ticks as quickly as the loop can run while still stepping by
	// the frame duration.
	Accelerated
)

// FrameClock emits one tick per frame to its listeners. The tick length is
// derived from a frame-rate hint, falling back to 1/60 s when the hint is
// zero or unusable. Listeners run sequentially on the clock's goroutine.
type FrameClock struct {
	mu      sync.RWMutex
	dt      float64
	mode    Mode
	frames  int
	elapsed float64

	listeners []func(dt float64)
}

// NewFrameClock constructs a clock for the given frame-rate hint.
func NewFrameClock(fps float64, mode Mode) *FrameClock {
	return &FrameClock{dt: core.FrameDelta(fps), mode: mode}
}

// Delta returns the tick length in seconds.
func (c *FrameClock) Delta() float64 {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.dt
}

// SetFPS changes the frame-rate hint. It takes effect on the next tick; a
// running RealTime clock re-arms its ticker to the new period.
func (c *FrameClock) SetFPS(fps float64) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.dt = core.FrameDelta(fps)
}

// Frames returns the number of ticks emitted so far.
func (c *FrameClock) Frames() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.frames
}

// Elapsed returns the sum of all emitted tick lengths in seconds.
func (c *FrameClock) Elapsed() float64 {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.elapsed
}

// AddListener registers a callback invoked on every tick with the tick length.
func (c *FrameClock) AddListener(fn func(dt float64)) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.listeners = append(c.listeners, fn)
}

// Step emits a single tick synchronously. Hosts with their own frame loop
// call it instead of Start.
func (c *FrameClock) Step() { c.step() }

// step emits one tick and returns the length it used.
func (c *FrameClock) step() float64 {
	c.mu.Lock()
	dt := c.dt
	c.frames++
	c.elapsed += dt
	listeners := append([]func(float64){}, c.listeners...)
	c.mu.Unlock()

	for _, fn := range listeners {
		fn(dt)
	}
	return dt
}

// Start runs the clock in a separate goroutine until duration worth of ticks
// has been emitted (forever when duration <= 0) or ctx is done. It returns a
// channel that is closed when the clock stops.
func (c *FrameClock) Start(ctx context.Context, duration time.Duration) <-chan struct{} {
	done := make(chan struct{})
	go func() {
		defer close(done)

		limit := duration.Seconds()
		run := 0.0

		var (
			ticker *time.Ticker
			period float64
		)
		if c.mode == RealTime {
			period = c.Delta()
			ticker = time.NewTicker(seconds(period))
			defer ticker.Stop()
		}

		for {
			if limit > 0 && run >= limit-1e-9 {
				return
			}
			if ticker != nil {
				select {
				case <-ctx.Done():
					return
				case <-ticker.C:
				}
			} else if ctx.Err() != nil {
				return
			}

			run += c.step()
			if ticker != nil {
				if dt := c.Delta(); dt != period {
					period = dt
					ticker.Reset(seconds(period))
				}
			}
		}
	}()
	return done
}

func seconds(s float64) time.Duration {
	return time.Duration(s * float64(time.Second))
}

package timectrl

import (
	"context"
	"math"
	"testing"
	"time"

	"github.com/go-gl/mathgl/mgl64"

	"github.com/signalsfoundry/scenekit/core"
	"github.com/signalsfoundry/scenekit/model"
)

func TestFrameClockDelta(t *testing.T) {
	if got := NewFrameClock(30, Accelerated).Delta(); got != 1.0/30 {
		t.Fatalf("Delta() = %v, want 1/30", got)
	}
	c := NewFrameClock(0, Accelerated)
	if got := c.Delta(); got != 1.0/60 {
		t.Fatalf("Delta() with no hint = %v, want 1/60", got)
	}
	c.SetFPS(math.NaN())
	if got := c.Delta(); got != 1.0/60 {
		t.Fatalf("Delta() with NaN hint = %v, want 1/60", got)
	}
}

func TestFrameClockStepNotifiesListeners(t *testing.T) {
	c := NewFrameClock(10, Accelerated)
	var got []float64
	c.AddListener(func(dt float64) { got = append(got, dt) })

	c.Step()
	c.Step()

	if len(got) != 2 || got[0] != 0.1 {
		t.Fatalf("listener saw %v, want two ticks of 0.1", got)
	}
	if c.Frames() != 2 || math.Abs(c.Elapsed()-0.2) > 1e-12 {
		t.Fatalf("Frames=%d Elapsed=%v", c.Frames(), c.Elapsed())
	}
}

func TestFrameClockStartRunsForDuration(t *testing.T) {
	c := NewFrameClock(100, Accelerated)
	done := c.Start(context.Background(), 50*time.Millisecond)
	<-done

	if c.Frames() != 5 {
		t.Fatalf("Frames() = %d, want 5", c.Frames())
	}
}

func TestFrameClockStopsOnCancel(t *testing.T) {
	c := NewFrameClock(200, RealTime)
	ctx, cancel := context.WithCancel(context.Background())
	done := c.Start(ctx, 0)

	time.Sleep(20 * time.Millisecond)
	cancel()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatalf("clock did not stop after cancel")
	}
}

func TestFrameClockRealTimePicksUpSetFPS(t *testing.T) {
	c := NewFrameClock(1000, RealTime)
	c.AddListener(func(float64) { c.SetFPS(2) })

	ctx, cancel := context.WithTimeout(context.Background(), 150*time.Millisecond)
	defer cancel()
	<-c.Start(ctx, 0)

	// At 1 kHz the clock would tick ~150 times; the 2 fps period allows one
	// more tick at most.
	if got := c.Frames(); got < 1 || got > 2 {
		t.Fatalf("Frames() = %d after slowing to 2 fps, want 1 or 2", got)
	}
	if got := c.Delta(); got != 0.5 {
		t.Fatalf("Delta() = %v, want 0.5", got)
	}
}

func TestFrameClockDrivesPlayer(t *testing.T) {
	r, err := core.NewRoute("walk", model.RoutePlayer, mgl64.Vec3{})
	if err != nil {
		t.Fatalf("NewRoute error: %v", err)
	}
	if _, err := core.AppendRoutePoint(r, mgl64.Vec3{4, 0, 0}); err != nil {
		t.Fatalf("AppendRoutePoint error: %v", err)
	}

	p := core.NewPlayer(r)
	p.Play()
	c := NewFrameClock(4, Accelerated)
	c.AddListener(p.Tick)
	<-c.Start(context.Background(), 2*time.Second)

	if p.State() != core.StatePaused || p.Elapsed() != 1 {
		t.Fatalf("player state=%v elapsed=%v, want paused at 1", p.State(), p.Elapsed())
	}
	if pos, _ := p.Position(); !pos.ApproxEqual(mgl64.Vec3{4, 0, 0}) {
		t.Fatalf("position = %v, want end point", pos)
	}
}

package core

import (
	"fmt"
	"math"

	"github.com/go-gl/mathgl/mgl64"

	"github.com/signalsfoundry/scenekit/model"
)

// DefaultFrameDelta is used when the host gives no usable frame rate.
const DefaultFrameDelta = 1.0 / 60.0

// FrameDelta converts a frame-rate hint into a tick duration in seconds.
func FrameDelta(fps float64) float64 {
	if fps <= 0 || !finite(fps) {
		return DefaultFrameDelta
	}
	return 1.0 / fps
}

// PlaybackState is the state of a Player.
type PlaybackState int

const (
	StateIdle PlaybackState = iota
	StatePlaying
	StatePaused
)

func (s PlaybackState) String() string {
	switch s {
	case StatePlaying:
		return "playing"
	case StatePaused:
		return "paused"
	default:
		return "idle"
	}
}

// Player samples a route over time. It only reads the route; the total
// duration is recomputed from it on every call so edits are picked up
// immediately. A Player is not safe for concurrent use.
type Player struct {
	route   *model.Route
	elapsed float64
	state   PlaybackState
	metrics MetricsRecorder
}

// PlayerOption configures a Player.
type PlayerOption func(*Player)

// WithPlayerMetrics counts ticks on m.
func WithPlayerMetrics(m MetricsRecorder) PlayerOption {
	return func(p *Player) { p.metrics = recorderOrNop(m) }
}

// NewPlayer returns an idle player for r.
func NewPlayer(r *model.Route, opts ...PlayerOption) *Player {
	p := &Player{route: r, metrics: nopRecorder{}}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// SetRoute points the player at a new version of its route, keeping the
// elapsed time.
func (p *Player) SetRoute(r *model.Route) { p.route = r }

func (p *Player) Route() *model.Route    { return p.route }
func (p *Player) State() PlaybackState   { return p.state }
func (p *Player) Elapsed() float64       { return p.elapsed }
func (p *Player) TotalDuration() float64 { return TotalDuration(p.route) }

// Play resumes from the current elapsed time, which is 0 after a Reset.
func (p *Player) Play() { p.state = StatePlaying }

// Pause freezes the elapsed time.
func (p *Player) Pause() { p.state = StatePaused }

// Reset rewinds to 0 and returns to Idle.
func (p *Player) Reset() {
	p.elapsed = 0
	p.state = StateIdle
}

// Tick advances a playing player by dt seconds. Reaching the end clamps the
// elapsed time to the total and pauses; playback never loops. Ticks are
// ignored while not playing, and while the route has no duration.
func (p *Player) Tick(dt float64) {
	if p.state != StatePlaying {
		return
	}
	total := TotalDuration(p.route)
	if total <= 0 {
		return
	}
	p.metrics.IncPlaybackTicks()
	if dt > 0 && finite(dt) {
		p.elapsed += dt
	}
	if p.elapsed >= total {
		p.elapsed = total
		p.state = StatePaused
	}
}

// Position samples the route at the current elapsed time.
func (p *Player) Position() (mgl64.Vec3, error) {
	return Sample(p.route, p.elapsed)
}

// Sample samples the player's route at an arbitrary elapsed time without
// changing the player.
func (p *Player) Sample(elapsed float64) (mgl64.Vec3, error) {
	return Sample(p.route, elapsed)
}

// Sample maps elapsed seconds to a position on r.
//
// Segments are walked in chain order accumulating durations; the active one
// is the first whose cumulative end is >= elapsed, or the last segment when
// elapsed runs past the total. Inside it t = (elapsed-start)/duration, with
// t = 0 for zero-length segments so they never divide by zero. Every segment
// interpolates linearly between its endpoints; the Line/Curve mode is carried
// data and does not change the path. Negative or NaN elapsed samples the
// start, +Inf samples the end. Malformed routes fail with ErrInvalidRoute.
func Sample(r *model.Route, elapsed float64) (mgl64.Vec3, error) {
	if err := ValidateRoute(r); err != nil {
		return mgl64.Vec3{}, err
	}
	if len(r.Points) == 0 {
		return mgl64.Vec3{}, fmt.Errorf("%w: route has no points", ErrInvalidRoute)
	}
	if len(r.Segments) == 0 {
		return r.Points[0].Position, nil
	}
	if elapsed < 0 || math.IsNaN(elapsed) {
		elapsed = 0
	}

	acc := 0.0
	last := len(r.Segments) - 1
	for i, seg := range r.Segments {
		if elapsed <= acc+seg.Duration || i == last {
			t := 0.0
			if seg.Duration > 0 {
				t = (elapsed - acc) / seg.Duration
			}
			return Lerp(r.Points[seg.From].Position, r.Points[seg.To].Position, t), nil
		}
		acc += seg.Duration
	}
	return r.Points[len(r.Points)-1].Position, nil
}

package core

import (
	"fmt"
	"sort"
	"strings"
	"sync"

	"github.com/go-gl/mathgl/mgl64"

	"github.com/signalsfoundry/scenekit/model"
)

// PreviewAction is a host transport command.
type PreviewAction int

const (
	ActionPlay PreviewAction = iota
	ActionPause
	ActionReset
)

func (a PreviewAction) String() string {
	switch a {
	case ActionPause:
		return "PAUSE"
	case ActionReset:
		return "RESET"
	default:
		return "PLAY"
	}
}

// ParsePreviewAction maps PLAY, PAUSE and RESET (any case) to an action.
func ParsePreviewAction(s string) (PreviewAction, error) {
	switch strings.ToUpper(strings.TrimSpace(s)) {
	case "PLAY":
		return ActionPlay, nil
	case "PAUSE":
		return ActionPause, nil
	case "RESET":
		return ActionReset, nil
	}
	return ActionPlay, fmt.Errorf("unknown preview action %q", s)
}

// Previews keeps one Player per route id. A player is created by the first
// command for its route and discarded when the route is deselected.
type Previews struct {
	mu      sync.Mutex
	players map[string]*Player
	opts    []PlayerOption
}

// NewPreviews returns an empty registry; opts are applied to every player it
// creates.
func NewPreviews(opts ...PlayerOption) *Previews {
	return &Previews{players: make(map[string]*Player), opts: opts}
}

// Command applies action to the player of r, creating it if needed. The
// player always sees the latest version of r.
func (p *Previews) Command(r *model.Route, action PreviewAction) (*Player, error) {
	if r == nil || r.ID == "" {
		return nil, fmt.Errorf("%w: route id is required", ErrInvalidRoute)
	}

	p.mu.Lock()
	defer p.mu.Unlock()

	pl, ok := p.players[r.ID]
	if !ok {
		pl = NewPlayer(r, p.opts...)
		p.players[r.ID] = pl
	}
	pl.SetRoute(r)

	switch action {
	case ActionPlay:
		pl.Play()
	case ActionPause:
		pl.Pause()
	case ActionReset:
		pl.Reset()
	default:
		return nil, fmt.Errorf("unknown preview action %d", action)
	}
	return pl, nil
}

// Player returns the player for id, if one exists.
func (p *Previews) Player(id string) (*Player, bool) {
	p.mu.Lock()
	defer p.mu.Unlock()
	pl, ok := p.players[id]
	return pl, ok
}

// Deselect discards the playback state of id.
func (p *Previews) Deselect(id string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	delete(p.players, id)
}

// Len returns the number of live players.
func (p *Previews) Len() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.players)
}

// Tick advances every playing player by dt and returns the sampled position
// of each player, keyed by route id. Players whose route cannot be sampled
// are left out.
func (p *Previews) Tick(dt float64) map[string]mgl64.Vec3 {
	p.mu.Lock()
	defer p.mu.Unlock()

	ids := make([]string, 0, len(p.players))
	for id := range p.players {
		ids = append(ids, id)
	}
	sort.Strings(ids)

	out := make(map[string]mgl64.Vec3, len(ids))
	for _, id := range ids {
		pl := p.players[id]
		pl.Tick(dt)
		if pos, err := pl.Position(); err == nil {
			out[id] = pos
		}
	}
	return out
}

// Package chase moves hostile units toward the nearest friendly unit while the
// day runs and engages a battle on contact. It is the single movement rule of
// the colony; there is no pathing.
package chase

import (
	"time"

	"github.com/moonfall/colonysim/internal/schedule"
	"github.com/moonfall/colonysim/pkg/core"
)

// Board lists the units to chase between.
type Board interface {
	Unit(id core.ID) (*core.Unit, bool)
	AliveFriendlyUnits() []*core.Unit
	Opponents() []*core.Unit
}

// Engager starts battles. combat.Engine satisfies it.
type Engager interface {
	StartOrJoinBattle(friendly, opponent core.ID) (core.ID, bool)
	InBattle(unit core.ID) bool
}

// Config tunes the hops. Speed and EngageRadius are defaults for units that
// do not carry their own.
type Config struct {
	Speed        float64       // board units per second of sim time
	EngageRadius float64       // contact distance
	HopInterval  time.Duration // one hop per interval
}

type chaser struct {
	target core.ID
	hop    schedule.Wait
}

// Rule applies the chase to every opted-in opponent.
type Rule struct {
	cfg     Config
	board   Board
	engager Engager
	gate    schedule.Gate
	chasers map[core.ID]*chaser
}

// New returns a rule. gate should report whether the day is running.
func New(cfg Config, board Board, engager Engager, gate schedule.Gate) *Rule {
	if gate == nil {
		gate = schedule.Open
	}
	return &Rule{
		cfg:     cfg,
		board:   board,
		engager: engager,
		gate:    gate,
		chasers: make(map[core.ID]*chaser),
	}
}

// Tick moves chasers by the simulation delta.
func (r *Rule) Tick(dt time.Duration) {
	if dt <= 0 || !r.gate() {
		return
	}
	seen := make(map[core.ID]bool)
	for _, h := range r.board.Opponents() {
		if !h.Chases {
			continue
		}
		seen[h.ID] = true
		if r.engager.InBattle(h.ID) {
			continue
		}
		c, ok := r.chasers[h.ID]
		if !ok {
			c = &chaser{}
			c.hop.Start(r.cfg.HopInterval)
			r.chasers[h.ID] = c
		}
		if !c.hop.Advance(dt) {
			continue
		}
		c.hop.Start(r.cfg.HopInterval)
		r.hop(h, c)
	}
	for id := range r.chasers {
		if !seen[id] {
			delete(r.chasers, id)
		}
	}
}

func (r *Rule) hop(h *core.Unit, c *chaser) {
	target, ok := r.board.Unit(c.target)
	if !ok || !target.IsFriendly() {
		target, ok = r.nearest(h.Position)
		if !ok {
			return
		}
		c.target = target.ID
	}

	from := h.Position.XY()
	delta := target.Position.XY().Sub(from)
	dist := delta.Length()
	speed, radius := r.tuning(h)
	if gap := dist - radius; gap > 0 {
		step := speed * r.cfg.HopInterval.Seconds()
		if step < gap {
			to := from.Add(delta.Scale(step / dist))
			h.Position = core.Position{X: to.X, Y: to.Y}
			return
		}
		to := from.Add(delta.Scale(gap / dist))
		h.Position = core.Position{X: to.X, Y: to.Y}
	}
	r.engager.StartOrJoinBattle(target.ID, h.ID)
}

// tuning returns h's speed and contact distance, falling back to the config.
func (r *Rule) tuning(h *core.Unit) (speed, radius float64) {
	speed, radius = r.cfg.Speed, r.cfg.EngageRadius
	if h.ChaseSpeed > 0 {
		speed = h.ChaseSpeed
	}
	if h.EngageRadius > 0 {
		radius = h.EngageRadius
	}
	return speed, radius
}

// nearest returns the closest living friendly unit. Ties keep registration order.
func (r *Rule) nearest(p core.Position) (*core.Unit, bool) {
	var best *core.Unit
	bestDist := 0.0
	origin := p.XY()
	for _, u := range r.board.AliveFriendlyUnits() {
		if u.HP <= 0 {
			continue
		}
		d := u.Position.XY().Sub(origin).Length()
		if best == nil || d < bestDist {
			best, bestDist = u, d
		}
	}
	return best, best != nil
}

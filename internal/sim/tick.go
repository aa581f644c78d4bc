package sim

import (
	"context"
	"math"
	"time"

	"github.com/moonfall/colonysim/pkg/core"
)

// Tick advances the colony by one frame of real time. Order: queued commands,
// autopilot, clock, day cycle, chase, combat, animator, status snapshot.
func (s *Simulation) Tick(real time.Duration) {
	s.ticks++
	for {
		c, ok := s.inbox.TryPop()
		if !ok {
			break
		}
		s.apply(c)
	}
	if s.autopilot {
		s.autopilotStep()
	}

	f := s.clock.Tick(real)
	s.day.Tick(f)
	s.chase.Tick(f.Sim)
	s.combat.Tick(f.Sim)
	s.animator.Tick(f.Real)

	s.snapshot()
}

// Run ticks at rate frames per second until ctx is cancelled or the run is
// done. It returns ctx.Err() on cancellation and nil when the run ends.
func (s *Simulation) Run(ctx context.Context, rate int) error {
	if rate <= 0 {
		rate = 60
	}
	interval := time.Second / time.Duration(rate)
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	last := time.Now()
	for !s.Done() {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case now := <-ticker.C:
			s.Tick(now.Sub(last))
			last = now
		}
	}
	return nil
}

// autopilotStep answers whatever the day cycle is waiting on. During free
// play it sends one idle colonist after the closest passive opponent.
func (s *Simulation) autopilotStep() {
	switch s.day.State() {
	case core.StateRunning:
		s.hunt()
	case core.StateWaitingFeed:
		s.day.RequestFeed()
	case core.StateFeedingResultAllFull:
		s.day.ConfirmAllFedResult()
	case core.StateFeedingResultHungry:
		s.day.ConfirmHungryResult()
	case core.StateWaitingSell:
		s.day.RequestSell()
	case core.StateSelling:
		if order := s.board.SellOrder(); len(order) > 0 {
			s.sell(order[0])
		}
	case core.StateWaitingNextDay:
		if s.cfg.MaxDays > 0 && s.day.Day() >= s.cfg.MaxDays {
			return
		}
		s.day.RequestNextDay()
	case core.StateWaitingEndGame:
		s.day.RequestEndGame()
	}
}

func (s *Simulation) hunt() {
	for _, o := range s.board.Opponents() {
		if o.Role != core.RolePassive || s.combat.InBattle(o.ID) {
			continue
		}
		var best *core.Unit
		bestDist := math.MaxFloat64
		for _, u := range s.board.AliveFriendlyUnits() {
			if s.combat.InBattle(u.ID) {
				continue
			}
			if d := o.Position.DistanceTo(u.Position); d < bestDist {
				best, bestDist = u, d
			}
		}
		if best == nil {
			return
		}
		s.combat.StartOrJoinBattle(best.ID, o.ID)
		return
	}
}

// Package presentation plays the feeding and starving phases on real time and
// reports back to the day cycle when they finish.
package presentation

import (
	"io"
	"log/slog"
	"time"

	"github.com/moonfall/colonysim/internal/feeding"
	"github.com/moonfall/colonysim/internal/schedule"
	"github.com/moonfall/colonysim/pkg/core"
)

// Callbacks is the day cycle side of an animation.
type Callbacks interface {
	OnFeedingAnimationFinished()
	KillUnit(id core.ID)
	OnStarvingAnimationFinished()
}

// Timings paces the animations.
type Timings struct {
	FeedDelay     time.Duration
	FoodMove      time.Duration
	FoodHold      time.Duration
	BitePause     time.Duration
	BetweenUnits  time.Duration
	StarveDelay   time.Duration
	StarvePerUnit time.Duration
}

// CueKind says what is on screen.
type CueKind uint8

const (
	CueIdle CueKind = iota
	CueFoodMove
	CueBite
	CueStarve
)

// Cue describes the frame a viewer should draw.
type Cue struct {
	Kind   CueKind
	UnitID core.ID
	FoodID core.ID
	Amount int
}

// Animator is a presenter for the day cycle.
type Animator struct {
	timings Timings
	target  Callbacks
	log     *slog.Logger
	seq     *schedule.Sequence
	cue     Cue
}

// NewAnimator returns an animator. Bind must be called before the first phase.
func NewAnimator(t Timings, log *slog.Logger) *Animator {
	if log == nil {
		log = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return &Animator{timings: t, log: log}
}

// Bind sets the day cycle to report to.
func (a *Animator) Bind(target Callbacks) { a.target = target }

// Busy reports whether a phase is playing.
func (a *Animator) Busy() bool { return a.seq != nil && !a.seq.Done() }

// Cue is the current frame.
func (a *Animator) Cue() Cue { return a.cue }

// Tick advances the playing phase by real elapsed time.
func (a *Animator) Tick(elapsed time.Duration) {
	if a.seq == nil {
		return
	}
	a.seq.Advance(elapsed)
	if a.seq.Done() {
		a.seq = nil
	}
}

func (a *Animator) show(c Cue) func() {
	return func() { a.cue = c }
}

// Feeding plays each bite in plan order, then reports the phase finished.
func (a *Animator) Feeding(plan []feeding.Bite) {
	t := a.timings
	seq := &schedule.Sequence{}
	seq.Then(t.FeedDelay, nil)
	for i, b := range plan {
		if i > 0 && plan[i-1].UnitID != b.UnitID {
			seq.Then(t.BetweenUnits, a.show(Cue{}))
		}
		seq.Then(0, a.show(Cue{Kind: CueFoodMove, UnitID: b.UnitID, FoodID: b.FoodID, Amount: b.Amount}))
		seq.Then(t.FoodMove, a.show(Cue{Kind: CueBite, UnitID: b.UnitID, FoodID: b.FoodID, Amount: b.Amount}))
		seq.Then(t.FoodHold, a.show(Cue{}))
		seq.Then(t.BitePause, nil)
	}
	seq.Then(0, func() {
		a.cue = Cue{}
		if a.target != nil {
			a.target.OnFeedingAnimationFinished()
		}
	})
	a.log.Debug("feeding animation started", "bites", len(plan))
	a.seq = seq
	a.Tick(0)
}

// Starving plays each hungry unit's death, killing it half way through.
func (a *Animator) Starving(hungry []core.HungryUnit) {
	t := a.timings
	half := t.StarvePerUnit / 2
	seq := &schedule.Sequence{}
	seq.Then(t.StarveDelay, nil)
	for _, h := range hungry {
		id := h.UnitID
		seq.Then(0, a.show(Cue{Kind: CueStarve, UnitID: id}))
		seq.Then(half, func() {
			if a.target != nil {
				a.target.KillUnit(id)
			}
		})
		seq.Then(t.StarvePerUnit-half, a.show(Cue{}))
	}
	seq.Then(0, func() {
		a.cue = Cue{}
		if a.target != nil {
			a.target.OnStarvingAnimationFinished()
		}
	})
	a.log.Debug("starving animation started", "units", len(hungry))
	a.seq = seq
	a.Tick(0)
}

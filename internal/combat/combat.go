// Package combat runs concurrent battle instances between one opponent and a
// changing set of friendly units. Each instance is a resumable step machine
// advanced once per tick.
package combat

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"slices"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"

	"github.com/moonfall/colonysim/internal/schedule"
	"github.com/moonfall/colonysim/pkg/core"
)

// Board is the population the engine fights over.
type Board interface {
	Unit(id core.ID) (*core.Unit, bool)
	// KillUnit takes a friendly unit out of play (corpse or removal).
	KillUnit(id core.ID) bool
	// Remove deletes a defeated opponent.
	Remove(id core.ID) bool
	// SpawnLoot places a dropped item and returns its ID.
	SpawnLoot(template string, pos core.Position) (core.ID, bool)
}

// Roller is the random source. *rand.Rand from math/rand/v2 satisfies it.
type Roller interface {
	Float64() float64
	IntN(n int) int
}

// Config holds the combat timings, the battle formation and loot placement.
type Config struct {
	AttackInterval   time.Duration
	SettleDelay      time.Duration
	// FormationSpacing is the gap between participants on the battle line.
	FormationSpacing float64
	// FormationOffset is how far below the opponent the line sits.
	FormationOffset  float64
	LootOffset       core.Position
	LootScatter      float64
	LootTables       map[string]core.LootTable
}

// Option configures an Engine.
type Option func(*Engine)

// WithLogger sets the logger.
func WithLogger(l *slog.Logger) Option {
	return func(e *Engine) { e.log = l }
}

// WithPublisher sets the journal publisher.
func WithPublisher(p core.Publisher) Option {
	return func(e *Engine) { e.pub = p }
}

// WithGate makes turns wait while gate reports false.
func WithGate(g schedule.Gate) Option {
	return func(e *Engine) { e.gate = g }
}

// WithDay supplies the current day for journal records.
func WithDay(fn func() int) Option {
	return func(e *Engine) { e.day = fn }
}

// WithNow overrides the wall clock used for journal timestamps.
func WithNow(fn func() time.Time) Option {
	return func(e *Engine) { e.now = fn }
}

// Engine owns every battle instance.
type Engine struct {
	cfg   Config
	board Board
	rng   Roller
	gate  schedule.Gate
	log   *slog.Logger
	pub   core.Publisher
	day   func() int
	now   func() time.Time

	nextID  core.ID
	battles map[core.ID]*battle
	order   []core.ID
	member  map[core.ID]core.ID // unit -> battle
	started int

	attacks metric.Int64Counter
	ended   metric.Int64Counter
}

// New creates an engine. The global OTel meter is used for counters.
func New(cfg Config, board Board, rng Roller, opts ...Option) (*Engine, error) {
	e := &Engine{
		cfg:     cfg,
		board:   board,
		rng:     rng,
		gate:    schedule.Open,
		pub:     core.Discard,
		day:     func() int { return 0 },
		now:     time.Now,
		battles: make(map[core.ID]*battle),
		member:  make(map[core.ID]core.ID),
	}
	for _, opt := range opts {
		opt(e)
	}
	if e.log == nil {
		e.log = slog.New(slog.NewTextHandler(io.Discard, nil))
	}

	m := meter()
	var err error
	e.attacks, err = m.Int64Counter(
		"combat.attacks",
		metric.WithDescription("Total attacks resolved"),
	)
	if err != nil {
		return nil, fmt.Errorf("creating attacks counter: %w", err)
	}
	e.ended, err = m.Int64Counter(
		"combat.battles.ended",
		metric.WithDescription("Total battle instances ended"),
	)
	if err != nil {
		return nil, fmt.Errorf("creating battles counter: %w", err)
	}
	return e, nil
}

// StartOrJoinBattle brings a friendly unit into a fight with an opponent. If the
// opponent already has an instance the friendly unit joins it, otherwise a new
// instance is created. It reports the instance ID and whether anything happened.
func (e *Engine) StartOrJoinBattle(friendly, opponent core.ID) (core.ID, bool) {
	f, ok := e.board.Unit(friendly)
	if !ok || !f.IsFriendly() {
		return 0, false
	}
	h, ok := e.board.Unit(opponent)
	if !ok || !h.IsOpponent() {
		return 0, false
	}

	fb, fIn := e.member[friendly]
	hb, hIn := e.member[opponent]

	if hIn {
		b := e.battles[hb]
		if fIn {
			return hb, fb == hb
		}
		b.participants = append(b.participants, friendly)
		e.member[friendly] = hb
		e.align(b)
		e.log.Debug("unit joined battle", "battle", hb, "unit", friendly, "participants", len(b.participants))
		e.record(b, core.BattleJoined, friendly, core.OutcomeNone)
		return hb, true
	}
	if fIn {
		return 0, false
	}

	e.nextID++
	b := &battle{
		id:           e.nextID,
		hostile:      opponent,
		participants: []core.ID{friendly},
		step:         stepSettle,
	}
	b.wait.Start(e.cfg.SettleDelay)
	e.battles[b.id] = b
	e.order = append(e.order, b.id)
	e.member[friendly] = b.id
	e.member[opponent] = b.id
	e.started++
	e.align(b)
	e.log.Debug("battle started", "battle", b.id, "opponent", opponent, "unit", friendly)
	e.record(b, core.BattleStarted, friendly, core.OutcomeNone)
	return b.id, true
}

// Disengage pulls a unit out of its battle. Pulling the opponent ends the
// instance without loot; pulling the last friendly unit ends it as abandoned.
func (e *Engine) Disengage(unit core.ID) bool {
	bid, ok := e.member[unit]
	if !ok {
		return false
	}
	b := e.battles[bid]
	if b.hostile == unit {
		e.finish(b, core.OutcomeDisengaged)
		return true
	}
	b.participants = slices.DeleteFunc(b.participants, func(id core.ID) bool { return id == unit })
	delete(e.member, unit)
	e.log.Debug("unit disengaged", "battle", bid, "unit", unit, "participants", len(b.participants))
	if len(b.participants) == 0 {
		e.finish(b, core.OutcomeAbandoned)
		return true
	}
	e.align(b)
	return true
}

// EndAll ends every running instance with outcome, oldest first. Nothing
// drops loot. It reports how many were ended.
func (e *Engine) EndAll(outcome core.BattleOutcome) int {
	ids := slices.Clone(e.order)
	for _, id := range ids {
		if b, ok := e.battles[id]; ok {
			e.finish(b, outcome)
		}
	}
	return len(ids)
}

// Tick advances every instance by the simulation delta. Nothing moves while
// the delta is zero or the gate holds.
func (e *Engine) Tick(dt time.Duration) {
	if dt <= 0 || !e.gate() {
		return
	}
	for _, id := range slices.Clone(e.order) {
		if b, ok := e.battles[id]; ok {
			e.advance(b, dt)
		}
	}
}

// InBattle reports whether the unit belongs to an active instance.
func (e *Engine) InBattle(unit core.ID) bool {
	_, ok := e.member[unit]
	return ok
}

// BattleOf returns the instance a unit belongs to.
func (e *Engine) BattleOf(unit core.ID) (core.ID, bool) {
	id, ok := e.member[unit]
	return id, ok
}

// Active is the number of running instances.
func (e *Engine) Active() int { return len(e.battles) }

// Started is the number of instances created since the engine was built.
func (e *Engine) Started() int { return e.started }

// Snapshot describes one running instance.
type Snapshot struct {
	ID           core.ID
	Opponent     core.ID
	Participants []core.ID
	Turns        int
}

// Battles returns snapshots of running instances in creation order.
func (e *Engine) Battles() []Snapshot {
	out := make([]Snapshot, 0, len(e.order))
	for _, id := range e.order {
		b := e.battles[id]
		out = append(out, Snapshot{
			ID:           b.id,
			Opponent:     b.hostile,
			Participants: slices.Clone(b.participants),
			Turns:        b.turns,
		})
	}
	return out
}

func (e *Engine) finish(b *battle, outcome core.BattleOutcome) {
	if _, ok := e.battles[b.id]; !ok {
		return
	}
	for _, id := range b.participants {
		if e.member[id] == b.id {
			delete(e.member, id)
		}
	}
	if e.member[b.hostile] == b.id {
		delete(e.member, b.hostile)
	}
	delete(e.battles, b.id)
	e.order = slices.DeleteFunc(e.order, func(id core.ID) bool { return id == b.id })
	b.step = stepDone
	b.wait.Stop()

	e.ended.Add(context.Background(), 1, metric.WithAttributes(attribute.String("outcome", string(outcome))))
	e.log.Debug("battle ended", "battle", b.id, "outcome", outcome, "turns", b.turns)
	e.record(b, core.BattleEnded, 0, outcome)
}

func (e *Engine) record(b *battle, phase core.BattlePhase, friendly core.ID, outcome core.BattleOutcome) {
	e.pub.Publish(core.BattleRecord{
		Time:       e.now(),
		Day:        e.day(),
		BattleID:   b.id,
		Phase:      phase,
		HostileID:  b.hostile,
		FriendlyID: friendly,
		Outcome:    outcome,
		Turns:      b.turns,
	})
}

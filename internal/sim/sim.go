// Package sim wires the colony together and owns the tick. Every subsystem is
// built once here and handed its collaborators explicitly; the Simulation is
// the only thing callers hold.
//
// A Simulation is driven from one goroutine. Other goroutines talk to it
// through Submit and read it through Status.
package sim

import (
	"fmt"
	"io"
	"log/slog"
	"math/rand/v2"
	"sync"
	"time"

	"github.com/moonfall/colonysim/internal/catalog"
	"github.com/moonfall/colonysim/internal/chase"
	"github.com/moonfall/colonysim/internal/clock"
	"github.com/moonfall/colonysim/internal/combat"
	"github.com/moonfall/colonysim/internal/daycycle"
	"github.com/moonfall/colonysim/internal/feeding"
	"github.com/moonfall/colonysim/internal/population"
	"github.com/moonfall/colonysim/internal/presentation"
	"github.com/moonfall/colonysim/internal/queue"
	"github.com/moonfall/colonysim/internal/session"
	"github.com/moonfall/colonysim/pkg/core"
)

// Config gathers the settings of every subsystem.
type Config struct {
	Day          daycycle.Config
	Combat       combat.Config
	Chase        chase.Config
	Presentation presentation.Timings
	Speeds       []float64
	BaseCapacity int
	Seed         uint64
	Autopilot    bool
	// MaxDays stops the run once that day has been settled. Zero runs until game over.
	MaxDays int
}

// Option configures a Simulation.
type Option func(*Simulation)

// WithLogger sets the logger shared by all subsystems.
func WithLogger(l *slog.Logger) Option {
	return func(s *Simulation) { s.log = l }
}

// WithPublisher sets where journal records go.
func WithPublisher(p core.Publisher) Option {
	return func(s *Simulation) { s.pub = p }
}

// WithSession keeps the session's live day and state current.
func WithSession(c *session.Context) Option {
	return func(s *Simulation) { s.session = c }
}

// WithNow overrides the wall clock used for journal timestamps.
func WithNow(fn func() time.Time) Option {
	return func(s *Simulation) { s.now = fn }
}

// Simulation is one colony run.
type Simulation struct {
	cfg     Config
	catalog *catalog.Catalog
	log     *slog.Logger
	pub     core.Publisher
	session *session.Context
	now     func() time.Time

	board    *board
	clock    *clock.VirtualClock
	combat   *combat.Engine
	feeder   *feeding.Resolver
	day      *daycycle.Controller
	animator *presentation.Animator
	chase    *chase.Rule

	inbox     *queue.Queue[Command]
	autopilot bool
	ticks     uint64
	wavesDay  int

	mu     sync.RWMutex
	status Status
}

// New builds a colony from the catalog's starting board.
func New(cfg Config, cat *catalog.Catalog, opts ...Option) (*Simulation, error) {
	s := &Simulation{
		cfg:       cfg,
		catalog:   cat,
		pub:       core.Discard,
		now:       time.Now,
		inbox:     queue.New[Command](),
		autopilot: cfg.Autopilot,
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.log == nil {
		s.log = slog.New(slog.NewTextHandler(io.Discard, nil))
	}

	reg := population.New(cfg.BaseCapacity, cat.CorpseOption()...)
	if err := cat.Populate(reg); err != nil {
		return nil, fmt.Errorf("populating board: %w", err)
	}
	s.board = &board{Registry: reg, catalog: cat}
	s.clock = clock.New(cfg.Speeds...)

	rng := rand.New(rand.NewPCG(cfg.Seed, cfg.Seed^0x9e3779b97f4a7c15))

	combatCfg := cfg.Combat
	combatCfg.LootTables = cat.LootTables()
	var err error
	s.combat, err = combat.New(combatCfg, s.board, rng,
		combat.WithLogger(s.log.With("component", "combat")),
		combat.WithPublisher(s.pub),
		combat.WithGate(s.running),
		combat.WithDay(s.currentDay),
		combat.WithNow(s.now),
	)
	if err != nil {
		return nil, fmt.Errorf("creating combat engine: %w", err)
	}

	s.feeder = feeding.New(reg, s.log.With("component", "feeding"))
	s.animator = presentation.NewAnimator(cfg.Presentation, s.log.With("component", "presentation"))
	s.day = daycycle.New(cfg.Day, s.clock, reg, s.feeder, s.animator,
		daycycle.WithLogger(s.log.With("component", "daycycle")),
		daycycle.WithPublisher(s.pub),
		daycycle.WithBattleCount(s.combat.Started),
		daycycle.WithNow(s.now),
	)
	s.animator.Bind(s.day)
	s.chase = chase.New(cfg.Chase, reg, s.combat, s.running)

	reg.OnLeave(s.onLeave)
	s.day.Subscribe(s.onStateChange)

	s.spawnWaves(s.day.Day())
	s.syncSession()
	s.snapshot()
	return s, nil
}

// board adds loot spawning to the registry for the combat engine.
type board struct {
	*population.Registry
	catalog *catalog.Catalog
}

func (b *board) SpawnLoot(template string, pos core.Position) (core.ID, bool) {
	id, err := b.catalog.Spawn(b.Registry, template, pos)
	return id, err == nil
}

func (s *Simulation) running() bool { return s.day != nil && s.day.Running() }

func (s *Simulation) currentDay() int {
	if s.day == nil {
		return max(1, s.cfg.Day.StartDay)
	}
	return s.day.Day()
}

// onLeave routes removals to the battles they affect. Units killed in battle
// stay members until the engine drops them on its next turn.
func (s *Simulation) onLeave(id core.ID, reason population.Reason) {
	switch reason {
	case population.ReasonRemoved, population.ReasonSold:
		s.combat.Disengage(id)
	}
	if reason != population.ReasonConsumed {
		s.day.PopulationChanged()
	}
}

func (s *Simulation) onStateChange(c daycycle.StateChange) {
	s.syncSession()
	if c.To == core.StateRunning && c.From == core.StateWaitingNextDay {
		s.spawnWaves(c.Day)
	}
	if c.To == core.StateGameOver {
		ended := s.combat.EndAll(core.OutcomeGameOver)
		s.log.Info("game over", "day", c.Day, "from", c.From.String(), "battles_ended", ended)
	}
}

func (s *Simulation) spawnWaves(day int) {
	if day <= s.wavesDay {
		return
	}
	s.wavesDay = day
	for _, p := range s.catalog.WavesFor(day) {
		id, err := s.catalog.Spawn(s.board.Registry, p.Template, core.Position{X: p.X, Y: p.Y})
		if err != nil {
			s.log.Error("wave spawn failed", "day", day, "template", p.Template, "error", err)
			continue
		}
		s.log.Info("wave spawned", "day", day, "template", p.Template, "id", id)
	}
}

func (s *Simulation) syncSession() {
	if s.session != nil {
		s.session.SetDay(s.day.Day(), s.day.State())
	}
}

// Registry exposes the board to a viewer running on the tick goroutine.
func (s *Simulation) Registry() *population.Registry { return s.board.Registry }

// Controller exposes the day cycle to a viewer running on the tick goroutine.
func (s *Simulation) Controller() *daycycle.Controller { return s.day }

// Combat exposes the battle engine to a viewer running on the tick goroutine.
func (s *Simulation) Combat() *combat.Engine { return s.combat }

// Clock exposes the virtual clock to a viewer running on the tick goroutine.
func (s *Simulation) Clock() *clock.VirtualClock { return s.clock }

// Animator exposes the presenter to a viewer running on the tick goroutine.
func (s *Simulation) Animator() *presentation.Animator { return s.animator }

// Done reports whether the run has ended, by game over or by reaching MaxDays.
func (s *Simulation) Done() bool {
	if s.day.State() == core.StateGameOver {
		return true
	}
	return s.cfg.MaxDays > 0 && s.day.Day() >= s.cfg.MaxDays && s.day.State() == core.StateWaitingNextDay
}

// Survivors is the number of living friendly units.
func (s *Simulation) Survivors() int { return s.board.FriendlyCount() }

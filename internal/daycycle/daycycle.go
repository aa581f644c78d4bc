// Package daycycle is the top-level state machine of the colony: the day
// timer, feeding and starvation resolution, the capacity check, and the
// command surface the UI calls. Commands that arrive in the wrong state are
// ignored.
package daycycle

import (
	"io"
	"log/slog"
	"slices"
	"time"

	"github.com/moonfall/colonysim/internal/clock"
	"github.com/moonfall/colonysim/internal/feeding"
	"github.com/moonfall/colonysim/pkg/core"
)

// Population is the registry view the controller needs.
type Population interface {
	Unit(id core.ID) (*core.Unit, bool)
	AliveFriendlyUnits() []*core.Unit
	FriendlyCount() int
	PopulationCount() int
	Capacity() int
	Coins() int
	KillUnit(id core.ID) bool
}

// Feeder runs the feeding pass.
type Feeder interface {
	Prepare()
	Plan() []feeding.Bite
	Resolve() feeding.Result
}

// Presenter animates the feeding and starving phases. Feeding must end with
// one call to OnFeedingAnimationFinished; Starving must call KillUnit for each
// hungry unit and end with one call to OnStarvingAnimationFinished.
type Presenter interface {
	Feeding(plan []feeding.Bite)
	Starving(hungry []core.HungryUnit)
}

// Config holds the day cycle settings.
type Config struct {
	DayLength  time.Duration
	StartDay   int
	ResultHold time.Duration // real time before an all-fed result advances; 0 waits for confirmation
	RecoveryHP int
}

// StateChange is delivered to observers on every transition.
type StateChange struct {
	From core.DayState
	To   core.DayState
	Day  int
}

// Option configures a Controller.
type Option func(*Controller)

// WithLogger sets the logger.
func WithLogger(l *slog.Logger) Option {
	return func(c *Controller) { c.log = l }
}

// WithPublisher sets the journal publisher.
func WithPublisher(p core.Publisher) Option {
	return func(c *Controller) { c.pub = p }
}

// WithBattleCount supplies the running total of battles for day summaries.
func WithBattleCount(fn func() int) Option {
	return func(c *Controller) { c.battles = fn }
}

// WithNow overrides the wall clock used for journal timestamps.
func WithNow(fn func() time.Time) Option {
	return func(c *Controller) { c.now = fn }
}

type observer struct {
	id int
	fn func(StateChange)
}

// Controller drives the day cycle.
type Controller struct {
	cfg       Config
	clock     *clock.VirtualClock
	pop       Population
	feeder    Feeder
	presenter Presenter
	log       *slog.Logger
	pub       core.Publisher
	battles   func() int
	now       func() time.Time

	state      core.DayState
	day        int
	timer      time.Duration
	hold       time.Duration
	lastHungry []core.HungryUnit
	lastResult feeding.Result
	starved    int
	summarized bool
	dayBattles int

	observers  []observer
	observerID int
}

// New builds a controller in the Running state of the first day.
func New(cfg Config, clk *clock.VirtualClock, pop Population, feeder Feeder, presenter Presenter, opts ...Option) *Controller {
	c := &Controller{
		cfg:       cfg,
		clock:     clk,
		pop:       pop,
		feeder:    feeder,
		presenter: presenter,
		pub:       core.Discard,
		battles:   func() int { return 0 },
		now:       time.Now,
		state:     core.StateRunning,
		day:       max(1, cfg.StartDay),
	}
	for _, opt := range opts {
		opt(c)
	}
	if c.log == nil {
		c.log = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	c.clock.Resume(clock.PausePhase)
	c.dayBattles = c.battles()
	return c
}

// Subscribe registers fn for state changes and returns a function that removes it.
func (c *Controller) Subscribe(fn func(StateChange)) func() {
	c.observerID++
	id := c.observerID
	c.observers = append(c.observers, observer{id: id, fn: fn})
	return func() {
		c.observers = slices.DeleteFunc(c.observers, func(o observer) bool { return o.id == id })
	}
}

// State is the active state.
func (c *Controller) State() core.DayState { return c.state }

// Running reports whether the day is in free play. Battles poll this.
func (c *Controller) Running() bool { return c.state == core.StateRunning }

// Day is the current day number.
func (c *Controller) Day() int { return c.day }

// NormalizedDayProgress is the elapsed share of the day in [0, 1].
func (c *Controller) NormalizedDayProgress() float64 {
	if c.cfg.DayLength <= 0 {
		return 0
	}
	return min(1, max(0, float64(c.timer)/float64(c.cfg.DayLength)))
}

// LastHungryUnits returns the units left hungry by the most recent feeding.
func (c *Controller) LastHungryUnits() []core.HungryUnit {
	return slices.Clone(c.lastHungry)
}

// LastResult is the most recent feeding verdict.
func (c *Controller) LastResult() feeding.Result { return c.lastResult }

func (c *Controller) setState(to core.DayState) {
	if to == c.state {
		return
	}
	from := c.state
	c.state = to
	if to == core.StateRunning {
		c.clock.Resume(clock.PausePhase)
	} else {
		c.clock.Pause(clock.PausePhase)
	}

	c.log.Info("day state changed", "from", from.String(), "to", to.String(), "day", c.day)
	c.pub.Publish(core.StateChange{Time: c.now(), Day: c.day, From: from, To: to})
	change := StateChange{From: from, To: to, Day: c.day}
	for _, o := range slices.Clone(c.observers) {
		o.fn(change)
	}
}

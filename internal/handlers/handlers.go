// Package handlers binds the colony commands to the dispatcher. Handlers only
// validate arguments and queue commands; the simulation applies them on its
// next tick.
package handlers

import (
	"errors"
	"fmt"
	"log/slog"

	"github.com/moonfall/colonysim/internal/dispatcher"
	"github.com/moonfall/colonysim/internal/parser"
	"github.com/moonfall/colonysim/internal/sim"
	"github.com/moonfall/colonysim/pkg/core"
)

// ErrArgs is returned when a command gets the wrong number of arguments.
var ErrArgs = errors.New("wrong number of arguments")

// Simulation is the part of sim.Simulation the handlers drive.
type Simulation interface {
	Submit(c sim.Command)
	Status() sim.Status
}

// Dependencies holds all dependencies needed by handlers
type Dependencies struct {
	Sim     Simulation
	Logger  *slog.Logger
	Version string
	// OnQuit runs when the console asks to stop. Optional.
	OnQuit func()
}

// Service provides the handler methods.
type Service struct {
	deps Dependencies
	d    *dispatcher.Dispatcher
}

// NewService creates a new handler service
func NewService(deps Dependencies) *Service {
	if deps.Logger == nil {
		deps.Logger = slog.Default()
	}
	return &Service{deps: deps}
}

// simple commands take no arguments and map one to one onto an action.
var simple = map[string]sim.Action{
	":FEED:":           sim.ActFeed,
	":CONFIRM:FED:":    sim.ActConfirmFed,
	":CONFIRM:HUNGRY:": sim.ActConfirmHungry,
	":SELL:":           sim.ActSell,
	":NEXT:DAY:":       sim.ActNextDay,
	":END:GAME:":       sim.ActEndGame,
	":PAUSE:":          sim.ActPause,
	":SPEED:":          sim.ActSpeed,
	":AUTOPILOT:":      sim.ActAutopilot,
}

// Register adds every colony command to d.
func (s *Service) Register(d *dispatcher.Dispatcher) {
	s.d = d
	for cmd, act := range simple {
		d.Register(cmd, s.queue(act))
	}
	d.Register(":ENGAGE:", s.HandleEngage, dispatcher.Logged())
	d.Register(":DISENGAGE:", s.HandleDisengage, dispatcher.Logged())
	d.Register(":SELL:CARD:", s.HandleSellCard, dispatcher.Logged())
	d.Register(":STATUS:", s.HandleStatus)
	d.Register(":HELP:", s.HandleHelp)
	d.Register(":VERSION:", func(dispatcher.Event) (any, error) { return s.deps.Version, nil })
	d.Register(":QUIT:", s.HandleQuit)
}

func (s *Service) queue(act sim.Action) dispatcher.HandlerFunc {
	return func(e dispatcher.Event) (any, error) {
		if len(e.Args) != 0 {
			return nil, fmt.Errorf("%s takes no arguments: %w", e.Command, ErrArgs)
		}
		s.submit(sim.Command{Action: act})
		return act.String(), nil
	}
}

func (s *Service) submit(c sim.Command) {
	s.deps.Logger.Debug("queued command", "action", c.Action.String(), "unit", c.Unit, "target", c.Target)
	s.deps.Sim.Submit(c)
}

// HandleEngage queues an engage of args[0] (friendly) against args[1].
func (s *Service) HandleEngage(e dispatcher.Event) (any, error) {
	ids, err := ids(e, 2)
	if err != nil {
		return nil, err
	}
	s.submit(sim.Command{Action: sim.ActEngage, Unit: ids[0], Target: ids[1]})
	return sim.ActEngage.String(), nil
}

// HandleDisengage queues the retreat of one unit.
func (s *Service) HandleDisengage(e dispatcher.Event) (any, error) {
	ids, err := ids(e, 1)
	if err != nil {
		return nil, err
	}
	s.submit(sim.Command{Action: sim.ActDisengage, Unit: ids[0]})
	return sim.ActDisengage.String(), nil
}

// HandleSellCard queues the sale of one card.
func (s *Service) HandleSellCard(e dispatcher.Event) (any, error) {
	ids, err := ids(e, 1)
	if err != nil {
		return nil, err
	}
	s.submit(sim.Command{Action: sim.ActSellCard, Unit: ids[0]})
	return sim.ActSellCard.String(), nil
}

// HandleStatus returns the latest snapshot.
func (s *Service) HandleStatus(dispatcher.Event) (any, error) {
	return s.deps.Sim.Status(), nil
}

// HandleHelp lists the registered commands.
func (s *Service) HandleHelp(dispatcher.Event) (any, error) {
	if s.d == nil {
		return parser.Commands(), nil
	}
	return s.d.Commands(), nil
}

func (s *Service) HandleQuit(dispatcher.Event) (any, error) {
	if s.deps.OnQuit != nil {
		s.deps.OnQuit()
	}
	return nil, nil
}

func ids(e dispatcher.Event, n int) ([]core.ID, error) {
	if len(e.Args) != n {
		return nil, fmt.Errorf("%s wants %d, got %d: %w", e.Command, n, len(e.Args), ErrArgs)
	}
	out := make([]core.ID, n)
	for i, a := range e.Args {
		id, err := parser.ParseID(a)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", e.Command, err)
		}
		out[i] = id
	}
	return out, nil
}

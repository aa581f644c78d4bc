package sim

import (
	"fmt"

	"github.com/moonfall/colonysim/pkg/core"
)

// Action is a player command.
type Action uint8

const (
	ActFeed Action = iota + 1
	ActConfirmFed
	ActConfirmHungry
	ActSell
	ActNextDay
	ActEndGame
	ActPause
	ActSpeed
	ActEngage
	ActDisengage
	ActSellCard
	ActAutopilot
)

var actionNames = map[Action]string{
	ActFeed:          "feed",
	ActConfirmFed:    "confirm_fed",
	ActConfirmHungry: "confirm_hungry",
	ActSell:          "sell",
	ActNextDay:       "next_day",
	ActEndGame:       "end_game",
	ActPause:         "pause",
	ActSpeed:         "speed",
	ActEngage:        "engage",
	ActDisengage:     "disengage",
	ActSellCard:      "sell_card",
	ActAutopilot:     "autopilot",
}

func (a Action) String() string {
	if s, ok := actionNames[a]; ok {
		return s
	}
	return fmt.Sprintf("action(%d)", uint8(a))
}

// Command is queued by Submit and applied at the start of the next tick.
// Unit and Target are used by engage (friendly, opponent), disengage and
// sell_card (Unit only).
type Command struct {
	Action Action
	Unit   core.ID
	Target core.ID
}

// Submit queues a command. It is safe to call from any goroutine.
func (s *Simulation) Submit(c Command) {
	s.inbox.Push(c)
}

// Pending is the number of queued commands.
func (s *Simulation) Pending() int { return s.inbox.Len() }

// apply runs one command. Commands that do not fit the current state are
// ignored by the components they reach.
func (s *Simulation) apply(c Command) {
	switch c.Action {
	case ActFeed:
		s.day.RequestFeed()
	case ActConfirmFed:
		s.day.ConfirmAllFedResult()
	case ActConfirmHungry:
		s.day.ConfirmHungryResult()
	case ActSell:
		s.day.RequestSell()
	case ActNextDay:
		s.day.RequestNextDay()
	case ActEndGame:
		s.day.RequestEndGame()
	case ActPause:
		s.day.TogglePause()
	case ActSpeed:
		s.day.FastForward()
	case ActEngage:
		if !s.day.Running() {
			s.log.Debug("engage ignored outside free play", "state", s.day.State().String())
			return
		}
		if id, ok := s.combat.StartOrJoinBattle(c.Unit, c.Target); ok {
			s.log.Debug("engaged", "unit", c.Unit, "opponent", c.Target, "battle", id)
		} else {
			s.log.Debug("engage rejected", "unit", c.Unit, "opponent", c.Target)
		}
	case ActDisengage:
		s.combat.Disengage(c.Unit)
	case ActSellCard:
		s.sell(c.Unit)
	case ActAutopilot:
		s.autopilot = !s.autopilot
		s.log.Info("autopilot toggled", "enabled", s.autopilot)
	default:
		s.log.Warn("unknown command", "action", c.Action.String())
	}
}

func (s *Simulation) sell(id core.ID) {
	if s.day.State() == core.StateGameOver {
		return
	}
	coins, ok := s.board.Sell(id)
	if !ok {
		s.log.Debug("sell ignored", "id", id)
		return
	}
	s.log.Info("sold", "id", id, "coins", coins, "balance", s.board.Coins())
}

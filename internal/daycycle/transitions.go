package daycycle

import (
	"github.com/moonfall/colonysim/internal/clock"
	"github.com/moonfall/colonysim/internal/feeding"
	"github.com/moonfall/colonysim/pkg/core"
)

// Tick advances the day timer by the simulation delta and runs the timed and
// self-resolving transitions.
func (c *Controller) Tick(f clock.Frame) {
	switch c.state {
	case core.StateRunning:
		if c.collapsed() {
			return
		}
		if c.cfg.DayLength <= 0 {
			return
		}
		c.timer += f.Sim
		if c.timer >= c.cfg.DayLength {
			c.timer = c.cfg.DayLength
			c.setState(core.StateWaitingFeed)
		}

	case core.StateFeedingResultAllFull:
		if c.collapsed() {
			return
		}
		if c.cfg.ResultHold <= 0 {
			return
		}
		c.hold += f.Real
		if c.hold >= c.cfg.ResultHold {
			c.ConfirmAllFedResult()
		}

	case core.StateSelling:
		if c.collapsed() {
			return
		}
		c.checkSold()

	case core.StateWaitingFeed, core.StateWaitingSell, core.StateWaitingNextDay:
		c.collapsed()
	}
}

// PopulationChanged re-evaluates the selling phase after an external sale or removal.
func (c *Controller) PopulationChanged() {
	if c.state == core.StateSelling {
		c.checkSold()
	}
}

// RequestFeed starts the feeding phase once the day is over.
func (c *Controller) RequestFeed() {
	if c.state != core.StateWaitingFeed {
		return
	}
	c.feeder.Prepare()
	c.setState(core.StateFeedingAnimation)
	c.presenter.Feeding(c.feeder.Plan())
}

// OnFeedingAnimationFinished resolves the feeding pass. It is called by the
// presenter once the consumption has been shown.
func (c *Controller) OnFeedingAnimationFinished() {
	if c.state != core.StateFeedingAnimation {
		return
	}
	res := c.feeder.Resolve()
	c.lastResult = res
	c.lastHungry = res.Hungry
	c.summarized = false
	c.starved = 0

	c.pub.Publish(core.FeedingReport{
		Time:         c.now(),
		Day:          c.day,
		AllSatisfied: res.AllSatisfied,
		Fed:          len(c.pop.AliveFriendlyUnits()) - len(res.Hungry),
		Hungry:       res.Hungry,
		Consumed:     res.Consumed,
		FoodRemoved:  res.FoodRemoved,
	})

	if c.pop.FriendlyCount() == 0 {
		c.gameOver()
		return
	}

	// hungry units show their full requirement again while the result is displayed
	for _, h := range res.Hungry {
		if u, ok := c.pop.Unit(h.UnitID); ok {
			u.Hunger = u.DailyHunger
		}
	}

	if res.AllSatisfied {
		c.hold = 0
		c.setState(core.StateFeedingResultAllFull)
	} else {
		c.setState(core.StateFeedingResultHungry)
	}
}

// ConfirmAllFedResult leaves the all-fed result screen.
func (c *Controller) ConfirmAllFedResult() {
	if c.state != core.StateFeedingResultAllFull {
		return
	}
	c.summarize()
	c.routeCapacity()
}

// ConfirmHungryResult starts the starving animation.
func (c *Controller) ConfirmHungryResult() {
	if c.state != core.StateFeedingResultHungry {
		return
	}
	c.setState(core.StateStarvingAnimation)
	c.presenter.Starving(c.LastHungryUnits())
}

// KillUnit lets a hungry unit starve. The presenter calls it at the animated
// moment of death.
func (c *Controller) KillUnit(id core.ID) {
	if c.state != core.StateStarvingAnimation {
		return
	}
	u, ok := c.pop.Unit(id)
	if !ok || !u.IsFriendly() {
		return
	}
	name, role := u.Name, u.Role.String()
	if !c.pop.KillUnit(id) {
		return
	}
	c.starved++
	c.log.Info("unit starved", "unit", id, "name", name, "day", c.day)
	c.pub.Publish(core.Death{
		Time:   c.now(),
		Day:    c.day,
		UnitID: id,
		Name:   name,
		Role:   role,
		Cause:  core.CauseStarvation,
	})
}

// OnStarvingAnimationFinished settles the day after starvation.
func (c *Controller) OnStarvingAnimationFinished() {
	if c.state != core.StateStarvingAnimation {
		return
	}
	c.summarize()
	if c.pop.FriendlyCount() == 0 {
		c.setState(core.StateWaitingEndGame)
		return
	}
	c.routeCapacity()
}

// RequestSell opens the selling phase.
func (c *Controller) RequestSell() {
	if c.state != core.StateWaitingSell {
		return
	}
	c.setState(core.StateSelling)
	c.checkSold()
}

// RequestNextDay starts the next day with a small recovery for survivors.
func (c *Controller) RequestNextDay() {
	if c.state != core.StateWaitingNextDay {
		return
	}
	c.day++
	c.timer = 0
	c.dayBattles = c.battles()
	c.lastResult = feeding.Result{}
	c.starved = 0
	c.summarized = false
	for _, u := range c.pop.AliveFriendlyUnits() {
		u.HP = min(u.MaxHP, u.HP+max(0, c.cfg.RecoveryHP))
	}
	c.clock.ResetSpeed()
	c.clock.Resume(clock.PauseUser)
	c.setState(core.StateRunning)
}

// RequestEndGame ends a run with no survivors.
func (c *Controller) RequestEndGame() {
	if c.state != core.StateWaitingEndGame {
		return
	}
	c.gameOver()
}

// TogglePause flips the player pause during free play.
func (c *Controller) TogglePause() {
	if c.state == core.StateRunning {
		c.clock.TogglePause()
	}
}

// FastForward cycles the speed during free play.
func (c *Controller) FastForward() {
	if c.state == core.StateRunning {
		c.clock.FastForward()
	}
}

func (c *Controller) routeCapacity() {
	if c.pop.PopulationCount() > c.pop.Capacity() {
		c.setState(core.StateWaitingSell)
		return
	}
	c.setState(core.StateWaitingNextDay)
}

func (c *Controller) checkSold() {
	if c.pop.PopulationCount() <= c.pop.Capacity() {
		c.setState(core.StateWaitingNextDay)
	}
}

// collapsed routes a colony with no friendly units left to game over.
func (c *Controller) collapsed() bool {
	if c.pop.FriendlyCount() > 0 {
		return false
	}
	c.log.Info("colony collapsed", "day", c.day, "state", c.state.String())
	c.gameOver()
	return true
}

func (c *Controller) gameOver() {
	c.summarize()
	c.setState(core.StateGameOver)
}

func (c *Controller) summarize() {
	if c.summarized {
		return
	}
	c.summarized = true
	c.pub.Publish(core.DaySummary{
		Time:       c.now(),
		Day:        c.day,
		Friendlies: c.pop.FriendlyCount(),
		Hungry:     len(c.lastResult.Hungry),
		Starved:    c.starved,
		Consumed:   c.lastResult.Consumed,
		Battles:    c.battles() - c.dayBattles,
		Population: c.pop.PopulationCount(),
		Capacity:   c.pop.Capacity(),
		Coins:      c.pop.Coins(),
	})
}

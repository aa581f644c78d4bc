// Package viewer draws a running colony with ebiten and maps keys and clicks
// to simulation commands. The simulation is ticked from Update, so the core
// stays on ebiten's game goroutine.
package viewer

import (
	"math"
	"time"

	"github.com/hajimehoshi/ebiten/v2"

	"github.com/moonfall/colonysim/internal/sim"
	"github.com/moonfall/colonysim/pkg/core"
)

// Simulation is what the viewer drives.
type Simulation interface {
	Tick(real time.Duration)
	Submit(c sim.Command)
	Status() sim.Status
	Done() bool
}

const (
	// Scale is screen pixels per board unit.
	Scale = 48.0
	// hitRadius is the click radius around a card, in pixels.
	hitRadius = 14.0
	hudHeight = 72
)

// Game implements ebiten.Game.
type Game struct {
	sim      Simulation
	width    int
	height   int
	origin   [2]float64
	selected core.ID
	prevKeys map[ebiten.Key]bool
	prevLMB  bool
	prevRMB  bool
	showHelp bool
}

// New creates a viewer for s with a window of width x height pixels.
func New(s Simulation, width, height int) *Game {
	return &Game{
		sim:      s,
		width:    width,
		height:   height,
		origin:   [2]float64{float64(width) / 2, float64(height-hudHeight) / 2},
		prevKeys: map[ebiten.Key]bool{},
		showHelp: true,
	}
}

// keyActions maps edge-triggered keys to commands. Enter confirms whichever
// feeding result is showing.
var keyActions = map[ebiten.Key]sim.Action{
	ebiten.KeyF:     sim.ActFeed,
	ebiten.KeyS:     sim.ActSell,
	ebiten.KeyN:     sim.ActNextDay,
	ebiten.KeyE:     sim.ActEndGame,
	ebiten.KeySpace: sim.ActPause,
	ebiten.KeyTab:   sim.ActSpeed,
	ebiten.KeyA:     sim.ActAutopilot,
}

func (g *Game) Update() error {
	st := g.sim.Status()
	g.handleInput(st)
	tps := ebiten.TPS()
	if tps <= 0 {
		tps = ebiten.DefaultTPS
	}
	g.sim.Tick(time.Second / time.Duration(tps))
	if g.sim.Done() {
		return ebiten.Termination
	}
	return nil
}

func (g *Game) pressed(k ebiten.Key, cur map[ebiten.Key]bool) bool {
	cur[k] = ebiten.IsKeyPressed(k)
	return cur[k] && !g.prevKeys[k]
}

// handleInput processes keypresses (edge-triggered) and mouse clicks.
func (g *Game) handleInput(st sim.Status) {
	cur := map[ebiten.Key]bool{}
	for k, act := range keyActions {
		if g.pressed(k, cur) {
			g.sim.Submit(sim.Command{Action: act})
		}
	}
	if g.pressed(ebiten.KeyEnter, cur) {
		if act, ok := confirmAction(st.State); ok {
			g.sim.Submit(sim.Command{Action: act})
		}
	}
	if g.pressed(ebiten.KeyD, cur) && g.selected != 0 {
		g.sim.Submit(sim.Command{Action: sim.ActDisengage, Unit: g.selected})
	}
	if g.pressed(ebiten.KeyH, cur) {
		g.showHelp = !g.showHelp
	}
	if g.pressed(ebiten.KeyEscape, cur) {
		g.selected = 0
	}
	g.prevKeys = cur

	x, y := ebiten.CursorPosition()
	lmb := ebiten.IsMouseButtonPressed(ebiten.MouseButtonLeft)
	rmb := ebiten.IsMouseButtonPressed(ebiten.MouseButtonRight)
	if lmb && !g.prevLMB {
		if c, ok := g.click(st, float64(x), float64(y)); ok {
			g.sim.Submit(c)
		}
	}
	if rmb && !g.prevRMB {
		if id := g.hit(st, float64(x), float64(y)); id != 0 {
			g.sim.Submit(sim.Command{Action: sim.ActSellCard, Unit: id})
		}
	}
	g.prevLMB, g.prevRMB = lmb, rmb
}

// click selects a friendly, or sends the selected friendly against a hostile
// or passive unit. It returns the engage command when one results.
func (g *Game) click(st sim.Status, x, y float64) (sim.Command, bool) {
	id := g.hit(st, x, y)
	if id == 0 {
		g.selected = 0
		return sim.Command{}, false
	}
	u, ok := unitView(st, id)
	if !ok || u.Corpse {
		return sim.Command{}, false
	}
	if u.Role == core.RoleFriendly.String() {
		g.selected = id
		return sim.Command{}, false
	}
	if g.selected == 0 {
		return sim.Command{}, false
	}
	return sim.Command{Action: sim.ActEngage, Unit: g.selected, Target: id}, true
}

func confirmAction(state string) (sim.Action, bool) {
	switch state {
	case core.StateFeedingResultAllFull.String():
		return sim.ActConfirmFed, true
	case core.StateFeedingResultHungry.String():
		return sim.ActConfirmHungry, true
	}
	return 0, false
}

// toScreen converts a board position to window pixels.
func (g *Game) toScreen(p core.Position) (float64, float64) {
	return g.origin[0] + p.X*Scale, g.origin[1] + p.Y*Scale
}

// hit returns the card under (x, y): units first, then food, then items.
func (g *Game) hit(st sim.Status, x, y float64) core.ID {
	near := func(p core.Position) bool {
		sx, sy := g.toScreen(p)
		return math.Hypot(sx-x, sy-y) <= hitRadius
	}
	for _, u := range st.Units {
		if near(u.Position) {
			return u.ID
		}
	}
	for _, f := range st.Food {
		if near(f.Position) {
			return f.ID
		}
	}
	for _, it := range st.Items {
		if near(it.Position) {
			return it.ID
		}
	}
	return 0
}

func unitView(st sim.Status, id core.ID) (sim.UnitView, bool) {
	for _, u := range st.Units {
		if u.ID == id {
			return u, true
		}
	}
	return sim.UnitView{}, false
}

func (g *Game) Layout(_, _ int) (int, int) {
	return g.width, g.height
}

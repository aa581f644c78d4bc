package viewer

import (
	"fmt"
	"image/color"

	"github.com/hajimehoshi/ebiten/v2"
	"github.com/hajimehoshi/ebiten/v2/ebitenutil"
	"github.com/hajimehoshi/ebiten/v2/vector"

	"github.com/moonfall/colonysim/internal/presentation"
	"github.com/moonfall/colonysim/internal/sim"
	"github.com/moonfall/colonysim/pkg/core"
)

var (
	bgColor       = color.RGBA{R: 28, G: 42, B: 28, A: 255}
	hudColor      = color.RGBA{R: 18, G: 20, B: 24, A: 235}
	friendlyColor = color.RGBA{R: 80, G: 140, B: 230, A: 255}
	hostileColor  = color.RGBA{R: 210, G: 60, B: 50, A: 255}
	passiveColor  = color.RGBA{R: 120, G: 190, B: 90, A: 255}
	corpseColor   = color.RGBA{R: 90, G: 90, B: 90, A: 255}
	foodColor     = color.RGBA{R: 240, G: 160, B: 40, A: 255}
	itemColor     = color.RGBA{R: 150, G: 110, B: 70, A: 255}
	battleRing    = color.RGBA{R: 255, G: 90, B: 60, A: 200}
	selectRing    = color.RGBA{R: 250, G: 230, B: 80, A: 255}
	cueRing       = color.RGBA{R: 255, G: 255, B: 255, A: 220}
	hpBack        = color.RGBA{R: 60, G: 20, B: 20, A: 255}
	hpFront       = color.RGBA{R: 90, G: 220, B: 90, A: 255}
)

const helpText = "F feed  Enter confirm  S sell  N next day  E end  Space pause  Tab speed  A autopilot\n" +
	"click friendly then opponent to engage  D disengage  right click sells  H hide help"

func (g *Game) Draw(screen *ebiten.Image) {
	st := g.sim.Status()
	screen.Fill(bgColor)

	for _, it := range st.Items {
		x, y := g.toScreen(it.Position)
		vector.FillRect(screen, float32(x-8), float32(y-8), 16, 16, itemColor, false)
		ebitenutil.DebugPrintAt(screen, it.Name, int(x)-8, int(y)+10)
	}
	for _, f := range st.Food {
		x, y := g.toScreen(f.Position)
		vector.FillCircle(screen, float32(x), float32(y), 7, foodColor, true)
		if cueFocus(st.Cue, f.ID) {
			vector.StrokeCircle(screen, float32(x), float32(y), 11, 1.5, cueRing, true)
		}
	}
	for _, u := range st.Units {
		g.drawUnit(screen, st, u)
	}

	g.drawHUD(screen, st)
}

func (g *Game) drawUnit(screen *ebiten.Image, st sim.Status, u sim.UnitView) {
	x, y := g.toScreen(u.Position)
	fx, fy := float32(x), float32(y)

	vector.FillCircle(screen, fx, fy, 12, roleColor(u), true)
	if u.InBattle {
		vector.StrokeCircle(screen, fx, fy, 15, 2, battleRing, true)
	}
	if u.ID == g.selected {
		vector.StrokeCircle(screen, fx, fy, 18, 2, selectRing, true)
	}
	if cueFocus(st.Cue, u.ID) {
		vector.StrokeCircle(screen, fx, fy, 21, 1.5, cueRing, true)
	}

	if !u.Corpse && u.MaxHP > 0 {
		w := float32(24)
		frac := float32(u.HP) / float32(u.MaxHP)
		vector.FillRect(screen, fx-w/2, fy-20, w, 3, hpBack, false)
		vector.FillRect(screen, fx-w/2, fy-20, w*frac, 3, hpFront, false)
	}
	label := fmt.Sprintf("%d", u.ID)
	if u.Hunger > 0 {
		label += fmt.Sprintf(" h%d", u.Hunger)
	}
	ebitenutil.DebugPrintAt(screen, label, int(x)-10, int(y)+14)
}

func roleColor(u sim.UnitView) color.Color {
	if u.Corpse {
		return corpseColor
	}
	switch u.Role {
	case core.RoleFriendly.String():
		return friendlyColor
	case core.RoleHostile.String():
		return hostileColor
	}
	return passiveColor
}

func cueFocus(c presentation.Cue, id core.ID) bool {
	if c.Kind == presentation.CueIdle || id == 0 {
		return false
	}
	return c.UnitID == id || c.FoodID == id
}

func (g *Game) drawHUD(screen *ebiten.Image, st sim.Status) {
	top := float32(g.height - hudHeight)
	vector.FillRect(screen, 0, top, float32(g.width), hudHeight, hudColor, false)

	barW := float32(g.width - 20)
	vector.StrokeRect(screen, 10, top+6, barW, 6, 1, cueRing, false)
	vector.FillRect(screen, 10, top+6, barW*float32(st.Progress), 6, selectRing, false)

	ebitenutil.DebugPrintAt(screen, hudLine(st), 10, int(top)+16)
	if g.showHelp {
		ebitenutil.DebugPrintAt(screen, helpText, 10, int(top)+36)
	}
}

// hudLine is the one-line status summary.
func hudLine(st sim.Status) string {
	flags := ""
	if st.Paused {
		flags += " PAUSED"
	}
	if st.Autopilot {
		flags += " AUTO"
	}
	line := fmt.Sprintf("day %d  %s  x%.0f  pop %d/%d  coins %d  battles %d%s",
		st.Day, st.State, st.Speed, st.Population, st.Capacity, st.Coins, st.ActiveBattles, flags)
	if n := len(st.Hungry); n > 0 {
		line += fmt.Sprintf("  hungry %d", n)
	}
	return line
}

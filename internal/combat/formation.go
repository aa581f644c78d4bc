package combat

import "github.com/moonfall/colonysim/pkg/core"

// align lines the participants up under the opponent in join order, centred
// on its X and FormationOffset board units below it. The opponent stays put.
// Turn order sorts by X, so after align it follows join order. A zero
// FormationSpacing leaves positions alone.
func (e *Engine) align(b *battle) {
	if e.cfg.FormationSpacing <= 0 || len(b.participants) == 0 {
		return
	}
	h, ok := e.opponent(b)
	if !ok {
		return
	}
	spacing := e.cfg.FormationSpacing
	left := h.Position.X - float64(len(b.participants)-1)*spacing/2
	y := h.Position.Y + e.cfg.FormationOffset
	for i, id := range b.participants {
		if u, ok := e.board.Unit(id); ok {
			u.Position = core.Position{X: left + float64(i)*spacing, Y: y}
		}
	}
}

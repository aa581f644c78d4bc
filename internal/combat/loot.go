package combat

import (
	"math"

	"github.com/moonfall/colonysim/pkg/core"
)

// rollCount draws a drop count uniformly from [min, max]. An inverted range
// yields min and negative counts yield nothing.
func rollCount(rng Roller, t core.LootTable) int {
	lo, hi := max(0, t.Min), max(0, t.Max)
	if hi <= lo {
		return lo
	}
	return lo + rng.IntN(hi-lo+1)
}

// pick performs one weighted draw: an offset in [0, total) is walked through the
// cumulative weights and the first entry whose running sum exceeds it wins.
func pick(rng Roller, t core.LootTable) (core.LootEntry, bool) {
	total := t.TotalWeight()
	if total <= 0 {
		return core.LootEntry{}, false
	}
	offset := rng.IntN(total)
	sum := 0
	for _, entry := range t.Entries {
		if entry.Weight <= 0 {
			continue
		}
		sum += entry.Weight
		if sum > offset {
			return entry, true
		}
	}
	return core.LootEntry{}, false
}

// scatter returns a uniformly distributed point within radius r of p.
func scatter(rng Roller, p core.Position, r float64) core.Position {
	if r <= 0 {
		return p
	}
	angle := rng.Float64() * 2 * math.Pi
	dist := r * math.Sqrt(rng.Float64())
	sin, cos := math.Sincos(angle)
	return core.Position{X: p.X + cos*dist, Y: p.Y + sin*dist}
}

func (e *Engine) dropLoot(b *battle, h *core.Unit) {
	t, ok := e.cfg.LootTables[h.LootTable]
	if !ok {
		return
	}
	n := rollCount(e.rng, t)
	origin := h.Position.Add(e.cfg.LootOffset)
	for range n {
		entry, ok := pick(e.rng, t)
		if !ok || entry.Template == "" {
			continue
		}
		pos := scatter(e.rng, origin, e.cfg.LootScatter)
		id, ok := e.board.SpawnLoot(entry.Template, pos)
		if !ok {
			e.log.Debug("loot spawn skipped", "battle", b.id, "template", entry.Template)
			continue
		}
		e.pub.Publish(core.LootDrop{
			Time:     e.now(),
			Day:      e.day(),
			BattleID: b.id,
			SourceID: h.ID,
			Template: entry.Template,
			ItemID:   id,
			Position: pos,
		})
	}
}

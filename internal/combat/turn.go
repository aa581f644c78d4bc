package combat

import (
	"cmp"
	"context"
	"slices"
	"time"

	"github.com/moonfall/colonysim/internal/schedule"
	"github.com/moonfall/colonysim/pkg/core"
)

type step uint8

const (
	stepSettle step = iota
	stepTurn
	stepFriendly
	stepHostile
	stepDone
)

type battle struct {
	id           core.ID
	hostile      core.ID
	participants []core.ID // join order
	turnOrder    []core.ID // snapshot sorted at the start of each turn
	next         int       // index into turnOrder
	step         step
	wait         schedule.Wait
	turns        int
}

// advance runs steps until the instance waits or ends. Each step is complete on
// its own, so an instance ended by a notification between ticks leaves nothing
// half applied.
func (e *Engine) advance(b *battle, dt time.Duration) {
	for b.step != stepDone {
		if b.wait.Active() {
			if !b.wait.Advance(dt) {
				return
			}
			dt = 0
		}

		switch b.step {
		case stepSettle:
			b.step = stepTurn

		case stepTurn:
			if _, ok := e.opponent(b); !ok {
				e.finish(b, core.OutcomeDisengaged)
				return
			}
			e.cleanup(b)
			if len(b.participants) == 0 {
				e.finish(b, core.OutcomeAbandoned)
				return
			}
			b.turns++
			b.turnOrder = e.sortByPosition(b.participants)
			b.next = 0
			b.step = stepFriendly

		case stepFriendly:
			h, ok := e.opponent(b)
			if !ok {
				e.finish(b, core.OutcomeDisengaged)
				return
			}
			attacker, ok := e.nextAttacker(b)
			if !ok {
				b.step = stepHostile
				continue
			}
			if e.attack(b, attacker, h) {
				e.defeat(b, h)
				return
			}
			b.wait.Start(e.cfg.AttackInterval)

		case stepHostile:
			h, ok := e.opponent(b)
			if !ok {
				e.finish(b, core.OutcomeDisengaged)
				return
			}
			e.cleanup(b)
			if len(b.participants) == 0 {
				e.finish(b, core.OutcomeAbandoned)
				return
			}
			tid := b.participants[e.rng.IntN(len(b.participants))]
			target, _ := e.board.Unit(tid)
			if e.attack(b, h, target) {
				e.fall(b, target)
			}
			b.step = stepTurn
			b.wait.Start(e.cfg.AttackInterval)
		}
	}
}

// opponent returns the instance's opponent while it is still alive on the board.
func (e *Engine) opponent(b *battle) (*core.Unit, bool) {
	h, ok := e.board.Unit(b.hostile)
	if !ok || !h.IsOpponent() {
		return nil, false
	}
	return h, true
}

// cleanup drops participants that died or left the board since the last tick.
func (e *Engine) cleanup(b *battle) {
	b.participants = slices.DeleteFunc(b.participants, func(id core.ID) bool {
		u, ok := e.board.Unit(id)
		if ok && u.IsFriendly() {
			return false
		}
		if e.member[id] == b.id {
			delete(e.member, id)
		}
		return true
	})
}

// sortByPosition orders participants left to right, ties broken by ID.
func (e *Engine) sortByPosition(ids []core.ID) []core.ID {
	type entry struct {
		id core.ID
		x  float64
	}
	entries := make([]entry, 0, len(ids))
	for _, id := range ids {
		if u, ok := e.board.Unit(id); ok {
			entries = append(entries, entry{id, u.Position.X})
		}
	}
	slices.SortFunc(entries, func(a, b entry) int {
		if c := cmp.Compare(a.x, b.x); c != 0 {
			return c
		}
		return cmp.Compare(a.id, b.id)
	})
	out := make([]core.ID, len(entries))
	for i, en := range entries {
		out[i] = en.id
	}
	return out
}

// nextAttacker returns the next turn-order unit that is still alive and still in b.
func (e *Engine) nextAttacker(b *battle) (*core.Unit, bool) {
	for b.next < len(b.turnOrder) {
		id := b.turnOrder[b.next]
		b.next++
		if e.member[id] != b.id {
			continue
		}
		if u, ok := e.board.Unit(id); ok && u.IsFriendly() {
			return u, true
		}
	}
	return nil, false
}

// attack resolves one swing and reports whether it dropped the defender to zero.
func (e *Engine) attack(b *battle, attacker, defender *core.Unit) bool {
	if attacker == nil || defender == nil {
		return false
	}
	roll := e.rng.Float64() * 100
	hit := roll < float64(attacker.HitChance)
	damage := 0
	if hit {
		damage = min(max(0, attacker.Attack), defender.HP)
		defender.HP -= damage
	}

	e.attacks.Add(context.Background(), 1)
	e.pub.Publish(core.Attack{
		Time:       e.now(),
		Day:        e.day(),
		BattleID:   b.id,
		AttackerID: attacker.ID,
		DefenderID: defender.ID,
		Roll:       roll,
		Hit:        hit,
		Damage:     damage,
		DefenderHP: defender.HP,
	})
	return hit && defender.HP <= 0
}

// fall hands a downed friendly unit to the board. The participant list is left
// alone; cleanup drops the unit on the next turn.
func (e *Engine) fall(b *battle, u *core.Unit) {
	e.log.Debug("unit fell in battle", "battle", b.id, "unit", u.ID)
	e.pub.Publish(core.Death{
		Time:     e.now(),
		Day:      e.day(),
		UnitID:   u.ID,
		Name:     u.Name,
		Role:     u.Role.String(),
		Cause:    core.CauseCombat,
		BattleID: b.id,
	})
	e.board.KillUnit(u.ID)
}

// defeat rolls loot for a downed opponent, ends the instance and removes the body.
func (e *Engine) defeat(b *battle, h *core.Unit) {
	e.pub.Publish(core.Death{
		Time:     e.now(),
		Day:      e.day(),
		UnitID:   h.ID,
		Name:     h.Name,
		Role:     h.Role.String(),
		Cause:    core.CauseCombat,
		BattleID: b.id,
	})
	e.dropLoot(b, h)
	e.finish(b, core.OutcomeHostileDefeated)
	e.board.Remove(h.ID)
}

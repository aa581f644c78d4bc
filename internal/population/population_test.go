package population

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/moonfall/colonysim/pkg/core"
)

func villager(name string, value int) *core.Unit {
	return &core.Unit{Name: name, Role: core.RoleFriendly, Alive: true, HP: 5, MaxHP: 5, DailyHunger: 2, Value: value}
}

func TestRegistry_IDsAreStable(t *testing.T) {
	r := New(20)
	a := r.AddUnit(villager("a", 1))
	f := r.AddFood(&core.FoodItem{Name: "berry", Saturation: 2, MaxSaturation: 2})
	b := r.AddUnit(villager("b", 1))

	assert.Equal(t, core.ID(1), a)
	assert.Equal(t, core.ID(2), f)
	assert.Equal(t, core.ID(3), b)

	require.True(t, r.Remove(a))
	c := r.AddUnit(villager("c", 1))
	assert.Equal(t, core.ID(4), c, "ids are not reused")
}

func TestRegistry_RegistrationOrder(t *testing.T) {
	r := New(20)
	r.AddUnit(villager("a", 1))
	r.AddUnit(&core.Unit{Name: "wolf", Role: core.RoleHostile, Alive: true})
	r.AddUnit(villager("b", 1))

	names := func(us []*core.Unit) []string {
		var out []string
		for _, u := range us {
			out = append(out, u.Name)
		}
		return out
	}
	assert.Equal(t, []string{"a", "b"}, names(r.AliveFriendlyUnits()))
	assert.Equal(t, []string{"wolf"}, names(r.Opponents()))
	assert.Equal(t, 2, r.FriendlyCount())
}

func TestRegistry_CapacityAndCount(t *testing.T) {
	r := New(2)
	r.AddUnit(villager("a", 1))
	r.AddFood(&core.FoodItem{Name: "apple"})
	r.AddItem(&core.Item{Name: "wood"})
	assert.Equal(t, 3, r.PopulationCount())
	assert.Equal(t, 2, r.Capacity())
	assert.Equal(t, 1, r.OverCapacity())

	r.AddItem(&core.Item{Name: "hut", Capacity: 3})
	assert.Equal(t, 5, r.Capacity())
	assert.Equal(t, 0, r.OverCapacity())
}

func TestRegistry_KillUnit_Corpse(t *testing.T) {
	r := New(20, WithCorpse(Corpse{Template: "corpse", Name: "Corpse", Value: 0}))
	var left []core.ID
	r.OnLeave(func(id core.ID, reason Reason) {
		assert.Equal(t, ReasonKilled, reason)
		left = append(left, id)
	})

	id := r.AddUnit(villager("a", 1))
	require.True(t, r.KillUnit(id))

	u, ok := r.Unit(id)
	require.True(t, ok, "corpse stays on the board")
	assert.True(t, u.Corpse)
	assert.False(t, u.Alive)
	assert.Equal(t, "Corpse", u.Name)
	assert.Zero(t, u.Hunger)
	assert.Equal(t, 0, r.FriendlyCount())
	assert.Equal(t, 1, r.PopulationCount())
	assert.Equal(t, []core.ID{id}, left)

	assert.False(t, r.KillUnit(id), "corpses cannot die twice")
}

func TestRegistry_KillUnit_WithoutCorpse(t *testing.T) {
	r := New(20)
	id := r.AddUnit(villager("a", 1))
	require.True(t, r.KillUnit(id))
	_, ok := r.Unit(id)
	assert.False(t, ok)
	assert.False(t, r.KillUnit(id))
}

func TestRegistry_Sell(t *testing.T) {
	r := New(20)
	var reasons []Reason
	r.OnLeave(func(_ core.ID, reason Reason) { reasons = append(reasons, reason) })

	id := r.AddItem(&core.Item{Name: "stone", Value: 3})
	coins, ok := r.Sell(id)
	require.True(t, ok)
	assert.Equal(t, 3, coins)
	assert.Equal(t, 3, r.Coins())
	assert.Equal(t, []Reason{ReasonSold}, reasons)

	_, ok = r.Sell(id)
	assert.False(t, ok)
}

func TestRegistry_Consume(t *testing.T) {
	r := New(20)
	f := r.AddFood(&core.FoodItem{Name: "berry"})
	u := r.AddUnit(villager("a", 1))

	assert.False(t, r.Consume(u), "only food is consumed")
	assert.True(t, r.Consume(f))
	assert.Empty(t, r.AliveFoodItems())
}

func TestRegistry_SellOrder(t *testing.T) {
	r := New(20)
	v := r.AddUnit(villager("a", 0))
	stone := r.AddItem(&core.Item{Name: "stone", Value: 2})
	berry := r.AddFood(&core.FoodItem{Name: "berry", Value: 1})
	r.AddItem(&core.Item{Name: "hut", Capacity: 2, Value: 0})

	assert.Equal(t, []core.ID{berry, stone, v}, r.SellOrder())
}

func TestReason_String(t *testing.T) {
	assert.Equal(t, "sold", ReasonSold.String())
	assert.Equal(t, "killed", ReasonKilled.String())
	assert.Equal(t, "consumed", ReasonConsumed.String())
	assert.Equal(t, "removed", ReasonRemoved.String())
}

// Package population is the board registry: every unit, food item and item in
// play, addressed by stable IDs and kept in registration order.
//
// A Registry is owned by the simulation goroutine and is not safe for
// concurrent use.
package population

import (
	"slices"

	"github.com/moonfall/colonysim/pkg/core"
)

// Reason says why an entity left play.
type Reason uint8

const (
	ReasonRemoved Reason = iota
	ReasonSold
	ReasonKilled
	ReasonConsumed
)

func (r Reason) String() string {
	switch r {
	case ReasonSold:
		return "sold"
	case ReasonKilled:
		return "killed"
	case ReasonConsumed:
		return "consumed"
	default:
		return "removed"
	}
}

// LeaveFunc is notified when an entity leaves play. Killed units that become
// corpses stay registered but are still reported.
type LeaveFunc func(id core.ID, reason Reason)

// Corpse describes what a killed unit turns into.
type Corpse struct {
	Template string
	Name     string
	Value    int
}

// Option configures a Registry.
type Option func(*Registry)

// WithCorpse converts killed units into corpses instead of removing them.
func WithCorpse(c Corpse) Option {
	return func(r *Registry) { r.corpse = &c }
}

// Registry holds the board.
type Registry struct {
	nextID       core.ID
	units        map[core.ID]*core.Unit
	unitOrder    []core.ID
	food         map[core.ID]*core.FoodItem
	foodOrder    []core.ID
	items        map[core.ID]*core.Item
	itemOrder    []core.ID
	coins        int
	baseCapacity int
	corpse       *Corpse
	listeners    []LeaveFunc
}

// New returns an empty registry with the given base capacity.
func New(baseCapacity int, opts ...Option) *Registry {
	r := &Registry{
		units:        make(map[core.ID]*core.Unit),
		food:         make(map[core.ID]*core.FoodItem),
		items:        make(map[core.ID]*core.Item),
		baseCapacity: max(0, baseCapacity),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// OnLeave registers fn for leave-play notifications.
func (r *Registry) OnLeave(fn LeaveFunc) {
	r.listeners = append(r.listeners, fn)
}

func (r *Registry) notify(id core.ID, reason Reason) {
	for _, fn := range r.listeners {
		fn(id, reason)
	}
}

func (r *Registry) allocID() core.ID {
	r.nextID++
	return r.nextID
}

// AddUnit registers u, assigning its ID.
func (r *Registry) AddUnit(u *core.Unit) core.ID {
	u.ID = r.allocID()
	r.units[u.ID] = u
	r.unitOrder = append(r.unitOrder, u.ID)
	return u.ID
}

// AddFood registers f, assigning its ID.
func (r *Registry) AddFood(f *core.FoodItem) core.ID {
	f.ID = r.allocID()
	r.food[f.ID] = f
	r.foodOrder = append(r.foodOrder, f.ID)
	return f.ID
}

// AddItem registers it, assigning its ID.
func (r *Registry) AddItem(it *core.Item) core.ID {
	it.ID = r.allocID()
	r.items[it.ID] = it
	r.itemOrder = append(r.itemOrder, it.ID)
	return it.ID
}

// Unit looks up a unit by ID.
func (r *Registry) Unit(id core.ID) (*core.Unit, bool) {
	u, ok := r.units[id]
	return u, ok
}

// Food looks up a food item by ID.
func (r *Registry) Food(id core.ID) (*core.FoodItem, bool) {
	f, ok := r.food[id]
	return f, ok
}

// Item looks up an item by ID.
func (r *Registry) Item(id core.ID) (*core.Item, bool) {
	it, ok := r.items[id]
	return it, ok
}

// Units returns every registered unit, corpses included, in registration order.
func (r *Registry) Units() []*core.Unit {
	out := make([]*core.Unit, 0, len(r.unitOrder))
	for _, id := range r.unitOrder {
		out = append(out, r.units[id])
	}
	return out
}

// AliveFriendlyUnits returns living friendly units in registration order.
func (r *Registry) AliveFriendlyUnits() []*core.Unit {
	var out []*core.Unit
	for _, id := range r.unitOrder {
		if u := r.units[id]; u.IsFriendly() {
			out = append(out, u)
		}
	}
	return out
}

// Opponents returns living hostile and passive units in registration order.
func (r *Registry) Opponents() []*core.Unit {
	var out []*core.Unit
	for _, id := range r.unitOrder {
		if u := r.units[id]; u.IsOpponent() {
			out = append(out, u)
		}
	}
	return out
}

// FriendlyCount is the number of living friendly units.
func (r *Registry) FriendlyCount() int {
	n := 0
	for _, u := range r.units {
		if u.IsFriendly() {
			n++
		}
	}
	return n
}

// AliveFoodItems returns registered food items in registration order.
func (r *Registry) AliveFoodItems() []*core.FoodItem {
	out := make([]*core.FoodItem, 0, len(r.foodOrder))
	for _, id := range r.foodOrder {
		out = append(out, r.food[id])
	}
	return out
}

// Items returns registered items in registration order.
func (r *Registry) Items() []*core.Item {
	out := make([]*core.Item, 0, len(r.itemOrder))
	for _, id := range r.itemOrder {
		out = append(out, r.items[id])
	}
	return out
}

// PopulationCount counts every entity occupying a board slot. Coins are held as
// a balance and never count.
func (r *Registry) PopulationCount() int {
	return len(r.units) + len(r.food) + len(r.items)
}

// Capacity is the base capacity plus every structure's bonus.
func (r *Registry) Capacity() int {
	c := r.baseCapacity
	for _, it := range r.items {
		c += max(0, it.Capacity)
	}
	return c
}

// OverCapacity is how many entities must be sold before the board fits.
func (r *Registry) OverCapacity() int {
	return max(0, r.PopulationCount()-r.Capacity())
}

// Coins is the coin balance.
func (r *Registry) Coins() int { return r.coins }

// KillUnit takes a unit out of play. With a corpse configured the unit stays on
// the board as remains, otherwise it is removed. Unknown IDs are ignored.
func (r *Registry) KillUnit(id core.ID) bool {
	u, ok := r.units[id]
	if !ok || u.Corpse {
		return false
	}
	if r.corpse == nil {
		r.removeUnit(id)
		r.notify(id, ReasonKilled)
		return true
	}
	u.Alive = false
	u.Corpse = true
	u.Role = core.RoleNone
	u.HP = 0
	u.Hunger = 0
	u.DailyHunger = 0
	u.Chases = false
	u.LootTable = ""
	u.Template = r.corpse.Template
	u.Name = r.corpse.Name
	u.Value = r.corpse.Value
	r.notify(id, ReasonKilled)
	return true
}

// Remove deletes any entity. Unknown IDs are ignored.
func (r *Registry) Remove(id core.ID) bool {
	return r.remove(id, ReasonRemoved)
}

// Consume deletes a depleted food item.
func (r *Registry) Consume(id core.ID) bool {
	if _, ok := r.food[id]; !ok {
		return false
	}
	return r.remove(id, ReasonConsumed)
}

// Sell removes an entity and credits its value. It reports the coins earned.
func (r *Registry) Sell(id core.ID) (int, bool) {
	value, ok := r.value(id)
	if !ok {
		return 0, false
	}
	r.remove(id, ReasonSold)
	r.coins += max(0, value)
	return max(0, value), true
}

// SellOrder returns sellable entity IDs, cheapest first, with living friendly
// units last. Ties keep registration order.
func (r *Registry) SellOrder() []core.ID {
	type candidate struct {
		id       core.ID
		value    int
		friendly bool
	}
	var cs []candidate
	for _, id := range r.unitOrder {
		u := r.units[id]
		cs = append(cs, candidate{id, u.Value, u.IsFriendly()})
	}
	for _, id := range r.foodOrder {
		cs = append(cs, candidate{id, r.food[id].Value, false})
	}
	for _, id := range r.itemOrder {
		it := r.items[id]
		if it.Capacity > 0 {
			continue
		}
		cs = append(cs, candidate{id, it.Value, false})
	}
	slices.SortStableFunc(cs, func(a, b candidate) int {
		if a.friendly != b.friendly {
			if a.friendly {
				return 1
			}
			return -1
		}
		return a.value - b.value
	})
	out := make([]core.ID, len(cs))
	for i, c := range cs {
		out[i] = c.id
	}
	return out
}

func (r *Registry) value(id core.ID) (int, bool) {
	if u, ok := r.units[id]; ok {
		return u.Value, true
	}
	if f, ok := r.food[id]; ok {
		return f.Value, true
	}
	if it, ok := r.items[id]; ok {
		return it.Value, true
	}
	return 0, false
}

func (r *Registry) remove(id core.ID, reason Reason) bool {
	switch {
	case r.units[id] != nil:
		r.removeUnit(id)
	case r.food[id] != nil:
		delete(r.food, id)
		r.foodOrder = deleteID(r.foodOrder, id)
	case r.items[id] != nil:
		delete(r.items, id)
		r.itemOrder = deleteID(r.itemOrder, id)
	default:
		return false
	}
	r.notify(id, reason)
	return true
}

func (r *Registry) removeUnit(id core.ID) {
	delete(r.units, id)
	r.unitOrder = deleteID(r.unitOrder, id)
}

func deleteID(ids []core.ID, id core.ID) []core.ID {
	if i := slices.Index(ids, id); i >= 0 {
		return slices.Delete(ids, i, i+1)
	}
	return ids
}

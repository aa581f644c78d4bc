// Package feeding distributes food stock among the colony once per day.
//
// Prepare resets the day's requirements, Plan previews the bites for
// presentation, and Resolve performs the allocation. Units are fed in
// registration order, always from the first food item that still has
// saturation, so outcomes depend on order rather than need.
package feeding

import (
	"io"
	"log/slog"

	"github.com/moonfall/colonysim/pkg/core"
)

// Stock is the population view the resolver works on.
type Stock interface {
	AliveFriendlyUnits() []*core.Unit
	AliveFoodItems() []*core.FoodItem
	// Consume removes a depleted food item.
	Consume(id core.ID) bool
}

// Bite is one transfer of saturation from a food item to a unit.
type Bite struct {
	UnitID core.ID
	FoodID core.ID
	Amount int
}

// Result is the verdict of one pass.
type Result struct {
	AllSatisfied bool
	Hungry       []core.HungryUnit
	Bites        []Bite
	Consumed     int
	FoodRemoved  []core.ID
}

// Resolver runs the feeding pass.
type Resolver struct {
	stock Stock
	log   *slog.Logger
}

// New returns a resolver over stock. A nil logger discards output.
func New(stock Stock, log *slog.Logger) *Resolver {
	if log == nil {
		log = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return &Resolver{stock: stock, log: log}
}

// Prepare resets every friendly unit's deficit to its daily requirement and
// restores stale food saturation (zero or above the template) to the template.
func (r *Resolver) Prepare() {
	for _, u := range r.stock.AliveFriendlyUnits() {
		u.Hunger = max(0, u.DailyHunger)
	}
	for _, f := range r.stock.AliveFoodItems() {
		if f.MaxSaturation <= 0 {
			continue
		}
		if f.Saturation <= 0 || f.Saturation > f.MaxSaturation {
			f.Saturation = f.MaxSaturation
		}
	}
}

// Plan returns the bites Resolve would perform, without changing anything.
func (r *Resolver) Plan() []Bite {
	units := r.stock.AliveFriendlyUnits()
	foods := r.stock.AliveFoodItems()

	deficit := make([]int, len(units))
	for i, u := range units {
		deficit[i] = u.Hunger
	}
	remaining := make([]int, len(foods))
	for i, f := range foods {
		remaining[i] = f.Saturation
	}
	return allocate(units, foods, deficit, remaining)
}

// Resolve feeds the colony and removes depleted food.
func (r *Resolver) Resolve() Result {
	units := r.stock.AliveFriendlyUnits()
	foods := r.stock.AliveFoodItems()

	deficit := make([]int, len(units))
	for i, u := range units {
		deficit[i] = u.Hunger
	}
	remaining := make([]int, len(foods))
	for i, f := range foods {
		remaining[i] = f.Saturation
	}

	res := Result{Bites: allocate(units, foods, deficit, remaining)}
	for i, u := range units {
		u.Hunger = deficit[i]
		if u.Hunger > 0 {
			res.Hungry = append(res.Hungry, core.HungryUnit{UnitID: u.ID, Name: u.Name, Deficit: u.Hunger})
		}
	}
	for _, b := range res.Bites {
		res.Consumed += b.Amount
	}
	for i, f := range foods {
		f.Saturation = remaining[i]
		if f.Saturation == 0 {
			res.FoodRemoved = append(res.FoodRemoved, f.ID)
		}
	}
	for _, id := range res.FoodRemoved {
		r.stock.Consume(id)
	}
	res.AllSatisfied = len(res.Hungry) == 0

	r.log.Debug("feeding resolved",
		"units", len(units),
		"hungry", len(res.Hungry),
		"consumed", res.Consumed,
		"foodRemoved", len(res.FoodRemoved))
	return res
}

// allocate mutates deficit and remaining in place and returns the bites taken.
func allocate(units []*core.Unit, foods []*core.FoodItem, deficit, remaining []int) []Bite {
	var bites []Bite
	for i, u := range units {
		for deficit[i] > 0 {
			j := firstWithSaturation(remaining)
			if j < 0 {
				break
			}
			amount := min(deficit[i], remaining[j])
			deficit[i] -= amount
			remaining[j] -= amount
			bites = append(bites, Bite{UnitID: u.ID, FoodID: foods[j].ID, Amount: amount})
		}
	}
	return bites
}

func firstWithSaturation(remaining []int) int {
	for j, s := range remaining {
		if s > 0 {
			return j
		}
	}
	return -1
}

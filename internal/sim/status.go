package sim

import (
	"github.com/moonfall/colonysim/internal/presentation"
	"github.com/moonfall/colonysim/pkg/core"
)

// UnitView is a read-only copy of a unit.
type UnitView struct {
	ID       core.ID       `json:"id"`
	Name     string        `json:"name"`
	Role     string        `json:"role"`
	HP       int           `json:"hp"`
	MaxHP    int           `json:"maxHp"`
	Hunger   int           `json:"hunger"`
	Corpse   bool          `json:"corpse,omitempty"`
	InBattle bool          `json:"inBattle,omitempty"`
	Position core.Position `json:"position"`
}

// FoodView is a read-only copy of a food item.
type FoodView struct {
	ID         core.ID       `json:"id"`
	Name       string        `json:"name"`
	Saturation int           `json:"saturation"`
	Position   core.Position `json:"position"`
}

// ItemView is a read-only copy of an item.
type ItemView struct {
	ID       core.ID       `json:"id"`
	Name     string        `json:"name"`
	Value    int           `json:"value"`
	Capacity int           `json:"capacity,omitempty"`
	Position core.Position `json:"position"`
}

// Status is the snapshot published at the end of every tick.
type Status struct {
	Tick           uint64            `json:"tick"`
	Day            int               `json:"day"`
	State          string            `json:"state"`
	Progress       float64           `json:"progress"`
	Paused         bool              `json:"paused"`
	Speed          float64           `json:"speed"`
	Autopilot      bool              `json:"autopilot"`
	Friendlies     int               `json:"friendlies"`
	Population     int               `json:"population"`
	Capacity       int               `json:"capacity"`
	Coins          int               `json:"coins"`
	ActiveBattles  int               `json:"activeBattles"`
	BattlesStarted int               `json:"battlesStarted"`
	Hungry         []core.HungryUnit `json:"hungry,omitempty"`
	Cue            presentation.Cue  `json:"cue"`
	Units          []UnitView        `json:"units"`
	Food           []FoodView        `json:"food"`
	Items          []ItemView        `json:"items"`
}

// Status returns the latest snapshot. It is safe to call from any goroutine;
// the slices are never modified after publication.
func (s *Simulation) Status() Status {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.status
}

func (s *Simulation) snapshot() {
	st := Status{
		Tick:           s.ticks,
		Day:            s.day.Day(),
		State:          s.day.State().String(),
		Progress:       s.day.NormalizedDayProgress(),
		Paused:         s.clock.Paused(),
		Speed:          s.clock.Speed(),
		Autopilot:      s.autopilot,
		Friendlies:     s.board.FriendlyCount(),
		Population:     s.board.PopulationCount(),
		Capacity:       s.board.Capacity(),
		Coins:          s.board.Coins(),
		ActiveBattles:  s.combat.Active(),
		BattlesStarted: s.combat.Started(),
		Hungry:         s.day.LastHungryUnits(),
		Cue:            s.animator.Cue(),
	}
	units := s.board.Units()
	st.Units = make([]UnitView, 0, len(units))
	for _, u := range units {
		st.Units = append(st.Units, UnitView{
			ID:       u.ID,
			Name:     u.Name,
			Role:     u.Role.String(),
			HP:       u.HP,
			MaxHP:    u.MaxHP,
			Hunger:   u.Hunger,
			Corpse:   u.Corpse,
			InBattle: s.combat.InBattle(u.ID),
			Position: u.Position,
		})
	}
	food := s.board.AliveFoodItems()
	st.Food = make([]FoodView, 0, len(food))
	for _, f := range food {
		st.Food = append(st.Food, FoodView{ID: f.ID, Name: f.Name, Saturation: f.Saturation, Position: f.Position})
	}
	items := s.board.Items()
	st.Items = make([]ItemView, 0, len(items))
	for _, it := range items {
		st.Items = append(st.Items, ItemView{ID: it.ID, Name: it.Name, Value: it.Value, Capacity: it.Capacity, Position: it.Position})
	}

	s.mu.Lock()
	s.status = st
	s.mu.Unlock()
}

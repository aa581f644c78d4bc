package core

// Unit is a combatant and, when friendly, a feedable member of the colony.
type Unit struct {
	ID          ID
	Template    string
	Name        string
	Role        Role
	Alive       bool
	Corpse      bool
	HP          int
	MaxHP       int
	Attack      int
	HitChance   int // percent, 0-100
	Hunger      int // remaining deficit this day, 0 = satisfied
	DailyHunger int
	Position    Position
	Value       int    // coins paid when sold
	LootTable   string // name of the loot table rolled on death
	Chases      bool   // moves toward the nearest friendly while the day runs
	// ChaseSpeed and EngageRadius override the chase rule when positive.
	ChaseSpeed   float64
	EngageRadius float64
}

// IsFriendly reports whether u is a living member of the colony.
func (u *Unit) IsFriendly() bool {
	return u != nil && u.Alive && u.Role == RoleFriendly
}

// IsOpponent reports whether u is a living hostile or passive unit.
func (u *Unit) IsOpponent() bool {
	return u != nil && u.Alive && u.Role.Opposes()
}

// FoodItem is a stock of saturation consumed during feeding.
type FoodItem struct {
	ID            ID
	Template      string
	Name          string
	Saturation    int
	MaxSaturation int
	Position      Position
	Value         int
}

// Item is any other board entity: loot resources and capacity structures.
type Item struct {
	ID       ID
	Template string
	Name     string
	Position Position
	Value    int
	Capacity int // extra population capacity granted while on the board
}

// LootEntry is one weighted outcome of a loot table.
type LootEntry struct {
	Template string `yaml:"template" json:"template"`
	Weight   int    `yaml:"weight" json:"weight"`
}

// LootTable describes how many drops a defeated unit yields and what they are.
type LootTable struct {
	Name    string      `yaml:"name" json:"name"`
	Min     int         `yaml:"min" json:"min"`
	Max     int         `yaml:"max" json:"max"`
	Entries []LootEntry `yaml:"entries" json:"entries"`
}

// TotalWeight sums the positive weights of the table.
func (t *LootTable) TotalWeight() int {
	total := 0
	for _, e := range t.Entries {
		if e.Weight > 0 {
			total += e.Weight
		}
	}
	return total
}

// Package catalog loads unit, food and item templates, loot tables and the
// starting board from YAML, and spawns entities from them.
package catalog

import (
	_ "embed"
	"errors"
	"fmt"
	"os"
	"sort"

	"gopkg.in/yaml.v3"

	"github.com/moonfall/colonysim/internal/population"
	"github.com/moonfall/colonysim/pkg/core"
)

//go:embed default.yaml
var defaultCatalog []byte

// ErrUnknownTemplate is returned when a template name is not in the catalog.
var ErrUnknownTemplate = errors.New("unknown template")

// UnitTemplate describes a unit kind.
type UnitTemplate struct {
	Name      string `yaml:"name"`
	Role      string `yaml:"role"`
	HP        int    `yaml:"hp"`
	Attack    int    `yaml:"attack"`
	HitChance int    `yaml:"hit_chance"`
	Hunger    int    `yaml:"hunger"`
	Value     int    `yaml:"value"`
	Loot      string `yaml:"loot"`
	Chases    bool   `yaml:"chases"`
	// ChaseSpeed and EngageRadius fall back to the chase config when zero.
	ChaseSpeed   float64 `yaml:"chase_speed"`
	EngageRadius float64 `yaml:"engage_radius"`

	role core.Role
}

// FoodTemplate describes a food kind.
type FoodTemplate struct {
	Name       string `yaml:"name"`
	Saturation int    `yaml:"saturation"`
	Value      int    `yaml:"value"`
}

// ItemTemplate describes a resource or structure.
type ItemTemplate struct {
	Name     string `yaml:"name"`
	Value    int    `yaml:"value"`
	Capacity int    `yaml:"capacity"`
}

// CorpseTemplate is what killed friendly units turn into. A nil corpse removes them.
type CorpseTemplate struct {
	Name  string `yaml:"name"`
	Value int    `yaml:"value"`
}

// Placement puts a template on the board.
type Placement struct {
	Template string  `yaml:"template"`
	X        float64 `yaml:"x"`
	Y        float64 `yaml:"y"`
}

// Wave spawns a placement at the start of a day.
type Wave struct {
	Day       int `yaml:"day"`
	Placement `yaml:",inline"`
}

// Catalog is the parsed template file.
type Catalog struct {
	Corpse *CorpseTemplate            `yaml:"corpse"`
	Units  map[string]*UnitTemplate   `yaml:"units"`
	Food   map[string]*FoodTemplate   `yaml:"food"`
	Items  map[string]*ItemTemplate   `yaml:"items"`
	Loot   map[string]*core.LootTable `yaml:"loot"`
	Board  []Placement                `yaml:"board"`
	Waves  []Wave                     `yaml:"waves"`
}

// Default returns the embedded catalog.
func Default() (*Catalog, error) {
	return Parse(defaultCatalog)
}

// Load reads a catalog file. An empty path loads the embedded catalog.
func Load(path string) (*Catalog, error) {
	if path == "" {
		return Default()
	}
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading catalog: %w", err)
	}
	c, err := Parse(raw)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return c, nil
}

// Parse decodes and validates a catalog document.
func Parse(raw []byte) (*Catalog, error) {
	var c Catalog
	if err := yaml.Unmarshal(raw, &c); err != nil {
		return nil, fmt.Errorf("catalog yaml: %w", err)
	}
	if err := c.validate(); err != nil {
		return nil, err
	}
	return &c, nil
}

func (c *Catalog) validate() error {
	seen := make(map[string]string)
	claim := func(kind, name string) error {
		if other, ok := seen[name]; ok {
			return fmt.Errorf("template %q defined as both %s and %s", name, other, kind)
		}
		seen[name] = kind
		return nil
	}
	for _, name := range sortedKeys(c.Units) {
		u := c.Units[name]
		if u == nil {
			return fmt.Errorf("unit %q: empty template", name)
		}
		if err := claim("unit", name); err != nil {
			return err
		}
		r, err := core.ParseRole(u.Role)
		if err != nil || r == core.RoleNone {
			return fmt.Errorf("unit %q: role %q must be friendly, hostile or passive", name, u.Role)
		}
		u.role = r
		if u.HP <= 0 {
			return fmt.Errorf("unit %q: hp must be positive", name)
		}
		if u.HitChance < 0 || u.HitChance > 100 {
			return fmt.Errorf("unit %q: hit_chance %d out of range", name, u.HitChance)
		}
		if u.ChaseSpeed < 0 || u.EngageRadius < 0 {
			return fmt.Errorf("unit %q: chase_speed and engage_radius must not be negative", name)
		}
		if u.Loot != "" && c.Loot[u.Loot] == nil {
			return fmt.Errorf("unit %q: unknown loot table %q", name, u.Loot)
		}
	}
	for _, name := range sortedKeys(c.Food) {
		if c.Food[name] == nil || c.Food[name].Saturation <= 0 {
			return fmt.Errorf("food %q: saturation must be positive", name)
		}
		if err := claim("food", name); err != nil {
			return err
		}
	}
	for _, name := range sortedKeys(c.Items) {
		if c.Items[name] == nil {
			return fmt.Errorf("item %q: empty template", name)
		}
		if err := claim("item", name); err != nil {
			return err
		}
	}
	for _, name := range sortedKeys(c.Loot) {
		t := c.Loot[name]
		if t == nil {
			return fmt.Errorf("loot %q: empty table", name)
		}
		t.Name = name
		if t.Min < 0 || t.Max < t.Min {
			return fmt.Errorf("loot %q: invalid range [%d, %d]", name, t.Min, t.Max)
		}
		for _, e := range t.Entries {
			if e.Weight <= 0 {
				return fmt.Errorf("loot %q: entry %q needs a positive weight", name, e.Template)
			}
			if _, ok := seen[e.Template]; !ok {
				return fmt.Errorf("loot %q: %w %q", name, ErrUnknownTemplate, e.Template)
			}
		}
	}
	for i, p := range c.Board {
		if _, ok := seen[p.Template]; !ok {
			return fmt.Errorf("board[%d]: %w %q", i, ErrUnknownTemplate, p.Template)
		}
	}
	for i, w := range c.Waves {
		if _, ok := seen[w.Template]; !ok {
			return fmt.Errorf("waves[%d]: %w %q", i, ErrUnknownTemplate, w.Template)
		}
	}
	return nil
}

// LootTables returns the loot tables by name.
func (c *Catalog) LootTables() map[string]core.LootTable {
	out := make(map[string]core.LootTable, len(c.Loot))
	for name, t := range c.Loot {
		out[name] = *t
	}
	return out
}

// CorpseOption configures the registry for this catalog's corpse, if any.
func (c *Catalog) CorpseOption() []population.Option {
	if c.Corpse == nil {
		return nil
	}
	return []population.Option{population.WithCorpse(population.Corpse{
		Template: "corpse",
		Name:     c.Corpse.Name,
		Value:    c.Corpse.Value,
	})}
}

// WavesFor returns the placements scheduled for day.
func (c *Catalog) WavesFor(day int) []Placement {
	var out []Placement
	for _, w := range c.Waves {
		if w.Day == day {
			out = append(out, w.Placement)
		}
	}
	return out
}

// Spawn creates one entity from a template at pos.
func (c *Catalog) Spawn(reg *population.Registry, template string, pos core.Position) (core.ID, error) {
	if u, ok := c.Units[template]; ok {
		return reg.AddUnit(&core.Unit{
			Template:    template,
			Name:        u.Name,
			Role:        u.role,
			Alive:       true,
			HP:          u.HP,
			MaxHP:       u.HP,
			Attack:      u.Attack,
			HitChance:   u.HitChance,
			DailyHunger: max(0, u.Hunger),
			Position:    pos,
			Value:       u.Value,
			LootTable:   u.Loot,
			Chases:      u.Chases,

			ChaseSpeed:   u.ChaseSpeed,
			EngageRadius: u.EngageRadius,
		}), nil
	}
	if f, ok := c.Food[template]; ok {
		return reg.AddFood(&core.FoodItem{
			Template:      template,
			Name:          f.Name,
			Saturation:    f.Saturation,
			MaxSaturation: f.Saturation,
			Position:      pos,
			Value:         f.Value,
		}), nil
	}
	if it, ok := c.Items[template]; ok {
		return reg.AddItem(&core.Item{
			Template: template,
			Name:     it.Name,
			Position: pos,
			Value:    it.Value,
			Capacity: it.Capacity,
		}), nil
	}
	return 0, fmt.Errorf("%w %q", ErrUnknownTemplate, template)
}

// Populate places the starting board.
func (c *Catalog) Populate(reg *population.Registry) error {
	for _, p := range c.Board {
		if _, err := c.Spawn(reg, p.Template, core.Position{X: p.X, Y: p.Y}); err != nil {
			return err
		}
	}
	return nil
}

func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

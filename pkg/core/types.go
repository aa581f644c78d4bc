package core

import (
	"fmt"
	"strings"

	"github.com/peterstace/simplefeatures/geom"
)

// ID addresses every entity on the board. IDs are never reused within a run.
type ID uint32

// Role tags a unit for combat and feeding eligibility.
type Role uint8

const (
	RoleNone Role = iota
	RoleFriendly
	RoleHostile
	RolePassive
)

var roleNames = map[Role]string{
	RoleNone:     "none",
	RoleFriendly: "friendly",
	RoleHostile:  "hostile",
	RolePassive:  "passive",
}

func (r Role) String() string {
	if s, ok := roleNames[r]; ok {
		return s
	}
	return fmt.Sprintf("role(%d)", uint8(r))
}

// Opposes reports whether a unit with this role can be engaged by a friendly unit.
func (r Role) Opposes() bool {
	return r == RoleHostile || r == RolePassive
}

// ParseRole converts a catalog role name into a Role.
func ParseRole(s string) (Role, error) {
	for r, name := range roleNames {
		if strings.EqualFold(s, name) {
			return r, nil
		}
	}
	return RoleNone, fmt.Errorf("unknown role %q", s)
}

// Position is a point on the board plane.
type Position struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// Add returns p offset by o.
func (p Position) Add(o Position) Position {
	return Position{X: p.X + o.X, Y: p.Y + o.Y}
}

// XY returns p as a geom vector.
func (p Position) XY() geom.XY {
	return geom.XY{X: p.X, Y: p.Y}
}

// DistanceTo returns the euclidean distance between p and o.
func (p Position) DistanceTo(o Position) float64 {
	return o.XY().Sub(p.XY()).Length()
}

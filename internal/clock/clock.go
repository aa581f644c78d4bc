// Package clock converts real elapsed time into simulation time.
package clock

import (
	"errors"
	"fmt"
	"slices"
	"time"
)

// ErrUnsupportedSpeed is returned when a speed outside the configured set is requested.
var ErrUnsupportedSpeed = errors.New("unsupported speed")

// PauseReason identifies who holds a pause. The clock is paused while any reason is held.
type PauseReason uint8

const (
	// PauseUser is toggled by the player.
	PauseUser PauseReason = 1 << iota
	// PausePhase is held by the day cycle outside the Running phase.
	PausePhase
)

// Frame carries both deltas of one tick. Sim is zero while paused.
type Frame struct {
	Real time.Duration
	Sim  time.Duration
}

// VirtualClock is the single time source for every timed subsystem.
type VirtualClock struct {
	speeds []float64
	speed  int // index into speeds
	paused PauseReason
	now    time.Duration // accumulated simulation time
}

// New returns a running clock at the first configured speed.
// An empty speed list defaults to 1x and 2x.
func New(speeds ...float64) *VirtualClock {
	s := make([]float64, 0, len(speeds))
	for _, v := range speeds {
		if v > 0 && !slices.Contains(s, v) {
			s = append(s, v)
		}
	}
	if len(s) == 0 {
		s = []float64{1, 2}
	}
	return &VirtualClock{speeds: s}
}

// Advance converts a real delta into a simulation delta.
func (c *VirtualClock) Advance(elapsed time.Duration) time.Duration {
	if c.paused != 0 || elapsed <= 0 {
		return 0
	}
	sim := time.Duration(float64(elapsed) * c.speeds[c.speed])
	c.now += sim
	return sim
}

// Tick advances the clock and returns both deltas.
func (c *VirtualClock) Tick(elapsed time.Duration) Frame {
	return Frame{Real: elapsed, Sim: c.Advance(elapsed)}
}

// Now is the total simulation time elapsed since the clock was created.
func (c *VirtualClock) Now() time.Duration { return c.now }

// Paused reports whether any pause reason is held.
func (c *VirtualClock) Paused() bool { return c.paused != 0 }

// Held reports whether the given reason is currently held.
func (c *VirtualClock) Held(r PauseReason) bool { return c.paused&r != 0 }

// Pause holds r. Holding an already held reason is a no-op.
func (c *VirtualClock) Pause(r PauseReason) { c.paused |= r }

// Resume releases r.
func (c *VirtualClock) Resume(r PauseReason) { c.paused &^= r }

// TogglePause flips the player pause.
func (c *VirtualClock) TogglePause() {
	c.paused ^= PauseUser
}

// FastForward releases a player pause at base speed, otherwise cycles to the next speed.
func (c *VirtualClock) FastForward() {
	if c.Held(PauseUser) {
		c.Resume(PauseUser)
		c.speed = 0
		return
	}
	c.speed = (c.speed + 1) % len(c.speeds)
}

// Speed is the active multiplier.
func (c *VirtualClock) Speed() float64 { return c.speeds[c.speed] }

// Speeds returns a copy of the configured speed set.
func (c *VirtualClock) Speeds() []float64 { return slices.Clone(c.speeds) }

// SetSpeed selects a multiplier from the configured set.
func (c *VirtualClock) SetSpeed(s float64) error {
	i := slices.Index(c.speeds, s)
	if i < 0 {
		return fmt.Errorf("%w: %gx", ErrUnsupportedSpeed, s)
	}
	c.speed = i
	return nil
}

// ResetSpeed returns to the base multiplier.
func (c *VirtualClock) ResetSpeed() { c.speed = 0 }

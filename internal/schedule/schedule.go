// Package schedule holds the resumable building blocks used by every timed
// sequence: a wait that accumulates virtual time and an ordered list of
// delayed steps. Nothing here blocks; owners call Advance once per tick.
package schedule

import "time"

// Gate reports whether a sequence may progress this tick.
type Gate func() bool

// Open is a gate that never holds.
func Open() bool { return true }

// Wait accumulates time until its target is reached.
type Wait struct {
	target  time.Duration
	elapsed time.Duration
	active  bool
}

// Start arms the wait for d. A non-positive d completes on the next Advance.
func (w *Wait) Start(d time.Duration) {
	w.target = d
	w.elapsed = 0
	w.active = true
}

// Active reports whether the wait is armed and not yet complete.
func (w *Wait) Active() bool { return w.active }

// Remaining is the time still to accumulate.
func (w *Wait) Remaining() time.Duration {
	if !w.active {
		return 0
	}
	return max(0, w.target-w.elapsed)
}

// Advance adds dt and reports whether the wait completed on this call.
// Leftover time is not carried over.
func (w *Wait) Advance(dt time.Duration) bool {
	if !w.active {
		return false
	}
	if dt > 0 {
		w.elapsed += dt
	}
	if w.elapsed >= w.target {
		w.active = false
		return true
	}
	return false
}

// Stop disarms the wait without completing it.
func (w *Wait) Stop() { w.active = false }

type step struct {
	delay time.Duration
	do    func()
}

// Sequence runs steps in order, each after its own delay.
type Sequence struct {
	steps []step
	next  int
	wait  Wait
}

// Then appends a step that runs fn once d has elapsed after the previous step.
// fn may be nil for a pure delay.
func (s *Sequence) Then(d time.Duration, fn func()) *Sequence {
	s.steps = append(s.steps, step{delay: d, do: fn})
	return s
}

// Len is the number of steps, including completed ones.
func (s *Sequence) Len() int { return len(s.steps) }

// Done reports whether every step has run.
func (s *Sequence) Done() bool { return s.next >= len(s.steps) }

// Advance progresses the sequence by dt. Several zero-delay steps may run in one call,
// but a positive delay always needs its own Advance to elapse.
func (s *Sequence) Advance(dt time.Duration) {
	for !s.Done() {
		if !s.wait.Active() {
			s.wait.Start(s.steps[s.next].delay)
		}
		if !s.wait.Advance(dt) {
			return
		}
		dt = 0
		fn := s.steps[s.next].do
		s.next++
		if fn != nil {
			fn()
		}
	}
}

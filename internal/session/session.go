// Package session holds the identity of the current run and the live day
// status that log records and status snapshots read from.
package session

import (
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/moonfall/colonysim/pkg/core"
)

// Context is shared between the tick goroutine and the journal workers.
type Context struct {
	mu    sync.RWMutex
	run   *core.Run
	day   int
	state core.DayState
}

// NewContext starts a run with a fresh ID.
func NewContext(name string, seed uint64, dayLength time.Duration, version string) *Context {
	return &Context{
		run: &core.Run{
			ID:        uuid.NewString(),
			Name:      name,
			StartTime: time.Now().UTC(),
			Seed:      seed,
			DayLength: dayLength,
			Version:   version,
		},
		day: 1,
	}
}

// Run returns a copy of the run identity.
func (c *Context) Run() core.Run {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return *c.run
}

// SetDay updates the live day and state.
func (c *Context) SetDay(day int, state core.DayState) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.day = day
	c.state = state
}

// Day returns the live day and state.
func (c *Context) Day() (int, core.DayState) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.day, c.state
}

// Summary closes the run at the current day.
func (c *Context) Summary(survived int) *core.RunSummary {
	day, state := c.Day()
	return &core.RunSummary{
		EndTime:  time.Now().UTC(),
		Days:     day,
		Final:    state,
		Survived: survived,
	}
}

// Attrs is a logging.ContextProvider.
func (c *Context) Attrs() []slog.Attr {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return []slog.Attr{
		slog.String("run", c.run.ID),
		slog.Int("day", c.day),
		slog.String("state", c.state.String()),
	}
}

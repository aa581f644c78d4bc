// Package worker moves journal records from the simulation to storage. The
// simulation publishes synchronously on its tick; records are queued per kind
// in the dispatcher and written by background handlers.
package worker

import (
	"errors"
	"fmt"
	"strings"
	"sync/atomic"
	"time"

	"github.com/moonfall/colonysim/internal/dispatcher"
	"github.com/moonfall/colonysim/internal/storage"
	"github.com/moonfall/colonysim/pkg/core"
)

// ErrNotEvent is returned by a journal handler whose payload is not a core.Event.
var ErrNotEvent = errors.New("payload is not a journal event")

// DaySink receives each day summary after it has been stored. The InfluxDB
// client implements it.
type DaySink interface {
	WriteDaySummary(s *core.DaySummary) error
}

// Logger is the subset of logging the manager needs.
type Logger interface {
	Debug(msg string, keysAndValues ...any)
	Error(msg string, keysAndValues ...any)
}

// Dependencies holds everything the manager writes to.
type Dependencies struct {
	Backend storage.Backend
	// Sink is optional.
	Sink   DaySink
	Logger Logger
}

// Manager publishes journal records through a dispatcher.
type Manager struct {
	deps       Dependencies
	dispatcher *dispatcher.Dispatcher

	published atomic.Int64
	rejected  atomic.Int64
	failed    atomic.Int64
}

// NewManager creates a manager. A nil backend stores nothing.
func NewManager(deps Dependencies) *Manager {
	if deps.Backend == nil {
		deps.Backend = storage.Nop{}
	}
	return &Manager{deps: deps}
}

// Command returns the dispatcher command a journal kind is routed on.
func Command(kind string) string {
	return ":JOURNAL:" + strings.ToUpper(kind) + ":"
}

// Publish hands a record to its queue. A full queue or a missing handler drops
// the record and counts it as rejected; the simulation never blocks on storage.
func (m *Manager) Publish(e core.Event) {
	if m.dispatcher == nil {
		m.rejected.Add(1)
		return
	}
	_, err := m.dispatcher.Dispatch(dispatcher.Event{
		Command:   Command(e.Kind()),
		Payload:   e,
		Timestamp: time.Now(),
	})
	if err != nil {
		m.rejected.Add(1)
		if m.deps.Logger != nil {
			m.deps.Logger.Error("journal record dropped", "kind", e.Kind(), "error", err)
		}
		return
	}
	m.published.Add(1)
}

// StartRun opens a run on the backend. It is synchronous so the backend has a
// run before the first record arrives.
func (m *Manager) StartRun(run *core.Run) error {
	if err := m.deps.Backend.StartRun(run); err != nil {
		return fmt.Errorf("starting run: %w", err)
	}
	return nil
}

// EndRun drains every queue, then closes the run on the backend. The manager
// accepts no records afterwards.
func (m *Manager) EndRun(summary *core.RunSummary) error {
	if m.dispatcher != nil {
		m.dispatcher.Close()
	}
	if err := m.deps.Backend.EndRun(summary); err != nil {
		return fmt.Errorf("ending run: %w", err)
	}
	return nil
}

// Stats counts records by fate.
type Stats struct {
	Published int64
	Rejected  int64
	Failed    int64
}

// Stats returns the current counters.
func (m *Manager) Stats() Stats {
	return Stats{
		Published: m.published.Load(),
		Rejected:  m.rejected.Load(),
		Failed:    m.failed.Load(),
	}
}

// WriteDurationProvider is an optional interface that backends can implement
// to expose their last batch write duration for monitoring.
type WriteDurationProvider interface {
	LastWriteDuration() time.Duration
}

// LastWriteDuration returns the duration of the backend's last write cycle.
// Returns 0 if the backend doesn't support this metric.
func (m *Manager) LastWriteDuration() time.Duration {
	if p, ok := m.deps.Backend.(WriteDurationProvider); ok {
		return p.LastWriteDuration()
	}
	return 0
}

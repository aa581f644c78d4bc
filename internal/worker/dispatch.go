package worker

import (
	"fmt"

	"github.com/moonfall/colonysim/internal/dispatcher"
	"github.com/moonfall/colonysim/internal/storage"
	"github.com/moonfall/colonysim/pkg/core"
)

// queueSizes are per kind. Attacks arrive several per battle turn.
var queueSizes = map[string]int{
	core.KindStateChange: 100,
	core.KindBattle:      1000,
	core.KindAttack:      5000,
	core.KindDeath:       1000,
	core.KindLoot:        1000,
	core.KindFeeding:     100,
	core.KindDaySummary:  100,
}

// Kinds lists the journal kinds in registration order.
var Kinds = []string{
	core.KindStateChange,
	core.KindBattle,
	core.KindAttack,
	core.KindDeath,
	core.KindLoot,
	core.KindFeeding,
	core.KindDaySummary,
}

// RegisterHandlers registers one buffered handler per journal kind and keeps
// the dispatcher for Publish and EndRun.
func (m *Manager) RegisterHandlers(d *dispatcher.Dispatcher) {
	m.dispatcher = d
	for _, kind := range Kinds {
		h := m.handleRecord
		if kind == core.KindDaySummary {
			h = m.handleDaySummary
		}
		// Day summaries are rare and must not be lost to a full queue.
		opts := []dispatcher.Option{dispatcher.Buffered(queueSizes[kind]), dispatcher.Logged()}
		if kind == core.KindDaySummary || kind == core.KindStateChange {
			opts = append(opts, dispatcher.Blocking())
		}
		d.Register(Command(kind), h, opts...)
	}
}

func (m *Manager) handleRecord(e dispatcher.Event) (any, error) {
	rec, ok := e.Payload.(core.Event)
	if !ok {
		m.failed.Add(1)
		return nil, fmt.Errorf("%w: %T", ErrNotEvent, e.Payload)
	}
	if err := storage.Record(m.deps.Backend, rec); err != nil {
		m.failed.Add(1)
		return nil, fmt.Errorf("recording %s: %w", rec.Kind(), err)
	}
	return nil, nil
}

func (m *Manager) handleDaySummary(e dispatcher.Event) (any, error) {
	if _, err := m.handleRecord(e); err != nil {
		return nil, err
	}
	if m.deps.Sink == nil {
		return nil, nil
	}
	s, ok := e.Payload.(core.DaySummary)
	if !ok {
		return nil, nil
	}
	if err := m.deps.Sink.WriteDaySummary(&s); err != nil {
		m.failed.Add(1)
		return nil, fmt.Errorf("writing day summary to sink: %w", err)
	}
	return nil, nil
}

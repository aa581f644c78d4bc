// Package storage defines the write-only journal backends a run is recorded to.
package storage

import (
	"errors"
	"fmt"

	"github.com/moonfall/colonysim/pkg/core"
)

// ErrNoRun is returned by backends that receive records outside StartRun/EndRun.
var ErrNoRun = errors.New("no run started")

// Backend is the interface all storage implementations must satisfy.
type Backend interface {
	// Lifecycle
	Init() error
	Close() error

	// Run management
	StartRun(run *core.Run) error
	EndRun(summary *core.RunSummary) error

	// Journal records
	RecordStateChange(e *core.StateChange) error
	RecordBattle(e *core.BattleRecord) error
	RecordAttack(e *core.Attack) error
	RecordDeath(e *core.Death) error
	RecordLootDrop(e *core.LootDrop) error
	RecordFeedingReport(e *core.FeedingReport) error
	RecordDaySummary(e *core.DaySummary) error
}

// Uploadable is implemented by backends that leave a file behind that can be
// uploaded to the web frontend.
type Uploadable interface {
	ExportedFilePath() string
	ExportMetadata() core.UploadMetadata
}

// Record routes e to the matching Backend method.
func Record(b Backend, e core.Event) error {
	switch ev := e.(type) {
	case core.StateChange:
		return b.RecordStateChange(&ev)
	case core.BattleRecord:
		return b.RecordBattle(&ev)
	case core.Attack:
		return b.RecordAttack(&ev)
	case core.Death:
		return b.RecordDeath(&ev)
	case core.LootDrop:
		return b.RecordLootDrop(&ev)
	case core.FeedingReport:
		return b.RecordFeedingReport(&ev)
	case core.DaySummary:
		return b.RecordDaySummary(&ev)
	default:
		return fmt.Errorf("unsupported journal event %T", e)
	}
}

// Nop discards everything. Used for storage.type "none".
type Nop struct{}

func (Nop) Init() error { return nil }
func (Nop) Close() error { return nil }
func (Nop) StartRun(*core.Run) error { return nil }
func (Nop) EndRun(*core.RunSummary) error { return nil }
func (Nop) RecordStateChange(*core.StateChange) error { return nil }
func (Nop) RecordBattle(*core.BattleRecord) error { return nil }
func (Nop) RecordAttack(*core.Attack) error { return nil }
func (Nop) RecordDeath(*core.Death) error { return nil }
func (Nop) RecordLootDrop(*core.LootDrop) error { return nil }
func (Nop) RecordFeedingReport(*core.FeedingReport) error { return nil }
func (Nop) RecordDaySummary(*core.DaySummary) error { return nil }

// Package memory keeps the run journal in memory and writes it to a single
// JSON file when the run ends.
package memory

import (
	"sync"

	"github.com/moonfall/colonysim/internal/config"
	"github.com/moonfall/colonysim/internal/storage"
	"github.com/moonfall/colonysim/pkg/core"
)

// Backend stores the run journal in memory and exports it at EndRun.
type Backend struct {
	cfg     config.MemoryConfig
	run     *core.Run
	summary *core.RunSummary

	stateChanges []core.StateChange
	battles      []core.BattleRecord
	attacks      []core.Attack
	deaths       []core.Death
	loot         []core.LootDrop
	feeding      []core.FeedingReport
	days         []core.DaySummary

	lastExportPath string
	mu             sync.RWMutex
}

// New creates a new memory backend.
func New(cfg config.MemoryConfig) *Backend {
	return &Backend{cfg: cfg}
}

// Init initializes the backend.
func (b *Backend) Init() error {
	return nil
}

// Close cleans up resources.
func (b *Backend) Close() error {
	return nil
}

// StartRun begins recording and clears anything left from a previous run.
func (b *Backend) StartRun(run *core.Run) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.run = run
	b.summary = nil
	b.stateChanges = nil
	b.battles = nil
	b.attacks = nil
	b.deaths = nil
	b.loot = nil
	b.feeding = nil
	b.days = nil
	return nil
}

// EndRun finalizes and exports the journal.
func (b *Backend) EndRun(summary *core.RunSummary) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.run == nil {
		return storage.ErrNoRun
	}
	b.summary = summary
	return b.export()
}

func (b *Backend) RecordStateChange(e *core.StateChange) error {
	return b.record(func() { b.stateChanges = append(b.stateChanges, *e) })
}

func (b *Backend) RecordBattle(e *core.BattleRecord) error {
	return b.record(func() { b.battles = append(b.battles, *e) })
}

func (b *Backend) RecordAttack(e *core.Attack) error {
	return b.record(func() { b.attacks = append(b.attacks, *e) })
}

func (b *Backend) RecordDeath(e *core.Death) error {
	return b.record(func() { b.deaths = append(b.deaths, *e) })
}

func (b *Backend) RecordLootDrop(e *core.LootDrop) error {
	return b.record(func() { b.loot = append(b.loot, *e) })
}

func (b *Backend) RecordFeedingReport(e *core.FeedingReport) error {
	return b.record(func() { b.feeding = append(b.feeding, *e) })
}

func (b *Backend) RecordDaySummary(e *core.DaySummary) error {
	return b.record(func() { b.days = append(b.days, *e) })
}

func (b *Backend) record(add func()) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.run == nil {
		return storage.ErrNoRun
	}
	add()
	return nil
}

// ExportedFilePath returns the path of the last export.
func (b *Backend) ExportedFilePath() string {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.lastExportPath
}

// ExportMetadata describes the last export for upload.
func (b *Backend) ExportMetadata() core.UploadMetadata {
	b.mu.RLock()
	defer b.mu.RUnlock()

	meta := core.UploadMetadata{}
	if b.run != nil {
		meta.RunName = b.run.Name
	}
	if b.summary != nil {
		meta.Days = b.summary.Days
		if b.run != nil {
			meta.RunDuration = b.summary.EndTime.Sub(b.run.StartTime).Seconds()
		}
	}
	return meta
}

// Package gormstorage implements storage.Backend on GORM with internal queues
// drained by a background writer goroutine. The sqlite and postgres backends
// embed it.
package gormstorage

import (
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"gorm.io/gorm"

	"github.com/moonfall/colonysim/internal/database"
	"github.com/moonfall/colonysim/internal/logging"
	"github.com/moonfall/colonysim/internal/model"
	"github.com/moonfall/colonysim/internal/model/convert"
	"github.com/moonfall/colonysim/internal/queue"
	"github.com/moonfall/colonysim/internal/storage"
	"github.com/moonfall/colonysim/pkg/core"
)

// DefaultFlushInterval is how often the writer drains the queues.
const DefaultFlushInterval = 2 * time.Second

// Dependencies holds all dependencies for the GORM storage backend.
type Dependencies struct {
	DB            *gorm.DB
	Logger        *slog.Logger
	FlushInterval time.Duration
}

// queues holds all the write queues for batch DB insertion.
type queues struct {
	StateChanges   *queue.Queue[model.StateChange]
	Battles        *queue.Queue[model.Battle]
	Attacks        *queue.Queue[model.Attack]
	Deaths         *queue.Queue[model.Death]
	LootDrops      *queue.Queue[model.LootDrop]
	FeedingReports *queue.Queue[model.FeedingReport]
	DaySummaries   *queue.Queue[model.DaySummary]
}

func newQueues() *queues {
	return &queues{
		StateChanges:   queue.New[model.StateChange](),
		Battles:        queue.New[model.Battle](),
		Attacks:        queue.New[model.Attack](),
		Deaths:         queue.New[model.Death](),
		LootDrops:      queue.New[model.LootDrop](),
		FeedingReports: queue.New[model.FeedingReport](),
		DaySummaries:   queue.New[model.DaySummary](),
	}
}

func (q *queues) pending() int {
	return q.StateChanges.Len() + q.Battles.Len() + q.Attacks.Len() + q.Deaths.Len() +
		q.LootDrops.Len() + q.FeedingReports.Len() + q.DaySummaries.Len()
}

// Backend implements storage.Backend using GORM with queue-based batch writes.
type Backend struct {
	deps   Dependencies
	log    *slog.Logger
	queues *queues

	runMu sync.RWMutex
	run   *model.Run

	writeMu             sync.Mutex
	lastDBWriteDuration atomic.Int64
	stopChan            chan struct{}
	done                chan struct{}
}

// New creates a new GORM storage backend. A nil DB keeps everything in the
// queues, which is enough for unit tests.
func New(deps Dependencies) *Backend {
	if deps.FlushInterval <= 0 {
		deps.FlushInterval = DefaultFlushInterval
	}
	log := deps.Logger
	if log == nil {
		log = logging.Discard()
	}
	return &Backend{deps: deps, log: log}
}

// DB returns the underlying connection.
func (b *Backend) DB() *gorm.DB {
	return b.deps.DB
}

// Init creates the queues, migrates the schema and starts the writer goroutine.
func (b *Backend) Init() error {
	b.queues = newQueues()
	b.stopChan = make(chan struct{})
	b.done = make(chan struct{})

	if b.deps.DB == nil {
		close(b.done)
		return nil
	}

	b.log.Info("migrating journal schema", "dialect", b.deps.DB.Dialector.Name())
	if err := database.Migrate(b.deps.DB); err != nil {
		return fmt.Errorf("failed to setup DB: %w", err)
	}

	go b.writerLoop()
	return nil
}

// Close stops the writer goroutine after a final flush.
func (b *Backend) Close() error {
	if b.stopChan == nil {
		return nil
	}
	select {
	case <-b.stopChan:
		return nil
	default:
	}
	close(b.stopChan)
	<-b.done
	b.flush()
	return nil
}

// StartRun inserts the run row. Records queued afterwards are stamped with its ID.
func (b *Backend) StartRun(run *core.Run) error {
	row := convert.CoreToRun(*run)
	if b.deps.DB != nil {
		if err := b.deps.DB.Create(&row).Error; err != nil {
			return fmt.Errorf("failed to insert run: %w", err)
		}
	}

	b.runMu.Lock()
	b.run = &row
	b.runMu.Unlock()
	return nil
}

// EndRun flushes pending records and writes the summary onto the run row.
func (b *Backend) EndRun(summary *core.RunSummary) error {
	b.runMu.Lock()
	defer b.runMu.Unlock()
	if b.run == nil {
		return storage.ErrNoRun
	}
	convert.ApplySummary(b.run, *summary)

	if b.deps.DB == nil {
		return nil
	}
	b.flushLocked(b.run.ID)
	if err := b.deps.DB.Save(b.run).Error; err != nil {
		return fmt.Errorf("failed to update run: %w", err)
	}
	return nil
}

// Run returns the current run row, or nil before StartRun.
func (b *Backend) Run() *model.Run {
	b.runMu.RLock()
	defer b.runMu.RUnlock()
	if b.run == nil {
		return nil
	}
	r := *b.run
	return &r
}

func (b *Backend) started() error {
	b.runMu.RLock()
	defer b.runMu.RUnlock()
	if b.run == nil {
		return storage.ErrNoRun
	}
	return nil
}

func (b *Backend) RecordStateChange(e *core.StateChange) error {
	if err := b.started(); err != nil {
		return err
	}
	b.queues.StateChanges.Push(convert.CoreToStateChange(*e))
	return nil
}

func (b *Backend) RecordBattle(e *core.BattleRecord) error {
	if err := b.started(); err != nil {
		return err
	}
	b.queues.Battles.Push(convert.CoreToBattle(*e))
	return nil
}

func (b *Backend) RecordAttack(e *core.Attack) error {
	if err := b.started(); err != nil {
		return err
	}
	b.queues.Attacks.Push(convert.CoreToAttack(*e))
	return nil
}

func (b *Backend) RecordDeath(e *core.Death) error {
	if err := b.started(); err != nil {
		return err
	}
	b.queues.Deaths.Push(convert.CoreToDeath(*e))
	return nil
}

func (b *Backend) RecordLootDrop(e *core.LootDrop) error {
	if err := b.started(); err != nil {
		return err
	}
	row, err := convert.CoreToLootDrop(*e)
	if err != nil {
		return err
	}
	b.queues.LootDrops.Push(row)
	return nil
}

func (b *Backend) RecordFeedingReport(e *core.FeedingReport) error {
	if err := b.started(); err != nil {
		return err
	}
	b.queues.FeedingReports.Push(convert.CoreToFeedingReport(*e))
	return nil
}

func (b *Backend) RecordDaySummary(e *core.DaySummary) error {
	if err := b.started(); err != nil {
		return err
	}
	b.queues.DaySummaries.Push(convert.CoreToDaySummary(*e))
	return nil
}

// Pending is the number of records waiting for the writer.
func (b *Backend) Pending() int {
	if b.queues == nil {
		return 0
	}
	return b.queues.pending()
}

// LastWriteDuration is how long the most recent flush took.
func (b *Backend) LastWriteDuration() time.Duration {
	return time.Duration(b.lastDBWriteDuration.Load())
}

// writeQueue writes all items from a queue in one transaction. On failure the
// items go back to the front of the queue for the next cycle.
func writeQueue[T any](db *gorm.DB, q *queue.Queue[T], name string, log *slog.Logger, prepare func([]T)) {
	if q.Empty() {
		return
	}

	items := q.Drain()
	if prepare != nil {
		prepare(items)
	}

	tx := db.Begin()
	if err := tx.Create(&items).Error; err != nil {
		log.Error("failed to write journal records", "table", name, "count", len(items), "error", err)
		tx.Rollback()
		q.Requeue(items...)
		return
	}
	if err := tx.Commit().Error; err != nil {
		log.Error("failed to commit journal records", "table", name, "error", err)
		q.Requeue(items...)
	}
}

func (b *Backend) flush() {
	b.runMu.RLock()
	defer b.runMu.RUnlock()
	if b.run == nil || b.deps.DB == nil {
		return
	}
	b.flushLocked(b.run.ID)
}

// flushLocked drains every queue. Caller holds runMu.
func (b *Backend) flushLocked(runID string) {
	b.writeMu.Lock()
	defer b.writeMu.Unlock()

	start := time.Now()
	db, q, log := b.deps.DB, b.queues, b.log

	writeQueue(db, q.StateChanges, "state_changes", log, func(items []model.StateChange) {
		for i := range items {
			items[i].RunID = runID
		}
	})
	writeQueue(db, q.Battles, "battles", log, func(items []model.Battle) {
		for i := range items {
			items[i].RunID = runID
		}
	})
	writeQueue(db, q.Attacks, "attacks", log, func(items []model.Attack) {
		for i := range items {
			items[i].RunID = runID
		}
	})
	writeQueue(db, q.Deaths, "deaths", log, func(items []model.Death) {
		for i := range items {
			items[i].RunID = runID
		}
	})
	writeQueue(db, q.LootDrops, "loot_drops", log, func(items []model.LootDrop) {
		for i := range items {
			items[i].RunID = runID
		}
	})
	writeQueue(db, q.FeedingReports, "feeding_reports", log, func(items []model.FeedingReport) {
		for i := range items {
			items[i].RunID = runID
		}
	})
	writeQueue(db, q.DaySummaries, "day_summaries", log, func(items []model.DaySummary) {
		for i := range items {
			items[i].RunID = runID
		}
	})

	b.lastDBWriteDuration.Store(int64(time.Since(start)))
}

// writerLoop periodically drains the queues into the DB.
func (b *Backend) writerLoop() {
	defer close(b.done)
	ticker := time.NewTicker(b.deps.FlushInterval)
	defer ticker.Stop()

	for {
		select {
		case <-b.stopChan:
			return
		case <-ticker.C:
			b.flush()
		}
	}
}

package gormstorage

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/moonfall/colonysim/internal/database"
	"github.com/moonfall/colonysim/internal/model"
	"github.com/moonfall/colonysim/internal/storage"
	"github.com/moonfall/colonysim/pkg/core"
)

var _ storage.Backend = (*Backend)(nil)

func testRun() *core.Run {
	return &core.Run{ID: "6f1c7d58-3c39-4d7e-9d5b-8d1f0f8b9a11", Name: "meadow", StartTime: time.Now().UTC(), Seed: 3}
}

// newTestBackend creates a Backend with no DB (queue-only mode).
func newTestBackend(t *testing.T) *Backend {
	t.Helper()
	b := New(Dependencies{})
	require.NoError(t, b.Init())
	t.Cleanup(func() { _ = b.Close() })
	return b
}

func newSQLiteBackend(t *testing.T) *Backend {
	t.Helper()
	db, err := database.OpenSQLite("")
	require.NoError(t, err)
	b := New(Dependencies{DB: db, FlushInterval: time.Hour})
	require.NoError(t, b.Init())
	t.Cleanup(func() { _ = b.Close() })
	return b
}

func TestInitClose(t *testing.T) {
	b := New(Dependencies{})
	require.NoError(t, b.Init())
	require.NotNil(t, b.queues)
	require.NotNil(t, b.stopChan)

	require.NoError(t, b.Close())
	require.NoError(t, b.Close(), "second close is a no-op")
}

func TestRecordBeforeStartRun(t *testing.T) {
	b := newTestBackend(t)
	assert.ErrorIs(t, b.RecordAttack(&core.Attack{}), storage.ErrNoRun)
	assert.ErrorIs(t, b.EndRun(&core.RunSummary{}), storage.ErrNoRun)
	assert.Zero(t, b.Pending())
}

func TestRecord_QueuesByKind(t *testing.T) {
	b := newTestBackend(t)
	require.NoError(t, b.StartRun(testRun()))

	require.NoError(t, storage.Record(b, core.StateChange{Day: 1}))
	require.NoError(t, storage.Record(b, core.BattleRecord{BattleID: 1}))
	require.NoError(t, storage.Record(b, core.Attack{BattleID: 1}))
	require.NoError(t, storage.Record(b, core.Attack{BattleID: 1}))
	require.NoError(t, storage.Record(b, core.Death{UnitID: 2}))
	require.NoError(t, storage.Record(b, core.LootDrop{Template: "hide"}))
	require.NoError(t, storage.Record(b, core.FeedingReport{Fed: 1}))
	require.NoError(t, storage.Record(b, core.DaySummary{Day: 1}))

	assert.Equal(t, 1, b.queues.StateChanges.Len())
	assert.Equal(t, 1, b.queues.Battles.Len())
	assert.Equal(t, 2, b.queues.Attacks.Len())
	assert.Equal(t, 1, b.queues.Deaths.Len())
	assert.Equal(t, 1, b.queues.LootDrops.Len())
	assert.Equal(t, 1, b.queues.FeedingReports.Len())
	assert.Equal(t, 1, b.queues.DaySummaries.Len())
	assert.Equal(t, 8, b.Pending())
}

func TestSQLite_EndRunFlushesAndStamps(t *testing.T) {
	b := newSQLiteBackend(t)
	run := testRun()
	require.NoError(t, b.StartRun(run))

	require.NoError(t, b.RecordAttack(&core.Attack{BattleID: 1, AttackerID: 2, DefenderID: 3, Hit: true, Damage: 2}))
	require.NoError(t, b.RecordLootDrop(&core.LootDrop{Template: "hide", Position: core.Position{X: 1, Y: 1}}))
	require.NoError(t, b.RecordDaySummary(&core.DaySummary{Day: 1, Friendlies: 3}))

	require.NoError(t, b.EndRun(&core.RunSummary{EndTime: time.Now().UTC(), Days: 1, Final: core.StateGameOver}))
	assert.Zero(t, b.Pending())

	db := b.DB()
	var attacks []model.Attack
	require.NoError(t, db.Find(&attacks).Error)
	require.Len(t, attacks, 1)
	assert.Equal(t, run.ID, attacks[0].RunID)
	assert.True(t, attacks[0].Hit)

	var drop model.LootDrop
	require.NoError(t, db.First(&drop).Error)
	c, ok := drop.Position.Coordinates()
	require.True(t, ok)
	assert.Equal(t, 1.0, c.XY.X)

	var row model.Run
	require.NoError(t, db.First(&row, "id = ?", run.ID).Error)
	assert.Equal(t, "GameOver", row.Final)
	assert.Equal(t, 1, row.Days)
	require.NotNil(t, row.EndTime)
}

func TestSQLite_CloseFlushes(t *testing.T) {
	db, err := database.OpenSQLite("")
	require.NoError(t, err)
	b := New(Dependencies{DB: db, FlushInterval: time.Hour})
	require.NoError(t, b.Init())
	require.NoError(t, b.StartRun(testRun()))
	require.NoError(t, b.RecordDeath(&core.Death{UnitID: 5, Cause: core.CauseStarvation}))

	require.NoError(t, b.Close())

	var n int64
	require.NoError(t, db.Model(&model.Death{}).Count(&n).Error)
	assert.Equal(t, int64(1), n)
	assert.Greater(t, b.LastWriteDuration(), time.Duration(0))
}

func TestSQLite_WriterLoop(t *testing.T) {
	db, err := database.OpenSQLite("")
	require.NoError(t, err)
	b := New(Dependencies{DB: db, FlushInterval: 10 * time.Millisecond})
	require.NoError(t, b.Init())
	defer b.Close()

	require.NoError(t, b.StartRun(testRun()))
	require.NoError(t, b.RecordStateChange(&core.StateChange{Day: 1, From: core.StateRunning, To: core.StateWaitingFeed}))

	assert.Eventually(t, func() bool {
		var n int64
		db.Model(&model.StateChange{}).Count(&n)
		return n == 1
	}, time.Second, 10*time.Millisecond)
}

func TestWriteQueue_RequeuesOnFailure(t *testing.T) {
	db, err := database.OpenSQLite("")
	require.NoError(t, err)
	// no migration: the insert fails because the table is missing
	b := New(Dependencies{DB: db})
	b.queues = newQueues()
	b.queues.Deaths.Push(model.Death{UnitID: 1}, model.Death{UnitID: 2})

	writeQueue(db, b.queues.Deaths, "deaths", b.log, nil)

	assert.Equal(t, 2, b.queues.Deaths.Len())
}

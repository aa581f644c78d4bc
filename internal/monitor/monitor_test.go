package monitor

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/moonfall/colonysim/internal/session"
	"github.com/moonfall/colonysim/internal/sim"
	"github.com/moonfall/colonysim/internal/worker"
)

type fakeSource struct{ st sim.Status }

func (f fakeSource) Status() sim.Status { return f.st }

type fakeJournal struct{}

func (fakeJournal) Stats() worker.Stats              { return worker.Stats{Published: 12, Rejected: 1} }
func (fakeJournal) LastWriteDuration() time.Duration { return 2500 * time.Microsecond }

func source() fakeSource {
	return fakeSource{st: sim.Status{
		Tick:       40,
		Day:        3,
		State:      "Selling",
		Population: 9,
		Capacity:   8,
		Units:      []sim.UnitView{{ID: 1, Name: "Villager"}},
	}}
}

func readReport(t *testing.T, path string) Report {
	t.Helper()
	raw, err := os.ReadFile(path)
	require.NoError(t, err)
	var r Report
	require.NoError(t, json.Unmarshal(raw, &r))
	return r
}

func TestGetStatus(t *testing.T) {
	sess := session.NewContext("colony", 1, time.Minute, "dev")
	svc := NewService(Dependencies{Source: source(), Session: sess, Journal: fakeJournal{}})

	r := svc.GetStatus()
	assert.Equal(t, 3, r.Sim.Day)
	assert.Equal(t, "Selling", r.Sim.State)
	assert.Nil(t, r.Sim.Units)
	assert.Equal(t, sess.Run().ID, r.Run.ID)
	require.NotNil(t, r.Journal)
	assert.Equal(t, int64(12), r.Journal.Published)
	assert.Equal(t, 2.5, r.LastWriteDurationMs)
}

func TestGetStatus_NoJournal(t *testing.T) {
	svc := NewService(Dependencies{Source: source()})
	r := svc.GetStatus()
	assert.Nil(t, r.Journal)
	assert.Empty(t, r.Run.ID)
}

func TestWriteStatus(t *testing.T) {
	path := filepath.Join(t.TempDir(), "status.json")
	svc := NewService(Dependencies{Source: source(), StatusFile: path})

	require.NoError(t, svc.WriteStatus())
	r := readReport(t, path)
	assert.Equal(t, uint64(40), r.Sim.Tick)
	assert.Equal(t, 9, r.Sim.Population)

	entries, err := os.ReadDir(filepath.Dir(path))
	require.NoError(t, err)
	assert.Len(t, entries, 1, "no temp files left behind")
}

func TestWriteStatus_MissingDir(t *testing.T) {
	svc := NewService(Dependencies{Source: source(), StatusFile: filepath.Join(t.TempDir(), "nope", "status.json")})
	assert.Error(t, svc.WriteStatus())
}

func TestStartStop(t *testing.T) {
	path := filepath.Join(t.TempDir(), "status.json")
	svc := NewService(Dependencies{Source: source(), StatusFile: path, Interval: 10 * time.Millisecond})

	require.NoError(t, svc.Start())
	require.NoError(t, svc.Start())
	assert.True(t, svc.IsRunning())

	assert.Eventually(t, func() bool {
		_, err := os.Stat(path)
		return err == nil
	}, time.Second, 10*time.Millisecond)

	svc.Stop()
	svc.Stop()
	assert.False(t, svc.IsRunning())
	assert.Equal(t, 3, readReport(t, path).Sim.Day)
}

func TestStart_EmptyPath(t *testing.T) {
	svc := NewService(Dependencies{Source: source()})
	assert.Error(t, svc.Start())
	assert.False(t, svc.IsRunning())
}

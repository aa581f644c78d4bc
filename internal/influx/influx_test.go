package influx

import (
	"bufio"
	"compress/gzip"
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	influxdb2_write "github.com/influxdata/influxdb-client-go/v2/api/write"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/moonfall/colonysim/internal/config"
	"github.com/moonfall/colonysim/pkg/core"
)

func readBackup(t *testing.T, path string) []string {
	t.Helper()
	f, err := os.Open(path)
	require.NoError(t, err)
	defer f.Close()
	zr, err := gzip.NewReader(f)
	require.NoError(t, err)
	defer zr.Close()

	var lines []string
	sc := bufio.NewScanner(zr)
	for sc.Scan() {
		if line := strings.TrimSpace(sc.Text()); line != "" {
			lines = append(lines, line)
		}
	}
	require.NoError(t, sc.Err())
	return lines
}

func TestDaySummaryPoint(t *testing.T) {
	at := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	run := &core.Run{ID: "r1", Name: "first"}
	s := &core.DaySummary{Day: 2, Friendlies: 5, Hungry: 1, Starved: 1, Consumed: 4, Battles: 3, Population: 9, Capacity: 12, Coins: 7}

	line := influxdb2_write.PointToLineProtocol(DaySummaryPoint(run, s, at), time.Nanosecond)

	assert.True(t, strings.HasPrefix(line, "day_summary,run_id=r1,run_name=first "), line)
	for _, field := range []string{"day=2i", "friendlies=5i", "hungry=1i", "starved=1i", "consumed=4i", "battles=3i", "population=9i", "capacity=12i", "coins=7i"} {
		assert.Contains(t, line, field)
	}
	assert.Contains(t, line, "1772366400000000000")
}

func TestDaySummaryPoint_NoRun(t *testing.T) {
	for name, run := range map[string]*core.Run{"nil": nil, "empty id": {}} {
		t.Run(name, func(t *testing.T) {
			line := influxdb2_write.PointToLineProtocol(DaySummaryPoint(run, &core.DaySummary{Day: 1}, time.Now()), time.Nanosecond)
			assert.True(t, strings.HasPrefix(line, "day_summary,run_id=none "), line)
			assert.Contains(t, line, "day=1i")
		})
	}
}

func TestConnect_Disabled(t *testing.T) {
	m := NewManager(config.InfluxConfig{Enabled: false}, zerolog.Nop(), filepath.Join(t.TempDir(), "b.gz"))
	assert.ErrorIs(t, m.Connect(context.Background()), ErrDisabled)
	assert.False(t, m.IsValid)
}

func TestWritePoint_NoWriter(t *testing.T) {
	m := NewManager(config.InfluxConfig{}, zerolog.Nop(), "")
	assert.ErrorIs(t, m.WriteDaySummary(&core.DaySummary{Day: 1}), ErrNoWriter)
	assert.NoError(t, m.Close())
}

func TestConnect_UnreachableUsesBackup(t *testing.T) {
	path := filepath.Join(t.TempDir(), "influx_backup.log.gz")
	cfg := config.InfluxConfig{
		Enabled:  true,
		Protocol: "http",
		Host:     "127.0.0.1",
		Port:     "1",
		Org:      "colonysim",
		Bucket:   "colony_days",
	}
	m := NewManager(cfg, zerolog.Nop(), path)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	require.NoError(t, m.Connect(ctx))
	assert.False(t, m.IsValid)
	assert.Equal(t, "http://127.0.0.1:1", m.URL())

	m.SetRun(&core.Run{ID: "r9"})
	require.NoError(t, m.WriteDaySummary(&core.DaySummary{Day: 1, Coins: 3}))
	require.NoError(t, m.WriteDaySummary(&core.DaySummary{Day: 2, Coins: 5}))
	require.NoError(t, m.Close())

	lines := readBackup(t, path)
	require.Len(t, lines, 2)
	assert.Contains(t, lines[0], "run_id=r9")
	assert.Contains(t, lines[0], "day=1i")
	assert.Contains(t, lines[1], "coins=5i")
}

func TestClose_Idempotent(t *testing.T) {
	m := NewManager(config.InfluxConfig{}, zerolog.Nop(), filepath.Join(t.TempDir(), "b.gz"))
	require.NoError(t, m.openBackup())
	require.NoError(t, m.Close())
	require.NoError(t, m.Close())
}

func TestOpenBackup_BadPath(t *testing.T) {
	m := NewManager(config.InfluxConfig{}, zerolog.Nop(), filepath.Join(t.TempDir(), "missing", "b.gz"))
	assert.Error(t, m.openBackup())
}

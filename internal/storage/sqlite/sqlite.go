// Package sqlitestorage records the journal into an in-memory SQLite database
// and periodically dumps it to disk with VACUUM INTO. It wraps the GORM backend.
package sqlitestorage

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"gorm.io/gorm"

	"github.com/moonfall/colonysim/internal/config"
	"github.com/moonfall/colonysim/internal/database"
	"github.com/moonfall/colonysim/internal/logging"
	gormstorage "github.com/moonfall/colonysim/internal/storage/gorm"
	"github.com/moonfall/colonysim/pkg/core"
)

// Backend wraps the GORM backend for SQLite-specific behavior.
type Backend struct {
	*gormstorage.Backend
	db  *gorm.DB
	cfg config.SQLiteConfig
	log *slog.Logger

	mu       sync.Mutex
	dumpPath string
	run      *core.Run
	summary  *core.RunSummary
	stopChan chan struct{}
	done     chan struct{}
}

// New creates a new SQLite storage backend.
func New(cfg config.SQLiteConfig, log *slog.Logger) (*Backend, error) {
	if log == nil {
		log = logging.Discard()
	}
	db, err := database.OpenSQLite("")
	if err != nil {
		return nil, fmt.Errorf("failed to create in-memory SQLite DB: %w", err)
	}

	return &Backend{
		Backend: gormstorage.New(gormstorage.Dependencies{DB: db, Logger: log}),
		db:      db,
		cfg:     cfg,
		log:     log,
	}, nil
}

// Init initializes the embedded GORM backend.
func (b *Backend) Init() error {
	if err := os.MkdirAll(b.cfg.OutputDir, 0o755); err != nil {
		return fmt.Errorf("failed to create output directory: %w", err)
	}
	return b.Backend.Init()
}

// StartRun records the run and starts the dump loop targeting a file named
// after it.
func (b *Backend) StartRun(run *core.Run) error {
	if err := b.Backend.StartRun(run); err != nil {
		return err
	}

	b.mu.Lock()
	defer b.mu.Unlock()
	b.run = run
	b.dumpPath = filepath.Join(b.cfg.OutputDir, dumpName(run))
	if b.cfg.DumpInterval > 0 && b.stopChan == nil {
		b.stopChan = make(chan struct{})
		b.done = make(chan struct{})
		go b.dumpLoop(b.dumpPath, b.stopChan, b.done)
	}
	return nil
}

// EndRun writes the summary and a final dump.
func (b *Backend) EndRun(summary *core.RunSummary) error {
	if err := b.Backend.EndRun(summary); err != nil {
		return err
	}
	b.stopDumpLoop()

	b.mu.Lock()
	b.summary = summary
	path := b.dumpPath
	b.mu.Unlock()
	if _, err := database.DumpMemoryDBToDisk(b.db, path); err != nil {
		return err
	}
	b.log.Info("journal dumped", "path", path)
	return nil
}

// Close stops the dump goroutine and closes the embedded GORM backend.
func (b *Backend) Close() error {
	b.stopDumpLoop()
	return b.Backend.Close()
}

// ExportedFilePath returns the dump file of the current run.
func (b *Backend) ExportedFilePath() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.dumpPath
}

// ExportMetadata describes the dumped run for upload.
func (b *Backend) ExportMetadata() core.UploadMetadata {
	b.mu.Lock()
	defer b.mu.Unlock()
	meta := core.UploadMetadata{}
	if b.run != nil {
		meta.RunName = b.run.Name
		if b.summary != nil {
			meta.Days = b.summary.Days
			meta.RunDuration = b.summary.EndTime.Sub(b.run.StartTime).Seconds()
		}
	}
	return meta
}

func (b *Backend) stopDumpLoop() {
	b.mu.Lock()
	stop, done := b.stopChan, b.done
	b.stopChan, b.done = nil, nil
	b.mu.Unlock()
	if stop != nil {
		close(stop)
		<-done
	}
}

// dumpLoop snapshots the in-memory database to path on every interval.
func (b *Backend) dumpLoop(path string, stop <-chan struct{}, done chan<- struct{}) {
	defer close(done)
	ticker := time.NewTicker(b.cfg.DumpInterval)
	defer ticker.Stop()

	for {
		select {
		case <-stop:
			return
		case <-ticker.C:
			if d, err := database.DumpMemoryDBToDisk(b.db, path); err != nil {
				b.log.Error("error dumping journal to disk", "error", err)
			} else {
				b.log.Debug("dumped journal to disk", "duration", d)
			}
		}
	}
}

func dumpName(run *core.Run) string {
	name := strings.NewReplacer(" ", "_", ":", "_", "/", "_", `\`, "_").Replace(run.Name)
	if name == "" {
		name = run.ID
	}
	return fmt.Sprintf("%s_%s.db", name, run.StartTime.Format("20060102_150405"))
}

// Package monitor writes a JSON status file describing the live run.
package monitor

import (
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/moonfall/colonysim/internal/session"
	"github.com/moonfall/colonysim/internal/sim"
	"github.com/moonfall/colonysim/internal/worker"
	"github.com/moonfall/colonysim/pkg/core"
)

// StatusSource is the simulation side of the report.
type StatusSource interface {
	Status() sim.Status
}

// JournalStats is the journal side of the report. *worker.Manager satisfies it.
type JournalStats interface {
	Stats() worker.Stats
	LastWriteDuration() time.Duration
}

// Dependencies holds all dependencies for the monitor service
type Dependencies struct {
	Source  StatusSource
	Session *session.Context
	// Journal is optional.
	Journal    JournalStats
	Logger     *slog.Logger
	StatusFile string
	Interval   time.Duration
}

// Report is the content of the status file.
type Report struct {
	Time                time.Time     `json:"time"`
	Run                 core.Run      `json:"run"`
	Sim                 sim.Status    `json:"sim"`
	Journal             *worker.Stats `json:"journal,omitempty"`
	LastWriteDurationMs float64       `json:"lastWriteDurationMs"`
}

// Service manages status monitoring
type Service struct {
	deps      Dependencies
	isRunning bool
	mu        sync.RWMutex
	stopChan  chan struct{}
	done      chan struct{}
}

// NewService creates a new monitor service
func NewService(deps Dependencies) *Service {
	if deps.Logger == nil {
		deps.Logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	if deps.Interval <= 0 {
		deps.Interval = time.Second
	}
	return &Service{deps: deps}
}

// IsRunning returns whether the status monitor is running
func (s *Service) IsRunning() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.isRunning
}

// GetStatus builds the current report. Board contents are left out; the file
// carries counts only.
func (s *Service) GetStatus() Report {
	st := s.deps.Source.Status()
	st.Units, st.Food, st.Items = nil, nil, nil

	r := Report{Time: time.Now().UTC(), Sim: st}
	if s.deps.Session != nil {
		r.Run = s.deps.Session.Run()
	}
	if s.deps.Journal != nil {
		stats := s.deps.Journal.Stats()
		r.Journal = &stats
		r.LastWriteDurationMs = float64(s.deps.Journal.LastWriteDuration().Microseconds()) / 1000
	}
	return r
}

// WriteStatus replaces the status file with the current report.
func (s *Service) WriteStatus() error {
	data, err := json.MarshalIndent(s.GetStatus(), "", "  ")
	if err != nil {
		return fmt.Errorf("encoding status: %w", err)
	}
	dir := filepath.Dir(s.deps.StatusFile)
	tmp, err := os.CreateTemp(dir, ".status-*.json")
	if err != nil {
		return fmt.Errorf("creating status file: %w", err)
	}
	if _, err := tmp.Write(append(data, '\n')); err != nil {
		tmp.Close()
		os.Remove(tmp.Name())
		return fmt.Errorf("writing status file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmp.Name())
		return fmt.Errorf("closing status file: %w", err)
	}
	if err := os.Rename(tmp.Name(), s.deps.StatusFile); err != nil {
		os.Remove(tmp.Name())
		return fmt.Errorf("replacing status file: %w", err)
	}
	return nil
}

// Start starts the status monitor goroutine
func (s *Service) Start() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.isRunning {
		return nil
	}
	if s.deps.StatusFile == "" {
		return fmt.Errorf("status file path is empty")
	}
	s.isRunning = true
	s.stopChan = make(chan struct{})
	s.done = make(chan struct{})

	go s.loop(s.stopChan, s.done)
	return nil
}

func (s *Service) loop(stop <-chan struct{}, done chan<- struct{}) {
	defer close(done)
	logger := s.deps.Logger
	logger.Debug("Starting status monitor", "file", s.deps.StatusFile, "interval", s.deps.Interval)

	ticker := time.NewTicker(s.deps.Interval)
	defer ticker.Stop()
	for {
		select {
		case <-stop:
			if err := s.WriteStatus(); err != nil {
				logger.Error("Error writing final status", "error", err)
			}
			return
		case <-ticker.C:
			if err := s.WriteStatus(); err != nil {
				logger.Error("Error writing status file", "error", err)
			}
		}
	}
}

// Stop stops the status monitor after a final write.
func (s *Service) Stop() {
	s.mu.Lock()
	if !s.isRunning {
		s.mu.Unlock()
		return
	}
	s.isRunning = false
	close(s.stopChan)
	done := s.done
	s.mu.Unlock()
	<-done
}

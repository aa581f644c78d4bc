// Package websocket streams the run journal to a remote collector as JSON
// envelopes over a gorilla websocket, reconnecting with backoff.
package websocket

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/moonfall/colonysim/internal/logging"
	"github.com/moonfall/colonysim/pkg/core"
	"github.com/moonfall/colonysim/pkg/streaming"
)

// Config holds websocket backend configuration. Zero durations and attempts
// take the defaults below.
type Config struct {
	URL               string
	Secret            string
	AckTimeout        time.Duration
	ReconnectAttempts int
	Backoff           time.Duration
	MaxBackoff        time.Duration
}

const (
	defaultAckTimeout        = 10 * time.Second
	defaultReconnectAttempts = 10
	defaultBackoff           = time.Second
	defaultMaxBackoff        = 30 * time.Second
)

func (c Config) withDefaults() Config {
	if c.AckTimeout <= 0 {
		c.AckTimeout = defaultAckTimeout
	}
	if c.ReconnectAttempts <= 0 {
		c.ReconnectAttempts = defaultReconnectAttempts
	}
	if c.Backoff <= 0 {
		c.Backoff = defaultBackoff
	}
	if c.MaxBackoff <= 0 {
		c.MaxBackoff = defaultMaxBackoff
	}
	return c
}

// Backend streams the journal. It implements storage.Backend but not
// storage.Uploadable: nothing is left on disk.
type Backend struct {
	conn *connection
	cfg  Config
}

// New creates a new websocket storage backend.
func New(cfg Config, logger *slog.Logger) *Backend {
	if logger == nil {
		logger = logging.Discard()
	}
	cfg = cfg.withDefaults()
	return &Backend{
		conn: newConnection(cfg, logger),
		cfg:  cfg,
	}
}

// Init connects to the collector.
func (b *Backend) Init() error {
	return b.conn.dial()
}

// Close disconnects.
func (b *Backend) Close() error {
	return b.conn.close()
}

func newOutbound(msgType string, payload any) (outbound, error) {
	raw, err := json.Marshal(payload)
	if err != nil {
		return outbound{}, fmt.Errorf("marshal %s payload: %w", msgType, err)
	}
	return outbound{typ: msgType, payload: raw}, nil
}

// sendEnvelope queues payload without waiting.
func (b *Backend) sendEnvelope(msgType string, payload any) error {
	msg, err := newOutbound(msgType, payload)
	if err != nil {
		return err
	}
	b.conn.send(msg)
	return nil
}

// StartRun opens the run on the collector and waits for its ack. The message
// is kept for replay after a reconnect.
func (b *Backend) StartRun(run *core.Run) error {
	msg, err := newOutbound(streaming.TypeStartRun, streaming.StartRunPayload{Run: run})
	if err != nil {
		return err
	}
	b.conn.setReplay(&msg)
	return b.conn.sendAndWait(msg, b.cfg.AckTimeout)
}

// EndRun closes the run and waits for its ack.
func (b *Backend) EndRun(summary *core.RunSummary) error {
	msg, err := newOutbound(streaming.TypeEndRun, streaming.EndRunPayload{Summary: summary})
	if err != nil {
		return err
	}
	err = b.conn.sendAndWait(msg, b.cfg.AckTimeout)
	b.conn.setReplay(nil)
	return err
}

func (b *Backend) RecordStateChange(e *core.StateChange) error {
	return b.sendEnvelope(streaming.TypeStateChange, e)
}

func (b *Backend) RecordBattle(e *core.BattleRecord) error {
	return b.sendEnvelope(streaming.TypeBattle, e)
}

func (b *Backend) RecordAttack(e *core.Attack) error {
	return b.sendEnvelope(streaming.TypeAttack, e)
}

func (b *Backend) RecordDeath(e *core.Death) error {
	return b.sendEnvelope(streaming.TypeDeath, e)
}

func (b *Backend) RecordLootDrop(e *core.LootDrop) error {
	return b.sendEnvelope(streaming.TypeLoot, e)
}

func (b *Backend) RecordFeedingReport(e *core.FeedingReport) error {
	return b.sendEnvelope(streaming.TypeFeeding, e)
}

func (b *Backend) RecordDaySummary(e *core.DaySummary) error {
	return b.sendEnvelope(streaming.TypeDaySummary, e)
}

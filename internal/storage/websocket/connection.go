package websocket

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/url"
	"sync"
	"time"

	ws "github.com/gorilla/websocket"

	"github.com/moonfall/colonysim/pkg/streaming"
)

const (
	sendChSize   = 4096
	ackChSize    = 16
	writeWait    = 10 * time.Second
	pongWait     = 60 * time.Second
	pingInterval = pongWait * 9 / 10
)

var errClosed = errors.New("websocket connection closed")

// outbound is a message waiting for the writer. The sequence number is
// assigned at write time so a replay after reconnect starts a fresh sequence.
type outbound struct {
	typ     string
	payload json.RawMessage
}

// connection owns one gorilla websocket and the goroutines that serve it.
// Every (re)connect bumps gen; loops from an older generation exit.
type connection struct {
	mu     sync.Mutex
	conn   *ws.Conn
	gen    uint64
	seq    uint64
	closed bool
	replay *outbound

	sendCh chan outbound
	ackCh  chan streaming.AckMessage
	done   chan struct{}

	target *url.URL
	cfg    Config
	logger *slog.Logger
}

func newConnection(cfg Config, logger *slog.Logger) *connection {
	return &connection{
		sendCh: make(chan outbound, sendChSize),
		ackCh:  make(chan streaming.AckMessage, ackChSize),
		done:   make(chan struct{}),
		cfg:    cfg,
		logger: logger,
	}
}

// dial connects once and starts the loops. The secret travels as a query
// parameter.
func (c *connection) dial() error {
	u, err := url.Parse(c.cfg.URL)
	if err != nil {
		return fmt.Errorf("invalid websocket URL: %w", err)
	}
	q := u.Query()
	q.Set("secret", c.cfg.Secret)
	u.RawQuery = q.Encode()
	c.target = u

	conn, err := c.dialOnce()
	if err != nil {
		return err
	}
	c.attach(conn, 0)
	return nil
}

func (c *connection) dialOnce() (*ws.Conn, error) {
	conn, _, err := ws.DefaultDialer.Dial(c.target.String(), nil)
	if err != nil {
		return nil, fmt.Errorf("websocket dial failed: %w", err)
	}
	return conn, nil
}

// attach installs conn as the live connection and starts its loops. seq is
// the last sequence number already written on conn.
func (c *connection) attach(conn *ws.Conn, seq uint64) {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		_ = conn.Close()
		return
	}
	c.conn = conn
	c.gen++
	c.seq = seq
	gen := c.gen
	c.mu.Unlock()

	_ = conn.SetReadDeadline(time.Now().Add(pongWait))
	conn.SetPongHandler(func(string) error {
		return conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	go c.writeLoop(conn, gen)
	go c.readLoop(conn, gen)
}

func (c *connection) current(gen uint64) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.gen == gen && !c.closed
}

func (c *connection) write(conn *ws.Conn, msg outbound) error {
	c.mu.Lock()
	c.seq++
	seq := c.seq
	c.mu.Unlock()
	return writeEnvelope(conn, msg, seq)
}

func writeEnvelope(conn *ws.Conn, msg outbound, seq uint64) error {
	data, err := json.Marshal(streaming.Envelope{Type: msg.typ, Seq: seq, Payload: msg.payload})
	if err != nil {
		return err
	}
	if err := conn.SetWriteDeadline(time.Now().Add(writeWait)); err != nil {
		return err
	}
	return conn.WriteMessage(ws.TextMessage, data)
}

// writeLoop drains sendCh and keeps the connection alive with pings.
func (c *connection) writeLoop(conn *ws.Conn, gen uint64) {
	ticker := time.NewTicker(pingInterval)
	defer ticker.Stop()

	for {
		select {
		case <-c.done:
			return
		case <-ticker.C:
			if err := conn.WriteControl(ws.PingMessage, nil, time.Now().Add(writeWait)); err != nil {
				c.lost(gen, "ping", err)
				return
			}
		case msg := <-c.sendCh:
			if !c.current(gen) {
				c.requeue(msg)
				return
			}
			if err := c.write(conn, msg); err != nil {
				c.requeue(msg)
				c.lost(gen, "write", err)
				return
			}
		}
	}
}

// readLoop routes acks to ackCh until the connection fails.
func (c *connection) readLoop(conn *ws.Conn, gen uint64) {
	for {
		_, message, err := conn.ReadMessage()
		if err != nil {
			c.lost(gen, "read", err)
			return
		}

		var ack streaming.AckMessage
		if err := json.Unmarshal(message, &ack); err != nil || ack.Type != streaming.TypeAck {
			c.logger.Debug("ignoring non-ack message", "raw", string(message))
			continue
		}
		select {
		case c.ackCh <- ack:
		default:
			c.logger.Debug("ack channel full, dropping", "for", ack.For)
		}
	}
}

// requeue puts an unsent message back. It lands behind anything queued since.
func (c *connection) requeue(msg outbound) {
	select {
	case c.sendCh <- msg:
	default:
		c.logger.Warn("websocket send channel full, dropping message", "type", msg.typ)
	}
}

// lost is called by whichever loop notices a failure first. Only the first
// caller for a generation starts a reconnect.
func (c *connection) lost(gen uint64, op string, err error) {
	c.mu.Lock()
	if c.closed || c.gen != gen || c.conn == nil {
		c.mu.Unlock()
		return
	}
	_ = c.conn.Close()
	c.conn = nil
	c.gen++
	c.mu.Unlock()

	c.logger.Warn("websocket connection lost", "op", op, "error", err)
	go c.reconnect()
}

// reconnect redials with exponential backoff and replays start_run before
// anything else is written.
func (c *connection) reconnect() {
	backoff := c.cfg.Backoff
	for attempt := 1; attempt <= c.cfg.ReconnectAttempts; attempt++ {
		select {
		case <-c.done:
			return
		case <-time.After(backoff):
		}

		c.logger.Info("reconnecting to websocket", "attempt", attempt)
		conn, err := c.dialOnce()
		if err != nil {
			c.logger.Warn("reconnect dial failed", "attempt", attempt, "error", err)
			backoff = min(backoff*2, c.cfg.MaxBackoff)
			continue
		}

		c.mu.Lock()
		replay := c.replay
		c.mu.Unlock()

		var seq uint64
		if replay != nil {
			seq = 1
			if err := writeEnvelope(conn, *replay, seq); err != nil {
				c.logger.Warn("failed to replay start_run after reconnect", "error", err)
				_ = conn.Close()
				continue
			}
		}

		c.attach(conn, seq)
		c.logger.Info("websocket reconnected", "attempt", attempt)
		return
	}

	c.logger.Error("websocket reconnect failed", "attempts", c.cfg.ReconnectAttempts)
}

// send queues a message. It never blocks; a full queue drops the message.
func (c *connection) send(msg outbound) {
	select {
	case <-c.done:
		return
	default:
	}
	select {
	case c.sendCh <- msg:
	default:
		c.logger.Warn("websocket send channel full, dropping message", "type", msg.typ)
	}
}

// sendAndWait queues msg and blocks until the server acks its type.
func (c *connection) sendAndWait(msg outbound, timeout time.Duration) error {
	c.send(msg)

	timer := time.NewTimer(timeout)
	defer timer.Stop()
	for {
		select {
		case ack := <-c.ackCh:
			if ack.For == msg.typ {
				return nil
			}
		case <-timer.C:
			return fmt.Errorf("timeout waiting for ack of %q", msg.typ)
		case <-c.done:
			return fmt.Errorf("waiting for ack of %q: %w", msg.typ, errClosed)
		}
	}
}

func (c *connection) setReplay(msg *outbound) {
	c.mu.Lock()
	c.replay = msg
	c.mu.Unlock()
}

// close sends a close frame and stops every goroutine.
func (c *connection) close() error {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return nil
	}
	c.closed = true
	close(c.done)
	conn := c.conn
	c.conn = nil
	c.mu.Unlock()

	if conn == nil {
		return nil
	}
	_ = conn.WriteControl(ws.CloseMessage,
		ws.FormatCloseMessage(ws.CloseNormalClosure, ""), time.Now().Add(writeWait))
	return conn.Close()
}

package websocket

import (
	"errors"
	"fmt"
	"log/slog"
	"net/url"
	"sync"
	"sync/atomic"
	"time"

	ws "github.com/gorilla/websocket"

	"github.com/OCAP2/beamcore/pkg/streaming"
)

const (
	sendChSize   = 10_000
	ackChSize    = 16
	maxReconnect = 10
	maxBackoff   = 30 * time.Second
	writeWait    = 10 * time.Second
	ackTimeout   = 10 * time.Second
)

var errConnClosed = errors.New("stream connection closed")

// connection owns one WebSocket. Messages go through a single writer goroutine;
// after a drop it re-dials and replays the session header (start_mission and
// the weapon catalog) before queued beam messages resume.
type connection struct {
	mu     sync.Mutex
	conn   *ws.Conn
	closed bool
	// at most one writer and one reconnect at a time
	writing      bool
	reconnecting bool
	header       [][]byte

	sendCh  chan []byte
	ackCh   chan streaming.AckMessage
	done    chan struct{}
	dropped atomic.Int64

	wsURL       string
	secret      string
	codec       streaming.Codec
	frameType   int
	baseBackoff time.Duration
	logger      *slog.Logger
}

func newConnection(logger *slog.Logger, codec streaming.Codec) *connection {
	frameType := ws.TextMessage
	if codec.Binary() {
		frameType = ws.BinaryMessage
	}
	return &connection{
		sendCh:      make(chan []byte, sendChSize),
		ackCh:       make(chan streaming.AckMessage, ackChSize),
		done:        make(chan struct{}),
		codec:       codec,
		frameType:   frameType,
		baseBackoff: time.Second,
		logger:      logger,
	}
}

func (c *connection) dial(rawURL, secret string) error {
	c.wsURL, c.secret = rawURL, secret

	conn, err := c.dialOnce()
	if err != nil {
		return err
	}
	c.mu.Lock()
	c.conn = conn
	c.writing = true
	c.mu.Unlock()

	go c.writeLoop()
	go c.readLoop(conn)
	return nil
}

func (c *connection) dialOnce() (*ws.Conn, error) {
	u, err := url.Parse(c.wsURL)
	if err != nil {
		return nil, fmt.Errorf("invalid websocket URL: %w", err)
	}
	q := u.Query()
	q.Set("secret", c.secret)
	u.RawQuery = q.Encode()

	conn, _, err := ws.DefaultDialer.Dial(u.String(), nil)
	if err != nil {
		return nil, fmt.Errorf("websocket dial failed: %w", err)
	}
	return conn, nil
}

// setHeader replaces the replayed header with a fresh start_mission.
func (c *connection) setHeader(start []byte) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if start == nil {
		c.header = nil
		return
	}
	c.header = [][]byte{start}
}

// appendHeader adds a weapon definition to the replayed header. Ignored
// outside a mission.
func (c *connection) appendHeader(msg []byte) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if len(c.header) > 0 {
		c.header = append(c.header, msg)
	}
}

func (c *connection) write(conn *ws.Conn, data []byte) error {
	if err := conn.SetWriteDeadline(time.Now().Add(writeWait)); err != nil {
		return err
	}
	return conn.WriteMessage(c.frameType, data)
}

func (c *connection) writeLoop() {
	for {
		select {
		case <-c.done:
			return
		case data := <-c.sendCh:
			c.mu.Lock()
			conn := c.conn
			c.mu.Unlock()
			if conn == nil {
				c.dropped.Add(1)
				continue
			}
			if err := c.write(conn, data); err != nil {
				c.logger.Warn("Stream write failed", "error", err)
				c.dropped.Add(1)
				c.mu.Lock()
				c.writing = false
				c.mu.Unlock()
				go c.reconnect()
				return
			}
		}
	}
}

// readLoop routes acks until conn fails. Anything else the server sends is
// logged and ignored.
func (c *connection) readLoop(conn *ws.Conn) {
	for {
		_, message, err := conn.ReadMessage()
		if err != nil {
			select {
			case <-c.done:
			default:
				c.logger.Warn("Stream read failed", "error", err)
				go c.reconnect()
			}
			return
		}

		ack, err := c.codec.UnmarshalAck(message)
		if err != nil || ack.Type != "ack" {
			c.logger.Debug("Ignoring server message", "raw", string(message))
			continue
		}
		select {
		case c.ackCh <- ack:
		default:
			c.logger.Debug("Ack channel full, dropping", "for", ack.For)
		}
	}
}

func nextBackoff(d time.Duration) time.Duration {
	return min(d*2, maxBackoff)
}

func (c *connection) reconnect() {
	c.mu.Lock()
	if c.closed || c.reconnecting {
		c.mu.Unlock()
		return
	}
	c.reconnecting = true
	if c.conn != nil {
		_ = c.conn.Close()
		c.conn = nil
	}
	c.mu.Unlock()

	defer func() {
		c.mu.Lock()
		c.reconnecting = false
		c.mu.Unlock()
	}()

	backoff := c.baseBackoff
	for attempt := 1; attempt <= maxReconnect; attempt++ {
		select {
		case <-c.done:
			return
		case <-time.After(backoff):
		}
		backoff = nextBackoff(backoff)

		conn, err := c.dialOnce()
		if err != nil {
			c.logger.Warn("Stream reconnect failed", "attempt", attempt, "error", err)
			continue
		}
		if err := c.replayHeader(conn); err != nil {
			c.logger.Warn("Session header replay failed", "attempt", attempt, "error", err)
			_ = conn.Close()
			continue
		}

		c.mu.Lock()
		if c.closed {
			c.mu.Unlock()
			_ = conn.Close()
			return
		}
		c.conn = conn
		startWriter := !c.writing
		c.writing = true
		c.mu.Unlock()

		c.logger.Info("Stream reconnected", "attempt", attempt)
		if startWriter {
			go c.writeLoop()
		}
		go c.readLoop(conn)
		return
	}

	c.logger.Error("Stream reconnect gave up", "maxAttempts", maxReconnect)
}

func (c *connection) replayHeader(conn *ws.Conn) error {
	c.mu.Lock()
	header := append([][]byte(nil), c.header...)
	c.mu.Unlock()

	for _, msg := range header {
		if err := c.write(conn, msg); err != nil {
			return err
		}
	}
	return nil
}

// send queues data for the writer. It never blocks; a full queue drops.
func (c *connection) send(data []byte) {
	select {
	case c.sendCh <- data:
	default:
		c.dropped.Add(1)
		c.logger.Warn("Stream send queue full, dropping message")
	}
}

// sendAndWait queues data and blocks until the server acks ackFor.
func (c *connection) sendAndWait(data []byte, ackFor string, timeout time.Duration) error {
	c.send(data)

	timer := time.NewTimer(timeout)
	defer timer.Stop()
	for {
		select {
		case ack := <-c.ackCh:
			if ack.For == ackFor {
				return nil
			}
		case <-timer.C:
			return fmt.Errorf("timeout waiting for ack of %q", ackFor)
		case <-c.done:
			return fmt.Errorf("waiting for ack of %q: %w", ackFor, errConnClosed)
		}
	}
}

func (c *connection) pending() int { return len(c.sendCh) }

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
	_ = conn.WriteMessage(ws.CloseMessage, ws.FormatCloseMessage(ws.CloseNormalClosure, ""))
	return conn.Close()
}

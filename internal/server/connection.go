package server

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/charmbracelet/log"
	"github.com/gorilla/websocket"
)

const (
	// Time allowed to write a message to the peer
	writeWait = 10 * time.Second

	// Time allowed to read the next pong message from the peer
	pongWait = 60 * time.Second

	// Send pings to peer with this period. Must be less than pongWait
	pingPeriod = (pongWait * 9) / 10

	// Maximum message size allowed from peer
	maxMessageSize = 4096
)

// ErrConnectionClosed is returned when sending on a closed or saturated
// connection.
var ErrConnectionClosed = errors.New("connection closed")

// Sender is the broker's view of a client connection
type Sender interface {
	Send(ev Event) error
	Close() error
}

// Connection wraps a WebSocket with a buffered outbound queue so sends
// from game loops never block on a slow client
type Connection struct {
	conn      *websocket.Conn
	send      chan Event
	logger    *log.Logger
	ctx       context.Context
	cancel    context.CancelFunc
	closeOnce sync.Once
}

// NewConnection creates a connection wrapper and starts its write pump
func NewConnection(conn *websocket.Conn, logger *log.Logger) *Connection {
	ctx, cancel := context.WithCancel(context.Background())
	c := &Connection{
		conn:   conn,
		send:   make(chan Event, 256),
		logger: logger.WithPrefix("conn"),
		ctx:    ctx,
		cancel: cancel,
	}
	go c.writePump()
	return c
}

// Send queues an event for delivery. It fails rather than blocks when the
// client cannot keep up.
func (c *Connection) Send(ev Event) error {
	select {
	case <-c.ctx.Done():
		return ErrConnectionClosed
	default:
	}

	select {
	case c.send <- ev:
		return nil
	case <-c.ctx.Done():
		return ErrConnectionClosed
	default:
		c.logger.Warn("Send buffer full, closing connection")
		_ = c.Close()
		return ErrConnectionClosed
	}
}

// Close shuts the connection down. Safe to call more than once.
func (c *Connection) Close() error {
	var err error
	c.closeOnce.Do(func() {
		c.cancel()
		err = c.conn.Close()
	})
	return err
}

// CloseWithReason sends a close frame with the given code and reason
// before tearing the connection down
func (c *Connection) CloseWithReason(code int, reason string) error {
	_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
	_ = c.conn.WriteMessage(websocket.CloseMessage, websocket.FormatCloseMessage(code, reason))
	return c.Close()
}

// ReadEvents reads inbound JSON messages until the connection drops,
// invoking handle for each one
func (c *Connection) ReadEvents(handle func(msg InboundMessage)) {
	defer func() { _ = c.Close() }()

	c.conn.SetReadLimit(maxMessageSize)
	_ = c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		_ = c.conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	for {
		select {
		case <-c.ctx.Done():
			return
		default:
		}

		var msg InboundMessage
		if err := c.conn.ReadJSON(&msg); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure, websocket.CloseNormalClosure) {
				c.logger.Debug("WebSocket read error", "error", err)
			}
			return
		}
		handle(msg)
	}
}

// writePump delivers queued events and keeps the connection alive with
// pings
func (c *Connection) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		_ = c.Close()
	}()

	for {
		select {
		case ev := <-c.send:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteJSON(ev); err != nil {
				c.logger.Debug("Failed to write event", "error", err)
				return
			}

		case <-ticker.C:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}

		case <-c.ctx.Done():
			return
		}
	}
}

// InboundMessage is a message received from a client
type InboundMessage struct {
	Type   string `json:"type"`
	Action string `json:"action,omitempty"`
	Amount int    `json:"amount,omitempty"`
}

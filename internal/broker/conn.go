package broker

import (
	"io"
	"log/slog"
	"net"
	"sync"
	"time"

	"github.com/gobwas/ws"
	"github.com/gobwas/ws/wsutil"
	"github.com/google/uuid"
)

const (
	maxCommandSize = 4 * 1024
	sendQueueSize  = 256
)

// Conn adapts one downstream WebSocket connection for the hub. It owns a
// buffered send queue so broadcasts never block on a slow peer.
type Conn struct {
	id     string
	raw    net.Conn
	hub    *Hub
	logger *slog.Logger

	// sendMu orders SendBytes against Close: the hub may dispatch to a
	// connection that is tearing down at the same moment, and a send must
	// never hit a closed queue.
	sendMu sync.Mutex
	closed bool
	send   chan []byte

	writeWait  time.Duration
	pongWait   time.Duration
	pingPeriod time.Duration
}

// NewConn wraps an upgraded connection. Call Start to begin pumping.
func NewConn(raw net.Conn, hub *Hub, logger *slog.Logger) *Conn {
	if logger == nil {
		logger = slog.Default()
	}
	return &Conn{
		id:         uuid.NewString(),
		raw:        raw,
		hub:        hub,
		logger:     logger,
		send:       make(chan []byte, sendQueueSize),
		writeWait:  5 * time.Second,
		pongWait:   60 * time.Second,
		pingPeriod: 50 * time.Second,
	}
}

// Start launches the read and write pumps.
func (c *Conn) Start() {
	go c.writePump()
	go c.readPump()
}

// ID returns the connection identifier used in logs.
func (c *Conn) ID() string { return c.id }

// SendBytes queues a message without blocking. A full queue means the peer
// is not draining its socket; the message is dropped for this connection
// only and delivery to others is unaffected. Sends after Close are dropped
// silently: the hub may still dispatch to a connection mid-teardown.
func (c *Conn) SendBytes(b []byte) {
	c.sendMu.Lock()
	defer c.sendMu.Unlock()

	if c.closed {
		return
	}
	select {
	case c.send <- b:
	default:
		c.logger.Warn("send queue full, dropping message", "conn", c.id)
	}
}

// Close shuts the connection down. Safe to call more than once.
func (c *Conn) Close() {
	c.sendMu.Lock()
	defer c.sendMu.Unlock()

	if c.closed {
		return
	}
	c.closed = true
	close(c.send)
}

// readPump reads frames until the connection ends, routing text frames to
// the hub as commands. Normal and abnormal closure are treated identically:
// the connection is unregistered and closed.
func (c *Conn) readPump() {
	defer func() {
		c.hub.Unregister(c)
		c.Close()
		c.raw.Close()
		c.logger.Info("connection closed", "conn", c.id)
	}()

	c.raw.SetReadDeadline(time.Now().Add(c.pongWait))

	for {
		header, err := ws.ReadHeader(c.raw)
		if err != nil {
			return
		}

		if header.Length > maxCommandSize {
			c.logger.Warn("frame too large", "conn", c.id, "size", header.Length)
			return
		}
		if !header.Fin {
			c.logger.Warn("fragmented frame not supported", "conn", c.id)
			return
		}

		payload := make([]byte, header.Length)
		if _, err := io.ReadFull(c.raw, payload); err != nil {
			return
		}
		if header.Masked {
			ws.Cipher(payload, header.Mask, 0)
		}

		switch header.OpCode {
		case ws.OpClose:
			return
		case ws.OpPing:
			wsutil.WriteServerMessage(c.raw, ws.OpPong, payload)
		case ws.OpPong:
			c.raw.SetReadDeadline(time.Now().Add(c.pongWait))
		case ws.OpText:
			c.raw.SetReadDeadline(time.Now().Add(c.pongWait))
			message := string(payload)
			c.logger.Info("received command", "conn", c.id, "message", message)
			c.hub.HandleCommand(c, message)
		}
	}
}

// writePump drains the send queue and keeps the peer alive with pings.
func (c *Conn) writePump() {
	ticker := time.NewTicker(c.pingPeriod)
	defer func() {
		ticker.Stop()
		c.raw.Close()
	}()

	for {
		select {
		case msg, ok := <-c.send:
			c.raw.SetWriteDeadline(time.Now().Add(c.writeWait))
			if !ok {
				c.raw.Write(ws.CompiledClose)
				return
			}
			if err := wsutil.WriteServerText(c.raw, msg); err != nil {
				return
			}

		case <-ticker.C:
			c.raw.SetWriteDeadline(time.Now().Add(c.writeWait))
			if err := wsutil.WriteServerMessage(c.raw, ws.OpPing, nil); err != nil {
				return
			}
		}
	}
}

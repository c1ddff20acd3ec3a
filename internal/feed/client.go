package feed

import (
	"context"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/gorilla/websocket"
)

// Client is the upstream ingestion client. One instance owns one connection.
type Client struct {
	cfg    Config
	repo   Applier
	logger *slog.Logger

	// Read-only identity universe. The client never holds instrument state.
	identities []string
	subscribed map[string]struct{}

	conn    *websocket.Conn
	writeMu sync.Mutex

	mu        sync.RWMutex
	connected bool
	closed    bool
}

// NewClient creates an upstream client for the given identity universe.
func NewClient(cfg Config, repo Applier, identities []string, logger *slog.Logger) *Client {
	if logger == nil {
		logger = slog.Default()
	}

	subscribed := make(map[string]struct{}, len(identities))
	for _, isin := range identities {
		subscribed[isin] = struct{}{}
	}

	return &Client{
		cfg:        cfg,
		repo:       repo,
		logger:     logger,
		identities: identities,
		subscribed: subscribed,
	}
}

// Connect establishes the WebSocket connection.
func (c *Client) Connect(ctx context.Context) error {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return ErrAlreadyClosed
	}
	c.mu.Unlock()

	dialer := websocket.Dialer{
		HandshakeTimeout: c.cfg.HandshakeTimeout,
	}

	conn, _, err := dialer.DialContext(ctx, c.cfg.URL, nil)
	if err != nil {
		return err
	}

	c.mu.Lock()
	c.conn = conn
	c.connected = true
	c.mu.Unlock()

	c.logger.Debug("upstream feed connected", "url", c.cfg.URL)
	return nil
}

// Subscribe sends the single subscribe-all request covering every identity
// of interest, comma-joined.
func (c *Client) Subscribe() error {
	c.mu.RLock()
	if !c.connected {
		c.mu.RUnlock()
		return ErrNotConnected
	}
	c.mu.RUnlock()

	c.logger.Info("subscribing upstream", "instruments", len(c.identities))

	request := subscribeAllPrefix + strings.Join(c.identities, ",")

	c.writeMu.Lock()
	defer c.writeMu.Unlock()
	c.conn.SetWriteDeadline(time.Now().Add(c.cfg.WriteTimeout))
	return c.conn.WriteMessage(websocket.TextMessage, []byte(request))
}

// Run receives and decodes push frames until the connection closes or ctx is
// cancelled. The returned error is the read error that ended the loop, or
// nil on cancellation.
func (c *Client) Run(ctx context.Context) error {
	c.mu.RLock()
	conn := c.conn
	connected := c.connected
	c.mu.RUnlock()

	if !connected {
		return ErrNotConnected
	}

	// Unblock the read loop when the context ends.
	stop := make(chan struct{})
	defer close(stop)
	go func() {
		select {
		case <-ctx.Done():
			conn.Close()
		case <-stop:
		}
	}()

	for {
		_, data, err := conn.ReadMessage()
		if err != nil {
			c.mu.Lock()
			c.connected = false
			c.mu.Unlock()

			if ctx.Err() != nil {
				return nil
			}
			return err
		}
		c.processFrame(data)
	}
}

// Close gracefully closes the connection.
func (c *Client) Close() error {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return nil
	}
	c.closed = true
	c.connected = false
	conn := c.conn
	c.mu.Unlock()

	if conn != nil {
		conn.WriteControl(
			websocket.CloseMessage,
			websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""),
			time.Now().Add(time.Second),
		)
		return conn.Close()
	}
	return nil
}

// IsConnected returns the current connection state.
func (c *Client) IsConnected() bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.connected
}

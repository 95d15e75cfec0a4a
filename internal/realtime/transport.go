package realtime

import (
	"context"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"
)

// Transport opens connections to the push endpoint.
type Transport interface {
	Dial(ctx context.Context) (Conn, error)
}

// Conn is one live connection. ReadFrame is called from a single goroutine;
// WriteFrame and Close may be called concurrently with it.
type Conn interface {
	ReadFrame() ([]byte, error)
	WriteFrame(data []byte) error
	Close() error
}

// WebSocketConfig configures a WebSocketTransport.
type WebSocketConfig struct {
	URL              string
	Header           http.Header
	HandshakeTimeout time.Duration
	WriteWait        time.Duration // Time allowed to write a frame
	PongWait         time.Duration // Time allowed to read the next pong
	PingPeriod       time.Duration // Must be less than PongWait
	MaxMessageSize   int64
}

// DefaultWebSocketConfig returns keepalive settings for url.
func DefaultWebSocketConfig(url string) WebSocketConfig {
	pongWait := 60 * time.Second
	return WebSocketConfig{
		URL:              url,
		HandshakeTimeout: 10 * time.Second,
		WriteWait:        10 * time.Second,
		PongWait:         pongWait,
		PingPeriod:       (pongWait * 9) / 10,
		MaxMessageSize:   512 * 1024,
	}
}

// WebSocketTransport dials the push endpoint with gorilla/websocket and keeps
// each connection alive with pings.
type WebSocketTransport struct {
	cfg    WebSocketConfig
	logger *zap.Logger
}

// NewWebSocketTransport creates a WebSocketTransport.
func NewWebSocketTransport(cfg WebSocketConfig, logger *zap.Logger) *WebSocketTransport {
	if cfg.WriteWait <= 0 {
		cfg.WriteWait = 10 * time.Second
	}
	return &WebSocketTransport{cfg: cfg, logger: logger}
}

// Dial opens a websocket connection and starts its ping loop.
func (t *WebSocketTransport) Dial(ctx context.Context) (Conn, error) {
	dialer := websocket.Dialer{
		HandshakeTimeout: t.cfg.HandshakeTimeout,
	}

	conn, _, err := dialer.DialContext(ctx, t.cfg.URL, t.cfg.Header)
	if err != nil {
		return nil, fmt.Errorf("dial %s: %w", t.cfg.URL, err)
	}

	if t.cfg.MaxMessageSize > 0 {
		conn.SetReadLimit(t.cfg.MaxMessageSize)
	}
	if t.cfg.PongWait > 0 {
		conn.SetReadDeadline(time.Now().Add(t.cfg.PongWait))
		conn.SetPongHandler(func(string) error {
			return conn.SetReadDeadline(time.Now().Add(t.cfg.PongWait))
		})
	}

	wc := &wsConn{
		conn:   conn,
		cfg:    t.cfg,
		done:   make(chan struct{}),
		logger: t.logger,
	}
	if t.cfg.PingPeriod > 0 {
		go wc.pingLoop()
	}

	t.logger.Debug("websocket connected", zap.String("url", t.cfg.URL))
	return wc, nil
}

type wsConn struct {
	conn   *websocket.Conn
	cfg    WebSocketConfig
	logger *zap.Logger

	writeMu   sync.Mutex
	done      chan struct{}
	closeOnce sync.Once
}

func (c *wsConn) ReadFrame() ([]byte, error) {
	_, data, err := c.conn.ReadMessage()
	if err != nil {
		if websocket.IsUnexpectedCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
			c.logger.Debug("websocket read error", zap.Error(err))
		}
		return nil, err
	}
	return data, nil
}

func (c *wsConn) WriteFrame(data []byte) error {
	c.writeMu.Lock()
	defer c.writeMu.Unlock()

	c.conn.SetWriteDeadline(time.Now().Add(c.cfg.WriteWait))
	return c.conn.WriteMessage(websocket.TextMessage, data)
}

func (c *wsConn) Close() error {
	var err error
	c.closeOnce.Do(func() {
		close(c.done)

		c.writeMu.Lock()
		_ = c.conn.WriteControl(
			websocket.CloseMessage,
			websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""),
			time.Now().Add(time.Second),
		)
		c.writeMu.Unlock()

		err = c.conn.Close()
	})
	return err
}

// pingLoop sends periodic pings until the connection is closed or a ping
// fails. A missing pong surfaces as a read deadline error in ReadFrame.
func (c *wsConn) pingLoop() {
	ticker := time.NewTicker(c.cfg.PingPeriod)
	defer ticker.Stop()

	for {
		select {
		case <-c.done:
			return
		case <-ticker.C:
			c.writeMu.Lock()
			err := c.conn.WriteControl(websocket.PingMessage, nil, time.Now().Add(c.cfg.WriteWait))
			c.writeMu.Unlock()
			if err != nil {
				c.logger.Debug("failed to send ping", zap.Error(err))
				return
			}
		}
	}
}

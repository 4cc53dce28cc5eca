// Package ws implements the websocket transport to the assistant backend:
// base64 PCM16 text frames outbound, JSON control messages inbound.
package ws

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/voxa-ai/voxa/pkg/errorsx"
	"github.com/voxa-ai/voxa/pkg/frames"
	"github.com/voxa-ai/voxa/pkg/pcm"
	"github.com/voxa-ai/voxa/pkg/protocol"
	"github.com/voxa-ai/voxa/pkg/transports"
)

type Config struct {
	URL              string        `mapstructure:"url"`
	HandshakeTimeout time.Duration `mapstructure:"handshake_timeout"`
	RecvBuffer       int           `mapstructure:"recv_buffer"`
}

func (c Config) withDefaults() Config {
	if c.HandshakeTimeout <= 0 {
		c.HandshakeTimeout = 10 * time.Second
	}
	if c.RecvBuffer <= 0 {
		c.RecvBuffer = 512
	}
	return c
}

type Client struct {
	cfg    Config
	gate   transports.Gate
	logger *slog.Logger

	recvCh chan transports.Event
	connID string

	mu       sync.Mutex
	conn     *websocket.Conn
	chClosed bool
	open     atomic.Bool
	closed   atomic.Bool

	closeOnce sync.Once
	writeMu   sync.Mutex
}

func New(cfg Config, gate transports.Gate, logger *slog.Logger) *Client {
	cfg = cfg.withDefaults()
	if logger == nil {
		logger = slog.Default()
	}
	connID := uuid.NewString()
	return &Client{
		cfg:    cfg,
		gate:   gate,
		logger: logger.With("conn", connID),
		recvCh: make(chan transports.Event, cfg.RecvBuffer),
		connID: connID,
	}
}

func (c *Client) Name() string { return "ws" }

func (c *Client) Recv() <-chan transports.Event { return c.recvCh }

// Start dials in the background. The outcome arrives on Recv as an Opened or
// Closed event; Start itself only fails on misuse.
func (c *Client) Start(ctx context.Context) error {
	if c.cfg.URL == "" {
		return errorsx.Wrap(errors.New("ws: empty url"), errorsx.ReasonTransportConnect)
	}
	if ctx == nil {
		ctx = context.Background()
	}
	go c.dial(ctx)
	return nil
}

func (c *Client) dial(ctx context.Context) {
	dialer := websocket.Dialer{HandshakeTimeout: c.cfg.HandshakeTimeout}
	conn, _, err := dialer.DialContext(ctx, c.cfg.URL, nil)
	if err != nil {
		c.logger.Warn("ws_dial_failed", "url", c.cfg.URL, "error", err.Error())
		c.finish(errorsx.Wrap(err, errorsx.ReasonTransportConnect))
		return
	}
	if !c.installConn(conn) {
		// Stop raced the handshake; the session is gone.
		_ = conn.Close()
		return
	}
	c.emit(transports.Event{Kind: transports.EventOpened})
	go c.readPump(conn)
}

// installConn publishes the dialed connection unless Stop already ran. The
// stopped check and the assignment share one critical section; otherwise a
// Stop landing between them would see no connection to close and the socket
// would outlive the session.
func (c *Client) installConn(conn *websocket.Conn) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed.Load() {
		return false
	}
	c.conn = conn
	c.open.Store(true)
	return true
}

func (c *Client) readPump(conn *websocket.Conn) {
	for {
		_, raw, err := conn.ReadMessage()
		if err != nil {
			if c.closed.Load() {
				c.finish(nil)
				return
			}
			c.finish(errorsx.Wrap(err, errorsx.ReasonTransportClosed))
			return
		}
		msg, err := protocol.Decode(raw)
		if err != nil {
			// Malformed and unrecognized payloads are dropped without retry.
			c.logger.Debug("ws_drop_payload", "error", err.Error())
			continue
		}
		c.emit(transports.Event{Kind: transports.EventMessage, Msg: msg})
	}
}

// Send quantizes and transmits one capture frame. Frames are dropped, never
// queued, while the gate is closed or the connection is not open; stale
// microphone audio has no value.
func (c *Client) Send(frame frames.AudioFrame) error {
	if !c.open.Load() || c.closed.Load() {
		return nil
	}
	if c.gate != nil && !c.gate() {
		return nil
	}
	c.mu.Lock()
	conn := c.conn
	c.mu.Unlock()
	if conn == nil {
		return nil
	}
	payload := protocol.EncodeCaptureFrame(pcm.Quantize(frame.Samples()))
	c.writeMu.Lock()
	err := conn.WriteMessage(websocket.TextMessage, []byte(payload))
	c.writeMu.Unlock()
	if err != nil {
		return errorsx.Wrap(err, errorsx.ReasonTransportSend)
	}
	return nil
}

func (c *Client) Stop() error {
	c.closed.Store(true)
	c.open.Store(false)
	c.mu.Lock()
	conn := c.conn
	c.conn = nil
	c.mu.Unlock()
	if conn != nil {
		_ = conn.Close()
	} else {
		// Never connected (or dial still in flight); close the event stream
		// so readers are not left waiting.
		c.finish(nil)
	}
	return nil
}

// finish emits the terminal Closed event (err may be nil for an orderly stop)
// and closes the event stream, exactly once.
func (c *Client) finish(err error) {
	c.closeOnce.Do(func() {
		c.open.Store(false)
		c.emit(transports.Event{Kind: transports.EventClosed, Err: err})
		c.mu.Lock()
		c.chClosed = true
		c.mu.Unlock()
		close(c.recvCh)
	})
}

func (c *Client) emit(ev transports.Event) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.chClosed {
		return
	}
	select {
	case c.recvCh <- ev:
	default:
		c.logger.Warn("ws_recv_overflow", "kind", string(ev.Kind))
	}
}

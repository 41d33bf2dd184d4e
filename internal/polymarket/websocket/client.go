// Package websocket to get events of market data from Polymarket.
package websocket

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"
)

const (
	DefaultURL            = "wss://ws-subscriptions-clob.polymarket.com/ws"
	DefaultMarketEndpoint = "/market"

	HandshakeTimeout    = 30 * time.Second
	DefaultCloseTimeout = 5 * time.Second
	DefaultWriteTimeout = 10 * time.Second

	messageBuffer = 64
)

// ErrClosed is returned by Read once the client has been closed locally.
var ErrClosed = errors.New("websocket client closed")

// SubscriptionLevel1 requests best bid/ask updates.
const SubscriptionLevel1 = "level1"

type MarketSubscription struct {
	AssetsIDs []string `json:"assets_ids"`
	Type      string   `json:"type"`
}

// Client is a market channel connection. A background reader drains the
// socket into a channel so that a Read timing out never interrupts a frame.
type Client struct {
	conn   *websocket.Conn
	logger *slog.Logger

	messages chan []byte
	readErr  error // set before messages is closed

	done       chan struct{}
	readerDone chan struct{}
	closeOnce  sync.Once
	closeErr   error
}

func New(ctx context.Context, url string, endpoint string, logger *slog.Logger) (*Client, error) {
	if logger == nil {
		logger = slog.Default()
	}

	dialer := websocket.Dialer{
		HandshakeTimeout: HandshakeTimeout,
	}

	conn, resp, err := dialer.DialContext(ctx, url+endpoint, http.Header{})
	if err != nil {
		return nil, fmt.Errorf("dial %s: %w", url+endpoint, err)
	}
	logger.Debug("connected to Polymarket websocket", "endpoint", endpoint, "status", resp.Status)

	c := &Client{
		conn:       conn,
		logger:     logger,
		messages:   make(chan []byte, messageBuffer),
		done:       make(chan struct{}),
		readerDone: make(chan struct{}),
	}
	go c.readLoop()

	return c, nil
}

func (c *Client) readLoop() {
	defer close(c.readerDone)
	defer close(c.messages)

	for {
		_, msg, err := c.conn.ReadMessage()
		if err != nil {
			select {
			case <-c.done:
				c.readErr = ErrClosed
			default:
				c.readErr = err
			}
			return
		}

		select {
		case c.messages <- msg:
		case <-c.done:
			c.readErr = ErrClosed
			return
		}
	}
}

// Read returns the next raw frame, in arrival order. It returns ctx's error
// when ctx ends first; the connection stays usable in that case.
func (c *Client) Read(ctx context.Context) ([]byte, error) {
	select {
	case <-ctx.Done():
		return nil, fmt.Errorf("reading message: %w", ctx.Err())
	case msg, ok := <-c.messages:
		if !ok {
			return nil, fmt.Errorf("couldn't read message: %w", c.readErr)
		}
		return msg, nil
	}
}

func (c *Client) SubscribeMarket(ctx context.Context, tokenIDs []string) error {
	deadline, ok := ctx.Deadline()
	if !ok {
		deadline = time.Now().Add(DefaultWriteTimeout)
	}
	if err := c.conn.SetWriteDeadline(deadline); err != nil {
		return fmt.Errorf("set write deadline: %w", err)
	}

	sub := MarketSubscription{
		AssetsIDs: tokenIDs,
		Type:      SubscriptionLevel1,
	}
	if err := c.conn.WriteJSON(sub); err != nil {
		return fmt.Errorf("write subscription: %w", err)
	}
	return nil
}

// Ping sends a keepalive control frame.
func (c *Client) Ping(ctx context.Context) error {
	deadline, ok := ctx.Deadline()
	if !ok {
		deadline = time.Now().Add(DefaultWriteTimeout)
	}
	if err := c.conn.WriteControl(websocket.PingMessage, nil, deadline); err != nil {
		return fmt.Errorf("send ping: %w", err)
	}
	return nil
}

// Close sends a close frame, closes the socket and waits for the reader to
// exit. It is safe to call more than once.
func (c *Client) Close(ctx context.Context) error {
	c.closeOnce.Do(func() {
		close(c.done)

		deadline, ok := ctx.Deadline()
		if !ok {
			deadline = time.Now().Add(DefaultCloseTimeout)
		}

		err := c.conn.WriteControl(
			websocket.CloseMessage,
			websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""),
			deadline,
		)
		if err != nil {
			c.logger.Debug("failed to send close message", "error", err)
		}

		c.closeErr = c.conn.Close()
		<-c.readerDone
	})
	return c.closeErr
}

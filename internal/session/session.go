// Package session streams live prices for one market until it expires.
//
// A Session is single-use: it connects, subscribes to both outcome tokens,
// applies best ask updates to its own price state and terminates on expiry,
// on a transport failure or when its context ends. Recovery is the caller's
// job and always goes through a new Session.
package session

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/daszybak/btc15m-watcher/internal/display"
	"github.com/daszybak/btc15m-watcher/internal/engine/orderbook"
	"github.com/daszybak/btc15m-watcher/internal/market"
	"github.com/daszybak/btc15m-watcher/internal/metrics"
	"github.com/daszybak/btc15m-watcher/internal/polymarket/websocket"
	"github.com/daszybak/btc15m-watcher/internal/price"
	"github.com/daszybak/btc15m-watcher/pkg/hashset"
)

const (
	DefaultReadTimeout  = 10 * time.Second
	DefaultCloseTimeout = 5 * time.Second
)

var (
	// ErrConnect wraps failures to open or subscribe the stream.
	ErrConnect = errors.New("connection error")
	// ErrStream wraps transport failures after the stream went live.
	ErrStream = errors.New("stream error")
	// ErrAlreadyRun is returned when Run is called on a used session.
	ErrAlreadyRun = errors.New("session already run")
)

// Conn is the market stream of one session.
type Conn interface {
	SubscribeMarket(ctx context.Context, tokenIDs []string) error
	// Read blocks for the next raw frame or until ctx ends.
	Read(ctx context.Context) ([]byte, error)
	Ping(ctx context.Context) error
	Close(ctx context.Context) error
}

// Dialer opens a new Conn.
type Dialer func(ctx context.Context) (Conn, error)

// DialWebsocket dials the Polymarket market channel.
func DialWebsocket(url, endpoint string, logger *slog.Logger) Dialer {
	return func(ctx context.Context) (Conn, error) {
		return websocket.New(ctx, url, endpoint, logger)
	}
}

// Prices is the last accepted best ask per outcome. Zero means unknown.
type Prices struct {
	Yes price.Price
	No  price.Price
}

type Session struct {
	id     string
	desc   market.Descriptor
	dial   Dialer
	sink   display.Sink
	logger *slog.Logger

	readTimeout  time.Duration
	closeTimeout time.Duration
	now          func() time.Time

	state   State
	prices  Prices
	ignored hashset.Set[string]
	ran     bool
}

type Option func(*Session)

// WithReadTimeout bounds each wait for an inbound message. A wait that times
// out sends a keepalive ping.
func WithReadTimeout(d time.Duration) Option {
	return func(s *Session) { s.readTimeout = d }
}

func WithCloseTimeout(d time.Duration) Option {
	return func(s *Session) { s.closeTimeout = d }
}

// WithClock overrides time.Now for expiry checks and remaining time.
func WithClock(now func() time.Time) Option {
	return func(s *Session) { s.now = now }
}

func New(desc market.Descriptor, dial Dialer, sink display.Sink, logger *slog.Logger, opts ...Option) *Session {
	if logger == nil {
		logger = slog.Default()
	}
	if sink == nil {
		sink = display.SinkFunc(func(display.Update) {})
	}

	id := uuid.NewString()
	s := &Session{
		id:           id,
		desc:         desc,
		dial:         dial,
		sink:         sink,
		logger:       logger.With("component", "session", "session_id", id, "market", desc),
		readTimeout:  DefaultReadTimeout,
		closeTimeout: DefaultCloseTimeout,
		now:          time.Now,
		state:        Connecting,
		ignored:      hashset.NewSet[string](),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *Session) ID() string { return s.id }

func (s *Session) Descriptor() market.Descriptor { return s.desc }

// State is safe to read once Run has returned.
func (s *Session) State() State { return s.state }

// Prices is safe to read once Run has returned.
func (s *Session) Prices() Prices { return s.prices }

// Run drives the session to TERMINATED. It returns nil when the market
// expired, an error wrapping ErrConnect or ErrStream on transport failure,
// and ctx's error on cancellation. The connection is closed before Run
// returns in every case.
func (s *Session) Run(ctx context.Context) error {
	if s.ran {
		return ErrAlreadyRun
	}
	s.ran = true

	s.logger.Info("watching market",
		"title", s.desc.Title,
		"ends_at", s.desc.EndTime,
		"market_id", s.desc.ConditionID,
		"yes_token", s.desc.YesTokenID,
		"no_token", s.desc.NoTokenID,
	)

	s.state = Connecting
	conn, err := s.dial(ctx)
	if err != nil {
		s.state = Terminated
		return s.finish(ctx, fmt.Errorf("%w: %w", ErrConnect, err))
	}

	err = s.stream(ctx, conn)
	s.close(ctx, conn)
	return s.finish(ctx, err)
}

func (s *Session) stream(ctx context.Context, conn Conn) error {
	s.state = Subscribed
	if err := conn.SubscribeMarket(ctx, s.desc.TokenIDs()); err != nil {
		return fmt.Errorf("%w: subscribe: %w", ErrConnect, err)
	}
	s.state = Live

	for {
		remaining := s.desc.EndTime.Sub(s.now())
		if remaining <= 0 {
			return nil
		}
		if err := ctx.Err(); err != nil {
			return err
		}

		readCtx, cancel := context.WithTimeout(ctx, min(s.readTimeout, remaining))
		raw, err := conn.Read(readCtx)
		cancel()

		if err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			if !errors.Is(err, context.DeadlineExceeded) {
				return fmt.Errorf("%w: %w", ErrStream, err)
			}
			s.state = Idle
			if s.now().Before(s.desc.EndTime) {
				if err := conn.Ping(ctx); err != nil {
					return fmt.Errorf("%w: keepalive: %w", ErrStream, err)
				}
			}
			continue
		}

		s.state = Live
		msgs, err := websocket.ParseMessages(raw)
		if err != nil {
			metrics.MalformedMessages.Inc()
			s.logger.Warn("skipping malformed message", "error", err)
		}
		for _, m := range msgs {
			s.processMessage(m)
		}
	}
}

// processMessage turns one decoded event into (asset, best ask) updates.
func (s *Session) processMessage(m websocket.Message) {
	switch {
	case m.Level1 != nil:
		if m.Level1.AssetID != "" {
			s.apply(m.Level1.AssetID, m.Level1.BestAsk)
		}
	case m.PriceChange != nil:
		for _, c := range m.PriceChange.PriceChanges {
			s.apply(c.AssetID, c.BestAsk)
		}
	case m.Book != nil:
		if best, ok := bestAsk(m.Book); ok {
			s.apply(m.Book.AssetID, best)
		}
	default:
		s.logger.Debug("ignoring message", "event_type", m.EventType)
	}
}

// bestAsk is the lowest priced entry of the book's ask ladder.
func bestAsk(b *websocket.Book) (price.Price, bool) {
	levels := make([]orderbook.Level, 0, len(b.Asks))
	for _, a := range b.Asks {
		levels = append(levels, orderbook.Level{Price: a.Price, Size: a.Size})
	}

	ob := orderbook.New()
	if err := ob.Replace(orderbook.Asks, levels); err != nil {
		return 0, false
	}
	best, ok := ob.Best(orderbook.Asks)
	return best.Price, ok
}

// apply records p for the outcome assetID prices and notifies the sink.
// Zero prices and assets outside this market are dropped, as are prices above
// one, which are counted as malformed.
func (s *Session) apply(assetID string, p price.Price) {
	if p.IsZero() {
		return
	}
	if p.AboveOne() {
		metrics.MalformedMessages.Inc()
		s.logger.Warn("dropping out of range price", "asset_id", assetID, "price", p)
		return
	}

	side, ok := s.desc.SideOf(assetID)
	if !ok {
		if s.ignored.Set(assetID) {
			s.logger.Debug("ignoring unrelated asset", "asset_id", assetID)
		}
		return
	}

	switch side {
	case market.Yes:
		s.prices.Yes = p
	case market.No:
		s.prices.No = p
	}
	metrics.PriceUpdates.WithLabelValues(string(side)).Inc()
	metrics.BestAsk.WithLabelValues(string(side)).Set(p.Float64())

	s.sink.PriceUpdate(display.Update{
		SecondsRemaining: int(s.desc.EndTime.Sub(s.now()).Seconds()),
		YesCents:         s.prices.Yes.Cents(),
		NoCents:          s.prices.No.Cents(),
	})
}

// close moves through CLOSING to TERMINATED. It uses its own deadline so a
// cancelled ctx still gets a clean close frame.
func (s *Session) close(ctx context.Context, conn Conn) {
	s.state = Closing

	closeCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), s.closeTimeout)
	defer cancel()
	if err := conn.Close(closeCtx); err != nil {
		s.logger.Debug("close connection", "error", err)
	}

	s.state = Terminated
}

func (s *Session) finish(ctx context.Context, err error) error {
	switch {
	case err == nil:
		metrics.Sessions.WithLabelValues("expired").Inc()
		s.logger.Info("market closed, rotating")
	case ctx.Err() != nil:
		metrics.Sessions.WithLabelValues("cancelled").Inc()
		s.logger.Info("session cancelled")
		return ctx.Err()
	case errors.Is(err, ErrConnect):
		metrics.Sessions.WithLabelValues("connection_error").Inc()
		s.logger.Warn("connection error", "error", err)
	default:
		metrics.Sessions.WithLabelValues("stream_error").Inc()
		s.logger.Warn("stream error", "error", err)
	}
	return err
}

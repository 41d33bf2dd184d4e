// Package watcher rotates across market instances forever: discover the live
// market, stream it until it ends, pause, repeat.
package watcher

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/daszybak/btc15m-watcher/internal/discovery"
	"github.com/daszybak/btc15m-watcher/internal/market"
)

const (
	DefaultNoMarketBackoff = 30 * time.Second
	DefaultRotationPause   = 4 * time.Second
)

// Finder locates the currently live market.
type Finder interface {
	FindActiveWindow(ctx context.Context) (market.Descriptor, error)
}

// Runner is one stream session; Run blocks until it terminates.
type Runner interface {
	Run(ctx context.Context) error
}

// SessionFactory builds a fresh session for each discovered market.
type SessionFactory func(d market.Descriptor) Runner

type Config struct {
	NoMarketBackoff time.Duration // wait after an empty sweep (default: 30s)
	RotationPause   time.Duration // wait after a session ends (default: 4s)
}

// DefaultConfig returns the exchange-tuned defaults.
func DefaultConfig() Config {
	return Config{
		NoMarketBackoff: DefaultNoMarketBackoff,
		RotationPause:   DefaultRotationPause,
	}
}

type Watcher struct {
	cfg        Config
	finder     Finder
	newSession SessionFactory
	logger     *slog.Logger
	// afterSession runs after every session, e.g. to end the console line.
	afterSession func()
}

type Option func(*Watcher)

// WithAfterSession registers fn to run each time a session returns.
func WithAfterSession(fn func()) Option {
	return func(w *Watcher) { w.afterSession = fn }
}

func New(cfg Config, finder Finder, newSession SessionFactory, logger *slog.Logger, opts ...Option) *Watcher {
	if logger == nil {
		logger = slog.Default()
	}
	w := &Watcher{
		cfg:          cfg,
		finder:       finder,
		newSession:   newSession,
		logger:       logger.With("component", "watcher"),
		afterSession: func() {},
	}
	for _, opt := range opts {
		opt(w)
	}
	return w
}

// Run loops until ctx is cancelled and then returns ctx's error. Sessions are
// strictly sequential; a running session sees the same ctx and closes its
// connection before Run returns.
func (w *Watcher) Run(ctx context.Context) error {
	w.logger.Info("starting")

	for {
		w.logger.Info("scanning for active market")
		d, err := w.finder.FindActiveWindow(ctx)
		if err != nil {
			if ctx.Err() != nil {
				w.logger.Info("stopping", "reason", ctx.Err())
				return ctx.Err()
			}
			if errors.Is(err, discovery.ErrNoMarketFound) {
				w.logger.Info("no active market found, retrying", "backoff", w.cfg.NoMarketBackoff)
			} else {
				w.logger.Error("discovery failed, retrying", "error", err, "backoff", w.cfg.NoMarketBackoff)
			}
			if err := sleep(ctx, w.cfg.NoMarketBackoff); err != nil {
				w.logger.Info("stopping", "reason", err)
				return err
			}
			continue
		}

		// Session errors are already reported by the session itself.
		_ = w.newSession(d).Run(ctx)
		w.afterSession()
		if ctx.Err() != nil {
			w.logger.Info("stopping", "reason", ctx.Err())
			return ctx.Err()
		}

		w.logger.Info("waiting for next market cycle", "pause", w.cfg.RotationPause)
		if err := sleep(ctx, w.cfg.RotationPause); err != nil {
			w.logger.Info("stopping", "reason", err)
			return err
		}
	}
}

func sleep(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}

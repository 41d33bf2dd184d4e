package main

import (
	"context"
	"errors"
	"flag"
	"log"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/daszybak/btc15m-watcher/internal/discovery"
	"github.com/daszybak/btc15m-watcher/internal/display"
	"github.com/daszybak/btc15m-watcher/internal/market"
	"github.com/daszybak/btc15m-watcher/internal/metrics"
	"github.com/daszybak/btc15m-watcher/internal/polymarket/gamma"
	"github.com/daszybak/btc15m-watcher/internal/session"
	"github.com/daszybak/btc15m-watcher/internal/watcher"
)

const shutdownTimeout = 5 * time.Second

func main() {
	configPath := flag.String("config", "", "path to config file (built-in defaults when empty)")
	flag.Parse()

	cfg, err := readConfig(*configPath)
	if err != nil {
		log.Fatalf("Couldn't read config: %v", err)
	}

	level, _ := parseLogLevel(cfg.LogLevel)
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
	slog.SetDefault(logger)

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	gammaClient := gamma.New(cfg.Polymarket.GammaURL, gamma.WithTimeout(cfg.httpTimeout()))
	finder := discovery.New(gammaClient, logger)

	console := display.NewConsole(os.Stdout)
	dial := session.DialWebsocket(cfg.Polymarket.WS.URL, cfg.Polymarket.WS.MarketEndpoint, logger)
	newSession := func(d market.Descriptor) watcher.Runner {
		return session.New(d, dial, console, logger, session.WithReadTimeout(cfg.Stream.ReadTimeout.Duration()))
	}

	w := watcher.New(cfg.watcherConfig(), finder, newSession, logger, watcher.WithAfterSession(console.EndLine))

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		err := w.Run(gctx)
		if errors.Is(err, context.Canceled) {
			return nil
		}
		return err
	})

	if cfg.MetricsAddr != "" {
		srv := metrics.NewServer(cfg.MetricsAddr)
		g.Go(func() error {
			logger.Info("serving metrics", "addr", cfg.MetricsAddr)
			if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				return err
			}
			return nil
		})
		g.Go(func() error {
			<-gctx.Done()
			shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
			defer cancel()
			return srv.Shutdown(shutdownCtx)
		})
	}

	if err := g.Wait(); err != nil {
		logger.Error("exiting", "error", err)
		os.Exit(1)
	}
	logger.Info("exiting market watcher")
}

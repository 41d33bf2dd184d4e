package main

import (
	"fmt"
	"log/slog"
	"os"
	"strings"
	"time"

	configtypes "github.com/daszybak/btc15m-watcher/internal/config"
	"github.com/daszybak/btc15m-watcher/internal/polymarket/gamma"
	"github.com/daszybak/btc15m-watcher/internal/polymarket/websocket"
	"github.com/daszybak/btc15m-watcher/internal/session"
	"github.com/daszybak/btc15m-watcher/internal/watcher"
	"go.yaml.in/yaml/v4"
)

type config struct {
	LogLevel    string               `yaml:"log_level"`    // debug, info, warn, error
	MetricsAddr string               `yaml:"metrics_addr"` // empty disables /metrics
	HTTPTimeout configtypes.Duration `yaml:"http_timeout"`
	Polymarket  struct {
		GammaURL string `yaml:"gamma_url"`
		WS       struct {
			URL            string `yaml:"url"`
			MarketEndpoint string `yaml:"market_endpoint"`
		} `yaml:"ws"`
	} `yaml:"polymarket"`
	Watcher struct {
		NoMarketBackoff configtypes.Duration `yaml:"no_market_backoff"`
		RotationPause   configtypes.Duration `yaml:"rotation_pause"`
	} `yaml:"watcher"`
	Stream struct {
		ReadTimeout configtypes.Duration `yaml:"read_timeout"`
	} `yaml:"stream"`
}

func defaultConfig() *config {
	cfg := &config{
		LogLevel:    "info",
		HTTPTimeout: configtypes.Duration(gamma.DefaultTimeout),
	}
	cfg.Polymarket.GammaURL = gamma.DefaultBaseURL
	cfg.Polymarket.WS.URL = websocket.DefaultURL
	cfg.Polymarket.WS.MarketEndpoint = websocket.DefaultMarketEndpoint
	cfg.Watcher.NoMarketBackoff = configtypes.Duration(watcher.DefaultNoMarketBackoff)
	cfg.Watcher.RotationPause = configtypes.Duration(watcher.DefaultRotationPause)
	cfg.Stream.ReadTimeout = configtypes.Duration(session.DefaultReadTimeout)
	return cfg
}

// readConfig returns the defaults overlaid with the file at configPath, if any.
func readConfig(configPath string) (*config, error) {
	cfg := defaultConfig()

	if configPath != "" {
		rawConfig, err := os.ReadFile(configPath)
		if err != nil {
			return nil, fmt.Errorf("couldn't read file %s: %w", configPath, err)
		}
		if err = yaml.Unmarshal(rawConfig, cfg); err != nil {
			return nil, fmt.Errorf("couldn't parse config: %w", err)
		}
	}

	if err := validateConfig(cfg); err != nil {
		return nil, fmt.Errorf("couldn't validate config: %w", err)
	}

	return cfg, nil
}

func validateConfig(cfg *config) error {
	if _, err := parseLogLevel(cfg.LogLevel); err != nil {
		return err
	}
	if cfg.HTTPTimeout <= 0 {
		return fmt.Errorf("http_timeout must be greater than 0")
	}

	// Polymarket
	if cfg.Polymarket.GammaURL == "" {
		return fmt.Errorf("polymarket.gamma_url is required")
	}
	if cfg.Polymarket.WS.URL == "" {
		return fmt.Errorf("polymarket.ws.url is required")
	}
	if !strings.HasPrefix(cfg.Polymarket.WS.URL, "ws://") && !strings.HasPrefix(cfg.Polymarket.WS.URL, "wss://") {
		return fmt.Errorf("polymarket.ws.url must use ws:// or wss://")
	}
	if cfg.Polymarket.WS.MarketEndpoint == "" {
		return fmt.Errorf("polymarket.ws.market_endpoint is required")
	}

	// Loop timing
	if cfg.Watcher.NoMarketBackoff <= 0 {
		return fmt.Errorf("watcher.no_market_backoff must be greater than 0")
	}
	if cfg.Watcher.RotationPause <= 0 {
		return fmt.Errorf("watcher.rotation_pause must be greater than 0")
	}
	if cfg.Stream.ReadTimeout <= 0 {
		return fmt.Errorf("stream.read_timeout must be greater than 0")
	}

	return nil
}

func parseLogLevel(s string) (slog.Level, error) {
	var level slog.Level
	if err := level.UnmarshalText([]byte(s)); err != nil {
		return 0, fmt.Errorf("log_level %q must be one of debug, info, warn, error", s)
	}
	return level, nil
}

func (c *config) watcherConfig() watcher.Config {
	return watcher.Config{
		NoMarketBackoff: c.Watcher.NoMarketBackoff.Duration(),
		RotationPause:   c.Watcher.RotationPause.Duration(),
	}
}

func (c *config) httpTimeout() time.Duration {
	return c.HTTPTimeout.Duration()
}

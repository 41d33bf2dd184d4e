// Package discovery finds the Bitcoin up/down market that is live right now
// by sweeping the gamma search with every title the exchange may use.
package discovery

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/daszybak/btc15m-watcher/internal/market"
	"github.com/daszybak/btc15m-watcher/internal/metrics"
	"github.com/daszybak/btc15m-watcher/internal/polymarket/gamma"
	"github.com/daszybak/btc15m-watcher/internal/window"
)

// ErrNoMarketFound means a full sweep produced no live market. It is not a
// failure; callers retry after a backoff.
var ErrNoMarketFound = errors.New("no active market found")

const defaultTitle = "BTC 15m"

// Searcher runs one search query.
type Searcher interface {
	Search(ctx context.Context, q string) (*gamma.SearchResult, error)
}

type Finder struct {
	search Searcher
	now    func() time.Time
	logger *slog.Logger
}

type Option func(*Finder)

// WithClock overrides time.Now.
func WithClock(now func() time.Time) Option {
	return func(f *Finder) { f.now = now }
}

func New(search Searcher, logger *slog.Logger, opts ...Option) *Finder {
	if logger == nil {
		logger = slog.Default()
	}
	f := &Finder{
		search: search,
		now:    time.Now,
		logger: logger.With("component", "discovery"),
	}
	for _, opt := range opts {
		opt(f)
	}
	return f
}

// Candidates lists the queries of one sweep: every title variant of the
// current window followed by those of the next one, which the exchange
// sometimes indexes early.
func Candidates(current window.Window) []string {
	queries := window.TitleVariants(current.Start)
	return append(queries, window.TitleVariants(current.Next().Start)...)
}

// FindActiveWindow sweeps the candidates in order and returns the first
// market that passes the duration and liveness filters. Failed queries are
// logged and skipped. It returns ErrNoMarketFound when the sweep is
// exhausted, and ctx's error if ctx ends mid-sweep.
func (f *Finder) FindActiveWindow(ctx context.Context) (market.Descriptor, error) {
	if f.search == nil {
		return market.Descriptor{}, errors.New("discovery: no searcher configured")
	}

	now := f.now()
	current := window.Current(now)
	f.logger.Info("scanning for window", "window", current.String())

	for _, q := range Candidates(current) {
		if err := ctx.Err(); err != nil {
			return market.Descriptor{}, err
		}

		res, err := f.search.Search(ctx, q)
		if err != nil {
			if ctx.Err() != nil {
				return market.Descriptor{}, ctx.Err()
			}
			metrics.SearchRequests.WithLabelValues("error").Inc()
			f.logger.Warn("search failed", "query", q, "error", err)
			continue
		}
		metrics.SearchRequests.WithLabelValues("ok").Inc()

		if d, ok := f.selectMarket(res, now); ok {
			metrics.Sweeps.WithLabelValues("found").Inc()
			return d, nil
		}
	}

	metrics.Sweeps.WithLabelValues("none").Inc()
	return market.Descriptor{}, ErrNoMarketFound
}

// selectMarket returns the first hit in res that is a short market live at now.
func (f *Finder) selectMarket(res *gamma.SearchResult, now time.Time) (market.Descriptor, bool) {
	if res == nil {
		return market.Descriptor{}, false
	}

	for _, ev := range res.Events {
		d, err := descriptorFromEvent(ev)
		if err != nil {
			f.logger.Debug("skipping search hit", "error", err)
			continue
		}
		if d.Duration() > market.MaxDuration {
			continue
		}
		if !d.Live(now) {
			continue
		}
		if err := d.Validate(); err != nil {
			f.logger.Debug("skipping search hit", "title", d.Title, "error", err)
			continue
		}
		return d, true
	}
	return market.Descriptor{}, false
}

func descriptorFromEvent(ev *gamma.Event) (market.Descriptor, error) {
	if ev == nil || len(ev.Markets) == 0 || ev.Markets[0] == nil {
		return market.Descriptor{}, errors.New("event has no markets")
	}
	m := ev.Markets[0]

	start, err := parseTimestamp(firstNonEmpty(m.EventStartTime, ev.StartTime))
	if err != nil {
		return market.Descriptor{}, fmt.Errorf("start time: %w", err)
	}
	end, err := parseTimestamp(firstNonEmpty(m.EndDate, ev.EndDate))
	if err != nil {
		return market.Descriptor{}, fmt.Errorf("end time: %w", err)
	}
	if len(m.ClobTokenIDs) != 2 {
		return market.Descriptor{}, fmt.Errorf("want 2 token ids, got %d", len(m.ClobTokenIDs))
	}

	return market.Descriptor{
		Title:       firstNonEmpty(ev.Title, defaultTitle),
		YesTokenID:  m.ClobTokenIDs[0],
		NoTokenID:   m.ClobTokenIDs[1],
		StartTime:   start.In(window.Location()),
		EndTime:     end.In(window.Location()),
		ConditionID: m.ConditionID,
		QuestionID:  m.QuestionID,
	}, nil
}

func parseTimestamp(s string) (time.Time, error) {
	if s == "" {
		return time.Time{}, errors.New("missing")
	}
	return time.Parse(time.RFC3339, s)
}

func firstNonEmpty(vals ...string) string {
	for _, v := range vals {
		if v != "" {
			return v
		}
	}
	return ""
}

// Package marketwatch feeds the repository's bulk snapshot entry points from
// a market-wide polling source (the TSETMC market-watch API). The concrete
// source is an external collaborator; this package owns only the polling
// loop. Bulk applies run through the same change-detection and notification
// path as streamed updates.
package marketwatch

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/amirstm/tsetmc-pusher/internal/model"
)

// InstrumentData is one market-watch scan entry: the full trade and
// order-book state for one instrument.
type InstrumentData struct {
	Identification model.Identification
	Candle         model.Candle
	OrderBook      [model.OrderBookDepth]model.OrderBookRow
}

// ClientTypeData is one investor-type scan entry.
type ClientTypeData struct {
	Identification model.Identification
	ClientType     model.ClientType
}

// Source fetches market-wide snapshots.
type Source interface {
	MarketWatch(ctx context.Context) ([]InstrumentData, error)
	ClientTypeWatch(ctx context.Context) ([]ClientTypeData, error)
}

// Applier is the repository's bulk surface.
type Applier interface {
	ApplyTrade(model.Identification, model.Candle)
	ApplyOrderBook(model.Identification, [model.OrderBookDepth]model.OrderBookRow)
	ApplyClientType(model.Identification, model.ClientType)
}

// Config holds poller configuration.
type Config struct {
	Interval time.Duration // Poll interval
	Timeout  time.Duration // Per-fetch timeout
}

// DefaultConfig returns sensible defaults.
func DefaultConfig() Config {
	return Config{
		Interval: 3 * time.Second,
		Timeout:  10 * time.Second,
	}
}

// Poller periodically pulls market-wide snapshots into the repository.
type Poller struct {
	cfg    Config
	source Source
	repo   Applier
	logger *slog.Logger

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup
}

// New creates a new Poller.
func New(cfg Config, source Source, repo Applier, logger *slog.Logger) *Poller {
	if logger == nil {
		logger = slog.Default()
	}
	return &Poller{
		cfg:    cfg,
		source: source,
		repo:   repo,
		logger: logger,
		ctx:    context.Background(),
	}
}

// Start begins the polling loop.
func (p *Poller) Start(ctx context.Context) error {
	p.ctx, p.cancel = context.WithCancel(ctx)

	p.wg.Add(1)
	go p.run()

	p.logger.Info("market-watch poller started", "interval", p.cfg.Interval)
	return nil
}

// Stop gracefully shuts down the poller.
func (p *Poller) Stop(ctx context.Context) error {
	if p.cancel != nil {
		p.cancel()
	}

	done := make(chan struct{})
	go func() {
		p.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		p.logger.Info("market-watch poller stopped")
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// run is the main polling loop.
func (p *Poller) run() {
	defer p.wg.Done()

	ticker := time.NewTicker(p.cfg.Interval)
	defer ticker.Stop()

	// Poll immediately on start.
	p.pollOnce()

	for {
		select {
		case <-p.ctx.Done():
			return
		case <-ticker.C:
			p.pollOnce()
		}
	}
}

// pollOnce fetches and applies one market-wide scan. Fetch failures are
// logged and retried on the next tick.
func (p *Poller) pollOnce() {
	ctx, cancel := context.WithTimeout(p.ctx, p.cfg.Timeout)
	defer cancel()

	scan, err := p.source.MarketWatch(ctx)
	if err != nil {
		p.logger.Warn("market watch fetch failed", "err", err)
	} else {
		for _, entry := range scan {
			p.repo.ApplyTrade(entry.Identification, entry.Candle)
			p.repo.ApplyOrderBook(entry.Identification, entry.OrderBook)
		}
	}

	clientTypes, err := p.source.ClientTypeWatch(ctx)
	if err != nil {
		p.logger.Warn("client type fetch failed", "err", err)
		return
	}
	for _, entry := range clientTypes {
		p.repo.ApplyClientType(entry.Identification, entry.ClientType)
	}
}

package repository

import (
	"log/slog"
	"sync"

	"github.com/amirstm/tsetmc-pusher/internal/model"
)

// Change describes one observable state mutation.
type Change struct {
	Isin    string
	Channel model.Channel
	Ranks   []int // Changed order-book ranks, ascending; nil for other channels
}

// ChangeSink receives change notifications. At most one sink is registered
// (the subscription broker); until one is, notifications are dropped.
type ChangeSink interface {
	MarketDataChanged(Change)
}

// ChangeSinkFunc is a function adapter for ChangeSink.
type ChangeSinkFunc func(Change)

func (f ChangeSinkFunc) MarketDataChanged(c Change) { f(c) }

// Repository holds the canonical realtime market state.
type Repository struct {
	logger *slog.Logger

	mu          sync.Mutex
	instruments map[string]*model.Instrument

	sinkMu sync.RWMutex
	sink   ChangeSink
}

// New creates an empty repository.
func New(logger *slog.Logger) *Repository {
	if logger == nil {
		logger = slog.Default()
	}
	return &Repository{
		logger:      logger,
		instruments: make(map[string]*model.Instrument),
	}
}

// RegisterChangeSink installs the notification sink. Calling Apply* before a
// sink is registered is allowed; those notifications are simply dropped.
func (r *Repository) RegisterChangeSink(sink ChangeSink) {
	r.sinkMu.Lock()
	r.sink = sink
	r.sinkMu.Unlock()
}

// Snapshot returns a copy-safe read of one instrument record.
func (r *Repository) Snapshot(isin string) (model.Instrument, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	inst, ok := r.instruments[isin]
	if !ok {
		return model.Instrument{}, false
	}
	return *inst, true
}

// Len returns the number of known instruments.
func (r *Repository) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.instruments)
}

// ApplyTrade applies a candle update. Creates the instrument record if the
// identity is new (bulk market-watch scans discover instruments this way).
// An update whose last-trade time-of-day equals the stored one is a
// duplicate: state is untouched and no notification is emitted.
func (r *Repository) ApplyTrade(id model.Identification, candle model.Candle) {
	r.mu.Lock()
	inst := r.getOrCreateLocked(id)

	if inst.Candle.SameTradeTime(candle.LastTradeAt) {
		r.mu.Unlock()
		return
	}
	inst.Candle = candle
	r.mu.Unlock()

	r.notify(Change{Isin: id.Isin, Channel: model.ChannelTrade})
}

// ApplyThresholds applies a price-limit update. The upstream feed sends full
// values infrequently, but incoming values are still diffed so that repeated
// identical updates stay silent.
func (r *Repository) ApplyThresholds(id model.Identification, th model.Thresholds) {
	r.mu.Lock()
	inst := r.getOrCreateLocked(id)

	if inst.Thresholds == th {
		r.mu.Unlock()
		return
	}
	inst.Thresholds = th
	r.mu.Unlock()

	r.notify(Change{Isin: id.Isin, Channel: model.ChannelThresholds})
}

// ApplyClientType replaces the investor-type breakdown wholesale when any
// field differs from the stored values.
func (r *Repository) ApplyClientType(id model.Identification, ct model.ClientType) {
	r.mu.Lock()
	inst := r.getOrCreateLocked(id)

	if inst.ClientType == ct {
		r.mu.Unlock()
		return
	}
	inst.ClientType = ct
	r.mu.Unlock()

	r.notify(Change{Isin: id.Isin, Channel: model.ChannelClientType})
}

// ApplyOrderBook compares each incoming row against the stored row and
// overwrites only those that differ. The notification carries the changed
// ranks so the broker can push partial updates.
func (r *Repository) ApplyOrderBook(id model.Identification, rows [model.OrderBookDepth]model.OrderBookRow) {
	r.mu.Lock()
	inst := r.getOrCreateLocked(id)

	var ranks []int
	for rank := range rows {
		if inst.OrderBook.Rows[rank] != rows[rank] {
			inst.OrderBook.Rows[rank] = rows[rank]
			ranks = append(ranks, rank)
		}
	}
	r.mu.Unlock()

	if len(ranks) == 0 {
		return
	}
	r.notify(Change{Isin: id.Isin, Channel: model.ChannelOrderBook, Ranks: ranks})
}

// getOrCreateLocked returns the record for id, creating an empty one on
// first sight. Caller holds r.mu.
func (r *Repository) getOrCreateLocked(id model.Identification) *model.Instrument {
	inst, ok := r.instruments[id.Isin]
	if !ok {
		inst = &model.Instrument{Identification: id}
		r.instruments[id.Isin] = inst
		r.logger.Debug("new instrument", "isin", id.Isin)
	}
	return inst
}

// notify dispatches a change to the sink, if one is registered. Runs outside
// the data lock.
func (r *Repository) notify(c Change) {
	r.sinkMu.RLock()
	sink := r.sink
	r.sinkMu.RUnlock()

	if sink != nil {
		sink.MarketDataChanged(c)
	}
}

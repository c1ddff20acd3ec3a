package broker

import (
	"log/slog"
	"sync"

	"github.com/amirstm/tsetmc-pusher/internal/model"
	"github.com/amirstm/tsetmc-pusher/internal/repository"
)

// Snapshotter is the repository read surface the hub depends on.
type Snapshotter interface {
	Snapshot(isin string) (model.Instrument, bool)
}

// subscriber is one downstream connection as seen by the hub.
type subscriber interface {
	ID() string
	SendBytes([]byte)
}

// instrumentChannel holds the three subscriber sets for one identity.
// Created lazily on first subscribe and never destroyed: the instrument
// universe is bounded for a trading session.
type instrumentChannel struct {
	trade      map[subscriber]struct{}
	orderbook  map[subscriber]struct{}
	clienttype map[subscriber]struct{}
}

func newInstrumentChannel() *instrumentChannel {
	return &instrumentChannel{
		trade:      make(map[subscriber]struct{}),
		orderbook:  make(map[subscriber]struct{}),
		clienttype: make(map[subscriber]struct{}),
	}
}

// sets returns the subscriber sets a command channel addresses.
func (ic *instrumentChannel) sets(channel model.Channel) []map[subscriber]struct{} {
	switch channel {
	case model.ChannelTrade:
		return []map[subscriber]struct{}{ic.trade}
	case model.ChannelOrderBook:
		return []map[subscriber]struct{}{ic.orderbook}
	case model.ChannelClientType:
		return []map[subscriber]struct{}{ic.clienttype}
	case model.ChannelAll:
		return []map[subscriber]struct{}{ic.trade, ic.orderbook, ic.clienttype}
	default:
		// Thresholds has no downstream subscriber set.
		return nil
	}
}

// HubStats is a point-in-time view for the health endpoint.
type HubStats struct {
	Channels      int // Distinct identities with a channel record
	Subscriptions int // Total (connection, channel) memberships
}

// Hub tracks subscriber sets per identity and relays repository change
// notifications. It implements repository.ChangeSink.
type Hub struct {
	logger *slog.Logger
	repo   Snapshotter

	// Guards channels only. Never held across repository calls or sends.
	mu       sync.Mutex
	channels map[string]*instrumentChannel
}

// NewHub creates a hub reading snapshots from repo.
func NewHub(repo Snapshotter, logger *slog.Logger) *Hub {
	if logger == nil {
		logger = slog.Default()
	}
	return &Hub{
		logger:   logger,
		repo:     repo,
		channels: make(map[string]*instrumentChannel),
	}
}

// HandleCommand processes one raw downstream message from sub. Malformed
// commands are logged and ignored; no error frame is ever sent.
func (h *Hub) HandleCommand(sub subscriber, message string) {
	cmd, err := ParseCommand(message)
	if err != nil {
		h.logger.Error("ignoring bad command", "conn", sub.ID(), "message", message, "err", err)
		return
	}

	switch cmd.Action {
	case ActionSubscribe:
		h.subscribe(sub, cmd)
	case ActionUnsubscribe:
		h.unsubscribe(sub, cmd)
	}
}

// subscribe records interest and answers once with the current snapshot of
// every requested identity the repository knows. Unknown identities are
// still registered (data may arrive later) but absent from the response;
// when nothing is known, no response is sent at all.
func (h *Hub) subscribe(sub subscriber, cmd Command) {
	h.mu.Lock()
	for _, isin := range cmd.Isins {
		ic, ok := h.channels[isin]
		if !ok {
			ic = newInstrumentChannel()
			h.channels[isin] = ic
			h.logger.Info("new channel", "isin", isin)
		}
		for _, set := range ic.sets(cmd.Channel) {
			set[sub] = struct{}{}
		}
	}
	h.mu.Unlock()

	// Snapshot reads and the send happen outside the subscription lock.
	var known []model.Instrument
	for _, isin := range cmd.Isins {
		if inst, ok := h.repo.Snapshot(isin); ok {
			known = append(known, inst)
		}
	}

	payload, err := encodeSnapshot(known, cmd.Channel)
	if err != nil {
		h.logger.Error("encode snapshot", "err", err)
		return
	}
	if payload != nil {
		sub.SendBytes(payload)
	}
}

// unsubscribe removes the connection from the matching sets. No response.
func (h *Hub) unsubscribe(sub subscriber, cmd Command) {
	h.mu.Lock()
	defer h.mu.Unlock()

	for _, isin := range cmd.Isins {
		ic, ok := h.channels[isin]
		if !ok {
			continue
		}
		for _, set := range ic.sets(cmd.Channel) {
			delete(set, sub)
		}
	}
}

// Unregister removes the connection from every subscriber set of every
// channel. Called once when a connection ends, normally or abnormally.
func (h *Hub) Unregister(sub subscriber) {
	h.mu.Lock()
	defer h.mu.Unlock()

	for _, ic := range h.channels {
		delete(ic.trade, sub)
		delete(ic.orderbook, sub)
		delete(ic.clienttype, sub)
	}
}

// MarketDataChanged relays one repository notification to the matching
// subscriber set. Sends are queued per connection; a full queue drops the
// message for that connection only.
func (h *Hub) MarketDataChanged(change repository.Change) {
	h.mu.Lock()
	ic, ok := h.channels[change.Isin]
	var targets []subscriber
	if ok {
		var set map[subscriber]struct{}
		switch change.Channel {
		case model.ChannelTrade:
			set = ic.trade
		case model.ChannelOrderBook:
			set = ic.orderbook
		case model.ChannelClientType:
			set = ic.clienttype
		default:
			// Thresholds changes have no downstream channel; they surface
			// only in "all" snapshots.
		}
		for sub := range set {
			targets = append(targets, sub)
		}
	}
	h.mu.Unlock()

	if len(targets) == 0 {
		return
	}

	inst, ok := h.repo.Snapshot(change.Isin)
	if !ok {
		return
	}

	payload, err := encodeUpdate(inst, change.Channel, change.Ranks)
	if err != nil {
		h.logger.Error("encode update", "isin", change.Isin, "err", err)
		return
	}

	for _, sub := range targets {
		sub.SendBytes(payload)
	}
}

// Stats returns current subscription counts.
func (h *Hub) Stats() HubStats {
	h.mu.Lock()
	defer h.mu.Unlock()

	stats := HubStats{Channels: len(h.channels)}
	for _, ic := range h.channels {
		stats.Subscriptions += len(ic.trade) + len(ic.orderbook) + len(ic.clienttype)
	}
	return stats
}

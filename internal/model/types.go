package model

import "time"

// IsinLength is the exact length of every instrument identity code.
const IsinLength = 12

// OrderBookDepth is the fixed number of ranked rows per order book.
const OrderBookDepth = 5

// -----------------------------------------------------------------------------
// Instrument Record
// -----------------------------------------------------------------------------

// Identification identifies one instrument. Immutable once created.
type Identification struct {
	Isin       string // Primary key, exactly 12 alphanumeric characters
	TsetmcCode string // Secondary numeric code, used by the bulk market-watch feed only
	Ticker     string // Display ticker
	Name       string // Display name
}

// Candle holds the aggregate intraday trade statistics for one instrument.
type Candle struct {
	Open        int64
	Close       int64
	Last        int64
	Min         int64
	Max         int64
	Previous    int64
	TradeCount  int64
	TradeVolume int64
	TradeValue  int64
	LastTradeAt time.Time // Full timestamp; duplicates are judged by time-of-day only
}

// SameTradeTime reports whether the stored last-trade time-of-day matches t.
// An update carrying the same time-of-day already recorded is a duplicate.
// A zero stored time never matches: the first update always applies.
func (c Candle) SameTradeTime(t time.Time) bool {
	if c.LastTradeAt.IsZero() {
		return false
	}
	ah, am, as := c.LastTradeAt.Clock()
	bh, bm, bs := t.Clock()
	return ah == bh && am == bm && as == bs
}

// OrderBookSide is one side (demand or supply) of a single depth row.
type OrderBookSide struct {
	Count  int64 // Number of orders at this rank
	Volume int64
	Price  int64
}

// OrderBookRow is one ranked row of the book, bid and ask together.
type OrderBookRow struct {
	Demand OrderBookSide // Bid side
	Supply OrderBookSide // Ask side
}

// OrderBook is the fixed-depth ranked book. Rank 0 is best.
type OrderBook struct {
	Rows [OrderBookDepth]OrderBookRow
}

// ClientTypeSide holds buy/sell totals for one investor class.
type ClientTypeSide struct {
	Buy  ClientTypeTrade
	Sell ClientTypeTrade
}

// ClientTypeTrade is a {count, volume} pair.
type ClientTypeTrade struct {
	Count  int64
	Volume int64
}

// ClientType is the per-instrument investor-type breakdown.
type ClientType struct {
	Legal   ClientTypeSide
	Natural ClientTypeSide
}

// Thresholds are the allowed price limits for the current session.
type Thresholds struct {
	MaxPrice int64
	MinPrice int64
}

// Instrument is the full per-instrument record. All fields are value types,
// so a plain struct copy is a deep, copy-safe snapshot.
type Instrument struct {
	Identification Identification
	Candle         Candle
	OrderBook      OrderBook
	ClientType     ClientType
	Thresholds     Thresholds
}

// ValidIsin reports whether s is a well-formed identity code.
func ValidIsin(s string) bool {
	return len(s) == IsinLength
}

// -----------------------------------------------------------------------------
// Channels
// -----------------------------------------------------------------------------

// Channel is one of the independently-subscribable data categories.
// It is a closed enum: dispatch sites switch over it exhaustively instead of
// consulting string-keyed tables.
type Channel int

const (
	ChannelTrade Channel = iota
	ChannelOrderBook
	ChannelClientType
	ChannelThresholds // Upstream-only; no downstream subscriber set exists
	ChannelAll        // Downstream convenience, fans into trade+orderbook+clienttype
)

// String returns the wire name of the channel.
func (c Channel) String() string {
	switch c {
	case ChannelTrade:
		return "trade"
	case ChannelOrderBook:
		return "orderbook"
	case ChannelClientType:
		return "clienttype"
	case ChannelThresholds:
		return "thresholds"
	case ChannelAll:
		return "all"
	default:
		return "unknown"
	}
}

// ParseSubscribableChannel parses a downstream command channel name.
// Only the four subscribable names are accepted; "thresholds" is not a
// downstream channel and is rejected here along with everything else.
func ParseSubscribableChannel(s string) (Channel, bool) {
	switch s {
	case "trade":
		return ChannelTrade, true
	case "orderbook":
		return ChannelOrderBook, true
	case "clienttype":
		return ChannelClientType, true
	case "all":
		return ChannelAll, true
	default:
		return 0, false
	}
}

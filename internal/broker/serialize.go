package broker

import (
	"time"

	"github.com/mailru/easyjson/jwriter"

	"github.com/amirstm/tsetmc-pusher/internal/model"
)

// The downstream wire format is identity -> channel name -> positional field
// array. The arrays are written directly with easyjson's jwriter; there is no
// struct shape to marshal.

// tradeTimeLayout is the display format for last-trade timestamps.
const tradeTimeLayout = "2006/01/02 15:04:05"

// encodeUpdate serializes one channel-scoped update for a single instrument:
// {"<isin>":{"<channel>":[...]}}. For order-book updates, ranks limits the
// payload to the changed rows; nil means all rows.
func encodeUpdate(inst model.Instrument, channel model.Channel, ranks []int) ([]byte, error) {
	w := &jwriter.Writer{}
	w.RawByte('{')
	w.String(inst.Identification.Isin)
	w.RawByte(':')
	writeChannels(w, inst, channel, ranks)
	w.RawByte('}')
	return w.BuildBytes()
}

// encodeSnapshot serializes the initial subscribe response covering every
// known instrument: {"<isin1>":{...},"<isin2>":{...}}. Returns nil when
// instruments is empty; no response is sent in that case.
func encodeSnapshot(instruments []model.Instrument, channel model.Channel) ([]byte, error) {
	if len(instruments) == 0 {
		return nil, nil
	}

	w := &jwriter.Writer{}
	w.RawByte('{')
	for i, inst := range instruments {
		if i > 0 {
			w.RawByte(',')
		}
		w.String(inst.Identification.Isin)
		w.RawByte(':')
		writeChannels(w, inst, channel, nil)
	}
	w.RawByte('}')
	return w.BuildBytes()
}

// writeChannels writes the inner {"<channel>":[...]} object. ChannelAll
// expands to thresholds, trade, orderbook and clienttype in that order.
func writeChannels(w *jwriter.Writer, inst model.Instrument, channel model.Channel, ranks []int) {
	w.RawByte('{')
	switch channel {
	case model.ChannelTrade:
		writeTrade(w, inst.Candle)
	case model.ChannelOrderBook:
		writeOrderBook(w, inst.OrderBook, ranks)
	case model.ChannelClientType:
		writeClientType(w, inst.ClientType)
	case model.ChannelThresholds:
		writeThresholds(w, inst.Thresholds)
	case model.ChannelAll:
		writeThresholds(w, inst.Thresholds)
		w.RawByte(',')
		writeTrade(w, inst.Candle)
		w.RawByte(',')
		writeOrderBook(w, inst.OrderBook, nil)
		w.RawByte(',')
		writeClientType(w, inst.ClientType)
	}
	w.RawByte('}')
}

func writeTrade(w *jwriter.Writer, c model.Candle) {
	w.RawString(`"trade":[`)
	w.Int64(c.Close)
	w.RawByte(',')
	w.Int64(c.Last)
	w.RawByte(',')
	w.String(formatTradeTime(c.LastTradeAt))
	w.RawByte(',')
	w.Int64(c.Max)
	w.RawByte(',')
	w.Int64(c.Min)
	w.RawByte(',')
	w.Int64(c.Open)
	w.RawByte(',')
	w.Int64(c.Previous)
	w.RawByte(',')
	w.Int64(c.TradeCount)
	w.RawByte(',')
	w.Int64(c.TradeValue)
	w.RawByte(',')
	w.Int64(c.TradeVolume)
	w.RawByte(']')
}

// writeOrderBook writes [rank, demand.count, demand.price, demand.volume,
// supply.count, supply.price, supply.volume] per row. ranks nil = full book.
func writeOrderBook(w *jwriter.Writer, ob model.OrderBook, ranks []int) {
	if ranks == nil {
		ranks = allRanks
	}

	w.RawString(`"orderbook":[`)
	emitted := 0
	for _, rank := range ranks {
		if rank < 0 || rank >= model.OrderBookDepth {
			continue
		}
		if emitted > 0 {
			w.RawByte(',')
		}
		emitted++
		row := ob.Rows[rank]
		w.RawByte('[')
		w.Int(rank)
		w.RawByte(',')
		w.Int64(row.Demand.Count)
		w.RawByte(',')
		w.Int64(row.Demand.Price)
		w.RawByte(',')
		w.Int64(row.Demand.Volume)
		w.RawByte(',')
		w.Int64(row.Supply.Count)
		w.RawByte(',')
		w.Int64(row.Supply.Price)
		w.RawByte(',')
		w.Int64(row.Supply.Volume)
		w.RawByte(']')
	}
	w.RawByte(']')
}

func writeClientType(w *jwriter.Writer, ct model.ClientType) {
	w.RawString(`"clienttype":[`)
	w.Int64(ct.Legal.Buy.Count)
	w.RawByte(',')
	w.Int64(ct.Legal.Buy.Volume)
	w.RawByte(',')
	w.Int64(ct.Legal.Sell.Count)
	w.RawByte(',')
	w.Int64(ct.Legal.Sell.Volume)
	w.RawByte(',')
	w.Int64(ct.Natural.Buy.Count)
	w.RawByte(',')
	w.Int64(ct.Natural.Buy.Volume)
	w.RawByte(',')
	w.Int64(ct.Natural.Sell.Count)
	w.RawByte(',')
	w.Int64(ct.Natural.Sell.Volume)
	w.RawByte(']')
}

func writeThresholds(w *jwriter.Writer, th model.Thresholds) {
	w.RawString(`"thresholds":[`)
	w.Int64(th.MaxPrice)
	w.RawByte(',')
	w.Int64(th.MinPrice)
	w.RawByte(']')
}

func formatTradeTime(t time.Time) string {
	return t.Format(tradeTimeLayout)
}

var allRanks = func() []int {
	ranks := make([]int, model.OrderBookDepth)
	for i := range ranks {
		ranks[i] = i
	}
	return ranks
}()

package model

import (
	"testing"
	"time"
)

func TestCandle_SameTradeTime(t *testing.T) {
	base := time.Date(2024, 3, 5, 12, 30, 15, 0, time.UTC)

	tests := []struct {
		name   string
		stored time.Time
		update time.Time
		want   bool
	}{
		{"identical timestamp", base, base, true},
		{"same time-of-day different date", base, base.AddDate(0, 0, 3), true},
		{"different second", base, base.Add(time.Second), false},
		{"zero stored time never matches", time.Time{}, base, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := Candle{LastTradeAt: tt.stored}
			if got := c.SameTradeTime(tt.update); got != tt.want {
				t.Errorf("SameTradeTime() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestValidIsin(t *testing.T) {
	if !ValidIsin("IRO1FOLD0001") {
		t.Error("12-character isin should be valid")
	}
	if ValidIsin("IRO1FOLD001") {
		t.Error("11-character isin should be invalid")
	}
	if ValidIsin("IRO1FOLD00011") {
		t.Error("13-character isin should be invalid")
	}
}

func TestParseSubscribableChannel(t *testing.T) {
	for name, want := range map[string]Channel{
		"trade":      ChannelTrade,
		"orderbook":  ChannelOrderBook,
		"clienttype": ChannelClientType,
		"all":        ChannelAll,
	} {
		got, ok := ParseSubscribableChannel(name)
		if !ok || got != want {
			t.Errorf("ParseSubscribableChannel(%q) = %v, %v", name, got, ok)
		}
	}

	// Thresholds is upstream-only and must not be subscribable.
	if _, ok := ParseSubscribableChannel("thresholds"); ok {
		t.Error("thresholds should not parse as a subscribable channel")
	}
	if _, ok := ParseSubscribableChannel("bogus"); ok {
		t.Error("unknown channel should not parse")
	}
}

func TestInstrument_CopyIsDeep(t *testing.T) {
	var inst Instrument
	inst.OrderBook.Rows[2].Demand.Price = 1000

	snap := inst
	snap.OrderBook.Rows[2].Demand.Price = 2000

	if inst.OrderBook.Rows[2].Demand.Price != 1000 {
		t.Error("struct copy should not alias the original order book")
	}
}

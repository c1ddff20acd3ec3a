package broker

import (
	"encoding/json"
	"sync"
	"testing"
	"time"

	"github.com/amirstm/tsetmc-pusher/internal/model"
	"github.com/amirstm/tsetmc-pusher/internal/repository"
)

// fakeSub records every payload sent to it.
type fakeSub struct {
	id   string
	mu   sync.Mutex
	msgs [][]byte
}

func (f *fakeSub) ID() string { return f.id }

func (f *fakeSub) SendBytes(b []byte) {
	f.mu.Lock()
	f.msgs = append(f.msgs, b)
	f.mu.Unlock()
}

func (f *fakeSub) received() [][]byte {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([][]byte(nil), f.msgs...)
}

func seededRepo(t *testing.T) *repository.Repository {
	t.Helper()
	repo := repository.New(nil)
	repo.ApplyTrade(model.Identification{Isin: "IRO1FOLD0001"}, model.Candle{
		Last:        1010,
		LastTradeAt: time.Date(2024, 3, 5, 10, 0, 0, 0, time.UTC),
	})
	return repo
}

func TestHub_SubscribeReturnsSnapshot(t *testing.T) {
	hub := NewHub(seededRepo(t), nil)
	sub := &fakeSub{id: "a"}

	hub.HandleCommand(sub, "1.trade.IRO1FOLD0001")

	msgs := sub.received()
	if len(msgs) != 1 {
		t.Fatalf("got %d responses, want 1", len(msgs))
	}

	var env map[string]map[string][]any
	if err := json.Unmarshal(msgs[0], &env); err != nil {
		t.Fatalf("response is not JSON: %v", err)
	}
	channels := env["IRO1FOLD0001"]
	if _, ok := channels["trade"]; !ok {
		t.Error("trade channel missing from initial response")
	}
	if len(channels) != 1 {
		t.Errorf("response has %d channels, want trade only", len(channels))
	}
}

func TestHub_SubscribeUnknownIdentityNoResponse(t *testing.T) {
	hub := NewHub(repository.New(nil), nil)
	sub := &fakeSub{id: "a"}

	hub.HandleCommand(sub, "1.trade.IRO1NONE0001")

	if len(sub.received()) != 0 {
		t.Error("subscribe for an unknown identity should not respond")
	}
	// Interest is still recorded for later updates.
	if hub.Stats().Subscriptions != 1 {
		t.Errorf("Subscriptions = %d, want 1", hub.Stats().Subscriptions)
	}
}

func TestHub_MalformedCommandInert(t *testing.T) {
	hub := NewHub(seededRepo(t), nil)
	sub := &fakeSub{id: "a"}

	hub.HandleCommand(sub, "1.bogus.IRO1FOLD0001")

	if len(sub.received()) != 0 {
		t.Error("malformed command should produce no response")
	}
	if stats := hub.Stats(); stats.Subscriptions != 0 || stats.Channels != 0 {
		t.Errorf("malformed command altered subscriber state: %+v", stats)
	}
}

func TestHub_IdentityLengthRejectsWholeCommand(t *testing.T) {
	hub := NewHub(seededRepo(t), nil)
	sub := &fakeSub{id: "a"}

	hub.HandleCommand(sub, "1.trade.IRO1FOLD0001,BAD")

	if hub.Stats().Subscriptions != 0 {
		t.Error("a single bad identity must reject the entire command")
	}
}

func TestHub_UnsubscribeSilencesPushes(t *testing.T) {
	repo := seededRepo(t)
	hub := NewHub(repo, nil)
	repo.RegisterChangeSink(hub)

	stays := &fakeSub{id: "stays"}
	leaves := &fakeSub{id: "leaves"}
	hub.HandleCommand(stays, "1.orderbook.IRO1FOLD0001")
	hub.HandleCommand(leaves, "1.orderbook.IRO1FOLD0001")
	hub.HandleCommand(leaves, "0.orderbook.IRO1FOLD0001")

	var rows [model.OrderBookDepth]model.OrderBookRow
	rows[0].Demand.Price = 1005
	repo.ApplyOrderBook(model.Identification{Isin: "IRO1FOLD0001"}, rows)

	if n := len(stays.received()); n != 2 { // initial snapshot + update
		t.Errorf("still-subscribed connection got %d messages, want 2", n)
	}
	if n := len(leaves.received()); n != 1 { // initial snapshot only
		t.Errorf("unsubscribed connection got %d messages, want 1", n)
	}
}

func TestHub_OrderBookPushScopedToChangedRanks(t *testing.T) {
	repo := seededRepo(t)
	hub := NewHub(repo, nil)
	repo.RegisterChangeSink(hub)

	sub := &fakeSub{id: "a"}
	hub.HandleCommand(sub, "1.orderbook.IRO1FOLD0001")

	var rows [model.OrderBookDepth]model.OrderBookRow
	rows[3].Supply.Volume = 42
	repo.ApplyOrderBook(model.Identification{Isin: "IRO1FOLD0001"}, rows)

	msgs := sub.received()
	last := msgs[len(msgs)-1]

	var env map[string]map[string][][]any
	if err := json.Unmarshal(last, &env); err != nil {
		t.Fatalf("push is not JSON: %v", err)
	}
	book := env["IRO1FOLD0001"]["orderbook"]
	if len(book) != 1 {
		t.Fatalf("push carries %d rows, want only the changed one", len(book))
	}
	if rank := book[0][0].(float64); rank != 3 {
		t.Errorf("pushed rank = %v, want 3", rank)
	}
}

func TestHub_FanOutReachesAllSubscribers(t *testing.T) {
	repo := seededRepo(t)
	hub := NewHub(repo, nil)
	repo.RegisterChangeSink(hub)

	a := &fakeSub{id: "a"}
	b := &fakeSub{id: "b"}
	hub.HandleCommand(a, "1.trade.IRO1FOLD0001")
	hub.HandleCommand(b, "1.trade.IRO1FOLD0001")

	repo.ApplyTrade(model.Identification{Isin: "IRO1FOLD0001"}, model.Candle{
		Last:        1020,
		LastTradeAt: time.Date(2024, 3, 5, 10, 0, 1, 0, time.UTC),
	})

	if n := len(a.received()); n != 2 {
		t.Errorf("subscriber a got %d messages, want 2", n)
	}
	if n := len(b.received()); n != 2 {
		t.Errorf("subscriber b got %d messages, want 2", n)
	}
}

func TestHub_ThresholdsChangeHasNoDownstreamChannel(t *testing.T) {
	repo := seededRepo(t)
	hub := NewHub(repo, nil)
	repo.RegisterChangeSink(hub)

	sub := &fakeSub{id: "a"}
	hub.HandleCommand(sub, "1.all.IRO1FOLD0001")
	before := len(sub.received())

	repo.ApplyThresholds(model.Identification{Isin: "IRO1FOLD0001"}, model.Thresholds{MaxPrice: 1100, MinPrice: 900})

	if n := len(sub.received()); n != before {
		t.Errorf("thresholds change pushed %d extra messages, want 0", n-before)
	}
}

func TestHub_UnregisterRemovesEverywhere(t *testing.T) {
	hub := NewHub(seededRepo(t), nil)
	sub := &fakeSub{id: "a"}

	hub.HandleCommand(sub, "1.all.IRO1FOLD0001")
	if hub.Stats().Subscriptions != 3 {
		t.Fatalf("Subscriptions = %d, want 3 after all-subscribe", hub.Stats().Subscriptions)
	}

	hub.Unregister(sub)
	if hub.Stats().Subscriptions != 0 {
		t.Errorf("Subscriptions = %d after Unregister, want 0", hub.Stats().Subscriptions)
	}
}

func TestHub_ChannelLookupIsExactByIdentity(t *testing.T) {
	repo := seededRepo(t)
	repo.ApplyTrade(model.Identification{Isin: "IRO1IKCO0001"}, model.Candle{
		Last:        500,
		LastTradeAt: time.Date(2024, 3, 5, 10, 0, 0, 0, time.UTC),
	})
	hub := NewHub(repo, nil)
	repo.RegisterChangeSink(hub)

	fold := &fakeSub{id: "fold"}
	ikco := &fakeSub{id: "ikco"}
	hub.HandleCommand(fold, "1.trade.IRO1FOLD0001")
	hub.HandleCommand(ikco, "1.trade.IRO1IKCO0001")

	repo.ApplyTrade(model.Identification{Isin: "IRO1IKCO0001"}, model.Candle{
		Last:        510,
		LastTradeAt: time.Date(2024, 3, 5, 10, 0, 1, 0, time.UTC),
	})

	if n := len(fold.received()); n != 1 { // snapshot only
		t.Errorf("FOLD subscriber got %d messages, want 1", n)
	}
	if n := len(ikco.received()); n != 2 { // snapshot + update
		t.Errorf("IKCO subscriber got %d messages, want 2", n)
	}
}

package feed

import (
	"errors"
	"time"

	"github.com/amirstm/tsetmc-pusher/internal/model"
)

// Errors
var (
	ErrNotConnected  = errors.New("not connected")
	ErrAlreadyClosed = errors.New("already closed")
)

// subscribeAllPrefix is the fixed action marker for the upstream
// subscribe-all request: "1.all.<isin1>,...,<isinN>".
const subscribeAllPrefix = "1.all."

// Applier is the repository surface the streaming feed writes into.
// Only the per-instrument update entry points are exposed here; the bulk
// snapshot paths belong to the market-watch poller.
type Applier interface {
	ApplyTrade(model.Identification, model.Candle)
	ApplyThresholds(model.Identification, model.Thresholds)
}

// Config configures the upstream client.
type Config struct {
	URL              string        // WebSocket URL (e.g., ws://push.tsetmc.example:8765)
	HandshakeTimeout time.Duration // Dial timeout
	WriteTimeout     time.Duration // Write deadline for the subscribe request
}

// DefaultConfig returns sensible defaults.
func DefaultConfig() Config {
	return Config{
		HandshakeTimeout: 10 * time.Second,
		WriteTimeout:     5 * time.Second,
	}
}

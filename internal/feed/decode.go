package feed

import (
	"encoding/json"
	"fmt"
	"strconv"
	"time"

	"github.com/amirstm/tsetmc-pusher/internal/model"
)

// pushFrame is the upstream frame shape: identity -> channel -> field array.
type pushFrame map[string]map[string][]any

// processFrame decodes one push frame and applies every recognized update.
// All failures are local: the offending entry is logged and skipped, the
// rest of the frame is still processed.
func (c *Client) processFrame(data []byte) {
	var frame pushFrame
	if err := json.Unmarshal(data, &frame); err != nil {
		c.logger.Warn("malformed push frame", "err", err)
		return
	}

	for isin, channels := range frame {
		if _, ok := c.subscribed[isin]; !ok {
			c.logger.Warn("frame for unsubscribed identity", "isin", isin)
			continue
		}
		id := model.Identification{Isin: isin}

		for channel, fields := range channels {
			switch channel {
			case "trade":
				candle, err := decodeTrade(fields)
				if err != nil {
					c.logger.Warn("bad trade fields", "isin", isin, "err", err)
					continue
				}
				c.repo.ApplyTrade(id, candle)

			case "thresholds":
				th, err := decodeThresholds(fields)
				if err != nil {
					c.logger.Warn("bad thresholds fields", "isin", isin, "err", err)
					continue
				}
				c.repo.ApplyThresholds(id, th)

			case "clienttype":
				// Client-type data arrives through the bulk market-watch
				// path; streaming frames carry nothing decodable here.

			case "orderbook":
				// The upstream field order for streamed order books is not
				// confirmed; until it is, this path stays explicitly
				// unimplemented rather than guessing a layout.
				c.logger.Warn("orderbook ingestion not implemented", "isin", isin)

			default:
				c.logger.Error("unknown message channel", "isin", isin, "channel", channel)
			}
		}
	}
}

// decodeTrade decodes the 10-field trade array:
// [close, last, last_trade_time, max, min, open, previous, trade_num,
// trade_value, trade_volume].
func decodeTrade(fields []any) (model.Candle, error) {
	if len(fields) != 10 {
		return model.Candle{}, fmt.Errorf("trade: got %d fields, want 10", len(fields))
	}

	var candle model.Candle
	var err error

	for i, dst := range map[int]*int64{
		0: &candle.Close,
		1: &candle.Last,
		3: &candle.Max,
		4: &candle.Min,
		5: &candle.Open,
		6: &candle.Previous,
		7: &candle.TradeCount,
		8: &candle.TradeValue,
		9: &candle.TradeVolume,
	} {
		if *dst, err = fieldInt(fields[i]); err != nil {
			return model.Candle{}, fmt.Errorf("trade field %d: %w", i, err)
		}
	}

	raw, ok := fields[2].(string)
	if !ok {
		return model.Candle{}, fmt.Errorf("trade field 2: not a timestamp string")
	}
	if candle.LastTradeAt, err = parseTradeTime(raw); err != nil {
		return model.Candle{}, fmt.Errorf("trade field 2: %w", err)
	}

	return candle, nil
}

// decodeThresholds decodes the 2-field thresholds array: [max, min].
func decodeThresholds(fields []any) (model.Thresholds, error) {
	if len(fields) != 2 {
		return model.Thresholds{}, fmt.Errorf("thresholds: got %d fields, want 2", len(fields))
	}

	var th model.Thresholds
	var err error
	if th.MaxPrice, err = fieldInt(fields[0]); err != nil {
		return model.Thresholds{}, fmt.Errorf("thresholds max: %w", err)
	}
	if th.MinPrice, err = fieldInt(fields[1]); err != nil {
		return model.Thresholds{}, fmt.Errorf("thresholds min: %w", err)
	}
	return th, nil
}

// fieldInt coerces a positional field to int64. The feed is loose about
// numeric encoding: values arrive as JSON numbers or as digit strings.
func fieldInt(v any) (int64, error) {
	switch n := v.(type) {
	case float64:
		return int64(n), nil
	case string:
		i, err := strconv.ParseInt(n, 10, 64)
		if err != nil {
			return 0, fmt.Errorf("parse %q: %w", n, err)
		}
		return i, nil
	case json.Number:
		return n.Int64()
	default:
		return 0, fmt.Errorf("unexpected field type %T", v)
	}
}

// tradeTimeLayouts are the ISO-8601 variants the feed has been observed to
// send for last-trade timestamps.
var tradeTimeLayouts = []string{
	"2006-01-02T15:04:05",
	"2006-01-02T15:04:05.999999",
	time.RFC3339,
	"2006-01-02 15:04:05",
}

func parseTradeTime(s string) (time.Time, error) {
	for _, layout := range tradeTimeLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("unparseable timestamp %q", s)
}

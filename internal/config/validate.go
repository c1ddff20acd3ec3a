package config

import (
	"errors"
	"fmt"

	"github.com/amirstm/tsetmc-pusher/internal/timing"
)

// Validate checks that all required fields are set and values are valid.
func (c *PusherConfig) Validate() error {
	if c.Instance.ID == "" {
		return errors.New("instance.id is required")
	}

	if c.Feed.Host == "" {
		return errors.New("feed.host is required")
	}
	if err := validPort(c.Feed.Port, "feed.port"); err != nil {
		return err
	}
	if err := validPort(c.Broker.Port, "broker.port"); err != nil {
		return err
	}
	if err := validPort(c.Health.Port, "health.port"); err != nil {
		return err
	}

	if len(c.Market.Instruments) == 0 {
		return errors.New("market.instruments must list at least one isin")
	}
	for _, isin := range c.Market.Instruments {
		if len(isin) != 12 {
			return fmt.Errorf("market.instruments: isin %q must be 12 characters", isin)
		}
	}

	if _, err := timing.ParseTimeOfDay(c.Market.EndTime); err != nil {
		return fmt.Errorf("market.end_time: %w", err)
	}

	return nil
}

func validPort(port int, field string) error {
	if port < 1 || port > 65535 {
		return fmt.Errorf("%s must be between 1 and 65535, got %d", field, port)
	}
	return nil
}

package config

import "time"

// Default values for optional configuration fields.
const (
	DefaultFeedPort           = 8765
	DefaultHandshakeTimeout   = 10 * time.Second
	DefaultWriteTimeout       = 5 * time.Second
	DefaultReconnectBaseDelay = 1 * time.Second
	DefaultReconnectMaxDelay  = 60 * time.Second
	DefaultBrokerPort         = 8765
	DefaultMarketEndTime      = "15:00:00"
	DefaultHealthPort         = 8080
)

func (c *PusherConfig) applyDefaults() {
	if c.Feed.Port == 0 {
		c.Feed.Port = DefaultFeedPort
	}
	if c.Feed.HandshakeTimeout == 0 {
		c.Feed.HandshakeTimeout = DefaultHandshakeTimeout
	}
	if c.Feed.WriteTimeout == 0 {
		c.Feed.WriteTimeout = DefaultWriteTimeout
	}
	if c.Feed.ReconnectBaseDelay == 0 {
		c.Feed.ReconnectBaseDelay = DefaultReconnectBaseDelay
	}
	if c.Feed.ReconnectMaxDelay == 0 {
		c.Feed.ReconnectMaxDelay = DefaultReconnectMaxDelay
	}

	if c.Broker.Port == 0 {
		c.Broker.Port = DefaultBrokerPort
	}

	if c.Market.EndTime == "" {
		c.Market.EndTime = DefaultMarketEndTime
	}

	if c.Health.Port == 0 {
		c.Health.Port = DefaultHealthPort
	}
}

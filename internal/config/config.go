package config

import (
	"fmt"
	"time"
)

// PusherConfig is the root configuration for a pusher instance.
type PusherConfig struct {
	Instance InstanceConfig `yaml:"instance"`
	Feed     FeedConfig     `yaml:"feed"`
	Broker   BrokerConfig   `yaml:"broker"`
	Market   MarketConfig   `yaml:"market"`
	Health   HealthConfig   `yaml:"health"`
}

// InstanceConfig identifies this pusher.
type InstanceConfig struct {
	ID string `yaml:"id"`
}

// FeedConfig holds upstream TSETMC push-feed settings.
type FeedConfig struct {
	Host               string        `yaml:"host"`
	Port               int           `yaml:"port"`
	HandshakeTimeout   time.Duration `yaml:"handshake_timeout"`
	WriteTimeout       time.Duration `yaml:"write_timeout"`
	ReconnectBaseDelay time.Duration `yaml:"reconnect_base_delay"`
	ReconnectMaxDelay  time.Duration `yaml:"reconnect_max_delay"`
}

// URL returns the upstream websocket URL.
func (f FeedConfig) URL() string {
	return fmt.Sprintf("ws://%s:%d", f.Host, f.Port)
}

// BrokerConfig holds the downstream listener settings.
type BrokerConfig struct {
	Host string `yaml:"host"`
	Port int    `yaml:"port"`
}

// Addr returns the downstream listen address.
func (b BrokerConfig) Addr() string {
	return fmt.Sprintf("%s:%d", b.Host, b.Port)
}

// MarketConfig holds the trading-session settings.
type MarketConfig struct {
	// Instruments is the identity universe requested upstream.
	Instruments []string `yaml:"instruments"`
	// EndTime is the time-of-day ("15:04:05") at which serving stops.
	EndTime string `yaml:"end_time"`
}

// HealthConfig holds the health endpoint settings.
type HealthConfig struct {
	Port int `yaml:"port"`
}

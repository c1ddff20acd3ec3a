package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

const validYAML = `
instance:
  id: pusher-1
feed:
  host: push.tsetmc.example
  port: 8765
broker:
  host: 0.0.0.0
  port: 9000
market:
  instruments:
    - IRO1FOLD0001
    - IRO1IKCO0001
  end_time: "12:30:00"
`

func writeTempConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "pusher.yaml")
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatalf("writing temp config: %v", err)
	}
	return path
}

func TestLoadAndValidate(t *testing.T) {
	cfg, err := LoadAndValidate(writeTempConfig(t, validYAML))
	if err != nil {
		t.Fatalf("LoadAndValidate error: %v", err)
	}

	if cfg.Feed.URL() != "ws://push.tsetmc.example:8765" {
		t.Errorf("Feed.URL() = %q", cfg.Feed.URL())
	}
	if cfg.Broker.Addr() != "0.0.0.0:9000" {
		t.Errorf("Broker.Addr() = %q", cfg.Broker.Addr())
	}
	if len(cfg.Market.Instruments) != 2 {
		t.Errorf("Instruments = %v", cfg.Market.Instruments)
	}

	// Defaults applied for fields the file omits.
	if cfg.Feed.ReconnectBaseDelay != DefaultReconnectBaseDelay {
		t.Errorf("ReconnectBaseDelay = %v", cfg.Feed.ReconnectBaseDelay)
	}
	if cfg.Health.Port != DefaultHealthPort {
		t.Errorf("Health.Port = %d", cfg.Health.Port)
	}
}

func TestLoad_EnvExpansion(t *testing.T) {
	t.Setenv("TEST_FEED_HOST", "expanded.example")

	yaml := `
instance:
  id: pusher-1
feed:
  host: ${TEST_FEED_HOST}
market:
  instruments: [IRO1FOLD0001]
`
	cfg, err := LoadAndValidate(writeTempConfig(t, yaml))
	if err != nil {
		t.Fatalf("LoadAndValidate error: %v", err)
	}
	if cfg.Feed.Host != "expanded.example" {
		t.Errorf("Feed.Host = %q, want expanded env var", cfg.Feed.Host)
	}
}

func TestValidate_Errors(t *testing.T) {
	base := func() *PusherConfig {
		return &PusherConfig{
			Instance: InstanceConfig{ID: "pusher-1"},
			Feed: FeedConfig{
				Host: "h", Port: 8765,
				HandshakeTimeout: time.Second, WriteTimeout: time.Second,
				ReconnectBaseDelay: time.Second, ReconnectMaxDelay: time.Minute,
			},
			Broker: BrokerConfig{Port: 9000},
			Market: MarketConfig{Instruments: []string{"IRO1FOLD0001"}, EndTime: "15:00:00"},
			Health: HealthConfig{Port: 8080},
		}
	}

	tests := []struct {
		name   string
		mutate func(*PusherConfig)
	}{
		{"missing instance id", func(c *PusherConfig) { c.Instance.ID = "" }},
		{"missing feed host", func(c *PusherConfig) { c.Feed.Host = "" }},
		{"bad feed port", func(c *PusherConfig) { c.Feed.Port = -1 }},
		{"bad broker port", func(c *PusherConfig) { c.Broker.Port = 70000 }},
		{"no instruments", func(c *PusherConfig) { c.Market.Instruments = nil }},
		{"short isin", func(c *PusherConfig) { c.Market.Instruments = []string{"SHORT"} }},
		{"bad end time", func(c *PusherConfig) { c.Market.EndTime = "noon" }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := base()
			tt.mutate(cfg)
			if err := cfg.Validate(); err == nil {
				t.Error("expected validation error")
			}
		})
	}
}

func TestLoad_FileMissing(t *testing.T) {
	if _, err := Load(filepath.Join(t.TempDir(), "absent.yaml")); err == nil {
		t.Error("expected error for missing file")
	}
}

package kafka_config

import (
	"strings"
	"testing"
	"time"
)

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(cfg.Brokers) != 1 || cfg.Brokers[0] != DefaultKafkaBrokers {
		t.Errorf("unexpected brokers %v", cfg.Brokers)
	}
	if cfg.ConsumerStartOffset != -2 {
		t.Errorf("expected oldest start offset, got %d", cfg.ConsumerStartOffset)
	}
	if cfg.ConsumerRetryBackoff != DefaultConsumerRetryBackoff {
		t.Errorf("unexpected backoff %s", cfg.ConsumerRetryBackoff)
	}
}

func TestLoad_Overrides(t *testing.T) {
	t.Setenv(EnvKafkaBrokers, " kafka-1:9092 , ,kafka-2:9092")
	t.Setenv(EnvKafkaConsumerMaxRetries, "2")
	t.Setenv(EnvKafkaConsumerRetryBackoff, "2s")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(cfg.Brokers) != 2 || cfg.Brokers[1] != "kafka-2:9092" {
		t.Errorf("unexpected brokers %v", cfg.Brokers)
	}
	if cfg.ConsumerMaxRetries != 2 {
		t.Errorf("expected 2 retries, got %d", cfg.ConsumerMaxRetries)
	}
	if cfg.ConsumerRetryBackoff != 2*time.Second {
		t.Errorf("expected 2s backoff, got %s", cfg.ConsumerRetryBackoff)
	}
}

func TestValidate(t *testing.T) {
	valid := func() *Config {
		cfg, err := Load()
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		return cfg
	}

	tests := []struct {
		name    string
		mutate  func(c *Config)
		wantErr string
	}{
		{"valid", func(c *Config) {}, ""},
		{"no brokers", func(c *Config) { c.Brokers = nil }, "broker"},
		{"bad compression", func(c *Config) { c.ProducerCompression = "brotli" }, "ProducerCompression"},
		{"bad acks", func(c *Config) { c.ProducerRequireAcks = 2 }, "ProducerRequireAcks"},
		{"bad start offset", func(c *Config) { c.ConsumerStartOffset = 5 }, "ConsumerStartOffset"},
		{"heartbeat too long", func(c *Config) { c.ConsumerHeartbeatInterval = time.Minute }, "ConsumerSessionTimeout"},
		{"negative retries", func(c *Config) { c.ConsumerMaxRetries = -1 }, "ConsumerMaxRetries"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := valid()
			tt.mutate(cfg)
			err := cfg.Validate()
			if tt.wantErr == "" {
				if err != nil {
					t.Errorf("unexpected error: %v", err)
				}
				return
			}
			if err == nil || !strings.Contains(err.Error(), tt.wantErr) {
				t.Errorf("expected error containing %q, got %v", tt.wantErr, err)
			}
		})
	}
}

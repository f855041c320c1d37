package config

import (
	"testing"
	"time"
)

func TestDefaults(t *testing.T) {
	cfg, err := New()
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}

	if cfg.HTTP.Port != 8080 {
		t.Errorf("HTTP.Port = %d, want 8080", cfg.HTTP.Port)
	}
	if cfg.Database.Driver != "postgres" {
		t.Errorf("Database.Driver = %q, want postgres", cfg.Database.Driver)
	}
	if cfg.Database.ReaderDSN != cfg.Database.WriterDSN {
		t.Error("reader DSN should default to the writer DSN")
	}
	if cfg.Messaging.Kafka.Topic != "cafe.order.events" {
		t.Errorf("Kafka.Topic = %q", cfg.Messaging.Kafka.Topic)
	}
	if cfg.Cache.DefaultTTL != 5*time.Minute {
		t.Errorf("Cache.DefaultTTL = %v", cfg.Cache.DefaultTTL)
	}
	if cfg.Observability.ServiceName != "espresso" {
		t.Errorf("ServiceName = %q", cfg.Observability.ServiceName)
	}
}

func TestEnvOverrides(t *testing.T) {
	t.Setenv("HTTP_PORT", "9999")
	t.Setenv("CACHE_ENABLED", "false")
	t.Setenv("MESSAGING_ENABLED", "false")
	t.Setenv("OBS_PROMETHEUS_PATH", "telemetry")

	cfg, err := New()
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}

	if cfg.HTTP.Port != 9999 {
		t.Errorf("HTTP.Port = %d, want 9999", cfg.HTTP.Port)
	}
	if cfg.Cache.Driver != "noop" {
		t.Errorf("disabled cache should fall back to noop, got %q", cfg.Cache.Driver)
	}
	if cfg.Messaging.Driver != "noop" {
		t.Errorf("disabled messaging should fall back to noop, got %q", cfg.Messaging.Driver)
	}
	if cfg.Observability.PrometheusPath != "/telemetry" {
		t.Errorf("PrometheusPath = %q, want /telemetry", cfg.Observability.PrometheusPath)
	}
}

func TestInvalidValues(t *testing.T) {
	tests := []struct {
		name  string
		key   string
		value string
	}{
		{"bad http port", "HTTP_PORT", "-1"},
		{"bad cache driver", "CACHE_DRIVER", "memcached"},
		{"bad messaging driver", "MESSAGING_DRIVER", "rabbitmq"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Setenv(tt.key, tt.value)
			if _, err := New(); err == nil {
				t.Errorf("New() with %s=%s should fail", tt.key, tt.value)
			}
		})
	}
}

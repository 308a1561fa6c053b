package config

import (
	"strings"
	"testing"
	"time"
)

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load error: %v", err)
	}
	if cfg.GRPCAddr() != "0.0.0.0:50061" {
		t.Fatalf("grpc addr = %q", cfg.GRPCAddr())
	}
	if cfg.MaxRangeDays != 62 || cfg.MaxMemberWorkers != 8 {
		t.Fatalf("engine limits = %d/%d, want 62/8", cfg.MaxRangeDays, cfg.MaxMemberWorkers)
	}
	if cfg.RoundRobinLookback != 30*24*time.Hour {
		t.Fatalf("lookback = %v, want 720h", cfg.RoundRobinLookback)
	}
	if cfg.BusyCacheTTL != 2*time.Minute || cfg.CalendarTimeout != 5*time.Second {
		t.Fatalf("busy ttl/timeout = %v/%v", cfg.BusyCacheTTL, cfg.CalendarTimeout)
	}
	if cfg.RedisAddr != "" || cfg.OTelEnabled {
		t.Fatalf("optional integrations should default off: redis=%q otel=%v", cfg.RedisAddr, cfg.OTelEnabled)
	}
}

func TestLoad_EnvOverrides(t *testing.T) {
	t.Setenv("SLOTWISE_GRPC_ADDR", "127.0.0.1:6000")
	t.Setenv("SLOTWISE_ENGINE_MAX_RANGE_DAYS", "31")
	t.Setenv("SLOTWISE_ENGINE_ROUND_ROBIN_LOOKBACK", "168h")
	t.Setenv("REDIS_ADDR", "cache:6379")
	t.Setenv("SLOTWISE_OTEL_ENABLED", "true")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load error: %v", err)
	}
	if cfg.GRPCHost != "127.0.0.1" || cfg.GRPCPort != 6000 {
		t.Fatalf("grpc = %s:%d", cfg.GRPCHost, cfg.GRPCPort)
	}
	if cfg.MaxRangeDays != 31 {
		t.Fatalf("max range days = %d, want 31", cfg.MaxRangeDays)
	}
	if cfg.RoundRobinLookback != 7*24*time.Hour {
		t.Fatalf("lookback = %v, want 168h", cfg.RoundRobinLookback)
	}
	if cfg.RedisAddr != "cache:6379" {
		t.Fatalf("redis addr = %q", cfg.RedisAddr)
	}
	if !cfg.OTelEnabled {
		t.Fatalf("otel should be enabled")
	}
}

func TestLoad_InvalidValues(t *testing.T) {
	tests := []struct {
		name    string
		key     string
		value   string
		wantErr string
	}{
		{name: "bad duration", key: "SLOTWISE_REDIS_BUSY_TTL", value: "soon", wantErr: "redis.busy_ttl"},
		{name: "zero range", key: "SLOTWISE_ENGINE_MAX_RANGE_DAYS", value: "0", wantErr: "engine.max_range_days"},
		{name: "ratio out of range", key: "SLOTWISE_OTEL_SAMPLE_RATIO", value: "2", wantErr: "otel.sample_ratio"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Setenv(tt.key, tt.value)
			_, err := Load()
			if err == nil {
				t.Fatalf("expected error")
			}
			if !strings.Contains(err.Error(), tt.wantErr) {
				t.Fatalf("error = %q, want mention of %q", err.Error(), tt.wantErr)
			}
		})
	}
}

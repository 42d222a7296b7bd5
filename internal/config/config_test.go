package config

import (
	"net/http"
	"reflect"
	"testing"
	"time"
)

func TestSplitList(t *testing.T) {
	got := splitList(" https://a.com, ,https://b.com ")
	want := []string{"https://a.com", "https://b.com"}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("expected %v, got %v", want, got)
	}
}

func TestRabbitURL(t *testing.T) {
	t.Setenv("RABBITMQ_URL", "")
	t.Setenv("AMQP_URL", "amqp://alias/")
	if got := rabbitURL(); got != "amqp://alias/" {
		t.Errorf("expected alias, got %q", got)
	}
	t.Setenv("RABBITMQ_URL", "amqp://primary/")
	if got := rabbitURL(); got != "amqp://primary/" {
		t.Errorf("expected primary, got %q", got)
	}
}

func TestLoadCacheConfig(t *testing.T) {
	t.Setenv("CACHE_ENABLED", "off")
	t.Setenv("CACHE_METHODS", "get, head")
	t.Setenv("CACHE_TTL", "5s")

	cfg := LoadCacheConfig()
	if cfg.Enabled {
		t.Error("expected cache disabled")
	}
	if !cfg.Methods[http.MethodGet] || !cfg.Methods[http.MethodHead] || cfg.Methods[http.MethodPost] {
		t.Errorf("unexpected methods %v", cfg.Methods)
	}
	if cfg.TTL != 5*time.Second {
		t.Errorf("expected 5s, got %s", cfg.TTL)
	}
	if cfg.Prefix != "melody:cache" {
		t.Errorf("unexpected default prefix %q", cfg.Prefix)
	}
}

func TestLoadRateLimitConfig_Clamps(t *testing.T) {
	t.Setenv("RATE_LIMIT_CAPACITY", "0")
	t.Setenv("RATE_LIMIT_REFILL_TOKENS", "-3")
	t.Setenv("RATE_LIMIT_REFILL_INTERVAL", "2s")
	t.Setenv("RATE_LIMIT_TTL", "1s")

	rl := LoadRateLimitConfig()
	if rl.Capacity != 1 || rl.RefillTokens != 1 {
		t.Errorf("expected clamped capacity and refill, got %d/%d", rl.Capacity, rl.RefillTokens)
	}
	if rl.TTL != 10*time.Second {
		t.Errorf("expected TTL raised to 5 intervals, got %s", rl.TTL)
	}
}

func TestEnvHelpers(t *testing.T) {
	t.Setenv("X_BOOL", "yes")
	t.Setenv("X_INT", "abc")
	t.Setenv("X_DUR", "bogus")
	if !envBool("X_BOOL", false) {
		t.Error("expected true")
	}
	if envInt("X_INT", 7) != 7 {
		t.Error("expected default for unparsable int")
	}
	if envDur("X_DUR", time.Minute) != time.Minute {
		t.Error("expected default for unparsable duration")
	}
}

package config

import (
	"testing"
	"time"
)

func TestParseYAML(t *testing.T) {
	t.Parallel()
	raw := []byte(`
telegram:
  token: "123:abc"
  poll_timeout: 15s
channel: "@official_anod"
admin_ids: [7, 8]
document:
  path: ./guide.pdf
  name: guide.pdf
broadcast:
  pace: 50ms
  session_ttl: 5m
storage:
  driver: sqlite
  path: ./subs.db
logging:
  level: debug
`)
	cfg, err := parseBytes("config.yaml", raw)
	if err != nil {
		t.Fatalf("parseBytes error: %v", err)
	}
	if err := cfg.Validate(); err != nil {
		t.Fatalf("Validate error: %v", err)
	}
	if cfg.Channel != "@official_anod" {
		t.Fatalf("channel = %q", cfg.Channel)
	}
	if len(cfg.AdminIDs) != 2 || cfg.AdminIDs[0] != 7 {
		t.Fatalf("admin_ids = %v", cfg.AdminIDs)
	}
	if got := cfg.PollTimeout(); got != 15*time.Second {
		t.Fatalf("poll timeout = %v", got)
	}
	if got := cfg.Pace(); got != 50*time.Millisecond {
		t.Fatalf("pace = %v", got)
	}
	if got := cfg.SessionTTL(); got != 5*time.Minute {
		t.Fatalf("session ttl = %v", got)
	}
}

func TestParseRejectsUnknownFields(t *testing.T) {
	t.Parallel()
	raw := []byte(`{"telegram":{"token":"t"},"channel":"@c","documents":{}}`)
	if _, err := parseBytes("config.json", raw); err == nil {
		t.Fatal("expected error for unknown field")
	}
}

func TestParseRejectsTrailingData(t *testing.T) {
	t.Parallel()
	raw := []byte(`{"channel":"@c"}{"channel":"@d"}`)
	if _, err := parseBytes("config.json", raw); err == nil {
		t.Fatal("expected error for trailing data")
	}
}

func TestValidateRequiresDocument(t *testing.T) {
	t.Parallel()
	cfg := &Config{
		Telegram: TelegramConfig{Token: "t"},
		Channel:  "@c",
	}
	if err := cfg.Validate(); err == nil {
		t.Fatal("expected error when document is missing")
	}
	cfg.Document.FileID = "BQAC"
	if err := cfg.Validate(); err != nil {
		t.Fatalf("Validate error: %v", err)
	}
}

func TestDurationDefaults(t *testing.T) {
	t.Parallel()
	var cfg Config
	if got := cfg.Pace(); got != 50*time.Millisecond {
		t.Fatalf("default pace = %v", got)
	}
	if got := cfg.SessionTTL(); got != 10*time.Minute {
		t.Fatalf("default session ttl = %v", got)
	}
	cfg.Broadcast.Pace = "garbage"
	if got := cfg.Pace(); got != 50*time.Millisecond {
		t.Fatalf("pace with bad input = %v", got)
	}
}

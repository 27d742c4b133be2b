package config

import (
	"errors"
	"os"
	"strings"
	"time"
)

type Config struct {
	Telegram  TelegramConfig  `json:"telegram"`
	Channel   string          `json:"channel"`
	AdminIDs  []int64         `json:"admin_ids"`
	Document  DocumentConfig  `json:"document"`
	Broadcast BroadcastConfig `json:"broadcast,omitempty"`
	Storage   StorageConfig   `json:"storage,omitempty"`
	Logging   LoggingConfig   `json:"logging,omitempty"`
}

type TelegramConfig struct {
	// Token may be left empty in the file; the BOT_TOKEN env var
	// (optionally from .env) is the fallback.
	Token       string `json:"token,omitempty"`
	PollTimeout string `json:"poll_timeout,omitempty"` // Go duration string
}

// DocumentConfig points at the gated document.
//
// FileID is the Telegram re-upload handle; once the bot has sent the document
// from disk it logs the returned file_id so the operator can pin it here and
// skip re-uploads.
type DocumentConfig struct {
	Path   string `json:"path,omitempty"`
	Name   string `json:"name,omitempty"`
	FileID string `json:"file_id,omitempty"`
}

// BroadcastConfig controls fan-out pacing and session lifetime.
// Durations are Go duration strings (e.g. "50ms", "10m").
type BroadcastConfig struct {
	Pace       string `json:"pace,omitempty"`        // default "50ms"
	SessionTTL string `json:"session_ttl,omitempty"` // default "10m"
}

type StorageConfig struct {
	Driver      string `json:"driver,omitempty"` // default "sqlite"
	Path        string `json:"path,omitempty"`
	BusyTimeout string `json:"busy_timeout,omitempty"` // Go duration string
}

type LoggingConfig struct {
	Level   string        `json:"level,omitempty"`
	Console *bool         `json:"console,omitempty"` // default true
	File    FileLogConfig `json:"file,omitempty"`
}

type FileLogConfig struct {
	Enabled bool   `json:"enabled,omitempty"`
	Path    string `json:"path,omitempty"`
}

// BotToken resolves the token from the file or the environment.
func (c *Config) BotToken() string {
	if t := strings.TrimSpace(c.Telegram.Token); t != "" {
		return t
	}
	return strings.TrimSpace(os.Getenv("BOT_TOKEN"))
}

func (c *Config) ConsoleLogging() bool {
	return c.Logging.Console == nil || *c.Logging.Console
}

func (c *Config) PollTimeout() time.Duration {
	return parseDuration(c.Telegram.PollTimeout, 10*time.Second)
}

func (c *Config) Pace() time.Duration {
	return parseDuration(c.Broadcast.Pace, 50*time.Millisecond)
}

func (c *Config) SessionTTL() time.Duration {
	return parseDuration(c.Broadcast.SessionTTL, 10*time.Minute)
}

func (c *Config) StorageBusyTimeout() time.Duration {
	return parseDuration(c.Storage.BusyTimeout, 0)
}

// Validate checks the fields the process cannot run without.
func (c *Config) Validate() error {
	if c.BotToken() == "" {
		return errors.New("telegram token is empty (set telegram.token or BOT_TOKEN)")
	}
	if strings.TrimSpace(c.Channel) == "" {
		return errors.New("channel is empty")
	}
	if strings.TrimSpace(c.Document.Path) == "" && strings.TrimSpace(c.Document.FileID) == "" {
		return errors.New("document.path or document.file_id is required")
	}
	return nil
}

func parseDuration(s string, def time.Duration) time.Duration {
	s = strings.TrimSpace(s)
	if s == "" {
		return def
	}
	d, err := time.ParseDuration(s)
	if err != nil || d < 0 {
		return def
	}
	return d
}

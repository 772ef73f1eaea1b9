package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"copymatch/highlight"

	"github.com/pelletier/go-toml/v2"
)

// EnvVar holds JSON that overrides the config file
const EnvVar = "COPYMATCH_CONFIG"

// Engine types
const (
	EngineLocal  = "local"
	EngineRemote = "remote"
)

type Config struct {
	LogLevel  string           `toml:"log_level" json:"log_level"` // trace, debug, info, warn, error
	LogFile   string           `toml:"log_file" json:"log_file"`   // empty logs to stderr
	Engine    EngineConfig     `toml:"engine" json:"engine"`
	Highlight highlight.Config `toml:"highlight" json:"highlight"`
	Server    ServerConfig     `toml:"server" json:"server"`
	Cache     CacheConfig      `toml:"cache" json:"cache"`
	Metrics   MetricsConfig    `toml:"metrics" json:"metrics"`
	Limits    LimitsConfig     `toml:"limits" json:"limits"`
	Nvim      NvimConfig       `toml:"nvim" json:"nvim"`
}

type EngineConfig struct {
	Type        string `toml:"type" json:"type"` // local or remote
	URL         string `toml:"url" json:"url"`
	APIKey      string `toml:"api_key" json:"api_key"`
	TimeoutMs   int    `toml:"timeout_ms" json:"timeout_ms"`
	Window      int    `toml:"window" json:"window"`
	ShingleSize int    `toml:"shingle_size" json:"shingle_size"`
	// Fallback runs the local engine when the remote one fails
	Fallback bool `toml:"fallback" json:"fallback"`
}

type ServerConfig struct {
	Addr           string  `toml:"addr" json:"addr"`
	RateLimit      float64 `toml:"rate_limit" json:"rate_limit"` // requests per second, 0 disables
	Burst          int     `toml:"burst" json:"burst"`
	MaxUploadBytes int64   `toml:"max_upload_bytes" json:"max_upload_bytes"`
}

type CacheConfig struct {
	Enabled bool   `toml:"enabled" json:"enabled"`
	Path    string `toml:"path" json:"path"`
}

type MetricsConfig struct {
	WebhookURL string `toml:"webhook_url" json:"webhook_url"`
}

type LimitsConfig struct {
	MaxDocumentChars int   `toml:"max_document_chars" json:"max_document_chars"`
	MaxFileBytes     int64 `toml:"max_file_bytes" json:"max_file_bytes"`
}

type NvimConfig struct {
	Namespace              string `toml:"namespace" json:"namespace"`
	DebugImmediateShutdown bool   `toml:"debug_immediate_shutdown" json:"debug_immediate_shutdown"`
	// MaxBufferChars bounds the target buffer around the cursor (0 = whole buffer)
	MaxBufferChars int `toml:"max_buffer_chars" json:"max_buffer_chars"`
}

// Default returns the built-in configuration
func Default() Config {
	return Config{
		LogLevel: "info",
		Engine: EngineConfig{
			Type:        EngineLocal,
			TimeoutMs:   30000,
			Window:      32,
			ShingleSize: 5,
		},
		Highlight: highlight.DefaultConfig(),
		Server: ServerConfig{
			Addr:           "127.0.0.1:8000",
			RateLimit:      5,
			Burst:          10,
			MaxUploadBytes: 20 << 20,
		},
		Cache: CacheConfig{
			Enabled: true,
			Path:    defaultCachePath(),
		},
		Limits: LimitsConfig{
			MaxDocumentChars: 2_000_000,
			MaxFileBytes:     50 << 20,
		},
		Nvim: NvimConfig{
			Namespace:      "copymatch",
			MaxBufferChars: 200_000,
		},
	}
}

// DefaultPath returns $XDG_CONFIG_HOME/copymatch/config.toml, or
// ~/.copymatch/config.toml when no user config dir is known.
func DefaultPath() string {
	if dir, err := os.UserConfigDir(); err == nil {
		return filepath.Join(dir, "copymatch", "config.toml")
	}
	if home, err := os.UserHomeDir(); err == nil {
		return filepath.Join(home, ".copymatch", "config.toml")
	}
	return "copymatch.toml"
}

func defaultCachePath() string {
	if dir, err := os.UserCacheDir(); err == nil {
		return filepath.Join(dir, "copymatch", "reports.db")
	}
	return filepath.Join(os.TempDir(), "copymatch-reports.db")
}

// Load builds the effective configuration: defaults, then the TOML file, then
// the JSON in $COPYMATCH_CONFIG. An explicit path must exist; the default
// path may be missing.
func Load(path string) (Config, error) {
	cfg := Default()

	explicit := path != ""
	if !explicit {
		path = DefaultPath()
	}

	data, err := os.ReadFile(path)
	switch {
	case err == nil:
		if err := toml.Unmarshal(data, &cfg); err != nil {
			return cfg, fmt.Errorf("invalid config file %s: %w", path, err)
		}
	case errors.Is(err, os.ErrNotExist) && !explicit:
		// No config file yet - defaults apply
	default:
		return cfg, fmt.Errorf("failed to read config %s: %w", path, err)
	}

	if env := os.Getenv(EnvVar); env != "" {
		if err := json.Unmarshal([]byte(env), &cfg); err != nil {
			return cfg, fmt.Errorf("invalid %s: %w", EnvVar, err)
		}
	}

	if err := cfg.Validate(); err != nil {
		return cfg, err
	}
	return cfg, nil
}

// Validate rejects settings no component can run with
func (c Config) Validate() error {
	switch c.Engine.Type {
	case EngineLocal:
	case EngineRemote:
		if c.Engine.URL == "" {
			return errors.New("engine.url is required for the remote engine")
		}
	default:
		return fmt.Errorf("unknown engine.type %q", c.Engine.Type)
	}

	h := c.Highlight
	if h.MergeGap < 0 || h.MinBlockChars < 0 || h.MinTargetChars < 0 ||
		h.MinParagraphRun < 0 || h.MaxNoiseGap < 0 {
		return errors.New("highlight thresholds must not be negative")
	}
	for name, v := range map[string]float64{
		"min_similarity": h.MinSimilarity,
		"target_overlap": h.TargetOverlap,
		"source_overlap": h.SourceOverlap,
	} {
		if v < 0 || v > 1 {
			return fmt.Errorf("highlight.%s must be within [0,1], got %v", name, v)
		}
	}

	if c.Server.RateLimit < 0 || c.Server.Burst < 0 {
		return errors.New("server rate limit must not be negative")
	}
	if c.Cache.Enabled && c.Cache.Path == "" {
		return errors.New("cache.path is required when the cache is enabled")
	}
	return nil
}

// Save writes cfg as TOML to path, creating its directory
func Save(cfg Config, path string) error {
	data, err := toml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("failed to encode config: %w", err)
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o700); err != nil {
		return fmt.Errorf("failed to create config dir: %w", err)
	}
	// Write with restricted permissions, the file may hold an API key
	return os.WriteFile(path, data, 0o600)
}

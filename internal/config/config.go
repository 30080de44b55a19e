// Package config provides configuration loading and validation for the
// portfolio service and CLI.
package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"

	"github.com/jonathan/portfolio/internal/schemas"
)

// Defaults
const (
	DefaultPort              = 8080
	DefaultCacheTTL          = 5 * time.Minute
	DefaultNotionMaxDepth    = 3
	DefaultNotionConcurrency = 4
	DefaultLogLevel          = "info"
	DefaultLogFormat         = "text"
)

// Config is the service configuration. Values come from an optional JSON
// file, then environment variables, then command-line flags.
type Config struct {
	Port               int          `json:"port,omitempty" validate:"min=1,max=65535"`
	DatabaseURL        string       `json:"database_url,omitempty"`
	CacheTTLSeconds    *int         `json:"cache_ttl_seconds,omitempty" validate:"omitempty,min=0"`
	CORSAllowedOrigins []string     `json:"cors_allowed_origins,omitempty" validate:"dive,required"`
	Log                LogConfig    `json:"log"`
	Notion             NotionConfig `json:"notion"`
}

// LogConfig controls log output
type LogConfig struct {
	Level  string `json:"level,omitempty" validate:"omitempty,oneof=trace debug info warn warning error"`
	Format string `json:"format,omitempty" validate:"omitempty,oneof=text json"`
}

// NotionConfig holds Notion API settings
type NotionConfig struct {
	APIKey            string  `json:"api_key,omitempty"`
	BlogDatabaseID    string  `json:"blog_database_id,omitempty"`
	BaseURL           string  `json:"base_url,omitempty" validate:"omitempty,url"`
	MaxDepth          *int    `json:"max_depth,omitempty" validate:"omitempty,min=0,max=10"`
	MaxRetries        *int    `json:"max_retries,omitempty" validate:"omitempty,min=0,max=10"`
	RequestsPerSecond float64 `json:"requests_per_second,omitempty" validate:"min=0"`
	TimeoutSeconds    int     `json:"timeout_seconds,omitempty" validate:"min=0"`
	Concurrency       int     `json:"concurrency,omitempty" validate:"min=0,max=16"`
}

// Default returns the configuration used when nothing is set
func Default() *Config {
	return &Config{
		Port: DefaultPort,
		Log: LogConfig{
			Level:  DefaultLogLevel,
			Format: DefaultLogFormat,
		},
	}
}

// LoadConfig loads configuration from a JSON file on top of the defaults.
// The file is checked against the embedded config schema first.
func LoadConfig(path string) (*Config, error) {
	if path == "" {
		return nil, fmt.Errorf("config path is empty")
	}

	// Resolve path relative to current directory if not absolute
	if !filepath.IsAbs(path) {
		cwd, err := os.Getwd()
		if err != nil {
			return nil, fmt.Errorf("failed to get current directory: %w", err)
		}
		path = filepath.Join(cwd, path)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file %s: %w", path, err)
	}

	if !json.Valid(data) {
		return nil, fmt.Errorf("failed to parse config JSON: invalid JSON in %s", path)
	}
	if err := schemas.Validate(schemas.ConfigSchema, data); err != nil {
		return nil, fmt.Errorf("config file %s does not match schema: %w", path, err)
	}

	cfg := Default()
	if err := json.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config JSON: %w", err)
	}

	return cfg, nil
}

// Load reads the optional config file at path, applies environment
// overrides and validates the result.
func Load(path string) (*Config, error) {
	cfg := Default()
	if path != "" {
		var err error
		if cfg, err = LoadConfig(path); err != nil {
			return nil, err
		}
	}

	if err := cfg.ApplyEnv(os.LookupEnv); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// ApplyEnv overrides fields from environment variables. lookup is usually
// os.LookupEnv.
func (c *Config) ApplyEnv(lookup func(string) (string, bool)) error {
	str := func(key string, dst *string) {
		if v, ok := lookup(key); ok && v != "" {
			*dst = v
		}
	}
	integer := func(key string) (*int, error) {
		v, ok := lookup(key)
		if !ok || strings.TrimSpace(v) == "" {
			return nil, nil
		}
		n, err := strconv.Atoi(strings.TrimSpace(v))
		if err != nil {
			return nil, fmt.Errorf("invalid %s: %v", key, err)
		}
		return &n, nil
	}

	if n, err := integer("PORT"); err != nil {
		return err
	} else if n != nil {
		c.Port = *n
	}
	str("DATABASE_URL", &c.DatabaseURL)
	str("LOG_LEVEL", &c.Log.Level)
	str("LOG_FORMAT", &c.Log.Format)
	str("NOTION_API_KEY", &c.Notion.APIKey)
	str("NOTION_BLOG_DATABASE_ID", &c.Notion.BlogDatabaseID)
	str("NOTION_BASE_URL", &c.Notion.BaseURL)

	if n, err := integer("NOTION_MAX_DEPTH"); err != nil {
		return err
	} else if n != nil {
		c.Notion.MaxDepth = n
	}

	if v, ok := lookup("CACHE_TTL"); ok && strings.TrimSpace(v) != "" {
		ttl, err := parseTTL(strings.TrimSpace(v))
		if err != nil {
			return fmt.Errorf("invalid CACHE_TTL: %v", err)
		}
		secs := int(ttl / time.Second)
		c.CacheTTLSeconds = &secs
	}

	if v, ok := lookup("CORS_ALLOWED_ORIGINS"); ok && strings.TrimSpace(v) != "" {
		c.CORSAllowedOrigins = splitList(v)
	}
	return nil
}

// Validate checks that the configuration has valid values. Required
// settings are checked separately by RequireNotion and RequireDatabase,
// since not every command needs them.
func (c *Config) Validate() error {
	validate := validator.New()
	if err := validate.Struct(c); err != nil {
		return fmt.Errorf("config error: %w", err)
	}
	return nil
}

// RequireNotion returns an error unless the Notion key and blog database are set
func (c *Config) RequireNotion() error {
	if strings.TrimSpace(c.Notion.APIKey) == "" {
		return fmt.Errorf("config error: NOTION_API_KEY is required but not set")
	}
	if strings.TrimSpace(c.Notion.BlogDatabaseID) == "" {
		return fmt.Errorf("config error: NOTION_BLOG_DATABASE_ID is required but not set")
	}
	return nil
}

// RequireDatabase returns an error unless DATABASE_URL is set
func (c *Config) RequireDatabase() error {
	if strings.TrimSpace(c.DatabaseURL) == "" {
		return fmt.Errorf("config error: DATABASE_URL is required but not set")
	}
	return nil
}

// CacheTTL returns how long portfolio reads are cached. 0 disables caching.
func (c *Config) CacheTTL() time.Duration {
	if c.CacheTTLSeconds == nil {
		return DefaultCacheTTL
	}
	return time.Duration(*c.CacheTTLSeconds) * time.Second
}

// NotionMaxDepth returns how deep nested blocks are fetched
func (c *Config) NotionMaxDepth() int {
	if c.Notion.MaxDepth == nil {
		return DefaultNotionMaxDepth
	}
	return *c.Notion.MaxDepth
}

// NotionMaxRetries returns the retry setting in notion.Config terms: 0 for
// the client default, negative for no retries.
func (c *Config) NotionMaxRetries() int {
	switch {
	case c.Notion.MaxRetries == nil:
		return 0
	case *c.Notion.MaxRetries == 0:
		return -1
	default:
		return *c.Notion.MaxRetries
	}
}

// NotionTimeout returns the per-request Notion timeout, 0 for the client default
func (c *Config) NotionTimeout() time.Duration {
	return time.Duration(c.Notion.TimeoutSeconds) * time.Second
}

// NotionConcurrency returns how many post bodies are rendered in parallel
func (c *Config) NotionConcurrency() int {
	if c.Notion.Concurrency <= 0 {
		return DefaultNotionConcurrency
	}
	return c.Notion.Concurrency
}

// parseTTL accepts a Go duration ("5m") or a number of seconds ("300").
func parseTTL(v string) (time.Duration, error) {
	if secs, err := strconv.Atoi(v); err == nil {
		if secs < 0 {
			return 0, fmt.Errorf("must be non-negative, got %d", secs)
		}
		return time.Duration(secs) * time.Second, nil
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return 0, err
	}
	if d < 0 {
		return 0, fmt.Errorf("must be non-negative, got %s", d)
	}
	return d, nil
}

func splitList(v string) []string {
	var out []string
	for _, part := range strings.Split(v, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

package ratelimit

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

// EndpointConfig represents rate limiting configuration for a specific endpoint.
type EndpointConfig struct {
	Path   string        // Exact path, or a prefix when it ends in "/"
	Method string        // HTTP method; empty matches any
	Limit  int           // Maximum requests per window
	Window time.Duration // Time window
	Burst  int           // Burst capacity (defaults to Limit if 0)
}

// Tier paths
const (
	PostListPath = "/blog/posts"
	PostPath     = "/blog/posts/"
)

// LoadConfig loads rate limiting configuration from environment variables.
// RATE_LIMIT_POST_LIST and RATE_LIMIT_POST take "<limit>/<window>" such as
// "30/1m" and override the blog tiers.
func LoadConfig() *Config {
	if !getEnvBool("RATE_LIMIT_ENABLED", true) {
		return &Config{Enabled: false}
	}

	endpoints := DefaultEndpointConfigs()
	for i := range endpoints {
		key := "RATE_LIMIT_POST"
		if endpoints[i].Path == PostListPath {
			key = "RATE_LIMIT_POST_LIST"
		}
		if limit, window, err := ParseRate(getEnvString(key, "")); err == nil {
			endpoints[i].Limit = limit
			endpoints[i].Window = window
			if endpoints[i].Burst > limit {
				endpoints[i].Burst = limit
			}
		}
	}

	return &Config{
		Enabled:         true,
		DefaultLimit:    getEnvInt("RATE_LIMIT_DEFAULT_LIMIT", 1000),
		DefaultWindow:   getEnvDuration("RATE_LIMIT_DEFAULT_WINDOW", time.Minute),
		CleanupInterval: getEnvDuration("RATE_LIMIT_CLEANUP_INTERVAL", 5*time.Minute),
		Whitelist:       parseIPList(getEnvString("RATE_LIMIT_WHITELIST", "")),
		Blacklist:       parseIPList(getEnvString("RATE_LIMIT_BLACKLIST", "")),
		EndpointConfigs: endpoints,
	}
}

// DefaultEndpointConfigs returns the blog tiers. Both reach Notion on every
// request; portfolio reads are cached and use the default limit.
func DefaultEndpointConfigs() []EndpointConfig {
	return []EndpointConfig{
		// Renders every post body
		{Path: PostListPath, Method: "GET", Limit: 30, Window: time.Minute, Burst: 5},
		// Single post reads, which also count a view
		{Path: PostPath, Method: "GET", Limit: 60, Window: time.Minute, Burst: 10},
	}
}

// ParseRate parses "<limit>/<window>", e.g. "100/1m" or "5/10s".
func ParseRate(s string) (int, time.Duration, error) {
	countStr, windowStr, ok := strings.Cut(strings.TrimSpace(s), "/")
	if !ok {
		return 0, 0, fmt.Errorf("invalid rate %q: want <limit>/<window>", s)
	}
	limit, err := strconv.Atoi(strings.TrimSpace(countStr))
	if err != nil || limit <= 0 {
		return 0, 0, fmt.Errorf("invalid rate %q: limit must be a positive integer", s)
	}
	window, err := time.ParseDuration(strings.TrimSpace(windowStr))
	if err != nil || window <= 0 {
		return 0, 0, fmt.Errorf("invalid rate %q: window must be a positive duration", s)
	}
	return limit, window, nil
}

func getEnvString(key string, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if n, err := strconv.Atoi(os.Getenv(key)); err == nil {
		return n
	}
	return defaultValue
}

func getEnvBool(key string, defaultValue bool) bool {
	if b, err := strconv.ParseBool(os.Getenv(key)); err == nil {
		return b
	}
	return defaultValue
}

func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	if d, err := time.ParseDuration(os.Getenv(key)); err == nil {
		return d
	}
	return defaultValue
}

// parseIPList parses a comma-separated list of client IPs into a set.
func parseIPList(list string) map[string]bool {
	result := make(map[string]bool)
	for _, ip := range strings.Split(list, ",") {
		if ip = strings.TrimSpace(ip); ip != "" {
			result[ip] = true
		}
	}
	return result
}

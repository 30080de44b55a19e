package ratelimit

import (
	"net/http"
	"strings"
)

// unlimitedPaths are never rate limited
var unlimitedPaths = map[string]bool{
	"/health": true,
}

// MatchEndpoint returns the tier configuration for a request, or nil when
// the default limit applies. Unlimited paths yield a config with Limit 0.
//
// An exact path match wins. A tier path ending in "/" covers everything
// beneath it (e.g., "/blog/posts/" matches "/blog/posts/{slug}/views") and
// the longest such prefix wins. An empty Method matches any method, and HEAD
// is limited as GET.
func MatchEndpoint(path string, method string, configs []EndpointConfig) *EndpointConfig {
	if method == http.MethodHead {
		method = http.MethodGet
	}
	if unlimitedPaths[path] && method == http.MethodGet {
		return &EndpointConfig{Path: path, Method: method}
	}

	var prefix *EndpointConfig
	for i := range configs {
		config := &configs[i]
		if config.Method != "" && config.Method != method {
			continue
		}
		if config.Path == path {
			return config
		}
		if strings.HasSuffix(config.Path, "/") && strings.HasPrefix(path, config.Path) {
			if prefix == nil || len(config.Path) > len(prefix.Path) {
				prefix = config
			}
		}
	}
	return prefix
}

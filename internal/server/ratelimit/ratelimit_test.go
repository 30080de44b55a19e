package ratelimit

import (
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBucket_Allow(t *testing.T) {
	b := newBucket(10, 1.0) // 10 tokens, 1 token per second
	now := time.Now()

	for i := 0; i < 10; i++ {
		assert.True(t, b.allow(now), "request %d", i+1)
	}
	assert.False(t, b.allow(now), "11th request should be denied")
}

func TestBucket_Refill(t *testing.T) {
	b := newBucket(10, 1.0)
	now := time.Now()

	for i := 0; i < 10; i++ {
		b.allow(now)
	}

	later := now.Add(1100 * time.Millisecond)
	assert.True(t, b.allow(later), "one token should have refilled")
	assert.False(t, b.allow(later))
}

func TestBucket_Status(t *testing.T) {
	b := newBucket(10, 1.0)
	now := time.Now()

	for i := 0; i < 5; i++ {
		b.allow(now)
	}

	remaining, resetTime, nextToken := b.status(now)
	assert.Equal(t, 5, remaining)
	assert.Equal(t, now.Add(5*time.Second), resetTime)
	assert.Zero(t, nextToken)
}

func TestBucket_StatusWhenEmpty(t *testing.T) {
	b := newBucket(2, 0.5) // one token every two seconds
	now := time.Now()
	b.allow(now)
	b.allow(now)

	remaining, resetTime, nextToken := b.status(now)
	assert.Equal(t, 0, remaining)
	assert.Equal(t, now.Add(4*time.Second), resetTime)
	assert.Equal(t, 2*time.Second, nextToken)
}

func TestLimiter_Allow(t *testing.T) {
	limiter := NewLimiter(&Config{
		Enabled:       true,
		DefaultLimit:  10,
		DefaultWindow: time.Minute,
	})
	defer limiter.Stop()

	for i := 0; i < 10; i++ {
		allowed, info := limiter.Allow("127.0.0.1", "/profile", "GET")
		require.True(t, allowed, "request %d", i+1)
		assert.Equal(t, 10, info.Limit)
		assert.Equal(t, 9-i, info.Remaining)
	}

	allowed, info := limiter.Allow("127.0.0.1", "/profile", "GET")
	assert.False(t, allowed)
	assert.Equal(t, 0, info.Remaining)
	assert.Greater(t, info.RetryAfter, time.Duration(0))
	assert.True(t, info.ResetTime.After(time.Now()))
}

func TestLimiter_Whitelist(t *testing.T) {
	limiter := NewLimiter(&Config{
		Enabled:       true,
		DefaultLimit:  1,
		DefaultWindow: time.Minute,
		Whitelist:     map[string]bool{"10.0.0.1": true},
	})
	defer limiter.Stop()

	for i := 0; i < 100; i++ {
		allowed, _ := limiter.Allow("10.0.0.1", "/profile", "GET")
		require.True(t, allowed, "whitelisted request %d", i+1)
	}
}

func TestLimiter_Blacklist(t *testing.T) {
	limiter := NewLimiter(&Config{
		Enabled:       true,
		DefaultLimit:  1000,
		DefaultWindow: time.Minute,
		Blacklist:     map[string]bool{"10.0.0.2": true},
	})
	defer limiter.Stop()

	allowed, info := limiter.Allow("10.0.0.2", "/profile", "GET")
	assert.False(t, allowed)
	assert.False(t, info.Allowed)
}

func TestLimiter_Disabled(t *testing.T) {
	limiter := NewLimiter(&Config{Enabled: false, DefaultLimit: 1, DefaultWindow: time.Minute})
	defer limiter.Stop()

	for i := 0; i < 50; i++ {
		allowed, _ := limiter.Allow("127.0.0.1", "/profile", "GET")
		require.True(t, allowed)
	}
	assert.Zero(t, limiter.bucketCount())
}

func TestLimiter_HealthUnlimited(t *testing.T) {
	limiter := NewLimiter(&Config{
		Enabled:         true,
		DefaultLimit:    1,
		DefaultWindow:   time.Minute,
		EndpointConfigs: DefaultEndpointConfigs(),
	})
	defer limiter.Stop()

	for i := 0; i < 20; i++ {
		allowed, _ := limiter.Allow("127.0.0.1", "/health", "GET")
		require.True(t, allowed)
	}
}

func TestLimiter_EndpointSpecific(t *testing.T) {
	limiter := NewLimiter(&Config{
		Enabled:         true,
		DefaultLimit:    1000,
		DefaultWindow:   time.Minute,
		EndpointConfigs: DefaultEndpointConfigs(),
	})
	defer limiter.Stop()

	// Post listing has a burst of 5
	for i := 0; i < 5; i++ {
		allowed, info := limiter.Allow("127.0.0.1", "/blog/posts", "GET")
		require.True(t, allowed, "list request %d", i+1)
		assert.Equal(t, 30, info.Limit)
	}
	allowed, _ := limiter.Allow("127.0.0.1", "/blog/posts", "GET")
	assert.False(t, allowed, "6th list request should exceed the burst")

	// Portfolio reads fall back to the default limit
	allowed, info := limiter.Allow("127.0.0.1", "/skills", "GET")
	assert.True(t, allowed)
	assert.Equal(t, 1000, info.Limit)
}

func TestLimiter_PrefixTierSharesBucket(t *testing.T) {
	limiter := NewLimiter(&Config{
		Enabled:         true,
		DefaultLimit:    1000,
		DefaultWindow:   time.Minute,
		EndpointConfigs: DefaultEndpointConfigs(),
	})
	defer limiter.Stop()

	// Distinct slugs draw from the same single-post bucket
	for i := 0; i < 10; i++ {
		allowed, _ := limiter.Allow("127.0.0.1", fmt.Sprintf("/blog/posts/post-%d", i), "GET")
		require.True(t, allowed, "request %d", i+1)
	}
	allowed, _ := limiter.Allow("127.0.0.1", "/blog/posts/another", "GET")
	assert.False(t, allowed)

	// Another client is unaffected
	allowed, _ = limiter.Allow("127.0.0.2", "/blog/posts/another", "GET")
	assert.True(t, allowed)
}

func TestLimiter_Concurrent(t *testing.T) {
	limiter := NewLimiter(&Config{
		Enabled:       true,
		DefaultLimit:  100,
		DefaultWindow: time.Hour,
	})
	defer limiter.Stop()

	var wg sync.WaitGroup
	var mu sync.Mutex
	allowedCount := 0

	for i := 0; i < 200; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if allowed, _ := limiter.Allow("127.0.0.1", "/profile", "GET"); allowed {
				mu.Lock()
				allowedCount++
				mu.Unlock()
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, 100, allowedCount)
}

func TestLimiter_Cleanup(t *testing.T) {
	limiter := NewLimiter(&Config{
		Enabled:       true,
		DefaultLimit:  10,
		DefaultWindow: time.Minute,
	})
	defer limiter.Stop()

	for i := 0; i < 5; i++ {
		limiter.Allow(fmt.Sprintf("client-%d", i), "/profile", "GET")
	}
	require.Equal(t, 5, limiter.bucketCount())

	limiter.cleanupBuckets(time.Now().Add(-time.Hour))
	assert.Equal(t, 5, limiter.bucketCount(), "recent buckets are kept")

	limiter.cleanupBuckets(time.Now().Add(time.Second))
	assert.Zero(t, limiter.bucketCount())
}

func TestLimiter_StopTwice(t *testing.T) {
	limiter := NewLimiter(&Config{
		Enabled:         true,
		DefaultLimit:    10,
		DefaultWindow:   time.Minute,
		CleanupInterval: time.Minute,
	})
	limiter.Stop()
	assert.NotPanics(t, limiter.Stop)
}

func TestNewLimiter_NilConfig(t *testing.T) {
	limiter := NewLimiter(nil)
	defer limiter.Stop()

	require.NotNil(t, limiter.config)
	assert.True(t, limiter.config.Enabled)
	assert.Equal(t, 1000, limiter.config.DefaultLimit)

	allowed, _ := limiter.Allow("127.0.0.1", "/profile", "GET")
	assert.True(t, allowed)
}

func TestMatchEndpoint(t *testing.T) {
	configs := DefaultEndpointConfigs()

	tests := []struct {
		name     string
		path     string
		method   string
		wantPath string
		wantNil  bool
	}{
		{name: "exact list", path: "/blog/posts", method: "GET", wantPath: "/blog/posts"},
		{name: "single post prefix", path: "/blog/posts/hello", method: "GET", wantPath: "/blog/posts/"},
		{name: "views prefix", path: "/blog/posts/hello/views", method: "GET", wantPath: "/blog/posts/"},
		{name: "head as get", path: "/blog/posts/hello", method: "HEAD", wantPath: "/blog/posts/"},
		{name: "wrong method", path: "/blog/posts", method: "POST", wantNil: true},
		{name: "portfolio", path: "/experience", method: "GET", wantNil: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := MatchEndpoint(tt.path, tt.method, configs)
			if tt.wantNil {
				assert.Nil(t, got)
				return
			}
			require.NotNil(t, got)
			assert.Equal(t, tt.wantPath, got.Path)
		})
	}

	health := MatchEndpoint("/health", "GET", configs)
	require.NotNil(t, health)
	assert.Zero(t, health.Limit)
}

func TestMatchEndpoint_LongestPrefixAndAnyMethod(t *testing.T) {
	configs := []EndpointConfig{
		{Path: "/blog/", Limit: 100, Window: time.Minute},
		{Path: "/blog/posts/", Method: "GET", Limit: 10, Window: time.Minute},
	}

	got := MatchEndpoint("/blog/posts/hello", "GET", configs)
	require.NotNil(t, got)
	assert.Equal(t, "/blog/posts/", got.Path)

	got = MatchEndpoint("/blog/posts/hello", "DELETE", configs)
	require.NotNil(t, got)
	assert.Equal(t, "/blog/", got.Path, "empty method matches any")
}

func TestParseRate(t *testing.T) {
	limit, window, err := ParseRate("30/1m")
	require.NoError(t, err)
	assert.Equal(t, 30, limit)
	assert.Equal(t, time.Minute, window)

	limit, window, err = ParseRate(" 5 / 10s ")
	require.NoError(t, err)
	assert.Equal(t, 5, limit)
	assert.Equal(t, 10*time.Second, window)

	for _, bad := range []string{"", "30", "0/1m", "x/1m", "30/soon", "30/-1m"} {
		_, _, err := ParseRate(bad)
		assert.Error(t, err, bad)
	}
}

func TestLoadConfig(t *testing.T) {
	t.Setenv("RATE_LIMIT_ENABLED", "true")
	t.Setenv("RATE_LIMIT_DEFAULT_LIMIT", "42")
	t.Setenv("RATE_LIMIT_DEFAULT_WINDOW", "30s")
	t.Setenv("RATE_LIMIT_WHITELIST", "10.0.0.1, 10.0.0.2")
	t.Setenv("RATE_LIMIT_BLACKLIST", "")

	cfg := LoadConfig()
	assert.True(t, cfg.Enabled)
	assert.Equal(t, 42, cfg.DefaultLimit)
	assert.Equal(t, 30*time.Second, cfg.DefaultWindow)
	assert.Equal(t, map[string]bool{"10.0.0.1": true, "10.0.0.2": true}, cfg.Whitelist)
	assert.Empty(t, cfg.Blacklist)
	assert.Len(t, cfg.EndpointConfigs, 2)
}

func TestLoadConfig_TierOverrides(t *testing.T) {
	t.Setenv("RATE_LIMIT_ENABLED", "")
	t.Setenv("RATE_LIMIT_POST_LIST", "3/1m")
	t.Setenv("RATE_LIMIT_POST", "bogus")

	cfg := LoadConfig()
	require.True(t, cfg.Enabled)

	list := MatchEndpoint(PostListPath, "GET", cfg.EndpointConfigs)
	require.NotNil(t, list)
	assert.Equal(t, 3, list.Limit)
	assert.Equal(t, 3, list.Burst, "burst is capped at the limit")

	post := MatchEndpoint("/blog/posts/hello", "GET", cfg.EndpointConfigs)
	require.NotNil(t, post)
	assert.Equal(t, 60, post.Limit, "invalid override is ignored")
}

func TestLoadConfig_Disabled(t *testing.T) {
	t.Setenv("RATE_LIMIT_ENABLED", "false")
	assert.False(t, LoadConfig().Enabled)
}

func TestLimiter_HeadSharesGetBucket(t *testing.T) {
	l := NewLimiter(&Config{
		Enabled:         true,
		DefaultLimit:    100,
		DefaultWindow:   time.Minute,
		CleanupInterval: time.Hour,
		EndpointConfigs: []EndpointConfig{
			{Path: "/blog/posts/", Method: "GET", Limit: 1, Window: time.Minute, Burst: 1},
		},
	})
	defer l.Stop()

	allowed, _ := l.Allow("10.0.0.9", "/blog/posts/a", "GET")
	assert.True(t, allowed)
	allowed, _ = l.Allow("10.0.0.9", "/blog/posts/a", "HEAD")
	assert.False(t, allowed)
}

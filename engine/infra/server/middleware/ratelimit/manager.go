package ratelimit

import (
	"context"
	"fmt"
	"net/http"
	"slices"
	"strconv"
	"strings"

	"github.com/compozy/docchunk/engine/infra/server/router"
	"github.com/compozy/docchunk/pkg/logger"
	"github.com/gin-gonic/gin"
	"github.com/ulule/limiter/v3"
	"github.com/ulule/limiter/v3/drivers/store/memory"
	"go.opentelemetry.io/otel/metric"
)

const ErrRateLimitedCode = "RATE_LIMITED"

type routeLimiter struct {
	prefix  string
	limiter *limiter.Limiter
}

// Manager applies per-client limits kept in an in-process store.
type Manager struct {
	config *Config
	global *limiter.Limiter
	routes []routeLimiter
}

// NewManager validates cfg and builds the limiters.
func NewManager(cfg *Config) (*Manager, error) {
	if cfg == nil {
		cfg = DefaultConfig()
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("ratelimit: %w", err)
	}
	store := memory.NewStoreWithOptions(limiter.StoreOptions{
		Prefix:          cfg.Prefix,
		CleanUpInterval: limiter.DefaultCleanUpInterval,
	})
	m := &Manager{config: cfg}
	if !cfg.GlobalRate.Disabled {
		m.global = limiter.New(store, cfg.GlobalRate.ToLimiterRate())
	}
	for prefix, rate := range cfg.RouteRates {
		if rate.Disabled {
			continue
		}
		m.routes = append(m.routes, routeLimiter{prefix: prefix, limiter: limiter.New(store, rate.ToLimiterRate())})
	}
	// Longest prefix wins.
	slices.SortFunc(m.routes, func(a, b routeLimiter) int { return len(b.prefix) - len(a.prefix) })
	return m, nil
}

// NewManagerWithMetrics builds a manager that counts blocked requests on meter.
func NewManagerWithMetrics(ctx context.Context, cfg *Config, meter metric.Meter) (*Manager, error) {
	if meter != nil {
		if err := InitMetrics(meter); err != nil {
			logger.FromContext(ctx).Warn("Failed to initialize rate limit metrics", "error", err)
		}
	}
	return NewManager(cfg)
}

func (m *Manager) Middleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		path := c.Request.URL.Path
		if m.excluded(path, c.ClientIP()) {
			c.Next()
			return
		}
		l, scope := m.limiterFor(path)
		if l == nil {
			c.Next()
			return
		}
		key := scope + ":" + c.ClientIP()
		state, err := l.Get(c.Request.Context(), key)
		if err != nil {
			logger.FromContext(c.Request.Context()).Warn("Rate limiter unavailable", "error", err)
			c.Next()
			return
		}
		if !m.config.DisableHeaders {
			h := c.Writer.Header()
			h.Set("X-RateLimit-Limit", strconv.FormatInt(state.Limit, 10))
			h.Set("X-RateLimit-Remaining", strconv.FormatInt(state.Remaining, 10))
			h.Set("X-RateLimit-Reset", strconv.FormatInt(state.Reset, 10))
		}
		if state.Reached {
			IncrementBlockedRequests(c.Request.Context(), scope)
			router.RespondProblemWithCode(c, http.StatusTooManyRequests, ErrRateLimitedCode, "rate limit exceeded")
			return
		}
		c.Next()
	}
}

func (m *Manager) limiterFor(path string) (*limiter.Limiter, string) {
	for _, r := range m.routes {
		if strings.HasPrefix(path, r.prefix) {
			return r.limiter, r.prefix
		}
	}
	return m.global, "global"
}

func (m *Manager) excluded(path, ip string) bool {
	if slices.Contains(m.config.ExcludedIPs, ip) {
		return true
	}
	for _, p := range m.config.ExcludedPaths {
		if path == p || strings.HasPrefix(path, strings.TrimSuffix(p, "/")+"/") {
			return true
		}
	}
	return false
}

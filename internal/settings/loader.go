package settings

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/willcldrr/scalexotics-sub002/pkg/logging"
)

// Loader resolves the effective settings for a tenant: the stored row when
// one exists, the default otherwise. It never fails the caller.
type Loader struct {
	repo   Repository
	cache  *redis.Client
	ttl    time.Duration
	logger *logging.Logger

	defaultBusinessName string
	defaultDepositPct   int
}

// NewLoader wires a loader with an optional redis cache. A nil cache client
// disables caching.
func NewLoader(repo Repository, cache *redis.Client, ttl time.Duration, logger *logging.Logger) *Loader {
	if repo == nil {
		panic("settings: repository required")
	}
	if ttl <= 0 {
		ttl = 5 * time.Minute
	}
	if logger == nil {
		logger = logging.Default()
	}
	return &Loader{repo: repo, cache: cache, ttl: ttl, logger: logger}
}

// WithDefaults overrides the fallback business name and deposit percent for
// tenants that have no stored settings row. Empty or non-positive values
// keep the package defaults.
func (l *Loader) WithDefaults(businessName string, depositPct int) *Loader {
	l.defaultBusinessName = businessName
	l.defaultDepositPct = depositPct
	return l
}

// fallback builds the default settings, applying any configured overrides.
func (l *Loader) fallback(tenantID string) Settings {
	s := Default(tenantID)
	if l.defaultBusinessName != "" {
		s.BusinessName = l.defaultBusinessName
	}
	if l.defaultDepositPct > 0 {
		s.DepositPercent = l.defaultDepositPct
	}
	return s
}

// Load returns settings for the tenant, falling back to Default when no row
// exists or the lookup fails. Read-through cache on the happy path.
func (l *Loader) Load(ctx context.Context, tenantID string) Settings {
	if l.cache != nil {
		if data, err := l.cache.Get(ctx, cacheKey(tenantID)).Bytes(); err == nil {
			var s Settings
			if err := json.Unmarshal(data, &s); err == nil {
				return s
			}
		}
	}

	row, err := l.repo.Get(ctx, tenantID)
	if err != nil {
		if !errors.Is(err, ErrNotFound) {
			l.logger.Warn("settings load failed, using defaults", "tenant_id", tenantID, "error", err)
		}
		return l.fallback(tenantID)
	}

	if l.cache != nil {
		if data, err := json.Marshal(row); err == nil {
			if err := l.cache.Set(ctx, cacheKey(tenantID), data, l.ttl).Err(); err != nil {
				l.logger.Debug("settings cache write failed", "tenant_id", tenantID, "error", err)
			}
		}
	}
	return *row
}

// Invalidate drops the cached entry for a tenant after a settings change.
func (l *Loader) Invalidate(ctx context.Context, tenantID string) {
	if l.cache == nil {
		return
	}
	if err := l.cache.Del(ctx, cacheKey(tenantID)).Err(); err != nil {
		l.logger.Debug("settings cache invalidate failed", "tenant_id", tenantID, "error", err)
	}
}

func cacheKey(tenantID string) string {
	return fmt.Sprintf("ai_settings:%s", tenantID)
}

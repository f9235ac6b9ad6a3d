package secrets

import (
	"context"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/Checker-Finance/moa-adapter/internal/config"
	pkgsecrets "github.com/Checker-Finance/moa-adapter/pkg/secrets"
	"github.com/Checker-Finance/moa-adapter/pkg/utils"
)

// Resolver loads a named secret and parses it into T, caching the parsed
// value locally to reduce API calls.
type Resolver[T any] struct {
	logger   *zap.Logger
	provider pkgsecrets.Provider
	cache    *pkgsecrets.Cache[T]
}

// NewResolver constructs a generic secret resolver.
func NewResolver[T any](logger *zap.Logger, provider pkgsecrets.Provider, cache *pkgsecrets.Cache[T]) *Resolver[T] {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Resolver[T]{logger: logger, provider: provider, cache: cache}
}

// Resolve fetches or returns the cached T for the secret name.
// parse extracts T from the raw secret map; it should validate required fields.
func (r *Resolver[T]) Resolve(ctx context.Context, name string, parse func(map[string]string) (T, error)) (T, error) {
	key := strings.ToLower(name)
	if v, ok := r.cache.Get(key); ok {
		return v, nil
	}

	raw, err := r.provider.GetSecret(ctx, name)
	if err != nil {
		r.logger.Warn("aws.secret_fetch_failed", zap.String("key", name), zap.Error(err))
		var zero T
		return zero, fmt.Errorf("resolve secret %q: %w", name, err)
	}

	v, err := parse(raw)
	if err != nil {
		var zero T
		return zero, fmt.Errorf("parse secret %q: %w", name, err)
	}
	r.cache.Put(key, v)
	r.logger.Info("aws.secret_resolved", zap.String("key", name))
	return v, nil
}

// Overrides are connection settings that may be kept out of the environment.
type Overrides struct {
	DatabaseURL string
	RedisPass   string
	NATSURL     string
}

// ParseOverrides reads the recognised keys (case-insensitive) from a secret map.
// A secret that carries none of them is rejected.
func ParseOverrides(m map[string]string) (Overrides, error) {
	var o Overrides
	for k, v := range m {
		switch strings.ToUpper(k) {
		case "DATABASE_URL":
			o.DatabaseURL = v
		case "REDIS_PASS":
			o.RedisPass = v
		case "NATS_URL":
			o.NATSURL = v
		}
	}
	if o == (Overrides{}) {
		return o, fmt.Errorf("secret has none of DATABASE_URL, REDIS_PASS, NATS_URL")
	}
	return o, nil
}

// Apply copies non-empty overrides onto cfg and returns the names of the
// settings it replaced.
func (o Overrides) Apply(cfg *config.Config, logger *zap.Logger) []string {
	var applied []string
	if o.DatabaseURL != "" {
		cfg.DatabaseURL = o.DatabaseURL
		applied = append(applied, "DATABASE_URL")
	}
	if o.RedisPass != "" {
		cfg.RedisPass = o.RedisPass
		applied = append(applied, "REDIS_PASS")
	}
	if o.NATSURL != "" {
		cfg.NATSURL = o.NATSURL
		applied = append(applied, "NATS_URL")
	}
	if logger != nil && len(applied) > 0 {
		logger.Info("aws.overrides_applied",
			zap.Strings("keys", applied),
			zap.String("dsn", utils.MaskDSN(cfg.DatabaseURL)))
	}
	return applied
}

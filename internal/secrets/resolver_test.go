package secrets

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/Checker-Finance/moa-adapter/internal/config"
	pkgsecrets "github.com/Checker-Finance/moa-adapter/pkg/secrets"
)

type mockProvider struct {
	fn    func(ctx context.Context, name string) (map[string]string, error)
	calls int
}

func (m *mockProvider) GetSecret(ctx context.Context, name string) (map[string]string, error) {
	m.calls++
	return m.fn(ctx, name)
}

func TestResolve_CachesParsedValue(t *testing.T) {
	p := &mockProvider{fn: func(_ context.Context, name string) (map[string]string, error) {
		assert.Equal(t, "prod/moa-adapter", name)
		return map[string]string{"database_url": "postgres://a/b"}, nil
	}}
	r := NewResolver(zap.NewNop(), p, pkgsecrets.NewCache[Overrides](time.Hour))

	for i := 0; i < 3; i++ {
		o, err := r.Resolve(context.Background(), "prod/moa-adapter", ParseOverrides)
		require.NoError(t, err)
		assert.Equal(t, "postgres://a/b", o.DatabaseURL)
	}
	assert.Equal(t, 1, p.calls)
}

func TestResolve_ProviderError(t *testing.T) {
	p := &mockProvider{fn: func(context.Context, string) (map[string]string, error) {
		return nil, errors.New("access denied")
	}}
	r := NewResolver(nil, p, pkgsecrets.NewCache[Overrides](time.Hour))

	_, err := r.Resolve(context.Background(), "x", ParseOverrides)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "access denied")
}

func TestResolve_ParseErrorNotCached(t *testing.T) {
	p := &mockProvider{fn: func(context.Context, string) (map[string]string, error) {
		return map[string]string{"unrelated": "1"}, nil
	}}
	r := NewResolver(nil, p, pkgsecrets.NewCache[Overrides](time.Hour))

	_, err := r.Resolve(context.Background(), "x", ParseOverrides)
	require.Error(t, err)
	_, err = r.Resolve(context.Background(), "x", ParseOverrides)
	require.Error(t, err)
	assert.Equal(t, 2, p.calls)
}

func TestOverrides_Apply(t *testing.T) {
	cfg := &config.Config{DatabaseURL: "", RedisPass: "old", NATSURL: "nats://keep:4222"}
	o := Overrides{DatabaseURL: "postgres://u:secret@db/moa", RedisPass: "new"}

	applied := o.Apply(cfg, zap.NewNop())

	assert.Equal(t, []string{"DATABASE_URL", "REDIS_PASS"}, applied)
	assert.Equal(t, "postgres://u:secret@db/moa", cfg.DatabaseURL)
	assert.Equal(t, "new", cfg.RedisPass)
	assert.Equal(t, "nats://keep:4222", cfg.NATSURL)
}

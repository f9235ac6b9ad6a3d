package store

import (
	"context"
	"errors"
	"fmt"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/Checker-Finance/moa-adapter/pkg/model"
)

// RedisKeyPrefix namespaces snapshot keys.
const RedisKeyPrefix = "moa:snapshot:"

// RedisStore keeps each snapshot document under moa:snapshot:<Category>.
type RedisStore struct {
	redis  *redis.Client
	logger *zap.Logger
}

// NewRedisStore connects to addr and verifies the connection.
func NewRedisStore(ctx context.Context, addr, password string, db int, logger *zap.Logger) (*RedisStore, error) {
	rdb := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
		DB:       db,
	})
	if err := rdb.Ping(ctx).Err(); err != nil {
		_ = rdb.Close()
		return nil, fmt.Errorf("redis ping failed: %w", err)
	}
	return NewRedisStoreFromClient(rdb, logger), nil
}

// NewRedisStoreFromClient wraps an existing client.
func NewRedisStoreFromClient(rdb *redis.Client, logger *zap.Logger) *RedisStore {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &RedisStore{redis: rdb, logger: logger}
}

func redisKey(category model.Category) string {
	return RedisKeyPrefix + string(category)
}

func (s *RedisStore) Load(ctx context.Context, category model.Category) (*model.Snapshot, error) {
	data, err := s.redis.Get(ctx, redisKey(category)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, ErrNotFound
	} else if err != nil {
		s.logger.Warn("store.redis.get_failed", zap.String("category", string(category)), zap.Error(err))
		return nil, ErrNotFound
	}

	payload, err := DecodePayload(data)
	if err != nil {
		s.logger.Warn("store.redis.decode_failed", zap.String("category", string(category)), zap.Error(err))
		return nil, ErrNotFound
	}
	snap := payload.Snapshot("")
	return &snap, nil
}

func (s *RedisStore) Save(ctx context.Context, category model.Category, snap model.Snapshot) error {
	if err := checkSave(category, snap); err != nil {
		return err
	}
	data, err := EncodeSnapshot(snap)
	if err != nil {
		return fmt.Errorf("encode snapshot: %w", err)
	}
	if err := s.redis.Set(ctx, redisKey(category), data, 0).Err(); err != nil {
		s.logger.Error("store.redis.set_failed", zap.String("category", string(category)), zap.Error(err))
		return err
	}
	return nil
}

func (s *RedisStore) HealthCheck(ctx context.Context) error {
	if s.redis == nil {
		return fmt.Errorf("redis not initialized")
	}
	if err := s.redis.Ping(ctx).Err(); err != nil {
		return fmt.Errorf("redis ping failed: %w", err)
	}
	return nil
}

func (s *RedisStore) Close() error {
	if s.redis != nil {
		return s.redis.Close()
	}
	return nil
}

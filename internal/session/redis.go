package session

import (
	"context"
	"encoding/json"
	stderrors "errors"
	"fmt"
	"time"

	"servicredit-registro/internal/common/errors"
	"servicredit-registro/internal/registro"

	"github.com/redis/go-redis/v9"
)

const DefaultKeyPrefix = "registro:session:"

// RedisStore keeps snapshots as JSON strings with a sliding TTL.
type RedisStore struct {
	client *redis.Client
	prefix string
	ttl    time.Duration
}

func NewRedisStore(client *redis.Client, prefix string, ttl time.Duration) *RedisStore {
	if prefix == "" {
		prefix = DefaultKeyPrefix
	}
	return &RedisStore{client: client, prefix: prefix, ttl: ttl}
}

func (s *RedisStore) key(id string) string {
	return fmt.Sprintf("%s%s", s.prefix, id)
}

func (s *RedisStore) Load(ctx context.Context, id string) (*registro.Snapshot, error) {
	data, err := s.client.Get(ctx, s.key(id)).Bytes()
	if stderrors.Is(err, redis.Nil) {
		return nil, errors.NewSessionNotFoundError(id)
	}
	if err != nil {
		return nil, errors.NewSessionStoreError("get", err)
	}

	var snap registro.Snapshot
	if err := json.Unmarshal(data, &snap); err != nil {
		return nil, errors.NewSessionStoreError("decode", err)
	}
	return &snap, nil
}

func (s *RedisStore) Save(ctx context.Context, snap registro.Snapshot) error {
	data, err := json.Marshal(snap)
	if err != nil {
		return errors.NewSessionStoreError("encode", err)
	}
	if err := s.client.Set(ctx, s.key(snap.ID), data, s.ttl).Err(); err != nil {
		return errors.NewSessionStoreError("set", err)
	}
	return nil
}

func (s *RedisStore) Delete(ctx context.Context, id string) error {
	if err := s.client.Del(ctx, s.key(id)).Err(); err != nil {
		return errors.NewSessionStoreError("del", err)
	}
	return nil
}

func (s *RedisStore) Ping(ctx context.Context) error {
	if err := s.client.Ping(ctx).Err(); err != nil {
		return fmt.Errorf("redis ping failed: %w", err)
	}
	return nil
}

func (s *RedisStore) Close() error {
	return s.client.Close()
}

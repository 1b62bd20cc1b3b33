package cache

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

var _ Store = (*RedisStore)(nil)

// RedisStore keeps entries in Redis so several API instances share one cache.
// Tag membership is tracked in a Redis set per tag. A tag set expires together
// with its longest-lived member (EXPIRE NX/GT, Redis 7+).
type RedisStore struct {
	client *redis.Client
	prefix string
}

type RedisConfig struct {
	Addr     string
	Password string
	DB       int
}

func NewRedisClient(ctx context.Context, cfg RedisConfig) (*redis.Client, error) {
	client := redis.NewClient(&redis.Options{
		Addr:         cfg.Addr,
		Password:     cfg.Password,
		DB:           cfg.DB,
		DialTimeout:  5 * time.Second,
		ReadTimeout:  3 * time.Second,
		WriteTimeout: 3 * time.Second,
	})
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("connecting to redis: %w", err)
	}
	return client, nil
}

func NewRedisStore(client *redis.Client, prefix string) *RedisStore {
	return &RedisStore{client: client, prefix: prefix}
}

func (s *RedisStore) entryKey(key string) string {
	return s.prefix + "entry:" + key
}

func (s *RedisStore) tagKey(tag string) string {
	return s.prefix + "tag:" + tag
}

func (s *RedisStore) Get(ctx context.Context, key string) ([]byte, bool, error) {
	val, err := s.client.Get(ctx, s.entryKey(key)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("getting cache entry %q: %w", key, err)
	}
	return val, true, nil
}

func (s *RedisStore) Set(ctx context.Context, key string, value []byte, ttl time.Duration, tags ...string) error {
	if ttl <= 0 {
		return nil
	}
	_, err := s.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.Set(ctx, s.entryKey(key), value, ttl)
		for _, tag := range tags {
			tagKey := s.tagKey(tag)
			pipe.SAdd(ctx, tagKey, key)
			pipe.ExpireNX(ctx, tagKey, ttl)
			pipe.ExpireGT(ctx, tagKey, ttl)
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("setting cache entry %q: %w", key, err)
	}
	return nil
}

func (s *RedisStore) Delete(ctx context.Context, keys ...string) error {
	if len(keys) == 0 {
		return nil
	}
	full := make([]string, len(keys))
	for i, k := range keys {
		full[i] = s.entryKey(k)
	}
	if err := s.client.Del(ctx, full...).Err(); err != nil {
		return fmt.Errorf("deleting cache entries: %w", err)
	}
	return nil
}

func (s *RedisStore) InvalidateTags(ctx context.Context, tags ...string) error {
	for _, tag := range tags {
		members, err := s.client.SMembers(ctx, s.tagKey(tag)).Result()
		if err != nil {
			return fmt.Errorf("reading cache tag %q: %w", tag, err)
		}
		if err := s.Delete(ctx, members...); err != nil {
			return err
		}
		if err := s.client.Del(ctx, s.tagKey(tag)).Err(); err != nil {
			return fmt.Errorf("deleting cache tag %q: %w", tag, err)
		}
	}
	return nil
}

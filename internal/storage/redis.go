package storage

import (
	"context"
	"errors"

	"github.com/redis/go-redis/v9"
)

type RedisSlot struct {
	rdb *redis.Client
}

func NewRedisSlot(addr string) *RedisSlot {
	rdb := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: "",
		DB:       0,
	})
	return &RedisSlot{rdb: rdb}
}

func (s *RedisSlot) Load(ctx context.Context, key string) ([]byte, error) {
	data, err := s.rdb.Get(ctx, key).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return data, nil
}

func (s *RedisSlot) Save(ctx context.Context, key string, data []byte) error {
	return s.rdb.Set(ctx, key, data, 0).Err()
}

func (s *RedisSlot) Close() error {
	return s.rdb.Close()
}

package storage

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/redis/go-redis/v9"

	"github.com/lucasferr-dev/zapagenda/internal/model"
)

// RedisStore keeps the ledger as a JSON array in a single Redis string key.
type RedisStore struct {
	rdb *redis.Client
	key string
}

func NewRedisStore(rdb *redis.Client) *RedisStore {
	return &RedisStore{rdb: rdb, key: LedgerKey}
}

func (s *RedisStore) Load(ctx context.Context) ([]model.Appointment, error) {
	raw, err := s.rdb.Get(ctx, s.key).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("load ledger from redis: %w", err)
	}
	var appts []model.Appointment
	if err := json.Unmarshal(raw, &appts); err != nil {
		return nil, fmt.Errorf("decode ledger payload: %w", err)
	}
	return appts, nil
}

func (s *RedisStore) Save(ctx context.Context, appts []model.Appointment) error {
	if appts == nil {
		appts = []model.Appointment{}
	}
	raw, err := json.Marshal(appts)
	if err != nil {
		return fmt.Errorf("encode ledger payload: %w", err)
	}
	if err := s.rdb.Set(ctx, s.key, raw, 0).Err(); err != nil {
		return fmt.Errorf("save ledger to redis: %w", err)
	}
	return nil
}

func (s *RedisStore) Ready(ctx context.Context) error {
	return s.rdb.Ping(ctx).Err()
}

package redisstore

import (
	"context"
	"encoding/json"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/PaulFidika/plankit/entitlements"
)

// PlanStore is a redis-backed implementation of plancache.Store for sharing
// cached plans across nodes. Redis key expiry carries the TTL, so a hit is a
// fresh plan by construction.
type PlanStore struct {
	rdb   *redis.Client
	keyNS string
}

// NewPlanStore creates a redis plan store under the given key prefix.
func NewPlanStore(rdb *redis.Client, keyPrefix string) *PlanStore {
	if keyPrefix == "" {
		keyPrefix = "plankit:plan:"
	}
	return &PlanStore{rdb: rdb, keyNS: keyPrefix}
}

func (s *PlanStore) key(userID string) string { return s.keyNS + userID }

func (s *PlanStore) Get(ctx context.Context, userID string) (*entitlements.CachedPlan, bool, error) {
	val, err := s.rdb.Get(ctx, s.key(userID)).Bytes()
	if err == redis.Nil {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}
	var p entitlements.CachedPlan
	if err := json.Unmarshal(val, &p); err != nil {
		return nil, false, err
	}
	return &p, true, nil
}

func (s *PlanStore) Put(ctx context.Context, userID string, plan *entitlements.CachedPlan, ttl time.Duration) error {
	b, err := json.Marshal(plan)
	if err != nil {
		return err
	}
	return s.rdb.Set(ctx, s.key(userID), b, ttl).Err()
}

func (s *PlanStore) Del(ctx context.Context, userID string) error {
	return s.rdb.Del(ctx, s.key(userID)).Err()
}

// DelAll removes every cached plan under the store's prefix. Uses SCAN so a
// large keyspace does not block redis.
func (s *PlanStore) DelAll(ctx context.Context) error {
	iter := s.rdb.Scan(ctx, 0, s.keyNS+"*", 0).Iterator()
	for iter.Next(ctx) {
		if err := s.rdb.Del(ctx, iter.Val()).Err(); err != nil {
			return err
		}
	}
	return iter.Err()
}

func (s *PlanStore) Close() error { return nil }

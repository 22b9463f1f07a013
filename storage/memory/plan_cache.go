package memorystore

import (
	"context"
	"sync"
	"time"

	"github.com/PaulFidika/plankit/entitlements"
)

// PlanStore is an in-memory implementation of plancache.Store with per-entry
// TTL. Entries are replaced wholesale on Put; readers never see a partial
// update. Starts a background goroutine to clean up expired entries every
// minute.
type PlanStore struct {
	mu     sync.Mutex
	data   map[string]item
	closed chan struct{}
}

type item struct {
	plan *entitlements.CachedPlan
	exp  time.Time
}

// NewPlanStore creates a new in-memory plan store.
func NewPlanStore() *PlanStore {
	s := &PlanStore{data: make(map[string]item), closed: make(chan struct{})}
	go s.cleanupLoop()
	return s
}

func (s *PlanStore) Get(ctx context.Context, userID string) (*entitlements.CachedPlan, bool, error) {
	_ = ctx
	s.mu.Lock()
	defer s.mu.Unlock()
	it, ok := s.data[userID]
	if !ok {
		return nil, false, nil
	}
	if time.Now().After(it.exp) {
		delete(s.data, userID)
		return nil, false, nil
	}
	return it.plan, true, nil
}

func (s *PlanStore) Put(ctx context.Context, userID string, plan *entitlements.CachedPlan, ttl time.Duration) error {
	_ = ctx
	s.mu.Lock()
	defer s.mu.Unlock()
	s.data[userID] = item{plan: plan, exp: time.Now().Add(ttl)}
	return nil
}

func (s *PlanStore) Del(ctx context.Context, userID string) error {
	_ = ctx
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.data, userID)
	return nil
}

func (s *PlanStore) DelAll(ctx context.Context) error {
	_ = ctx
	s.mu.Lock()
	defer s.mu.Unlock()
	s.data = make(map[string]item)
	return nil
}

// cleanupLoop runs in the background and removes expired entries every minute.
func (s *PlanStore) cleanupLoop() {
	ticker := time.NewTicker(time.Minute)
	defer ticker.Stop()
	for {
		select {
		case <-ticker.C:
			s.cleanup()
		case <-s.closed:
			return
		}
	}
}

// cleanup removes all expired entries from the store.
func (s *PlanStore) cleanup() {
	s.mu.Lock()
	defer s.mu.Unlock()
	now := time.Now()
	for k, v := range s.data {
		if now.After(v.exp) {
			delete(s.data, k)
		}
	}
}

// Close stops the background cleanup goroutine.
// Should be called when the store is no longer needed.
func (s *PlanStore) Close() error {
	close(s.closed)
	return nil
}

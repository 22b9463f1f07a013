package memorystore

import (
	"context"
	"testing"
	"time"

	"github.com/PaulFidika/plankit/entitlements"
)

func TestPutGetDel(t *testing.T) {
	s := NewPlanStore()
	defer s.Close()
	ctx := context.Background()

	plan := &entitlements.CachedPlan{Tier: "pro"}
	if err := s.Put(ctx, "u1", plan, time.Minute); err != nil {
		t.Fatalf("put: %v", err)
	}
	got, ok, err := s.Get(ctx, "u1")
	if err != nil || !ok {
		t.Fatalf("get: ok=%v err=%v", ok, err)
	}
	if got.Tier != "pro" {
		t.Errorf("tier = %q", got.Tier)
	}

	if err := s.Del(ctx, "u1"); err != nil {
		t.Fatalf("del: %v", err)
	}
	if _, ok, _ := s.Get(ctx, "u1"); ok {
		t.Error("entry survived Del")
	}
}

func TestExpiredEntryMisses(t *testing.T) {
	s := NewPlanStore()
	defer s.Close()
	ctx := context.Background()

	if err := s.Put(ctx, "u1", &entitlements.CachedPlan{Tier: "pro"}, 10*time.Millisecond); err != nil {
		t.Fatalf("put: %v", err)
	}
	time.Sleep(25 * time.Millisecond)
	if _, ok, _ := s.Get(ctx, "u1"); ok {
		t.Error("expired entry should miss")
	}
}

func TestPutReplacesWholesale(t *testing.T) {
	s := NewPlanStore()
	defer s.Close()
	ctx := context.Background()

	first := &entitlements.CachedPlan{
		Tier:         "pro",
		Entitlements: []entitlements.Entitlement{{Key: "a"}, {Key: "b"}},
	}
	second := &entitlements.CachedPlan{
		Tier:         "free",
		Entitlements: []entitlements.Entitlement{{Key: "c"}},
	}
	_ = s.Put(ctx, "u1", first, time.Minute)
	_ = s.Put(ctx, "u1", second, time.Minute)

	got, _, _ := s.Get(ctx, "u1")
	if got.Tier != "free" || len(got.Entitlements) != 1 {
		t.Errorf("stale entitlements leaked into refreshed plan: %+v", got)
	}
}

func TestDelAll(t *testing.T) {
	s := NewPlanStore()
	defer s.Close()
	ctx := context.Background()

	_ = s.Put(ctx, "u1", &entitlements.CachedPlan{Tier: "pro"}, time.Minute)
	_ = s.Put(ctx, "u2", &entitlements.CachedPlan{Tier: "free"}, time.Minute)
	if err := s.DelAll(ctx); err != nil {
		t.Fatalf("delall: %v", err)
	}
	for _, id := range []string{"u1", "u2"} {
		if _, ok, _ := s.Get(ctx, id); ok {
			t.Errorf("entry %s survived DelAll", id)
		}
	}
}

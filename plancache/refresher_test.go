package plancache

import (
	"context"
	"testing"
	"time"

	"github.com/PaulFidika/plankit/entitlements"
	memorystore "github.com/PaulFidika/plankit/storage/memory"
	plantest "github.com/PaulFidika/plankit/testing"
)

func TestRefresherTickRefetchesSeenCallers(t *testing.T) {
	auth := plantest.NewPlanAuthority()
	defer auth.Close()
	auth.SetPlan("u1", "pro", []entitlements.Entitlement{{Key: "video_generation", Level: entitlements.TierPro}})

	store := memorystore.NewPlanStore()
	defer store.Close()
	cache := New(Config{Authority: NewHTTPAuthority(auth.URL()), Store: store})

	if _, err := cache.GetCurrentPlan(context.Background(), "u1"); err != nil {
		t.Fatalf("prime: %v", err)
	}
	before := auth.Requests()

	r := NewRefresher(cache, time.Hour, nil)
	r.tick()

	if got := auth.Requests(); got != before+1 {
		t.Errorf("tick fetched %d times, want 1", got-before)
	}
}

func TestRefresherTickSkipsStaleCallers(t *testing.T) {
	auth := plantest.NewPlanAuthority()
	defer auth.Close()

	store := memorystore.NewPlanStore()
	defer store.Close()
	cache := New(Config{Authority: NewHTTPAuthority(auth.URL()), Store: store})

	if _, err := cache.GetCurrentPlan(context.Background(), "u1"); err != nil {
		t.Fatalf("prime: %v", err)
	}
	before := auth.Requests()

	// Window in the future relative to the last sighting, so nothing matches.
	r := NewRefresher(cache, time.Nanosecond, nil)
	time.Sleep(5 * time.Millisecond)
	r.tick()

	if got := auth.Requests(); got != before {
		t.Errorf("tick fetched %d times, want 0", got-before)
	}
}

func TestRefresherStartRejectsBadSpec(t *testing.T) {
	store := memorystore.NewPlanStore()
	defer store.Close()
	cache := New(Config{Store: store})

	r := NewRefresher(cache, time.Hour, nil)
	if err := r.Start("not a cron spec"); err == nil {
		t.Error("expected error for malformed schedule")
	}
}

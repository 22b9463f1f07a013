package depgate

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/PaulFidika/plankit/entitlements"
	"github.com/PaulFidika/plankit/plancache"
	memorystore "github.com/PaulFidika/plankit/storage/memory"
	plantest "github.com/PaulFidika/plankit/testing"
)

type stubChecker struct {
	mu    sync.Mutex
	calls int
	resp  *CheckResponse
	err   error
}

func (s *stubChecker) CheckDependencies(ctx context.Context, deps []string, userID string) (*CheckResponse, error) {
	s.mu.Lock()
	s.calls++
	s.mu.Unlock()
	if s.err != nil {
		return nil, s.err
	}
	return s.resp, nil
}

func (s *stubChecker) callCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.calls
}

type noAuthority struct{}

func (noAuthority) FetchPlan(ctx context.Context, userID string) (*entitlements.CachedPlan, error) {
	return nil, errors.New("no authority in gate tests")
}

func seededCache(t *testing.T, userID string, plan *entitlements.CachedPlan) *plancache.Cache {
	t.Helper()
	store := memorystore.NewPlanStore()
	t.Cleanup(func() { _ = store.Close() })
	if plan != nil {
		if err := store.Put(context.Background(), userID, plan, time.Minute); err != nil {
			t.Fatalf("seed plan: %v", err)
		}
	}
	return plancache.New(plancache.Config{Authority: noAuthority{}, Store: store})
}

func planInState(state entitlements.PlanState) *entitlements.CachedPlan {
	return &entitlements.CachedPlan{
		Tier:   "pro",
		Status: &entitlements.PlanStatus{PlanName: "pro", State: state},
	}
}

func TestLockedStateOverridesRemoteAllow(t *testing.T) {
	checker := &stubChecker{resp: &CheckResponse{Allowed: true}}
	gate := New(checker, seededCache(t, "u1", planInState(entitlements.StateLocked)), nil)

	res := gate.CheckWidgetDependencies(context.Background(), "editor", []string{"video_generation"}, entitlements.Caller{ID: "u1"})
	if res.Allowed {
		t.Fatal("locked plan must deny every widget")
	}
	if res.Reason != entitlements.UpdateBlocked {
		t.Errorf("reason = %v, want UpdateBlocked", res.Reason)
	}
	if checker.callCount() != 0 {
		t.Errorf("state precheck must precede the remote call, got %d calls", checker.callCount())
	}
}

func TestViewOnlyStateDenies(t *testing.T) {
	checker := &stubChecker{resp: &CheckResponse{Allowed: true}}
	gate := New(checker, seededCache(t, "u1", planInState(entitlements.StateViewOnly)), nil)

	res := gate.CheckWidgetDependencies(context.Background(), "editor", nil, entitlements.Caller{ID: "u1"})
	if res.Allowed || res.Reason != entitlements.ViewOnlyBlocked {
		t.Errorf("got %+v, want ViewOnlyBlocked deny", res)
	}
}

func TestRemoteFailureFailsClosed(t *testing.T) {
	checker := &stubChecker{err: errors.New("dial tcp: connection refused")}
	gate := New(checker, seededCache(t, "u1", planInState(entitlements.StateActive)), nil)

	res := gate.CheckWidgetDependencies(context.Background(), "editor", []string{"video_generation"}, entitlements.Caller{ID: "u1"})
	if res.Allowed {
		t.Fatal("unreachable authority must never be read as permission")
	}
	if res.Reason != entitlements.APIDown {
		t.Errorf("reason = %v, want APIDown", res.Reason)
	}
}

func TestRemoteDenyPropagatesMessageVerbatim(t *testing.T) {
	checker := &stubChecker{resp: &CheckResponse{Allowed: false, Message: "Upgrade to Pro to use the editor."}}
	gate := New(checker, seededCache(t, "u1", planInState(entitlements.StateActive)), nil)

	res := gate.CheckWidgetDependencies(context.Background(), "editor", nil, entitlements.Caller{ID: "u1"})
	if res.Allowed {
		t.Fatal("expected deny")
	}
	if res.Message != "Upgrade to Pro to use the editor." {
		t.Errorf("message = %q, want server copy verbatim", res.Message)
	}
}

func TestGraceAllowsWithAdvisoryReason(t *testing.T) {
	in2h := time.Now().Add(2 * time.Hour)
	status := &entitlements.PlanStatus{PlanName: "pro", State: entitlements.StateGrace, GraceExpiresAt: &in2h}
	checker := &stubChecker{resp: &CheckResponse{Allowed: true, Plan: status}}
	gate := New(checker, seededCache(t, "u1", &entitlements.CachedPlan{Tier: "pro", Status: status}), nil)

	res := gate.CheckWidgetDependencies(context.Background(), "editor", nil, entitlements.Caller{ID: "u1"})
	if !res.Allowed {
		t.Fatal("grace state must not block the allow")
	}
	if res.Reason != entitlements.GracePeriod {
		t.Errorf("reason = %v, want advisory GracePeriod", res.Reason)
	}
	if res.Plan == nil || res.Plan.State != entitlements.StateGrace {
		t.Errorf("plan snapshot = %+v, want grace snapshot", res.Plan)
	}
}

func TestAllowCarriesPlanSnapshot(t *testing.T) {
	status := &entitlements.PlanStatus{
		PlanName: "pro",
		State:    entitlements.StateActive,
		Usage:    entitlements.UsageCounters{VideoMins: 12},
		Quota:    entitlements.UsageCounters{VideoMins: 100},
	}
	checker := &stubChecker{resp: &CheckResponse{Allowed: true, Plan: status}}
	gate := New(checker, seededCache(t, "u1", planInState(entitlements.StateActive)), nil)

	res := gate.CheckWidgetDependencies(context.Background(), "editor", nil, entitlements.Caller{ID: "u1"})
	if !res.Allowed || res.Plan == nil {
		t.Fatalf("got %+v, want allow with snapshot", res)
	}
	if res.Plan.Quota.VideoMins != 100 {
		t.Errorf("quota = %+v", res.Plan.Quota)
	}
}

func TestHTTPCheckerRoundTrip(t *testing.T) {
	fake := plantest.NewDependencyAuthority()
	defer fake.Close()
	fake.SetVerdict("u1", false, "no dice", &entitlements.PlanStatus{PlanName: "starter", State: entitlements.StateActive})

	checker := NewHTTPChecker(fake.URL(), nil)
	resp, err := checker.CheckDependencies(context.Background(), []string{"video_generation"}, "u1")
	if err != nil {
		t.Fatalf("check: %v", err)
	}
	if resp.Allowed || resp.Message != "no dice" {
		t.Errorf("resp = %+v", resp)
	}
	if resp.Plan == nil || resp.Plan.PlanName != "starter" {
		t.Errorf("plan = %+v", resp.Plan)
	}

	fake.SetFailing(true)
	if _, err := checker.CheckDependencies(context.Background(), nil, "u1"); err == nil {
		t.Error("expected error during outage")
	}
}

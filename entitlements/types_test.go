package entitlements

import (
	"errors"
	"testing"
	"time"
)

func TestTierAtLeast(t *testing.T) {
	cases := []struct {
		t, min Tier
		want   bool
	}{
		{TierEnterprise, TierPro, true},
		{TierPro, TierPro, true},
		{TierFree, TierPro, false},
		{Tier("mystery"), TierFree, false},
		{TierFree, TierFree, true},
	}
	for _, c := range cases {
		if got := c.t.AtLeast(c.min); got != c.want {
			t.Errorf("%s.AtLeast(%s) = %v, want %v", c.t, c.min, got, c.want)
		}
	}
}

func TestPlanStatusInGrace(t *testing.T) {
	now := time.Now()
	future := now.Add(2 * time.Hour)
	past := now.Add(-time.Minute)

	if (&PlanStatus{State: StateGrace, GraceExpiresAt: &future}).InGrace(now) != true {
		t.Error("unexpired grace window should report in-grace")
	}
	if (&PlanStatus{State: StateGrace, GraceExpiresAt: &past}).InGrace(now) {
		t.Error("lapsed grace window should not report in-grace")
	}
	if (&PlanStatus{State: StateActive, GraceExpiresAt: &future}).InGrace(now) {
		t.Error("active plan is not in grace")
	}
	var nilStatus *PlanStatus
	if nilStatus.InGrace(now) {
		t.Error("nil status is not in grace")
	}
}

func TestCachedPlanFind(t *testing.T) {
	plan := &CachedPlan{
		Entitlements: []Entitlement{
			{Key: "video_generation", Level: TierFree},
			{Key: "premium_models", Level: TierPro},
		},
	}
	if e, ok := plan.Find("premium_models"); !ok || e.Level != TierPro {
		t.Errorf("Find(premium_models) = %+v, %v", e, ok)
	}
	if _, ok := plan.Find("nope"); ok {
		t.Error("unexpected match")
	}
	var nilPlan *CachedPlan
	if _, ok := nilPlan.Find("x"); ok {
		t.Error("nil plan matched")
	}
}

func TestCallerHasRole(t *testing.T) {
	c := Caller{ID: "u1", Role: "user", Roles: []string{"editor", "billing"}}
	if !c.HasRole("user") || !c.HasRole("billing") {
		t.Error("expected role matches")
	}
	if c.HasRole("admin") {
		t.Error("unexpected admin role")
	}
}

func TestDeniedError(t *testing.T) {
	err := Denied("premium_models", NotEntitled)
	var denied *DeniedError
	if !errors.As(err, &denied) {
		t.Fatalf("not a DeniedError: %T", err)
	}
	if denied.Reason != NotEntitled {
		t.Errorf("reason = %v", denied.Reason)
	}
	if msg := err.Error(); msg == "" || msg == "NOT_ENTITLED" {
		t.Errorf("error string = %q", msg)
	}
}

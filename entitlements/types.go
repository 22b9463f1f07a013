package entitlements

import "time"

// Tier is a subscription level. Higher tiers include the grants of lower ones.
type Tier string

const (
	TierFree       Tier = "free"
	TierPro        Tier = "pro"
	TierEnterprise Tier = "enterprise"
)

// rank orders tiers for level comparisons. Unknown tiers rank below free.
func (t Tier) rank() int {
	switch t {
	case TierFree:
		return 1
	case TierPro:
		return 2
	case TierEnterprise:
		return 3
	default:
		return 0
	}
}

// AtLeast reports whether t grants at least the given level.
func (t Tier) AtLeast(min Tier) bool { return t.rank() >= min.rank() }

// Unlimited marks a limit with no upper bound.
const Unlimited int64 = -1

// Entitlement is a single granted capability at a given tier, optionally
// bounded by numeric limits. Key is unique within a plan's entitlement set.
type Entitlement struct {
	Key    string           `json:"key"`
	Level  Tier             `json:"level"`
	Limits map[string]int64 `json:"limits,omitempty"` // values >= 0, or Unlimited
}

// PlanState is the lifecycle state of a subscription plan.
type PlanState string

const (
	StateActive   PlanState = "active"
	StateGrace    PlanState = "grace"
	StateViewOnly PlanState = "view_only"
	StateLocked   PlanState = "locked"
)

// UsageCounters holds consumption numbers for the metered resources.
type UsageCounters struct {
	VideoMins int64 `json:"video_mins"`
	AudioMins int64 `json:"audio_mins"`
	Tokens    int64 `json:"tokens"`
}

// PlanStatus is the billing authority's view of a user's plan. Quota bounds
// Usage informationally only; enforcement happens upstream.
type PlanStatus struct {
	PlanName       string        `json:"plan_name"`
	State          PlanState     `json:"state"`
	ExpiresAt      *time.Time    `json:"expires_at,omitempty"`
	GraceExpiresAt *time.Time    `json:"grace_expires_at,omitempty"` // set whenever State == grace
	Usage          UsageCounters `json:"usage"`
	Quota          UsageCounters `json:"quota"`
}

// InGrace reports whether the plan is inside an unexpired grace window.
func (p *PlanStatus) InGrace(now time.Time) bool {
	return p != nil && p.State == StateGrace && p.GraceExpiresAt != nil && now.Before(*p.GraceExpiresAt)
}

// CachedPlan is one atomic snapshot of a user's plan and entitlement set.
// It is replaced wholesale on refresh, never patched in place.
type CachedPlan struct {
	Tier         string        `json:"tier"`
	Entitlements []Entitlement `json:"entitlements"`
	Status       *PlanStatus   `json:"status,omitempty"`
	FetchedAt    time.Time     `json:"fetched_at"`
}

// Find returns the entitlement with the given key, if present.
func (p *CachedPlan) Find(key string) (Entitlement, bool) {
	if p == nil {
		return Entitlement{}, false
	}
	for _, e := range p.Entitlements {
		if e.Key == key {
			return e, true
		}
	}
	return Entitlement{}, false
}

// WidgetManifest names a gated capability and the entitlement keys it needs.
// Manifests come from a static registry and are never mutated by this engine.
type WidgetManifest struct {
	Name         string   `json:"name"`
	Dependencies []string `json:"dependencies"`
}

// Caller identifies who is asking for access.
type Caller struct {
	ID    string   `json:"id"`
	Role  string   `json:"role"`
	Email string   `json:"email,omitempty"`
	Roles []string `json:"roles,omitempty"`
}

// HasRole reports whether the caller carries the role either as the primary
// Role or anywhere in the Roles list.
func (c Caller) HasRole(role string) bool {
	if c.Role == role {
		return true
	}
	for _, r := range c.Roles {
		if r == role {
			return true
		}
	}
	return false
}

// LoadResult is the per-request outcome handed to consumers. Instances are
// never shared across requests and are immutable once emitted.
type LoadResult struct {
	Allowed bool        `json:"allowed"`
	Pending bool        `json:"pending,omitempty"` // placeholder / still-waiting emission
	Reason  ReasonCode  `json:"reason,omitempty"`
	Message string      `json:"message,omitempty"`
	Plan    *PlanStatus `json:"plan,omitempty"`
}

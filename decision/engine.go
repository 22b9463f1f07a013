package decision

import (
	"context"
	"strings"

	"github.com/sirupsen/logrus"

	"github.com/PaulFidika/plankit/entitlements"
	"github.com/PaulFidika/plankit/plancache"
)

// Decision is the outcome of a synchronous entitlement check.
type Decision struct {
	OK     bool
	Reason entitlements.ReasonCode
}

// BypassPolicy decides which callers skip entitlement checks entirely.
// The policy is injected data, not code, so operators can change it without
// a deploy.
type BypassPolicy struct {
	// Roles that bypass every check (e.g. "admin").
	Roles []string
	// IDs is the superadmin allow-list.
	IDs []string
	// Func, when set, is consulted after Roles and IDs.
	Func func(entitlements.Caller) bool
}

// DefaultBypassPolicy bypasses the admin role only.
func DefaultBypassPolicy() BypassPolicy {
	return BypassPolicy{Roles: []string{"admin"}}
}

// Allows reports whether the caller is privileged under this policy.
func (p BypassPolicy) Allows(c entitlements.Caller) bool {
	for _, r := range p.Roles {
		if c.HasRole(r) {
			return true
		}
	}
	for _, id := range p.IDs {
		if c.ID == id {
			return true
		}
	}
	return p.Func != nil && p.Func(c)
}

// NamespaceRule maps a key prefix to the entitlement governing it.
type NamespaceRule struct {
	GoverningKey string
	MinLevel     entitlements.Tier
}

// DefaultNamespaces covers the built-in namespaced key families.
func DefaultNamespaces() map[string]NamespaceRule {
	return map[string]NamespaceRule{
		"models": {GoverningKey: "premium_models", MinLevel: entitlements.TierPro},
		"voices": {GoverningKey: "premium_voices", MinLevel: entitlements.TierPro},
	}
}

// Config configures an Engine.
type Config struct {
	Plans      *plancache.Cache
	Bypass     BypassPolicy
	Namespaces map[string]NamespaceRule
	// FreeTiers names plan tiers that never qualify for downloads.
	FreeTiers []string
	Logger    logrus.FieldLogger
}

// Engine evaluates feature and resource keys against the cached plan.
// All checks are synchronous and never perform network I/O: a cache miss is
// answered with APIDown (fail closed) rather than a blocking fetch. This is
// deliberately stricter than the cache's own fallback behavior — the cache
// degrades to a free plan for availability, but "no answer yet" is a deny.
type Engine struct {
	plans      *plancache.Cache
	bypass     BypassPolicy
	namespaces map[string]NamespaceRule
	freeTiers  map[string]struct{}
	log        logrus.FieldLogger
}

// New builds an Engine from cfg. Plans is required.
func New(cfg Config) *Engine {
	if cfg.Namespaces == nil {
		cfg.Namespaces = DefaultNamespaces()
	}
	if cfg.FreeTiers == nil {
		cfg.FreeTiers = []string{string(entitlements.TierFree), plancache.FallbackTier}
	}
	if cfg.Logger == nil {
		cfg.Logger = logrus.StandardLogger()
	}
	free := make(map[string]struct{}, len(cfg.FreeTiers))
	for _, t := range cfg.FreeTiers {
		free[strings.ToLower(t)] = struct{}{}
	}
	return &Engine{
		plans:      cfg.Plans,
		bypass:     cfg.Bypass,
		namespaces: cfg.Namespaces,
		freeTiers:  free,
		log:        cfg.Logger,
	}
}

// CanUse checks a feature key. Rules apply in a fixed order and the first
// match wins: privileged bypass, cache availability, exact key match,
// namespaced key. Anything left over is NotEntitled.
func (e *Engine) CanUse(ctx context.Context, featureKey string, caller entitlements.Caller) Decision {
	if e.bypass.Allows(caller) {
		return Decision{OK: true, Reason: entitlements.BypassSuperadmin}
	}
	plan, ok := e.plans.Peek(ctx, caller.ID)
	if !ok {
		return Decision{OK: false, Reason: entitlements.APIDown}
	}
	return e.evaluate(featureKey, caller, plan)
}

// CanDownload checks a resource key for download access. Free-tier plans are
// denied outright before any resource-specific rule; downloads require at
// least a paid tier.
func (e *Engine) CanDownload(ctx context.Context, resourceKey string, caller entitlements.Caller) Decision {
	if e.bypass.Allows(caller) {
		return Decision{OK: true, Reason: entitlements.BypassSuperadmin}
	}
	plan, ok := e.plans.Peek(ctx, caller.ID)
	if !ok {
		return Decision{OK: false, Reason: entitlements.APIDown}
	}
	if _, isFree := e.freeTiers[strings.ToLower(plan.Tier)]; isFree {
		e.log.WithFields(logrus.Fields{
			"user_id": caller.ID,
			"key":     resourceKey,
			"tier":    plan.Tier,
		}).Debug("download denied on free tier")
		return Decision{OK: false, Reason: entitlements.NotEntitled}
	}
	return e.evaluate(resourceKey, caller, plan)
}

// Require is the throwing form of CanUse: it returns a typed *DeniedError
// carrying the reason code when the check fails, nil otherwise.
func (e *Engine) Require(ctx context.Context, featureKey string, caller entitlements.Caller) error {
	if d := e.CanUse(ctx, featureKey, caller); !d.OK {
		return entitlements.Denied(featureKey, d.Reason)
	}
	return nil
}

func (e *Engine) evaluate(key string, caller entitlements.Caller, plan *entitlements.CachedPlan) Decision {
	if _, ok := plan.Find(key); ok {
		return Decision{OK: true}
	}
	if prefix, _, ok := strings.Cut(key, ":"); ok {
		if rule, ok := e.namespaces[prefix]; ok {
			if ent, ok := plan.Find(rule.GoverningKey); ok && ent.Level.AtLeast(rule.MinLevel) {
				return Decision{OK: true}
			}
		}
	}
	e.log.WithFields(logrus.Fields{
		"user_id": caller.ID,
		"key":     key,
		"tier":    plan.Tier,
	}).Debug("feature not entitled")
	return Decision{OK: false, Reason: entitlements.NotEntitled}
}

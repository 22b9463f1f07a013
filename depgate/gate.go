package depgate

import (
	"context"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/PaulFidika/plankit/entitlements"
	"github.com/PaulFidika/plankit/plancache"
)

// CheckResponse is the dependency-check authority's verdict. The authority
// evaluates each dependency key server-side; this engine never re-derives
// that logic locally.
type CheckResponse struct {
	Allowed bool
	Message string
	Plan    *entitlements.PlanStatus
}

// Checker calls the remote dependency-check authority.
type Checker interface {
	CheckDependencies(ctx context.Context, deps []string, userID string) (*CheckResponse, error)
}

// Gate decides whether a widget's declared dependencies are satisfied,
// merging local plan state with the remote authority's verdict.
type Gate struct {
	checker Checker
	plans   *plancache.Cache
	log     logrus.FieldLogger
}

// New builds a Gate. Both checker and plans are required.
func New(checker Checker, plans *plancache.Cache, logger logrus.FieldLogger) *Gate {
	if logger == nil {
		logger = logrus.StandardLogger()
	}
	return &Gate{checker: checker, plans: plans, log: logger}
}

// CheckWidgetDependencies produces an allow/deny verdict for the widget.
//
// A globally restricted plan state (view_only, locked) denies before any
// dependency logic runs. Otherwise the remote authority is asked; its deny
// message propagates verbatim. A remote failure denies with APIDown — the
// cache may fail open for availability, but an unreachable authoritative
// check is never interpreted as permission.
func (g *Gate) CheckWidgetDependencies(ctx context.Context, widgetName string, deps []string, caller entitlements.Caller) *entitlements.LoadResult {
	var status *entitlements.PlanStatus
	if plan, ok := g.plans.Peek(ctx, caller.ID); ok && plan.Status != nil {
		status = plan.Status
		switch status.State {
		case entitlements.StateViewOnly:
			return &entitlements.LoadResult{Allowed: false, Reason: entitlements.ViewOnlyBlocked, Plan: status}
		case entitlements.StateLocked:
			return &entitlements.LoadResult{Allowed: false, Reason: entitlements.UpdateBlocked, Plan: status}
		}
	}

	resp, err := g.checker.CheckDependencies(ctx, deps, caller.ID)
	if err != nil {
		g.log.WithFields(logrus.Fields{
			"user_id": caller.ID,
			"widget":  widgetName,
		}).WithError(err).Warn("dependency check unreachable, denying")
		return &entitlements.LoadResult{Allowed: false, Reason: entitlements.APIDown, Plan: status}
	}

	snapshot := resp.Plan
	if snapshot == nil {
		snapshot = status
	}
	if !resp.Allowed {
		return &entitlements.LoadResult{
			Allowed: false,
			Reason:  entitlements.NotEntitled,
			Message: resp.Message,
			Plan:    snapshot,
		}
	}

	out := &entitlements.LoadResult{Allowed: true, Plan: snapshot}
	// Grace is advisory only: the allow stands, the reason feeds a banner.
	if snapshot.InGrace(time.Now()) {
		out.Reason = entitlements.GracePeriod
	}
	return out
}

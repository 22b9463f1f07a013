package loader

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/PaulFidika/plankit/audit"
	"github.com/PaulFidika/plankit/depgate"
	"github.com/PaulFidika/plankit/entitlements"
	"github.com/PaulFidika/plankit/messages"
	"github.com/PaulFidika/plankit/plancache"
	"github.com/PaulFidika/plankit/registry"
)

// request states, in the order a successful load passes through them.
type state string

const (
	stateInit         state = "INIT"
	stateWaitingPlan  state = "WAITING_FOR_PLAN"
	stateCheckingDeps state = "CHECKING_DEPENDENCIES"
	stateLoadingImpl  state = "LOADING_IMPLEMENTATION"
	stateReady        state = "READY"
	stateDenied       state = "DENIED"
)

// Result is one emission of a capability request: the access verdict plus,
// on success, the resolved implementation.
type Result struct {
	entitlements.LoadResult
	Implementation registry.Implementation `json:"-"`
}

// Config configures a Loader.
type Config struct {
	Plans    *plancache.Cache
	Gate     *depgate.Gate
	Registry *registry.Registry
	Logger   logrus.FieldLogger
	// Audit receives terminal decisions, best-effort.
	Audit audit.Logger
	// PlanRetry is the wait between plan-readiness attempts when the cache
	// itself is failing (e.g. redis down). Default 5s.
	PlanRetry time.Duration
}

// Loader sequences a capability request: wait for the plan, run the
// dependency gate, then resolve the implementation. Each request is
// independent; results stream on a per-request channel.
type Loader struct {
	plans     *plancache.Cache
	gate      *depgate.Gate
	registry  *registry.Registry
	log       logrus.FieldLogger
	audit     audit.Logger
	planRetry time.Duration
}

// New builds a Loader from cfg. Plans, Gate, and Registry are required.
func New(cfg Config) *Loader {
	if cfg.Logger == nil {
		cfg.Logger = logrus.StandardLogger()
	}
	if cfg.Audit == nil {
		cfg.Audit = audit.Nop{}
	}
	if cfg.PlanRetry <= 0 {
		cfg.PlanRetry = 5 * time.Second
	}
	return &Loader{
		plans:     cfg.Plans,
		gate:      cfg.Gate,
		registry:  cfg.Registry,
		log:       cfg.Logger,
		audit:     cfg.Audit,
		planRetry: cfg.PlanRetry,
	}
}

// Request starts a capability request and returns its result stream. The
// channel immediately carries a pending placeholder, then a terminal
// READY or DENIED result, and is then closed.
//
// ctx is the caller's interest window: once it is done, no further results
// are emitted and any late-arriving outcome is dropped. Outstanding fetches
// are not aborted mid-flight; their results simply go nowhere.
func (l *Loader) Request(ctx context.Context, name string, caller entitlements.Caller) <-chan Result {
	ch := make(chan Result, 4)
	ch <- Result{LoadResult: entitlements.LoadResult{Pending: true}}
	go l.run(ctx, ch, name, caller)
	return ch
}

func (l *Loader) run(ctx context.Context, ch chan<- Result, name string, caller entitlements.Caller) {
	defer close(ch)

	reqID := uuid.NewString()
	log := l.log.WithFields(logrus.Fields{
		"request_id": reqID,
		"widget":     name,
		"user_id":    caller.ID,
	})

	manifest, ok := l.registry.Manifest(name)
	if !ok {
		log.Warn("capability not registered")
		l.emit(ctx, ch, Result{LoadResult: entitlements.LoadResult{
			Allowed: false,
			Reason:  entitlements.ImplementationMissing,
			Message: messages.DenyMessage(ctx, entitlements.ImplementationMissing),
		}})
		return
	}

	st := stateWaitingPlan
	log.WithField("state", st).Debug("waiting for plan")
	plan, ok := l.waitForPlan(ctx, ch, caller.ID, log)
	if !ok {
		return // interest window closed
	}

	st = stateCheckingDeps
	log.WithField("state", st).Debug("checking dependencies")
	verdict := l.gate.CheckWidgetDependencies(ctx, name, manifest.Dependencies, caller)
	if ctx.Err() != nil {
		return
	}
	if !verdict.Allowed {
		st = stateDenied
		if verdict.Message == "" {
			verdict.Message = messages.DenyMessage(ctx, verdict.Reason)
		}
		log.WithFields(logrus.Fields{"state": st, "reason": verdict.Reason}).Info("capability denied")
		l.record(reqID, name, caller, false, verdict.Reason)
		l.emit(ctx, ch, Result{LoadResult: *verdict})
		return
	}

	st = stateLoadingImpl
	log.WithField("state", st).Debug("resolving implementation")
	impl, err := l.registry.Resolve(ctx, name)
	if ctx.Err() != nil {
		return
	}
	if err != nil {
		// Resolution failure is its own failure class, never an access denial.
		log.WithError(err).Error("implementation resolution failed")
		l.record(reqID, name, caller, false, entitlements.ImplementationMissing)
		l.emit(ctx, ch, Result{LoadResult: entitlements.LoadResult{
			Allowed: false,
			Reason:  entitlements.ImplementationMissing,
			Message: messages.DenyMessage(ctx, entitlements.ImplementationMissing),
			Plan:    verdict.Plan,
		}})
		return
	}

	st = stateReady
	out := Result{
		LoadResult:     *verdict,
		Implementation: impl,
	}
	if out.Reason == entitlements.GracePeriod && out.Message == "" {
		out.Message = messages.GraceMessage(ctx)
	}
	if plan != nil && plan.Tier == plancache.FallbackTier && out.Message == "" {
		out.Message = messages.FallbackMessage(ctx)
	}
	log.WithField("state", st).Debug("capability ready")
	l.record(reqID, name, caller, true, out.Reason)
	l.emit(ctx, ch, out)
}

// record ships a terminal decision to the audit sink off the request path.
// The request ctx may already be done by the time this runs, so the write
// gets its own bounded context.
func (l *Loader) record(reqID, name string, caller entitlements.Caller, allowed bool, reason entitlements.ReasonCode) {
	ev := audit.Event{
		RequestID: reqID,
		UserID:    caller.ID,
		Widget:    name,
		Allowed:   allowed,
		Reason:    reason,
		At:        time.Now(),
	}
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := l.audit.LogDecision(ctx, ev); err != nil {
			l.log.WithError(err).Debug("audit write failed")
		}
	}()
}

// waitForPlan blocks until a plan (real or fallback) is cached. Cache errors
// surface as a transitional pending result, then the wait re-enters on the
// retry tick. Returns false once the caller's interest window closes.
func (l *Loader) waitForPlan(ctx context.Context, ch chan<- Result, userID string, log logrus.FieldLogger) (*entitlements.CachedPlan, bool) {
	announced := false
	for {
		plan, err := l.plans.GetCurrentPlan(ctx, userID)
		if err == nil {
			return plan, true
		}
		if ctx.Err() != nil {
			return nil, false
		}
		log.WithError(err).Warn("plan cache unavailable, will retry")
		if !announced {
			announced = true
			if !l.emit(ctx, ch, Result{LoadResult: entitlements.LoadResult{
				Pending: true,
				Message: messages.FallbackMessage(ctx),
			}}) {
				return nil, false
			}
		}
		select {
		case <-ctx.Done():
			return nil, false
		case <-time.After(l.planRetry):
		}
	}
}

// emit publishes a result unless the interest window has closed. No state
// transition is observable after cancellation.
func (l *Loader) emit(ctx context.Context, ch chan<- Result, r Result) bool {
	select {
	case <-ctx.Done():
		return false
	case ch <- r:
		return true
	}
}

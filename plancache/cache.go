package plancache

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/PaulFidika/plankit/entitlements"
)

// FallbackTier is the tier name of the synthesized plan served when the plan
// authority cannot be reached.
const FallbackTier = "Fallback (Free)"

// DefaultTTL bounds how long a fetched plan is served without a refresh.
const DefaultTTL = 5 * time.Minute

// Authority fetches a user's plan from the remote billing service.
type Authority interface {
	FetchPlan(ctx context.Context, userID string) (*entitlements.CachedPlan, error)
}

// Store persists cached plans with a TTL. Implementations must treat Put as a
// wholesale replacement of any prior value for the same user.
type Store interface {
	Get(ctx context.Context, userID string) (*entitlements.CachedPlan, bool, error)
	Put(ctx context.Context, userID string, plan *entitlements.CachedPlan, ttl time.Duration) error
	Del(ctx context.Context, userID string) error
	DelAll(ctx context.Context) error
	Close() error
}

// Config configures a Cache. Zero-value fields get defaults.
type Config struct {
	Authority Authority
	Store     Store
	TTL       time.Duration
	Logger    logrus.FieldLogger
	// Fallback overrides the entitlement set of the synthesized plan served
	// on authority failure. Defaults to DefaultFallbackEntitlements.
	Fallback []entitlements.Entitlement
}

// DefaultFallbackEntitlements is the minimal free set served when the plan
// authority is unreachable and no cached plan exists.
func DefaultFallbackEntitlements() []entitlements.Entitlement {
	return []entitlements.Entitlement{
		{Key: "video_generation", Level: entitlements.TierFree},
		{Key: "audio_generation", Level: entitlements.TierFree},
	}
}

type fetchCall struct {
	done chan struct{}
	plan *entitlements.CachedPlan
	err  error
}

// Cache serves each user's current plan, fetching from the authority at most
// once per TTL window and degrading to a fallback plan when the fetch fails.
// The cache is injectable; construct isolated instances per test.
type Cache struct {
	authority Authority
	store     Store
	ttl       time.Duration
	log       logrus.FieldLogger
	fallback  []entitlements.Entitlement

	mu       sync.Mutex
	inflight map[string]*fetchCall
	seen     map[string]time.Time
}

// New builds a Cache from cfg. Authority and Store are required.
func New(cfg Config) *Cache {
	if cfg.TTL <= 0 {
		cfg.TTL = DefaultTTL
	}
	if cfg.Logger == nil {
		cfg.Logger = logrus.StandardLogger()
	}
	if cfg.Fallback == nil {
		cfg.Fallback = DefaultFallbackEntitlements()
	}
	return &Cache{
		authority: cfg.Authority,
		store:     cfg.Store,
		ttl:       cfg.TTL,
		log:       cfg.Logger,
		fallback:  cfg.Fallback,
		inflight:  make(map[string]*fetchCall),
		seen:      make(map[string]time.Time),
	}
}

// TTL returns the configured freshness window.
func (c *Cache) TTL() time.Duration { return c.ttl }

// GetCurrentPlan returns the user's cached plan, fetching from the authority
// when no fresh value exists. Authority failures never surface as errors:
// a conservative fallback plan is cached and returned instead. The only error
// path is the store itself failing. Concurrent callers falling on the same
// cache miss share one fetch.
func (c *Cache) GetCurrentPlan(ctx context.Context, userID string) (*entitlements.CachedPlan, error) {
	if p, ok, err := c.store.Get(ctx, userID); err != nil {
		return nil, err
	} else if ok {
		return p, nil
	}

	c.mu.Lock()
	if call, ok := c.inflight[userID]; ok {
		c.mu.Unlock()
		select {
		case <-call.done:
			return call.plan, call.err
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	call := &fetchCall{done: make(chan struct{})}
	c.inflight[userID] = call
	c.mu.Unlock()

	call.plan, call.err = c.refresh(ctx, userID)
	close(call.done)

	c.mu.Lock()
	delete(c.inflight, userID)
	c.mu.Unlock()

	return call.plan, call.err
}

// Peek returns the cached plan without ever contacting the authority. Callers
// that must not block on network use this and treat a miss as "no answer yet".
func (c *Cache) Peek(ctx context.Context, userID string) (*entitlements.CachedPlan, bool) {
	p, ok, err := c.store.Get(ctx, userID)
	if err != nil || !ok {
		return nil, false
	}
	return p, true
}

// Invalidate clears the user's cached plan unconditionally. Call it on login,
// logout, and plan change so stale entitlements never cross an identity
// boundary.
func (c *Cache) Invalidate(ctx context.Context, userID string) error {
	c.mu.Lock()
	delete(c.seen, userID)
	c.mu.Unlock()
	return c.store.Del(ctx, userID)
}

// InvalidateAll clears every cached plan.
func (c *Cache) InvalidateAll(ctx context.Context) error {
	c.mu.Lock()
	c.seen = make(map[string]time.Time)
	c.mu.Unlock()
	return c.store.DelAll(ctx)
}

// refresh fetches from the authority and atomically replaces the stored plan.
// On fetch failure it stores the fallback plan for the same TTL so repeated
// failures do not hammer the authority.
func (c *Cache) refresh(ctx context.Context, userID string) (*entitlements.CachedPlan, error) {
	fetchID := uuid.NewString()
	plan, err := c.authority.FetchPlan(ctx, userID)
	if err != nil || plan == nil {
		c.log.WithFields(logrus.Fields{
			"user_id":  userID,
			"fetch_id": fetchID,
		}).WithError(err).Warn("plan fetch failed, serving fallback plan")
		plan = c.fallbackPlan()
	}
	plan.FetchedAt = time.Now()
	if serr := c.store.Put(ctx, userID, plan, c.ttl); serr != nil {
		return nil, serr
	}
	c.mu.Lock()
	c.seen[userID] = time.Now()
	c.mu.Unlock()
	return plan, nil
}

func (c *Cache) fallbackPlan() *entitlements.CachedPlan {
	ents := make([]entitlements.Entitlement, len(c.fallback))
	copy(ents, c.fallback)
	return &entitlements.CachedPlan{
		Tier:         FallbackTier,
		Entitlements: ents,
	}
}

// seenSince returns callers whose plans were fetched after cutoff. Used by
// the background refresher to keep warm entries warm.
func (c *Cache) seenSince(cutoff time.Time) []string {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]string, 0, len(c.seen))
	for id, at := range c.seen {
		if at.After(cutoff) {
			out = append(out, id)
		} else {
			delete(c.seen, id)
		}
	}
	return out
}

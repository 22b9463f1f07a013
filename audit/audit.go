package audit

import (
	"context"
	"time"

	"github.com/PaulFidika/plankit/entitlements"
)

// Event is one recorded gate decision.
type Event struct {
	RequestID string
	UserID    string
	Widget    string
	Allowed   bool
	Reason    entitlements.ReasonCode
	At        time.Time
}

// Logger records gate decisions to an external sink (e.g., Postgres).
// Implementations should be non-blocking and best-effort.
type Logger interface {
	LogDecision(ctx context.Context, ev Event) error
}

// Nop is a Logger that records nothing.
type Nop struct{}

func (Nop) LogDecision(ctx context.Context, ev Event) error { return nil }

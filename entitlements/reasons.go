package entitlements

import "fmt"

// ReasonCode classifies why a check allowed or denied access. The set is
// closed; consumers rendering copy for a code they do not recognize should
// fall back to a generic deny message rather than fail.
type ReasonCode string

const (
	// ReasonNone means no special condition applies (plain allow).
	ReasonNone ReasonCode = ""
	// APIDown means an authority was unreachable and the check failed closed.
	APIDown ReasonCode = "API_DOWN"
	// NotEntitled is an authoritative deny by key or level.
	NotEntitled ReasonCode = "NOT_ENTITLED"
	// UpdateBlocked denies mutation-class access because the plan is locked.
	UpdateBlocked ReasonCode = "UPDATE_BLOCKED"
	// ViewOnlyBlocked denies because the plan is in a view-only state.
	ViewOnlyBlocked ReasonCode = "VIEW_ONLY_BLOCKED"
	// ImplementationMissing means access was granted but the capability's
	// implementation could not be resolved. Distinct from any access denial.
	ImplementationMissing ReasonCode = "IMPLEMENTATION_MISSING"
	// BypassSuperadmin marks a successful privileged short-circuit. It is an
	// allow, never a denial.
	BypassSuperadmin ReasonCode = "BYPASS_SUPERADMIN"
	// GracePeriod is advisory: access is allowed, but the plan has expired
	// and is inside its grace window.
	GracePeriod ReasonCode = "GRACE_PERIOD"
)

// DeniedError is the typed error raised by Require. It always carries the
// reason code; it is never a bare string.
type DeniedError struct {
	Reason ReasonCode
	Key    string
}

func (e *DeniedError) Error() string {
	if e.Key == "" {
		return fmt.Sprintf("entitlements: access denied (%s)", e.Reason)
	}
	return fmt.Sprintf("entitlements: access denied for %q (%s)", e.Key, e.Reason)
}

// Denied builds a DeniedError for the given key and reason.
func Denied(key string, reason ReasonCode) *DeniedError {
	return &DeniedError{Reason: reason, Key: key}
}

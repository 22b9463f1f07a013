// Package testing provides fake plan and dependency-check authorities for
// testing applications that use plankit, so integration tests run without a
// real billing backend.
//
// Example usage:
//
//	plan := testing.NewPlanAuthority()
//	defer plan.Close()
//	plan.SetPlan("user-1", "pro", []entitlements.Entitlement{{Key: "video_generation", Level: entitlements.TierPro}})
//
//	cache := plancache.New(plancache.Config{
//		Authority: plancache.NewHTTPAuthority(plan.URL()),
//		Store:     memorystore.NewPlanStore(),
//	})
package testing

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"

	"github.com/PaulFidika/plankit/entitlements"
)

// PlanAuthority is a fake billing service speaking the plan authority's wire
// protocol. Plans are registered per user id; unknown users get a 404.
type PlanAuthority struct {
	server *httptest.Server

	mu       sync.Mutex
	plans    map[string]planDoc
	failing  bool
	requests int
}

type planDoc struct {
	Tier         string                     `json:"tier"`
	Entitlements []entitlements.Entitlement `json:"entitlements"`
	Status       *entitlements.PlanStatus   `json:"status,omitempty"`
}

// NewPlanAuthority starts a fake plan authority.
// Call Close() when done to shut down the test server.
func NewPlanAuthority() *PlanAuthority {
	pa := &PlanAuthority{plans: make(map[string]planDoc)}
	mux := http.NewServeMux()
	mux.HandleFunc("/v1/plans/", pa.handleGetPlan)
	pa.server = httptest.NewServer(mux)
	return pa
}

// URL returns the base URL of the fake authority.
func (pa *PlanAuthority) URL() string { return pa.server.URL }

// Close shuts down the test server.
func (pa *PlanAuthority) Close() { pa.server.Close() }

// SetPlan registers a user's plan.
func (pa *PlanAuthority) SetPlan(userID, tier string, ents []entitlements.Entitlement) {
	pa.SetPlanWithStatus(userID, tier, ents, nil)
}

// SetPlanWithStatus registers a user's plan including a status snapshot.
func (pa *PlanAuthority) SetPlanWithStatus(userID, tier string, ents []entitlements.Entitlement, status *entitlements.PlanStatus) {
	pa.mu.Lock()
	defer pa.mu.Unlock()
	pa.plans[userID] = planDoc{Tier: tier, Entitlements: ents, Status: status}
}

// SetFailing makes every request return a 500, simulating an outage.
func (pa *PlanAuthority) SetFailing(failing bool) {
	pa.mu.Lock()
	defer pa.mu.Unlock()
	pa.failing = failing
}

// Requests returns how many plan fetches the authority has served.
func (pa *PlanAuthority) Requests() int {
	pa.mu.Lock()
	defer pa.mu.Unlock()
	return pa.requests
}

func (pa *PlanAuthority) handleGetPlan(w http.ResponseWriter, r *http.Request) {
	userID := strings.TrimPrefix(r.URL.Path, "/v1/plans/")
	pa.mu.Lock()
	pa.requests++
	failing := pa.failing
	doc, ok := pa.plans[userID]
	pa.mu.Unlock()
	if failing {
		http.Error(w, "unavailable", http.StatusInternalServerError)
		return
	}
	if !ok {
		http.Error(w, "not found", http.StatusNotFound)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(doc)
}

// DependencyAuthority is a fake dependency-check service. By default it
// allows everything; scripted verdicts override per user.
type DependencyAuthority struct {
	server *httptest.Server

	mu       sync.Mutex
	verdicts map[string]depVerdict
	failing  bool
	requests int
}

type depVerdict struct {
	Allowed bool
	Message string
	Status  *entitlements.PlanStatus
}

// NewDependencyAuthority starts a fake dependency-check authority.
func NewDependencyAuthority() *DependencyAuthority {
	da := &DependencyAuthority{verdicts: make(map[string]depVerdict)}
	mux := http.NewServeMux()
	mux.HandleFunc("/v1/dependencies/check", da.handleCheck)
	da.server = httptest.NewServer(mux)
	return da
}

// URL returns the base URL of the fake authority.
func (da *DependencyAuthority) URL() string { return da.server.URL }

// Close shuts down the test server.
func (da *DependencyAuthority) Close() { da.server.Close() }

// SetVerdict scripts the response for a user id.
func (da *DependencyAuthority) SetVerdict(userID string, allowed bool, message string, status *entitlements.PlanStatus) {
	da.mu.Lock()
	defer da.mu.Unlock()
	da.verdicts[userID] = depVerdict{Allowed: allowed, Message: message, Status: status}
}

// SetFailing makes every request return a 500, simulating an outage.
func (da *DependencyAuthority) SetFailing(failing bool) {
	da.mu.Lock()
	defer da.mu.Unlock()
	da.failing = failing
}

// Requests returns how many checks the authority has served.
func (da *DependencyAuthority) Requests() int {
	da.mu.Lock()
	defer da.mu.Unlock()
	return da.requests
}

func (da *DependencyAuthority) handleCheck(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Dependencies []string `json:"dependencies"`
		UserID       string   `json:"userId"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "bad request", http.StatusBadRequest)
		return
	}
	da.mu.Lock()
	da.requests++
	failing := da.failing
	v, ok := da.verdicts[req.UserID]
	da.mu.Unlock()
	if failing {
		http.Error(w, "unavailable", http.StatusInternalServerError)
		return
	}
	if !ok {
		v = depVerdict{Allowed: true}
	}
	out := map[string]any{
		"allowed": v.Allowed,
	}
	if v.Message != "" {
		out["message"] = v.Message
	}
	if v.Status != nil {
		out["plan_name"] = v.Status.PlanName
		out["state"] = v.Status.State
		if v.Status.GraceExpiresAt != nil {
			out["grace_expires_at"] = v.Status.GraceExpiresAt
		}
		out["usage"] = v.Status.Usage
		out["quota"] = v.Status.Quota
	}
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(out)
}

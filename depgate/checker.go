package depgate

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/PaulFidika/plankit/entitlements"
)

// HTTPChecker calls the dependency-check authority over HTTP.
// POST {base}/v1/dependencies/check with the dependency keys and user id.
type HTTPChecker struct {
	baseURL string
	client  *http.Client
}

// NewHTTPChecker builds a checker client with a 10s default timeout.
// Pass a nil client to use the default.
func NewHTTPChecker(baseURL string, hc *http.Client) *HTTPChecker {
	if hc == nil {
		hc = &http.Client{Timeout: 10 * time.Second}
	}
	return &HTTPChecker{baseURL: strings.TrimRight(baseURL, "/"), client: hc}
}

type checkRequest struct {
	Dependencies []string `json:"dependencies"`
	UserID       string   `json:"userId"`
}

// checkResponse carries the verdict plus the plan status fields inline.
type checkResponse struct {
	Allowed bool   `json:"allowed"`
	Message string `json:"message,omitempty"`
	entitlements.PlanStatus
}

func (c *HTTPChecker) CheckDependencies(ctx context.Context, deps []string, userID string) (*CheckResponse, error) {
	body, err := json.Marshal(checkRequest{Dependencies: deps, UserID: userID})
	if err != nil {
		return nil, err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/v1/dependencies/check", bytes.NewReader(body))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")
	resp, err := c.client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, fmt.Errorf("dependency check returned status %d", resp.StatusCode)
	}
	var out checkResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return nil, fmt.Errorf("decode dependency check response: %w", err)
	}
	cr := &CheckResponse{Allowed: out.Allowed, Message: out.Message}
	if out.PlanStatus.PlanName != "" || out.PlanStatus.State != "" {
		st := out.PlanStatus
		cr.Plan = &st
	}
	return cr, nil
}

package plancache

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"golang.org/x/oauth2/clientcredentials"

	"github.com/PaulFidika/plankit/entitlements"
)

// HTTPAuthority fetches plans from the billing service over HTTP.
// GET {base}/v1/plans/{userID} returning a plan document.
type HTTPAuthority struct {
	baseURL string
	client  *http.Client
}

// AuthorityOpt configures an HTTPAuthority.
type AuthorityOpt func(*HTTPAuthority)

// WithHTTPClient overrides the HTTP client (and its timeout).
func WithHTTPClient(hc *http.Client) AuthorityOpt {
	return func(a *HTTPAuthority) {
		if hc != nil {
			a.client = hc
		}
	}
}

// WithClientCredentials authenticates requests to the authority using an
// OAuth2 client-credentials token source.
func WithClientCredentials(clientID, clientSecret, tokenURL string) AuthorityOpt {
	return func(a *HTTPAuthority) {
		cc := clientcredentials.Config{
			ClientID:     clientID,
			ClientSecret: clientSecret,
			TokenURL:     tokenURL,
		}
		hc := cc.Client(context.Background())
		hc.Timeout = a.client.Timeout
		a.client = hc
	}
}

// NewHTTPAuthority builds an authority client with a 10s default timeout.
func NewHTTPAuthority(baseURL string, opts ...AuthorityOpt) *HTTPAuthority {
	a := &HTTPAuthority{
		baseURL: strings.TrimRight(baseURL, "/"),
		client:  &http.Client{Timeout: 10 * time.Second},
	}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

// planDocument is the authority's wire shape.
type planDocument struct {
	Tier         string                     `json:"tier"`
	Entitlements []entitlements.Entitlement `json:"entitlements"`
	Status       *entitlements.PlanStatus   `json:"status,omitempty"`
}

// FetchPlan retrieves the user's plan. Non-2xx responses, transport errors,
// and malformed bodies all return an error; the Cache folds them into its
// fallback path.
func (a *HTTPAuthority) FetchPlan(ctx context.Context, userID string) (*entitlements.CachedPlan, error) {
	u := a.baseURL + "/v1/plans/" + url.PathEscape(userID)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Accept", "application/json")
	resp, err := a.client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, fmt.Errorf("plan authority returned status %d", resp.StatusCode)
	}
	var doc planDocument
	if err := json.NewDecoder(resp.Body).Decode(&doc); err != nil {
		return nil, fmt.Errorf("decode plan response: %w", err)
	}
	if doc.Tier == "" {
		return nil, fmt.Errorf("plan response missing tier")
	}
	return &entitlements.CachedPlan{
		Tier:         doc.Tier,
		Entitlements: doc.Entitlements,
		Status:       doc.Status,
	}, nil
}

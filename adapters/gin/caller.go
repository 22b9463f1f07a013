package gategin

import (
	"strings"

	"github.com/gin-gonic/gin"
	jwtv5 "github.com/golang-jwt/jwt/v5"
	"github.com/lestrrat-go/jwx/v2/jwk"
	"github.com/lestrrat-go/jwx/v2/jwt"

	"github.com/PaulFidika/plankit/adapters/ginutil"
	"github.com/PaulFidika/plankit/entitlements"
)

const callerKey = "gate.caller"

// TokenVerifier validates caller bearer tokens against an issuer's key set.
type TokenVerifier struct {
	issuer   string
	audience string
	keySet   jwk.Set
}

// NewTokenVerifier builds a verifier for the given issuer and audience.
func NewTokenVerifier(issuer, audience string, keySet jwk.Set) *TokenVerifier {
	return &TokenVerifier{issuer: issuer, audience: audience, keySet: keySet}
}

// verify parses and validates the raw token and extracts the caller.
func (v *TokenVerifier) verify(c *gin.Context, raw string) (entitlements.Caller, error) {
	token, err := jwt.ParseString(
		raw,
		jwt.WithKeySet(v.keySet),
		jwt.WithValidate(true),
		jwt.WithIssuer(v.issuer),
		jwt.WithAudience(v.audience),
		jwt.WithContext(c.Request.Context()),
	)
	if err != nil {
		return entitlements.Caller{}, err
	}
	caller := entitlements.Caller{ID: token.Subject()}
	if raw, ok := token.Get("role"); ok {
		if s, ok := raw.(string); ok {
			caller.Role = s
		}
	}
	if raw, ok := token.Get("roles"); ok {
		if vs, ok := raw.([]interface{}); ok {
			for _, item := range vs {
				if s, ok := item.(string); ok {
					caller.Roles = append(caller.Roles, s)
				}
			}
		}
	}
	if raw, ok := token.Get("email"); ok {
		if s, ok := raw.(string); ok {
			caller.Email = s
		}
	}
	return caller, nil
}

// CallerFromClaims converts pre-verified JWT claims (e.g. from an upstream
// gateway that already checked the signature) into a Caller.
func CallerFromClaims(claims jwtv5.MapClaims) entitlements.Caller {
	caller := entitlements.Caller{}
	if sub, err := claims.GetSubject(); err == nil {
		caller.ID = sub
	}
	if s, ok := claims["role"].(string); ok {
		caller.Role = s
	}
	if vs, ok := claims["roles"].([]interface{}); ok {
		for _, item := range vs {
			if s, ok := item.(string); ok {
				caller.Roles = append(caller.Roles, s)
			}
		}
	}
	if s, ok := claims["email"].(string); ok {
		caller.Email = s
	}
	return caller
}

// CallerRequired authenticates the request's bearer token and stashes the
// caller for handlers. Requests without a valid token are rejected.
func CallerRequired(v *TokenVerifier) gin.HandlerFunc {
	return func(c *gin.Context) {
		auth := c.GetHeader("Authorization")
		if !strings.HasPrefix(auth, "Bearer ") {
			ginutil.Unauthorized(c, "missing_token")
			return
		}
		caller, err := v.verify(c, strings.TrimPrefix(auth, "Bearer "))
		if err != nil || caller.ID == "" {
			ginutil.Unauthorized(c, "invalid_token")
			return
		}
		c.Set(callerKey, caller)
		c.Set("gate.caller_id", caller.ID)
		c.Next()
	}
}

// GetCaller returns the authenticated caller set by CallerRequired.
func GetCaller(c *gin.Context) (entitlements.Caller, bool) {
	v, ok := c.Get(callerKey)
	if !ok {
		return entitlements.Caller{}, false
	}
	caller, ok := v.(entitlements.Caller)
	return caller, ok
}

package testing

import (
	"crypto/rand"
	"crypto/rsa"
	"time"

	jwtv5 "github.com/golang-jwt/jwt/v5"
	"github.com/lestrrat-go/jwx/v2/jwa"
	"github.com/lestrrat-go/jwx/v2/jwk"

	"github.com/PaulFidika/plankit/entitlements"
)

// TokenIssuer signs caller tokens for testing the HTTP adapter, and exposes
// the matching public key set for the verifier. No server is involved: the
// key set is handed to the verifier directly.
type TokenIssuer struct {
	key      *rsa.PrivateKey
	keySet   jwk.Set
	issuer   string
	audience string
}

// NewTokenIssuer creates an issuer with a fresh RSA key pair.
func NewTokenIssuer(issuer, audience string) *TokenIssuer {
	key, err := rsa.GenerateKey(rand.Reader, 2048)
	if err != nil {
		panic("failed to generate RSA key: " + err.Error())
	}
	pub, err := jwk.FromRaw(key.Public())
	if err != nil {
		panic("failed to build JWK: " + err.Error())
	}
	_ = pub.Set(jwk.KeyIDKey, "test-key-1")
	_ = pub.Set(jwk.AlgorithmKey, jwa.RS256)
	set := jwk.NewSet()
	_ = set.AddKey(pub)
	return &TokenIssuer{key: key, keySet: set, issuer: issuer, audience: audience}
}

// KeySet returns the public key set the verifier should trust.
func (ti *TokenIssuer) KeySet() jwk.Set { return ti.keySet }

// Issuer returns the configured issuer claim.
func (ti *TokenIssuer) Issuer() string { return ti.issuer }

// Audience returns the configured audience claim.
func (ti *TokenIssuer) Audience() string { return ti.audience }

// CallerToken signs a token carrying the caller's identity claims.
func (ti *TokenIssuer) CallerToken(caller entitlements.Caller) string {
	return ti.CallerTokenWithExpiry(caller, time.Now().Add(time.Hour))
}

// CallerTokenWithExpiry signs a caller token with a custom expiry.
// Pass a past time to produce an already-expired token.
func (ti *TokenIssuer) CallerTokenWithExpiry(caller entitlements.Caller, expiry time.Time) string {
	now := time.Now()
	claims := jwtv5.MapClaims{
		"sub": caller.ID,
		"iss": ti.issuer,
		"aud": ti.audience,
		"exp": expiry.Unix(),
		"iat": now.Unix(),
	}
	if caller.Role != "" {
		claims["role"] = caller.Role
	}
	if len(caller.Roles) > 0 {
		claims["roles"] = caller.Roles
	}
	if caller.Email != "" {
		claims["email"] = caller.Email
	}
	token := jwtv5.NewWithClaims(jwtv5.SigningMethodRS256, claims)
	token.Header["kid"] = "test-key-1"
	signed, err := token.SignedString(ti.key)
	if err != nil {
		panic("failed to sign token: " + err.Error())
	}
	return signed
}

// Package auth verifies the session tokens Shopify issues to embedded apps.
package auth

import (
	"errors"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// ErrInvalidToken is returned when a session token is malformed, expired or
// was not issued for this app.
var ErrInvalidToken = errors.New("invalid or expired session token")

// SessionClaims are the claims of a Shopify session token.
type SessionClaims struct {
	Dest string `json:"dest"`
	SID  string `json:"sid,omitempty"`
	jwt.RegisteredClaims
}

// Shop returns the shop domain the token was issued for.
func (c *SessionClaims) Shop() string {
	u, err := url.Parse(c.Dest)
	if err != nil || u.Host == "" {
		return ""
	}
	return strings.ToLower(u.Host)
}

// SessionVerifier validates session tokens signed with the app secret.
type SessionVerifier struct {
	apiKey string
	secret []byte
	leeway time.Duration
	now    func() time.Time
}

// NewSessionVerifier creates a verifier for the app identified by apiKey.
// Shopify tokens live one minute; a few seconds of clock skew are tolerated.
func NewSessionVerifier(apiKey, secret string) *SessionVerifier {
	return &SessionVerifier{
		apiKey: apiKey,
		secret: []byte(secret),
		leeway: 10 * time.Second,
		now:    time.Now,
	}
}

// WithClock overrides the verification clock. Intended for tests.
func (v *SessionVerifier) WithClock(now func() time.Time) *SessionVerifier {
	v.now = now
	return v
}

// Verify parses and validates a session token and returns its claims.
func (v *SessionVerifier) Verify(tokenStr string) (*SessionClaims, error) {
	opts := []jwt.ParserOption{
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithLeeway(v.leeway),
		jwt.WithTimeFunc(v.now),
		jwt.WithExpirationRequired(),
	}
	if v.apiKey != "" {
		opts = append(opts, jwt.WithAudience(v.apiKey))
	}

	token, err := jwt.ParseWithClaims(tokenStr, &SessionClaims{}, func(token *jwt.Token) (any, error) {
		return v.secret, nil
	}, opts...)
	if err != nil {
		return nil, ErrInvalidToken
	}

	claims, ok := token.Claims.(*SessionClaims)
	if !ok || !token.Valid || claims.Shop() == "" {
		return nil, ErrInvalidToken
	}
	return claims, nil
}

// Issue signs a session token for shop, the way Shopify does. Used by tests
// and local tooling that call the API without the admin.
func (v *SessionVerifier) Issue(shop string, ttl time.Duration) (string, error) {
	now := v.now().UTC()
	claims := SessionClaims{
		Dest: "https://" + shop,
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    "https://" + shop + "/admin",
			Audience:  jwt.ClaimStrings{v.apiKey},
			Subject:   "1",
			IssuedAt:  jwt.NewNumericDate(now),
			NotBefore: jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
	}

	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(v.secret)
	if err != nil {
		return "", fmt.Errorf("signing session token: %w", err)
	}
	return signed, nil
}

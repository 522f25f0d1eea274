package auth

import (
	"errors"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"github.com/telecrm/helpdesk-sso/internal/domain"
	"github.com/telecrm/helpdesk-sso/internal/utils"
)

// SSOClaims is the assertion payload the helpdesk platform expects: issued-at
// time, a fresh jti, and the asserted identity. Expiry is fixed at issuance.
type SSOClaims struct {
	Email string `json:"email"`
	Name  string `json:"name"`
	jwt.RegisteredClaims
}

// Issuer mints short-lived signed SSO assertions. It is stateless; the only
// inputs are the identity, the shared secret and the clock.
type Issuer struct {
	secret []byte
	ssoURL string
	ttl    time.Duration
}

func NewIssuer(secret, ssoURL string, ttl time.Duration) *Issuer {
	return &Issuer{
		secret: []byte(secret),
		ssoURL: ssoURL,
		ttl:    ttl,
	}
}

// IssueToken signs an assertion binding email (and a display name, defaulting
// to the email's local part) for the configured validity window.
func (i *Issuer) IssueToken(email, name string) (string, error) {
	if len(i.secret) == 0 {
		return "", domain.ErrNoSigningSecret
	}
	if email == "" || !strings.Contains(email, "@") {
		return "", domain.ErrInvalidEmail
	}
	if name == "" {
		name = utils.LocalPart(email)
	}

	now := time.Now()
	claims := SSOClaims{
		Email: email,
		Name:  name,
		RegisteredClaims: jwt.RegisteredClaims{
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(i.ttl)),
			ID:        uuid.NewString(),
		},
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(i.secret)
	if err != nil {
		return "", fmt.Errorf("sign sso assertion: %w", err)
	}
	return signed, nil
}

// Parse verifies a token produced by IssueToken. Used by the diagnostics
// endpoint and tests; the helpdesk platform does its own verification.
func (i *Issuer) Parse(tokenString string) (*SSOClaims, error) {
	tok, err := jwt.ParseWithClaims(tokenString, &SSOClaims{}, func(token *jwt.Token) (interface{}, error) {
		return i.secret, nil
	})
	if err != nil {
		return nil, err
	}
	if claims, ok := tok.Claims.(*SSOClaims); ok && tok.Valid {
		return claims, nil
	}
	return nil, errors.New("invalid token")
}

// BuildSSOURL appends the assertion and destination to the platform's SSO
// entry point as escaped query parameters.
func (i *Issuer) BuildSSOURL(token, returnTo string) (string, error) {
	u, err := url.Parse(i.ssoURL)
	if err != nil || u.Scheme == "" || u.Host == "" {
		return "", fmt.Errorf("malformed sso base url %q", i.ssoURL)
	}
	q := url.Values{}
	q.Set("jwt", token)
	q.Set("return_to", returnTo)
	u.RawQuery = q.Encode()
	return u.String(), nil
}

// ValidReturnTo reports whether a post-SSO destination stays inside the
// help-center subtree. This is the sole safety check on an attacker-influenced
// query parameter, so anything not under /hc/ is rejected.
func ValidReturnTo(path string) bool {
	return strings.HasPrefix(path, "/hc/")
}

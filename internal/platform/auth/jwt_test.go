package auth_test

import (
	"strings"
	"testing"
	"time"

	"github.com/telecrm/helpdesk-sso/internal/domain"
	"github.com/telecrm/helpdesk-sso/internal/platform/auth"
)

const (
	testSecret = "test-shared-secret"
	testSSOURL = "https://telecrm.zendesk.com/access/jwt"
)

func newIssuer(t *testing.T) *auth.Issuer {
	t.Helper()
	return auth.NewIssuer(testSecret, testSSOURL, 5*time.Minute)
}

func TestIssueTokenClaims(t *testing.T) {
	issuer := newIssuer(t)

	before := time.Now()
	token, err := issuer.IssueToken("User@X.com", "User Name")
	if err != nil {
		t.Fatalf("IssueToken: %v", err)
	}

	claims, err := issuer.Parse(token)
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}

	if claims.Email != "User@X.com" {
		t.Errorf("email = %q, want case preserved %q", claims.Email, "User@X.com")
	}
	if claims.Name != "User Name" {
		t.Errorf("name = %q", claims.Name)
	}
	if claims.ID == "" {
		t.Error("jti is empty")
	}

	iat := claims.IssuedAt.Time
	if d := iat.Sub(before); d < -time.Second || d > time.Second {
		t.Errorf("iat %v not within 1s of call time %v", iat, before)
	}
	if exp := claims.ExpiresAt.Time.Sub(iat); exp != 5*time.Minute {
		t.Errorf("validity window = %v, want 5m", exp)
	}
}

func TestIssueTokenUniqueJTI(t *testing.T) {
	issuer := newIssuer(t)

	t1, err := issuer.IssueToken("user@x.com", "")
	if err != nil {
		t.Fatal(err)
	}
	t2, err := issuer.IssueToken("user@x.com", "")
	if err != nil {
		t.Fatal(err)
	}

	c1, _ := issuer.Parse(t1)
	c2, _ := issuer.Parse(t2)
	if c1.ID == c2.ID {
		t.Errorf("two tokens share jti %q", c1.ID)
	}
}

func TestIssueTokenDefaultsName(t *testing.T) {
	issuer := newIssuer(t)

	token, err := issuer.IssueToken("jane.doe@x.com", "")
	if err != nil {
		t.Fatal(err)
	}
	claims, err := issuer.Parse(token)
	if err != nil {
		t.Fatal(err)
	}
	if claims.Name != "jane.doe" {
		t.Errorf("name = %q, want local part %q", claims.Name, "jane.doe")
	}
}

func TestIssueTokenErrors(t *testing.T) {
	issuer := newIssuer(t)

	if _, err := issuer.IssueToken("", ""); err != domain.ErrInvalidEmail {
		t.Errorf("empty email: err = %v, want ErrInvalidEmail", err)
	}
	if _, err := issuer.IssueToken("not-an-email", ""); err != domain.ErrInvalidEmail {
		t.Errorf("no @: err = %v, want ErrInvalidEmail", err)
	}

	noSecret := auth.NewIssuer("", testSSOURL, 5*time.Minute)
	if _, err := noSecret.IssueToken("user@x.com", ""); err != domain.ErrNoSigningSecret {
		t.Errorf("no secret: err = %v, want ErrNoSigningSecret", err)
	}
}

func TestBuildSSOURL(t *testing.T) {
	issuer := newIssuer(t)

	url, err := issuer.BuildSSOURL("tok.en.value", "/hc/en-us/requests/2405")
	if err != nil {
		t.Fatalf("BuildSSOURL: %v", err)
	}
	if !strings.HasPrefix(url, testSSOURL+"?") {
		t.Errorf("url %q does not start with sso base", url)
	}
	if !strings.Contains(url, "jwt=tok.en.value") {
		t.Errorf("url %q missing jwt parameter", url)
	}
	if !strings.Contains(url, "return_to=%2Fhc%2Fen-us%2Frequests%2F2405") {
		t.Errorf("url %q missing escaped return_to", url)
	}
}

func TestBuildSSOURLMalformedBase(t *testing.T) {
	issuer := auth.NewIssuer(testSecret, "not-a-url", 5*time.Minute)
	if _, err := issuer.BuildSSOURL("tok", "/hc/en-us"); err == nil {
		t.Error("expected error for malformed sso base")
	}
}

func TestValidReturnTo(t *testing.T) {
	tests := []struct {
		path string
		want bool
	}{
		{"/hc/en-us", true},
		{"/hc/en-us/requests/2405", true},
		{"/hc/", true},
		{"", false},
		{"/admin", false},
		{"hc/en-us", false},
		{"https://evil.example/hc/", false},
		{"/agent/tickets/1", false},
	}
	for _, tt := range tests {
		if got := auth.ValidReturnTo(tt.path); got != tt.want {
			t.Errorf("ValidReturnTo(%q) = %v, want %v", tt.path, got, tt.want)
		}
	}
}

package config_test

import (
	"strings"
	"testing"

	"github.com/telecrm/helpdesk-sso/pkg/config"
)

func TestLoadSanitizesSubdomain(t *testing.T) {
	tests := []struct {
		raw  string
		want string
	}{
		{"telecrm", "telecrm"},
		{" telecrm ", "telecrm"},
		{"https://telecrm.zendesk.com", "telecrm"},
		{"http://telecrm.zendesk.com/agent/dashboard", "telecrm"},
		{"telecrm.zendesk.com", "telecrm"},
		{"telecrm/extra", "telecrm"},
	}
	for _, tt := range tests {
		t.Setenv("ZENDESK_SUBDOMAIN", tt.raw)
		cfg := config.Load()
		if cfg.Zendesk.Subdomain != tt.want {
			t.Errorf("subdomain(%q) = %q, want %q", tt.raw, cfg.Zendesk.Subdomain, tt.want)
		}
		if want := "https://" + tt.want + ".zendesk.com/access/jwt"; cfg.Zendesk.SSOURL != want {
			t.Errorf("sso url = %q, want %q", cfg.Zendesk.SSOURL, want)
		}
	}
}

func TestValidateRequiresSecret(t *testing.T) {
	t.Setenv("ZENDESK_SUBDOMAIN", "telecrm")
	t.Setenv("ZENDESK_JWT_SECRET", "")

	cfg := config.Load()
	err := cfg.Validate()
	if err == nil {
		t.Fatal("expected validation error without signing secret")
	}
	if !strings.Contains(err.Error(), "ZENDESK_JWT_SECRET") {
		t.Errorf("error %q does not name the missing secret", err)
	}
}

func TestValidateStoreBackend(t *testing.T) {
	t.Setenv("ZENDESK_SUBDOMAIN", "telecrm")
	t.Setenv("ZENDESK_JWT_SECRET", "secret")

	t.Setenv("STORE_BACKEND", "cassandra")
	if err := config.Load().Validate(); err == nil {
		t.Error("unknown backend accepted")
	}

	t.Setenv("STORE_BACKEND", "postgres")
	t.Setenv("DATABASE_URL", "")
	if err := config.Load().Validate(); err == nil {
		t.Error("postgres backend accepted without DATABASE_URL")
	}

	t.Setenv("DATABASE_URL", "postgres://localhost/sso")
	if err := config.Load().Validate(); err != nil {
		t.Errorf("valid postgres config rejected: %v", err)
	}
}

func TestVerifierListParsing(t *testing.T) {
	t.Setenv("ZENDESK_SUBDOMAIN", "telecrm")
	t.Setenv("VERIFIER_EMAILS", "Support@TeleCRM.in, ops@telecrm.in ,")

	cfg := config.Load()
	want := []string{"support@telecrm.in", "ops@telecrm.in"}
	if len(cfg.Auth.Verifiers) != len(want) {
		t.Fatalf("verifiers = %v", cfg.Auth.Verifiers)
	}
	for i := range want {
		if cfg.Auth.Verifiers[i] != want[i] {
			t.Errorf("verifiers[%d] = %q, want %q", i, cfg.Auth.Verifiers[i], want[i])
		}
	}
}

func TestDemoBypassDefaultsOff(t *testing.T) {
	t.Setenv("ZENDESK_SUBDOMAIN", "telecrm")
	cfg := config.Load()
	if cfg.Auth.AllowUnverifiedEmail {
		t.Error("ALLOW_UNVERIFIED_EMAIL must default to false")
	}
}

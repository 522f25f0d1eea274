package config

import (
	"errors"
	"fmt"
	"os"
	"regexp"
	"strconv"
	"strings"
	"time"
)

type Config struct {
	Server   ServerConfig
	Store    StoreConfig
	Zendesk  ZendeskConfig
	Auth     AuthConfig
	Email    EmailConfig
	NATS     NATSConfig
	Admin    AdminConfig
	BaseURL  string // public base URL of this service, used in verify links
	DevMode  bool
}

type ServerConfig struct {
	Port         string
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
	IdleTimeout  time.Duration
}

type StoreConfig struct {
	// Backend selects the shared state store: memory, redis or postgres.
	Backend     string
	RedisURL    string
	RedisPass   string
	RedisDB     int
	PostgresURL string
}

type ZendeskConfig struct {
	Subdomain string
	Email     string
	APIToken  string
	APIURL    string
	SSOURL    string
}

type AuthConfig struct {
	JWTSecret       string
	TokenTTL        time.Duration // SSO assertion validity
	SessionTTL      time.Duration
	VerificationTTL time.Duration
	// Verifiers is the set of identities allowed to approve access requests.
	Verifiers []string
	// AllowUnverifiedEmail enables the demo-only path where a syntactically
	// valid email query parameter is accepted as an identity without the
	// verification cycle. Never enable in production.
	AllowUnverifiedEmail bool
}

type EmailConfig struct {
	MailerSendKey string
	FromName      string
	FromEmail     string
	DevMode       bool // log emails instead of sending
}

type NATSConfig struct {
	URL string
}

type AdminConfig struct {
	// KeyHash is an argon2id hash of the operator API key guarding the
	// admin endpoints. Empty disables admin routes entirely.
	KeyHash string
}

func Load() *Config {
	return &Config{
		Server: ServerConfig{
			Port:         getEnv("PORT", "8080"),
			ReadTimeout:  getDuration("SERVER_READ_TIMEOUT", 5*time.Second),
			WriteTimeout: getDuration("SERVER_WRITE_TIMEOUT", 10*time.Second),
			IdleTimeout:  getDuration("SERVER_IDLE_TIMEOUT", 60*time.Second),
		},
		Store: StoreConfig{
			Backend:     getEnv("STORE_BACKEND", "memory"),
			RedisURL:    getEnv("REDIS_URL", "redis://localhost:6379"),
			RedisPass:   getEnv("REDIS_PASSWORD", ""),
			RedisDB:     getInt("REDIS_DB", 0),
			PostgresURL: getEnv("DATABASE_URL", ""),
		},
		Zendesk: loadZendesk(),
		Auth: AuthConfig{
			JWTSecret:            getEnv("ZENDESK_JWT_SECRET", ""),
			TokenTTL:             getDuration("SSO_TOKEN_TTL", 5*time.Minute),
			SessionTTL:           getDuration("SESSION_TTL", 24*time.Hour),
			VerificationTTL:      getDuration("VERIFICATION_TTL", 24*time.Hour),
			Verifiers:            splitEmails(getEnv("VERIFIER_EMAILS", "support@telecrm.in")),
			AllowUnverifiedEmail: getBool("ALLOW_UNVERIFIED_EMAIL", false),
		},
		Email: EmailConfig{
			MailerSendKey: getEnv("MAILERSEND_API_KEY", ""),
			FromName:      getEnv("MAIL_FROM_NAME", "Helpdesk SSO"),
			FromEmail:     getEnv("MAIL_FROM_EMAIL", "noreply@telecrm.in"),
			DevMode:       getBool("EMAIL_DEV_MODE", true),
		},
		NATS: NATSConfig{
			URL: getEnv("NATS_URL", ""),
		},
		Admin: AdminConfig{
			KeyHash: getEnv("ADMIN_KEY_HASH", ""),
		},
		BaseURL: getEnv("BASE_URL", "http://localhost:8080"),
		DevMode: getEnv("APP_ENV", "development") != "production",
	}
}

func loadZendesk() ZendeskConfig {
	subdomain := sanitizeSubdomain(getEnv("ZENDESK_SUBDOMAIN", ""))
	return ZendeskConfig{
		Subdomain: subdomain,
		Email:     getEnv("ZENDESK_EMAIL", ""),
		APIToken:  getEnv("ZENDESK_API_TOKEN", ""),
		APIURL:    fmt.Sprintf("https://%s.zendesk.com/api/v2", subdomain),
		SSOURL:    fmt.Sprintf("https://%s.zendesk.com/access/jwt", subdomain),
	}
}

var schemeRe = regexp.MustCompile(`^https?://`)

// sanitizeSubdomain accepts either a bare subdomain or a pasted full URL and
// reduces it to the subdomain part.
func sanitizeSubdomain(s string) string {
	s = strings.TrimSpace(s)
	s = schemeRe.ReplaceAllString(s, "")
	if i := strings.Index(s, ".zendesk.com"); i >= 0 {
		s = s[:i]
	}
	if i := strings.Index(s, "/"); i >= 0 {
		s = s[:i]
	}
	return s
}

// Validate reports configuration the process cannot start without.
func (c *Config) Validate() error {
	var errs []error
	if c.Zendesk.Subdomain == "" {
		errs = append(errs, errors.New("ZENDESK_SUBDOMAIN is required"))
	}
	if c.Auth.JWTSecret == "" {
		errs = append(errs, errors.New("ZENDESK_JWT_SECRET is required"))
	}
	if len(c.Auth.Verifiers) == 0 {
		errs = append(errs, errors.New("VERIFIER_EMAILS must name at least one verifier"))
	}
	switch c.Store.Backend {
	case "memory", "redis":
	case "postgres":
		if c.Store.PostgresURL == "" {
			errs = append(errs, errors.New("DATABASE_URL is required for the postgres store"))
		}
	default:
		errs = append(errs, fmt.Errorf("unknown STORE_BACKEND %q", c.Store.Backend))
	}
	return errors.Join(errs...)
}

func splitEmails(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		part = strings.ToLower(strings.TrimSpace(part))
		if part != "" {
			out = append(out, part)
		}
	}
	return out
}

func getEnv(key, fallback string) string {
	if value, ok := os.LookupEnv(key); ok {
		return value
	}
	return fallback
}

func getInt(key string, fallback int) int {
	if value, ok := os.LookupEnv(key); ok {
		if i, err := strconv.Atoi(value); err == nil {
			return i
		}
	}
	return fallback
}

func getBool(key string, fallback bool) bool {
	if value, ok := os.LookupEnv(key); ok {
		if b, err := strconv.ParseBool(value); err == nil {
			return b
		}
	}
	return fallback
}

func getDuration(key string, fallback time.Duration) time.Duration {
	if value, ok := os.LookupEnv(key); ok {
		if d, err := time.ParseDuration(value); err == nil {
			return d
		}
	}
	return fallback
}

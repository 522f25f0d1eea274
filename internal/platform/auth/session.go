package auth

import (
	"context"
	"net/http"
	"time"

	"github.com/google/uuid"

	"github.com/telecrm/helpdesk-sso/internal/domain"
	"github.com/telecrm/helpdesk-sso/internal/store"
	"github.com/telecrm/helpdesk-sso/internal/utils"
)

const sessionCookie = "session_id"

// Sessions resolves inbound requests to identities and hands out session
// credentials after a verification cycle completes.
type Sessions struct {
	store  store.Store
	ttl    time.Duration
	secure bool

	// allowUnverified accepts a syntactically valid ?email= parameter as an
	// identity without any verification. Demo use only, default off.
	allowUnverified bool
}

func NewSessions(s store.Store, ttl time.Duration, secure, allowUnverified bool) *Sessions {
	return &Sessions{
		store:           s,
		ttl:             ttl,
		secure:          secure,
		allowUnverified: allowUnverified,
	}
}

// Create allocates a fresh session for an identity and stores it server-side
// for the configured TTL.
func (s *Sessions) Create(ctx context.Context, email, name string) (*domain.Session, error) {
	if name == "" {
		name = utils.LocalPart(email)
	}
	sess := domain.Session{
		ID:        uuid.NewString(),
		Email:     email,
		Name:      name,
		ExpiresAt: time.Now().Add(s.ttl),
	}
	if err := s.store.PutSession(ctx, sess); err != nil {
		return nil, err
	}
	return &sess, nil
}

// Resolve maps a request to an identity. A valid session cookie wins; absent
// one, the demo email-parameter path applies only when explicitly enabled.
func (s *Sessions) Resolve(r *http.Request) (*domain.Identity, error) {
	if c, err := r.Cookie(sessionCookie); err == nil && c.Value != "" {
		sess, err := s.store.GetSession(r.Context(), c.Value)
		if err != nil {
			return nil, err
		}
		if sess != nil {
			return &domain.Identity{Email: sess.Email, Name: sess.Name}, nil
		}
	}

	if s.allowUnverified {
		if email := r.URL.Query().Get("email"); utils.IsValidEmail(email) {
			email = utils.NormalizeEmail(email)
			return &domain.Identity{Email: email, Name: utils.LocalPart(email)}, nil
		}
	}

	return nil, nil
}

// SetCookie hands the session credential back to the caller. HttpOnly always;
// Secure outside dev mode.
func (s *Sessions) SetCookie(w http.ResponseWriter, sess *domain.Session) {
	http.SetCookie(w, &http.Cookie{
		Name:     sessionCookie,
		Value:    sess.ID,
		Path:     "/",
		Expires:  sess.ExpiresAt,
		HttpOnly: true,
		Secure:   s.secure,
		SameSite: http.SameSiteLaxMode,
	})
}

package verification

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/telecrm/helpdesk-sso/internal/domain"
	"github.com/telecrm/helpdesk-sso/internal/store"
	"github.com/telecrm/helpdesk-sso/internal/utils"
	"github.com/telecrm/helpdesk-sso/pkg/events"
	"github.com/telecrm/helpdesk-sso/pkg/logger"
)

// Service is the verification ledger: it tracks pending access requests and
// the set of approved emails. Only identities in the configured verifier set
// may approve a request.
type Service struct {
	store     store.Store
	verifiers map[string]struct{}
	primary   string
	ttl       time.Duration
	events    events.Publisher
}

func New(s store.Store, verifiers []string, ttl time.Duration, pub events.Publisher) *Service {
	set := make(map[string]struct{}, len(verifiers))
	primary := ""
	for _, v := range verifiers {
		v = utils.NormalizeEmail(v)
		if primary == "" {
			primary = v
		}
		set[v] = struct{}{}
	}
	if pub == nil {
		pub = events.Noop{}
	}
	return &Service{
		store:     s,
		verifiers: set,
		primary:   primary,
		ttl:       ttl,
		events:    pub,
	}
}

// RequestAccess records a pending verification for email and returns its
// token. Repeated calls create independent entries; tokens are never reused.
func (s *Service) RequestAccess(ctx context.Context, email, ticketID, returnTo string) (string, error) {
	if !utils.IsValidEmail(email) {
		return "", domain.ErrInvalidEmail
	}
	email = utils.NormalizeEmail(email)

	if returnTo == "" {
		if ticketID != "" {
			returnTo = "/hc/en-us/requests/" + ticketID
		} else {
			returnTo = "/hc/en-us"
		}
	}

	rec := domain.PendingVerification{
		Token:       uuid.NewString(),
		Email:       email,
		TicketID:    ticketID,
		ReturnTo:    returnTo,
		RequestedAt: time.Now(),
	}
	if err := s.store.CreatePending(ctx, rec); err != nil {
		return "", err
	}

	if err := s.events.Publish(ctx, events.SubjectVerificationRequested, map[string]string{
		"email":     email,
		"ticket_id": ticketID,
	}); err != nil {
		logger.WarnContext(ctx, "Failed to publish event", "subject", events.SubjectVerificationRequested, "error", err)
	}

	return rec.Token, nil
}

// Verify consumes a pending verification. The verifier check happens before
// consumption, so an unauthorized attempt leaves the entry intact; after
// that, the store's atomic consume guarantees at most one caller wins.
func (s *Service) Verify(ctx context.Context, token, verifierEmail string) (*domain.PendingVerification, error) {
	if _, ok := s.verifiers[utils.NormalizeEmail(verifierEmail)]; !ok {
		return nil, domain.ErrNotAuthorized
	}

	rec, err := s.store.ConsumePending(ctx, token)
	if err != nil {
		return nil, err
	}
	if rec == nil {
		return nil, domain.ErrTokenNotFound
	}
	if time.Since(rec.RequestedAt) > s.ttl {
		// Already consumed above, which doubles as the purge.
		return nil, domain.ErrTokenExpired
	}

	if err := s.store.AddVerified(ctx, rec.Email); err != nil {
		return nil, err
	}

	if err := s.events.Publish(ctx, events.SubjectVerificationApproved, map[string]string{
		"email":    rec.Email,
		"verifier": utils.NormalizeEmail(verifierEmail),
	}); err != nil {
		logger.WarnContext(ctx, "Failed to publish event", "subject", events.SubjectVerificationApproved, "error", err)
	}

	return rec, nil
}

// IsVerified reports whether email has passed a verification cycle.
func (s *Service) IsVerified(ctx context.Context, email string) (bool, error) {
	return s.store.IsVerified(ctx, utils.NormalizeEmail(email))
}

// GetPending is a read-only lookup; it neither consumes nor expires entries.
func (s *Service) GetPending(ctx context.Context, token string) (*domain.PendingVerification, error) {
	return s.store.GetPending(ctx, token)
}

// Revoke removes email from the verified set and reports whether it was
// present. Pending entries are unaffected.
func (s *Service) Revoke(ctx context.Context, email string) (bool, error) {
	email = utils.NormalizeEmail(email)
	removed, err := s.store.RemoveVerified(ctx, email)
	if err != nil {
		return false, err
	}
	if removed {
		if err := s.events.Publish(ctx, events.SubjectVerificationRevoked, map[string]string{
			"email": email,
		}); err != nil {
			logger.WarnContext(ctx, "Failed to publish event", "subject", events.SubjectVerificationRevoked, "error", err)
		}
	}
	return removed, nil
}

// ListPending returns all outstanding requests, for operator visibility.
func (s *Service) ListPending(ctx context.Context) ([]domain.PendingVerification, error) {
	return s.store.ListPending(ctx)
}

// ListVerified returns all approved emails, for operator visibility.
func (s *Service) ListVerified(ctx context.Context) ([]string, error) {
	return s.store.ListVerified(ctx)
}

// PrimaryVerifier returns the first configured verifier identity, used when
// building confirmation links.
func (s *Service) PrimaryVerifier() string {
	return s.primary
}

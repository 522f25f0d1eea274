package handlers

import (
	"context"

	"github.com/telecrm/helpdesk-sso/internal/platform/auth"
	"github.com/telecrm/helpdesk-sso/internal/platform/mailer"
	"github.com/telecrm/helpdesk-sso/internal/verification"
	"github.com/telecrm/helpdesk-sso/internal/zendesk"
	"github.com/telecrm/helpdesk-sso/pkg/config"
)

// TicketFetcher is the slice of the helpdesk client the preview endpoint
// needs; tests substitute a stub.
type TicketFetcher interface {
	GetTicket(ctx context.Context, ticketID string) (*zendesk.Ticket, []zendesk.Comment, error)
}

type Handler struct {
	cfg      *config.Config
	ledger   *verification.Service
	sessions *auth.Sessions
	issuer   *auth.Issuer
	tickets  TicketFetcher
	mail     mailer.Service
}

func New(cfg *config.Config, ledger *verification.Service, sessions *auth.Sessions, issuer *auth.Issuer, tickets TicketFetcher, mail mailer.Service) *Handler {
	return &Handler{
		cfg:      cfg,
		ledger:   ledger,
		sessions: sessions,
		issuer:   issuer,
		tickets:  tickets,
		mail:     mail,
	}
}

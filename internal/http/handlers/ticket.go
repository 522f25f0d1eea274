package handlers

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/telecrm/helpdesk-sso/internal/domain"
	"github.com/telecrm/helpdesk-sso/internal/http/response"
	"github.com/telecrm/helpdesk-sso/internal/zendesk"
	"github.com/telecrm/helpdesk-sso/pkg/logger"
)

// TicketPreview handles GET /api/public/ticket/{ticketId}. It fetches the
// ticket with agent credentials and returns only sanitized public fields.
func (h *Handler) TicketPreview(w http.ResponseWriter, r *http.Request) {
	ticketID := chi.URLParam(r, "ticketId")
	if _, err := strconv.ParseInt(ticketID, 10, 64); err != nil {
		response.BadRequest(w, "invalid ticket id")
		return
	}

	ticket, comments, err := h.tickets.GetTicket(r.Context(), ticketID)
	if err != nil {
		switch {
		case errors.Is(err, domain.ErrTicketNotFound):
			response.NotFound(w, "ticket not found")
		case errors.Is(err, domain.ErrTicketAccessDenied):
			response.Forbidden(w, "access denied to ticket")
		default:
			logger.ErrorContext(r.Context(), "Ticket fetch failed", "ticket_id", ticketID, "error", err)
			response.InternalError(w, "failed to fetch ticket")
		}
		return
	}

	response.WriteJSON(w, http.StatusOK, map[string]any{
		"success": true,
		"data":    zendesk.SanitizeForPreview(ticket, comments),
	})
}

package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/url"

	"github.com/telecrm/helpdesk-sso/internal/domain"
	"github.com/telecrm/helpdesk-sso/internal/http/response"
	"github.com/telecrm/helpdesk-sso/internal/utils"
	"github.com/telecrm/helpdesk-sso/pkg/logger"
)

// RequestAccess handles POST /api/request-access. An already-verified email
// gets a session and an immediate SSO redirect target; anyone else gets a
// pending entry and the verifier gets the confirmation link.
func (h *Handler) RequestAccess(w http.ResponseWriter, r *http.Request) {
	var in domain.AccessRequest
	if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
		response.BadRequest(w, "invalid request body")
		return
	}
	if !utils.IsValidEmail(in.Email) {
		response.BadRequest(w, "valid email is required")
		return
	}
	email := utils.NormalizeEmail(in.Email)

	verified, err := h.ledger.IsVerified(r.Context(), email)
	if err != nil {
		logger.ErrorContext(r.Context(), "Verified-set lookup failed", "error", err)
		response.InternalError(w, "request failed")
		return
	}

	if verified {
		sess, err := h.sessions.Create(r.Context(), email, "")
		if err != nil {
			logger.ErrorContext(r.Context(), "Session create failed", "error", err)
			response.InternalError(w, "request failed")
			return
		}
		h.sessions.SetCookie(w, sess)

		returnTo := in.ReturnTo
		if returnTo == "" && in.TicketID != "" {
			returnTo = "/hc/en-us/requests/" + in.TicketID
		}
		if returnTo == "" {
			returnTo = "/hc/en-us"
		}
		response.WriteJSON(w, http.StatusOK, domain.AccessRequestResponse{
			Verified: true,
			Redirect: "/zendesk/sso?return_to=" + url.QueryEscape(returnTo),
		})
		return
	}

	token, err := h.ledger.RequestAccess(r.Context(), email, in.TicketID, in.ReturnTo)
	if err != nil {
		if errors.Is(err, domain.ErrInvalidEmail) {
			response.BadRequest(w, "valid email is required")
			return
		}
		logger.ErrorContext(r.Context(), "Request access failed", "error", err)
		response.InternalError(w, "request failed")
		return
	}

	verifier := h.ledger.PrimaryVerifier()
	verifyURL := h.cfg.BaseURL + "/api/verify?token=" + url.QueryEscape(token) +
		"&verifier=" + url.QueryEscape(verifier)

	if err := h.mail.SendVerificationRequest(verifier, email, in.TicketID, verifyURL); err != nil {
		// The pending entry stands either way; the operator can still find
		// it through the admin listing.
		logger.WarnContext(r.Context(), "Verifier notification failed", "error", err)
	}

	response.WriteJSON(w, http.StatusAccepted, domain.AccessRequestResponse{
		Verified:  false,
		Message:   "access request recorded; awaiting verification",
		VerifyURL: verifyURL,
	})
}

// Verify handles GET /api/verify. On success the requester's email joins the
// verified set and the caller gets a session plus the SSO redirect target.
func (h *Handler) Verify(w http.ResponseWriter, r *http.Request) {
	token := r.URL.Query().Get("token")
	verifier := r.URL.Query().Get("verifier")
	if token == "" || verifier == "" {
		response.BadRequest(w, "token and verifier are required")
		return
	}

	rec, err := h.ledger.Verify(r.Context(), token, verifier)
	if err != nil {
		switch {
		case errors.Is(err, domain.ErrNotAuthorized):
			response.Forbidden(w, "verifier is not authorized to approve requests")
		case errors.Is(err, domain.ErrTokenNotFound):
			response.NotFound(w, "verification token not found or already used")
		case errors.Is(err, domain.ErrTokenExpired):
			response.Expired(w, "verification token expired")
		default:
			logger.ErrorContext(r.Context(), "Verify failed", "error", err)
			response.InternalError(w, "verification failed")
		}
		return
	}

	sess, err := h.sessions.Create(r.Context(), rec.Email, "")
	if err != nil {
		logger.ErrorContext(r.Context(), "Session create failed", "error", err)
		response.InternalError(w, "verification failed")
		return
	}
	h.sessions.SetCookie(w, sess)

	response.WriteJSON(w, http.StatusOK, domain.VerifyResponse{
		Verified: true,
		Email:    rec.Email,
		Redirect: "/zendesk/sso?return_to=" + url.QueryEscape(rec.ReturnTo),
	})
}

package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/telecrm/helpdesk-sso/internal/domain"
	"github.com/telecrm/helpdesk-sso/internal/http/response"
	"github.com/telecrm/helpdesk-sso/internal/platform/auth"
	"github.com/telecrm/helpdesk-sso/internal/utils"
	"github.com/telecrm/helpdesk-sso/pkg/logger"
)

// SSO handles GET /zendesk/sso: resolve the caller's identity, validate the
// destination, mint the assertion and redirect to the platform's SSO entry
// point. The identity always comes from the server side, never the frontend.
func (h *Handler) SSO(w http.ResponseWriter, r *http.Request) {
	identity, err := h.sessions.Resolve(r)
	if err != nil {
		logger.ErrorContext(r.Context(), "Session resolve failed", "error", err)
		response.InternalError(w, "sso failed")
		return
	}
	if identity == nil {
		response.Unauthorized(w, "authenticate before accessing the helpdesk")
		return
	}

	returnTo := r.URL.Query().Get("return_to")
	if !auth.ValidReturnTo(returnTo) {
		response.BadRequest(w, "return_to must start with /hc/")
		return
	}

	token, err := h.issuer.IssueToken(identity.Email, identity.Name)
	if err != nil {
		logger.ErrorContext(r.Context(), "Token issuance failed", "error", err)
		response.InternalError(w, "sso failed")
		return
	}

	ssoURL, err := h.issuer.BuildSSOURL(token, returnTo)
	if err != nil {
		logger.ErrorContext(r.Context(), "SSO url build failed", "error", err)
		response.InternalError(w, "sso failed")
		return
	}

	http.Redirect(w, r, ssoURL, http.StatusFound)
}

// Authenticate handles POST /zendesk/authenticate, the demo session endpoint.
// It only exists when the unverified-email flag is on; production builds 404.
func (h *Handler) Authenticate(w http.ResponseWriter, r *http.Request) {
	if !h.cfg.Auth.AllowUnverifiedEmail {
		response.NotFound(w, "not found")
		return
	}

	var in domain.AuthenticateRequest
	if err := json.NewDecoder(r.Body).Decode(&in); err != nil || !utils.IsValidEmail(in.Email) {
		response.BadRequest(w, "valid email is required")
		return
	}

	sess, err := h.sessions.Create(r.Context(), utils.NormalizeEmail(in.Email), in.Name)
	if err != nil {
		logger.ErrorContext(r.Context(), "Session create failed", "error", err)
		response.InternalError(w, "authentication failed")
		return
	}
	h.sessions.SetCookie(w, sess)

	response.WriteJSON(w, http.StatusOK, map[string]any{
		"success": true,
		"message": "session created",
	})
}

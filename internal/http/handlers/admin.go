package handlers

import (
	"net/http"
	"net/url"

	"github.com/go-chi/chi/v5"

	"github.com/telecrm/helpdesk-sso/internal/http/response"
	"github.com/telecrm/helpdesk-sso/internal/utils"
	"github.com/telecrm/helpdesk-sso/pkg/logger"
)

// Operator-only views. The router puts these behind the admin key check.

func (h *Handler) ListPending(w http.ResponseWriter, r *http.Request) {
	pending, err := h.ledger.ListPending(r.Context())
	if err != nil {
		logger.ErrorContext(r.Context(), "List pending failed", "error", err)
		response.InternalError(w, "listing failed")
		return
	}
	response.WriteJSON(w, http.StatusOK, map[string]any{
		"pending": pending,
		"count":   len(pending),
	})
}

func (h *Handler) ListVerified(w http.ResponseWriter, r *http.Request) {
	verified, err := h.ledger.ListVerified(r.Context())
	if err != nil {
		logger.ErrorContext(r.Context(), "List verified failed", "error", err)
		response.InternalError(w, "listing failed")
		return
	}
	if verified == nil {
		verified = []string{}
	}
	response.WriteJSON(w, http.StatusOK, map[string]any{
		"verified": verified,
		"count":    len(verified),
	})
}

func (h *Handler) RevokeVerified(w http.ResponseWriter, r *http.Request) {
	email, err := url.PathUnescape(chi.URLParam(r, "email"))
	if err != nil || !utils.IsValidEmail(email) {
		response.BadRequest(w, "valid email is required")
		return
	}

	removed, err := h.ledger.Revoke(r.Context(), email)
	if err != nil {
		logger.ErrorContext(r.Context(), "Revoke failed", "error", err)
		response.InternalError(w, "revoke failed")
		return
	}
	if !removed {
		response.NotFound(w, "email is not verified")
		return
	}
	response.WriteJSON(w, http.StatusOK, map[string]any{
		"revoked": true,
		"email":   utils.NormalizeEmail(email),
	})
}

// Diagnostics issues and re-parses a throwaway assertion so an operator can
// confirm the signing setup without seeing the secret.
func (h *Handler) Diagnostics(w http.ResponseWriter, r *http.Request) {
	verifier := h.ledger.PrimaryVerifier()
	token, err := h.issuer.IssueToken(verifier, "Support")
	if err != nil {
		logger.ErrorContext(r.Context(), "Diagnostics issuance failed", "error", err)
		response.InternalError(w, "token issuance failed; check signing configuration")
		return
	}
	claims, err := h.issuer.Parse(token)
	if err != nil {
		logger.ErrorContext(r.Context(), "Diagnostics parse failed", "error", err)
		response.InternalError(w, "issued token failed verification")
		return
	}

	ssoURL, err := h.issuer.BuildSSOURL(token, "/hc/en-us")
	if err != nil {
		response.InternalError(w, "sso url build failed")
		return
	}

	response.WriteJSON(w, http.StatusOK, map[string]any{
		"status": "success",
		"config": map[string]any{
			"subdomain":             h.cfg.Zendesk.Subdomain,
			"sso_url":               h.cfg.Zendesk.SSOURL,
			"jwt_secret_configured": h.cfg.Auth.JWTSecret != "",
		},
		"test": map[string]any{
			"email":        claims.Email,
			"jti":          claims.ID,
			"issued_at":    claims.IssuedAt,
			"expires_at":   claims.ExpiresAt,
			"token_length": len(token),
			"sso_url":      ssoURL[:min(len(ssoURL), 80)] + "...",
		},
	})
}

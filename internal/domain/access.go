package domain

import "time"

// Identity is a resolved caller identity. It is derived from a session or a
// completed verification cycle and never persisted on its own.
type Identity struct {
	Email string `json:"email"`
	Name  string `json:"name"`
}

// PendingVerification is an outstanding access request awaiting approval by a
// verifier. The token is the sole lookup key; several pending entries may
// exist for the same email.
type PendingVerification struct {
	Token       string    `json:"token"`
	Email       string    `json:"email"`
	TicketID    string    `json:"ticket_id,omitempty"`
	ReturnTo    string    `json:"return_to"`
	RequestedAt time.Time `json:"requested_at"`
}

// Session is a server-side session record keyed by the opaque session id the
// caller holds in a cookie.
type Session struct {
	ID        string    `json:"id"`
	Email     string    `json:"email"`
	Name      string    `json:"name"`
	ExpiresAt time.Time `json:"expires_at"`
}

type AccessRequest struct {
	Email    string `json:"email"`
	TicketID string `json:"ticket_id,omitempty"`
	ReturnTo string `json:"return_to,omitempty"`
}

type AccessRequestResponse struct {
	Verified  bool   `json:"verified"`
	Redirect  string `json:"redirect,omitempty"`
	Message   string `json:"message,omitempty"`
	VerifyURL string `json:"verify_url,omitempty"`
}

type VerifyResponse struct {
	Verified bool   `json:"verified"`
	Email    string `json:"email"`
	Redirect string `json:"redirect"`
}

type AuthenticateRequest struct {
	Email string `json:"email"`
	Name  string `json:"name,omitempty"`
}

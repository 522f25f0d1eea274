package handlers_test

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/telecrm/helpdesk-sso/internal/domain"
	"github.com/telecrm/helpdesk-sso/internal/http/handlers"
	mw "github.com/telecrm/helpdesk-sso/internal/http/middleware"
	"github.com/telecrm/helpdesk-sso/internal/platform/auth"
	"github.com/telecrm/helpdesk-sso/internal/store"
	"github.com/telecrm/helpdesk-sso/internal/verification"
	"github.com/telecrm/helpdesk-sso/internal/zendesk"
	"github.com/telecrm/helpdesk-sso/pkg/config"
)

const (
	testVerifier = "support@telecrm.in"
	testSSOBase  = "https://telecrm.zendesk.com/access/jwt"
)

// ---------- Mocks ----------

type mockTickets struct {
	ticket   *zendesk.Ticket
	comments []zendesk.Comment
	err      error
}

func (m *mockTickets) GetTicket(context.Context, string) (*zendesk.Ticket, []zendesk.Comment, error) {
	if m.err != nil {
		return nil, nil, m.err
	}
	return m.ticket, m.comments, nil
}

type mockMailer struct {
	lastVerifier  string
	lastRequester string
	lastVerifyURL string
}

func (m *mockMailer) Send(string, string, string, string, string) (string, error) {
	return "mock-id", nil
}

func (m *mockMailer) SendVerificationRequest(verifier, requester, _, verifyURL string) error {
	m.lastVerifier = verifier
	m.lastRequester = requester
	m.lastVerifyURL = verifyURL
	return nil
}

// ---------- Harness ----------

type env struct {
	router *chi.Mux
	store  *store.Memory
	mail   *mockMailer
}

func newEnv(t *testing.T, allowUnverified bool) *env {
	t.Helper()

	cfg := &config.Config{
		BaseURL: "http://localhost:8080",
		DevMode: true,
	}
	cfg.Zendesk.Subdomain = "telecrm"
	cfg.Zendesk.SSOURL = testSSOBase
	cfg.Auth.JWTSecret = "test-secret"
	cfg.Auth.TokenTTL = 5 * time.Minute
	cfg.Auth.SessionTTL = 24 * time.Hour
	cfg.Auth.VerificationTTL = 24 * time.Hour
	cfg.Auth.Verifiers = []string{testVerifier}
	cfg.Auth.AllowUnverifiedEmail = allowUnverified

	st := store.NewMemory()
	ledger := verification.New(st, cfg.Auth.Verifiers, cfg.Auth.VerificationTTL, nil)
	sessions := auth.NewSessions(st, cfg.Auth.SessionTTL, false, allowUnverified)
	issuer := auth.NewIssuer(cfg.Auth.JWTSecret, cfg.Zendesk.SSOURL, cfg.Auth.TokenTTL)
	mail := &mockMailer{}
	tickets := &mockTickets{
		ticket: &zendesk.Ticket{ID: 2405, Subject: "Login issue", Status: "open"},
		comments: []zendesk.Comment{
			{ID: 1, Body: "public reply", Public: true, AuthorName: "Agent"},
			{ID: 2, Body: "internal note", Public: false},
		},
	}

	h := handlers.New(cfg, ledger, sessions, issuer, tickets, mail)

	r := chi.NewRouter()
	r.Route("/api", func(r chi.Router) {
		r.Get("/public/ticket/{ticketId}", h.TicketPreview)
		r.Post("/request-access", h.RequestAccess)
		r.Get("/verify", h.Verify)
		r.Route("/admin", func(r chi.Router) {
			r.Use(mw.RequireAdminKey(""))
			r.Get("/pending", h.ListPending)
		})
	})
	r.Route("/zendesk", func(r chi.Router) {
		r.Get("/sso", h.SSO)
		r.Post("/authenticate", h.Authenticate)
	})

	return &env{router: r, store: st, mail: mail}
}

func (e *env) do(req *http.Request) *httptest.ResponseRecorder {
	rec := httptest.NewRecorder()
	e.router.ServeHTTP(rec, req)
	return rec
}

func postJSON(path string, body any) *http.Request {
	data, _ := json.Marshal(body)
	req := httptest.NewRequest(http.MethodPost, path, bytes.NewReader(data))
	req.Header.Set("Content-Type", "application/json")
	return req
}

// ---------- Tests ----------

func TestRequestAccessVerifySSOFlow(t *testing.T) {
	e := newEnv(t, false)

	// Request access creates a pending entry and the verifier link.
	rec := e.do(postJSON("/api/request-access", domain.AccessRequest{
		Email:    "user@x.com",
		TicketID: "2405",
		ReturnTo: "/hc/en-us/requests/2405",
	}))
	if rec.Code != http.StatusAccepted {
		t.Fatalf("request-access status = %d, body %s", rec.Code, rec.Body)
	}
	var ack domain.AccessRequestResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &ack); err != nil {
		t.Fatal(err)
	}
	if ack.Verified {
		t.Error("fresh email reported verified")
	}
	if !strings.Contains(ack.VerifyURL, "/api/verify?token=") ||
		!strings.Contains(ack.VerifyURL, "verifier="+url.QueryEscape(testVerifier)) {
		t.Fatalf("verify url = %q", ack.VerifyURL)
	}
	if e.mail.lastVerifier != testVerifier || e.mail.lastRequester != "user@x.com" {
		t.Errorf("verifier notification: to=%q requester=%q", e.mail.lastVerifier, e.mail.lastRequester)
	}

	verifyURL, err := url.Parse(ack.VerifyURL)
	if err != nil {
		t.Fatal(err)
	}
	token := verifyURL.Query().Get("token")

	// Wrong verifier is rejected and leaves the entry intact.
	rec = e.do(httptest.NewRequest(http.MethodGet,
		"/api/verify?token="+token+"&verifier=someone.else@x.com", nil))
	if rec.Code != http.StatusForbidden {
		t.Fatalf("wrong verifier status = %d", rec.Code)
	}

	// Correct verifier approves, sets a session cookie and returns the
	// SSO redirect target.
	rec = e.do(httptest.NewRequest(http.MethodGet,
		"/api/verify?token="+token+"&verifier="+url.QueryEscape(testVerifier), nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("verify status = %d, body %s", rec.Code, rec.Body)
	}
	var verified domain.VerifyResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &verified); err != nil {
		t.Fatal(err)
	}
	if verified.Email != "user@x.com" {
		t.Errorf("verified email = %q", verified.Email)
	}
	if !strings.Contains(verified.Redirect, "return_to=%2Fhc%2Fen-us%2Frequests%2F2405") {
		t.Errorf("redirect = %q", verified.Redirect)
	}

	cookies := rec.Result().Cookies()
	var session *http.Cookie
	for _, c := range cookies {
		if c.Name == "session_id" {
			session = c
		}
	}
	if session == nil || session.Value == "" {
		t.Fatal("no session cookie set after verify")
	}
	if !session.HttpOnly {
		t.Error("session cookie not HttpOnly")
	}

	// Consumed token cannot be verified again.
	rec = e.do(httptest.NewRequest(http.MethodGet,
		"/api/verify?token="+token+"&verifier="+url.QueryEscape(testVerifier), nil))
	if rec.Code != http.StatusNotFound {
		t.Errorf("reused token status = %d, want 404", rec.Code)
	}

	// The session drives the SSO redirect.
	req := httptest.NewRequest(http.MethodGet, "/zendesk/sso?return_to=/hc/en-us/requests/2405", nil)
	req.AddCookie(session)
	rec = e.do(req)
	if rec.Code != http.StatusFound {
		t.Fatalf("sso status = %d, body %s", rec.Code, rec.Body)
	}
	loc := rec.Header().Get("Location")
	if !strings.HasPrefix(loc, testSSOBase) {
		t.Errorf("redirect %q does not target sso base", loc)
	}
	if !strings.Contains(loc, "jwt=") {
		t.Errorf("redirect %q missing assertion", loc)
	}
	if !strings.Contains(loc, "return_to=%2Fhc%2Fen-us%2Frequests%2F2405") {
		t.Errorf("redirect %q missing escaped return_to", loc)
	}
}

func TestRequestAccessAlreadyVerified(t *testing.T) {
	e := newEnv(t, false)
	if err := e.store.AddVerified(context.Background(), "user@x.com"); err != nil {
		t.Fatal(err)
	}

	rec := e.do(postJSON("/api/request-access", domain.AccessRequest{
		Email:    "user@x.com",
		TicketID: "2405",
	}))
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	var out domain.AccessRequestResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &out); err != nil {
		t.Fatal(err)
	}
	if !out.Verified {
		t.Error("verified email not recognized")
	}
	if !strings.Contains(out.Redirect, "return_to=%2Fhc%2Fen-us%2Frequests%2F2405") {
		t.Errorf("redirect = %q", out.Redirect)
	}
}

func TestRequestAccessRejectsBadEmail(t *testing.T) {
	e := newEnv(t, false)

	rec := e.do(postJSON("/api/request-access", domain.AccessRequest{Email: "nope"}))
	if rec.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want 400", rec.Code)
	}
}

func TestSSORequiresIdentity(t *testing.T) {
	e := newEnv(t, false)

	rec := e.do(httptest.NewRequest(http.MethodGet, "/zendesk/sso?return_to=/hc/en-us", nil))
	if rec.Code != http.StatusUnauthorized {
		t.Errorf("status = %d, want 401", rec.Code)
	}

	// The demo email-parameter bypass stays off by default.
	rec = e.do(httptest.NewRequest(http.MethodGet, "/zendesk/sso?return_to=/hc/en-us&email=user@x.com", nil))
	if rec.Code != http.StatusUnauthorized {
		t.Errorf("email param accepted with bypass off: status = %d", rec.Code)
	}
}

func TestSSOValidatesDestination(t *testing.T) {
	e := newEnv(t, true)

	for _, returnTo := range []string{"", "/admin", "hc/en-us"} {
		target := "/zendesk/sso?email=user@x.com&return_to=" + url.QueryEscape(returnTo)
		rec := e.do(httptest.NewRequest(http.MethodGet, target, nil))
		if rec.Code != http.StatusBadRequest {
			t.Errorf("return_to %q: status = %d, want 400", returnTo, rec.Code)
		}
	}
}

func TestDemoBypassWhenEnabled(t *testing.T) {
	e := newEnv(t, true)

	rec := e.do(httptest.NewRequest(http.MethodGet, "/zendesk/sso?return_to=/hc/en-us&email=user@x.com", nil))
	if rec.Code != http.StatusFound {
		t.Fatalf("status = %d, want 302", rec.Code)
	}
	if loc := rec.Header().Get("Location"); !strings.HasPrefix(loc, testSSOBase) {
		t.Errorf("redirect = %q", loc)
	}
}

func TestAuthenticateDisabledByDefault(t *testing.T) {
	e := newEnv(t, false)

	rec := e.do(postJSON("/zendesk/authenticate", domain.AuthenticateRequest{Email: "user@x.com"}))
	if rec.Code != http.StatusNotFound {
		t.Errorf("status = %d, want 404 with demo flag off", rec.Code)
	}
}

func TestAuthenticateCreatesSession(t *testing.T) {
	e := newEnv(t, true)

	rec := e.do(postJSON("/zendesk/authenticate", domain.AuthenticateRequest{Email: "user@x.com", Name: "User"}))
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, body %s", rec.Code, rec.Body)
	}

	var session *http.Cookie
	for _, c := range rec.Result().Cookies() {
		if c.Name == "session_id" {
			session = c
		}
	}
	if session == nil {
		t.Fatal("no session cookie set")
	}

	req := httptest.NewRequest(http.MethodGet, "/zendesk/sso?return_to=/hc/en-us", nil)
	req.AddCookie(session)
	if rec := e.do(req); rec.Code != http.StatusFound {
		t.Errorf("sso with session status = %d", rec.Code)
	}
}

func TestTicketPreviewSanitized(t *testing.T) {
	e := newEnv(t, false)

	rec := e.do(httptest.NewRequest(http.MethodGet, "/api/public/ticket/2405", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	body := rec.Body.String()
	if !strings.Contains(body, "public reply") {
		t.Error("public comment missing from preview")
	}
	if strings.Contains(body, "internal note") {
		t.Error("internal note leaked into preview")
	}
}

func TestTicketPreviewErrors(t *testing.T) {
	e := newEnv(t, false)

	rec := e.do(httptest.NewRequest(http.MethodGet, "/api/public/ticket/abc", nil))
	if rec.Code != http.StatusBadRequest {
		t.Errorf("non-numeric id status = %d, want 400", rec.Code)
	}
}

func TestAdminDisabledWithoutKey(t *testing.T) {
	e := newEnv(t, false)

	rec := e.do(httptest.NewRequest(http.MethodGet, "/api/admin/pending", nil))
	if rec.Code != http.StatusNotFound {
		t.Errorf("admin without configured key: status = %d, want 404", rec.Code)
	}
}

package middleware_test

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/alexedwards/argon2id"

	mw "github.com/telecrm/helpdesk-sso/internal/http/middleware"
)

func TestRequireAdminKey(t *testing.T) {
	hash, err := argon2id.CreateHash("operator-key", argon2id.DefaultParams)
	if err != nil {
		t.Fatal(err)
	}

	ok := func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}
	handler := mw.RequireAdminKey(hash)(http.HandlerFunc(ok))

	tests := []struct {
		name   string
		header string
		want   int
	}{
		{"valid key", "Bearer operator-key", http.StatusOK},
		{"wrong key", "Bearer other-key", http.StatusForbidden},
		{"missing header", "", http.StatusUnauthorized},
		{"wrong scheme", "Basic operator-key", http.StatusUnauthorized},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/api/admin/pending", nil)
			if tt.header != "" {
				req.Header.Set("Authorization", tt.header)
			}
			rec := httptest.NewRecorder()
			handler.ServeHTTP(rec, req)
			if rec.Code != tt.want {
				t.Errorf("status = %d, want %d", rec.Code, tt.want)
			}
		})
	}
}

func TestRequireAdminKeyDisabled(t *testing.T) {
	handler := mw.RequireAdminKey("")(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Error("handler reached with admin routes disabled")
	}))

	req := httptest.NewRequest(http.MethodGet, "/api/admin/pending", nil)
	req.Header.Set("Authorization", "Bearer anything")
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	if rec.Code != http.StatusNotFound {
		t.Errorf("status = %d, want 404", rec.Code)
	}
}

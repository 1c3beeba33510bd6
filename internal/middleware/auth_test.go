package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/devcircle/devcircle-go/internal/crypto"
)

func TestJWTAuth(t *testing.T) {
	issuer := crypto.NewTokenIssuer("test-secret", time.Hour)
	valid, err := issuer.Issue("user-1", "ada@x.io")
	require.NoError(t, err)
	other, err := crypto.NewTokenIssuer("other-secret", time.Hour).Issue("user-1", "ada@x.io")
	require.NoError(t, err)

	var gotID string
	h := JWTAuth(issuer)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotID, _ = UserIDFromContext(r.Context())
		w.WriteHeader(http.StatusNoContent)
	}))

	tests := []struct {
		name       string
		header     string
		wantStatus int
		wantBody   string
	}{
		{name: "missing", header: "", wantStatus: http.StatusUnauthorized, wantBody: "missing authorization header"},
		{name: "not bearer", header: "Basic abc", wantStatus: http.StatusUnauthorized, wantBody: "invalid authorization format"},
		{name: "empty bearer", header: "Bearer ", wantStatus: http.StatusUnauthorized, wantBody: "invalid authorization format"},
		{name: "wrong secret", header: "Bearer " + other, wantStatus: http.StatusUnauthorized, wantBody: "invalid or expired token"},
		{name: "garbage", header: "Bearer not.a.jwt", wantStatus: http.StatusUnauthorized, wantBody: "invalid or expired token"},
		{name: "valid", header: "Bearer " + valid, wantStatus: http.StatusNoContent},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			gotID = ""
			req := httptest.NewRequest(http.MethodGet, "/", nil)
			if tt.header != "" {
				req.Header.Set("Authorization", tt.header)
			}
			rr := httptest.NewRecorder()

			h.ServeHTTP(rr, req)

			assert.Equal(t, tt.wantStatus, rr.Code)
			if tt.wantBody != "" {
				assert.Contains(t, rr.Body.String(), tt.wantBody)
				assert.Equal(t, "application/json", rr.Header().Get("Content-Type"))
				assert.Empty(t, gotID)
				return
			}
			assert.Equal(t, "user-1", gotID)
		})
	}
}

func TestUserIDFromContext_Empty(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/", nil)

	_, ok := UserIDFromContext(req.Context())
	assert.False(t, ok)

	_, ok = UserIDFromContext(WithUser(req.Context(), ""))
	assert.False(t, ok)

	id, ok := UserIDFromContext(WithUser(req.Context(), "u1"))
	assert.True(t, ok)
	assert.Equal(t, "u1", id)
}

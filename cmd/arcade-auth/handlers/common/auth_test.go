package common

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	jwtlib "github.com/golang-jwt/jwt/v5"

	"github.com/wrale/arcade-auth/internal/auth"
)

func TestRequireAuth(t *testing.T) {
	svc, err := auth.NewTokenService([]byte("test-secret"), time.Hour)
	if err != nil {
		t.Fatal(err)
	}
	valid, err := svc.Issue(7, "alice")
	if err != nil {
		t.Fatal(err)
	}
	past := time.Now().Add(-2 * time.Hour)
	expired, err := jwtlib.NewWithClaims(jwtlib.SigningMethodHS256, auth.Claims{
		ID:       7,
		Username: "alice",
		RegisteredClaims: jwtlib.RegisteredClaims{
			IssuedAt:  jwtlib.NewNumericDate(past),
			ExpiresAt: jwtlib.NewNumericDate(past.Add(time.Hour)),
		},
	}).SignedString([]byte("test-secret"))
	if err != nil {
		t.Fatal(err)
	}

	tests := []struct {
		name       string
		header     string
		wantStatus int
		wantError  string
	}{
		{name: "missing header", wantStatus: http.StatusUnauthorized, wantError: MsgNoToken},
		{name: "wrong scheme", header: "Basic abc", wantStatus: http.StatusUnauthorized, wantError: MsgNoToken},
		{name: "garbage token", header: "Bearer not.a.jwt", wantStatus: http.StatusUnauthorized, wantError: MsgInvalidToken},
		{name: "expired token", header: "Bearer " + expired, wantStatus: http.StatusUnauthorized, wantError: MsgTokenExpired},
		{name: "valid token", header: "Bearer " + valid, wantStatus: http.StatusOK},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var gotCaller auth.Identity
			var gotToken string
			h := RequireAuth(svc)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				gotCaller, gotToken, _ = Caller(r)
				w.WriteHeader(http.StatusOK)
			}))

			r := httptest.NewRequest(http.MethodPost, "/", nil)
			if tt.header != "" {
				r.Header.Set("Authorization", tt.header)
			}
			w := httptest.NewRecorder()
			h.ServeHTTP(w, r)

			if w.Code != tt.wantStatus {
				t.Fatalf("status = %d, want %d", w.Code, tt.wantStatus)
			}
			if tt.wantError != "" {
				var resp ErrorResponse
				if err := json.NewDecoder(w.Body).Decode(&resp); err != nil {
					t.Fatalf("Failed to decode response: %v", err)
				}
				if resp.Error != tt.wantError {
					t.Errorf("error = %q, want %q", resp.Error, tt.wantError)
				}
				return
			}
			if gotCaller != (auth.Identity{ID: 7, Username: "alice"}) {
				t.Errorf("caller = %+v", gotCaller)
			}
			if gotToken != valid {
				t.Errorf("token not propagated")
			}
		})
	}
}

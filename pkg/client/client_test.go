package client

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func TestWithTokenSetsBearerHeader(t *testing.T) {
	var got atomic.Value
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		got.Store(r.Header.Get("Authorization"))
		writeJSON(w, http.StatusOK, map[string]string{"message": "ok"})
	}))
	defer srv.Close()

	c := New(srv.URL)
	require.NoError(t, c.WithToken("abc").ConnectDevice(context.Background(), "BCDF-GHJK"))
	assert.Equal(t, "Bearer abc", got.Load())

	// The unauthenticated client is unchanged.
	require.NoError(t, c.ConnectDevice(context.Background(), "BCDF-GHJK"))
	assert.Equal(t, "", got.Load())
}

func TestAPIErrorCarriesMessage(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusUnauthorized, map[string]string{"error": "Invalid username or password"})
	}))
	defer srv.Close()

	_, err := New(srv.URL).Login(context.Background(), "player1", "wrongpass")
	var apiErr *APIError
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, http.StatusUnauthorized, apiErr.StatusCode)
	assert.Equal(t, "Invalid username or password", apiErr.Message)
}

func TestPollDeviceTokenMapsStatuses(t *testing.T) {
	tests := []struct {
		name    string
		status  int
		body    any
		wantErr error
	}{
		{"pending", http.StatusAccepted, map[string]string{"status": "pending", "message": "waiting"}, ErrPending},
		{"not found", http.StatusNotFound, map[string]string{"error": "Device code not found or already used."}, ErrNotFound},
		{"expired", http.StatusGone, map[string]string{"error": "Device code expired."}, ErrExpired},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				writeJSON(w, tt.status, tt.body)
			}))
			defer srv.Close()

			_, err := New(srv.URL).PollDeviceToken(context.Background(), "dc")
			assert.ErrorIs(t, err, tt.wantErr)
		})
	}
}

func TestWaitForDeviceToken(t *testing.T) {
	var polls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var req map[string]string
		_ = json.NewDecoder(r.Body).Decode(&req)
		if req["deviceCode"] != "dc-1" {
			writeJSON(w, http.StatusNotFound, map[string]string{"error": "nope"})
			return
		}
		if polls.Add(1) < 3 {
			writeJSON(w, http.StatusAccepted, map[string]string{"status": "pending"})
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{
			"token":  "jwt",
			"user":   map[string]any{"id": 7, "username": "player1"},
			"status": "completed",
		})
	}))
	defer srv.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	tok, err := New(srv.URL).WaitForDeviceToken(ctx, &DeviceAuthorization{DeviceCode: "dc-1", Interval: 10})
	require.NoError(t, err)
	assert.Equal(t, "jwt", tok.Token)
	assert.Equal(t, User{ID: 7, Username: "player1"}, tok.User)
	assert.EqualValues(t, 3, polls.Load())
}

func TestWaitForDeviceTokenStopsOnExpiry(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusGone, map[string]string{"error": "Device code expired."})
	}))
	defer srv.Close()

	_, err := New(srv.URL).WaitForDeviceToken(context.Background(), &DeviceAuthorization{DeviceCode: "dc", Interval: 10})
	assert.ErrorIs(t, err, ErrExpired)
}

func TestWaitForDeviceTokenHonoursContext(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusAccepted, map[string]string{"status": "pending"})
	}))
	defer srv.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	_, err := New(srv.URL).WaitForDeviceToken(ctx, &DeviceAuthorization{DeviceCode: "dc", Interval: 10})
	require.Error(t, err)
	assert.False(t, errors.Is(err, ErrNotFound))
}

func TestWaitForSessionConfirmation(t *testing.T) {
	tests := []struct {
		name     string
		final    string
		wantErr  error
		wantUser string
	}{
		{"confirmed", StatusConfirmed, nil, "player1"},
		{"cancelled", StatusCancelled, ErrCancelled, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var polls atomic.Int32
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				status := StatusPending
				if polls.Add(1) >= 2 {
					status = tt.final
				}
				writeJSON(w, http.StatusOK, SessionStatus{Status: status, Username: "player1"})
			}))
			defer srv.Close()

			ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()

			st, err := New(srv.URL).WaitForSessionConfirmation(ctx, &SessionConfirmation{ConfirmationCode: "c", Interval: 10})
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.wantUser, st.Username)
		})
	}
}

func TestSessionConfirmationURL(t *testing.T) {
	s := &SessionConfirmation{ConfirmationCode: "ABC123", ConfirmationURI: "http://localhost:8080/confirm-session"}
	assert.Equal(t, "http://localhost:8080/confirm-session?code=ABC123", s.URL())
	assert.Equal(t, 5*time.Second, s.PollInterval())
}

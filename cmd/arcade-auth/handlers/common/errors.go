// Package common holds response helpers and middleware shared by the API handlers.
package common

import (
	"encoding/json"
	"net/http"
	"strings"
)

// Messages shared across handlers.
const (
	MsgInvalidBody   = "Invalid request body"
	MsgServerError   = "Server database error"
	MsgNoToken       = "Unauthorized: No token provided"
	MsgTokenExpired  = "Unauthorized: Token has expired"
	MsgInvalidToken  = "Unauthorized: Invalid token"
	MsgTooManyTries  = "Too many attempts, please try again later."
	encodeFailedBody = `{"error":"Failed to encode response"}`
)

// ErrorResponse is the body of every error reply.
type ErrorResponse struct {
	Error string `json:"error"`
}

// MessageResponse is the body of replies that only carry a message.
type MessageResponse struct {
	Message string `json:"message"`
}

// SetJSONHeaders sets the headers every API response carries.
// Responses may contain tokens or one-time codes, so they are never cached.
func SetJSONHeaders(w http.ResponseWriter) {
	w.Header().Set("Cache-Control", "no-store")
	w.Header().Set("Content-Type", "application/json")
}

// WriteJSON encodes v with the given status.
func WriteJSON(w http.ResponseWriter, status int, v any) {
	body, err := json.Marshal(v)
	if err != nil {
		WriteJSONError(w, err)
		return
	}
	SetJSONHeaders(w)
	w.WriteHeader(status)
	_, _ = w.Write(append(body, '\n'))
}

// WriteError sends {"error": message} with the given status.
func WriteError(w http.ResponseWriter, status int, message string) {
	WriteJSON(w, status, ErrorResponse{Error: strings.TrimSpace(message)})
}

// WriteMessage sends {"message": message} with the given status.
func WriteMessage(w http.ResponseWriter, status int, message string) {
	WriteJSON(w, status, MessageResponse{Message: message})
}

// WriteJSONError handles JSON encoding failures with a fixed response.
func WriteJSONError(w http.ResponseWriter, err error) {
	SetJSONHeaders(w)
	w.WriteHeader(http.StatusInternalServerError)
	_, _ = w.Write([]byte(encodeFailedBody))
}

// TooManyRequests is the rejection handler for rate limited routes.
func TooManyRequests(w http.ResponseWriter, r *http.Request) {
	WriteError(w, http.StatusTooManyRequests, MsgTooManyTries)
}

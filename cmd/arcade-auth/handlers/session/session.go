// Package session serves the session-confirmation endpoints.
package session

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"net/http"

	"github.com/wrale/arcade-auth/cmd/arcade-auth/handlers/common"
	"github.com/wrale/arcade-auth/internal/auth"
	"github.com/wrale/arcade-auth/internal/logging"
	"github.com/wrale/arcade-auth/internal/sessionflow"
)

// Messages returned by the session endpoints.
const (
	MsgInitiateFailed = "Failed to initiate session confirmation."
	MsgMismatch       = "Invalid or mismatched confirmation code."
	MsgNotFound       = "Confirmation code not found."
	MsgExpired        = "Confirmation code expired."
	MsgNotPending     = "Confirmation code is no longer pending."
	MsgConfirmed      = "Session confirmed successfully!"
	MsgCancelled      = "Session cancelled successfully!"
)

// Flow is the session confirmation state machine
type Flow interface {
	Initiate(ctx context.Context, token string, user auth.Identity) (*sessionflow.Confirmation, error)
	Confirm(ctx context.Context, code string, caller auth.Identity) error
	Status(ctx context.Context, code string) (*sessionflow.StatusResult, error)
	Cancel(ctx context.Context, code string, caller auth.Identity) error
}

var _ Flow = (*sessionflow.Flow)(nil)

type codeRequest struct {
	ConfirmationCode string `json:"confirmationCode"`
}

// Handler processes session confirmation requests
type Handler struct {
	flow   Flow
	logger *slog.Logger
}

// New creates a session handler. A nil logger discards output.
func New(flow Flow, logger *slog.Logger) *Handler {
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return &Handler{flow: flow, logger: logger}
}

// Initiate issues a confirmation code bound to the authenticated game session.
func (h *Handler) Initiate(w http.ResponseWriter, r *http.Request) {
	caller, token, ok := common.Caller(r)
	if !ok {
		common.WriteError(w, http.StatusUnauthorized, common.MsgNoToken)
		return
	}

	c, err := h.flow.Initiate(r.Context(), token, caller)
	if err != nil {
		logging.LogError(h.logger, "session initiate failed", err, "user_id", caller.ID)
		common.WriteError(w, http.StatusInternalServerError, MsgInitiateFailed)
		return
	}
	common.WriteJSON(w, http.StatusOK, c)
}

// Confirm is called by the browser signed in to the same account.
func (h *Handler) Confirm(w http.ResponseWriter, r *http.Request) {
	caller, code, ok := h.authorizedCode(w, r)
	if !ok {
		return
	}
	if err := h.flow.Confirm(r.Context(), code, caller); err != nil {
		h.writeFlowError(w, err)
		return
	}
	common.WriteMessage(w, http.StatusOK, MsgConfirmed)
}

// Status lets the game poll a confirmation code without authentication.
func (h *Handler) Status(w http.ResponseWriter, r *http.Request) {
	var req codeRequest
	if err := common.DecodeJSON(r, &req); err != nil {
		common.WriteError(w, http.StatusBadRequest, common.MsgInvalidBody)
		return
	}
	res, err := h.flow.Status(r.Context(), req.ConfirmationCode)
	if err != nil {
		h.writeFlowError(w, err)
		return
	}
	common.WriteJSON(w, http.StatusOK, res)
}

// Cancel rejects the confirmation from the browser.
func (h *Handler) Cancel(w http.ResponseWriter, r *http.Request) {
	caller, code, ok := h.authorizedCode(w, r)
	if !ok {
		return
	}
	if err := h.flow.Cancel(r.Context(), code, caller); err != nil {
		h.writeFlowError(w, err)
		return
	}
	common.WriteMessage(w, http.StatusOK, MsgCancelled)
}

func (h *Handler) authorizedCode(w http.ResponseWriter, r *http.Request) (auth.Identity, string, bool) {
	caller, _, ok := common.Caller(r)
	if !ok {
		common.WriteError(w, http.StatusUnauthorized, common.MsgNoToken)
		return auth.Identity{}, "", false
	}
	var req codeRequest
	if err := common.DecodeJSON(r, &req); err != nil {
		common.WriteError(w, http.StatusBadRequest, common.MsgInvalidBody)
		return auth.Identity{}, "", false
	}
	return caller, req.ConfirmationCode, true
}

func (h *Handler) writeFlowError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, sessionflow.ErrMismatch):
		common.WriteError(w, http.StatusBadRequest, MsgMismatch)
	case errors.Is(err, sessionflow.ErrNotFound):
		common.WriteError(w, http.StatusNotFound, MsgNotFound)
	case errors.Is(err, sessionflow.ErrExpiredCode):
		common.WriteError(w, http.StatusGone, MsgExpired)
	case errors.Is(err, sessionflow.ErrNotPending):
		common.WriteError(w, http.StatusBadRequest, MsgNotPending)
	default:
		logging.LogError(h.logger, "session flow failed", err)
		common.WriteError(w, http.StatusInternalServerError, common.MsgServerError)
	}
}

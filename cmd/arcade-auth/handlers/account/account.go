// Package account serves login and registration.
package account

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"net/http"

	"github.com/wrale/arcade-auth/cmd/arcade-auth/handlers/common"
	"github.com/wrale/arcade-auth/internal/accounts"
	"github.com/wrale/arcade-auth/internal/auth"
	"github.com/wrale/arcade-auth/internal/logging"
	"github.com/wrale/arcade-auth/internal/validation"
)

// Messages returned by the account endpoints.
const (
	MsgInvalidLogin  = "Invalid username or password"
	MsgUsernameTaken = "Username already taken"
	MsgCreated       = "Account created successfully!"
)

// Service is the account operations the handlers need
type Service interface {
	Register(ctx context.Context, username, password string) (auth.Identity, error)
	Login(ctx context.Context, username, password string) (*accounts.Session, error)
}

var _ Service = (*accounts.Service)(nil)

type credentials struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

// Handler processes account requests
type Handler struct {
	svc    Service
	logger *slog.Logger
}

// New creates an account handler. A nil logger discards output.
func New(svc Service, logger *slog.Logger) *Handler {
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return &Handler{svc: svc, logger: logger}
}

// Login exchanges a username and password for a session token.
func (h *Handler) Login(w http.ResponseWriter, r *http.Request) {
	var req credentials
	if err := common.DecodeJSON(r, &req); err != nil {
		common.WriteError(w, http.StatusBadRequest, common.MsgInvalidBody)
		return
	}

	sess, err := h.svc.Login(r.Context(), req.Username, req.Password)
	if err != nil {
		var verr *validation.ValidationError
		switch {
		case errors.As(err, &verr):
			common.WriteError(w, http.StatusBadRequest, verr.Message)
		case errors.Is(err, accounts.ErrInvalidCredentials):
			h.logger.Info("login rejected", "username", req.Username)
			common.WriteError(w, http.StatusUnauthorized, MsgInvalidLogin)
		default:
			logging.LogError(h.logger, "login failed", err)
			common.WriteError(w, http.StatusInternalServerError, common.MsgServerError)
		}
		return
	}

	common.WriteJSON(w, http.StatusOK, sess)
}

// Register creates an account.
func (h *Handler) Register(w http.ResponseWriter, r *http.Request) {
	var req credentials
	if err := common.DecodeJSON(r, &req); err != nil {
		common.WriteError(w, http.StatusBadRequest, common.MsgInvalidBody)
		return
	}

	if _, err := h.svc.Register(r.Context(), req.Username, req.Password); err != nil {
		var verr *validation.ValidationError
		switch {
		case errors.As(err, &verr):
			common.WriteError(w, http.StatusBadRequest, verr.Message)
		case errors.Is(err, accounts.ErrUsernameTaken):
			common.WriteError(w, http.StatusBadRequest, MsgUsernameTaken)
		default:
			logging.LogError(h.logger, "register failed", err)
			common.WriteError(w, http.StatusInternalServerError, common.MsgServerError)
		}
		return
	}

	common.WriteMessage(w, http.StatusCreated, MsgCreated)
}

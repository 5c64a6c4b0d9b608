package device

import (
	"errors"
	"net/http"

	"github.com/wrale/arcade-auth/cmd/arcade-auth/handlers/common"
	"github.com/wrale/arcade-auth/internal/accounts"
	"github.com/wrale/arcade-auth/internal/auth"
	"github.com/wrale/arcade-auth/internal/deviceflow"
	"github.com/wrale/arcade-auth/internal/logging"
	"github.com/wrale/arcade-auth/internal/validation"
)

type loginRequest struct {
	UserCode string `json:"userCode"`
	Username string `json:"username"`
	Password string `json:"password"`
}

type connectRequest struct {
	UserCode string `json:"userCode"`
}

// LoginResponse is returned when a device is linked by logging in on the web.
type LoginResponse struct {
	Message string        `json:"message"`
	Token   string        `json:"token"`
	User    auth.Identity `json:"user"`
}

// Login resolves a user code with a username and password.
func (h *Handler) Login(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := common.DecodeJSON(r, &req); err != nil {
		common.WriteError(w, http.StatusBadRequest, common.MsgInvalidBody)
		return
	}

	result, err := h.flow.LoginResolve(r.Context(), req.UserCode, req.Username, req.Password)
	if err != nil {
		var verr *validation.ValidationError
		switch {
		case errors.As(err, &verr):
			common.WriteError(w, http.StatusBadRequest, verr.Message)
		case errors.Is(err, deviceflow.ErrInvalidUserCode):
			common.WriteError(w, http.StatusBadRequest, MsgInvalidUserCode)
		case errors.Is(err, accounts.ErrInvalidCredentials):
			h.logger.Info("device login rejected", "username", req.Username)
			common.WriteError(w, http.StatusUnauthorized, MsgInvalidLogin)
		default:
			logging.LogError(h.logger, "device login failed", err)
			common.WriteError(w, http.StatusInternalServerError, common.MsgServerError)
		}
		return
	}

	common.WriteJSON(w, http.StatusOK, LoginResponse{
		Message: MsgConnected,
		Token:   result.Token,
		User:    result.User,
	})
}

// Connect resolves a user code with the caller's existing session.
// It must be mounted behind common.RequireAuth.
func (h *Handler) Connect(w http.ResponseWriter, r *http.Request) {
	caller, token, ok := common.Caller(r)
	if !ok {
		common.WriteError(w, http.StatusUnauthorized, common.MsgNoToken)
		return
	}

	var req connectRequest
	if err := common.DecodeJSON(r, &req); err != nil {
		common.WriteError(w, http.StatusBadRequest, common.MsgInvalidBody)
		return
	}

	if err := h.flow.ConnectResolve(r.Context(), req.UserCode, token, caller); err != nil {
		if errors.Is(err, deviceflow.ErrInvalidUserCode) {
			common.WriteError(w, http.StatusBadRequest, MsgInvalidUserCode)
			return
		}
		logging.LogError(h.logger, "device connect failed", err, "user_id", caller.ID)
		common.WriteError(w, http.StatusInternalServerError, MsgConnectFailed)
		return
	}

	common.WriteMessage(w, http.StatusOK, MsgConnected)
}

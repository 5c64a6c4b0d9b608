package device

import (
	"errors"
	"net/http"

	"github.com/wrale/arcade-auth/cmd/arcade-auth/handlers/common"
	"github.com/wrale/arcade-auth/internal/auth"
	"github.com/wrale/arcade-auth/internal/deviceflow"
	"github.com/wrale/arcade-auth/internal/logging"
)

type tokenRequest struct {
	DeviceCode string `json:"deviceCode"`
}

// TokenResponse is returned once a polled code has been resolved.
type TokenResponse struct {
	Token  string        `json:"token"`
	User   auth.Identity `json:"user"`
	Status string        `json:"status"`
}

// PendingResponse is returned with 202 while the player has not acted yet.
type PendingResponse struct {
	Status  string `json:"status"`
	Message string `json:"message"`
}

// Token handles game client polling for a device code.
func (h *Handler) Token(w http.ResponseWriter, r *http.Request) {
	var req tokenRequest
	if err := common.DecodeJSON(r, &req); err != nil {
		common.WriteError(w, http.StatusBadRequest, common.MsgInvalidBody)
		return
	}

	result, err := h.flow.Poll(r.Context(), req.DeviceCode)
	if err != nil {
		switch {
		case errors.Is(err, deviceflow.ErrPendingAuthorization):
			common.WriteJSON(w, http.StatusAccepted, PendingResponse{Status: "pending", Message: MsgPending})
		case errors.Is(err, deviceflow.ErrInvalidDeviceCode):
			common.WriteError(w, http.StatusNotFound, MsgCodeNotFound)
		case errors.Is(err, deviceflow.ErrExpiredCode):
			common.WriteError(w, http.StatusGone, MsgCodeExpired)
		default:
			logging.LogError(h.logger, "device poll failed", err)
			common.WriteError(w, http.StatusInternalServerError, MsgUnexpectedStatus)
		}
		return
	}

	common.WriteJSON(w, http.StatusOK, TokenResponse{
		Token:  result.Token,
		User:   result.User,
		Status: "completed",
	})
}

// Package device serves the device-link endpoints used by the game client
// and the web verification page.
package device

import (
	"io"
	"log/slog"

	"github.com/wrale/arcade-auth/internal/deviceflow"
)

// Messages returned by the device endpoints.
const (
	MsgInitiateFailed   = "Failed to initiate device login"
	MsgCodeNotFound     = "Device code not found or already used."
	MsgCodeExpired      = "Device code expired."
	MsgPending          = "Authorization pending."
	MsgUnexpectedStatus = "Unexpected device code status."
	MsgInvalidUserCode  = "Invalid or expired device code."
	MsgInvalidLogin     = "Invalid username or password"
	MsgConnected        = "Device connected successfully!"
	MsgConnectFailed    = "Failed to connect device."
)

// Handler processes device-link requests
type Handler struct {
	flow   deviceflow.Flow
	logger *slog.Logger
}

// New creates a device-link handler. A nil logger discards output.
func New(flow deviceflow.Flow, logger *slog.Logger) *Handler {
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return &Handler{flow: flow, logger: logger}
}

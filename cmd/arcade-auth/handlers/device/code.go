package device

import (
	"net/http"

	"github.com/wrale/arcade-auth/cmd/arcade-auth/handlers/common"
	"github.com/wrale/arcade-auth/internal/logging"
)

// Initiate issues a new device code and user code for the game client.
func (h *Handler) Initiate(w http.ResponseWriter, r *http.Request) {
	authz, err := h.flow.Initiate(r.Context())
	if err != nil {
		logging.LogError(h.logger, "device initiate failed", err)
		common.WriteError(w, http.StatusInternalServerError, MsgInitiateFailed)
		return
	}
	common.WriteJSON(w, http.StatusOK, authz)
}

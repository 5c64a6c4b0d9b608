// Package scores serves leaderboards, player profiles and achievements.
package scores

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/wrale/arcade-auth/cmd/arcade-auth/handlers/common"
	"github.com/wrale/arcade-auth/internal/auth"
	"github.com/wrale/arcade-auth/internal/leaderboard"
	"github.com/wrale/arcade-auth/internal/logging"
	"github.com/wrale/arcade-auth/internal/store"
)

// Messages returned by the score endpoints.
const (
	MsgInvalidUserID         = "Invalid user ID"
	MsgInvalidScore          = "Invalid user ID or score"
	MsgUserNotFound          = "User not found"
	MsgAchievementNotFound   = "Achievement not found"
	MsgAchievementRequired   = "Achievement name is required"
	MsgForbiddenScore        = "Forbidden: You can only update your own score."
	MsgForbiddenAchievements = "Forbidden: You can only update your own achievements."
)

// Service is the leaderboard operations the handlers need
type Service interface {
	SubmitScore(ctx context.Context, caller auth.Identity, userID, score int64) (*leaderboard.ScoreUpdate, error)
	TopScores(ctx context.Context, w leaderboard.Window) ([]store.ScoreEntry, error)
	Stats(ctx context.Context, userID int64) (store.Stats, error)
	Achievements(ctx context.Context, userID int64) ([]store.Achievement, error)
	Unlock(ctx context.Context, caller auth.Identity, userID int64, name string) (string, error)
	GetUser(ctx context.Context, id int64) (leaderboard.PublicUser, error)
	ListUsers(ctx context.Context) ([]leaderboard.PublicUser, error)
}

var _ Service = (*leaderboard.Service)(nil)

// Handler processes leaderboard requests
type Handler struct {
	svc    Service
	logger *slog.Logger
}

// New creates a leaderboard handler. A nil logger discards output.
func New(svc Service, logger *slog.Logger) *Handler {
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return &Handler{svc: svc, logger: logger}
}

// Top returns a handler for the leaderboard over window.
func (h *Handler) Top(window leaderboard.Window) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		entries, err := h.svc.TopScores(r.Context(), window)
		if err != nil {
			h.serverError(w, "top scores failed", err)
			return
		}
		common.WriteJSON(w, http.StatusOK, entries)
	}
}

// ListUsers returns every player.
func (h *Handler) ListUsers(w http.ResponseWriter, r *http.Request) {
	users, err := h.svc.ListUsers(r.Context())
	if err != nil {
		h.serverError(w, "list users failed", err)
		return
	}
	common.WriteJSON(w, http.StatusOK, users)
}

// GetUser returns a single player.
func (h *Handler) GetUser(w http.ResponseWriter, r *http.Request) {
	id, ok := userID(w, r)
	if !ok {
		return
	}
	u, err := h.svc.GetUser(r.Context(), id)
	if err != nil {
		h.writeStoreError(w, "get user failed", err)
		return
	}
	common.WriteJSON(w, http.StatusOK, u)
}

// Stats returns aggregate statistics for a player.
func (h *Handler) Stats(w http.ResponseWriter, r *http.Request) {
	id, ok := userID(w, r)
	if !ok {
		return
	}
	stats, err := h.svc.Stats(r.Context(), id)
	if err != nil {
		h.writeStoreError(w, "user stats failed", err)
		return
	}
	common.WriteJSON(w, http.StatusOK, stats)
}

// Achievements lists a player's achievements.
func (h *Handler) Achievements(w http.ResponseWriter, r *http.Request) {
	id, ok := userID(w, r)
	if !ok {
		return
	}
	list, err := h.svc.Achievements(r.Context(), id)
	if err != nil {
		h.writeStoreError(w, "list achievements failed", err)
		return
	}
	common.WriteJSON(w, http.StatusOK, list)
}

type unlockRequest struct {
	AchievementName string `json:"achievement_name"`
}

// Unlock marks an achievement as unlocked for the caller.
func (h *Handler) Unlock(w http.ResponseWriter, r *http.Request) {
	caller, _, ok := common.Caller(r)
	if !ok {
		common.WriteError(w, http.StatusUnauthorized, common.MsgNoToken)
		return
	}
	id, ok := userID(w, r)
	if !ok {
		return
	}
	if id != caller.ID {
		common.WriteError(w, http.StatusForbidden, MsgForbiddenAchievements)
		return
	}

	var req unlockRequest
	if err := common.DecodeJSON(r, &req); err != nil {
		common.WriteError(w, http.StatusBadRequest, common.MsgInvalidBody)
		return
	}
	if req.AchievementName == "" {
		common.WriteError(w, http.StatusBadRequest, MsgAchievementRequired)
		return
	}

	msg, err := h.svc.Unlock(r.Context(), caller, id, req.AchievementName)
	if err != nil {
		if errors.Is(err, leaderboard.ErrForbidden) {
			common.WriteError(w, http.StatusForbidden, MsgForbiddenAchievements)
			return
		}
		h.writeStoreError(w, "unlock achievement failed", err)
		return
	}
	common.WriteMessage(w, http.StatusOK, msg)
}

type scoreRequest struct {
	Score *int64 `json:"score"`
}

// SubmitScore records a finished game for the caller.
func (h *Handler) SubmitScore(w http.ResponseWriter, r *http.Request) {
	caller, _, ok := common.Caller(r)
	if !ok {
		common.WriteError(w, http.StatusUnauthorized, common.MsgNoToken)
		return
	}
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		common.WriteError(w, http.StatusBadRequest, MsgInvalidScore)
		return
	}
	if id != caller.ID {
		common.WriteError(w, http.StatusForbidden, MsgForbiddenScore)
		return
	}

	var req scoreRequest
	if err := common.DecodeJSON(r, &req); err != nil || req.Score == nil {
		common.WriteError(w, http.StatusBadRequest, MsgInvalidScore)
		return
	}

	update, err := h.svc.SubmitScore(r.Context(), caller, id, *req.Score)
	if err != nil {
		if errors.Is(err, leaderboard.ErrForbidden) {
			common.WriteError(w, http.StatusForbidden, MsgForbiddenScore)
			return
		}
		h.writeStoreError(w, "submit score failed", err)
		return
	}
	h.logger.Info("score recorded", "user_id", id, "score", *req.Score)
	common.WriteJSON(w, http.StatusOK, update)
}

func userID(w http.ResponseWriter, r *http.Request) (int64, bool) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		common.WriteError(w, http.StatusBadRequest, MsgInvalidUserID)
		return 0, false
	}
	return id, true
}

func (h *Handler) writeStoreError(w http.ResponseWriter, msg string, err error) {
	switch {
	case errors.Is(err, store.ErrNotFound):
		common.WriteError(w, http.StatusNotFound, MsgUserNotFound)
	case errors.Is(err, store.ErrAchievementNotFound):
		common.WriteError(w, http.StatusNotFound, MsgAchievementNotFound)
	default:
		h.serverError(w, msg, err)
	}
}

func (h *Handler) serverError(w http.ResponseWriter, msg string, err error) {
	logging.LogError(h.logger, msg, err)
	common.WriteError(w, http.StatusInternalServerError, common.MsgServerError)
}

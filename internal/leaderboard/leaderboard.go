// Package leaderboard records scores and achievements and serves rankings.
package leaderboard

import (
	"context"
	"errors"
	"time"

	"github.com/wrale/arcade-auth/internal/auth"
	"github.com/wrale/arcade-auth/internal/store"
)

// Limits applied to listings.
const (
	TopLimit    = 100
	RecentGames = 10
)

var (
	// ErrForbidden indicates a caller acting on another player's record
	ErrForbidden = errors.New("forbidden")

	// ErrUnknownWindow indicates an unsupported leaderboard window
	ErrUnknownWindow = errors.New("unknown leaderboard window")
)

// Window selects the time range of a leaderboard.
type Window string

const (
	AllTime Window = "all"
	Weekly  Window = "weekly"
	Yearly  Window = "yearly"
)

// Service exposes leaderboard operations over a store.
type Service struct {
	store store.Store
	now   func() time.Time
}

// NewService returns a leaderboard service.
func NewService(s store.Store) *Service {
	return &Service{store: s, now: time.Now}
}

// ScoreUpdate is the outcome of submitting a score.
type ScoreUpdate struct {
	Message     string `json:"message"`
	NewMaxScore int64  `json:"new_max_score"`
}

// SubmitScore records a play for userID. Only the player may submit their own score.
func (s *Service) SubmitScore(ctx context.Context, caller auth.Identity, userID, score int64) (*ScoreUpdate, error) {
	if caller.ID != userID {
		return nil, ErrForbidden
	}
	res, err := s.store.RecordScore(ctx, userID, score)
	if err != nil {
		return nil, err
	}
	msg := "Score is not higher than the current high score"
	if res.Improved {
		msg = "High score updated successfully"
	}
	return &ScoreUpdate{Message: msg, NewMaxScore: res.MaxScore}, nil
}

// TopScores returns the best plays in the window.
func (s *Service) TopScores(ctx context.Context, w Window) ([]store.ScoreEntry, error) {
	var since time.Time
	switch w {
	case AllTime:
	case Weekly:
		since = s.now().AddDate(0, 0, -7)
	case Yearly:
		since = s.now().AddDate(0, 0, -365)
	default:
		return nil, ErrUnknownWindow
	}
	return s.store.TopScores(ctx, since, TopLimit)
}

// Stats returns the player's aggregate statistics.
func (s *Service) Stats(ctx context.Context, userID int64) (store.Stats, error) {
	return s.store.UserStats(ctx, userID, RecentGames)
}

// Achievements lists every achievement with the player's unlock state.
func (s *Service) Achievements(ctx context.Context, userID int64) ([]store.Achievement, error) {
	return s.store.ListAchievements(ctx, userID)
}

// Unlock marks an achievement unlocked and returns the user-facing message.
func (s *Service) Unlock(ctx context.Context, caller auth.Identity, userID int64, name string) (string, error) {
	if caller.ID != userID {
		return "", ErrForbidden
	}
	unlocked, err := s.store.UnlockAchievement(ctx, userID, name)
	if err != nil {
		return "", err
	}
	if !unlocked {
		return "Achievement already unlocked", nil
	}
	return "Achievement unlocked successfully", nil
}

// PublicUser is the listing view of an account.
type PublicUser struct {
	ID       int64  `json:"id"`
	Username string `json:"username"`
	MaxScore int64  `json:"max_score"`
}

// GetUser returns a single player.
func (s *Service) GetUser(ctx context.Context, id int64) (PublicUser, error) {
	u, err := s.store.GetUser(ctx, id)
	if err != nil {
		return PublicUser{}, err
	}
	return PublicUser{ID: u.ID, Username: u.Username, MaxScore: u.MaxScore}, nil
}

// ListUsers returns every player.
func (s *Service) ListUsers(ctx context.Context) ([]PublicUser, error) {
	users, err := s.store.ListUsers(ctx)
	if err != nil {
		return nil, err
	}
	out := make([]PublicUser, 0, len(users))
	for _, u := range users {
		out = append(out, PublicUser{ID: u.ID, Username: u.Username, MaxScore: u.MaxScore})
	}
	return out, nil
}

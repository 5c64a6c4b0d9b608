// Package store persists accounts, scores and achievements.
package store

import (
	"context"
	"errors"
	"time"
)

var (
	// ErrNotFound indicates the requested user does not exist
	ErrNotFound = errors.New("not found")

	// ErrUsernameTaken indicates a registration collided with an existing username
	ErrUsernameTaken = errors.New("username already taken")

	// ErrAchievementNotFound indicates an unknown achievement name
	ErrAchievementNotFound = errors.New("achievement not found")
)

// User is a stored account.
type User struct {
	ID           int64
	Username     string
	PasswordHash string
	MaxScore     int64
	CreatedAt    time.Time
}

// ScoreEntry is one row of a leaderboard.
type ScoreEntry struct {
	Username  string    `json:"username"`
	Score     int64     `json:"score"`
	CreatedAt time.Time `json:"created_at"`
}

// Game is one recorded play.
type Game struct {
	Score     int64     `json:"score"`
	CreatedAt time.Time `json:"created_at"`
}

// Stats summarises a player's history.
type Stats struct {
	TotalGames   int64  `json:"totalGames"`
	AverageScore int64  `json:"averageScore"`
	Rank         int64  `json:"rank"`
	RankOutOf    int64  `json:"rankOutOf"`
	RecentGames  []Game `json:"recentGames"`
}

// Achievement is an achievement with the player's unlock state.
type Achievement struct {
	ID          int64      `json:"id"`
	Name        string     `json:"name"`
	Description string     `json:"description"`
	Unlocked    bool       `json:"unlocked"`
	UnlockedAt  *time.Time `json:"unlocked_at"`
}

// ScoreResult is the outcome of recording a score.
type ScoreResult struct {
	MaxScore int64
	Improved bool
}

// Store is implemented by Memory and Postgres.
type Store interface {
	CreateUser(ctx context.Context, username, passwordHash string) (User, error)
	GetUser(ctx context.Context, id int64) (User, error)
	GetUserByUsername(ctx context.Context, username string) (User, error)
	ListUsers(ctx context.Context) ([]User, error)

	// RecordScore logs a play and raises the user's max score if beaten
	RecordScore(ctx context.Context, userID, score int64) (ScoreResult, error)
	// TopScores returns the best plays since the given time; zero means all time
	TopScores(ctx context.Context, since time.Time, limit int) ([]ScoreEntry, error)
	UserStats(ctx context.Context, userID int64, recent int) (Stats, error)

	ListAchievements(ctx context.Context, userID int64) ([]Achievement, error)
	// UnlockAchievement reports whether the achievement was newly unlocked
	UnlockAchievement(ctx context.Context, userID int64, name string) (bool, error)

	CheckHealth(ctx context.Context) error
	Close()
}

// DefaultAchievements are seeded into every new store.
var DefaultAchievements = []struct{ Name, Description string }{
	{"Beginner", "Clear level 1"},
	{"Intermediate", "Clear level 3"},
	{"Boss Slayer", "Defeat a boss"},
	{"Mr. Greedy", "Have more than 2000 coins"},
	{"First Blood", "Defeat your first enemy"},
	{"Bear Grylls", "Survive for 60 seconds"},
	{"Bad Sniper", "Under 80% accuracy"},
	{"Conqueror", "Clear the final level"},
}

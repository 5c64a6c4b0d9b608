package store

import (
	"context"
	"math"
	"sort"
	"sync"
	"time"
)

type scoreRow struct {
	userID    int64
	score     int64
	createdAt time.Time
}

type unlock struct {
	userID        int64
	achievementID int64
}

// Memory is an in-process Store used when no database is configured, and in tests.
type Memory struct {
	mu           sync.RWMutex
	users        map[int64]*User
	byName       map[string]int64
	scores       []scoreRow
	achievements []Achievement
	unlocked     map[unlock]time.Time
	nextUserID   int64
	now          func() time.Time
}

// NewMemory returns an empty store seeded with the default achievements.
func NewMemory() *Memory {
	m := &Memory{
		users:      make(map[int64]*User),
		byName:     make(map[string]int64),
		unlocked:   make(map[unlock]time.Time),
		nextUserID: 1,
		now:        time.Now,
	}
	for i, a := range DefaultAchievements {
		m.achievements = append(m.achievements, Achievement{ID: int64(i + 1), Name: a.Name, Description: a.Description})
	}
	return m
}

func (m *Memory) CreateUser(ctx context.Context, username, passwordHash string) (User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	key := username
	if _, exists := m.byName[key]; exists {
		return User{}, ErrUsernameTaken
	}
	u := &User{
		ID:           m.nextUserID,
		Username:     username,
		PasswordHash: passwordHash,
		CreatedAt:    m.now().UTC(),
	}
	m.nextUserID++
	m.users[u.ID] = u
	m.byName[key] = u.ID
	return *u, nil
}

func (m *Memory) GetUser(ctx context.Context, id int64) (User, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	u, ok := m.users[id]
	if !ok {
		return User{}, ErrNotFound
	}
	return *u, nil
}

func (m *Memory) GetUserByUsername(ctx context.Context, username string) (User, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	id, ok := m.byName[username]
	if !ok {
		return User{}, ErrNotFound
	}
	return *m.users[id], nil
}

func (m *Memory) ListUsers(ctx context.Context) ([]User, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	users := make([]User, 0, len(m.users))
	for _, u := range m.users {
		users = append(users, *u)
	}
	sort.Slice(users, func(i, j int) bool { return users[i].ID < users[j].ID })
	return users, nil
}

func (m *Memory) RecordScore(ctx context.Context, userID, score int64) (ScoreResult, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	u, ok := m.users[userID]
	if !ok {
		return ScoreResult{}, ErrNotFound
	}
	res := ScoreResult{MaxScore: u.MaxScore}
	if score > u.MaxScore {
		u.MaxScore = score
		res = ScoreResult{MaxScore: score, Improved: true}
	}
	m.scores = append(m.scores, scoreRow{userID: userID, score: score, createdAt: m.now().UTC()})
	return res, nil
}

func (m *Memory) TopScores(ctx context.Context, since time.Time, limit int) ([]ScoreEntry, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	entries := make([]ScoreEntry, 0)
	for _, s := range m.scores {
		if !since.IsZero() && s.createdAt.Before(since) {
			continue
		}
		entries = append(entries, ScoreEntry{
			Username:  m.users[s.userID].Username,
			Score:     s.score,
			CreatedAt: s.createdAt,
		})
	}
	sort.SliceStable(entries, func(i, j int) bool { return entries[i].Score > entries[j].Score })
	if limit > 0 && len(entries) > limit {
		entries = entries[:limit]
	}
	return entries, nil
}

func (m *Memory) UserStats(ctx context.Context, userID int64, recent int) (Stats, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	u, ok := m.users[userID]
	if !ok {
		return Stats{}, ErrNotFound
	}

	stats := Stats{Rank: 1, RankOutOf: int64(len(m.users)), RecentGames: []Game{}}
	var total int64
	// m.scores is in insertion order, so walking backwards yields newest first.
	for i := len(m.scores) - 1; i >= 0; i-- {
		s := m.scores[i]
		if s.userID != userID {
			continue
		}
		stats.TotalGames++
		total += s.score
		if recent <= 0 || len(stats.RecentGames) < recent {
			stats.RecentGames = append(stats.RecentGames, Game{Score: s.score, CreatedAt: s.createdAt})
		}
	}
	if stats.TotalGames > 0 {
		stats.AverageScore = int64(math.Round(float64(total) / float64(stats.TotalGames)))
	}
	for _, other := range m.users {
		if other.MaxScore > u.MaxScore {
			stats.Rank++
		}
	}
	return stats, nil
}

func (m *Memory) ListAchievements(ctx context.Context, userID int64) ([]Achievement, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	if _, ok := m.users[userID]; !ok {
		return nil, ErrNotFound
	}
	out := make([]Achievement, 0, len(m.achievements))
	for _, a := range m.achievements {
		if at, ok := m.unlocked[unlock{userID, a.ID}]; ok {
			a.Unlocked = true
			t := at
			a.UnlockedAt = &t
		}
		out = append(out, a)
	}
	return out, nil
}

func (m *Memory) UnlockAchievement(ctx context.Context, userID int64, name string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.users[userID]; !ok {
		return false, ErrNotFound
	}
	for _, a := range m.achievements {
		if a.Name != name {
			continue
		}
		key := unlock{userID, a.ID}
		if _, done := m.unlocked[key]; done {
			return false, nil
		}
		m.unlocked[key] = m.now().UTC()
		return true, nil
	}
	return false, ErrAchievementNotFound
}

func (m *Memory) CheckHealth(ctx context.Context) error { return nil }

func (m *Memory) Close() {}

var _ Store = (*Memory)(nil)

package store

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgerrcode"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/samber/oops"
)

// pool is the subset of *pgxpool.Pool used here, so tests can substitute pgxmock.
type pool interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
	Begin(ctx context.Context) (pgx.Tx, error)
	Ping(ctx context.Context) error
	Close()
}

var _ pool = (*pgxpool.Pool)(nil)

// Postgres is a Store backed by PostgreSQL.
type Postgres struct {
	pool pool
}

// NewPostgres wraps an existing connection pool.
func NewPostgres(p pool) *Postgres {
	return &Postgres{pool: p}
}

// Connect opens a pool for dsn and verifies it with a ping.
func Connect(ctx context.Context, dsn string) (*pgxpool.Pool, error) {
	cfg, err := pgxpool.ParseConfig(dsn)
	if err != nil {
		return nil, oops.Code("STORE_CONFIG").Wrapf(err, "parse database url")
	}
	p, err := pgxpool.NewWithConfig(ctx, cfg)
	if err != nil {
		return nil, oops.Code("STORE_CONNECT").Wrapf(err, "open pool")
	}
	if err := p.Ping(ctx); err != nil {
		p.Close()
		return nil, oops.Code("STORE_CONNECT").Wrapf(err, "ping database")
	}
	return p, nil
}

func (s *Postgres) CreateUser(ctx context.Context, username, passwordHash string) (User, error) {
	u := User{Username: username, PasswordHash: passwordHash}
	err := s.pool.QueryRow(ctx,
		`INSERT INTO users (username, password_hash) VALUES ($1, $2) RETURNING id, max_score, created_at`,
		username, passwordHash,
	).Scan(&u.ID, &u.MaxScore, &u.CreatedAt)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == pgerrcode.UniqueViolation {
			return User{}, ErrUsernameTaken
		}
		return User{}, oops.Code("STORE_QUERY").With("operation", "create user").Wrap(err)
	}
	return u, nil
}

const userColumns = `id, username, password_hash, max_score, created_at`

func (s *Postgres) getUser(ctx context.Context, where string, arg any) (User, error) {
	var u User
	err := s.pool.QueryRow(ctx, `SELECT `+userColumns+` FROM users WHERE `+where, arg).
		Scan(&u.ID, &u.Username, &u.PasswordHash, &u.MaxScore, &u.CreatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return User{}, ErrNotFound
	}
	if err != nil {
		return User{}, oops.Code("STORE_QUERY").With("operation", "get user").Wrap(err)
	}
	return u, nil
}

func (s *Postgres) GetUser(ctx context.Context, id int64) (User, error) {
	return s.getUser(ctx, `id = $1`, id)
}

func (s *Postgres) GetUserByUsername(ctx context.Context, username string) (User, error) {
	return s.getUser(ctx, `username = $1`, username)
}

func (s *Postgres) ListUsers(ctx context.Context) ([]User, error) {
	rows, err := s.pool.Query(ctx, `SELECT `+userColumns+` FROM users ORDER BY id`)
	if err != nil {
		return nil, oops.Code("STORE_QUERY").With("operation", "list users").Wrap(err)
	}
	defer rows.Close()

	users := make([]User, 0)
	for rows.Next() {
		var u User
		if err := rows.Scan(&u.ID, &u.Username, &u.PasswordHash, &u.MaxScore, &u.CreatedAt); err != nil {
			return nil, oops.Code("STORE_QUERY").With("operation", "list users").Wrap(err)
		}
		users = append(users, u)
	}
	if err := rows.Err(); err != nil {
		return nil, oops.Code("STORE_QUERY").With("operation", "list users").Wrap(err)
	}
	return users, nil
}

func (s *Postgres) RecordScore(ctx context.Context, userID, score int64) (res ScoreResult, err error) {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return ScoreResult{}, oops.Code("STORE_QUERY").With("operation", "record score").Wrap(err)
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback(ctx)
		}
	}()

	var current int64
	err = tx.QueryRow(ctx, `SELECT max_score FROM users WHERE id = $1 FOR UPDATE`, userID).Scan(&current)
	if errors.Is(err, pgx.ErrNoRows) {
		return ScoreResult{}, ErrNotFound
	}
	if err != nil {
		return ScoreResult{}, oops.Code("STORE_QUERY").With("operation", "record score").Wrap(err)
	}

	res = ScoreResult{MaxScore: current}
	if score > current {
		if _, err = tx.Exec(ctx, `UPDATE users SET max_score = $1 WHERE id = $2`, score, userID); err != nil {
			return ScoreResult{}, oops.Code("STORE_QUERY").With("operation", "record score").Wrap(err)
		}
		res = ScoreResult{MaxScore: score, Improved: true}
	}

	if _, err = tx.Exec(ctx, `INSERT INTO scores (user_id, score) VALUES ($1, $2)`, userID, score); err != nil {
		return ScoreResult{}, oops.Code("STORE_QUERY").With("operation", "record score").Wrap(err)
	}

	if err = tx.Commit(ctx); err != nil {
		return ScoreResult{}, oops.Code("STORE_QUERY").With("operation", "record score").Wrap(err)
	}
	return res, nil
}

func (s *Postgres) TopScores(ctx context.Context, since time.Time, limit int) ([]ScoreEntry, error) {
	var sinceArg *time.Time
	if !since.IsZero() {
		sinceArg = &since
	}

	rows, err := s.pool.Query(ctx, `
		SELECT u.username, s.score, s.created_at
		FROM scores s
		JOIN users u ON u.id = s.user_id
		WHERE $1::timestamptz IS NULL OR s.created_at >= $1
		ORDER BY s.score DESC, s.created_at ASC
		LIMIT $2`, sinceArg, limit)
	if err != nil {
		return nil, oops.Code("STORE_QUERY").With("operation", "top scores").Wrap(err)
	}
	defer rows.Close()

	entries := make([]ScoreEntry, 0)
	for rows.Next() {
		var e ScoreEntry
		if err := rows.Scan(&e.Username, &e.Score, &e.CreatedAt); err != nil {
			return nil, oops.Code("STORE_QUERY").With("operation", "top scores").Wrap(err)
		}
		entries = append(entries, e)
	}
	if err := rows.Err(); err != nil {
		return nil, oops.Code("STORE_QUERY").With("operation", "top scores").Wrap(err)
	}
	return entries, nil
}

func (s *Postgres) UserStats(ctx context.Context, userID int64, recent int) (Stats, error) {
	stats := Stats{RecentGames: []Game{}}
	err := s.pool.QueryRow(ctx, `
		SELECT
			(SELECT COUNT(*) FROM scores WHERE user_id = u.id),
			COALESCE((SELECT ROUND(AVG(score)) FROM scores WHERE user_id = u.id), 0)::bigint,
			(SELECT COUNT(*) + 1 FROM users o WHERE o.max_score > u.max_score),
			(SELECT COUNT(*) FROM users)
		FROM users u
		WHERE u.id = $1`, userID,
	).Scan(&stats.TotalGames, &stats.AverageScore, &stats.Rank, &stats.RankOutOf)
	if errors.Is(err, pgx.ErrNoRows) {
		return Stats{}, ErrNotFound
	}
	if err != nil {
		return Stats{}, oops.Code("STORE_QUERY").With("operation", "user stats").Wrap(err)
	}

	rows, err := s.pool.Query(ctx, `
		SELECT score, created_at
		FROM scores
		WHERE user_id = $1
		ORDER BY created_at DESC, id DESC
		LIMIT $2`, userID, recent)
	if err != nil {
		return Stats{}, oops.Code("STORE_QUERY").With("operation", "recent games").Wrap(err)
	}
	defer rows.Close()

	for rows.Next() {
		var g Game
		if err := rows.Scan(&g.Score, &g.CreatedAt); err != nil {
			return Stats{}, oops.Code("STORE_QUERY").With("operation", "recent games").Wrap(err)
		}
		stats.RecentGames = append(stats.RecentGames, g)
	}
	if err := rows.Err(); err != nil {
		return Stats{}, oops.Code("STORE_QUERY").With("operation", "recent games").Wrap(err)
	}
	return stats, nil
}

func (s *Postgres) ListAchievements(ctx context.Context, userID int64) ([]Achievement, error) {
	if _, err := s.GetUser(ctx, userID); err != nil {
		return nil, err
	}

	rows, err := s.pool.Query(ctx, `
		SELECT a.id, a.name, a.description, ua.unlocked_at
		FROM achievements a
		LEFT JOIN user_achievements ua ON ua.achievement_id = a.id AND ua.user_id = $1
		ORDER BY a.id`, userID)
	if err != nil {
		return nil, oops.Code("STORE_QUERY").With("operation", "list achievements").Wrap(err)
	}
	defer rows.Close()

	out := make([]Achievement, 0)
	for rows.Next() {
		var a Achievement
		if err := rows.Scan(&a.ID, &a.Name, &a.Description, &a.UnlockedAt); err != nil {
			return nil, oops.Code("STORE_QUERY").With("operation", "list achievements").Wrap(err)
		}
		a.Unlocked = a.UnlockedAt != nil
		out = append(out, a)
	}
	if err := rows.Err(); err != nil {
		return nil, oops.Code("STORE_QUERY").With("operation", "list achievements").Wrap(err)
	}
	return out, nil
}

func (s *Postgres) UnlockAchievement(ctx context.Context, userID int64, name string) (bool, error) {
	if _, err := s.GetUser(ctx, userID); err != nil {
		return false, err
	}

	var achievementID int64
	err := s.pool.QueryRow(ctx, `SELECT id FROM achievements WHERE name = $1`, name).Scan(&achievementID)
	if errors.Is(err, pgx.ErrNoRows) {
		return false, ErrAchievementNotFound
	}
	if err != nil {
		return false, oops.Code("STORE_QUERY").With("operation", "unlock achievement").Wrap(err)
	}

	tag, err := s.pool.Exec(ctx, `
		INSERT INTO user_achievements (user_id, achievement_id)
		VALUES ($1, $2)
		ON CONFLICT (user_id, achievement_id) DO NOTHING`, userID, achievementID)
	if err != nil {
		return false, oops.Code("STORE_QUERY").With("operation", "unlock achievement").Wrap(err)
	}
	return tag.RowsAffected() == 1, nil
}

func (s *Postgres) CheckHealth(ctx context.Context) error {
	if err := s.pool.Ping(ctx); err != nil {
		return oops.Code("STORE_UNHEALTHY").Wrap(err)
	}
	return nil
}

func (s *Postgres) Close() {
	s.pool.Close()
}

var _ Store = (*Postgres)(nil)

package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	// Registers the "sqlite" driver (pure Go).
	_ "modernc.org/sqlite"

	"github.com/Lookingforcommit/sql-ai-bot/internal/domain"
)

// SQLiteRepo implements Repo using an embedded SQLite database.
type SQLiteRepo struct{ db *sql.DB }

// OpenSQLite opens (or creates) the SQLite database at the given path,
// applies recommended PRAGMAs, runs SQL migrations, and returns a repository.
func OpenSQLite(ctx context.Context, path string) (*SQLiteRepo, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, err
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, err
	}

	// Reasonable pooling for SQLite; it's a single-writer engine.
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(0)

	if err := applyPragmas(ctx, db); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("apply pragmas: %w", err)
	}
	if err := RunMigrations(ctx, db); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("migrations: %w", err)
	}

	return &SQLiteRepo{db: db}, nil
}

// applyPragmas configures the SQLite connection for durability and concurrency.
func applyPragmas(ctx context.Context, db *sql.DB) error {
	pragmas := []string{
		"PRAGMA journal_mode=WAL;",
		"PRAGMA synchronous=NORMAL;",
		"PRAGMA busy_timeout=5000;",
		"PRAGMA foreign_keys=ON;",
	}
	for _, p := range pragmas {
		if _, err := db.ExecContext(ctx, p); err != nil {
			return err
		}
	}
	return nil
}

// Close releases the underlying database resources.
func (r *SQLiteRepo) Close() error {
	return r.db.Close()
}

// FindUser returns the user by telegram ID or ErrNotFound.
func (r *SQLiteRepo) FindUser(ctx context.Context, telegramID int64) (*domain.User, error) {
	row := r.db.QueryRowContext(ctx, `
		SELECT telegram_id, surname, name, patronymic, created_at
		FROM users
		WHERE telegram_id = ?`,
		telegramID,
	)

	var (
		u         domain.User
		createdAt int64
	)
	if err := row.Scan(&u.TelegramID, &u.Surname, &u.Name, &u.Patronymic, &createdAt); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	u.CreatedAt = time.Unix(createdAt, 0).UTC()
	return &u, nil
}

// InsertUser creates the user and its zeroed stats row in one transaction.
func (r *SQLiteRepo) InsertUser(ctx context.Context, u *domain.User) error {
	if u == nil {
		return errors.New("nil user")
	}

	created := u.CreatedAt.UTC().Unix()
	if u.CreatedAt.IsZero() {
		created = time.Now().UTC().Unix()
	}

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback() }()

	if _, err := tx.ExecContext(ctx, `
		INSERT INTO users (telegram_id, surname, name, patronymic, created_at)
		VALUES (?, ?, ?, ?, ?)`,
		u.TelegramID, u.Surname, u.Name, u.Patronymic, created,
	); err != nil {
		return err
	}
	if _, err := tx.ExecContext(ctx, `
		INSERT INTO stats (user_id, correct_num, incorrect_num)
		VALUES (?, 0, 0)`,
		u.TelegramID,
	); err != nil {
		return err
	}
	return tx.Commit()
}

// IncrementCorrect atomically bumps the correct counter.
func (r *SQLiteRepo) IncrementCorrect(ctx context.Context, telegramID int64) error {
	return r.bump(ctx, telegramID, "correct_num")
}

// IncrementIncorrect atomically bumps the incorrect counter.
func (r *SQLiteRepo) IncrementIncorrect(ctx context.Context, telegramID int64) error {
	return r.bump(ctx, telegramID, "incorrect_num")
}

func (r *SQLiteRepo) bump(ctx context.Context, telegramID int64, column string) error {
	// column is one of two fixed identifiers, never user input.
	res, err := r.db.ExecContext(ctx,
		"UPDATE stats SET "+column+" = "+column+" + 1 WHERE user_id = ?",
		telegramID,
	)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

// GetStats returns the validation counters for a user or ErrNotFound.
func (r *SQLiteRepo) GetStats(ctx context.Context, telegramID int64) (*domain.Stats, error) {
	row := r.db.QueryRowContext(ctx, `
		SELECT user_id, correct_num, incorrect_num
		FROM stats
		WHERE user_id = ?`,
		telegramID,
	)

	var s domain.Stats
	if err := row.Scan(&s.TelegramID, &s.Correct, &s.Incorrect); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &s, nil
}

// UpsertSchedule inserts or replaces the notification cadence for a user.
func (r *SQLiteRepo) UpsertSchedule(ctx context.Context, telegramID int64, intervalMinutes int) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO scheduler (user_id, interval_minutes)
		VALUES (?, ?)
		ON CONFLICT(user_id) DO UPDATE SET
			interval_minutes = excluded.interval_minutes`,
		telegramID, intervalMinutes,
	)
	return err
}

// DeleteSchedule removes the schedule row for a user, if any.
func (r *SQLiteRepo) DeleteSchedule(ctx context.Context, telegramID int64) error {
	_, err := r.db.ExecContext(ctx, `
		DELETE FROM scheduler
		WHERE user_id = ?`,
		telegramID,
	)
	return err
}

// ListSchedules returns every persisted schedule entry.
func (r *SQLiteRepo) ListSchedules(ctx context.Context) ([]domain.ScheduleEntry, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT user_id, interval_minutes
		FROM scheduler`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var res []domain.ScheduleEntry
	for rows.Next() {
		var e domain.ScheduleEntry
		if err := rows.Scan(&e.TelegramID, &e.IntervalMinutes); err != nil {
			return nil, err
		}
		res = append(res, e)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return res, nil
}

// LogAction records a handled message for a registered user. Messages from
// unknown users are dropped.
func (r *SQLiteRepo) LogAction(ctx context.Context, telegramID int64, message string) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO actions (message, timestamp, user_id)
		SELECT ?, ?, ?
		WHERE EXISTS (SELECT 1 FROM users WHERE telegram_id = ?)`,
		message, time.Now().UTC().Unix(), telegramID, telegramID,
	)
	return err
}

// Explain asks SQLite to plan the query without executing it. The returned
// error, if any, carries the engine's diagnosis of the statement.
func (r *SQLiteRepo) Explain(ctx context.Context, query string) error {
	rows, err := r.db.QueryContext(ctx, "EXPLAIN "+query)
	if err != nil {
		return err
	}
	return rows.Close()
}

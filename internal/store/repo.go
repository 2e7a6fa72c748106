package store

import (
	"context"
	"errors"

	"github.com/Lookingforcommit/sql-ai-bot/internal/domain"
)

// ErrNotFound is returned by lookups when no matching row exists.
var ErrNotFound = errors.New("not found")

// Repo defines storage operations for users, validation stats,
// notification schedules and the action log.
type Repo interface {
	FindUser(ctx context.Context, telegramID int64) (*domain.User, error)
	// InsertUser creates the user together with a zeroed stats row in a
	// single transaction.
	InsertUser(ctx context.Context, u *domain.User) error

	IncrementCorrect(ctx context.Context, telegramID int64) error
	IncrementIncorrect(ctx context.Context, telegramID int64) error
	GetStats(ctx context.Context, telegramID int64) (*domain.Stats, error)

	UpsertSchedule(ctx context.Context, telegramID int64, intervalMinutes int) error
	DeleteSchedule(ctx context.Context, telegramID int64) error
	ListSchedules(ctx context.Context) ([]domain.ScheduleEntry, error)

	// LogAction records a handled message for a registered user. No-op for
	// unknown users.
	LogAction(ctx context.Context, telegramID int64, message string) error

	// Explain runs EXPLAIN over the given SQL without executing it.
	Explain(ctx context.Context, query string) error

	Close() error
}

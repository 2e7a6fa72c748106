package store

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Lookingforcommit/sql-ai-bot/internal/domain"
)

func openTestRepo(t *testing.T) *SQLiteRepo {
	t.Helper()
	repo, err := OpenSQLite(context.Background(), filepath.Join(t.TempDir(), "test.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = repo.Close() })
	return repo
}

func insertTestUser(t *testing.T, repo *SQLiteRepo, id int64) {
	t.Helper()
	require.NoError(t, repo.InsertUser(context.Background(), &domain.User{
		TelegramID: id,
		Surname:    "Ivanov",
		Name:       "Petr",
		Patronymic: "Sergeevich",
		CreatedAt:  time.Now().UTC(),
	}))
}

func TestInsertAndFindUser(t *testing.T) {
	repo := openTestRepo(t)
	ctx := context.Background()

	_, err := repo.FindUser(ctx, 1)
	require.ErrorIs(t, err, ErrNotFound)

	insertTestUser(t, repo, 1)

	u, err := repo.FindUser(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, int64(1), u.TelegramID)
	assert.Equal(t, "Ivanov", u.Surname)
	assert.Equal(t, "Petr", u.Name)
	assert.Equal(t, "Sergeevich", u.Patronymic)

	// Identity is unique; a second registration must fail.
	err = repo.InsertUser(ctx, &domain.User{TelegramID: 1, Surname: "x", Name: "y", Patronymic: "z"})
	require.Error(t, err)
}

func TestInsertUserCreatesZeroedStats(t *testing.T) {
	repo := openTestRepo(t)
	insertTestUser(t, repo, 2)

	s, err := repo.GetStats(context.Background(), 2)
	require.NoError(t, err)
	assert.Equal(t, 0, s.Correct)
	assert.Equal(t, 0, s.Incorrect)
}

func TestCounterIncrements(t *testing.T) {
	repo := openTestRepo(t)
	ctx := context.Background()
	insertTestUser(t, repo, 3)

	require.NoError(t, repo.IncrementCorrect(ctx, 3))
	require.NoError(t, repo.IncrementCorrect(ctx, 3))
	require.NoError(t, repo.IncrementIncorrect(ctx, 3))

	s, err := repo.GetStats(ctx, 3)
	require.NoError(t, err)
	assert.Equal(t, 2, s.Correct)
	assert.Equal(t, 1, s.Incorrect)

	require.ErrorIs(t, repo.IncrementCorrect(ctx, 99), ErrNotFound)
}

func TestScheduleUpsertAndDelete(t *testing.T) {
	repo := openTestRepo(t)
	ctx := context.Background()
	insertTestUser(t, repo, 4)

	require.NoError(t, repo.UpsertSchedule(ctx, 4, 10))
	require.NoError(t, repo.UpsertSchedule(ctx, 4, 30))

	entries, err := repo.ListSchedules(ctx)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, domain.ScheduleEntry{TelegramID: 4, IntervalMinutes: 30}, entries[0])

	require.NoError(t, repo.DeleteSchedule(ctx, 4))
	entries, err = repo.ListSchedules(ctx)
	require.NoError(t, err)
	assert.Empty(t, entries)

	// Deleting an absent row is not an error at the store level.
	require.NoError(t, repo.DeleteSchedule(ctx, 4))
}

func TestLogActionOnlyForRegisteredUsers(t *testing.T) {
	repo := openTestRepo(t)
	ctx := context.Background()
	insertTestUser(t, repo, 5)

	require.NoError(t, repo.LogAction(ctx, 5, "/check_sql SELECT 1"))
	require.NoError(t, repo.LogAction(ctx, 6, "hello")) // unknown user, dropped

	var n int
	require.NoError(t, repo.db.QueryRow("SELECT COUNT(*) FROM actions").Scan(&n))
	assert.Equal(t, 1, n)
}

func TestExplain(t *testing.T) {
	repo := openTestRepo(t)
	ctx := context.Background()

	require.NoError(t, repo.Explain(ctx, "SELECT 1"))
	require.Error(t, repo.Explain(ctx, "SELEC 1"))
}

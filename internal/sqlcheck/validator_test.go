package sqlcheck

import (
	"context"
	"errors"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/Lookingforcommit/sql-ai-bot/internal/store"
)

type fakeExplainer struct{ err error }

func (f fakeExplainer) Explain(context.Context, string) error { return f.err }

func openValidator(t *testing.T) *Validator {
	t.Helper()
	repo, err := store.OpenSQLite(context.Background(), filepath.Join(t.TempDir(), "test.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = repo.Close() })
	return New(repo)
}

func TestValidateAccepted(t *testing.T) {
	v := openValidator(t)

	o := v.Validate(context.Background(), "SELECT * FROM users")
	require.IsType(t, Accepted{}, o)
}

func TestValidateSyntaxError(t *testing.T) {
	v := openValidator(t)

	o := v.Validate(context.Background(), "SELEC * FROM users")
	re, ok := o.(RecoverableError)
	require.True(t, ok, "want RecoverableError, got %#v", o)
	require.Contains(t, re.Message, "syntax error")
}

func TestValidateUnknownTableIsRecoverable(t *testing.T) {
	v := openValidator(t)

	o := v.Validate(context.Background(), "SELECT * FROM no_such_table")
	require.IsType(t, RecoverableError{}, o)
}

func TestValidateIdempotentClassification(t *testing.T) {
	v := openValidator(t)
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		require.IsType(t, Accepted{}, v.Validate(ctx, "SELECT 1"))
		require.IsType(t, RecoverableError{}, v.Validate(ctx, "SELEC 1"))
	}
}

func TestValidateUnrelatedError(t *testing.T) {
	v := New(fakeExplainer{err: errors.New("database is locked")})

	o := v.Validate(context.Background(), "SELECT 1")
	require.IsType(t, UnrelatedError{}, o)
}

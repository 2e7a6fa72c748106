// Package sqlcheck classifies user-submitted SQL by asking the live SQLite
// engine to plan it.
package sqlcheck

import (
	"context"
	"errors"

	sqlite "modernc.org/sqlite"
	sqlite3 "modernc.org/sqlite/lib"
)

// Explainer plans a query without executing it. store.SQLiteRepo satisfies
// this.
type Explainer interface {
	Explain(ctx context.Context, query string) error
}

// Outcome is the classification of one validation attempt.
type Outcome interface{ isOutcome() }

// Accepted means the engine planned the query without complaint.
type Accepted struct{}

// RecoverableError is a syntax-class failure the diagnostic assistant can
// help with.
type RecoverableError struct{ Message string }

// UnrelatedError is any other failure. Counted like Accepted: only
// syntax-class errors are treated as incorrect.
type UnrelatedError struct{ Message string }

func (Accepted) isOutcome()         {}
func (RecoverableError) isOutcome() {}
func (UnrelatedError) isOutcome()   {}

// Validator checks query feasibility against the store.
type Validator struct{ db Explainer }

// New creates a Validator over the given Explainer.
func New(db Explainer) *Validator {
	return &Validator{db: db}
}

// Validate classifies the query. Classification is a pure function of the
// query and store state; it mutates nothing.
func (v *Validator) Validate(ctx context.Context, query string) Outcome {
	err := v.db.Explain(ctx, query)
	if err == nil {
		return Accepted{}
	}
	var se *sqlite.Error
	if errors.As(err, &se) && se.Code()&0xff == sqlite3.SQLITE_ERROR {
		return RecoverableError{Message: err.Error()}
	}
	return UnrelatedError{Message: err.Error()}
}

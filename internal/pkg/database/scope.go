package database

import (
	"context"
	"errors"
)

// Session is the unit of work a scope finishes. Implementations are
// expected to be begun already when handed to RunScope.
type Session interface {
	Commit(ctx context.Context) error
	Rollback(ctx context.Context) error
}

// ErrNestedScope is returned when a scope is entered from inside another one
var ErrNestedScope = errors.New("transaction scope already active")

// CommitError reports a failed commit on the success path. The session is
// not rolled back afterwards; nothing of the scope has been committed.
type CommitError struct {
	Err error
}

func (e *CommitError) Error() string {
	return "failed to commit transaction: " + e.Err.Error()
}

func (e *CommitError) Unwrap() error {
	return e.Err
}

type scopeKey struct{}

// InScope reports whether ctx belongs to an active transaction scope
func InScope(ctx context.Context) bool {
	active, _ := ctx.Value(scopeKey{}).(bool)
	return active
}

// RunScope runs fn and then commits the session if fn returned nil, or rolls
// it back otherwise. The error returned by fn is passed through untouched and
// a panic inside fn is re-raised after the rollback. Exactly one of Commit or
// Rollback is called per invocation.
func RunScope(ctx context.Context, session Session, fn func(ctx context.Context) error) (err error) {
	// finishing must still happen for a request that was cancelled mid-body
	finishCtx := context.WithoutCancel(ctx)

	if InScope(ctx) {
		_ = session.Rollback(finishCtx)
		return ErrNestedScope
	}

	done := false
	defer func() {
		if done {
			return
		}
		p := recover()
		_ = session.Rollback(finishCtx)
		if p != nil {
			panic(p)
		}
	}()

	bodyErr := fn(context.WithValue(ctx, scopeKey{}, true))
	done = true

	if bodyErr != nil {
		_ = session.Rollback(finishCtx)
		return bodyErr
	}

	if err := session.Commit(finishCtx); err != nil {
		return &CommitError{Err: err}
	}
	return nil
}

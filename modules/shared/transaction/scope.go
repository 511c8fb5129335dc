// Package transaction provides transaction management abstractions.
package transaction

import "context"

// Scope manages the lifecycle of a transaction.
//
// Implementations (e.g., Spanner read-write, read-only) handle
// the concrete transaction lifecycle: begin, commit/rollback, and retry.
type Scope interface {
	// Execute runs the given function within a transaction.
	// The transaction is committed if fn returns nil, rolled back otherwise.
	// The ctx passed to fn contains the transaction for repositories to use.
	Execute(ctx context.Context, fn func(ctx context.Context) error) error
}

// ExecuteWithResult runs fn within a transaction and returns the result.
func ExecuteWithResult[T any](ctx context.Context, scope Scope, fn func(ctx context.Context) (T, error)) (T, error) {
	var result T
	err := scope.Execute(ctx, func(ctx context.Context) error {
		var fnErr error
		result, fnErr = fn(ctx)
		return fnErr
	})
	return result, err
}

// Direct runs fn without a transaction. It backs the in-memory storage mode,
// where repositories have no transactional context to share.
type Direct struct{}

func (Direct) Execute(ctx context.Context, fn func(ctx context.Context) error) error {
	return fn(ctx)
}

var _ Scope = Direct{}

package transaction_test

import (
	"context"
	"errors"
	"testing"

	"github.com/rai/shop-workflow-go/modules/shared/transaction"
)

type mockScope struct {
	executeFn func(ctx context.Context, fn func(ctx context.Context) error) error
}

func (m *mockScope) Execute(ctx context.Context, fn func(ctx context.Context) error) error {
	return m.executeFn(ctx, fn)
}

func passThrough() *mockScope {
	return &mockScope{
		executeFn: func(ctx context.Context, fn func(ctx context.Context) error) error {
			return fn(ctx)
		},
	}
}

func TestExecuteWithResult(t *testing.T) {
	errFn := errors.New("fn failed")
	errCommit := errors.New("commit failed")

	tests := []struct {
		name    string
		scope   transaction.Scope
		fn      func(ctx context.Context) (string, error)
		want    string
		wantErr error
	}{
		{
			name:  "returns the value on commit",
			scope: passThrough(),
			fn:    func(ctx context.Context) (string, error) { return "order_canceled", nil },
			want:  "order_canceled",
		},
		{
			name:    "propagates fn error",
			scope:   passThrough(),
			fn:      func(ctx context.Context) (string, error) { return "", errFn },
			wantErr: errFn,
		},
		{
			name: "propagates commit error",
			scope: &mockScope{
				executeFn: func(ctx context.Context, fn func(ctx context.Context) error) error {
					_ = fn(ctx)
					return errCommit
				},
			},
			fn:      func(ctx context.Context) (string, error) { return "goods_picked", nil },
			want:    "goods_picked",
			wantErr: errCommit,
		},
		{
			name:  "direct scope runs fn inline",
			scope: transaction.Direct{},
			fn:    func(ctx context.Context) (string, error) { return "created", nil },
			want:  "created",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := transaction.ExecuteWithResult(context.Background(), tt.scope, tt.fn)
			if !errors.Is(err, tt.wantErr) {
				t.Fatalf("expected error %v, got %v", tt.wantErr, err)
			}
			if got != tt.want {
				t.Errorf("expected %q, got %q", tt.want, got)
			}
		})
	}
}

func TestExecuteWithResult_RetriedAttemptKeepsLastResult(t *testing.T) {
	attempts := 0
	scope := &mockScope{
		executeFn: func(ctx context.Context, fn func(ctx context.Context) error) error {
			// emulate an aborted first attempt
			_ = fn(ctx)
			return fn(ctx)
		},
	}

	got, err := transaction.ExecuteWithResult(context.Background(), scope, func(ctx context.Context) (int, error) {
		attempts++
		return attempts, nil
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got != 2 {
		t.Errorf("expected result of second attempt, got %d", got)
	}
}

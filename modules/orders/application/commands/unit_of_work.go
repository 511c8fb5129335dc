package commands

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/rai/shop-workflow-go/internal/platform/eventbus"
	"github.com/rai/shop-workflow-go/modules/orders/domain"
	"github.com/rai/shop-workflow-go/modules/shared/transaction"
)

// Locker serializes work on one order across goroutines or processes.
type Locker interface {
	Lock(ctx context.Context, key string) (unlock func(), err error)
}

// Deps are the collaborators shared by the order command handlers.
type Deps struct {
	Repo     domain.OrderRepository
	TxScope  transaction.Scope
	Locker   Locker
	Handlers eventbus.HandlerRegistry
	// MaxEventDepth bounds how deeply handlers may nest event publishing during flush (default: 10).
	MaxEventDepth int
	Logger        *slog.Logger
}

// unitOfWork runs fn under the order's lock and inside a transaction.
// Domain events raised by the saved order are buffered and only handed to
// subscribers after the transaction committed and the lock was released, so
// a rolled back transition never notifies anyone and a slow subscriber never
// holds the order.
type unitOfWork struct {
	deps Deps
}

func newUnitOfWork(deps Deps) unitOfWork {
	if deps.Logger == nil {
		deps.Logger = slog.Default()
	}
	return unitOfWork{deps: deps}
}

func (u unitOfWork) run(ctx context.Context, orderKey string, fn func(ctx context.Context) (*domain.Order, error)) (*domain.Order, error) {
	order, buffered, err := u.commit(ctx, orderKey, fn)
	if err != nil {
		return nil, err
	}

	// The order lock is already released here.
	if err := buffered.Flush(ctx); err != nil {
		// The order is committed; subscribers own their failures.
		u.deps.Logger.Error("dispatching order events",
			slog.String("order_id", order.ID().String()),
			slog.Any("error", err),
		)
	}
	return order, nil
}

func (u unitOfWork) commit(ctx context.Context, orderKey string, fn func(ctx context.Context) (*domain.Order, error)) (*domain.Order, *eventbus.TransactionalEventBus, error) {
	if orderKey != "" && u.deps.Locker != nil {
		unlock, err := u.deps.Locker.Lock(ctx, "orders/"+orderKey)
		if err != nil {
			return nil, nil, fmt.Errorf("locking order: %w", err)
		}
		defer unlock()
	}

	var buffered *eventbus.TransactionalEventBus
	order, err := transaction.ExecuteWithResult(ctx, u.deps.TxScope, func(ctx context.Context) (*domain.Order, error) {
		// Created inside the closure so a retried transaction starts clean
		buffered = eventbus.NewTransactional(u.deps.Handlers, u.deps.MaxEventDepth)

		order, err := fn(ctx)
		if err != nil {
			return nil, err
		}
		if err := u.deps.Repo.Save(ctx, order); err != nil {
			return nil, fmt.Errorf("saving order: %w", err)
		}
		if err := buffered.Publish(ctx, order.PopDomainEvents()...); err != nil {
			return nil, fmt.Errorf("publishing events: %w", err)
		}
		return order, nil
	})
	if err != nil {
		return nil, nil, err
	}
	return order, buffered, nil
}

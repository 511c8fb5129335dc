// Package refund hands refund requests to the payment provider.
package refund

import (
	"context"
	"log/slog"

	"github.com/rai/shop-workflow-go/modules/orders/domain"
)

// LoggingRefunder records refund requests for staff to settle by hand.
// Deployments with a payment provider integration replace it.
type LoggingRefunder struct {
	logger *slog.Logger
}

func NewLoggingRefunder(logger *slog.Logger) *LoggingRefunder {
	if logger == nil {
		logger = slog.Default()
	}
	return &LoggingRefunder{logger: logger}
}

func (r *LoggingRefunder) Refund(ctx context.Context, order *domain.Order) error {
	r.logger.InfoContext(ctx, "refund requested",
		slog.String("order_id", order.ID().String()),
		slog.String("number", order.Number()),
		slog.String("amount", order.AmountPaid().String()),
	)
	return nil
}

package persistence

import (
	"context"
	"fmt"
	"time"

	"cloud.google.com/go/spanner"
	"google.golang.org/api/iterator"

	platformspanner "github.com/rai/shop-workflow-go/internal/platform/spanner"
	"github.com/rai/shop-workflow-go/modules/orders/fulfillment"
	"github.com/rai/shop-workflow-go/modules/shared/types"
)

// SpannerDeliveryRepository stores deliveries in Deliveries and
// DeliveryItems, the latter interleaved in the former.
type SpannerDeliveryRepository struct {
	client *spanner.Client
}

func NewSpannerDeliveryRepository(client *spanner.Client) *SpannerDeliveryRepository {
	return &SpannerDeliveryRepository{client: client}
}

func (r *SpannerDeliveryRepository) FindByOrder(ctx context.Context, orderID types.OrderID) ([]*fulfillment.Delivery, error) {
	reader, ok := platformspanner.ReadTransactionFromContext(ctx)
	if !ok {
		roTx := r.client.ReadOnlyTransaction()
		defer roTx.Close()
		reader = roTx
	}

	iter := reader.Query(ctx, spanner.Statement{
		SQL: `SELECT DeliveryID, ShippingID, ShippingMethod, FulfilledAt, ShippedAt
		      FROM Deliveries@{FORCE_INDEX=DeliveriesByOrderID}
		      WHERE OrderID = @orderID
		      ORDER BY FulfilledAt`,
		Params: map[string]any{"orderID": orderID.String()},
	})
	defer iter.Stop()

	var deliveries []*fulfillment.Delivery
	for {
		row, err := iter.Next()
		if err == iterator.Done {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("failed to query deliveries: %w", err)
		}

		var id, shippingID, shippingMethod string
		var fulfilledAt time.Time
		var shippedAt spanner.NullTime
		if err := row.Columns(&id, &shippingID, &shippingMethod, &fulfilledAt, &shippedAt); err != nil {
			return nil, fmt.Errorf("failed to scan delivery: %w", err)
		}

		d := &fulfillment.Delivery{
			ID:             id,
			OrderID:        orderID,
			ShippingID:     shippingID,
			ShippingMethod: shippingMethod,
			FulfilledAt:    fulfilledAt,
		}
		if shippedAt.Valid {
			t := shippedAt.Time
			d.ShippedAt = &t
		}
		if d.Items, err = r.readItems(ctx, reader, id); err != nil {
			return nil, err
		}
		deliveries = append(deliveries, d)
	}
	return deliveries, nil
}

func (r *SpannerDeliveryRepository) readItems(ctx context.Context, reader platformspanner.ReadTransaction, deliveryID string) ([]fulfillment.DeliveryItem, error) {
	iter := reader.Read(ctx, "DeliveryItems",
		spanner.KeyRange{
			Start: spanner.Key{deliveryID},
			End:   spanner.Key{deliveryID},
			Kind:  spanner.ClosedClosed,
		},
		[]string{"OrderItemID", "Quantity"},
	)
	defer iter.Stop()

	var items []fulfillment.DeliveryItem
	for {
		row, err := iter.Next()
		if err == iterator.Done {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("failed to read delivery items: %w", err)
		}
		var itemID string
		var quantity int64
		if err := row.Columns(&itemID, &quantity); err != nil {
			return nil, fmt.Errorf("failed to scan delivery item: %w", err)
		}
		items = append(items, fulfillment.DeliveryItem{OrderItemID: itemID, Quantity: int(quantity)})
	}
	return items, nil
}

// Save replaces the delivery and its items. Inside a read-write transaction
// the rows are written with DML: the ledger reloads deliveries on every call
// and must see writes made earlier in the same transaction.
func (r *SpannerDeliveryRepository) Save(ctx context.Context, d *fulfillment.Delivery) error {
	if txn, ok := platformspanner.ReadWriteTxFromContext(ctx); ok {
		return saveDeliveryInTx(ctx, txn, d)
	}

	mutations := []*spanner.Mutation{
		spanner.Delete("DeliveryItems", spanner.KeyRange{
			Start: spanner.Key{d.ID},
			End:   spanner.Key{d.ID},
			Kind:  spanner.ClosedClosed,
		}),
		spanner.InsertOrUpdate("Deliveries", deliveryColumns, deliveryValues(d)),
	}
	for _, it := range d.Items {
		mutations = append(mutations, spanner.InsertOrUpdate("DeliveryItems",
			[]string{"DeliveryID", "OrderItemID", "Quantity"},
			[]any{d.ID, it.OrderItemID, int64(it.Quantity)},
		))
	}
	if _, err := r.client.Apply(ctx, mutations); err != nil {
		return fmt.Errorf("failed to write delivery: %w", err)
	}
	return nil
}

func (r *SpannerDeliveryRepository) Delete(ctx context.Context, id string) error {
	// ON DELETE CASCADE handles DeliveryItems
	if txn, ok := platformspanner.ReadWriteTxFromContext(ctx); ok {
		_, err := txn.Update(ctx, spanner.Statement{
			SQL:    `DELETE FROM Deliveries WHERE DeliveryID = @id`,
			Params: map[string]any{"id": id},
		})
		if err != nil {
			return fmt.Errorf("failed to delete delivery: %w", err)
		}
		return nil
	}
	if _, err := r.client.Apply(ctx, []*spanner.Mutation{spanner.Delete("Deliveries", spanner.Key{id})}); err != nil {
		return fmt.Errorf("failed to delete delivery: %w", err)
	}
	return nil
}

var deliveryColumns = []string{"DeliveryID", "OrderID", "ShippingID", "ShippingMethod", "FulfilledAt", "ShippedAt"}

func deliveryValues(d *fulfillment.Delivery) []any {
	shippedAt := spanner.NullTime{}
	if d.ShippedAt != nil {
		shippedAt = spanner.NullTime{Time: *d.ShippedAt, Valid: true}
	}
	return []any{d.ID, d.OrderID.String(), d.ShippingID, d.ShippingMethod, d.FulfilledAt, shippedAt}
}

// batchUpdater is the DML surface of *spanner.ReadWriteTransaction.
type batchUpdater interface {
	BatchUpdate(ctx context.Context, stmts []spanner.Statement) ([]int64, error)
}

func saveDeliveryInTx(ctx context.Context, tx batchUpdater, d *fulfillment.Delivery) error {
	if _, err := tx.BatchUpdate(ctx, deliveryStatements(d)); err != nil {
		return fmt.Errorf("failed to write delivery: %w", err)
	}
	return nil
}

// deliveryStatements upserts the delivery row, then rewrites its items.
func deliveryStatements(d *fulfillment.Delivery) []spanner.Statement {
	values := deliveryValues(d)
	params := make(map[string]any, len(deliveryColumns))
	for i, col := range deliveryColumns {
		params[col] = values[i]
	}

	stmts := []spanner.Statement{
		{
			SQL: `INSERT OR UPDATE INTO Deliveries (DeliveryID, OrderID, ShippingID, ShippingMethod, FulfilledAt, ShippedAt)
			      VALUES (@DeliveryID, @OrderID, @ShippingID, @ShippingMethod, @FulfilledAt, @ShippedAt)`,
			Params: params,
		},
		{
			SQL:    `DELETE FROM DeliveryItems WHERE DeliveryID = @DeliveryID`,
			Params: map[string]any{"DeliveryID": d.ID},
		},
	}
	for _, it := range d.Items {
		stmts = append(stmts, spanner.Statement{
			SQL: `INSERT INTO DeliveryItems (DeliveryID, OrderItemID, Quantity)
			      VALUES (@DeliveryID, @OrderItemID, @Quantity)`,
			Params: map[string]any{
				"DeliveryID":  d.ID,
				"OrderItemID": it.OrderItemID,
				"Quantity":    int64(it.Quantity),
			},
		})
	}
	return stmts
}

var _ fulfillment.Repository = (*SpannerDeliveryRepository)(nil)

package persistence

import (
	"context"
	"fmt"
	"time"

	"cloud.google.com/go/spanner"
	"google.golang.org/api/iterator"
	"google.golang.org/grpc/codes"

	platformspanner "github.com/rai/shop-workflow-go/internal/platform/spanner"
	"github.com/rai/shop-workflow-go/modules/orders/domain"
	"github.com/rai/shop-workflow-go/modules/shared/types"
)

var orderColumns = []string{
	"OrderID", "Number", "Status", "Currency", "TotalAmount", "AmountPaid",
	"CustomerRef", "CustomerEmail", "CustomerName", "Anonymous",
	"Extra", "Language", "BaseURI", "UserAgent", "RemoteIP",
	"Version", "CreatedAt", "UpdatedAt",
}

// OrderItems is interleaved in Orders and keyed by (OrderID, Position).
var itemColumns = []string{"ItemID", "Position", "ProductCode", "ProductName", "Quantity", "UnitAmount", "Canceled"}

type SpannerRepository struct {
	client *spanner.Client
}

func NewSpannerRepository(client *spanner.Client) *SpannerRepository {
	return &SpannerRepository{client: client}
}

// Save persists an order after checking its version against the stored row.
// It uses an existing transaction if available, otherwise creates a new one.
func (r *SpannerRepository) Save(ctx context.Context, order *domain.Order) error {
	if txn, ok := platformspanner.ReadWriteTxFromContext(ctx); ok {
		return r.saveWithTx(ctx, txn, order)
	}

	_, err := r.client.ReadWriteTransaction(ctx, func(ctx context.Context, txn *spanner.ReadWriteTransaction) error {
		return r.saveWithTx(ctx, txn, order)
	})
	if err != nil {
		return fmt.Errorf("failed to save order: %w", err)
	}
	return nil
}

func (r *SpannerRepository) saveWithTx(ctx context.Context, tx *spanner.ReadWriteTransaction, order *domain.Order) error {
	orderID := order.ID().String()

	var stored int64
	row, err := tx.ReadRow(ctx, "Orders", spanner.Key{orderID}, []string{"Version"})
	switch {
	case spanner.ErrCode(err) == codes.NotFound:
	case err != nil:
		return fmt.Errorf("failed to read order version: %w", err)
	default:
		if err := row.Columns(&stored); err != nil {
			return fmt.Errorf("failed to scan order version: %w", err)
		}
	}
	if stored != order.Version() {
		return domain.ErrConcurrentModification
	}

	customer := order.Customer()
	req := order.StoredRequest()
	mutations := []*spanner.Mutation{
		// Items are rewritten as a whole; cancellation flips a flag in place
		spanner.Delete("OrderItems", spanner.KeyRange{
			Start: spanner.Key{orderID},
			End:   spanner.Key{orderID},
			Kind:  spanner.ClosedClosed,
		}),
		spanner.InsertOrUpdate("Orders", orderColumns, []any{
			orderID,
			order.Number(),
			order.Status().String(),
			order.Total().Currency(),
			order.Total().Amount(),
			order.AmountPaid().Amount(),
			customer.Ref(),
			customer.Email(),
			customer.Name(),
			customer.IsAnonymous(),
			spanner.NullJSON{Value: order.Extra().Map(), Valid: true},
			req.Language(),
			req.AbsoluteBaseURI(),
			req.UserAgent(),
			req.RemoteIP(),
			stored + 1,
			order.CreatedAt(),
			order.UpdatedAt(),
		}),
	}

	for i, item := range order.Items() {
		mutations = append(mutations, spanner.InsertOrUpdate("OrderItems",
			append([]string{"OrderID"}, itemColumns...),
			[]any{
				orderID,
				item.ID,
				int64(i),
				item.ProductCode,
				item.ProductName,
				int64(item.Quantity),
				item.UnitPrice.Amount(),
				item.Canceled,
			},
		))
	}

	if err := tx.BufferWrite(mutations); err != nil {
		return err
	}
	order.BumpVersion()
	return nil
}

func (r *SpannerRepository) FindByID(ctx context.Context, id types.OrderID) (*domain.Order, error) {
	reader, ok := platformspanner.ReadTransactionFromContext(ctx)
	if !ok {
		// Orders + OrderItems need one snapshot; Single() is only for one read.
		roTx := r.client.ReadOnlyTransaction()
		defer roTx.Close()
		reader = roTx
	}

	row, err := reader.ReadRow(ctx, "Orders", spanner.Key{id.String()}, orderColumns)
	if err != nil {
		if spanner.ErrCode(err) == codes.NotFound {
			return nil, domain.ErrOrderNotFound
		}
		return nil, fmt.Errorf("failed to read order: %w", err)
	}
	return r.scanOrder(ctx, reader, row)
}

func (r *SpannerRepository) FindByStatus(ctx context.Context, status domain.Status, offset, limit int) ([]*domain.Order, int, error) {
	reader, ok := platformspanner.ReadTransactionFromContext(ctx)
	if !ok {
		roTx := r.client.ReadOnlyTransaction()
		defer roTx.Close()
		reader = roTx
	}

	countIter := reader.Query(ctx, spanner.Statement{
		SQL:    `SELECT COUNT(*) FROM Orders WHERE Status = @status`,
		Params: map[string]any{"status": status.String()},
	})
	defer countIter.Stop()

	var total int64
	countRow, err := countIter.Next()
	if err != nil && err != iterator.Done {
		return nil, 0, fmt.Errorf("failed to count orders: %w", err)
	}
	if countRow != nil {
		if err := countRow.Columns(&total); err != nil {
			return nil, 0, fmt.Errorf("failed to scan count: %w", err)
		}
	}

	iter := reader.Query(ctx, spanner.Statement{
		SQL: `SELECT OrderID, Number, Status, Currency, TotalAmount, AmountPaid,
		             CustomerRef, CustomerEmail, CustomerName, Anonymous,
		             Extra, Language, BaseURI, UserAgent, RemoteIP,
		             Version, CreatedAt, UpdatedAt
		      FROM Orders@{FORCE_INDEX=OrdersByStatus}
		      WHERE Status = @status
		      ORDER BY CreatedAt DESC
		      LIMIT @limit OFFSET @offset`,
		Params: map[string]any{
			"status": status.String(),
			"limit":  int64(limit),
			"offset": int64(offset),
		},
	})
	defer iter.Stop()

	var orders []*domain.Order
	for {
		row, err := iter.Next()
		if err == iterator.Done {
			break
		}
		if err != nil {
			return nil, 0, fmt.Errorf("failed to query orders: %w", err)
		}
		order, err := r.scanOrder(ctx, reader, row)
		if err != nil {
			return nil, 0, err
		}
		orders = append(orders, order)
	}

	return orders, int(total), nil
}

func (r *SpannerRepository) scanOrder(ctx context.Context, reader platformspanner.ReadTransaction, row *spanner.Row) (*domain.Order, error) {
	var (
		orderID, number, status, currency        string
		totalAmount, amountPaid, version         int64
		customerRef, customerEmail, customerName string
		anonymous                                bool
		extra                                    spanner.NullJSON
		language, baseURI, userAgent, remoteIP   string
		createdAt, updatedAt                     time.Time
	)
	if err := row.Columns(
		&orderID, &number, &status, &currency, &totalAmount, &amountPaid,
		&customerRef, &customerEmail, &customerName, &anonymous,
		&extra, &language, &baseURI, &userAgent, &remoteIP,
		&version, &createdAt, &updatedAt,
	); err != nil {
		return nil, fmt.Errorf("failed to scan order: %w", err)
	}

	id, err := types.ParseOrderID(orderID)
	if err != nil {
		return nil, fmt.Errorf("failed to parse order id: %w", err)
	}
	customer, err := domain.NewCustomer(customerRef, customerEmail, customerName, anonymous)
	if err != nil {
		return nil, fmt.Errorf("order %s: %w", orderID, err)
	}
	req, err := domain.NewStoredRequest(language, baseURI, userAgent, remoteIP)
	if err != nil {
		return nil, fmt.Errorf("order %s: %w", orderID, err)
	}
	items, err := r.readOrderItems(ctx, reader, orderID, currency)
	if err != nil {
		return nil, err
	}

	return domain.Reconstitute(
		id,
		number,
		customer,
		items,
		domain.Status(status),
		types.MustNewMoney(totalAmount, currency),
		types.MustNewMoney(amountPaid, currency),
		domain.RestoreExtra(extraValues(extra)),
		req,
		version,
		createdAt,
		updatedAt,
	), nil
}

func (r *SpannerRepository) readOrderItems(ctx context.Context, reader platformspanner.ReadTransaction, orderID, currency string) ([]domain.OrderItem, error) {
	iter := reader.Read(ctx, "OrderItems",
		spanner.KeyRange{
			Start: spanner.Key{orderID},
			End:   spanner.Key{orderID},
			Kind:  spanner.ClosedClosed,
		},
		itemColumns,
	)
	defer iter.Stop()

	var items []domain.OrderItem
	for {
		row, err := iter.Next()
		if err == iterator.Done {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("failed to read order items: %w", err)
		}

		var itemID, productCode, productName string
		var position, quantity, unitAmount int64
		var canceled bool
		if err := row.Columns(&itemID, &position, &productCode, &productName, &quantity, &unitAmount, &canceled); err != nil {
			return nil, fmt.Errorf("failed to scan order item: %w", err)
		}

		items = append(items, domain.OrderItem{
			ID:          itemID,
			ProductCode: productCode,
			ProductName: productName,
			Quantity:    int(quantity),
			UnitPrice:   types.MustNewMoney(unitAmount, currency),
			Canceled:    canceled,
		})
	}

	return items, nil
}

func extraValues(j spanner.NullJSON) map[string]string {
	values := map[string]string{}
	if !j.Valid {
		return values
	}
	m, ok := j.Value.(map[string]any)
	if !ok {
		return values
	}
	for k, v := range m {
		if s, ok := v.(string); ok {
			values[k] = s
		}
	}
	return values
}

var _ domain.OrderRepository = (*SpannerRepository)(nil)

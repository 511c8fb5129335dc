package catalog_test

import (
	"context"
	"errors"
	"testing"

	"github.com/rai/shop-workflow-go/modules/orders/domain"
	"github.com/rai/shop-workflow-go/modules/orders/fulfillment"
	"github.com/rai/shop-workflow-go/modules/orders/infrastructure/persistence"
	"github.com/rai/shop-workflow-go/modules/orders/workflow"
	"github.com/rai/shop-workflow-go/modules/orders/workflow/catalog"
	"github.com/rai/shop-workflow-go/modules/shared/types"
)

type mockRefunder struct {
	refundFn func(ctx context.Context, order *domain.Order) error
	calls    int
}

func (m *mockRefunder) Refund(ctx context.Context, order *domain.Order) error {
	m.calls++
	if m.refundFn != nil {
		return m.refundFn(ctx, order)
	}
	return nil
}

type harness struct {
	machine    *workflow.Machine
	deliveries *persistence.InMemoryDeliveryRepository
	refunder   *mockRefunder
}

func newHarness(t *testing.T, names ...string) *harness {
	t.Helper()
	h := &harness{
		deliveries: persistence.NewInMemoryDeliveryRepository(),
		refunder:   &mockRefunder{},
	}
	mods, err := catalog.Build(names, catalog.Dependencies{Deliveries: h.deliveries, Refunder: h.refunder})
	if err != nil {
		t.Fatalf("building modules: %v", err)
	}
	table, err := workflow.Compose(mods...)
	if err != nil {
		t.Fatalf("composing: %v", err)
	}
	h.machine = workflow.NewMachine(table, workflow.Config{})
	return h
}

// fire applies name and returns the resulting order, failing the test on error.
func (h *harness) fire(t *testing.T, order *domain.Order, name string, in workflow.Input) *domain.Order {
	t.Helper()
	res, err := h.machine.Fire(context.Background(), order, name, "staff", in)
	if err != nil {
		t.Fatalf("firing %s from %s: %v", name, order.Status(), err)
	}
	return res.Order
}

func newOrder(t *testing.T, quantity int) *domain.Order {
	t.Helper()
	customer, err := domain.NewCustomer("", "guest@example.com", "Guest", true)
	if err != nil {
		t.Fatalf("creating customer: %v", err)
	}
	request, err := domain.NewStoredRequest("de-DE", "https://shop.example.com/", "test-agent", "192.0.2.1")
	if err != nil {
		t.Fatalf("creating stored request: %v", err)
	}
	order, err := domain.NewOrder("", customer, []domain.ItemSpec{
		{ProductCode: "MUG", ProductName: "Mug", Quantity: quantity, UnitPrice: types.MustNewMoney(1000, "EUR")},
	}, "EUR", domain.Extra{}, request)
	if err != nil {
		t.Fatalf("creating order: %v", err)
	}
	return order
}

func pay(t *testing.T, order *domain.Order, amount int64) {
	t.Helper()
	if err := order.AddPayment(types.MustNewMoney(amount, "EUR")); err != nil {
		t.Fatalf("adding payment: %v", err)
	}
}

func TestBuild_UnknownModule(t *testing.T) {
	_, err := catalog.Build([]string{catalog.NameBase, "express_lane"}, catalog.Dependencies{})
	if !errors.Is(err, workflow.ErrUnknownModule) {
		t.Fatalf("expected ErrUnknownModule, got %v", err)
	}
}

func TestBuild_DeliveryModulesNeedRepository(t *testing.T) {
	for _, name := range []string{catalog.NameCommissionGoods, catalog.NamePartialDelivery} {
		t.Run(name, func(t *testing.T) {
			if _, err := catalog.Build([]string{name}, catalog.Dependencies{}); err == nil {
				t.Fatal("expected error without delivery repository")
			}
		})
	}
}

func TestBuild_ExclusiveShipping(t *testing.T) {
	mods, err := catalog.Build([]string{catalog.NameBase, catalog.NameSimpleShipping, catalog.NamePartialDelivery},
		catalog.Dependencies{Deliveries: persistence.NewInMemoryDeliveryRepository()})
	if err != nil {
		t.Fatalf("building: %v", err)
	}
	if _, err := workflow.Compose(mods...); !errors.Is(err, workflow.ErrExclusiveModules) {
		t.Fatalf("expected ErrExclusiveModules, got %v", err)
	}
}

func TestManualPayment(t *testing.T) {
	tests := []struct {
		name       string
		paid       int64
		wantStatus domain.Status
		wantSteps  int
	}{
		{name: "partial payment keeps waiting", paid: 1000, wantStatus: domain.StatusAwaitingPayment, wantSteps: 1},
		{name: "full payment confirms", paid: 3000, wantStatus: domain.StatusPaymentConfirmed, wantSteps: 2},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := newHarness(t, catalog.NameBase, catalog.NameManualPayment, catalog.NameSimpleShipping, catalog.NameCancel)
			order := h.fire(t, newOrder(t, 3), "awaiting_payment", workflow.Input{})
			pay(t, order, tt.paid)

			res, err := h.machine.Fire(context.Background(), order, "prepayment_deposited", "staff", workflow.Input{})
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if res.Final() != tt.wantStatus {
				t.Errorf("expected %s, got %s", tt.wantStatus, res.Final())
			}
			if len(res.Steps) != tt.wantSteps {
				t.Errorf("expected %d steps, got %d", tt.wantSteps, len(res.Steps))
			}
		})
	}
}

func TestManualPayment_NothingDeposited(t *testing.T) {
	h := newHarness(t, catalog.NameBase, catalog.NameManualPayment)
	order := h.fire(t, newOrder(t, 1), "awaiting_payment", workflow.Input{})

	_, err := h.machine.Fire(context.Background(), order, "prepayment_deposited", "staff", workflow.Input{})

	var te *workflow.TransitionError
	if !errors.As(err, &te) || !errors.Is(err, workflow.ErrGuardRejected) {
		t.Fatalf("expected guard rejection, got %v", err)
	}
	if te.Guard != "payment_deposited" {
		t.Errorf("expected payment_deposited guard, got %s", te.Guard)
	}
}

func TestCancel(t *testing.T) {
	tests := []struct {
		name        string
		paid        int64
		wantStatus  domain.Status
		wantRefunds int
	}{
		{name: "unpaid order is canceled", wantStatus: domain.StatusOrderCanceled},
		{name: "paid order awaits refund", paid: 2000, wantStatus: domain.StatusRefundPayment, wantRefunds: 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := newHarness(t, catalog.NameBase, catalog.NameManualPayment, catalog.NameSimpleShipping, catalog.NameCancel)
			order := h.fire(t, newOrder(t, 2), "awaiting_payment", workflow.Input{})
			if tt.paid > 0 {
				pay(t, order, tt.paid)
			}

			order = h.fire(t, order, "cancel_order", workflow.Input{})
			if order.Status() != tt.wantStatus {
				t.Errorf("expected %s, got %s", tt.wantStatus, order.Status())
			}
			if h.refunder.calls != tt.wantRefunds {
				t.Errorf("expected %d refund requests, got %d", tt.wantRefunds, h.refunder.calls)
			}
		})
	}
}

func TestCancel_RefundCompletesCancellation(t *testing.T) {
	h := newHarness(t, catalog.NameBase, catalog.NameManualPayment, catalog.NameSimpleShipping, catalog.NameCancel)
	order := h.fire(t, newOrder(t, 2), "awaiting_payment", workflow.Input{})
	pay(t, order, 2000)
	order = h.fire(t, order, "prepayment_deposited", workflow.Input{})
	order = h.fire(t, order, "cancel_order", workflow.Input{})

	if err := order.RecordRefund(types.MustNewMoney(500, "EUR")); err != nil {
		t.Fatalf("recording refund: %v", err)
	}
	order = h.fire(t, order, "payment_refunded", workflow.Input{})
	if order.Status() != domain.StatusRefundPayment {
		t.Fatalf("expected refund_payment while money is held, got %s", order.Status())
	}

	if err := order.RecordRefund(types.MustNewMoney(1500, "EUR")); err != nil {
		t.Fatalf("recording refund: %v", err)
	}
	order = h.fire(t, order, "payment_refunded", workflow.Input{})
	if order.Status() != domain.StatusOrderCanceled {
		t.Errorf("expected order_canceled, got %s", order.Status())
	}
}

func TestCancel_RefundFailureKeepsOrder(t *testing.T) {
	h := newHarness(t, catalog.NameBase, catalog.NameManualPayment, catalog.NameCancel)
	errGateway := errors.New("gateway down")
	h.refunder.refundFn = func(ctx context.Context, order *domain.Order) error { return errGateway }

	order := h.fire(t, newOrder(t, 1), "awaiting_payment", workflow.Input{})
	pay(t, order, 1000)

	_, err := h.machine.Fire(context.Background(), order, "cancel_order", "staff", workflow.Input{})
	if !errors.Is(err, workflow.ErrExternalDependency) || !errors.Is(err, errGateway) {
		t.Fatalf("expected external dependency error wrapping the gateway error, got %v", err)
	}
	if order.Status() != domain.StatusAwaitingPayment {
		t.Errorf("expected order to stay awaiting_payment, got %s", order.Status())
	}
}

func TestCancel_RefundFailureKeepsDeliveries(t *testing.T) {
	tests := []struct {
		name           string
		refundErr      error
		wantDeliveries int
	}{
		{name: "refused refund keeps the open delivery", refundErr: errors.New("gateway down"), wantDeliveries: 1},
		{name: "accepted refund withdraws the open delivery", wantDeliveries: 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ctx := context.Background()
			h := newHarness(t, catalog.NameBase, catalog.NameInvoicePayment, catalog.NamePartialDelivery, catalog.NameCancel)
			h.refunder.refundFn = func(ctx context.Context, order *domain.Order) error { return tt.refundErr }

			order := newOrder(t, 2)
			pay(t, order, 2000)
			order = h.fire(t, order, "no_payment_required", workflow.Input{})
			order = h.fire(t, order, "pick_goods", workflow.Input{})
			order = h.fire(t, order, "pack_goods", workflow.Input{
				Deliver: []domain.ItemQuantity{{ItemID: order.Items()[0].ID, Quantity: 1}},
			})

			_, err := h.machine.Fire(ctx, order, "cancel_order", "staff", workflow.Input{})
			if tt.refundErr != nil && !errors.Is(err, tt.refundErr) {
				t.Fatalf("expected refund error, got %v", err)
			}
			if tt.refundErr == nil && err != nil {
				t.Fatalf("unexpected error: %v", err)
			}

			deliveries, err := h.deliveries.FindByOrder(ctx, order.ID())
			if err != nil {
				t.Fatalf("loading deliveries: %v", err)
			}
			if len(deliveries) != tt.wantDeliveries {
				t.Errorf("expected %d deliveries, got %d", tt.wantDeliveries, len(deliveries))
			}
		})
	}
}

func TestCancel_NotFromPickedGoods(t *testing.T) {
	h := newHarness(t, catalog.NameBase, catalog.NameInvoicePayment, catalog.NameSimpleShipping, catalog.NameCancel)
	order := h.fire(t, newOrder(t, 1), "no_payment_required", workflow.Input{})
	order = h.fire(t, order, "pick_goods", workflow.Input{})

	_, err := h.machine.Fire(context.Background(), order, "cancel_order", "staff", workflow.Input{})
	if !errors.Is(err, workflow.ErrGuardRejected) {
		t.Fatalf("expected ErrGuardRejected, got %v", err)
	}

	order = h.fire(t, order, "pack_goods", workflow.Input{})
	order = h.fire(t, order, "cancel_order", workflow.Input{})
	if order.Status() != domain.StatusOrderCanceled {
		t.Errorf("expected order_canceled, got %s", order.Status())
	}
}

func TestManualPayment_NoPaymentRequiredConfirms(t *testing.T) {
	h := newHarness(t, catalog.NameBase, catalog.NameManualPayment, catalog.NameSimpleShipping)
	order := h.fire(t, newOrder(t, 1), "no_payment_required", workflow.Input{})
	if order.Status() != domain.StatusPaymentConfirmed {
		t.Errorf("expected payment_confirmed, got %s", order.Status())
	}
}

func TestSimpleShipping_FullRun(t *testing.T) {
	h := newHarness(t, catalog.NameBase, catalog.NameInvoicePayment, catalog.NameSimpleShipping)
	order := h.fire(t, newOrder(t, 1), "no_payment_required", workflow.Input{})
	for _, name := range []string{"pick_goods", "pack_goods", "prepare_shipping"} {
		order = h.fire(t, order, name, workflow.Input{})
	}
	if order.Status() != domain.StatusOrderShipped {
		t.Fatalf("expected ship_order to follow automatically, got %s", order.Status())
	}
	order = h.fire(t, order, "complete_order", workflow.Input{})
	if order.Status() != domain.StatusOrderCompleted {
		t.Errorf("expected order_completed, got %s", order.Status())
	}
}

func TestCommissionGoods_ShipsEverythingInOneDelivery(t *testing.T) {
	h := newHarness(t, catalog.NameBase, catalog.NameInvoicePayment, catalog.NameCommissionGoods)
	order := h.fire(t, newOrder(t, 4), "no_payment_required", workflow.Input{})
	order = h.fire(t, order, "pick_goods", workflow.Input{})
	order = h.fire(t, order, "pack_goods", workflow.Input{})
	order = h.fire(t, order, "prepare_shipping", workflow.Input{ShippingID: "DHL-1"})

	deliveries, err := h.deliveries.FindByOrder(context.Background(), order.ID())
	if err != nil {
		t.Fatalf("loading deliveries: %v", err)
	}
	if len(deliveries) != 1 {
		t.Fatalf("expected 1 delivery, got %d", len(deliveries))
	}
	d := deliveries[0]
	if d.Quantity(order.Items()[0].ID) != 4 {
		t.Errorf("expected all 4 units, got %d", d.Quantity(order.Items()[0].ID))
	}
	if d.ShippingID != "DHL-1" || !d.IsShipped() {
		t.Errorf("expected delivery shipped under DHL-1, got %+v", d)
	}
}

func TestPartialDelivery_TwoDeliveries(t *testing.T) {
	ctx := context.Background()
	h := newHarness(t, catalog.NameBase, catalog.NameManualPayment, catalog.NamePartialDelivery, catalog.NameCancel)
	order := h.fire(t, newOrder(t, 5), "awaiting_payment", workflow.Input{})
	pay(t, order, 5000)
	order = h.fire(t, order, "prepayment_deposited", workflow.Input{})
	itemID := order.Items()[0].ID

	order = h.fire(t, order, "pick_goods", workflow.Input{})
	order = h.fire(t, order, "pack_goods", workflow.Input{Deliver: []domain.ItemQuantity{{ItemID: itemID, Quantity: 3}}})
	order = h.fire(t, order, "prepare_shipping", workflow.Input{ShippingID: "UPS-1"})
	if order.Status() != domain.StatusOrderShipped {
		t.Fatalf("expected order_shipped, got %s", order.Status())
	}

	order = h.fire(t, order, "pick_goods", workflow.Input{})
	_, err := h.machine.Fire(ctx, order, "pack_goods", "staff",
		workflow.Input{Deliver: []domain.ItemQuantity{{ItemID: itemID, Quantity: 3}}})
	if !errors.Is(err, fulfillment.ErrQuantityExceeded) {
		t.Fatalf("expected ErrQuantityExceeded, got %v", err)
	}

	order = h.fire(t, order, "pack_goods", workflow.Input{Deliver: []domain.ItemQuantity{{ItemID: itemID, Quantity: 2}}})
	order = h.fire(t, order, "prepare_shipping", workflow.Input{ShippingID: "UPS-2"})

	deliveries, err := h.deliveries.FindByOrder(ctx, order.ID())
	if err != nil {
		t.Fatalf("loading deliveries: %v", err)
	}
	if len(deliveries) != 2 {
		t.Fatalf("expected 2 deliveries, got %d", len(deliveries))
	}
	total := 0
	for _, d := range deliveries {
		if !d.IsShipped() {
			t.Errorf("delivery %s not shipped", d.ID)
		}
		total += d.Quantity(itemID)
	}
	if total != 5 {
		t.Errorf("expected 5 units delivered, got %d", total)
	}

	if h.machine.CanTransition(ctx, order, "pick_goods") {
		t.Error("expected nothing left to pick")
	}
}

func TestPartialDelivery_EmptyPackCreatesNoDelivery(t *testing.T) {
	ctx := context.Background()
	h := newHarness(t, catalog.NameBase, catalog.NameInvoicePayment, catalog.NamePartialDelivery)
	order := newOrder(t, 2)
	pay(t, order, 2000)
	order = h.fire(t, order, "no_payment_required", workflow.Input{})
	order = h.fire(t, order, "pick_goods", workflow.Input{})
	order = h.fire(t, order, "pack_goods", workflow.Input{})

	if order.Status() != domain.StatusGoodsPacked {
		t.Errorf("expected goods_packed, got %s", order.Status())
	}
	deliveries, err := h.deliveries.FindByOrder(ctx, order.ID())
	if err != nil {
		t.Fatalf("loading deliveries: %v", err)
	}
	if len(deliveries) != 0 {
		t.Errorf("expected no delivery, got %d", len(deliveries))
	}

	_, err = h.machine.Fire(ctx, order, "prepare_shipping", "staff", workflow.Input{ShippingID: "X"})
	if !errors.Is(err, workflow.ErrGuardRejected) {
		t.Errorf("expected ErrGuardRejected, got %v", err)
	}
}

func TestPartialDelivery_PickingNeedsFullPayment(t *testing.T) {
	h := newHarness(t, catalog.NameBase, catalog.NameManualPayment, catalog.NamePartialDelivery)
	order := h.fire(t, newOrder(t, 2), "awaiting_payment", workflow.Input{})
	pay(t, order, 1000)

	_, err := h.machine.Fire(context.Background(), order, "pick_goods", "staff", workflow.Input{})
	if !errors.Is(err, workflow.ErrGuardRejected) {
		t.Fatalf("expected ErrGuardRejected, got %v", err)
	}
}

func TestVerify_SourcesExtendedByShipping(t *testing.T) {
	tests := []struct {
		name    string
		modules []string
	}{
		{
			name:    "with shipping",
			modules: []string{catalog.NameBase, catalog.NameInvoicePayment, catalog.NameSimpleShipping, catalog.NameVerify},
		},
		{
			name:    "verify listed before shipping",
			modules: []string{catalog.NameBase, catalog.NameVerify, catalog.NameInvoicePayment, catalog.NameSimpleShipping},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := newHarness(t, tt.modules...)
			order := h.fire(t, newOrder(t, 1), "no_payment_required", workflow.Input{})
			order = h.fire(t, order, "pick_goods", workflow.Input{})

			if !h.machine.CanTransition(context.Background(), order, "verify_order") {
				t.Fatal("expected verify_order to be possible from goods_picked")
			}
			order = h.fire(t, order, "verify_order", workflow.Input{})
			order = h.fire(t, order, "pack_goods", workflow.Input{})
			if order.Status() != domain.StatusGoodsPacked {
				t.Errorf("expected goods_packed after verification, got %s", order.Status())
			}
		})
	}
}

package commands_test

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/rai/shop-workflow-go/internal/platform/eventbus"
	"github.com/rai/shop-workflow-go/internal/platform/lock"
	"github.com/rai/shop-workflow-go/modules/orders/application/commands"
	"github.com/rai/shop-workflow-go/modules/orders/domain"
	"github.com/rai/shop-workflow-go/modules/orders/infrastructure/persistence"
	"github.com/rai/shop-workflow-go/modules/orders/workflow"
	"github.com/rai/shop-workflow-go/modules/orders/workflow/catalog"
	"github.com/rai/shop-workflow-go/modules/shared/events"
	"github.com/rai/shop-workflow-go/modules/shared/events/contracts"
	"github.com/rai/shop-workflow-go/modules/shared/transaction"
	"github.com/rai/shop-workflow-go/modules/shared/types"
)

// --- Mocks ---

type mockTransactionScope struct {
	executeFn func(ctx context.Context, fn func(ctx context.Context) error) error
}

func (m *mockTransactionScope) Execute(ctx context.Context, fn func(ctx context.Context) error) error {
	return m.executeFn(ctx, fn)
}

type mockOrderRepository struct {
	domain.OrderRepository
	saveFn func(ctx context.Context, order *domain.Order) error
}

func (m *mockOrderRepository) Save(ctx context.Context, order *domain.Order) error {
	return m.saveFn(ctx, order)
}

// transitionRecorder collects delivered TransitionCompletedEvents.
type transitionRecorder struct {
	mu   sync.Mutex
	evts []contracts.TransitionCompletedEvent
}

func (r *transitionRecorder) Handle(ctx context.Context, event events.Event) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.evts = append(r.evts, event.(contracts.TransitionCompletedEvent))
	return nil
}

func (r *transitionRecorder) targets() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]string, len(r.evts))
	for i, e := range r.evts {
		out[i] = e.To
	}
	return out
}

// orderLocker takes the order lock from inside a subscriber, the way a
// handler that issues a follow-up command would.
type orderLocker struct {
	locker commands.Locker
	mu     sync.Mutex
	errs   []error
}

func (l *orderLocker) Handle(ctx context.Context, event events.Event) error {
	evt := event.(contracts.TransitionCompletedEvent)
	ctx, cancel := context.WithTimeout(ctx, 200*time.Millisecond)
	defer cancel()

	unlock, err := l.locker.Lock(ctx, "orders/"+evt.OrderID)
	if err == nil {
		unlock()
	}
	l.mu.Lock()
	l.errs = append(l.errs, err)
	l.mu.Unlock()
	return nil
}

// chainModule declares created -> s0 followed by a run of automatic steps.
type chainModule struct {
	links int
}

func (m chainModule) Name() string { return "chain" }

func (m chainModule) States() []domain.Status {
	out := []domain.Status{domain.StatusCreated}
	for i := 0; i <= m.links; i++ {
		out = append(out, domain.Status(fmt.Sprintf("s%d", i)))
	}
	return out
}

func (m chainModule) Transitions() []workflow.Transition {
	out := []workflow.Transition{{Name: "start", Sources: []domain.Status{domain.StatusCreated}, Target: "s0"}}
	for i := 1; i <= m.links; i++ {
		out = append(out, workflow.Transition{
			Name:      fmt.Sprintf("link%d", i),
			Sources:   []domain.Status{domain.Status(fmt.Sprintf("s%d", i-1))},
			Target:    domain.Status(fmt.Sprintf("s%d", i)),
			Automatic: true,
		})
	}
	return out
}

type fixture struct {
	deps     commands.Deps
	registry *eventbus.EventHandlerRegistry
	repo     *persistence.InMemoryRepository
	machine  *workflow.Machine
	recorder *transitionRecorder
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	mods, err := catalog.Build(
		[]string{catalog.NameBase, catalog.NameManualPayment, catalog.NameSimpleShipping, catalog.NameCancel},
		catalog.Dependencies{},
	)
	if err != nil {
		t.Fatalf("building modules: %v", err)
	}
	table, err := workflow.Compose(mods...)
	if err != nil {
		t.Fatalf("composing: %v", err)
	}

	registry := eventbus.NewEventHandlerRegistry(nil)
	recorder := &transitionRecorder{}
	if err := registry.Subscribe(contracts.TransitionCompletedEventType, recorder); err != nil {
		t.Fatalf("subscribing: %v", err)
	}

	repo := persistence.NewInMemoryRepository()
	return &fixture{
		deps: commands.Deps{
			Repo:     repo,
			TxScope:  transaction.Direct{},
			Locker:   lock.NewKeyedMutex(),
			Handlers: registry,
		},
		registry: registry,
		repo:     repo,
		machine:  workflow.NewMachine(table, workflow.Config{}),
		recorder: recorder,
	}
}

func (f *fixture) createOrder(t *testing.T, quantity int, unitAmount int64) string {
	t.Helper()
	h := commands.NewCreateOrderHandler(f.deps, f.machine, domain.NewExtraSchema())
	res, err := h.Handle(context.Background(), commands.CreateOrderCommand{
		Customer: commands.CustomerInput{Email: "guest@example.com", Anonymous: true},
		Items:    []commands.ItemInput{{ProductCode: "LAMP", ProductName: "Lamp", Quantity: quantity, UnitAmount: unitAmount}},
		Currency: "EUR",
		Request:  commands.RequestInput{Language: "en", AbsoluteBaseURI: "https://shop.example.com/"},
	})
	if err != nil {
		t.Fatalf("creating order: %v", err)
	}
	return res.OrderID
}

func equal(a, b []string) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

// --- Tests ---

func TestCreateOrderHandler_InitialTransition(t *testing.T) {
	tests := []struct {
		name       string
		unitAmount int64
		want       []string
	}{
		{name: "priced order awaits payment", unitAmount: 1999, want: []string{"awaiting_payment"}},
		{name: "free order is confirmed", unitAmount: 0, want: []string{"no_payment_required", "payment_confirmed"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture(t)
			id := f.createOrder(t, 1, tt.unitAmount)

			if got := f.recorder.targets(); !equal(got, tt.want) {
				t.Errorf("expected events %v, got %v", tt.want, got)
			}
			orderID, _ := types.ParseOrderID(id)
			stored, err := f.repo.FindByID(context.Background(), orderID)
			if err != nil {
				t.Fatalf("finding order: %v", err)
			}
			if last := tt.want[len(tt.want)-1]; stored.Status().String() != last {
				t.Errorf("expected stored status %s, got %s", last, stored.Status())
			}
		})
	}
}

func TestCreateOrderHandler_RejectsUnknownExtra(t *testing.T) {
	f := newFixture(t)
	h := commands.NewCreateOrderHandler(f.deps, f.machine, domain.NewExtraSchema())

	_, err := h.Handle(context.Background(), commands.CreateOrderCommand{
		Customer: commands.CustomerInput{Email: "guest@example.com", Anonymous: true},
		Items:    []commands.ItemInput{{ProductCode: "LAMP", Quantity: 1, UnitAmount: 100}},
		Currency: "EUR",
		Extra:    map[string]string{"coupon": "FREE"},
		Request:  commands.RequestInput{AbsoluteBaseURI: "https://shop.example.com/"},
	})
	if !errors.Is(err, domain.ErrUnknownExtraKey) {
		t.Fatalf("expected ErrUnknownExtraKey, got %v", err)
	}
	if len(f.recorder.targets()) != 0 {
		t.Error("expected no events")
	}
}

func TestRecordPaymentHandler_DepositConfirmsOrder(t *testing.T) {
	f := newFixture(t)
	id := f.createOrder(t, 2, 500)
	h := commands.NewRecordPaymentHandler(f.deps, f.machine)

	status, err := h.Handle(context.Background(), commands.RecordPaymentCommand{
		OrderID:    id,
		Amount:     1000,
		Currency:   "EUR",
		Transition: "prepayment_deposited",
		Actor:      "staff-1",
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if status != "payment_confirmed" {
		t.Errorf("expected payment_confirmed, got %s", status)
	}
	want := []string{"awaiting_payment", "prepayment_deposited", "payment_confirmed"}
	if got := f.recorder.targets(); !equal(got, want) {
		t.Errorf("expected events %v, got %v", want, got)
	}
}

func TestFireTransitionHandler_Handle(t *testing.T) {
	f := newFixture(t)
	id := f.createOrder(t, 1, 500)
	h := commands.NewFireTransitionHandler(f.deps, f.machine)

	res, err := h.Handle(context.Background(), commands.FireTransitionCommand{
		OrderID:    id,
		Transition: "cancel_order",
		Actor:      "staff-1",
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if res.From != "awaiting_payment" || res.Status != "order_canceled" {
		t.Errorf("expected awaiting_payment -> order_canceled, got %s -> %s", res.From, res.Status)
	}
	if res.Version != 2 {
		t.Errorf("expected version 2, got %d", res.Version)
	}
	f.recorder.mu.Lock()
	last := f.recorder.evts[len(f.recorder.evts)-1]
	f.recorder.mu.Unlock()
	if last.Actor != "staff-1" || last.Order.Status != "order_canceled" {
		t.Errorf("unexpected event: %+v", last)
	}
}

func TestFireTransitionHandler_IllegalTransitionLeavesOrder(t *testing.T) {
	f := newFixture(t)
	id := f.createOrder(t, 1, 500)
	h := commands.NewFireTransitionHandler(f.deps, f.machine)

	_, err := h.Handle(context.Background(), commands.FireTransitionCommand{OrderID: id, Transition: "pack_goods"})
	if !errors.Is(err, workflow.ErrIllegalTransition) {
		t.Fatalf("expected ErrIllegalTransition, got %v", err)
	}

	orderID, _ := types.ParseOrderID(id)
	stored, _ := f.repo.FindByID(context.Background(), orderID)
	if stored.Status() != domain.StatusAwaitingPayment || stored.Version() != 1 {
		t.Errorf("expected untouched order, got %s v%d", stored.Status(), stored.Version())
	}
	if got := f.recorder.targets(); len(got) != 1 {
		t.Errorf("expected only the creation event, got %v", got)
	}
}

func TestFireTransitionHandler_InvalidOrderID(t *testing.T) {
	f := newFixture(t)
	h := commands.NewFireTransitionHandler(f.deps, f.machine)

	_, err := h.Handle(context.Background(), commands.FireTransitionCommand{OrderID: "nope", Transition: "cancel_order"})
	if !errors.Is(err, types.ErrInvalidID) {
		t.Errorf("expected ErrInvalidID, got %v", err)
	}
}

func TestFireTransitionHandler_NoEventsWhenCommitFails(t *testing.T) {
	f := newFixture(t)
	id := f.createOrder(t, 1, 500)
	errCommit := errors.New("commit failed")

	deps := f.deps
	deps.TxScope = &mockTransactionScope{
		executeFn: func(ctx context.Context, fn func(ctx context.Context) error) error {
			if err := fn(ctx); err != nil {
				return err
			}
			return errCommit
		},
	}
	h := commands.NewFireTransitionHandler(deps, f.machine)

	_, err := h.Handle(context.Background(), commands.FireTransitionCommand{OrderID: id, Transition: "cancel_order"})
	if !errors.Is(err, errCommit) {
		t.Fatalf("expected commit error, got %v", err)
	}
	if got := f.recorder.targets(); len(got) != 1 {
		t.Errorf("expected no events from the failed transition, got %v", got)
	}
}

func TestFireTransitionHandler_ConcurrentModification(t *testing.T) {
	f := newFixture(t)
	id := f.createOrder(t, 1, 500)

	deps := f.deps
	deps.Repo = &mockOrderRepository{
		OrderRepository: f.repo,
		saveFn: func(ctx context.Context, order *domain.Order) error {
			return domain.ErrConcurrentModification
		},
	}
	h := commands.NewFireTransitionHandler(deps, f.machine)

	_, err := h.Handle(context.Background(), commands.FireTransitionCommand{OrderID: id, Transition: "cancel_order"})
	if !errors.Is(err, domain.ErrConcurrentModification) {
		t.Fatalf("expected ErrConcurrentModification, got %v", err)
	}
}

func TestInMemoryRepository_StaleVersionIsRejected(t *testing.T) {
	f := newFixture(t)
	id := f.createOrder(t, 1, 500)
	orderID, _ := types.ParseOrderID(id)
	ctx := context.Background()

	first, _ := f.repo.FindByID(ctx, orderID)
	second, _ := f.repo.FindByID(ctx, orderID)

	if err := f.repo.Save(ctx, first); err != nil {
		t.Fatalf("saving first copy: %v", err)
	}
	if err := f.repo.Save(ctx, second); !errors.Is(err, domain.ErrConcurrentModification) {
		t.Errorf("expected ErrConcurrentModification, got %v", err)
	}
}

func TestCancelItemHandler_Handle(t *testing.T) {
	f := newFixture(t)
	id := f.createOrder(t, 3, 700)
	orderID, _ := types.ParseOrderID(id)
	ctx := context.Background()
	order, _ := f.repo.FindByID(ctx, orderID)

	h := commands.NewCancelItemHandler(f.deps)
	if err := h.Handle(ctx, commands.CancelItemCommand{OrderID: id, ItemID: order.Items()[0].ID}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if err := h.Handle(ctx, commands.CancelItemCommand{OrderID: id, ItemID: "missing"}); !errors.Is(err, domain.ErrItemNotFound) {
		t.Errorf("expected ErrItemNotFound, got %v", err)
	}

	stored, _ := f.repo.FindByID(ctx, orderID)
	if !stored.Total().IsZero() {
		t.Errorf("expected zero total, got %s", stored.Total())
	}
}

func TestFireTransitionHandler_SubscribersRunAfterUnlock(t *testing.T) {
	f := newFixture(t)
	id := f.createOrder(t, 1, 500)

	locker := &orderLocker{locker: f.deps.Locker}
	if err := f.registry.Subscribe(contracts.TransitionCompletedEventType, locker); err != nil {
		t.Fatalf("subscribing: %v", err)
	}
	h := commands.NewFireTransitionHandler(f.deps, f.machine)

	if _, err := h.Handle(context.Background(), commands.FireTransitionCommand{OrderID: id, Transition: "cancel_order"}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	locker.mu.Lock()
	defer locker.mu.Unlock()
	if len(locker.errs) != 1 {
		t.Fatalf("expected 1 delivered event, got %d", len(locker.errs))
	}
	if locker.errs[0] != nil {
		t.Errorf("expected the order lock to be free, got %v", locker.errs[0])
	}
}

func TestCreateOrderHandler_FullAutomaticChainDeliversEveryEvent(t *testing.T) {
	table, err := workflow.Compose(chainModule{links: 10})
	if err != nil {
		t.Fatalf("composing: %v", err)
	}
	registry := eventbus.NewEventHandlerRegistry(nil)
	recorder := &transitionRecorder{}
	if err := registry.Subscribe(contracts.TransitionCompletedEventType, recorder); err != nil {
		t.Fatalf("subscribing: %v", err)
	}
	deps := commands.Deps{
		Repo:     persistence.NewInMemoryRepository(),
		TxScope:  transaction.Direct{},
		Locker:   lock.NewKeyedMutex(),
		Handlers: registry,
	}
	h := commands.NewCreateOrderHandler(deps, workflow.NewMachine(table, workflow.Config{}), domain.NewExtraSchema())

	res, err := h.Handle(context.Background(), commands.CreateOrderCommand{
		Customer:          commands.CustomerInput{Email: "guest@example.com", Anonymous: true},
		Items:             []commands.ItemInput{{ProductCode: "LAMP", Quantity: 1, UnitAmount: 100}},
		Currency:          "EUR",
		Request:           commands.RequestInput{AbsoluteBaseURI: "https://shop.example.com/"},
		InitialTransition: "start",
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if res.Status != "s10" {
		t.Errorf("expected status s10, got %s", res.Status)
	}
	if got := recorder.targets(); len(got) != 11 || got[10] != "s10" {
		t.Errorf("expected 11 events ending in s10, got %v", got)
	}
}

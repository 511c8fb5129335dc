package workflow_test

import (
	"testing"
	"time"

	"github.com/rai/shop-workflow-go/modules/orders/domain"
	"github.com/rai/shop-workflow-go/modules/orders/workflow"
	"github.com/rai/shop-workflow-go/modules/shared/types"
)

type testModule struct {
	name        string
	states      []domain.Status
	transitions []workflow.Transition
	group       string
}

func (m *testModule) Name() string                       { return m.name }
func (m *testModule) States() []domain.Status            { return m.states }
func (m *testModule) Transitions() []workflow.Transition { return m.transitions }
func (m *testModule) ExclusiveGroup() string             { return m.group }

// ungrouped hides ExclusiveGroup so the module joins no group.
type ungrouped struct{ m *testModule }

func (u ungrouped) Name() string                       { return u.m.name }
func (u ungrouped) States() []domain.Status            { return u.m.states }
func (u ungrouped) Transitions() []workflow.Transition { return u.m.transitions }

func module(name string, states []domain.Status, transitions ...workflow.Transition) workflow.Module {
	return ungrouped{m: &testModule{name: name, states: states, transitions: transitions}}
}

func statuses(names ...string) []domain.Status {
	out := make([]domain.Status, len(names))
	for i, n := range names {
		out[i] = domain.Status(n)
	}
	return out
}

func newOrder(t *testing.T) *domain.Order {
	t.Helper()
	customer, err := domain.NewCustomer("", "guest@example.com", "Guest", true)
	if err != nil {
		t.Fatalf("creating customer: %v", err)
	}
	request, err := domain.NewStoredRequest("en-US", "https://shop.example.com/", "test-agent", "192.0.2.1")
	if err != nil {
		t.Fatalf("creating stored request: %v", err)
	}
	order, err := domain.NewOrder("2026-0001", customer, []domain.ItemSpec{
		{ProductCode: "TSHIRT", ProductName: "T-Shirt", Quantity: 2, UnitPrice: types.MustNewMoney(1500, "EUR")},
	}, "EUR", domain.Extra{}, request)
	if err != nil {
		t.Fatalf("creating order: %v", err)
	}
	return order
}

func mustCompose(t *testing.T, mods ...workflow.Module) *workflow.Table {
	t.Helper()
	table, err := workflow.Compose(mods...)
	if err != nil {
		t.Fatalf("composing: %v", err)
	}
	return table
}

type recordingObserver struct {
	applied []string
	failed  []string
}

func (o *recordingObserver) TransitionApplied(name, from, to string, automatic bool, elapsed time.Duration) {
	o.applied = append(o.applied, name)
}

func (o *recordingObserver) TransitionFailed(name, from, reason string) {
	o.failed = append(o.failed, name+":"+reason)
}

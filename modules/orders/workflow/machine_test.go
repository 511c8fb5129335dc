package workflow_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/rai/shop-workflow-go/modules/orders/domain"
	"github.com/rai/shop-workflow-go/modules/orders/workflow"
	"github.com/rai/shop-workflow-go/modules/shared/events/contracts"
)

func always(ok bool) workflow.GuardFunc {
	return func(ctx context.Context, order *domain.Order) (bool, error) { return ok, nil }
}

func resolveTo(s domain.Status) workflow.ResolveFunc {
	return func(ctx context.Context, order *domain.Order) (domain.Status, error) { return s, nil }
}

func TestMachine_Fire(t *testing.T) {
	errCarrier := errors.New("carrier unreachable")

	tests := []struct {
		name        string
		transitions []workflow.Transition
		fire        string
		wantErr     error
		wantStatus  domain.Status
		wantSteps   int
	}{
		{
			name:        "static target",
			transitions: []workflow.Transition{{Name: "pay", Sources: statuses("created"), Target: "paid"}},
			fire:        "pay",
			wantStatus:  "paid",
			wantSteps:   1,
		},
		{
			name:        "unknown transition",
			transitions: []workflow.Transition{{Name: "pay", Sources: statuses("created"), Target: "paid"}},
			fire:        "teleport",
			wantErr:     workflow.ErrIllegalTransition,
		},
		{
			name:        "wrong source",
			transitions: []workflow.Transition{{Name: "ship", Sources: statuses("paid"), Target: "shipped"}},
			fire:        "ship",
			wantErr:     workflow.ErrIllegalTransition,
		},
		{
			name: "guard rejects",
			transitions: []workflow.Transition{{
				Name: "pay", Sources: statuses("created"), Target: "paid",
				Guards: []workflow.Guard{{Name: "ok", Check: always(true)}, {Name: "funds", Check: always(false)}},
			}},
			fire:    "pay",
			wantErr: workflow.ErrGuardRejected,
		},
		{
			name: "guard fails",
			transitions: []workflow.Transition{{
				Name: "pay", Sources: statuses("created"), Target: "paid",
				Guards: []workflow.Guard{{Name: "funds", Check: func(ctx context.Context, o *domain.Order) (bool, error) {
					return false, errCarrier
				}}},
			}},
			fire:    "pay",
			wantErr: errCarrier,
		},
		{
			name: "body fails",
			transitions: []workflow.Transition{{
				Name: "pay", Sources: statuses("created"), Target: "paid",
				Body: func(ctx context.Context, o *domain.Order, in workflow.Input) error { return errCarrier },
			}},
			fire:    "pay",
			wantErr: workflow.ErrExternalDependency,
		},
		{
			name: "dynamic target among candidates",
			transitions: []workflow.Transition{{
				Name: "settle", Sources: statuses("created"),
				Candidates: statuses("paid", "void"), Resolve: resolveTo("void"),
			}},
			fire:       "settle",
			wantStatus: "void",
			wantSteps:  1,
		},
		{
			name: "dynamic target outside candidates",
			transitions: []workflow.Transition{{
				Name: "settle", Sources: statuses("created"),
				Candidates: statuses("paid"), Resolve: resolveTo("void"),
			}},
			fire:    "settle",
			wantErr: workflow.ErrInvalidDynamicTarget,
		},
		{
			name: "automatic chain runs to completion",
			transitions: []workflow.Transition{
				{Name: "pay", Sources: statuses("created"), Target: "paid"},
				{Name: "confirm", Sources: statuses("paid"), Target: "confirmed", Automatic: true},
				{Name: "release", Sources: statuses("confirmed"), Target: "void", Automatic: true},
			},
			fire:       "pay",
			wantStatus: "void",
			wantSteps:  3,
		},
		{
			name: "automatic transition with false guard stops the chain",
			transitions: []workflow.Transition{
				{Name: "pay", Sources: statuses("created"), Target: "paid"},
				{Name: "confirm", Sources: statuses("paid"), Target: "confirmed", Automatic: true,
					Guards: []workflow.Guard{{Name: "never", Check: always(false)}}},
			},
			fire:       "pay",
			wantStatus: "paid",
			wantSteps:  1,
		},
		{
			name: "automatic cycle",
			transitions: []workflow.Transition{
				{Name: "pay", Sources: statuses("created"), Target: "paid"},
				{Name: "confirm", Sources: statuses("paid"), Target: "confirmed", Automatic: true},
				{Name: "reopen", Sources: statuses("confirmed"), Target: "paid", Automatic: true},
			},
			fire:    "pay",
			wantErr: workflow.ErrAutomaticTransitionCycle,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			table := mustCompose(t, module("test", statuses("created", "paid", "confirmed", "void"), tt.transitions...))
			machine := workflow.NewMachine(table, workflow.Config{})
			order := newOrder(t)

			res, err := machine.Fire(context.Background(), order, tt.fire, "staff", workflow.Input{})
			if !errors.Is(err, tt.wantErr) {
				t.Fatalf("expected error %v, got %v", tt.wantErr, err)
			}
			if order.Status() != domain.StatusCreated {
				t.Errorf("caller's order changed to %s", order.Status())
			}
			if len(order.DomainEvents()) != 0 {
				t.Errorf("caller's order gained %d events", len(order.DomainEvents()))
			}
			if tt.wantErr != nil {
				if res != nil {
					t.Errorf("expected no result on error, got %+v", res)
				}
				return
			}

			if res.Final() != tt.wantStatus {
				t.Errorf("expected status %s, got %s", tt.wantStatus, res.Final())
			}
			if len(res.Steps) != tt.wantSteps {
				t.Errorf("expected %d steps, got %d", tt.wantSteps, len(res.Steps))
			}
			if got := len(res.Order.DomainEvents()); got != tt.wantSteps {
				t.Errorf("expected one event per step, got %d", got)
			}
		})
	}
}

func TestMachine_Fire_GuardRejectionNamesTheGuard(t *testing.T) {
	table := mustCompose(t, module("test", statuses("created", "paid"), workflow.Transition{
		Name: "pay", Sources: statuses("created"), Target: "paid",
		Guards: []workflow.Guard{{Name: "funds", Check: always(false)}},
	}))
	machine := workflow.NewMachine(table, workflow.Config{})

	_, err := machine.Fire(context.Background(), newOrder(t), "pay", "staff", workflow.Input{})

	var te *workflow.TransitionError
	if !errors.As(err, &te) {
		t.Fatalf("expected *TransitionError, got %T", err)
	}
	if te.Guard != "funds" {
		t.Errorf("expected guard funds, got %q", te.Guard)
	}
	if te.From != domain.StatusCreated {
		t.Errorf("expected from created, got %s", te.From)
	}
}

func TestMachine_Fire_AutomaticDepthLimit(t *testing.T) {
	table := mustCompose(t, module("test", statuses("created", "s1", "s2", "s3", "s4"),
		workflow.Transition{Name: "start", Sources: statuses("created"), Target: "s1"},
		workflow.Transition{Name: "a1", Sources: statuses("s1"), Target: "s2", Automatic: true},
		workflow.Transition{Name: "a2", Sources: statuses("s2"), Target: "s3", Automatic: true},
		workflow.Transition{Name: "a3", Sources: statuses("s3"), Target: "s4", Automatic: true},
	))

	tests := []struct {
		name     string
		maxDepth int
		wantErr  error
	}{
		{name: "chain within limit", maxDepth: 3},
		{name: "chain beyond limit", maxDepth: 2, wantErr: workflow.ErrAutomaticChainDepthExceeded},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			machine := workflow.NewMachine(table, workflow.Config{MaxAutomaticDepth: tt.maxDepth})
			_, err := machine.Fire(context.Background(), newOrder(t), "start", "staff", workflow.Input{})
			if !errors.Is(err, tt.wantErr) {
				t.Fatalf("expected %v, got %v", tt.wantErr, err)
			}
		})
	}
}

func TestMachine_Fire_GuardTimeout(t *testing.T) {
	slow := func(ctx context.Context, order *domain.Order) (bool, error) {
		<-ctx.Done()
		return false, ctx.Err()
	}
	table := mustCompose(t, module("test", statuses("created", "paid"), workflow.Transition{
		Name: "pay", Sources: statuses("created"), Target: "paid",
		Guards: []workflow.Guard{{Name: "gateway", Check: slow}},
	}))
	machine := workflow.NewMachine(table, workflow.Config{GuardTimeout: 10 * time.Millisecond})

	_, err := machine.Fire(context.Background(), newOrder(t), "pay", "staff", workflow.Input{})
	if !errors.Is(err, workflow.ErrExternalDependency) {
		t.Fatalf("expected ErrExternalDependency, got %v", err)
	}
	if !errors.Is(err, context.DeadlineExceeded) {
		t.Errorf("expected the deadline as cause, got %v", err)
	}
}

func TestMachine_Fire_EventsDescribeEachStep(t *testing.T) {
	table := mustCompose(t, module("test", statuses("created", "paid", "confirmed"),
		workflow.Transition{Name: "pay", Sources: statuses("created"), Target: "paid"},
		workflow.Transition{Name: "confirm", Sources: statuses("paid"), Target: "confirmed", Automatic: true},
	))
	observer := &recordingObserver{}
	machine := workflow.NewMachine(table, workflow.Config{Observer: observer})

	res, err := machine.Fire(context.Background(), newOrder(t), "pay", "staff", workflow.Input{})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	evts := res.Order.PopDomainEvents()
	want := []struct {
		transition, from, to, actor string
		automatic                   bool
	}{
		{"pay", "created", "paid", "staff", false},
		{"confirm", "paid", "confirmed", string(workflow.SystemActor), true},
	}
	if len(evts) != len(want) {
		t.Fatalf("expected %d events, got %d", len(want), len(evts))
	}
	for i, w := range want {
		evt, ok := evts[i].(contracts.TransitionCompletedEvent)
		if !ok {
			t.Fatalf("expected TransitionCompletedEvent, got %T", evts[i])
		}
		if evt.Transition != w.transition || evt.From != w.from || evt.To != w.to ||
			evt.Actor != w.actor || evt.Automatic != w.automatic {
			t.Errorf("event %d: expected %+v, got %+v", i, w, evt)
		}
		if evt.Order.Status != w.to {
			t.Errorf("event %d: snapshot status %s, expected %s", i, evt.Order.Status, w.to)
		}
	}
	if len(observer.applied) != 2 {
		t.Errorf("expected 2 applied observations, got %v", observer.applied)
	}
}

func TestMachine_FailedFireIsObserved(t *testing.T) {
	table := mustCompose(t, module("test", statuses("created", "paid"),
		workflow.Transition{Name: "pay", Sources: statuses("paid"), Target: "paid"}))
	observer := &recordingObserver{}
	machine := workflow.NewMachine(table, workflow.Config{Observer: observer})

	_, _ = machine.Fire(context.Background(), newOrder(t), "pay", "staff", workflow.Input{})

	if len(observer.failed) != 1 || observer.failed[0] != "pay:illegal_transition" {
		t.Errorf("expected pay:illegal_transition, got %v", observer.failed)
	}
}

func TestMachine_CanTransitionAndAvailable(t *testing.T) {
	table := mustCompose(t, module("test", statuses("created", "paid", "held", "void"),
		workflow.Transition{Name: "pay", Sources: statuses("created"), Target: "paid", Admin: true, Label: "Paid"},
		workflow.Transition{Name: "hold", Sources: statuses("created"), Target: "held"},
		workflow.Transition{Name: "void", AnySource: true, Target: "void", Admin: true,
			Guards: []workflow.Guard{{Name: "never", Check: always(false)}}},
		workflow.Transition{Name: "auto", Sources: statuses("created"), Target: "held", Automatic: true,
			Guards: []workflow.Guard{{Name: "never", Check: always(false)}}},
	))
	machine := workflow.NewMachine(table, workflow.Config{})
	order := newOrder(t)
	ctx := context.Background()

	if !machine.CanTransition(ctx, order, "pay") {
		t.Error("expected pay to be possible")
	}
	if machine.CanTransition(ctx, order, "void") {
		t.Error("expected void to be blocked by its guard")
	}

	tests := []struct {
		name      string
		adminOnly bool
		want      []string
	}{
		{name: "all", want: []string{"pay", "hold"}},
		{name: "admin only", adminOnly: true, want: []string{"pay"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := machine.AvailableTransitions(ctx, order, tt.adminOnly)
			if len(got) != len(tt.want) {
				t.Fatalf("expected %v, got %d transitions", tt.want, len(got))
			}
			for i, name := range tt.want {
				if got[i].Name != name {
					t.Errorf("expected %s at %d, got %s", name, i, got[i].Name)
				}
			}
		})
	}
}

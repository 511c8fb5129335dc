package workflow

import (
	"context"
	"errors"
	"log/slog"
	"slices"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/rai/shop-workflow-go/modules/orders/domain"
)

const defaultMaxAutomaticDepth = 10

// Observer is notified about every applied or failed transition.
type Observer interface {
	TransitionApplied(name, from, to string, automatic bool, elapsed time.Duration)
	TransitionFailed(name, from, reason string)
}

type noopObserver struct{}

func (noopObserver) TransitionApplied(string, string, string, bool, time.Duration) {}
func (noopObserver) TransitionFailed(string, string, string)                       {}

// Config holds Machine settings. Zero values select defaults.
type Config struct {
	// MaxAutomaticDepth bounds the number of automatic transitions following
	// one requested transition (default: 10).
	MaxAutomaticDepth int
	// GuardTimeout and BodyTimeout bound each guard and body call. Zero
	// means no timeout beyond the caller's context.
	GuardTimeout time.Duration
	BodyTimeout  time.Duration
	Observer     Observer
	Logger       *slog.Logger
}

// Step is one applied transition.
type Step struct {
	Transition string
	From       domain.Status
	To         domain.Status
	Automatic  bool
}

// Result is the outcome of a successful Fire.
type Result struct {
	// Order is the updated working copy. The order passed to Fire is left untouched.
	Order *domain.Order
	// Steps lists the requested transition followed by automatic ones.
	Steps []Step
}

// Final returns the status after the last step.
func (r *Result) Final() domain.Status {
	return r.Order.Status()
}

// Machine fires transitions of a composed Table against orders. It holds no
// per-order state; callers serialize transitions on the same order.
type Machine struct {
	table        *Table
	maxDepth     int
	guardTimeout time.Duration
	bodyTimeout  time.Duration
	observer     Observer
	logger       *slog.Logger
	tracer       trace.Tracer
}

func NewMachine(table *Table, cfg Config) *Machine {
	if cfg.MaxAutomaticDepth <= 0 {
		cfg.MaxAutomaticDepth = defaultMaxAutomaticDepth
	}
	if cfg.Observer == nil {
		cfg.Observer = noopObserver{}
	}
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}
	return &Machine{
		table:        table,
		maxDepth:     cfg.MaxAutomaticDepth,
		guardTimeout: cfg.GuardTimeout,
		bodyTimeout:  cfg.BodyTimeout,
		observer:     cfg.Observer,
		logger:       cfg.Logger,
		tracer:       otel.Tracer("github.com/rai/shop-workflow-go/modules/orders/workflow"),
	}
}

func (m *Machine) Table() *Table { return m.table }

// CanTransition reports whether name accepts the order's status and all of
// its guards hold. It has no side effects.
func (m *Machine) CanTransition(ctx context.Context, order *domain.Order, name string) bool {
	tr, ok := m.table.Lookup(name, order.Status())
	if !ok {
		return false
	}
	return m.checkGuards(ctx, order, tr) == nil
}

// AvailableTransitions lists the non-automatic transitions that could fire
// now. With adminOnly, only those offered to staff are returned.
func (m *Machine) AvailableTransitions(ctx context.Context, order *domain.Order, adminOnly bool) []Transition {
	var out []Transition
	for _, tr := range m.table.From(order.Status()) {
		if tr.Automatic || (adminOnly && !tr.Admin) {
			continue
		}
		if m.checkGuards(ctx, order, tr) == nil {
			out = append(out, tr)
		}
	}
	return out
}

// Fire applies the named transition and any automatic transitions that
// follow it. All steps operate on a working copy returned in the Result; on
// error nothing is returned and the caller's order is unchanged.
func (m *Machine) Fire(ctx context.Context, order *domain.Order, name string, actor Actor, in Input) (*Result, error) {
	ctx, span := m.tracer.Start(ctx, "workflow.Fire", trace.WithAttributes(
		attribute.String("order.id", order.ID().String()),
		attribute.String("workflow.transition", name),
		attribute.String("workflow.from", order.Status().String()),
	))
	defer span.End()

	res, err := m.fire(ctx, order, name, actor, in)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		m.observer.TransitionFailed(name, order.Status().String(), reason(err))
		return nil, err
	}
	span.SetAttributes(
		attribute.String("workflow.to", res.Final().String()),
		attribute.Int("workflow.steps", len(res.Steps)),
	)
	return res, nil
}

type visit struct {
	from domain.Status
	name string
}

func (m *Machine) fire(ctx context.Context, order *domain.Order, name string, actor Actor, in Input) (*Result, error) {
	work := order.Clone()
	res := &Result{Order: work}

	tr, ok := m.table.Lookup(name, work.Status())
	if !ok {
		return nil, &TransitionError{Kind: ErrIllegalTransition, Transition: name, From: work.Status()}
	}
	if err := m.checkGuards(ctx, work, tr); err != nil {
		return nil, err
	}
	visited := map[visit]struct{}{{from: work.Status(), name: tr.Name}: {}}
	if err := m.step(ctx, work, tr, actor, in, false, res); err != nil {
		return nil, err
	}

	for depth := 1; ; depth++ {
		next, ok, err := m.nextAutomatic(ctx, work)
		if err != nil {
			return nil, err
		}
		if !ok {
			return res, nil
		}
		key := visit{from: work.Status(), name: next.Name}
		if _, seen := visited[key]; seen {
			return nil, &TransitionError{Kind: ErrAutomaticTransitionCycle, Transition: next.Name, From: work.Status()}
		}
		if depth > m.maxDepth {
			return nil, &TransitionError{Kind: ErrAutomaticChainDepthExceeded, Transition: next.Name, From: work.Status()}
		}
		visited[key] = struct{}{}
		if err := m.step(ctx, work, next, SystemActor, Input{}, true, res); err != nil {
			return nil, err
		}
	}
}

// nextAutomatic returns the first automatic transition from the current
// status whose guards hold.
func (m *Machine) nextAutomatic(ctx context.Context, order *domain.Order) (Transition, bool, error) {
	for _, tr := range m.table.Automatic(order.Status()) {
		err := m.checkGuards(ctx, order, tr)
		if err == nil {
			return tr, true, nil
		}
		if !errors.Is(err, ErrGuardRejected) {
			return Transition{}, false, err
		}
	}
	return Transition{}, false, nil
}

// checkGuards evaluates guards left to right and stops at the first that
// does not hold.
func (m *Machine) checkGuards(ctx context.Context, order *domain.Order, tr Transition) error {
	for _, g := range tr.Guards {
		ok, err := m.evalGuard(ctx, order, g)
		if err != nil {
			return &TransitionError{Kind: ErrExternalDependency, Transition: tr.Name, From: order.Status(), Guard: g.Name, Cause: err}
		}
		if !ok {
			return &TransitionError{Kind: ErrGuardRejected, Transition: tr.Name, From: order.Status(), Guard: g.Name}
		}
	}
	return nil
}

func (m *Machine) evalGuard(ctx context.Context, order *domain.Order, g Guard) (bool, error) {
	if m.guardTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, m.guardTimeout)
		defer cancel()
	}
	return g.Check(ctx, order)
}

// step runs the body, resolves the target and applies it to order.
func (m *Machine) step(ctx context.Context, order *domain.Order, tr Transition, actor Actor, in Input, automatic bool, res *Result) error {
	start := time.Now()
	from := order.Status()

	if tr.Body != nil {
		if err := m.runBody(ctx, order, tr, in); err != nil {
			var te *TransitionError
			if errors.As(err, &te) {
				return err
			}
			return &TransitionError{Kind: ErrExternalDependency, Transition: tr.Name, From: from, Cause: err}
		}
	}

	to := tr.Target
	if tr.IsDynamic() {
		resolved, err := tr.Resolve(ctx, order)
		if err != nil {
			return &TransitionError{Kind: ErrExternalDependency, Transition: tr.Name, From: from, Cause: err}
		}
		if !slices.Contains(tr.Candidates, resolved) {
			return &TransitionError{Kind: ErrInvalidDynamicTarget, Transition: tr.Name, From: from, Target: resolved}
		}
		to = resolved
	}

	order.ApplyTransition(domain.TransitionRecord{
		Name:      tr.Name,
		From:      from,
		To:        to,
		Actor:     string(actor),
		Automatic: automatic,
	})
	res.Steps = append(res.Steps, Step{Transition: tr.Name, From: from, To: to, Automatic: automatic})

	elapsed := time.Since(start)
	m.observer.TransitionApplied(tr.Name, from.String(), to.String(), automatic, elapsed)
	m.logger.Debug("transition applied",
		slog.String("order_id", order.ID().String()),
		slog.String("transition", tr.Name),
		slog.String("from", from.String()),
		slog.String("to", to.String()),
		slog.Bool("automatic", automatic),
	)
	return nil
}

func (m *Machine) runBody(ctx context.Context, order *domain.Order, tr Transition, in Input) error {
	if m.bodyTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, m.bodyTimeout)
		defer cancel()
	}
	return tr.Body(ctx, order, in)
}

// reason maps an error to a short label for metrics.
func reason(err error) string {
	switch {
	case errors.Is(err, ErrIllegalTransition):
		return "illegal_transition"
	case errors.Is(err, ErrGuardRejected):
		return "guard_rejected"
	case errors.Is(err, ErrInvalidDynamicTarget):
		return "invalid_dynamic_target"
	case errors.Is(err, ErrAutomaticTransitionCycle):
		return "automatic_cycle"
	case errors.Is(err, ErrAutomaticChainDepthExceeded):
		return "automatic_depth"
	case errors.Is(err, ErrExternalDependency):
		return "external_dependency"
	default:
		return "error"
	}
}

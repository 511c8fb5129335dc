package workflow

import (
	"context"
	"fmt"

	"github.com/google/cel-go/cel"

	"github.com/rai/shop-workflow-go/modules/orders/domain"
)

// ExpressionGuard compiles a deployment-defined CEL expression into a Guard.
// The expression sees these variables:
//
//	status      string
//	total       int    (smallest currency unit)
//	amount_paid int
//	currency    string
//	fully_paid  bool
//	item_count  int    (non-canceled items)
//	anonymous   bool
//	language    string
//	extra       map(string, string)
//
// and must evaluate to a bool, e.g. `fully_paid && !("hold" in extra)`.
func ExpressionGuard(name, expr string) (Guard, error) {
	env, err := cel.NewEnv(
		cel.Variable("status", cel.StringType),
		cel.Variable("total", cel.IntType),
		cel.Variable("amount_paid", cel.IntType),
		cel.Variable("currency", cel.StringType),
		cel.Variable("fully_paid", cel.BoolType),
		cel.Variable("item_count", cel.IntType),
		cel.Variable("anonymous", cel.BoolType),
		cel.Variable("language", cel.StringType),
		cel.Variable("extra", cel.MapType(cel.StringType, cel.StringType)),
	)
	if err != nil {
		return Guard{}, fmt.Errorf("creating guard environment: %w", err)
	}

	ast, iss := env.Compile(expr)
	if iss.Err() != nil {
		return Guard{}, fmt.Errorf("%w: %s: %v", ErrInvalidGuard, name, iss.Err())
	}
	if !ast.OutputType().IsExactType(cel.BoolType) {
		return Guard{}, fmt.Errorf("%w: %s must evaluate to bool, got %s", ErrInvalidGuard, name, ast.OutputType())
	}
	prg, err := env.Program(ast)
	if err != nil {
		return Guard{}, fmt.Errorf("%w: %s: %v", ErrInvalidGuard, name, err)
	}

	check := func(ctx context.Context, order *domain.Order) (bool, error) {
		out, _, err := prg.ContextEval(ctx, expressionVars(order))
		if err != nil {
			return false, fmt.Errorf("evaluating guard %s: %w", name, err)
		}
		ok, isBool := out.Value().(bool)
		if !isBool {
			return false, fmt.Errorf("guard %s returned %T", name, out.Value())
		}
		return ok, nil
	}
	return Guard{Name: name, Check: check}, nil
}

func expressionVars(order *domain.Order) map[string]any {
	var count int64
	for _, it := range order.Items() {
		if !it.Canceled {
			count++
		}
	}
	return map[string]any{
		"status":      order.Status().String(),
		"total":       order.Total().Amount(),
		"amount_paid": order.AmountPaid().Amount(),
		"currency":    order.Total().Currency(),
		"fully_paid":  order.IsFullyPaid(),
		"item_count":  count,
		"anonymous":   order.Customer().IsAnonymous(),
		"language":    order.StoredRequest().Language(),
		"extra":       order.Extra().Map(),
	}
}

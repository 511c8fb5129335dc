// Package orders provides order management functionality.
// This is the public API for the orders bounded context.
package orders

import (
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/rai/shop-workflow-go/internal/platform/eventbus"
	"github.com/rai/shop-workflow-go/modules/orders/application/commands"
	"github.com/rai/shop-workflow-go/modules/orders/application/queries"
	"github.com/rai/shop-workflow-go/modules/orders/domain"
	"github.com/rai/shop-workflow-go/modules/orders/fulfillment"
	httphandler "github.com/rai/shop-workflow-go/modules/orders/infrastructure/http"
	"github.com/rai/shop-workflow-go/modules/orders/workflow"
	"github.com/rai/shop-workflow-go/modules/orders/workflow/catalog"
	"github.com/rai/shop-workflow-go/modules/shared/transaction"
)

// Module is the public API for the orders bounded context.
// External communication: HTTP API (RegisterRoutes)
// Cross-module communication: TransitionCompletedEvent, published after commit
type Module interface {
	// RegisterRoutes registers the module's HTTP routes to the given mux.
	RegisterRoutes(mux *http.ServeMux)
	// Machine returns the composed workflow engine.
	Machine() *workflow.Machine
}

// WorkflowConfig selects and tunes the workflow modules of a deployment.
type WorkflowConfig struct {
	// Modules are catalog module names, e.g. base, manual_payment, simple_shipping.
	Modules []string
	// Guards attaches a CEL guard to the named transition, keyed by transition name.
	Guards            map[string]string
	ExtraKeys         []string
	MaxAutomaticDepth int
	GuardTimeout      time.Duration
	BodyTimeout       time.Duration
}

// Config holds the module configuration.
type Config struct {
	Repository    domain.OrderRepository
	Deliveries    fulfillment.Repository
	TxScope       transaction.Scope
	Locker        commands.Locker
	EventHandlers eventbus.HandlerRegistry
	Refunder      catalog.Refunder
	Observer      workflow.Observer
	Workflow      WorkflowConfig
	Logger        *slog.Logger
}

type module struct {
	machine  *workflow.Machine
	handlers httphandler.Handlers
}

// New composes the workflow and creates the orders module. Invalid workflow
// configuration fails here, before any order is touched.
func New(cfg Config) (Module, error) {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	logger = logger.With("module", "orders")

	machine, err := BuildMachine(cfg.Workflow, catalog.Dependencies{
		Deliveries: cfg.Deliveries,
		Refunder:   cfg.Refunder,
	}, cfg.Observer, logger)
	if err != nil {
		return nil, err
	}

	txScope := cfg.TxScope
	if txScope == nil {
		txScope = transaction.Direct{}
	}
	deps := commands.Deps{
		Repo:     cfg.Repository,
		TxScope:  txScope,
		Locker:   cfg.Locker,
		Handlers: cfg.EventHandlers,
		Logger:   logger,
	}

	return &module{
		machine: machine,
		handlers: httphandler.Handlers{
			CreateOrder:    commands.NewCreateOrderHandler(deps, machine, domain.NewExtraSchema(cfg.Workflow.ExtraKeys...)),
			FireTransition: commands.NewFireTransitionHandler(deps, machine),
			RecordPayment:  commands.NewRecordPaymentHandler(deps, machine),
			CancelItem:     commands.NewCancelItemHandler(deps),
			GetOrder:       queries.NewGetOrderHandler(cfg.Repository, cfg.Deliveries, machine),
			ListOrders:     queries.NewListOrdersByStatusHandler(cfg.Repository),
		},
	}, nil
}

// BuildMachine composes the configured catalog modules, attaches the
// configured guard expressions and returns the engine.
func BuildMachine(cfg WorkflowConfig, deps catalog.Dependencies, observer workflow.Observer, logger *slog.Logger) (*workflow.Machine, error) {
	mods, err := catalog.Build(cfg.Modules, deps)
	if err != nil {
		return nil, err
	}
	table, err := workflow.Compose(mods...)
	if err != nil {
		return nil, err
	}
	for transition, expr := range cfg.Guards {
		g, err := workflow.ExpressionGuard("expr:"+transition, expr)
		if err != nil {
			return nil, err
		}
		if err := table.AttachGuard(transition, g); err != nil {
			return nil, fmt.Errorf("guard for %s: %w", transition, err)
		}
	}
	return workflow.NewMachine(table, workflow.Config{
		MaxAutomaticDepth: cfg.MaxAutomaticDepth,
		GuardTimeout:      cfg.GuardTimeout,
		BodyTimeout:       cfg.BodyTimeout,
		Observer:          observer,
		Logger:            logger,
	}), nil
}

func (m *module) Machine() *workflow.Machine { return m.machine }

func (m *module) RegisterRoutes(mux *http.ServeMux) {
	httphandler.RegisterRoutes(mux, m.handlers)
}

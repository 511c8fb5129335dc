// Package notifications sends templated mail when orders reach a status.
// This is the public API for the notifications bounded context.
package notifications

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/rai/shop-workflow-go/modules/notifications/application"
	"github.com/rai/shop-workflow-go/modules/notifications/application/eventhandlers"
	"github.com/rai/shop-workflow-go/modules/notifications/domain"
	httphandler "github.com/rai/shop-workflow-go/modules/notifications/infrastructure/http"
	"github.com/rai/shop-workflow-go/modules/shared/events"
	"github.com/rai/shop-workflow-go/modules/shared/events/contracts"
)

// Module is the public API for the notifications bounded context.
// External communication: HTTP API for rule management (RegisterRoutes)
// Cross-module communication: consumes TransitionCompletedEvent, publishes NotificationsQueuedEvent
type Module interface {
	RegisterRoutes(mux *http.ServeMux)
	// Start launches the dispatch workers.
	Start(ctx context.Context)
	// Close waits for queued dispatches to finish.
	Close() error
}

type Config struct {
	Rules       domain.RuleRepository
	Queue       application.MailQueue
	Deduper     application.Deduper
	Attachments application.AttachmentStore
	Staff       contracts.StaffDirectory
	Vendor      domain.Address
	Recorder    application.Recorder

	EventSubscriber events.Subscriber
	EventPublisher  events.Publisher

	Workers   int
	QueueSize int
	Logger    *slog.Logger
}

type module struct {
	rules *application.RuleService
	async *application.AsyncDispatcher
}

// New creates the notifications module and subscribes it to completed
// order transitions.
func New(cfg Config) (Module, error) {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	logger = logger.With("module", "notifications")

	dispatcher := application.NewDispatcher(application.Config{
		Rules:       cfg.Rules,
		Queue:       cfg.Queue,
		Publisher:   cfg.EventPublisher,
		Staff:       cfg.Staff,
		Deduper:     cfg.Deduper,
		Attachments: cfg.Attachments,
		Recorder:    cfg.Recorder,
		Vendor:      cfg.Vendor,
		Logger:      logger,
	})
	async := application.NewAsyncDispatcher(dispatcher, cfg.Workers, cfg.QueueSize, logger)

	handler := eventhandlers.NewTransitionCompletedHandler(async, logger)
	if err := cfg.EventSubscriber.Subscribe(contracts.TransitionCompletedEventType, handler); err != nil {
		return nil, fmt.Errorf("subscribing to %s: %w", contracts.TransitionCompletedEventType, err)
	}

	return &module{
		rules: application.NewRuleService(cfg.Rules),
		async: async,
	}, nil
}

func (m *module) RegisterRoutes(mux *http.ServeMux) {
	httphandler.RegisterRoutes(mux, m.rules)
}

func (m *module) Start(ctx context.Context) { m.async.Start(ctx) }

func (m *module) Close() error { return m.async.Close() }

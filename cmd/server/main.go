// Package main is the entry point for the shop workflow service.
// It wires together all modules and starts the HTTP server.
package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/redis/go-redis/v9"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/propagation"
	"gorm.io/driver/mysql"
	"gorm.io/gorm"

	"github.com/rai/shop-workflow-go/internal/platform/config"
	"github.com/rai/shop-workflow-go/internal/platform/eventbus"
	"github.com/rai/shop-workflow-go/internal/platform/httpserver"
	"github.com/rai/shop-workflow-go/internal/platform/lock"
	"github.com/rai/shop-workflow-go/internal/platform/metrics"
	"github.com/rai/shop-workflow-go/internal/platform/spanner"
	"github.com/rai/shop-workflow-go/modules/notifications"
	"github.com/rai/shop-workflow-go/modules/notifications/application"
	notificationsdomain "github.com/rai/shop-workflow-go/modules/notifications/domain"
	"github.com/rai/shop-workflow-go/modules/notifications/infrastructure/attachments"
	"github.com/rai/shop-workflow-go/modules/notifications/infrastructure/dedupe"
	"github.com/rai/shop-workflow-go/modules/notifications/infrastructure/mailqueue"
	rulespersistence "github.com/rai/shop-workflow-go/modules/notifications/infrastructure/persistence"
	"github.com/rai/shop-workflow-go/modules/orders"
	"github.com/rai/shop-workflow-go/modules/orders/application/commands"
	ordersdomain "github.com/rai/shop-workflow-go/modules/orders/domain"
	"github.com/rai/shop-workflow-go/modules/orders/fulfillment"
	orderspersistence "github.com/rai/shop-workflow-go/modules/orders/infrastructure/persistence"
	"github.com/rai/shop-workflow-go/modules/orders/infrastructure/refund"
	"github.com/rai/shop-workflow-go/modules/shared/events"
	"github.com/rai/shop-workflow-go/modules/shared/events/contracts"
	"github.com/rai/shop-workflow-go/modules/shared/transaction"
	"github.com/rai/shop-workflow-go/modules/staff"
	staffdomain "github.com/rai/shop-workflow-go/modules/staff/domain"
	staffpersistence "github.com/rai/shop-workflow-go/modules/staff/infrastructure/persistence"
)

func main() {
	configPath := flag.String("config", getEnv("CONFIG_PATH", ""), "path to the deployment YAML")
	flag.Parse()

	// Initialize logger
	slogOptions := &slog.HandlerOptions{
		Level: slog.LevelDebug,
	}
	slogJsonHandler := slog.NewJSONHandler(os.Stdout, slogOptions)
	logger := slog.New(slogJsonHandler)
	slog.SetDefault(logger)

	cfg, err := config.Load(*configPath)
	if err != nil {
		logger.Error("failed to load configuration", slog.Any("error", err))
		os.Exit(1)
	}

	otel.SetTextMapPropagator(propagation.TraceContext{})

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	logger.Info("starting shop workflow service", slog.Any("workflow_modules", cfg.Workflow.Modules))
	if err := run(ctx, cfg, logger); err != nil {
		logger.Error("service stopped with error", slog.Any("error", err))
		os.Exit(1)
	}
	logger.Info("server stopped")
}

// stores are the repositories and transaction scope of one storage driver.
type stores struct {
	orders     ordersdomain.OrderRepository
	deliveries fulfillment.Repository
	staff      staffdomain.Repository
	txScope    transaction.Scope
	close      func()
}

func openStores(ctx context.Context, cfg config.Config, logger *slog.Logger) (stores, error) {
	if cfg.Storage.Driver != "spanner" {
		return stores{
			orders:     orderspersistence.NewInMemoryRepository(),
			deliveries: orderspersistence.NewInMemoryDeliveryRepository(),
			staff:      staffpersistence.NewInMemoryRepository(),
			txScope:    transaction.Direct{},
			close:      func() {},
		}, nil
	}

	spannerCfg := spanner.Config{
		ProjectID:   cfg.Storage.Spanner.ProjectID,
		InstanceID:  cfg.Storage.Spanner.InstanceID,
		DatabaseID:  cfg.Storage.Spanner.DatabaseID,
		MinSessions: cfg.Storage.Spanner.MinSessions,
		MaxSessions: cfg.Storage.Spanner.MaxSessions,
	}
	client, err := spanner.NewClient(ctx, spannerCfg)
	if err != nil {
		return stores{}, err
	}
	logger.Info("connected to spanner", slog.String("dsn", spannerCfg.DSN()))

	return stores{
		orders:     orderspersistence.NewSpannerRepository(client),
		deliveries: orderspersistence.NewSpannerDeliveryRepository(client),
		staff:      staffpersistence.NewSpannerRepository(client),
		txScope:    spanner.NewReadWriteTransactionScope(client),
		close:      client.Close,
	}, nil
}

func openLocker(cfg config.Lock, logger *slog.Logger) (commands.Locker, func(), error) {
	if cfg.Driver != "zookeeper" {
		return lock.NewKeyedMutex(), func() {}, nil
	}
	conn, err := lock.Dial(cfg.ZooKeeper.Servers, cfg.ZooKeeper.SessionTimeout, logger)
	if err != nil {
		return nil, nil, err
	}
	return lock.NewZooKeeperLocker(conn, cfg.ZooKeeper.Root, logger), conn.Close, nil
}

type notificationBackends struct {
	rules       notificationsdomain.RuleRepository
	queue       application.MailQueue
	deduper     application.Deduper
	attachments application.AttachmentStore
	closers     []func() error
}

func openNotificationBackends(ctx context.Context, cfg config.Notifications, logger *slog.Logger) (*notificationBackends, error) {
	b := &notificationBackends{}

	switch cfg.RulesDriver {
	case "mysql":
		db, err := gorm.Open(mysql.Open(cfg.MySQLDSN), &gorm.Config{})
		if err != nil {
			return nil, fmt.Errorf("opening rule store: %w", err)
		}
		if err := rulespersistence.Migrate(db); err != nil {
			return nil, fmt.Errorf("migrating rule store: %w", err)
		}
		b.rules = rulespersistence.NewGormRuleRepository(db)
	default:
		b.rules = rulespersistence.NewInMemoryRuleRepository()
	}

	if len(cfg.Kafka.Brokers) > 0 {
		writer := mailqueue.NewWriter(cfg.Kafka.Brokers, cfg.Kafka.Topic)
		b.queue = mailqueue.NewKafkaQueue(writer)
		b.closers = append(b.closers, writer.Close)
		logger.Info("mail queue on kafka", slog.String("topic", cfg.Kafka.Topic))
	} else {
		b.queue = mailqueue.NewInMemoryQueue()
		logger.Warn("no kafka brokers configured, mail is kept in memory")
	}

	if cfg.RedisAddr != "" {
		rdb := redis.NewClient(&redis.Options{Addr: cfg.RedisAddr})
		if err := rdb.Ping(ctx).Err(); err != nil {
			return nil, fmt.Errorf("connecting to redis: %w", err)
		}
		b.deduper = dedupe.NewRedisDeduper(rdb, cfg.DedupeTTL)
		b.closers = append(b.closers, rdb.Close)
	} else {
		b.deduper = dedupe.NewInMemoryDeduper()
	}

	if cfg.AttachmentsDir != "" {
		b.attachments = attachments.NewDirStore(cfg.AttachmentsDir)
	}
	return b, nil
}

func (b *notificationBackends) close(logger *slog.Logger) {
	for _, c := range b.closers {
		if err := c(); err != nil {
			logger.Error("closing notification backend", slog.Any("error", err))
		}
	}
}

func run(ctx context.Context, cfg config.Config, logger *slog.Logger) error {
	st, err := openStores(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer st.close()

	locker, closeLocker, err := openLocker(cfg.Lock, logger)
	if err != nil {
		return err
	}
	defer closeLocker()

	backends, err := openNotificationBackends(ctx, cfg.Notifications, logger)
	if err != nil {
		return err
	}
	defer backends.close(logger)

	// Initialize event bus (for inter-module communication)
	registry := eventbus.NewEventHandlerRegistry(logger)
	eventBus := eventbus.New(registry, logger)
	m := metrics.New()

	// Initialize modules
	// Each module subscribes to events it cares about internally
	staffModule := staff.New(staff.Config{
		Repository: st.staff,
		TxScope:    st.txScope,
	})

	ordersModule, err := orders.New(orders.Config{
		Repository:    st.orders,
		Deliveries:    st.deliveries,
		TxScope:       st.txScope,
		Locker:        locker,
		EventHandlers: registry,
		Refunder:      refund.NewLoggingRefunder(logger),
		Observer:      m,
		Workflow:      workflowConfig(cfg.Workflow),
		Logger:        logger,
	})
	if err != nil {
		return fmt.Errorf("configuring orders: %w", err)
	}

	notificationsModule, err := notifications.New(notifications.Config{
		Rules:           backends.rules,
		Queue:           backends.queue,
		Deduper:         backends.deduper,
		Attachments:     backends.attachments,
		Staff:           staffModule.Directory(),
		Vendor:          notificationsdomain.Address{Email: cfg.Notifications.VendorEmail, Name: cfg.Notifications.VendorName},
		Recorder:        m,
		EventSubscriber: registry,
		EventPublisher:  eventBus,
		Workers:         cfg.Notifications.Workers,
		QueueSize:       cfg.Notifications.QueueSize,
		Logger:          logger,
	})
	if err != nil {
		return fmt.Errorf("configuring notifications: %w", err)
	}
	notificationsModule.Start(ctx)
	defer func() {
		if err := notificationsModule.Close(); err != nil {
			logger.Error("draining notifications", slog.Any("error", err))
		}
	}()

	registry.Subscribe(contracts.NotificationsQueuedEventType, events.HandlerFunc(func(ctx context.Context, e events.Event) error {
		logger.Info("notifications queued", slog.String("order_id", e.AggregateID()))
		return nil
	}))

	// Build HTTP router
	mux := buildRouter(m, ordersModule, staffModule, notificationsModule)
	handler := httpserver.Chain(mux,
		httpserver.Recovery(logger),
		httpserver.Tracing("shop-workflow"),
		httpserver.Logging(logger),
	)

	serverCfg := httpserver.DefaultConfig()
	serverCfg.Host = cfg.Server.Host
	serverCfg.Port = cfg.Server.Port
	return httpserver.New(serverCfg, handler, logger).Run(ctx)
}

func workflowConfig(c config.Workflow) orders.WorkflowConfig {
	return orders.WorkflowConfig{
		Modules:           c.Modules,
		Guards:            c.Guards,
		ExtraKeys:         c.ExtraKeys,
		MaxAutomaticDepth: c.MaxAutomaticDepth,
		GuardTimeout:      c.GuardTimeout,
		BodyTimeout:       c.BodyTimeout,
	}
}

// routeRegistrar is implemented by every module with an HTTP API.
type routeRegistrar interface {
	RegisterRoutes(mux *http.ServeMux)
}

// buildRouter creates the main HTTP router with all module handlers.
func buildRouter(m *metrics.Metrics, modules ...routeRegistrar) *http.ServeMux {
	mux := http.NewServeMux()

	// Health check endpoint
	mux.HandleFunc("GET /health", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"status":"ok"}`))
	})
	mux.Handle("GET /metrics", m.Handler())

	// Each module registers its own routes (same pattern as event subscriptions)
	for _, mod := range modules {
		mod.RegisterRoutes(mux)
	}
	return mux
}

// getEnv returns the value of an environment variable or a default value.
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

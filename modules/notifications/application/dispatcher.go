package application

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/sync/errgroup"

	"github.com/rai/shop-workflow-go/modules/notifications/domain"
	"github.com/rai/shop-workflow-go/modules/shared/events"
	"github.com/rai/shop-workflow-go/modules/shared/events/contracts"
)

// Config holds the dispatcher's collaborators. Staff, Deduper, Attachments
// and Recorder are optional.
type Config struct {
	Rules       domain.RuleRepository
	Queue       MailQueue
	Publisher   events.Publisher
	Staff       contracts.StaffDirectory
	Deduper     Deduper
	Attachments AttachmentStore
	Recorder    Recorder
	// Vendor is the shop's own address for the vendor selector.
	Vendor domain.Address
	Logger *slog.Logger
}

// Report summarizes one Dispatch call.
type Report struct {
	Matched int
	Queued  int
	Skipped int
	Failed  int
}

// Dispatcher sends the notifications configured for a transition target.
// Rules are independent: one failing rule is logged and counted and the
// others still run. Nothing here can undo the transition.
type Dispatcher struct {
	rules       domain.RuleRepository
	queue       MailQueue
	publisher   events.Publisher
	staff       contracts.StaffDirectory
	deduper     Deduper
	attachments AttachmentStore
	recorder    Recorder
	vendor      domain.Address
	logger      *slog.Logger
	tracer      trace.Tracer
}

func NewDispatcher(cfg Config) *Dispatcher {
	if cfg.Recorder == nil {
		cfg.Recorder = noopRecorder{}
	}
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}
	return &Dispatcher{
		rules:       cfg.Rules,
		queue:       cfg.Queue,
		publisher:   cfg.Publisher,
		staff:       cfg.Staff,
		deduper:     cfg.Deduper,
		attachments: cfg.Attachments,
		recorder:    cfg.Recorder,
		vendor:      cfg.Vendor,
		logger:      cfg.Logger,
		tracer:      otel.Tracer("github.com/rai/shop-workflow-go/modules/notifications/application"),
	}
}

// Dispatch runs every rule matching evt.To. If at least one message was
// queued, a single NotificationsQueuedEvent is published. The returned error
// covers only failures that prevented loading the rules.
func (d *Dispatcher) Dispatch(ctx context.Context, evt contracts.TransitionCompletedEvent) (Report, error) {
	ctx, span := d.tracer.Start(ctx, "notifications.Dispatch", trace.WithAttributes(
		attribute.String("order.id", evt.OrderID),
		attribute.String("transition.target", evt.To),
	))
	defer span.End()

	rules, err := d.rules.FindByTarget(ctx, evt.To)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return Report{}, fmt.Errorf("loading rules for %s: %w", evt.To, err)
	}
	report := Report{Matched: len(rules)}
	if len(rules) == 0 {
		return report, nil
	}

	for _, rule := range rules {
		logger := d.logger.With(
			slog.String("order_id", evt.OrderID),
			slog.String("rule_id", rule.ID),
			slog.String("target", evt.To),
		)

		queued, err := d.dispatchRule(ctx, evt, rule)
		switch {
		case errors.Is(err, errUnresolvable):
			report.Skipped++
			d.recorder.NotificationSkipped(evt.To, "no_recipient")
			logger.Info("notification skipped: no recipient", slog.String("notify", rule.Notify.String()))
		case errors.Is(err, errAlreadyDispatched):
			report.Skipped++
			d.recorder.NotificationSkipped(evt.To, "duplicate")
			logger.Debug("notification skipped: already dispatched")
		case err != nil:
			report.Failed++
			d.recorder.NotificationFailed(evt.To, failureReason(err))
			span.RecordError(err)
			logger.Error("notification failed", slog.Any("error", err))
		case queued:
			report.Queued++
			d.recorder.NotificationQueued(evt.To)
		}
	}

	span.SetAttributes(
		attribute.Int("notifications.queued", report.Queued),
		attribute.Int("notifications.failed", report.Failed),
	)

	if report.Queued > 0 && d.publisher != nil {
		signal := contracts.NotificationsQueuedEvent{
			BaseEvent:        events.NewBaseEvent(contracts.NotificationsQueuedEventType, evt.OrderID),
			OrderID:          evt.OrderID,
			TransitionTarget: evt.To,
			Queued:           report.Queued,
		}
		if err := d.publisher.Publish(ctx, signal); err != nil {
			d.logger.Error("publishing notifications queued signal",
				slog.String("order_id", evt.OrderID),
				slog.Any("error", err),
			)
		}
	}
	return report, nil
}

var errAlreadyDispatched = errors.New("already dispatched")

type stageError struct {
	stage string
	err   error
}

func (e *stageError) Error() string { return e.stage + ": " + e.err.Error() }
func (e *stageError) Unwrap() error { return e.err }

func failureReason(err error) string {
	var se *stageError
	if errors.As(err, &se) {
		return se.stage
	}
	return "unknown"
}

func (d *Dispatcher) dispatchRule(ctx context.Context, evt contracts.TransitionCompletedEvent, rule domain.Rule) (bool, error) {
	recipients, err := d.recipients(ctx, rule, evt.Order)
	if err != nil {
		if errors.Is(err, errUnresolvable) {
			return false, err
		}
		return false, &stageError{stage: "recipients", err: err}
	}

	reqCtx, err := NewRequestContext(evt.Order)
	if err != nil {
		return false, &stageError{stage: "request", err: err}
	}

	tr, tag := rule.Template.Localize(reqCtx.Language)
	out, err := render(tr, tag, TemplateData{
		Order:      evt.Order,
		OrderID:    evt.OrderID,
		Transition: evt.Transition,
		From:       evt.From,
		To:         evt.To,
		Request:    reqCtx,
		Recipient:  recipients[0],
	})
	if err != nil {
		return false, &stageError{stage: "render", err: err}
	}

	files, err := d.loadAttachments(ctx, rule.Attachments)
	if err != nil {
		return false, &stageError{stage: "attachments", err: err}
	}

	key := "notify:" + evt.EventID() + ":" + rule.ID
	if d.deduper != nil {
		first, err := d.deduper.Claim(ctx, key)
		if err != nil {
			return false, &stageError{stage: "dedupe", err: err}
		}
		if !first {
			return false, errAlreadyDispatched
		}
	}

	msg := domain.Message{
		ID:          uuid.New().String(),
		OrderID:     evt.OrderID,
		RuleID:      rule.ID,
		Template:    rule.Template.Name,
		Recipients:  recipients,
		Locale:      tag.String(),
		Subject:     out.Subject,
		Body:        out.Body,
		HTMLBody:    out.HTMLBody,
		Attachments: files,
	}
	if err := d.queue.Enqueue(ctx, msg); err != nil {
		if d.deduper != nil {
			if rerr := d.deduper.Release(ctx, key); rerr != nil {
				d.logger.Warn("releasing dedupe key", slog.String("key", key), slog.Any("error", rerr))
			}
		}
		return false, &stageError{stage: "enqueue", err: err}
	}
	return true, nil
}

// loadAttachments fetches all files concurrently, keyed by their filename.
func (d *Dispatcher) loadAttachments(ctx context.Context, attachments []domain.Attachment) (map[string][]byte, error) {
	if len(attachments) == 0 {
		return nil, nil
	}
	if d.attachments == nil {
		return nil, errors.New("no attachment store configured")
	}

	contents := make([][]byte, len(attachments))
	g, ctx := errgroup.WithContext(ctx)
	for i, a := range attachments {
		g.Go(func() error {
			data, err := d.attachments.Load(ctx, a.Ref)
			if err != nil {
				return fmt.Errorf("loading %s: %w", a.Filename, err)
			}
			contents[i] = data
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	files := make(map[string][]byte, len(attachments))
	for i, a := range attachments {
		files[a.Filename] = contents[i]
	}
	return files, nil
}

// Package application contains the notification dispatcher: it turns
// completed order transitions into queued mail.
package application

import (
	"context"

	"github.com/rai/shop-workflow-go/modules/notifications/domain"
)

// MailQueue accepts rendered messages for delivery.
type MailQueue interface {
	Enqueue(ctx context.Context, msg domain.Message) error
}

// Deduper remembers which (event, rule) pairs were already dispatched, so a
// redelivered event does not send the same mail twice.
type Deduper interface {
	// Claim reports false if the key was claimed before.
	Claim(ctx context.Context, key string) (bool, error)
	Release(ctx context.Context, key string) error
}

// AttachmentStore loads attachment content by reference.
type AttachmentStore interface {
	Load(ctx context.Context, ref string) ([]byte, error)
}

// Recorder observes dispatch outcomes per transition target.
type Recorder interface {
	NotificationQueued(target string)
	NotificationSkipped(target, reason string)
	NotificationFailed(target, reason string)
}

type noopRecorder struct{}

func (noopRecorder) NotificationQueued(string)          {}
func (noopRecorder) NotificationSkipped(string, string) {}
func (noopRecorder) NotificationFailed(string, string)  {}

package mailqueue

import (
	"context"
	"slices"
	"sync"

	"github.com/rai/shop-workflow-go/modules/notifications/domain"
)

// InMemoryQueue collects messages for local runs and tests.
type InMemoryQueue struct {
	mu       sync.Mutex
	messages []domain.Message
	// Err, when set, is returned by Enqueue.
	Err error
}

func NewInMemoryQueue() *InMemoryQueue {
	return &InMemoryQueue{}
}

func (q *InMemoryQueue) Enqueue(ctx context.Context, msg domain.Message) error {
	q.mu.Lock()
	defer q.mu.Unlock()
	if q.Err != nil {
		return q.Err
	}
	q.messages = append(q.messages, msg)
	return nil
}

// Messages returns a copy of everything enqueued so far.
func (q *InMemoryQueue) Messages() []domain.Message {
	q.mu.Lock()
	defer q.mu.Unlock()
	return slices.Clone(q.messages)
}

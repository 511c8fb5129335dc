package dedupe

import (
	"context"
	"sync"
)

// InMemoryDeduper is a process-local deduper without expiry.
type InMemoryDeduper struct {
	mu   sync.Mutex
	seen map[string]struct{}
}

func NewInMemoryDeduper() *InMemoryDeduper {
	return &InMemoryDeduper{seen: make(map[string]struct{})}
}

func (d *InMemoryDeduper) Claim(ctx context.Context, key string) (bool, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if _, ok := d.seen[key]; ok {
		return false, nil
	}
	d.seen[key] = struct{}{}
	return true, nil
}

func (d *InMemoryDeduper) Release(ctx context.Context, key string) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	delete(d.seen, key)
	return nil
}

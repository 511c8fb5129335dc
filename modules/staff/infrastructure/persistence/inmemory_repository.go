// Package persistence implements repository interfaces for staff members.
package persistence

import (
	"context"
	"slices"
	"sync"

	"github.com/rai/shop-workflow-go/modules/shared/types"
	"github.com/rai/shop-workflow-go/modules/staff/domain"
)

// InMemoryRepository implements domain.Repository using in-memory storage.
type InMemoryRepository struct {
	mu      sync.RWMutex
	members map[string]*domain.Member
}

func NewInMemoryRepository() *InMemoryRepository {
	return &InMemoryRepository{
		members: make(map[string]*domain.Member),
	}
}

func (r *InMemoryRepository) Save(ctx context.Context, member *domain.Member) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	c := *member
	r.members[member.ID().String()] = &c
	return nil
}

func (r *InMemoryRepository) FindByID(ctx context.Context, id types.StaffID) (*domain.Member, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	member, ok := r.members[id.String()]
	if !ok {
		return nil, domain.ErrStaffNotFound
	}
	c := *member
	return &c, nil
}

func (r *InMemoryRepository) Exists(ctx context.Context, email domain.Email) (bool, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	for _, m := range r.members {
		if m.Email() == email {
			return true, nil
		}
	}
	return false, nil
}

func (r *InMemoryRepository) FindByRole(ctx context.Context, role domain.Role) ([]*domain.Member, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var result []*domain.Member
	for _, m := range r.members {
		if m.Role() == role && m.IsActive() {
			c := *m
			result = append(result, &c)
		}
	}
	sortByCreation(result)
	return result, nil
}

func (r *InMemoryRepository) FindAll(ctx context.Context, offset, limit int) ([]*domain.Member, int, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	all := make([]*domain.Member, 0, len(r.members))
	for _, m := range r.members {
		c := *m
		all = append(all, &c)
	}
	sortByCreation(all)

	total := len(all)
	if offset >= total {
		return []*domain.Member{}, total, nil
	}
	return all[offset:min(offset+limit, total)], total, nil
}

func sortByCreation(members []*domain.Member) {
	slices.SortFunc(members, func(a, b *domain.Member) int {
		return a.CreatedAt().Compare(b.CreatedAt())
	})
}

var _ domain.Repository = (*InMemoryRepository)(nil)

package persistence

import (
	"context"
	"maps"
	"slices"
	"sync"

	"github.com/rai/shop-workflow-go/modules/notifications/domain"
)

// InMemoryRuleRepository keeps rules in insertion order.
type InMemoryRuleRepository struct {
	mu    sync.RWMutex
	rules []domain.Rule
}

func NewInMemoryRuleRepository() *InMemoryRuleRepository {
	return &InMemoryRuleRepository{}
}

func (r *InMemoryRuleRepository) Save(ctx context.Context, rule domain.Rule) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	rule = copyRule(rule)
	for i, existing := range r.rules {
		if existing.ID == rule.ID {
			r.rules[i] = rule
			return nil
		}
	}
	r.rules = append(r.rules, rule)
	return nil
}

func (r *InMemoryRuleRepository) FindByTarget(ctx context.Context, target string) ([]domain.Rule, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var out []domain.Rule
	for _, rule := range r.rules {
		if rule.TransitionTarget == target {
			out = append(out, copyRule(rule))
		}
	}
	return out, nil
}

func (r *InMemoryRuleRepository) List(ctx context.Context) ([]domain.Rule, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]domain.Rule, 0, len(r.rules))
	for _, rule := range r.rules {
		out = append(out, copyRule(rule))
	}
	return out, nil
}

func (r *InMemoryRuleRepository) Delete(ctx context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	i := slices.IndexFunc(r.rules, func(rule domain.Rule) bool { return rule.ID == id })
	if i < 0 {
		return domain.ErrRuleNotFound
	}
	r.rules = slices.Delete(r.rules, i, i+1)
	return nil
}

func copyRule(r domain.Rule) domain.Rule {
	r.Template.Translations = maps.Clone(r.Template.Translations)
	r.Attachments = slices.Clone(r.Attachments)
	return r
}

var _ domain.RuleRepository = (*InMemoryRuleRepository)(nil)

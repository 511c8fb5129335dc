package domain

import "context"

// RuleRepository persists notification rules.
type RuleRepository interface {
	Save(ctx context.Context, rule Rule) error
	// FindByTarget returns the rules of a status in creation order.
	FindByTarget(ctx context.Context, target string) ([]Rule, error)
	List(ctx context.Context) ([]Rule, error)
	// Delete returns ErrRuleNotFound if the rule doesn't exist.
	Delete(ctx context.Context, id string) error
}

package application

import (
	"context"
	"fmt"

	"github.com/rai/shop-workflow-go/modules/notifications/domain"
)

type CreateRuleCommand struct {
	Name             string
	TransitionTarget string
	Notify           string
	Recipient        string
	Template         domain.MailTemplate
	Attachments      []domain.Attachment
}

// RuleService manages notification rules.
type RuleService struct {
	repo domain.RuleRepository
}

func NewRuleService(repo domain.RuleRepository) *RuleService {
	return &RuleService{repo: repo}
}

func (s *RuleService) Create(ctx context.Context, cmd CreateRuleCommand) (domain.Rule, error) {
	notify, err := domain.ParseNotify(cmd.Notify)
	if err != nil {
		return domain.Rule{}, err
	}
	rule, err := domain.NewRule(cmd.Name, cmd.TransitionTarget, notify, cmd.Recipient, cmd.Template, cmd.Attachments)
	if err != nil {
		return domain.Rule{}, err
	}
	if err := s.repo.Save(ctx, rule); err != nil {
		return domain.Rule{}, fmt.Errorf("saving rule: %w", err)
	}
	return rule, nil
}

func (s *RuleService) List(ctx context.Context) ([]domain.Rule, error) {
	return s.repo.List(ctx)
}

func (s *RuleService) Delete(ctx context.Context, id string) error {
	return s.repo.Delete(ctx, id)
}

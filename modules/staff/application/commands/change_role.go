package commands

import (
	"context"
	"fmt"

	"github.com/rai/shop-workflow-go/modules/shared/transaction"
	"github.com/rai/shop-workflow-go/modules/shared/types"
	"github.com/rai/shop-workflow-go/modules/staff/domain"
)

type ChangeRoleCommand struct {
	StaffID string
	Role    string
}

type ChangeRoleHandler struct {
	repo    domain.Repository
	txScope transaction.Scope
}

func NewChangeRoleHandler(repo domain.Repository, txScope transaction.Scope) *ChangeRoleHandler {
	return &ChangeRoleHandler{repo: repo, txScope: txScope}
}

func (h *ChangeRoleHandler) Handle(ctx context.Context, cmd ChangeRoleCommand) error {
	staffID, err := types.ParseStaffID(cmd.StaffID)
	if err != nil {
		return fmt.Errorf("invalid staff ID: %w", err)
	}
	role, err := domain.NewRole(cmd.Role)
	if err != nil {
		return fmt.Errorf("invalid role: %w", err)
	}

	return h.txScope.Execute(ctx, func(ctx context.Context) error {
		member, err := h.repo.FindByID(ctx, staffID)
		if err != nil {
			return fmt.Errorf("finding staff member: %w", err)
		}
		if err := member.ChangeRole(role); err != nil {
			return err
		}
		return h.repo.Save(ctx, member)
	})
}

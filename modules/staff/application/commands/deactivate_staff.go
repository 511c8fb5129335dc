package commands

import (
	"context"
	"fmt"

	"github.com/rai/shop-workflow-go/modules/shared/transaction"
	"github.com/rai/shop-workflow-go/modules/shared/types"
	"github.com/rai/shop-workflow-go/modules/staff/domain"
)

// DeactivateStaffCommand stops notifications to a staff member.
type DeactivateStaffCommand struct {
	StaffID string
}

type DeactivateStaffHandler struct {
	repo    domain.Repository
	txScope transaction.Scope
}

func NewDeactivateStaffHandler(repo domain.Repository, txScope transaction.Scope) *DeactivateStaffHandler {
	return &DeactivateStaffHandler{repo: repo, txScope: txScope}
}

func (h *DeactivateStaffHandler) Handle(ctx context.Context, cmd DeactivateStaffCommand) error {
	staffID, err := types.ParseStaffID(cmd.StaffID)
	if err != nil {
		return fmt.Errorf("invalid staff ID: %w", err)
	}

	return h.txScope.Execute(ctx, func(ctx context.Context) error {
		member, err := h.repo.FindByID(ctx, staffID)
		if err != nil {
			return fmt.Errorf("finding staff member: %w", err)
		}
		member.Deactivate()
		if err := h.repo.Save(ctx, member); err != nil {
			return fmt.Errorf("saving staff member: %w", err)
		}
		return nil
	})
}

// Package commands contains write use cases for the staff module.
package commands

import (
	"context"
	"fmt"

	"github.com/rai/shop-workflow-go/modules/shared/transaction"
	"github.com/rai/shop-workflow-go/modules/staff/domain"
)

// RegisterStaffCommand adds a notification recipient to the directory.
type RegisterStaffCommand struct {
	Email string
	Name  string
	Role  string
}

type RegisterStaffHandler struct {
	repo    domain.Repository
	txScope transaction.Scope
}

func NewRegisterStaffHandler(repo domain.Repository, txScope transaction.Scope) *RegisterStaffHandler {
	return &RegisterStaffHandler{repo: repo, txScope: txScope}
}

func (h *RegisterStaffHandler) Handle(ctx context.Context, cmd RegisterStaffCommand) (string, error) {
	email, err := domain.NewEmail(cmd.Email)
	if err != nil {
		return "", fmt.Errorf("invalid email: %w", err)
	}
	name, err := domain.NewName(cmd.Name)
	if err != nil {
		return "", fmt.Errorf("invalid name: %w", err)
	}
	role, err := domain.NewRole(cmd.Role)
	if err != nil {
		return "", fmt.Errorf("invalid role: %w", err)
	}

	return transaction.ExecuteWithResult(ctx, h.txScope, func(ctx context.Context) (string, error) {
		exists, err := h.repo.Exists(ctx, email)
		if err != nil {
			return "", fmt.Errorf("checking email existence: %w", err)
		}
		if exists {
			return "", domain.ErrEmailExists
		}

		member := domain.NewMember(email, name, role)
		if err := h.repo.Save(ctx, member); err != nil {
			return "", fmt.Errorf("saving staff member: %w", err)
		}
		return member.ID().String(), nil
	})
}

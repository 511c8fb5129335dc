package domain

import (
	"context"

	"github.com/rai/shop-workflow-go/modules/shared/types"
)

// Repository defines the persistence interface for staff members.
type Repository interface {
	Save(ctx context.Context, member *Member) error
	// FindByID returns ErrStaffNotFound if the member doesn't exist.
	FindByID(ctx context.Context, id types.StaffID) (*Member, error)
	Exists(ctx context.Context, email Email) (bool, error)
	// FindByRole returns active members only.
	FindByRole(ctx context.Context, role Role) ([]*Member, error)
	FindAll(ctx context.Context, offset, limit int) ([]*Member, int, error)
}

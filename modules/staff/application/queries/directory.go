package queries

import (
	"context"
	"errors"
	"fmt"

	"github.com/rai/shop-workflow-go/modules/shared/events/contracts"
	"github.com/rai/shop-workflow-go/modules/shared/types"
	"github.com/rai/shop-workflow-go/modules/staff/domain"
)

// Directory answers recipient lookups from the notifications module.
type Directory struct {
	repo domain.Repository
}

func NewDirectory(repo domain.Repository) *Directory {
	return &Directory{repo: repo}
}

// Contact returns contracts.ErrStaffUnavailable for unknown or inactive members.
func (d *Directory) Contact(ctx context.Context, id string) (contracts.StaffContact, error) {
	staffID, err := types.ParseStaffID(id)
	if err != nil {
		return contracts.StaffContact{}, fmt.Errorf("%w: %s", contracts.ErrStaffUnavailable, id)
	}
	member, err := d.repo.FindByID(ctx, staffID)
	if errors.Is(err, domain.ErrStaffNotFound) {
		return contracts.StaffContact{}, fmt.Errorf("%w: %s", contracts.ErrStaffUnavailable, id)
	}
	if err != nil {
		return contracts.StaffContact{}, err
	}
	if !member.IsActive() {
		return contracts.StaffContact{}, fmt.Errorf("%w: %s is inactive", contracts.ErrStaffUnavailable, id)
	}
	return toContact(member), nil
}

func (d *Directory) ContactsByRole(ctx context.Context, role string) ([]contracts.StaffContact, error) {
	members, err := d.repo.FindByRole(ctx, domain.Role(role))
	if err != nil {
		return nil, err
	}
	contacts := make([]contracts.StaffContact, 0, len(members))
	for _, m := range members {
		contacts = append(contacts, toContact(m))
	}
	return contacts, nil
}

func toContact(m *domain.Member) contracts.StaffContact {
	return contracts.StaffContact{
		ID:    m.ID().String(),
		Email: m.Email().String(),
		Name:  m.Name().String(),
	}
}

var _ contracts.StaffDirectory = (*Directory)(nil)

// Package queries contains read use cases for the staff module.
package queries

import (
	"context"
	"fmt"
	"time"

	"github.com/rai/shop-workflow-go/modules/shared/types"
	"github.com/rai/shop-workflow-go/modules/staff/domain"
)

// MemberDTO is a read model for a staff member.
type MemberDTO struct {
	ID        string    `json:"id"`
	Email     string    `json:"email"`
	Name      string    `json:"name"`
	Role      string    `json:"role"`
	Status    string    `json:"status"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

type GetStaffQuery struct {
	StaffID string
}

type GetStaffHandler struct {
	repo domain.Repository
}

func NewGetStaffHandler(repo domain.Repository) *GetStaffHandler {
	return &GetStaffHandler{repo: repo}
}

func (h *GetStaffHandler) Handle(ctx context.Context, query GetStaffQuery) (*MemberDTO, error) {
	staffID, err := types.ParseStaffID(query.StaffID)
	if err != nil {
		return nil, fmt.Errorf("invalid staff ID: %w", err)
	}

	member, err := h.repo.FindByID(ctx, staffID)
	if err != nil {
		return nil, err
	}
	return toMemberDTO(member), nil
}

func toMemberDTO(m *domain.Member) *MemberDTO {
	return &MemberDTO{
		ID:        m.ID().String(),
		Email:     m.Email().String(),
		Name:      m.Name().String(),
		Role:      m.Role().String(),
		Status:    m.Status().String(),
		CreatedAt: m.CreatedAt(),
		UpdatedAt: m.UpdatedAt(),
	}
}

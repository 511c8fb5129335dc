package queries

import (
	"context"

	"github.com/rai/shop-workflow-go/modules/staff/domain"
)

// MemberListDTO contains a paginated list of staff members.
type MemberListDTO struct {
	Members    []*MemberDTO `json:"members"`
	TotalCount int          `json:"total_count"`
	Offset     int          `json:"offset"`
	Limit      int          `json:"limit"`
}

type ListStaffQuery struct {
	Offset int
	Limit  int
}

type ListStaffHandler struct {
	repo domain.Repository
}

func NewListStaffHandler(repo domain.Repository) *ListStaffHandler {
	return &ListStaffHandler{repo: repo}
}

func (h *ListStaffHandler) Handle(ctx context.Context, query ListStaffQuery) (*MemberListDTO, error) {
	offset := query.Offset
	limit := query.Limit
	if limit <= 0 {
		limit = 20
	}
	if limit > 100 {
		limit = 100
	}

	members, total, err := h.repo.FindAll(ctx, offset, limit)
	if err != nil {
		return nil, err
	}

	dtos := make([]*MemberDTO, len(members))
	for i, m := range members {
		dtos[i] = toMemberDTO(m)
	}

	return &MemberListDTO{
		Members:    dtos,
		TotalCount: total,
		Offset:     offset,
		Limit:      limit,
	}, nil
}

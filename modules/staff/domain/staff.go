// Package domain contains the staff directory: shop employees who receive
// order notifications.
package domain

import (
	"time"

	"github.com/rai/shop-workflow-go/modules/shared/types"
)

// Member is a staff member.
type Member struct {
	id        types.StaffID
	email     Email
	name      Name
	role      Role
	status    Status
	createdAt time.Time
	updatedAt time.Time
}

func NewMember(email Email, name Name, role Role) *Member {
	now := time.Now().UTC()
	return &Member{
		id:        types.NewStaffID(),
		email:     email,
		name:      name,
		role:      role,
		status:    StatusActive,
		createdAt: now,
		updatedAt: now,
	}
}

// Reconstitute recreates a Member from persistence.
func Reconstitute(
	id types.StaffID,
	email Email,
	name Name,
	role Role,
	status Status,
	createdAt, updatedAt time.Time,
) *Member {
	return &Member{
		id:        id,
		email:     email,
		name:      name,
		role:      role,
		status:    status,
		createdAt: createdAt,
		updatedAt: updatedAt,
	}
}

func (m *Member) ID() types.StaffID    { return m.id }
func (m *Member) Email() Email         { return m.email }
func (m *Member) Name() Name           { return m.name }
func (m *Member) Role() Role           { return m.role }
func (m *Member) Status() Status       { return m.status }
func (m *Member) CreatedAt() time.Time { return m.createdAt }
func (m *Member) UpdatedAt() time.Time { return m.updatedAt }

func (m *Member) IsActive() bool {
	return m.status == StatusActive
}

func (m *Member) ChangeRole(role Role) error {
	if !m.IsActive() {
		return ErrStaffInactive
	}
	m.role = role
	m.updatedAt = time.Now().UTC()
	return nil
}

// Deactivate stops notifications to the member. Rules addressed to them
// are skipped from then on.
func (m *Member) Deactivate() {
	m.status = StatusInactive
	m.updatedAt = time.Now().UTC()
}

func (m *Member) Activate() {
	m.status = StatusActive
	m.updatedAt = time.Now().UTC()
}

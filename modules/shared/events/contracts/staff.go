package contracts

import (
	"context"
	"errors"
)

// ErrStaffUnavailable is returned by a StaffDirectory when the member does
// not exist or no longer receives mail.
var ErrStaffUnavailable = errors.New("staff member unavailable")

// StaffContact is the mail address of an active staff member.
type StaffContact struct {
	ID    string
	Email string
	Name  string
}

// StaffDirectory resolves staff members for other modules.
type StaffDirectory interface {
	Contact(ctx context.Context, id string) (StaffContact, error)
	ContactsByRole(ctx context.Context, role string) ([]StaffContact, error)
}

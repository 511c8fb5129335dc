package domain

import "errors"

var (
	ErrStaffNotFound = errors.New("staff member not found")
	ErrStaffInactive = errors.New("staff member is inactive")

	ErrEmailRequired = errors.New("email is required")
	ErrEmailInvalid  = errors.New("email format is invalid")
	ErrEmailExists   = errors.New("email already exists")

	ErrNameRequired = errors.New("name is required")
	ErrNameLength   = errors.New("name must be 2-100 characters")

	ErrRoleInvalid = errors.New("role must be a lowercase identifier")
)

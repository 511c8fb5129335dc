package domain

import (
	"regexp"
	"strings"
)

// Email is a validated, lower-cased mail address.
type Email struct {
	value string
}

var emailRegex = regexp.MustCompile(`^[a-zA-Z0-9._%+-]+@[a-zA-Z0-9.-]+\.[a-zA-Z]{2,}$`)

func NewEmail(value string) (Email, error) {
	value = strings.TrimSpace(strings.ToLower(value))
	if value == "" {
		return Email{}, ErrEmailRequired
	}
	if !emailRegex.MatchString(value) {
		return Email{}, ErrEmailInvalid
	}
	return Email{value: value}, nil
}

func (e Email) String() string { return e.value }
func (e Email) IsZero() bool   { return e.value == "" }

// Name is the display name used in mail headers.
type Name struct {
	value string
}

func NewName(value string) (Name, error) {
	value = strings.TrimSpace(value)
	if value == "" {
		return Name{}, ErrNameRequired
	}
	if n := len([]rune(value)); n < 2 || n > 100 {
		return Name{}, ErrNameLength
	}
	return Name{value: value}, nil
}

func (n Name) String() string { return n.value }

// Role groups staff members for notification rules addressed to "role:<name>".
type Role string

var roleRegex = regexp.MustCompile(`^[a-z][a-z0-9_-]*$`)

func NewRole(value string) (Role, error) {
	value = strings.TrimSpace(value)
	if !roleRegex.MatchString(value) {
		return "", ErrRoleInvalid
	}
	return Role(value), nil
}

func (r Role) String() string { return string(r) }

// Status represents whether a staff member receives notifications.
type Status string

const (
	StatusActive   Status = "active"
	StatusInactive Status = "inactive"
)

func (s Status) String() string { return string(s) }

package domain

import (
	"fmt"
	"strings"
)

// Notify selects who receives a rule's message.
type Notify string

const (
	NotifyCustomer  Notify = "customer"
	NotifyRecipient Notify = "recipient"
	NotifyVendor    Notify = "vendor"
	NotifyNobody    Notify = "nobody"

	rolePrefix = "role:"
)

// ParseNotify accepts customer, recipient, vendor, nobody and role:<name>.
func ParseNotify(s string) (Notify, error) {
	n := Notify(strings.TrimSpace(s))
	switch n {
	case NotifyCustomer, NotifyRecipient, NotifyVendor, NotifyNobody:
		return n, nil
	}
	if role, ok := n.Role(); ok && role != "" {
		return n, nil
	}
	return "", fmt.Errorf("%w: %q", ErrInvalidNotify, s)
}

// RoleNotify addresses every active staff member with the role.
func RoleNotify(role string) Notify {
	return Notify(rolePrefix + role)
}

// Role returns the staff role of a role:<name> selector.
func (n Notify) Role() (string, bool) {
	return strings.CutPrefix(string(n), rolePrefix)
}

func (n Notify) String() string { return string(n) }

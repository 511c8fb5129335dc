// Package types provides shared value objects and type definitions
// used across multiple modules (Shared Kernel pattern).
package types

import (
	"github.com/google/uuid"
)

// OrderID represents a unique identifier for an order.
// Using a distinct type prevents mixing up different ID types.
type OrderID struct {
	value string
}

func NewOrderID() OrderID {
	return OrderID{value: uuid.New().String()}
}

func ParseOrderID(s string) (OrderID, error) {
	if _, err := uuid.Parse(s); err != nil {
		return OrderID{}, ErrInvalidID
	}
	return OrderID{value: s}, nil
}

func (id OrderID) String() string { return id.value }
func (id OrderID) IsZero() bool   { return id.value == "" }

// StaffID identifies a staff member who can receive notifications.
type StaffID struct {
	value string
}

func NewStaffID() StaffID {
	return StaffID{value: uuid.New().String()}
}

func ParseStaffID(s string) (StaffID, error) {
	if _, err := uuid.Parse(s); err != nil {
		return StaffID{}, ErrInvalidID
	}
	return StaffID{value: s}, nil
}

func (id StaffID) String() string { return id.value }
func (id StaffID) IsZero() bool   { return id.value == "" }

package domain

import (
	"strings"

	"github.com/google/uuid"
)

// Customer is the orders module's own view of the purchasing customer.
// Registered customers carry a UUID reference into the customer directory,
// anonymous (guest) customers only an email address.
type Customer struct {
	ref       string
	email     string
	name      string
	anonymous bool
}

func NewCustomer(ref, email, name string, anonymous bool) (Customer, error) {
	email = strings.TrimSpace(email)
	if email == "" {
		return Customer{}, ErrCustomerEmailRequired
	}
	if !anonymous {
		if _, err := uuid.Parse(ref); err != nil {
			return Customer{}, ErrInvalidCustomerRef
		}
	}
	return Customer{ref: ref, email: email, name: strings.TrimSpace(name), anonymous: anonymous}, nil
}

func (c Customer) Ref() string       { return c.ref }
func (c Customer) Email() string     { return c.email }
func (c Customer) Name() string      { return c.name }
func (c Customer) IsAnonymous() bool { return c.anonymous }

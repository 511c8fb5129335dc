package application

import (
	"context"
	"errors"

	"github.com/rai/shop-workflow-go/modules/notifications/domain"
	"github.com/rai/shop-workflow-go/modules/shared/events/contracts"
)

// errUnresolvable marks a rule whose recipients cannot be determined. The
// rule is skipped; it is not a dispatch failure.
var errUnresolvable = errors.New("recipient unresolvable")

func (d *Dispatcher) recipients(ctx context.Context, rule domain.Rule, order contracts.OrderSnapshot) ([]domain.Address, error) {
	switch rule.Notify {
	case domain.NotifyNobody:
		return nil, errUnresolvable
	case domain.NotifyCustomer:
		if order.Customer.Email == "" {
			return nil, errUnresolvable
		}
		return []domain.Address{{Email: order.Customer.Email, Name: order.Customer.Name}}, nil
	case domain.NotifyVendor:
		if d.vendor.Email == "" {
			return nil, errUnresolvable
		}
		return []domain.Address{d.vendor}, nil
	case domain.NotifyRecipient:
		if d.staff == nil {
			return nil, errUnresolvable
		}
		c, err := d.staff.Contact(ctx, rule.Recipient)
		if errors.Is(err, contracts.ErrStaffUnavailable) {
			return nil, errUnresolvable
		}
		if err != nil {
			return nil, err
		}
		return []domain.Address{{Email: c.Email, Name: c.Name}}, nil
	}

	role, ok := rule.Notify.Role()
	if !ok || d.staff == nil {
		return nil, errUnresolvable
	}
	contacts, err := d.staff.ContactsByRole(ctx, role)
	if err != nil {
		return nil, err
	}
	if len(contacts) == 0 {
		return nil, errUnresolvable
	}
	addrs := make([]domain.Address, 0, len(contacts))
	for _, c := range contacts {
		addrs = append(addrs, domain.Address{Email: c.Email, Name: c.Name})
	}
	return addrs, nil
}

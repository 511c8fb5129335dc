package domain

import (
	"fmt"
	"maps"
	"slices"
)

// ExtraKey names an entry of the order's extra bag.
type ExtraKey string

const (
	ExtraShippingModifier ExtraKey = "shipping_modifier"
	ExtraPaymentModifier  ExtraKey = "payment_modifier"
)

// ExtraSchema is the set of keys a deployment recognizes in Extra.
type ExtraSchema struct {
	keys map[ExtraKey]struct{}
}

// NewExtraSchema returns the built-in keys plus the given deployment keys.
func NewExtraSchema(additional ...string) ExtraSchema {
	keys := map[ExtraKey]struct{}{
		ExtraShippingModifier: {},
		ExtraPaymentModifier:  {},
	}
	for _, k := range additional {
		keys[ExtraKey(k)] = struct{}{}
	}
	return ExtraSchema{keys: keys}
}

func (s ExtraSchema) Allows(key ExtraKey) bool {
	_, ok := s.keys[key]
	return ok
}

// Keys returns the recognized keys in lexical order.
func (s ExtraSchema) Keys() []ExtraKey {
	return slices.Sorted(maps.Keys(s.keys))
}

// NewExtra validates values against the schema.
func (s ExtraSchema) NewExtra(values map[string]string) (Extra, error) {
	e := Extra{values: make(map[ExtraKey]string, len(values))}
	for k, v := range values {
		if !s.Allows(ExtraKey(k)) {
			return Extra{}, fmt.Errorf("%w: %q", ErrUnknownExtraKey, k)
		}
		e.values[ExtraKey(k)] = v
	}
	return e, nil
}

// Extra is the typed key/value bag attached to an order at checkout.
type Extra struct {
	values map[ExtraKey]string
}

// RestoreExtra rebuilds an Extra from persisted values.
func RestoreExtra(values map[string]string) Extra {
	e := Extra{values: make(map[ExtraKey]string, len(values))}
	for k, v := range values {
		e.values[ExtraKey(k)] = v
	}
	return e
}

func (e Extra) Get(key ExtraKey) (string, bool) {
	v, ok := e.values[key]
	return v, ok
}

// ShippingMethod is the shipping modifier chosen at checkout, if any.
func (e Extra) ShippingMethod() string {
	return e.values[ExtraShippingModifier]
}

// Map returns a copy of the values keyed by plain strings.
func (e Extra) Map() map[string]string {
	m := make(map[string]string, len(e.values))
	for k, v := range e.values {
		m[string(k)] = v
	}
	return m
}

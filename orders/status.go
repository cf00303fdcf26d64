package orders

import (
	"vendia/apperr"
	"vendia/models"
)

// Fulfillment lifecycle: placed -> paid -> shipped -> delivered, with
// placed|paid -> cancelled and delivered -> returned. Terminal states have
// no outgoing transitions.
var transitions = map[models.OrderStatus][]models.OrderStatus{
	models.OrderPlaced:    {models.OrderPaid, models.OrderCancelled},
	models.OrderPaid:      {models.OrderShipped, models.OrderCancelled},
	models.OrderShipped:   {models.OrderDelivered},
	models.OrderDelivered: {models.OrderReturned},
	models.OrderCancelled: {},
	models.OrderReturned:  {},
}

func allowed(from, to models.OrderStatus) bool {
	for _, s := range transitions[from] {
		if s == to {
			return true
		}
	}
	return false
}

// ParseStatus validates a client-supplied status string.
func ParseStatus(s string) (models.OrderStatus, error) {
	status := models.OrderStatus(s)
	if _, ok := transitions[status]; !ok {
		return "", apperr.Newf(apperr.InvalidArgument, "order", "", "unknown status %q", s)
	}
	return status, nil
}

// Capability tags carried in JWT claims.
const (
	CapCustomer    = "customer"
	CapPayments    = "payments"
	CapFulfillment = "fulfillment"
)

// Actor identifies who requests a transition and what they are allowed to
// do. The state machine itself only enforces the table; capability checks
// happen at the call site via Authorize.
type Actor struct {
	UserID string
	Caps   []string
}

func (a Actor) Has(capability string) bool {
	for _, c := range a.Caps {
		if c == capability {
			return true
		}
	}
	return false
}

// SystemActor is used for gateway-driven transitions.
var SystemActor = Actor{UserID: "system", Caps: []string{CapPayments}}

// Authorize checks whether the actor may request the given transition.
// Customers may only cancel their own not-yet-paid orders; everything else
// needs the payments or fulfillment capability.
func Authorize(actor Actor, order *models.Order, target models.OrderStatus) error {
	switch target {
	case models.OrderPaid:
		if actor.Has(CapPayments) {
			return nil
		}
	case models.OrderShipped, models.OrderDelivered, models.OrderReturned:
		if actor.Has(CapFulfillment) {
			return nil
		}
	case models.OrderCancelled:
		if actor.Has(CapPayments) || actor.Has(CapFulfillment) {
			return nil
		}
		if actor.Has(CapCustomer) && actor.UserID == order.UserID && order.Status == models.OrderPlaced {
			return nil
		}
	}
	return apperr.Newf(apperr.Unauthorized, "order", order.OrderID,
		"actor %s lacks capability for transition to %s", actor.UserID, target)
}

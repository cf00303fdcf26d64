package pay

import (
	"context"
	"encoding/json"
	"log"

	"vendia/apperr"
	"vendia/models"
	"vendia/orders"
)

// Outcome tells the webhook endpoint how an event was handled. Ignored is
// terminal: the gateway gets a 200 and will not retry, which is exactly
// what we want for events that can never succeed (unknown order, stale
// state).
type Outcome string

const (
	OutcomeApplied Outcome = "applied"
	OutcomeIgnored Outcome = "ignored"
)

// Reconciler creates payment intents and replays gateway webhook events
// onto orders. Webhook delivery is at-least-once and possibly reordered;
// everything here is idempotent by leaning on the monotonic state machine.
type Reconciler struct {
	gateway Gateway
	orders  *orders.Service
}

func NewReconciler(gateway Gateway, orderSvc *orders.Service) *Reconciler {
	return &Reconciler{gateway: gateway, orders: orderSvc}
}

// CreateIntent asks the gateway for an intent covering the order total and
// stores the returned id on the order. Status is untouched; payment is
// confirmed only via webhook.
func (rc *Reconciler) CreateIntent(ctx context.Context, orderID string, actor orders.Actor) (*models.IntentRef, error) {
	order, err := rc.orders.Get(ctx, orderID)
	if err != nil {
		return nil, err
	}
	if order.UserID != actor.UserID && !actor.Has(orders.CapPayments) {
		return nil, apperr.New(apperr.NotFound, "order", orderID, "order not found")
	}
	if order.Status != models.OrderPlaced {
		return nil, apperr.Newf(apperr.InvalidState, "order", orderID,
			"cannot create payment intent in status %s, want %s", order.Status, models.OrderPlaced)
	}

	ref, err := rc.gateway.CreateIntent(ctx, order.Total, order.Currency, order.OrderID)
	if err != nil {
		return nil, err
	}

	if err := rc.orders.AttachPaymentRef(ctx, orderID, ref.IntentID); err != nil {
		return nil, err
	}
	return ref, nil
}

// ApplyEvent is the single entry point for gateway callbacks. The raw body
// is verified before anything is decoded. Events that reference an unknown
// order, carry an unknown type, or arrive after the order has moved on are
// acknowledged and dropped; only infrastructure failures propagate so the
// gateway's retry policy fires on conditions that can actually resolve.
func (rc *Reconciler) ApplyEvent(ctx context.Context, payload []byte, signature string) (Outcome, error) {
	if err := rc.gateway.VerifySignature(payload, signature); err != nil {
		return OutcomeIgnored, err
	}

	var event models.GatewayEvent
	if err := json.Unmarshal(payload, &event); err != nil {
		log.Printf("ApplyEvent: dropping undecodable event: %v", err)
		return OutcomeIgnored, nil
	}

	var target models.OrderStatus
	switch event.Type {
	case models.EventPaymentSucceeded:
		target = models.OrderPaid
	case models.EventPaymentFailed, models.EventPaymentCancelled:
		target = models.OrderCancelled
	default:
		log.Printf("ApplyEvent: dropping event %s with unknown type %q", event.EventID, event.Type)
		return OutcomeIgnored, nil
	}

	orderID := event.OrderID()
	if orderID == "" {
		log.Printf("ApplyEvent: dropping event %s without order metadata", event.EventID)
		return OutcomeIgnored, nil
	}

	// A gateway failure may only cancel an order still awaiting payment.
	// Admin-driven paid->cancelled exists in the table, but a stale
	// failure event must not take that path, so the cancellation write is
	// pinned to placed; a payment landing concurrently makes the CAS
	// miss and the event is dropped as stale.
	var err error
	if target == models.OrderCancelled {
		_, err = rc.orders.TransitionFrom(ctx, orderID, models.OrderPlaced, target, orders.SystemActor)
	} else {
		_, err = rc.orders.Transition(ctx, orderID, target, orders.SystemActor)
	}
	if err != nil {
		switch apperr.CodeOf(err) {
		case apperr.NotFound:
			// Flagged for operational review: unknown orders are acked so
			// the gateway does not retry forever.
			log.Printf("ApplyEvent: event %s references unknown order %s, ignoring", event.EventID, orderID)
			return OutcomeIgnored, nil
		case apperr.InvalidState, apperr.Conflict:
			// Duplicate or out-of-order delivery; the order has already
			// moved on. Benign.
			log.Printf("ApplyEvent: stale event %s for order %s: %v", event.EventID, orderID, err)
			return OutcomeIgnored, nil
		default:
			return OutcomeIgnored, err
		}
	}

	return OutcomeApplied, nil
}

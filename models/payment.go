package models

// IntentRef is what the gateway hands back when an intent is created. The
// gateway owns the intent lifecycle; we store only the id on the order.
type IntentRef struct {
	IntentID     string `json:"intentId"`
	ClientSecret string `json:"clientSecret,omitempty"`
	Amount       int64  `json:"amount"`
	Currency     string `json:"currency"`
}

// Gateway webhook event types.
const (
	EventPaymentSucceeded = "payment.succeeded"
	EventPaymentFailed    = "payment.failed"
	EventPaymentCancelled = "payment.cancelled"
)

// GatewayEvent is the decoded webhook payload. Delivery is at-least-once
// and may be reordered; processing must tolerate both.
type GatewayEvent struct {
	EventID  string            `json:"id"`
	Type     string            `json:"type"`
	IntentID string            `json:"intentId"`
	Amount   int64             `json:"amount"`
	Currency string            `json:"currency"`
	Metadata map[string]string `json:"metadata"`
}

// OrderID extracts the correlation metadata set at intent creation.
func (e GatewayEvent) OrderID() string {
	return e.Metadata["orderId"]
}

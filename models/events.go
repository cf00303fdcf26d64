package models

import "time"

// OrderEvent is published on the order-events channel for downstream
// consumers (notification worker, analytics).
type OrderEvent struct {
	Type    string      `json:"type"` // order.placed, order.status_changed
	OrderID string      `json:"orderId"`
	UserID  string      `json:"userId"`
	Status  OrderStatus `json:"status"`
	Total   int64       `json:"total,omitempty"`
	At      time.Time   `json:"at"`
}

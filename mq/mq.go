package mq

import (
	"context"
	"encoding/json"
	"log"
	"time"

	"vendia/models"
	"vendia/rdx"
)

const orderEventsChannel = "order-events"

// EmitOrderEvent publishes an order lifecycle event for downstream
// consumers (notification worker, analytics). Publishing is best-effort:
// a broker failure is logged, never surfaced to the order flow.
func EmitOrderEvent(ctx context.Context, evType string, order *models.Order) {
	if rdx.Conn == nil {
		return
	}

	event := models.OrderEvent{
		Type:    evType,
		OrderID: order.OrderID,
		UserID:  order.UserID,
		Status:  order.Status,
		Total:   order.Total,
		At:      time.Now(),
	}

	data, err := json.Marshal(event)
	if err != nil {
		log.Printf("EmitOrderEvent marshal error: %v", err)
		return
	}

	if err := rdx.Conn.Publish(ctx, orderEventsChannel, data).Err(); err != nil {
		log.Printf("EmitOrderEvent publish error: %v", err)
	}
}

// StartOrderEventLogger subscribes to the order-events channel and logs
// each event. The real notification service consumes the same channel.
func StartOrderEventLogger(ctx context.Context) {
	sub := rdx.Conn.Subscribe(ctx, orderEventsChannel)
	ch := sub.Channel()

	for msg := range ch {
		var event models.OrderEvent
		if err := json.Unmarshal([]byte(msg.Payload), &event); err != nil {
			log.Printf("order event parse error: %v", err)
			continue
		}
		log.Printf("order event: type=%s order=%s status=%s", event.Type, event.OrderID, event.Status)
	}
}

package kafka

import (
	"strconv"
	"time"

	"github.com/google/uuid"

	"github.com/vladislavdragonenkov/foodstand/internal/domain"
)

// TopicOrderEvents: topic по умолчанию для событий заказов.
const TopicOrderEvents = "foodstand.order.events"

// Kafka headers
const (
	HeaderEventID   = "x-event-id"
	HeaderEventType = "x-event-type"
)

// OrderEvent: сообщение о изменении заказа.
type OrderEvent struct {
	EventID    string                `json:"event_id"`
	EventType  domain.OrderEventType `json:"event_type"`
	OrderID    int64                 `json:"order_id"`
	Order      domain.Order          `json:"order"`
	OccurredAt time.Time             `json:"occurred_at"`
}

// NewOrderEvent создает событие заказа со свежим идентификатором.
func NewOrderEvent(eventType domain.OrderEventType, order domain.Order) *OrderEvent {
	return &OrderEvent{
		EventID:    uuid.NewString(),
		EventType:  eventType,
		OrderID:    order.ID,
		Order:      order,
		OccurredAt: time.Now().UTC(),
	}
}

// Key возвращает ключ партиционирования: события одного заказа попадают в одну партицию.
func (e *OrderEvent) Key() string {
	return strconv.FormatInt(e.OrderID, 10)
}

package domain

import "context"

// OrderEventType: тип события жизненного цикла заказа.
type OrderEventType string

const (
	OrderEventCreated       OrderEventType = "order.created"
	OrderEventUpdated       OrderEventType = "order.updated"
	OrderEventStatusChanged OrderEventType = "order.status_changed"
	OrderEventDeleted       OrderEventType = "order.deleted"
)

// EventPublisher отправляет события заказа во внешнюю шину.
// Ошибка публикации не должна откатывать уже выполненную операцию.
type EventPublisher interface {
	PublishOrderEvent(ctx context.Context, eventType OrderEventType, order Order) error
}

// NoopPublisher используется, когда шина событий не настроена.
type NoopPublisher struct{}

// PublishOrderEvent ничего не делает.
func (NoopPublisher) PublishOrderEvent(context.Context, OrderEventType, Order) error { return nil }

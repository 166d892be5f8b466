package domain

import "context"

// OrderRepository описывает требования к хранилищу заказов.
type OrderRepository interface {
	// Create сохраняет новый заказ и возвращает его с выданным хранилищем ID.
	Create(ctx context.Context, order Order) (Order, error)
	// List возвращает все заказы в естественном порядке хранилища.
	List(ctx context.Context) ([]Order, error)
	// Get возвращает заказ по идентификатору или ErrOrderNotFound.
	Get(ctx context.Context, id int64) (Order, error)
	// Replace перезаписывает все поля заказа, кроме ID. ErrOrderNotFound, если заказа нет.
	Replace(ctx context.Context, order Order) (Order, error)
	// UpdateStatus меняет только статус и возвращает заказ после изменения.
	// ErrOrderNotFound, если заказа нет.
	UpdateStatus(ctx context.Context, id int64, status string) (Order, error)
	// Delete удаляет заказ и возвращает его последнее состояние.
	Delete(ctx context.Context, id int64) (Order, error)
}

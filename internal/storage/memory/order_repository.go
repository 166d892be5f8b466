package memory

import (
	"cmp"
	"context"
	"fmt"
	"slices"
	"sync"

	"github.com/vladislavdragonenkov/foodstand/internal/domain"
)

// orderRepositoryInMemory: in-memory реализация OrderRepository для локальной разработки и тестов.
type orderRepositoryInMemory struct {
	mu     sync.RWMutex
	nextID int64
	items  map[int64]domain.Order
}

// NewOrderRepository возвращает in-memory репозиторий; id выдаются с domain.FirstOrderID.
func NewOrderRepository() domain.OrderRepository {
	return &orderRepositoryInMemory{
		nextID: domain.FirstOrderID,
		items:  make(map[int64]domain.Order),
	}
}

// Create выдаёт следующий id; id удалённых заказов повторно не используются.
func (r *orderRepositoryInMemory) Create(_ context.Context, order domain.Order) (domain.Order, error) {
	order.Normalize()

	r.mu.Lock()
	defer r.mu.Unlock()

	order.ID = r.nextID
	r.nextID++
	r.items[order.ID] = cloneOrder(order)
	return cloneOrder(order), nil
}

// List возвращает заказы по возрастанию id.
func (r *orderRepositoryInMemory) List(_ context.Context) ([]domain.Order, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	result := make([]domain.Order, 0, len(r.items))
	for _, order := range r.items {
		result = append(result, cloneOrder(order))
	}
	slices.SortFunc(result, func(a, b domain.Order) int { return cmp.Compare(a.ID, b.ID) })
	return result, nil
}

func (r *orderRepositoryInMemory) Get(_ context.Context, id int64) (domain.Order, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	order, ok := r.items[id]
	if !ok {
		return domain.Order{}, fmt.Errorf("get order %d: %w", id, domain.ErrOrderNotFound)
	}
	return cloneOrder(order), nil
}

func (r *orderRepositoryInMemory) Replace(_ context.Context, order domain.Order) (domain.Order, error) {
	order.Normalize()

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.items[order.ID]; !ok {
		return domain.Order{}, fmt.Errorf("update order %d: %w", order.ID, domain.ErrOrderNotFound)
	}
	r.items[order.ID] = cloneOrder(order)
	return cloneOrder(order), nil
}

func (r *orderRepositoryInMemory) UpdateStatus(_ context.Context, id int64, status string) (domain.Order, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	order, ok := r.items[id]
	if !ok {
		return domain.Order{}, fmt.Errorf("update order %d status: %w", id, domain.ErrOrderNotFound)
	}
	order.Status = status
	r.items[id] = order
	return cloneOrder(order), nil
}

func (r *orderRepositoryInMemory) Delete(_ context.Context, id int64) (domain.Order, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	order, ok := r.items[id]
	if !ok {
		return domain.Order{}, fmt.Errorf("delete order %d: %w", id, domain.ErrOrderNotFound)
	}
	delete(r.items, id)
	return order, nil
}

// cloneOrder копирует срезы, чтобы вызывающий не мог изменить сохранённое состояние.
func cloneOrder(order domain.Order) domain.Order {
	order.Items = slices.Clone(order.Items)
	order.Extras = slices.Clone(order.Extras)
	return order
}

var _ domain.OrderRepository = (*orderRepositoryInMemory)(nil)

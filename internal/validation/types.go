package validation

import (
	"github.com/shopspring/decimal"

	"github.com/vladislavdragonenkov/foodstand/internal/domain"
)

// OrderPayload: тело POST /orders и PUT /orders/{id}.
// Указатели позволяют отличить отсутствующее поле от нулевого значения.
type OrderPayload struct {
	ID       *int64           `json:"id,omitempty"` // игнорируется, id выдаёт хранилище
	Name     string           `json:"name" validate:"required,max=100"`
	Items    []string         `json:"items" validate:"required"`
	Quantity *int             `json:"quantity" validate:"required"`
	Value    *decimal.Decimal `json:"value" validate:"required,money"`
	Extras   []string         `json:"extras,omitempty"`
	Status   string           `json:"status,omitempty"`
}

// ToOrder собирает доменный заказ из провалидированного payload.
func (p OrderPayload) ToOrder(id int64) domain.Order {
	order := domain.Order{
		ID:     id,
		Name:   p.Name,
		Items:  p.Items,
		Extras: p.Extras,
		Status: p.Status,
	}
	if p.Quantity != nil {
		order.Quantity = *p.Quantity
	}
	if p.Value != nil {
		order.Value = *p.Value
	}
	order.Normalize()
	return order
}

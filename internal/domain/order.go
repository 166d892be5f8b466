package domain

import (
	"bytes"
	"encoding/json"
	"fmt"

	"github.com/shopspring/decimal"
)

const (
	// DefaultStatus присваивается заказу, если клиент не передал статус.
	DefaultStatus = "Pending"
	// FirstOrderID: первый идентификатор, который выдаёт хранилище.
	FirstOrderID int64 = 100000
	// ValueScale: количество знаков после запятой для суммы заказа.
	ValueScale int32 = 2
)

// Order: заказ закусочной.
type Order struct {
	ID       int64           `json:"id"`
	Name     string          `json:"name"`
	Items    []string        `json:"items"`
	Quantity int             `json:"quantity"`
	Value    decimal.Decimal `json:"value"`
	Extras   []string        `json:"extras"`
	Status   string          `json:"status"`
}

// StatusPatch: тело запроса на смену статуса.
// Поле обязательно, но пустая строка допустима: статус хранится как есть.
type StatusPatch struct {
	Status *string `json:"status" validate:"required"`
}

// NewStatusPatch собирает тело PATCH с заданным статусом.
func NewStatusPatch(status string) StatusPatch {
	return StatusPatch{Status: &status}
}

// Normalize приводит заказ к каноничному виду перед сохранением:
// статус по умолчанию, пустые списки вместо nil, сумма с двумя знаками.
func (o *Order) Normalize() {
	if o.Status == "" {
		o.Status = DefaultStatus
	}
	if o.Items == nil {
		o.Items = []string{}
	}
	if o.Extras == nil {
		o.Extras = []string{}
	}
	o.Value = o.Value.Round(ValueScale)
}

// MarshalJSON отдаёт поля в порядке id, name, items, quantity, value, extras, status;
// value числом с двумя знаками, списки никогда не сериализуются как null.
func (o Order) MarshalJSON() ([]byte, error) {
	out := struct {
		ID       int64       `json:"id"`
		Name     string      `json:"name"`
		Items    []string    `json:"items"`
		Quantity int         `json:"quantity"`
		Value    json.Number `json:"value"`
		Extras   []string    `json:"extras"`
		Status   string      `json:"status"`
	}{
		ID:       o.ID,
		Name:     o.Name,
		Items:    nonNil(o.Items),
		Quantity: o.Quantity,
		Value:    json.Number(o.Value.StringFixed(ValueScale)),
		Extras:   nonNil(o.Extras),
		Status:   o.Status,
	}
	return json.Marshal(out)
}

// EncodeList сериализует список строк в JSON-массив для хранения в колонке.
func EncodeList(list []string) ([]byte, error) {
	data, err := json.Marshal(nonNil(list))
	if err != nil {
		return nil, fmt.Errorf("encode list: %w", err)
	}
	return data, nil
}

// DecodeList разбирает JSON-массив из колонки.
// NULL, пустое значение и литерал null дают пустой список.
func DecodeList(data []byte) ([]string, error) {
	trimmed := bytes.TrimSpace(data)
	if len(trimmed) == 0 || bytes.Equal(trimmed, []byte("null")) {
		return []string{}, nil
	}
	var list []string
	if err := json.Unmarshal(trimmed, &list); err != nil {
		return nil, fmt.Errorf("decode list: %w", err)
	}
	return nonNil(list), nil
}

func nonNil(list []string) []string {
	if list == nil {
		return []string{}
	}
	return list
}

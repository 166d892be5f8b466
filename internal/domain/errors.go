package domain

import "errors"

var (
	// ErrOrderNotFound возвращается, если заказа с таким id нет в хранилище.
	ErrOrderNotFound = errors.New("order not found")
	// ErrConnection: не удалось установить соединение с БД (сеть, аутентификация, TLS).
	ErrConnection = errors.New("database connection failed")
)

// IsNotFound проверяет, что ошибка означает отсутствие заказа.
func IsNotFound(err error) bool {
	return errors.Is(err, ErrOrderNotFound)
}

// IsConnection проверяет, что ошибка вызвана недоступностью БД.
func IsConnection(err error) bool {
	return errors.Is(err, ErrConnection)
}

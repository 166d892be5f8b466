package validation

import (
	"math"
	"reflect"
	"strings"

	validatorv10 "github.com/go-playground/validator/v10"
	"github.com/shopspring/decimal"

	"github.com/vladislavdragonenkov/foodstand/internal/domain"
)

// maxMoney: верхняя граница NUMERIC(10,2) (исключительно).
const maxMoney = 1e8

// New возвращает валидатор с зарегистрированными правилами сервиса.
func New() *validatorv10.Validate {
	v := validatorv10.New()

	// в ошибках используем имена полей из json-тегов
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name := strings.SplitN(f.Tag.Get("json"), ",", 2)[0]
		if name == "-" || name == "" {
			return f.Name
		}
		return name
	})

	// decimal валидируется как число, уже округлённое до копеек
	v.RegisterCustomTypeFunc(decimalValue, decimal.Decimal{})

	_ = v.RegisterValidation("money", validateMoney)

	return v
}

func decimalValue(field reflect.Value) interface{} {
	d, ok := field.Interface().(decimal.Decimal)
	if !ok {
		return nil
	}
	f, _ := d.Round(domain.ValueScale).Float64()
	return f
}

// validateMoney проверяет, что сумма помещается в колонку NUMERIC(10,2).
func validateMoney(fl validatorv10.FieldLevel) bool {
	if fl.Field().Kind() != reflect.Float64 {
		return false
	}
	return math.Abs(fl.Field().Float()) < maxMoney
}

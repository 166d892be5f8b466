package validation

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	validatorv10 "github.com/go-playground/validator/v10"
)

// Error: ошибка валидации запроса (ответ 422).
type Error struct {
	Code    string            `json:"error"`
	Message string            `json:"message"`
	Fields  map[string]string `json:"fields,omitempty"`
}

func (e *Error) Error() string {
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// BindAndValidate разбирает JSON-тело в out и прогоняет валидатор.
// При ошибке пишет 422 и возвращает *Error, хендлер должен сразу выйти.
func BindAndValidate(c *gin.Context, out interface{}, v *validatorv10.Validate) error {
	if err := c.ShouldBindJSON(out); err != nil {
		verr := bindError(err)
		c.AbortWithStatusJSON(http.StatusUnprocessableEntity, verr)
		return verr
	}

	if err := v.Struct(out); err != nil {
		verr := &Error{
			Code:    "validation_failed",
			Message: "request body failed validation",
			Fields:  validationErrorsToMap(err),
		}
		c.AbortWithStatusJSON(http.StatusUnprocessableEntity, verr)
		return verr
	}
	return nil
}

// ParseID читает целочисленный path-параметр name.
func ParseID(c *gin.Context, name string) (int64, error) {
	raw := c.Param(name)
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		verr := &Error{
			Code:    "invalid_id",
			Message: fmt.Sprintf("%s must be an integer, got %q", name, raw),
			Fields:  map[string]string{name: "must be an integer"},
		}
		c.AbortWithStatusJSON(http.StatusUnprocessableEntity, verr)
		return 0, verr
	}
	return id, nil
}

func bindError(err error) *Error {
	var typeErr *json.UnmarshalTypeError
	if errors.As(err, &typeErr) {
		return &Error{
			Code:    "invalid_request_body",
			Message: err.Error(),
			Fields:  map[string]string{typeErr.Field: fmt.Sprintf("expected %s, got %s", typeErr.Type, typeErr.Value)},
		}
	}
	return &Error{
		Code:    "invalid_request_body",
		Message: err.Error(),
	}
}

func validationErrorsToMap(err error) map[string]string {
	out := map[string]string{}
	var ve validatorv10.ValidationErrors
	if errors.As(err, &ve) {
		for _, fe := range ve {
			out[fe.Field()] = fieldMessage(fe)
		}
	} else {
		out["error"] = err.Error()
	}
	return out
}

func fieldMessage(fe validatorv10.FieldError) string {
	switch fe.Tag() {
	case "required":
		return "field is required"
	case "max":
		return fmt.Sprintf("must be at most %s characters", fe.Param())
	case "money":
		return "must be less than 100000000 in absolute value"
	default:
		return fe.Error()
	}
}

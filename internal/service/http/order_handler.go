package httpsvc

import (
	"context"
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"
	validatorv10 "github.com/go-playground/validator/v10"
	log "github.com/sirupsen/logrus"

	"github.com/vladislavdragonenkov/foodstand/internal/domain"
	"github.com/vladislavdragonenkov/foodstand/internal/metrics"
	"github.com/vladislavdragonenkov/foodstand/internal/validation"
)

const (
	operationCreate       = "create"
	operationList         = "list"
	operationGet          = "get"
	operationReplace      = "replace"
	operationUpdateStatus = "update_status"
	operationDelete       = "delete"

	idParam = "id"
)

// ErrorResponse: тело ответа с ошибкой.
type ErrorResponse struct {
	Code    string `json:"error"`
	Message string `json:"message"`
}

// OrderHandler обслуживает CRUD API заказов.
type OrderHandler struct {
	repo     domain.OrderRepository
	events   domain.EventPublisher
	validate *validatorv10.Validate
	metrics  *metrics.OrderMetrics
	logger   *log.Entry
}

// NewOrderHandler конструирует хендлер. events и orderMetrics могут быть nil.
func NewOrderHandler(
	repo domain.OrderRepository,
	events domain.EventPublisher,
	orderMetrics *metrics.OrderMetrics,
	logger *log.Entry,
) *OrderHandler {
	if events == nil {
		events = domain.NoopPublisher{}
	}
	if logger == nil {
		logger = log.New().WithField("component", "order-handler")
	}
	return &OrderHandler{
		repo:     repo,
		events:   events,
		validate: validation.New(),
		metrics:  orderMetrics,
		logger:   logger,
	}
}

// Register вешает маршруты /orders на router.
func (h *OrderHandler) Register(router gin.IRouter) {
	orders := router.Group("/orders")
	orders.POST("", h.CreateOrder)
	orders.GET("", h.ListOrders)
	orders.GET("/:"+idParam, h.GetOrder)
	orders.PUT("/:"+idParam, h.ReplaceOrder)
	orders.PATCH("/:"+idParam, h.UpdateOrderStatus)
	orders.DELETE("/:"+idParam, h.DeleteOrder)
}

// CreateOrder: POST /orders.
func (h *OrderHandler) CreateOrder(c *gin.Context) {
	var payload validation.OrderPayload
	if err := validation.BindAndValidate(c, &payload, h.validate); err != nil {
		h.metrics.RecordOperation(operationCreate, metrics.ResultInvalid)
		return
	}

	created, err := h.repo.Create(c.Request.Context(), payload.ToOrder(0))
	if err != nil {
		h.fail(c, operationCreate, 0, err)
		return
	}
	h.metrics.RecordOperation(operationCreate, metrics.ResultOK)
	h.publish(c.Request.Context(), domain.OrderEventCreated, created)

	c.Header("Location", fmt.Sprintf("/orders/%d", created.ID))
	c.JSON(http.StatusCreated, created)
}

// ListOrders: GET /orders.
func (h *OrderHandler) ListOrders(c *gin.Context) {
	orders, err := h.repo.List(c.Request.Context())
	if err != nil {
		h.fail(c, operationList, 0, err)
		return
	}
	if orders == nil {
		orders = []domain.Order{}
	}
	h.metrics.RecordOperation(operationList, metrics.ResultOK)
	c.JSON(http.StatusOK, orders)
}

// GetOrder: GET /orders/:id.
func (h *OrderHandler) GetOrder(c *gin.Context) {
	id, ok := h.orderID(c, operationGet)
	if !ok {
		return
	}

	order, err := h.repo.Get(c.Request.Context(), id)
	if err != nil {
		h.fail(c, operationGet, id, err)
		return
	}
	h.metrics.RecordOperation(operationGet, metrics.ResultOK)
	c.JSON(http.StatusOK, order)
}

// ReplaceOrder: PUT /orders/:id, полная замена полей заказа.
func (h *OrderHandler) ReplaceOrder(c *gin.Context) {
	id, ok := h.orderID(c, operationReplace)
	if !ok {
		return
	}

	var payload validation.OrderPayload
	if err := validation.BindAndValidate(c, &payload, h.validate); err != nil {
		h.metrics.RecordOperation(operationReplace, metrics.ResultInvalid)
		return
	}

	updated, err := h.repo.Replace(c.Request.Context(), payload.ToOrder(id))
	if err != nil {
		h.fail(c, operationReplace, id, err)
		return
	}
	h.metrics.RecordOperation(operationReplace, metrics.ResultOK)
	h.publish(c.Request.Context(), domain.OrderEventUpdated, updated)

	c.JSON(http.StatusOK, gin.H{"message": "order updated", "order": updated})
}

// UpdateOrderStatus: PATCH /orders/:id, меняет только статус.
func (h *OrderHandler) UpdateOrderStatus(c *gin.Context) {
	id, ok := h.orderID(c, operationUpdateStatus)
	if !ok {
		return
	}

	var patch domain.StatusPatch
	if err := validation.BindAndValidate(c, &patch, h.validate); err != nil {
		h.metrics.RecordOperation(operationUpdateStatus, metrics.ResultInvalid)
		return
	}

	ctx := c.Request.Context()
	updated, err := h.repo.UpdateStatus(ctx, id, *patch.Status)
	if err != nil {
		h.fail(c, operationUpdateStatus, id, err)
		return
	}
	h.metrics.RecordOperation(operationUpdateStatus, metrics.ResultOK)
	h.publish(ctx, domain.OrderEventStatusChanged, updated)

	c.JSON(http.StatusOK, gin.H{"message": "status updated"})
}

// DeleteOrder: DELETE /orders/:id, возвращает удалённый заказ.
func (h *OrderHandler) DeleteOrder(c *gin.Context) {
	id, ok := h.orderID(c, operationDelete)
	if !ok {
		return
	}

	deleted, err := h.repo.Delete(c.Request.Context(), id)
	if err != nil {
		h.fail(c, operationDelete, id, err)
		return
	}
	h.metrics.RecordOperation(operationDelete, metrics.ResultOK)
	h.publish(c.Request.Context(), domain.OrderEventDeleted, deleted)

	c.JSON(http.StatusOK, gin.H{"message": "order deleted", "order": deleted})
}

func (h *OrderHandler) orderID(c *gin.Context, operation string) (int64, bool) {
	id, err := validation.ParseID(c, idParam)
	if err != nil {
		h.metrics.RecordOperation(operation, metrics.ResultInvalid)
		return 0, false
	}
	return id, true
}

// fail переводит ошибку репозитория в HTTP-ответ. Текст внутренних ошибок клиенту не отдаётся.
func (h *OrderHandler) fail(c *gin.Context, operation string, id int64, err error) {
	entry := h.logger.WithError(err).WithFields(log.Fields{
		"operation": operation,
		"order_id":  id,
	})

	switch {
	case domain.IsNotFound(err):
		entry.Debug("order not found")
		h.metrics.RecordOperation(operation, metrics.ResultNotFound)
		c.AbortWithStatusJSON(http.StatusNotFound, ErrorResponse{
			Code:    "not_found",
			Message: fmt.Sprintf("order %d not found", id),
		})
	case domain.IsConnection(err):
		entry.Error("database unavailable")
		h.metrics.RecordOperation(operation, metrics.ResultUnavailable)
		c.AbortWithStatusJSON(http.StatusServiceUnavailable, ErrorResponse{
			Code:    "storage_unavailable",
			Message: "database is unavailable",
		})
	default:
		entry.Error("order operation failed")
		h.metrics.RecordOperation(operation, metrics.ResultError)
		c.AbortWithStatusJSON(http.StatusInternalServerError, ErrorResponse{
			Code:    "internal_error",
			Message: "internal server error",
		})
	}
}

// publish отправляет событие; ошибка только логируется, ответ клиенту не меняется.
func (h *OrderHandler) publish(ctx context.Context, eventType domain.OrderEventType, order domain.Order) {
	err := h.events.PublishOrderEvent(ctx, eventType, order)
	h.metrics.RecordEvent(string(eventType), err)
	if err != nil {
		h.logger.WithError(err).WithFields(log.Fields{
			"event_type": eventType,
			"order_id":   order.ID,
		}).Warn("failed to publish order event")
	}
}

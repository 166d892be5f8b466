package httpsvc

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	log "github.com/sirupsen/logrus"

	"github.com/vladislavdragonenkov/foodstand/internal/metrics"
)

const (
	// HeaderRequestID: заголовок корреляции запроса.
	HeaderRequestID = "X-Request-Id"

	requestIDKey   = "request_id"
	unmatchedRoute = "unmatched"
)

// NewRouter собирает gin-движок с middleware и маршрутами заказов.
func NewRouter(handler *OrderHandler, orderMetrics *metrics.OrderMetrics, logger *log.Entry) *gin.Engine {
	router := gin.New()
	router.Use(
		RequestID(),
		RequestLogger(logger),
		Metrics(orderMetrics),
		gin.Recovery(),
	)

	router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	handler.Register(router)

	return router
}

// RequestID берёт X-Request-Id из запроса или генерирует новый.
func RequestID() gin.HandlerFunc {
	return func(c *gin.Context) {
		requestID := c.GetHeader(HeaderRequestID)
		if requestID == "" {
			requestID = uuid.NewString()
		}
		c.Set(requestIDKey, requestID)
		c.Header(HeaderRequestID, requestID)
		c.Next()
	}
}

// RequestLogger пишет access log через logrus.
func RequestLogger(logger *log.Entry) gin.HandlerFunc {
	if logger == nil {
		logger = log.WithField("component", "http")
	}
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		status := c.Writer.Status()
		entry := logger.WithFields(log.Fields{
			"method":     c.Request.Method,
			"route":      routeOf(c),
			"path":       c.Request.URL.Path,
			"status":     status,
			"latency_ms": time.Since(start).Milliseconds(),
			"request_id": c.GetString(requestIDKey),
		})
		if len(c.Errors) > 0 {
			entry = entry.WithField("errors", c.Errors.String())
		}

		switch {
		case status >= http.StatusInternalServerError:
			entry.Error("request completed")
		case status >= http.StatusBadRequest:
			entry.Warn("request completed")
		default:
			entry.Info("request completed")
		}
	}
}

// Metrics измеряет длительность запросов по шаблону маршрута.
func Metrics(orderMetrics *metrics.OrderMetrics) gin.HandlerFunc {
	return func(c *gin.Context) {
		orderMetrics.RequestStarted()
		start := time.Now()

		c.Next()

		orderMetrics.RequestFinished()
		orderMetrics.ObserveRequest(c.Request.Method, routeOf(c), c.Writer.Status(), time.Since(start))
	}
}

// routeOf возвращает шаблон маршрута, чтобы id не раздували кардинальность меток.
func routeOf(c *gin.Context) string {
	if route := c.FullPath(); route != "" {
		return route
	}
	return unmatchedRoute
}

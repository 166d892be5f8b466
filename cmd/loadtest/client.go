package main

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"time"

	"github.com/shopspring/decimal"

	"github.com/vladislavdragonenkov/foodstand/internal/domain"
	"github.com/vladislavdragonenkov/foodstand/internal/version"
)

const (
	methodCreate = "POST /orders"
	methodGet    = "GET /orders/:id"
	methodPatch  = "PATCH /orders/:id"
	methodDelete = "DELETE /orders/:id"

	statusTransportError = "transport_error"
)

// ordersClient: минимальный HTTP-клиент API заказов для нагрузочного теста.
type ordersClient struct {
	baseURL string
	http    *http.Client
	timeout time.Duration
	col     *collector
}

type createRequest struct {
	Name     string          `json:"name"`
	Items    []string        `json:"items"`
	Quantity int             `json:"quantity"`
	Value    decimal.Decimal `json:"value"`
	Extras   []string        `json:"extras,omitempty"`
}

type deleteResponse struct {
	Message string       `json:"message"`
	Order   domain.Order `json:"order"`
}

func newOrdersClient(baseURL string, httpClient *http.Client, timeout time.Duration, col *collector) *ordersClient {
	return &ordersClient{
		baseURL: baseURL,
		http:    httpClient,
		timeout: timeout,
		col:     col,
	}
}

func (c *ordersClient) create(req createRequest) (domain.Order, error) {
	var created domain.Order
	err := c.call(methodCreate, http.MethodPost, "/orders", req, http.StatusCreated, &created)
	return created, err
}

func (c *ordersClient) get(id int64) (domain.Order, error) {
	var order domain.Order
	err := c.call(methodGet, http.MethodGet, orderPath(id), nil, http.StatusOK, &order)
	return order, err
}

func (c *ordersClient) patchStatus(id int64, status string) error {
	return c.call(methodPatch, http.MethodPatch, orderPath(id), domain.NewStatusPatch(status), http.StatusOK, nil)
}

func (c *ordersClient) delete(id int64) (domain.Order, error) {
	var resp deleteResponse
	err := c.call(methodDelete, http.MethodDelete, orderPath(id), nil, http.StatusOK, &resp)
	return resp.Order, err
}

func (c *ordersClient) call(method, httpMethod, path string, body any, want int, out any) error {
	start := time.Now()
	result := outcome{status: statusTransportError}
	defer func() {
		c.col.record(method, time.Since(start), result)
	}()

	ctx, cancel := context.WithTimeout(context.Background(), c.timeout)
	defer cancel()

	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("%s: encode body: %w", method, err)
		}
		reader = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, httpMethod, c.baseURL+path, reader)
	if err != nil {
		return fmt.Errorf("%s: build request: %w", method, err)
	}
	req.Header.Set("User-Agent", version.UserAgent("loadtest"))
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("%s: %w", method, err)
	}
	defer resp.Body.Close()

	result.status = strconv.Itoa(resp.StatusCode)
	if resp.StatusCode != want {
		_, _ = io.Copy(io.Discard, resp.Body)
		return fmt.Errorf("%s: unexpected status %d", method, resp.StatusCode)
	}
	if out != nil {
		if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
			result.status = "decode_error"
			return fmt.Errorf("%s: decode response: %w", method, err)
		}
	}
	result.ok = true
	return nil
}

func orderPath(id int64) string {
	return "/orders/" + strconv.FormatInt(id, 10)
}

var errLostUpdate = errors.New("status patch was not visible on read")

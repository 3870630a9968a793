// Package ordercheck verifies purchases against the order service. Product
// reviews may only be written by customers who actually received the
// product, so review creation asks the order service for the reviewer's
// delivered orders.
package ordercheck

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"

	"github.com/utafrali/ReviewsGo/pkg/httpclient"
)

// maxOrderPages caps how far back the purchase check walks a customer's
// order history.
const maxOrderPages = 5

const ordersPerPage = 100

// Client queries the order service over HTTP. Calls run through a circuit
// breaker so a degraded order service fails review creation fast instead of
// piling up blocked requests.
type Client struct {
	http    Doer
	baseURL string
	logger  *slog.Logger
}

// Doer is the outbound HTTP surface the client needs. Satisfied by
// httpclient.CircuitBreakerClient.
type Doer interface {
	Get(ctx context.Context, url string) (*http.Response, error)
}

// New creates an order service client with the default retrying client
// wrapped in a circuit breaker.
func New(baseURL string, logger *slog.Logger) *Client {
	base := httpclient.New(httpclient.DefaultConfig())
	cb := httpclient.NewCircuitBreakerClient(base, httpclient.DefaultCircuitBreakerConfig("order-service"), logger)
	return NewWithDoer(baseURL, cb, logger)
}

// NewWithDoer creates a client with a caller-supplied HTTP client.
func NewWithDoer(baseURL string, doer Doer, logger *slog.Logger) *Client {
	return &Client{
		http:    doer,
		baseURL: baseURL,
		logger:  logger,
	}
}

type orderItem struct {
	ProductID string `json:"product_id"`
}

type order struct {
	ID     string      `json:"id"`
	Status string      `json:"status"`
	Items  []orderItem `json:"items"`
}

type listOrdersResponse struct {
	Data []order `json:"data"`
	Meta *struct {
		TotalCount int `json:"total_count"`
		TotalPages int `json:"total_pages"`
	} `json:"meta"`
}

// LatestDeliveredOrder returns the id of the most recent delivered order in
// which the user bought the product, or "" when no such order exists.
func (c *Client) LatestDeliveredOrder(ctx context.Context, userID, productID string) (string, error) {
	var found string

	err := c.walkDeliveredOrders(ctx, userID, func(o order) bool {
		for _, item := range o.Items {
			if item.ProductID == productID {
				found = o.ID
				return false
			}
		}
		return true
	})
	if err != nil {
		return "", err
	}

	return found, nil
}

// PurchasedProductIDs returns the distinct product ids across the user's
// delivered orders, most recent purchase first.
func (c *Client) PurchasedProductIDs(ctx context.Context, userID string) ([]string, error) {
	seen := make(map[string]struct{})
	var ids []string

	err := c.walkDeliveredOrders(ctx, userID, func(o order) bool {
		for _, item := range o.Items {
			if _, ok := seen[item.ProductID]; ok {
				continue
			}
			seen[item.ProductID] = struct{}{}
			ids = append(ids, item.ProductID)
		}
		return true
	})
	if err != nil {
		return nil, err
	}

	return ids, nil
}

// walkDeliveredOrders pages through the user's delivered orders, newest
// first, calling visit for each until visit returns false or the pages run
// out.
func (c *Client) walkDeliveredOrders(ctx context.Context, userID string, visit func(order) bool) error {
	for page := 1; page <= maxOrderPages; page++ {
		resp, err := c.listDeliveredOrders(ctx, userID, page)
		if err != nil {
			return err
		}

		for _, o := range resp.Data {
			if !visit(o) {
				return nil
			}
		}

		if len(resp.Data) < ordersPerPage {
			return nil
		}
		if resp.Meta != nil && page >= resp.Meta.TotalPages {
			return nil
		}
	}

	c.logger.Warn("purchase check stopped before exhausting order history",
		slog.String("user_id", userID),
		slog.Int("pages", maxOrderPages),
	)

	return nil
}

func (c *Client) listDeliveredOrders(ctx context.Context, userID string, page int) (*listOrdersResponse, error) {
	q := url.Values{}
	q.Set("user_id", userID)
	q.Set("status", "delivered")
	q.Set("page", fmt.Sprintf("%d", page))
	q.Set("per_page", fmt.Sprintf("%d", ordersPerPage))

	reqURL := fmt.Sprintf("%s/api/v1/orders?%s", c.baseURL, q.Encode())

	resp, err := c.http.Get(ctx, reqURL)
	if err != nil {
		return nil, fmt.Errorf("list delivered orders: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		return nil, httpclient.ParseResponseError(resp, "order-service")
	}
	defer func() { _ = resp.Body.Close() }()

	var body listOrdersResponse
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return nil, fmt.Errorf("decode orders response: %w", err)
	}

	return &body, nil
}

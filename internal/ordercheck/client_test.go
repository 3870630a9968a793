package ordercheck

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// doerFunc adapts a plain function to the Doer interface, bypassing the
// circuit breaker in tests.
type doerFunc func(ctx context.Context, url string) (*http.Response, error)

func (f doerFunc) Get(ctx context.Context, url string) (*http.Response, error) {
	return f(ctx, url)
}

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func newTestClient(t *testing.T, handler http.HandlerFunc) *Client {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	doer := doerFunc(func(ctx context.Context, url string) (*http.Response, error) {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
		if err != nil {
			return nil, err
		}
		return srv.Client().Do(req)
	})

	return NewWithDoer(srv.URL, doer, testLogger())
}

func ordersPage(t *testing.T, w http.ResponseWriter, orders []order, totalPages int) {
	t.Helper()
	resp := listOrdersResponse{Data: orders}
	resp.Meta = &struct {
		TotalCount int `json:"total_count"`
		TotalPages int `json:"total_pages"`
	}{TotalCount: len(orders), TotalPages: totalPages}

	w.Header().Set("Content-Type", "application/json")
	require.NoError(t, json.NewEncoder(w).Encode(resp))
}

func TestLatestDeliveredOrder_Found(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/v1/orders", r.URL.Path)
		assert.Equal(t, "user-1", r.URL.Query().Get("user_id"))
		assert.Equal(t, "delivered", r.URL.Query().Get("status"))

		ordersPage(t, w, []order{
			{ID: "order-9", Status: "delivered", Items: []orderItem{{ProductID: "prod-other"}}},
			{ID: "order-7", Status: "delivered", Items: []orderItem{{ProductID: "prod-1"}, {ProductID: "prod-2"}}},
			{ID: "order-3", Status: "delivered", Items: []orderItem{{ProductID: "prod-1"}}},
		}, 1)
	})

	orderID, err := client.LatestDeliveredOrder(context.Background(), "user-1", "prod-1")
	require.NoError(t, err)

	// Orders arrive newest first; the first match wins.
	assert.Equal(t, "order-7", orderID)
}

func TestLatestDeliveredOrder_NotPurchased(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		ordersPage(t, w, []order{
			{ID: "order-9", Status: "delivered", Items: []orderItem{{ProductID: "prod-other"}}},
		}, 1)
	})

	orderID, err := client.LatestDeliveredOrder(context.Background(), "user-1", "prod-1")
	require.NoError(t, err)
	assert.Empty(t, orderID)
}

func TestLatestDeliveredOrder_NoOrders(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		ordersPage(t, w, nil, 0)
	})

	orderID, err := client.LatestDeliveredOrder(context.Background(), "user-1", "prod-1")
	require.NoError(t, err)
	assert.Empty(t, orderID)
}

func TestLatestDeliveredOrder_UpstreamError(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
		_, _ = w.Write([]byte(`{"error":{"code":"INTERNAL","message":"boom"}}`))
	})

	_, err := client.LatestDeliveredOrder(context.Background(), "user-1", "prod-1")
	assert.Error(t, err)
}

func TestPurchasedProductIDs_Deduplicates(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		ordersPage(t, w, []order{
			{ID: "order-9", Status: "delivered", Items: []orderItem{{ProductID: "prod-2"}, {ProductID: "prod-1"}}},
			{ID: "order-3", Status: "delivered", Items: []orderItem{{ProductID: "prod-1"}, {ProductID: "prod-3"}}},
		}, 1)
	})

	ids, err := client.PurchasedProductIDs(context.Background(), "user-1")
	require.NoError(t, err)

	// Most recent purchase first, later repeats dropped.
	assert.Equal(t, []string{"prod-2", "prod-1", "prod-3"}, ids)
}

func TestPurchasedProductIDs_Paginates(t *testing.T) {
	pagesServed := 0
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		pagesServed++
		page := r.URL.Query().Get("page")

		if page == "1" {
			orders := make([]order, ordersPerPage)
			for i := range orders {
				orders[i] = order{ID: "order-a", Status: "delivered", Items: []orderItem{{ProductID: "prod-bulk"}}}
			}
			ordersPage(t, w, orders, 2)
			return
		}

		ordersPage(t, w, []order{
			{ID: "order-b", Status: "delivered", Items: []orderItem{{ProductID: "prod-tail"}}},
		}, 2)
	})

	ids, err := client.PurchasedProductIDs(context.Background(), "user-1")
	require.NoError(t, err)
	assert.Equal(t, 2, pagesServed)
	assert.Equal(t, []string{"prod-bulk", "prod-tail"}, ids)
}

func TestLatestDeliveredOrder_StopsAfterMatch(t *testing.T) {
	pagesServed := 0
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		pagesServed++
		orders := make([]order, ordersPerPage)
		for i := range orders {
			orders[i] = order{ID: "order-x", Status: "delivered", Items: []orderItem{{ProductID: "prod-1"}}}
		}
		ordersPage(t, w, orders, 3)
	})

	orderID, err := client.LatestDeliveredOrder(context.Background(), "user-1", "prod-1")
	require.NoError(t, err)
	assert.Equal(t, "order-x", orderID)
	assert.Equal(t, 1, pagesServed)
}

func TestWalkDeliveredOrders_PageCap(t *testing.T) {
	pagesServed := 0
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		pagesServed++
		orders := make([]order, ordersPerPage)
		for i := range orders {
			orders[i] = order{ID: "order-x", Status: "delivered", Items: []orderItem{{ProductID: "prod-endless"}}}
		}
		ordersPage(t, w, orders, 1000)
	})

	ids, err := client.PurchasedProductIDs(context.Background(), "user-1")
	require.NoError(t, err)
	assert.Equal(t, []string{"prod-endless"}, ids)
	assert.Equal(t, maxOrderPages, pagesServed)
}

package api

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"sales-ledger/internal/service"
	"sales-ledger/internal/store/memory"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestRouter(t *testing.T) *gin.Engine {
	t.Helper()
	gin.SetMode(gin.TestMode)

	st := memory.New()
	presenter := service.NewCurrencyPresenter("USD", map[string]float64{"EUR": 0.5})

	handler := NewHandler(
		service.NewInventoryService(st, nil),
		service.NewSalesService(st, nil, nil),
		service.NewInvoiceService(st),
		service.NewPaymentService(st, nil),
		service.NewReportService(st, presenter),
	)

	router := gin.New()
	handler.SetupRoutes(router)
	return router
}

func doRequest(t *testing.T, router *gin.Engine, method, path, businessID string, body interface{}) *httptest.ResponseRecorder {
	t.Helper()

	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}

	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if businessID != "" {
		req.Header.Set("X-Business-ID", businessID)
	}

	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

func decodeBody(t *testing.T, w *httptest.ResponseRecorder) map[string]interface{} {
	t.Helper()
	var out map[string]interface{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &out))
	return out
}

func createItem(t *testing.T, router *gin.Engine, businessID string, price int64, qty int) string {
	t.Helper()
	w := doRequest(t, router, http.MethodPost, "/api/v1/inventory", businessID, gin.H{
		"name":          "Widget",
		"selling_price": price,
		"quantity":      qty,
	})
	require.Equal(t, http.StatusCreated, w.Code)
	return decodeBody(t, w)["id"].(string)
}

func TestMissingBusinessIDHeader(t *testing.T) {
	router := newTestRouter(t)

	w := doRequest(t, router, http.MethodGet, "/api/v1/inventory", "", nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, w.Body.String(), "X-Business-ID")

	// Health endpoints sit outside the tenant boundary.
	w = doRequest(t, router, http.MethodGet, "/health", "", nil)
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestSaleLifecycleOverHTTP(t *testing.T) {
	router := newTestRouter(t)
	itemID := createItem(t, router, "biz-1", 5, 10)

	w := doRequest(t, router, http.MethodPost, "/api/v1/sales", "biz-1", gin.H{
		"item_id":        itemID,
		"quantity":       3,
		"kind":           "CASH",
		"payment_method": "cash",
	})
	require.Equal(t, http.StatusCreated, w.Code)
	sale := decodeBody(t, w)
	assert.Equal(t, float64(15), sale["total_amount"])

	w = doRequest(t, router, http.MethodGet, "/api/v1/inventory/"+itemID, "biz-1", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, float64(7), decodeBody(t, w)["quantity_on_hand"])

	w = doRequest(t, router, http.MethodDelete, "/api/v1/sales/"+sale["id"].(string), "biz-1", nil)
	require.Equal(t, http.StatusOK, w.Code)

	w = doRequest(t, router, http.MethodGet, "/api/v1/inventory/"+itemID, "biz-1", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, float64(10), decodeBody(t, w)["quantity_on_hand"])
}

func TestErrorStatusMapping(t *testing.T) {
	router := newTestRouter(t)
	itemID := createItem(t, router, "biz-1", 5, 10)

	// Insufficient stock maps to 409.
	w := doRequest(t, router, http.MethodPost, "/api/v1/sales", "biz-1", gin.H{
		"item_id":        itemID,
		"quantity":       100,
		"kind":           "CASH",
		"payment_method": "cash",
	})
	assert.Equal(t, http.StatusConflict, w.Code)
	assert.Equal(t, "insufficient_stock", decodeBody(t, w)["kind"])

	// Validation maps to 400.
	w = doRequest(t, router, http.MethodPost, "/api/v1/sales", "biz-1", gin.H{
		"item_id":  itemID,
		"quantity": 1,
		"kind":     "BARTER",
	})
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "validation", decodeBody(t, w)["kind"])

	// Unknown resources map to 404.
	w = doRequest(t, router, http.MethodGet, "/api/v1/sales/no-such-sale", "biz-1", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Equal(t, "not_found", decodeBody(t, w)["kind"])

	// Another tenant's resource is indistinguishable from a missing one.
	w = doRequest(t, router, http.MethodGet, "/api/v1/inventory/"+itemID, "biz-2", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestPaymentEndpointReturnsInvoiceView(t *testing.T) {
	router := newTestRouter(t)
	itemID := createItem(t, router, "biz-1", 10, 10)
	due := time.Now().Add(7 * 24 * time.Hour).Format(time.RFC3339)

	w := doRequest(t, router, http.MethodPost, "/api/v1/sales", "biz-1", gin.H{
		"item_id":       itemID,
		"quantity":      2,
		"kind":          "CREDIT",
		"customer_name": "Ada",
		"due_date":      due,
	})
	require.Equal(t, http.StatusCreated, w.Code)
	saleID := decodeBody(t, w)["id"].(string)

	paymentsPath := fmt.Sprintf("/api/v1/sales/%s/payments", saleID)
	w = doRequest(t, router, http.MethodPost, paymentsPath, "biz-1", gin.H{
		"amount": 15,
		"method": "cash",
	})
	require.Equal(t, http.StatusCreated, w.Code)

	body := decodeBody(t, w)
	payment := body["payment"].(map[string]interface{})
	invoice := body["invoice"].(map[string]interface{})
	assert.Equal(t, float64(15), payment["amount"])
	assert.Equal(t, float64(5), invoice["balance"])
	assert.Equal(t, "PENDING", invoice["status"])

	// Overpayment maps to 409.
	w = doRequest(t, router, http.MethodPost, paymentsPath, "biz-1", gin.H{
		"amount": 50,
		"method": "cash",
	})
	assert.Equal(t, http.StatusConflict, w.Code)
	assert.Equal(t, "overpayment", decodeBody(t, w)["kind"])

	// Deleting a paid sale maps to 409 as well.
	w = doRequest(t, router, http.MethodDelete, "/api/v1/sales/"+saleID, "biz-1", nil)
	assert.Equal(t, http.StatusConflict, w.Code)
	assert.Equal(t, "conflict", decodeBody(t, w)["kind"])
}

func TestIdempotencyKeyHeader(t *testing.T) {
	router := newTestRouter(t)
	itemID := createItem(t, router, "biz-1", 5, 10)

	post := func() *httptest.ResponseRecorder {
		body, err := json.Marshal(gin.H{
			"item_id":        itemID,
			"quantity":       3,
			"kind":           "CASH",
			"payment_method": "cash",
		})
		require.NoError(t, err)

		req := httptest.NewRequest(http.MethodPost, "/api/v1/sales", bytes.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
		req.Header.Set("X-Business-ID", "biz-1")
		req.Header.Set("Idempotency-Key", "retry-42")

		w := httptest.NewRecorder()
		router.ServeHTTP(w, req)
		return w
	}

	first := post()
	require.Equal(t, http.StatusCreated, first.Code)
	second := post()
	require.Equal(t, http.StatusCreated, second.Code)
	assert.Equal(t, decodeBody(t, first)["id"], decodeBody(t, second)["id"])

	w := doRequest(t, router, http.MethodGet, "/api/v1/inventory/"+itemID, "biz-1", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, float64(7), decodeBody(t, w)["quantity_on_hand"])
}

func TestSummaryEndpoint(t *testing.T) {
	router := newTestRouter(t)
	itemID := createItem(t, router, "biz-1", 10, 10)

	w := doRequest(t, router, http.MethodPost, "/api/v1/sales", "biz-1", gin.H{
		"item_id":        itemID,
		"quantity":       4,
		"kind":           "CASH",
		"payment_method": "cash",
	})
	require.Equal(t, http.StatusCreated, w.Code)

	w = doRequest(t, router, http.MethodPost, "/api/v1/expenses", "biz-1", gin.H{
		"title":  "Rent",
		"amount": 10,
	})
	require.Equal(t, http.StatusCreated, w.Code)

	w = doRequest(t, router, http.MethodGet, "/api/v1/reports/summary", "biz-1", nil)
	require.Equal(t, http.StatusOK, w.Code)
	summary := decodeBody(t, w)
	assert.Equal(t, float64(40), summary["total_income_received"])
	assert.Equal(t, float64(30), summary["net_profit"])
	assert.Equal(t, "USD", summary["currency"])

	w = doRequest(t, router, http.MethodGet, "/api/v1/reports/summary?currency=EUR", "biz-1", nil)
	require.Equal(t, http.StatusOK, w.Code)
	summary = decodeBody(t, w)
	assert.Equal(t, float64(20), summary["total_income_received"])
	assert.Equal(t, "EUR", summary["currency"])

	w = doRequest(t, router, http.MethodGet, "/api/v1/reports/summary?start=not-a-date", "biz-1", nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestInvoiceEndpoints(t *testing.T) {
	router := newTestRouter(t)
	itemID := createItem(t, router, "biz-1", 10, 10)
	due := time.Now().Add(-24 * time.Hour).Format(time.RFC3339)

	w := doRequest(t, router, http.MethodPost, "/api/v1/sales", "biz-1", gin.H{
		"item_id":       itemID,
		"quantity":      2,
		"kind":          "CREDIT",
		"customer_name": "Ada",
		"due_date":      due,
	})
	require.Equal(t, http.StatusCreated, w.Code)
	saleID := decodeBody(t, w)["id"].(string)

	w = doRequest(t, router, http.MethodGet, "/api/v1/invoices/"+saleID, "biz-1", nil)
	require.Equal(t, http.StatusOK, w.Code)
	invoice := decodeBody(t, w)
	assert.Equal(t, float64(20), invoice["balance"])
	assert.Equal(t, "OVERDUE", invoice["status"])

	w = doRequest(t, router, http.MethodGet, "/api/v1/invoices?status=OVERDUE", "biz-1", nil)
	require.Equal(t, http.StatusOK, w.Code)
	list := decodeBody(t, w)["invoices"].([]interface{})
	assert.Len(t, list, 1)

	w = doRequest(t, router, http.MethodGet, "/api/v1/invoices?status=PAID", "biz-1", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Empty(t, decodeBody(t, w)["invoices"])
}

package api

import (
	"net/http"
	"strconv"
	"time"

	"sales-ledger/internal/apperr"
	"sales-ledger/internal/models"
	"sales-ledger/internal/service"
	"sales-ledger/internal/store"
	"sales-ledger/internal/util"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// businessIDKey is where the tenant middleware stashes the resolved tenant.
const businessIDKey = "businessID"

// Handler contains HTTP handlers
type Handler struct {
	inventory *service.InventoryService
	sales     *service.SalesService
	invoices  *service.InvoiceService
	payments  *service.PaymentService
	reports   *service.ReportService
}

// NewHandler creates a new HTTP handler
func NewHandler(
	inventory *service.InventoryService,
	sales *service.SalesService,
	invoices *service.InvoiceService,
	payments *service.PaymentService,
	reports *service.ReportService,
) *Handler {
	return &Handler{
		inventory: inventory,
		sales:     sales,
		invoices:  invoices,
		payments:  payments,
		reports:   reports,
	}
}

// SetupRoutes sets up HTTP routes
func (h *Handler) SetupRoutes(router *gin.Engine) {
	router.Use(gin.Recovery())
	router.Use(prometheusMiddleware())
	router.Use(gin.Logger())

	router.GET("/health", h.healthCheck)
	router.GET("/ready", h.readinessCheck)

	router.GET("/metrics", gin.WrapH(promhttp.Handler()))

	v1 := router.Group("/api/v1")
	v1.Use(requireBusinessID())
	{
		v1.POST("/inventory", h.createItem)
		v1.GET("/inventory", h.listItems)
		v1.GET("/inventory/:id", h.getItem)
		v1.PATCH("/inventory/:id", h.updateItem)
		v1.DELETE("/inventory/:id", h.deleteItem)
		v1.POST("/inventory/:id/adjust", h.adjustStock)

		v1.POST("/sales", h.createSale)
		v1.GET("/sales", h.listSales)
		v1.GET("/sales/:id", h.getSale)
		v1.DELETE("/sales/:id", h.deleteSale)

		v1.POST("/sales/:id/payments", h.createPayment)
		v1.GET("/sales/:id/payments", h.listPayments)

		v1.GET("/invoices", h.listInvoices)
		v1.GET("/invoices/:id", h.getInvoice)

		v1.GET("/reports/summary", h.getSummary)

		v1.POST("/expenses", h.createExpense)
		v1.GET("/expenses", h.listExpenses)
		v1.DELETE("/expenses/:id", h.deleteExpense)
	}
}

// requireBusinessID resolves the tenant from the X-Business-ID header.
// Authentication itself is the upstream gateway's job; the ledger only
// needs the resolved tenant.
func requireBusinessID() gin.HandlerFunc {
	return func(c *gin.Context) {
		businessID := c.GetHeader("X-Business-ID")
		if businessID == "" {
			c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{
				"error": "Missing X-Business-ID header",
			})
			return
		}
		c.Set(businessIDKey, businessID)
		c.Next()
	}
}

func businessID(c *gin.Context) string {
	return c.GetString(businessIDKey)
}

// writeError maps ledger error kinds onto HTTP statuses
func writeError(c *gin.Context, err error) {
	status := http.StatusInternalServerError
	switch apperr.KindOf(err) {
	case apperr.KindValidation:
		status = http.StatusBadRequest
	case apperr.KindNotFound:
		status = http.StatusNotFound
	case apperr.KindInsufficientStock, apperr.KindOverpayment, apperr.KindConflict:
		status = http.StatusConflict
	}

	c.JSON(status, gin.H{
		"error": err.Error(),
		"kind":  apperr.KindOf(err).String(),
	})
}

// parseTimeParam accepts RFC 3339 or plain dates
func parseTimeParam(val string) (time.Time, bool) {
	if val == "" {
		return time.Time{}, true
	}
	if t, err := time.Parse(time.RFC3339, val); err == nil {
		return t, true
	}
	if t, err := time.Parse("2006-01-02", val); err == nil {
		return t, true
	}
	return time.Time{}, false
}

func dateRangeFromQuery(c *gin.Context) (store.DateRange, bool) {
	start, ok := parseTimeParam(c.Query("start"))
	if !ok {
		return store.DateRange{}, false
	}
	end, ok := parseTimeParam(c.Query("end"))
	if !ok {
		return store.DateRange{}, false
	}
	return store.DateRange{Start: start, End: end}, true
}

// healthCheck handles health check requests
func (h *Handler) healthCheck(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status": "healthy",
		"time":   time.Now().Unix(),
	})
}

// readinessCheck handles readiness check requests
func (h *Handler) readinessCheck(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status": "ready",
		"time":   time.Now().Unix(),
	})
}

// Inventory

func (h *Handler) createItem(c *gin.Context) {
	var req service.AddItemRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		writeError(c, apperr.Validationf("invalid request body: %v", err))
		return
	}

	item, err := h.inventory.AddItem(c.Request.Context(), businessID(c), &req)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusCreated, item)
}

func (h *Handler) listItems(c *gin.Context) {
	items, err := h.inventory.ListItems(c.Request.Context(), businessID(c))
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"items": items})
}

func (h *Handler) getItem(c *gin.Context) {
	item, err := h.inventory.GetItem(c.Request.Context(), businessID(c), c.Param("id"))
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, item)
}

func (h *Handler) updateItem(c *gin.Context) {
	var req service.UpdateItemRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		writeError(c, apperr.Validationf("invalid request body: %v", err))
		return
	}

	item, err := h.inventory.UpdateItem(c.Request.Context(), businessID(c), c.Param("id"), &req)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, item)
}

func (h *Handler) deleteItem(c *gin.Context) {
	if err := h.inventory.DeleteItem(c.Request.Context(), businessID(c), c.Param("id")); err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"deleted": c.Param("id")})
}

func (h *Handler) adjustStock(c *gin.Context) {
	var req struct {
		Delta int `json:"delta" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		writeError(c, apperr.Validationf("invalid request body: %v", err))
		return
	}

	item, err := h.inventory.AdjustStock(c.Request.Context(), businessID(c), c.Param("id"), req.Delta)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, item)
}

// Sales

func (h *Handler) createSale(c *gin.Context) {
	var req service.RecordSaleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		writeError(c, apperr.Validationf("invalid request body: %v", err))
		return
	}

	if req.IdempotencyKey == "" {
		req.IdempotencyKey = c.GetHeader("Idempotency-Key")
	}

	sale, err := h.sales.RecordSale(c.Request.Context(), businessID(c), &req)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusCreated, sale)
}

func (h *Handler) listSales(c *gin.Context) {
	r, ok := dateRangeFromQuery(c)
	if !ok {
		writeError(c, apperr.Validationf("invalid start or end date"))
		return
	}

	sales, err := h.sales.ListSales(c.Request.Context(), businessID(c), store.SaleFilter{
		Kind:     models.SaleKind(c.Query("kind")),
		Customer: c.Query("customer"),
		Start:    r.Start,
		End:      r.End,
	})
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"sales": sales})
}

func (h *Handler) getSale(c *gin.Context) {
	sale, err := h.sales.GetSale(c.Request.Context(), businessID(c), c.Param("id"))
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, sale)
}

func (h *Handler) deleteSale(c *gin.Context) {
	if err := h.sales.DeleteSale(c.Request.Context(), businessID(c), c.Param("id")); err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"deleted": c.Param("id")})
}

// Payments

func (h *Handler) createPayment(c *gin.Context) {
	var req service.RecordPaymentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		writeError(c, apperr.Validationf("invalid request body: %v", err))
		return
	}

	payment, invoice, err := h.payments.RecordPayment(c.Request.Context(), businessID(c), c.Param("id"), &req)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{
		"payment": payment,
		"invoice": invoice,
	})
}

func (h *Handler) listPayments(c *gin.Context) {
	payments, err := h.payments.ListPayments(c.Request.Context(), businessID(c), c.Param("id"))
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"payments": payments})
}

// Invoices

func (h *Handler) listInvoices(c *gin.Context) {
	r, ok := dateRangeFromQuery(c)
	if !ok {
		writeError(c, apperr.Validationf("invalid start or end date"))
		return
	}

	invoices, err := h.invoices.ListInvoices(c.Request.Context(), businessID(c), service.InvoiceFilter{
		Status:   models.InvoiceStatus(c.Query("status")),
		Customer: c.Query("customer"),
		Start:    r.Start,
		End:      r.End,
	})
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"invoices": invoices})
}

func (h *Handler) getInvoice(c *gin.Context) {
	invoice, err := h.invoices.GetInvoice(c.Request.Context(), businessID(c), c.Param("id"))
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, invoice)
}

// Reports

func (h *Handler) getSummary(c *gin.Context) {
	r, ok := dateRangeFromQuery(c)
	if !ok {
		writeError(c, apperr.Validationf("invalid start or end date"))
		return
	}

	summary, err := h.reports.Summarize(c.Request.Context(), businessID(c), r, c.Query("currency"))
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, summary)
}

// Expenses

func (h *Handler) createExpense(c *gin.Context) {
	var req service.AddExpenseRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		writeError(c, apperr.Validationf("invalid request body: %v", err))
		return
	}

	expense, err := h.reports.AddExpense(c.Request.Context(), businessID(c), &req)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusCreated, expense)
}

func (h *Handler) listExpenses(c *gin.Context) {
	r, ok := dateRangeFromQuery(c)
	if !ok {
		writeError(c, apperr.Validationf("invalid start or end date"))
		return
	}

	expenses, err := h.reports.ListExpenses(c.Request.Context(), businessID(c), r)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"expenses": expenses})
}

func (h *Handler) deleteExpense(c *gin.Context) {
	if err := h.reports.DeleteExpense(c.Request.Context(), businessID(c), c.Param("id")); err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"deleted": c.Param("id")})
}

// prometheusMiddleware collects HTTP metrics
func prometheusMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()

		c.Next()

		duration := time.Since(start).Seconds()
		status := strconv.Itoa(c.Writer.Status())

		util.HTTPRequestDuration.WithLabelValues(
			c.Request.Method,
			c.FullPath(),
			status,
		).Observe(duration)

		util.HTTPRequestsTotal.WithLabelValues(
			c.Request.Method,
			c.FullPath(),
			status,
		).Inc()
	}
}

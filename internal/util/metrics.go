package util

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	SalesRecordedTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "ledger_sales_recorded_total",
		Help: "Total number of sales committed to the ledger",
	}, []string{"kind"})

	SalesFailedTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "ledger_sales_failed_total",
		Help: "Total number of rejected sale requests",
	}, []string{"reason"})

	SalesDeletedTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "ledger_sales_deleted_total",
		Help: "Total number of unpaid sales reversed",
	})

	PaymentsRecordedTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "ledger_payments_recorded_total",
		Help: "Total number of payments appended",
	})

	PaymentsFailedTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "ledger_payments_failed_total",
		Help: "Total number of rejected payment requests",
	}, []string{"reason"})

	InvoicesSettledTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "ledger_invoices_settled_total",
		Help: "Total number of invoices whose balance reached zero",
	})

	StockAdjustmentsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "ledger_stock_adjustments_total",
		Help: "Total number of manual stock adjustments",
	}, []string{"direction"})

	RecordSaleLatency = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "ledger_record_sale_latency_seconds",
		Help:    "Latency of the atomic sale commit",
		Buckets: prometheus.DefBuckets,
	})

	RecordPaymentLatency = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "ledger_record_payment_latency_seconds",
		Help:    "Latency of the atomic payment commit",
		Buckets: prometheus.DefBuckets,
	})

	HTTPRequestDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "http_request_duration_seconds",
		Help:    "HTTP request latency",
		Buckets: prometheus.DefBuckets,
	}, []string{"method", "path", "status"})

	HTTPRequestsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "http_requests_total",
		Help: "Total number of HTTP requests",
	}, []string{"method", "path", "status"})
)

package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds the service-level Prometheus collectors.
type Metrics struct {
	TasksProcessed    prometheus.Counter
	TasksFailed       prometheus.Counter
	SignalsPublished  prometheus.Counter
	SignalsDropped    prometheus.Counter
	NotificationsSent prometheus.Counter
	OrdersPlaced      prometheus.Counter
}

func New(namespace string) *Metrics {
	return &Metrics{
		TasksProcessed: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace, Name: "tasks_processed_total",
			Help: "Stock deduction tasks completed successfully.",
		}),
		TasksFailed: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace, Name: "tasks_failed_total",
			Help: "Stock deduction tasks that ended in error.",
		}),
		SignalsPublished: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace, Name: "stock_signals_published_total",
			Help: "Stock-changed signals written to the broker.",
		}),
		SignalsDropped: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace, Name: "stock_signals_dropped_total",
			Help: "Stock-changed signals dropped because the publish buffer was full.",
		}),
		NotificationsSent: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace, Name: "low_stock_notifications_total",
			Help: "Low-stock notifications forwarded to the operator channel.",
		}),
		OrdersPlaced: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace, Name: "orders_placed_total",
			Help: "Orders accepted by the placement API.",
		}),
	}
}

// Handler returns the HTTP handler to mount on the metrics listener.
func Handler() http.Handler {
	return promhttp.Handler()
}

package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

type Metrics struct {
	OrdersCreated     prometheus.Counter
	PaymentsConfirmed prometheus.Counter
	LowStockAlerts    prometheus.Counter
	WebhooksRejected  prometheus.Counter
}

func New(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		OrdersCreated: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "storefront",
			Name:      "orders_created_total",
			Help:      "Total number of orders created.",
		}),
		PaymentsConfirmed: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "storefront",
			Name:      "payments_confirmed_total",
			Help:      "Total number of payments reconciled to paid.",
		}),
		LowStockAlerts: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "storefront",
			Name:      "low_stock_alerts_total",
			Help:      "Total number of low stock alerts emitted.",
		}),
		WebhooksRejected: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "storefront",
			Name:      "webhooks_rejected_total",
			Help:      "Total number of webhook deliveries rejected for a bad signature.",
		}),
	}
	reg.MustRegister(m.OrdersCreated, m.PaymentsConfirmed, m.LowStockAlerts, m.WebhooksRejected)
	return m
}

func Handler() http.Handler {
	return promhttp.Handler()
}

package services

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var paymentOutcomes = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: "gateway",
		Name:      "payments_processed_total",
		Help:      "Payments that reached a final status, by provider and status.",
	},
	[]string{"provider", "status"},
)

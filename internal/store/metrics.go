package store

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var storeOperationsTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Name: "catalog_store_operations_total",
		Help: "Total number of item store operations",
	},
	[]string{"operation", "result"},
)

func observeStoreOp(op string, err error) {
	result := "ok"
	if err != nil {
		result = "error"
	}
	storeOperationsTotal.WithLabelValues(op, result).Inc()
}

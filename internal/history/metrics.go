package history

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// storeOps counts store calls by operation ("append", "list") and outcome
// ("ok", "error"). Served from the default registry on /metrics.
var storeOps = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: "history",
		Name:      "store_operations_total",
		Help:      "Total number of history store operations.",
	},
	[]string{"operation", "outcome"},
)

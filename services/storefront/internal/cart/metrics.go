package cart

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	mutationsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "storefront_cart_mutations_total",
		Help: "Cart mutations sent to the shop API by operation and result",
	}, []string{"op", "result"})

	staleRefetchTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "storefront_cart_stale_refetch_total",
		Help: "Cart refetch responses discarded because a newer one was already applied",
	})
)

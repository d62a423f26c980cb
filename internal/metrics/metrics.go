package metrics

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	CommandsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "txtcoin_commands_total",
			Help: "Dispatched SMS commands by name and outcome",
		},
		[]string{"command", "outcome"}, // outcome: ok | error kind
	)

	RepliesTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "txtcoin_replies_total",
			Help: "Outbound reply SMS by outcome",
		},
		[]string{"outcome"}, // sent|failed
	)

	ProviderRequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "txtcoin_provider_requests_total",
			Help: "Wallet provider calls by operation and outcome",
		},
		[]string{"op", "outcome"},
	)
)

var once sync.Once

// MustRegister registers the collectors once; serve and worker may both call it.
func MustRegister(r prometheus.Registerer) {
	once.Do(func() {
		r.MustRegister(
			CommandsTotal,
			RepliesTotal,
			ProviderRequestsTotal,
		)
	})
}

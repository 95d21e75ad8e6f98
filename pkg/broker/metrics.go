package broker

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const (
	outcomeAcked    = "acked"
	outcomeRequeued = "requeued"
	outcomeDropped  = "dropped"
)

var (
	deliveriesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "broker_deliveries_total",
			Help: "Deliveries settled by consumers, by queue and outcome",
		},
		[]string{"queue", "outcome"},
	)

	publishedTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "broker_published_total",
			Help: "Messages published, by exchange and result",
		},
		[]string{"exchange", "result"},
	)
)

func recordPublish(exchange string, err error) {
	result := "ok"
	if err != nil {
		result = "error"
	}
	publishedTotal.WithLabelValues(exchange, result).Inc()
}

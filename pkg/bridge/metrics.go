package bridge

import (
	"github.com/prometheus/client_golang/prometheus"
)

const metricsNamespace = "evm_bridge"

type Metrics struct {
	signRequests   *prometheus.CounterVec
	signDuration   prometheus.Histogram
	recoveryIds    *prometheus.CounterVec
	keyFetchErrors prometheus.Counter
}

// NewMetrics builds the bridge collectors and registers them with reg when
// reg is not nil.
func NewMetrics(reg prometheus.Registerer) (*Metrics, error) {
	m := &Metrics{
		signRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: metricsNamespace,
			Name:      "sign_transaction_total",
			Help:      "Transactions run through the signing pipeline, by result.",
		}, []string{"result"}),
		signDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: metricsNamespace,
			Name:      "sign_transaction_duration_seconds",
			Help:      "Wall time of the signing pipeline including the remote signer round trip.",
			Buckets:   prometheus.DefBuckets,
		}),
		recoveryIds: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: metricsNamespace,
			Name:      "recovery_id_total",
			Help:      "Resolved recovery ids.",
		}, []string{"recovery_id"}),
		keyFetchErrors: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: metricsNamespace,
			Name:      "public_key_fetch_errors_total",
			Help:      "Failed public key fetches from the remote signer.",
		}),
	}
	if reg == nil {
		return m, nil
	}
	for _, c := range []prometheus.Collector{m.signRequests, m.signDuration, m.recoveryIds, m.keyFetchErrors} {
		if err := reg.Register(c); err != nil {
			return nil, err
		}
	}
	return m, nil
}

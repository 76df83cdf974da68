// Package metrics exposes Prometheus metrics for the token node.
package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/Klingon-tech/feetoken/internal/events"
	"github.com/Klingon-tech/feetoken/internal/policy"
)

const namespace = "feetoken"

// Source provides the live token values exported as gauges.
type Source interface {
	TotalSupply() (uint64, error)
	Policy() policy.Config
}

// Metrics holds the node's collectors. Each instance owns its registry,
// so several nodes can run in one process.
type Metrics struct {
	registry *prometheus.Registry

	// Committed value movements by operation and kind (transfer, mint, burn)
	Movements *prometheus.CounterVec

	// Tokens moved, by kind
	Volume *prometheus.CounterVec

	// Fees routed to the fee recipient
	FeesCollected prometheus.Counter

	// Rejected operations by operation and reason code
	Rejections *prometheus.CounterVec

	// Committed events by name
	Events *prometheus.CounterVec

	// RPC request latency by method
	RPCLatency *prometheus.HistogramVec

	// Gossip messages published and received
	Gossip *prometheus.CounterVec
}

// New creates a Metrics instance with every collector registered.
func New() *Metrics {
	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector())
	reg.MustRegister(collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	f := promauto.With(reg)

	return &Metrics{
		registry: reg,

		Movements: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "movements_total",
			Help:      "Committed value movements by operation and kind",
		}, []string{"op", "kind"}),

		Volume: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "volume_total",
			Help:      "Gross token amount moved by kind",
		}, []string{"kind"}),

		FeesCollected: f.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "fees_collected_total",
			Help:      "Transfer fees routed to the fee recipient",
		}),

		Rejections: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "rejections_total",
			Help:      "Rejected operations by operation and reason code",
		}, []string{"op", "reason"}),

		Events: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "events_total",
			Help:      "Committed events by name",
		}, []string{"event"}),

		RPCLatency: f.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "rpc_duration_seconds",
			Help:      "JSON-RPC request duration by method",
			Buckets:   []float64{0.0005, 0.001, 0.0025, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 1},
		}, []string{"method"}),

		Gossip: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "gossip_messages_total",
			Help:      "Gossip messages by direction",
		}, []string{"direction"}),
	}
}

// Track registers gauges that read live values from src.
func (m *Metrics) Track(src Source) {
	if m == nil {
		return
	}
	f := promauto.With(m.registry)
	f.NewGaugeFunc(prometheus.GaugeOpts{
		Namespace: namespace,
		Name:      "total_supply",
		Help:      "Current total supply",
	}, func() float64 {
		v, err := src.TotalSupply()
		if err != nil {
			return 0
		}
		return float64(v)
	})
	f.NewGaugeFunc(prometheus.GaugeOpts{
		Namespace: namespace,
		Name:      "paused",
		Help:      "1 while value movements are paused",
	}, func() float64 {
		if src.Policy().Paused {
			return 1
		}
		return 0
	})
	f.NewGaugeFunc(prometheus.GaugeOpts{
		Namespace: namespace,
		Name:      "transfer_fee_basis_points",
		Help:      "Current transfer fee in basis points",
	}, func() float64 {
		return float64(src.Policy().TransferFeeBasisPoints)
	})
}

// Applied records a committed value movement.
func (m *Metrics) Applied(op string, s *policy.Split) {
	if m == nil {
		return
	}
	kind := s.Request.Kind().String()
	m.Movements.WithLabelValues(op, kind).Inc()
	m.Volume.WithLabelValues(kind).Add(float64(s.Request.Amount))
	if s.Fee > 0 {
		m.FeesCollected.Add(float64(s.Fee))
	}
}

// Rejected records a failed operation.
func (m *Metrics) Rejected(op string, err error) {
	if m == nil {
		return
	}
	reason := policy.Reason(err)
	if reason == "" {
		reason = "OTHER"
	}
	m.Rejections.WithLabelValues(op, reason).Inc()
}

// Publish counts a committed event. Metrics is an events.Sink.
func (m *Metrics) Publish(ev events.Event) {
	if m == nil {
		return
	}
	m.Events.WithLabelValues(ev.Name).Inc()
}

// ObserveRPC records the duration of one RPC call.
func (m *Metrics) ObserveRPC(method string, d time.Duration) {
	if m != nil {
		m.RPCLatency.WithLabelValues(method).Observe(d.Seconds())
	}
}

// GossipPublished counts an outgoing gossip message.
func (m *Metrics) GossipPublished() {
	if m != nil {
		m.Gossip.WithLabelValues("out").Inc()
	}
}

// GossipReceived counts an incoming gossip message.
func (m *Metrics) GossipReceived() {
	if m != nil {
		m.Gossip.WithLabelValues("in").Inc()
	}
}

// Registry returns the underlying registry.
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

// Handler serves the registry in the Prometheus text format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{Registry: m.registry})
}

// Package telemetry wraps Prometheus counters and gauges for the mesh
// node's frame I/O, dedup drops, membership size and radio state
// transitions. Handler exposes a node's registry over HTTP for a caller
// that chooses to serve it; neither the node library nor the simulator
// command serves it.
package telemetry

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics is one node's namespaced metric set. Each node constructs its
// own Registry so multiple in-process simulated nodes don't collide on
// global Prometheus collectors.
type Metrics struct {
	Registry *prometheus.Registry

	FramesSent      *prometheus.CounterVec
	FramesReceived  *prometheus.CounterVec
	DuplicateDrops  prometheus.Counter
	ActiveNeighbors prometheus.Gauge
	PendingData     prometheus.Gauge
	QueueDepth      prometheus.Gauge
	RadioErrors     prometheus.Counter
	RadioState      *prometheus.GaugeVec
}

// New returns a registered metric set labeled with nodeID, namespaced
// "lifelink".
func New(nodeID string) *Metrics {
	reg := prometheus.NewRegistry()
	constLabels := prometheus.Labels{"node_id": nodeID}

	m := &Metrics{
		Registry: reg,
		FramesSent: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace:   "lifelink",
			Name:        "frames_sent_total",
			Help:        "Frames transmitted, by type.",
			ConstLabels: constLabels,
		}, []string{"type"}),
		FramesReceived: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace:   "lifelink",
			Name:        "frames_received_total",
			Help:        "Frames successfully decoded off the radio, by type.",
			ConstLabels: constLabels,
		}, []string{"type"}),
		DuplicateDrops: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace:   "lifelink",
			Name:        "duplicate_drops_total",
			Help:        "Frames dropped by the duplicate suppressor.",
			ConstLabels: constLabels,
		}),
		ActiveNeighbors: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace:   "lifelink",
			Name:        "active_neighbors",
			Help:        "Number of live, used neighbor table entries.",
			ConstLabels: constLabels,
		}),
		PendingData: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace:   "lifelink",
			Name:        "pending_data",
			Help:        "Outbound DATA frames awaiting ACK.",
			ConstLabels: constLabels,
		}),
		QueueDepth: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace:   "lifelink",
			Name:        "tx_queue_depth",
			Help:        "Frames currently waiting on the transmit queue.",
			ConstLabels: constLabels,
		}),
		RadioErrors: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace:   "lifelink",
			Name:        "radio_errors_total",
			Help:        "Radio-level errors: rejected starts, transmit timeouts, read errors.",
			ConstLabels: constLabels,
		}),
		RadioState: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace:   "lifelink",
			Name:        "radio_state",
			Help:        "1 for the radio state machine's current state, 0 otherwise.",
			ConstLabels: constLabels,
		}, []string{"state"}),
	}

	reg.MustRegister(
		m.FramesSent, m.FramesReceived, m.DuplicateDrops,
		m.ActiveNeighbors, m.PendingData, m.QueueDepth,
		m.RadioErrors, m.RadioState,
	)
	return m
}

// Handler exposes this node's /metrics endpoint.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.Registry, promhttp.HandlerOpts{})
}

// stateNames lists every radio.State label RadioState ever sets, so a
// transition always zeroes the states it's leaving.
var stateNames = []string{"Idle", "Tx", "Rx", "TxDone", "RxDone", "TxTimeout", "RxTimeout", "RxError"}

// SetRadioState marks current as the only active state-machine label.
func (m *Metrics) SetRadioState(current string) {
	for _, s := range stateNames {
		if s == current {
			m.RadioState.WithLabelValues(s).Set(1)
		} else {
			m.RadioState.WithLabelValues(s).Set(0)
		}
	}
}

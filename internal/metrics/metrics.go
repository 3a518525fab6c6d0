// Package metrics holds the Prometheus collectors for the InSim clients.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "lfsboard"

// Metrics is safe to use through a nil pointer, in which case nothing is recorded.
type Metrics struct {
	recordsDecoded  *prometheus.CounterVec
	decodeErrors    *prometheus.CounterVec
	lapsRecorded    *prometheus.CounterVec
	lapsDiscarded   *prometheus.CounterVec
	reconnects      *prometheus.CounterVec
	connected       *prometheus.GaugeVec
	renderDuration  *prometheus.HistogramVec
	remoteLapsTotal *prometheus.CounterVec
}

// New registers the collectors with reg.
func New(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)

	return &Metrics{
		recordsDecoded: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "records_decoded_total",
			Help:      "Total number of InSim records decoded",
		}, []string{"client", "type"}),

		decodeErrors: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "decode_errors_total",
			Help:      "Total number of malformed records or frames",
		}, []string{"client"}),

		lapsRecorded: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "laps_recorded_total",
			Help:      "Total number of laps appended to the store",
		}, []string{"client", "track"}),

		lapsDiscarded: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "laps_discarded_total",
			Help:      "Total number of laps by the local player that were not recorded",
		}, []string{"client", "reason"}),

		reconnects: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "reconnects_total",
			Help:      "Total number of connection attempts after a failure",
		}, []string{"client"}),

		connected: factory.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "connected",
			Help:      "Whether the client currently holds a connection",
		}, []string{"client"}),

		renderDuration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "render_duration_seconds",
			Help:      "Time to query laps and draw the leaderboard",
			Buckets:   prometheus.DefBuckets,
		}, []string{"client"}),

		remoteLapsTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "remote_laps_total",
			Help:      "Total number of laps announced from other clients",
		}, []string{"client"}),
	}
}

func (m *Metrics) RecordDecoded(client, recordType string) {
	if m == nil {
		return
	}
	m.recordsDecoded.WithLabelValues(client, recordType).Inc()
}

func (m *Metrics) DecodeError(client string) {
	if m == nil {
		return
	}
	m.decodeErrors.WithLabelValues(client).Inc()
}

func (m *Metrics) LapRecorded(client, track string) {
	if m == nil {
		return
	}
	m.lapsRecorded.WithLabelValues(client, track).Inc()
}

func (m *Metrics) LapDiscarded(client, reason string) {
	if m == nil {
		return
	}
	m.lapsDiscarded.WithLabelValues(client, reason).Inc()
}

func (m *Metrics) Reconnect(client string) {
	if m == nil {
		return
	}
	m.reconnects.WithLabelValues(client).Inc()
}

func (m *Metrics) SetConnected(client string, connected bool) {
	if m == nil {
		return
	}
	v := 0.0
	if connected {
		v = 1
	}
	m.connected.WithLabelValues(client).Set(v)
}

func (m *Metrics) ObserveRender(client string, d time.Duration) {
	if m == nil {
		return
	}
	m.renderDuration.WithLabelValues(client).Observe(d.Seconds())
}

func (m *Metrics) RemoteLap(client string) {
	if m == nil {
		return
	}
	m.remoteLapsTotal.WithLabelValues(client).Inc()
}

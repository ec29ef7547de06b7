package service

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/mmynk/payledger/internal/models"
)

const metricsNamespace = "payledger"

// Push results recorded in payledger_push_sends_total.
const (
	resultSent         = "sent"
	resultUnnamed      = "sent_without_id"
	resultFailed       = "failed"
	resultUnregistered = "unregistered"
)

// Metrics holds the collectors of the notification pipeline.
// A nil *Metrics is valid and records nothing.
type Metrics struct {
	intents         *prometheus.CounterVec
	pushSends       *prometheus.CounterVec
	deliveryRecords *prometheus.CounterVec
	sweepDuration   prometheus.Histogram
}

// NewMetrics creates the collectors and registers them with reg.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		intents: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: metricsNamespace,
			Name:      "intents_total",
			Help:      "Notification intents emitted, by topic.",
		}, []string{"topic"}),
		pushSends: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: metricsNamespace,
			Name:      "push_sends_total",
			Help:      "Push sends to individual devices, by topic and result.",
		}, []string{"topic", "result"}),
		deliveryRecords: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: metricsNamespace,
			Name:      "delivery_records_total",
			Help:      "Delivery record writes, by result.",
		}, []string{"result"}),
		sweepDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: metricsNamespace,
			Name:      "sweep_duration_seconds",
			Help:      "Duration of expiration sweeps.",
			Buckets:   prometheus.DefBuckets,
		}),
	}
	reg.MustRegister(m.intents, m.pushSends, m.deliveryRecords, m.sweepDuration)
	return m
}

func (m *Metrics) intentEmitted(topic models.Topic) {
	if m == nil {
		return
	}
	m.intents.WithLabelValues(string(topic)).Inc()
}

func (m *Metrics) pushSent(topic models.Topic, result string) {
	if m == nil {
		return
	}
	m.pushSends.WithLabelValues(string(topic), result).Inc()
}

func (m *Metrics) deliveryRecorded(ok bool) {
	if m == nil {
		return
	}
	result := "ok"
	if !ok {
		result = "error"
	}
	m.deliveryRecords.WithLabelValues(result).Inc()
}

func (m *Metrics) sweepFinished(elapsed time.Duration) {
	if m == nil {
		return
	}
	m.sweepDuration.Observe(elapsed.Seconds())
}

package telemetry

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/shaiso/Taskmill/internal/domain"
)

// Metrics — Prometheus метрики планировщика.
//
// Nil *Metrics допустим: все методы тогда ничего не делают.
type Metrics struct {
	submitted   prometheus.Counter
	rejected    *prometheus.CounterVec
	transitions *prometheus.CounterVec
	leases      prometheus.Counter
	noReady     prometheus.Counter
	tasks       *prometheus.GaugeVec
	queueDepth  prometheus.Gauge
	workers     prometheus.Gauge
	completion  prometheus.Histogram
	deliveries  *prometheus.CounterVec
}

// NewMetrics создаёт метрики и регистрирует их в reg.
// reg == nil — метрики не регистрируются (удобно в тестах).
func NewMetrics(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		submitted: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "taskmill",
			Name:      "tasks_submitted_total",
			Help:      "Total number of accepted task submissions.",
		}),
		rejected: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "taskmill",
			Name:      "tasks_rejected_total",
			Help:      "Total number of rejected task submissions by reason.",
		}, []string{"reason"}),
		transitions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "taskmill",
			Name:      "task_transitions_total",
			Help:      "Total number of task status transitions by target status.",
		}, []string{"status"}),
		leases: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "taskmill",
			Name:      "leases_granted_total",
			Help:      "Total number of granted leases.",
		}),
		noReady: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "taskmill",
			Name:      "lease_empty_total",
			Help:      "Total number of lease requests that found no ready task.",
		}),
		tasks: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: "taskmill",
			Name:      "tasks",
			Help:      "Current number of tasks by status.",
		}, []string{"status"}),
		queueDepth: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "taskmill",
			Name:      "queue_depth",
			Help:      "Current number of priority queue entries.",
		}),
		workers: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "taskmill",
			Name:      "active_workers",
			Help:      "Current number of workers holding at least one lease.",
		}),
		completion: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: "taskmill",
			Name:      "task_completion_seconds",
			Help:      "Time from submission to completion.",
			Buckets:   prometheus.ExponentialBuckets(0.01, 4, 10),
		}),
		deliveries: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "taskmill",
			Name:      "deliveries_total",
			Help:      "Total number of consumed AMQP deliveries by queue and outcome.",
		}, []string{"queue", "outcome"}),
	}

	if reg != nil {
		reg.MustRegister(
			m.submitted,
			m.rejected,
			m.transitions,
			m.leases,
			m.noReady,
			m.tasks,
			m.queueDepth,
			m.workers,
			m.completion,
			m.deliveries,
		)
	}

	return m
}

// TaskSubmitted учитывает принятую task.
func (m *Metrics) TaskSubmitted() {
	if m == nil {
		return
	}
	m.submitted.Inc()
}

// TaskRejected учитывает отклонённую отправку.
func (m *Metrics) TaskRejected(reason string) {
	if m == nil {
		return
	}
	m.rejected.WithLabelValues(reason).Inc()
}

// Transition учитывает переход task в статус.
func (m *Metrics) Transition(status domain.TaskStatus) {
	if m == nil {
		return
	}
	m.transitions.WithLabelValues(status.String()).Inc()
}

// LeaseGranted учитывает выданный lease.
func (m *Metrics) LeaseGranted() {
	if m == nil {
		return
	}
	m.leases.Inc()
}

// LeaseEmpty учитывает запрос lease при пустой очереди.
func (m *Metrics) LeaseEmpty() {
	if m == nil {
		return
	}
	m.noReady.Inc()
}

// TaskCompleted записывает время от отправки до завершения.
func (m *Metrics) TaskCompleted(d time.Duration) {
	if m == nil {
		return
	}
	m.completion.Observe(d.Seconds())
}

// DeliverySettled учитывает обработанную доставку из очереди.
// outcome — ack, requeue или dead_letter.
func (m *Metrics) DeliverySettled(queue, outcome string) {
	if m == nil {
		return
	}
	m.deliveries.WithLabelValues(queue, outcome).Inc()
}

// ObserveStats обновляет gauges по снимку планировщика.
func (m *Metrics) ObserveStats(stats domain.QueueStats) {
	if m == nil {
		return
	}
	counts := stats.ByStatus()
	for _, status := range domain.AllStatuses() {
		m.tasks.WithLabelValues(status.String()).Set(float64(counts[status]))
	}
	m.queueDepth.Set(float64(stats.QueueDepth))
	m.workers.Set(float64(stats.ActiveWorkers))
}

package telemetry

import (
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/shaiso/Taskmill/internal/domain"
)

func TestMetrics_Counters(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := NewMetrics(reg)

	m.TaskSubmitted()
	m.TaskSubmitted()
	m.TaskRejected("cycle")
	m.Transition(domain.TaskStatusReady)
	m.Transition(domain.TaskStatusReady)
	m.Transition(domain.TaskStatusFailed)
	m.LeaseGranted()
	m.LeaseEmpty()
	m.DeliverySettled("tasks.submit", "ack")
	m.DeliverySettled("tasks.submit", "dead_letter")

	if got := testutil.ToFloat64(m.submitted); got != 2 {
		t.Errorf("expected 2 submitted, got %v", got)
	}
	if got := testutil.ToFloat64(m.rejected.WithLabelValues("cycle")); got != 1 {
		t.Errorf("expected 1 rejected, got %v", got)
	}
	if got := testutil.ToFloat64(m.transitions.WithLabelValues("ready")); got != 2 {
		t.Errorf("expected 2 ready transitions, got %v", got)
	}
	if got := testutil.ToFloat64(m.leases); got != 1 {
		t.Errorf("expected 1 lease, got %v", got)
	}
	if got := testutil.ToFloat64(m.noReady); got != 1 {
		t.Errorf("expected 1 empty lease, got %v", got)
	}
	if got := testutil.ToFloat64(m.deliveries.WithLabelValues("tasks.submit", "dead_letter")); got != 1 {
		t.Errorf("expected 1 dead-lettered delivery, got %v", got)
	}
}

func TestMetrics_ObserveStats(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := NewMetrics(reg)

	m.ObserveStats(domain.QueueStats{Pending: 3, Ready: 2, Leased: 1, QueueDepth: 4, ActiveWorkers: 1})

	if got := testutil.ToFloat64(m.tasks.WithLabelValues("pending")); got != 3 {
		t.Errorf("expected 3 pending, got %v", got)
	}
	if got := testutil.ToFloat64(m.queueDepth); got != 4 {
		t.Errorf("expected queue depth 4, got %v", got)
	}
	if got := testutil.ToFloat64(m.workers); got != 1 {
		t.Errorf("expected 1 worker, got %v", got)
	}

	m.TaskCompleted(150 * time.Millisecond)
	if got := testutil.CollectAndCount(m.completion); got != 1 {
		t.Errorf("expected 1 histogram series, got %d", got)
	}

	if n, err := testutil.GatherAndCount(reg); err != nil || n == 0 {
		t.Errorf("expected registered metrics, got %d (err=%v)", n, err)
	}
}

func TestMetrics_NilSafe(t *testing.T) {
	var m *Metrics
	m.TaskSubmitted()
	m.TaskRejected("invalid")
	m.Transition(domain.TaskStatusCompleted)
	m.LeaseGranted()
	m.LeaseEmpty()
	m.TaskCompleted(time.Second)
	m.ObserveStats(domain.QueueStats{})
	m.DeliverySettled("tasks.submit", "ack")
}

func TestMetrics_ObserveStatsResetsDrainedStatuses(t *testing.T) {
	m := NewMetrics(prometheus.NewRegistry())

	m.ObserveStats(domain.QueueStats{Pending: 3})
	m.ObserveStats(domain.QueueStats{Completed: 3})

	if got := testutil.ToFloat64(m.tasks.WithLabelValues("pending")); got != 0 {
		t.Errorf("expected pending reset to 0, got %v", got)
	}
	if got := testutil.CollectAndCount(m.tasks); got != len(domain.AllStatuses()) {
		t.Errorf("expected a series per status, got %d", got)
	}
}

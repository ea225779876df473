package scheduler

import (
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shaiso/Taskmill/internal/domain"
)

// fakeClock — управляемое время для тестов.
type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func newFakeClock() *fakeClock {
	return &fakeClock{now: time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)}
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

// eventLog — EventSink, запоминающий события.
type eventLog struct {
	mu     sync.Mutex
	events []domain.Event
}

func (l *eventLog) Emit(ev domain.Event) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.events = append(l.events, ev)
}

func (l *eventLog) types(taskID uuid.UUID) []domain.EventType {
	l.mu.Lock()
	defer l.mu.Unlock()
	var result []domain.EventType
	for _, ev := range l.events {
		if ev.TaskID == taskID {
			result = append(result, ev.Type)
		}
	}
	return result
}

func newTestScheduler(t *testing.T) (*Scheduler, *fakeClock) {
	t.Helper()
	clock := newFakeClock()
	return New(Config{Clock: clock.Now}), clock
}

func mustSubmit(t *testing.T, s *Scheduler, spec domain.TaskSpec) uuid.UUID {
	t.Helper()
	id, err := s.Submit(spec)
	if err != nil {
		t.Fatalf("submit %q: unexpected error: %v", spec.Title, err)
	}
	return id
}

func mustLease(t *testing.T, s *Scheduler, workerID string) domain.Task {
	t.Helper()
	task, err := s.Lease(workerID)
	if err != nil {
		t.Fatalf("lease: unexpected error: %v", err)
	}
	return task
}

func expectNoReady(t *testing.T, s *Scheduler) {
	t.Helper()
	task, err := s.Lease("w-idle")
	if !errors.Is(err, domain.ErrNoReadyTask) {
		t.Fatalf("expected ErrNoReadyTask, got task %q (err=%v)", task.Title, err)
	}
}

func statusOf(t *testing.T, s *Scheduler, id uuid.UUID) domain.TaskStatus {
	t.Helper()
	task, err := s.Get(id)
	if err != nil {
		t.Fatalf("get: unexpected error: %v", err)
	}
	return task.Status
}

func ttl(d time.Duration) *time.Duration {
	return &d
}

func TestScenario_DependencyUnblocksAfterComplete(t *testing.T) {
	s, _ := newTestScheduler(t)

	a := mustSubmit(t, s, domain.TaskSpec{Title: "A", Priority: 5})
	b := mustSubmit(t, s, domain.TaskSpec{Title: "B", Priority: 5, Dependencies: []uuid.UUID{a}})

	if got := statusOf(t, s, b); got != domain.TaskStatusPending {
		t.Fatalf("B should be pending, got %s", got)
	}

	leased := mustLease(t, s, "w1")
	if leased.ID != a {
		t.Fatalf("expected A, got %q", leased.Title)
	}

	// B заблокирован, пока A не завершён
	expectNoReady(t, s)

	if err := s.Complete(a); err != nil {
		t.Fatalf("complete A: unexpected error: %v", err)
	}

	leased = mustLease(t, s, "w1")
	if leased.ID != b {
		t.Fatalf("expected B after A completed, got %q", leased.Title)
	}
}

func TestScenario_HigherPriorityFirst(t *testing.T) {
	s, _ := newTestScheduler(t)

	c := mustSubmit(t, s, domain.TaskSpec{Title: "C", Priority: 1})
	d := mustSubmit(t, s, domain.TaskSpec{Title: "D", Priority: 10})

	if got := mustLease(t, s, "w1"); got.ID != d {
		t.Errorf("first lease: expected D, got %q", got.Title)
	}
	if got := mustLease(t, s, "w1"); got.ID != c {
		t.Errorf("second lease: expected C, got %q", got.Title)
	}
}

func TestScenario_RetriesThenFails(t *testing.T) {
	s, _ := newTestScheduler(t)

	e := mustSubmit(t, s, domain.TaskSpec{Title: "E", Priority: 5, MaxRetries: 2})

	for k := 1; k <= 2; k++ {
		leased := mustLease(t, s, "w1")
		if leased.ID != e {
			t.Fatalf("attempt %d: expected E, got %q", k, leased.Title)
		}
		if err := s.Fail(e, "boom"); err != nil {
			t.Fatalf("fail %d: unexpected error: %v", k, err)
		}

		task, _ := s.Get(e)
		if task.Status != domain.TaskStatusReady {
			t.Errorf("fail %d: expected E requeued, got %s", k, task.Status)
		}
		if task.EffectivePriority != 5-k {
			t.Errorf("fail %d: expected effective priority %d, got %d", k, 5-k, task.EffectivePriority)
		}
		if task.RetryCount != k {
			t.Errorf("fail %d: expected retry count %d, got %d", k, k, task.RetryCount)
		}
		if task.LastError != "boom" {
			t.Errorf("fail %d: expected last error, got %q", k, task.LastError)
		}
	}

	mustLease(t, s, "w1")
	if err := s.Fail(e, "boom"); err != nil {
		t.Fatalf("third fail: unexpected error: %v", err)
	}

	if got := statusOf(t, s, e); got != domain.TaskStatusFailed {
		t.Fatalf("expected E failed, got %s", got)
	}
	expectNoReady(t, s)
	expectNoReady(t, s)
}

func TestScenario_ZeroTTLExpiresOnSweep(t *testing.T) {
	s, clock := newTestScheduler(t)

	f := mustSubmit(t, s, domain.TaskSpec{Title: "F", TTL: ttl(0)})

	expired := s.Sweep(clock.Now())
	if len(expired) != 1 || expired[0] != f {
		t.Fatalf("expected [F] expired, got %v", expired)
	}
	if got := statusOf(t, s, f); got != domain.TaskStatusExpired {
		t.Errorf("expected F expired, got %s", got)
	}
	expectNoReady(t, s)
}

func TestSubmit_ZeroTTLIsNotQueued(t *testing.T) {
	s, _ := newTestScheduler(t)

	f := mustSubmit(t, s, domain.TaskSpec{Title: "F", TTL: ttl(0)})

	if got := statusOf(t, s, f); got != domain.TaskStatusPending {
		t.Errorf("expected F pending, got %s", got)
	}
	stats := s.Stats()
	if stats.Ready != 0 || stats.QueueDepth != 0 {
		t.Errorf("expected ready=0 depth=0, got ready=%d depth=%d", stats.Ready, stats.QueueDepth)
	}
	if deps, _ := s.Dependencies(f); deps.Queued {
		t.Error("expired task must not be queued")
	}
	expectNoReady(t, s)
}

func TestLease_ZeroTTLWithoutSweep(t *testing.T) {
	s, _ := newTestScheduler(t)

	f := mustSubmit(t, s, domain.TaskSpec{Title: "F", TTL: ttl(0), Priority: 100})
	g := mustSubmit(t, s, domain.TaskSpec{Title: "G"})

	if got := mustLease(t, s, "w1"); got.ID != g {
		t.Fatalf("expected G, expired F must be skipped, got %q", got.Title)
	}
	if got := statusOf(t, s, f); got != domain.TaskStatusPending {
		t.Errorf("expected F pending until sweep, got %s", got)
	}
}

func TestLease_EqualPriorityFIFO(t *testing.T) {
	s, _ := newTestScheduler(t)

	const n = 25
	ids := make([]uuid.UUID, n)
	for i := range ids {
		ids[i] = mustSubmit(t, s, domain.TaskSpec{Title: fmt.Sprintf("task-%d", i), Priority: 3})
	}

	for i := 0; i < n; i++ {
		if got := mustLease(t, s, "w1"); got.ID != ids[i] {
			t.Fatalf("lease %d: expected %s, got %q", i, ids[i], got.Title)
		}
	}
	expectNoReady(t, s)
}

func TestLease_RetriedTaskYieldsToFreshWork(t *testing.T) {
	s, _ := newTestScheduler(t)

	x := mustSubmit(t, s, domain.TaskSpec{Title: "X", Priority: 5, MaxRetries: 3})
	y := mustSubmit(t, s, domain.TaskSpec{Title: "Y", Priority: 5})

	mustLease(t, s, "w1")
	if err := s.Fail(x, "flaky"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if got := mustLease(t, s, "w1"); got.ID != y {
		t.Errorf("expected fresh Y before retried X, got %q", got.Title)
	}
	if got := mustLease(t, s, "w1"); got.ID != x {
		t.Errorf("expected X next, got %q", got.Title)
	}
}

func TestLease_NeverReturnsExpiredTask(t *testing.T) {
	s, clock := newTestScheduler(t)

	id := mustSubmit(t, s, domain.TaskSpec{Title: "short", TTL: ttl(time.Second)})
	clock.Advance(time.Second)

	expectNoReady(t, s)
	if got := statusOf(t, s, id); got != domain.TaskStatusExpired {
		t.Errorf("expected expired, got %s", got)
	}
}

func TestLease_EmptyWorkerID(t *testing.T) {
	s, _ := newTestScheduler(t)
	mustSubmit(t, s, domain.TaskSpec{Title: "a"})

	if _, err := s.Lease(""); !errors.Is(err, ErrEmptyWorkerID) {
		t.Errorf("expected ErrEmptyWorkerID, got %v", err)
	}
}

func TestComplete_Twice(t *testing.T) {
	events := &eventLog{}
	clock := newFakeClock()
	s := New(Config{Clock: clock.Now, Events: events})

	a := mustSubmit(t, s, domain.TaskSpec{Title: "A"})
	b := mustSubmit(t, s, domain.TaskSpec{Title: "B", Dependencies: []uuid.UUID{a}})

	mustLease(t, s, "w1")
	if err := s.Complete(a); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if err := s.Complete(a); !errors.Is(err, domain.ErrNotLeased) {
		t.Fatalf("expected ErrNotLeased on second complete, got %v", err)
	}

	readyEvents := 0
	for _, typ := range events.types(b) {
		if typ == domain.EventTaskReady {
			readyEvents++
		}
	}
	if readyEvents != 1 {
		t.Errorf("dependents must fire once, got %d ready events", readyEvents)
	}
	if stats := s.Stats(); stats.Ready != 1 || stats.QueueDepth != 1 {
		t.Errorf("expected exactly one queued task, got %+v", stats)
	}
}

func TestCompleteFail_Errors(t *testing.T) {
	s, _ := newTestScheduler(t)
	id := mustSubmit(t, s, domain.TaskSpec{Title: "a"})

	if err := s.Complete(uuid.New()); !errors.Is(err, domain.ErrUnknownTask) {
		t.Errorf("complete unknown: expected ErrUnknownTask, got %v", err)
	}
	if err := s.Fail(uuid.New(), "x"); !errors.Is(err, domain.ErrUnknownTask) {
		t.Errorf("fail unknown: expected ErrUnknownTask, got %v", err)
	}
	if err := s.Complete(id); !errors.Is(err, domain.ErrNotLeased) {
		t.Errorf("complete ready: expected ErrNotLeased, got %v", err)
	}
	if err := s.Fail(id, "x"); !errors.Is(err, domain.ErrNotLeased) {
		t.Errorf("fail ready: expected ErrNotLeased, got %v", err)
	}
}

func TestSubmit_InvalidSpec(t *testing.T) {
	s, _ := newTestScheduler(t)

	specs := []domain.TaskSpec{
		{Title: ""},
		{Title: "x", MaxRetries: -1},
		{Title: "x", TTL: ttl(-time.Second)},
		{Title: "x", Schedule: "not a cron"},
	}
	for _, spec := range specs {
		if _, err := s.Submit(spec); !errors.Is(err, domain.ErrInvalidSpec) {
			t.Errorf("spec %+v: expected ErrInvalidSpec, got %v", spec, err)
		}
	}

	if stats := s.Stats(); stats.Total != 0 {
		t.Errorf("rejected submissions must not create tasks, got %+v", stats)
	}
}

func TestSubmit_CycleRejectedWithoutSideEffects(t *testing.T) {
	next := uuid.MustParse("aaaaaaaa-aaaa-aaaa-aaaa-aaaaaaaaaaaa")
	s := New(Config{IDGenerator: func() uuid.UUID { return next }})

	_, err := s.Submit(domain.TaskSpec{Title: "self", Dependencies: []uuid.UUID{next}})
	if !errors.Is(err, domain.ErrCycleDetected) {
		t.Fatalf("expected ErrCycleDetected, got %v", err)
	}
	if _, err := s.Get(next); !errors.Is(err, domain.ErrUnknownTask) {
		t.Errorf("rejected task must be rolled back, got %v", err)
	}

	// Тот же ID после отката можно использовать
	if _, err := s.Submit(domain.TaskSpec{Title: "ok"}); err != nil {
		t.Errorf("unexpected error after rollback: %v", err)
	}
}

func TestSubmit_UnknownDependency(t *testing.T) {
	ghost := uuid.New()

	permissive := New(Config{})
	id, err := permissive.Submit(domain.TaskSpec{Title: "a", Dependencies: []uuid.UUID{ghost}})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got := statusOf(t, permissive, id); got != domain.TaskStatusReady {
		t.Errorf("unknown dependency should be treated as satisfied, got %s", got)
	}

	strict := New(Config{StrictDependencies: true})
	if _, err := strict.Submit(domain.TaskSpec{Title: "a", Dependencies: []uuid.UUID{ghost}}); !errors.Is(err, domain.ErrUnknownTask) {
		t.Errorf("strict mode: expected ErrUnknownTask, got %v", err)
	}
}

func TestSubmit_CompletedDependency(t *testing.T) {
	s, _ := newTestScheduler(t)

	a := mustSubmit(t, s, domain.TaskSpec{Title: "A"})
	mustLease(t, s, "w1")
	_ = s.Complete(a)

	b := mustSubmit(t, s, domain.TaskSpec{Title: "B", Dependencies: []uuid.UUID{a}})
	if got := statusOf(t, s, b); got != domain.TaskStatusReady {
		t.Errorf("dependency on completed task should not block, got %s", got)
	}
}

func TestFailedPrerequisiteBlocksDependent(t *testing.T) {
	s, clock := newTestScheduler(t)

	a := mustSubmit(t, s, domain.TaskSpec{Title: "A"})
	b := mustSubmit(t, s, domain.TaskSpec{Title: "B", Dependencies: []uuid.UUID{a}, TTL: ttl(time.Minute)})

	mustLease(t, s, "w1")
	if err := s.Fail(a, "fatal"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	info, err := s.Dependencies(b)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !info.Blocked || len(info.Prerequisites) != 0 {
		t.Errorf("expected B blocked with pruned edges, got %+v", info)
	}
	expectNoReady(t, s)

	// B остаётся pending до своего TTL
	clock.Advance(time.Minute)
	if expired := s.Sweep(clock.Now()); len(expired) != 1 || expired[0] != b {
		t.Errorf("expected B to expire, got %v", expired)
	}
}

func TestSweep_ExactSetAndLeaseRelease(t *testing.T) {
	s, clock := newTestScheduler(t)

	leased := mustSubmit(t, s, domain.TaskSpec{Title: "leased", Priority: 9, TTL: ttl(10 * time.Second)})
	mustLease(t, s, "w1")

	ready := mustSubmit(t, s, domain.TaskSpec{Title: "ready", TTL: ttl(5 * time.Second)})
	blocked := mustSubmit(t, s, domain.TaskSpec{Title: "blocked", Dependencies: []uuid.UUID{leased}, TTL: ttl(10 * time.Second)})
	later := mustSubmit(t, s, domain.TaskSpec{Title: "later", TTL: ttl(time.Hour)})
	forever := mustSubmit(t, s, domain.TaskSpec{Title: "forever"})

	expired := s.Sweep(clock.Now().Add(10 * time.Second))
	want := map[uuid.UUID]bool{leased: true, ready: true, blocked: true}
	if len(expired) != len(want) {
		t.Fatalf("expected %d expired, got %v", len(want), expired)
	}
	for _, id := range expired {
		if !want[id] {
			t.Errorf("unexpected expired task %s", id)
		}
	}

	if leases := s.ActiveLeases("w1"); len(leases) != 0 {
		t.Errorf("expired task must release its lease, got %+v", leases)
	}
	if err := s.Complete(leased); !errors.Is(err, domain.ErrNotLeased) {
		t.Errorf("expected ErrNotLeased for expired task, got %v", err)
	}
	for _, id := range []uuid.UUID{later, forever} {
		if got := statusOf(t, s, id); got != domain.TaskStatusReady {
			t.Errorf("task %s must stay ready, got %s", id, got)
		}
	}
}

func TestFail_ExpiredTaskIsNotRetried(t *testing.T) {
	s, clock := newTestScheduler(t)

	id := mustSubmit(t, s, domain.TaskSpec{Title: "a", MaxRetries: 5, TTL: ttl(time.Second)})
	mustLease(t, s, "w1")
	clock.Advance(2 * time.Second)

	if err := s.Fail(id, "late"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	task, _ := s.Get(id)
	if task.Status != domain.TaskStatusExpired {
		t.Errorf("expiry must win over retry, got %s", task.Status)
	}
	if task.RetryCount != 0 {
		t.Errorf("expired task must not be retried, got retry count %d", task.RetryCount)
	}
}

func TestReclaimStale(t *testing.T) {
	s, clock := newTestScheduler(t)

	old := mustSubmit(t, s, domain.TaskSpec{Title: "old", Priority: 2, MaxRetries: 1})
	mustLease(t, s, "w1")
	clock.Advance(time.Minute)

	fresh := mustSubmit(t, s, domain.TaskSpec{Title: "fresh", Priority: 1})
	mustLease(t, s, "w2")

	reclaimed := s.ReclaimStale(clock.Now().Add(-30 * time.Second))
	if len(reclaimed) != 1 || reclaimed[0] != old {
		t.Fatalf("expected [old] reclaimed, got %v", reclaimed)
	}

	task, _ := s.Get(old)
	if task.Status != domain.TaskStatusReady || task.LastError != ReasonLeaseTimeout {
		t.Errorf("expected old requeued with lease timeout, got %s/%q", task.Status, task.LastError)
	}
	if got := statusOf(t, s, fresh); got != domain.TaskStatusLeased {
		t.Errorf("fresh lease must stay, got %s", got)
	}
}

func TestStats(t *testing.T) {
	s, clock := newTestScheduler(t)

	a := mustSubmit(t, s, domain.TaskSpec{Title: "A", Priority: 3})
	mustSubmit(t, s, domain.TaskSpec{Title: "B", Dependencies: []uuid.UUID{a}})
	mustSubmit(t, s, domain.TaskSpec{Title: "C", Priority: 2})
	mustSubmit(t, s, domain.TaskSpec{Title: "D", Priority: 1, TTL: ttl(0)})

	mustLease(t, s, "w1")
	clock.Advance(4 * time.Second)
	if err := s.Complete(a); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	mustLease(t, s, "w2") // C, B ниже по приоритету
	s.Sweep(clock.Now())  // D

	stats := s.Stats()
	want := domain.QueueStats{
		Pending:       0,
		Ready:         1,
		Leased:        1,
		Completed:     1,
		Failed:        0,
		Expired:       1,
		Total:         4,
		ActiveWorkers: 1,
		QueueDepth:    1,
		AvgCompletion: 4 * time.Second,
	}
	if stats != want {
		t.Errorf("expected %+v, got %+v", want, stats)
	}
}

func TestEvents(t *testing.T) {
	events := &eventLog{}
	s := New(Config{Events: events})

	id := mustSubmit(t, s, domain.TaskSpec{Title: "a", MaxRetries: 1})
	mustLease(t, s, "w1")
	_ = s.Fail(id, "x")
	mustLease(t, s, "w1")
	_ = s.Complete(id)

	want := []domain.EventType{
		domain.EventTaskSubmitted,
		domain.EventTaskReady,
		domain.EventTaskLeased,
		domain.EventTaskRetried,
		domain.EventTaskReady,
		domain.EventTaskLeased,
		domain.EventTaskCompleted,
	}
	got := events.types(id)
	if len(got) != len(want) {
		t.Fatalf("expected %v, got %v", want, got)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("event %d: expected %s, got %s", i, want[i], got[i])
		}
	}
}

func TestLiveness_AllTasksComplete(t *testing.T) {
	s, _ := newTestScheduler(t)

	// Слоёный граф: каждый task зависит от двух задач предыдущего слоя.
	var prev []uuid.UUID
	total := 0
	for layer := 0; layer < 5; layer++ {
		var current []uuid.UUID
		for i := 0; i < 4; i++ {
			spec := domain.TaskSpec{Title: fmt.Sprintf("L%d-%d", layer, i), Priority: i}
			if len(prev) > 0 {
				spec.Dependencies = []uuid.UUID{prev[i], prev[(i+1)%len(prev)]}
			}
			current = append(current, mustSubmit(t, s, spec))
			total++
		}
		prev = current
	}

	completed := make(map[uuid.UUID]bool)
	for {
		task, err := s.Lease("w1")
		if errors.Is(err, domain.ErrNoReadyTask) {
			break
		}
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		for _, dep := range task.Dependencies {
			if !completed[dep] {
				t.Fatalf("task %q leased before prerequisite %s completed", task.Title, dep)
			}
		}
		if err := s.Complete(task.ID); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		completed[task.ID] = true
	}

	if len(completed) != total {
		t.Errorf("expected %d completed tasks, got %d", total, len(completed))
	}
}

func TestConcurrentLeasing(t *testing.T) {
	s := New(Config{})

	const tasks = 200
	for i := 0; i < tasks; i++ {
		mustSubmit(t, s, domain.TaskSpec{Title: fmt.Sprintf("t%d", i), Priority: i % 7})
	}

	var (
		mu   sync.Mutex
		seen = make(map[uuid.UUID]int)
		wg   sync.WaitGroup
	)
	for w := 0; w < 8; w++ {
		wg.Add(1)
		go func(workerID string) {
			defer wg.Done()
			for {
				task, err := s.Lease(workerID)
				if errors.Is(err, domain.ErrNoReadyTask) {
					return
				}
				if err != nil {
					t.Errorf("unexpected error: %v", err)
					return
				}
				mu.Lock()
				seen[task.ID]++
				mu.Unlock()
				if err := s.Complete(task.ID); err != nil {
					t.Errorf("unexpected error: %v", err)
				}
			}
		}(fmt.Sprintf("w%d", w))
	}
	wg.Wait()

	if len(seen) != tasks {
		t.Errorf("expected %d distinct tasks, got %d", tasks, len(seen))
	}
	for id, n := range seen {
		if n != 1 {
			t.Errorf("task %s leased %d times", id, n)
		}
	}
	if stats := s.Stats(); stats.Completed != tasks {
		t.Errorf("expected %d completed, got %+v", tasks, stats)
	}
}

func TestList(t *testing.T) {
	s, _ := newTestScheduler(t)

	a := mustSubmit(t, s, domain.TaskSpec{Title: "a", Category: "mail"})
	b := mustSubmit(t, s, domain.TaskSpec{Title: "b", Dependencies: []uuid.UUID{a}})
	c := mustSubmit(t, s, domain.TaskSpec{Title: "c", Category: "mail"})

	all := s.List(ListFilter{})
	if len(all) != 3 || all[0].ID != a || all[1].ID != b || all[2].ID != c {
		t.Errorf("expected submission order, got %v", all)
	}
	if mail := s.List(ListFilter{Category: "mail"}); len(mail) != 2 {
		t.Errorf("expected 2 mail tasks, got %d", len(mail))
	}
	if pending := s.List(ListFilter{Status: domain.TaskStatusPending}); len(pending) != 1 || pending[0].ID != b {
		t.Errorf("expected only b pending, got %v", pending)
	}
	if limited := s.List(ListFilter{Limit: 1}); len(limited) != 1 {
		t.Errorf("expected limit to apply, got %d", len(limited))
	}
}

func TestNextRun(t *testing.T) {
	s, clock := newTestScheduler(t)

	id := mustSubmit(t, s, domain.TaskSpec{Title: "nightly", Schedule: "0 3 * * *"})
	next, err := s.NextRun(id, clock.Now())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	want := time.Date(2026, 1, 2, 3, 0, 0, 0, time.UTC)
	if !next.Equal(want) {
		t.Errorf("expected %v, got %v", want, next)
	}

	plain := mustSubmit(t, s, domain.TaskSpec{Title: "plain"})
	if _, err := s.NextRun(plain, clock.Now()); !errors.Is(err, ErrNoSchedule) {
		t.Errorf("expected ErrNoSchedule, got %v", err)
	}
}

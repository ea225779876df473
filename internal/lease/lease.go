// Package lease содержит Lease Manager — учёт task, выданных воркерам.
//
// На один task — не более одного активного lease. Воркер может держать
// сколько угодно lease одновременно.
package lease

import (
	"sort"
	"time"

	"github.com/google/uuid"
)

// Lease — эксклюзивное право воркера на выполнение task.
type Lease struct {
	TaskID     uuid.UUID `json:"task_id"`
	WorkerID   string    `json:"worker_id"`
	AcquiredAt time.Time `json:"acquired_at"`
}

// Manager — реестр активных lease.
//
// Manager не потокобезопасен: доступ сериализует Scheduler.
type Manager struct {
	byTask   map[uuid.UUID]Lease
	byWorker map[string]map[uuid.UUID]struct{}
}

// NewManager создаёт пустой Manager.
func NewManager() *Manager {
	return &Manager{
		byTask:   make(map[uuid.UUID]Lease),
		byWorker: make(map[string]map[uuid.UUID]struct{}),
	}
}

// Acquire выдаёт lease на task.
// Старый lease на тот же task, если он был, заменяется.
func (m *Manager) Acquire(taskID uuid.UUID, workerID string, now time.Time) Lease {
	m.Release(taskID)

	l := Lease{TaskID: taskID, WorkerID: workerID, AcquiredAt: now}
	m.byTask[taskID] = l

	tasks, ok := m.byWorker[workerID]
	if !ok {
		tasks = make(map[uuid.UUID]struct{})
		m.byWorker[workerID] = tasks
	}
	tasks[taskID] = struct{}{}

	return l
}

// Release снимает lease. Идемпотентен: для task без lease возвращает false.
func (m *Manager) Release(taskID uuid.UUID) (Lease, bool) {
	l, ok := m.byTask[taskID]
	if !ok {
		return Lease{}, false
	}
	delete(m.byTask, taskID)

	if tasks, ok := m.byWorker[l.WorkerID]; ok {
		delete(tasks, taskID)
		if len(tasks) == 0 {
			delete(m.byWorker, l.WorkerID)
		}
	}
	return l, true
}

// Get возвращает активный lease на task.
func (m *Manager) Get(taskID uuid.UUID) (Lease, bool) {
	l, ok := m.byTask[taskID]
	return l, ok
}

// ActiveFor возвращает task, которые держит воркер, в порядке выдачи lease.
func (m *Manager) ActiveFor(workerID string) []uuid.UUID {
	tasks := m.byWorker[workerID]
	leases := make([]Lease, 0, len(tasks))
	for id := range tasks {
		leases = append(leases, m.byTask[id])
	}
	sortLeases(leases)

	result := make([]uuid.UUID, len(leases))
	for i, l := range leases {
		result[i] = l.TaskID
	}
	return result
}

// Active возвращает все активные lease в порядке выдачи.
func (m *Manager) Active() []Lease {
	result := make([]Lease, 0, len(m.byTask))
	for _, l := range m.byTask {
		result = append(result, l)
	}
	sortLeases(result)
	return result
}

// Stale возвращает lease, выданные раньше cutoff.
func (m *Manager) Stale(cutoff time.Time) []Lease {
	result := make([]Lease, 0)
	for _, l := range m.byTask {
		if l.AcquiredAt.Before(cutoff) {
			result = append(result, l)
		}
	}
	sortLeases(result)
	return result
}

// Workers возвращает количество воркеров, держащих хотя бы один lease.
func (m *Manager) Workers() int {
	return len(m.byWorker)
}

// Len возвращает количество активных lease.
func (m *Manager) Len() int {
	return len(m.byTask)
}

func sortLeases(leases []Lease) {
	sort.Slice(leases, func(i, j int) bool {
		if !leases[i].AcquiredAt.Equal(leases[j].AcquiredAt) {
			return leases[i].AcquiredAt.Before(leases[j].AcquiredAt)
		}
		return leases[i].TaskID.String() < leases[j].TaskID.String()
	})
}

package domain

import "time"

// QueueStats — снимок счётчиков планировщика.
type QueueStats struct {
	Pending   int `json:"pending"`
	Ready     int `json:"ready"`
	Leased    int `json:"leased"`
	Completed int `json:"completed"`
	Failed    int `json:"failed"`
	Expired   int `json:"expired"`

	// Total — всего задач в Task Store.
	Total int `json:"total"`

	// ActiveWorkers — сколько воркеров сейчас держат хотя бы один lease.
	ActiveWorkers int `json:"active_workers"`

	// QueueDepth — записей в куче, включая ещё не вычищенные tombstone.
	QueueDepth int `json:"queue_depth"`

	// AvgCompletion — среднее время от отправки до COMPLETED.
	AvgCompletion time.Duration `json:"avg_completion"`
}

// Count увеличивает счётчик для статуса.
func (s *QueueStats) Count(status TaskStatus) {
	s.Total++
	switch status {
	case TaskStatusPending:
		s.Pending++
	case TaskStatusReady:
		s.Ready++
	case TaskStatusLeased:
		s.Leased++
	case TaskStatusCompleted:
		s.Completed++
	case TaskStatusFailed:
		s.Failed++
	case TaskStatusExpired:
		s.Expired++
	}
}

// ByStatus возвращает счётчики в виде map (для метрик и вывода).
func (s QueueStats) ByStatus() map[TaskStatus]int {
	return map[TaskStatus]int{
		TaskStatusPending:   s.Pending,
		TaskStatusReady:     s.Ready,
		TaskStatusLeased:    s.Leased,
		TaskStatusCompleted: s.Completed,
		TaskStatusFailed:    s.Failed,
		TaskStatusExpired:   s.Expired,
	}
}

// Package queue содержит приоритетную очередь готовых task.
//
// Порядок: priority по убыванию, при равенстве enqueue-seq по возрастанию
// (FIFO). Удаление ленивое: запись, отвергнутую фильтром, PopReady просто
// выбрасывает.
package queue

import (
	"container/heap"
	"time"

	"github.com/google/uuid"
)

// Filter решает, можно ли выдать task из очереди в момент now.
// false — запись устарела и выбрасывается.
type Filter func(id uuid.UUID, now time.Time) bool

// Entry — запись очереди.
type Entry struct {
	ID       uuid.UUID
	Priority int
	Seq      int64

	index int
}

// Queue — приоритетная очередь. Каждый ID присутствует не более одного раза.
//
// Queue не потокобезопасна: доступ сериализует Scheduler.
type Queue struct {
	items  entryHeap
	queued map[uuid.UUID]*Entry
	filter Filter
}

// New создаёт пустую очередь. filter == nil принимает любую запись.
func New(filter Filter) *Queue {
	return &Queue{
		queued: make(map[uuid.UUID]*Entry),
		filter: filter,
	}
}

// Push добавляет task в очередь.
// Если ID уже в очереди, его приоритет и seq обновляются.
func (q *Queue) Push(id uuid.UUID, priority int, seq int64) {
	if e, ok := q.queued[id]; ok {
		e.Priority = priority
		e.Seq = seq
		heap.Fix(&q.items, e.index)
		return
	}

	e := &Entry{ID: id, Priority: priority, Seq: seq}
	heap.Push(&q.items, e)
	q.queued[id] = e
}

// PopReady извлекает запись с наивысшим приоритетом, которую принимает фильтр.
// Отвергнутые записи удаляются по пути.
func (q *Queue) PopReady(now time.Time) (uuid.UUID, bool) {
	for q.items.Len() > 0 {
		e := heap.Pop(&q.items).(*Entry)
		delete(q.queued, e.ID)

		if q.filter != nil && !q.filter(e.ID, now) {
			continue
		}
		return e.ID, true
	}
	return uuid.Nil, false
}

// Contains проверяет, есть ли ID в очереди.
func (q *Queue) Contains(id uuid.UUID) bool {
	_, ok := q.queued[id]
	return ok
}

// Len возвращает количество записей, включая ещё не выброшенные устаревшие.
func (q *Queue) Len() int {
	return q.items.Len()
}

// entryHeap реализует heap.Interface.
type entryHeap []*Entry

func (h entryHeap) Len() int { return len(h) }

func (h entryHeap) Less(i, j int) bool {
	if h[i].Priority != h[j].Priority {
		return h[i].Priority > h[j].Priority
	}
	return h[i].Seq < h[j].Seq
}

func (h entryHeap) Swap(i, j int) {
	h[i], h[j] = h[j], h[i]
	h[i].index = i
	h[j].index = j
}

func (h *entryHeap) Push(x any) {
	e := x.(*Entry)
	e.index = len(*h)
	*h = append(*h, e)
}

func (h *entryHeap) Pop() any {
	old := *h
	n := len(old)
	e := old[n-1]
	old[n-1] = nil
	e.index = -1
	*h = old[:n-1]
	return e
}

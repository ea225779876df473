package engine

import (
	"bytes"
	"sort"

	"github.com/google/uuid"
	"github.com/shaiso/Taskmill/internal/domain"
)

// TopoOrder упорядочивает задачи так, что предпосылка идёт раньше
// зависимой (алгоритм Кана по полю Dependencies).
//
// Зависимости на задачи вне набора игнорируются. Среди задач без
// входящих рёбер сохраняется исходный порядок, поэтому для списка,
// отсортированного по Seq, результат детерминирован.
//
// Используется при экспорте snapshot, чтобы строки предпосылок
// записывались раньше зависимых.
func TopoOrder(tasks []domain.Task) []domain.Task {
	index := make(map[uuid.UUID]int, len(tasks))
	for i := range tasks {
		index[tasks[i].ID] = i
	}

	inDegree := make([]int, len(tasks))
	dependents := make([][]int, len(tasks))
	for i := range tasks {
		for _, depID := range tasks[i].Dependencies {
			j, ok := index[depID]
			if !ok || j == i {
				continue
			}
			dependents[j] = append(dependents[j], i)
			inDegree[i]++
		}
	}

	// Очередь узлов с inDegree = 0
	queue := make([]int, 0, len(tasks))
	for i := range tasks {
		if inDegree[i] == 0 {
			queue = append(queue, i)
		}
	}

	order := make([]domain.Task, 0, len(tasks))
	done := make([]bool, len(tasks))
	for len(queue) > 0 {
		i := queue[0]
		queue = queue[1:]
		order = append(order, tasks[i])
		done[i] = true

		for _, j := range dependents[i] {
			inDegree[j]--
			if inDegree[j] == 0 {
				queue = append(queue, j)
			}
		}
	}

	// Граф ацикличен по построению, но на всякий случай не теряем задачи
	for i := range tasks {
		if !done[i] {
			order = append(order, tasks[i])
		}
	}

	return order
}

// sortIDs сортирует ID побайтно, чтобы вывод не зависел от порядка map.
func sortIDs(ids []uuid.UUID) {
	sort.Slice(ids, func(i, j int) bool {
		return bytes.Compare(ids[i][:], ids[j][:]) < 0
	})
}

package engine

import (
	"fmt"

	"github.com/google/uuid"
	"github.com/shaiso/Taskmill/internal/domain"
)

// StatusFunc возвращает текущий статус task по ID.
// false — task не существует.
type StatusFunc func(id uuid.UUID) (domain.TaskStatus, bool)

// Node — узел графа зависимостей.
type Node struct {
	// ID — идентификатор task.
	ID uuid.UUID

	// Pending — невыполненные предпосылки (prereqID → struct{}).
	Pending map[uuid.UUID]struct{}

	// Dependents — задачи, которые ждут этот узел, в порядке добавления рёбер.
	Dependents []uuid.UUID

	// Orphaned — одна из предпосылок завершилась не COMPLETED.
	// Такой узел никогда не станет ready.
	Orphaned bool
}

// Graph — граф зависимостей между task.
//
// Хранит только невыполненные рёбра: ребро удаляется, как только
// любой его конец переходит в финальный статус.
//
// Graph не потокобезопасен: доступ сериализует Scheduler.
type Graph struct {
	nodes  map[uuid.UUID]*Node
	status StatusFunc
	strict bool
}

// GraphConfig — конфигурация Graph.
type GraphConfig struct {
	// Status — источник статусов task (обычно Task Store).
	Status StatusFunc

	// Strict — отклонять неизвестные предпосылки вместо того,
	// чтобы считать их выполненными.
	Strict bool
}

// NewGraph создаёт пустой граф.
func NewGraph(cfg GraphConfig) *Graph {
	return &Graph{
		nodes:  make(map[uuid.UUID]*Node),
		status: cfg.Status,
		strict: cfg.Strict,
	}
}

// AddEdges регистрирует рёбра prereq → taskID.
//
// Все предпосылки проверяются до вставки первого ребра: при ошибке
// граф остаётся без изменений.
//
// Правила для предпосылки:
//   - сама задача или достижима из taskID → ErrCycleDetected
//   - неизвестна → выполнена (в strict режиме ErrUnknownTask)
//   - COMPLETED → ребро не нужно
//   - FAILED / EXPIRED → taskID становится orphaned
func (g *Graph) AddEdges(taskID uuid.UUID, prereqIDs []uuid.UUID) error {
	var (
		edges    []uuid.UUID
		orphaned bool
	)

	for _, prereqID := range prereqIDs {
		if prereqID == taskID {
			return NewCycleError(taskID, prereqID, []uuid.UUID{taskID, taskID})
		}

		status, known := g.lookup(prereqID)
		if !known {
			if g.strict {
				return fmt.Errorf("%w: prerequisite %s", domain.ErrUnknownTask, prereqID)
			}
			continue
		}

		switch status {
		case domain.TaskStatusCompleted:
			continue
		case domain.TaskStatusFailed, domain.TaskStatusExpired:
			orphaned = true
			continue
		}

		if path := g.pathBetween(taskID, prereqID); path != nil {
			return NewCycleError(taskID, prereqID, append(path, taskID))
		}
		edges = append(edges, prereqID)
	}

	node := g.node(taskID)
	if orphaned {
		node.Orphaned = true
	}
	for _, prereqID := range edges {
		g.addEdge(prereqID, node)
	}
	g.gc(taskID)

	return nil
}

// addEdge добавляет ребро prereq → node.
// Повторное ребро игнорируется, чтобы не дублировать Dependents.
func (g *Graph) addEdge(prereqID uuid.UUID, node *Node) {
	if _, exists := node.Pending[prereqID]; exists {
		return
	}
	node.Pending[prereqID] = struct{}{}

	prereq := g.node(prereqID)
	prereq.Dependents = append(prereq.Dependents, node.ID)
}

// IsReady возвращает true, если у task нет невыполненных предпосылок
// и ни одна предпосылка не завершилась неудачей.
func (g *Graph) IsReady(taskID uuid.UUID) bool {
	node, ok := g.nodes[taskID]
	if !ok {
		return true
	}
	return len(node.Pending) == 0 && !node.Orphaned
}

// IsBlocked возвращает true, если task никогда не станет ready
// из-за FAILED или EXPIRED предпосылки.
func (g *Graph) IsBlocked(taskID uuid.UUID) bool {
	node, ok := g.nodes[taskID]
	return ok && node.Orphaned
}

// OnCompleted удаляет рёбра от taskID и возвращает зависимые задачи,
// которые стали ready. Повторный вызов возвращает nil.
func (g *Graph) OnCompleted(taskID uuid.UUID) []uuid.UUID {
	node, ok := g.nodes[taskID]
	if !ok {
		return nil
	}

	var ready []uuid.UUID
	for _, depID := range node.Dependents {
		dep, ok := g.nodes[depID]
		if !ok {
			continue
		}
		delete(dep.Pending, taskID)
		if len(dep.Pending) == 0 && !dep.Orphaned {
			ready = append(ready, depID)
		}
		g.gc(depID)
	}
	node.Dependents = nil

	g.detach(node)
	return ready
}

// OnTerminated обрабатывает переход taskID в FAILED или EXPIRED.
//
// Рёбра с обоих концов удаляются. Зависимые задачи помечаются orphaned
// и остаются pending до собственного TTL. Возвращает их ID.
func (g *Graph) OnTerminated(taskID uuid.UUID) []uuid.UUID {
	node, ok := g.nodes[taskID]
	if !ok {
		return nil
	}

	var orphaned []uuid.UUID
	for _, depID := range node.Dependents {
		dep, ok := g.nodes[depID]
		if !ok {
			continue
		}
		delete(dep.Pending, taskID)
		if !dep.Orphaned {
			dep.Orphaned = true
			orphaned = append(orphaned, depID)
		}
	}
	node.Dependents = nil

	g.detach(node)
	return orphaned
}

// detach удаляет входящие рёбра узла и сам узел.
func (g *Graph) detach(node *Node) {
	for prereqID := range node.Pending {
		if prereq, ok := g.nodes[prereqID]; ok {
			prereq.Dependents = removeID(prereq.Dependents, node.ID)
			g.gc(prereqID)
		}
	}
	delete(g.nodes, node.ID)
}

// Prerequisites возвращает невыполненные предпосылки task.
func (g *Graph) Prerequisites(taskID uuid.UUID) []uuid.UUID {
	node, ok := g.nodes[taskID]
	if !ok {
		return nil
	}
	result := make([]uuid.UUID, 0, len(node.Pending))
	for id := range node.Pending {
		result = append(result, id)
	}
	sortIDs(result)
	return result
}

// Dependents возвращает задачи, которые ждут taskID.
func (g *Graph) Dependents(taskID uuid.UUID) []uuid.UUID {
	node, ok := g.nodes[taskID]
	if !ok {
		return nil
	}
	return append([]uuid.UUID(nil), node.Dependents...)
}

// edgeCount возвращает количество невыполненных рёбер.
func (g *Graph) edgeCount() int {
	count := 0
	for _, node := range g.nodes {
		count += len(node.Pending)
	}
	return count
}

// pathBetween ищет путь from → ... → to по рёбрам prereq → dependent.
// Возвращает путь или nil.
func (g *Graph) pathBetween(from, to uuid.UUID) []uuid.UUID {
	parent := map[uuid.UUID]uuid.UUID{from: from}
	queue := []uuid.UUID{from}

	for len(queue) > 0 {
		id := queue[0]
		queue = queue[1:]

		if id == to {
			path := []uuid.UUID{to}
			for id != from {
				id = parent[id]
				path = append([]uuid.UUID{id}, path...)
			}
			return path
		}

		node, ok := g.nodes[id]
		if !ok {
			continue
		}
		for _, next := range node.Dependents {
			if _, seen := parent[next]; seen {
				continue
			}
			parent[next] = id
			queue = append(queue, next)
		}
	}

	return nil
}

func (g *Graph) lookup(id uuid.UUID) (domain.TaskStatus, bool) {
	if g.status == nil {
		return "", false
	}
	return g.status(id)
}

func (g *Graph) node(id uuid.UUID) *Node {
	node, ok := g.nodes[id]
	if !ok {
		node = &Node{
			ID:      id,
			Pending: make(map[uuid.UUID]struct{}),
		}
		g.nodes[id] = node
	}
	return node
}

// gc удаляет узел без рёбер. Orphaned узлы остаются, чтобы IsReady
// продолжал возвращать false.
func (g *Graph) gc(id uuid.UUID) {
	node, ok := g.nodes[id]
	if !ok {
		return
	}
	if len(node.Pending) == 0 && len(node.Dependents) == 0 && !node.Orphaned {
		delete(g.nodes, id)
	}
}

func removeID(ids []uuid.UUID, id uuid.UUID) []uuid.UUID {
	for i, v := range ids {
		if v == id {
			return append(ids[:i], ids[i+1:]...)
		}
	}
	return ids
}

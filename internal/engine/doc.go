// Package engine содержит граф зависимостей между task.
//
// Включает:
//   - graph.go — рёбра prereq → dependent, проверка циклов, fan-out при COMPLETED
//   - topo.go  — топологическая сортировка для экспорта snapshot
//
// Graph отвечает на два вопроса: "готов ли task?" и "кто разблокируется,
// когда task X завершится?".
package engine

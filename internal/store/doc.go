// Package store содержит Task Store — единственного владельца записей task.
//
// Все изменения task проходят через Store. Наружу Store отдаёт только
// глубокие копии, поэтому остальные компоненты ссылаются на task по ID.
//
// Store не потокобезопасен: доступ сериализует Scheduler.
package store

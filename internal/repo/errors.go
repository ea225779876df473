package repo

import "errors"

// Общие ошибки репозиториев.
var (
	// ErrNotFound — запись не найдена в БД.
	ErrNotFound = errors.New("not found")

	// ErrSnapshotLocked — snapshot сейчас пишет другой процесс.
	ErrSnapshotLocked = errors.New("snapshot is locked by another writer")
)

package repo

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shaiso/Taskmill/internal/domain"
	"github.com/shaiso/Taskmill/internal/engine"
)

// snapshotLockKey — ключ pg advisory lock для писателя snapshot.
const snapshotLockKey int64 = 0x7461736b6d696c6c // "taskmill"

// SnapshotRepo — выгрузка Task Store в PostgreSQL.
type SnapshotRepo struct {
	pool *pgxpool.Pool
}

// NewSnapshotRepo создаёт новый SnapshotRepo.
func NewSnapshotRepo(pool *pgxpool.Pool) *SnapshotRepo {
	return &SnapshotRepo{pool: pool}
}

// Save записывает task одной транзакцией (upsert по id).
//
// Предпосылки пишутся раньше зависимых. Если snapshot уже пишет другой
// процесс, возвращает ErrSnapshotLocked.
func (r *SnapshotRepo) Save(ctx context.Context, tasks []domain.Task, at time.Time) error {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin snapshot: %w", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	var locked bool
	if err := tx.QueryRow(ctx, "select pg_try_advisory_xact_lock($1)", snapshotLockKey).Scan(&locked); err != nil {
		return fmt.Errorf("snapshot lock: %w", err)
	}
	if !locked {
		return ErrSnapshotLocked
	}

	query := `
		INSERT INTO task_snapshots (
			id, seq, title, description, category, priority, effective_priority,
			status, dependencies, payload, schedule, created_at, expires_at,
			lease_owner, leased_at, finished_at, retry_count, max_retries,
			last_error, snapshot_at
		)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9::uuid[], $10, $11, $12, $13,
		        $14, $15, $16, $17, $18, $19, $20)
		ON CONFLICT (id) DO UPDATE SET
			effective_priority = EXCLUDED.effective_priority,
			status             = EXCLUDED.status,
			lease_owner        = EXCLUDED.lease_owner,
			leased_at          = EXCLUDED.leased_at,
			finished_at        = EXCLUDED.finished_at,
			retry_count        = EXCLUDED.retry_count,
			last_error         = EXCLUDED.last_error,
			snapshot_at        = EXCLUDED.snapshot_at
	`

	batch := &pgx.Batch{}
	for _, task := range engine.TopoOrder(tasks) {
		args, err := snapshotArgs(&task, at)
		if err != nil {
			return err
		}
		batch.Queue(query, args...)
	}

	if err := tx.SendBatch(ctx, batch).Close(); err != nil {
		return fmt.Errorf("upsert snapshot: %w", err)
	}
	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit snapshot: %w", err)
	}
	return nil
}

// Get возвращает task из последнего snapshot.
func (r *SnapshotRepo) Get(ctx context.Context, id uuid.UUID) (*domain.Task, error) {
	query := `
		SELECT ` + snapshotColumns + `
		FROM task_snapshots
		WHERE id = $1
	`
	task, err := scanSnapshot(r.pool.QueryRow(ctx, query, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	return task, err
}

// ListByStatus возвращает task из snapshot в порядке отправки.
func (r *SnapshotRepo) ListByStatus(ctx context.Context, status domain.TaskStatus, limit int) ([]domain.Task, error) {
	query := `
		SELECT ` + snapshotColumns + `
		FROM task_snapshots
		WHERE status = $1
		ORDER BY seq ASC
		LIMIT $2
	`
	rows, err := r.pool.Query(ctx, query, status, limit)
	if err != nil {
		return nil, fmt.Errorf("list snapshot by status: %w", err)
	}
	defer rows.Close()

	var tasks []domain.Task
	for rows.Next() {
		task, err := scanSnapshot(rows)
		if err != nil {
			return nil, err
		}
		tasks = append(tasks, *task)
	}
	return tasks, rows.Err()
}

// CountByStatus возвращает количество task в snapshot по статусам.
func (r *SnapshotRepo) CountByStatus(ctx context.Context) (map[domain.TaskStatus]int, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT status, COUNT(*) FROM task_snapshots GROUP BY status
	`)
	if err != nil {
		return nil, fmt.Errorf("count snapshot by status: %w", err)
	}
	defer rows.Close()

	counts := make(map[domain.TaskStatus]int)
	for rows.Next() {
		var status domain.TaskStatus
		var count int
		if err := rows.Scan(&status, &count); err != nil {
			return nil, fmt.Errorf("scan count: %w", err)
		}
		counts[status] = count
	}
	return counts, rows.Err()
}

// --- Helpers ---

const snapshotColumns = `id, seq, title, description, category, priority, effective_priority,
		       status, dependencies::text[], payload, schedule, created_at, expires_at,
		       lease_owner, leased_at, finished_at, retry_count, max_retries, last_error`

// snapshotArgs раскладывает task в аргументы INSERT.
func snapshotArgs(task *domain.Task, at time.Time) ([]any, error) {
	var payloadJSON []byte
	if task.Payload != nil {
		var err error
		payloadJSON, err = json.Marshal(task.Payload)
		if err != nil {
			return nil, fmt.Errorf("marshal payload of %s: %w", task.ID, err)
		}
	}

	deps := make([]string, len(task.Dependencies))
	for i, id := range task.Dependencies {
		deps[i] = id.String()
	}

	return []any{
		task.ID,
		task.Seq,
		task.Title,
		nullString(task.Description),
		task.Category,
		task.Priority,
		task.EffectivePriority,
		task.Status,
		deps,
		payloadJSON,
		nullString(task.Schedule),
		task.CreatedAt,
		task.ExpiresAt,
		nullString(task.LeaseOwner),
		task.LeasedAt,
		task.FinishedAt,
		task.RetryCount,
		task.MaxRetries,
		nullString(task.LastError),
		at,
	}, nil
}

func scanSnapshot(row pgx.Row) (*domain.Task, error) {
	var task domain.Task
	var payloadJSON []byte
	var deps []string
	var description, schedule, leaseOwner, lastError *string

	err := row.Scan(
		&task.ID,
		&task.Seq,
		&task.Title,
		&description,
		&task.Category,
		&task.Priority,
		&task.EffectivePriority,
		&task.Status,
		&deps,
		&payloadJSON,
		&schedule,
		&task.CreatedAt,
		&task.ExpiresAt,
		&leaseOwner,
		&task.LeasedAt,
		&task.FinishedAt,
		&task.RetryCount,
		&task.MaxRetries,
		&lastError,
	)
	if err != nil {
		return nil, fmt.Errorf("scan snapshot: %w", err)
	}

	if payloadJSON != nil {
		if err := json.Unmarshal(payloadJSON, &task.Payload); err != nil {
			return nil, fmt.Errorf("unmarshal payload: %w", err)
		}
	}
	for _, s := range deps {
		id, err := uuid.Parse(s)
		if err != nil {
			return nil, fmt.Errorf("parse dependency %q: %w", s, err)
		}
		task.Dependencies = append(task.Dependencies, id)
	}
	task.Description = derefString(description)
	task.Schedule = derefString(schedule)
	task.LeaseOwner = derefString(leaseOwner)
	task.LastError = derefString(lastError)

	return &task, nil
}

// nullString возвращает nil для пустой строки.
func nullString(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}

func derefString(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}

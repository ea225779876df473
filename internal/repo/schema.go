package repo

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"
)

// schema — таблица snapshot. Живое состояние планировщика хранится
// в памяти, здесь только последняя выгрузка.
const schema = `
CREATE TABLE IF NOT EXISTS task_snapshots (
    id                 uuid PRIMARY KEY,
    seq                bigint      NOT NULL,
    title              text        NOT NULL,
    description        text,
    category           text        NOT NULL,
    priority           integer     NOT NULL,
    effective_priority integer     NOT NULL,
    status             text        NOT NULL,
    dependencies       uuid[]      NOT NULL DEFAULT '{}',
    payload            jsonb,
    schedule           text,
    created_at         timestamptz NOT NULL,
    expires_at         timestamptz,
    lease_owner        text,
    leased_at          timestamptz,
    finished_at        timestamptz,
    retry_count        integer     NOT NULL DEFAULT 0,
    max_retries        integer     NOT NULL DEFAULT 0,
    last_error         text,
    snapshot_at        timestamptz NOT NULL
);

CREATE INDEX IF NOT EXISTS task_snapshots_status_idx ON task_snapshots (status);
CREATE INDEX IF NOT EXISTS task_snapshots_category_idx ON task_snapshots (category);
`

// EnsureSchema создаёт таблицы, если их ещё нет.
func EnsureSchema(ctx context.Context, pool *pgxpool.Pool) error {
	if _, err := pool.Exec(ctx, schema); err != nil {
		return fmt.Errorf("ensure schema: %w", err)
	}
	return nil
}

package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/vittoswine/vittos-api/db"
)

// RunMigrations aplica el esquema embebido. Es idempotente.
func RunMigrations(ctx context.Context, pool *pgxpool.Pool) error {
	if _, err := pool.Exec(ctx, db.Schema); err != nil {
		return fmt.Errorf("aplicar esquema: %w", err)
	}
	return nil
}

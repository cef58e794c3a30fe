package store

import (
	"context"
	_ "embed"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/wonny/nichegate/pkg/logger"
)

//go:embed schema.sql
var schemaSQL string

// migrationLockID serializes concurrent migrations (overlapping deploys)
const migrationLockID = 7302115

// Migrate creates the niche schema. Every statement is idempotent.
// The schema runs in one transaction holding a transaction-scoped advisory
// lock, so the lock and the DDL share a connection and the lock is released
// on commit or rollback.
func Migrate(ctx context.Context, db DBTX, log *logger.Logger) error {
	log = logger.OrNop(log)

	tx, err := db.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin migration: %w", err)
	}
	committed := false
	defer func() {
		if committed {
			return
		}
		if err := tx.Rollback(ctx); err != nil && !errors.Is(err, pgx.ErrTxClosed) {
			log.WithError(err).Warn("Failed to roll back migration")
		}
	}()

	if _, err := tx.Exec(ctx, "SELECT pg_advisory_xact_lock($1)", migrationLockID); err != nil {
		return fmt.Errorf("acquire migration lock: %w", err)
	}

	if _, err := tx.Exec(ctx, schemaSQL); err != nil {
		return fmt.Errorf("apply schema: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit migration: %w", err)
	}
	committed = true

	log.Info("Schema migrated")
	return nil
}

package database

import (
	"context"
	"fmt"
	"log"

	"github.com/jackc/pgx/v5/pgxpool"
)

// Migration is one named schema step. Names are applied in slice order and
// recorded so a step never runs twice.
type Migration struct {
	Name string
	SQL  string
}

// Migrations is the schema of the postgres store
var Migrations = []Migration{
	{
		Name: "001_kv_collections",
		SQL: `
			CREATE TABLE IF NOT EXISTS kv_collections (
				key VARCHAR(128) PRIMARY KEY,
				value JSONB NOT NULL,
				updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
			);
		`,
	},
}

// Migrator handles database schema migrations
type Migrator struct {
	pool       *pgxpool.Pool
	migrations []Migration
}

func NewMigrator(pool *pgxpool.Pool) *Migrator {
	return &Migrator{
		pool:       pool,
		migrations: Migrations,
	}
}

// RunMigrations executes all pending migrations in order
func (m *Migrator) RunMigrations(ctx context.Context) error {
	log.Println("[Migrator] Starting database migrations...")

	if err := m.createMigrationsTable(ctx); err != nil {
		return fmt.Errorf("failed to create migrations table: %w", err)
	}

	applied, err := m.getAppliedMigrations(ctx)
	if err != nil {
		return fmt.Errorf("failed to get applied migrations: %w", err)
	}

	migrationsRun := 0
	for _, mig := range m.migrations {
		if applied[mig.Name] {
			continue
		}

		log.Printf("[Migrator]   → Running: %s", mig.Name)
		if _, err := m.pool.Exec(ctx, mig.SQL); err != nil {
			return fmt.Errorf("failed to run migration %s: %w", mig.Name, err)
		}

		if err := m.recordMigration(ctx, mig.Name); err != nil {
			return fmt.Errorf("failed to record migration %s: %w", mig.Name, err)
		}
		migrationsRun++
	}

	if migrationsRun > 0 {
		log.Printf("[Migrator] Successfully ran %d new migration(s)", migrationsRun)
	} else {
		log.Println("[Migrator] All migrations already applied")
	}
	return nil
}

func (m *Migrator) createMigrationsTable(ctx context.Context) error {
	query := `
		CREATE TABLE IF NOT EXISTS schema_migrations (
			id SERIAL PRIMARY KEY,
			filename VARCHAR(255) UNIQUE NOT NULL,
			applied_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
		);
	`
	_, err := m.pool.Exec(ctx, query)
	return err
}

func (m *Migrator) getAppliedMigrations(ctx context.Context) (map[string]bool, error) {
	applied := make(map[string]bool)

	rows, err := m.pool.Query(ctx, "SELECT filename FROM schema_migrations")
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, err
		}
		applied[name] = true
	}

	return applied, rows.Err()
}

func (m *Migrator) recordMigration(ctx context.Context, name string) error {
	_, err := m.pool.Exec(ctx, `
		INSERT INTO schema_migrations (filename)
		VALUES ($1)
		ON CONFLICT (filename) DO NOTHING
	`, name)
	return err
}

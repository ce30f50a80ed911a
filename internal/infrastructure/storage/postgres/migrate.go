package postgres

import (
	"context"
	"crypto/sha256"
	"embed"
	"encoding/hex"
	"errors"
	"fmt"
	"io/fs"
	"sort"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"

	"kadryhr/pkg/logger"
)

//go:embed migrations/*.sql
var migrationFS embed.FS

// ErrChecksumMismatch is returned when an applied migration file has been edited.
var ErrChecksumMismatch = errors.New("migrate: checksum mismatch")

const createSchemaMigrations = `
CREATE TABLE IF NOT EXISTS schema_migrations (
    id          TEXT PRIMARY KEY,
    checksum    TEXT NOT NULL,
    applied_at  TIMESTAMPTZ NOT NULL
)`

// migrationLockID serialises concurrent migrators via pg_advisory_xact_lock.
const migrationLockID = 0x6b6164727968

// Migration is one embedded SQL file.
type Migration struct {
	ID       string
	SQL      string
	Checksum string
}

// MigrationStatus reports whether a migration has been applied.
type MigrationStatus struct {
	Migration
	AppliedAt *time.Time
}

// Migrations returns the embedded migrations ordered by file name.
func Migrations() ([]Migration, error) {
	return loadMigrations(migrationFS, "migrations")
}

func loadMigrations(fsys fs.FS, dir string) ([]Migration, error) {
	entries, err := fs.ReadDir(fsys, dir)
	if err != nil {
		return nil, fmt.Errorf("read migrations: %w", err)
	}
	var out []Migration
	for _, e := range entries {
		if e.IsDir() || !strings.HasSuffix(e.Name(), ".sql") {
			continue
		}
		body, err := fs.ReadFile(fsys, dir+"/"+e.Name())
		if err != nil {
			return nil, fmt.Errorf("read %s: %w", e.Name(), err)
		}
		sum := sha256.Sum256(body)
		out = append(out, Migration{
			ID:       strings.TrimSuffix(e.Name(), ".sql"),
			SQL:      string(body),
			Checksum: hex.EncodeToString(sum[:]),
		})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

// Migrator applies embedded migrations, each in its own transaction.
type Migrator struct {
	pool       *Pool
	migrations []Migration
}

// NewMigrator creates a migrator over the embedded files.
func NewMigrator(pool *Pool) (*Migrator, error) {
	ms, err := Migrations()
	if err != nil {
		return nil, err
	}
	return &Migrator{pool: pool, migrations: ms}, nil
}

func (m *Migrator) ensureSchema(ctx context.Context) error {
	if _, err := m.pool.Exec(ctx, createSchemaMigrations); err != nil {
		return fmt.Errorf("migrate: create schema_migrations: %w", err)
	}
	return nil
}

func (m *Migrator) applied(ctx context.Context, q Querier) (map[string]MigrationStatus, error) {
	rows, err := q.Query(ctx, `SELECT id, checksum, applied_at FROM schema_migrations`)
	if err != nil {
		return nil, fmt.Errorf("migrate: read schema_migrations: %w", err)
	}
	defer rows.Close()

	out := make(map[string]MigrationStatus)
	for rows.Next() {
		var st MigrationStatus
		var at time.Time
		if err := rows.Scan(&st.ID, &st.Checksum, &at); err != nil {
			return nil, err
		}
		st.AppliedAt = &at
		out[st.ID] = st
	}
	return out, rows.Err()
}

// Status lists every embedded migration and when it was applied.
func (m *Migrator) Status(ctx context.Context) ([]MigrationStatus, error) {
	if err := m.ensureSchema(ctx); err != nil {
		return nil, err
	}
	done, err := m.applied(ctx, m.pool)
	if err != nil {
		return nil, err
	}
	out := make([]MigrationStatus, 0, len(m.migrations))
	for _, mig := range m.migrations {
		st := MigrationStatus{Migration: mig}
		if rec, ok := done[mig.ID]; ok {
			st.AppliedAt = rec.AppliedAt
		}
		out = append(out, st)
	}
	return out, nil
}

// Up applies pending migrations in order and returns the ids applied.
// An applied migration whose file changed fails with ErrChecksumMismatch.
func (m *Migrator) Up(ctx context.Context) ([]string, error) {
	if err := m.ensureSchema(ctx); err != nil {
		return nil, err
	}

	var appliedNow []string
	for _, mig := range m.migrations {
		ok, err := m.applyOne(ctx, mig)
		if err != nil {
			return appliedNow, err
		}
		if ok {
			appliedNow = append(appliedNow, mig.ID)
			logger.Info(ctx, "migration applied", "id", mig.ID)
		}
	}
	return appliedNow, nil
}

func (m *Migrator) applyOne(ctx context.Context, mig Migration) (bool, error) {
	tx, err := m.pool.Begin(ctx)
	if err != nil {
		return false, fmt.Errorf("migrate: begin %s: %w", mig.ID, err)
	}
	defer func() { _ = tx.Rollback(context.WithoutCancel(ctx)) }()

	if _, err := tx.Exec(ctx, `SELECT pg_advisory_xact_lock($1)`, int64(migrationLockID)); err != nil {
		return false, fmt.Errorf("migrate: lock: %w", err)
	}

	var stored string
	err = tx.QueryRow(ctx, `SELECT checksum FROM schema_migrations WHERE id = $1`, mig.ID).Scan(&stored)
	switch {
	case err == nil:
		if stored != mig.Checksum {
			return false, fmt.Errorf("%w: %s stored=%s file=%s", ErrChecksumMismatch, mig.ID, stored, mig.Checksum)
		}
		return false, nil
	case !errors.Is(err, pgx.ErrNoRows):
		return false, fmt.Errorf("migrate: read %s: %w", mig.ID, err)
	}

	if _, err := tx.Exec(ctx, mig.SQL); err != nil {
		return false, fmt.Errorf("migrate: apply %s: %w", mig.ID, err)
	}
	if _, err := tx.Exec(ctx,
		`INSERT INTO schema_migrations (id, checksum, applied_at) VALUES ($1, $2, $3)`,
		mig.ID, mig.Checksum, time.Now().UTC(),
	); err != nil {
		return false, fmt.Errorf("migrate: record %s: %w", mig.ID, err)
	}
	if err := tx.Commit(ctx); err != nil {
		return false, fmt.Errorf("migrate: commit %s: %w", mig.ID, err)
	}
	return true, nil
}

package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
)

// ══════════════════════════════════════════════════════════════════════════════
// MIGRATOR
// ══════════════════════════════════════════════════════════════════════════════

// Migration represents a database migration.
type Migration struct {
	Version   int
	Name      string
	UpSQL     string
	DownSQL   string
	AppliedAt time.Time
	IsApplied bool
}

// Migrator handles database migrations.
type Migrator struct {
	conn       *Connection
	migrations []Migration
	tableName  string
}

// NewMigrator creates a new migrator with embedded migrations.
func NewMigrator(conn *Connection) *Migrator {
	return &Migrator{
		conn:       conn,
		migrations: GetMigrations(),
		tableName:  "schema_migrations",
	}
}

// EnsureMigrationTable creates the migration tracking table if it doesn't exist.
func (m *Migrator) EnsureMigrationTable(ctx context.Context) error {
	query := fmt.Sprintf(`
		CREATE TABLE IF NOT EXISTS %s (
			version INTEGER PRIMARY KEY,
			name TEXT NOT NULL,
			applied_at TIMESTAMP WITH TIME ZONE NOT NULL DEFAULT NOW()
		)
	`, m.tableName)

	if _, err := m.conn.Exec(ctx, query); err != nil {
		return fmt.Errorf("failed to create migrations table: %w", err)
	}
	return nil
}

func (m *Migrator) applied(ctx context.Context) (map[int]time.Time, error) {
	rows, err := m.conn.Query(ctx, fmt.Sprintf("SELECT version, applied_at FROM %s ORDER BY version", m.tableName))
	if err != nil {
		return nil, fmt.Errorf("failed to query applied migrations: %w", err)
	}
	defer rows.Close()

	applied := make(map[int]time.Time)
	for rows.Next() {
		var version int
		var appliedAt time.Time
		if err := rows.Scan(&version, &appliedAt); err != nil {
			return nil, fmt.Errorf("failed to scan migration row: %w", err)
		}
		applied[version] = appliedAt
	}
	return applied, rows.Err()
}

// Migrate applies all pending migrations and returns how many were applied.
func (m *Migrator) Migrate(ctx context.Context) (int, error) {
	if err := m.EnsureMigrationTable(ctx); err != nil {
		return 0, err
	}

	applied, err := m.applied(ctx)
	if err != nil {
		return 0, err
	}

	count := 0
	for _, mig := range m.migrations {
		if _, ok := applied[mig.Version]; ok {
			continue
		}

		err := m.conn.WithTx(ctx, DefaultTxOptions(), func(tx pgx.Tx) error {
			if _, err := tx.Exec(ctx, mig.UpSQL); err != nil {
				return fmt.Errorf("failed to execute migration %d: %w", mig.Version, err)
			}
			_, err := tx.Exec(ctx, fmt.Sprintf("INSERT INTO %s (version, name) VALUES ($1, $2)", m.tableName),
				mig.Version, mig.Name)
			return err
		})
		if err != nil {
			return count, fmt.Errorf("%w: version %d: %v", ErrMigrationFailed, mig.Version, err)
		}
		count++
	}

	return count, nil
}

// Rollback rolls back the last applied migration.
func (m *Migrator) Rollback(ctx context.Context) error {
	if err := m.EnsureMigrationTable(ctx); err != nil {
		return err
	}

	applied, err := m.applied(ctx)
	if err != nil {
		return err
	}

	var last int
	for v := range applied {
		if v > last {
			last = v
		}
	}
	if last == 0 {
		return nil
	}

	var migration *Migration
	for i := range m.migrations {
		if m.migrations[i].Version == last {
			migration = &m.migrations[i]
			break
		}
	}
	if migration == nil || migration.DownSQL == "" {
		return fmt.Errorf("%w: missing down SQL for migration %d", ErrMigrationFailed, last)
	}

	return m.conn.WithTx(ctx, DefaultTxOptions(), func(tx pgx.Tx) error {
		if _, err := tx.Exec(ctx, migration.DownSQL); err != nil {
			return fmt.Errorf("failed to rollback migration %d: %w", last, err)
		}
		_, err := tx.Exec(ctx, fmt.Sprintf("DELETE FROM %s WHERE version = $1", m.tableName), last)
		return err
	})
}

// Status returns the migration status.
func (m *Migrator) Status(ctx context.Context) ([]Migration, error) {
	if err := m.EnsureMigrationTable(ctx); err != nil {
		return nil, err
	}

	applied, err := m.applied(ctx)
	if err != nil {
		return nil, err
	}

	result := make([]Migration, len(m.migrations))
	copy(result, m.migrations)
	for i := range result {
		if at, ok := applied[result[i].Version]; ok {
			result[i].IsApplied = true
			result[i].AppliedAt = at
		}
	}
	return result, nil
}

// GetMigrations returns all embedded migrations.
func GetMigrations() []Migration {
	return []Migration{
		{Version: 1, Name: "create_users", UpSQL: migration001Up, DownSQL: migration001Down},
		{Version: 2, Name: "create_roulettes", UpSQL: migration002Up, DownSQL: migration002Down},
		{Version: 3, Name: "create_groups_and_penalties", UpSQL: migration003Up, DownSQL: migration003Down},
	}
}

// ══════════════════════════════════════════════════════════════════════════════
// MIGRATION 001: USERS
// ══════════════════════════════════════════════════════════════════════════════

const migration001Up = `
CREATE TABLE IF NOT EXISTS roulette_users (
    id BIGSERIAL PRIMARY KEY,
    name VARCHAR(100) NOT NULL,
    email VARCHAR(254) NOT NULL UNIQUE,
    created_at TIMESTAMP WITH TIME ZONE NOT NULL DEFAULT NOW(),

    CONSTRAINT valid_name CHECK (length(trim(name)) > 0)
);

CREATE INDEX IF NOT EXISTS idx_roulette_users_name ON roulette_users(name);
`

const migration001Down = `
DROP TABLE IF EXISTS roulette_users;
`

// ══════════════════════════════════════════════════════════════════════════════
// MIGRATION 002: ROULETTES, VOTES, MATCHES
// ══════════════════════════════════════════════════════════════════════════════

const migration002Up = `
CREATE TABLE IF NOT EXISTS roulettes (
    id BIGSERIAL PRIMARY KEY,
    vote_deadline TIMESTAMP WITH TIME ZONE NOT NULL,
    coffee_deadline TIMESTAMP WITH TIME ZONE NOT NULL,
    -- NULL until matches are finalized; written exactly once.
    matchings_found_on TIMESTAMP WITH TIME ZONE,
    created_at TIMESTAMP WITH TIME ZONE NOT NULL DEFAULT NOW(),

    CONSTRAINT vote_before_coffee CHECK (vote_deadline < coffee_deadline)
);

CREATE INDEX IF NOT EXISTS idx_roulettes_coffee_deadline ON roulettes(coffee_deadline);
CREATE INDEX IF NOT EXISTS idx_roulettes_found_on ON roulettes(matchings_found_on DESC) WHERE matchings_found_on IS NOT NULL;

CREATE TABLE IF NOT EXISTS votes (
    roulette_id BIGINT NOT NULL REFERENCES roulettes(id) ON DELETE CASCADE,
    user_id BIGINT NOT NULL REFERENCES roulette_users(id) ON DELETE CASCADE,
    choice CHAR(1) NOT NULL DEFAULT '0',
    updated_at TIMESTAMP WITH TIME ZONE NOT NULL DEFAULT NOW(),

    PRIMARY KEY (roulette_id, user_id),
    CONSTRAINT valid_choice CHECK (choice IN ('Y', 'N', '0'))
);

CREATE INDEX IF NOT EXISTS idx_votes_yes ON votes(roulette_id) WHERE choice = 'Y';

CREATE TABLE IF NOT EXISTS matches (
    id BIGSERIAL PRIMARY KEY,
    roulette_id BIGINT NOT NULL REFERENCES roulettes(id) ON DELETE CASCADE,
    user_a BIGINT NOT NULL REFERENCES roulette_users(id) ON DELETE CASCADE,
    user_b BIGINT NOT NULL REFERENCES roulette_users(id) ON DELETE CASCADE,

    CONSTRAINT ordered_pair CHECK (user_a < user_b),
    CONSTRAINT unique_pair_per_roulette UNIQUE (roulette_id, user_a, user_b)
);

CREATE INDEX IF NOT EXISTS idx_matches_pair ON matches(user_a, user_b);
`

const migration002Down = `
DROP TABLE IF EXISTS matches;
DROP TABLE IF EXISTS votes;
DROP TABLE IF EXISTS roulettes;
`

// ══════════════════════════════════════════════════════════════════════════════
// MIGRATION 003: GROUPS AND PENALTY SETTINGS
// ══════════════════════════════════════════════════════════════════════════════

const migration003Up = `
CREATE TABLE IF NOT EXISTS exclusion_groups (
    id BIGSERIAL PRIMARY KEY,
    custom_name VARCHAR(128) NOT NULL DEFAULT ''
);

CREATE TABLE IF NOT EXISTS exclusion_group_members (
    group_id BIGINT NOT NULL REFERENCES exclusion_groups(id) ON DELETE CASCADE,
    user_id BIGINT NOT NULL REFERENCES roulette_users(id) ON DELETE CASCADE,
    PRIMARY KEY (group_id, user_id)
);

CREATE TABLE IF NOT EXISTS penalty_groups (
    id BIGSERIAL PRIMARY KEY,
    custom_name VARCHAR(128) NOT NULL DEFAULT ''
);

CREATE TABLE IF NOT EXISTS penalty_group_members (
    group_id BIGINT NOT NULL REFERENCES penalty_groups(id) ON DELETE CASCADE,
    user_id BIGINT NOT NULL REFERENCES roulette_users(id) ON DELETE CASCADE,
    PRIMARY KEY (group_id, user_id)
);

CREATE TABLE IF NOT EXISTS penalty_settings (
    name VARCHAR(64) PRIMARY KEY,
    value DOUBLE PRECISION NOT NULL,
    updated_at TIMESTAMP WITH TIME ZONE NOT NULL DEFAULT NOW()
);
`

const migration003Down = `
DROP TABLE IF EXISTS penalty_settings;
DROP TABLE IF EXISTS penalty_group_members;
DROP TABLE IF EXISTS penalty_groups;
DROP TABLE IF EXISTS exclusion_group_members;
DROP TABLE IF EXISTS exclusion_groups;
`

package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/coffee-roulette/roulette-hub/internal/domain/roulette"
)

// ══════════════════════════════════════════════════════════════════════════════
// PENALTY SETTINGS REPOSITORY IMPLEMENTATION
// ══════════════════════════════════════════════════════════════════════════════

// PenaltyRepository implements roulette.PenaltyRepository for PostgreSQL.
// Settings are stored as name/value rows; missing rows fall back to defaults.
type PenaltyRepository struct {
	conn *Connection
}

// NewPenaltyRepository creates a new PenaltyRepository.
func NewPenaltyRepository(conn *Connection) *PenaltyRepository {
	return &PenaltyRepository{conn: conn}
}

// Get returns the current penalty configuration.
func (r *PenaltyRepository) Get(ctx context.Context) (roulette.PenaltyConfig, error) {
	rows, err := r.conn.Query(ctx, `SELECT name, value FROM penalty_settings`)
	if err != nil {
		return roulette.PenaltyConfig{}, fmt.Errorf("failed to query penalty settings: %w", err)
	}
	defer rows.Close()

	settings := make(map[string]float64)
	for rows.Next() {
		var name string
		var value float64
		if err := rows.Scan(&name, &value); err != nil {
			return roulette.PenaltyConfig{}, fmt.Errorf("failed to scan penalty setting: %w", err)
		}
		settings[name] = value
	}
	if err := rows.Err(); err != nil {
		return roulette.PenaltyConfig{}, fmt.Errorf("failed to iterate penalty settings: %w", err)
	}
	return roulette.PenaltyConfigFromSettings(settings), nil
}

// Save upserts all settings in a single batch.
func (r *PenaltyRepository) Save(ctx context.Context, cfg roulette.PenaltyConfig) error {
	if err := cfg.Validate(); err != nil {
		return err
	}

	batch := &pgx.Batch{}
	for name, value := range cfg.AsSettings() {
		batch.Queue(`
			INSERT INTO penalty_settings (name, value, updated_at)
			VALUES ($1, $2, NOW())
			ON CONFLICT (name) DO UPDATE SET value = EXCLUDED.value, updated_at = NOW()
		`, name, value)
	}

	return r.conn.WithTx(ctx, DefaultTxOptions(), func(tx pgx.Tx) error {
		if err := tx.SendBatch(ctx, batch).Close(); err != nil {
			return fmt.Errorf("failed to save penalty settings: %w", err)
		}
		return nil
	})
}

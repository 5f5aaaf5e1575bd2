package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/coffee-roulette/roulette-hub/internal/domain/roulette"
)

// ══════════════════════════════════════════════════════════════════════════════
// MATCH REPOSITORY IMPLEMENTATION
// ══════════════════════════════════════════════════════════════════════════════

// MatchRepository implements roulette.MatchRepository for PostgreSQL.
type MatchRepository struct {
	conn *Connection
}

// NewMatchRepository creates a new MatchRepository.
func NewMatchRepository(conn *Connection) *MatchRepository {
	return &MatchRepository{conn: conn}
}

// History returns every match of every finalized roulette together with the
// roulette's completion time.
func (r *MatchRepository) History(ctx context.Context) ([]roulette.PastMatch, error) {
	rows, err := r.conn.Query(ctx, `
		SELECT m.roulette_id, m.user_a, m.user_b, r.matchings_found_on
		FROM matches m
		JOIN roulettes r ON r.id = m.roulette_id
		WHERE r.matchings_found_on IS NOT NULL
		ORDER BY r.matchings_found_on, m.id
	`)
	if err != nil {
		return nil, fmt.Errorf("failed to query match history: %w", err)
	}

	history, err := pgx.CollectRows(rows, func(row pgx.CollectableRow) (roulette.PastMatch, error) {
		var pm roulette.PastMatch
		err := row.Scan(&pm.RouletteID, &pm.UserA, &pm.UserB, &pm.CompletedAt)
		return pm, err
	})
	if err != nil {
		return nil, fmt.Errorf("failed to scan match history: %w", err)
	}
	return history, nil
}

// ByRoulette returns the matches of one roulette in insertion order.
func (r *MatchRepository) ByRoulette(ctx context.Context, rouletteID roulette.RouletteID) ([]roulette.Match, error) {
	rows, err := r.conn.Query(ctx,
		`SELECT roulette_id, user_a, user_b FROM matches WHERE roulette_id = $1 ORDER BY id`,
		int64(rouletteID),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to query matches: %w", err)
	}

	matches, err := pgx.CollectRows(rows, func(row pgx.CollectableRow) (roulette.Match, error) {
		var m roulette.Match
		err := row.Scan(&m.RouletteID, &m.UserA, &m.UserB)
		return m, err
	})
	if err != nil {
		return nil, fmt.Errorf("failed to scan matches: %w", err)
	}
	return matches, nil
}

package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/coffee-roulette/roulette-hub/internal/domain/roulette"
	"github.com/coffee-roulette/roulette-hub/internal/domain/shared"
)

// ══════════════════════════════════════════════════════════════════════════════
// ROULETTE REPOSITORY IMPLEMENTATION
// ══════════════════════════════════════════════════════════════════════════════

// RouletteRepository implements roulette.RouletteRepository for PostgreSQL.
type RouletteRepository struct {
	conn *Connection
}

// NewRouletteRepository creates a new RouletteRepository.
func NewRouletteRepository(conn *Connection) *RouletteRepository {
	return &RouletteRepository{conn: conn}
}

const rouletteColumns = `id, vote_deadline, coffee_deadline, matchings_found_on`

// Create inserts the roulette and a default vote for every user.
func (r *RouletteRepository) Create(ctx context.Context, rt *roulette.Roulette) error {
	if err := rt.Validate(); err != nil {
		return err
	}
	return r.conn.WithTx(ctx, DefaultTxOptions(), func(tx pgx.Tx) error {
		var id int64
		err := tx.QueryRow(ctx,
			`INSERT INTO roulettes (vote_deadline, coffee_deadline) VALUES ($1, $2) RETURNING id`,
			rt.VoteDeadline, rt.CoffeeDeadline,
		).Scan(&id)
		if err != nil {
			return fmt.Errorf("failed to create roulette: %w", err)
		}

		if _, err := tx.Exec(ctx,
			`INSERT INTO votes (roulette_id, user_id) SELECT $1, id FROM roulette_users`, id,
		); err != nil {
			return fmt.Errorf("failed to create default votes: %w", err)
		}

		rt.ID = roulette.RouletteID(id)
		return nil
	})
}

// GetByID returns a roulette by ID.
func (r *RouletteRepository) GetByID(ctx context.Context, id roulette.RouletteID) (*roulette.Roulette, error) {
	row := r.conn.QueryRow(ctx, `SELECT `+rouletteColumns+` FROM roulettes WHERE id = $1`, int64(id))
	rt, err := scanRoulette(row)
	if err != nil {
		if IsNoRows(err) {
			return nil, shared.ErrRouletteNotFound
		}
		return nil, fmt.Errorf("failed to get roulette %d: %w", id, err)
	}
	return rt, nil
}

// ListCurrent returns roulettes whose coffee deadline is not over yet.
func (r *RouletteRepository) ListCurrent(ctx context.Context, now time.Time) ([]roulette.Roulette, error) {
	rows, err := r.conn.Query(ctx,
		`SELECT `+rouletteColumns+` FROM roulettes WHERE coffee_deadline >= $1 ORDER BY vote_deadline`, now,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to list roulettes: %w", err)
	}
	result, err := pgx.CollectRows(rows, func(row pgx.CollectableRow) (roulette.Roulette, error) {
		rt, err := scanRoulette(row)
		if err != nil {
			return roulette.Roulette{}, err
		}
		return *rt, nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to scan roulettes: %w", err)
	}
	return result, nil
}

// LastCompleted returns the roulette with the latest matchings_found_on, or nil.
func (r *RouletteRepository) LastCompleted(ctx context.Context) (*roulette.Roulette, error) {
	row := r.conn.QueryRow(ctx, `
		SELECT `+rouletteColumns+` FROM roulettes
		WHERE matchings_found_on IS NOT NULL
		ORDER BY matchings_found_on DESC, id DESC
		LIMIT 1
	`)
	rt, err := scanRoulette(row)
	if err != nil {
		if IsNoRows(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get last completed roulette: %w", err)
	}
	return rt, nil
}

// ─────────────────────────────────────────────────────────────────────────────
// Finalize
// ─────────────────────────────────────────────────────────────────────────────

// FinalizeMatches persists the groups of a roulette in one transaction.
// The roulette row is locked with SELECT ... FOR UPDATE, so of two concurrent
// callers exactly one commits and the other observes matchings_found_on set.
func (r *RouletteRepository) FinalizeMatches(ctx context.Context, req roulette.FinalizeRequest) error {
	if err := roulette.ValidateGroups(req.Groups); err != nil {
		return err
	}

	return r.conn.WithTx(ctx, DefaultTxOptions(), func(tx pgx.Tx) error {
		// ─── Lock and check state ───
		var voteDeadline time.Time
		var foundOn *time.Time
		err := tx.QueryRow(ctx,
			`SELECT vote_deadline, matchings_found_on FROM roulettes WHERE id = $1 FOR UPDATE`,
			int64(req.RouletteID),
		).Scan(&voteDeadline, &foundOn)
		if err != nil {
			if IsNoRows(err) {
				return shared.ErrRouletteNotFound
			}
			return fmt.Errorf("failed to lock roulette %d: %w", req.RouletteID, err)
		}
		if foundOn != nil {
			return shared.ErrRouletteAlreadyFinalized
		}
		if !req.At.After(voteDeadline) {
			return shared.ErrVotingNotFinished
		}

		// ─── Every referenced user must exist ───
		if err := ensureUsersExist(ctx, tx, req.Groups); err != nil {
			return err
		}

		// ─── One row per unordered pair within each group ───
		var rows [][]interface{}
		for _, group := range req.Groups {
			for _, m := range roulette.GroupPairs(req.RouletteID, group) {
				rows = append(rows, []interface{}{int64(m.RouletteID), int64(m.UserA), int64(m.UserB)})
			}
		}
		if len(rows) > 0 {
			if _, err := tx.CopyFrom(ctx,
				pgx.Identifier{"matches"},
				[]string{"roulette_id", "user_a", "user_b"},
				pgx.CopyFromRows(rows),
			); err != nil {
				return fmt.Errorf("failed to insert matches: %w", err)
			}
		}

		tag, err := tx.Exec(ctx,
			`UPDATE roulettes SET matchings_found_on = $2 WHERE id = $1 AND matchings_found_on IS NULL`,
			int64(req.RouletteID), req.At,
		)
		if err != nil {
			return fmt.Errorf("failed to mark roulette finalized: %w", err)
		}
		if tag.RowsAffected() != 1 {
			return shared.ErrRouletteAlreadyFinalized
		}
		return nil
	})
}

func ensureUsersExist(ctx context.Context, q Querier, groups [][]roulette.UserID) error {
	var ids []int64
	for _, group := range groups {
		for _, id := range group {
			ids = append(ids, int64(id))
		}
	}

	rows, err := q.Query(ctx, `SELECT id FROM roulette_users WHERE id = ANY($1)`, ids)
	if err != nil {
		return fmt.Errorf("failed to check users: %w", err)
	}
	found, err := pgx.CollectRows(rows, pgx.RowTo[int64])
	if err != nil {
		return fmt.Errorf("failed to scan users: %w", err)
	}

	known := make(map[int64]bool, len(found))
	for _, id := range found {
		known[id] = true
	}
	for _, id := range ids {
		if !known[id] {
			return shared.WrapError("user", "Finalize", shared.ErrUserNotFound, fmt.Sprintf("user %d", id), nil)
		}
	}
	return nil
}

func scanRoulette(row pgx.Row) (*roulette.Roulette, error) {
	var rt roulette.Roulette
	if err := row.Scan(&rt.ID, &rt.VoteDeadline, &rt.CoffeeDeadline, &rt.MatchingsFoundOn); err != nil {
		return nil, err
	}
	return &rt, nil
}

package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/coffee-roulette/roulette-hub/internal/domain/roulette"
	"github.com/coffee-roulette/roulette-hub/internal/domain/shared"
)

// ══════════════════════════════════════════════════════════════════════════════
// VOTE REPOSITORY IMPLEMENTATION
// ══════════════════════════════════════════════════════════════════════════════

// VoteRepository implements roulette.VoteRepository for PostgreSQL.
type VoteRepository struct {
	conn *Connection
}

// NewVoteRepository creates a new VoteRepository.
func NewVoteRepository(conn *Connection) *VoteRepository {
	return &VoteRepository{conn: conn}
}

// SetChoice updates the user's vote. The roulette row is share-locked so a
// concurrent finalize cannot slip in between the state check and the write.
func (r *VoteRepository) SetChoice(ctx context.Context, rouletteID roulette.RouletteID, userID roulette.UserID, choice roulette.Choice) error {
	if !choice.IsValid() {
		return shared.ErrInvalidVoteChoice
	}

	return r.conn.WithTx(ctx, DefaultTxOptions(), func(tx pgx.Tx) error {
		var finalized bool
		err := tx.QueryRow(ctx,
			`SELECT matchings_found_on IS NOT NULL FROM roulettes WHERE id = $1 FOR SHARE`,
			int64(rouletteID),
		).Scan(&finalized)
		if err != nil {
			if IsNoRows(err) {
				return shared.ErrRouletteNotFound
			}
			return fmt.Errorf("failed to lock roulette %d: %w", rouletteID, err)
		}
		if finalized {
			return shared.ErrVotesLocked
		}

		_, err = tx.Exec(ctx, `
			INSERT INTO votes (roulette_id, user_id, choice, updated_at)
			VALUES ($1, $2, $3, NOW())
			ON CONFLICT (roulette_id, user_id)
			DO UPDATE SET choice = EXCLUDED.choice, updated_at = NOW()
		`, int64(rouletteID), int64(userID), string(choice))
		if err != nil {
			if IsForeignKeyViolation(err) {
				return shared.ErrUserNotFound
			}
			return fmt.Errorf("failed to set vote: %w", err)
		}
		return nil
	})
}

// ListByRoulette returns every vote of the roulette ordered by user name.
func (r *VoteRepository) ListByRoulette(ctx context.Context, rouletteID roulette.RouletteID) ([]roulette.Vote, error) {
	rows, err := r.conn.Query(ctx, `
		SELECT v.roulette_id, u.id, u.name, u.email, v.choice
		FROM votes v
		JOIN roulette_users u ON u.id = v.user_id
		WHERE v.roulette_id = $1
		ORDER BY u.name, u.id
	`, int64(rouletteID))
	if err != nil {
		return nil, fmt.Errorf("failed to list votes: %w", err)
	}

	votes, err := pgx.CollectRows(rows, func(row pgx.CollectableRow) (roulette.Vote, error) {
		var v roulette.Vote
		var choice string
		err := row.Scan(&v.RouletteID, &v.User.ID, &v.User.Name, &v.User.Email, &choice)
		v.Choice = roulette.Choice(choice)
		return v, err
	})
	if err != nil {
		return nil, fmt.Errorf("failed to scan votes: %w", err)
	}
	return votes, nil
}

// ParticipatingUsers returns users who voted yes, ordered by ID.
func (r *VoteRepository) ParticipatingUsers(ctx context.Context, rouletteID roulette.RouletteID) ([]roulette.User, error) {
	rows, err := r.conn.Query(ctx, `
		SELECT u.id, u.name, u.email
		FROM votes v
		JOIN roulette_users u ON u.id = v.user_id
		WHERE v.roulette_id = $1 AND v.choice = $2
		ORDER BY u.id
	`, int64(rouletteID), string(roulette.ChoiceYes))
	if err != nil {
		return nil, fmt.Errorf("failed to query participants: %w", err)
	}
	return collectUsers(rows)
}

package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/coffee-roulette/roulette-hub/internal/domain/roulette"
	"github.com/coffee-roulette/roulette-hub/internal/domain/shared"
)

// ══════════════════════════════════════════════════════════════════════════════
// USER REPOSITORY IMPLEMENTATION
// ══════════════════════════════════════════════════════════════════════════════

// UserRepository implements roulette.UserRepository for PostgreSQL.
type UserRepository struct {
	conn *Connection
}

// NewUserRepository creates a new UserRepository.
func NewUserRepository(conn *Connection) *UserRepository {
	return &UserRepository{conn: conn}
}

// Create inserts the user and gives them a default vote in every open roulette.
func (r *UserRepository) Create(ctx context.Context, u *roulette.User) error {
	return r.conn.WithTx(ctx, DefaultTxOptions(), func(tx pgx.Tx) error {
		var id int64
		err := tx.QueryRow(ctx,
			`INSERT INTO roulette_users (name, email) VALUES ($1, $2) RETURNING id`,
			u.Name, u.Email,
		).Scan(&id)
		if err != nil {
			if IsUniqueViolation(err) {
				return shared.ErrUserAlreadyExists
			}
			return fmt.Errorf("failed to create user: %w", err)
		}

		_, err = tx.Exec(ctx, `
			INSERT INTO votes (roulette_id, user_id)
			SELECT id, $1 FROM roulettes WHERE matchings_found_on IS NULL
			ON CONFLICT DO NOTHING
		`, id)
		if err != nil {
			return fmt.Errorf("failed to create default votes: %w", err)
		}

		u.ID = roulette.UserID(id)
		return nil
	})
}

// GetByID returns a user by ID.
func (r *UserRepository) GetByID(ctx context.Context, id roulette.UserID) (*roulette.User, error) {
	var u roulette.User
	err := r.conn.QueryRow(ctx,
		`SELECT id, name, email FROM roulette_users WHERE id = $1`, int64(id),
	).Scan(&u.ID, &u.Name, &u.Email)
	if err != nil {
		if IsNoRows(err) {
			return nil, shared.ErrUserNotFound
		}
		return nil, fmt.Errorf("failed to get user %d: %w", id, err)
	}
	return &u, nil
}

// GetByIDs returns the users that exist among ids, ordered by ID.
func (r *UserRepository) GetByIDs(ctx context.Context, ids []roulette.UserID) ([]roulette.User, error) {
	rows, err := r.conn.Query(ctx,
		`SELECT id, name, email FROM roulette_users WHERE id = ANY($1) ORDER BY id`, toInt64s(ids),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to query users: %w", err)
	}
	return collectUsers(rows)
}

// List returns all users ordered by name.
func (r *UserRepository) List(ctx context.Context) ([]roulette.User, error) {
	rows, err := r.conn.Query(ctx, `SELECT id, name, email FROM roulette_users ORDER BY name, id`)
	if err != nil {
		return nil, fmt.Errorf("failed to list users: %w", err)
	}
	return collectUsers(rows)
}

// ─────────────────────────────────────────────────────────────────────────────
// Helpers
// ─────────────────────────────────────────────────────────────────────────────

func collectUsers(rows pgx.Rows) ([]roulette.User, error) {
	users, err := pgx.CollectRows(rows, func(row pgx.CollectableRow) (roulette.User, error) {
		var u roulette.User
		err := row.Scan(&u.ID, &u.Name, &u.Email)
		return u, err
	})
	if err != nil {
		return nil, fmt.Errorf("failed to scan users: %w", err)
	}
	return users, nil
}

func toInt64s(ids []roulette.UserID) []int64 {
	out := make([]int64, len(ids))
	for i, id := range ids {
		out[i] = int64(id)
	}
	return out
}

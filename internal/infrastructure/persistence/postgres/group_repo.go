package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/coffee-roulette/roulette-hub/internal/domain/roulette"
	"github.com/coffee-roulette/roulette-hub/internal/domain/shared"
)

// ══════════════════════════════════════════════════════════════════════════════
// GROUP REPOSITORY IMPLEMENTATION
// ══════════════════════════════════════════════════════════════════════════════

// GroupRepository implements roulette.GroupRepository for PostgreSQL.
// Exclusion and penalty groups share one shape and differ only by table.
type GroupRepository struct {
	conn *Connection
}

// NewGroupRepository creates a new GroupRepository.
func NewGroupRepository(conn *Connection) *GroupRepository {
	return &GroupRepository{conn: conn}
}

type groupTables struct {
	groups  string
	members string
}

var (
	exclusionTables = groupTables{groups: "exclusion_groups", members: "exclusion_group_members"}
	penaltyTables   = groupTables{groups: "penalty_groups", members: "penalty_group_members"}
)

type groupRow struct {
	id         int64
	customName string
	members    []roulette.User
}

// ExclusionGroups returns all exclusion groups with members.
func (r *GroupRepository) ExclusionGroups(ctx context.Context) ([]roulette.ExclusionGroup, error) {
	rows, err := r.load(ctx, exclusionTables)
	if err != nil {
		return nil, err
	}
	groups := make([]roulette.ExclusionGroup, len(rows))
	for i, g := range rows {
		groups[i] = roulette.ExclusionGroup{ID: g.id, CustomName: g.customName, Members: g.members}
	}
	return groups, nil
}

// PenaltyGroups returns all penalty groups with members.
func (r *GroupRepository) PenaltyGroups(ctx context.Context) ([]roulette.PenaltyGroup, error) {
	rows, err := r.load(ctx, penaltyTables)
	if err != nil {
		return nil, err
	}
	groups := make([]roulette.PenaltyGroup, len(rows))
	for i, g := range rows {
		groups[i] = roulette.PenaltyGroup{ID: g.id, CustomName: g.customName, Members: g.members}
	}
	return groups, nil
}

// SaveExclusionGroup creates or replaces an exclusion group.
func (r *GroupRepository) SaveExclusionGroup(ctx context.Context, g *roulette.ExclusionGroup) error {
	id, err := r.save(ctx, exclusionTables, g.ID, g.CustomName, g.MemberIDs())
	if err != nil {
		return err
	}
	g.ID = id
	return nil
}

// SavePenaltyGroup creates or replaces a penalty group.
func (r *GroupRepository) SavePenaltyGroup(ctx context.Context, g *roulette.PenaltyGroup) error {
	id, err := r.save(ctx, penaltyTables, g.ID, g.CustomName, g.MemberIDs())
	if err != nil {
		return err
	}
	g.ID = id
	return nil
}

// ─────────────────────────────────────────────────────────────────────────────
// Shared implementation
// ─────────────────────────────────────────────────────────────────────────────

func (r *GroupRepository) load(ctx context.Context, t groupTables) ([]groupRow, error) {
	query := fmt.Sprintf(`
		SELECT g.id, g.custom_name, u.id, u.name, u.email
		FROM %s g
		LEFT JOIN %s gm ON gm.group_id = g.id
		LEFT JOIN roulette_users u ON u.id = gm.user_id
		ORDER BY g.id, u.name, u.id
	`, t.groups, t.members)

	rows, err := r.conn.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to query %s: %w", t.groups, err)
	}
	defer rows.Close()

	var result []groupRow
	for rows.Next() {
		var (
			groupID    int64
			customName string
			userID     *int64
			name       *string
			email      *string
		)
		if err := rows.Scan(&groupID, &customName, &userID, &name, &email); err != nil {
			return nil, fmt.Errorf("failed to scan %s: %w", t.groups, err)
		}
		if len(result) == 0 || result[len(result)-1].id != groupID {
			result = append(result, groupRow{id: groupID, customName: customName})
		}
		if userID != nil {
			last := &result[len(result)-1]
			last.members = append(last.members, roulette.User{
				ID:    roulette.UserID(*userID),
				Name:  *name,
				Email: *email,
			})
		}
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate %s: %w", t.groups, err)
	}
	return result, nil
}

func (r *GroupRepository) save(ctx context.Context, t groupTables, id int64, customName string, members []roulette.UserID) (int64, error) {
	err := r.conn.WithTx(ctx, DefaultTxOptions(), func(tx pgx.Tx) error {
		if id == 0 {
			query := fmt.Sprintf(`INSERT INTO %s (custom_name) VALUES ($1) RETURNING id`, t.groups)
			if err := tx.QueryRow(ctx, query, customName).Scan(&id); err != nil {
				return fmt.Errorf("failed to create group: %w", err)
			}
		} else {
			query := fmt.Sprintf(`UPDATE %s SET custom_name = $2 WHERE id = $1`, t.groups)
			tag, err := tx.Exec(ctx, query, id, customName)
			if err != nil {
				return fmt.Errorf("failed to update group: %w", err)
			}
			if tag.RowsAffected() == 0 {
				return shared.ErrGroupNotFound
			}
			if _, err := tx.Exec(ctx, fmt.Sprintf(`DELETE FROM %s WHERE group_id = $1`, t.members), id); err != nil {
				return fmt.Errorf("failed to clear group members: %w", err)
			}
		}

		if len(members) == 0 {
			return nil
		}
		query := fmt.Sprintf(`
			INSERT INTO %s (group_id, user_id)
			SELECT $1, unnest($2::bigint[])
			ON CONFLICT DO NOTHING
		`, t.members)
		if _, err := tx.Exec(ctx, query, id, toInt64s(members)); err != nil {
			if IsForeignKeyViolation(err) {
				return shared.ErrUserNotFound
			}
			return fmt.Errorf("failed to add group members: %w", err)
		}
		return nil
	})
	if err != nil {
		return 0, err
	}
	return id, nil
}

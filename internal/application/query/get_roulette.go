// Package query contains read operations (CQRS - Queries).
package query

import (
	"context"
	"fmt"
	"time"

	"github.com/coffee-roulette/roulette-hub/internal/domain/matching"
	"github.com/coffee-roulette/roulette-hub/internal/domain/roulette"
)

// ══════════════════════════════════════════════════════════════════════════════
// GET ROULETTE QUERY
// Возвращает раунд целиком: состояние, голоса и зафиксированные группы.
// Группы восстанавливаются из записей о парах, а не хранятся отдельно.
// ══════════════════════════════════════════════════════════════════════════════

// GetRouletteQuery содержит параметры запроса.
type GetRouletteQuery struct {
	RouletteID roulette.RouletteID
}

// RouletteDTO - раунд для отображения.
type RouletteDTO struct {
	ID               int64      `json:"id"`
	VoteDeadline     time.Time  `json:"vote_deadline"`
	CoffeeDeadline   time.Time  `json:"coffee_deadline"`
	MatchingsFoundOn *time.Time `json:"matchings_found_on,omitempty"`

	// State - VOTING, MATCH NOW, COFFEE или FINISHED.
	State string `json:"state"`

	// Remaining - "3 days until voting ends" и т.п.
	Remaining string `json:"remaining"`
}

// VoteDTO - голос участника.
type VoteDTO struct {
	UserID int64  `json:"user_id"`
	Name   string `json:"name"`
	Choice string `json:"choice"`
	Pretty string `json:"pretty"`
}

// UserDTO - участник внутри группы.
type UserDTO struct {
	ID   int64  `json:"id"`
	Name string `json:"name"`
}

// RouletteDetailsDTO - ответ GetRouletteQuery.
type RouletteDetailsDTO struct {
	Roulette RouletteDTO `json:"roulette"`
	Votes    []VoteDTO   `json:"votes"`

	// Groups пусты, пока пары не зафиксированы.
	Groups [][]UserDTO `json:"groups"`
}

// GetRouletteHandler обрабатывает GetRouletteQuery.
type GetRouletteHandler struct {
	roulettes roulette.RouletteRepository
	votes     roulette.VoteRepository
	matches   roulette.MatchRepository
	users     roulette.UserRepository
	now       func() time.Time
}

// NewGetRouletteHandler создаёт обработчик. now == nil означает time.Now.
func NewGetRouletteHandler(
	roulettes roulette.RouletteRepository,
	votes roulette.VoteRepository,
	matches roulette.MatchRepository,
	users roulette.UserRepository,
	now func() time.Time,
) *GetRouletteHandler {
	if now == nil {
		now = time.Now
	}
	return &GetRouletteHandler{
		roulettes: roulettes,
		votes:     votes,
		matches:   matches,
		users:     users,
		now:       now,
	}
}

// Handle выполняет запрос.
func (h *GetRouletteHandler) Handle(ctx context.Context, q GetRouletteQuery) (*RouletteDetailsDTO, error) {
	r, err := h.roulettes.GetByID(ctx, q.RouletteID)
	if err != nil {
		return nil, fmt.Errorf("get_roulette: %w", err)
	}

	votes, err := h.votes.ListByRoulette(ctx, r.ID)
	if err != nil {
		return nil, fmt.Errorf("get_roulette: failed to load votes: %w", err)
	}

	dto := &RouletteDetailsDTO{
		Roulette: toRouletteDTO(r, h.now()),
		Votes:    make([]VoteDTO, len(votes)),
		Groups:   [][]UserDTO{},
	}
	for i, v := range votes {
		dto.Votes[i] = VoteDTO{
			UserID: int64(v.User.ID),
			Name:   v.User.Name,
			Choice: string(v.Choice),
			Pretty: v.Choice.Pretty(),
		}
	}

	if !r.IsFinalized() {
		return dto, nil
	}

	records, err := h.matches.ByRoulette(ctx, r.ID)
	if err != nil {
		return nil, fmt.Errorf("get_roulette: failed to load matches: %w", err)
	}
	merged := matching.MergeMatches(records)

	var ids []roulette.UserID
	for _, g := range merged {
		ids = append(ids, g...)
	}
	users, err := h.users.GetByIDs(ctx, ids)
	if err != nil {
		return nil, fmt.Errorf("get_roulette: failed to load users: %w", err)
	}

	for _, g := range matching.ResolveGroups(merged, users) {
		group := make([]UserDTO, len(g))
		for i, u := range g {
			group[i] = UserDTO{ID: int64(u.ID), Name: u.Name}
		}
		dto.Groups = append(dto.Groups, group)
	}
	return dto, nil
}

func toRouletteDTO(r *roulette.Roulette, now time.Time) RouletteDTO {
	return RouletteDTO{
		ID:               int64(r.ID),
		VoteDeadline:     r.VoteDeadline,
		CoffeeDeadline:   r.CoffeeDeadline,
		MatchingsFoundOn: r.MatchingsFoundOn,
		State:            string(r.ShortState(now)),
		Remaining:        r.Remaining(now),
	}
}

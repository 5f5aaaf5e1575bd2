package command

import (
	"context"
	"fmt"

	"github.com/coffee-roulette/roulette-hub/internal/domain/roulette"
)

// ══════════════════════════════════════════════════════════════════════════════
// CAST VOTE COMMAND
// Sets a participant's choice. Rejected once matches are finalized.
// ══════════════════════════════════════════════════════════════════════════════

// CastVoteCommand contains the vote.
type CastVoteCommand struct {
	RouletteID roulette.RouletteID `validate:"gt=0"`
	UserID     roulette.UserID     `validate:"gt=0"`

	// Choice is "Y", "N" or "0" (case-insensitive, also yes/no).
	Choice string
}

// CastVoteHandler handles the CastVoteCommand.
type CastVoteHandler struct {
	votes roulette.VoteRepository
}

// NewCastVoteHandler creates a new CastVoteHandler.
func NewCastVoteHandler(votes roulette.VoteRepository) *CastVoteHandler {
	return &CastVoteHandler{votes: votes}
}

// Handle executes the cast vote command.
func (h *CastVoteHandler) Handle(ctx context.Context, cmd CastVoteCommand) (*roulette.Vote, error) {
	if err := validateStruct("vote", "Cast", cmd); err != nil {
		return nil, fmt.Errorf("cast_vote: validation failed: %w", err)
	}

	choice, err := roulette.ParseChoice(cmd.Choice)
	if err != nil {
		return nil, fmt.Errorf("cast_vote: %w", err)
	}

	if err := h.votes.SetChoice(ctx, cmd.RouletteID, cmd.UserID, choice); err != nil {
		return nil, fmt.Errorf("cast_vote: %w", err)
	}

	return &roulette.Vote{
		RouletteID: cmd.RouletteID,
		User:       roulette.User{ID: cmd.UserID},
		Choice:     choice,
	}, nil
}

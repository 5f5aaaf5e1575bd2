package command

import (
	"context"
	"fmt"

	"github.com/coffee-roulette/roulette-hub/internal/domain/roulette"
)

// ══════════════════════════════════════════════════════════════════════════════
// UPDATE PENALTIES COMMAND
// Changes the penalty weights used by the next matcher run.
// ══════════════════════════════════════════════════════════════════════════════

// UpdatePenaltiesCommand contains optional penalty updates.
// nil values mean "don't change".
type UpdatePenaltiesCommand struct {
	RecentMatch       *float64
	NumberOfMatches   *float64
	PenaltyGroup      *float64
	ForbiddenGrouping *float64
}

// UpdatePenaltiesHandler handles the UpdatePenaltiesCommand.
type UpdatePenaltiesHandler struct {
	penalties roulette.PenaltyRepository
}

// NewUpdatePenaltiesHandler creates a new UpdatePenaltiesHandler.
func NewUpdatePenaltiesHandler(penalties roulette.PenaltyRepository) *UpdatePenaltiesHandler {
	return &UpdatePenaltiesHandler{penalties: penalties}
}

// Handle applies the updates and saves all four values.
func (h *UpdatePenaltiesHandler) Handle(ctx context.Context, cmd UpdatePenaltiesCommand) (roulette.PenaltyConfig, error) {
	cfg, err := h.penalties.Get(ctx)
	if err != nil {
		return roulette.PenaltyConfig{}, fmt.Errorf("update_penalties: failed to load: %w", err)
	}

	apply := func(dst *float64, v *float64) {
		if v != nil {
			*dst = *v
		}
	}
	apply(&cfg.RecentMatch, cmd.RecentMatch)
	apply(&cfg.NumberOfMatches, cmd.NumberOfMatches)
	apply(&cfg.PenaltyGroup, cmd.PenaltyGroup)
	apply(&cfg.ForbiddenGrouping, cmd.ForbiddenGrouping)

	if err := cfg.Validate(); err != nil {
		return roulette.PenaltyConfig{}, fmt.Errorf("update_penalties: %w", err)
	}
	if err := h.penalties.Save(ctx, cfg); err != nil {
		return roulette.PenaltyConfig{}, fmt.Errorf("update_penalties: failed to save: %w", err)
	}
	return cfg, nil
}

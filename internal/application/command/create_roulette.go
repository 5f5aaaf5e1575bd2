package command

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/coffee-roulette/roulette-hub/internal/domain/roulette"
	"github.com/coffee-roulette/roulette-hub/internal/domain/shared"
)

// ══════════════════════════════════════════════════════════════════════════════
// CREATE ROULETTE COMMAND
// Opens a new round for voting. Every registered user gets a default vote.
// ══════════════════════════════════════════════════════════════════════════════

// CreateRouletteCommand contains the deadlines of the new round.
type CreateRouletteCommand struct {
	VoteDeadline   time.Time `validate:"required"`
	CoffeeDeadline time.Time `validate:"required"`

	// CorrelationID for tracing.
	CorrelationID string
}

// Validate validates the command.
func (c CreateRouletteCommand) Validate() error {
	if err := validateStruct("roulette", "Create", c); err != nil {
		return err
	}
	if !c.VoteDeadline.Before(c.CoffeeDeadline) {
		return shared.ErrInvalidDeadlines
	}
	return nil
}

// CreateRouletteResult contains the created round.
type CreateRouletteResult struct {
	Roulette *roulette.Roulette
}

// CreateRouletteHandler handles the CreateRouletteCommand.
type CreateRouletteHandler struct {
	roulettes      roulette.RouletteRepository
	eventPublisher shared.EventPublisher
	logger         *slog.Logger
}

// NewCreateRouletteHandler creates a new CreateRouletteHandler.
func NewCreateRouletteHandler(
	roulettes roulette.RouletteRepository,
	eventPublisher shared.EventPublisher,
	logger *slog.Logger,
) *CreateRouletteHandler {
	return &CreateRouletteHandler{
		roulettes:      roulettes,
		eventPublisher: eventPublisher,
		logger:         defaultLogger(logger),
	}
}

// Handle executes the create roulette command.
func (h *CreateRouletteHandler) Handle(ctx context.Context, cmd CreateRouletteCommand) (*CreateRouletteResult, error) {
	if err := cmd.Validate(); err != nil {
		return nil, fmt.Errorf("create_roulette: validation failed: %w", err)
	}

	r, err := roulette.NewRoulette(cmd.VoteDeadline, cmd.CoffeeDeadline)
	if err != nil {
		return nil, fmt.Errorf("create_roulette: %w", err)
	}

	if err := h.roulettes.Create(ctx, r); err != nil {
		return nil, fmt.Errorf("create_roulette: failed to save: %w", err)
	}

	event := shared.NewRouletteCreatedEvent(int64(r.ID), r.VoteDeadline, r.CoffeeDeadline)
	if cmd.CorrelationID != "" {
		event.BaseEvent = event.BaseEvent.WithCorrelationID(cmd.CorrelationID)
	}
	if h.eventPublisher != nil {
		if err := h.eventPublisher.Publish(event); err != nil {
			h.logger.Warn("failed to publish roulette created event", "roulette_id", r.ID, "error", err)
		}
	}

	h.logger.Info("roulette created",
		"roulette_id", r.ID,
		"vote_deadline", r.VoteDeadline,
		"coffee_deadline", r.CoffeeDeadline,
	)

	return &CreateRouletteResult{Roulette: r}, nil
}

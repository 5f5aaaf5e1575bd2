package command

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sort"

	"github.com/coffee-roulette/roulette-hub/internal/domain/roulette"
	"github.com/coffee-roulette/roulette-hub/internal/domain/shared"
)

// ══════════════════════════════════════════════════════════════════════════════
// FINALIZE ROULETTE COMMAND
// Commits a partition: one Match per pair inside each group, then the
// roulette is frozen. The notification event goes out only after commit.
// ══════════════════════════════════════════════════════════════════════════════

// FinalizeRouletteCommand contains the partition to commit.
type FinalizeRouletteCommand struct {
	RouletteID roulette.RouletteID `validate:"gt=0"`

	// Groups maps a group key to its members. Ignored when UseProposal is set.
	Groups map[string][]roulette.UserID

	// UseProposal commits the last generated proposal instead of Groups.
	UseProposal bool

	// CorrelationID for tracing.
	CorrelationID string
}

// FinalizeRouletteResult contains the committed partition.
type FinalizeRouletteResult struct {
	RouletteID roulette.RouletteID
	Groups     map[string][]roulette.UserID
	Pairs      int
}

// FinalizeRouletteHandler handles the FinalizeRouletteCommand.
type FinalizeRouletteHandler struct {
	roulettes      roulette.RouletteRepository
	proposals      roulette.ProposalRepository
	eventPublisher shared.EventPublisher
	metrics        MatchingMetrics
	clock          Clock
	logger         *slog.Logger
}

// NewFinalizeRouletteHandler creates a new FinalizeRouletteHandler.
// proposals may be nil when no proposal store is configured.
func NewFinalizeRouletteHandler(
	roulettes roulette.RouletteRepository,
	proposals roulette.ProposalRepository,
	eventPublisher shared.EventPublisher,
	metrics MatchingMetrics,
	clock Clock,
	logger *slog.Logger,
) *FinalizeRouletteHandler {
	return &FinalizeRouletteHandler{
		roulettes:      roulettes,
		proposals:      proposals,
		eventPublisher: eventPublisher,
		metrics:        metricsOrNoop(metrics),
		clock:          defaultClock(clock),
		logger:         defaultLogger(logger),
	}
}

// Handle executes the finalize roulette command.
func (h *FinalizeRouletteHandler) Handle(ctx context.Context, cmd FinalizeRouletteCommand) (*FinalizeRouletteResult, error) {
	if err := validateStruct("roulette", "Finalize", cmd); err != nil {
		h.metrics.Finalize(OutcomeInvalid)
		return nil, fmt.Errorf("finalize_roulette: validation failed: %w", err)
	}

	groups, err := h.resolveGroups(ctx, cmd)
	if err != nil {
		h.metrics.Finalize(outcomeOf(err))
		return nil, fmt.Errorf("finalize_roulette: %w", err)
	}

	keys := sortedKeys(groups)
	ordered := make([][]roulette.UserID, len(keys))
	for i, k := range keys {
		ordered[i] = groups[k]
	}

	if err := roulette.ValidateGroups(ordered); err != nil {
		h.metrics.Finalize(OutcomeInvalid)
		return nil, fmt.Errorf("finalize_roulette: %w", err)
	}

	r, err := h.roulettes.GetByID(ctx, cmd.RouletteID)
	if err != nil {
		h.metrics.Finalize(outcomeOf(err))
		return nil, fmt.Errorf("finalize_roulette: %w", err)
	}

	now := h.clock()
	err = h.roulettes.FinalizeMatches(ctx, roulette.FinalizeRequest{
		RouletteID: r.ID,
		Groups:     ordered,
		At:         now,
	})
	if err != nil {
		h.metrics.Finalize(outcomeOf(err))
		return nil, fmt.Errorf("finalize_roulette: %w", err)
	}
	h.metrics.Finalize(OutcomeCommitted)

	pairs := 0
	for _, g := range ordered {
		pairs += len(g) * (len(g) - 1) / 2
	}

	h.logger.Info("matches finalized",
		"roulette_id", r.ID,
		"groups", len(ordered),
		"pairs", pairs,
	)

	// Everything below runs after commit and must not fail the command.
	h.publishFinalized(r, groups, cmd.CorrelationID)
	if h.proposals != nil {
		if err := h.proposals.Delete(ctx, r.ID); err != nil {
			h.logger.Warn("failed to drop proposal", "roulette_id", r.ID, "error", err)
		}
	}

	return &FinalizeRouletteResult{RouletteID: r.ID, Groups: groups, Pairs: pairs}, nil
}

func (h *FinalizeRouletteHandler) resolveGroups(ctx context.Context, cmd FinalizeRouletteCommand) (map[string][]roulette.UserID, error) {
	if !cmd.UseProposal {
		if len(cmd.Groups) == 0 {
			return nil, shared.ErrEmptySubmission
		}
		return cmd.Groups, nil
	}

	if h.proposals == nil {
		return nil, shared.ErrProposalNotFound
	}
	p, err := h.proposals.Get(ctx, cmd.RouletteID)
	if err != nil {
		return nil, err
	}
	groups := make(map[string][]roulette.UserID, len(p.Groups))
	for _, g := range p.Groups {
		groups[g.Key] = g.Members
	}
	return groups, nil
}

func (h *FinalizeRouletteHandler) publishFinalized(r *roulette.Roulette, groups map[string][]roulette.UserID, correlationID string) {
	if h.eventPublisher == nil {
		return
	}

	payload := make(map[string][]int64, len(groups))
	for k, members := range groups {
		ids := make([]int64, len(members))
		for i, id := range members {
			ids[i] = int64(id)
		}
		payload[k] = ids
	}

	event := shared.NewMatchingsFinalizedEvent(int64(r.ID), r.CoffeeDeadline, payload)
	if correlationID != "" {
		event.BaseEvent = event.BaseEvent.WithCorrelationID(correlationID)
	}
	if err := h.eventPublisher.Publish(event); err != nil {
		h.logger.Error("failed to publish matchings finalized event",
			"roulette_id", r.ID,
			"error", err,
		)
	}
}

func outcomeOf(err error) string {
	switch {
	case errors.Is(err, shared.ErrRouletteAlreadyFinalized):
		return OutcomeAlreadyFinalized
	case errors.Is(err, shared.ErrVotingNotFinished):
		return OutcomeVotingOpen
	case shared.IsValidation(err), shared.IsNotFound(err):
		return OutcomeInvalid
	default:
		return OutcomeError
	}
}

func sortedKeys(groups map[string][]roulette.UserID) []string {
	keys := make([]string, 0, len(groups))
	for k := range groups {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

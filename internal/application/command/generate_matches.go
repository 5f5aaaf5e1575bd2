package command

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/coffee-roulette/roulette-hub/internal/domain/matching"
	"github.com/coffee-roulette/roulette-hub/internal/domain/roulette"
	"github.com/coffee-roulette/roulette-hub/internal/domain/shared"
)

// ══════════════════════════════════════════════════════════════════════════════
// GENERATE MATCHES COMMAND
// Runs the matcher for a closed roulette and returns a colored proposal.
// Nothing is persisted except the proposal cache.
// ══════════════════════════════════════════════════════════════════════════════

// GenerateMatchesCommand selects the roulette to match.
type GenerateMatchesCommand struct {
	RouletteID roulette.RouletteID `validate:"gt=0"`
}

// ProposedGroup is one group of the proposal with its quality.
type ProposedGroup struct {
	Key     string
	Members []roulette.User
	Quality matching.MatchQuality
}

// GenerateMatchesResult contains the proposal.
type GenerateMatchesResult struct {
	Roulette     *roulette.Roulette
	Groups       []ProposedGroup
	TotalPenalty float64
	Iterations   int
	Duration     time.Duration

	// Cached is false when the proposal store is disabled or failed.
	Cached bool
}

// GenerateMatchesDeps groups the repositories the handler reads from.
type GenerateMatchesDeps struct {
	Roulettes roulette.RouletteRepository
	Votes     roulette.VoteRepository
	Matches   roulette.MatchRepository
	Groups    roulette.GroupRepository
	Penalties roulette.PenaltyRepository

	// Proposals is optional.
	Proposals roulette.ProposalRepository
}

// GenerateMatchesHandler handles the GenerateMatchesCommand.
type GenerateMatchesHandler struct {
	deps       GenerateMatchesDeps
	matcher    *matching.Matcher
	thresholds matching.Thresholds
	metrics    MatchingMetrics
	clock      Clock
	logger     *slog.Logger
}

// NewGenerateMatchesHandler creates a new GenerateMatchesHandler.
func NewGenerateMatchesHandler(
	deps GenerateMatchesDeps,
	matcher *matching.Matcher,
	thresholds matching.Thresholds,
	metrics MatchingMetrics,
	clock Clock,
	logger *slog.Logger,
) *GenerateMatchesHandler {
	return &GenerateMatchesHandler{
		deps:       deps,
		matcher:    matcher,
		thresholds: thresholds,
		metrics:    metricsOrNoop(metrics),
		clock:      defaultClock(clock),
		logger:     defaultLogger(logger),
	}
}

// Handle executes the generate matches command.
func (h *GenerateMatchesHandler) Handle(ctx context.Context, cmd GenerateMatchesCommand) (*GenerateMatchesResult, error) {
	if err := validateStruct("matching", "Generate", cmd); err != nil {
		return nil, fmt.Errorf("generate_matches: validation failed: %w", err)
	}

	r, err := h.deps.Roulettes.GetByID(ctx, cmd.RouletteID)
	if err != nil {
		return nil, fmt.Errorf("generate_matches: %w", err)
	}

	now := h.clock()
	if !r.CanGenerateMatches(now) {
		if r.IsFinalized() {
			return nil, fmt.Errorf("generate_matches: %w", shared.ErrRouletteAlreadyFinalized)
		}
		return nil, fmt.Errorf("generate_matches: %w", shared.ErrVotingNotFinished)
	}

	input, err := h.loadGraphInput(ctx, r.ID, now)
	if err != nil {
		return nil, fmt.Errorf("generate_matches: %w", err)
	}

	graph, err := matching.BuildGraph(input)
	if err != nil {
		return nil, fmt.Errorf("generate_matches: failed to build graph: %w", err)
	}

	started := time.Now()
	best := h.matcher.Generate(ctx, graph, input.Config.ForbiddenGrouping)
	elapsed := time.Since(started)
	h.metrics.MatcherRun(elapsed, best.Iterations, graph.Len(), best.TotalPenalty)

	qualities, err := matching.Evaluate(graph, best.Groups, input.Config.ForbiddenGrouping, h.thresholds)
	if err != nil {
		return nil, fmt.Errorf("generate_matches: failed to evaluate quality: %w", err)
	}

	result := &GenerateMatchesResult{
		Roulette:     r,
		Groups:       make([]ProposedGroup, len(best.Groups)),
		TotalPenalty: best.TotalPenalty,
		Iterations:   best.Iterations,
		Duration:     elapsed,
	}
	for i, members := range best.Groups {
		result.Groups[i] = ProposedGroup{
			Key:     uuid.NewString(),
			Members: members,
			Quality: qualities[i],
		}
		h.metrics.GroupColor(qualities[i].Color.String())
	}

	result.Cached = h.cacheProposal(ctx, r.ID, result, now)

	h.logger.Info("matches generated",
		"roulette_id", r.ID,
		"participants", graph.Len(),
		"groups", len(result.Groups),
		"total_penalty", best.TotalPenalty,
		"iterations", best.Iterations,
		"duration", elapsed,
	)

	return result, nil
}

func (h *GenerateMatchesHandler) loadGraphInput(ctx context.Context, id roulette.RouletteID, now time.Time) (matching.GraphInput, error) {
	users, err := h.deps.Votes.ParticipatingUsers(ctx, id)
	if err != nil {
		return matching.GraphInput{}, fmt.Errorf("failed to load participants: %w", err)
	}
	cfg, err := h.deps.Penalties.Get(ctx)
	if err != nil {
		return matching.GraphInput{}, fmt.Errorf("failed to load penalties: %w", err)
	}
	history, err := h.deps.Matches.History(ctx)
	if err != nil {
		return matching.GraphInput{}, fmt.Errorf("failed to load history: %w", err)
	}
	last, err := h.deps.Roulettes.LastCompleted(ctx)
	if err != nil {
		return matching.GraphInput{}, fmt.Errorf("failed to load last round: %w", err)
	}
	exclusions, err := h.deps.Groups.ExclusionGroups(ctx)
	if err != nil {
		return matching.GraphInput{}, fmt.Errorf("failed to load exclusion groups: %w", err)
	}
	penaltyGroups, err := h.deps.Groups.PenaltyGroups(ctx)
	if err != nil {
		return matching.GraphInput{}, fmt.Errorf("failed to load penalty groups: %w", err)
	}

	input := matching.GraphInput{
		Users:           users,
		Config:          cfg,
		History:         history,
		ExclusionGroups: exclusions,
		PenaltyGroups:   penaltyGroups,
		Now:             now,
	}
	if last != nil {
		input.LastRoundID = last.ID
	}
	return input, nil
}

// cacheProposal stores the proposal so finalize can commit it later.
// A cache failure never fails generation.
func (h *GenerateMatchesHandler) cacheProposal(ctx context.Context, id roulette.RouletteID, res *GenerateMatchesResult, now time.Time) bool {
	if h.deps.Proposals == nil {
		return false
	}

	p := &roulette.Proposal{
		RouletteID:   id,
		Groups:       make([]roulette.ProposalGroup, len(res.Groups)),
		TotalPenalty: res.TotalPenalty,
		Iterations:   res.Iterations,
		GeneratedAt:  now,
	}
	for i, g := range res.Groups {
		p.Groups[i] = roulette.ProposalGroup{Key: g.Key, Members: memberIDs(g.Members)}
	}

	if err := h.deps.Proposals.Save(ctx, p); err != nil {
		h.logger.Warn("failed to cache proposal", "roulette_id", id, "error", err)
		return false
	}
	return true
}

func memberIDs(users []roulette.User) []roulette.UserID {
	ids := make([]roulette.UserID, len(users))
	for i, u := range users {
		ids[i] = u.ID
	}
	return ids
}

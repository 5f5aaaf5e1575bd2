package main

import (
	"context"
	"log/slog"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/coffee-roulette/roulette-hub/config"
	"github.com/coffee-roulette/roulette-hub/internal/app"
	"github.com/coffee-roulette/roulette-hub/internal/application/command"
	"github.com/coffee-roulette/roulette-hub/internal/application/query"
	"github.com/coffee-roulette/roulette-hub/internal/domain/matching"
	"github.com/coffee-roulette/roulette-hub/internal/infrastructure/metrics"
	"github.com/coffee-roulette/roulette-hub/pkg/logger"
)

// cliApp holds the handlers one CLI invocation may use.
type cliApp struct {
	cfg   *config.Config
	infra *app.Infra
	log   *slog.Logger

	registerUser    *command.RegisterUserHandler
	createRoulette  *command.CreateRouletteHandler
	castVote        *command.CastVoteHandler
	updatePenalties *command.UpdatePenaltiesHandler
	generateMatches *command.GenerateMatchesHandler
	finalize        *command.FinalizeRouletteHandler

	getRoulette *query.GetRouletteHandler
	listCurrent *query.ListCurrentRoulettesHandler
}

func newCLIApp(ctx context.Context, cfg *config.Config) (*cliApp, error) {
	log := logger.Slog().With("service", "cli")

	infra, err := app.Open(ctx, cfg, log)
	if err != nil {
		return nil, err
	}

	now := time.Now
	recorder := metrics.Recorder{}
	matcher := matching.NewMatcher(cfg.Matcher.Timeout())
	thresholds := matching.Thresholds{
		GreenPercentile:  cfg.Matcher.GreenPercentile,
		YellowPercentile: cfg.Matcher.YellowPercentile,
	}

	return &cliApp{
		cfg:   cfg,
		infra: infra,
		log:   log,

		registerUser:    command.NewRegisterUserHandler(infra.Users, infra.Bus, log),
		createRoulette:  command.NewCreateRouletteHandler(infra.Roulettes, infra.Bus, log),
		castVote:        command.NewCastVoteHandler(infra.Votes),
		updatePenalties: command.NewUpdatePenaltiesHandler(infra.Penalties),
		generateMatches: command.NewGenerateMatchesHandler(command.GenerateMatchesDeps{
			Roulettes: infra.Roulettes,
			Votes:     infra.Votes,
			Matches:   infra.Matches,
			Groups:    infra.Groups,
			Penalties: infra.Penalties,
			Proposals: infra.Proposals,
		}, matcher, thresholds, recorder, now, log),
		finalize: command.NewFinalizeRouletteHandler(infra.Roulettes, infra.Proposals, infra.Bus, recorder, now, log),

		getRoulette: query.NewGetRouletteHandler(infra.Roulettes, infra.Votes, infra.Matches, infra.Users, now),
		listCurrent: query.NewListCurrentRoulettesHandler(infra.Roulettes, now),
	}, nil
}

// Close pushes this run's metrics, then releases connections.
func (a *cliApp) Close() {
	a.pushMetrics()
	if err := a.infra.Close(); err != nil {
		a.log.Warn("close failed", "error", err)
	}
}

func (a *cliApp) pushMetrics() {
	obs := a.cfg.Observability
	if obs.PushgatewayURL == "" {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), obs.PushTimeout)
	defer cancel()
	if err := metrics.Push(ctx, prometheus.DefaultGatherer, obs.PushgatewayURL, obs.PushJob); err != nil {
		a.log.Warn("metrics push failed", "error", err)
	}
}

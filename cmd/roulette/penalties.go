package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/coffee-roulette/roulette-hub/internal/application/command"
	"github.com/coffee-roulette/roulette-hub/internal/domain/roulette"
)

var penaltiesCmd = &cobra.Command{
	Use:   "penalties",
	Short: "Show or change matcher penalty weights",
}

var penaltiesGetCmd = &cobra.Command{
	Use:   "get",
	Short: "Show the current penalty weights",
	Args:  cobra.NoArgs,
	RunE:  runWithApp(runPenaltiesGet),
}

var penaltiesSetCmd = &cobra.Command{
	Use:   "set",
	Short: "Change penalty weights; omitted flags keep their value",
	Args:  cobra.NoArgs,
	RunE:  runWithApp(runPenaltiesSet),
}

var (
	penRecentMatch     float64
	penNumberOfMatches float64
	penPenaltyGroup    float64
	penForbidden       float64
)

func init() {
	rootCmd.AddCommand(penaltiesCmd)
	penaltiesCmd.AddCommand(penaltiesGetCmd, penaltiesSetCmd)

	f := penaltiesSetCmd.Flags()
	f.Float64Var(&penRecentMatch, "recent-match", 0, "Penalty for a recent match, decays linearly over a year")
	f.Float64Var(&penNumberOfMatches, "number-of-matches", 0, "Penalty per past match of the pair")
	f.Float64Var(&penPenaltyGroup, "penalty-group", 0, "Penalty per shared penalty group")
	f.Float64Var(&penForbidden, "forbidden", 0, "Penalty per member without an edge in the group")
}

func runPenaltiesGet(ctx context.Context, a *cliApp, cmd *cobra.Command, _ []string) error {
	cfg, err := a.infra.Penalties.Get(ctx)
	if err != nil {
		return err
	}
	return printPenalties(cmd, cfg)
}

func runPenaltiesSet(ctx context.Context, a *cliApp, cmd *cobra.Command, _ []string) error {
	var upd command.UpdatePenaltiesCommand
	flags := cmd.Flags()
	if flags.Changed("recent-match") {
		upd.RecentMatch = &penRecentMatch
	}
	if flags.Changed("number-of-matches") {
		upd.NumberOfMatches = &penNumberOfMatches
	}
	if flags.Changed("penalty-group") {
		upd.PenaltyGroup = &penPenaltyGroup
	}
	if flags.Changed("forbidden") {
		upd.ForbiddenGrouping = &penForbidden
	}

	cfg, err := a.updatePenalties.Handle(ctx, upd)
	if err != nil {
		return err
	}
	return printPenalties(cmd, cfg)
}

func printPenalties(cmd *cobra.Command, cfg roulette.PenaltyConfig) error {
	if jsonOutput {
		return printJSON(cmd, cfg.AsSettings())
	}
	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "%-28s %g\n", roulette.SettingRecentMatch, cfg.RecentMatch)
	fmt.Fprintf(out, "%-28s %g\n", roulette.SettingNumberOfMatches, cfg.NumberOfMatches)
	fmt.Fprintf(out, "%-28s %g\n", roulette.SettingPenaltyGroup, cfg.PenaltyGroup)
	fmt.Fprintf(out, "%-28s %g\n", roulette.SettingForbiddenGrouping, cfg.ForbiddenGrouping)
	return nil
}

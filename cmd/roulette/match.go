package main

import (
	"context"
	"fmt"
	"io"
	"sort"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/coffee-roulette/roulette-hub/internal/application/command"
	"github.com/coffee-roulette/roulette-hub/internal/domain/matching"
	"github.com/coffee-roulette/roulette-hub/internal/domain/roulette"
)

var matchCmd = &cobra.Command{
	Use:   "match <roulette-id>",
	Short: "Generate a proposed grouping for a closed round",
	Long: `Run the matcher for a round whose voting deadline has passed and print
the proposed groups with their quality colors. Nothing is committed; the
proposal is cached so "finalize --proposal" can accept it.`,
	Args: cobra.ExactArgs(1),
	RunE: runWithApp(runMatch),
}

var finalizeCmd = &cobra.Command{
	Use:   "finalize <roulette-id>",
	Short: "Commit the groups of a round and notify participants",
	Long: `Commit a grouping. Either accept the cached proposal from "match", or
pass every group explicitly:

  roulette finalize 3 --proposal
  roulette finalize 3 --group a=1,4 --group b=2,3,5`,
	Args: cobra.ExactArgs(1),
	RunE: runWithApp(runFinalize),
}

var (
	finalizeProposal bool
	finalizeGroups   []string
)

func init() {
	rootCmd.AddCommand(matchCmd, finalizeCmd)

	finalizeCmd.Flags().BoolVar(&finalizeProposal, "proposal", false, "Accept the cached proposal")
	finalizeCmd.Flags().StringArrayVar(&finalizeGroups, "group", nil, "Group as key=id,id,... (repeatable)")
	finalizeCmd.MarkFlagsMutuallyExclusive("proposal", "group")
	finalizeCmd.MarkFlagsOneRequired("proposal", "group")
}

func runMatch(ctx context.Context, a *cliApp, cmd *cobra.Command, args []string) error {
	id, err := parseRouletteID(args[0])
	if err != nil {
		return err
	}

	res, err := a.generateMatches.Handle(ctx, command.GenerateMatchesCommand{RouletteID: id})
	if err != nil {
		return err
	}
	if jsonOutput {
		return printJSON(cmd, res)
	}

	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "Roulette %d: %d group(s), total penalty %.2f, %d iterations in %s\n",
		id, len(res.Groups), res.TotalPenalty, res.Iterations, res.Duration.Round(time.Millisecond))
	for _, g := range res.Groups {
		printProposedGroup(out, g)
	}
	if !res.Cached {
		fmt.Fprintln(out, "\nproposal was not cached; finalize with --group")
	}
	return nil
}

func printProposedGroup(out io.Writer, g command.ProposedGroup) {
	names := make([]string, len(g.Members))
	ids := make([]string, len(g.Members))
	for i, u := range g.Members {
		names[i] = u.Name
		ids[i] = fmt.Sprint(u.ID)
	}
	fmt.Fprintf(out, "\n[%s] %s  (--group %s=%s)\n", g.Quality.Color, strings.Join(names, ", "), g.Key, strings.Join(ids, ","))
	if len(g.Quality.Pairs) > 0 {
		fmt.Fprintf(out, "    %d user(s) in %d pair(s), group penalty %.2f\n",
			g.Quality.UsersInGroup(), len(g.Quality.Pairs), g.Quality.TotalPenalty())
	}

	for _, p := range g.Quality.Pairs {
		fmt.Fprintf(out, "    %-6s %s - %s: %s\n", p.Color, p.UserA.Name, p.UserB.Name, describePenalty(p.Penalty))
	}
}

func describePenalty(p matching.PenaltyInfo) string {
	if p.IsForbidden {
		return fmt.Sprintf("forbidden (%.2f)", p.ForbiddenPenalty)
	}
	var parts []string
	if p.PenaltyGroupCount > 0 {
		parts = append(parts, fmt.Sprintf("%d shared group(s) %.2f", p.PenaltyGroupCount, p.PenaltyGroupPenalty))
	}
	if p.NumberOfMatches > 0 {
		parts = append(parts, fmt.Sprintf("met %d time(s) %.2f", p.NumberOfMatches, p.NumberOfMatchesPenalty))
	}
	for _, r := range p.RecentMatches {
		parts = append(parts, fmt.Sprintf("%d days ago %.2f", r.DaysAgo, r.Penalty))
	}
	if len(parts) == 0 {
		return "no penalty"
	}
	return fmt.Sprintf("%.2f = %s", p.TotalPenalty(), strings.Join(parts, " + "))
}

func runFinalize(ctx context.Context, a *cliApp, cmd *cobra.Command, args []string) error {
	id, err := parseRouletteID(args[0])
	if err != nil {
		return err
	}

	c := command.FinalizeRouletteCommand{RouletteID: id, UseProposal: finalizeProposal}
	if !finalizeProposal {
		c.Groups, err = parseGroups(finalizeGroups)
		if err != nil {
			return err
		}
	}

	res, err := a.finalize.Handle(ctx, c)
	if err != nil {
		return err
	}
	if jsonOutput {
		return printJSON(cmd, res)
	}
	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "finalized roulette %d: %d group(s), %d pair(s)\n", res.RouletteID, len(res.Groups), res.Pairs)
	for _, k := range sortedGroupKeys(res.Groups) {
		fmt.Fprintf(out, "  %s: %v\n", k, res.Groups[k])
	}
	return nil
}

// parseGroups reads "key=1,2,3" values. Duplicate keys are rejected; a user
// listed twice is left for the finalize validation to report.
func parseGroups(values []string) (map[string][]roulette.UserID, error) {
	groups := make(map[string][]roulette.UserID, len(values))
	for _, v := range values {
		key, list, ok := strings.Cut(v, "=")
		key = strings.TrimSpace(key)
		if !ok || key == "" || strings.TrimSpace(list) == "" {
			return nil, fmt.Errorf("invalid --group %q: expected key=id,id,...", v)
		}
		if _, dup := groups[key]; dup {
			return nil, fmt.Errorf("group key %q given twice", key)
		}

		var members []roulette.UserID
		for _, s := range strings.Split(list, ",") {
			id, err := parseUserID(s)
			if err != nil {
				return nil, fmt.Errorf("group %q: %w", key, err)
			}
			members = append(members, id)
		}
		groups[key] = members
	}
	return groups, nil
}

func sortedGroupKeys(groups map[string][]roulette.UserID) []string {
	keys := make([]string, 0, len(groups))
	for k := range groups {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

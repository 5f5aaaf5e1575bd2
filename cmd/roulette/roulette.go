package main

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/coffee-roulette/roulette-hub/internal/application/command"
	"github.com/coffee-roulette/roulette-hub/internal/application/query"
	"github.com/coffee-roulette/roulette-hub/internal/domain/roulette"
	"github.com/coffee-roulette/roulette-hub/pkg/timeutil"
)

var rouletteCmd = &cobra.Command{
	Use:   "roulette",
	Short: "Manage roulette rounds",
}

var rouletteCreateCmd = &cobra.Command{
	Use:   "create",
	Short: "Open a new round for voting",
	Long: `Open a new round. Deadlines are read in the configured timezone as
"YYYY-MM-DD HH:MM" or as RFC3339. The worker announces the round.`,
	Args: cobra.NoArgs,
	RunE: runWithApp(runRouletteCreate),
}

var rouletteListCmd = &cobra.Command{
	Use:   "list",
	Short: "List rounds whose coffee deadline has not passed",
	Args:  cobra.NoArgs,
	RunE:  runWithApp(runRouletteList),
}

var rouletteShowCmd = &cobra.Command{
	Use:   "show <roulette-id>",
	Short: "Show state, votes and finalized groups of a round",
	Args:  cobra.ExactArgs(1),
	RunE:  runWithApp(runRouletteShow),
}

var (
	voteDeadline   string
	coffeeDeadline string
)

func init() {
	rootCmd.AddCommand(rouletteCmd)
	rouletteCmd.AddCommand(rouletteCreateCmd, rouletteListCmd, rouletteShowCmd)

	rouletteCreateCmd.Flags().StringVar(&voteDeadline, "vote", "", "Voting deadline")
	rouletteCreateCmd.Flags().StringVar(&coffeeDeadline, "coffee", "", "Coffee deadline")
	_ = rouletteCreateCmd.MarkFlagRequired("vote")
	_ = rouletteCreateCmd.MarkFlagRequired("coffee")
}

func runRouletteCreate(ctx context.Context, a *cliApp, cmd *cobra.Command, _ []string) error {
	vote, err := timeutil.ParseIn(voteDeadline, a.cfg.App.Location)
	if err != nil {
		return fmt.Errorf("--vote: %w", err)
	}
	coffee, err := timeutil.ParseIn(coffeeDeadline, a.cfg.App.Location)
	if err != nil {
		return fmt.Errorf("--coffee: %w", err)
	}

	res, err := a.createRoulette.Handle(ctx, command.CreateRouletteCommand{
		VoteDeadline:   vote,
		CoffeeDeadline: coffee,
	})
	if err != nil {
		return err
	}
	if jsonOutput {
		return printJSON(cmd, res.Roulette)
	}
	fmt.Fprintf(cmd.OutOrStdout(), "created roulette %d: voting until %s, coffee until %s\n",
		res.Roulette.ID,
		timeutil.FormatIn(res.Roulette.VoteDeadline, a.cfg.App.Location),
		timeutil.FormatIn(res.Roulette.CoffeeDeadline, a.cfg.App.Location),
	)
	return nil
}

func runRouletteList(ctx context.Context, a *cliApp, cmd *cobra.Command, _ []string) error {
	list, err := a.listCurrent.Handle(ctx)
	if err != nil {
		return err
	}
	if jsonOutput {
		return printJSON(cmd, list)
	}

	w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tSTATE\tVOTE DEADLINE\tCOFFEE DEADLINE\tREMAINING")
	for _, r := range list {
		fmt.Fprintf(w, "%d\t%s\t%s\t%s\t%s\n", r.ID, r.State,
			timeutil.FormatIn(r.VoteDeadline, a.cfg.App.Location),
			timeutil.FormatIn(r.CoffeeDeadline, a.cfg.App.Location),
			r.Remaining,
		)
	}
	return w.Flush()
}

func runRouletteShow(ctx context.Context, a *cliApp, cmd *cobra.Command, args []string) error {
	id, err := parseRouletteID(args[0])
	if err != nil {
		return err
	}

	details, err := a.getRoulette.Handle(ctx, query.GetRouletteQuery{RouletteID: id})
	if err != nil {
		return err
	}
	if jsonOutput {
		return printJSON(cmd, details)
	}

	out := cmd.OutOrStdout()
	r := details.Roulette
	fmt.Fprintf(out, "Roulette %d  [%s]  %s\n", r.ID, r.State, r.Remaining)
	fmt.Fprintf(out, "  voting until  %s\n", timeutil.FormatIn(r.VoteDeadline, a.cfg.App.Location))
	fmt.Fprintf(out, "  coffee until  %s\n", timeutil.FormatIn(r.CoffeeDeadline, a.cfg.App.Location))

	fmt.Fprintln(out, "\nVotes:")
	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	for _, v := range details.Votes {
		fmt.Fprintf(w, "  %d\t%s\t%s\n", v.UserID, v.Name, v.Pretty)
	}
	if err := w.Flush(); err != nil {
		return err
	}

	if len(details.Groups) > 0 {
		fmt.Fprintln(out, "\nGroups:")
		for i, g := range details.Groups {
			names := make([]string, len(g))
			for j, u := range g {
				names[j] = u.Name
			}
			fmt.Fprintf(out, "  %d. %s\n", i+1, strings.Join(names, ", "))
		}
	}
	return nil
}

func parseRouletteID(s string) (roulette.RouletteID, error) {
	id, err := strconv.ParseInt(s, 10, 64)
	if err != nil || id <= 0 {
		return 0, fmt.Errorf("invalid roulette id %q", s)
	}
	return roulette.RouletteID(id), nil
}

func parseUserID(s string) (roulette.UserID, error) {
	id, err := strconv.ParseInt(strings.TrimSpace(s), 10, 64)
	if err != nil || id <= 0 {
		return 0, fmt.Errorf("invalid user id %q", s)
	}
	return roulette.UserID(id), nil
}

package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/coffee-roulette/roulette-hub/internal/application/command"
)

var voteCmd = &cobra.Command{
	Use:   "vote <roulette-id> <user-id> <yes|no|none>",
	Short: "Set a participant's vote",
	Long: `Set a participant's vote. Accepted choices: y, yes, n, no, 0, none.
Votes are locked once the round is finalized.`,
	Args: cobra.ExactArgs(3),
	RunE: runWithApp(runVote),
}

func init() {
	rootCmd.AddCommand(voteCmd)
}

func runVote(ctx context.Context, a *cliApp, cmd *cobra.Command, args []string) error {
	rid, err := parseRouletteID(args[0])
	if err != nil {
		return err
	}
	uid, err := parseUserID(args[1])
	if err != nil {
		return err
	}

	vote, err := a.castVote.Handle(ctx, command.CastVoteCommand{RouletteID: rid, UserID: uid, Choice: args[2]})
	if err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "user %d in roulette %d: %s\n", uid, rid, vote.Choice.Pretty())
	return nil
}

package main

import (
	"context"
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/coffee-roulette/roulette-hub/internal/application/command"
)

var userCmd = &cobra.Command{
	Use:   "user",
	Short: "Manage participants",
}

var userAddCmd = &cobra.Command{
	Use:   "add <name> <email>",
	Short: "Register a participant",
	Long: `Register a participant. The new user gets an empty vote in every
roulette that has not been finalized yet.`,
	Args: cobra.ExactArgs(2),
	RunE: runWithApp(runUserAdd),
}

var userListCmd = &cobra.Command{
	Use:   "list",
	Short: "List participants",
	Args:  cobra.NoArgs,
	RunE:  runWithApp(runUserList),
}

func init() {
	rootCmd.AddCommand(userCmd)
	userCmd.AddCommand(userAddCmd, userListCmd)
}

func runUserAdd(ctx context.Context, a *cliApp, cmd *cobra.Command, args []string) error {
	user, err := a.registerUser.Handle(ctx, command.RegisterUserCommand{Name: args[0], Email: args[1]})
	if err != nil {
		return err
	}
	if jsonOutput {
		return printJSON(cmd, user)
	}
	fmt.Fprintf(cmd.OutOrStdout(), "registered user %d: %s <%s>\n", user.ID, user.Name, user.Email)
	return nil
}

func runUserList(ctx context.Context, a *cliApp, cmd *cobra.Command, _ []string) error {
	users, err := a.infra.Users.List(ctx)
	if err != nil {
		return err
	}
	if jsonOutput {
		return printJSON(cmd, users)
	}

	w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tNAME\tEMAIL")
	for _, u := range users {
		fmt.Fprintf(w, "%d\t%s\t%s\n", u.ID, u.Name, u.Email)
	}
	return w.Flush()
}

package main

import (
	"context"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/coffee-roulette/roulette-hub/internal/domain/roulette"
)

var groupCmd = &cobra.Command{
	Use:   "group",
	Short: "Manage exclusion and penalty groups",
	Long: `Exclusion groups: members are never paired with each other if avoidable.
Penalty groups: pairing members is allowed but costs the penalty-group weight
once per shared group.`,
}

var groupListCmd = &cobra.Command{
	Use:   "list",
	Short: "List exclusion and penalty groups",
	Args:  cobra.NoArgs,
	RunE:  runWithApp(runGroupList),
}

var groupAddCmd = &cobra.Command{
	Use:   "add <exclusion|penalty> <user-id,user-id,...>",
	Short: "Create a group",
	Args:  cobra.ExactArgs(2),
	RunE:  runWithApp(runGroupAdd),
}

var groupName string

func init() {
	rootCmd.AddCommand(groupCmd)
	groupCmd.AddCommand(groupListCmd, groupAddCmd)
	groupAddCmd.Flags().StringVar(&groupName, "name", "", "Custom group name (default: member names)")
}

func runGroupList(ctx context.Context, a *cliApp, cmd *cobra.Command, _ []string) error {
	exclusions, err := a.infra.Groups.ExclusionGroups(ctx)
	if err != nil {
		return err
	}
	penalties, err := a.infra.Groups.PenaltyGroups(ctx)
	if err != nil {
		return err
	}
	if jsonOutput {
		return printJSON(cmd, map[string]interface{}{
			"exclusion_groups": exclusions,
			"penalty_groups":   penalties,
		})
	}

	out := cmd.OutOrStdout()
	fmt.Fprintln(out, "Exclusion groups:")
	for _, g := range exclusions {
		fmt.Fprintf(out, "  %d. %s (%d members)\n", g.ID, g.Name(), len(g.Members))
	}
	fmt.Fprintln(out, "Penalty groups:")
	for _, g := range penalties {
		fmt.Fprintf(out, "  %d. %s (%d members)\n", g.ID, g.Name(), len(g.Members))
	}
	return nil
}

func runGroupAdd(ctx context.Context, a *cliApp, cmd *cobra.Command, args []string) error {
	var members []roulette.User
	for _, s := range strings.Split(args[1], ",") {
		id, err := parseUserID(s)
		if err != nil {
			return err
		}
		members = append(members, roulette.User{ID: id})
	}

	switch args[0] {
	case "exclusion":
		g := &roulette.ExclusionGroup{CustomName: groupName, Members: members}
		if err := a.infra.Groups.SaveExclusionGroup(ctx, g); err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "created exclusion group %d\n", g.ID)
	case "penalty":
		g := &roulette.PenaltyGroup{CustomName: groupName, Members: members}
		if err := a.infra.Groups.SavePenaltyGroup(ctx, g); err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "created penalty group %d\n", g.ID)
	default:
		return fmt.Errorf("unknown group kind %q: expected exclusion or penalty", args[0])
	}
	return nil
}

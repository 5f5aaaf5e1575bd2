package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/coffee-roulette/roulette-hub/config"
	"github.com/coffee-roulette/roulette-hub/internal/domain/shared"
	"github.com/coffee-roulette/roulette-hub/pkg/logger"
)

var (
	// Version is set at build time.
	Version = "dev"

	// Global flags
	configPath string
	jsonOutput bool
	verbose    bool
)

var rootCmd = &cobra.Command{
	Use:   "roulette",
	Short: "Coffee roulette administration",
	Long: `roulette manages coffee roulette rounds.

A round opens for voting, participants vote yes or no, and after the voting
deadline the matcher proposes groups that minimise repeated and discouraged
pairings. An administrator reviews the proposal and finalizes it; the worker
then notifies every participant.

Examples:
  roulette migrate
  roulette user add "Ada Lovelace" ada@example.com
  roulette roulette create --vote "2024-06-07 17:00" --coffee "2024-06-21 17:00"
  roulette vote 1 3 yes
  roulette match 1
  roulette finalize 1 --proposal`,
	Version:       Version,
	SilenceUsage:  true,
	SilenceErrors: true,
}

// Execute runs the root command.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(exitCode(err))
	}
}

// Exit codes let scripts tell a lost finalization race from a real failure.
const (
	exitFailure  = 1
	exitInvalid  = 2
	exitNotFound = 3
	exitConflict = 4
)

func exitCode(err error) int {
	switch {
	case shared.IsConflict(err), shared.IsAlreadyExists(err):
		return exitConflict
	case shared.IsNotFound(err):
		return exitNotFound
	case shared.IsValidation(err), shared.IsInvalidState(err):
		return exitInvalid
	default:
		return exitFailure
	}
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "Path to config file (default: $CONFIG_PATH)")
	rootCmd.PersistentFlags().BoolVar(&jsonOutput, "json", false, "Output in JSON format")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Enable debug logging")
}

// loadConfig reads configuration and sets up logging for one CLI run.
func loadConfig() (*config.Config, error) {
	path := configPath
	if path == "" {
		path = os.Getenv("CONFIG_PATH")
	}
	cfg, err := config.LoadFrom(path)
	if err != nil {
		return nil, err
	}

	level := "warn"
	if verbose {
		level = "debug"
	}
	logger.Init(logger.Config{Level: level, Format: "console", Output: os.Stderr})
	return cfg, nil
}

// runWithApp opens the infrastructure, runs fn and closes everything.
func runWithApp(fn func(ctx context.Context, a *cliApp, cmd *cobra.Command, args []string) error) func(*cobra.Command, []string) error {
	return func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}

		ctx := cmd.Context()
		if ctx == nil {
			ctx = context.Background()
		}

		a, err := newCLIApp(ctx, cfg)
		if err != nil {
			return err
		}
		defer a.Close()

		return fn(ctx, a, cmd, args)
	}
}

// printJSON writes v as indented JSON to the command's output.
func printJSON(cmd *cobra.Command, v interface{}) error {
	enc := json.NewEncoder(cmd.OutOrStdout())
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

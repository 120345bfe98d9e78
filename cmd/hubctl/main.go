package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/pagedao/hub-api/pkg/contenthub/config"
)

var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

func main() {
	rootCmd := NewRootCommand()
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

// NewRootCommand builds the hubctl command tree.
func NewRootCommand() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "hubctl",
		Short: "Content hub resolution CLI",
		Long: `hubctl inspects how the content hub resolves addresses.

It builds the same service as the server from the environment (or .env),
so TRACKER_GATEWAY_URL or TRACKER_FIXTURES must be set unless --gateway or
--fixtures is given.`,
		Version:       fmt.Sprintf("%s (commit: %s, built: %s)", version, commit, date),
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	rootCmd.PersistentFlags().String("registry", "", "registry URL (overrides REGISTRY_URL)")
	rootCmd.PersistentFlags().String("gateway", "", "tracker gateway URL (overrides TRACKER_GATEWAY_URL)")
	rootCmd.PersistentFlags().String("fixtures", "", "tracker fixture file (overrides TRACKER_FIXTURES)")
	rootCmd.PersistentFlags().BoolP("verbose", "v", false, "log probes to stderr")
	rootCmd.PersistentFlags().Bool("json", false, "print JSON instead of a table")

	rootCmd.AddCommand(NewPlanCommand())
	rootCmd.AddCommand(NewResolveCommand())
	rootCmd.AddCommand(NewRegistryCommand())
	rootCmd.AddCommand(NewBookCommand())
	rootCmd.AddCommand(NewAuthorCommand())

	return rootCmd
}

// runtimeFromFlags loads the configuration and applies the persistent flags
// on top of it.
func runtimeFromFlags(ctx context.Context, cmd *cobra.Command) (*config.Runtime, error) {
	opts := []config.Option{config.WithDotEnv(""), config.WithEnv()}
	if v, _ := cmd.Flags().GetString("registry"); v != "" {
		opts = append(opts, config.WithRegistryURL(v))
	}
	if v, _ := cmd.Flags().GetString("gateway"); v != "" {
		opts = append(opts, config.WithTrackerGateway(v))
	}
	if v, _ := cmd.Flags().GetString("fixtures"); v != "" {
		opts = append(opts, config.WithTrackerFixtures(v))
	}

	cfg, err := config.Load(opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to load configuration: %w", err)
	}

	var w io.Writer = io.Discard
	level := slog.LevelInfo
	if verbose, _ := cmd.Flags().GetBool("verbose"); verbose {
		w = cmd.ErrOrStderr()
		level = slog.LevelDebug
	}
	logger := slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{Level: level}))

	rt, err := cfg.BuildService(ctx, logger)
	if err != nil {
		return nil, fmt.Errorf("failed to build service: %w", err)
	}
	return rt, nil
}

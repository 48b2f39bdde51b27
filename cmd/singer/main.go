package main

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	singer "github.com/singerkit/singer-go"
	"github.com/singerkit/singer-go/contracts"
	"github.com/singerkit/singer-go/messaging"
)

var (
	version   = "dev"
	gitCommit = "unknown"
)

func main() {
	rootCmd := &cobra.Command{
		Use:   "singer",
		Short: "Drive Singer taps and verify their message streams",
		Long: `singer is a CLI for working with Singer tap executables.
It can run a tap's discovery mode, stream its sync output, and verify a
message stream against the schemas it declares.`,
		Version:       fmt.Sprintf("%s (commit: %s)", version, gitCommit),
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	var (
		tapPath string
		verbose bool
	)

	rootCmd.PersistentFlags().StringVarP(&tapPath, "tap", "t", "", "Path to the tap executable")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Enable verbose output")

	logger := func() *slog.Logger {
		level := slog.LevelWarn
		if verbose {
			level = slog.LevelDebug
		}
		return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
	}

	rootCmd.AddCommand(newDiscoverCommand(&tapPath, logger))
	rootCmd.AddCommand(newSyncCommand(&tapPath, logger))
	rootCmd.AddCommand(newCheckCommand(logger))

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}

func signalContext() (context.Context, context.CancelFunc) {
	return signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
}

func invocationContext(cmd *cobra.Command) (*contracts.InvocationContext, error) {
	config, err := cmd.Flags().GetString("config")
	if err != nil {
		return nil, err
	}
	ic := contracts.NewInvocationContext(config)
	for _, name := range []string{contracts.OptionCatalog, contracts.OptionState, contracts.OptionProperties} {
		if flag := cmd.Flags().Lookup(name); flag != nil && flag.Value.String() != "" {
			if err := ic.SetOption(name, flag.Value.String()); err != nil {
				return nil, err
			}
		}
	}
	return ic, nil
}

func newDiscoverCommand(tapPath *string, logger func() *slog.Logger) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "discover",
		Short: "Run the tap in discovery mode and print its catalog",
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx, cancel := signalContext()
			defer cancel()

			client, err := singer.NewExecClient(*tapPath, singer.WithLogger(logger()))
			if err != nil {
				return err
			}
			ic, err := invocationContext(cmd)
			if err != nil {
				return err
			}

			catalog, err := client.Discover(ctx, ic)
			if err != nil {
				return err
			}

			enc := json.NewEncoder(cmd.OutOrStdout())
			enc.SetIndent("", "  ")
			return enc.Encode(catalog)
		},
	}
	cmd.Flags().StringP("config", "c", "", "Path to the tap config file")
	_ = cmd.MarkFlagRequired("config")
	return cmd
}

func newSyncCommand(tapPath *string, logger func() *slog.Logger) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "sync",
		Short: "Run the tap in sync mode and stream its messages to stdout",
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx, cancel := signalContext()
			defer cancel()

			client, err := singer.NewExecClient(*tapPath, singer.WithLogger(logger()))
			if err != nil {
				return err
			}
			ic, err := invocationContext(cmd)
			if err != nil {
				return err
			}

			return client.Sync(ctx, ic, cmd.OutOrStdout())
		},
	}
	cmd.Flags().StringP("config", "c", "", "Path to the tap config file")
	cmd.Flags().String(contracts.OptionCatalog, "", "Path to a catalog file")
	cmd.Flags().String(contracts.OptionState, "", "Path to a state file")
	cmd.Flags().String(contracts.OptionProperties, "", "Path to a properties file")
	_ = cmd.MarkFlagRequired("config")
	return cmd
}

func newCheckCommand(logger func() *slog.Logger) *cobra.Command {
	return &cobra.Command{
		Use:   "check",
		Short: "Read a message stream on stdin and validate it",
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx, cancel := signalContext()
			defer cancel()

			records := 0
			target := messaging.TargetFunc(func(context.Context, contracts.Record) error {
				records++
				return nil
			})

			processor := messaging.NewStreamProcessor(messaging.WithProcessorLogger(logger()))
			if err := processor.Process(ctx, cmd.InOrStdin(), target); err != nil {
				return err
			}

			fmt.Fprintf(cmd.OutOrStdout(), "stream ok: %d records across %d streams\n",
				records, len(processor.Context().Streams()))
			return nil
		},
	}
}

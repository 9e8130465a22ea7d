package main

import (
	"bufio"
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/spf13/cobra"

	"codeberg.org/snonux/engipa/internal/cli"
	"codeberg.org/snonux/engipa/internal/dictionary"
	"codeberg.org/snonux/engipa/internal/logging"
	"codeberg.org/snonux/engipa/internal/processor"
	"codeberg.org/snonux/engipa/internal/server"
)

// action is a command body running on a ready processor
type action func(ctx context.Context, p *processor.Processor, logger *slog.Logger, args []string) error

func main() {
	// Create flags instance
	flags := cli.NewFlags()

	// Create root command
	rootCmd := cli.CreateRootCommand(flags)

	// Set up command initialization
	cobra.OnInitialize(func() {
		cli.InitConfig(flags.CfgFile)
	})

	// Set the run functions
	rootCmd.RunE = withProcessor(flags, runTranscribe(flags))
	cli.AddCommands(rootCmd, flags, cli.Runners{
		Rhymes: withProcessor(flags, func(ctx context.Context, p *processor.Processor, _ *slog.Logger, args []string) error {
			return p.Rhymes(ctx, args)
		}),
		Known: withProcessor(flags, func(ctx context.Context, p *processor.Processor, _ *slog.Logger, args []string) error {
			return p.Known(ctx, args)
		}),
		Contains: withProcessor(flags, func(ctx context.Context, p *processor.Processor, _ *slog.Logger, args []string) error {
			return p.Contains(ctx, args[0])
		}),
		Import: withProcessor(flags, func(ctx context.Context, p *processor.Processor, _ *slog.Logger, args []string) error {
			return p.Import(ctx, args[0])
		}),
		Serve: withProcessor(flags, runServe(flags)),
	})

	// Execute command
	if err := rootCmd.ExecuteContext(context.Background()); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

// withProcessor applies the configuration, builds the logger, the
// dictionary gateway and the processor, and runs fn until it returns or
// the process is interrupted
func withProcessor(flags *cli.Flags, fn action) cli.RunFunc {
	return func(cmd *cobra.Command, args []string) error {
		cli.ApplyConfig(flags)
		logger := logging.New(flags.LogLevel, flags.LogFormat, os.Stderr)

		gw := dictionary.NewGateway(dictionary.Config{
			SQLPath:  flags.SQLPath,
			JSONPath: flags.JSONPath,
			Breaker:  flags.Breaker,
		}, logger)
		defer func() {
			if err := gw.Close(); err != nil {
				logger.Warn("failed to close dictionary", "error", err)
			}
		}()

		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		p := processor.NewProcessor(flags, gw, cmd.OutOrStdout(), logger)
		return fn(ctx, p, logger, args)
	}
}

func runTranscribe(flags *cli.Flags) action {
	return func(ctx context.Context, p *processor.Processor, _ *slog.Logger, args []string) error {
		// Handle batch processing
		if flags.BatchFile != "" {
			return p.ProcessBatch(ctx)
		}

		// Text from the command line
		if len(args) > 0 {
			return p.ProcessText(ctx, strings.Join(args, " "))
		}

		// Text piped on stdin, one per line
		if fi, err := os.Stdin.Stat(); err == nil && fi.Mode()&os.ModeCharDevice == 0 {
			scanner := bufio.NewScanner(os.Stdin)
			for scanner.Scan() {
				line := strings.TrimSpace(scanner.Text())
				if line == "" {
					continue
				}
				if err := p.ProcessText(ctx, line); err != nil {
					return err
				}
			}
			return scanner.Err()
		}

		return fmt.Errorf("no text given; pass text as arguments, use --batch or pipe it on stdin")
	}
}

func runServe(flags *cli.Flags) action {
	return func(ctx context.Context, p *processor.Processor, logger *slog.Logger, _ []string) error {
		opts, err := p.Options()
		if err != nil {
			return err
		}
		srv := server.New(p.Transcriber(), p.Matcher(), opts, flags.AllowedOrigins, logger)
		return srv.ListenAndServe(ctx, flags.Addr)
	}
}

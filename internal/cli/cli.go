// Package cli provides the automatest command-line interface.
package cli

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/AndreyAkinshin/automatest/internal/errors"
	"github.com/AndreyAkinshin/automatest/internal/output"
)

// Version is set at build time.
var Version = "dev"

var out = output.New()

// globalOptions holds the persistent flags shared by every command.
type globalOptions struct {
	debug      bool
	quiet      bool
	configPath string
	envFile    string
}

// Run executes the CLI with the given arguments and returns an exit code.
func Run(args []string) int {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	root := newRootCommand()
	root.SetArgs(args)
	if err := root.ExecuteContext(ctx); err != nil {
		out.ErrorPrefix("%v", err)
		return errors.GetExitCode(err)
	}
	return errors.ExitSuccess
}

func newRootCommand() *cobra.Command {
	opts := &globalOptions{}

	cmd := &cobra.Command{
		Use:   "automatest",
		Short: "Run Postman collections, reconcile their results and mail a report",
		Long: `automatest runs every Postman collection of every project under the
collections root against its environments, reconciles the runner's JSON
report with its CLI transcript, and mails a markdown/HTML summary.

Layout: <collections_root>/<project>/{requests,enviroment}/*.json`,
		Version:       Version,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	flags := cmd.PersistentFlags()
	flags.BoolVar(&opts.debug, "debug", false, "Enable debug logging")
	flags.BoolVarP(&opts.quiet, "quiet", "q", false, "Only print failures and the final report")
	flags.StringVarP(&opts.configPath, "config", "c", "", "Path to automatest.yaml (default: ./automatest.yaml if present)")
	flags.StringVar(&opts.envFile, "env-file", ".env", "Dotenv file loaded before reading the environment")

	cmd.PersistentPreRun = func(cmd *cobra.Command, args []string) {
		if opts.debug {
			slog.SetLogLoggerLevel(slog.LevelDebug)
		}
		out.SetQuiet(opts.quiet)
	}

	cmd.AddCommand(newRunCommand(opts))
	cmd.AddCommand(newSummarizeCommand())
	cmd.AddCommand(newHistoryCommand(opts))
	cmd.AddCommand(newVersionCommand())

	return cmd
}

func newVersionCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print the automatest version",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, args []string) {
			out.Println("automatest %s", Version)
		},
	}
}

// Package commands provides the cleanfire command line.
package commands

import (
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/diogo/cleanfire/internal/api"
	"github.com/diogo/cleanfire/internal/config"
	"github.com/diogo/cleanfire/internal/logging"
	"github.com/diogo/cleanfire/internal/render"
	"github.com/diogo/cleanfire/internal/tui"
)

var (
	// Version info (set at build time)
	Version   = "0.1.0"
	BuildTime = "unknown"
)

// rootFlags are the flags of the one-shot mode
type rootFlags struct {
	output string
	file   string
}

// NewRootCmd builds the command tree around deps
func NewRootCmd(deps *Dependencies) *cobra.Command {
	if deps == nil {
		deps = NewDependencies()
	}
	var flags rootFlags

	cmd := &cobra.Command{
		Use:   "cleanfire [prompt]",
		Short: "Talk to the Clean Fire Grandmaster",
		Long: `cleanfire is a terminal chat with the Clean Fire Grandmaster, a
discipline coach persona served by Google Gemini. Replies stream in as they
are generated.

Set GEMINI_API_KEY (or API_KEY) before running.

Examples:
  cleanfire                          Start interactive chat
  cleanfire chat                     Start interactive chat
  cleanfire "I keep relapsing"       Send a single message
  cleanfire -f journal.md            Read the message from a file
  cat journal.md | cleanfire         Read the message from stdin
  cleanfire "Hello" -o reply.md      Save the reply to a file
  cleanfire config show              Show settings`,
		Args:          cobra.MaximumNArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			if v, _ := cmd.Flags().GetBool("version"); v {
				fmt.Fprintf(deps.Stdout, "cleanfire %s (built %s)\n", Version, BuildTime)
				return nil
			}

			if flags.file != "" {
				data, err := os.ReadFile(flags.file)
				if err != nil {
					return fmt.Errorf("failed to read file: %w", err)
				}
				return runQuery(cmd.Context(), deps, string(data), flags.output)
			}

			if len(args) > 0 {
				return runQuery(cmd.Context(), deps, args[0], flags.output)
			}

			if deps.StdinPiped() {
				data, err := io.ReadAll(deps.Stdin)
				if err != nil {
					return fmt.Errorf("failed to read stdin: %w", err)
				}
				return runQuery(cmd.Context(), deps, string(data), flags.output)
			}

			return runChat(deps)
		},
	}

	cmd.Flags().StringVarP(&flags.output, "output", "o", "", "Save the reply to file")
	cmd.Flags().StringVarP(&flags.file, "file", "f", "", "Read the message from file")
	cmd.Flags().BoolP("version", "v", false, "Show version and exit")

	cmd.AddCommand(NewChatCmd(deps))
	cmd.AddCommand(NewConfigCmd(deps))

	return cmd
}

// Execute runs the root command and exits with status 1 on failure
func Execute() {
	deps := NewDependencies()
	if err := NewRootCmd(deps).Execute(); err != nil {
		fmt.Fprintln(deps.Stderr, tui.FormatError(err))
		os.Exit(1)
	}
}

// environment is the per-process setup shared by every mode
type environment struct {
	cfg    config.Config
	logger *slog.Logger
	close  func() error
}

// setup loads configuration, opens the log and configures the shared client
// and theme. A broken config file is reported and replaced by defaults.
func setup(deps *Dependencies) environment {
	cfg, err := config.LoadConfig()
	if err != nil {
		fmt.Fprintf(deps.Stderr, "Warning: %v, using defaults\n", err)
		cfg = config.DefaultConfig()
	}

	logger, closeLog, err := logging.FromConfig(cfg)
	if err != nil {
		fmt.Fprintf(deps.Stderr, "Warning: %v\n", err)
	}

	api.SetDefaultOptions(
		api.WithTimeout(cfg.Timeout()),
		api.WithLogger(logger),
	)

	if cfg.TUITheme != "" && render.SetTUITheme(cfg.TUITheme) {
		tui.UpdateTheme()
	}

	logger.Debug("configuration loaded", "verbose", cfg.Verbose, "theme", cfg.TUITheme, "timeout", cfg.Timeout())
	return environment{cfg: cfg, logger: logger, close: closeLog}
}

package commands

import (
	"context"
	"fmt"
	"io"

	contextutils "parallelsplit/internal/utils"

	"github.com/spf13/cobra"
)

// skipLoadAnnotation marks commands that run without configuration or telemetry
const skipLoadAnnotation = "parasplit/skip-load"

// NewRootCommand builds the parasplit command tree around app
func NewRootCommand(app *App) *cobra.Command {
	var configFile, logLevel string

	rootCmd := &cobra.Command{
		Use:   "parasplit",
		Short: "Split tab-separated parallel text into two monolingual files",
		Long: `parasplit - parallel text splitter

Reads a file where every line holds a sentence and its translation separated
by a tab, and writes the two columns to two files with matching line numbers.

Available commands:
  split     - Write the source and target columns to separate files
  check     - Validate an input file without writing anything
  version   - Show version information

Paths not given on the command line come from parasplit.yaml (or the file in
PARASPLIT_CONFIG_FILE) and the SPLIT_INPUT_PATH, SPLIT_SOURCE_OUTPUT_PATH and
SPLIT_TARGET_OUTPUT_PATH environment variables.`,
		Args:          noArgs,
		SilenceErrors: true,
		SilenceUsage:  true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			if cmd.Annotations[skipLoadAnnotation] != "" || cmd == cmd.Root() {
				return nil
			}
			return app.Load(configFile, logLevel)
		},
		RunE: func(cmd *cobra.Command, _ []string) error {
			// Show help if no subcommand provided
			return cmd.Help()
		},
	}

	rootCmd.PersistentFlags().StringVar(&configFile, "config", "", "YAML configuration file (default ./parasplit.yaml if present)")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "Log level: debug, info, warn, error or off (default warn)")
	rootCmd.SetFlagErrorFunc(func(_ *cobra.Command, err error) error {
		return contextutils.WrapWithCode(contextutils.ErrInvalidInput, err, "")
	})

	rootCmd.AddCommand(SplitCommand(app))
	rootCmd.AddCommand(CheckCommand(app))
	rootCmd.AddCommand(VersionCommand())

	return rootCmd
}

// Run executes the command tree with args and returns the process exit code.
// Failures are reported on stderr as "parasplit: <error>".
func Run(ctx context.Context, app *App, args []string, stdout, stderr io.Writer) int {
	if args == nil {
		// cobra falls back to os.Args for a nil slice
		args = []string{}
	}

	rootCmd := NewRootCommand(app)
	rootCmd.SetArgs(args)
	rootCmd.SetOut(stdout)
	rootCmd.SetErr(stderr)

	err := rootCmd.ExecuteContext(ctx)
	if err != nil {
		app.Logger.Debug(ctx, "Command failed", map[string]interface{}{
			"error":      err.Error(),
			"error_code": string(contextutils.GetErrorCode(err)),
		})
		fmt.Fprintf(stderr, "parasplit: %v\n", err)
	}
	return contextutils.ExitCode(err)
}

// noArgs rejects positional arguments as a usage error
func noArgs(cmd *cobra.Command, args []string) error {
	if err := cobra.NoArgs(cmd, args); err != nil {
		return contextutils.WrapWithCode(contextutils.ErrInvalidInput, err, "")
	}
	return nil
}

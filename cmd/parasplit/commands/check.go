package commands

import (
	"fmt"

	"parallelsplit/internal/observability"

	"github.com/spf13/cobra"
)

// CheckCommand returns the check command
func CheckCommand(app *App) *cobra.Command {
	var input string

	cmd := &cobra.Command{
		Use:   "check",
		Short: "Validate a parallel-text file without writing outputs",
		Long: `Validate a parallel-text file with the same rules as split.

Nothing is written. The command exits with the same codes as split and reports
the first malformed line.`,
		Args: noArgs,
		RunE: runCheck(app, &input),
	}

	cmd.Flags().StringVarP(&input, "input", "i", "", "Parallel-text input file (default from config, en-ne.txt)")

	return cmd
}

// runCheck executes the validation
func runCheck(app *App, input *string) func(*cobra.Command, []string) error {
	return func(cmd *cobra.Command, _ []string) (err error) {
		path := firstNonEmpty(*input, app.Config.Split.InputPath)

		ctx, span := observability.TraceCommandFunction(cmd.Context(), "check",
			observability.AttributeInputPath(path),
		)
		defer observability.FinishSpan(span, &err)

		summary, err := app.Splitter.Check(ctx, path)
		if err != nil {
			return err
		}

		fmt.Fprintf(cmd.OutOrStdout(), "%s: %d records, %d blank lines, OK\n",
			summary.InputPath, summary.Records, summary.BlankLines)
		return nil
	}
}

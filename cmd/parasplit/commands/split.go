package commands

import (
	"fmt"

	"parallelsplit/internal/models"
	"parallelsplit/internal/observability"

	"github.com/spf13/cobra"
)

type splitOptions struct {
	input  string
	source string
	target string
}

// SplitCommand returns the split command
func SplitCommand(app *App) *cobra.Command {
	var opts splitOptions

	cmd := &cobra.Command{
		Use:   "split",
		Short: "Split a parallel-text file into source and target files",
		Long: `Split a parallel-text file into two monolingual files.

Every line of the input is stripped of surrounding whitespace and split at its
first tab. The part before the tab goes to --out-a and the rest to --out-b, so
line N of both outputs comes from input line N. A blank input line gives an
empty line in both outputs.
Missing output directories are created and existing outputs are overwritten.

A non-empty line without a tab stops the run with exit code 6 and the line
number. Lines before it have already been written, so the outputs may be
partial after a failure.

Exit codes:
  0 success        3 input not found     6 malformed record
  1 internal error 4 permission denied   7 invalid UTF-8
  2 invalid usage  5 I/O error`,
		Example: `  parasplit split
  parasplit split -i en-ne.txt -a english.txt -b nepali.txt`,
		Args: noArgs,
		RunE: runSplit(app, &opts),
	}

	cmd.Flags().StringVarP(&opts.input, "input", "i", "", "Parallel-text input file (default from config, en-ne.txt)")
	cmd.Flags().StringVarP(&opts.source, "out-a", "a", "", "Output file for the text before the tab (default from config, english.txt)")
	cmd.Flags().StringVarP(&opts.target, "out-b", "b", "", "Output file for the text after the tab (default from config, nepali.txt)")

	return cmd
}

// runSplit executes the split with flags taking precedence over configuration
func runSplit(app *App, opts *splitOptions) func(*cobra.Command, []string) error {
	return func(cmd *cobra.Command, _ []string) (err error) {
		req := models.SplitRequest{
			InputPath:        firstNonEmpty(opts.input, app.Config.Split.InputPath),
			SourceOutputPath: firstNonEmpty(opts.source, app.Config.Split.SourceOutputPath),
			TargetOutputPath: firstNonEmpty(opts.target, app.Config.Split.TargetOutputPath),
		}

		ctx, span := observability.TraceCommandFunction(cmd.Context(), "split",
			observability.AttributeInputPath(req.InputPath),
		)
		defer observability.FinishSpan(span, &err)

		summary, err := app.Splitter.Split(ctx, req)
		if err != nil {
			return err
		}

		out := cmd.OutOrStdout()
		fmt.Fprintf(out, "Split %d records from %s into %s and %s", summary.Records,
			summary.InputPath, summary.SourceOutputPath, summary.TargetOutputPath)
		if summary.BlankLines > 0 {
			fmt.Fprintf(out, " (%d blank lines)", summary.BlankLines)
		}
		fmt.Fprintln(out)
		return nil
	}
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}

package commands

import (
	"encoding/json"
	"fmt"

	contextutils "parallelsplit/internal/utils"
	"parallelsplit/internal/version"

	"github.com/spf13/cobra"
)

// VersionCommand returns the version command
func VersionCommand() *cobra.Command {
	var asJSON bool

	cmd := &cobra.Command{
		Use:         "version",
		Short:       "Show version information",
		Args:        noArgs,
		Annotations: map[string]string{skipLoadAnnotation: "true"},
		RunE: func(cmd *cobra.Command, _ []string) error {
			info := version.Get()
			if asJSON {
				data, err := json.Marshal(info)
				if err != nil {
					return contextutils.WrapError(err, "failed to encode version")
				}
				fmt.Fprintln(cmd.OutOrStdout(), string(data))
				return nil
			}
			fmt.Fprintf(cmd.OutOrStdout(), "parasplit %s\n", info)
			return nil
		},
	}

	cmd.Flags().BoolVar(&asJSON, "json", false, "Print version information as JSON")

	return cmd
}

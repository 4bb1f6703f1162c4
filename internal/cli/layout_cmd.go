package cli

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"
)

func newLayoutCmd(app *App) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "layout",
		Short: "Import venue layouts",
	}

	cmd.AddCommand(newLayoutImportCmd(app))

	return cmd
}

func newLayoutImportCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "import FILE",
		Short: "Create the venue types and nodes described by a JSON layout file",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			result, err := app.Import.ImportLayout(cmd.Context(), args[0])
			if err != nil {
				return err
			}

			roots := make([]string, len(result.Roots))
			for i, r := range result.Roots {
				roots[i] = r.Name
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Imported layout for event %s: %d types, %d nodes\n",
				result.EventID, result.TypeCount, result.NodeCount)
			if len(roots) > 0 {
				fmt.Fprintf(cmd.OutOrStdout(), "Roots: %s\n", strings.Join(roots, ", "))
			}
			return nil
		},
	}
}

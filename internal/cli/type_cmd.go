package cli

import (
	"fmt"

	"github.com/alexanderramin/venuealloc/internal/cli/formatter"
	"github.com/alexanderramin/venuealloc/internal/domain"
	"github.com/spf13/cobra"
)

func newTypeCmd(app *App) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "type",
		Short: "Manage venue types",
	}

	cmd.AddCommand(
		newTypeAddCmd(app),
		newTypeListCmd(app),
		newTypeUpdateCmd(app),
		newTypeRemoveCmd(app),
	)

	return cmd
}

func newTypeAddCmd(app *App) *cobra.Command {
	var label, subUnitLabel string
	var unit bool

	cmd := &cobra.Command{
		Use:   "add",
		Short: "Create a venue type",
		RunE: func(cmd *cobra.Command, args []string) error {
			eventID, err := app.event()
			if err != nil {
				return err
			}

			t := &domain.VenueType{
				EventID:      eventID,
				Label:        label,
				IsUnit:       unit,
				SubUnitLabel: subUnitLabel,
			}
			if err := app.Types.CreateType(cmd.Context(), t); err != nil {
				return err
			}

			fmt.Fprintf(cmd.OutOrStdout(), "Created venue type %s (%s)\n", t.Label, t.ID)
			return nil
		},
	}

	cmd.Flags().StringVar(&label, "label", "", "Type label, e.g. Seat or Table")
	cmd.Flags().BoolVar(&unit, "unit", false, "Atomic type, assigned without a sub-unit index")
	cmd.Flags().StringVar(&subUnitLabel, "sub-unit-label", "", "Name of one sub-unit of a subdivided type, e.g. chair")
	_ = cmd.MarkFlagRequired("label")

	return cmd
}

func newTypeListCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List venue types of the event",
		RunE: func(cmd *cobra.Command, args []string) error {
			eventID, err := app.event()
			if err != nil {
				return err
			}

			types, err := app.Types.ListTypes(cmd.Context(), eventID)
			if err != nil {
				return err
			}
			if len(types) == 0 {
				fmt.Fprintln(cmd.OutOrStdout(), "No venue types found.")
				return nil
			}

			fmt.Fprint(cmd.OutOrStdout(), formatter.FormatTypeList(types))
			return nil
		},
	}
}

func newTypeUpdateCmd(app *App) *cobra.Command {
	var label, subUnitLabel string
	var unit bool

	cmd := &cobra.Command{
		Use:   "update TYPE",
		Short: "Update a venue type",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			typeID, err := resolveTypeID(ctx, app, args[0])
			if err != nil {
				return err
			}
			t, err := app.Types.GetType(ctx, typeID)
			if err != nil {
				return err
			}

			if cmd.Flags().Changed("label") {
				t.Label = label
			}
			if cmd.Flags().Changed("unit") {
				t.IsUnit = unit
				if unit {
					t.SubUnitLabel = ""
				}
			}
			if cmd.Flags().Changed("sub-unit-label") {
				t.SubUnitLabel = subUnitLabel
			}

			if err := app.Types.UpdateType(ctx, t); err != nil {
				return err
			}

			fmt.Fprintf(cmd.OutOrStdout(), "Updated venue type %s\n", t.Label)
			return nil
		},
	}

	cmd.Flags().StringVar(&label, "label", "", "New label")
	cmd.Flags().BoolVar(&unit, "unit", false, "Atomic (true) or subdivided (false)")
	cmd.Flags().StringVar(&subUnitLabel, "sub-unit-label", "", "New sub-unit label")

	return cmd
}

func newTypeRemoveCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "remove TYPE",
		Short: "Delete a venue type no node uses",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			typeID, err := resolveTypeID(ctx, app, args[0])
			if err != nil {
				return err
			}
			if err := app.Types.DeleteType(ctx, typeID); err != nil {
				return err
			}

			fmt.Fprintf(cmd.OutOrStdout(), "Removed venue type %s\n", typeID)
			return nil
		},
	}
}

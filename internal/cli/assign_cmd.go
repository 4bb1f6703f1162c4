package cli

import (
	"context"
	"errors"
	"fmt"

	"github.com/alexanderramin/venuealloc/internal/cli/formatter"
	"github.com/alexanderramin/venuealloc/internal/contract"
	"github.com/alexanderramin/venuealloc/internal/domain"
	"github.com/alexanderramin/venuealloc/internal/service"
	"github.com/spf13/cobra"
)

// slotFlags are the flags shared by assign and reassign.
type slotFlags struct {
	user  string
	node  string
	index int
}

func (f *slotFlags) register(cmd *cobra.Command) {
	cmd.Flags().StringVar(&f.user, "user", "", "Registrant user ID")
	cmd.Flags().StringVar(&f.node, "node", "", "Venue node ID or name")
	cmd.Flags().IntVar(&f.index, "index", 0, "Sub-unit index on a subdivided node")
	_ = cmd.MarkFlagRequired("user")
	_ = cmd.MarkFlagRequired("node")
}

func (f *slotFlags) request(cmd *cobra.Command, app *App) (contract.AssignRequest, error) {
	eventID, err := app.event()
	if err != nil {
		return contract.AssignRequest{}, err
	}
	nodeID, err := resolveNodeID(cmd.Context(), app, f.node)
	if err != nil {
		return contract.AssignRequest{}, err
	}
	return contract.AssignRequest{
		UserID:       f.user,
		EventID:      eventID,
		NodeID:       nodeID,
		SubUnitIndex: optionalInt(cmd.Flags(), "index", f.index),
	}, nil
}

func newAssignCmd(app *App) *cobra.Command {
	var flags slotFlags

	cmd := &cobra.Command{
		Use:   "assign",
		Short: "Assign a registrant to a venue position",
		RunE: func(cmd *cobra.Command, args []string) error {
			req, err := flags.request(cmd, app)
			if err != nil {
				return err
			}
			res, err := app.Engine.Assign(cmd.Context(), req)
			if err != nil {
				return contract.NewAllocationError(err)
			}
			return printPlacement(cmd, app, "Assigned", req.UserID, req.EventID, res)
		},
	}
	flags.register(cmd)

	return cmd
}

func newReassignCmd(app *App) *cobra.Command {
	var flags slotFlags

	cmd := &cobra.Command{
		Use:   "reassign",
		Short: "Move a registrant to another venue position",
		RunE: func(cmd *cobra.Command, args []string) error {
			req, err := flags.request(cmd, app)
			if err != nil {
				return err
			}
			res, err := app.Engine.Reassign(cmd.Context(), req)
			if err != nil {
				return contract.NewAllocationError(err)
			}
			return printPlacement(cmd, app, "Reassigned", req.UserID, req.EventID, res)
		},
	}
	flags.register(cmd)

	return cmd
}

func printPlacement(cmd *cobra.Command, app *App, verb, userID, eventID string, res *contract.AssignResult) error {
	view, err := app.Engine.CurrentAssignment(cmd.Context(), userID, eventID)
	if err != nil {
		return err
	}
	where := view.NodeName
	if view.SubUnitIndex != nil {
		where = fmt.Sprintf("%s, %s %d", where, view.SubUnitLabel, *view.SubUnitIndex)
	}
	fmt.Fprintf(cmd.OutOrStdout(), "%s %s to %s (%s)\n", verb, userID, where, res.AssignmentID)
	return nil
}

func newCancelCmd(app *App) *cobra.Command {
	var user, reason string

	cmd := &cobra.Command{
		Use:   "cancel",
		Short: "Release a registrant's venue position",
		RunE: func(cmd *cobra.Command, args []string) error {
			eventID, err := app.event()
			if err != nil {
				return err
			}
			err = app.Engine.Cancel(cmd.Context(), user, eventID, domain.ReleaseReason(reason))
			if errors.Is(err, domain.ErrNotFound) {
				fmt.Fprintf(cmd.OutOrStdout(), "%s holds no assignment.\n", user)
				return nil
			}
			if err != nil {
				return contract.NewAllocationError(err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Cancelled assignment of %s (%s)\n", user, reason)
			return nil
		},
	}

	cmd.Flags().StringVar(&user, "user", "", "Registrant user ID")
	cmd.Flags().StringVar(&reason, "reason", string(domain.ReleaseCancelled), "Release reason: cancelled, refunded or admin")
	_ = cmd.MarkFlagRequired("user")

	return cmd
}

func newWhoisCmd(app *App) *cobra.Command {
	var user, node string
	var index int

	cmd := &cobra.Command{
		Use:   "whois",
		Short: "Show the live assignment of a user, or of a slot",
		Long: "With --user, shows where the user is placed. With --node (and --index on\n" +
			"subdivided nodes), shows who holds the slot; on an atomic node shared by\n" +
			"several holders the earliest one is shown.",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			eventID, err := app.event()
			if err != nil {
				return err
			}
			if (user == "") == (node == "") {
				return fmt.Errorf("exactly one of --user or --node is required")
			}

			if node != "" {
				nodeID, err := resolveNodeID(ctx, app, node)
				if err != nil {
					return err
				}
				a, ok, err := app.Ledger.FindBySlot(ctx, nodeID, optionalInt(cmd.Flags(), "index", index))
				if err != nil {
					return err
				}
				if !ok {
					fmt.Fprintln(cmd.OutOrStdout(), "Slot is free.")
					return nil
				}
				user = a.UserID
			}

			view, err := app.Engine.CurrentAssignment(ctx, user, eventID)
			if errors.Is(err, domain.ErrNotFound) {
				fmt.Fprintf(cmd.OutOrStdout(), "%s holds no assignment.\n", user)
				return nil
			}
			if err != nil {
				return contract.NewAllocationError(err)
			}
			fmt.Fprintln(cmd.OutOrStdout(), formatter.FormatAssignment(view))
			return nil
		},
	}

	cmd.Flags().StringVar(&user, "user", "", "Registrant user ID")
	cmd.Flags().StringVar(&node, "node", "", "Venue node ID or name")
	cmd.Flags().IntVar(&index, "index", 0, "Sub-unit index on a subdivided node")

	return cmd
}

func newOccupancyCmd(app *App) *cobra.Command {
	var rollup bool

	cmd := &cobra.Command{
		Use:   "occupancy NODE",
		Short: "Show live load on a node",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			nodeID, err := resolveNodeID(ctx, app, args[0])
			if err != nil {
				return err
			}
			view, err := app.Engine.Occupancy(ctx, nodeID, rollup)
			if err != nil {
				return contract.NewAllocationError(err)
			}
			fmt.Fprint(cmd.OutOrStdout(), formatter.FormatOccupancy(view))
			return nil
		},
	}

	cmd.Flags().BoolVar(&rollup, "rollup", false, "Include all descendants")

	return cmd
}

func newHistoryCmd(app *App) *cobra.Command {
	var user string

	cmd := &cobra.Command{
		Use:   "history",
		Short: "Show every assignment a user has held for the event",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			eventID, err := app.event()
			if err != nil {
				return err
			}

			assigns, err := app.Ledger.History(ctx, user, eventID)
			if err != nil {
				return err
			}
			if len(assigns) == 0 {
				fmt.Fprintln(cmd.OutOrStdout(), "No assignments found.")
				return nil
			}

			names, err := nodeNames(ctx, app.Tree, eventID)
			if err != nil {
				return err
			}
			fmt.Fprint(cmd.OutOrStdout(), formatter.FormatHistory(assigns, names))
			return nil
		},
	}

	cmd.Flags().StringVar(&user, "user", "", "Registrant user ID")
	_ = cmd.MarkFlagRequired("user")

	return cmd
}

func nodeNames(ctx context.Context, tree service.VenueTree, eventID string) (map[string]string, error) {
	nodes, err := tree.ListNodes(ctx, eventID)
	if err != nil {
		return nil, err
	}
	names := make(map[string]string, len(nodes))
	for _, n := range nodes {
		names[n.ID] = n.Name
	}
	return names, nil
}

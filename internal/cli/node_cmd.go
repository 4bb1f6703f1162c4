package cli

import (
	"fmt"

	"github.com/alexanderramin/venuealloc/internal/cli/formatter"
	"github.com/alexanderramin/venuealloc/internal/domain"
	"github.com/spf13/cobra"
)

func newNodeCmd(app *App) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "node",
		Short: "Manage venue nodes",
	}

	cmd.AddCommand(
		newNodeAddCmd(app),
		newNodeMoveCmd(app),
		newNodeRemoveCmd(app),
		newNodeTreeCmd(app),
		newNodeInspectCmd(app),
	)

	return cmd
}

func newNodeAddCmd(app *App) *cobra.Command {
	var typeRef, name, parentRef string
	var capacity, order int

	cmd := &cobra.Command{
		Use:   "add",
		Short: "Create a venue node",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			eventID, err := app.event()
			if err != nil {
				return err
			}
			typeID, err := resolveTypeID(ctx, app, typeRef)
			if err != nil {
				return err
			}

			n := &domain.VenueNode{
				EventID:    eventID,
				TypeID:     typeID,
				Name:       name,
				Capacity:   optionalInt(cmd.Flags(), "capacity", capacity),
				OrderIndex: order,
			}
			if cmd.Flags().Changed("parent") {
				parentID, err := resolveNodeID(ctx, app, parentRef)
				if err != nil {
					return fmt.Errorf("parent: %w", err)
				}
				n.ParentID = &parentID
			}

			if err := app.Tree.CreateNode(ctx, n); err != nil {
				return err
			}

			fmt.Fprintf(cmd.OutOrStdout(), "Created node %s (%s)\n", n.Name, n.ID)
			return nil
		},
	}

	cmd.Flags().StringVar(&typeRef, "type", "", "Venue type ID or label")
	cmd.Flags().StringVar(&name, "name", "", "Node name")
	cmd.Flags().StringVar(&parentRef, "parent", "", "Parent node ID or name")
	cmd.Flags().IntVar(&capacity, "capacity", 0, "Capacity (sub-units, or holders of an atomic node)")
	cmd.Flags().IntVar(&order, "order", 0, "Order among siblings")
	_ = cmd.MarkFlagRequired("type")
	_ = cmd.MarkFlagRequired("name")

	return cmd
}

func newNodeMoveCmd(app *App) *cobra.Command {
	var parentRef string
	var toRoot bool

	cmd := &cobra.Command{
		Use:   "move NODE",
		Short: "Move a node under a new parent, or to the root",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			if toRoot == cmd.Flags().Changed("parent") {
				return fmt.Errorf("exactly one of --parent or --root is required")
			}

			nodeID, err := resolveNodeID(ctx, app, args[0])
			if err != nil {
				return err
			}

			var newParent *string
			if !toRoot {
				parentID, err := resolveNodeID(ctx, app, parentRef)
				if err != nil {
					return fmt.Errorf("parent: %w", err)
				}
				newParent = &parentID
			}

			if err := app.Tree.MoveNode(ctx, nodeID, newParent); err != nil {
				return err
			}

			fmt.Fprintf(cmd.OutOrStdout(), "Moved node %s\n", args[0])
			return nil
		},
	}

	cmd.Flags().StringVar(&parentRef, "parent", "", "New parent node ID or name")
	cmd.Flags().BoolVar(&toRoot, "root", false, "Make the node a root")

	return cmd
}

func newNodeRemoveCmd(app *App) *cobra.Command {
	var yes bool

	cmd := &cobra.Command{
		Use:   "remove NODE",
		Short: "Delete a node without children or live assignments",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			nodeID, err := resolveNodeID(ctx, app, args[0])
			if err != nil {
				return err
			}
			n, err := app.Tree.GetNode(ctx, nodeID)
			if err != nil {
				return err
			}

			if !yes && app.interactive() {
				ok, err := confirmRemove(
					fmt.Sprintf("Remove %s?", n.Name),
					"Its assignment history is removed with it.",
				)
				if err != nil {
					return err
				}
				if !ok {
					fmt.Fprintln(cmd.OutOrStdout(), "Kept.")
					return nil
				}
			}

			if err := app.Tree.DeleteNode(ctx, nodeID); err != nil {
				return err
			}

			fmt.Fprintf(cmd.OutOrStdout(), "Removed node %s\n", n.Name)
			return nil
		},
	}

	cmd.Flags().BoolVarP(&yes, "yes", "y", false, "Skip confirmation")

	return cmd
}

func newNodeTreeCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "tree",
		Short: "Show the venue forest of the event with live load",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			eventID, err := app.event()
			if err != nil {
				return err
			}

			nodes, err := app.Tree.ListNodes(ctx, eventID)
			if err != nil {
				return err
			}
			if len(nodes) == 0 {
				fmt.Fprintln(cmd.OutOrStdout(), "No venue nodes found.")
				return nil
			}

			types, err := app.Types.ListTypes(ctx, eventID)
			if err != nil {
				return err
			}
			data := formatter.NodeTreeData{
				Nodes:     nodes,
				Types:     make(map[string]*domain.VenueType, len(types)),
				Occupancy: make(map[string]domain.Occupancy, len(nodes)),
			}
			for _, t := range types {
				data.Types[t.ID] = t
			}
			for _, n := range nodes {
				occ, err := app.Tree.Occupancy(ctx, n.ID)
				if err != nil {
					return err
				}
				data.Occupancy[n.ID] = occ
			}

			fmt.Fprint(cmd.OutOrStdout(), formatter.FormatNodeTree(data))
			return nil
		},
	}
}

func newNodeInspectCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "inspect NODE",
		Short: "Show node details",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			nodeID, err := resolveNodeID(ctx, app, args[0])
			if err != nil {
				return err
			}
			n, err := app.Tree.GetNode(ctx, nodeID)
			if err != nil {
				return err
			}
			t, err := app.Types.GetType(ctx, n.TypeID)
			if err != nil {
				return err
			}

			data := formatter.NodeInspectData{Node: n, Type: t}
			if n.ParentID != nil {
				if data.Parent, err = app.Tree.GetNode(ctx, *n.ParentID); err != nil {
					return err
				}
			}
			children, err := app.Tree.ListChildren(ctx, n.ID)
			if err != nil {
				return err
			}
			data.Children = len(children)
			if data.Occupancy, err = app.Tree.Occupancy(ctx, n.ID); err != nil {
				return err
			}
			if data.Rollup, err = app.Tree.Rollup(ctx, n.ID); err != nil {
				return err
			}
			if data.Holders, err = app.Ledger.ListByNode(ctx, n.ID); err != nil {
				return err
			}

			fmt.Fprint(cmd.OutOrStdout(), formatter.FormatNodeInspect(data))
			return nil
		},
	}
}

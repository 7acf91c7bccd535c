package main

import (
	"gestorpecas/internal/apierror"
	"gestorpecas/internal/dto"

	"github.com/spf13/cobra"
)

// ── stock ────────────────────────────────────────────────────────────────────

func newStockCmd(c *cli) *cobra.Command {
	cmd := &cobra.Command{Use: "stock", Short: "Record and inspect stock movements"}

	var note string
	move := &cobra.Command{
		Use:   "move PART_ID inflow|outflow|correction QTY",
		Short: "Record a movement and print the part's new state",
		Args:  exactArgs(3),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID("part_id", args[0])
			if err != nil {
				return err
			}
			qty, err := parseInt("quantity", args[2])
			if err != nil {
				return err
			}
			req := dto.RecordMovementRequest{PartID: id, Kind: args[1], Quantity: qty}
			if cmd.Flags().Changed("note") {
				req.Note = &note
			}
			svc, err := c.services()
			if err != nil {
				return err
			}
			resp, err := svc.Stock.RecordMovement(cmd.Context(), req)
			if err != nil {
				return err
			}
			return printJSON(cmd, resp)
		},
	}
	move.Flags().StringVar(&note, "note", "", "free-text note kept with the movement")

	var filter dto.MovementFilter
	history := &cobra.Command{
		Use:   "history PART_ID",
		Short: "List a part's movements, newest first",
		Args:  exactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID("part_id", args[0])
			if err != nil {
				return err
			}
			filter.PartID = id
			svc, err := c.services()
			if err != nil {
				return err
			}
			resp, err := svc.Stock.History(cmd.Context(), filter)
			if err != nil {
				return err
			}
			return printJSON(cmd, resp)
		},
	}
	history.Flags().StringVar(&filter.Kind, "kind", "", "only movements of this kind")
	history.Flags().IntVar(&filter.Page, "page", 1, "page number")
	history.Flags().IntVar(&filter.Limit, "limit", 50, "page size")

	cmd.AddCommand(move, history)
	return cmd
}

// ── kit ──────────────────────────────────────────────────────────────────────

func newKitCmd(c *cli) *cobra.Command {
	cmd := &cobra.Command{Use: "kit", Short: "Manage kits and their components"}

	flag := &cobra.Command{
		Use:   "flag PART_ID on|off",
		Short: "Mark a part as a kit, or clear the mark and its components",
		Args:  exactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID("part_id", args[0])
			if err != nil {
				return err
			}
			var isKit bool
			switch args[1] {
			case "on":
				isKit = true
			case "off":
			default:
				return apierror.NewValidation(map[string]string{"flag": "on or off"})
			}
			svc, err := c.services()
			if err != nil {
				return err
			}
			resp, err := svc.Kits.SetKitFlag(cmd.Context(), dto.SetKitFlagRequest{PartID: id, IsKit: isKit})
			if err != nil {
				return err
			}
			return printJSON(cmd, resp)
		},
	}

	add := &cobra.Command{
		Use:   "add KIT_ID COMPONENT_ID QTY",
		Short: "Add a component to a kit or change its quantity",
		Args:  exactArgs(3),
		RunE: func(cmd *cobra.Command, args []string) error {
			kitID, err := parseID("kit_part_id", args[0])
			if err != nil {
				return err
			}
			compID, err := parseID("component_part_id", args[1])
			if err != nil {
				return err
			}
			qty, err := parseInt("quantity", args[2])
			if err != nil {
				return err
			}
			svc, err := c.services()
			if err != nil {
				return err
			}
			resp, err := svc.Kits.AddOrUpdateComponent(cmd.Context(), dto.KitComponentRequest{
				KitPartID: kitID, ComponentPartID: compID, Quantity: qty,
			})
			if err != nil {
				return err
			}
			return printJSON(cmd, resp)
		},
	}

	remove := &cobra.Command{
		Use:   "remove EDGE_ID",
		Short: "Remove a component edge",
		Args:  exactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			edgeID, err := parseID("edge_id", args[0])
			if err != nil {
				return err
			}
			svc, err := c.services()
			if err != nil {
				return err
			}
			if err := svc.Kits.RemoveComponent(cmd.Context(), edgeID); err != nil {
				return err
			}
			return printJSON(cmd, map[string]uint{"removed": edgeID})
		},
	}

	list := &cobra.Command{
		Use:   "list KIT_ID",
		Short: "List a kit's components and how many kits the stock can build",
		Args:  exactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			kitID, err := parseID("kit_part_id", args[0])
			if err != nil {
				return err
			}
			svc, err := c.services()
			if err != nil {
				return err
			}
			resp, err := svc.Kits.ListComponents(cmd.Context(), kitID)
			if err != nil {
				return err
			}
			return printJSON(cmd, resp)
		},
	}

	cmd.AddCommand(flag, add, remove, list)
	return cmd
}

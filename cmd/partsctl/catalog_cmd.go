package main

import (
	"time"

	"gestorpecas/internal/apierror"
	"gestorpecas/internal/dto"

	"github.com/shopspring/decimal"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
)

// ── manufacturer ─────────────────────────────────────────────────────────────

func newManufacturerCmd(c *cli) *cobra.Command {
	cmd := &cobra.Command{Use: "manufacturer", Short: "Manage manufacturers"}

	create := &cobra.Command{
		Use:   "create NAME",
		Short: "Register a manufacturer and assign its code",
		Args:  exactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := c.services()
			if err != nil {
				return err
			}
			resp, err := a.Catalog.CreateManufacturer(cmd.Context(), dto.CreateManufacturerRequest{Name: args[0]})
			if err != nil {
				return err
			}
			return printJSON(cmd, resp)
		},
	}

	var page, limit int
	list := &cobra.Command{
		Use:   "list",
		Short: "List manufacturers by code",
		Args:  exactArgs(0),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := c.services()
			if err != nil {
				return err
			}
			resp, err := a.Catalog.ListManufacturers(cmd.Context(), page, limit)
			if err != nil {
				return err
			}
			return printJSON(cmd, resp)
		},
	}
	list.Flags().IntVar(&page, "page", 1, "page number")
	list.Flags().IntVar(&limit, "limit", 50, "page size")

	get := &cobra.Command{
		Use:   "get CODE",
		Short: "Show one manufacturer",
		Args:  exactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			code, err := parseInt("code", args[0])
			if err != nil {
				return err
			}
			a, err := c.services()
			if err != nil {
				return err
			}
			resp, err := a.Catalog.GetManufacturer(cmd.Context(), code)
			if err != nil {
				return err
			}
			return printJSON(cmd, resp)
		},
	}

	cmd.AddCommand(create, list, get)
	return cmd
}

// ── model ────────────────────────────────────────────────────────────────────

func newModelCmd(c *cli) *cobra.Command {
	cmd := &cobra.Command{Use: "model", Short: "Manage vehicle models"}

	var mfr int
	ensure := &cobra.Command{
		Use:   "ensure NAME",
		Short: "Return the model, creating it with the next sequence if needed",
		Args:  exactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := c.services()
			if err != nil {
				return err
			}
			resp, err := a.Catalog.GetOrCreateModel(cmd.Context(), dto.EnsureModelRequest{ManufacturerCode: mfr, Name: args[0]})
			if err != nil {
				return err
			}
			return printJSON(cmd, resp)
		},
	}
	ensure.Flags().IntVarP(&mfr, "manufacturer", "m", 0, "manufacturer code")
	_ = ensure.MarkFlagRequired("manufacturer")

	var listMfr int
	list := &cobra.Command{
		Use:   "list",
		Short: "List a manufacturer's models by sequence",
		Args:  exactArgs(0),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := c.services()
			if err != nil {
				return err
			}
			resp, err := a.Catalog.ListModels(cmd.Context(), listMfr)
			if err != nil {
				return err
			}
			return printJSON(cmd, resp)
		},
	}
	list.Flags().IntVarP(&listMfr, "manufacturer", "m", 0, "manufacturer code")
	_ = list.MarkFlagRequired("manufacturer")

	cmd.AddCommand(ensure, list)
	return cmd
}

// ── part ─────────────────────────────────────────────────────────────────────

// attributeFlags binds the editable part attributes. Money and dates are
// taken as strings and parsed only when set.
type attributeFlags struct {
	description   string
	oemCode       string
	supplyCost    string
	labelCost     string
	packagingCost string
	taxPercent    string
	salePrice     string
	lastPurchase  string
}

func (f *attributeFlags) register(fs *pflag.FlagSet) {
	fs.StringVar(&f.description, "description", "", "free-text description")
	fs.StringVar(&f.oemCode, "oem", "", "OEM reference code")
	fs.StringVar(&f.supplyCost, "supply-cost", "", "supply cost")
	fs.StringVar(&f.labelCost, "label-cost", "", "label cost")
	fs.StringVar(&f.packagingCost, "packaging-cost", "", "packaging cost")
	fs.StringVar(&f.taxPercent, "tax", "", "tax percentage, 0 to 100")
	fs.StringVar(&f.salePrice, "sale-price", "", "sale price")
	fs.StringVar(&f.lastPurchase, "last-purchase", "", "last purchase date, YYYY-MM-DD (empty clears it on update)")
}

// attributes builds the create-time attribute set from the flags that were
// given.
func (f *attributeFlags) attributes(fs *pflag.FlagSet) (dto.PartAttributes, error) {
	var a dto.PartAttributes
	bad := map[string]string{}

	if fs.Changed("description") {
		a.Description = &f.description
	}
	if fs.Changed("oem") {
		a.OEMCode = &f.oemCode
	}
	money := func(flag, raw string, dst *decimal.Decimal) {
		if !fs.Changed(flag) {
			return
		}
		d, err := decimal.NewFromString(raw)
		if err != nil {
			bad[flag] = "decimal"
			return
		}
		*dst = d
	}
	money("supply-cost", f.supplyCost, &a.SupplyCost)
	money("label-cost", f.labelCost, &a.LabelCost)
	money("packaging-cost", f.packagingCost, &a.PackagingCost)
	money("tax", f.taxPercent, &a.TaxPercent)
	if fs.Changed("sale-price") {
		var d decimal.Decimal
		money("sale-price", f.salePrice, &d)
		a.SalePrice = &d
	}
	if fs.Changed("last-purchase") && f.lastPurchase != "" {
		t, err := time.Parse("2006-01-02", f.lastPurchase)
		if err != nil {
			bad["last-purchase"] = "date YYYY-MM-DD"
		}
		a.LastPurchaseDate = &t
	}

	if len(bad) > 0 {
		return a, apierror.NewValidation(bad)
	}
	return a, nil
}

// patch builds an update request; unset flags stay nil.
func (f *attributeFlags) patch(fs *pflag.FlagSet) (dto.UpdatePartRequest, error) {
	a, err := f.attributes(fs)
	if err != nil {
		return dto.UpdatePartRequest{}, err
	}
	req := dto.UpdatePartRequest{
		Description:      a.Description,
		OEMCode:          a.OEMCode,
		SalePrice:        a.SalePrice,
		LastPurchaseDate: a.LastPurchaseDate,

		ClearLastPurchaseDate: fs.Changed("last-purchase") && f.lastPurchase == "",
	}
	if fs.Changed("supply-cost") {
		req.SupplyCost = &a.SupplyCost
	}
	if fs.Changed("label-cost") {
		req.LabelCost = &a.LabelCost
	}
	if fs.Changed("packaging-cost") {
		req.PackagingCost = &a.PackagingCost
	}
	if fs.Changed("tax") {
		req.TaxPercent = &a.TaxPercent
	}
	return req, nil
}

func newPartCmd(c *cli) *cobra.Command {
	cmd := &cobra.Command{Use: "part", Short: "Manage part variants"}
	cmd.AddCommand(
		newPartCreateCmd(c),
		newPartVariationCmd(c),
		newPartGetCmd(c),
		newPartFindCmd(c),
		newPartSearchCmd(c),
		newPartUpdateCmd(c),
		newPartDeleteCmd(c),
		newPartImagesCmd(c),
	)
	return cmd
}

func newPartCreateCmd(c *cli) *cobra.Command {
	var (
		req   dto.CreatePartRequest
		attrs attributeFlags
	)
	cmd := &cobra.Command{
		Use:   "create",
		Short: "Create a part under a new base code",
		Args:  exactArgs(0),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := attrs.attributes(cmd.Flags())
			if err != nil {
				return err
			}
			req.PartAttributes = a
			svc, err := c.services()
			if err != nil {
				return err
			}
			resp, err := svc.Catalog.CreatePart(cmd.Context(), req)
			if err != nil {
				return err
			}
			return printJSON(cmd, resp)
		},
	}
	fs := cmd.Flags()
	fs.IntVarP(&req.ManufacturerCode, "manufacturer", "m", 0, "manufacturer code")
	fs.StringVar(&req.ModelName, "model", "", "vehicle model name, created when missing")
	fs.StringVar(&req.ItemName, "item", "", "item name")
	fs.StringVar(&req.Variation, "variation", "N", "N new, R repaired, P refurbished with parts")
	fs.IntVar(&req.InitialQuantity, "qty", 0, "opening stock")
	fs.StringSliceVar(&req.ImageURLs, "image", nil, "image URL, repeatable")
	attrs.register(fs)
	_ = cmd.MarkFlagRequired("manufacturer")
	_ = cmd.MarkFlagRequired("model")
	_ = cmd.MarkFlagRequired("item")
	return cmd
}

func newPartVariationCmd(c *cli) *cobra.Command {
	var (
		req   dto.CreateVariationRequest
		attrs attributeFlags
	)
	cmd := &cobra.Command{
		Use:   "variation BASE_CODE",
		Short: "Add another condition of an existing item",
		Args:  exactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := attrs.attributes(cmd.Flags())
			if err != nil {
				return err
			}
			req.BaseCode = args[0]
			req.PartAttributes = a
			svc, err := c.services()
			if err != nil {
				return err
			}
			resp, err := svc.Catalog.CreateVariation(cmd.Context(), req)
			if err != nil {
				return err
			}
			return printJSON(cmd, resp)
		},
	}
	fs := cmd.Flags()
	fs.StringVar(&req.Variation, "variation", "", "N, R or P")
	fs.IntVar(&req.InitialQuantity, "qty", 0, "opening stock")
	fs.StringSliceVar(&req.ImageURLs, "image", nil, "image URL, repeatable")
	attrs.register(fs)
	_ = cmd.MarkFlagRequired("variation")
	return cmd
}

func newPartGetCmd(c *cli) *cobra.Command {
	return &cobra.Command{
		Use:   "get ID",
		Short: "Show a part by id",
		Args:  exactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID("id", args[0])
			if err != nil {
				return err
			}
			svc, err := c.services()
			if err != nil {
				return err
			}
			resp, err := svc.Catalog.GetPart(cmd.Context(), id)
			if err != nil {
				return err
			}
			return printJSON(cmd, resp)
		},
	}
}

func newPartFindCmd(c *cli) *cobra.Command {
	return &cobra.Command{
		Use:   "find VARIANT_CODE",
		Short: "Show a part by variant code",
		Args:  exactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			svc, err := c.services()
			if err != nil {
				return err
			}
			resp, err := svc.Catalog.GetPartByVariantCode(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			return printJSON(cmd, resp)
		},
	}
}

func newPartSearchCmd(c *cli) *cobra.Command {
	var filter dto.PartFilter
	cmd := &cobra.Command{
		Use:   "search [TERM]",
		Short: "Search parts by code, name, description or OEM code",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if len(args) == 1 {
				filter.Term = args[0]
			}
			svc, err := c.services()
			if err != nil {
				return err
			}
			resp, err := svc.Catalog.SearchParts(cmd.Context(), filter)
			if err != nil {
				return err
			}
			return printJSON(cmd, resp)
		},
	}
	cmd.Flags().IntVar(&filter.Page, "page", 1, "page number")
	cmd.Flags().IntVar(&filter.Limit, "limit", 50, "page size")
	return cmd
}

func newPartUpdateCmd(c *cli) *cobra.Command {
	var attrs attributeFlags
	cmd := &cobra.Command{
		Use:   "update ID",
		Short: "Edit commercial attributes; an empty --description, --oem or --last-purchase clears it",
		Args:  exactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID("id", args[0])
			if err != nil {
				return err
			}
			req, err := attrs.patch(cmd.Flags())
			if err != nil {
				return err
			}
			svc, err := c.services()
			if err != nil {
				return err
			}
			resp, err := svc.Catalog.UpdatePart(cmd.Context(), id, req)
			if err != nil {
				return err
			}
			return printJSON(cmd, resp)
		},
	}
	attrs.register(cmd.Flags())
	return cmd
}

func newPartDeleteCmd(c *cli) *cobra.Command {
	return &cobra.Command{
		Use:   "delete ID",
		Short: "Delete a part with its movements and images",
		Args:  exactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID("id", args[0])
			if err != nil {
				return err
			}
			svc, err := c.services()
			if err != nil {
				return err
			}
			if err := svc.Catalog.DeletePart(cmd.Context(), id); err != nil {
				return err
			}
			return printJSON(cmd, map[string]uint{"deleted": id})
		},
	}
}

func newPartImagesCmd(c *cli) *cobra.Command {
	return &cobra.Command{
		Use:   "images ID URL...",
		Short: "Attach image URLs to a part",
		Args: func(cmd *cobra.Command, args []string) error {
			if len(args) < 2 {
				return apierror.New(apierror.KindValidation, "%s needs a part id and at least one URL", cmd.CommandPath())
			}
			return nil
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID("id", args[0])
			if err != nil {
				return err
			}
			svc, err := c.services()
			if err != nil {
				return err
			}
			resp, err := svc.Catalog.AttachImages(cmd.Context(), id, dto.AttachImagesRequest{URLs: args[1:]})
			if err != nil {
				return err
			}
			return printJSON(cmd, resp)
		},
	}
}

package service

import (
	"context"
	"strings"
	"time"

	"gestorpecas/internal/apierror"
	"gestorpecas/internal/dto"
	"gestorpecas/internal/model"
	"gestorpecas/internal/partcode"
	"gestorpecas/internal/repository"

	"github.com/rs/zerolog/log"
	"gorm.io/gorm"
)

const initialStockNote = "initial stock"

// ── CreatePart ────────────────────────────────────────────────────────────────
// One transaction:
//   1. resolve manufacturer, get or create the model
//   2. allocate the item sequence and compose the codes
//   3. insert, then derive the retail code from the new id
//   4. images and the opening inflow movement
// Any failure rolls back all of it, sequence counters included.

func (s *catalogService) CreatePart(ctx context.Context, req dto.CreatePartRequest) (*dto.PartResponse, error) {
	req.ModelName = normalizeName(req.ModelName)
	req.ItemName = normalizeName(req.ItemName)
	req.ImageURLs = trimAll(req.ImageURLs)
	normalizeAttributes(&req.PartAttributes)
	if err := validateStruct(req); err != nil {
		return nil, err
	}
	if err := checkInitialQuantity(req.InitialQuantity); err != nil {
		return nil, err
	}
	kind := model.VariationKind(req.Variation)

	var (
		part *model.Part
		resp *dto.PartResponse
	)
	err := s.run.runTx(ctx, func(tx *gorm.DB) error {
		mfr, err := s.repos.Manufacturers.FindByCodeTx(tx, req.ManufacturerCode)
		if err != nil {
			return notFound(err, manufacturerNotFound(req.ManufacturerCode))
		}
		vm, err := s.getOrCreateModelTx(tx, mfr, req.ModelName)
		if err != nil {
			return err
		}
		itemSeq, err := s.repos.Sequences.NextItemSequenceTx(tx, mfr, vm)
		if err != nil {
			return err
		}

		base := partcode.ComposeBaseCode(mfr.Code, vm.Sequence, itemSeq)
		part = &model.Part{
			ManufacturerID: mfr.ID,
			VehicleModelID: vm.ID,
			ItemName:       req.ItemName,
			Variation:      kind,
			ItemSequence:   itemSeq,
			BaseCode:       base,
			VariantCode:    partcode.ComposeVariantCode(base, kind),
		}
		applyAttributes(part, req.PartAttributes)
		if err := s.insertPartTx(tx, part, req.InitialQuantity, req.ImageURLs); err != nil {
			return err
		}
		resp, err = loadPartResponseTx(tx, s.repos, part.ID)
		return err
	})
	if err != nil {
		return nil, err
	}

	log.Info().Uint("part_id", part.ID).Str("variant_code", part.VariantCode).Msg("part created")
	return resp, nil
}

// CreateVariation files another condition of an item that already has a base
// code. Identity comes from the oldest existing variant.
func (s *catalogService) CreateVariation(ctx context.Context, req dto.CreateVariationRequest) (*dto.PartResponse, error) {
	req.BaseCode = strings.TrimSpace(req.BaseCode)
	req.ImageURLs = trimAll(req.ImageURLs)
	normalizeAttributes(&req.PartAttributes)
	if err := validateStruct(req); err != nil {
		return nil, err
	}
	if err := checkInitialQuantity(req.InitialQuantity); err != nil {
		return nil, err
	}
	kind := model.VariationKind(req.Variation)

	var (
		part *model.Part
		resp *dto.PartResponse
	)
	err := s.run.runTx(ctx, func(tx *gorm.DB) error {
		base, err := s.repos.Parts.FindBaseTx(tx, req.BaseCode)
		if err != nil {
			return notFound(err, apierror.New(apierror.KindNotFound, "no part with base code %s", req.BaseCode))
		}
		part = &model.Part{
			ManufacturerID: base.ManufacturerID,
			VehicleModelID: base.VehicleModelID,
			ItemName:       base.ItemName,
			Variation:      kind,
			ItemSequence:   base.ItemSequence,
			BaseCode:       base.BaseCode,
			VariantCode:    partcode.ComposeVariantCode(base.BaseCode, kind),
		}
		applyAttributes(part, req.PartAttributes)
		if err := s.insertPartTx(tx, part, req.InitialQuantity, req.ImageURLs); err != nil {
			return err
		}
		resp, err = loadPartResponseTx(tx, s.repos, part.ID)
		return err
	})
	if err != nil {
		return nil, err
	}

	log.Info().Uint("part_id", part.ID).Str("variant_code", part.VariantCode).Msg("part variation created")
	return resp, nil
}

func (s *catalogService) insertPartTx(tx *gorm.DB, part *model.Part, initialQty int, imageURLs []string) error {
	exists, err := s.repos.Parts.VariantCodeExistsTx(tx, part.VariantCode)
	if err != nil {
		return err
	}
	if exists {
		return duplicateVariant(part.VariantCode)
	}
	if err := s.repos.Parts.CreateTx(tx, part); err != nil {
		if repository.IsUniqueViolation(err) {
			return duplicateVariant(part.VariantCode)
		}
		return err
	}

	if code, ok := partcode.DeriveRetailCode(part.ID); ok {
		if err := s.repos.Parts.SetRetailCodeTx(tx, part.ID, code); err != nil {
			return err
		}
		part.RetailCode = &code
	}

	if len(imageURLs) > 0 {
		images := make([]model.PartImage, len(imageURLs))
		for i, u := range imageURLs {
			images[i] = model.PartImage{PartID: part.ID, URL: u}
		}
		if err := s.repos.Parts.CreateImagesTx(tx, images); err != nil {
			return err
		}
	}

	if initialQty > 0 {
		note := initialStockNote
		if _, err := applyMovementTx(tx, s.repos, part.ID, model.MovementInflow, initialQty, &note); err != nil {
			return err
		}
	}
	return nil
}

func duplicateVariant(code string) error {
	return apierror.New(apierror.KindDuplicateVariantCode, "variant code %s already exists", code)
}

// ── Reads ────────────────────────────────────────────────────────────────────

func (s *catalogService) GetPart(ctx context.Context, id uint) (*dto.PartResponse, error) {
	var resp *dto.PartResponse
	err := s.run.read(ctx, func(ctx context.Context) error {
		var err error
		resp, err = loadPartResponse(ctx, s.repos, id)
		return err
	})
	return resp, err
}

func (s *catalogService) GetPartByVariantCode(ctx context.Context, code string) (*dto.PartResponse, error) {
	code = strings.ToUpper(strings.TrimSpace(code))

	var cached dto.PartResponse
	if s.cache.Get(ctx, code, &cached) {
		return &cached, nil
	}

	var resp *dto.PartResponse
	err := s.run.read(ctx, func(ctx context.Context) error {
		p, err := s.repos.Parts.FindByVariantCode(ctx, code)
		if err != nil {
			return notFound(err, apierror.ErrPartNotFound)
		}
		images, err := s.repos.Parts.ListImages(ctx, p.ID)
		if err != nil {
			return err
		}
		resp = partToResponse(p, images)
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.cache.Set(ctx, code, resp)
	return resp, nil
}

func (s *catalogService) SearchParts(ctx context.Context, filter dto.PartFilter) (*dto.PartListResponse, error) {
	filter.Page, filter.Limit = pageAndLimit(filter.Page, filter.Limit, 50, s.run.opts.SearchMaxLimit)

	var (
		parts []model.Part
		total int64
	)
	err := s.run.read(ctx, func(ctx context.Context) error {
		var err error
		parts, total, err = s.repos.Parts.List(ctx, filter)
		return err
	})
	if err != nil {
		return nil, err
	}

	data := make([]dto.PartResponse, len(parts))
	for i := range parts {
		data[i] = *partToResponse(&parts[i], nil)
	}
	return &dto.PartListResponse{
		Data:       data,
		Total:      total,
		Page:       filter.Page,
		Limit:      filter.Limit,
		TotalPages: totalPages(total, filter.Limit),
	}, nil
}

// ── Mutations ────────────────────────────────────────────────────────────────

// UpdatePart changes commercial attributes only. Codes, identity and stock
// are out of its reach by construction of the request type.
func (s *catalogService) UpdatePart(ctx context.Context, id uint, req dto.UpdatePartRequest) (*dto.PartResponse, error) {
	req.Description = trimKeepEmpty(req.Description)
	req.OEMCode = trimKeepEmpty(req.OEMCode)
	if err := validateStruct(req); err != nil {
		return nil, err
	}

	fields := updateFields(req)
	var resp *dto.PartResponse
	err := s.run.runTx(ctx, func(tx *gorm.DB) error {
		if _, err := s.repos.Parts.LockByIDTx(tx, id); err != nil {
			return notFound(err, apierror.ErrPartNotFound)
		}
		if len(fields) > 0 {
			if err := s.repos.Parts.UpdateAttributesTx(tx, id, fields); err != nil {
				return err
			}
		}
		var err error
		resp, err = loadPartResponseTx(tx, s.repos, id)
		return err
	})
	if err != nil {
		return nil, err
	}

	s.cache.Invalidate(ctx, resp.VariantCode)
	return resp, nil
}

func (s *catalogService) AttachImages(ctx context.Context, id uint, req dto.AttachImagesRequest) (*dto.PartResponse, error) {
	req.URLs = trimAll(req.URLs)
	if err := validateStruct(req); err != nil {
		return nil, err
	}

	var resp *dto.PartResponse
	err := s.run.runTx(ctx, func(tx *gorm.DB) error {
		if _, err := s.repos.Parts.LockByIDTx(tx, id); err != nil {
			return notFound(err, apierror.ErrPartNotFound)
		}
		images := make([]model.PartImage, len(req.URLs))
		for i, u := range req.URLs {
			images[i] = model.PartImage{PartID: id, URL: u}
		}
		if err := s.repos.Parts.CreateImagesTx(tx, images); err != nil {
			return err
		}
		var err error
		resp, err = loadPartResponseTx(tx, s.repos, id)
		return err
	})
	if err != nil {
		return nil, err
	}

	s.cache.Invalidate(ctx, resp.VariantCode)
	return resp, nil
}

// DeletePart removes a variant with its images, movements and, for a kit,
// its component edges. A part still used as a component is refused and
// nothing is touched.
func (s *catalogService) DeletePart(ctx context.Context, id uint) error {
	var variantCode string
	err := s.run.runTx(ctx, func(tx *gorm.DB) error {
		part, err := s.repos.Parts.LockByIDTx(tx, id)
		if err != nil {
			return notFound(err, apierror.ErrPartNotFound)
		}
		variantCode = part.VariantCode

		refs, err := s.repos.Kits.CountByComponentTx(tx, id)
		if err != nil {
			return err
		}
		if refs > 0 {
			return referencedByKit(part.VariantCode, refs)
		}

		if _, err := s.repos.Kits.DeleteByKitTx(tx, id); err != nil {
			return err
		}
		if err := s.repos.Movements.DeleteByPartTx(tx, id); err != nil {
			return err
		}
		if err := s.repos.Parts.DeleteImagesTx(tx, id); err != nil {
			return err
		}
		if err := s.repos.Parts.DeleteTx(tx, id); err != nil {
			if repository.IsForeignKeyViolation(err) {
				return referencedByKit(part.VariantCode, 1)
			}
			return err
		}
		return nil
	})
	if err != nil {
		return err
	}

	s.cache.Invalidate(ctx, variantCode)
	log.Info().Uint("part_id", id).Str("variant_code", variantCode).Msg("part deleted")
	return nil
}

func referencedByKit(code string, refs int64) error {
	return apierror.New(apierror.KindReferencedByKit, "part %s is a component of %d kit(s)", code, refs)
}

// ── Helpers ──────────────────────────────────────────────────────────────────

func normalizeAttributes(a *dto.PartAttributes) {
	a.Description = trimOptional(a.Description)
	a.OEMCode = trimOptional(a.OEMCode)
}

func trimKeepEmpty(s *string) *string {
	if s == nil {
		return nil
	}
	t := strings.TrimSpace(*s)
	return &t
}

func applyAttributes(p *model.Part, a dto.PartAttributes) {
	p.Description = a.Description
	p.OEMCode = a.OEMCode
	p.SupplyCost = a.SupplyCost
	p.LabelCost = a.LabelCost
	p.PackagingCost = a.PackagingCost
	p.TaxPercent = a.TaxPercent
	p.SalePrice = a.SalePrice
	p.LastPurchaseDate = a.LastPurchaseDate
}

func updateFields(req dto.UpdatePartRequest) map[string]interface{} {
	fields := make(map[string]interface{})
	nullable := func(col string, v *string) {
		if v == nil {
			return
		}
		if *v == "" {
			fields[col] = gorm.Expr("NULL")
			return
		}
		fields[col] = *v
	}
	nullable("description", req.Description)
	nullable("oem_code", req.OEMCode)
	if req.SupplyCost != nil {
		fields["supply_cost"] = *req.SupplyCost
	}
	if req.LabelCost != nil {
		fields["label_cost"] = *req.LabelCost
	}
	if req.PackagingCost != nil {
		fields["packaging_cost"] = *req.PackagingCost
	}
	if req.TaxPercent != nil {
		fields["tax_percent"] = *req.TaxPercent
	}
	if req.SalePrice != nil {
		fields["sale_price"] = *req.SalePrice
	}
	switch {
	case req.ClearLastPurchaseDate:
		fields["last_purchase_date"] = gorm.Expr("NULL")
	case req.LastPurchaseDate != nil:
		fields["last_purchase_date"] = *req.LastPurchaseDate
	}
	return fields
}

func loadPartResponse(ctx context.Context, repos repository.Repositories, id uint) (*dto.PartResponse, error) {
	return loadPartResponseTx(repos.Parts.DB().WithContext(ctx), repos, id)
}

// loadPartResponseTx reads the part back on tx. Writes build their result
// this way so that once the commit succeeds there is nothing left to fail.
func loadPartResponseTx(tx *gorm.DB, repos repository.Repositories, id uint) (*dto.PartResponse, error) {
	p, err := repos.Parts.FindByIDTx(tx, id)
	if err != nil {
		return nil, notFound(err, apierror.ErrPartNotFound)
	}
	images, err := repos.Parts.ListImagesTx(tx, id)
	if err != nil {
		return nil, err
	}
	return partToResponse(p, images), nil
}

func checkInitialQuantity(qty int) error {
	if qty < 0 {
		return apierror.New(apierror.KindInvalidQuantity, "initial quantity must not be negative")
	}
	if qty > maxQuantity {
		return apierror.New(apierror.KindInvalidQuantity, "initial quantity %d exceeds %d", qty, maxQuantity)
	}
	return nil
}

func partToResponse(p *model.Part, images []model.PartImage) *dto.PartResponse {
	resp := &dto.PartResponse{
		ID:            p.ID,
		VariantCode:   p.VariantCode,
		BaseCode:      p.BaseCode,
		Variation:     string(p.Variation),
		RetailCode:    p.RetailCode,
		ItemName:      p.ItemName,
		ItemSequence:  p.ItemSequence,
		Description:   p.Description,
		OEMCode:       p.OEMCode,
		SupplyCost:    p.SupplyCost,
		LabelCost:     p.LabelCost,
		PackagingCost: p.PackagingCost,
		TaxPercent:    p.TaxPercent,
		SalePrice:     p.SalePrice,
		StockQuantity: p.StockQuantity,
		IsKit:         p.IsKit,
		CreatedAt:     p.CreatedAt.Format(time.RFC3339),
		UpdatedAt:     p.UpdatedAt.Format(time.RFC3339),
	}
	if p.Manufacturer != nil {
		resp.ManufacturerCode = p.Manufacturer.Code
		resp.ManufacturerName = p.Manufacturer.Name
	}
	if p.VehicleModel != nil {
		resp.ModelSequence = p.VehicleModel.Sequence
		resp.ModelName = p.VehicleModel.Name
	}
	if p.LastPurchaseDate != nil {
		d := p.LastPurchaseDate.Format("2006-01-02")
		resp.LastPurchaseDate = &d
	}
	for _, img := range images {
		resp.Images = append(resp.Images, img.URL)
	}
	return resp
}

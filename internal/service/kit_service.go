package service

import (
	"context"

	"gestorpecas/internal/apierror"
	"gestorpecas/internal/dto"
	"gestorpecas/internal/infra"
	"gestorpecas/internal/model"
	"gestorpecas/internal/repository"

	"github.com/rs/zerolog/log"
	"gorm.io/gorm"
)

// KitService maintains the one-level kit graph: kit parts point at simple
// component parts with a per-kit quantity.
type KitService interface {
	SetKitFlag(ctx context.Context, req dto.SetKitFlagRequest) (*dto.PartResponse, error)
	AddOrUpdateComponent(ctx context.Context, req dto.KitComponentRequest) (*dto.KitComponentResponse, error)
	RemoveComponent(ctx context.Context, edgeID uint) error
	ListComponents(ctx context.Context, kitPartID uint) (*dto.KitComponentsResponse, error)
}

type kitService struct {
	run   runner
	repos repository.Repositories
	cache *infra.PartCache
}

func NewKitService(repos repository.Repositories, cache *infra.PartCache, opts Options) KitService {
	return &kitService{
		run:   runner{db: repos.Parts.DB(), opts: opts.withDefaults()},
		repos: repos,
		cache: cache,
	}
}

// SetKitFlag turns a part into a kit or back. Clearing the flag drops the
// kit's component edges in the same transaction. Setting it on a part that
// is already some kit's component would nest kits and is refused.
func (s *kitService) SetKitFlag(ctx context.Context, req dto.SetKitFlagRequest) (*dto.PartResponse, error) {
	var (
		resp    *dto.PartResponse
		dropped int64
	)
	err := s.run.runTx(ctx, func(tx *gorm.DB) error {
		dropped = 0
		part, err := s.repos.Parts.LockByIDTx(tx, req.PartID)
		if err != nil {
			return notFound(err, apierror.ErrPartNotFound)
		}
		if part.IsKit != req.IsKit {
			if dropped, err = s.setKitFlagTx(tx, part, req.IsKit); err != nil {
				return err
			}
		}
		resp, err = loadPartResponseTx(tx, s.repos, part.ID)
		return err
	})
	if err != nil {
		return nil, err
	}

	s.cache.Invalidate(ctx, resp.VariantCode)
	if dropped > 0 {
		log.Info().Uint("part_id", req.PartID).Int64("edges", dropped).Msg("kit flag cleared, components removed")
	}
	return resp, nil
}

// setKitFlagTx flips the flag on a locked part and reports how many
// component edges went with it.
func (s *kitService) setKitFlagTx(tx *gorm.DB, part *model.Part, isKit bool) (int64, error) {
	var dropped int64
	if isKit {
		refs, err := s.repos.Kits.CountByComponentTx(tx, part.ID)
		if err != nil {
			return 0, err
		}
		if refs > 0 {
			return 0, apierror.New(apierror.KindNestedKit, "part %s is a component of %d kit(s)", part.VariantCode, refs)
		}
	} else {
		var err error
		if dropped, err = s.repos.Kits.DeleteByKitTx(tx, part.ID); err != nil {
			return 0, err
		}
	}
	return dropped, s.repos.Parts.SetKitFlagTx(tx, part.ID, isKit)
}

// AddOrUpdateComponent is an upsert on (kit, component). Argument checks run
// before the store is touched; both part rows are then locked in id order so
// a concurrent SetKitFlag cannot slip in between the checks and the write.
func (s *kitService) AddOrUpdateComponent(ctx context.Context, req dto.KitComponentRequest) (*dto.KitComponentResponse, error) {
	if req.Quantity <= 0 || req.Quantity > maxQuantity {
		return nil, apierror.New(apierror.KindInvalidQuantity, "component quantity must be between 1 and %d, got %d", maxQuantity, req.Quantity)
	}
	if req.KitPartID == req.ComponentPartID {
		return nil, apierror.New(apierror.KindSelfReference, "part %d cannot be a component of itself", req.KitPartID)
	}

	var (
		edge      *model.KitComponent
		component *model.Part
	)
	err := s.run.runTx(ctx, func(tx *gorm.DB) error {
		kit, comp, err := s.lockPairTx(tx, req.KitPartID, req.ComponentPartID)
		if err != nil {
			return err
		}
		if !kit.IsKit {
			return apierror.New(apierror.KindNotAKit, "part %s is not a kit", kit.VariantCode)
		}
		if comp.IsKit {
			return apierror.New(apierror.KindNestedKit, "part %s is a kit and cannot be a component", comp.VariantCode)
		}
		component = comp

		existing, err := s.repos.Kits.FindPairTx(tx, kit.ID, comp.ID)
		switch {
		case err == nil:
			if err := s.repos.Kits.UpdateQuantityTx(tx, existing.ID, req.Quantity); err != nil {
				return err
			}
			existing.Quantity = req.Quantity
			edge = existing
			return nil
		case !repository.IsNotFound(err):
			return err
		}

		edge = &model.KitComponent{KitPartID: kit.ID, ComponentPartID: comp.ID, Quantity: req.Quantity}
		if err := s.repos.Kits.CreateTx(tx, edge); err != nil {
			if repository.IsUniqueViolation(err) {
				// a concurrent insert won; the retry takes the update path
				return errTxConflict
			}
			return err
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	resp := componentToResponse(edge, component)
	return &resp, nil
}

func (s *kitService) lockPairTx(tx *gorm.DB, kitID, componentID uint) (kit, comp *model.Part, err error) {
	lock := func(id uint) (*model.Part, error) {
		p, err := s.repos.Parts.LockByIDTx(tx, id)
		if err != nil {
			return nil, notFound(err, apierror.New(apierror.KindNotFound, "part %d not found", id))
		}
		return p, nil
	}
	if kitID < componentID {
		if kit, err = lock(kitID); err != nil {
			return nil, nil, err
		}
		comp, err = lock(componentID)
	} else {
		if comp, err = lock(componentID); err != nil {
			return nil, nil, err
		}
		kit, err = lock(kitID)
	}
	if err != nil {
		return nil, nil, err
	}
	return kit, comp, nil
}

func (s *kitService) RemoveComponent(ctx context.Context, edgeID uint) error {
	return s.run.runTx(ctx, func(tx *gorm.DB) error {
		n, err := s.repos.Kits.DeleteTx(tx, edgeID)
		if err != nil {
			return err
		}
		if n == 0 {
			return apierror.New(apierror.KindNotFound, "kit component %d not found", edgeID)
		}
		return nil
	})
}

// ListComponents returns the kit's edges in insertion order, with how many
// whole kits the current component stock can supply.
func (s *kitService) ListComponents(ctx context.Context, kitPartID uint) (*dto.KitComponentsResponse, error) {
	var (
		kit   *model.Part
		edges []model.KitComponent
	)
	err := s.run.read(ctx, func(ctx context.Context) error {
		var err error
		kit, err = s.repos.Parts.FindByID(ctx, kitPartID)
		if err != nil {
			return notFound(err, apierror.ErrPartNotFound)
		}
		edges, err = s.repos.Kits.ListByKit(ctx, kitPartID)
		return err
	})
	if err != nil {
		return nil, err
	}

	resp := &dto.KitComponentsResponse{
		KitPartID:      kit.ID,
		KitVariantCode: kit.VariantCode,
		Components:     make([]dto.KitComponentResponse, len(edges)),
	}
	for i := range edges {
		c := componentToResponse(&edges[i], edges[i].Component)
		resp.Components[i] = c
		if i == 0 || c.KitsCovered < resp.Buildable {
			resp.Buildable = c.KitsCovered
		}
	}
	return resp, nil
}

func componentToResponse(edge *model.KitComponent, comp *model.Part) dto.KitComponentResponse {
	resp := dto.KitComponentResponse{
		ID:              edge.ID,
		KitPartID:       edge.KitPartID,
		ComponentPartID: edge.ComponentPartID,
		Quantity:        edge.Quantity,
	}
	if comp != nil {
		resp.ComponentVariantCode = comp.VariantCode
		resp.ComponentItemName = comp.ItemName
		resp.ComponentStock = comp.StockQuantity
		if comp.StockQuantity > 0 && edge.Quantity > 0 {
			resp.KitsCovered = comp.StockQuantity / edge.Quantity
		}
	}
	return resp
}

package service

import (
	"context"
	"time"

	"gestorpecas/internal/apierror"
	"gestorpecas/internal/dto"
	"gestorpecas/internal/infra"
	"gestorpecas/internal/model"
	"gestorpecas/internal/repository"

	"github.com/rs/zerolog/log"
	"gorm.io/gorm"
)

// CatalogService owns manufacturers, vehicle models and part variants.
type CatalogService interface {
	CreateManufacturer(ctx context.Context, req dto.CreateManufacturerRequest) (*dto.ManufacturerResponse, error)
	GetManufacturer(ctx context.Context, code int) (*dto.ManufacturerResponse, error)
	ListManufacturers(ctx context.Context, page, limit int) (*dto.ManufacturerListResponse, error)
	GetOrCreateModel(ctx context.Context, req dto.EnsureModelRequest) (*dto.VehicleModelResponse, error)
	ListModels(ctx context.Context, manufacturerCode int) ([]dto.VehicleModelResponse, error)

	CreatePart(ctx context.Context, req dto.CreatePartRequest) (*dto.PartResponse, error)
	CreateVariation(ctx context.Context, req dto.CreateVariationRequest) (*dto.PartResponse, error)
	GetPart(ctx context.Context, id uint) (*dto.PartResponse, error)
	GetPartByVariantCode(ctx context.Context, code string) (*dto.PartResponse, error)
	SearchParts(ctx context.Context, filter dto.PartFilter) (*dto.PartListResponse, error)
	UpdatePart(ctx context.Context, id uint, req dto.UpdatePartRequest) (*dto.PartResponse, error)
	AttachImages(ctx context.Context, id uint, req dto.AttachImagesRequest) (*dto.PartResponse, error)
	DeletePart(ctx context.Context, id uint) error
}

type catalogService struct {
	run   runner
	repos repository.Repositories
	cache *infra.PartCache
}

func NewCatalogService(repos repository.Repositories, cache *infra.PartCache, opts Options) CatalogService {
	return &catalogService{
		run:   runner{db: repos.Parts.DB(), opts: opts.withDefaults()},
		repos: repos,
		cache: cache,
	}
}

// ── Manufacturers ─────────────────────────────────────────────────────────────

func (s *catalogService) CreateManufacturer(ctx context.Context, req dto.CreateManufacturerRequest) (*dto.ManufacturerResponse, error) {
	req.Name = normalizeName(req.Name)
	if err := validateStruct(req); err != nil {
		return nil, err
	}

	var m model.Manufacturer
	err := s.run.runTx(ctx, func(tx *gorm.DB) error {
		if _, err := s.repos.Manufacturers.FindByNameTx(tx, req.Name); err == nil {
			return apierror.New(apierror.KindDuplicateName, "manufacturer %q already exists", req.Name)
		} else if !repository.IsNotFound(err) {
			return err
		}

		code, err := s.repos.Sequences.NextManufacturerCodeTx(tx)
		if err != nil {
			return err
		}
		m = model.Manufacturer{Code: code, Name: req.Name}
		if err := s.repos.Manufacturers.CreateTx(tx, &m); err != nil {
			if repository.IsUniqueViolation(err) {
				return apierror.New(apierror.KindDuplicateName, "manufacturer %q already exists", req.Name)
			}
			return err
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	log.Info().Int("code", m.Code).Str("name", m.Name).Msg("manufacturer created")
	return manufacturerToResponse(&m), nil
}

func (s *catalogService) GetManufacturer(ctx context.Context, code int) (*dto.ManufacturerResponse, error) {
	var m *model.Manufacturer
	err := s.run.read(ctx, func(ctx context.Context) error {
		var err error
		m, err = s.repos.Manufacturers.FindByCode(ctx, code)
		return notFound(err, manufacturerNotFound(code))
	})
	if err != nil {
		return nil, err
	}
	return manufacturerToResponse(m), nil
}

func (s *catalogService) ListManufacturers(ctx context.Context, page, limit int) (*dto.ManufacturerListResponse, error) {
	page, limit = pageAndLimit(page, limit, 50, s.run.opts.SearchMaxLimit)

	var (
		rows  []model.Manufacturer
		total int64
	)
	err := s.run.read(ctx, func(ctx context.Context) error {
		var err error
		rows, total, err = s.repos.Manufacturers.List(ctx, page, limit)
		return err
	})
	if err != nil {
		return nil, err
	}

	data := make([]dto.ManufacturerResponse, len(rows))
	for i := range rows {
		data[i] = *manufacturerToResponse(&rows[i])
	}
	return &dto.ManufacturerListResponse{
		Data:       data,
		Total:      total,
		Page:       page,
		Limit:      limit,
		TotalPages: totalPages(total, limit),
	}, nil
}

// ── Vehicle models ────────────────────────────────────────────────────────────

func (s *catalogService) GetOrCreateModel(ctx context.Context, req dto.EnsureModelRequest) (*dto.VehicleModelResponse, error) {
	req.Name = normalizeName(req.Name)
	if err := validateStruct(req); err != nil {
		return nil, err
	}

	var (
		mfr *model.Manufacturer
		vm  *model.VehicleModel
	)
	err := s.run.runTx(ctx, func(tx *gorm.DB) error {
		var err error
		mfr, err = s.repos.Manufacturers.FindByCodeTx(tx, req.ManufacturerCode)
		if err != nil {
			return notFound(err, manufacturerNotFound(req.ManufacturerCode))
		}
		vm, err = s.getOrCreateModelTx(tx, mfr, req.Name)
		return err
	})
	if err != nil {
		return nil, err
	}
	return modelToResponse(vm, mfr.Code), nil
}

// getOrCreateModelTx returns the model named name, creating it with the next
// sequence when absent. Losing the insert to a concurrent creator rolls the
// whole attempt back, sequence included; the retry then finds the winner.
func (s *catalogService) getOrCreateModelTx(tx *gorm.DB, mfr *model.Manufacturer, name string) (*model.VehicleModel, error) {
	vm, err := s.repos.Models.FindByNameTx(tx, mfr.ID, name)
	if err == nil {
		return vm, nil
	}
	if !repository.IsNotFound(err) {
		return nil, err
	}

	seq, err := s.repos.Sequences.NextModelSequenceTx(tx, mfr)
	if err != nil {
		return nil, err
	}
	vm = &model.VehicleModel{ManufacturerID: mfr.ID, Name: name, Sequence: seq}
	created, err := s.repos.Models.InsertIfAbsentTx(tx, vm)
	if err != nil {
		return nil, err
	}
	if !created {
		return nil, errTxConflict
	}
	return vm, nil
}

func (s *catalogService) ListModels(ctx context.Context, manufacturerCode int) ([]dto.VehicleModelResponse, error) {
	var models []model.VehicleModel
	err := s.run.read(ctx, func(ctx context.Context) error {
		mfr, err := s.repos.Manufacturers.FindByCode(ctx, manufacturerCode)
		if err != nil {
			return notFound(err, manufacturerNotFound(manufacturerCode))
		}
		models, err = s.repos.Models.ListByManufacturer(ctx, mfr.ID)
		return err
	})
	if err != nil {
		return nil, err
	}

	out := make([]dto.VehicleModelResponse, len(models))
	for i := range models {
		out[i] = *modelToResponse(&models[i], manufacturerCode)
	}
	return out, nil
}

// ── Mapping ──────────────────────────────────────────────────────────────────

func manufacturerNotFound(code int) error {
	return apierror.New(apierror.KindNotFound, "manufacturer %d not found", code)
}

func manufacturerToResponse(m *model.Manufacturer) *dto.ManufacturerResponse {
	return &dto.ManufacturerResponse{
		ID:        m.ID,
		Code:      m.Code,
		Name:      m.Name,
		CreatedAt: m.CreatedAt.Format(time.RFC3339),
	}
}

func modelToResponse(vm *model.VehicleModel, manufacturerCode int) *dto.VehicleModelResponse {
	return &dto.VehicleModelResponse{
		ID:               vm.ID,
		ManufacturerCode: manufacturerCode,
		Name:             vm.Name,
		Sequence:         vm.Sequence,
	}
}

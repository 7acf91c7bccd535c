package service

import (
	"context"
	"math"
	"time"

	"gestorpecas/internal/apierror"
	"gestorpecas/internal/dto"
	"gestorpecas/internal/infra"
	"gestorpecas/internal/model"
	"gestorpecas/internal/repository"

	"github.com/rs/zerolog/log"
	"gorm.io/gorm"
)

// StockService is the only writer of part stock quantities. Every change is
// paired with a movement row in the same transaction.
type StockService interface {
	RecordMovement(ctx context.Context, req dto.RecordMovementRequest) (*dto.PartResponse, error)
	History(ctx context.Context, filter dto.MovementFilter) (*dto.MovementListResponse, error)
}

type stockService struct {
	run   runner
	repos repository.Repositories
	cache *infra.PartCache
}

func NewStockService(repos repository.Repositories, cache *infra.PartCache, opts Options) StockService {
	return &stockService{
		run:   runner{db: repos.Parts.DB(), opts: opts.withDefaults()},
		repos: repos,
		cache: cache,
	}
}

func (s *stockService) RecordMovement(ctx context.Context, req dto.RecordMovementRequest) (*dto.PartResponse, error) {
	req.Note = trimOptional(req.Note)
	if err := validateStruct(req); err != nil {
		return nil, err
	}
	kind := model.MovementKind(req.Kind)
	if err := checkMovementQuantity(kind, req.Quantity); err != nil {
		return nil, err
	}

	var (
		mov  *model.StockMovement
		resp *dto.PartResponse
	)
	err := s.run.runTx(ctx, func(tx *gorm.DB) error {
		var err error
		mov, err = applyMovementTx(tx, s.repos, req.PartID, kind, req.Quantity, req.Note)
		if err != nil {
			return err
		}
		resp, err = loadPartResponseTx(tx, s.repos, req.PartID)
		return err
	})
	if err != nil {
		return nil, err
	}

	s.cache.Invalidate(ctx, resp.VariantCode)
	log.Debug().Uint("part_id", req.PartID).Str("kind", string(kind)).
		Int("before", mov.StockBefore).Int("after", mov.StockAfter).Msg("stock movement recorded")
	return resp, nil
}

func (s *stockService) History(ctx context.Context, filter dto.MovementFilter) (*dto.MovementListResponse, error) {
	if err := validateStruct(filter); err != nil {
		return nil, err
	}
	filter.Page, filter.Limit = pageAndLimit(filter.Page, filter.Limit, 50, 500)

	var (
		rows  []model.StockMovement
		total int64
	)
	err := s.run.read(ctx, func(ctx context.Context) error {
		if _, err := s.repos.Parts.FindByID(ctx, filter.PartID); err != nil {
			return notFound(err, apierror.ErrPartNotFound)
		}
		var err error
		rows, total, err = s.repos.Movements.List(ctx, repository.MovementFilter{
			PartID: filter.PartID,
			Kind:   model.MovementKind(filter.Kind),
			Page:   filter.Page,
			Limit:  filter.Limit,
		})
		return err
	})
	if err != nil {
		return nil, err
	}

	data := make([]dto.MovementResponse, len(rows))
	for i := range rows {
		data[i] = movementToResponse(&rows[i])
	}
	return &dto.MovementListResponse{
		Data:       data,
		Total:      total,
		Page:       filter.Page,
		Limit:      filter.Limit,
		TotalPages: totalPages(total, filter.Limit),
	}, nil
}

// Quantities and stock live in INTEGER columns.
const (
	maxQuantity = math.MaxInt32
	minStock    = math.MinInt32
)

// checkMovementQuantity runs before any store access. Inflow and outflow
// move at least one unit; a correction may set zero.
func checkMovementQuantity(kind model.MovementKind, qty int) error {
	if qty > maxQuantity {
		return apierror.New(apierror.KindInvalidQuantity, "quantity %d exceeds %d", qty, maxQuantity)
	}
	switch kind {
	case model.MovementInflow, model.MovementOutflow:
		if qty <= 0 {
			return apierror.New(apierror.KindInvalidQuantity, "%s quantity must be positive, got %d", kind, qty)
		}
	case model.MovementCorrection:
		if qty < 0 {
			return apierror.New(apierror.KindInvalidQuantity, "correction quantity must not be negative, got %d", qty)
		}
	default:
		return apierror.New(apierror.KindValidation, "unknown movement kind %q", kind)
	}
	return nil
}

// applyMovementTx locks the part, writes the new quantity and appends the
// movement, all on tx. Stock may go negative; that is logged, not refused.
func applyMovementTx(tx *gorm.DB, repos repository.Repositories, partID uint, kind model.MovementKind, qty int, note *string) (*model.StockMovement, error) {
	if err := checkMovementQuantity(kind, qty); err != nil {
		return nil, err
	}
	part, err := repos.Parts.LockByIDTx(tx, partID)
	if err != nil {
		return nil, notFound(err, apierror.ErrPartNotFound)
	}

	before := part.StockQuantity
	after := qty
	switch kind {
	case model.MovementInflow:
		after = before + qty
	case model.MovementOutflow:
		after = before - qty
	}
	if after > maxQuantity || after < minStock {
		return nil, apierror.New(apierror.KindInvalidQuantity,
			"%s of %d would take stock of part %s to %d", kind, qty, part.VariantCode, after)
	}

	if kind == model.MovementCorrection {
		err = repos.Parts.SetStockTx(tx, partID, qty)
	} else {
		err = repos.Parts.UpdateStockTx(tx, partID, after-before)
	}
	if err != nil {
		return nil, outOfRange(err, partID)
	}

	mov := &model.StockMovement{
		PartID:      partID,
		Kind:        kind,
		Quantity:    qty,
		StockBefore: before,
		StockAfter:  after,
		Note:        note,
	}
	if err := repos.Movements.CreateTx(tx, mov); err != nil {
		return nil, outOfRange(err, partID)
	}

	if after < 0 {
		log.Warn().Uint("part_id", partID).Str("variant_code", part.VariantCode).
			Int("stock", after).Msg("stock below zero")
	}
	return mov, nil
}

// outOfRange turns a column overflow the store reports into a permanent
// quantity error.
func outOfRange(err error, partID uint) error {
	if repository.IsOutOfRange(err) {
		return apierror.New(apierror.KindInvalidQuantity, "stock of part %d out of range", partID)
	}
	return err
}

func movementToResponse(m *model.StockMovement) dto.MovementResponse {
	return dto.MovementResponse{
		ID:          m.ID,
		PartID:      m.PartID,
		Kind:        string(m.Kind),
		Quantity:    m.Quantity,
		StockBefore: m.StockBefore,
		StockAfter:  m.StockAfter,
		Note:        m.Note,
		CreatedAt:   m.CreatedAt.Format(time.RFC3339),
	}
}

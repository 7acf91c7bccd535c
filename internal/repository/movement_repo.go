package repository

import (
	"context"

	"gestorpecas/internal/model"

	"gorm.io/gorm"
)

// MovementFilter defines filters for listing stock movements.
type MovementFilter struct {
	PartID uint
	Kind   model.MovementKind
	Page   int
	Limit  int
}

type StockMovementRepository interface {
	CreateTx(tx *gorm.DB, m *model.StockMovement) error
	// List is newest first. Order is by id, which follows commit order of
	// the per-part lock; created_at comes from the writer's clock.
	List(ctx context.Context, filter MovementFilter) ([]model.StockMovement, int64, error)
	DeleteByPartTx(tx *gorm.DB, partID uint) error
}

type stockMovementRepo struct{ db *gorm.DB }

func NewStockMovementRepository(db *gorm.DB) StockMovementRepository {
	return &stockMovementRepo{db: db}
}

func (r *stockMovementRepo) CreateTx(tx *gorm.DB, m *model.StockMovement) error {
	return tx.Omit("Part").Create(m).Error
}

func (r *stockMovementRepo) List(ctx context.Context, filter MovementFilter) ([]model.StockMovement, int64, error) {
	q := r.db.WithContext(ctx).Model(&model.StockMovement{}).Where("part_id = ?", filter.PartID)
	if filter.Kind != "" {
		q = q.Where("kind = ?", filter.Kind)
	}

	var total int64
	if err := q.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	page := filter.Page
	limit := filter.Limit
	if page < 1 {
		page = 1
	}
	if limit < 1 || limit > 500 {
		limit = 100
	}
	offset := (page - 1) * limit

	var movements []model.StockMovement
	err := q.Order("id DESC").Offset(offset).Limit(limit).Find(&movements).Error
	return movements, total, err
}

func (r *stockMovementRepo) DeleteByPartTx(tx *gorm.DB, partID uint) error {
	return tx.Where("part_id = ?", partID).Delete(&model.StockMovement{}).Error
}

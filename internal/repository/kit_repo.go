package repository

import (
	"context"

	"gestorpecas/internal/model"

	"gorm.io/gorm"
)

// KitComponentRepository stores the kit -> component edges.
type KitComponentRepository interface {
	FindPairTx(tx *gorm.DB, kitID, componentID uint) (*model.KitComponent, error)
	CreateTx(tx *gorm.DB, kc *model.KitComponent) error
	UpdateQuantityTx(tx *gorm.DB, id uint, qty int) error
	// DeleteTx reports how many rows went away (0 or 1).
	DeleteTx(tx *gorm.DB, id uint) (int64, error)
	DeleteByKitTx(tx *gorm.DB, kitID uint) (int64, error)
	CountByComponentTx(tx *gorm.DB, componentID uint) (int64, error)
	// ListByKit orders edges by id and preloads each component part.
	ListByKit(ctx context.Context, kitID uint) ([]model.KitComponent, error)
}

type kitComponentRepo struct{ db *gorm.DB }

func NewKitComponentRepository(db *gorm.DB) KitComponentRepository {
	return &kitComponentRepo{db: db}
}

func (r *kitComponentRepo) FindPairTx(tx *gorm.DB, kitID, componentID uint) (*model.KitComponent, error) {
	var kc model.KitComponent
	err := tx.Where("kit_part_id = ? AND component_part_id = ?", kitID, componentID).Take(&kc).Error
	if err != nil {
		return nil, err
	}
	return &kc, nil
}

func (r *kitComponentRepo) CreateTx(tx *gorm.DB, kc *model.KitComponent) error {
	return tx.Omit("Kit", "Component").Create(kc).Error
}

func (r *kitComponentRepo) UpdateQuantityTx(tx *gorm.DB, id uint, qty int) error {
	return tx.Model(&model.KitComponent{}).Where("id = ?", id).Update("quantity", qty).Error
}

func (r *kitComponentRepo) DeleteTx(tx *gorm.DB, id uint) (int64, error) {
	res := tx.Delete(&model.KitComponent{}, id)
	return res.RowsAffected, res.Error
}

func (r *kitComponentRepo) DeleteByKitTx(tx *gorm.DB, kitID uint) (int64, error) {
	res := tx.Where("kit_part_id = ?", kitID).Delete(&model.KitComponent{})
	return res.RowsAffected, res.Error
}

func (r *kitComponentRepo) CountByComponentTx(tx *gorm.DB, componentID uint) (int64, error) {
	var n int64
	err := tx.Model(&model.KitComponent{}).Where("component_part_id = ?", componentID).Count(&n).Error
	return n, err
}

func (r *kitComponentRepo) ListByKit(ctx context.Context, kitID uint) ([]model.KitComponent, error) {
	var edges []model.KitComponent
	err := r.db.WithContext(ctx).
		Preload("Component").
		Where("kit_part_id = ?", kitID).
		Order("id ASC").
		Find(&edges).Error
	return edges, err
}

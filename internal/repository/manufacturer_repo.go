package repository

import (
	"context"

	"gestorpecas/internal/model"

	"gorm.io/gorm"
)

// ManufacturerRepository defines the data access contract for manufacturers.
type ManufacturerRepository interface {
	CreateTx(tx *gorm.DB, m *model.Manufacturer) error
	FindByCode(ctx context.Context, code int) (*model.Manufacturer, error)
	FindByCodeTx(tx *gorm.DB, code int) (*model.Manufacturer, error)
	// FindByNameTx expects the normalized name.
	FindByNameTx(tx *gorm.DB, name string) (*model.Manufacturer, error)
	List(ctx context.Context, page, limit int) ([]model.Manufacturer, int64, error)

	// DB exposes the underlying *gorm.DB so services can open transactions.
	DB() *gorm.DB
}

type manufacturerRepo struct{ db *gorm.DB }

func NewManufacturerRepository(db *gorm.DB) ManufacturerRepository {
	return &manufacturerRepo{db: db}
}

func (r *manufacturerRepo) CreateTx(tx *gorm.DB, m *model.Manufacturer) error {
	return tx.Create(m).Error
}

func (r *manufacturerRepo) FindByCode(ctx context.Context, code int) (*model.Manufacturer, error) {
	return r.FindByCodeTx(r.db.WithContext(ctx), code)
}

func (r *manufacturerRepo) FindByCodeTx(tx *gorm.DB, code int) (*model.Manufacturer, error) {
	var m model.Manufacturer
	if err := tx.Where("code = ?", code).Take(&m).Error; err != nil {
		return nil, err
	}
	return &m, nil
}

func (r *manufacturerRepo) FindByNameTx(tx *gorm.DB, name string) (*model.Manufacturer, error) {
	var m model.Manufacturer
	if err := tx.Where("name = ?", name).Take(&m).Error; err != nil {
		return nil, err
	}
	return &m, nil
}

func (r *manufacturerRepo) List(ctx context.Context, page, limit int) ([]model.Manufacturer, int64, error) {
	q := r.db.WithContext(ctx).Model(&model.Manufacturer{})

	var total int64
	if err := q.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var out []model.Manufacturer
	err := q.Order("code ASC").
		Offset((page - 1) * limit).Limit(limit).Find(&out).Error
	return out, total, err
}

func (r *manufacturerRepo) DB() *gorm.DB { return r.db }

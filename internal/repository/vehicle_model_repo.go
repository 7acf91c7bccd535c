package repository

import (
	"context"

	"gestorpecas/internal/model"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type VehicleModelRepository interface {
	FindByNameTx(tx *gorm.DB, manufacturerID uint, name string) (*model.VehicleModel, error)
	// InsertIfAbsentTx reports false, without error, when a row with the same
	// manufacturer and name (or sequence) already exists.
	InsertIfAbsentTx(tx *gorm.DB, vm *model.VehicleModel) (bool, error)
	ListByManufacturer(ctx context.Context, manufacturerID uint) ([]model.VehicleModel, error)
}

type vehicleModelRepo struct{ db *gorm.DB }

func NewVehicleModelRepository(db *gorm.DB) VehicleModelRepository {
	return &vehicleModelRepo{db: db}
}

func (r *vehicleModelRepo) FindByNameTx(tx *gorm.DB, manufacturerID uint, name string) (*model.VehicleModel, error) {
	var vm model.VehicleModel
	err := tx.Where("manufacturer_id = ? AND name = ?", manufacturerID, name).Take(&vm).Error
	if err != nil {
		return nil, err
	}
	return &vm, nil
}

func (r *vehicleModelRepo) InsertIfAbsentTx(tx *gorm.DB, vm *model.VehicleModel) (bool, error) {
	res := tx.Clauses(clause.OnConflict{DoNothing: true}).Create(vm)
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected == 1, nil
}

func (r *vehicleModelRepo) ListByManufacturer(ctx context.Context, manufacturerID uint) ([]model.VehicleModel, error) {
	var out []model.VehicleModel
	err := r.db.WithContext(ctx).
		Where("manufacturer_id = ?", manufacturerID).
		Order("sequence ASC").
		Find(&out).Error
	return out, err
}

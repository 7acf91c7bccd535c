package repository

import (
	"context"
	"strings"

	"gestorpecas/internal/dto"
	"gestorpecas/internal/model"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// PartRepository defines the data access contract for part variants and
// their images. Services depend on this interface, not on the gorm struct.
type PartRepository interface {
	CreateTx(tx *gorm.DB, p *model.Part) error
	SetRetailCodeTx(tx *gorm.DB, id uint, code string) error
	FindByID(ctx context.Context, id uint) (*model.Part, error)
	FindByVariantCode(ctx context.Context, code string) (*model.Part, error)
	// FindByIDTx is FindByID on tx, so a write can report what it committed.
	FindByIDTx(tx *gorm.DB, id uint) (*model.Part, error)
	// LockByIDTx reads the part row FOR UPDATE, without associations.
	LockByIDTx(tx *gorm.DB, id uint) (*model.Part, error)
	VariantCodeExistsTx(tx *gorm.DB, code string) (bool, error)
	// FindBaseTx returns the oldest variant sharing baseCode.
	FindBaseTx(tx *gorm.DB, baseCode string) (*model.Part, error)
	List(ctx context.Context, filter dto.PartFilter) ([]model.Part, int64, error)

	UpdateAttributesTx(tx *gorm.DB, id uint, fields map[string]interface{}) error
	UpdateStockTx(tx *gorm.DB, id uint, delta int) error
	SetStockTx(tx *gorm.DB, id uint, qty int) error
	SetKitFlagTx(tx *gorm.DB, id uint, isKit bool) error
	DeleteTx(tx *gorm.DB, id uint) error

	CreateImagesTx(tx *gorm.DB, images []model.PartImage) error
	ListImages(ctx context.Context, partID uint) ([]model.PartImage, error)
	ListImagesTx(tx *gorm.DB, partID uint) ([]model.PartImage, error)
	DeleteImagesTx(tx *gorm.DB, partID uint) error

	// DB exposes the underlying *gorm.DB so services can open transactions.
	DB() *gorm.DB
}

type partRepo struct{ db *gorm.DB }

func NewPartRepository(db *gorm.DB) PartRepository { return &partRepo{db: db} }

func (r *partRepo) CreateTx(tx *gorm.DB, p *model.Part) error {
	return tx.Omit(clause.Associations).Create(p).Error
}

func (r *partRepo) SetRetailCodeTx(tx *gorm.DB, id uint, code string) error {
	return tx.Model(&model.Part{}).Where("id = ?", id).Update("retail_code", code).Error
}

func (r *partRepo) FindByID(ctx context.Context, id uint) (*model.Part, error) {
	return r.FindByIDTx(r.db.WithContext(ctx), id)
}

func (r *partRepo) FindByIDTx(tx *gorm.DB, id uint) (*model.Part, error) {
	var p model.Part
	err := tx.Preload("Manufacturer").Preload("VehicleModel").First(&p, id).Error
	if err != nil {
		return nil, err
	}
	return &p, nil
}

func (r *partRepo) FindByVariantCode(ctx context.Context, code string) (*model.Part, error) {
	var p model.Part
	err := r.db.WithContext(ctx).
		Preload("Manufacturer").Preload("VehicleModel").
		Where("variant_code = ?", code).Take(&p).Error
	if err != nil {
		return nil, err
	}
	return &p, nil
}

func (r *partRepo) LockByIDTx(tx *gorm.DB, id uint) (*model.Part, error) {
	var p model.Part
	if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).First(&p, id).Error; err != nil {
		return nil, err
	}
	return &p, nil
}

func (r *partRepo) VariantCodeExistsTx(tx *gorm.DB, code string) (bool, error) {
	var n int64
	err := tx.Model(&model.Part{}).Where("variant_code = ?", code).Count(&n).Error
	return n > 0, err
}

func (r *partRepo) FindBaseTx(tx *gorm.DB, baseCode string) (*model.Part, error) {
	var p model.Part
	if err := tx.Where("base_code = ?", baseCode).Order("id ASC").First(&p).Error; err != nil {
		return nil, err
	}
	return &p, nil
}

// searchColumns are matched case-insensitively as substrings.
var searchColumns = []string{
	"variant_code",
	"base_code",
	"item_name",
	"COALESCE(description, '')",
	"COALESCE(oem_code, '')",
}

func (r *partRepo) List(ctx context.Context, filter dto.PartFilter) ([]model.Part, int64, error) {
	q := r.db.WithContext(ctx).Model(&model.Part{})

	if term := strings.TrimSpace(filter.Term); term != "" {
		pattern := "%" + escapeLike(strings.ToLower(term)) + "%"
		conds := make([]string, 0, len(searchColumns))
		args := make([]interface{}, 0, len(searchColumns))
		for _, col := range searchColumns {
			conds = append(conds, "LOWER("+col+`) LIKE ? ESCAPE '\'`)
			args = append(args, pattern)
		}
		q = q.Where("("+strings.Join(conds, " OR ")+")", args...)
	}

	var total int64
	if err := q.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var parts []model.Part
	err := q.Preload("Manufacturer").Preload("VehicleModel").
		Order("base_code ASC, variant_code ASC").
		Offset((filter.Page - 1) * filter.Limit).Limit(filter.Limit).
		Find(&parts).Error
	return parts, total, err
}

func escapeLike(s string) string {
	return strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`).Replace(s)
}

func (r *partRepo) UpdateAttributesTx(tx *gorm.DB, id uint, fields map[string]interface{}) error {
	return tx.Model(&model.Part{}).Where("id = ?", id).Updates(fields).Error
}

func (r *partRepo) UpdateStockTx(tx *gorm.DB, id uint, delta int) error {
	return tx.Model(&model.Part{}).Where("id = ?", id).
		Update("stock_quantity", gorm.Expr("stock_quantity + ?", delta)).Error
}

func (r *partRepo) SetStockTx(tx *gorm.DB, id uint, qty int) error {
	return tx.Model(&model.Part{}).Where("id = ?", id).Update("stock_quantity", qty).Error
}

func (r *partRepo) SetKitFlagTx(tx *gorm.DB, id uint, isKit bool) error {
	return tx.Model(&model.Part{}).Where("id = ?", id).Update("is_kit", isKit).Error
}

func (r *partRepo) DeleteTx(tx *gorm.DB, id uint) error {
	return tx.Delete(&model.Part{}, id).Error
}

func (r *partRepo) CreateImagesTx(tx *gorm.DB, images []model.PartImage) error {
	if len(images) == 0 {
		return nil
	}
	return tx.Omit(clause.Associations).Create(&images).Error
}

func (r *partRepo) ListImages(ctx context.Context, partID uint) ([]model.PartImage, error) {
	return r.ListImagesTx(r.db.WithContext(ctx), partID)
}

func (r *partRepo) ListImagesTx(tx *gorm.DB, partID uint) ([]model.PartImage, error) {
	var images []model.PartImage
	err := tx.Where("part_id = ?", partID).Order("id ASC").Find(&images).Error
	return images, err
}

func (r *partRepo) DeleteImagesTx(tx *gorm.DB, partID uint) error {
	return tx.Where("part_id = ?", partID).Delete(&model.PartImage{}).Error
}

func (r *partRepo) DB() *gorm.DB { return r.db }

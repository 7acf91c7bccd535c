package repository

import (
	"errors"
	"fmt"

	"gestorpecas/internal/apierror"
	"gestorpecas/internal/model"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// Code ranges. Each bound follows from the width of its base code segment.
const (
	ManufacturerCodeFloor = 101
	ManufacturerCodeMax   = 999
	ModelSequenceMax      = 99
	ItemSequenceStart     = 999
)

// SequenceRepository hands out identity numbers. Every method must run inside
// the transaction that consumes the number: the counter row stays locked
// until that transaction ends, and a rollback returns the number.
type SequenceRepository interface {
	NextManufacturerCodeTx(tx *gorm.DB) (int, error)
	NextModelSequenceTx(tx *gorm.DB, mfr *model.Manufacturer) (int, error)
	// NextItemSequenceTx counts down from 999 per (manufacturer, model).
	NextItemSequenceTx(tx *gorm.DB, mfr *model.Manufacturer, vm *model.VehicleModel) (int, error)
}

type sequenceRepo struct{}

func NewSequenceRepository() SequenceRepository { return &sequenceRepo{} }

func ManufacturerScope() string { return "manufacturer" }

func ModelScope(manufacturerCode int) string {
	return fmt.Sprintf("model:%03d", manufacturerCode)
}

func ItemScope(manufacturerCode, modelSeq int) string {
	return fmt.Sprintf("item:%03d:%02d", manufacturerCode, modelSeq)
}

func (r *sequenceRepo) NextManufacturerCodeTx(tx *gorm.DB) (int, error) {
	seed := func() (int, error) {
		var maxCode int
		err := tx.Model(&model.Manufacturer{}).Select("COALESCE(MAX(code), 0)").Scan(&maxCode).Error
		return maxCode, err
	}
	step := func(last int) (int, bool) {
		next := max(last+1, ManufacturerCodeFloor)
		return next, next <= ManufacturerCodeMax
	}
	return r.advance(tx, ManufacturerScope(), seed, step)
}

func (r *sequenceRepo) NextModelSequenceTx(tx *gorm.DB, mfr *model.Manufacturer) (int, error) {
	seed := func() (int, error) {
		var maxSeq int
		err := tx.Model(&model.VehicleModel{}).
			Where("manufacturer_id = ?", mfr.ID).
			Select("COALESCE(MAX(sequence), 0)").Scan(&maxSeq).Error
		return maxSeq, err
	}
	step := func(last int) (int, bool) {
		next := last + 1
		return next, next <= ModelSequenceMax
	}
	return r.advance(tx, ModelScope(mfr.Code), seed, step)
}

func (r *sequenceRepo) NextItemSequenceTx(tx *gorm.DB, mfr *model.Manufacturer, vm *model.VehicleModel) (int, error) {
	seed := func() (int, error) {
		minSeq := ItemSequenceStart + 1
		err := tx.Model(&model.Part{}).
			Where("manufacturer_id = ? AND vehicle_model_id = ?", mfr.ID, vm.ID).
			Select("COALESCE(MIN(item_sequence), ?)", ItemSequenceStart+1).Scan(&minSeq).Error
		return minSeq, err
	}
	step := func(last int) (int, bool) {
		next := last - 1
		return next, next >= 0
	}
	return r.advance(tx, ItemScope(mfr.Code, vm.Sequence), seed, step)
}

// advance locks the scope's counter, computes the next value and stores it.
// Exhaustion leaves the counter untouched.
func (r *sequenceRepo) advance(tx *gorm.DB, scope string, seed func() (int, error), step func(last int) (int, bool)) (int, error) {
	counter, err := r.lockCounter(tx, scope, seed)
	if err != nil {
		return 0, err
	}
	next, ok := step(counter.LastValue)
	if !ok {
		return 0, apierror.New(apierror.KindSequenceExhausted, "no values left in scope %s", scope)
	}
	err = tx.Model(&model.SequenceCounter{}).
		Where("scope = ?", scope).
		Update("last_value", next).Error
	if err != nil {
		return 0, err
	}
	return next, nil
}

// lockCounter returns the counter row locked FOR UPDATE, seeding it from the
// existing rows on first use. Two first-time allocators cannot both seed:
// the loser's insert is a no-op and it locks the winner's row instead.
func (r *sequenceRepo) lockCounter(tx *gorm.DB, scope string, seed func() (int, error)) (*model.SequenceCounter, error) {
	var c model.SequenceCounter
	err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).Where("scope = ?", scope).Take(&c).Error
	if err == nil {
		return &c, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, err
	}

	last, err := seed()
	if err != nil {
		return nil, err
	}
	err = tx.Clauses(clause.OnConflict{DoNothing: true}).
		Create(&model.SequenceCounter{Scope: scope, LastValue: last}).Error
	if err != nil {
		return nil, err
	}

	var locked model.SequenceCounter
	if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).Where("scope = ?", scope).Take(&locked).Error; err != nil {
		return nil, err
	}
	return &locked, nil
}

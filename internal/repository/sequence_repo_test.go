package repository

import (
	"errors"
	"fmt"
	"testing"

	"gestorpecas/internal/apierror"
	"gestorpecas/internal/model"
	"gestorpecas/internal/testutil"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

func seedModel(t *testing.T, db *gorm.DB, code int, name string) (*model.Manufacturer, *model.VehicleModel) {
	t.Helper()
	mfr := &model.Manufacturer{Code: code, Name: name}
	require.NoError(t, db.Create(mfr).Error)
	vm := &model.VehicleModel{ManufacturerID: mfr.ID, Name: name + " MODEL", Sequence: 1}
	require.NoError(t, db.Create(vm).Error)
	return mfr, vm
}

func allocManufacturer(t *testing.T, db *gorm.DB, seq SequenceRepository) (int, error) {
	t.Helper()
	var code int
	err := db.Transaction(func(tx *gorm.DB) error {
		var err error
		code, err = seq.NextManufacturerCodeTx(tx)
		return err
	})
	return code, err
}

func counterValue(t *testing.T, db *gorm.DB, scope string) int {
	t.Helper()
	var c model.SequenceCounter
	require.NoError(t, db.Where("scope = ?", scope).Take(&c).Error)
	return c.LastValue
}

// ── Manufacturer codes ───────────────────────────────────────────────────────

func TestNextManufacturerCode_StartsAtFloor(t *testing.T) {
	db := testutil.NewDB(t)
	seq := NewSequenceRepository()

	var codes []int
	for i := 0; i < 3; i++ {
		err := db.Transaction(func(tx *gorm.DB) error {
			code, err := seq.NextManufacturerCodeTx(tx)
			if err != nil {
				return err
			}
			codes = append(codes, code)
			return tx.Create(&model.Manufacturer{Code: code, Name: fmt.Sprintf("MAKER %d", i)}).Error
		})
		require.NoError(t, err)
	}
	assert.Equal(t, []int{101, 102, 103}, codes)
}

func TestNextManufacturerCode_SeedsFromExistingRows(t *testing.T) {
	t.Run("max below floor", func(t *testing.T) {
		db := testutil.NewDB(t)
		require.NoError(t, db.Create(&model.Manufacturer{Code: 50, Name: "LEGACY"}).Error)

		code, err := allocManufacturer(t, db, NewSequenceRepository())
		require.NoError(t, err)
		assert.Equal(t, 101, code)
	})

	t.Run("max above floor", func(t *testing.T) {
		db := testutil.NewDB(t)
		require.NoError(t, db.Create(&model.Manufacturer{Code: 250, Name: "LEGACY"}).Error)

		code, err := allocManufacturer(t, db, NewSequenceRepository())
		require.NoError(t, err)
		assert.Equal(t, 251, code)
	})
}

func TestNextManufacturerCode_RollbackReturnsValue(t *testing.T) {
	db := testutil.NewDB(t)
	seq := NewSequenceRepository()
	boom := errors.New("boom")

	err := db.Transaction(func(tx *gorm.DB) error {
		code, err := seq.NextManufacturerCodeTx(tx)
		require.NoError(t, err)
		assert.Equal(t, 101, code)
		return boom
	})
	require.ErrorIs(t, err, boom)

	code, err := allocManufacturer(t, db, seq)
	require.NoError(t, err)
	assert.Equal(t, 101, code)
}

func TestNextManufacturerCode_Exhausted(t *testing.T) {
	db := testutil.NewDB(t)
	require.NoError(t, db.Create(&model.SequenceCounter{Scope: ManufacturerScope(), LastValue: ManufacturerCodeMax}).Error)

	_, err := allocManufacturer(t, db, NewSequenceRepository())
	require.ErrorIs(t, err, apierror.ErrSequenceExhausted)
	assert.Equal(t, ManufacturerCodeMax, counterValue(t, db, ManufacturerScope()))
}

// ── Model sequences ──────────────────────────────────────────────────────────

func TestNextModelSequence_PerManufacturer(t *testing.T) {
	db := testutil.NewDB(t)
	seq := NewSequenceRepository()
	a := &model.Manufacturer{Code: 101, Name: "A"}
	b := &model.Manufacturer{Code: 102, Name: "B"}
	require.NoError(t, db.Create(a).Error)
	require.NoError(t, db.Create(b).Error)

	next := func(m *model.Manufacturer) int {
		var n int
		require.NoError(t, db.Transaction(func(tx *gorm.DB) error {
			var err error
			n, err = seq.NextModelSequenceTx(tx, m)
			return err
		}))
		return n
	}

	assert.Equal(t, 1, next(a))
	assert.Equal(t, 2, next(a))
	assert.Equal(t, 1, next(b))
	assert.Equal(t, 3, next(a))
}

func TestNextModelSequence_SeedsFromMax(t *testing.T) {
	db := testutil.NewDB(t)
	mfr, _ := seedModel(t, db, 101, "FIAT")
	require.NoError(t, db.Create(&model.VehicleModel{ManufacturerID: mfr.ID, Name: "PALIO", Sequence: 7}).Error)

	var n int
	require.NoError(t, db.Transaction(func(tx *gorm.DB) error {
		var err error
		n, err = NewSequenceRepository().NextModelSequenceTx(tx, mfr)
		return err
	}))
	assert.Equal(t, 8, n)
}

func TestNextModelSequence_Exhausted(t *testing.T) {
	db := testutil.NewDB(t)
	mfr := &model.Manufacturer{Code: 101, Name: "A"}
	require.NoError(t, db.Create(mfr).Error)
	require.NoError(t, db.Create(&model.SequenceCounter{Scope: ModelScope(101), LastValue: ModelSequenceMax}).Error)

	err := db.Transaction(func(tx *gorm.DB) error {
		_, err := NewSequenceRepository().NextModelSequenceTx(tx, mfr)
		return err
	})
	assert.ErrorIs(t, err, apierror.ErrSequenceExhausted)
}

// ── Item sequences ───────────────────────────────────────────────────────────

func TestNextItemSequence_CountsDownFrom999(t *testing.T) {
	db := testutil.NewDB(t)
	seq := NewSequenceRepository()
	mfr, vm := seedModel(t, db, 101, "VW")

	var got []int
	for i := 0; i < 3; i++ {
		require.NoError(t, db.Transaction(func(tx *gorm.DB) error {
			n, err := seq.NextItemSequenceTx(tx, mfr, vm)
			got = append(got, n)
			return err
		}))
	}
	assert.Equal(t, []int{999, 998, 997}, got)
	assert.Equal(t, 997, counterValue(t, db, ItemScope(101, 1)))
}

func TestNextItemSequence_SeedsFromMinimum(t *testing.T) {
	db := testutil.NewDB(t)
	mfr, vm := seedModel(t, db, 101, "VW")
	require.NoError(t, db.Create(&model.Part{
		ManufacturerID: mfr.ID, VehicleModelID: vm.ID, ItemName: "DOOR",
		Variation: model.VariationBase, ItemSequence: 500,
		BaseCode: "10101500", VariantCode: "10101500",
	}).Error)

	var n int
	require.NoError(t, db.Transaction(func(tx *gorm.DB) error {
		var err error
		n, err = NewSequenceRepository().NextItemSequenceTx(tx, mfr, vm)
		return err
	}))
	assert.Equal(t, 499, n)
}

func TestNextItemSequence_ZeroIsLastValue(t *testing.T) {
	db := testutil.NewDB(t)
	seq := NewSequenceRepository()
	mfr, vm := seedModel(t, db, 101, "VW")
	require.NoError(t, db.Create(&model.SequenceCounter{Scope: ItemScope(101, 1), LastValue: 1}).Error)

	next := func() (int, error) {
		var n int
		err := db.Transaction(func(tx *gorm.DB) error {
			var err error
			n, err = seq.NextItemSequenceTx(tx, mfr, vm)
			return err
		})
		return n, err
	}

	n, err := next()
	require.NoError(t, err)
	assert.Equal(t, 0, n)

	_, err = next()
	assert.ErrorIs(t, err, apierror.ErrSequenceExhausted)
	assert.Equal(t, 0, counterValue(t, db, ItemScope(101, 1)))
}

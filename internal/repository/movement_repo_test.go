package repository

import (
	"context"
	"testing"
	"time"

	"gestorpecas/internal/model"
	"gestorpecas/internal/testutil"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMovementList_InsertionOrderDespiteClockSkew(t *testing.T) {
	db := testutil.NewDB(t)
	mfr, vm := seedModel(t, db, 101, "VW")
	part := &model.Part{
		ManufacturerID: mfr.ID, VehicleModelID: vm.ID, ItemName: "MIRROR",
		Variation: model.VariationBase, ItemSequence: 999, BaseCode: "10101999", VariantCode: "10101999",
	}
	require.NoError(t, db.Create(part).Error)
	repo := NewStockMovementRepository(db)

	// written by hosts whose clocks disagree
	now := time.Now()
	stamps := []time.Time{now, now.Add(-time.Hour), now.Add(-2 * time.Hour)}
	for i, at := range stamps {
		m := &model.StockMovement{
			PartID: part.ID, Kind: model.MovementInflow, Quantity: 1,
			StockBefore: i, StockAfter: i + 1, CreatedAt: at,
		}
		require.NoError(t, repo.CreateTx(db, m))
	}

	got, total, err := repo.List(context.Background(), MovementFilter{PartID: part.ID, Page: 1, Limit: 10})
	require.NoError(t, err)
	assert.EqualValues(t, 3, total)
	require.Len(t, got, 3)
	assert.Equal(t, []int{3, 2, 1}, []int{got[0].StockAfter, got[1].StockAfter, got[2].StockAfter})

	outflows, total, err := repo.List(context.Background(), MovementFilter{PartID: part.ID, Kind: model.MovementOutflow, Page: 1, Limit: 10})
	require.NoError(t, err)
	assert.Zero(t, total)
	assert.Empty(t, outflows)
}

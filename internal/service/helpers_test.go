package service

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"gestorpecas/internal/dto"
	"gestorpecas/internal/repository"
	"gestorpecas/internal/testutil"

	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

// ── Test environment ─────────────────────────────────────────────────────────

type testEnv struct {
	db      *gorm.DB
	catalog CatalogService
	stock   StockService
	kits    KitService
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	db := testutil.NewDB(t)
	repos := repository.NewRepositories(db)
	opts := Options{RequestTimeout: 5 * time.Second, TxMaxAttempts: 3, SearchMaxLimit: 100}
	return &testEnv{
		db:      db,
		catalog: NewCatalogService(repos, nil, opts),
		stock:   NewStockService(repos, nil, opts),
		kits:    NewKitService(repos, nil, opts),
	}
}

func (e *testEnv) manufacturer(t *testing.T, name string) *dto.ManufacturerResponse {
	t.Helper()
	m, err := e.catalog.CreateManufacturer(context.Background(), dto.CreateManufacturerRequest{Name: name})
	require.NoError(t, err)
	return m
}

func (e *testEnv) part(t *testing.T, mfrCode int, modelName, item, variation string, qty int) *dto.PartResponse {
	t.Helper()
	p, err := e.catalog.CreatePart(context.Background(), dto.CreatePartRequest{
		ManufacturerCode: mfrCode,
		ModelName:        modelName,
		ItemName:         item,
		Variation:        variation,
		InitialQuantity:  qty,
	})
	require.NoError(t, err)
	return p
}

func (e *testEnv) kit(t *testing.T, id uint) {
	t.Helper()
	_, err := e.kits.SetKitFlag(context.Background(), dto.SetKitFlagRequest{PartID: id, IsKit: true})
	require.NoError(t, err)
}

func (e *testEnv) count(t *testing.T, m interface{}, where ...interface{}) int64 {
	t.Helper()
	var n int64
	q := e.db.Model(m)
	if len(where) > 0 {
		q = q.Where(where[0], where[1:]...)
	}
	require.NoError(t, q.Count(&n).Error)
	return n
}

// failReadsAfterInsert makes every query fail once a row has been inserted
// into table, as a connection dropped mid-operation would. The returned func
// restores normal reads.
func (e *testEnv) failReadsAfterInsert(t *testing.T, table string) (restore func()) {
	t.Helper()
	var armed, restored atomic.Bool
	require.NoError(t, e.db.Callback().Create().After("gorm:create").
		Register("test:arm_after_"+table, func(tx *gorm.DB) {
			if tx.Error == nil && tx.Statement.Table == table && !restored.Load() {
				armed.Store(true)
			}
		}))
	require.NoError(t, e.db.Callback().Query().Before("gorm:query").
		Register("test:fail_reads_after_"+table, func(tx *gorm.DB) {
			if armed.Load() {
				_ = tx.AddError(errors.New("connection reset by peer"))
			}
		}))
	return func() {
		restored.Store(true)
		armed.Store(false)
	}
}

func strPtr(s string) *string { return &s }

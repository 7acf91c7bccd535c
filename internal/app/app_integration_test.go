//go:build integration

// Runs the services against real Postgres and Redis containers.
// Run with: go test -tags integration ./internal/app/... -v
package app_test

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"gestorpecas/internal/apierror"
	"gestorpecas/internal/app"
	"gestorpecas/internal/config"
	"gestorpecas/internal/dto"
	"gestorpecas/internal/infra"
	"gestorpecas/internal/model"
	"gestorpecas/internal/repository"

	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	tcPostgres "github.com/testcontainers/testcontainers-go/modules/postgres"
	tcRedis "github.com/testcontainers/testcontainers-go/modules/redis"
	"gorm.io/gorm"
)

type env struct {
	app *app.App
	db  *gorm.DB
	rdb *redis.Client
}

func setupEnv(t *testing.T) *env {
	t.Helper()
	ctx := context.Background()

	pgC, err := tcPostgres.RunContainer(ctx,
		testcontainers.WithImage("postgres:15-alpine"),
		tcPostgres.WithDatabase("gestor_pecas_test"),
		tcPostgres.WithUsername("gestor"),
		tcPostgres.WithPassword("gestor"),
		tcPostgres.BasicWaitStrategies(),
	)
	require.NoError(t, err)
	t.Cleanup(func() { _ = pgC.Terminate(ctx) })

	pgURL, err := pgC.ConnectionString(ctx, "sslmode=disable")
	require.NoError(t, err)

	rdC, err := tcRedis.RunContainer(ctx, testcontainers.WithImage("redis:7-alpine"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = rdC.Terminate(ctx) })

	rdURL, err := rdC.ConnectionString(ctx)
	require.NoError(t, err)

	cfg := &config.Config{
		Env:                   "test",
		DatabaseURL:           pgURL,
		DBMaxOpenConns:        20,
		DBMaxIdleConns:        5,
		RedisURL:              rdURL,
		PartCacheTTLMinutes:   5,
		RequestTimeoutSeconds: 30,
		TxMaxAttempts:         3,
		SearchMaxLimit:        100,
	}

	// second run must be a no-op
	require.NoError(t, infra.RunMigrations(cfg.DatabaseURL))
	require.NoError(t, infra.RunMigrations(cfg.DatabaseURL))

	db, err := infra.NewDatabase(cfg.DatabaseURL, infra.PoolOptions{
		MaxOpenConns: cfg.DBMaxOpenConns,
		MaxIdleConns: cfg.DBMaxIdleConns,
	})
	require.NoError(t, err)

	rdb, err := infra.NewRedis(cfg.RedisURL)
	require.NoError(t, err)
	require.NotNil(t, rdb)
	t.Cleanup(func() { _ = rdb.Close() })

	return &env{app: app.New(cfg, db, rdb), db: db, rdb: rdb}
}

func TestPostgres(t *testing.T) {
	e := setupEnv(t)
	ctx := context.Background()

	t.Run("concurrent manufacturers get distinct consecutive codes", func(t *testing.T) {
		const n = 20
		codes := make(chan int, n)
		var wg sync.WaitGroup
		for i := 0; i < n; i++ {
			wg.Add(1)
			go func(i int) {
				defer wg.Done()
				m, err := e.app.Catalog.CreateManufacturer(ctx, dto.CreateManufacturerRequest{Name: fmt.Sprintf("Maker %02d", i)})
				if assert.NoError(t, err) {
					codes <- m.Code
				}
			}(i)
		}
		wg.Wait()
		close(codes)

		seen := map[int]bool{}
		for c := range codes {
			assert.False(t, seen[c], "code %d handed out twice", c)
			seen[c] = true
		}
		require.Len(t, seen, n)
		for c := 101; c < 101+n; c++ {
			assert.True(t, seen[c], "missing code %d", c)
		}
	})

	t.Run("concurrent parts under one model get distinct codes", func(t *testing.T) {
		_, err := e.app.Catalog.GetOrCreateModel(ctx, dto.EnsureModelRequest{ManufacturerCode: 101, Name: "Palio"})
		require.NoError(t, err)

		const n = 15
		codes := make(chan string, n)
		var wg sync.WaitGroup
		for i := 0; i < n; i++ {
			wg.Add(1)
			go func(i int) {
				defer wg.Done()
				p, err := e.app.Catalog.CreatePart(ctx, dto.CreatePartRequest{
					ManufacturerCode: 101, ModelName: "Palio", ItemName: fmt.Sprintf("Item %d", i), Variation: "N",
				})
				if assert.NoError(t, err) {
					codes <- p.VariantCode
				}
			}(i)
		}
		wg.Wait()
		close(codes)

		seen := map[string]bool{}
		for c := range codes {
			assert.False(t, seen[c], "variant code %s handed out twice", c)
			seen[c] = true
		}
		assert.Len(t, seen, n)
	})

	t.Run("concurrent movements keep stock and ledger in step", func(t *testing.T) {
		p, err := e.app.Catalog.CreatePart(ctx, dto.CreatePartRequest{
			ManufacturerCode: 102, ModelName: "Uno", ItemName: "Bumper", Variation: "N",
		})
		require.NoError(t, err)

		const n = 25
		var wg sync.WaitGroup
		for i := 0; i < n; i++ {
			wg.Add(1)
			go func() {
				defer wg.Done()
				_, err := e.app.Stock.RecordMovement(ctx, dto.RecordMovementRequest{PartID: p.ID, Kind: "inflow", Quantity: 2})
				assert.NoError(t, err)
			}()
		}
		wg.Wait()

		got, err := e.app.Catalog.GetPart(ctx, p.ID)
		require.NoError(t, err)
		assert.Equal(t, 2*n, got.StockQuantity)

		history, err := e.app.Stock.History(ctx, dto.MovementFilter{PartID: p.ID, Limit: 100})
		require.NoError(t, err)
		require.Len(t, history.Data, n)
		assert.Equal(t, 2*n, history.Data[0].StockAfter)
	})

	t.Run("cached reads see mutations", func(t *testing.T) {
		p, err := e.app.Catalog.CreatePart(ctx, dto.CreatePartRequest{
			ManufacturerCode: 103, ModelName: "Ka", ItemName: "Grille", Variation: "R", InitialQuantity: 1,
		})
		require.NoError(t, err)

		first, err := e.app.Catalog.GetPartByVariantCode(ctx, p.VariantCode)
		require.NoError(t, err)
		assert.Equal(t, 1, first.StockQuantity)

		_, err = e.app.Stock.RecordMovement(ctx, dto.RecordMovementRequest{PartID: p.ID, Kind: "correction", Quantity: 7})
		require.NoError(t, err)

		after, err := e.app.Catalog.GetPartByVariantCode(ctx, p.VariantCode)
		require.NoError(t, err)
		assert.Equal(t, 7, after.StockQuantity)
	})

	t.Run("a read that loses to a movement cannot cache its stale view", func(t *testing.T) {
		p, err := e.app.Catalog.CreatePart(ctx, dto.CreatePartRequest{
			ManufacturerCode: 103, ModelName: "Ka", ItemName: "Mirror", Variation: "N", InitialQuantity: 3,
		})
		require.NoError(t, err)

		// a concurrent reader has missed and loaded the row...
		stale, err := e.app.Catalog.GetPart(ctx, p.ID)
		require.NoError(t, err)

		// ...a movement commits and invalidates...
		_, err = e.app.Stock.RecordMovement(ctx, dto.RecordMovementRequest{PartID: p.ID, Kind: "outflow", Quantity: 1})
		require.NoError(t, err)

		// ...and only then does the reader populate the cache.
		sideCache := infra.NewPartCache(e.rdb, 5*time.Minute)
		sideCache.Set(ctx, p.VariantCode, stale)

		var cached dto.PartResponse
		assert.False(t, sideCache.Get(ctx, p.VariantCode, &cached))

		got, err := e.app.Catalog.GetPartByVariantCode(ctx, p.VariantCode)
		require.NoError(t, err)
		assert.Equal(t, 2, got.StockQuantity)

		// once the tombstone expires the key can be filled again
		require.NoError(t, e.rdb.Del(ctx, "gestorpecas:part:"+p.VariantCode).Err())
		got, err = e.app.Catalog.GetPartByVariantCode(ctx, p.VariantCode)
		require.NoError(t, err)
		assert.Equal(t, 2, got.StockQuantity)
		require.True(t, sideCache.Get(ctx, p.VariantCode, &cached))
		assert.Equal(t, 2, cached.StockQuantity)
	})

	t.Run("exhausted item sequence rolls back", func(t *testing.T) {
		vm, err := e.app.Catalog.GetOrCreateModel(ctx, dto.EnsureModelRequest{ManufacturerCode: 104, Name: "Strada"})
		require.NoError(t, err)
		require.NoError(t, e.db.Create(&model.SequenceCounter{
			Scope: repository.ItemScope(104, vm.Sequence), LastValue: 0,
		}).Error)

		var before int64
		require.NoError(t, e.db.Model(&model.Part{}).Count(&before).Error)

		_, err = e.app.Catalog.CreatePart(ctx, dto.CreatePartRequest{
			ManufacturerCode: 104, ModelName: "Strada", ItemName: "Hood", Variation: "N", InitialQuantity: 2,
		})
		require.ErrorIs(t, err, apierror.ErrSequenceExhausted)

		var after int64
		require.NoError(t, e.db.Model(&model.Part{}).Count(&after).Error)
		assert.Equal(t, before, after)
	})
}

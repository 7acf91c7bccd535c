// Package app wires repositories, cache and services together.
// Dependency graph: Service ← Repository ← DB / Redis
package app

import (
	"gestorpecas/internal/config"
	"gestorpecas/internal/infra"
	"gestorpecas/internal/repository"
	"gestorpecas/internal/service"

	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"
)

// App is the set of inbound operations the rest of the system calls.
type App struct {
	Catalog service.CatalogService
	Stock   service.StockService
	Kits    service.KitService
}

// New builds every service over db. rdb may be nil, which disables caching.
func New(cfg *config.Config, db *gorm.DB, rdb *redis.Client) *App {
	repos := repository.NewRepositories(db)
	cache := infra.NewPartCache(rdb, cfg.PartCacheTTL())
	opts := service.Options{
		RequestTimeout: cfg.RequestTimeout(),
		TxMaxAttempts:  cfg.TxMaxAttempts,
		SearchMaxLimit: cfg.SearchMaxLimit,
	}

	return &App{
		Catalog: service.NewCatalogService(repos, cache, opts),
		Stock:   service.NewStockService(repos, cache, opts),
		Kits:    service.NewKitService(repos, cache, opts),
	}
}

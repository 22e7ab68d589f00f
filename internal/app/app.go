// Package app wires the configured services together for the server and the
// CLI.
package app

import (
	"context"
	"fmt"
	"strings"

	"gorm.io/gorm"

	"xivmarket/internal/bot"
	"xivmarket/internal/cache"
	"xivmarket/internal/catalog"
	"xivmarket/internal/config"
	"xivmarket/internal/database"
	"xivmarket/internal/logx"
	"xivmarket/internal/market"
	"xivmarket/internal/ranking"
	"xivmarket/internal/services/universalis"
	"xivmarket/internal/services/xivapi"
)

type App struct {
	Config      *config.Config
	Cache       cache.Cache
	DB          *gorm.DB
	Universalis *universalis.UniversalisService
	XIVAPI      *xivapi.XIVAPIService
	Catalog     *catalog.Catalog
	Topology    *market.Topology
	Pricer      *market.Pricer
	Ranker      *ranking.Ranker
	Bot         *bot.Bot

	closers []func() error
}

// New builds every service and loads the catalog and server topology.
func New(ctx context.Context, cfg *config.Config) (*App, error) {
	a := &App{Config: cfg}

	c, err := a.openCache(ctx)
	if err != nil {
		return nil, err
	}
	a.Cache = c

	a.Universalis = universalis.NewUniversalisService(cfg.UniversalisURL, cfg.HTTPTimeout(), cfg.RateLimitPerSecond)
	a.XIVAPI = xivapi.NewXIVAPIService(cfg.XIVAPIURL, cfg.XIVAPIKey, cfg.HTTPTimeout(), cfg.RateLimitPerSecond, a.Cache)

	source, err := a.catalogSource()
	if err != nil {
		a.Close()
		return nil, err
	}
	a.Catalog = catalog.New(source)
	if err := a.Catalog.Init(ctx); err != nil {
		a.Close()
		return nil, err
	}

	a.Topology = market.NewTopology(a.Universalis, a.Cache, cfg.Tuning.Regions)
	if err := a.Topology.Init(ctx); err != nil {
		a.Close()
		return nil, err
	}

	a.Pricer = market.NewPricer(a.Universalis, a.Catalog)
	a.Ranker = ranking.NewRanker(a.Catalog, a.Pricer, a.XIVAPI, cfg.Tuning)
	a.Bot = bot.New(a.Ranker, a.Topology, a.Catalog, cfg.Tuning)

	logx.Info().
		Str("catalog", cfg.CatalogBackend).
		Str("cache", cfg.CacheBackend).
		Int("worlds", len(a.Topology.Worlds())).
		Msg("services initialized")
	return a, nil
}

// OpenDB connects to the catalog database once and reuses the handle.
func (a *App) OpenDB() (*gorm.DB, error) {
	if a.DB != nil {
		return a.DB, nil
	}
	db, err := database.Initialize(a.Config.DatabaseURL)
	if err != nil {
		return nil, err
	}
	a.DB = db
	a.closers = append(a.closers, func() error {
		sqlDB, err := db.DB()
		if err != nil {
			return err
		}
		return sqlDB.Close()
	})
	return db, nil
}

func (a *App) openCache(ctx context.Context) (cache.Cache, error) {
	switch strings.ToLower(a.Config.CacheBackend) {
	case "", "memory":
		return cache.NewMemory(a.Config.CacheTTL()), nil
	case "redis":
		r, err := cache.NewRedis(ctx, a.Config.RedisURL, a.Config.CacheTTL())
		if err != nil {
			return nil, err
		}
		a.closers = append(a.closers, r.Close)
		return r, nil
	case "none":
		return cache.Nop{}, nil
	}
	return nil, fmt.Errorf("unknown cache backend %q", a.Config.CacheBackend)
}

func (a *App) catalogSource() (catalog.Source, error) {
	switch strings.ToLower(a.Config.CatalogBackend) {
	case "", "json":
		return catalog.JSONSource{Dir: a.Config.CatalogDir}, nil
	case "mysql":
		db, err := a.OpenDB()
		if err != nil {
			return nil, err
		}
		return catalog.GormSource{DB: db}, nil
	}
	return nil, fmt.Errorf("unknown catalog backend %q", a.Config.CatalogBackend)
}

// Close releases the cache and database connections.
func (a *App) Close() {
	for i := len(a.closers) - 1; i >= 0; i-- {
		if err := a.closers[i](); err != nil {
			logx.Warn().Err(err).Msg("close failed")
		}
	}
	a.closers = nil
}

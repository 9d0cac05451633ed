package app

import (
	"fmt"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"github.com/workshophq/workshop/internal/middleware"
	"github.com/workshophq/workshop/internal/modules/auth"
	"github.com/workshophq/workshop/internal/modules/content"
	"github.com/workshophq/workshop/internal/modules/fieldset"
	"github.com/workshophq/workshop/internal/modules/storage/asset"
	"github.com/workshophq/workshop/internal/modules/workshop"
	"github.com/workshophq/workshop/internal/pkg/crypt"
	"github.com/workshophq/workshop/internal/pkg/response"
)

func (a *App) registerRoutes() error {
	r := a.router

	r.NoRoute(func(c *gin.Context) {
		response.NotFound(c)
	})
	r.NoMethod(func(c *gin.Context) {
		response.MethodNotAllowed(c)
	})

	r.GET("/health", func(c *gin.Context) {
		response.OK(c, gin.H{"ok": 1})
	})

	// Locally stored assets are served by the app itself.
	if a.cfg.Storage.Driver == "local" || a.cfg.Storage.Driver == "" {
		r.Static("/static", a.cfg.Paths.Static)
	}

	assets, err := asset.New(a.cfg.Storage, a.cfg.Paths.Static, a.db)
	if err != nil {
		return fmt.Errorf("asset storage: %w", err)
	}

	contentSvc := content.NewService(a.db)
	fieldsets := fieldset.NewService(a.cfg.Paths.Fieldsets)
	codec := crypt.New(a.cfg.Crypt.HashKey, a.cfg.Crypt.BlockKey)

	resolver := workshop.NewResolver(a.cfg.Workshop, a.cfg.Theming, contentSvc, fieldsets, assets, a.logger)
	workshopHandler, err := workshop.NewHandler(a.cfg.Workshop, resolver, codec, a.logger)
	if err != nil {
		return err
	}

	authHandler := auth.NewHandler(a.db, a.logger)
	authHandler.RegisterRoutes(&r.RouterGroup, middleware.Auth())

	var rdb *redis.Client
	if a.rc != nil {
		rdb = a.rc.Raw()
	}
	ws := r.Group("/workshop",
		middleware.OptionalAuth(),
		middleware.RateLimit(rdb),
		middleware.Idempotence(rdb),
	)
	workshopHandler.RegisterRoutes(ws)

	return nil
}

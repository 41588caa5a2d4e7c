package main

import (
	"context"

	_ "github.com/MikeMC777/costeo/docs"
	"github.com/MikeMC777/costeo/internal/account"
	"github.com/MikeMC777/costeo/internal/auth"
	"github.com/MikeMC777/costeo/internal/backup"
	"github.com/MikeMC777/costeo/internal/config"
	"github.com/MikeMC777/costeo/internal/db"
	"github.com/MikeMC777/costeo/internal/httpx"
	"github.com/MikeMC777/costeo/internal/product"
	"github.com/MikeMC777/costeo/internal/recipe"
)

// @title                      costeo inventory-service
// @version                    1.0
// @BasePath                   /
// @securityDefinitions.apikey Bearer
// @in                         header
// @name                       Authorization
func main() {
	cfg := config.Load()
	log := config.NewLogger(cfg.LogLevel, "inventory-service")
	ctx := context.Background()

	pool, err := db.Connect(ctx, cfg.PostgresDSN)
	if err != nil {
		log.WithError(err).Fatal("[inventory-service] database")
	}
	defer pool.Close()

	ext, err := account.NewExt(cfg.UserSvcTarget)
	if err != nil {
		log.WithError(err).Fatal("[inventory-service] user-service client")
	}

	products := product.NewPGRepo(pool)
	recipes := recipe.NewPGRepo(pool)
	exporter := &backup.Exporter{Products: products, Recipes: recipes}
	if cfg.BackupBucket != "" {
		awsCfg, err := cfg.AWS(ctx)
		if err != nil {
			log.WithError(err).Fatal("[inventory-service] aws")
		}
		exporter.Store = backup.NewS3Store(awsCfg, cfg.BackupBucket, cfg.S3Endpoint)
		log.WithField("bucket", cfg.BackupBucket).Info("[backup] uploading to s3")
	}

	metrics := httpx.NewMetrics("inventory-service")
	r := httpx.NewRouter(log, metrics, cfg.CORSOrigins)
	routes(r, auth.NewSigner(cfg.JWTSecret), deps{
		users:    ext,
		products: products,
		recipes:  recipes,
		plans:    ext,
		backups:  exporter,
	})
	httpx.Serve(log, cfg.InventorySvcAddr, r)
}

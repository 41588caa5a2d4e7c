package main

import (
	"context"

	"github.com/robfig/cron/v3"

	_ "github.com/MikeMC777/costeo/docs"
	"github.com/MikeMC777/costeo/internal/account"
	"github.com/MikeMC777/costeo/internal/affiliate"
	"github.com/MikeMC777/costeo/internal/auth"
	"github.com/MikeMC777/costeo/internal/billing"
	"github.com/MikeMC777/costeo/internal/config"
	"github.com/MikeMC777/costeo/internal/db"
	"github.com/MikeMC777/costeo/internal/httpx"
	"github.com/MikeMC777/costeo/internal/notify"
)

// @title                      costeo billing-service
// @version                    1.0
// @BasePath                   /
// @securityDefinitions.apikey Bearer
// @in                         header
// @name                       Authorization
func main() {
	cfg := config.Load()
	log := config.NewLogger(cfg.LogLevel, "billing-service")
	ctx := context.Background()

	pool, err := db.Connect(ctx, cfg.PostgresDSN)
	if err != nil {
		log.WithError(err).Fatal("[billing-service] database")
	}
	defer pool.Close()

	ext, err := account.NewExt(cfg.UserSvcTarget)
	if err != nil {
		log.WithError(err).Fatal("[billing-service] user-service client")
	}

	var (
		gateway billing.Gateway
		promos  affiliate.Promotions
	)
	if cfg.StripeSecretKey != "" {
		sg := billing.NewStripeGateway(cfg.StripeSecretKey)
		gateway, promos = sg, sg
	} else {
		log.Warn("[billing-service] STRIPE_SECRET_KEY not set, checkout and admin billing calls are disabled")
	}

	var mailer notify.Mailer = notify.LogMailer{}
	if cfg.SESSender != "" {
		awsCfg, err := cfg.AWS(ctx)
		if err != nil {
			log.WithError(err).Fatal("[billing-service] aws")
		}
		mailer = notify.NewSESMailer(awsCfg, cfg.SESSender)
	}

	affiliates := affiliate.NewService(affiliate.NewPGRepo(pool), promos, mailer, cfg.CommissionHoldDays)
	svc := billing.NewService(billing.NewPGRepo(pool), gateway, ext, affiliates, billing.Options{
		Prices:        billing.Prices(cfg.StripePrices),
		AppURL:        cfg.AppURL,
		WebhookSecret: cfg.StripeWebhookSecret,
	})

	jobs := cron.New()
	if _, err := jobs.AddFunc("@hourly", func() {
		if _, err := affiliates.ApproveMatured(context.Background()); err != nil {
			log.WithError(err).Error("[cron] approve commissions")
		}
	}); err != nil {
		log.WithError(err).Fatal("[cron] schedule")
	}
	jobs.Start()
	defer jobs.Stop()

	metrics := httpx.NewMetrics("billing-service")
	metrics.Register(svc.Collector())
	r := httpx.NewRouter(log, metrics, cfg.CORSOrigins)
	routes(r, auth.NewSigner(cfg.JWTSecret), ext.ValidateUser, svc, affiliates, cfg.AppURL)
	httpx.Serve(log, cfg.BillingSvcAddr, r)
}

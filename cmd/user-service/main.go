package main

import (
	"context"
	"net"

	"github.com/robfig/cron/v3"
	"google.golang.org/grpc"

	_ "github.com/MikeMC777/costeo/docs"
	"github.com/MikeMC777/costeo/internal/auth"
	"github.com/MikeMC777/costeo/internal/config"
	"github.com/MikeMC777/costeo/internal/db"
	"github.com/MikeMC777/costeo/internal/httpx"
	"github.com/MikeMC777/costeo/internal/user"
	"github.com/MikeMC777/costeo/internal/userpb"
)

// @title                      costeo user-service
// @version                    1.0
// @BasePath                   /
// @securityDefinitions.apikey Bearer
// @in                         header
// @name                       Authorization
func main() {
	cfg := config.Load()
	log := config.NewLogger(cfg.LogLevel, "user-service")

	pool, err := db.Connect(context.Background(), cfg.PostgresDSN)
	if err != nil {
		log.WithError(err).Fatal("[user-service] database")
	}
	defer pool.Close()

	repo := user.NewPGRepo(pool)
	signer := auth.NewSigner(cfg.JWTSecret)
	accounts := user.NewAccounts(repo, signer)

	lis, err := net.Listen("tcp", cfg.UserSvcGRPCAddr)
	if err != nil {
		log.WithError(err).Fatal("[user-service] grpc listen")
	}
	gs := grpc.NewServer()
	userpb.RegisterUserServiceServer(gs, user.NewService(repo))
	go func() {
		log.WithField("addr", cfg.UserSvcGRPCAddr).Info("[grpc] listening")
		if err := gs.Serve(lis); err != nil {
			log.WithError(err).Fatal("[grpc] serve")
		}
	}()
	defer gs.GracefulStop()

	jobs := cron.New()
	if _, err := jobs.AddFunc("@daily", func() {
		if _, err := accounts.ExpirePlans(context.Background()); err != nil {
			log.WithError(err).Error("[cron] expire plans")
		}
	}); err != nil {
		log.WithError(err).Fatal("[cron] schedule")
	}
	jobs.Start()
	defer jobs.Stop()

	metrics := httpx.NewMetrics("user-service")
	r := httpx.NewRouter(log, metrics, cfg.CORSOrigins)
	routes(r, repo, accounts, signer)
	httpx.Serve(log, cfg.UserSvcHTTPAddr, r)
}

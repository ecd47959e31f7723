package main

import (
	"log"
	"os"

	"github.com/joho/godotenv"
	"github.com/greenbasket/plantfuture-backend/internal/config"
	"github.com/greenbasket/plantfuture-backend/internal/db"
	"github.com/greenbasket/plantfuture-backend/internal/model"
	"github.com/greenbasket/plantfuture-backend/internal/server"
	"go.uber.org/zap"
)

var (
	gitSHA    = "dev"
	buildTime = "unknown"
)

func main() {
	_ = godotenv.Load()

	logger, err := zap.NewProduction()
	if err != nil {
		log.Fatalf("init logger: %v", err)
	}
	defer func() { _ = logger.Sync() }()
	zap.ReplaceGlobals(logger)

	cfg, err := config.Load()
	if err != nil {
		zap.L().Fatal("config load error", zap.Error(err))
	}
	conn, err := db.Connect(cfg)
	if err != nil {
		zap.L().Fatal("db connect error", zap.Error(err))
	}
	if err := conn.AutoMigrate(
		&model.User{},
		&model.Tree{},
		&model.Device{},
		&model.DeviceFailure{},
		&model.TreeType{},
		&model.RewardProduct{},
		&model.LedgerEntry{},
	); err != nil {
		zap.L().Fatal("auto migrate error", zap.Error(err))
	}

	srv := server.New(conn, cfg, gitSHA, buildTime)

	port := os.Getenv("PORT")
	if port == "" {
		port = cfg.Port
	}
	addr := ":" + port

	zap.L().Info("starting server", zap.String("addr", addr))
	if err := srv.Start(addr); err != nil {
		zap.L().Fatal("server stopped", zap.Error(err))
	}
}

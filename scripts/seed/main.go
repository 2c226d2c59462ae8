package main

import (
	"context"
	"log/slog"
	"os"
	"time"

	"github.com/odyssey-erp/odyssey-admin/internal/app"
	"github.com/odyssey-erp/odyssey-admin/internal/platform/db"
	"github.com/odyssey-erp/odyssey-admin/internal/seed"
)

func main() {
	cfg, err := app.LoadConfig()
	if err != nil {
		slog.Default().Error("load config", slog.Any("error", err))
		os.Exit(1)
	}
	logger := app.NewLogger(cfg)

	ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
	defer cancel()

	pool, err := db.New(ctx, cfg.PGDSN, db.Options{MaxConns: 2})
	if err != nil {
		logger.Error("connect postgres", slog.Any("error", err))
		os.Exit(1)
	}
	defer pool.Close()

	res, err := seed.Run(ctx, seed.NewStore(pool), seed.Admin{
		Name:     cfg.SeedAdminName,
		Email:    cfg.SeedAdminEmail,
		Password: cfg.SeedAdminPassword,
	}, logger)
	if err != nil {
		logger.Error("seed failed", slog.Any("error", err))
		pool.Close()
		os.Exit(1)
	}
	logger.Info("seed complete",
		slog.Int("permissions", len(res.PermissionIDs)),
		slog.Int64("role_id", res.RoleID),
		slog.Int64("user_id", res.UserID),
	)
}

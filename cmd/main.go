package main

import (
	"context"
	"flag"
	"log"
	"os/signal"
	"syscall"

	"matcha-pos/internal/adapter/logger"
	"matcha-pos/internal/adapter/postgres"
	"matcha-pos/internal/config"
	"matcha-pos/internal/server"
)

func main() {
	configPath := flag.String("config", "config.yaml", "Path to configuration file")
	port := flag.Int("port", 0, "Override the configured listen port")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}
	if *port != 0 {
		cfg.Server.Port = *port
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	lgr := logger.New("pos-server")

	db, err := postgres.Connect(ctx, cfg.Database)
	if err != nil {
		log.Fatalf("Failed to connect to PostgreSQL: %v", err)
	}
	defer db.Close()

	lgr.Info("db_connected", "Connected to PostgreSQL database", "startup", map[string]any{
		"host": cfg.Database.Host,
		"db":   cfg.Database.Database,
	})

	if err := postgres.EnsureSchema(ctx, db); err != nil {
		log.Fatalf("Failed to prepare database schema: %v", err)
	}

	srv := server.New(cfg.Server, lgr, server.Deps{
		Orders:   postgres.NewOrderRepository(db),
		Products: postgres.NewProductRepository(db),
		Users:    postgres.NewUserRepository(db),
		Reports:  postgres.NewReportRepository(db),
	})

	if err := srv.ListenAndServe(ctx); err != nil {
		lgr.Error("server_error", "Server error", "runtime", nil, err)
	}
}

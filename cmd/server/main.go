package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"

	goredis "github.com/go-redis/redis/v8"
	rediscache "github.com/ogurasousui/projectledger/internal/adapters/cache/redis"
	"github.com/ogurasousui/projectledger/internal/adapters/http/handler"
	"github.com/ogurasousui/projectledger/internal/adapters/repository/postgres"
	"github.com/ogurasousui/projectledger/internal/core/employee"
	"github.com/ogurasousui/projectledger/internal/core/project"
	"github.com/ogurasousui/projectledger/internal/platform/config"
	pg "github.com/ogurasousui/projectledger/internal/platform/db/postgres"
	"github.com/ogurasousui/projectledger/internal/platform/server"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cfgPath := os.Getenv("CONFIG_PATH")
	if cfgPath == "" {
		cfgPath = "assets/local.yaml"
	}

	cfg, err := config.Load(cfgPath)
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	dbPool, err := pg.NewPool(ctx, cfg.Database)
	if err != nil {
		log.Fatalf("failed to initialize database pool: %v", err)
	}
	defer dbPool.Close()

	txManager := pg.NewTransactionManager(dbPool)
	employeeRepo := postgres.NewEmployeeRepository(dbPool)
	projectRepo := postgres.NewProjectRepository(dbPool)

	var projectCache project.Cache
	if cfg.Redis.Enabled() {
		rdb := goredis.NewClient(&goredis.Options{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		if err := rdb.Ping(ctx).Err(); err != nil {
			log.Fatalf("failed to connect to redis: %v", err)
		}
		defer rdb.Close()
		projectCache = rediscache.NewProjectRedisCache(rdb, cfg.Redis.DataExpiry)
	}

	employeeSvc := employee.NewService(employeeRepo, nil, txManager)
	projectSvc := project.NewService(projectRepo, employeeRepo, projectCache, nil, txManager, project.Policy{
		AdvanceOnCreate: cfg.Workflow.AdvanceOnCreate,
	})

	router := handler.NewRouter(projectSvc, employeeSvc)
	httpServer := server.New(cfg.Server.ListenAddr, router)

	log.Printf("HTTP server listening on %s", cfg.Server.ListenAddr)

	if err := httpServer.Run(ctx); err != nil {
		log.Fatalf("server stopped with error: %v", err)
	}
}

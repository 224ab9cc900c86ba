package bootstrap

import (
	"context"
	"fmt"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"ragsync/internal/cache"
	"ragsync/internal/config"
	"ragsync/internal/model"
	mysqlClient "ragsync/internal/platform/mysql"
	rabbitmqClient "ragsync/internal/platform/rabbitmq"
	redisClient "ragsync/internal/platform/redis"
	"ragsync/internal/provider"
	"ragsync/internal/provider/openai"
	"ragsync/internal/repository"
	"ragsync/internal/worker"
)

type App struct {
	Config       *config.Config
	Logger       *zap.Logger
	MySQL        *gorm.DB
	Redis        *redis.Client
	MQConn       *amqp.Connection
	Registry     *provider.Registry
	ReportCache  *cache.ReportCache
	ReportWorker *worker.ReportPersistWorker

	StartedAt time.Time
}

func New(ctx context.Context) (*App, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("load config failed: %w", err)
	}

	logger, err := newLogger(cfg.App.Env)
	if err != nil {
		return nil, fmt.Errorf("init logger failed: %w", err)
	}

	mysqlDB, err := mysqlClient.New(ctx, cfg.MySQLDSN(), cfg.MySQL.MaxOpenConns)
	if err != nil {
		return nil, err
	}
	if err := mysqlDB.AutoMigrate(
		&model.File{},
		&model.Index{},
		&model.IndexFile{},
		&model.ProviderUpload{},
		&model.ProviderConnection{},
		&model.SyncReport{},
	); err != nil {
		return nil, fmt.Errorf("auto migrate tables failed: %w", err)
	}

	redisCli, err := redisClient.New(ctx, cfg.Redis.Addr, cfg.Redis.Password, cfg.Redis.DB)
	if err != nil {
		return nil, err
	}
	reportCache := cache.NewReportCache(redisCli, time.Duration(cfg.Redis.ReportTTLSeconds)*time.Second)

	mqConn, err := rabbitmqClient.New(ctx, cfg.RabbitMQ.URL, cfg.RabbitMQ.ReportPersistQueue)
	if err != nil {
		return nil, err
	}

	reportRepo := repository.NewSyncReportRepository(mysqlDB)
	reportWorker := worker.NewReportPersistWorker(mqConn, reportRepo, reportCache, cfg.RabbitMQ.ReportPersistQueue)
	if err := reportWorker.Start(ctx); err != nil {
		return nil, fmt.Errorf("start report worker failed: %w", err)
	}

	registry := provider.NewRegistry()
	// The OpenAI-compatible gateway also covers self-hosted API clones; each
	// alias resolves through its own connection row.
	for _, providerType := range []string{"openai", "openai_compatible"} {
		registry.Register(providerType, openai.New)
	}

	return &App{
		Config:       cfg,
		Logger:       logger,
		MySQL:        mysqlDB,
		Redis:        redisCli,
		MQConn:       mqConn,
		Registry:     registry,
		ReportCache:  reportCache,
		ReportWorker: reportWorker,
		StartedAt:    time.Now(),
	}, nil
}

func newLogger(env string) (*zap.Logger, error) {
	if env == "prod" {
		return zap.NewProduction()
	}
	return zap.NewDevelopment()
}

func (a *App) Close() error {
	var closeErr error
	if a.Redis != nil {
		if err := a.Redis.Close(); err != nil {
			closeErr = err
		}
	}
	if a.ReportWorker != nil {
		a.ReportWorker.Close()
	}
	if a.MQConn != nil {
		if err := a.MQConn.Close(); err != nil {
			closeErr = err
		}
	}
	if a.MySQL != nil {
		sqlDB, err := a.MySQL.DB()
		if err == nil {
			if err := sqlDB.Close(); err != nil {
				closeErr = err
			}
		}
	}
	if a.Logger != nil {
		_ = a.Logger.Sync()
	}
	return closeErr
}

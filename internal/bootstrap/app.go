package bootstrap

import (
	"context"
	"fmt"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"

	"vetvalidator/internal/ai"
	appsvc "vetvalidator/internal/app"
	"vetvalidator/internal/cache"
	"vetvalidator/internal/config"
	"vetvalidator/internal/model"
	mysqlClient "vetvalidator/internal/platform/mysql"
	rabbitmqClient "vetvalidator/internal/platform/rabbitmq"
	redisClient "vetvalidator/internal/platform/redis"
	"vetvalidator/internal/repository"
	"vetvalidator/internal/resolver"
	"vetvalidator/internal/worker"
)

type App struct {
	Config *config.Config
	MySQL  *gorm.DB
	Redis  *redis.Client
	MQConn *amqp.Connection

	Publisher    *rabbitmqClient.EventPublisher
	ReportCache  *cache.ReportCache
	Ingest       *appsvc.IngestService
	Reports      *appsvc.ReportService
	Requirements *repository.RequirementRepository

	Poller           *worker.OperationPoller
	IndexingWorker   *worker.IndexingStatusWorker
	ValidationWorker *worker.ValidationWorker

	StartedAt time.Time
}

func New(ctx context.Context) (*App, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("load config failed: %w", err)
	}

	mysqlDB, err := mysqlClient.New(ctx, cfg.MySQLDSN())
	if err != nil {
		return nil, err
	}
	if err := mysqlDB.AutoMigrate(
		&model.ValidationSession{},
		&model.Document{},
		&model.IndexingOperation{},
		&model.UnitRequirement{},
		&model.ValidationResult{},
	); err != nil {
		return nil, fmt.Errorf("auto migrate tables failed: %w", err)
	}

	redisCli, err := redisClient.New(ctx, cfg.Redis.Addr, cfg.Redis.Password, cfg.Redis.DB)
	if err != nil {
		return nil, err
	}

	mqConn, err := rabbitmqClient.New(ctx, cfg.RabbitMQ.URL)
	if err != nil {
		return nil, err
	}
	publisher := rabbitmqClient.NewEventPublisher(mqConn)

	retrievalCfg := ai.RetrievalConfig{
		BaseURL: cfg.Retrieval.BaseURL,
		APIKey:  cfg.Retrieval.APIKey,
		Model:   cfg.Retrieval.Model,
	}
	retrievalClient := ai.NewRetrievalClient(time.Duration(cfg.Retrieval.RequestTimeoutSec) * time.Second)

	sessionRepo := repository.NewSessionRepository(mysqlDB)
	documentRepo := repository.NewDocumentRepository(mysqlDB)
	operationRepo := repository.NewOperationRepository(mysqlDB)
	requirementRepo := repository.NewRequirementRepository(mysqlDB)
	resultRepo := repository.NewResultRepository(mysqlDB)

	reportCache := cache.NewReportCache(
		redisCli,
		time.Duration(cfg.Redis.ReportTTLSeconds)*time.Second,
		time.Duration(cfg.Redis.ReportDirtyTTLSeconds)*time.Second,
	)

	detector := appsvc.NewDetector(
		sessionRepo,
		operationRepo,
		documentRepo,
		publisher,
		appsvc.DetectorQueues{
			ValidationRun: cfg.RabbitMQ.ValidationRunQueue,
			SessionEvents: cfg.RabbitMQ.SessionEventQueue,
		},
	)

	poller := worker.NewOperationPoller(
		retrievalClient,
		retrievalCfg,
		publisher,
		cfg.RabbitMQ.IndexingStatusQueue,
		time.Duration(cfg.Retrieval.OperationPollSec)*time.Second,
		cfg.Retrieval.OperationPollLimit,
	)
	poller.Start(ctx)

	ingestService := appsvc.NewIngestService(
		sessionRepo,
		documentRepo,
		operationRepo,
		retrievalClient,
		retrievalCfg,
		publisher,
		poller,
		appsvc.IngestQueues{
			SessionEvents: cfg.RabbitMQ.SessionEventQueue,
			ValidationRun: cfg.RabbitMQ.ValidationRunQueue,
		},
	)

	metricsEngine := appsvc.NewMetricsEngine(cfg.Validation)
	reportService := appsvc.NewReportService(sessionRepo, resultRepo, metricsEngine, reportCache)

	validationService := appsvc.NewValidationService(
		sessionRepo,
		resolver.New(requirementRepo),
		resultRepo,
		appsvc.NewRetrievalExecutor(retrievalClient, retrievalCfg),
		publisher,
		reportCache,
		appsvc.ValidationQueues{SessionEvents: cfg.RabbitMQ.SessionEventQueue},
		appsvc.RetryConfig{
			MaxAttempts:       cfg.Validation.QueryMaxAttempts,
			BackoffBase:       time.Duration(cfg.Validation.BackoffBaseMs) * time.Millisecond,
			BackoffMultiplier: 2.0,
			MaxBackoff:        time.Duration(cfg.Validation.BackoffMaxMs) * time.Millisecond,
		},
		cfg.Validation.WorkerPoolSize,
	)

	indexingWorker := worker.NewIndexingStatusWorker(mqConn, detector, cfg.RabbitMQ.IndexingStatusQueue)
	if err := indexingWorker.Start(ctx); err != nil {
		return nil, fmt.Errorf("start indexing status worker failed: %w", err)
	}
	validationWorker := worker.NewValidationWorker(mqConn, validationService, cfg.RabbitMQ.ValidationRunQueue)
	if err := validationWorker.Start(ctx); err != nil {
		return nil, fmt.Errorf("start validation worker failed: %w", err)
	}

	return &App{
		Config:           cfg,
		MySQL:            mysqlDB,
		Redis:            redisCli,
		MQConn:           mqConn,
		Publisher:        publisher,
		ReportCache:      reportCache,
		Ingest:           ingestService,
		Reports:          reportService,
		Requirements:     requirementRepo,
		Poller:           poller,
		IndexingWorker:   indexingWorker,
		ValidationWorker: validationWorker,
		StartedAt:        time.Now(),
	}, nil
}

func (a *App) Close() error {
	var closeErr error
	if a.Poller != nil {
		a.Poller.Close()
	}
	if a.IndexingWorker != nil {
		a.IndexingWorker.Close()
	}
	if a.ValidationWorker != nil {
		a.ValidationWorker.Close()
	}
	if a.Redis != nil {
		if err := a.Redis.Close(); err != nil {
			closeErr = err
		}
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
	return closeErr
}

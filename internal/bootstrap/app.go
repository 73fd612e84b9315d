package bootstrap

import (
	"context"
	"fmt"
	"time"

	"cloud.google.com/go/storage"
	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"gorm.io/gorm"

	"paperdeck/internal/app"
	"paperdeck/internal/cache"
	"paperdeck/internal/config"
	"paperdeck/internal/gate"
	"paperdeck/internal/materialize"
	"paperdeck/internal/objectstore"
	"paperdeck/internal/pkg/logger"
	gcsClient "paperdeck/internal/platform/gcs"
	mysqlClient "paperdeck/internal/platform/mysql"
	rabbitmqClient "paperdeck/internal/platform/rabbitmq"
	redisClient "paperdeck/internal/platform/redis"
	"paperdeck/internal/render"
	"paperdeck/internal/repository"
)

type App struct {
	Config *config.Config
	Logger zerolog.Logger
	MySQL  *gorm.DB
	Redis  *redis.Client
	MQConn *amqp.Connection
	GCS    *storage.Client

	Store     objectstore.Store
	Batch     *app.BatchService
	Process   *app.ProcessService
	Summaries *app.SummaryService
	Auth      *app.AuthService

	closeBackend func() error
	StartedAt    time.Time
}

// New loads configuration and connects every configured dependency. Redis
// and RabbitMQ are optional; MySQL and the object store are not.
func New(ctx context.Context, configPath string) (*App, error) {
	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, fmt.Errorf("load config failed: %w", err)
	}
	log := logger.New(cfg.App.LogLevel, cfg.App.LogFormat, cfg.App.Name)

	a := &App{Config: cfg, Logger: log, StartedAt: time.Now()}
	if err := a.init(ctx); err != nil {
		_ = a.Close()
		return nil, err
	}
	return a, nil
}

func (a *App) init(ctx context.Context) error {
	cfg := a.Config

	mysqlDB, err := mysqlClient.New(ctx, cfg.MySQLDSN(), cfg.App.Env == "dev")
	if err != nil {
		return err
	}
	a.MySQL = mysqlDB

	var (
		summaryCache app.SummaryCache
		locker       gate.Locker
	)
	if cfg.Redis.Enabled {
		redisCli, err := redisClient.New(ctx, cfg.Redis.Addr, cfg.Redis.Password, cfg.Redis.DB)
		if err != nil {
			return err
		}
		a.Redis = redisCli
		summaryCache = cache.NewSummaryCache(redisCli, time.Duration(cfg.Redis.SummaryTTLSeconds)*time.Second)
		locker = cache.NewTitleLock(redisCli)
	}

	var publisher app.JobPublisher
	if cfg.RabbitMQ.Enabled {
		mqConn, err := rabbitmqClient.New(ctx, cfg.RabbitMQ.URL)
		if err != nil {
			return err
		}
		a.MQConn = mqConn
		publisher = rabbitmqClient.NewJobPublisher(mqConn, cfg.RabbitMQ.ProcessQueue)
	}

	store, err := a.openStore(ctx)
	if err != nil {
		return err
	}
	a.Store = store

	backend, closeBackend, err := NewBackend(ctx, cfg)
	if err != nil {
		return err
	}
	a.closeBackend = closeBackend

	stages, err := BuildStages(cfg, backend)
	if err != nil {
		return err
	}

	repo := repository.NewSummaryPageRepository(mysqlDB)
	renderer := render.NewMarpCLI(cfg.Render.Command, cfg.Render.Args, cfg.Render.ThemePath, cfg.RenderTimeout())
	materializer := materialize.New(renderer, store, cfg.Paths.OutputDir, cfg.Storage.UploadFolder, cfg.PublicURL, cfg.StorageTimeout())

	processor := app.NewProcessor(app.ProcessorConfig{
		Store:        store,
		Stages:       stages,
		Retry:        RetryPolicy(cfg.LLM),
		Materializer: materializer,
		Repo:         repo,
		Cache:        summaryCache,
		OutputDir:    cfg.Paths.OutputDir,
		FetchTimeout: cfg.StorageTimeout(),
		Logger:       a.Logger,
	})
	lockTTL := cfg.LockTTL(len(stages))
	if configured := time.Duration(cfg.Redis.LockTTLSeconds) * time.Second; locker != nil && lockTTL > configured {
		a.Logger.Warn().Dur("configured", configured).Dur("effective", lockTTL).Msg("lock ttl raised to cover the slowest document run")
	}
	g := gate.New(repo, locker, lockTTL, a.Logger)

	a.Batch = app.NewBatchService(store, g, processor, publisher,
		cfg.Storage.DownloadFolder, cfg.Storage.SourceExtension, a.Logger.With().Str("component", "batch").Logger())
	a.Process = app.NewProcessService(g, processor, repo, publisher,
		cfg.Storage.DownloadFolder, cfg.Storage.SourceExtension, cfg.Pipeline.OnDemandSkipProcessed,
		a.Logger.With().Str("component", "process").Logger())
	a.Summaries = app.NewSummaryService(repo, summaryCache, a.Logger)
	a.Auth = app.NewAuthService(
		cfg.Auth.Enabled,
		cfg.Auth.OperatorUsername,
		cfg.Auth.OperatorPasswordHash,
		cfg.Auth.JWTSecret,
		time.Duration(cfg.Auth.JWTExpireMinute)*time.Minute,
	)

	a.Logger.Info().
		Int("stages", len(stages)).
		Str("provider", cfg.LLM.Provider).
		Str("storage", cfg.Storage.Backend).
		Bool("redis", a.Redis != nil).
		Bool("rabbitmq", a.MQConn != nil).
		Msg("app initialized")
	return nil
}

func (a *App) openStore(ctx context.Context) (objectstore.Store, error) {
	switch a.Config.Storage.Backend {
	case "local":
		return objectstore.NewLocalStore(a.Config.Storage.LocalRoot)
	case "", "gcs":
		client, err := gcsClient.New(ctx, a.Config.Storage.Bucket)
		if err != nil {
			return nil, err
		}
		a.GCS = client
		return objectstore.NewGCSStore(client, a.Config.Storage.Bucket), nil
	default:
		return nil, fmt.Errorf("unknown storage backend %q", a.Config.Storage.Backend)
	}
}

func (a *App) Close() error {
	var closeErr error
	if a.closeBackend != nil {
		if err := a.closeBackend(); err != nil {
			closeErr = err
		}
	}
	if a.GCS != nil {
		if err := a.GCS.Close(); err != nil {
			closeErr = err
		}
	}
	if a.Redis != nil {
		if err := a.Redis.Close(); err != nil {
			closeErr = err
		}
	}
	if a.MQConn != nil && !a.MQConn.IsClosed() {
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

package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/redis/go-redis/v9"

	"github.com/ACasillas1999/Inventarios-sub001/internal/application/auth"
	"github.com/ACasillas1999/Inventarios-sub001/internal/application/branches"
	"github.com/ACasillas1999/Inventarios-sub001/internal/application/counts"
	"github.com/ACasillas1999/Inventarios-sub001/internal/application/folio"
	"github.com/ACasillas1999/Inventarios-sub001/internal/application/requests"
	"github.com/ACasillas1999/Inventarios-sub001/internal/application/stock"
	"github.com/ACasillas1999/Inventarios-sub001/internal/infrastructure/branchdb"
	"github.com/ACasillas1999/Inventarios-sub001/internal/infrastructure/cache"
	"github.com/ACasillas1999/Inventarios-sub001/internal/infrastructure/events"
	"github.com/ACasillas1999/Inventarios-sub001/internal/infrastructure/metrics"
	"github.com/ACasillas1999/Inventarios-sub001/internal/infrastructure/notify"
	infrapdf "github.com/ACasillas1999/Inventarios-sub001/internal/infrastructure/pdf"
	"github.com/ACasillas1999/Inventarios-sub001/internal/infrastructure/postgres"
	httpRouter "github.com/ACasillas1999/Inventarios-sub001/internal/interfaces/http"
	"github.com/ACasillas1999/Inventarios-sub001/migrations"
	"github.com/ACasillas1999/Inventarios-sub001/pkg/config"
	"github.com/ACasillas1999/Inventarios-sub001/pkg/logger"
	"github.com/ACasillas1999/Inventarios-sub001/pkg/secret"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		panic("cargar configuración: " + err.Error())
	}

	log := logger.New(logger.Config{
		Env:   cfg.App.Env,
		Level: cfg.App.LogLevel,
		App:   cfg.App.Name,
	})
	log.Info().
		Str("env", cfg.App.Env).
		Str("app", cfg.App.Name).
		Msg("iniciando aplicación")

	if cfg.JWT.Secret == "" {
		log.Fatal().Msg("JWT_SECRET es requerido")
	}

	// Los recursos se cierran con defer dentro de run; Fatal solo después de que regresa.
	if err := run(cfg, log); err != nil {
		log.Fatal().Err(err).Msg("arranque")
	}
	log.Info().Msg("aplicación detenida")
}

func run(cfg *config.Config, log *logger.Logger) error {
	// ctx vive mientras el proceso atiende; se cancela al recibir la señal de apagado.
	ctx, stop := context.WithCancel(context.Background())
	defer stop()

	pool, err := postgres.NewPool(ctx, cfg.DB)
	if err != nil {
		return fmt.Errorf("conexión a PostgreSQL: %w", err)
	}
	defer pool.Close()

	if cfg.DB.AutoMigrate {
		n, err := postgres.NewMigrator(pool, log).Run(ctx, migrations.Files)
		if err != nil {
			return fmt.Errorf("migraciones: %w", err)
		}
		log.Info().Int("applied", n).Msg("esquema local al día")
	}

	box, err := secret.NewBox(cfg.Branches.SecretKey)
	if err != nil {
		return fmt.Errorf("BRANCH_SECRET_KEY inválida: %w", err)
	}

	col := metrics.New()

	// Repositorios locales
	countRepo := postgres.NewCountRepository(pool)
	detailRepo := postgres.NewCountDetailRepository(pool)
	requestRepo := postgres.NewRequestRepository(pool)
	branchRepo := postgres.NewBranchRepository(pool, box)
	userRepo := postgres.NewUserRepository(pool)
	folioRepo := postgres.NewFolioSequenceRepository(pool)
	settings := postgres.NewSettingsStore(pool, log)
	auditLog := postgres.NewAuditLog(pool)
	txRunner := postgres.NewTxRunner(pool)

	// Sucursales: registro de conexiones, ejecutor y catálogo
	registry := branchdb.NewRegistry(
		branchdb.NewMySQLOpener(branchdb.MySQLOptions{
			ConnectTimeout: cfg.Branches.ConnectTimeout,
			QueryTimeout:   cfg.Branches.QueryTimeout,
			MaxOpenConns:   cfg.Branches.MaxOpenConns,
		}),
		branchdb.RegistryConfig{
			HealthInterval: cfg.Branches.HealthInterval,
			ConnectTimeout: cfg.Branches.ConnectTimeout,
		},
		log, col,
	)
	defer registry.Close()
	executor := branchdb.NewExecutor(registry, cfg.Branches.QueryTimeout, log, col)
	catalog := branchdb.NewCatalog(executor, cfg.Counts.CatalogChunk, log)

	// Caché y eventos: Redis si está configurado, si no en memoria del proceso
	var (
		store  cache.Store
		stream events.Stream
	)
	if cfg.Redis.Enabled() {
		rdb := redis.NewClient(&redis.Options{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		defer rdb.Close()
		pingCtx, cancel := context.WithTimeout(ctx, 3*time.Second)
		if err := rdb.Ping(pingCtx).Err(); err != nil {
			log.Warn().Err(err).Str("addr", cfg.Redis.Addr).Msg("Redis no responde; se reintentará en cada operación")
		}
		cancel()
		store = cache.NewRedisStore(rdb)
		redisStream := events.NewRedisBroadcaster(rdb, cfg.Redis.EventsChannel, log)
		defer redisStream.Close()
		stream = redisStream
	} else {
		store = cache.NewMemoryStore(cfg.Cache.MaxEntries)
		stream = events.NewLocalBroadcaster(log)
	}
	stockCache := cache.NewStockCache(store, cache.Options{
		StockTTL: cfg.Cache.StockTTL,
		ItemTTL:  cfg.Cache.ItemTTL,
	}, log, col)

	notifier := notify.NewLogNotifier(log)
	folios := folio.NewAllocator(folioRepo, settings, cfg.Folio.CountTemplate, cfg.Folio.RequestTemplate)

	// Casos de uso
	workflow := requests.NewWorkflow(requests.Deps{
		Requests: requestRepo,
		Counts:   countRepo,
		Details:  detailRepo,
		Tx:       txRunner,
		Folios:   folios,
		Audit:    auditLog,
		Notifier: notifier,
		Events:   stream,
		Log:      log,
		MaxBatch: cfg.Counts.RequestMaxBatch,
	})
	engine := counts.NewEngine(counts.Deps{
		Counts:   countRepo,
		Details:  detailRepo,
		Tx:       txRunner,
		Catalog:  catalog,
		Folios:   folios,
		Requests: workflow,
		Cache:    stockCache,
		Audit:    auditLog,
		Notifier: notifier,
		Events:   stream,
		Log:      log,
		MaxItems: cfg.Counts.MaxItems,
	})
	sheets := counts.NewSheetUseCase(countRepo, detailRepo, branchRepo, infrapdf.NewMarotoSheetGenerator())
	stockSvc := stock.NewService(catalog, stockCache, log)
	branchSvc := branches.NewService(branchRepo, registry, stockCache, auditLog, log)
	permissions := auth.NewPermissionChecker(userRepo, time.Minute, log)

	loadCtx, cancelLoad := context.WithTimeout(ctx, cfg.Branches.ConnectTimeout+10*time.Second)
	n, err := branchSvc.Load(loadCtx)
	cancelLoad()
	if err != nil {
		return fmt.Errorf("cargar sucursales: %w", err)
	}
	log.Info().Int("branches", n).Msg("sucursales registradas")

	app := fiber.New(fiber.Config{
		AppName:      cfg.App.Name,
		ReadTimeout:  time.Second * 10,
		WriteTimeout: cfg.Branches.QueryTimeout + 10*time.Second,
		IdleTimeout:  time.Second * 60,
		ErrorHandler: httpRouter.NewErrorHandler(log),
	})
	app.Use(recover.New())

	httpRouter.Router(app, httpRouter.RouterDeps{
		Counts:      httpRouter.NewCountHandler(engine, sheets),
		Requests:    httpRouter.NewRequestHandler(workflow),
		Branches:    httpRouter.NewBranchHandler(branchSvc),
		Stock:       httpRouter.NewStockHandler(stockSvc),
		Events:      httpRouter.NewEventsHandler(ctx, stream, 15*time.Second),
		Permissions: permissions,
		Metrics:     col,
		Registry:    col.Registry,
		JWTSecret:   cfg.JWT.Secret,
		Log:         log,
	})

	go func() {
		if err := app.Listen(cfg.HTTP.Addr()); err != nil {
			log.Error().Err(err).Msg("servidor HTTP finalizado")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info().Msg("señal de apagado recibida, cerrando servidor...")
	stop()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := app.ShutdownWithContext(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("apagado del servidor")
	}
	return nil
}

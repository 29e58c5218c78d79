package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"cloud.google.com/go/pubsub"
	"github.com/gofiber/contrib/swagger"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/recover"

	"github.com/jhoicas/agrostock-api/internal/application/production"
	"github.com/jhoicas/agrostock-api/internal/domain/repository"
	"github.com/jhoicas/agrostock-api/internal/infrastructure/catalogxml"
	"github.com/jhoicas/agrostock-api/internal/infrastructure/memory"
	"github.com/jhoicas/agrostock-api/internal/infrastructure/notify"
	"github.com/jhoicas/agrostock-api/internal/infrastructure/postgres"
	httpRouter "github.com/jhoicas/agrostock-api/internal/interfaces/http"
	"github.com/jhoicas/agrostock-api/pkg/config"
	"github.com/jhoicas/agrostock-api/pkg/logger"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		panic("cargar configuración: " + err.Error())
	}

	log := logger.New(logger.Config{
		Env:   cfg.App.Env,
		Level: cfg.App.LogLevel,
	})
	log.Info().
		Str("env", cfg.App.Env).
		Str("app", cfg.App.Name).
		Str("storage", cfg.Storage).
		Msg("iniciando aplicación")

	ctx := context.Background()

	var (
		txRunner production.TxRunner
		repos    repository.Repositories
	)
	switch cfg.Storage {
	case config.StorageDriverMemory:
		store := memory.NewStore()
		if cfg.CatalogFile != "" {
			catalog, err := catalogxml.Load(cfg.CatalogFile)
			if err != nil {
				log.Fatal().Err(err).Str("file", cfg.CatalogFile).Msg("cargar catálogo")
			}
			for _, p := range catalog.Products {
				store.AddProduct(p)
			}
			for _, c := range catalog.Crops {
				store.AddCrop(c)
			}
			for _, c := range catalog.Customers {
				store.AddCustomer(c)
			}
			log.Info().
				Int("products", len(catalog.Products)).
				Int("crops", len(catalog.Crops)).
				Int("customers", len(catalog.Customers)).
				Msg("catálogo cargado en memoria")
		}
		txRunner = store
		repos = store.Repositories()
		log.Warn().Msg("almacenamiento en memoria: los datos se pierden al reiniciar")
	default:
		pool, err := postgres.NewPool(ctx, cfg.DB)
		if err != nil {
			log.Fatal().Err(err).Msg("conexión a PostgreSQL")
		}
		defer pool.Close()
		if cfg.DB.AutoMigrate {
			if err := postgres.Migrate(ctx, pool, log); err != nil {
				log.Fatal().Err(err).Msg("migraciones")
			}
		}
		lockTimeout := time.Duration(cfg.DB.LockTimeoutMS) * time.Millisecond
		txRunner = postgres.NewTxRunner(pool, lockTimeout, log)
		repos = postgres.NewRepositories(pool)
	}

	ledger := production.NewLedger(repos.Batches, repos.Movements, cfg.Stock.LedgerPageSize)
	engine := production.NewStockEngine(txRunner, ledger, production.StockPolicy{
		AllowOverProduction: cfg.Stock.AllowOverProduction,
	}, log)
	registry := production.NewBatchRegistry(txRunner, repos.Batches, ledger, log)
	notifier, closeNotifier, err := newNotifier(ctx, cfg.Notify, log)
	if err != nil {
		log.Fatal().Err(err).Str("driver", cfg.Notify.Driver).Msg("notificador de ventas")
	}
	defer closeNotifier()
	orchestrator := production.NewSaleOrchestrator(txRunner, engine, repos, notifier, cfg.Stock.TaxRate, log)

	app := fiber.New(fiber.Config{
		AppName:      cfg.App.Name,
		ReadTimeout:  time.Second * 10,
		WriteTimeout: time.Second * 10,
		IdleTimeout:  time.Second * 60,
	})
	app.Use(recover.New())

	// Swagger UI en local: http://localhost:<port>/docs
	const swaggerFile = "./docs/swagger.json"
	if _, err := os.Stat(swaggerFile); err == nil {
		app.Use(swagger.New(swagger.Config{
			BasePath: "/",
			FilePath: swaggerFile,
			Path:     "docs",
			Title:    "AgroStock API",
		}))
	} else {
		log.Warn().Str("file", swaggerFile).Msg("swagger.json no encontrado, /docs deshabilitado")
	}

	app.Get("/health", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{"status": "ok", "service": cfg.App.Name, "storage": cfg.Storage})
	})

	httpRouter.Router(app, httpRouter.RouterDeps{
		Registry:     registry,
		Ledger:       ledger,
		Engine:       engine,
		Orchestrator: orchestrator,
		JWTSecret:    cfg.JWT.Secret,
		Log:          log,
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

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := app.ShutdownWithContext(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("apagado del servidor")
	}

	log.Info().Msg("aplicación detenida")
}

// newNotifier arma el destino de los eventos de venta. La función devuelta libera el cliente.
func newNotifier(ctx context.Context, cfg config.NotifyConfig, log *logger.Logger) (production.SaleNotifier, func(), error) {
	if cfg.Driver != config.NotifierPubSub {
		return notify.NewLogNotifier(log), func() {}, nil
	}
	client, err := pubsub.NewClient(ctx, cfg.ProjectID)
	if err != nil {
		return nil, nil, err
	}
	topic := client.Topic(cfg.Topic)
	ok, err := topic.Exists(ctx)
	if err != nil {
		_ = client.Close()
		return nil, nil, err
	}
	if !ok {
		if !cfg.CreateTopic {
			_ = client.Close()
			return nil, nil, fmt.Errorf("tópico %q no existe", cfg.Topic)
		}
		if topic, err = client.CreateTopic(ctx, cfg.Topic); err != nil {
			_ = client.Close()
			return nil, nil, err
		}
	}
	log.Info().Str("project_id", cfg.ProjectID).Str("topic", cfg.Topic).Msg("eventos de venta hacia Pub/Sub")
	return notify.NewPubSubNotifier(topic, log), func() {
		topic.Stop()
		_ = client.Close()
	}, nil
}

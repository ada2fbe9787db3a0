package app

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"time"

	"inventory/internal/cache"
	"inventory/internal/config"
	"inventory/internal/database"
	"inventory/internal/handlers"
	"inventory/internal/middleware"
	"inventory/internal/repositories"
	"inventory/internal/services"
	"inventory/pkg/rabbitmq"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/gofiber/fiber/v2/middleware/requestid"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

const shutdownTimeout = 10 * time.Second

// App is the assembled inventory service.
type App struct {
	Config   *config.Config
	Logger   *slog.Logger
	Repo     repositories.ProductRepository
	Products *services.ProductService
	Server   *fiber.App

	closers []func() error
}

// NewLogger returns a JSON slog logger writing to w.
func NewLogger(w io.Writer, level slog.Level) *slog.Logger {
	return slog.New(slog.NewJSONHandler(w, &slog.HandlerOptions{Level: level}))
}

// New opens the store, the optional list cache and event publisher, and
// builds the HTTP server. Close releases everything New opened.
func New(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*App, error) {
	a := &App{Config: cfg, Logger: logger}

	repo, closeRepo, err := OpenRepository(cfg.Database, logger)
	if err != nil {
		return nil, err
	}
	a.Repo = repo
	a.closers = append(a.closers, closeRepo)

	if cfg.InitializeDB {
		if err := database.Seed(ctx, repo, database.DefaultSeedCount, nil); err != nil {
			a.Close()
			return nil, fmt.Errorf("failed to seed database: %w", err)
		}
		logger.Info("database initialized", "products", database.DefaultSeedCount)
	}

	store, err := a.openCache(ctx)
	if err != nil {
		a.Close()
		return nil, err
	}

	opts := []services.ProductServiceOption{
		services.WithListCache(store, cfg.Cache.TTL),
		services.WithLogger(logger),
	}
	if cfg.RabbitMQURL != "" {
		mq, err := rabbitmq.NewClient(rabbitmq.Config{URL: cfg.RabbitMQURL}, logger)
		if err != nil {
			a.Close()
			return nil, err
		}
		a.closers = append(a.closers, mq.Close)
		opts = append(opts, services.WithEventPublisher(mq))
	}

	a.Products = services.NewProductService(repo, opts...)
	a.Server = NewServer(cfg, a.Products, logger)
	return a, nil
}

// OpenRepository returns the product store for cfg and a function closing it.
// SQL stores are migrated before they are returned.
func OpenRepository(cfg config.DatabaseConfig, logger *slog.Logger) (repositories.ProductRepository, func() error, error) {
	if cfg.Driver == config.DriverMemory {
		return repositories.NewMemoryProductRepository(), func() error { return nil }, nil
	}

	db, err := database.Open(cfg, logger)
	if err != nil {
		return nil, nil, err
	}
	sqlDB, err := db.DB()
	if err != nil {
		return nil, nil, err
	}
	if err := database.Migrate(db); err != nil {
		sqlDB.Close()
		return nil, nil, err
	}
	return repositories.NewGORMProductRepository(db), sqlDB.Close, nil
}

func (a *App) openCache(ctx context.Context) (cache.Store, error) {
	switch a.Config.Cache.Driver {
	case config.CacheMemory:
		return cache.NewMemoryStore(), nil
	case config.CacheRedis:
		client := redis.NewClient(&redis.Options{
			Addr:     a.Config.Redis.Addr,
			Password: a.Config.Redis.Password,
			DB:       a.Config.Redis.DB,
		})
		if err := client.Ping(ctx).Err(); err != nil {
			client.Close()
			return nil, fmt.Errorf("failed to connect to redis: %w", err)
		}
		a.closers = append(a.closers, client.Close)
		return cache.NewRedisStore(client, ""), nil
	default:
		return cache.NewNoopStore(), nil
	}
}

// NewServer builds the Fiber app serving the product API.
func NewServer(cfg *config.Config, productService *services.ProductService, logger *slog.Logger) *fiber.App {
	app := fiber.New(fiber.Config{
		AppName:               "inventory",
		DisableStartupMessage: true,
		ErrorHandler:          errorHandler,
	})

	app.Use(recover.New())
	app.Use(requestid.New(requestid.Config{Generator: uuid.NewString}))
	app.Use(middleware.RequestLogger(logger))
	app.Use(cors.New(cors.Config{AllowOrigins: cfg.CORSAllowOrigins}))

	app.Get("/health", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{
			"status": "healthy",
			"time":   time.Now().Format(time.RFC3339),
		})
	})

	handlers.NewProductHandler(productService, logger).RegisterRoutes(app)

	if cfg.StaticDir != "" {
		app.Static("/", cfg.StaticDir)
	}
	return app
}

func errorHandler(c *fiber.Ctx, err error) error {
	code := fiber.StatusInternalServerError
	message := "Internal server error"
	var fe *fiber.Error
	if errors.As(err, &fe) {
		code = fe.Code
		message = fe.Message
	}
	return c.Status(code).JSON(fiber.Map{"message": message})
}

// Run serves HTTP until ctx is cancelled, then shuts the server down.
func (a *App) Run(ctx context.Context) error {
	errCh := make(chan error, 1)
	go func() {
		errCh <- a.Server.Listen(a.Config.Addr())
	}()
	a.Logger.Info("server listening", "addr", a.Config.Addr())

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
		a.Logger.Info("shutting down server")
		return a.Server.ShutdownWithTimeout(shutdownTimeout)
	}
}

// Close releases the store, cache and broker connections.
func (a *App) Close() error {
	var errs []error
	for i := len(a.closers) - 1; i >= 0; i-- {
		errs = append(errs, a.closers[i]())
	}
	a.closers = nil
	return errors.Join(errs...)
}

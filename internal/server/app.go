// Package server provides the core application server and dependency wiring.
package server

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"cloud.google.com/go/pubsub"
	"cloud.google.com/go/storage"
	"go.uber.org/zap"

	"github.com/JakeFAU/city-events-scraper/internal/api"
	"github.com/JakeFAU/city-events-scraper/internal/clock/system"
	"github.com/JakeFAU/city-events-scraper/internal/config"
	"github.com/JakeFAU/city-events-scraper/internal/event"
	"github.com/JakeFAU/city-events-scraper/internal/extract"
	collyfetcher "github.com/JakeFAU/city-events-scraper/internal/fetcher/colly"
	"github.com/JakeFAU/city-events-scraper/internal/hash/sha256"
	"github.com/JakeFAU/city-events-scraper/internal/id/uuid"
	"github.com/JakeFAU/city-events-scraper/internal/logging"
	"github.com/JakeFAU/city-events-scraper/internal/metrics"
	"github.com/JakeFAU/city-events-scraper/internal/normalize"
	"github.com/JakeFAU/city-events-scraper/internal/orchestrator"
	"github.com/JakeFAU/city-events-scraper/internal/pagination"
	"github.com/JakeFAU/city-events-scraper/internal/persist"
	"github.com/JakeFAU/city-events-scraper/internal/policy/ratelimit"
	memorypublisher "github.com/JakeFAU/city-events-scraper/internal/publisher/memory"
	gcppublisher "github.com/JakeFAU/city-events-scraper/internal/publisher/pubsub"
	"github.com/JakeFAU/city-events-scraper/internal/scheduler"
	"github.com/JakeFAU/city-events-scraper/internal/scraper"
	gcsstorage "github.com/JakeFAU/city-events-scraper/internal/storage/gcs"
	localstorage "github.com/JakeFAU/city-events-scraper/internal/storage/local"
	memoryStorage "github.com/JakeFAU/city-events-scraper/internal/storage/memory"
	pgstore "github.com/JakeFAU/city-events-scraper/internal/storage/postgres"
)

const shutdownTimeout = 10 * time.Second

// eventStore is satisfied by both the memory and Postgres stores.
type eventStore interface {
	event.Store
	event.SubscriptionStore
}

// App contains the application's dependencies.
type App struct {
	cfg          *config.Config
	logger       *zap.Logger
	clock        *system.Clock
	store        eventStore
	pgStore      *pgstore.EventStore
	storage      *storage.Client
	gcpPublisher *gcppublisher.Publisher
	publisher    event.Publisher
	orchestrator *orchestrator.Orchestrator
	scheduler    *scheduler.Scheduler
	apiServer    *api.Server
}

// Build creates the application's dependencies.
func Build(ctx context.Context, cfg *config.Config) (*App, error) {
	logger, err := logging.New(cfg.Logging.Development)
	if err != nil {
		return nil, fmt.Errorf("logger init failed: %w", err)
	}
	zap.ReplaceGlobals(logger)
	return build(ctx, cfg, logger)
}

func build(ctx context.Context, cfg *config.Config, logger *zap.Logger) (*App, error) {
	metrics.Init()
	app := &App{cfg: cfg, logger: logger, clock: system.New()}
	logger.Info("building application dependencies",
		zap.Int("server_port", cfg.Server.Port),
		zap.Int("sources", len(cfg.Sources)),
		zap.Duration("interval", cfg.ScrapeInterval()),
	)

	idGen := uuid.New()
	if err := setupDatabase(ctx, app, idGen); err != nil {
		return nil, err
	}
	blobStore, err := setupStorage(ctx, app)
	if err != nil {
		app.closeInfrastructure()
		return nil, err
	}
	if err := setupPublisher(ctx, app); err != nil {
		app.closeInfrastructure()
		return nil, err
	}
	if err := setupPipeline(app, blobStore); err != nil {
		app.closeInfrastructure()
		return nil, err
	}

	app.scheduler = scheduler.New(scheduler.Config{
		Interval:       cfg.ScrapeInterval(),
		SkipInitialRun: !cfg.Scraper.RunOnStart,
		Clock:          app.clock,
		Logger:         logger.Named("scheduler"),
	}, func(ctx context.Context) {
		app.ScrapeOnce(ctx)
	})

	app.apiServer = api.NewServer(api.Config{
		AuthEnabled:       cfg.Auth.Enabled,
		APIKey:            cfg.Auth.APIKey,
		RequestTimeout:    time.Duration(cfg.Server.RequestTimeoutSeconds) * time.Second,
		SubscriptionTopic: cfg.PubSub.SubscriptionTopic,
	}, api.Dependencies{
		Events:        app.store,
		Subscriptions: app.store,
		Publisher:     app.publisher,
		IDGen:         idGen,
		Clock:         app.clock,
		Trigger:       app.scheduler.Trigger,
		Logger:        logger.Named("api"),
	})
	return app, nil
}

// Handler exposes the HTTP API.
func (a *App) Handler() http.Handler {
	return a.apiServer.Handler()
}

// ScrapeOnce runs one pass over every configured source.
func (a *App) ScrapeOnce(ctx context.Context) []event.SourceSummary {
	return a.orchestrator.RunAll(ctx, a.cfg.Sources)
}

// Run serves the API and runs the scheduler until ctx is canceled or the
// process receives SIGINT/SIGTERM.
func (a *App) Run(ctx context.Context) error {
	a.logger.Info("application started")
	ctx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := a.scheduler.Start(ctx); err != nil {
		return fmt.Errorf("start scheduler: %w", err)
	}

	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", a.cfg.Server.Port),
		Handler:           a.Handler(),
		ReadHeaderTimeout: 5 * time.Second,
	}

	go func() {
		a.logger.Info("http server started", zap.Int("port", a.cfg.Server.Port))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			a.logger.Error("http server error", zap.Error(err))
			stop()
		}
	}()

	<-ctx.Done()
	a.logger.Info("shutdown initiated")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		a.logger.Error("server shutdown error", zap.Error(err))
	}
	a.scheduler.Stop()

	return a.Close(shutdownCtx)
}

// Close releases clients and flushes the logger.
func (a *App) Close(_ context.Context) error {
	a.closeInfrastructure()
	a.logger.Info("shutdown complete")
	logging.Sync(a.logger)
	return nil
}

func (a *App) closeInfrastructure() {
	if a.gcpPublisher != nil {
		if err := a.gcpPublisher.Close(); err != nil {
			a.logger.Warn("pubsub publisher close failed", zap.Error(err))
		}
		a.gcpPublisher = nil
	}
	if a.storage != nil {
		if err := a.storage.Close(); err != nil {
			a.logger.Warn("gcs client close failed", zap.Error(err))
		}
		a.storage = nil
	}
	if a.pgStore != nil {
		a.pgStore.Close()
		a.pgStore = nil
	}
}

func setupDatabase(ctx context.Context, app *App, idGen event.IDGenerator) error {
	db := app.cfg.DB
	if db.DSN == "" {
		app.logger.Warn("no database DSN configured, using in-memory event store")
		app.store = memoryStorage.NewEventStore(idGen)
		return nil
	}
	store, err := pgstore.NewEventStore(ctx, pgstore.EventStoreConfig{
		DSN:                db.DSN,
		EventsTable:        db.EventsTable,
		SubscriptionsTable: db.SubscriptionsTable,
		MaxConns:           db.MaxConns,
		MinConns:           db.MinConns,
	}, idGen)
	if err != nil {
		return fmt.Errorf("event store init failed: %w", err)
	}
	if db.AutoMigrate {
		if err := store.EnsureSchema(ctx); err != nil {
			store.Close()
			return fmt.Errorf("event store migrate failed: %w", err)
		}
	}
	app.pgStore = store
	app.store = store
	app.logger.Info("postgres event store initialized", zap.String("table", db.EventsTable))
	return nil
}

func setupStorage(ctx context.Context, app *App) (event.BlobStore, error) {
	st := app.cfg.Storage
	switch st.Backend {
	case config.BackendGCS:
		app.logger.Info("using GCS storage backend", zap.String("bucket", st.Bucket))
		client, err := storage.NewClient(ctx)
		if err != nil {
			return nil, fmt.Errorf("gcs client init failed: %w", err)
		}
		app.storage = client
		blobStore, err := gcsstorage.New(client, gcsstorage.Config{Bucket: st.Bucket, CacheControl: st.CacheControl})
		if err != nil {
			return nil, fmt.Errorf("gcs blob store init failed: %w", err)
		}
		return blobStore, nil
	case config.BackendLocal:
		app.logger.Info("using local storage backend", zap.String("path", st.Local.BaseDir))
		blobStore, err := localstorage.New(st.Local)
		if err != nil {
			return nil, fmt.Errorf("local blob store init failed: %w", err)
		}
		return blobStore, nil
	case config.BackendMemory:
		app.logger.Info("using in-memory storage backend")
		return memoryStorage.NewBlobStore(), nil
	default:
		app.logger.Info("page archiving disabled")
		return nil, nil
	}
}

func setupPublisher(ctx context.Context, app *App) error {
	ps := app.cfg.PubSub
	if ps.ProjectID == "" {
		app.logger.Warn("no Pub/Sub project configured, using in-memory publisher")
		app.publisher = memorypublisher.New()
		return nil
	}
	client, err := pubsub.NewClient(ctx, ps.ProjectID)
	if err != nil {
		return fmt.Errorf("pubsub client init failed: %w", err)
	}
	app.gcpPublisher = gcppublisher.New(client)
	app.publisher = app.gcpPublisher
	app.logger.Info("Pub/Sub publisher initialized",
		zap.String("project", ps.ProjectID),
		zap.String("scrape_topic", ps.ScrapeTopic),
		zap.String("subscription_topic", ps.SubscriptionTopic),
	)
	return nil
}

func setupPipeline(app *App, blobStore event.BlobStore) error {
	cfg := app.cfg
	logger := app.logger

	var limiter collyfetcher.Limiter
	if cfg.Scraper.RateLimitRPS > 0 {
		limiter = ratelimit.New(ratelimit.Config{
			DefaultRPS:   cfg.Scraper.RateLimitRPS,
			DefaultBurst: cfg.Scraper.RateLimitBurst,
		})
		logger.Info("rate limiter enabled",
			zap.Float64("rps", cfg.Scraper.RateLimitRPS),
			zap.Int("burst", cfg.Scraper.RateLimitBurst),
		)
	}
	fetcher := collyfetcher.New(collyfetcher.Config{
		UserAgent: cfg.Scraper.UserAgent,
		Timeout:   cfg.FetchTimeout(),
		Limiter:   limiter,
	})
	logger.Info("using colly fetcher", zap.String("user_agent", cfg.Scraper.UserAgent))

	registry := extract.NewDefaultRegistry(app.clock, logger.Named("extract"))
	pageScraper := scraper.New(
		fetcher,
		registry,
		blobStore,
		sha256.New(),
		app.clock,
		scraper.Config{
			ArchivePages: cfg.Storage.ArchivePages && blobStore != nil,
			BlobPrefix:   cfg.Storage.Prefix,
			ContentType:  cfg.Storage.ContentType,
		},
		logger.Named("scraper"),
	)

	orch, err := orchestrator.New(orchestrator.Config{
		SourceDelay:  cfg.SourceDelay(),
		SummaryTopic: cfg.PubSub.ScrapeTopic,
	}, orchestrator.Dependencies{
		Scraper:    pageScraper,
		Walker:     pagination.New(pageScraper, app.clock, cfg.PageDelay(), logger.Named("pagination")),
		Normalizer: normalize.New(app.clock, cfg.Defaults, logger.Named("normalize")),
		Persister:  persist.New(app.store, app.clock, logger.Named("persist")),
		Publisher:  app.publisher,
		Pauser:     app.clock,
		Clock:      app.clock,
		Logger:     logger.Named("orchestrator"),
	})
	if err != nil {
		return fmt.Errorf("orchestrator init failed: %w", err)
	}
	app.orchestrator = orch
	return nil
}

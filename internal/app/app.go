// Package app wires together configuration, storage, the search backend,
// event consumers, and the HTTP server.
package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	goredis "github.com/redis/go-redis/v9"
	"go.mongodb.org/mongo-driver/mongo"

	"github.com/tthanhhau/shopsearch/internal/backend"
	"github.com/tthanhhau/shopsearch/internal/backend/elastic"
	"github.com/tthanhhau/shopsearch/internal/backend/fallback"
	"github.com/tthanhhau/shopsearch/internal/catalog"
	"github.com/tthanhhau/shopsearch/internal/config"
	"github.com/tthanhhau/shopsearch/internal/event"
	handler "github.com/tthanhhau/shopsearch/internal/handler/http"
	"github.com/tthanhhau/shopsearch/internal/service"
	apperrors "github.com/tthanhhau/shopsearch/pkg/errors"
	"github.com/tthanhhau/shopsearch/pkg/health"
	pkgkafka "github.com/tthanhhau/shopsearch/pkg/kafka"
	"github.com/tthanhhau/shopsearch/pkg/middleware"
	pkgredis "github.com/tthanhhau/shopsearch/pkg/redis"
)

// probeTimeout bounds the startup reachability probe of the search engine.
const probeTimeout = 5 * time.Second

// App holds the composed application and its long-lived resources.
type App struct {
	cfg        *config.Config
	logger     *slog.Logger
	mongo      *mongo.Client
	cache      *goredis.Client
	consumers  []*pkgkafka.Consumer
	httpServer *http.Server
}

// NewApp creates the application, selecting the search backend once. The
// choice is final for the process lifetime; a mid-flight engine outage
// surfaces as search execution errors, not a backend switch.
func NewApp(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*App, error) {
	mongoClient, err := catalog.Connect(ctx, cfg.MongoURI)
	if err != nil {
		return nil, fmt.Errorf("init catalog store: %w", err)
	}
	store := catalog.NewStore(mongoClient.Database(cfg.MongoDatabase))

	searchBackend, esEngine, err := selectBackend(ctx, cfg, store, logger)
	if err != nil {
		return nil, err
	}
	logger.Info("search backend selected", slog.String("backend", searchBackend.Name()))

	// The cache is optional: a missing Redis only disables caching.
	var cache *goredis.Client
	cache, err = pkgredis.NewClient(ctx, pkgredis.Config{
		Addr:     cfg.RedisAddr,
		Password: cfg.RedisPassword,
		DB:       cfg.RedisDB,
	})
	if err != nil {
		logger.Warn("redis unavailable, caching disabled", slog.String("error", err.Error()))
		cache = nil
	}

	syncService := service.NewSyncService(searchBackend, store, logger)
	searchService := service.NewSearchService(searchBackend, store, syncService, cache, cfg.CacheTTL, logger)

	eventConsumer := event.NewConsumer(syncService, logger)
	var consumers []*pkgkafka.Consumer
	for _, topic := range event.Topics() {
		consumers = append(consumers, pkgkafka.NewConsumer(pkgkafka.ConsumerConfig{
			Brokers:  cfg.KafkaBrokers,
			GroupID:  "search-service",
			Topic:    topic,
			MinBytes: 1,
			MaxBytes: 10e6, // 10 MB
		}, eventConsumer.Handle, logger))
	}
	logger.Info("kafka consumers initialized",
		slog.Any("brokers", cfg.KafkaBrokers),
		slog.Int("topic_count", len(event.Topics())),
	)

	healthHandler := health.NewHandler()
	healthHandler.Register("mongodb", store.Ping)
	if esEngine != nil {
		healthHandler.Register("elasticsearch", esEngine.Ping)
	}
	healthHandler.Register("kafka", func(ctx context.Context) error {
		return pkgkafka.PingBrokers(ctx, cfg.KafkaBrokers)
	})
	if cache != nil {
		healthHandler.Register("redis", func(ctx context.Context) error {
			return cache.Ping(ctx).Err()
		})
	}

	router := handler.NewRouter(
		searchService,
		syncService,
		healthHandler,
		middleware.HMACValidator(cfg.JWTSecret),
		logger,
	)

	httpServer := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.HTTPPort),
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	return &App{
		cfg:        cfg,
		logger:     logger,
		mongo:      mongoClient,
		cache:      cache,
		consumers:  consumers,
		httpServer: httpServer,
	}, nil
}

// selectBackend picks the search backend per configuration. In auto mode
// an unreachable engine demotes the process to the catalog-store fallback
// instead of failing startup; an explicitly requested engine must work.
func selectBackend(ctx context.Context, cfg *config.Config, store *catalog.Store, logger *slog.Logger) (backend.SearchBackend, *elastic.Engine, error) {
	if cfg.SearchBackend == config.BackendFallback {
		return fallback.New(store, logger), nil, nil
	}

	esEngine, err := probeEngine(ctx, cfg, logger)
	if err != nil {
		if cfg.SearchBackend == config.BackendElasticsearch {
			return nil, nil, fmt.Errorf("init elasticsearch backend: %w", err)
		}
		logger.Warn("search engine unreachable, using catalog-store fallback",
			slog.String("url", cfg.ElasticsearchURL),
			slog.String("error", errors.Join(apperrors.ErrBackendUnavailable, err).Error()),
		)
		return fallback.New(store, logger), nil, nil
	}

	return esEngine, esEngine, nil
}

// probeEngine builds the engine client and verifies the cluster responds.
func probeEngine(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*elastic.Engine, error) {
	esEngine, err := elastic.New(cfg.ElasticsearchURL, cfg.ElasticsearchIndex, logger)
	if err != nil {
		return nil, err
	}

	pingCtx, cancel := context.WithTimeout(ctx, probeTimeout)
	defer cancel()
	if err := esEngine.Ping(pingCtx); err != nil {
		return nil, err
	}
	return esEngine, nil
}

// Run starts the HTTP server and Kafka consumers, blocking until the
// context is canceled or a component fails.
func (a *App) Run(ctx context.Context) error {
	errCh := make(chan error, 1+len(a.consumers))

	for _, c := range a.consumers {
		c := c
		go func() {
			if err := c.Start(ctx); err != nil {
				errCh <- fmt.Errorf("kafka consumer: %w", err)
			}
		}()
	}

	go func() {
		a.logger.Info("starting HTTP server",
			slog.String("addr", a.httpServer.Addr),
		)
		if err := a.httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- fmt.Errorf("http server: %w", err)
		}
	}()

	select {
	case <-ctx.Done():
		a.logger.Info("shutdown signal received")
	case err := <-errCh:
		return err
	}

	return a.Shutdown()
}

// Shutdown gracefully stops all components.
func (a *App) Shutdown() error {
	a.logger.Info("shutting down application...")

	var errs []error

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := a.httpServer.Shutdown(shutdownCtx); err != nil {
		a.logger.Error("http server shutdown error", slog.String("error", err.Error()))
		errs = append(errs, err)
	}

	for _, c := range a.consumers {
		if err := c.Close(); err != nil {
			a.logger.Error("kafka consumer close error", slog.String("error", err.Error()))
			errs = append(errs, err)
		}
	}

	if a.cache != nil {
		if err := a.cache.Close(); err != nil {
			a.logger.Error("redis close error", slog.String("error", err.Error()))
			errs = append(errs, err)
		}
	}

	if err := a.mongo.Disconnect(shutdownCtx); err != nil {
		a.logger.Error("mongodb disconnect error", slog.String("error", err.Error()))
		errs = append(errs, err)
	}

	a.logger.Info("application shutdown complete")
	return errors.Join(errs...)
}

package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/gin-gonic/gin"
	"github.com/nats-io/nats.go"
	"github.com/sony/gobreaker/v2"
	"go.mongodb.org/mongo-driver/mongo"
	"golang.org/x/sync/errgroup"

	"ecommerce/internal/config"
	"ecommerce/internal/database"
	"ecommerce/internal/events"
	"ecommerce/internal/handlers"
	"ecommerce/internal/logger"
	"ecommerce/internal/middleware"
	"ecommerce/internal/service"
	"ecommerce/internal/store"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx); err != nil {
		log.Printf("application run failed: %v", err)
		os.Exit(1)
	}
	log.Println("application stopped gracefully")
}

func run(ctx context.Context) error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}

	appLogger := logger.New(cfg.Log.Level)
	slog.SetDefault(appLogger)
	appLogger.Info("configuration loaded", slog.String("config", cfg.String()))

	client, err := database.Connect(ctx, cfg.Database.URI, cfg.Database.Timeout)
	if err != nil {
		return err
	}
	defer func() {
		disconnectCtx, cancel := context.WithTimeout(context.Background(), cfg.Shutdown.Timeout)
		defer cancel()
		if err := client.Disconnect(disconnectCtx); err != nil {
			appLogger.Error("failed to disconnect from mongodb", slog.Any("error", err))
		}
	}()

	db := client.Database(cfg.Database.Name)
	appLogger.Info("mongodb connected", slog.String("database", db.Name()))

	if err := database.EnsureIndexes(ctx, db, appLogger); err != nil {
		appLogger.Warn("index bootstrap incomplete", slog.Any("error", err))
	}

	publisher, nc, err := newPublisher(ctx, cfg.NATS, appLogger)
	if err != nil {
		return err
	}
	if nc != nil {
		defer func() {
			if err := nc.Drain(); err != nil {
				appLogger.Error("failed to drain NATS connection", slog.Any("error", err))
			}
		}()
	}

	httpServer := newHTTPServer(cfg, client, db, publisher, appLogger)

	g, gCtx := errgroup.WithContext(ctx)

	g.Go(func() error {
		appLogger.Info("HTTP server listening", slog.String("addr", httpServer.Addr))
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("http server failed: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		<-gCtx.Done()
		appLogger.Info("shutting down HTTP server")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Shutdown.Timeout)
		defer cancel()
		return httpServer.Shutdown(shutdownCtx)
	})

	if err := g.Wait(); err != nil && !errors.Is(err, context.Canceled) {
		return fmt.Errorf("errgroup encountered an error: %w", err)
	}
	return nil
}

// newPublisher connects to NATS when it is configured. Without a URL, order
// events are dropped.
func newPublisher(ctx context.Context, cfg config.NATSConfig, logger *slog.Logger) (events.Publisher, *nats.Conn, error) {
	if cfg.URL == "" {
		logger.Info("NATS not configured, order events disabled")
		return events.NopPublisher{}, nil, nil
	}

	nc, err := events.NewClient(cfg.URL, cfg.Timeout)
	if err != nil {
		return nil, nil, err
	}

	streamCtx, cancel := context.WithTimeout(ctx, cfg.Timeout)
	defer cancel()
	js, err := events.NewJetStream(streamCtx, nc)
	if err != nil {
		nc.Close()
		return nil, nil, err
	}

	logger.Info("NATS connected", slog.String("url", nc.ConnectedUrlRedacted()))
	return events.NewNatsPublisher(js), nc, nil
}

func newHTTPServer(cfg *config.Config, client *mongo.Client, db *mongo.Database, publisher events.Publisher, logger *slog.Logger) *http.Server {
	breaker := store.NewBreaker("mongodb", store.BreakerSettings{
		ConsecutiveFailures: cfg.Breaker.ConsecutiveFailures,
		OpenTimeout:         cfg.Breaker.OpenTimeout,
	}, logger)

	products := store.NewMongoProductStore(db, breaker)
	orders := store.NewMongoOrderStore(db, breaker)

	h := handlers.New(
		service.NewCatalog(products, logger),
		service.NewAggregator(orders, products, publisher, logger),
		handlers.PingerFunc(func(ctx context.Context) error {
			if state := breaker.State(); state == gobreaker.StateOpen {
				return fmt.Errorf("%w: circuit %s", store.ErrUnavailable, state)
			}
			return database.Ping(ctx, client)
		}),
		logger,
		cfg.Database.OpTimeout,
	)

	if cfg.Log.Level != "debug" {
		gin.SetMode(gin.ReleaseMode)
	}
	r := gin.New()
	r.Use(
		middleware.RequestID(),
		middleware.AccessLog(logger),
		middleware.Recovery(logger),
	)
	h.Register(r)

	return &http.Server{
		Addr:         cfg.Addr(),
		Handler:      r,
		ReadTimeout:  cfg.Server.Timeout.Read,
		WriteTimeout: cfg.Server.Timeout.Write,
		IdleTimeout:  cfg.Server.Timeout.Idle,
	}
}

package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/IGSolution/carehappyfarmsdemo/internal/cart"
	"github.com/IGSolution/carehappyfarmsdemo/internal/catalog"
	"github.com/IGSolution/carehappyfarmsdemo/internal/checkout"
	"github.com/IGSolution/carehappyfarmsdemo/internal/checkout/store"
	"github.com/IGSolution/carehappyfarmsdemo/internal/config"
	"github.com/IGSolution/carehappyfarmsdemo/internal/contact"
	"github.com/IGSolution/carehappyfarmsdemo/internal/gateway"
	h "github.com/IGSolution/carehappyfarmsdemo/internal/http"
	"github.com/IGSolution/carehappyfarmsdemo/internal/invitation"
	"github.com/IGSolution/carehappyfarmsdemo/internal/metrics"
	"github.com/IGSolution/carehappyfarmsdemo/internal/notify"
	"github.com/IGSolution/carehappyfarmsdemo/internal/repository"
	"github.com/IGSolution/carehappyfarmsdemo/internal/session"
	"github.com/IGSolution/carehappyfarmsdemo/pkg/logger"
	"github.com/redis/go-redis/v9"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "config: %v\n", err)
		os.Exit(1)
	}

	log := logger.New(cfg.Log.Level, cfg.Log.Format)
	logger.SetDefault(log)
	log.Info("storefront starting...")

	ctx, stop := context.WithCancel(context.Background())
	defer stop()

	m := metrics.New()

	// Backend clients. Requests run with the caller's access token; the
	// service client is for background work that spans users.
	client, err := newGatewayClient(cfg, cfg.Backend.AnonKey, m)
	if err != nil {
		log.Fatalf("Failed to create backend client: %v", err)
	}
	serviceClient, err := newGatewayClient(cfg, cfg.Backend.ServiceOrAnonKey(), m)
	if err != nil {
		log.Fatalf("Failed to create backend service client: %v", err)
	}

	redisClient := redis.NewClient(&redis.Options{
		Addr:     cfg.Redis.Addr,
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})
	defer redisClient.Close()
	if err := redisClient.Ping(ctx).Err(); err != nil {
		log.Fatalf("Redis connection failed: %v", err)
	}
	log.Info("Redis ping succeeded")

	st, err := openStore(cfg.DB)
	if err != nil {
		log.Fatalf("Failed to open checkout store: %v", err)
	}
	defer st.Close()
	if err := store.RunMigrations(st, cfg.DB.MigrationsPath); err != nil {
		log.Fatalf("Failed to run migrations: %v", err)
	}
	log.Info("Database migrations completed")

	publisher, err := newPublisher(cfg.Notify, client)
	if err != nil {
		log.Fatalf("Failed to create notification publisher: %v", err)
	}
	defer publisher.Close()

	profiles := repository.NewProfileStore(client)
	products := repository.NewProductStore(client)
	orders := repository.NewOrderStore(client)

	catalogService := catalog.NewService(products, orders)
	cartService := cart.NewService(
		repository.NewCartStore(client),
		cart.NewRedisCache(redisClient),
		cart.NewRedisGuestStore(redisClient),
		products,
	)

	tokens := session.NewRedisTokenCache(redisClient)
	sessions := session.NewRegistry(func() *session.Store {
		return session.NewStore(session.Deps{
			Auth:      client.Auth(),
			Profiles:  profiles,
			Tokens:    tokens,
			PublicURL: cfg.PublicURL,
		})
	}, cfg.Session.IdleTTL, session.DefaultCleanupInterval)
	defer sessions.Close()

	orchestrator := checkout.New(checkout.Deps{
		Orders:    orders,
		Store:     st,
		Functions: client.Functions(),
		Cart:      cartService,
		Metrics:   m,
		PublicURL: cfg.PublicURL,
	})

	reaper := checkout.NewReaper(checkout.ReaperConfig{
		Orders:     repository.NewOrderStore(serviceClient),
		Store:      st,
		Metrics:    m,
		StaleAfter: cfg.Checkout.StaleAfter,
	})
	if err := reaper.Start(ctx, cfg.Checkout.ReaperSchedule); err != nil {
		log.Fatalf("Failed to start checkout reaper: %v", err)
	}
	defer reaper.Stop()

	poller := notify.NewOutboxPoller(st, publisher)
	go poller.Run(ctx)
	log.WithField("transport", cfg.Notify.Transport).Info("Outbox poller started")

	limiter := h.NewRateLimiter(cfg.Limits.RPS, cfg.Limits.Burst)
	limiter.StartCleanup(ctx, time.Minute)

	router := h.NewRouter(h.Deps{
		Logger:   log,
		Metrics:  m,
		Tokens:   session.NewVerifier(cfg.Backend.JWTSecret),
		Sessions: sessions,
		Catalog:  catalogService,
		Cart:     cartService,
		Checkout: orchestrator,
		Invitations: invitation.NewService(invitation.Deps{
			Repo:      repository.NewInvitationStore(client),
			Functions: client.Functions(),
			PublicURL: cfg.PublicURL,
		}),
		Contact:            contact.NewService(client.Functions()),
		Limiter:            limiter,
		RequestTimeout:     cfg.RequestTimeout,
		MaxRequestBodySize: cfg.MaxRequestBodySize,
		SecureCookies:      strings.HasPrefix(cfg.PublicURL, "https://"),
	})

	srv := &http.Server{
		Addr:         ":" + cfg.HTTPPort,
		Handler:      otelhttp.NewHandler(router, "storefront"),
		ReadTimeout:  10 * time.Second,
		WriteTimeout: cfg.RequestTimeout + 5*time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		log.Infof("Storefront listening on :%s", cfg.HTTPPort)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatalf("server error: %v", err)
		}
	}()

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info("shutting down server...")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.WithError(err).Error("server forced to shutdown")
	}
	stop()
	log.Info("server exited")
}

func newGatewayClient(cfg *config.Config, key string, m *metrics.Metrics) (*gateway.Client, error) {
	return gateway.New(gateway.Config{
		URL:    cfg.Backend.URL,
		APIKey: key,
		HTTPClient: &http.Client{
			Timeout:   cfg.Backend.Timeout,
			Transport: otelhttp.NewTransport(http.DefaultTransport),
		},
		Retry:   gateway.DefaultRetryConfig(),
		Observe: m.ObserveBackendCall,
	})
}

func openStore(db config.DB) (*store.SQLStore, error) {
	switch db.Driver {
	case "postgres":
		return store.NewPostgres(&store.Credentials{
			Host:     db.Host,
			Port:     db.Port,
			User:     db.User,
			Password: db.Password,
			DBName:   db.Name,
		})
	case "sqlite":
		return store.NewSQLite(db.SQLitePath)
	}
	return nil, fmt.Errorf("unsupported DB_DRIVER %q", db.Driver)
}

func newPublisher(cfg config.Notify, client *gateway.Client) (notify.Publisher, error) {
	switch cfg.Transport {
	case "kafka":
		return notify.NewKafkaPublisher(cfg.KafkaTopic, cfg.Brokers()...), nil
	case "amqp":
		p, err := notify.NewAMQPPublisher(cfg.AMQPURL, cfg.AMQPExchange)
		if err != nil {
			return nil, err
		}
		return p, nil
	}
	return notify.NewFunctionPublisher(client.Functions()), nil
}

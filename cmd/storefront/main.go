package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"net"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/example/storefront/gateway"
	"github.com/example/storefront/pkg/assets"
	"github.com/example/storefront/pkg/config"
	"github.com/example/storefront/pkg/discovery"
	"github.com/example/storefront/pkg/events"
	"github.com/example/storefront/pkg/grpc"
	"github.com/example/storefront/pkg/jobs"
	"github.com/example/storefront/pkg/logger"
	"github.com/example/storefront/pkg/mail"
	"github.com/example/storefront/pkg/payment"
	"github.com/example/storefront/pkg/repository"
	"github.com/example/storefront/pkg/repository/memstore"
	"github.com/example/storefront/pkg/service"
	"go.uber.org/zap"
)

const shutdownTimeout = 10 * time.Second

// store is the document store behind every service.
type store interface {
	service.UserStore
	service.ProductStore
	service.CartStore
	service.OrderStore
	events.AuditWriter
	grpc.Pinger
}

type ledger interface {
	service.PaymentLedger
	Close() error
}

// @title       Storefront API
// @version     1.0
// @description Catalog, cart, order and payment API of the storefront.
// @BasePath    /
func main() {
	configPath := flag.String("config", "config/config.yaml", "path to the YAML config file")
	flag.Parse()

	// Load config
	cfg, err := config.Load(*configPath)
	if err != nil {
		panic(fmt.Sprintf("Failed to load config: %v", err))
	}
	if err := cfg.Validate(); err != nil {
		panic(fmt.Sprintf("Invalid config: %v", err))
	}

	// Setup logger
	log, err := logger.New(cfg.Log, cfg.IsProduction())
	if err != nil {
		panic(fmt.Sprintf("Failed to create logger: %v", err))
	}
	defer log.Sync()

	if err := run(cfg, log); err != nil {
		log.Fatal("Storefront stopped with error", zap.Error(err))
	}
	log.Info("Storefront stopped")
}

func run(cfg *config.Config, log *zap.Logger) error {
	ctx := context.Background()
	log.Info("Starting storefront",
		zap.String("name", cfg.Server.Name),
		zap.String("env", cfg.Server.Env),
		zap.Int("port", cfg.Server.Port))

	// Document store
	var db store
	if cfg.MongoDB.URI != "" {
		mongo, err := repository.NewMongoRepository(ctx, &cfg.MongoDB)
		if err != nil {
			return err
		}
		defer func() {
			closeCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
			defer cancel()
			if err := mongo.Close(closeCtx); err != nil {
				log.Error("Failed to close MongoDB", zap.Error(err))
			}
		}()
		if err := mongo.EnsureIndexes(ctx); err != nil {
			return err
		}
		db = mongo
		log.Info("MongoDB connected", zap.String("database", cfg.MongoDB.Database))
	} else {
		db = memstore.New()
		log.Warn("mongodb.uri is empty, using the in-memory store")
	}

	// Redis cache and rate limiter
	var (
		cache   service.Cache
		limiter gateway.RateLimiter
	)
	deps := map[string]grpc.Pinger{"store": db}
	if cfg.Redis.Enabled {
		redis := repository.NewRedisRepository(&cfg.Redis)
		defer redis.Close()
		if err := redis.Ping(ctx); err != nil {
			log.Warn("Redis connection failed", zap.Error(err))
		} else {
			log.Info("Redis connected successfully")
		}
		cache, limiter = redis, redis
		deps["redis"] = redis
	}

	// Payment ledger
	var payments ledger = repository.NopLedger{}
	if cfg.MySQL.Enabled() {
		mysql, err := repository.NewMySQLLedger(&cfg.MySQL)
		if err != nil {
			return err
		}
		payments = mysql
		log.Info("MySQL payment ledger connected", zap.String("database", cfg.MySQL.Database))
	}
	defer payments.Close()

	// Order events
	mailer := mail.NewSender(&cfg.Mail, log)
	dispatcher, err := events.NewDispatcher(db, db, mailer, log)
	if err != nil {
		return err
	}
	defer func() {
		if err := dispatcher.Shutdown(); err != nil {
			log.Error("Failed to stop order events", zap.Error(err))
		}
	}()

	// Services
	auth, err := service.NewAuthService(db, mailer, cfg.Auth, log)
	if err != nil {
		return err
	}
	catalog := service.NewCatalogService(db, assets.NewCloudinary(&cfg.Assets), cache, log)
	carts := service.NewCartService(db, db, log)
	orders := service.NewOrderService(db, db, db, payment.NewRazorpay(&cfg.Payment), payments, dispatcher,
		service.OrderServiceConfig{ShippingCost: cfg.Payment.ShippingCost, Currency: cfg.Payment.Currency}, log)

	// Scheduled jobs
	scheduler, err := jobs.New(cfg.Jobs, orders, db, log)
	if err != nil {
		return err
	}
	scheduler.Start()
	defer func() {
		stopCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		scheduler.Stop(stopCtx)
	}()

	// gRPC health
	health := grpc.NewHealthServer(cfg.Server.Name,
		net.JoinHostPort(cfg.Server.Host, strconv.Itoa(cfg.Server.GRPCPort)), deps, log)
	if err := health.Start(); err != nil {
		return err
	}
	defer health.Stop()

	// HTTP
	gw := gateway.NewGateway(cfg, gateway.Services{
		Auth:    auth,
		Catalog: catalog,
		Carts:   carts,
		Orders:  orders,
		Limiter: limiter,
	}, log)
	srv := &http.Server{
		Addr:              net.JoinHostPort(cfg.Server.Host, strconv.Itoa(cfg.Server.Port)),
		Handler:           gw.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	srvErr := make(chan error, 1)
	go func() {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			srvErr <- err
		}
	}()
	log.Info("HTTP server started", zap.String("addr", srv.Addr))

	// Service discovery
	if len(cfg.Etcd.Endpoints) > 0 {
		sd, err := discovery.NewServiceDiscovery(&cfg.Etcd, log)
		if err != nil {
			log.Warn("Failed to connect to etcd, continuing without service discovery", zap.Error(err))
		} else {
			defer sd.Close()
			instance := &discovery.ServiceInstance{
				Name: cfg.Server.Name,
				Host: cfg.Server.Host,
				Port: cfg.Server.Port,
			}
			if err := sd.Register(ctx, instance); err != nil {
				log.Warn("Failed to register service", zap.Error(err))
			} else {
				defer func() {
					deregCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
					defer cancel()
					if err := sd.Deregister(deregCtx, instance); err != nil {
						log.Error("Failed to deregister service", zap.Error(err))
					}
				}()
			}
		}
	}

	// Wait for interrupt signal
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)

	select {
	case sig := <-sigCh:
		log.Info("Received shutdown signal", zap.String("signal", sig.String()))
	case err := <-srvErr:
		return fmt.Errorf("http server: %w", err)
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error("HTTP server shutdown failed", zap.Error(err))
	}
	return nil
}

package main

import (
	"context"
	"database/sql"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	goredis "github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/georgemunganga/fulfillment-engine/internal/modules/allocation"
	"github.com/georgemunganga/fulfillment-engine/internal/modules/fulfillment"
	"github.com/georgemunganga/fulfillment-engine/internal/modules/inventory"
	"github.com/georgemunganga/fulfillment-engine/internal/modules/order"
	"github.com/georgemunganga/fulfillment-engine/internal/modules/partner"
	"github.com/georgemunganga/fulfillment-engine/internal/modules/routing"
	"github.com/georgemunganga/fulfillment-engine/internal/modules/sequence"
	"github.com/georgemunganga/fulfillment-engine/internal/modules/sla"
	"github.com/georgemunganga/fulfillment-engine/internal/modules/zone"
	"github.com/georgemunganga/fulfillment-engine/internal/platform/config"
	"github.com/georgemunganga/fulfillment-engine/internal/platform/db"
	"github.com/georgemunganga/fulfillment-engine/internal/platform/httpx"
	"github.com/georgemunganga/fulfillment-engine/internal/platform/kafka"
	"github.com/georgemunganga/fulfillment-engine/internal/platform/observability"
	"github.com/georgemunganga/fulfillment-engine/internal/platform/redis"
)

const counterTTL = 72 * time.Hour

func main() {
	cfg, err := config.Load(os.Getenv("CONFIG_PATH"))
	if err != nil {
		log.Fatal(err)
	}

	logger, err := observability.NewLogger(cfg.Log.Level)
	if err != nil {
		log.Fatal(err)
	}
	defer logger.Sync()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	database, err := db.Open(cfg.Postgres.URL)
	if err != nil {
		logger.Fatal("failed to connect to postgres", zap.Error(err))
	}
	defer database.Close()
	logger.Info("connected to postgres")

	var redisClient *goredis.Client
	if cfg.Engine.LedgerBackend == "redis" || cfg.Engine.CounterBackend == "redis" {
		redisClient, err = redis.NewClient(ctx, redis.Config{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		if err != nil {
			logger.Fatal("failed to connect to redis", zap.Error(err))
		}
		defer redisClient.Close()
		logger.Info("connected to redis", zap.String("addr", cfg.Redis.Addr))
	}

	// ── Router ──────────────────────────────────────────────
	router := chi.NewRouter()
	router.Use(middleware.RequestID)
	router.Use(middleware.Logger)
	router.Use(middleware.Recoverer)
	router.Use(middleware.Timeout(cfg.HTTP.RequestDeadline))

	router.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		if err := database.PingContext(r.Context()); err != nil {
			httpx.Respond(w, http.StatusServiceUnavailable, map[string]string{"status": "unavailable"})
			return
		}
		httpx.Respond(w, http.StatusOK, map[string]string{"status": "ok", "version": cfg.App.Version})
	})
	router.Handle("/metrics", promhttp.Handler())

	rest, _ := cfg.Engine.RestWeekday()
	classifier := zone.NewClassifier(zone.Options{MetroDigits: cfg.Engine.MetroDigitSet()})

	// ── Partners & Routing ──────────────────────────────────
	partnerService := partner.NewService(partner.NewPostgresRepository(database), partner.Options{
		Scorer:     partner.NewScorer(partner.ParseScaling(cfg.Engine.PartnerScaling)),
		Classifier: classifier,
		Logger:     logger,
	})
	partner.NewHandler(partnerService).RegisterRoutes(router)

	planner := routing.NewPlanner(partnerService, fleetNetwork(cfg.Fleet), routing.PlannerOptions{
		Classifier: classifier,
		Logger:     logger,
	})
	routingService := routing.NewService(routing.NewPostgresRepository(database), planner, logger)
	routing.NewHandler(routingService).RegisterRoutes(router)

	// ── Inventory ───────────────────────────────────────────
	ledger := newLedger(cfg.Engine.LedgerBackend, database, redisClient)
	warehouseRepo := inventory.NewWarehousePostgresRepository(database)
	inventoryService := inventory.NewService(warehouseRepo, ledger, logger)
	inventory.NewHandler(inventoryService).RegisterRoutes(router)

	// ── Orders ──────────────────────────────────────────────
	generator := sequence.NewGenerator(newCounter(cfg.Engine.CounterBackend, database, redisClient), sequence.Options{
		AWBPrefix: cfg.Engine.AWBPrefix,
	})
	orderService := order.NewService(order.NewPostgresRepository(database), generator, logger)
	order.NewHandler(orderService).RegisterRoutes(router)

	// ── Fulfillment ─────────────────────────────────────────
	var publisher fulfillment.Publisher = fulfillment.NopPublisher{}
	if cfg.Kafka.Enabled {
		producer := kafka.NewProducer(kafka.Config{Brokers: cfg.Kafka.Brokers, Topic: cfg.Kafka.Topic})
		defer producer.Close()
		publisher = fulfillment.NewKafkaPublisher(producer)
		logger.Info("publishing decisions to kafka", zap.String("topic", producer.Topic()))
	}

	allocationDefaults := allocation.Config{
		EnableHopping: cfg.Engine.EnableHopping,
		MaxHops:       cfg.Engine.MaxHops,
		SplitAllowed:  cfg.Engine.SplitAllowed,
	}
	fulfillmentService := fulfillment.NewService(fulfillment.Deps{
		Orders:    orderService,
		Routing:   routingService,
		Allocator: allocation.NewEngine(warehouseRepo, ledger, allocation.Options{Logger: logger}),
		SLA: sla.NewCalculator(sla.Options{
			Overrides:     sla.NewPostgresRepository(database),
			RestDay:       rest,
			SLAPercentage: cfg.Engine.SLAPercentage,
			Logger:        logger,
		}),
		AWB:        generator,
		Decisions:  fulfillment.NewPostgresDecisionRepository(database),
		Publisher:  publisher,
		Metrics:    fulfillment.NewMetrics(prometheus.DefaultRegisterer),
		Classifier: classifier,
		Allocation: allocationDefaults,
		Logger:     logger,
	})
	fulfillment.NewHandler(fulfillmentService, allocationDefaults).RegisterRoutes(router)

	// ── Start Server ─────────────────────────────────────────
	srv := &http.Server{
		Addr:         ":" + cfg.HTTP.Port,
		Handler:      router,
		ReadTimeout:  cfg.HTTP.ReadTimeout,
		WriteTimeout: cfg.HTTP.WriteTimeout,
	}
	go func() {
		logger.Info("fulfillment engine starting", zap.String("addr", srv.Addr), zap.String("version", cfg.App.Version))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal("server failed", zap.Error(err))
		}
	}()

	<-ctx.Done()
	logger.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.HTTP.ShutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("graceful shutdown failed", zap.Error(err))
	}
}

func newLedger(backend string, database *sql.DB, client *goredis.Client) inventory.Ledger {
	switch backend {
	case "redis":
		return inventory.NewRedisLedger(client, "stock")
	case "memory":
		return inventory.NewMemoryLedger()
	default:
		return inventory.NewPostgresLedger(database)
	}
}

func newCounter(backend string, database *sql.DB, client *goredis.Client) sequence.Counter {
	switch backend {
	case "redis":
		return sequence.NewRedisCounter(client, "seq", counterTTL)
	case "memory":
		return sequence.NewMemoryCounter()
	default:
		return sequence.NewPostgresCounter(database)
	}
}

func fleetNetwork(hubs []config.FleetHub) routing.FleetCoverage {
	if len(hubs) == 0 {
		return routing.NoFleet{}
	}
	network := make([]routing.NetworkHub, 0, len(hubs))
	for _, h := range hubs {
		network = append(network, routing.NetworkHub{
			Hub:            routing.Hub{Code: h.Code, PostalCode: h.PostalCode, State: h.State},
			ServedPrefixes: h.ServedPrefixes,
			Gateway:        h.Gateway,
		})
	}
	return routing.NewStaticNetwork(network)
}

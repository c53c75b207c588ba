// Command server runs the ensgraph API: domain lookups aggregated from chain
// data sources, plus the persisted per-user domain graph.
package main

import (
	"context"
	"errors"
	"flag"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"ensgraph/internal/ens/avatar"
	"ensgraph/internal/ens/cache"
	enshandler "ensgraph/internal/ens/handler"
	ensmetrics "ensgraph/internal/ens/metrics"
	"ensgraph/internal/ens/provider/ethereum"
	"ensgraph/internal/ens/provider/subgraph"
	ensservice "ensgraph/internal/ens/service"
	graphhandler "ensgraph/internal/graph/handler"
	graphservice "ensgraph/internal/graph/service"
	graphstore "ensgraph/internal/graph/store"
	"ensgraph/internal/platform/config"
	"ensgraph/internal/platform/httpserver"
	"ensgraph/internal/platform/logger"
	"ensgraph/internal/platform/metrics"
	"ensgraph/internal/platform/postgres"
	platformredis "ensgraph/internal/platform/redis"
	httptransport "ensgraph/internal/transport/http"
	"ensgraph/pkg/platform/audit"
)

func main() {
	configPath := flag.String("config", os.Getenv("ENSGRAPH_CONFIG"), "path to YAML config file")
	flag.Parse()

	log := logger.New()

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Error("failed to load configuration", "error", err)
		os.Exit(1)
	}

	db, err := postgres.Open(cfg.Database.DSN)
	if err != nil {
		log.Error("failed to open database", "error", err)
		os.Exit(1)
	}
	defer db.Close()

	redisClient, err := platformredis.New(cfg.Redis)
	if err != nil {
		log.Error("failed to connect to redis", "error", err)
		os.Exit(1)
	}
	if redisClient != nil {
		defer redisClient.Close()
	}

	// Audit pipeline: events buffer on a channel and a worker forwards them
	// to Kafka, or to the log when no brokers are configured.
	publisher := audit.NewPublisher(256, log)
	var sink audit.Sink = audit.LogSink{Logger: log}
	kafkaSink, err := audit.NewKafkaSink(cfg.Kafka.Brokers, cfg.Kafka.Topic)
	if err != nil {
		log.Error("failed to connect to kafka", "error", err)
		os.Exit(1)
	}
	if kafkaSink != nil {
		sink = kafkaSink
		defer kafkaSink.Close()
	}

	rootCtx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	worker := audit.NewWorker(sink, publisher.Inbox(), log)
	go func() {
		if err := worker.Run(rootCtx); err != nil && !errors.Is(err, context.Canceled) {
			log.Error("audit worker stopped", "error", err)
		}
	}()

	chain, err := ethereum.New(cfg.Ethereum.RPCURLs, log)
	if err != nil {
		log.Error("failed to build chain provider", "error", err)
		os.Exit(1)
	}
	subnames := subgraph.New(cfg.Ethereum.SubgraphURL)

	ensMetrics := ensmetrics.New()
	ensService, err := ensservice.New(chain, subnames, ethereum.PublicResolverAddress(), log, ensMetrics)
	if err != nil {
		log.Error("failed to build domain service", "error", err)
		os.Exit(1)
	}

	var recordCache *cache.Cache
	if redisClient != nil {
		recordCache = cache.New(redisClient, cfg.Redis.CacheTTL, log, ensMetrics)
	}

	ensHandler := enshandler.New(ensService, recordCache, avatar.NewResolver(log), publisher, log)

	graphService, err := graphservice.New(graphstore.NewPostgres(db), log)
	if err != nil {
		log.Error("failed to build graph service", "error", err)
		os.Exit(1)
	}
	graphHandler := graphhandler.New(graphService, publisher, log)

	deps := httptransport.Deps{
		ENS:     ensHandler,
		Graph:   graphHandler,
		Metrics: metrics.New(),
		DB:      db,
		Logger:  log,
	}
	if redisClient != nil {
		deps.Redis = redisClient
	}
	router := httptransport.NewRouter(deps)

	srv := httpserver.New(cfg.Server.Addr, router)

	go func() {
		log.Info("starting ensgraph", "addr", cfg.Server.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error("server error", "error", err)
			stop()
		}
	}()

	<-rootCtx.Done()
	log.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error("graceful shutdown failed", "error", err)
		os.Exit(1)
	}
}

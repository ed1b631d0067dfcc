package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/smartstream-data/refinery/internal/config"
	"github.com/smartstream-data/refinery/internal/envelope"
	"github.com/smartstream-data/refinery/internal/handlers"
	"github.com/smartstream-data/refinery/internal/logging"
	"github.com/smartstream-data/refinery/internal/notify"
	"github.com/smartstream-data/refinery/internal/objectstore"
	"github.com/smartstream-data/refinery/internal/pipeline"
	"github.com/smartstream-data/refinery/internal/routestats"
	"github.com/smartstream-data/refinery/internal/server"
)

func main() {
	// Parse command line flags
	configPath := flag.String("config", "", "path to config file")
	flag.Parse()

	// Load configuration
	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	// Initialize structured logging
	logger := logging.New(
		logging.ParseLevel(cfg.Logging.Level),
		cfg.Logging.Format,
	).With(logging.Service("refinery"))
	logging.SetDefault(logger)

	slog.Info("Starting Refinery service",
		slog.Int("port", cfg.Server.Port),
		slog.String("bucket", cfg.Lake.Bucket),
		slog.String("raw_prefix", cfg.Lake.RawPrefix),
		slog.String("trusted_prefix", cfg.Lake.TrustedPrefix),
		slog.String("log_level", cfg.Logging.Level),
	)
	if *configPath != "" {
		slog.Info("Loaded configuration", slog.String("config_path", *configPath))
	}

	// Build the routing allow-list
	routes := buildRouteTable(cfg)
	slog.Info("Routing table loaded",
		slog.Int("entries", routes.Len()),
		slog.String("legacy_route", routes.Legacy().String()),
	)

	// Connect to the object store
	store, err := objectstore.NewMinIO(objectstore.MinIOConfig{
		Endpoint:  cfg.Store.Endpoint,
		AccessKey: cfg.Store.AccessKey,
		SecretKey: cfg.Store.SecretKey,
		Region:    cfg.Store.Region,
		UseSSL:    cfg.Store.UseSSL,
	})
	if err != nil {
		log.Fatalf("Failed to connect to object store: %v", err)
	}

	// Initialize route stats collector
	var statsCollector *routestats.Collector
	if cfg.Redis.Enabled {
		statsClient, err := routestats.NewClient(cfg.Redis.URL)
		if err != nil {
			log.Printf("WARNING: Failed to initialize route stats collector: %v", err)
			log.Println("Route usage stats will not be collected")
		} else {
			statsCollector = routestats.NewCollector(statsClient, cfg.Redis.FlushInterval, logger.Logger)
			log.Printf("Route stats collector enabled (flush interval: %s)", cfg.Redis.FlushInterval)
			defer statsCollector.Stop()
		}
	} else {
		log.Println("Redis disabled - route usage stats will not be collected")
	}

	// Assemble the pipeline
	p := pipeline.New(pipeline.Config{
		Bucket:         cfg.Lake.Bucket,
		RawPrefix:      cfg.Lake.RawPrefix,
		TrustedPrefix:  cfg.Lake.TrustedPrefix,
		Workers:        cfg.Pipeline.Workers,
		EnrichMetadata: cfg.Pipeline.EnrichMetadata,
	}, store, routes, logger, statsCollector)

	// Subscribe to bucket notifications
	if cfg.NATS.Enabled {
		consumerCfg := notify.DefaultConsumerConfig()
		consumerCfg.URL = cfg.NATS.URL
		consumerCfg.Subject = cfg.NATS.Subject
		consumerCfg.Queue = cfg.NATS.Queue

		consumer, err := notify.NewConsumer(consumerCfg, func(ctx context.Context, notifs []notify.Notification) {
			res := p.ProcessBatch(ctx, notifs)
			slog.Info(res.Message, slog.String("invocation_id", res.InvocationID))
		}, logger)
		if err != nil {
			log.Fatalf("Failed to connect to NATS: %v", err)
		}
		if err := consumer.Start(); err != nil {
			log.Fatalf("Failed to subscribe to notifications: %v", err)
		}
		defer consumer.Close()
	} else {
		log.Println("NATS disabled - only /v1/replay will trigger processing")
	}

	// Initialize HTTP handlers
	handler := handlers.New(p, logger)
	router := server.NewRouter(handler)

	// Create server with config values
	srv := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:      router,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}

	// Start server in goroutine
	go func() {
		log.Printf("Refinery service listening on %s", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("Server error: %v", err)
		}
	}()

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Println("Shutting down server...")
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), cfg.Server.WriteTimeout)
	defer shutdownCancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Fatalf("Server forced to shutdown: %v", err)
	}

	log.Println("Server stopped")
}

// buildRouteTable assembles the routing allow-list from config: the finance
// schema's tables, then any entries from the optional routes file.
func buildRouteTable(cfg *config.Config) *envelope.Table {
	routes := envelope.NewTable(envelope.Route{
		Domain: cfg.Routing.LegacyDomain,
		Table:  cfg.Routing.LegacyTable,
	})

	for _, table := range cfg.Routing.FinanceTables {
		routes.Add(cfg.Routing.FinanceSchema, table, "finance")
	}

	if cfg.Routing.RoutesFile != "" {
		if err := routes.LoadFile(cfg.Routing.RoutesFile); err != nil {
			log.Fatalf("Failed to load routes file: %v", err)
		}
	}

	return routes
}

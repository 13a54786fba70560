// Package main runs the ticketing service: storage, the oracle
// resolver, the pricing engine, and the JSON HTTP API in one binary.
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"ticketd/internal/config"
	"ticketd/internal/httpapi"
	"ticketd/internal/ledger"
	"ticketd/internal/oracle"
	"ticketd/internal/payments"
	"ticketd/internal/pricing"
	"ticketd/internal/storage"
	"ticketd/internal/storage/memory"
	"ticketd/internal/storage/migrations"
	pgstore "ticketd/internal/storage/postgres"
	"ticketd/internal/ticketing"
)

// allStores holds all storage implementations.
type allStores struct {
	configStore storage.ConfigStore
	tierStore   storage.TierStore
	ticketStore storage.TicketStore
}

func main() {
	// Load .env file if exists
	loadEnvFile()

	// Parse flags (env vars as defaults)
	configPath := flag.String("config", os.Getenv("TICKETD_CONFIG"), "Path to YAML config file")
	addr := flag.String("addr", os.Getenv("TICKETD_ADDR"), "HTTP listen address (overrides config)")
	postgresDSN := flag.String("postgres-dsn", os.Getenv("POSTGRES_DSN"), "PostgreSQL connection string (overrides config)")
	useMemory := flag.Bool("use-memory", false, "Use in-memory storage instead of PostgreSQL")

	flag.Parse()

	// Setup logger
	logger := log.New(os.Stdout, "[server] ", log.LstdFlags|log.Lshortfile)

	cfg, err := loadConfig(*configPath)
	if err != nil {
		logger.Fatalf("Failed to load config: %v", err)
	}

	// Flag overrides
	if *addr != "" {
		cfg.Server.Addr = *addr
	}
	if *postgresDSN != "" {
		cfg.Storage.Backend = "postgres"
		cfg.Storage.PostgresDSN = *postgresDSN
	}
	if *useMemory {
		cfg.Storage.Backend = "memory"
	}

	// Create context with cancellation
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Create stores
	stores, cleanup, err := createStores(ctx, cfg, logger)
	if err != nil {
		logger.Fatalf("Failed to create stores: %v", err)
	}
	defer cleanup()

	// Oracle resolver with HTTP sources built from the configured
	// timeout and retry budget, optionally with a WebSocket spot feed
	// instead of the HTTP router.
	var clientOpts []oracle.ClientOption
	if cfg.Oracle.HTTPTimeout > 0 {
		clientOpts = append(clientOpts, oracle.WithTimeout(cfg.Oracle.HTTPTimeout))
	}
	if cfg.Oracle.MaxRetries > 0 {
		clientOpts = append(clientOpts, oracle.WithMaxRetries(cfg.Oracle.MaxRetries))
	}
	resolverOpts := []oracle.ResolverOption{
		oracle.WithLogger(log.New(os.Stdout, "[oracle] ", log.LstdFlags|log.Lshortfile)),
		oracle.WithPrimaryFactory(func(endpoint string) oracle.PrimarySource {
			return oracle.NewHTTPClient(endpoint, clientOpts...)
		}),
		oracle.WithSpotFactory(func(endpoint string) oracle.SpotSource {
			return oracle.NewDexClient(endpoint, clientOpts...)
		}),
	}
	if cfg.Oracle.SpotWSURL != "" {
		feed, err := oracle.NewWSSpotFeed(ctx, cfg.Oracle.SpotWSURL, nil,
			log.New(os.Stdout, "[spot-feed] ", log.LstdFlags|log.Lshortfile))
		if err != nil {
			logger.Fatalf("Failed to connect spot feed: %v", err)
		}
		defer feed.Close()
		if err := feed.Subscribe(cfg.Oracle.Pair); err != nil {
			logger.Fatalf("Failed to subscribe spot feed: %v", err)
		}
		resolverOpts = append(resolverOpts, oracle.WithSpotFactory(func(string) oracle.SpotSource {
			return feed
		}))
	}
	resolver := oracle.NewResolver(resolverOpts...)

	// Wire the service
	engine := pricing.NewEngine(stores.configStore, stores.tierStore, resolver)
	service := ticketing.NewService(
		stores.configStore,
		stores.tierStore,
		stores.ticketStore,
		ledger.NewMemoryLedger(),
		payments.NewMemoryTransferer(),
		engine,
		ticketing.WithLogger(log.New(os.Stdout, "[ticketing] ", log.LstdFlags|log.Lshortfile)),
		ticketing.WithOracleDefaults(
			cfg.Oracle.Endpoint,
			cfg.Oracle.DexEndpoint,
			cfg.Oracle.Pair,
			int64(cfg.Oracle.MaxAge/time.Second),
		),
	)

	api := httpapi.NewServer(service, logger)
	httpServer := &http.Server{
		Addr:    cfg.Server.Addr,
		Handler: api.Handler(),
	}

	// Handle shutdown signals
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	errCh := make(chan error, 1)
	go func() {
		logger.Printf("Starting HTTP server on %s (storage: %s)", cfg.Server.Addr, cfg.Storage.Backend)
		if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- err
		}
	}()

	select {
	case sig := <-sigCh:
		logger.Printf("Received signal %v, initiating graceful shutdown...", sig)
	case err := <-errCh:
		logger.Fatalf("HTTP server error: %v", err)
	}

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer shutdownCancel()
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		logger.Printf("Shutdown error: %v", err)
	}

	logger.Println("Shutdown complete")
}

// loadConfig loads the YAML config when a path is given, otherwise
// starts from defaults that the flags can override.
func loadConfig(path string) (*config.ServiceConfig, error) {
	if path != "" {
		return config.LoadAndValidate(path)
	}

	cfg := &config.ServiceConfig{}
	cfg.Oracle.Endpoint = os.Getenv("ORACLE_ENDPOINT")
	cfg.Oracle.DexEndpoint = os.Getenv("DEX_ENDPOINT")
	cfg.Oracle.SpotWSURL = os.Getenv("SPOT_WS_URL")
	if err := applyDefaultsAndValidate(cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

// applyDefaultsAndValidate mirrors LoadAndValidate for flag-built
// configs, minus the oracle endpoint requirements: a server can run
// with pricing on the neutral multiplier until endpoints are set via
// the API.
func applyDefaultsAndValidate(cfg *config.ServiceConfig) error {
	if cfg.Server.Addr == "" {
		cfg.Server.Addr = config.DefaultAddr
	}
	if cfg.Server.ShutdownTimeout == 0 {
		cfg.Server.ShutdownTimeout = config.DefaultShutdownTimeout
	}
	if cfg.Storage.Backend == "" {
		cfg.Storage.Backend = config.DefaultBackend
	}
	if cfg.Oracle.Pair == "" {
		cfg.Oracle.Pair = config.DefaultPair
	}
	if cfg.Oracle.MaxAge == 0 {
		cfg.Oracle.MaxAge = config.DefaultMaxAge
	}
	if cfg.Oracle.HTTPTimeout == 0 {
		cfg.Oracle.HTTPTimeout = config.DefaultHTTPTimeout
	}
	if cfg.Oracle.MaxRetries == 0 {
		cfg.Oracle.MaxRetries = config.DefaultMaxRetries
	}
	return nil
}

// createStores creates all required stores.
func createStores(ctx context.Context, cfg *config.ServiceConfig, logger *log.Logger) (*allStores, func(), error) {
	if cfg.Storage.Backend == "memory" {
		stores := &allStores{
			configStore: memory.NewConfigStore(),
			tierStore:   memory.NewTierStore(),
			ticketStore: memory.NewTicketStore(),
		}
		return stores, func() {}, nil
	}

	pool, err := pgstore.NewPool(ctx, cfg.Storage.PostgresDSN)
	if err != nil {
		return nil, nil, fmt.Errorf("connect to postgres: %w", err)
	}

	if err := migrations.RunPostgresMigrations(ctx, pool); err != nil {
		pool.Close()
		return nil, nil, fmt.Errorf("run migrations: %w", err)
	}
	logger.Println("PostgreSQL migrations applied")

	stores := &allStores{
		configStore: pgstore.NewConfigStore(pool),
		tierStore:   pgstore.NewTierStore(pool),
		ticketStore: pgstore.NewTicketStore(pool),
	}
	return stores, pool.Close, nil
}

// loadEnvFile loads environment variables from .env file if it exists.
func loadEnvFile() {
	data, err := os.ReadFile(".env")
	if err != nil {
		return // File doesn't exist, use system env vars
	}

	for _, line := range strings.Split(string(data), "\n") {
		line = strings.TrimSpace(line)
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}

		parts := strings.SplitN(line, "=", 2)
		if len(parts) != 2 {
			continue
		}

		key := strings.TrimSpace(parts[0])
		value := strings.TrimSpace(parts[1])

		// Don't override existing env vars
		if os.Getenv(key) == "" {
			os.Setenv(key, value)
		}
	}
}

package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"claims_portal_backend/internal/adapters"
	"claims_portal_backend/internal/agents"
	"claims_portal_backend/internal/assignment"
	"claims_portal_backend/internal/claims"
	"claims_portal_backend/internal/events"
	apphttp "claims_portal_backend/internal/http"
	"claims_portal_backend/internal/http/router"
	"claims_portal_backend/internal/rules"
	rulesservice "claims_portal_backend/internal/rules/service"
	"claims_portal_backend/internal/scheduler"
	"claims_portal_backend/platform/config"
	"claims_portal_backend/platform/db"
	"claims_portal_backend/platform/logger"
	"claims_portal_backend/platform/redisx"
	"claims_portal_backend/platform/validator"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"
	"golang.org/x/sync/errgroup"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		panic("failed to load config: " + err.Error())
	}

	// Initialize structured logger
	log := logger.New(cfg.Env)
	log.Info("starting server", "env", cfg.Env, "addr", cfg.HTTPAddr)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// ========================================================================
	// Infrastructure Layer
	// ========================================================================

	if err := withRetry(ctx, log, "database migrations", 5, 2*time.Second, func() error {
		return db.RunMigrations(ctx, cfg)
	}); err != nil {
		log.Error("failed to run database migrations", "error", err)
		panic("failed to run database migrations: " + err.Error())
	}
	log.Info("database migrations complete")

	var pool *pgxpool.Pool
	if err := withRetry(ctx, log, "database connection", 5, 2*time.Second, func() error {
		p, err := db.NewPool(ctx, cfg)
		if err != nil {
			return err
		}
		pool = p
		return nil
	}); err != nil {
		log.Error("failed to connect to database", "error", err)
		panic("failed to connect to database: " + err.Error())
	}
	defer pool.Close()
	log.Info("database connection established")

	// Event bus for decoupled communication between modules
	eventBus := events.NewInMemoryBus(log)
	events.NewAuditLog(log).Register(eventBus)

	// Shared validator instance for dependency injection
	val := validator.New()

	// ========================================================================
	// Assignment Engine
	// ========================================================================

	loc := cfg.GetCapacityLocation()
	clock := assignment.SystemClock{}

	redisClient := initRedis(ctx, cfg, log)
	if redisClient != nil {
		defer func() { _ = redisClient.Close() }()
	}

	var (
		cursors        assignment.CursorStore = assignment.NewMemoryCursors()
		ruleGeneration rulesservice.Generation
	)
	if redisClient != nil {
		cursors = adapters.NewRedisCursors(redisClient)
		ruleGeneration = adapters.NewRedisRuleGeneration(redisClient)
	}

	engine := assignment.NewEngine(
		adapters.NewPostgresCapacity(pool, clock, loc),
		cursors,
		adapters.NewPostgresState(pool, clock, loc),
	)
	engine.SetLogger(log)

	// ========================================================================
	// Domain Modules
	// ========================================================================

	agentsModule := agents.NewModule(pool, eventBus, val, log)

	rulesModule, err := rules.NewModule(pool, cfg, ruleGeneration, eventBus, val, log)
	if err != nil {
		log.Error("failed to initialize rules module", "error", err)
		panic("failed to initialize rules module: " + err.Error())
	}
	defer rulesModule.Close()

	roster := adapters.NewAgentRoster(agentsModule.Repository(), clock, loc)
	claimsModule := claims.NewModule(pool, roster, rulesModule.Service(), engine, eventBus, val, log)
	agentsModule.Service().SetCapacityLocation(loc)
	claimsModule.Service().SetCapacityLocation(loc)

	requestStartupReset(ctx, cfg, log)

	app := &apphttp.App{
		Config:  cfg,
		Logger:  log,
		Health:  db.NewPoolAdapter(pool),
		Modules: []apphttp.Module{
			agentsModule,
			rulesModule,
			claimsModule,
		},
	}

	srv := &http.Server{
		Addr:              cfg.HTTPAddr,
		Handler:           router.New(app),
		ReadHeaderTimeout: 10 * time.Second,
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		log.Info("server listening", "addr", cfg.HTTPAddr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		log.Info("shutdown signal received, gracefully shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})

	if err := g.Wait(); err != nil {
		log.Error("server error", "error", err)
		eventBus.Wait()
		panic("server error: " + err.Error())
	}
	eventBus.Wait()
	log.Info("server stopped")
}

// initRedis connects the client that shares payer cursors and the rule
// generation between replicas. Without it both stay process-local.
func initRedis(ctx context.Context, cfg config.RedisConfig, log *logger.Logger) *redis.Client {
	if cfg.GetRedisURL() == "" {
		log.Warn("REDIS_URL not configured; payer cursors and rule cache invalidation are process-local")
		return nil
	}

	client, err := redisx.NewClient(ctx, cfg)
	if err != nil {
		log.Error("failed to connect to redis; payer cursors and rule cache invalidation are process-local", "error", err)
		return nil
	}
	return client
}

// requestStartupReset asks the scheduler worker to catch up on a rollover
// that happened while nothing was running.
func requestStartupReset(ctx context.Context, cfg config.SchedulerConfig, log *logger.Logger) {
	if cfg.GetRedisURL() == "" {
		return
	}

	client, err := scheduler.NewClient(cfg)
	if err != nil {
		log.Error("failed to initialize scheduler client", "error", err)
		return
	}
	defer func() { _ = client.Close() }()

	if err := client.EnqueueCapacityReset(ctx, scheduler.SourceStartup); err != nil {
		log.Warn("failed to enqueue startup capacity reset", "error", err)
	}
}

func withRetry(ctx context.Context, log *logger.Logger, name string, attempts int, baseDelay time.Duration, fn func() error) error {
	if attempts < 1 {
		return fmt.Errorf("%s: invalid retry attempts", name)
	}

	var lastErr error
	for attempt := 1; attempt <= attempts; attempt++ {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		if err := fn(); err == nil {
			return nil
		} else {
			lastErr = err
			log.Warn("retryable operation failed", "operation", name, "attempt", attempt, "error", err)
		}

		if attempt < attempts {
			delay := time.Duration(attempt*attempt) * baseDelay
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(delay):
			}
		}
	}

	return errors.New(name + ": " + lastErr.Error())
}

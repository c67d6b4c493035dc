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

	"github.com/redis/go-redis/v9"

	callbackengine "digital-forms-platform/runner/internal/callback/engine"
	callbackrepo "digital-forms-platform/runner/internal/callback/repository"
	"digital-forms-platform/runner/internal/config"
	"digital-forms-platform/runner/internal/db"
	"digital-forms-platform/runner/internal/form"
	healthhandler "digital-forms-platform/runner/internal/health/handler"
	payclient "digital-forms-platform/runner/internal/pay/client"
	payrepo "digital-forms-platform/runner/internal/pay/repository"
	payservice "digital-forms-platform/runner/internal/pay/service"
	"digital-forms-platform/runner/internal/security"
	"digital-forms-platform/runner/internal/server"
	sessionservice "digital-forms-platform/runner/internal/session/service"
	"digital-forms-platform/runner/internal/session/store"
	"digital-forms-platform/runner/internal/telemetry"
	otelsetup "digital-forms-platform/runner/internal/telemetry/otel"
	"digital-forms-platform/runner/internal/telemetry/producer"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("config: %v", err)
	}

	ctx := context.Background()

	providers, err := otelsetup.NewProviders(ctx, cfg.OTLPEndpoint, "forms-runner", cfg.OTLPInsecure)
	if err != nil {
		log.Fatalf("telemetry: %v", err)
	}
	providers.SetGlobal()

	registry, err := form.LoadRegistry(cfg.FormsDir)
	if err != nil {
		log.Fatalf("forms: %v", err)
	}
	log.Printf("forms: loaded %d definitions from %s", len(registry.IDs()), cfg.FormsDir)

	var database *sql.DB
	if cfg.DatabaseURL != "" {
		database, err = db.Open(cfg.DatabaseURL)
		if err != nil {
			log.Fatalf("db: %v", err)
		}
		defer database.Close()
	} else {
		log.Println("db: DATABASE_URL not set; payment ledger and callback policy overrides disabled")
	}

	sessions, redisClient, err := newSessionStore(cfg)
	if err != nil {
		log.Fatalf("cache: %v", err)
	}

	var policyRepo callbackrepo.Repository
	var ledger payrepo.Repository
	if database != nil {
		policyRepo = callbackrepo.NewPostgresRepository(database)
		ledger = payrepo.NewPostgresRepository(database)
	}
	evaluator := callbackengine.NewOPAEvaluator(cfg.CallbackWhitelistList(), policyRepo)

	kafkaProducer, err := producer.NewKafkaProducer(cfg.TelemetryKafkaBrokersList(), cfg.TelemetryKafkaTopic)
	if err != nil {
		log.Fatalf("telemetry: kafka producer: %v", err)
	}

	var emitters []telemetry.EventEmitter
	if kafkaProducer != nil {
		defer kafkaProducer.Close()
		emitters = append(emitters, kafkaProducer)
	}
	if cfg.OTLPEndpoint != "" {
		emitters = append(emitters, otelsetup.NewEventEmitter(providers.LoggerProvider))
	}
	emitter := telemetry.MultiEmitter(emitters...)

	tokens := security.NewTokenProvider([]byte(cfg.SessionSigningKey), cfg.SessionTimeout())
	sessionSvc := sessionservice.NewSessionService(registry, evaluator, tokens, sessions, emitter)
	paySvc := payservice.NewPayService(sessions, registry, payclient.NewClient(cfg.PayApiURL), ledger, emitter)

	checks := map[string]healthhandler.Checker{
		"policy": evaluator.HealthCheck,
	}
	if database != nil {
		checks["db"] = database.PingContext
	}
	if redisClient != nil {
		checks["cache"] = func(ctx context.Context) error {
			return redisClient.Ping(ctx).Err()
		}
	}

	deps := server.Deps{
		Sessions:     sessionSvc,
		Pay:          paySvc,
		HealthChecks: checks,
		ServiceName:  "forms-runner",
	}
	if kafkaProducer != nil {
		deps.Producer = kafkaProducer
	}
	handler := server.New(deps)

	srv := &http.Server{
		Addr:              cfg.HTTPAddr,
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		log.Printf("HTTP server listening on %s", cfg.HTTPAddr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatalf("serve: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)
	<-quit

	log.Println("shutting down HTTP server...")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Printf("shutdown: %v", err)
	}

	// Give in-flight async telemetry emits time to finish before the
	// providers flush and close.
	time.Sleep(telemetry.ShutdownDrainDuration)
	drainCtx, drainCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer drainCancel()
	if err := providers.Shutdown(drainCtx); err != nil {
		log.Printf("telemetry shutdown: %v", err)
	}
	log.Println("HTTP server stopped")
}

// newSessionStore picks Redis when configured, otherwise the in-process
// store. The Redis client is returned for the health check.
func newSessionStore(cfg *config.Config) (store.Store, *redis.Client, error) {
	if cfg.RedisURL == "" {
		log.Println("cache: REDIS_URL not set; using in-memory session store (single instance only)")
		return store.NewMemoryStore(cfg.SessionTimeout()), nil, nil
	}
	opts, err := redis.ParseURL(cfg.RedisURL)
	if err != nil {
		return nil, nil, err
	}
	client := redis.NewClient(opts)
	return store.NewRedisStore(client, cfg.SessionTimeout()), client, nil
}

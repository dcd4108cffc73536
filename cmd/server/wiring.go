package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"

	"gatekeeper/internal/audit"
	"gatekeeper/internal/identity"
	"gatekeeper/internal/identity/provider"
	"gatekeeper/internal/mfa"
	mfastore "gatekeeper/internal/mfa/store"
	"gatekeeper/internal/platform/config"
	"gatekeeper/internal/platform/database"
	"gatekeeper/internal/platform/health"
	"gatekeeper/internal/platform/kafka/producer"
	"gatekeeper/internal/platform/metrics"
	"gatekeeper/internal/platform/middleware"
	redisclient "gatekeeper/internal/platform/redis"
	"gatekeeper/internal/ratelimit"
	ratestore "gatekeeper/internal/ratelimit/store"
	"gatekeeper/internal/roles/claims"
	roleservice "gatekeeper/internal/roles/service"
	rolestore "gatekeeper/internal/roles/store"
	"gatekeeper/internal/session"
	"gatekeeper/pkg/platform/circuit"
	"gatekeeper/pkg/platform/outbox"
	outboxmetrics "gatekeeper/pkg/platform/outbox/metrics"
	outboxpg "gatekeeper/pkg/platform/outbox/postgres"
	"gatekeeper/pkg/platform/outbox/worker"
	"gatekeeper/pkg/platform/tracer"
)

const poolStatsInterval = 15 * time.Second

// app holds everything main starts and stops.
type app struct {
	router   chi.Router
	db       *database.Pool
	redis    *redisclient.Client
	producer *producer.Producer
	outbox   *worker.Worker
}

// stores is the persistence selected by configuration: Postgres when a
// database URL is set, process memory otherwise.
type stores struct {
	roles   roleservice.Store
	claims  claims.AssignmentReader
	audit   audit.Store
	outbox  outbox.Store
	pending mfa.PendingStore
	lockout ratelimit.Store
}

func build(ctx context.Context, cfg *config.Config, log *slog.Logger) (*app, error) {
	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	m := metrics.New(reg)
	tr := tracer.NewOTel()

	a := &app{}
	var err error
	if a.db, err = database.New(ctx, cfg.Database); err != nil {
		return nil, fmt.Errorf("connect database: %w", err)
	}
	if a.redis, err = redisclient.New(ctx, cfg.Redis, reg); err != nil {
		a.close(log)
		return nil, fmt.Errorf("connect redis: %w", err)
	}
	st := a.selectStores()

	client := provider.NewClient(cfg.Provider.URL, cfg.Provider.APIKey, cfg.Provider.ServiceRoleKey,
		cfg.Provider.Timeout, provider.WithTracer(tr))
	accessor := provider.NewAccessor(provider.NewSessionDecoder(cfg.Provider.JWTSecret), client)
	directory := provider.NewResilientDirectory(client, log, circuit.WithOpenTimeout(30*time.Second))
	resolver := identity.NewBatchResolver(directory,
		identity.WithResolverLogger(log),
		identity.WithResolverTracer(tr),
		identity.WithResolverMetrics(m),
	)

	validator := session.NewValidator(accessor,
		session.WithMaxAge(cfg.Session.MaxAge),
		session.WithLogger(log),
		session.WithMetrics(m),
	)
	extractor := claims.NewExtractor(st.claims, claims.WithLogger(log))
	roles := roleservice.New(st.roles, resolver,
		roleservice.WithLogger(log),
		roleservice.WithMetrics(m),
		roleservice.WithTracer(tr),
	)
	aggregator := audit.NewAggregator(st.audit, resolver,
		audit.WithLogger(log),
		audit.WithMetrics(m),
		audit.WithTracer(tr),
	)
	tracker := mfa.NewTracker(st.pending, client,
		mfa.WithPendingTTL(cfg.MFA.PendingTTL),
		mfa.WithLogger(log),
		mfa.WithMetrics(m),
	)
	limiter := ratelimit.New(st.lockout,
		ratelimit.WithConfig(ratelimit.Config{
			Attempts:     cfg.Lockout.Attempts,
			Window:       cfg.Lockout.Window,
			LockDuration: cfg.Lockout.LockDuration,
		}),
		ratelimit.WithLogger(log),
		ratelimit.WithMetrics(m),
	)
	guard := middleware.NewGuard(validator, extractor, middleware.Config{
		LoginRedirect:     cfg.Admin.LoginRedirect,
		ForbiddenRedirect: cfg.Admin.ForbiddenRedirect,
		TokenCookie:       cfg.Provider.AccessTokenCookie,
		SecureCookies:     cfg.Server.SecureCookies,
	}, middleware.WithLogger(log), middleware.WithMetrics(m))

	if cfg.Kafka.Enabled() {
		if a.producer, err = producer.New(cfg.Kafka, log); err != nil {
			a.close(log)
			return nil, fmt.Errorf("create kafka producer: %w", err)
		}
		a.outbox = worker.New(st.outbox, a.producer,
			worker.WithTopic(cfg.Kafka.Topic),
			worker.WithBatchSize(cfg.Outbox.BatchSize),
			worker.WithPollInterval(cfg.Outbox.PollInterval),
			worker.WithMetrics(outboxmetrics.New(reg)),
			worker.WithLogger(log),
		)
	}

	checks := health.New(cfg.Log.Environment)
	checks.RegisterCheck("identity_provider", client.Health)
	if a.db != nil {
		checks.RegisterCheck("database", a.db.Health)
	}
	if a.redis != nil {
		checks.RegisterCheck("redis", a.redis.Health)
	}
	if a.producer != nil {
		checks.RegisterCheckWith("kafka", a.producer.Health, health.Degradable)
	}

	a.router = newRouter(routerDeps{
		cfg:      cfg,
		log:      log,
		registry: reg,
		metrics:  m,
		guard:    guard,
		roles:    roles,
		audit:    aggregator,
		tracker:  tracker,
		authn:    client,
		limiter:  limiter,
		health:   checks,
	})
	return a, nil
}

func (a *app) selectStores() stores {
	if a.db != nil {
		roles := rolestore.NewPostgres(a.db.DB())
		return stores{
			roles:   roles,
			claims:  roles,
			audit:   audit.NewPostgres(a.db.DB()),
			outbox:  outboxpg.New(a.db.DB()),
			pending: a.pendingStore(),
			lockout: a.lockoutStore(),
		}
	}

	auditStore := audit.NewInMemoryStore()
	outboxStore := outbox.NewInMemoryStore()
	roles := rolestore.NewInMemoryStore(auditStore, outboxStore)
	return stores{
		roles:   roles,
		claims:  roles,
		audit:   auditStore,
		outbox:  outboxStore,
		pending: a.pendingStore(),
		lockout: a.lockoutStore(),
	}
}

func (a *app) pendingStore() mfa.PendingStore {
	if a.redis != nil {
		return mfastore.NewRedisPendingStore(a.redis.Client)
	}
	return mfastore.NewInMemoryPendingStore()
}

func (a *app) lockoutStore() ratelimit.Store {
	if a.redis != nil {
		return ratestore.NewRedisStore(a.redis.Client)
	}
	return ratestore.NewInMemoryStore()
}

func (a *app) startBackground(ctx context.Context) {
	if a.outbox != nil {
		a.outbox.Start()
		go poll(ctx, poolStatsInterval, func(ctx context.Context) {
			_ = a.outbox.UpdateMetrics(ctx)
		})
	}
	if a.redis != nil {
		go poll(ctx, poolStatsInterval, func(context.Context) {
			a.redis.RecordPoolStats()
		})
	}
}

func (a *app) stopBackground(ctx context.Context, log *slog.Logger) {
	if a.outbox == nil {
		return
	}
	if err := a.outbox.Stop(ctx); err != nil {
		log.Warn("outbox worker did not drain before shutdown", "error", err)
	}
}

func (a *app) close(log *slog.Logger) {
	var errs []error
	if a.producer != nil {
		errs = append(errs, a.producer.Close())
	}
	if a.redis != nil {
		errs = append(errs, a.redis.Close())
	}
	errs = append(errs, a.db.Close())
	if err := errors.Join(errs...); err != nil {
		log.Warn("closing dependencies", "error", err)
	}
}

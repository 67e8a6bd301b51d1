package main

import (
	"context"
	"database/sql"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/prometheus/client_golang/prometheus"

	"jobportal/internal/application/handler"
	appmetrics "jobportal/internal/application/metrics"
	"jobportal/internal/application/service"
	"jobportal/internal/application/store"
	jwttoken "jobportal/internal/jwt_token"
	"jobportal/internal/platform/config"
	"jobportal/internal/platform/httpserver"
	"jobportal/internal/platform/logger"
	"jobportal/internal/platform/metrics"
	"jobportal/internal/platform/postgres"
	"jobportal/internal/platform/ratelimit"
	"jobportal/internal/platform/redis"
	httptransport "jobportal/internal/transport/http"
	ratelimitmw "jobportal/pkg/platform/middleware/ratelimit"
)

type stores struct {
	applications service.ApplicationStore
	jobs         service.JobStore
	users        service.UserStore
	companies    service.CompanyStore
	tx           service.ApplyTx
}

// main wires high-level dependencies, exposes the HTTP router, and keeps the
// server lifecycle small. Business logic lives in internal services packages.
func main() {
	cfg := config.FromEnv()
	log := logger.New(cfg.LogLevel, cfg.LogFormat)
	slog.SetDefault(log)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg, log); err != nil {
		log.Error("server exited with error", "error", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, cfg config.Server, log *slog.Logger) error {
	checks := map[string]httptransport.HealthCheck{}

	var db *sql.DB
	var st stores
	var seeder store.Seeder
	if cfg.Database.URL != "" {
		var err error
		db, err = postgres.Open(ctx, cfg.Database, log)
		if err != nil {
			return err
		}
		defer db.Close()
		if err := store.Migrate(ctx, db); err != nil {
			return err
		}
		pg := store.NewPostgres(db)
		st = stores{
			applications: pg,
			jobs:         pg.Jobs(),
			users:        pg.Users(),
			companies:    pg.Companies(),
			tx:           store.NewPostgresTx(pg, cfg.Database.TxTimeout),
		}
		seeder = pg
		checks["database"] = db.PingContext
		log.Info("using postgres store")
	} else {
		mem := store.NewInMemory()
		st = stores{
			applications: mem,
			jobs:         mem.Jobs(),
			users:        mem.Users(),
			companies:    mem.Companies(),
			tx:           service.NewShardedTx(mem, cfg.Database.TxTimeout),
		}
		seeder = mem
		if cfg.SeedFile == "" {
			log.Warn("DATABASE_URL and SEED_FILE not set, in-memory store starts empty and every apply will return 404")
		} else {
			log.Warn("DATABASE_URL not set, using in-memory store")
		}
	}

	if cfg.SeedFile != "" {
		counts, err := store.SeedFile(ctx, seeder, cfg.SeedFile)
		if err != nil {
			return err
		}
		log.Info("seed fixture loaded",
			"path", cfg.SeedFile,
			"companies", counts.Companies,
			"users", counts.Users,
			"jobs", counts.Jobs,
		)
	}

	redisClient, err := redis.New(ctx, cfg.Redis)
	if err != nil {
		return err
	}
	var limiter ratelimitmw.Limiter
	if redisClient != nil {
		defer redisClient.Close()
		checks["redis"] = redisClient.Health
		limiter = ratelimit.NewRedisLimiter(redisClient.Client, cfg.Apply.RateLimit, cfg.Apply.RateWindow)
	} else {
		local := ratelimit.NewLocalLimiter(cfg.Apply.RateLimit, cfg.Apply.RateWindow)
		if cfg.Apply.RateWindow > 0 {
			go local.RunCleanup(ctx, cfg.Apply.RateWindow)
		}
		limiter = local
	}

	reg := prometheus.DefaultRegisterer
	appService := service.New(st.applications, st.jobs, st.users, st.companies, st.tx,
		service.WithLogger(log),
		service.WithMetrics(appmetrics.New(reg)),
		service.WithStrictTransitions(cfg.Apply.StrictTransitions),
	)
	applyGuard := ratelimitmw.Middleware(limiter, ratelimitmw.ByUser("apply"), log)

	jwtService := jwttoken.NewJWTService(cfg.JWTSigningKey, cfg.JWTIssuer)
	router := httptransport.NewRouter(httptransport.Deps{
		Logger:       log,
		Metrics:      metrics.New(reg),
		Gatherer:     prometheus.DefaultGatherer,
		JWTValidator: jwttoken.NewJWTServiceAdapter(jwtService),
		HealthChecks: checks,
		Modules:      []httptransport.RouteRegistrar{handler.New(appService, log, applyGuard)},
	})

	srv := httpserver.New(cfg.Addr, router)
	errCh := make(chan error, 1)
	go func() {
		log.Info("starting jobportal", "addr", cfg.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	log.Info("shutting down", "timeout", cfg.ShutdownTimeout.String())
	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}

// Package app assembles the service from configuration. The API server and
// the no-show worker share it so both run against the same storage, lock
// and event pipeline.
package app

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/redis/go-redis/v9"

	"github.com/hackgods/clinic-appointment-lifecycle/internal/appointment"
	"github.com/hackgods/clinic-appointment-lifecycle/internal/config"
	"github.com/hackgods/clinic-appointment-lifecycle/internal/db"
	"github.com/hackgods/clinic-appointment-lifecycle/internal/decision"
	"github.com/hackgods/clinic-appointment-lifecycle/internal/eventbus"
	"github.com/hackgods/clinic-appointment-lifecycle/internal/lock"
	"github.com/hackgods/clinic-appointment-lifecycle/internal/metrics"
	redisclient "github.com/hackgods/clinic-appointment-lifecycle/internal/redis"
	"github.com/hackgods/clinic-appointment-lifecycle/internal/usecase"
)

type App struct {
	Service *usecase.Service
	PgPool  *pgxpool.Pool // nil on memory storage
	Redis   *redis.Client // nil when REDIS_ADDR is unset
	Metrics *metrics.Metrics

	closers []func()
}

// Close releases connections in reverse order of acquisition.
func (a *App) Close() {
	for i := len(a.closers) - 1; i >= 0; i-- {
		a.closers[i]()
	}
}

// NewLogger builds the process logger: text in dev, JSON in prod.
func NewLogger(cfg config.Config) *slog.Logger {
	opts := &slog.HandlerOptions{Level: cfg.LogLevel}
	if cfg.IsProd() {
		return slog.New(slog.NewJSONHandler(os.Stdout, opts))
	}
	return slog.New(slog.NewTextHandler(os.Stdout, opts))
}

func Build(ctx context.Context, cfg config.Config, logger *slog.Logger, reg prometheus.Registerer) (*App, error) {
	a := &App{Metrics: metrics.New(reg)}

	var (
		appointments appointment.Repository
		patients     appointment.PatientRepository
		decisions    decision.Repository
		eventLog     eventbus.EventLog
	)

	switch cfg.StorageDriver {
	case config.StorageMemory:
		mem := appointment.NewMemoryRepository()
		appointments, patients = mem, mem
		decisions = decision.NewMemoryRepository()
		eventLog = eventbus.NewMemoryEventLog()
		logger.Warn("using in-memory storage, state is lost on restart")
	default:
		pgCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
		pool, err := db.ConnectPostgres(pgCtx, cfg.PostgresDSN, db.PoolOptions{MaxConns: cfg.PostgresMaxConn})
		cancel()
		if err != nil {
			return nil, fmt.Errorf("postgres: %w", err)
		}
		a.PgPool = pool
		a.closers = append(a.closers, pool.Close)

		if err := db.EnsureSchema(ctx, pool); err != nil {
			a.Close()
			return nil, fmt.Errorf("schema: %w", err)
		}
		pg := appointment.NewPgRepository(pool)
		appointments, patients = pg, pg
		decisions = decision.NewPgRepository(pool)
		eventLog = eventbus.NewPgEventLog(pool)
		logger.Info("connected to postgres")
	}

	locker := lock.Chain{lock.NewKeyedMutex()}
	if cfg.RedisAddr != "" {
		rdb, err := redisclient.NewRedisClient(ctx, redisclient.ClientConfig{
			Addr:     cfg.RedisAddr,
			Username: cfg.RedisUsername,
			Password: cfg.RedisPassword,
			DB:       cfg.RedisDB,
		})
		if err != nil {
			a.Close()
			return nil, fmt.Errorf("redis: %w", err)
		}
		a.Redis = rdb
		a.closers = append(a.closers, func() {
			if err := rdb.Close(); err != nil {
				logger.Warn("error closing redis", "error", err)
			}
		})
		locker = append(locker, redisclient.NewRedisLocker(rdb, cfg.LockTTL, cfg.LockWait))
		logger.Info("connected to redis", "addr", cfg.RedisAddr)
	}

	dispatcher := eventbus.NewDispatcher(logger)
	dispatcher.Register(eventbus.AuditLogHandlers(logger)...)
	dispatcher.Register(eventbus.AlertHandlers(logger)...)
	dispatcher.Register(eventbus.MetricsHandlers(a.Metrics)...)

	stages := []eventbus.Publisher{eventbus.NewLogSink(eventLog), dispatcher}
	if cfg.RabbitMQURL != "" {
		broker, err := eventbus.NewRabbitMQPublisher(cfg.RabbitMQURL, logger)
		if err != nil {
			a.Close()
			return nil, fmt.Errorf("rabbitmq: %w", err)
		}
		a.closers = append(a.closers, func() {
			if err := broker.Close(); err != nil {
				logger.Warn("error closing rabbitmq", "error", err)
			}
		})
		stages = append(stages, eventbus.NewBreakerPublisher(broker, eventbus.BreakerSettings{Name: "rabbitmq"}, logger))
		logger.Info("publishing events to rabbitmq")
	}

	a.Service = usecase.NewService(usecase.Deps{
		Appointments: appointments,
		Patients:     patients,
		Decisions:    decisions,
		Publisher:    eventbus.NewComposite(stages...),
		EventLog:     eventLog,
		Locker:       locker,
		Engine: decision.NewEngine(decision.Policy{
			AutoApplyConfidence:   cfg.AutoApplyConfidence,
			RejectBelowConfidence: cfg.RejectBelowConfidence,
		}),
		Logger:      logger,
		Metrics:     a.Metrics,
		NoShowGrace: cfg.NoShowGrace,
	})
	return a, nil
}

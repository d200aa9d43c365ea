package api

import (
	"context"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"

	"github.com/hackgods/clinic-appointment-lifecycle/internal/appointment"
	"github.com/hackgods/clinic-appointment-lifecycle/internal/usecase"
)

type RouterConfig struct {
	Service *usecase.Service
	PgPool  *pgxpool.Pool // optional, nil when running on memory storage
	Redis   *redis.Client // optional
	Metrics http.Handler  // optional, mounted on /metrics
	Env     string
	Version string
}

func NewRouter(cfg RouterConfig) http.Handler {
	r := chi.NewRouter()
	svc := cfg.Service

	r.Use(RequestIDMiddleware)
	r.Use(LoggingMiddleware)

	health := NewHealthHandler(cfg.PgPool, cfg.Redis, cfg.Env, cfg.Version)
	r.Get("/health/live", health.Liveness)
	r.Get("/health/ready", health.Readiness)
	if cfg.Metrics != nil {
		r.Method(http.MethodGet, "/metrics", cfg.Metrics)
	}

	r.Post("/patients", registerPatientHandler(svc))

	r.Route("/appointments", func(r chi.Router) {
		r.Post("/", createAppointmentHandler(svc))
		r.Get("/", listAppointmentsHandler(svc))

		r.Route("/{id}", func(r chi.Router) {
			r.Get("/", getAppointmentHandler(svc))
			r.Get("/events", auditTrailHandler(svc))
			r.Post("/confirm", lifecycleHandler(bind(svc.Confirm)))
			r.Post("/cancel", lifecycleHandler(bind(svc.Cancel)))
			r.Post("/attend", lifecycleHandler(bind(svc.MarkAttended)))
			r.Post("/no-show", lifecycleHandler(bind(svc.RegisterNoShow)))
			r.Post("/reschedule", rescheduleHandler(svc))
			r.Post("/status", updateStatusHandler(svc))
			r.Post("/priority", overridePriorityHandler(svc))
			r.Post("/proposals", proposeActionHandler(svc))
		})
	})

	r.Route("/decisions", func(r chi.Router) {
		r.Get("/", listDecisionsHandler(svc))
		r.Get("/{id}", getDecisionHandler(svc))
		r.Post("/{id}/approve", approveDecisionHandler(svc))
		r.Post("/{id}/reject", rejectDecisionHandler(svc))
	})

	return r
}

type lifecycleFunc func(context.Context, usecase.AppointmentCommand) usecase.Result[*appointment.Appointment]

func bind(fn lifecycleFunc) func(*http.Request, usecase.AppointmentCommand) usecase.Result[*appointment.Appointment] {
	return func(r *http.Request, cmd usecase.AppointmentCommand) usecase.Result[*appointment.Appointment] {
		return fn(r.Context(), cmd)
	}
}

package http

import (
	"log/slog"
	"net/http"

	"github.com/cmlabs-hris/schedule-core/internal/handler/http/middleware"
	"github.com/cmlabs-hris/schedule-core/internal/pkg/jwt"
	"github.com/go-chi/chi/v5"
	chiMiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/go-chi/httplog/v3"
	"github.com/go-chi/jwtauth/v5"
)

// RouterOptions carries the ambient settings of the HTTP surface.
type RouterOptions struct {
	Logger         *slog.Logger
	LogLevel       slog.Level
	AllowedOrigins []string
}

// Handlers groups the route handlers. Live is the SockJS endpoint mounted
// under /realtime; it may be nil.
type Handlers struct {
	ScheduleRequest ScheduleRequestHandler
	Schedule        ScheduleHandler
	Notification    NotificationHandler
	Holiday         HolidayHandler
	Live            http.Handler
}

func NewRouter(opts RouterOptions, JWTService jwt.Service, h Handlers) *chi.Mux {
	r := chi.NewRouter()
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}

	origins := opts.AllowedOrigins
	if len(origins) == 0 {
		origins = []string{"http://localhost:3000"}
	}
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   origins,
		AllowCredentials: true,
		AllowedMethods:   []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", "X-CSRF-Token"},
		ExposedHeaders:   []string{"Link"},
		MaxAge:           300,
	}))

	r.Use(httplog.RequestLogger(logger, &httplog.Options{
		Level:  opts.LogLevel,
		Schema: httplog.SchemaECS,
	}))

	r.Use(chiMiddleware.CleanPath)
	r.Use(chiMiddleware.Recoverer)
	r.Use(chiMiddleware.Heartbeat("/"))

	if h.Live != nil {
		r.Handle("/realtime/*", h.Live)
	}

	r.Route("/api/v1", func(r chi.Router) {
		// The stream authenticates with the short-lived token in its query.
		r.Get("/notifications/stream", h.Notification.Stream)

		// Requires authentication
		r.Group(func(r chi.Router) {
			r.Use(jwtauth.Verifier(JWTService.JWTAuth()))
			r.Use(middleware.AuthRequired(JWTService.JWTAuth(), JWTService.IsTokenRevoked))
			r.Use(chiMiddleware.AllowContentType("application/json"))

			// Employees file requests; other modules report their events.
			r.Post("/schedule-requests", h.ScheduleRequest.Create)
			r.Post("/notifications/events", h.Notification.RecordEvent)

			// Admin only
			r.Group(func(r chi.Router) {
				r.Use(middleware.AdminOnly)

				r.Route("/schedule-requests", func(r chi.Router) {
					r.Get("/", h.ScheduleRequest.List)
					r.Get("/{id}", h.ScheduleRequest.Get)
					r.Patch("/{id}", h.ScheduleRequest.Dispose)
				})

				r.Route("/employees/{id}", func(r chi.Router) {
					r.Get("/schedule", h.Schedule.GetActiveSchedule)
					r.Put("/schedule", h.Schedule.ApplySchedule)
					r.Get("/effective-schedule", h.Schedule.GetEffectiveSchedule)
				})

				r.Route("/notifications", func(r chi.Router) {
					r.Get("/", h.Notification.List)
					r.Get("/counts", h.Notification.Counts)
					r.Post("/mark-read", h.Notification.MarkAsRead)
					r.Post("/mark-all-read", h.Notification.MarkAllAsRead)
					r.Get("/sse-token", h.Notification.GetSSEToken)
				})

				r.Route("/holidays", func(r chi.Router) {
					r.Get("/", h.Holiday.List)
					r.Post("/", h.Holiday.Create)
					r.Get("/today", h.Holiday.Today)
					r.Put("/{id}", h.Holiday.Update)
					r.Delete("/{id}", h.Holiday.Delete)
				})
				r.Get("/holiday-notifications", h.Notification.ListHoliday)
				r.Post("/holiday-mark-as-read", h.Notification.MarkHolidayAsRead)
			})
		})
	})
	return r
}

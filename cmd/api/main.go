package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/httplog/v3"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"

	"github.com/cmlabs-hris/schedule-core/internal/config"
	"github.com/cmlabs-hris/schedule-core/internal/domain/employee"
	"github.com/cmlabs-hris/schedule-core/internal/domain/holiday"
	"github.com/cmlabs-hris/schedule-core/internal/domain/notification"
	"github.com/cmlabs-hris/schedule-core/internal/domain/schedule"
	"github.com/cmlabs-hris/schedule-core/internal/domain/schedulerequest"
	appHTTP "github.com/cmlabs-hris/schedule-core/internal/handler/http"
	"github.com/cmlabs-hris/schedule-core/internal/pkg/cron"
	"github.com/cmlabs-hris/schedule-core/internal/pkg/database"
	"github.com/cmlabs-hris/schedule-core/internal/pkg/jwt"
	"github.com/cmlabs-hris/schedule-core/internal/pkg/realtime"
	"github.com/cmlabs-hris/schedule-core/internal/pkg/telemetry"
	"github.com/cmlabs-hris/schedule-core/internal/repository/memory"
	"github.com/cmlabs-hris/schedule-core/internal/repository/postgresql"
	"github.com/cmlabs-hris/schedule-core/internal/repository/sqlite"
	holidayService "github.com/cmlabs-hris/schedule-core/internal/service/holiday"
	notificationService "github.com/cmlabs-hris/schedule-core/internal/service/notification"
	scheduleService "github.com/cmlabs-hris/schedule-core/internal/service/schedule"
	scheduleRequestService "github.com/cmlabs-hris/schedule-core/internal/service/schedulerequest"
)

// repositories is the storage surface the services run on.
type repositories struct {
	transactor    database.Transactor
	employees     employee.EmployeeRepository
	schedules     schedule.WeeklyScheduleRepository
	requests      schedulerequest.Repository
	notifications notification.Repository
	holidays      holiday.Repository
	close         func()
}

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Println("Error loading config:", err)
		os.Exit(1)
	}

	logFormat := httplog.SchemaECS.Concise(false)
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level:       cfg.SlogLevel(),
		ReplaceAttr: logFormat.ReplaceAttr,
	})).With(
		slog.String("app", cfg.App.Name),
		slog.String("env", cfg.App.Env),
	)
	slog.SetDefault(logger)

	if err := run(cfg, logger); err != nil {
		logger.Error("server exited with error", slog.String("error", err.Error()))
		os.Exit(1)
	}
}

func run(cfg *config.Config, logger *slog.Logger) error {
	shutdownTracing := telemetry.Setup(telemetry.Config{
		ServiceName: cfg.App.Name,
		Endpoint:    cfg.Telemetry.Endpoint,
		Insecure:    cfg.Telemetry.Insecure,
	})
	defer func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = shutdownTracing(ctx)
	}()

	repos, err := openRepositories(cfg, logger)
	if err != nil {
		return err
	}
	defer repos.close()

	markers, err := sqlite.NewAlertMarkerStore(cfg.Holiday.MarkerPath)
	if err != nil {
		return fmt.Errorf("open holiday marker store: %w", err)
	}
	defer markers.Close()

	location := cfg.Location()
	hub := realtime.NewHub(logger)

	notificationSvc := notificationService.NewNotificationService(repos.notifications, hub, notificationService.Config{
		WorkerCount: cfg.Notification.WorkerCount,
		QueueSize:   cfg.Notification.QueueSize,
	}, logger)
	defer notificationSvc.Stop()

	scheduleSvc := scheduleService.NewScheduleService(
		repos.transactor,
		repos.employees,
		repos.schedules,
		notificationSvc,
		logger,
		scheduleService.WithLocation(location),
	)
	requestSvc := scheduleRequestService.NewScheduleRequestService(
		repos.transactor,
		repos.requests,
		repos.employees,
		repos.schedules,
		scheduleSvc,
		notificationSvc,
		logger,
	)
	holidaySvc := holidayService.NewHolidayService(repos.holidays, markers, notificationSvc, holidayService.Config{
		Location: location,
	}, logger)

	scheduler := cron.NewScheduler(logger)
	cron.NewHolidayJobs(holidaySvc, cfg.Holiday.CheckInterval, logger).RegisterJobs(scheduler)
	scheduler.Start()
	defer scheduler.Stop()

	JWTService := jwt.NewJWTService(cfg.JWT.Secret, cfg.JWT.AccessExpiration)
	live := realtime.NewSockJSHandler(cfg.Realtime.SockJSPrefix, notificationSvc, func(r *http.Request) error {
		_, err := JWTService.ValidateSSEToken(r.URL.Query().Get("token"))
		return err
	}, logger)

	router := appHTTP.NewRouter(appHTTP.RouterOptions{
		Logger:         logger,
		LogLevel:       cfg.SlogLevel(),
		AllowedOrigins: cfg.CORS.AllowedOrigins,
	}, JWTService, appHTTP.Handlers{
		ScheduleRequest: appHTTP.NewScheduleRequestHandler(requestSvc),
		Schedule:        appHTTP.NewScheduleHandler(scheduleSvc, location),
		Notification:    appHTTP.NewNotificationHandler(notificationSvc, JWTService, cfg.Realtime.SSEBuffer),
		Holiday:         appHTTP.NewHolidayHandler(holidaySvc),
		Live:            live,
	})

	// WriteTimeout stays unset: SSE and SockJS responses are long lived.
	server := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.App.Port),
		Handler:           otelhttp.NewHandler(router, cfg.App.Name),
		ReadHeaderTimeout: 10 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	serverErr := make(chan error, 1)
	go func() {
		logger.Info("server running", slog.String("addr", server.Addr), slog.String("storage", cfg.Storage.Driver))
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverErr <- err
		}
		close(serverErr)
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	select {
	case err := <-serverErr:
		if err != nil {
			return fmt.Errorf("server error: %w", err)
		}
		return nil
	case sig := <-quit:
		logger.Info("shutting down", slog.String("signal", sig.String()))
	}

	// Live sessions never finish on their own; close them before draining.
	hub.CloseAll()

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(ctx); err != nil {
		return fmt.Errorf("server shutdown: %w", err)
	}
	return nil
}

func openRepositories(cfg *config.Config, logger *slog.Logger) (repositories, error) {
	switch cfg.Storage.Driver {
	case config.StorageDriverMemory:
		store := memory.NewStore()
		if cfg.Storage.SeedFile != "" {
			n, err := store.LoadSeedFile(cfg.Storage.SeedFile)
			if err != nil {
				return repositories{}, err
			}
			logger.Info("memory store seeded", slog.Int("employees", n))
		} else {
			logger.Warn("memory store starts empty; set MEMORY_SEED_FILE to load employees")
		}
		return repositories{
			transactor:    store,
			employees:     store.Employees(),
			schedules:     store.WeeklySchedules(),
			requests:      store.ScheduleRequests(),
			notifications: store.Notifications(),
			holidays:      store.Holidays(),
			close:         func() {},
		}, nil

	default:
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		db, err := database.NewPostgreSQLDB(ctx, cfg.DatabaseURL(), database.PoolConfig{
			MaxConns: cfg.Database.MaxConns,
			MinConns: cfg.Database.MinConns,
		})
		if err != nil {
			return repositories{}, fmt.Errorf("connect to database: %w", err)
		}
		if cfg.Database.AutoMigrate {
			if err := postgresql.Migrate(ctx, db); err != nil {
				db.Close()
				return repositories{}, err
			}
			logger.Info("database schema applied")
		}
		return repositories{
			transactor:    postgresql.NewTransactor(db),
			employees:     postgresql.NewEmployeeRepository(db),
			schedules:     postgresql.NewWeeklyScheduleRepository(db),
			requests:      postgresql.NewScheduleRequestRepository(db),
			notifications: postgresql.NewNotificationRepository(db),
			holidays:      postgresql.NewHolidayRepository(db),
			close:         db.Close,
		}, nil
	}
}

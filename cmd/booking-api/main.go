package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"

	_ "github.com/openbook-dev/openbook-api/api/swagger"
	"github.com/openbook-dev/openbook-api/internal/calendar"
	"github.com/openbook-dev/openbook-api/internal/handler"
	"github.com/openbook-dev/openbook-api/internal/middleware"
	"github.com/openbook-dev/openbook-api/internal/repository"
	"github.com/openbook-dev/openbook-api/internal/service"
	"github.com/openbook-dev/openbook-api/pkg/cache"
	"github.com/openbook-dev/openbook-api/pkg/config"
	"github.com/openbook-dev/openbook-api/pkg/database"
	"github.com/openbook-dev/openbook-api/pkg/export"
	"github.com/openbook-dev/openbook-api/pkg/logger"
	corsmiddleware "github.com/openbook-dev/openbook-api/pkg/middleware/cors"
	reqidmiddleware "github.com/openbook-dev/openbook-api/pkg/middleware/requestid"
	"github.com/openbook-dev/openbook-api/pkg/signing"
)

// @title OpenBook API
// @version 1.0.0
// @description Availability and slot scheduling engine
// @BasePath /
// @schemes http

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	logr, err := logger.New(cfg)
	if err != nil {
		log.Fatalf("failed to init logger: %v", err)
	}
	defer logr.Sync() //nolint:errcheck

	if cfg.Env == config.EnvProduction {
		gin.SetMode(gin.ReleaseMode)
	}

	db, err := database.NewPostgres(cfg.Database)
	if err != nil {
		logr.Sugar().Fatalw("database connection failed", "error", err)
	}
	defer db.Close()

	metricsSvc := service.NewMetricsService()

	// Redis is an accelerator, not a dependency: the engine serves every
	// request from Postgres when the cache is down.
	var cacheRepo service.CacheRepository
	cacheEnabled := false
	if redisClient, err := cache.NewRedis(cfg.Redis); err != nil {
		logr.Sugar().Warnw("redis unavailable, caching disabled", "error", err)
	} else {
		cacheRepo = repository.NewCacheRepository(redisClient, logr)
		cacheEnabled = true
		defer redisClient.Close() //nolint:errcheck
	}
	cacheSvc := service.NewCacheService(cacheRepo, metricsSvc, cfg.Calendar.FreshnessTTL, logr, cacheEnabled)

	bookingRepo := repository.NewBookingRepository(db)
	availabilityRepo := repository.NewAvailabilityRepository(db)
	busyRepo := repository.NewBusyBlockRepository(db)
	eventRepo := repository.NewEventRepository(db)
	hostRepo := repository.NewHostRepository(db)

	providers := &calendar.Selector{
		API:  calendar.NewHTTPProvider(cfg.Calendar.FreeBusyBaseURL, cfg.Calendar.FreeBusyToken, cfg.Calendar.FetchTimeout),
		Feed: calendar.NewICSProvider(cfg.Calendar.FetchTimeout, logr),
	}

	freeBusySvc := service.NewFreeBusyService(service.FreeBusyServiceParams{
		Blocks:    busyRepo,
		Providers: providers,
		Cache:     cacheSvc,
		Metrics:   metricsSvc,
		Logger:    logr,
		Config:    service.FreeBusyServiceConfig{FreshnessTTL: cfg.Calendar.FreshnessTTL},
	})

	slotSvc := service.NewSlotService(service.SlotServiceParams{
		Availability: availabilityRepo,
		FreeBusy:     freeBusySvc,
		Bookings:     bookingRepo,
		Metrics:      metricsSvc,
		Logger:       logr,
		Config:       service.SlotServiceConfig{MaxWindowDays: cfg.Booking.MaxWindowDays},
	})

	assignmentSvc := service.NewAssignmentService(service.AssignmentServiceParams{
		Bookings: bookingRepo,
		Hosts:    hostRepo,
		Slots:    slotSvc,
		Cache:    cacheSvc,
		Metrics:  metricsSvc,
		Logger:   logr,
		Config:   service.AssignmentServiceConfig{StatsCacheTTL: cfg.RoundRobin.StatsCacheTTL},
	})

	signer := signing.NewManageTokenSigner(cfg.Booking.ManageTokenSecret, cfg.Booking.ManageTokenTTL)

	reservationSvc := service.NewReservationService(service.ReservationServiceParams{
		Bookings:   bookingRepo,
		Slots:      slotSvc,
		Hosts:      hostRepo,
		Assignment: assignmentSvc,
		Signer:     signer,
		Metrics:    metricsSvc,
		Logger:     logr,
	})

	bookingSvc := service.NewBookingService(service.BookingServiceParams{
		Bookings: bookingRepo,
		Signer:   signer,
		CSV:      export.NewCSVExporter(),
		PDF:      export.NewPDFExporter(),
		Logger:   logr,
		Config: service.BookingServiceConfig{
			ExportsEnabled: cfg.Exports.Enabled,
			ExportMaxRows:  cfg.Exports.MaxRows,
		},
	})

	eventSvc := service.NewEventService(eventRepo, nil, logr)
	availabilitySvc := service.NewAvailabilityService(availabilityRepo, freeBusySvc, logr)
	authSvc := service.NewAuthService(service.AuthConfig{Secret: cfg.JWT.Secret}, logr)

	syncSvc := service.NewSyncService(service.SyncServiceParams{
		Hosts:    hostRepo,
		FreeBusy: freeBusySvc,
		Logger:   logr,
		Config: service.SyncServiceConfig{
			Schedule: cfg.Calendar.SyncSchedule,
			Workers:  cfg.Calendar.SyncWorkers,
			Enabled:  cfg.Calendar.SyncEnabled,
		},
	})

	slotHandler := handler.NewSlotHandler(eventSvc, slotSvc, hostRepo)
	bookingHandler := handler.NewBookingHandler(eventSvc, reservationSvc, bookingSvc)
	eventHandler := handler.NewEventHandler(eventSvc, bookingSvc)
	assignmentHandler := handler.NewAssignmentHandler(eventSvc, assignmentSvc)
	hostHandler := handler.NewHostHandler(availabilitySvc, hostRepo, syncSvc)
	metricsHandler := handler.NewMetricsHandler(metricsSvc)

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(reqidmiddleware.Middleware())
	r.Use(logger.GinMiddleware(logr))
	r.Use(corsmiddleware.New(cfg.CORS.AllowedOrigins))
	r.Use(middleware.WithResponseMeta())
	r.Use(middleware.Metrics(metricsSvc))

	r.GET("/health", metricsHandler.Health)
	r.GET("/ready", func(c *gin.Context) {
		if err := db.PingContext(c.Request.Context()); err != nil {
			c.JSON(http.StatusServiceUnavailable, gin.H{"status": "degraded"})
			return
		}
		c.JSON(http.StatusOK, gin.H{"status": "ready"})
	})
	r.GET("/metrics", metricsHandler.Prometheus)

	if cfg.Env != config.EnvProduction {
		r.GET("/docs/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	}

	// Attendee-facing surface. No login: bookings are created anonymously and
	// cancelled with the manage token issued at reservation time.
	r.GET("/events/:slug", eventHandler.Get)
	r.GET("/events/:slug/slots", slotHandler.List)
	r.POST("/availability/check", slotHandler.Check)
	r.POST("/bookings", bookingHandler.Create)
	r.DELETE("/bookings/:id", bookingHandler.Cancel)

	// Operator surface behind JWT.
	admin := r.Group(cfg.APIPrefix)
	admin.Use(middleware.JWT(authSvc))
	{
		admin.POST("/events", eventHandler.Create)
		admin.GET("/events/:id/bookings", eventHandler.ListBookings)
		admin.GET("/events/:id/bookings/export", eventHandler.Export)
		admin.GET("/events/:id/round-robin", assignmentHandler.Stats)

		admin.GET("/hosts/:id/availability", hostHandler.ListPatterns)
		admin.POST("/hosts/:id/availability", hostHandler.CreatePattern)
		admin.PUT("/hosts/:id/availability/:patternId", hostHandler.UpdatePattern)
		admin.DELETE("/hosts/:id/availability/:patternId", hostHandler.DeactivatePattern)
		admin.POST("/hosts/:id/calendar/refresh", hostHandler.RefreshCalendar)

		admin.GET("/metrics/snapshot", metricsHandler.Snapshot)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := syncSvc.Start(ctx); err != nil {
		logr.Sugar().Fatalw("calendar sync failed to start", "error", err)
	}

	addr := fmt.Sprintf(":%d", cfg.Port)
	srv := &http.Server{Addr: addr, Handler: r}

	go func() {
		logr.Sugar().Infow("server starting", "addr", addr, "env", cfg.Env)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logr.Sugar().Fatalw("server failed", "error", err)
		}
	}()

	<-ctx.Done()
	logr.Sugar().Infow("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logr.Sugar().Warnw("server shutdown incomplete", "error", err)
	}
	syncSvc.Stop()
}

package main

import (
	"context"
	"flag"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	_ "time/tzdata"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"go.opentelemetry.io/contrib/instrumentation/github.com/labstack/echo/otelecho"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracehttp"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"

	"github.com/totegamma/messboard/client"
	"github.com/totegamma/messboard/internal/config"
	"github.com/totegamma/messboard/internal/domain"
	"github.com/totegamma/messboard/internal/infra/cache"
	"github.com/totegamma/messboard/internal/infra/database"
	"github.com/totegamma/messboard/internal/infra/media"
	"github.com/totegamma/messboard/internal/infra/repository"
	"github.com/totegamma/messboard/internal/present/rest"
	metrics "github.com/totegamma/messboard/internal/present/rest/middleware"
	"github.com/totegamma/messboard/internal/service"
	"github.com/totegamma/messboard/internal/usecase"
)

const serviceName = "messboard"

func main() {
	configPath := flag.String("config", "config.yaml", "path to the config file")
	flag.Parse()

	conf, err := config.Load(*configPath)
	if err != nil {
		slog.Error("failed to load config", slog.String("error", err.Error()))
		os.Exit(1)
	}

	setupLogger(conf.Server.LogLevel)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if conf.Server.EnableTrace {
		cleanup, err := setupTraceProvider(ctx, conf.Server.TraceEndpoint)
		if err != nil {
			slog.Error("failed to setup tracer", slog.String("error", err.Error()))
			os.Exit(1)
		}
		defer cleanup()
	}

	dates, err := domain.NewDateNormalizer(conf.Board.TimeZone, nil)
	if err != nil {
		slog.Error("failed to load time zone", slog.String("error", err.Error()))
		os.Exit(1)
	}

	var (
		menuRepo         usecase.MenuRepository
		notificationRepo usecase.NotificationRepository
		issueRepo        usecase.IssueRepository
	)

	switch conf.Storage.Driver {
	case config.DriverMongo:
		mc, err := database.NewMongo(ctx, conf.Storage.MongoURI)
		if err != nil {
			slog.Error("failed to connect mongo", slog.String("error", err.Error()))
			os.Exit(1)
		}
		defer mc.Disconnect(context.Background())

		mdb := mc.Database(conf.Storage.MongoDatabase)
		if err := database.MigrateMongo(ctx, mdb); err != nil {
			slog.Error("failed to migrate mongo", slog.String("error", err.Error()))
			os.Exit(1)
		}
		menuRepo = repository.NewMongoMenuRepository(mc, mdb)
		notificationRepo = repository.NewMongoNotificationRepository(mdb)
		issueRepo = repository.NewMongoIssueRepository(mdb)
	default:
		db, err := database.NewPostgres(conf.Storage.PostgresDsn)
		if err != nil {
			slog.Error("failed to connect database", slog.String("error", err.Error()))
			os.Exit(1)
		}
		if err := database.MigratePostgres(db); err != nil {
			slog.Error("failed to migrate database", slog.String("error", err.Error()))
			os.Exit(1)
		}
		menuRepo = repository.NewMenuRepository(db)
		notificationRepo = repository.NewNotificationRepository(db)
		issueRepo = repository.NewIssueRepository(db)
	}

	opts := usecase.MenuOptions{
		StorageTimeout:    conf.Storage.Timeout,
		MaxUpsertAttempts: conf.Board.MaxUpsertAttempts,
	}

	if conf.Server.MemcachedAddr != "" {
		mc := database.NewMemcached(conf.Server.MemcachedAddr, 200*time.Millisecond)
		opts.Cache = cache.NewMemcachedTodayCache(mc, conf.Board.CacheTTL)
	} else {
		opts.Cache = cache.NewLocalTodayCache(conf.Board.CacheTTL)
	}

	var (
		publisher usecase.Publisher
		realtime  rest.RealtimeSource
	)
	if conf.Server.RedisAddr != "" {
		rdb, err := database.NewRedis(ctx, conf.Server.RedisAddr, conf.Server.RedisPassword, conf.Server.RedisDB)
		if err != nil {
			slog.Error("failed to connect redis", slog.String("error", err.Error()))
			os.Exit(1)
		}
		defer rdb.Close()
		signalService := service.NewSignalService(rdb)
		publisher = signalService
		realtime = signalService
	} else {
		slog.Warn("redis is not configured; realtime events are disabled", slog.String("module", "main"))
	}
	opts.Publisher = publisher

	e := echo.New()
	e.HideBanner = true

	switch conf.Media.Backend {
	case config.MediaLocal:
		store, err := media.NewLocalStore(conf.Media.Dir, conf.Media.PublicPrefix, conf.Media.MaxBytes)
		if err != nil {
			slog.Error("failed to prepare upload dir", slog.String("error", err.Error()))
			os.Exit(1)
		}
		opts.Attachment = store
		e.Static(store.PublicPrefix(), store.Dir())
	case config.MediaObjectStore:
		oc := client.New(conf.Media.Endpoint, client.Options{
			Bucket:    conf.Media.Bucket,
			Token:     conf.Media.Token,
			PublicURL: conf.Media.PublicURL,
		})
		opts.Attachment = media.NewObjectStore(oc, conf.Media.KeyPrefix, conf.Media.MaxBytes)
	}

	menuUC := usecase.NewMenuUsecase(menuRepo, dates, opts)
	notificationUC := usecase.NewNotificationUsecase(notificationRepo, publisher, conf.Storage.Timeout)
	issueUC := usecase.NewIssueUsecase(issueRepo, publisher, conf.Storage.Timeout)

	handler := rest.NewHandler(menuUC, notificationUC, issueUC, realtime, conf.Media.MaxBytes)

	registry := prometheus.NewRegistry()
	registry.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	metricsMiddleware := metrics.NewMetrics(registry)

	e.Use(middleware.Logger())
	e.Use(middleware.Recover())
	e.Use(middleware.CORS())
	e.Use(middleware.BodyLimit(bodyLimit(conf.Media.MaxBytes)))
	e.Use(metricsMiddleware.Middleware)
	if conf.Server.EnableTrace {
		e.Use(otelecho.Middleware(serviceName))
	}

	e.GET("/metrics", metricsMiddleware.Handler())
	handler.RegisterRoutes(e)

	go func() {
		slog.Info("listening", slog.String("port", conf.Server.Port), slog.String("driver", conf.Storage.Driver))
		if err := e.Start(":" + conf.Server.Port); err != nil && err != http.ErrServerClosed {
			slog.Error("server stopped", slog.String("error", err.Error()))
			stop()
		}
	}()

	<-ctx.Done()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := e.Shutdown(shutdownCtx); err != nil {
		slog.Error("failed to shutdown", slog.String("error", err.Error()))
	}
}

// bodyLimit leaves headroom over the photo ceiling for the other form fields.
func bodyLimit(maxBytes int64) string {
	return strconv.FormatInt((maxBytes+1<<20)/1024, 10) + "K"
}

func setupLogger(level string) {
	var lv slog.Level
	if err := lv.UnmarshalText([]byte(level)); err != nil {
		lv = slog.LevelInfo
	}
	slog.SetDefault(slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: lv})))
}

func setupTraceProvider(ctx context.Context, endpoint string) (func(), error) {

	exporter, err := otlptracehttp.New(
		ctx,
		otlptracehttp.WithEndpoint(endpoint),
		otlptracehttp.WithInsecure(),
	)
	if err != nil {
		return nil, err
	}

	res, err := resource.Merge(
		resource.Default(),
		resource.NewSchemaless(
			attribute.String("service.name", serviceName),
		),
	)
	if err != nil {
		return nil, err
	}

	tracerProvider := sdktrace.NewTracerProvider(
		sdktrace.WithBatcher(exporter),
		sdktrace.WithResource(res),
		sdktrace.WithSampler(sdktrace.ParentBased(sdktrace.TraceIDRatioBased(1.0))),
	)
	otel.SetTracerProvider(tracerProvider)

	cleanup := func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := tracerProvider.Shutdown(ctx); err != nil {
			slog.Error("failed to shutdown tracer", slog.String("error", err.Error()))
		}
	}

	return cleanup, nil
}

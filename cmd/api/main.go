// Package main is the entrypoint for the share tracking API server.
package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"os"
	"regexp"
	"strings"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/jobshare/sharetrack/internal/analytics"
	"github.com/jobshare/sharetrack/internal/cache"
	"github.com/jobshare/sharetrack/internal/config"
	"github.com/jobshare/sharetrack/internal/emailshare"
	"github.com/jobshare/sharetrack/internal/handler"
	"github.com/jobshare/sharetrack/internal/metrics"
	"github.com/jobshare/sharetrack/internal/middleware"
	"github.com/jobshare/sharetrack/internal/repository"
	"github.com/jobshare/sharetrack/internal/server"
	"github.com/jobshare/sharetrack/internal/sharing"
	"github.com/jobshare/sharetrack/internal/storage"
)

func main() {
	ctx := context.Background()

	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	logger := initLogger(cfg)

	loc, err := cfg.Location()
	if err != nil {
		logger.Error("failed to load timezone", "error", err)
		os.Exit(1)
	}

	recorder, metricsHandler := initMetrics(cfg)

	// Components are stopped in reverse order of registration.
	var shutdowns []namedShutdown

	var redisClient *cache.Cache
	if cfg.StorageBackend == config.StorageRedis || cfg.AnalyticsSink == config.SinkRedis {
		redisClient, err = cache.New(ctx, cfg.RedisURL, cfg.RedisBlobTTL)
		if err != nil {
			logger.Error(
				"failed to connect to Redis",
				slog.String("error", sanitizeError(err, cfg.RedisURL)),
				slog.String("redis_url", redactURL(cfg.RedisURL)),
			)
			os.Exit(1)
		}
		shutdowns = append(shutdowns, namedShutdown{"redis", func(context.Context) error { return redisClient.Close() }})
		logger.Info("connected to Redis")
	}

	store, storeShutdown, err := openStore(ctx, cfg, redisClient)
	if err != nil {
		logger.Error("failed to open storage",
			slog.String("backend", cfg.StorageBackend),
			slog.String("error", sanitizeError(err, cfg.DatabaseURL, cfg.RedisURL)),
		)
		os.Exit(1)
	}
	if storeShutdown != nil {
		shutdowns = append(shutdowns, namedShutdown{"storage", storeShutdown})
	}
	logger.Info("storage ready", "backend", cfg.StorageBackend)

	sink, err := newSink(cfg, redisClient)
	if err != nil {
		logger.Error("failed to configure analytics sink", "sink", cfg.AnalyticsSink, "error", err)
		os.Exit(1)
	}
	publisher := analytics.NewPublisher(sink, cfg.AnalyticsTimeout, logger, recorder)
	shutdowns = append(shutdowns, namedShutdown{"analytics-publisher", publisher.Shutdown})

	registry := sharing.NewRegistry(store, cfg.StorageKeyPrefix, cfg.MaxProfiles, sharing.Options{
		Capacity:       cfg.HistoryCapacity,
		RecentWindow:   cfg.RecentWindow(),
		PersistTimeout: cfg.PersistTimeout,
		Location:       loc,
		Publisher:      publisher,
		Logger:         logger,
		Metrics:        recorder,
	})

	var email *emailshare.Service
	if cfg.EmailShareEndpoint != "" {
		client := emailshare.NewClient(cfg.EmailShareEndpoint, analytics.NewHTTPClient(cfg.EmailShareTimeout))
		email = emailshare.NewService(client, cfg.EmailShareOptimistic, logger, recorder)
	}

	checks := []handler.NamedCheck{{Name: "storage:" + cfg.StorageBackend, Checker: registry}}
	if cfg.AnalyticsSink == config.SinkRedis && cfg.StorageBackend != config.StorageRedis {
		checks = append(checks, handler.NamedCheck{Name: "analytics:redis", Checker: redisClient})
	}

	corsCfg := middleware.DefaultCORSConfig()
	corsCfg.AllowedOrigins = cfg.GetCORSAllowedOrigins()

	r := handler.NewRouter(handler.RouterConfig{
		Registry: registry,
		Email:    email,
		URLs: sharing.URLBuilder{
			BaseURL: cfg.PublicBaseURL,
			Source:  cfg.ProductName,
		},
		Health:  handler.NewHealthHandler(checks...),
		Metrics: metricsHandler,
		Security: middleware.SecurityConfig{
			IsDevelopment:      cfg.IsDevelopment(),
			MaxRequestBodySize: cfg.MaxRequestBodySize,
		},
		CORS:   corsCfg,
		Logger: logger,
	})

	srv := server.New(r, server.Config{
		Port:            cfg.AppPort,
		ReadTimeout:     cfg.ReadTimeout,
		WriteTimeout:    cfg.WriteTimeout,
		ShutdownTimeout: cfg.ShutdownTimeout,
	}, logger)
	for _, s := range shutdowns {
		srv.OnShutdown(s.name, s.fn)
	}

	logger.Info("starting server",
		"port", cfg.AppPort,
		"env", cfg.AppEnv,
		"storage", cfg.StorageBackend,
		"analytics_sink", cfg.AnalyticsSink,
		"metrics", cfg.MetricsBackend,
		"email_share", email != nil,
		"timezone", loc.String(),
	)

	if err := srv.Run(); err != nil {
		logger.Error("server error", "error", err)
		os.Exit(1)
	}
}

type namedShutdown struct {
	name string
	fn   server.ShutdownFunc
}

// openStore builds the blob store selected by STORAGE_BACKEND.
func openStore(ctx context.Context, cfg *config.Config, redisClient *cache.Cache) (storage.BlobStore, server.ShutdownFunc, error) {
	switch cfg.StorageBackend {
	case config.StorageMemory:
		return storage.NewMemory(), nil, nil
	case config.StorageFile:
		f, err := storage.NewFile(cfg.StorageDir)
		return f, nil, err
	case config.StorageRedis:
		return redisClient, nil, nil
	case config.StoragePostgres:
		repo, err := repository.New(ctx, cfg.DatabaseURL)
		if err != nil {
			return nil, nil, err
		}
		if err := repo.EnsureSchema(ctx); err != nil {
			repo.Close()
			return nil, nil, err
		}
		closeRepo := func(context.Context) error {
			repo.Close()
			return nil
		}
		return repo, closeRepo, nil
	default:
		return nil, nil, fmt.Errorf("unknown storage backend %q", cfg.StorageBackend)
	}
}

// newSink builds the remote analytics sink selected by ANALYTICS_SINK.
func newSink(cfg *config.Config, redisClient *cache.Cache) (analytics.Sink, error) {
	switch cfg.AnalyticsSink {
	case config.SinkNone:
		return analytics.NoopSink{}, nil
	case config.SinkHTTP:
		sink := analytics.NewHTTPSink(cfg.AnalyticsEndpoint, analytics.NewHTTPClient(cfg.AnalyticsTimeout))
		return sink.WithSigningSecret(cfg.AnalyticsSigningSecret), nil
	case config.SinkRedis:
		return analytics.NewStreamSink(redisClient.Client()), nil
	case config.SinkKafka:
		return analytics.NewKafkaSink(analytics.NewKafkaWriter(cfg.KafkaBrokers, cfg.KafkaTopic)), nil
	default:
		return nil, fmt.Errorf("unknown analytics sink %q", cfg.AnalyticsSink)
	}
}

// initMetrics returns the recorder and the /metrics handler, if any.
func initMetrics(cfg *config.Config) (metrics.Recorder, http.Handler) {
	switch cfg.MetricsBackend {
	case config.MetricsPrometheus:
		reg := prometheus.NewRegistry()
		reg.MustRegister(
			collectors.NewGoCollector(),
			collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		)
		return metrics.NewPrometheus(reg), promhttp.HandlerFor(reg, promhttp.HandlerOpts{Registry: reg})
	case config.MetricsMemory:
		rec := metrics.NewInMemory()
		return rec, http.HandlerFunc(handler.NewMetricsHandler(rec).Metrics)
	default:
		return metrics.NewNoop(), nil
	}
}

// initLogger initializes the slog logger based on configuration.
func initLogger(cfg *config.Config) *slog.Logger {
	var h slog.Handler

	opts := &slog.HandlerOptions{
		Level: parseLogLevel(cfg.LogLevel),
	}

	if cfg.LogFormat == "json" {
		h = slog.NewJSONHandler(os.Stdout, opts)
	} else {
		h = slog.NewTextHandler(os.Stdout, opts)
	}

	logger := slog.New(h).With("service", "sharetrack")
	slog.SetDefault(logger)

	return logger
}

// parseLogLevel converts string log level to slog.Level.
func parseLogLevel(level string) slog.Level {
	switch strings.ToLower(level) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

var passwordPattern = regexp.MustCompile(`(?i)password=[^\s]+`)

// redactURL drops the password from connection strings before logging.
func redactURL(raw string) string {
	if raw == "" {
		return ""
	}

	parsed, err := url.Parse(raw)
	if err != nil {
		return "[redacted]"
	}

	if parsed.User != nil {
		username := parsed.User.Username()
		if username == "" {
			parsed.User = url.User("redacted")
		} else {
			parsed.User = url.User(username)
		}
	}

	return parsed.String()
}

func sanitizeError(err error, secrets ...string) string {
	if err == nil {
		return ""
	}

	msg := err.Error()
	for _, secret := range secrets {
		if secret == "" {
			continue
		}
		redacted := redactURL(secret)
		if redacted == "" {
			redacted = "[redacted]"
		}
		msg = strings.ReplaceAll(msg, secret, redacted)
	}

	return passwordPattern.ReplaceAllString(msg, "password=redacted")
}

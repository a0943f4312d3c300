package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/SHIVAM-GOUR/gbt-pharma-fe-sub000/internal/config"
	"github.com/SHIVAM-GOUR/gbt-pharma-fe-sub000/internal/notify"
	"github.com/SHIVAM-GOUR/gbt-pharma-fe-sub000/pkg/kafka"
	"github.com/SHIVAM-GOUR/gbt-pharma-fe-sub000/pkg/logging"
	"github.com/SHIVAM-GOUR/gbt-pharma-fe-sub000/pkg/metrics"
)

const serviceName = "order-notifier"

func main() {
	configPath := flag.String("config", os.Getenv("CONFIG_FILE"), "path to the YAML config file")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "config error: %v\n", err)
		os.Exit(1)
	}
	if len(cfg.Kafka.Brokers) == 0 {
		fmt.Fprintln(os.Stderr, "config error: KAFKA_BROKERS is required")
		os.Exit(1)
	}

	logger, err := logging.New(serviceName, cfg.LogLevel)
	if err != nil {
		fmt.Fprintf(os.Stderr, "logger error: %v\n", err)
		os.Exit(1)
	}
	defer func() { _ = logger.Sync() }()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg, logger); err != nil {
		logger.Fatal("notifier stopped", zap.Error(err))
	}
	logger.Info("notifier stopped")
}

func run(ctx context.Context, cfg *config.Config, logger *zap.Logger) error {
	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	srvMetrics := metrics.NewServerMetrics(reg, serviceName)

	var store notify.Store = notify.NewMemory()
	var ready func(ctx context.Context) error
	if cfg.Catalog.DatabaseURL != "" {
		connectCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
		pool, err := pgxpool.New(connectCtx, cfg.Catalog.DatabaseURL)
		cancel()
		if err != nil {
			return fmt.Errorf("db connect: %w", err)
		}
		defer pool.Close()

		pg := notify.NewPostgres(pool)
		if err := pg.Migrate(ctx); err != nil {
			return fmt.Errorf("migrate notifications: %w", err)
		}
		store = pg
		ready = pool.Ping
	} else {
		logger.Warn("DATABASE_URL not set; notifications are deduplicated in memory only")
	}

	reader := kafka.NewClient(strings.Join(cfg.Kafka.Brokers, ",")).NewReader(cfg.Kafka.Topic, cfg.Kafka.GroupID)
	defer func() { _ = reader.Close() }()
	consumer := &notify.Consumer{Reader: reader, Store: store, Logger: logger.Named("consumer")}

	mux := http.NewServeMux()
	mux.HandleFunc("GET /health", srvMetrics.Instrument("health", func(w http.ResponseWriter, r *http.Request) {
		if ready != nil {
			pingCtx, cancel := context.WithTimeout(r.Context(), 3*time.Second)
			defer cancel()
			if err := ready(pingCtx); err != nil {
				writeStatus(w, http.StatusServiceUnavailable, "db_error")
				return
			}
		}
		writeStatus(w, http.StatusOK, "ok")
	}))
	mux.Handle("GET /metrics", metrics.Handler(reg))
	srv := &http.Server{Addr: ":" + cfg.Port, Handler: mux, ReadHeaderTimeout: 5 * time.Second}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		logger.Info("notifier consuming",
			zap.Strings("brokers", cfg.Kafka.Brokers),
			zap.String("topic", cfg.Kafka.Topic),
			zap.String("group", cfg.Kafka.GroupID))
		return consumer.Run(gctx)
	})
	g.Go(func() error {
		logger.Info("notifier listening", zap.String("addr", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("http server: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})
	return g.Wait()
}

func writeStatus(w http.ResponseWriter, code int, status string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_, _ = fmt.Fprintf(w, "{\"status\":%q}\n", status)
}

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

	"github.com/SHIVAM-GOUR/gbt-pharma-fe-sub000/internal/admin"
	"github.com/SHIVAM-GOUR/gbt-pharma-fe-sub000/internal/cart"
	"github.com/SHIVAM-GOUR/gbt-pharma-fe-sub000/internal/catalog"
	"github.com/SHIVAM-GOUR/gbt-pharma-fe-sub000/internal/checkout"
	"github.com/SHIVAM-GOUR/gbt-pharma-fe-sub000/internal/config"
	"github.com/SHIVAM-GOUR/gbt-pharma-fe-sub000/internal/events"
	"github.com/SHIVAM-GOUR/gbt-pharma-fe-sub000/internal/httpapi"
	"github.com/SHIVAM-GOUR/gbt-pharma-fe-sub000/internal/order/domain"
	"github.com/SHIVAM-GOUR/gbt-pharma-fe-sub000/internal/order/repo"
	"github.com/SHIVAM-GOUR/gbt-pharma-fe-sub000/pkg/kafka"
	"github.com/SHIVAM-GOUR/gbt-pharma-fe-sub000/pkg/logging"
	"github.com/SHIVAM-GOUR/gbt-pharma-fe-sub000/pkg/metrics"
	"github.com/SHIVAM-GOUR/gbt-pharma-fe-sub000/pkg/outbox"
)

func main() {
	configPath := flag.String("config", os.Getenv("CONFIG_FILE"), "path to the YAML config file")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "config error: %v\n", err)
		os.Exit(1)
	}
	if err := cfg.Validate(); err != nil {
		fmt.Fprintf(os.Stderr, "config error: %v\n", err)
		os.Exit(1)
	}

	logger, err := logging.New(cfg.Service, cfg.LogLevel)
	if err != nil {
		fmt.Fprintf(os.Stderr, "logger error: %v\n", err)
		os.Exit(1)
	}
	defer func() { _ = logger.Sync() }()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg, logger); err != nil {
		logger.Fatal("storefront stopped", zap.Error(err))
	}
	logger.Info("storefront stopped")
}

func run(ctx context.Context, cfg *config.Config, logger *zap.Logger) error {
	pricing, err := cfg.Pricing.ToCart()
	if err != nil {
		return err
	}

	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	srvMetrics := metrics.NewServerMetrics(reg, cfg.Service)
	cartMetrics := metrics.NewCartMetrics(reg, cfg.Service)

	var pool *pgxpool.Pool
	if cfg.NeedsDatabase() {
		pool, err = connect(ctx, cfg.Catalog.DatabaseURL)
		if err != nil {
			return err
		}
		defer pool.Close()
	}

	products, orders, err := storage(ctx, cfg, pool, logger)
	if err != nil {
		return err
	}

	kc := kafka.NewClient(strings.Join(cfg.Kafka.Brokers, ","))
	var publisher events.Publisher = events.Log{Logger: logger.Named("events")}
	var relay *outbox.Relay
	if cfg.Kafka.Publish != config.PublishLog {
		writer := kc.NewWriter(cfg.Kafka.Topic)
		defer func() { _ = writer.Close() }()

		switch cfg.Kafka.Publish {
		case config.PublishKafka:
			publisher = events.Kafka{Writer: writer}
		case config.PublishOutbox:
			// order.placed goes through the order transaction; this covers admin events.
			publisher = events.Outbox{DB: pool, Topic: cfg.Kafka.Topic}
			relay = &outbox.Relay{
				Store:     outbox.NewStore(pool),
				Interval:  cfg.Outbox.PollInterval,
				BatchSize: cfg.Outbox.BatchSize,
				Logger:    logger.Named("outbox"),
				Send: func(ctx context.Context, rec outbox.Record) error {
					return kafka.PublishRaw(ctx, writer, rec.Key, rec.Payload)
				},
			}
		}
	}

	carts := cart.NewRegistry(pricing, cart.WithObserver(func(cmd cart.Command, _ cart.Cart) {
		cartMetrics.ObserveCommand(cmd.Kind())
	}))
	checkoutOpts := []checkout.Option{
		checkout.WithLogger(logger.Named("checkout")),
		checkout.WithMetrics(cartMetrics),
	}
	if cfg.Kafka.Publish == config.PublishOutbox {
		checkoutOpts = append(checkoutOpts, checkout.WithTransactionalOutbox())
	}
	checkoutSvc := checkout.New(carts, orders, publisher, checkoutOpts...)

	deps := httpapi.Deps{
		Catalog:  products,
		Carts:    carts,
		Checkout: checkoutSvc,
		Admin:    admin.New(products, publisher, logger.Named("admin")),
		Metrics:  srvMetrics,
		Gatherer: reg,
		Logger:   logger,
	}
	if pool != nil {
		deps.Ready = func(ctx context.Context) error { return pingDB(ctx, pool) }
	}

	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           httpapi.New(deps).Handler(),
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       cfg.RequestTimeout,
		WriteTimeout:      cfg.RequestTimeout,
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		logger.Info("storefront listening",
			zap.String("addr", srv.Addr),
			zap.String("catalog", cfg.Catalog.Backend),
			zap.String("publish", cfg.Kafka.Publish))
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
	if relay != nil {
		g.Go(func() error { return relay.Run(gctx) })
	}
	if cfg.CartIdleTTL > 0 {
		g.Go(func() error {
			sweepCarts(gctx, carts, cfg.CartIdleTTL, logger)
			return nil
		})
	}
	return g.Wait()
}

// sweepCarts drops idle carts until ctx is done.
func sweepCarts(ctx context.Context, carts *cart.Registry, ttl time.Duration, logger *zap.Logger) {
	ticker := time.NewTicker(min(ttl, time.Minute))
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case now := <-ticker.C:
			if n := carts.Sweep(now.Add(-ttl)); n > 0 {
				logger.Info("idle carts dropped", zap.Int("count", n), zap.Int("remaining", carts.Len()))
			}
		}
	}
}

func storage(ctx context.Context, cfg *config.Config, pool *pgxpool.Pool, logger *zap.Logger) (admin.Catalog, domain.Repository, error) {
	if cfg.Catalog.Backend == config.BackendMemory {
		var seed []catalog.Product
		if cfg.Catalog.Seed {
			seed = catalog.Fixtures()
		}
		return catalog.NewMemory(seed...), repo.NewMemory(), nil
	}

	products := catalog.NewPostgres(pool)
	if err := products.Migrate(ctx); err != nil {
		return nil, nil, err
	}
	if cfg.Catalog.Seed {
		added, err := products.Seed(ctx, catalog.Fixtures())
		if err != nil {
			return nil, nil, fmt.Errorf("seed catalog: %w", err)
		}
		logger.Info("catalog seeded", zap.Int("added", added))
	}

	var opts []repo.PostgresOption
	if cfg.Kafka.Publish == config.PublishOutbox {
		if err := outbox.Migrate(ctx, pool); err != nil {
			return nil, nil, fmt.Errorf("migrate outbox: %w", err)
		}
		opts = append(opts, repo.WithOutbox(cfg.Kafka.Topic))
	}
	orders := repo.NewPostgres(pool, opts...)
	if err := orders.Migrate(ctx); err != nil {
		return nil, nil, err
	}
	return products, orders, nil
}

func connect(ctx context.Context, dsn string) (*pgxpool.Pool, error) {
	connectCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	pool, err := pgxpool.New(connectCtx, dsn)
	if err != nil {
		return nil, fmt.Errorf("db connect: %w", err)
	}
	if err := pingDB(connectCtx, pool); err != nil {
		pool.Close()
		return nil, fmt.Errorf("db ping: %w", err)
	}
	return pool, nil
}

func pingDB(ctx context.Context, pool *pgxpool.Pool) error {
	ctx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()
	return pool.Ping(ctx)
}

package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"gopkg.in/yaml.v3"

	"github.com/SHIVAM-GOUR/gbt-pharma-fe-sub000/internal/cart"
)

const (
	BackendPostgres = "postgres"
	BackendMemory   = "memory"

	PublishLog    = "log"
	PublishKafka  = "kafka"
	PublishOutbox = "outbox"
)

type Config struct {
	Service        string        `yaml:"service"`
	Port           string        `yaml:"port"`
	LogLevel       string        `yaml:"log_level"`
	RequestTimeout time.Duration `yaml:"request_timeout"`
	// CartIdleTTL drops carts untouched for this long. Zero keeps them forever.
	CartIdleTTL time.Duration `yaml:"cart_idle_ttl"`
	Catalog     CatalogConfig `yaml:"catalog"`
	Kafka       KafkaConfig   `yaml:"kafka"`
	Outbox      OutboxConfig  `yaml:"outbox"`
	Pricing     PricingConfig `yaml:"pricing"`
}

type CatalogConfig struct {
	Backend     string `yaml:"backend"`
	DatabaseURL string `yaml:"database_url"`
	Seed        bool   `yaml:"seed"`
}

type KafkaConfig struct {
	Brokers []string `yaml:"brokers"`
	Topic   string   `yaml:"topic"`
	GroupID string   `yaml:"group_id"`
	// Publish selects how order events leave the service: log, kafka or outbox.
	Publish string `yaml:"publish"`
}

type OutboxConfig struct {
	PollInterval time.Duration `yaml:"poll_interval"`
	BatchSize    int           `yaml:"batch_size"`
}

// PricingConfig keeps money as strings so no float ever touches a price.
type PricingConfig struct {
	TaxRate               string            `yaml:"tax_rate"`
	FreeShippingThreshold string            `yaml:"free_shipping_threshold"`
	ShippingFee           string            `yaml:"shipping_fee"`
	Coupons               map[string]string `yaml:"coupons"`
}

func DefaultConfig() *Config {
	return &Config{
		Service:        "storefront",
		Port:           "8080",
		LogLevel:       "info",
		RequestTimeout: 5 * time.Second,
		CartIdleTTL:    24 * time.Hour,
		Catalog: CatalogConfig{
			Backend: BackendPostgres,
			Seed:    true,
		},
		Kafka: KafkaConfig{
			Topic:   "pharmacy.orders",
			GroupID: "order-notifier",
			Publish: PublishLog,
		},
		Outbox: OutboxConfig{
			PollInterval: time.Second,
			BatchSize:    100,
		},
		Pricing: PricingConfig{
			TaxRate:               "0.08",
			FreeShippingThreshold: "50.00",
			ShippingFee:           "5.99",
			Coupons:               map[string]string{"WELCOME10": "0.10"},
		},
	}
}

// Load reads the YAML file at path over the defaults and then applies
// environment overrides. A missing file or empty path yields the defaults.
func Load(path string) (*Config, error) {
	cfg := DefaultConfig()

	if path != "" {
		data, err := os.ReadFile(path)
		switch {
		case errors.Is(err, os.ErrNotExist):
		case err != nil:
			return nil, fmt.Errorf("failed to read config: %w", err)
		default:
			if err := yaml.Unmarshal(data, cfg); err != nil {
				return nil, fmt.Errorf("failed to parse config: %w", err)
			}
		}
	}

	if err := cfg.applyEnvOverrides(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) applyEnvOverrides() error {
	if v := getenv("PORT"); v != "" {
		c.Port = v
	}
	if v := getenv("LOG_LEVEL"); v != "" {
		c.LogLevel = v
	}
	if v := getenv("DATABASE_URL"); v != "" {
		c.Catalog.DatabaseURL = v
	}
	if v := getenv("CATALOG_BACKEND"); v != "" {
		c.Catalog.Backend = strings.ToLower(v)
	}
	if v := getenv("SEED_CATALOG"); v != "" {
		b, err := strconv.ParseBool(v)
		if err != nil {
			return fmt.Errorf("SEED_CATALOG: %w", err)
		}
		c.Catalog.Seed = b
	}
	if v := getenv("KAFKA_BROKERS"); v != "" {
		c.Kafka.Brokers = splitCSV(v)
	}
	if v := getenv("KAFKA_TOPIC"); v != "" {
		c.Kafka.Topic = v
	}
	if v := getenv("KAFKA_GROUP_ID"); v != "" {
		c.Kafka.GroupID = v
	}
	if v := getenv("ORDER_PUBLISH"); v != "" {
		c.Kafka.Publish = strings.ToLower(v)
	}
	if v := getenv("OUTBOX_POLL_INTERVAL"); v != "" {
		d, err := time.ParseDuration(v)
		if err != nil {
			return fmt.Errorf("OUTBOX_POLL_INTERVAL: %w", err)
		}
		c.Outbox.PollInterval = d
	}
	if v := getenv("CART_IDLE_TTL"); v != "" {
		d, err := time.ParseDuration(v)
		if err != nil {
			return fmt.Errorf("CART_IDLE_TTL: %w", err)
		}
		c.CartIdleTTL = d
	}
	return nil
}

func (c *Config) Validate() error {
	var errs []error
	if c.Port == "" {
		errs = append(errs, errors.New("port is required"))
	}
	switch c.Catalog.Backend {
	case BackendPostgres, BackendMemory:
	default:
		errs = append(errs, fmt.Errorf("unknown catalog backend %q", c.Catalog.Backend))
	}
	switch c.Kafka.Publish {
	case PublishLog:
	case PublishKafka, PublishOutbox:
		if len(c.Kafka.Brokers) == 0 {
			errs = append(errs, fmt.Errorf("KAFKA_BROKERS is required when publishing via %s", c.Kafka.Publish))
		}
		if c.Kafka.Publish == PublishOutbox && c.Catalog.Backend != BackendPostgres {
			errs = append(errs, errors.New("outbox publishing needs the postgres backend to share the order transaction"))
		}
	default:
		errs = append(errs, fmt.Errorf("unknown publish mode %q", c.Kafka.Publish))
	}
	if c.NeedsDatabase() && c.Catalog.DatabaseURL == "" {
		errs = append(errs, errors.New("DATABASE_URL is required"))
	}
	if c.CartIdleTTL < 0 {
		errs = append(errs, errors.New("cart_idle_ttl must not be negative"))
	}
	if _, err := c.Pricing.ToCart(); err != nil {
		errs = append(errs, err)
	}
	return errors.Join(errs...)
}

func (c *Config) NeedsDatabase() bool {
	return c.Catalog.Backend == BackendPostgres
}

func (p PricingConfig) ToCart() (cart.Pricing, error) {
	out := cart.Pricing{Coupons: map[string]decimal.Decimal{}}
	var err error
	if out.TaxRate, err = parseMoney("tax_rate", p.TaxRate); err != nil {
		return cart.Pricing{}, err
	}
	if out.FreeShippingThreshold, err = parseMoney("free_shipping_threshold", p.FreeShippingThreshold); err != nil {
		return cart.Pricing{}, err
	}
	if out.ShippingFee, err = parseMoney("shipping_fee", p.ShippingFee); err != nil {
		return cart.Pricing{}, err
	}
	for code, rate := range p.Coupons {
		r, err := parseMoney("coupon "+code, rate)
		if err != nil {
			return cart.Pricing{}, err
		}
		if r.GreaterThan(decimal.NewFromInt(1)) {
			return cart.Pricing{}, fmt.Errorf("coupon %s: rate %s exceeds 1", code, rate)
		}
		out.Coupons[cart.NormalizeCoupon(code)] = r
	}
	return out, nil
}

func parseMoney(field, v string) (decimal.Decimal, error) {
	d, err := decimal.NewFromString(strings.TrimSpace(v))
	if err != nil {
		return decimal.Decimal{}, fmt.Errorf("pricing %s: %w", field, err)
	}
	if d.IsNegative() {
		return decimal.Decimal{}, fmt.Errorf("pricing %s: must not be negative", field)
	}
	return d, nil
}

func getenv(k string) string {
	return strings.TrimSpace(os.Getenv(k))
}

func splitCSV(v string) []string {
	var out []string
	for _, part := range strings.Split(v, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

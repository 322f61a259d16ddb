package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/creasty/defaults"
	"github.com/shopspring/decimal"
	"gopkg.in/yaml.v3"

	"FinAudit/internal/domain/models"
)

type Config struct {
	Environment string `yaml:"environment" default:"development"`
	Server      struct {
		Port            int           `yaml:"port" default:"8080"`
		ReadTimeout     time.Duration `yaml:"read_timeout" default:"10s"`
		WriteTimeout    time.Duration `yaml:"write_timeout" default:"10s"`
		ShutdownTimeout time.Duration `yaml:"shutdown_timeout" default:"15s"`
		CORS            bool          `yaml:"cors" default:"true"`
		WSPingInterval  time.Duration `yaml:"ws_ping_interval" default:"30s"`
		RateLimit       struct {
			Rate  int `yaml:"rate" default:"20"`
			Burst int `yaml:"burst" default:"40"`
		} `yaml:"rate_limit"`
	} `yaml:"server"`
	Metrics struct {
		Enabled bool   `yaml:"enabled" default:"true"`
		Path    string `yaml:"path" default:"/metrics"`
	} `yaml:"metrics"`
	Logging struct {
		Level  string `yaml:"level" default:"info"`
		Format string `yaml:"format" default:"console"`
		Output string `yaml:"output" default:"stdout"`
		// Collector aggregates repeated error logs and publishes them to Kafka.
		Collector struct {
			Enabled       bool          `yaml:"enabled"`
			FlushInterval time.Duration `yaml:"flush_interval" default:"30s"`
			Threshold     int           `yaml:"threshold" default:"10"`
		} `yaml:"collector"`
	} `yaml:"logging"`
	Kafka struct {
		Enabled      bool     `yaml:"enabled"`
		Brokers      []string `yaml:"brokers"`
		RequiredAcks int      `yaml:"required_acks" default:"-1"`
		Compression  string   `yaml:"compression" default:"snappy"`
		Topics       struct {
			Evaluations string `yaml:"evaluations" default:"finaudit.evaluations"`
			Snapshots   string `yaml:"snapshots" default:"finaudit.snapshots"`
			Logs        string `yaml:"logs" default:"finaudit.logs"`
		} `yaml:"topics"`
		Producer struct {
			MaxAttempts  int           `yaml:"max_attempts" default:"5"`
			Linger       time.Duration `yaml:"linger" default:"10ms"`
			BatchBytes   int           `yaml:"batch_bytes" default:"1048576"`
			BatchSize    int           `yaml:"batch_size" default:"100"`
			WriteTimeout time.Duration `yaml:"write_timeout" default:"10s"`
			ReadTimeout  time.Duration `yaml:"read_timeout" default:"10s"`
			Async        bool          `yaml:"async"`
		} `yaml:"producer"`
		Consumer struct {
			GroupID    string        `yaml:"group_id" default:"finaudit-evaluator"`
			Workers    int           `yaml:"workers" default:"4"`
			BufferSize int           `yaml:"buffer_size" default:"256"`
			RetryMax   int           `yaml:"retry_max" default:"3"`
			BackoffMin time.Duration `yaml:"backoff_min" default:"200ms"`
			BackoffMax time.Duration `yaml:"backoff_max" default:"5s"`
			DLQTopic   string        `yaml:"dlq_topic" default:"finaudit.snapshots.dlq"`
			MinBytes   int           `yaml:"min_bytes" default:"1"`
			MaxBytes   int           `yaml:"max_bytes" default:"10485760"`
		} `yaml:"consumer"`
	} `yaml:"kafka"`
	ClickHouse struct {
		Enabled          bool          `yaml:"enabled"`
		Host             string        `yaml:"host" default:"localhost"`
		Port             int           `yaml:"port" default:"9000"`
		Database         string        `yaml:"database" default:"finaudit"`
		User             string        `yaml:"user" default:"default"`
		Password         string        `yaml:"password"`
		UseHTTP          bool          `yaml:"use_http"`
		AsyncInsert      bool          `yaml:"async_insert"`
		WaitForAsync     bool          `yaml:"wait_for_async_insert"`
		DialTimeout      time.Duration `yaml:"dial_timeout" default:"5s"`
		ReadTimeout      time.Duration `yaml:"read_timeout" default:"30s"`
		WriteTimeout     time.Duration `yaml:"write_timeout" default:"30s"`
		MaxExecutionTime time.Duration `yaml:"max_execution_time" default:"60s"`
	} `yaml:"clickhouse"`
	Cache struct {
		TTL    time.Duration `yaml:"ttl" default:"10m"`
		Memory struct {
			MaxSize         int           `yaml:"max_size" default:"1000"`
			CleanupInterval time.Duration `yaml:"cleanup_interval" default:"1m"`
		} `yaml:"memory"`
		Redis struct {
			Enabled  bool   `yaml:"enabled"`
			Host     string `yaml:"host" default:"localhost"`
			Port     int    `yaml:"port" default:"6379"`
			Password string `yaml:"password"`
			DB       int    `yaml:"db"`
			PoolSize int    `yaml:"pool_size" default:"10"`
			Prefix   string `yaml:"prefix" default:"finaudit"`
		} `yaml:"redis"`
	} `yaml:"cache"`
	Reporting struct {
		BaseURL    string        `yaml:"base_url"`
		Timeout    time.Duration `yaml:"timeout" default:"10s"`
		MaxRetries int           `yaml:"max_retries" default:"2"`
		RetryDelay time.Duration `yaml:"retry_delay" default:"500ms"`
		// Schedule is a cron spec for periodic evaluation; empty disables it.
		Schedule   string        `yaml:"schedule"`
		Period     string        `yaml:"period" default:"ytd"`
		Months     int           `yaml:"months" default:"12"`
		JobTimeout time.Duration `yaml:"job_timeout" default:"2m"`
	} `yaml:"reporting"`
	Anomaly struct {
		ExpenseRatioThreshold decimal.Decimal `yaml:"expense_ratio_threshold" default:"0.85"`
		MaxOverdueReceivables int             `yaml:"max_overdue_receivables" default:"3"`
		RevenueDeclineWindow  int             `yaml:"revenue_decline_window" default:"3"`
		MaxVendorEntries      int             `yaml:"max_vendor_entries" default:"5"`
	} `yaml:"anomaly"`
	Tax struct {
		VATRate           decimal.Decimal              `yaml:"vat_rate" default:"0.15"`
		InputCreditFactor decimal.Decimal              `yaml:"input_credit_factor" default:"0.6"`
		Categories        []models.WithholdingCategory `yaml:"categories"`
		Checklist         []models.ComplianceItem      `yaml:"checklist"`
	} `yaml:"tax"`
}

// Load reads and parses a YAML configuration file.
func Load(path string) (*Config, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}
	return Parse(b)
}

// Parse applies defaults, decodes YAML on top and validates the result.
func Parse(b []byte) (*Config, error) {
	var c Config
	if err := defaults.Set(&c); err != nil {
		return nil, fmt.Errorf("config defaults: %w", err)
	}
	if err := yaml.Unmarshal(b, &c); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}

	if err := c.Validate(); err != nil {
		return nil, fmt.Errorf("validate config: %w", err)
	}

	return &c, nil
}

// LoadWithEnv loads config from YAML and overrides with environment variables.
func LoadWithEnv(path string) (*Config, error) {
	c, err := Load(path)
	if err != nil {
		return nil, err
	}
	c.applyEnv(os.Getenv)
	if err := c.Validate(); err != nil {
		return nil, fmt.Errorf("validate config: %w", err)
	}
	return c, nil
}

func (c *Config) applyEnv(getenv func(string) string) {
	if v := getenv("APP_ENV"); v != "" {
		c.Environment = v
	}
	if v := getenv("HTTP_PORT"); v != "" {
		if p, err := strconv.Atoi(v); err == nil {
			c.Server.Port = p
		}
	}
	if v := getenv("KAFKA_BROKERS"); v != "" {
		c.Kafka.Brokers = strings.Split(v, ",")
		c.Kafka.Enabled = true
	}
	if v := getenv("CLICKHOUSE_HOST"); v != "" {
		c.ClickHouse.Host = v
	}
	if v := getenv("CLICKHOUSE_PASSWORD"); v != "" {
		c.ClickHouse.Password = v
	}
	if v := getenv("REDIS_HOST"); v != "" {
		c.Cache.Redis.Host = v
	}
	if v := getenv("REDIS_PASSWORD"); v != "" {
		c.Cache.Redis.Password = v
	}
	if v := getenv("REPORTING_BASE_URL"); v != "" {
		c.Reporting.BaseURL = v
	}
}

// Validate checks if the configuration is valid.
func (c *Config) Validate() error {
	if c.Environment == "" {
		return fmt.Errorf("environment is required")
	}
	if c.Server.Port <= 0 {
		return fmt.Errorf("server.port must be positive, got %d", c.Server.Port)
	}
	if c.Kafka.Enabled && len(c.Kafka.Brokers) == 0 {
		return fmt.Errorf("kafka.brokers cannot be empty when kafka is enabled")
	}
	if c.Reporting.Schedule != "" && c.Reporting.BaseURL == "" {
		return fmt.Errorf("reporting.base_url is required when reporting.schedule is set")
	}
	if c.Reporting.Period != "mtd" && c.Reporting.Period != "ytd" {
		return fmt.Errorf("reporting.period must be mtd or ytd, got %q", c.Reporting.Period)
	}
	if c.Anomaly.ExpenseRatioThreshold.IsNegative() {
		return fmt.Errorf("anomaly.expense_ratio_threshold must be >= 0")
	}
	if c.Tax.VATRate.IsNegative() || c.Tax.InputCreditFactor.IsNegative() {
		return fmt.Errorf("tax rates must be >= 0")
	}
	seen := make(map[string]struct{}, len(c.Tax.Categories))
	for _, cat := range c.Tax.Categories {
		key := strings.ToLower(cat.Name)
		if key == "" {
			return fmt.Errorf("tax.categories: name is required")
		}
		if _, dup := seen[key]; dup {
			return fmt.Errorf("tax.categories: duplicate category %q", cat.Name)
		}
		seen[key] = struct{}{}
		if cat.Rate.IsNegative() {
			return fmt.Errorf("tax.categories: rate for %q must be >= 0", cat.Name)
		}
	}
	for _, item := range c.Tax.Checklist {
		if !item.Status.Valid() {
			return fmt.Errorf("tax.checklist: item %d has unknown status %q", item.ID, item.Status)
		}
	}
	return nil
}

package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

type Config struct {
	Environment string `yaml:"environment"`
	Server      struct {
		Port            int           `yaml:"port"`
		ReadTimeout     time.Duration `yaml:"read_timeout"`
		WriteTimeout    time.Duration `yaml:"write_timeout"`
		ShutdownTimeout time.Duration `yaml:"shutdown_timeout"`
	} `yaml:"server"`
	Symbols   []string `yaml:"symbols"`
	Exchanges struct {
		FetchTimeout time.Duration `yaml:"fetch_timeout"`
		Binance      struct {
			Enabled      bool   `yaml:"enabled"`
			BaseURL      string `yaml:"base_url"`
			WebSocketURL string `yaml:"websocket_url"`
		} `yaml:"binance"`
		Bybit struct {
			Enabled bool   `yaml:"enabled"`
			BaseURL string `yaml:"base_url"`
		} `yaml:"bybit"`
		OKX struct {
			Enabled bool   `yaml:"enabled"`
			BaseURL string `yaml:"base_url"`
		} `yaml:"okx"`
	} `yaml:"exchanges"`
	Cycle struct {
		Interval time.Duration `yaml:"interval"`
		Workers  int           `yaml:"workers"`
	} `yaml:"cycle"`
	Validation struct {
		MaxMarkIndexDeviation float64       `yaml:"max_mark_index_deviation"`
		MaxFundingRate        float64       `yaml:"max_funding_rate"`
		StaleAfter            time.Duration `yaml:"stale_after"`
		ClockSkewTolerance    time.Duration `yaml:"clock_skew_tolerance"`
		MaxSequentialJump     float64       `yaml:"max_sequential_jump"`
		AnomalyBuffer         int           `yaml:"anomaly_buffer"`
	} `yaml:"validation"`
	Risk struct {
		Weights                 map[string]float64 `yaml:"weights"`
		PredictionThreshold     float64            `yaml:"prediction_threshold"`
		ParticipationRate       float64            `yaml:"participation_rate"`
		BaseLiquidationDistance float64            `yaml:"base_liquidation_distance"`
	} `yaml:"risk"`
	Calibration struct {
		RefitInterval  time.Duration `yaml:"refit_interval"`
		Lookback       time.Duration `yaml:"lookback"`
		OutcomeHorizon time.Duration `yaml:"outcome_horizon"`
		MinSamples     int           `yaml:"min_samples"`
		BinCount       int           `yaml:"bin_count"`
		Confidence     float64       `yaml:"confidence"`
	} `yaml:"calibration"`
	Detector struct {
		Window          time.Duration `yaml:"window"`
		MinVolumeUSD    float64       `yaml:"min_volume_usd"`
		MinPriceMovePct float64       `yaml:"min_price_move_pct"`
		Cooldown        time.Duration `yaml:"cooldown"`
	} `yaml:"detector"`
	Stream struct {
		ReconnectDelay time.Duration `yaml:"reconnect_delay"`
		PingInterval   time.Duration `yaml:"ping_interval"`
	} `yaml:"stream"`
	Kafka struct {
		Brokers      []string `yaml:"brokers"`
		RiskTopic    string   `yaml:"risk_topic"`
		AnomalyTopic string   `yaml:"anomaly_topic"`
		LogsTopic    string   `yaml:"logs_topic"`
		RequiredAcks int      `yaml:"required_acks"`
		Compression  string   `yaml:"compression"`
		Producer     struct {
			MaxAttempts  int           `yaml:"max_attempts"`
			Linger       time.Duration `yaml:"linger"`
			BatchBytes   int           `yaml:"batch_bytes"`
			BatchSize    int           `yaml:"batch_size"`
			WriteTimeout time.Duration `yaml:"write_timeout"`
			ReadTimeout  time.Duration `yaml:"read_timeout"`
			Async        bool          `yaml:"async"`
		} `yaml:"producer"`
	} `yaml:"kafka"`
	ClickHouse struct {
		Host             string        `yaml:"host"`
		Port             int           `yaml:"port"`
		Database         string        `yaml:"database"`
		User             string        `yaml:"user"`
		Password         string        `yaml:"password"`
		UseHTTP          bool          `yaml:"use_http"`
		AsyncInsert      bool          `yaml:"async_insert"`
		WaitForAsync     bool          `yaml:"wait_for_async_insert"`
		DialTimeout      time.Duration `yaml:"dial_timeout"`
		ReadTimeout      time.Duration `yaml:"read_timeout"`
		WriteTimeout     time.Duration `yaml:"write_timeout"`
		MaxExecutionTime time.Duration `yaml:"max_execution_time"`
	} `yaml:"clickhouse"`
	Redis struct {
		Enabled  bool          `yaml:"enabled"`
		Host     string        `yaml:"host"`
		Port     int           `yaml:"port"`
		Password string        `yaml:"password"`
		DB       int           `yaml:"db"`
		RiskTTL  time.Duration `yaml:"risk_ttl"`
	} `yaml:"redis"`
}

// Load reads and parses a YAML configuration file.
func Load(path string) (*Config, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}

	var c Config
	if err := yaml.Unmarshal(b, &c); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}

	// Validate required fields
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

	// Override with environment variables
	if v := os.Getenv("SYMBOLS"); v != "" {
		c.Symbols = strings.Split(v, ",")
	}
	if v := os.Getenv("KAFKA_BROKERS"); v != "" {
		c.Kafka.Brokers = strings.Split(v, ",")
	}
	if v := os.Getenv("KAFKA_RISK_TOPIC"); v != "" {
		c.Kafka.RiskTopic = v
	}
	if v := os.Getenv("CLICKHOUSE_HOST"); v != "" {
		c.ClickHouse.Host = v
	}
	if v := os.Getenv("CLICKHOUSE_PASSWORD"); v != "" {
		c.ClickHouse.Password = v
	}
	if v := os.Getenv("REDIS_HOST"); v != "" {
		c.Redis.Host = v
	}

	return c, nil
}

// Validate checks if the configuration is valid.
func (c *Config) Validate() error {
	if c.Environment == "" {
		return fmt.Errorf("environment is required")
	}
	if len(c.Symbols) == 0 {
		return fmt.Errorf("symbols cannot be empty")
	}
	if !c.Exchanges.Binance.Enabled && !c.Exchanges.Bybit.Enabled && !c.Exchanges.OKX.Enabled {
		return fmt.Errorf("at least one exchange must be enabled")
	}
	if c.Cycle.Interval <= 0 {
		return fmt.Errorf("cycle.interval must be positive")
	}
	var total float64
	for name, w := range c.Risk.Weights {
		if w < 0 {
			return fmt.Errorf("risk.weights.%s cannot be negative", name)
		}
		total += w
	}
	if len(c.Risk.Weights) > 0 && total <= 0 {
		return fmt.Errorf("risk.weights must sum to a positive value")
	}
	// Only tabulated normal quantiles are supported; zero means default.
	switch c.Calibration.Confidence {
	case 0, 0.90, 0.95, 0.99:
	default:
		return fmt.Errorf("calibration.confidence must be one of 0.90, 0.95, 0.99")
	}
	return nil
}

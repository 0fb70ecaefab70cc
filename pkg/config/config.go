package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/creasty/defaults"
	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"
)

type Config struct {
	Environment string           `yaml:"environment" default:"development" validate:"required"`
	Server      ServerConfig     `yaml:"server"`
	Log         LogConfig        `yaml:"log"`
	Metrics     MetricsConfig    `yaml:"metrics"`
	Redis       RedisConfig      `yaml:"redis"`
	Queue       QueueConfig      `yaml:"queue"`
	Kafka       KafkaConfig      `yaml:"kafka"`
	ClickHouse  ClickHouseConfig `yaml:"clickhouse"`
	Providers   ProvidersConfig  `yaml:"providers"`
	Scoring     ScoringConfig    `yaml:"scoring"`
	Parser      ParserConfig     `yaml:"parser"`
	Reports     ReportsConfig    `yaml:"reports"`
}

type ServerConfig struct {
	Port            int           `yaml:"port" default:"8080" validate:"gte=1,lte=65535"`
	ReadTimeout     time.Duration `yaml:"read_timeout" default:"10s"`
	WriteTimeout    time.Duration `yaml:"write_timeout" default:"10s"`
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout" default:"15s"`
	// ParseRate is the sustained number of /api/parse calls per second per remote address.
	ParseRate  float64 `yaml:"parse_rate" default:"2" validate:"gt=0"`
	ParseBurst int     `yaml:"parse_burst" default:"5" validate:"gte=1"`
	BodyLimit  string  `yaml:"body_limit" default:"2M"`
}

type LogConfig struct {
	Level  string `yaml:"level" default:"info" validate:"oneof=debug info warn error fatal panic"`
	Format string `yaml:"format" default:"console" validate:"oneof=json console"`
	Output string `yaml:"output" default:"stdout"`
	// ErrorTopic enables aggregated error-log publishing to Kafka when set.
	ErrorTopic string `yaml:"error_topic"`
}

type MetricsConfig struct {
	Enabled bool   `yaml:"enabled" default:"true"`
	Path    string `yaml:"path" default:"/metrics"`
}

type RedisConfig struct {
	Host     string `yaml:"host" default:"localhost"`
	Port     int    `yaml:"port" default:"6379"`
	Password string `yaml:"password"`
	DB       int    `yaml:"db"`
	PoolSize int    `yaml:"pool_size" default:"10"`
	Prefix   string `yaml:"prefix" default:"sentimentdesk"`
}

// Addr returns host:port.
func (r RedisConfig) Addr() string { return fmt.Sprintf("%s:%d", r.Host, r.Port) }

type QueueConfig struct {
	Name       string        `yaml:"name" default:"provider"`
	Workers    int           `yaml:"workers" default:"2" validate:"gte=1"`
	RetryLimit int           `yaml:"retry_limit" default:"3"`
	RetryDelay time.Duration `yaml:"retry_delay" default:"30s"`
	StatusTTL  time.Duration `yaml:"status_ttl" default:"24h"`
}

type KafkaConfig struct {
	Enabled      bool     `yaml:"enabled"`
	Brokers      []string `yaml:"brokers"`
	Topic        string   `yaml:"topic" default:"sentimentdesk.reports"`
	RequiredAcks int      `yaml:"required_acks" default:"-1"`
	Compression  string   `yaml:"compression" default:"gzip" validate:"oneof=gzip snappy lz4 zstd"`
	Producer     struct {
		MaxAttempts  int           `yaml:"max_attempts" default:"3"`
		Linger       time.Duration `yaml:"linger" default:"50ms"`
		BatchSize    int           `yaml:"batch_size" default:"100"`
		WriteTimeout time.Duration `yaml:"write_timeout" default:"10s"`
		ReadTimeout  time.Duration `yaml:"read_timeout" default:"10s"`
		Async        bool          `yaml:"async"`
	} `yaml:"producer"`
	Consumer struct {
		GroupID    string        `yaml:"group_id" default:"sentimentdesk-api"`
		Workers    int           `yaml:"workers" default:"2"`
		BufferSize int           `yaml:"buffer_size" default:"64"`
		RetryMax   int           `yaml:"retry_max" default:"3"`
		BackoffMin time.Duration `yaml:"backoff_min" default:"50ms"`
		BackoffMax time.Duration `yaml:"backoff_max" default:"2s"`
		DLQTopic   string        `yaml:"dlq_topic"`
	} `yaml:"consumer"`
}

type ClickHouseConfig struct {
	Host             string        `yaml:"host" default:"localhost"`
	Port             int           `yaml:"port" default:"9000"`
	Database         string        `yaml:"database" default:"sentimentdesk" validate:"required"`
	User             string        `yaml:"user" default:"default"`
	Password         string        `yaml:"password"`
	UseHTTP          bool          `yaml:"use_http"`
	DialTimeout      time.Duration `yaml:"dial_timeout" default:"5s"`
	ReadTimeout      time.Duration `yaml:"read_timeout" default:"10s"`
	WriteTimeout     time.Duration `yaml:"write_timeout" default:"10s"`
	MaxExecutionTime time.Duration `yaml:"max_execution_time" default:"30s"`
}

type ProviderEndpoint struct {
	APIKey  string        `yaml:"api_key"`
	BaseURL string        `yaml:"base_url"`
	Rate    float64       `yaml:"rate" default:"1"`
	Timeout time.Duration `yaml:"timeout" default:"10s"`
}

// IndexSymbol maps a report index name to the provider symbol used to quote it.
type IndexSymbol struct {
	Index  string `yaml:"index"`
	Symbol string `yaml:"symbol"`
}

type ProvidersConfig struct {
	Finnhub            ProviderEndpoint `yaml:"finnhub"`
	SimFin             ProviderEndpoint `yaml:"simfin"`
	CacheTTL           time.Duration    `yaml:"cache_ttl" default:"6h"`
	ErrorTTL           time.Duration    `yaml:"error_ttl" default:"10m"`
	MemoryCacheSize    int              `yaml:"memory_cache_size" default:"1000"`
	MarketIndexSymbols []IndexSymbol    `yaml:"market_index_symbols"`
}

// SetDefaults implements defaults.Setter.
func (p *ProvidersConfig) SetDefaults() {
	if p.Finnhub.BaseURL == "" {
		p.Finnhub.BaseURL = "https://finnhub.io/api/v1"
	}
	if p.SimFin.BaseURL == "" {
		p.SimFin.BaseURL = "https://backend.simfin.com/api/v3"
	}
	if p.MarketIndexSymbols == nil {
		p.MarketIndexSymbols = []IndexSymbol{
			{Index: "S&P 500", Symbol: "SPY"},
			{Index: "Nasdaq", Symbol: "QQQ"},
			{Index: "Russell 2000", Symbol: "IWM"},
			{Index: "S&P Midcap 400", Symbol: "MDY"},
			{Index: "DAX", Symbol: "EWG"},
			{Index: "Euro Stoxx 50", Symbol: "FEZ"},
		}
	}
}

type WeightSettings struct {
	Valuation float64 `yaml:"valuation" default:"0.4" validate:"gte=0"`
	Capex     float64 `yaml:"capex" default:"0.4" validate:"gte=0"`
	Risk      float64 `yaml:"risk" default:"0.2" validate:"gte=0"`
}

type ValuationThresholds struct {
	PERatio        float64 `yaml:"pe_ratio" default:"50"`
	PBRatio        float64 `yaml:"pb_ratio" default:"10"`
	PCFRatio       float64 `yaml:"pcf_ratio" default:"30"`
	PerStockWeight float64 `yaml:"per_stock_weight" default:"10"`
}

type CapexThresholds struct {
	TotalUSDBillion float64 `yaml:"total_usd_billion" default:"300"`
	PerItemWeight   float64 `yaml:"per_item_weight" default:"5"`
}

type RiskThresholds struct {
	PerHitWeight float64 `yaml:"per_hit_weight" default:"2"`
	MaxScore     float64 `yaml:"max_score" default:"100" validate:"gte=0"`
}

// ScoringConfig holds the weights and thresholds used by the scorer.
// Weights are applied as configured and are not required to sum to 1.
type ScoringConfig struct {
	Weights             WeightSettings      `yaml:"weights"`
	ValuationThresholds ValuationThresholds `yaml:"valuation_thresholds"`
	CapexThresholds     CapexThresholds     `yaml:"capex_thresholds"`
	RiskThresholds      RiskThresholds      `yaml:"risk_thresholds"`
}

// RiskKeywordCluster is one named group of keyword stems. Clusters are kept as an
// ordered list so extraction output is deterministic.
type RiskKeywordCluster struct {
	Label    string   `yaml:"label" validate:"required"`
	Keywords []string `yaml:"keywords" validate:"min=1"`
}

type ParserConfig struct {
	RiskKeywords  []RiskKeywordCluster `yaml:"risk_keywords" validate:"dive"`
	IndexNames    []string             `yaml:"index_names"`
	MaxInputBytes int                  `yaml:"max_input_bytes" default:"524288" validate:"gte=1024"`
}

// SetDefaults implements defaults.Setter.
func (p *ParserConfig) SetDefaults() {
	if p.RiskKeywords == nil {
		p.RiskKeywords = []RiskKeywordCluster{
			{Label: "geopolitics", Keywords: []string{"geopolit", "zoll", "trade", "tariff", "krieg"}},
			{Label: "rates", Keywords: []string{"zins", "rate", "fed", "yield"}},
			{Label: "capex", Keywords: []string{"capex", "invest", "infrastruktur", "ai"}},
			{Label: "valuation", Keywords: []string{"bewert", "overvalu", "kgv", "kbv", "kcv", "p/e", "p/b", "p/cf"}},
			{Label: "concentration", Keywords: []string{"konzentr", "megacap", "magnificent", "top 6"}},
			{Label: "supply_chain", Keywords: []string{"lieferkett", "supply", "strom", "gpu", "engpass"}},
		}
	}
	if p.IndexNames == nil {
		p.IndexNames = []string{
			"DAX",
			"S&P 500",
			"Nasdaq",
			"Russell 2000",
			"S&P Midcap 400",
			"Euro Stoxx 50",
			"Stoxx Europe 600",
		}
	}
}

type ReportsConfig struct {
	RequireTickers bool `yaml:"require_tickers"`
	// RejectOnFail makes /api/parse answer 422 when validation fails.
	RejectOnFail bool `yaml:"reject_on_fail"`
	// TickerOverrides maps a stock name (case-insensitive, trimmed) to a ticker.
	TickerOverrides map[string]string `yaml:"ticker_overrides"`
}

// Default returns a configuration with every default applied and no file loaded.
func Default() *Config {
	var c Config
	if err := defaults.Set(&c); err != nil {
		panic(fmt.Sprintf("config defaults: %v", err))
	}
	return &c
}

// Load reads and parses a YAML configuration file on top of the defaults.
func Load(path string) (*Config, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}
	return Parse(b)
}

// Parse decodes YAML bytes on top of the defaults and validates the result.
func Parse(b []byte) (*Config, error) {
	c := Default()
	if err := yaml.Unmarshal(b, c); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}

	if err := c.Validate(); err != nil {
		return nil, fmt.Errorf("validate config: %w", err)
	}

	return c, nil
}

// LoadWithEnv loads config from YAML and overrides with environment variables.
func LoadWithEnv(path string) (*Config, error) {
	c, err := Load(path)
	if err != nil {
		return nil, err
	}

	if v := os.Getenv("SENTIMENTDESK_ENV"); v != "" {
		c.Environment = v
	}
	if v := os.Getenv("FINNHUB_API_KEY"); v != "" {
		c.Providers.Finnhub.APIKey = v
	}
	if v := os.Getenv("SIMFIN_API_KEY"); v != "" {
		c.Providers.SimFin.APIKey = v
	}
	if v := os.Getenv("REDIS_ADDR"); v != "" {
		host, port, ok := strings.Cut(v, ":")
		c.Redis.Host = host
		if ok {
			if p, err := strconv.Atoi(port); err == nil {
				c.Redis.Port = p
			}
		}
	}
	if v := os.Getenv("KAFKA_BROKERS"); v != "" {
		c.Kafka.Brokers = strings.Split(v, ",")
		c.Kafka.Enabled = true
	}
	if v := os.Getenv("KAFKA_TOPIC"); v != "" {
		c.Kafka.Topic = v
	}
	if v := os.Getenv("CLICKHOUSE_HOST"); v != "" {
		c.ClickHouse.Host = v
	}

	return c, c.Validate()
}

// Validate checks if the configuration is valid.
func (c *Config) Validate() error {
	if err := validator.New().Struct(c); err != nil {
		return err
	}
	if c.Kafka.Enabled && len(c.Kafka.Brokers) == 0 {
		return fmt.Errorf("kafka.brokers cannot be empty when kafka is enabled")
	}
	seen := make(map[string]struct{}, len(c.Parser.RiskKeywords))
	for _, cl := range c.Parser.RiskKeywords {
		if _, dup := seen[cl.Label]; dup {
			return fmt.Errorf("parser.risk_keywords: duplicate cluster label %q", cl.Label)
		}
		seen[cl.Label] = struct{}{}
	}
	return nil
}

package config

import (
	"strings"

	"github.com/rotisserie/eris"
	"github.com/spf13/viper"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Config holds the full application configuration.
type Config struct {
	Smoobu  SmoobuConfig  `yaml:"smoobu" mapstructure:"smoobu"`
	Pricing PricingConfig `yaml:"pricing" mapstructure:"pricing"`
	Retry   RetryConfig   `yaml:"retry" mapstructure:"retry"`
	Store   StoreConfig   `yaml:"store" mapstructure:"store"`
	Server  ServerConfig  `yaml:"server" mapstructure:"server"`
	Log     LogConfig     `yaml:"log" mapstructure:"log"`
}

// SmoobuConfig holds Smoobu API credentials and endpoint settings.
type SmoobuConfig struct {
	APIKey      string `yaml:"api_key" mapstructure:"api_key"`
	CustomerID  int64  `yaml:"customer_id" mapstructure:"customer_id"`
	BaseURL     string `yaml:"base_url" mapstructure:"base_url"`
	TimeoutSecs int    `yaml:"timeout_secs" mapstructure:"timeout_secs"`
}

// PricingConfig configures the pricing run: the pacing table, the horizon
// and the apartments to price, in priority order.
type PricingConfig struct {
	TablePath   string `yaml:"table_path" mapstructure:"table_path"`
	HorizonDays int    `yaml:"horizon_days" mapstructure:"horizon_days"`
	MinStay     int    `yaml:"min_stay" mapstructure:"min_stay"`

	// Apartments in priority order. Ladder position follows list position.
	Apartments []int64 `yaml:"apartments" mapstructure:"apartments"`

	// SameDayFloors maps month number (1-12) to the same-day price floor.
	// Keys are strings because viper normalizes map keys.
	SameDayFloors map[string]float64 `yaml:"same_day_floors" mapstructure:"same_day_floors"`
}

// RetryConfig configures retries on Smoobu requests.
type RetryConfig struct {
	MaxAttempts int `yaml:"max_attempts" mapstructure:"max_attempts"`
	DelaySecs   int `yaml:"delay_secs" mapstructure:"delay_secs"`
}

// StoreConfig configures the run-history database.
type StoreConfig struct {
	Path string `yaml:"path" mapstructure:"path"`
}

// ServerConfig configures the quote HTTP server.
type ServerConfig struct {
	Port int `yaml:"port" mapstructure:"port"`
}

// LogConfig configures logging.
type LogConfig struct {
	Level  string `yaml:"level" mapstructure:"level"`
	Format string `yaml:"format" mapstructure:"format"`
}

// The production apartment list, in send-priority order.
var defaultApartments = []int64{
	2715198, 2715203, 2715218, 2715223, 2715238, 2715273,
	2715193, 2715208, 2715213, 2715228, 2715233,
}

// Load reads configuration from file and environment.
func Load() (*Config, error) {
	v := viper.New()

	// Config file
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")

	// Environment
	v.SetEnvPrefix("SMARTPRICE")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Defaults
	v.SetDefault("smoobu.base_url", "https://login.smoobu.com")
	v.SetDefault("smoobu.timeout_secs", 30)
	v.SetDefault("pricing.table_path", "table.xlsx")
	v.SetDefault("pricing.horizon_days", 190)
	v.SetDefault("pricing.min_stay", 1)
	v.SetDefault("pricing.apartments", defaultApartments)
	v.SetDefault("retry.max_attempts", 3)
	v.SetDefault("retry.delay_secs", 2)
	v.SetDefault("store.path", "smartprice.db")
	v.SetDefault("server.port", 8080)
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "json")

	// Read config file (optional)
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, eris.Wrap(err, "config: read file")
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, eris.Wrap(err, "config: unmarshal")
	}

	return &cfg, nil
}

// Validate checks the fields every command needs before touching the API.
func (c *Config) Validate() error {
	if c.Smoobu.APIKey == "" {
		return eris.New("config: smoobu.api_key is required")
	}
	if c.Smoobu.CustomerID == 0 {
		return eris.New("config: smoobu.customer_id is required")
	}
	if len(c.Pricing.Apartments) == 0 {
		return eris.New("config: pricing.apartments must not be empty")
	}
	if c.Pricing.HorizonDays < 0 {
		return eris.New("config: pricing.horizon_days must not be negative")
	}
	if c.Pricing.MinStay < 1 {
		return eris.New("config: pricing.min_stay must be at least 1")
	}
	return nil
}

// InitLogger initializes the global zap logger.
func InitLogger(cfg LogConfig) error {
	var zapCfg zap.Config
	if cfg.Format == "console" {
		zapCfg = zap.NewDevelopmentConfig()
	} else {
		zapCfg = zap.NewProductionConfig()
	}

	level, err := zapcore.ParseLevel(cfg.Level)
	if err != nil {
		return eris.Wrap(err, "config: parse log level")
	}
	zapCfg.Level.SetLevel(level)

	logger, err := zapCfg.Build()
	if err != nil {
		return eris.Wrap(err, "config: build logger")
	}
	zap.ReplaceGlobals(logger)

	return nil
}

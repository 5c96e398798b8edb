// Package config loads kvredisd's runtime configuration by layering, from
// lowest to highest precedence: built-in defaults, a .env file, process
// environment variables, an optional config file, and CLI flags.
package config

import (
	"fmt"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

// Config holds every setting kvredisd needs to start.
type Config struct {
	Host       string        `mapstructure:"host" env:"KVREDIS_HOST" envDefault:"0.0.0.0"`
	Port       int           `mapstructure:"port" env:"KVREDIS_PORT" envDefault:"6390"`
	UnixSocket string        `mapstructure:"unixsocket" env:"KVREDIS_UNIXSOCKET" envDefault:""`
	Databases  int           `mapstructure:"databases" env:"KVREDIS_DATABASES" envDefault:"16"`
	LogLevel   string        `mapstructure:"loglevel" env:"KVREDIS_LOGLEVEL" envDefault:"info"`
	LogFormat  string        `mapstructure:"logformat" env:"KVREDIS_LOGFORMAT" envDefault:"json"`

	MaxMemoryBytes  int64         `mapstructure:"maxmemory" env:"KVREDIS_MAXMEMORY" envDefault:"0"`
	ActiveExpireTick time.Duration `mapstructure:"active_expire_tick" env:"KVREDIS_ACTIVE_EXPIRE_TICK" envDefault:"100ms"`
	ActiveExpireSample int          `mapstructure:"active_expire_sample" env:"KVREDIS_ACTIVE_EXPIRE_SAMPLE" envDefault:"20"`

	RateLimitPerSec   float64 `mapstructure:"rate_limit_per_sec" env:"KVREDIS_RATE_LIMIT_PER_SEC" envDefault:"1000"`
	RateLimitBurst    int     `mapstructure:"rate_limit_burst" env:"KVREDIS_RATE_LIMIT_BURST" envDefault:"2000"`
	SubscriberStrikes int     `mapstructure:"subscriber_strikes" env:"KVREDIS_SUBSCRIBER_STRIKES" envDefault:"3"`

	MetricsAddr string `mapstructure:"metrics_addr" env:"KVREDIS_METRICS_ADDR" envDefault:":9390"`

	ConfigFile string `mapstructure:"-" env:"-"`
}

// Load builds a Config from defaults + .env + environment, then overlays a
// config file (if one is named, by flag or env) and CLI flags on top,
// matching the teacher's "ENV vars > .env file > defaults" layering
// extended with viper/pflag the way its go-server-3 sibling does.
func Load(args []string) (Config, error) {
	_ = godotenv.Load() // optional; missing .env is not an error

	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return Config{}, fmt.Errorf("parse environment: %w", err)
	}

	fs := pflag.NewFlagSet("kvredisd", pflag.ContinueOnError)
	host := fs.String("host", cfg.Host, "listen host")
	port := fs.Int("port", cfg.Port, "listen port")
	unixSocket := fs.String("unixsocket", cfg.UnixSocket, "unix socket path (in addition to TCP)")
	databases := fs.Int("databases", cfg.Databases, "number of selectable databases")
	logLevel := fs.String("loglevel", cfg.LogLevel, "log level: debug|info|warn|error")
	logFormat := fs.String("logformat", cfg.LogFormat, "log format: json|pretty")
	configFile := fs.String("config", "", "optional YAML/JSON config file")
	maxMemory := fs.Int64("maxmemory", cfg.MaxMemoryBytes, "reject writes above this RSS in bytes (0 disables)")
	metricsAddr := fs.String("metrics-addr", cfg.MetricsAddr, "Prometheus /metrics listen address")
	if err := fs.Parse(args); err != nil {
		return Config{}, fmt.Errorf("parse flags: %w", err)
	}

	v := viper.New()
	v.SetDefault("host", cfg.Host)
	v.SetDefault("port", cfg.Port)
	v.SetDefault("unixsocket", cfg.UnixSocket)
	v.SetDefault("databases", cfg.Databases)
	v.SetDefault("loglevel", cfg.LogLevel)
	v.SetDefault("logformat", cfg.LogFormat)
	v.SetDefault("maxmemory", cfg.MaxMemoryBytes)
	v.SetDefault("metrics_addr", cfg.MetricsAddr)

	if *configFile != "" {
		v.SetConfigFile(*configFile)
		if err := v.ReadInConfig(); err != nil {
			return Config{}, fmt.Errorf("read config file %s: %w", *configFile, err)
		}
	}

	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, fmt.Errorf("unmarshal config: %w", err)
	}

	// CLI flags win last, but only when explicitly set — an unset flag
	// should not stomp a value the config file or env already supplied.
	fs.Visit(func(f *pflag.Flag) {
		switch f.Name {
		case "host":
			cfg.Host = *host
		case "port":
			cfg.Port = *port
		case "unixsocket":
			cfg.UnixSocket = *unixSocket
		case "databases":
			cfg.Databases = *databases
		case "loglevel":
			cfg.LogLevel = *logLevel
		case "logformat":
			cfg.LogFormat = *logFormat
		case "maxmemory":
			cfg.MaxMemoryBytes = *maxMemory
		case "metrics-addr":
			cfg.MetricsAddr = *metricsAddr
		}
	})
	cfg.ConfigFile = *configFile

	if cfg.Databases <= 0 {
		cfg.Databases = 16
	}
	return cfg, nil
}

// Addr returns the TCP listen address in host:port form.
func (c Config) Addr() string {
	return fmt.Sprintf("%s:%d", c.Host, c.Port)
}

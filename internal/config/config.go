package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/go-viper/mapstructure/v2"
	"github.com/joho/godotenv"
	"github.com/spf13/viper"

	"smartbin-backend/internal/errors"
	"smartbin-backend/internal/logging"
)

// EnvPrefix is prepended to every configuration key read from the environment.
const EnvPrefix = "SMARTBIN"

// Config materialises application configuration.
type Config struct {
	App       AppConfig       `mapstructure:"app"`
	Logging   logging.Config  `mapstructure:"logging"`
	Server    ServerConfig    `mapstructure:"server"`
	Database  DatabaseConfig  `mapstructure:"database"`
	Live      LiveConfig      `mapstructure:"live"`
	Relay     RelayConfig     `mapstructure:"relay"`
	Reconcile ReconcileConfig `mapstructure:"reconcile"`
	Auth      AuthConfig      `mapstructure:"auth"`
	MQTT      MQTTConfig      `mapstructure:"mqtt"`
	Notify    NotifyConfig    `mapstructure:"notify"`
	Simulator SimulatorConfig `mapstructure:"simulator"`
	Vehicle   VehicleConfig   `mapstructure:"vehicle"`
}

// AppConfig general metadata.
type AppConfig struct {
	Name        string `mapstructure:"name"`
	Environment string `mapstructure:"environment"`
}

// ServerConfig controls the HTTP listener.
type ServerConfig struct {
	Port           string        `mapstructure:"port"`
	AllowedOrigins []string      `mapstructure:"allowed_origins"`
	ReadTimeout    time.Duration `mapstructure:"read_timeout"`
	WriteTimeout   time.Duration `mapstructure:"write_timeout"`
}

// DatabaseConfig describes the durable relational store.
type DatabaseConfig struct {
	Driver          string        `mapstructure:"driver"`
	DSN             string        `mapstructure:"dsn"`
	MaxOpenConns    int           `mapstructure:"max_open_conns"`
	MaxIdleConns    int           `mapstructure:"max_idle_conns"`
	ConnMaxLifetime time.Duration `mapstructure:"conn_max_lifetime"`
	QueryTimeout    time.Duration `mapstructure:"query_timeout"`
	AutoMigrate     bool          `mapstructure:"auto_migrate"`
	Seed            bool          `mapstructure:"seed"`
}

// LiveConfig selects and configures the live telemetry store.
type LiveConfig struct {
	Backend  string         `mapstructure:"backend"`
	Timeout  time.Duration  `mapstructure:"timeout"`
	Firebase FirebaseConfig `mapstructure:"firebase"`
	Redis    RedisConfig    `mapstructure:"redis"`
}

// FirebaseConfig holds service account and realtime database settings.
type FirebaseConfig struct {
	DatabaseURL       string `mapstructure:"database_url"`
	CredentialsFile   string `mapstructure:"credentials_file"`
	CredentialsBase64 string `mapstructure:"credentials_base64"`
	CredentialsJSON   string `mapstructure:"credentials_json"`
}

// RedisConfig holds the redis live store connection.
type RedisConfig struct {
	Addr     string        `mapstructure:"addr"`
	Password string        `mapstructure:"password"`
	DB       int           `mapstructure:"db"`
	TTL      time.Duration `mapstructure:"ttl"`
}

// RelayConfig governs the telemetry relay cadence.
type RelayConfig struct {
	Enabled      bool          `mapstructure:"enabled"`
	Interval     time.Duration `mapstructure:"interval"`
	Workers      int           `mapstructure:"workers"`
	StartupDelay time.Duration `mapstructure:"startup_delay"`
}

// ReconcileConfig carries collection reconciliation parameters.
type ReconcileConfig struct {
	CollectorID string `mapstructure:"collector_id"`
}

// AuthConfig configures operator login.
type AuthConfig struct {
	Enabled          bool          `mapstructure:"enabled"`
	JWTSecret        string        `mapstructure:"jwt_secret"`
	TokenTTL         time.Duration `mapstructure:"token_ttl"`
	OperatorUsername string        `mapstructure:"operator_username"`
	OperatorPassword string        `mapstructure:"operator_password"`
}

// MQTTConfig configures device push ingestion and simulator publishing.
type MQTTConfig struct {
	Enabled     bool   `mapstructure:"enabled"`
	Broker      string `mapstructure:"broker"`
	ClientID    string `mapstructure:"client_id"`
	TopicPrefix string `mapstructure:"topic_prefix"`
	QoS         int    `mapstructure:"qos"`
}

// NotifyConfig configures lid-lock push notifications.
type NotifyConfig struct {
	Enabled bool   `mapstructure:"enabled"`
	Topic   string `mapstructure:"topic"`
}

// SimulatorConfig drives the demo device simulator.
type SimulatorConfig struct {
	BinIDs            []string      `mapstructure:"bin_ids"`
	Interval          time.Duration `mapstructure:"interval"`
	DefaultCapacityCM float64       `mapstructure:"default_capacity_cm"`
	Bridge            bool          `mapstructure:"bridge"`
}

// VehicleConfig describes the simulated collection vehicle.
type VehicleConfig struct {
	VehicleID string           `mapstructure:"vehicle_id"`
	Status    string           `mapstructure:"status"`
	Interval  time.Duration    `mapstructure:"interval"`
	Waypoints []WaypointConfig `mapstructure:"waypoints"`
}

// WaypointConfig is one coordinate of the simulated route.
type WaypointConfig struct {
	Latitude  float64 `mapstructure:"latitude"`
	Longitude float64 `mapstructure:"longitude"`
}

// LoadDotEnv loads a .env file from the working directory when present.
func LoadDotEnv() error {
	return godotenv.Load()
}

// Load builds configuration from file, environment, and defaults.
func Load(path string) (*Config, error) {
	v := viper.New()
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	setDefaults(v)
	bindLegacyEnv(v)

	if path != "" {
		v.SetConfigFile(path)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
	}

	if err := readConfig(v); err != nil {
		return nil, err
	}

	var cfg Config
	if err := v.Unmarshal(&cfg, decodeHook()); err != nil {
		return nil, errors.Wrap(errors.ErrReadConfig, fmt.Errorf("unmarshal config: %w", err))
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

func readConfig(v *viper.Viper) error {
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); ok {
			return nil
		}
		return errors.Wrap(errors.ErrReadConfig, err)
	}
	return nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("app.name", "smartbin")
	v.SetDefault("app.environment", "development")

	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.format", "json")
	v.SetDefault("logging.time_format", "")
	v.SetDefault("logging.caller", false)
	v.SetDefault("logging.pretty", false)

	v.SetDefault("server.port", "8080")
	v.SetDefault("server.allowed_origins", []string{"*"})
	v.SetDefault("server.read_timeout", "15s")
	v.SetDefault("server.write_timeout", "15s")

	v.SetDefault("database.driver", "postgres")
	v.SetDefault("database.dsn", "")
	v.SetDefault("database.max_open_conns", 10)
	v.SetDefault("database.max_idle_conns", 5)
	v.SetDefault("database.conn_max_lifetime", "30m")
	v.SetDefault("database.query_timeout", "5s")
	v.SetDefault("database.auto_migrate", true)
	v.SetDefault("database.seed", false)

	v.SetDefault("live.backend", "firebase")
	v.SetDefault("live.timeout", "3s")
	v.SetDefault("live.firebase.database_url", "")
	v.SetDefault("live.firebase.credentials_file", "./firebase-service-account.json")
	v.SetDefault("live.firebase.credentials_base64", "")
	v.SetDefault("live.firebase.credentials_json", "")
	v.SetDefault("live.redis.addr", "localhost:6379")
	v.SetDefault("live.redis.password", "")
	v.SetDefault("live.redis.db", 0)
	v.SetDefault("live.redis.ttl", "0s")

	v.SetDefault("relay.enabled", true)
	v.SetDefault("relay.interval", "5s")
	v.SetDefault("relay.workers", 8)
	v.SetDefault("relay.startup_delay", "0s")

	v.SetDefault("reconcile.collector_id", "COL-A01")

	v.SetDefault("auth.enabled", true)
	v.SetDefault("auth.jwt_secret", "")
	v.SetDefault("auth.token_ttl", "168h")
	v.SetDefault("auth.operator_username", "official")
	v.SetDefault("auth.operator_password", "")

	v.SetDefault("mqtt.enabled", false)
	v.SetDefault("mqtt.broker", "tcp://localhost:1883")
	v.SetDefault("mqtt.client_id", "smartbin")
	v.SetDefault("mqtt.topic_prefix", "smartbin")
	v.SetDefault("mqtt.qos", 0)

	v.SetDefault("notify.enabled", false)
	v.SetDefault("notify.topic", "bin-alerts")

	v.SetDefault("simulator.bin_ids", []string{"BIN-001", "BIN-002", "BIN-003", "BIN-004", "BIN-005", "BIN-006"})
	v.SetDefault("simulator.interval", "5s")
	v.SetDefault("simulator.default_capacity_cm", 200.0)
	v.SetDefault("simulator.bridge", true)

	v.SetDefault("vehicle.vehicle_id", "TRK-A01")
	v.SetDefault("vehicle.status", "In Service, Route R03")
	v.SetDefault("vehicle.interval", "10s")
}

// bindLegacyEnv keeps the deployment variables of the original service working.
func bindLegacyEnv(v *viper.Viper) {
	_ = v.BindEnv("database.dsn", EnvPrefix+"_DATABASE_DSN", "DATABASE_URL")
	_ = v.BindEnv("server.port", EnvPrefix+"_SERVER_PORT", "PORT")
	_ = v.BindEnv("auth.jwt_secret", EnvPrefix+"_AUTH_JWT_SECRET", "APP_JWT_SECRET")
	_ = v.BindEnv("live.firebase.database_url", EnvPrefix+"_LIVE_FIREBASE_DATABASE_URL", "FIREBASE_DATABASE_URL")
	_ = v.BindEnv("live.firebase.credentials_file", EnvPrefix+"_LIVE_FIREBASE_CREDENTIALS_FILE", "FIREBASE_CREDENTIALS_FILE")
	_ = v.BindEnv("live.firebase.credentials_base64", EnvPrefix+"_LIVE_FIREBASE_CREDENTIALS_BASE64", "FIREBASE_CREDENTIALS_BASE64")
	_ = v.BindEnv("live.firebase.credentials_json", EnvPrefix+"_LIVE_FIREBASE_CREDENTIALS_JSON", "FIREBASE_CREDENTIALS_JSON")
}

func decodeHook() viper.DecoderConfigOption {
	return func(dc *mapstructure.DecoderConfig) {
		dc.TagName = "mapstructure"
		dc.DecodeHook = mapstructure.ComposeDecodeHookFunc(
			mapstructure.StringToTimeDurationHookFunc(),
			mapstructure.StringToSliceHookFunc(","),
		)
	}
}

// Validate performs basic sanity checks on the configuration values.
func (c *Config) Validate() error {
	switch c.Database.Driver {
	case "postgres", "pgx", "sqlite":
	default:
		return errors.Newf(errors.ErrInvalidConfig, "database.driver %q is not supported", c.Database.Driver)
	}
	if c.Database.DSN == "" {
		return errors.WithMessage(errors.ErrMissingConfig, "database.dsn (or DATABASE_URL) is required")
	}
	if c.Database.QueryTimeout <= 0 {
		return errors.WithMessage(errors.ErrInvalidConfig, "database.query_timeout must be greater than zero")
	}

	switch c.Live.Backend {
	case "firebase":
		if c.Live.Firebase.DatabaseURL == "" {
			return errors.WithMessage(errors.ErrMissingConfig, "live.firebase.database_url is required for the firebase backend")
		}
	case "redis":
		if c.Live.Redis.Addr == "" {
			return errors.WithMessage(errors.ErrMissingConfig, "live.redis.addr is required for the redis backend")
		}
	case "memory":
	default:
		return errors.Newf(errors.ErrInvalidConfig, "live.backend %q is not supported", c.Live.Backend)
	}
	if c.Live.Timeout <= 0 {
		return errors.WithMessage(errors.ErrInvalidConfig, "live.timeout must be greater than zero")
	}

	if c.Relay.Interval <= 0 {
		return errors.WithMessage(errors.ErrInvalidConfig, "relay.interval must be greater than zero")
	}
	if c.Relay.Workers <= 0 {
		return errors.WithMessage(errors.ErrInvalidConfig, "relay.workers must be greater than zero")
	}

	if c.Auth.Enabled {
		if c.Auth.JWTSecret == "" {
			return errors.WithMessage(errors.ErrMissingConfig, "auth.jwt_secret (or APP_JWT_SECRET) is required when auth is enabled")
		}
		if c.Auth.OperatorUsername == "" {
			return errors.WithMessage(errors.ErrMissingConfig, "auth.operator_username is required when auth is enabled")
		}
	}

	if c.MQTT.Enabled && c.MQTT.Broker == "" {
		return errors.WithMessage(errors.ErrMissingConfig, "mqtt.broker is required when mqtt is enabled")
	}
	if c.MQTT.QoS < 0 || c.MQTT.QoS > 2 {
		return errors.WithMessage(errors.ErrInvalidConfig, "mqtt.qos must be 0, 1 or 2")
	}

	if c.Simulator.Interval <= 0 {
		return errors.WithMessage(errors.ErrInvalidConfig, "simulator.interval must be greater than zero")
	}
	if c.Simulator.DefaultCapacityCM <= 0 {
		return errors.WithMessage(errors.ErrInvalidConfig, "simulator.default_capacity_cm must be greater than zero")
	}
	if c.Vehicle.Interval <= 0 {
		return errors.WithMessage(errors.ErrInvalidConfig, "vehicle.interval must be greater than zero")
	}
	return nil
}

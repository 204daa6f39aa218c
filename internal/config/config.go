package config

import (
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/kelseyhightower/envconfig"
)

// Config holds the application's configuration values.
// Tags like `envconfig:"APP_PORT"` specify the environment variable name.
// `default:""` provides a default value if the env var is not set.
type Config struct {
	AppEnv     string `envconfig:"APP_ENV" default:"development" validate:"oneof=development staging production"`
	LogLevel   string `envconfig:"LOG_LEVEL" default:"info"`
	HttpServer ServerConfig
	GrpcServer GrpcServerConfig
	Postgres   PostgresConfig
	Redis      RedisConfig
	Assets     AssetsConfig
	CDN        CDNConfig
	Currency   CurrencyConfig
	Specs      SpecsConfig
}

// ServerConfig holds HTTP server-specific configurations.
type ServerConfig struct {
	Port         string        `envconfig:"HTTP_SERVER_PORT" default:"8080"`
	TimeoutRead  time.Duration `envconfig:"HTTP_SERVER_TIMEOUT_READ" default:"15s"`
	TimeoutWrite time.Duration `envconfig:"HTTP_SERVER_TIMEOUT_WRITE" default:"15s"`
	TimeoutIdle  time.Duration `envconfig:"HTTP_SERVER_TIMEOUT_IDLE" default:"60s"`
	SecureCookie bool          `envconfig:"HTTP_SERVER_SECURE_COOKIE" default:"false"`
}

// GrpcServerConfig holds gRPC server-specific configurations.
type GrpcServerConfig struct {
	Port string `envconfig:"GRPC_SERVER_PORT" default:"9090"`
}

// PostgresConfig holds PostgreSQL database connection details. Leaving the
// host empty runs the service without a database: rates are then cached in
// memory only.
type PostgresConfig struct {
	Host     string `envconfig:"POSTGRES_HOST"`
	Port     string `envconfig:"POSTGRES_PORT" default:"5432"`
	User     string `envconfig:"POSTGRES_USER"`
	Password string `envconfig:"POSTGRES_PASSWORD"`
	DBName   string `envconfig:"POSTGRES_DBNAME" default:"stone_catalog"`
	SSLMode  string `envconfig:"POSTGRES_SSLMODE" default:"disable"`
}

// Enabled reports whether a database is configured.
func (pc *PostgresConfig) Enabled() bool {
	return pc.Host != ""
}

// DSN constructs the Data Source Name string for connecting to PostgreSQL.
func (pc *PostgresConfig) DSN() string {
	return fmt.Sprintf("host=%s port=%s user=%s password=%s dbname=%s sslmode=%s",
		pc.Host, pc.Port, pc.User, pc.Password, pc.DBName, pc.SSLMode)
}

// RedisConfig holds the visitor preference store settings. An empty address
// keeps preferences in memory.
type RedisConfig struct {
	Addr      string        `envconfig:"REDIS_ADDR"`
	Password  string        `envconfig:"REDIS_PASSWORD"`
	DB        int           `envconfig:"REDIS_DB" default:"0"`
	KeyPrefix string        `envconfig:"REDIS_KEY_PREFIX" default:"stone:pref:"`
	TTL       time.Duration `envconfig:"REDIS_PREFERENCE_TTL" default:"720h"`
}

// Enabled reports whether Redis is configured.
func (rc *RedisConfig) Enabled() bool {
	return rc.Addr != ""
}

// AssetsConfig selects where catalog asset paths are listed from.
type AssetsConfig struct {
	Source               string        `envconfig:"ASSETS_SOURCE" default:"fs" validate:"oneof=fs drive"`
	Root                 string        `envconfig:"ASSETS_ROOT" default:"./assets"`
	DriveFolderID        string        `envconfig:"ASSETS_DRIVE_FOLDER_ID" validate:"required_if=Source drive"`
	DriveCredentialsFile string        `envconfig:"ASSETS_DRIVE_CREDENTIALS_FILE"`
	ImageDelay           time.Duration `envconfig:"ASSETS_IMAGE_DELAY" default:"300ms"`
}

// CDNConfig configures how asset paths become image URLs.
type CDNConfig struct {
	CloudName   string `envconfig:"CDN_CLOUD_NAME" default:"hsglobal"`
	Folder      string `envconfig:"CDN_FOLDER" default:"hs-global/products"`
	MappingFile string `envconfig:"CDN_MAPPING_FILE"`
}

// CurrencyConfig configures exchange rates and visitor currency detection.
type CurrencyConfig struct {
	APIURL        string        `envconfig:"CURRENCY_API_URL" default:"https://api.currencyapi.com" validate:"url"`
	APIKey        string        `envconfig:"CURRENCY_API_KEY"`
	CacheTTL      time.Duration `envconfig:"CURRENCY_CACHE_TTL" default:"24h" validate:"gt=0"`
	RetryAfter    time.Duration `envconfig:"CURRENCY_RETRY_AFTER" default:"30m"`
	FetchTimeout  time.Duration `envconfig:"CURRENCY_FETCH_TIMEOUT" default:"10s" validate:"gt=0"`
	GeoIPURL      string        `envconfig:"CURRENCY_GEOIP_URL" default:"https://ipapi.co" validate:"url"`
	DetectTimeout time.Duration `envconfig:"CURRENCY_DETECT_TIMEOUT" default:"3s" validate:"gt=0"`
}

// SpecsConfig selects the furniture specification table.
type SpecsConfig struct {
	Source string `envconfig:"SPECS_SOURCE" default:"embedded" validate:"oneof=embedded file postgres"`
	File   string `envconfig:"SPECS_FILE" validate:"required_if=Source file"`
}

var validate = validator.New()

// Load initializes the configuration from environment variables.
// It should be called once during application startup.
func Load() (*Config, error) {
	log.Println("Loading service configuration...")
	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, fmt.Errorf("failed to process configuration: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	log.Printf("Configuration loaded successfully for APP_ENV: %s", cfg.AppEnv)
	return &cfg, nil
}

// Validate checks field values and combinations envconfig can't express.
func (c *Config) Validate() error {
	if err := validate.Struct(c); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}
	if c.Specs.Source == "postgres" && !c.Postgres.Enabled() {
		return errors.New("invalid configuration: SPECS_SOURCE=postgres requires POSTGRES_HOST")
	}
	return nil
}

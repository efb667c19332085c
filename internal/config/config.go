// backend-go/internal/config/config.go
package config

import (
	"fmt"
	"log"
	"os"
	"sync"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

type Config struct {
	Server   ServerConfig
	Database DatabaseConfig
	App      AppConfig
	Cache    CacheConfig
	Storage  StorageConfig
	Drive    DriveConfig
	Signals  SignalsConfig
	Log      LogConfig
}

type ServerConfig struct {
	Port           string
	Mode           string
	ReadTimeout    int
	WriteTimeout   int
	AllowedOrigins []string
}

type DatabaseConfig struct {
	URL      string
	Host     string
	Port     string
	User     string
	Password string
	DBName   string
	SSLMode  string
	MaxConns int
}

// DSN returns DB_URL when set, otherwise a postgres URL built from the parts.
func (d DatabaseConfig) DSN() string {
	if d.URL != "" {
		return d.URL
	}
	return fmt.Sprintf("postgres://%s:%s@%s:%s/%s?sslmode=%s",
		d.User, d.Password, d.Host, d.Port, d.DBName, d.SSLMode)
}

type AppConfig struct {
	InputDir  string
	OutputDir string
}

type CacheConfig struct {
	Enabled       bool
	RedisURL      string
	RedisHost     string
	RedisPort     string
	RedisPassword string
	RedisDB       int
	TTLSeconds    int
}

type StorageConfig struct {
	Enabled      bool
	Endpoint     string
	AccessKey    string
	SecretKey    string
	Bucket       string
	Region       string
	UseSSL       bool
	InputPrefix  string
	OutputPrefix string
}

type DriveConfig struct {
	Enabled         bool
	CredentialsFile string
	FolderID        string
}

// SignalsConfig mirrors the thresholds of a signals run.
type SignalsConfig struct {
	ReorderLevel                 float64
	OverstockThreshold           float64
	FastMovingMin                float64
	SlowMovingMax                float64
	ForecastHorizonDays          int
	TrailingWindowDays           int
	SafetyFactor                 float64
	TransferBufferDays           float64
	SurplusThreshold             float64
	ShortageThreshold            float64
	CapacityConstrainedTransfers bool
	ExpiryWarningDays            int
	BuzzSeed                     int64
	AsOf                         time.Time // zero means the run date
}

type LogConfig struct {
	Level  string
	Format string
}

var (
	once     sync.Once
	instance *Config
)

func Load() *Config {
	once.Do(func() {
		// Load .env file if it exists
		_ = godotenv.Load()

		instance = load(viper.GetViper())

		// Ensure input and output directories exist
		ensureDir(instance.App.InputDir)
		ensureDir(instance.App.OutputDir)
	})

	return instance
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("SERVER_PORT", "8080")
	v.SetDefault("SERVER_MODE", "debug")
	v.SetDefault("SERVER_READ_TIMEOUT", 15)
	v.SetDefault("SERVER_WRITE_TIMEOUT", 15)
	v.SetDefault("SERVER_ALLOWED_ORIGINS", []string{"*"})

	v.SetDefault("DB_URL", "")
	v.SetDefault("DB_HOST", "localhost")
	v.SetDefault("DB_PORT", "5432")
	v.SetDefault("DB_USER", "postgres")
	v.SetDefault("DB_PASSWORD", "postgres")
	v.SetDefault("DB_NAME", "retail_signals")
	v.SetDefault("DB_SSLMODE", "disable")
	v.SetDefault("DB_MAX_CONNS", 4)

	v.SetDefault("APP_INPUT_DIR", "./data/input")
	v.SetDefault("APP_OUTPUT_DIR", "./data/output")

	v.SetDefault("CACHE_ENABLED", false)
	v.SetDefault("REDIS_URL", "")
	v.SetDefault("REDIS_HOST", "127.0.0.1")
	v.SetDefault("REDIS_PORT", "6379")
	v.SetDefault("REDIS_PASSWORD", "")
	v.SetDefault("REDIS_DB", 0)
	v.SetDefault("CACHE_TTL_SECONDS", 300)

	v.SetDefault("S3_ENABLED", false)
	v.SetDefault("S3_REGION", "us-east-1")
	v.SetDefault("S3_USE_SSL", true)
	v.SetDefault("S3_INPUT_PREFIX", "inputs/")
	v.SetDefault("S3_OUTPUT_PREFIX", "signals/")

	v.SetDefault("DRIVE_ENABLED", false)
	v.SetDefault("DRIVE_CREDENTIALS_FILE", "credentials.json")

	v.SetDefault("SIGNALS_REORDER_LEVEL", 10)
	v.SetDefault("SIGNALS_OVERSTOCK_THRESHOLD", 60)
	v.SetDefault("SIGNALS_FAST_MOVING_MIN", 10)
	v.SetDefault("SIGNALS_SLOW_MOVING_MAX", 2)
	v.SetDefault("SIGNALS_FORECAST_HORIZON_DAYS", 30)
	v.SetDefault("SIGNALS_TRAILING_WINDOW_DAYS", 7)
	v.SetDefault("SIGNALS_SAFETY_FACTOR", 1.2)
	v.SetDefault("SIGNALS_TRANSFER_BUFFER_DAYS", 7)
	v.SetDefault("SIGNALS_SURPLUS_THRESHOLD", 20)
	v.SetDefault("SIGNALS_SHORTAGE_THRESHOLD", 5)
	v.SetDefault("SIGNALS_CAPACITY_CONSTRAINED_TRANSFERS", false)
	v.SetDefault("SIGNALS_EXPIRY_WARNING_DAYS", 7)
	v.SetDefault("SIGNALS_BUZZ_SEED", 42)
	v.SetDefault("SIGNALS_AS_OF", "")

	v.SetDefault("LOG_LEVEL", "info")
	v.SetDefault("LOG_FORMAT", "console")
}

func load(v *viper.Viper) *Config {
	setDefaults(v)

	// Read from environment variables
	v.AutomaticEnv()

	cfg := &Config{
		Server: ServerConfig{
			Port:           v.GetString("SERVER_PORT"),
			Mode:           v.GetString("SERVER_MODE"),
			ReadTimeout:    v.GetInt("SERVER_READ_TIMEOUT"),
			WriteTimeout:   v.GetInt("SERVER_WRITE_TIMEOUT"),
			AllowedOrigins: v.GetStringSlice("SERVER_ALLOWED_ORIGINS"),
		},
		Database: DatabaseConfig{
			URL:      v.GetString("DB_URL"),
			Host:     v.GetString("DB_HOST"),
			Port:     v.GetString("DB_PORT"),
			User:     v.GetString("DB_USER"),
			Password: v.GetString("DB_PASSWORD"),
			DBName:   v.GetString("DB_NAME"),
			SSLMode:  v.GetString("DB_SSLMODE"),
			MaxConns: v.GetInt("DB_MAX_CONNS"),
		},
		App: AppConfig{
			InputDir:  v.GetString("APP_INPUT_DIR"),
			OutputDir: v.GetString("APP_OUTPUT_DIR"),
		},
		Cache: CacheConfig{
			Enabled:       v.GetBool("CACHE_ENABLED"),
			RedisURL:      v.GetString("REDIS_URL"),
			RedisHost:     v.GetString("REDIS_HOST"),
			RedisPort:     v.GetString("REDIS_PORT"),
			RedisPassword: v.GetString("REDIS_PASSWORD"),
			RedisDB:       v.GetInt("REDIS_DB"),
			TTLSeconds:    v.GetInt("CACHE_TTL_SECONDS"),
		},
		Storage: StorageConfig{
			Enabled:      v.GetBool("S3_ENABLED"),
			Endpoint:     v.GetString("S3_ENDPOINT"),
			AccessKey:    v.GetString("S3_ACCESS_KEY"),
			SecretKey:    v.GetString("S3_SECRET_KEY"),
			Bucket:       v.GetString("S3_BUCKET"),
			Region:       v.GetString("S3_REGION"),
			UseSSL:       v.GetBool("S3_USE_SSL"),
			InputPrefix:  v.GetString("S3_INPUT_PREFIX"),
			OutputPrefix: v.GetString("S3_OUTPUT_PREFIX"),
		},
		Drive: DriveConfig{
			Enabled:         v.GetBool("DRIVE_ENABLED"),
			CredentialsFile: v.GetString("DRIVE_CREDENTIALS_FILE"),
			FolderID:        v.GetString("DRIVE_FOLDER_ID"),
		},
		Signals: SignalsConfig{
			ReorderLevel:                 v.GetFloat64("SIGNALS_REORDER_LEVEL"),
			OverstockThreshold:           v.GetFloat64("SIGNALS_OVERSTOCK_THRESHOLD"),
			FastMovingMin:                v.GetFloat64("SIGNALS_FAST_MOVING_MIN"),
			SlowMovingMax:                v.GetFloat64("SIGNALS_SLOW_MOVING_MAX"),
			ForecastHorizonDays:          v.GetInt("SIGNALS_FORECAST_HORIZON_DAYS"),
			TrailingWindowDays:           v.GetInt("SIGNALS_TRAILING_WINDOW_DAYS"),
			SafetyFactor:                 v.GetFloat64("SIGNALS_SAFETY_FACTOR"),
			TransferBufferDays:           v.GetFloat64("SIGNALS_TRANSFER_BUFFER_DAYS"),
			SurplusThreshold:             v.GetFloat64("SIGNALS_SURPLUS_THRESHOLD"),
			ShortageThreshold:            v.GetFloat64("SIGNALS_SHORTAGE_THRESHOLD"),
			CapacityConstrainedTransfers: v.GetBool("SIGNALS_CAPACITY_CONSTRAINED_TRANSFERS"),
			ExpiryWarningDays:            v.GetInt("SIGNALS_EXPIRY_WARNING_DAYS"),
			BuzzSeed:                     v.GetInt64("SIGNALS_BUZZ_SEED"),
		},
		Log: LogConfig{
			Level:  v.GetString("LOG_LEVEL"),
			Format: v.GetString("LOG_FORMAT"),
		},
	}

	if raw := v.GetString("SIGNALS_AS_OF"); raw != "" {
		asOf, err := time.Parse("2006-01-02", raw)
		if err != nil {
			log.Printf("Ignoring invalid SIGNALS_AS_OF %q: %v", raw, err)
		} else {
			cfg.Signals.AsOf = asOf
		}
	}

	return cfg
}

func ensureDir(dir string) {
	if dir == "" {
		return
	}
	if _, err := os.Stat(dir); os.IsNotExist(err) {
		if err := os.MkdirAll(dir, 0755); err != nil {
			log.Fatalf("Failed to create directory %s: %v", dir, err)
		}
	}
}

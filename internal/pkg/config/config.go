package config

import (
	"fmt"
	"time"

	"github.com/kelseyhightower/envconfig"
)

// -----------------------------------------------------------------------------
// Environment variable configuration guidelines:
// - required: values that differ between environments (port, DB connection,
//   secrets)
// - default: values common across all environments (timeouts, windows,
//   standard settings)
// -----------------------------------------------------------------------------

type Config struct {
	Server  ServerConfig
	DB      DBConfig
	Redis   RedisConfig
	CORS    CORSConfig
	Log     LogConfig
	Booking BookingConfig
	Payment PaymentConfig
	Sweeper SweeperConfig
}

type ServerConfig struct {
	Port string `envconfig:"PORT" required:"true"`
}

type DBConfig struct {
	Host     string `envconfig:"DB_HOST" default:"localhost"`
	Port     string `envconfig:"DB_PORT" default:"5432"`
	User     string `envconfig:"DB_USER" required:"true"`
	Password string `envconfig:"DB_PASSWORD" required:"true"`
	DBName   string `envconfig:"DB_NAME" required:"true"`
	SSLMode  string `envconfig:"DB_SSL_MODE" default:"disable"`
	MaxConns int32  `envconfig:"DB_MAX_CONNS" default:"25"`
}

type RedisConfig struct {
	Addr     string        `envconfig:"REDIS_ADDR" default:"localhost:6379"`
	Password string        `envconfig:"REDIS_PASSWORD" default:""`
	DB       int           `envconfig:"REDIS_DB" default:"0"`
	CacheTTL time.Duration `envconfig:"REDIS_CACHE_TTL" default:"60s"`
}

type CORSConfig struct {
	AllowOrigins     []string      `envconfig:"CORS_ALLOW_ORIGINS" default:"http://localhost:3000,http://localhost:8080"`
	AllowMethods     []string      `envconfig:"CORS_ALLOW_METHODS" default:"GET,POST,PUT,PATCH,DELETE,OPTIONS"`
	AllowHeaders     []string      `envconfig:"CORS_ALLOW_HEADERS" default:"Origin,Content-Type,Accept,Authorization"`
	ExposeHeaders    []string      `envconfig:"CORS_EXPOSE_HEADERS" default:"Content-Length"`
	AllowCredentials bool          `envconfig:"CORS_ALLOW_CREDENTIALS" default:"true"`
	MaxAge           time.Duration `envconfig:"CORS_MAX_AGE" default:"12h"`
}

type LogConfig struct {
	Level      string `envconfig:"LOG_LEVEL" default:"info"`
	TimeFormat string `envconfig:"LOG_TIME_FORMAT" default:"2006-01-02 15:04:05.000"`
}

type BookingConfig struct {
	// HoldWindow is how long a booking may stay in waiting_payment
	// before the sweeper expires it.
	HoldWindow time.Duration `envconfig:"BOOKING_HOLD_WINDOW" default:"1h"`
}

type PaymentConfig struct {
	StripeSecretKey string `envconfig:"STRIPE_SECRET_KEY" required:"true"`
	Currency        string `envconfig:"PAYMENT_CURRENCY" default:"usd"`
	SuccessURL      string `envconfig:"PAYMENT_SUCCESS_URL" default:"http://localhost:3000/payment/success"`
	CancelURL       string `envconfig:"PAYMENT_CANCEL_URL" default:"http://localhost:3000/payment/cancel"`
}

type SweeperConfig struct {
	Enabled   bool          `envconfig:"SWEEPER_ENABLED" default:"true"`
	Interval  time.Duration `envconfig:"SWEEPER_INTERVAL" default:"1m"`
	BatchSize int32         `envconfig:"SWEEPER_BATCH_SIZE" default:"100"`
}

func (c *DBConfig) BuildDSN() string {
	return fmt.Sprintf(
		"postgres://%s:%s@%s:%s/%s?sslmode=%s",
		c.User, c.Password, c.Host, c.Port, c.DBName, c.SSLMode,
	)
}

func LoadConfig() (Config, error) {
	var cfg Config
	err := envconfig.Process("", &cfg)
	if err != nil {
		return Config{}, fmt.Errorf("failed to process env config: %w", err)
	}
	return cfg, nil
}

func NewTestConfig() Config {
	return Config{
		Server: ServerConfig{
			Port: "8889", // Test port
		},
		DB: DBConfig{
			Host:     "localhost",
			Port:     "15433", // Test DB port
			User:     "test",
			Password: "test",
			DBName:   "test_db",
			SSLMode:  "disable",
			MaxConns: 10,
		},
		Redis: RedisConfig{
			Addr:     "localhost:16379",
			CacheTTL: time.Minute,
		},
		Log: LogConfig{
			Level:      "error", // Error level only for tests
			TimeFormat: "2006-01-02 15:04:05.000",
		},
		Booking: BookingConfig{
			HoldWindow: time.Hour,
		},
		Payment: PaymentConfig{
			StripeSecretKey: "sk_test_dummy",
			Currency:        "usd",
			SuccessURL:      "http://localhost:3000/payment/success",
			CancelURL:       "http://localhost:3000/payment/cancel",
		},
		Sweeper: SweeperConfig{
			Enabled:   false, // Sweeps run explicitly in tests
			Interval:  time.Minute,
			BatchSize: 100,
		},
	}
}

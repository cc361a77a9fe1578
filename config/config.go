package config

import (
	"github.com/inboxpilot/warmstack/internal/logger"
	"github.com/inboxpilot/warmstack/internal/tracing"
)

type AppConfig struct {
	APIPort     string `env:"PORT,required" envDefault:"12333"`
	APIKey      string `env:"API_KEY,required"`
	RabbitMQURL string `env:"RABBITMQ_URL"`
	Logger      *logger.Config
	Tracing     *tracing.JaegerConfig
}

type DatabaseConfig struct {
	Host            string `env:"WARMSTACK_POSTGRES_HOST,required"`
	Port            string `env:"WARMSTACK_POSTGRES_PORT,required"`
	User            string `env:"WARMSTACK_POSTGRES_USER,required"`
	DBName          string `env:"WARMSTACK_POSTGRES_DB_NAME,required"`
	Password        string `env:"WARMSTACK_POSTGRES_PASSWORD,required"`
	MaxConn         int    `env:"WARMSTACK_POSTGRES_DB_MAX_CONN" envDefault:"50"`
	MaxIdleConn     int    `env:"WARMSTACK_POSTGRES_DB_MAX_IDLE_CONN" envDefault:"10"`
	ConnMaxLifetime int    `env:"WARMSTACK_POSTGRES_DB_CONN_MAX_LIFETIME" envDefault:"60"`
	LogLevel        string `env:"WARMSTACK_POSTGRES_LOG_LEVEL" envDefault:"WARN"`
	SSLMode         string `env:"WARMSTACK_POSTGRES_SSL_MODE" envDefault:"disable"`
}

type R2StorageConfig struct {
	AccountID         string `env:"CLOUDFLARE_R2_ACCOUNT_ID"`
	AccessKeyID       string `env:"CLOUDFLARE_R2_ACCESS_KEY_ID"`
	AccessKeySecret   string `env:"CLOUDFLARE_R2_ACCESS_KEY_SECRET"`
	TestResultsBucket string `env:"BUCKET_NAME_TEST_RESULTS" envDefault:"placement-test-results"`
}

type EmailGuardConfig struct {
	Url    string `env:"EMAILGUARD_URL" envDefault:"https://app.emailguard.io/api/v1"`
	ApiKey string `env:"EMAILGUARD_API_KEY"`
}

type SmartleadConfig struct {
	Url    string `env:"SMARTLEAD_URL" envDefault:"https://server.smartlead.ai/api/v1"`
	ApiKey string `env:"SMARTLEAD_API_KEY"`
}

type RateLimitConfig struct {
	MaxRequestsPerInterval int `env:"RATE_LIMIT_MAX_REQUESTS_PER_INTERVAL" envDefault:"60"`
	IntervalMs             int `env:"RATE_LIMIT_INTERVAL_MS" envDefault:"60000"`
}

type RetryConfig struct {
	MaxRetries        int     `env:"RETRY_MAX_RETRIES" envDefault:"3"`
	InitialBackoffMs  int     `env:"RETRY_INITIAL_BACKOFF_MS" envDefault:"1000"`
	BackoffMultiplier float64 `env:"RETRY_BACKOFF_MULTIPLIER" envDefault:"1.5"`
}

type LifecycleConfig struct {
	MinHoursBetweenTests int `env:"LIFECYCLE_MIN_HOURS_BETWEEN_TESTS" envDefault:"24"`
	MonthlyTestQuota     int `env:"LIFECYCLE_MONTHLY_TEST_QUOTA" envDefault:"100"`
	WarmingCadenceHours  int `env:"LIFECYCLE_WARMING_CADENCE_HOURS" envDefault:"24"`
	ActiveCadenceHours   int `env:"LIFECYCLE_ACTIVE_CADENCE_HOURS" envDefault:"72"`
}

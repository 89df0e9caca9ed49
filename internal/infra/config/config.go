package config

import (
	"log"
	"time"

	"github.com/kelseyhightower/envconfig"
)

// AppConfig описывает конфигурацию сервисов.
type AppConfig struct {
	AppEnv      string `envconfig:"APP_ENV" default:"dev"`
	Port        int    `envconfig:"PORT" default:"8080"`
	MetricsAddr string `envconfig:"METRICS_ADDR" default:":9090"`

	PGDSN string `envconfig:"PG_DSN"`

	RedisAddr string `envconfig:"REDIS_ADDR"`

	AMQPURL           string `envconfig:"AMQP_URL"`
	AMQPManagementURL string `envconfig:"AMQP_MANAGEMENT_URL"`

	Billing struct {
		BaseURL  string        `envconfig:"BILLING_BASE_URL"`
		Timeout  time.Duration `envconfig:"BILLING_TIMEOUT" default:"10s"`
		CacheTTL time.Duration `envconfig:"BILLING_CACHE_TTL" default:"30s"`
	} `envconfig:""`

	Blog struct {
		BaseURL string        `envconfig:"BLOG_BASE_URL"`
		Token   string        `envconfig:"BLOG_API_TOKEN"`
		Timeout time.Duration `envconfig:"BLOG_TIMEOUT" default:"30s"`
		RPS     float64       `envconfig:"BLOG_RPS" default:"2"`
	} `envconfig:""`

	Scheduling struct {
		HorizonDays int    `envconfig:"SCHEDULE_HORIZON_DAYS" default:"730"`
		PlansFile   string `envconfig:"PLANS_FILE"`
	} `envconfig:""`

	Queues struct {
		Generation string `envconfig:"GENERATION_QUEUE_KEY" default:"generation_jobs"`
	} `envconfig:""`

	Dispatcher struct {
		CronSpec string `envconfig:"DISPATCH_CRON" default:"0 6 * * *"`
	} `envconfig:""`
}

// Load загружает конфиг из окружения.
func Load() AppConfig {
	var cfg AppConfig
	if err := envconfig.Process("", &cfg); err != nil {
		log.Fatalf("не удалось загрузить конфиг: %v", err)
	}
	return cfg
}

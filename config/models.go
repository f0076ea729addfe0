package config

import "time"

type AuthConfig struct {
	Secret    string `mapstructure:"secret" validate:"required"`
	ExpiryMin int    `mapstructure:"expiry_min" validate:"gt=0"`
}

type DBConfig struct {
	URL             string        `mapstructure:"url" validate:"required"`
	MaxOpenConns    int32         `mapstructure:"max_open_conns"`
	MinIdleConns    int32         `mapstructure:"min_idle_conns"`
	ConnMaxLifetime time.Duration `mapstructure:"conn_max_lifetime"`
	ConnMaxIdleTime time.Duration `mapstructure:"conn_max_idle_time"`
	HealthTimeout   time.Duration `mapstructure:"health_timeout"`
}

type RedisConfig struct {
	URL             string        `mapstructure:"url" validate:"required"`
	DialTimeout     time.Duration `mapstructure:"dial_timeout"`
	ReadTimeout     time.Duration `mapstructure:"read_timeout"`
	WriteTimeout    time.Duration `mapstructure:"write_timeout"`
	PoolSize        int           `mapstructure:"pool_size"`
	MinIdleConns    int           `mapstructure:"min_idle_conns"`
	ConnMaxLifetime time.Duration `mapstructure:"conn_max_lifetime"`
	ConnMaxIdleTime time.Duration `mapstructure:"conn_max_idle_time"`
}

type RabbitMQConfig struct {
	BrokerLink   string `mapstructure:"broker_link" validate:"required"`
	ExchangeName string `mapstructure:"exchange_name" validate:"required"`
	ExchangeType string `mapstructure:"exchange_type"`
	QueueName    string `mapstructure:"queue_name" validate:"required"`
	RoutingKey   string `mapstructure:"routing_key" validate:"required"`
	WorkerCount  int    `mapstructure:"worker_count" validate:"gt=0"`
}

type SchedulerConfig struct {
	Interval          time.Duration `mapstructure:"interval" validate:"gt=0"`
	BatchSize         int           `mapstructure:"batch_size" validate:"gt=0"`
	VisibilityTimeout time.Duration `mapstructure:"visibility_timeout" validate:"gt=0"`
}

type ReclaimerConfig struct {
	Interval time.Duration `mapstructure:"interval" validate:"gt=0"`
	Limit    int           `mapstructure:"limit" validate:"gt=0"`
}

type ExecutorConfig struct {
	WorkerCount   int `mapstructure:"worker_count" validate:"gt=0"`
	ProbeSemCount int `mapstructure:"probe_sem_count" validate:"gt=0"`
}

// NotifyConfig holds provider endpoints shared by every tenant.
// Per-tenant recipients, tokens and webhook URLs live on the account.
type NotifyConfig struct {
	SendTimeout       time.Duration `mapstructure:"send_timeout"`
	EmailEndpoint     string        `mapstructure:"email_endpoint"`
	MessagingEndpoint string        `mapstructure:"messaging_endpoint"`
	PagerEndpoint     string        `mapstructure:"pager_endpoint"`
	TicketEndpoint    string        `mapstructure:"ticket_endpoint"`
}

type ScreenshotConfig struct {
	CaptureURL string        `mapstructure:"capture_url"`
	Timeout    time.Duration `mapstructure:"timeout"`
}

type Config struct {
	Env         string            `mapstructure:"env"`
	ServiceName string            `mapstructure:"service_name"`
	Port        int               `mapstructure:"port" validate:"gte=1,lte=65535"`
	DB          *DBConfig         `mapstructure:"db" validate:"required"`
	Redis       *RedisConfig      `mapstructure:"redis" validate:"required"`
	RabbitMQ    *RabbitMQConfig   `mapstructure:"rabbitmq" validate:"required"`
	Auth        *AuthConfig       `mapstructure:"auth" validate:"required"`
	Scheduler   *SchedulerConfig  `mapstructure:"scheduler" validate:"required"`
	Reclaimer   *ReclaimerConfig  `mapstructure:"reclaimer" validate:"required"`
	Executor    *ExecutorConfig   `mapstructure:"executor" validate:"required"`
	Notify      *NotifyConfig     `mapstructure:"notify" validate:"required"`
	Screenshot  *ScreenshotConfig `mapstructure:"screenshot"`
}

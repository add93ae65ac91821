package config

import (
	"os"
	"strconv"
	"strings"
)

type Config struct {
	Server   ServerConfig
	Logger   LoggerConfig
	Postgres PostgresConfig
	Redis    RedisConfig
	Kafka    KafkaConfig
	Notifier NotifierConfig
}

type ServerConfig struct {
	AppEnv      string
	HTTPPort    string
	MetricsPort string
}

type LoggerConfig struct {
	Level             string
	Encoding          string
	DisableCaller     bool
	DisableStacktrace bool
}

type PostgresConfig struct {
	Host            string
	Port            string
	User            string
	Password        string
	DBName          string
	SSLMode         string
	MaxOpenConns    int
	MaxIdleConns    int
	ConnMaxLifetime int
	ConnMaxIdleTime int
}

type RedisConfig struct {
	Addr     string
	Password string
	DB       int
}

type KafkaConfig struct {
	Brokers         []string
	TaskTopic       string
	TaskGroupID     string
	StockTopic      string
	NotifierGroupID string
}

type NotifierConfig struct {
	// Operator address low-stock notifications are routed to.
	MerchantMail string
	// Percentage of initial stock at or below which a notification fires.
	ThresholdPercent int
}

func LoadEnv() *Config {
	// Basic config loading
	// In a real scenario, use structured config loader like viper or koanf
	return &Config{
		Server: ServerConfig{
			AppEnv:      getEnv("APP_ENV", "dev"),
			HTTPPort:    getEnv("HTTP_PORT", ":8080"),
			MetricsPort: getEnv("METRICS_PORT", ":9091"),
		},
		Logger: LoggerConfig{
			Level:             getEnv("LOGGER_LEVEL", "debug"),
			Encoding:          getEnv("LOGGER_ENCODING", "console"),
			DisableCaller:     getEnvBool("LOGGER_DISABLE_CALLER", false),
			DisableStacktrace: getEnvBool("LOGGER_DISABLE_STACKTRACE", true),
		},
		Postgres: PostgresConfig{
			Host:            getEnv("POSTGRES_HOST", "localhost"),
			Port:            getEnv("POSTGRES_PORT", "5432"),
			User:            getEnv("POSTGRES_USER", "stockledger"),
			Password:        getEnv("POSTGRES_PASSWORD", "stockledger"),
			DBName:          getEnv("POSTGRES_DB", "stockledger"),
			SSLMode:         getEnv("POSTGRES_SSLMODE", "disable"),
			MaxOpenConns:    getEnvInt("POSTGRES_MAX_OPEN_CONNS", 10),
			MaxIdleConns:    getEnvInt("POSTGRES_MAX_IDLE_CONNS", 5),
			ConnMaxLifetime: getEnvInt("POSTGRES_CONN_MAX_LIFETIME", 300),
			ConnMaxIdleTime: getEnvInt("POSTGRES_CONN_MAX_IDLE_TIME", 60),
		},
		Redis: RedisConfig{
			Addr:     getEnv("REDIS_ADDR", "localhost:6379"),
			Password: getEnv("REDIS_PASSWORD", ""),
			DB:       getEnvInt("REDIS_DB", 0),
		},
		Kafka: KafkaConfig{
			Brokers:         getEnvSlice("KAFKA_BROKERS", []string{"localhost:9092"}),
			TaskTopic:       getEnv("KAFKA_TOPIC_TASKS", "orders.tasks"),
			TaskGroupID:     getEnv("KAFKA_GROUP_LEDGER", "stock-ledger"),
			StockTopic:      getEnv("KAFKA_TOPIC_STOCK", "stock.events"),
			NotifierGroupID: getEnv("KAFKA_GROUP_NOTIFIER", "low-stock-notifier"),
		},
		Notifier: NotifierConfig{
			MerchantMail:     getEnv("MERCHANT_MAIL", "ops@example.com"),
			ThresholdPercent: getEnvInt("LOW_STOCK_THRESHOLD_PERCENT", 50),
		},
	}
}

func getEnv(key, fallback string) string {
	if value, ok := os.LookupEnv(key); ok {
		return value
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	if value, ok := os.LookupEnv(key); ok {
		if i, err := strconv.Atoi(value); err == nil {
			return i
		}
	}
	return fallback
}

func getEnvBool(key string, fallback bool) bool {
	if value, ok := os.LookupEnv(key); ok {
		if b, err := strconv.ParseBool(value); err == nil {
			return b
		}
	}
	return fallback
}

func getEnvSlice(key string, fallback []string) []string {
	if value, ok := os.LookupEnv(key); ok {
		return strings.Split(value, ",")
	}
	return fallback
}

package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	HTTP        HTTPConfig
	RateLimit   RateLimitConfig
	Database    DatabaseConfig
	Redis       RedisConfig
	Kafka       KafkaConfig
	Aggregation AggregationConfig
	Log         LogConfig
	Client      ClientConfig
}

type HTTPConfig struct {
	Port            int
	ReadTimeout     time.Duration
	WriteTimeout    time.Duration
	ShutdownTimeout time.Duration
}

func (h HTTPConfig) Addr() string {
	return fmt.Sprintf(":%d", h.Port)
}

type RateLimitConfig struct {
	Enabled bool
	RPS     float64
	Burst   int
}

type DatabaseConfig struct {
	Enabled   bool
	Host      string
	Port      int
	User      string
	Password  string
	DBName    string
	SSLMode   string
	Migrate   bool
	ModelName string
}

func (d DatabaseConfig) ConnectionString() string {
	return fmt.Sprintf("host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		d.Host, d.Port, d.User, d.Password, d.DBName, d.SSLMode)
}

type RedisConfig struct {
	Enabled  bool
	Addr     string
	Password string
	DB       int
	TTL      time.Duration
}

type KafkaConfig struct {
	Enabled          bool
	Brokers          []string
	TopicPredictions string
	NumPartitions    int
	ConsumerGroup    string
	// Archiver batching
	BatchSize     int
	FlushInterval time.Duration
}

type AggregationConfig struct {
	// DailyTime is the local "HH:MM" at which the previous day is summarised.
	DailyTime string
}

type LogConfig struct {
	Level string
	JSON  bool
}

// ClientConfig drives the prediction form front end.
type ClientConfig struct {
	BaseURL string
	// Timeout of zero waits for the service indefinitely.
	Timeout        time.Duration
	ErrorDismiss   time.Duration
	SuccessDismiss time.Duration
	FrameInterval  time.Duration
}

func Load() (*Config, error) {
	// Load .env file if it exists (ignore error if not present)
	_ = godotenv.Load()

	config := &Config{
		HTTP: HTTPConfig{
			Port:            getEnvAsInt("HTTP_PORT", 5000),
			ReadTimeout:     getEnvAsDuration("HTTP_READ_TIMEOUT", 10*time.Second),
			WriteTimeout:    getEnvAsDuration("HTTP_WRITE_TIMEOUT", 10*time.Second),
			ShutdownTimeout: getEnvAsDuration("HTTP_SHUTDOWN_TIMEOUT", 15*time.Second),
		},
		RateLimit: RateLimitConfig{
			Enabled: getEnvAsBool("RATE_LIMIT_ENABLED", true),
			RPS:     getEnvAsFloat("RATE_LIMIT_RPS", 20),
			Burst:   getEnvAsInt("RATE_LIMIT_BURST", 40),
		},
		Database: DatabaseConfig{
			Enabled:   getEnvAsBool("DB_ENABLED", false),
			Host:      getEnv("DB_HOST", "localhost"),
			Port:      getEnvAsInt("DB_PORT", 5432),
			User:      getEnv("DB_USER", "bike_user"),
			Password:  getEnv("DB_PASSWORD", "bike_pass"),
			DBName:    getEnv("DB_NAME", "bike_db"),
			SSLMode:   getEnv("DB_SSLMODE", "disable"),
			Migrate:   getEnvAsBool("DB_MIGRATE", true),
			ModelName: getEnv("MODEL_NAME", "linear-v1"),
		},
		Redis: RedisConfig{
			Enabled:  getEnvAsBool("REDIS_ENABLED", false),
			Addr:     getEnv("REDIS_ADDR", "localhost:6379"),
			Password: getEnv("REDIS_PASSWORD", ""),
			DB:       getEnvAsInt("REDIS_DB", 0),
			TTL:      getEnvAsDuration("REDIS_PREDICTION_TTL", time.Hour),
		},
		Kafka: KafkaConfig{
			Enabled:          getEnvAsBool("KAFKA_ENABLED", false),
			Brokers:          strings.Split(getEnv("KAFKA_BROKERS", "localhost:9092"), ","),
			TopicPredictions: getEnv("KAFKA_TOPIC_PREDICTIONS", "bike.predictions"),
			NumPartitions:    getEnvAsInt("KAFKA_NUM_PARTITIONS", 3),
			ConsumerGroup:    getEnv("KAFKA_CONSUMER_GROUP", "prediction-archiver"),
			BatchSize:        getEnvAsInt("ARCHIVE_BATCH_SIZE", 100),
			FlushInterval:    getEnvAsDuration("ARCHIVE_FLUSH_INTERVAL", 5*time.Second),
		},
		Aggregation: AggregationConfig{
			DailyTime: getEnv("AGGREGATION_DAILY_TIME", "00:05"),
		},
		Log: LogConfig{
			Level: getEnv("LOG_LEVEL", "info"),
			JSON:  getEnvAsBool("LOG_JSON", false),
		},
		Client: ClientConfig{
			BaseURL:        getEnv("PREDICTOR_URL", "http://localhost:5000"),
			Timeout:        getEnvAsDuration("PREDICTOR_TIMEOUT", 0),
			ErrorDismiss:   getEnvAsDuration("ADVISORY_ERROR_DISMISS", 5*time.Second),
			SuccessDismiss: getEnvAsDuration("ADVISORY_SUCCESS_DISMISS", 3*time.Second),
			FrameInterval:  getEnvAsDuration("ANIMATION_FRAME_INTERVAL", 16*time.Millisecond),
		},
	}

	if config.RateLimit.Enabled && config.RateLimit.RPS <= 0 {
		return nil, fmt.Errorf("RATE_LIMIT_RPS must be positive, got %v", config.RateLimit.RPS)
	}

	return config, nil
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	valueStr := getEnv(key, "")
	if value, err := strconv.Atoi(valueStr); err == nil {
		return value
	}
	return defaultValue
}

func getEnvAsFloat(key string, defaultValue float64) float64 {
	valueStr := getEnv(key, "")
	if value, err := strconv.ParseFloat(valueStr, 64); err == nil {
		return value
	}
	return defaultValue
}

func getEnvAsBool(key string, defaultValue bool) bool {
	valueStr := getEnv(key, "")
	if value, err := strconv.ParseBool(valueStr); err == nil {
		return value
	}
	return defaultValue
}

func getEnvAsDuration(key string, defaultValue time.Duration) time.Duration {
	valueStr := getEnv(key, "")
	if value, err := time.ParseDuration(valueStr); err == nil {
		return value
	}
	return defaultValue
}

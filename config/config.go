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
	Elastic  ElasticsearchConfig
	Storage  StorageConfig
	Session  SessionConfig
	Keyring  KeyringConfig
	AIVision AIVisionConfig
	Vision   VisionConfig
	Barcode  BarcodeConfig
}

type ServerConfig struct {
	AppEnv   string
	HTTPPort string
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
	Brokers     []string
	EventsTopic string
	OrdersTopic string
	GroupID     string
}

type ElasticsearchConfig struct {
	Addresses []string
	Username  string
	Password  string
}

type StorageConfig struct {
	Provider        string // "gcs" or "local"
	GCSBucket       string
	CredentialsJSON string
	LocalDir        string
}

type SessionConfig struct {
	TTLSeconds     int
	MaxUploadBytes int64
}

type KeyringConfig struct {
	BaseURL         string
	TimeoutSeconds  int
	CacheTTLSeconds int
}

type AIVisionConfig struct {
	TimeoutSeconds int
	OpenAIBaseURL  string
	OpenAIModel    string
	GeminiBaseURL  string
	GeminiModel    string
}

type VisionConfig struct {
	Enabled         bool
	CredentialsJSON string
}

type BarcodeConfig struct {
	DefaultFormat string
	DefaultPrefix string
}

func LoadEnv() *Config {
	return &Config{
		Server: ServerConfig{
			AppEnv:   getEnv("APP_ENV", "dev"),
			HTTPPort: getEnv("HTTP_PORT", ":8084"),
		},
		Logger: LoggerConfig{
			Level:             getEnv("LOGGER_LEVEL", "debug"),
			Encoding:          getEnv("LOGGER_ENCODING", "console"),
			DisableCaller:     getEnvBool("LOGGER_DISABLE_CALLER", false),
			DisableStacktrace: getEnvBool("LOGGER_DISABLE_STACKTRACE", true),
		},
		Postgres: PostgresConfig{
			Host:            getEnv("POSTGRES_HOST", "localhost"),
			Port:            getEnv("POSTGRES_PORT", "5433"),
			User:            getEnv("POSTGRES_USER", "martpos"),
			Password:        getEnv("POSTGRES_PASSWORD", "martpos"),
			DBName:          getEnv("POSTGRES_DB", "martpos_inventory"),
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
			Brokers:     getEnvSlice("KAFKA_BROKERS", []string{"localhost:9092"}),
			EventsTopic: getEnv("KAFKA_TOPIC_EVENTS", "inventory.events"),
			OrdersTopic: getEnv("KAFKA_TOPIC_ORDERS", "orders.events"),
			GroupID:     getEnv("KAFKA_GROUP_INVENTORY", "inventory"),
		},
		Elastic: ElasticsearchConfig{
			Addresses: getEnvSlice("ELASTICSEARCH_ADDRESSES", []string{"http://localhost:9200"}),
			Username:  getEnv("ELASTICSEARCH_USERNAME", ""),
			Password:  getEnv("ELASTICSEARCH_PASSWORD", ""),
		},
		Storage: StorageConfig{
			Provider:        getEnv("STORAGE_PROVIDER", "local"),
			GCSBucket:       getEnv("GCS_BUCKET", ""),
			CredentialsJSON: getEnv("GCS_CREDENTIALS_JSON", ""),
			LocalDir:        getEnv("STORAGE_LOCAL_DIR", "uploads"),
		},
		Session: SessionConfig{
			TTLSeconds:     getEnvInt("IMPORT_SESSION_TTL", 3600),
			MaxUploadBytes: int64(getEnvInt("IMPORT_MAX_UPLOAD_BYTES", 10*1024*1024)),
		},
		Keyring: KeyringConfig{
			BaseURL:         getEnv("KEYRING_BASE_URL", "http://localhost:8091"),
			TimeoutSeconds:  getEnvInt("KEYRING_TIMEOUT_SECONDS", 3),
			CacheTTLSeconds: getEnvInt("KEYRING_CACHE_TTL_SECONDS", 60),
		},
		AIVision: AIVisionConfig{
			TimeoutSeconds: getEnvInt("AI_VISION_TIMEOUT_SECONDS", 45),
			OpenAIBaseURL:  getEnv("AI_VISION_OPENAI_BASE_URL", "https://api.openai.com"),
			OpenAIModel:    getEnv("AI_VISION_OPENAI_MODEL", "gpt-4o-mini"),
			GeminiBaseURL:  getEnv("AI_VISION_GEMINI_BASE_URL", "https://generativelanguage.googleapis.com"),
			GeminiModel:    getEnv("AI_VISION_GEMINI_MODEL", "gemini-1.5-flash"),
		},
		Vision: VisionConfig{
			Enabled:         getEnvBool("GCP_VISION_ENABLED", false),
			CredentialsJSON: getEnv("GCP_VISION_CREDENTIALS_JSON", ""),
		},
		Barcode: BarcodeConfig{
			DefaultFormat: getEnv("BARCODE_DEFAULT_FORMAT", "EAN13"),
			DefaultPrefix: getEnv("BARCODE_DEFAULT_PREFIX", ""),
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

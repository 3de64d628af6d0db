package config

import (
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	Server ServerConfig
	Neo4j  Neo4jConfig
	Loader LoaderConfig
	Valkey ValkeyConfig
	MinIO  MinIOConfig
}

type ServerConfig struct {
	Host    string
	Port    int
	Enabled bool
}

type Neo4jConfig struct {
	URI      string
	User     string
	Password string
	Database string
}

// LoaderConfig carries the run-level tuning knobs. Batch sizes are per kind
// and live in the schema catalog; these are the cross-cutting settings.
type LoaderConfig struct {
	DataDir       string
	CheckpointDir string
	SpoolDir      string

	// QueueDepth bounds the number of batches buffered between the reader
	// and the writers; the reader blocks when the store falls behind.
	QueueDepth       int
	WriteConcurrency int

	MaxRetries     int
	InitialBackoff time.Duration
	MaxBackoff     time.Duration
	WriteTimeout   time.Duration

	MaxRecordErrors int
	ContinueOnError bool

	// ProgressInterval is the minimum wall-clock gap between periodic
	// progress snapshots for a single file.
	ProgressInterval time.Duration
}

type ValkeyConfig struct {
	Addr     string
	Password string
}

type MinIOConfig struct {
	Endpoint  string
	AccessKey string
	SecretKey string
	Bucket    string
	UseSSL    bool
}

func Load() (*Config, error) {
	_ = godotenv.Load()

	cfg := &Config{
		Server: ServerConfig{
			Host:    getEnv("SERVER_HOST", "0.0.0.0"),
			Port:    getEnvInt("SERVER_PORT", 8080),
			Enabled: getEnvBool("SERVER_ENABLED", true),
		},
		Neo4j: Neo4jConfig{
			URI:      getEnv("NEO4J_URI", "bolt://localhost:7687"),
			User:     getEnv("NEO4J_USER", "neo4j"),
			Password: getEnv("NEO4J_PASSWORD", "neo4j"),
			Database: getEnv("NEO4J_DATABASE", "neo4j"),
		},
		Loader: LoaderConfig{
			DataDir:          getEnv("LOADER_DATA_DIR", "."),
			CheckpointDir:    getEnv("LOADER_CHECKPOINT_DIR", "checkpoints"),
			SpoolDir:         getEnv("LOADER_SPOOL_DIR", "spool"),
			QueueDepth:       getEnvInt("LOADER_QUEUE_DEPTH", 4),
			WriteConcurrency: getEnvInt("LOADER_WRITE_CONCURRENCY", 1),
			MaxRetries:       getEnvInt("LOADER_MAX_RETRIES", 3),
			InitialBackoff:   getEnvDuration("LOADER_INITIAL_BACKOFF", time.Second),
			MaxBackoff:       getEnvDuration("LOADER_MAX_BACKOFF", 30*time.Second),
			WriteTimeout:     getEnvDuration("LOADER_WRITE_TIMEOUT", 5*time.Minute),
			MaxRecordErrors:  getEnvInt("LOADER_MAX_RECORD_ERRORS", 1000),
			ContinueOnError:  getEnvBool("LOADER_CONTINUE_ON_ERROR", true),
			ProgressInterval: getEnvDuration("LOADER_PROGRESS_INTERVAL", 15*time.Second),
		},
		Valkey: ValkeyConfig{
			Addr:     getEnv("VALKEY_ADDR", ""),
			Password: getEnv("VALKEY_PASSWORD", ""),
		},
		MinIO: MinIOConfig{
			Endpoint:  getEnv("MINIO_ENDPOINT", ""),
			AccessKey: getEnv("MINIO_ACCESS_KEY", ""),
			SecretKey: getEnv("MINIO_SECRET_KEY", ""),
			Bucket:    getEnv("MINIO_BUCKET", ""),
			UseSSL:    getEnvBool("MINIO_USE_SSL", false),
		},
	}
	return cfg, nil
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if i, err := strconv.Atoi(v); err == nil {
			return i
		}
	}
	return fallback
}

func getEnvBool(key string, fallback bool) bool {
	if v := os.Getenv(key); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			return b
		}
	}
	return fallback
}

func getEnvDuration(key string, fallback time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	}
	return fallback
}

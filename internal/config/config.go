package config

import (
	"time"

	"github.com/Shivansh47201/vartalap/pkg/constants"
	"github.com/Shivansh47201/vartalap/pkg/env"
)

// Config holds all server configuration, loaded from environment variables
type Config struct {
	Env        string
	Port       int
	ClientURL  string
	JWTSecret  string
	TokenTTL   time.Duration
	LogLevel   string
	LogFormat  string

	CockroachHost     string
	CockroachPort     int
	CockroachUser     string
	CockroachPassword string
	CockroachDatabase string
	CockroachSSLMode  string

	CassandraHosts    []string
	CassandraKeyspace string
	CassandraUser     string
	CassandraPassword string

	RedisHost     string
	RedisPort     int
	RedisPassword string

	MinIOEndpoint  string
	MinIOAccessKey string
	MinIOSecretKey string
	MinIOBucket    string
	MinIOUseSSL    bool
}

// Load reads configuration from the environment with development defaults
func Load() *Config {
	return &Config{
		Env:       env.GetString("ENV", "development"),
		Port:      env.GetInt("PORT", 8080),
		ClientURL: env.GetString("CLIENT_URL", "http://localhost:5173"),
		JWTSecret: env.GetString("JWT_SECRET", ""),
		TokenTTL:  env.GetDuration("TOKEN_TTL", constants.SessionTokenExpiry),
		LogLevel:  env.GetString("LOG_LEVEL", "info"),
		LogFormat: env.GetString("LOG_FORMAT", "json"),

		CockroachHost:     env.GetString("COCKROACH_HOST", "localhost"),
		CockroachPort:     env.GetInt("COCKROACH_PORT", 26257),
		CockroachUser:     env.GetString("COCKROACH_USER", "root"),
		CockroachPassword: env.GetString("COCKROACH_PASSWORD", ""),
		CockroachDatabase: env.GetString("COCKROACH_DATABASE", "vartalap_db"),
		CockroachSSLMode:  env.GetString("COCKROACH_SSLMODE", "disable"),

		CassandraHosts:    []string{env.GetString("CASSANDRA_HOST", "localhost")},
		CassandraKeyspace: env.GetString("CASSANDRA_KEYSPACE", "vartalap_ks"),
		CassandraUser:     env.GetString("CASSANDRA_USER", ""),
		CassandraPassword: env.GetString("CASSANDRA_PASSWORD", ""),

		RedisHost:     env.GetString("REDIS_HOST", "localhost"),
		RedisPort:     env.GetInt("REDIS_PORT", 6379),
		RedisPassword: env.GetString("REDIS_PASSWORD", ""),

		MinIOEndpoint:  env.GetString("MINIO_ENDPOINT", "localhost:9000"),
		MinIOAccessKey: env.GetString("MINIO_ACCESS_KEY", "minioadmin"),
		MinIOSecretKey: env.GetString("MINIO_SECRET_KEY", "minioadmin"),
		MinIOBucket:    env.GetString("MINIO_BUCKET", "vartalap-uploads"),
		MinIOUseSSL:    env.GetBool("MINIO_USE_SSL", false),
	}
}

// Package config loads application settings from environment variables.
//
// # Environment Variables
//
// ## Server
//   - SERVER_PORT: HTTP port (default: 8080)
//   - GIN_MODE: gin mode, debug|release|test (default: release)
//   - CACHE_MAX_AGE_SECONDS: Cache-Control max-age on data responses (default: 600)
//   - SWAGGER_ENABLED: serve /swagger (default: true)
//
// ## Data
//   - DATA_SOURCE: fs|http (default: fs)
//   - DATA_ROOT: directory holding repo/ when DATA_SOURCE=fs (default: public)
//   - DATA_BASE_URL: base URL holding repo/ when DATA_SOURCE=http
//   - DATA_HTTP_TIMEOUT_SECONDS: per-request timeout of the http source (default: 15)
//   - MANIFEST_VALIDATE: schema-check manifests on load (default: true)
//   - MANIFEST_PRELOAD: load every manifest at startup (default: false)
//   - AGGREGATE_CONCURRENCY: parallel yearly fetches per request (default: 8)
//   - AGGREGATE_CACHE_SIZE: cached aggregated responses, 0 disables (default: 256)
//   - AGGREGATE_CACHE_TTL_MINUTES: lifetime of a cached aggregated response (default: 10)
//
// ## Observability
//   - LOG_LEVEL: debug|info|warn|error (default: info)
//   - LOG_FORMAT: json|console (default: json)
//   - TRACING_ENABLED: export OTLP traces (default: false)
//   - TRACING_ENDPOINT: OTLP gRPC collector (default: localhost:4317)
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
)

const (
	DataSourceFS   = "fs"
	DataSourceHTTP = "http"
)

type Config struct {
	ServerPort string `validate:"required,numeric"`
	GinMode    string `validate:"oneof=debug release test"`

	DataSource             string `validate:"oneof=fs http"`
	DataRoot               string `validate:"required_if=DataSource fs"`
	DataBaseURL            string `validate:"required_if=DataSource http"`
	DataHTTPTimeoutSeconds int    `validate:"min=1"`

	ManifestValidate bool
	ManifestPreload  bool

	AggregateConcurrency     int `validate:"min=1,max=64"`
	AggregateCacheSize       int `validate:"min=0"`
	AggregateCacheTTLMinutes int `validate:"min=1"`

	CacheMaxAgeSeconds int `validate:"min=0"`
	SwaggerEnabled     bool

	LogLevel  string `validate:"oneof=debug info warn error"`
	LogFormat string `validate:"oneof=json console"`

	// Tracing configuration
	TracingEnabled  bool
	TracingEndpoint string `validate:"required_if=TracingEnabled true"`
}

// LoadConfig reads a .env file when present, then the environment.
func LoadConfig() (*Config, error) {
	_ = godotenv.Load()

	cfg := &Config{
		ServerPort: getEnv("SERVER_PORT", "8080"),
		GinMode:    getEnv("GIN_MODE", "release"),

		DataSource:             strings.ToLower(getEnv("DATA_SOURCE", DataSourceFS)),
		DataRoot:               getEnv("DATA_ROOT", "public"),
		DataBaseURL:            strings.TrimRight(getEnv("DATA_BASE_URL", ""), "/"),
		DataHTTPTimeoutSeconds: getEnvInt("DATA_HTTP_TIMEOUT_SECONDS", 15),

		ManifestValidate: getEnvBool("MANIFEST_VALIDATE", true),
		ManifestPreload:  getEnvBool("MANIFEST_PRELOAD", false),

		AggregateConcurrency:     getEnvInt("AGGREGATE_CONCURRENCY", 8),
		AggregateCacheSize:       getEnvInt("AGGREGATE_CACHE_SIZE", 256),
		AggregateCacheTTLMinutes: getEnvInt("AGGREGATE_CACHE_TTL_MINUTES", 10),

		CacheMaxAgeSeconds: getEnvInt("CACHE_MAX_AGE_SECONDS", 600),
		SwaggerEnabled:     getEnvBool("SWAGGER_ENABLED", true),

		LogLevel:  strings.ToLower(getEnv("LOG_LEVEL", "info")),
		LogFormat: strings.ToLower(getEnv("LOG_FORMAT", "json")),

		TracingEnabled:  getEnvBool("TRACING_ENABLED", false),
		TracingEndpoint: getEnv("TRACING_ENDPOINT", "localhost:4317"),
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks the struct tags and reports every failing field.
func (c *Config) Validate() error {
	err := validator.New().Struct(c)
	if err == nil {
		return nil
	}
	verrs, ok := err.(validator.ValidationErrors)
	if !ok {
		return fmt.Errorf("invalid configuration: %w", err)
	}
	msgs := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		msgs = append(msgs, fmt.Sprintf("%s failed %q", fe.Field(), fe.Tag()))
	}
	return fmt.Errorf("invalid configuration: %s", strings.Join(msgs, "; "))
}

// DataHTTPTimeout returns the http source timeout as a duration.
func (c *Config) DataHTTPTimeout() time.Duration {
	return time.Duration(c.DataHTTPTimeoutSeconds) * time.Second
}

// AggregateCacheTTL returns the aggregated response lifetime as a duration.
func (c *Config) AggregateCacheTTL() time.Duration {
	return time.Duration(c.AggregateCacheTTLMinutes) * time.Minute
}

func getEnv(key, defaultValue string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if value, exists := os.LookupEnv(key); exists {
		if intVal, err := strconv.Atoi(value); err == nil {
			return intVal
		}
	}
	return defaultValue
}

func getEnvBool(key string, defaultValue bool) bool {
	if value, exists := os.LookupEnv(key); exists {
		if boolVal, err := strconv.ParseBool(value); err == nil {
			return boolVal
		}
	}
	return defaultValue
}

package config

import (
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"
)

type LookupFunc func(string) (string, bool)

type Profile string

const (
	ProfileDev  Profile = "dev"
	ProfileTest Profile = "test"
	ProfileProd Profile = "prod"
)

const (
	StoreDriverDuckDB   = "duckdb"
	StoreDriverPostgres = "postgres"
)

type Config struct {
	Profile       Profile
	Service       ServiceConfig
	HTTP          HTTPConfig
	Store         StoreConfig
	AI            AIConfig
	Export        ExportConfig
	Observability ObservabilityConfig
	Auth          AuthConfig
}

type ServiceConfig struct {
	Name string
}

type HTTPConfig struct {
	Address      string
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
	IdleTimeout  time.Duration
}

type StoreConfig struct {
	Driver          string
	DSN             string
	MaxOpenConns    int
	MaxIdleConns    int
	ConnMaxIdleTime time.Duration
	ConnMaxLifetime time.Duration
}

type AIConfig struct {
	BaseURL             string
	APIKey              string
	Model               string
	ClassifyTemperature float64
	AnswerTemperature   float64
	Timeout             time.Duration
	ComposeEnabled      bool
	AgentEnabled        bool
	AgentMaxSteps       int
	AgentRowLimit       int
}

type ExportConfig struct {
	Enabled          bool
	Endpoint         string
	Region           string
	Bucket           string
	AccessKeyID      string
	SecretAccessKey  string
	UseSSL           bool
	Prefix           string
	AutoCreateBucket bool
}

type ObservabilityConfig struct {
	LogLevel slog.Level
	LogJSON  bool
}

type AuthConfig struct {
	Required   bool
	StaticKeys string
}

// LoadFromEnv reads configuration from the process environment, layered on
// top of the optional YAML file named by ORDERLENS_CONFIG_FILE. Environment
// values win over file values.
func LoadFromEnv(serviceName string) (Config, error) {
	lookup := LookupFunc(os.LookupEnv)
	if path, ok := os.LookupEnv("ORDERLENS_CONFIG_FILE"); ok && strings.TrimSpace(path) != "" {
		fileLookup, err := FileLookup(strings.TrimSpace(path))
		if err != nil {
			return Config{}, err
		}
		lookup = ChainLookup(lookup, fileLookup)
	}
	return Load(serviceName, lookup)
}

// ChainLookup returns a lookup consulting each source in order, first hit wins.
func ChainLookup(lookups ...LookupFunc) LookupFunc {
	return func(key string) (string, bool) {
		for _, lookup := range lookups {
			if lookup == nil {
				continue
			}
			if value, ok := lookup(key); ok {
				return value, true
			}
		}
		return "", false
	}
}

func Load(serviceName string, lookup LookupFunc) (Config, error) {
	if lookup == nil {
		return Config{}, fmt.Errorf("lookup function is required")
	}

	profile := ProfileDev
	if raw, ok := lookup("ORDERLENS_PROFILE"); ok {
		profile = Profile(strings.ToLower(strings.TrimSpace(raw)))
	}
	if !isValidProfile(profile) {
		return Config{}, fmt.Errorf("invalid ORDERLENS_PROFILE: %q", profile)
	}

	cfg := defaultsForProfile(profile)
	if serviceName != "" {
		cfg.Service.Name = serviceName
	}

	if err := applyString(lookup, "ORDERLENS_SERVICE_NAME", &cfg.Service.Name); err != nil {
		return Config{}, err
	}
	if err := applyString(lookup, "ORDERLENS_HTTP_ADDR", &cfg.HTTP.Address); err != nil {
		return Config{}, err
	}
	if err := applyDuration(lookup, "ORDERLENS_HTTP_READ_TIMEOUT", &cfg.HTTP.ReadTimeout); err != nil {
		return Config{}, err
	}
	if err := applyDuration(lookup, "ORDERLENS_HTTP_WRITE_TIMEOUT", &cfg.HTTP.WriteTimeout); err != nil {
		return Config{}, err
	}
	if err := applyDuration(lookup, "ORDERLENS_HTTP_IDLE_TIMEOUT", &cfg.HTTP.IdleTimeout); err != nil {
		return Config{}, err
	}
	if err := applyString(lookup, "ORDERLENS_STORE_DRIVER", &cfg.Store.Driver); err != nil {
		return Config{}, err
	}
	if err := applyString(lookup, "ORDERLENS_STORE_DSN", &cfg.Store.DSN); err != nil {
		return Config{}, err
	}
	if err := applyInt(lookup, "ORDERLENS_STORE_MAX_OPEN_CONNS", &cfg.Store.MaxOpenConns); err != nil {
		return Config{}, err
	}
	if err := applyInt(lookup, "ORDERLENS_STORE_MAX_IDLE_CONNS", &cfg.Store.MaxIdleConns); err != nil {
		return Config{}, err
	}
	if err := applyDuration(lookup, "ORDERLENS_STORE_CONN_MAX_IDLE_TIME", &cfg.Store.ConnMaxIdleTime); err != nil {
		return Config{}, err
	}
	if err := applyDuration(lookup, "ORDERLENS_STORE_CONN_MAX_LIFETIME", &cfg.Store.ConnMaxLifetime); err != nil {
		return Config{}, err
	}
	if err := applyString(lookup, "ORDERLENS_AI_BASE_URL", &cfg.AI.BaseURL); err != nil {
		return Config{}, err
	}
	if err := applyString(lookup, "ORDERLENS_AI_API_KEY", &cfg.AI.APIKey); err != nil {
		return Config{}, err
	}
	if err := applyString(lookup, "ORDERLENS_AI_MODEL", &cfg.AI.Model); err != nil {
		return Config{}, err
	}
	if err := applyFloat(lookup, "ORDERLENS_AI_CLASSIFY_TEMPERATURE", &cfg.AI.ClassifyTemperature); err != nil {
		return Config{}, err
	}
	if err := applyFloat(lookup, "ORDERLENS_AI_ANSWER_TEMPERATURE", &cfg.AI.AnswerTemperature); err != nil {
		return Config{}, err
	}
	if err := applyDuration(lookup, "ORDERLENS_AI_TIMEOUT", &cfg.AI.Timeout); err != nil {
		return Config{}, err
	}
	if err := applyBool(lookup, "ORDERLENS_AI_COMPOSE_ENABLED", &cfg.AI.ComposeEnabled); err != nil {
		return Config{}, err
	}
	if err := applyBool(lookup, "ORDERLENS_AI_AGENT_ENABLED", &cfg.AI.AgentEnabled); err != nil {
		return Config{}, err
	}
	if err := applyInt(lookup, "ORDERLENS_AI_AGENT_MAX_STEPS", &cfg.AI.AgentMaxSteps); err != nil {
		return Config{}, err
	}
	if err := applyInt(lookup, "ORDERLENS_AI_AGENT_ROW_LIMIT", &cfg.AI.AgentRowLimit); err != nil {
		return Config{}, err
	}
	if err := applyBool(lookup, "ORDERLENS_EXPORT_ENABLED", &cfg.Export.Enabled); err != nil {
		return Config{}, err
	}
	if err := applyString(lookup, "ORDERLENS_EXPORT_ENDPOINT", &cfg.Export.Endpoint); err != nil {
		return Config{}, err
	}
	if err := applyString(lookup, "ORDERLENS_EXPORT_REGION", &cfg.Export.Region); err != nil {
		return Config{}, err
	}
	if err := applyString(lookup, "ORDERLENS_EXPORT_BUCKET", &cfg.Export.Bucket); err != nil {
		return Config{}, err
	}
	if err := applyString(lookup, "ORDERLENS_EXPORT_ACCESS_KEY", &cfg.Export.AccessKeyID); err != nil {
		return Config{}, err
	}
	if err := applyString(lookup, "ORDERLENS_EXPORT_SECRET_KEY", &cfg.Export.SecretAccessKey); err != nil {
		return Config{}, err
	}
	if err := applyBool(lookup, "ORDERLENS_EXPORT_USE_SSL", &cfg.Export.UseSSL); err != nil {
		return Config{}, err
	}
	if err := applyString(lookup, "ORDERLENS_EXPORT_PREFIX", &cfg.Export.Prefix); err != nil {
		return Config{}, err
	}
	if err := applyBool(lookup, "ORDERLENS_EXPORT_AUTO_CREATE_BUCKET", &cfg.Export.AutoCreateBucket); err != nil {
		return Config{}, err
	}
	if err := applyBool(lookup, "ORDERLENS_LOG_JSON", &cfg.Observability.LogJSON); err != nil {
		return Config{}, err
	}
	if err := applyLogLevel(lookup, "ORDERLENS_LOG_LEVEL", &cfg.Observability.LogLevel); err != nil {
		return Config{}, err
	}
	if err := applyBool(lookup, "ORDERLENS_AUTH_REQUIRED", &cfg.Auth.Required); err != nil {
		return Config{}, err
	}
	if err := applyString(lookup, "ORDERLENS_AUTH_STATIC_KEYS", &cfg.Auth.StaticKeys); err != nil {
		return Config{}, err
	}

	if cfg.Service.Name == "" {
		return Config{}, fmt.Errorf("service name is required")
	}
	if cfg.HTTP.Address == "" {
		return Config{}, fmt.Errorf("http address is required")
	}
	switch cfg.Store.Driver {
	case StoreDriverDuckDB, StoreDriverPostgres:
	default:
		return Config{}, fmt.Errorf("invalid ORDERLENS_STORE_DRIVER: %q", cfg.Store.Driver)
	}
	if cfg.Store.DSN == "" {
		return Config{}, fmt.Errorf("store dsn is required")
	}
	return cfg, nil
}

func defaultsForProfile(profile Profile) Config {
	cfg := Config{
		Profile: profile,
		Service: ServiceConfig{Name: "orderlens-api"},
		HTTP: HTTPConfig{
			Address:      ":8080",
			ReadTimeout:  5 * time.Second,
			WriteTimeout: 30 * time.Second,
			IdleTimeout:  60 * time.Second,
		},
		Store: StoreConfig{
			Driver:          StoreDriverDuckDB,
			DSN:             "delivery.db",
			MaxOpenConns:    4,
			MaxIdleConns:    4,
			ConnMaxIdleTime: 5 * time.Minute,
			ConnMaxLifetime: 30 * time.Minute,
		},
		AI: AIConfig{
			BaseURL:             "https://api.openai.com",
			Model:               "gpt-4o-mini",
			ClassifyTemperature: 0,
			AnswerTemperature:   0.7,
			Timeout:             30 * time.Second,
			ComposeEnabled:      true,
			AgentEnabled:        false,
			AgentMaxSteps:       8,
			AgentRowLimit:       200,
		},
		Export: ExportConfig{
			Enabled:          false,
			Endpoint:         "localhost:9000",
			Region:           "us-east-1",
			Bucket:           "orderlens",
			AccessKeyID:      "minio",
			SecretAccessKey:  "miniostorage",
			UseSSL:           false,
			Prefix:           "",
			AutoCreateBucket: true,
		},
		Observability: ObservabilityConfig{
			LogLevel: slog.LevelDebug,
			LogJSON:  true,
		},
		Auth: AuthConfig{
			Required:   false,
			StaticKeys: "",
		},
	}

	switch profile {
	case ProfileTest:
		cfg.HTTP.Address = ":18080"
		cfg.Observability.LogLevel = slog.LevelWarn
		cfg.Auth.Required = false
	case ProfileProd:
		cfg.Observability.LogLevel = slog.LevelInfo
		cfg.Auth.Required = true
		cfg.Export.UseSSL = true
		cfg.Export.AutoCreateBucket = false
	}

	return cfg
}

func isValidProfile(profile Profile) bool {
	switch profile {
	case ProfileDev, ProfileTest, ProfileProd:
		return true
	default:
		return false
	}
}

func applyString(lookup LookupFunc, key string, dst *string) error {
	raw, ok := lookup(key)
	if !ok {
		return nil
	}
	*dst = strings.TrimSpace(raw)
	return nil
}

func applyDuration(lookup LookupFunc, key string, dst *time.Duration) error {
	raw, ok := lookup(key)
	if !ok {
		return nil
	}
	value, err := time.ParseDuration(strings.TrimSpace(raw))
	if err != nil {
		return fmt.Errorf("invalid %s: %w", key, err)
	}
	*dst = value
	return nil
}

func applyBool(lookup LookupFunc, key string, dst *bool) error {
	raw, ok := lookup(key)
	if !ok {
		return nil
	}
	value, err := strconv.ParseBool(strings.TrimSpace(raw))
	if err != nil {
		return fmt.Errorf("invalid %s: %w", key, err)
	}
	*dst = value
	return nil
}

func applyInt(lookup LookupFunc, key string, dst *int) error {
	raw, ok := lookup(key)
	if !ok {
		return nil
	}
	value, err := strconv.Atoi(strings.TrimSpace(raw))
	if err != nil {
		return fmt.Errorf("invalid %s: %w", key, err)
	}
	*dst = value
	return nil
}

func applyFloat(lookup LookupFunc, key string, dst *float64) error {
	raw, ok := lookup(key)
	if !ok {
		return nil
	}
	value, err := strconv.ParseFloat(strings.TrimSpace(raw), 64)
	if err != nil {
		return fmt.Errorf("invalid %s: %w", key, err)
	}
	*dst = value
	return nil
}

func applyLogLevel(lookup LookupFunc, key string, dst *slog.Level) error {
	raw, ok := lookup(key)
	if !ok {
		return nil
	}
	level := strings.ToLower(strings.TrimSpace(raw))
	switch level {
	case "debug":
		*dst = slog.LevelDebug
	case "info":
		*dst = slog.LevelInfo
	case "warn", "warning":
		*dst = slog.LevelWarn
	case "error":
		*dst = slog.LevelError
	default:
		return fmt.Errorf("invalid %s: %q", key, raw)
	}
	return nil
}

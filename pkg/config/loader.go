package config

import (
	"fmt"
	"strings"

	"github.com/spf13/viper"
)

const EnvPrefix = "HEALTHREC"

func Load(configPath string) (*Config, error) {
	v := viper.New()

	// Set defaults
	setDefaults(v)

	// Config file settings
	if configPath != "" {
		v.SetConfigFile(configPath)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		v.AddConfigPath("./configs")
		v.AddConfigPath("/etc/healthcare-records")
	}

	// Environment variable settings
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
		// Config file not found, use defaults and env vars
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	return &cfg, nil
}

func setDefaults(v *viper.Viper) {
	// App defaults
	v.SetDefault("app.name", "healthcare-records")
	v.SetDefault("app.mode", "development")
	v.SetDefault("app.log_level", "info")
	v.SetDefault("app.shutdown_timeout", "30s")

	// Database defaults
	v.SetDefault("database.host", "localhost")
	v.SetDefault("database.port", 5432)
	v.SetDefault("database.name", "healthcare")
	v.SetDefault("database.user", "admin")
	v.SetDefault("database.password", "password")
	v.SetDefault("database.max_connections", 25)
	v.SetDefault("database.ssl_mode", "disable")
	v.SetDefault("database.migration_timeout", "60s")

	// API defaults
	v.SetDefault("api.port", 8080)
	v.SetDefault("api.read_timeout", "15s")
	v.SetDefault("api.write_timeout", "15s")
	v.SetDefault("api.idle_timeout", "60s")
	v.SetDefault("api.rate_limit", 100)
	v.SetDefault("api.auth_rate_limit", 5)
	v.SetDefault("api.max_body_bytes", 1<<20)
	v.SetDefault("api.jwt_secret", DefaultJWTSecret)
	v.SetDefault("api.jwt_duration", "2h")
	v.SetDefault("api.jwt_issuer", "healthcare-records")
	v.SetDefault("api.cookie_name", "auth_token")
	v.SetDefault("api.cookie_path", "/")
	v.SetDefault("api.cookie_secure", false)
	v.SetDefault("api.cookie_http_only", true)
	v.SetDefault("api.default_limit", 20)
	v.SetDefault("api.max_limit", 100)
	v.SetDefault("api.swagger", true)
	v.SetDefault("api.cors.allowed_origins", []string{"*"})

	// Auth defaults
	v.SetDefault("auth.default_admin_username", "admin")
	v.SetDefault("auth.default_admin_email", "admin@hospital.com")
	v.SetDefault("auth.default_admin_password", "admin123")
	v.SetDefault("auth.bcrypt_cost", 12)

	// Model defaults
	v.SetDefault("model.classifier_path", "ml_models/stroke_model.json")
	v.SetDefault("model.scaler_path", "ml_models/scaler.json")
	v.SetDefault("model.encoders_path", "ml_models/label_encoders.json")
	v.SetDefault("model.load_on_start", true)

	// Dataset defaults
	v.SetDefault("dataset.path", "data/healthcare-dataset-stroke-data.csv")
	v.SetDefault("dataset.seed_on_start", true)

	// WebSocket defaults
	v.SetDefault("websocket.max_connections", 1000)
	v.SetDefault("websocket.ping_interval", "54s")
	v.SetDefault("websocket.pong_timeout", "60s")
	v.SetDefault("websocket.write_timeout", "10s")
	v.SetDefault("websocket.max_message_size", 512)

	// Prometheus defaults
	v.SetDefault("prometheus.enabled", true)
	v.SetDefault("prometheus.path", "/metrics")

	// Events defaults
	v.SetDefault("events.buffer_size", 100)
	v.SetDefault("events.kafka.enabled", false)
	v.SetDefault("events.kafka.brokers", []string{"localhost:9092"})
	v.SetDefault("events.kafka.topic", "healthcare.events")
	v.SetDefault("events.kafka.write_timeout", "5s")
	v.SetDefault("events.kafka.batch_timeout", "100ms")
	v.SetDefault("events.kafka.circuit_breaker.max_failures", 5)
	v.SetDefault("events.kafka.circuit_breaker.timeout", "30s")
}

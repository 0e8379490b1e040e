package config

import (
	"errors"
	"fmt"
)

const DefaultJWTSecret = "change-me-in-production"

func (c *Config) Validate() error {
	var errs []error

	// App validation
	if c.App.Name == "" {
		errs = append(errs, errors.New("app.name is required"))
	}

	validModes := map[string]bool{"development": true, "production": true, "test": true}
	if !validModes[c.App.Mode] {
		errs = append(errs, fmt.Errorf("app.mode must be one of: development, production, test"))
	}

	validLogLevels := map[string]bool{"debug": true, "info": true, "warn": true, "error": true}
	if !validLogLevels[c.App.LogLevel] {
		errs = append(errs, fmt.Errorf("app.log_level must be one of: debug, info, warn, error"))
	}
	if c.App.ShutdownTimeout <= 0 {
		errs = append(errs, errors.New("app.shutdown_timeout must be positive"))
	}

	// Database validation
	if c.Database.Host == "" {
		errs = append(errs, errors.New("database.host is required"))
	}
	if c.Database.Port <= 0 || c.Database.Port > 65535 {
		errs = append(errs, errors.New("database.port must be between 1 and 65535"))
	}
	if c.Database.Name == "" {
		errs = append(errs, errors.New("database.name is required"))
	}
	if c.Database.MaxConnections <= 0 {
		errs = append(errs, errors.New("database.max_connections must be positive"))
	}
	if c.Database.MigrationTimeout <= 0 {
		errs = append(errs, errors.New("database.migration_timeout must be positive"))
	}

	// API validation
	if c.API.Port <= 0 || c.API.Port > 65535 {
		errs = append(errs, errors.New("api.port must be between 1 and 65535"))
	}
	if c.API.JWTDuration <= 0 {
		errs = append(errs, errors.New("api.jwt_duration must be positive"))
	}
	if c.API.DefaultLimit <= 0 || c.API.MaxLimit < c.API.DefaultLimit {
		errs = append(errs, errors.New("api.default_limit must be positive and <= api.max_limit"))
	}
	if c.App.Mode == "production" {
		if c.API.JWTSecret == "" || c.API.JWTSecret == DefaultJWTSecret {
			errs = append(errs, errors.New("api.jwt_secret must be changed in production"))
		}
		if !c.API.CookieSecure {
			errs = append(errs, errors.New("api.cookie_secure must be enabled in production"))
		}
	}

	// Model validation
	if c.Model.ClassifierPath == "" || c.Model.ScalerPath == "" || c.Model.EncodersPath == "" {
		errs = append(errs, errors.New("model.classifier_path, model.scaler_path and model.encoders_path are required"))
	}

	// Events validation
	if c.Events.BufferSize <= 0 {
		errs = append(errs, errors.New("events.buffer_size must be positive"))
	}
	if c.Events.Kafka.Enabled {
		if len(c.Events.Kafka.Brokers) == 0 {
			errs = append(errs, errors.New("events.kafka.brokers is required when kafka is enabled"))
		}
		if c.Events.Kafka.Topic == "" {
			errs = append(errs, errors.New("events.kafka.topic is required when kafka is enabled"))
		}
	}

	if len(errs) > 0 {
		return fmt.Errorf("config validation failed: %v", errs)
	}

	return nil
}

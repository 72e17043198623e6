// internal/common/config/config.go
package config

import (
	"fmt"
	"time"
)

// Config is the main application configuration struct.
type Config struct {
	App      AppConfig      `mapstructure:"app"`
	Server   ServerConfig   `mapstructure:"server"`
	API      APIConfig      `mapstructure:"api"`
	Form     FormConfig     `mapstructure:"form"`
	Session  SessionConfig  `mapstructure:"session"`
	Database DatabaseConfig `mapstructure:"database"`
	Logging  LoggingConfig  `mapstructure:"logging"`
}

type AppConfig struct {
	Name        string `mapstructure:"name" validate:"required"`
	Version     string `mapstructure:"version"`
	Environment string `mapstructure:"environment" validate:"required"`
}

// ServerConfig holds the web front end settings.
type ServerConfig struct {
	Address         string `mapstructure:"address" validate:"required"`
	DocumentsDir    string `mapstructure:"documents_dir"`
	ReadTimeout     int    `mapstructure:"read_timeout" validate:"gte=0"`     // milliseconds
	WriteTimeout    int    `mapstructure:"write_timeout" validate:"gte=0"`    // milliseconds
	ShutdownTimeout int    `mapstructure:"shutdown_timeout" validate:"gte=0"` // milliseconds
}

// APIConfig points at the external registrar backend.
type APIConfig struct {
	BaseURL string `mapstructure:"base_url" validate:"required,url"`
	Timeout int    `mapstructure:"timeout" validate:"gte=0"` // milliseconds, 0 = no client timeout
}

// FormConfig selects the form variant and its presentation timings.
type FormConfig struct {
	Variant             string `mapstructure:"variant" validate:"required,oneof=afiliacion sorteo"`
	NotificationTimeout int    `mapstructure:"notification_timeout" validate:"gt=0"` // milliseconds
	RegistryPath        string `mapstructure:"registry_path"`
}

// SessionConfig controls where form sessions live between requests.
type SessionConfig struct {
	Store        string `mapstructure:"store" validate:"required,oneof=memory redis"`
	TTL          int    `mapstructure:"ttl" validate:"gt=0"` // milliseconds
	CookieName   string `mapstructure:"cookie_name" validate:"required"`
	CookieSecure bool   `mapstructure:"cookie_secure"`
}

type DatabaseConfig struct {
	Redis RedisConfig `mapstructure:"redis"`
}

type RedisConfig struct {
	Address   string `mapstructure:"address"`
	Password  string `mapstructure:"password"`
	DB        int    `mapstructure:"db"`
	KeyPrefix string `mapstructure:"key_prefix"`
}

// LoggingConfig holds logging settings.
type LoggingConfig struct {
	Level  string `mapstructure:"level" validate:"oneof=debug info warn error"`
	Format string `mapstructure:"format" validate:"oneof=json console"`
	Output string `mapstructure:"output"`
}

// GetDuration converts milliseconds from config to time.Duration
func GetDuration(milliseconds int) time.Duration {
	return time.Duration(milliseconds) * time.Millisecond
}

// RegistrarURL is the full endpoint the form posts to.
func (a APIConfig) RegistrarURL(path string) string {
	return fmt.Sprintf("%s%s", trimTrailingSlash(a.BaseURL), path)
}

func trimTrailingSlash(s string) string {
	for len(s) > 0 && s[len(s)-1] == '/' {
		s = s[:len(s)-1]
	}
	return s
}

// Package config provides centralized configuration for the intake tools.
// It loads configuration from environment variables with defaults and
// validates settings up front so misconfiguration fails fast.
package config

import (
	"net"
	"strconv"
	"time"
)

// Config holds all application configuration.
// All settings can be configured via environment variables.
type Config struct {
	Logging  LoggingConfig
	Mail     MailConfig
	Database DatabaseConfig
	Server   ServerConfig
	Security SecurityConfig
	Intake   IntakeConfig
}

// LoggingConfig holds logging settings.
type LoggingConfig struct {
	// Level is the minimum log level: debug, info, warn, error (default: warn)
	Level string `env:"LOG_LEVEL" default:"warn"`

	// Format is the log format: text or json (default: text)
	Format string `env:"LOG_FORMAT" default:"text"`
}

// MailConfig holds the outbound mail relay settings.
type MailConfig struct {
	// Host is the SMTP relay host (default: smtp.gmail.com)
	Host string `env:"SMTP_HOST" default:"smtp.gmail.com"`

	// Port is the SMTP submission port; STARTTLS is required (default: 587)
	Port int `env:"SMTP_PORT" default:"587"`

	// User is the sending account, also used as the From address
	User string `env:"GMAIL_USER" envAlt:"SMTP_USER"`

	// Password is the account's app password
	Password string `env:"GMAIL_APP_PASS" envAlt:"SMTP_PASSWORD"`

	// SenderName is the display name in the From header
	SenderName string `env:"MAIL_SENDER_NAME" default:"Ultra Compressor"`

	// Timeout bounds the whole send, dial to QUIT (default: 30s)
	Timeout time.Duration `env:"SMTP_TIMEOUT" default:"30s"`
}

// DatabaseConfig holds PostgreSQL settings for the import command.
type DatabaseConfig struct {
	// URL is the PostgreSQL connection string
	// Supports both DATABASE_URL and DB_URL env vars for compatibility
	URL string `env:"DATABASE_URL" envAlt:"DB_URL"`

	// MaxConns is the maximum number of connections in the pool (default: 4)
	MaxConns int `env:"DB_MAX_CONNS" default:"4"`

	// ImportTimeout is the maximum duration for one import (default: 2m)
	ImportTimeout time.Duration `env:"DB_IMPORT_TIMEOUT" default:"2m"`
}

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	// Host is the interface to bind to (default: 127.0.0.1)
	Host string `env:"SERVER_HOST" default:"127.0.0.1"`

	// Port is the port to listen on (default: 8080)
	Port int `env:"SERVER_PORT" default:"8080"`

	// ReadTimeout is the maximum duration for reading a request (default: 30s)
	ReadTimeout time.Duration `env:"SERVER_READ_TIMEOUT" default:"30s"`

	// WriteTimeout is the maximum duration for writing a response (default: 30s)
	WriteTimeout time.Duration `env:"SERVER_WRITE_TIMEOUT" default:"30s"`

	// ShutdownTimeout is the grace period for in-flight requests (default: 10s)
	ShutdownTimeout time.Duration `env:"SERVER_SHUTDOWN_TIMEOUT" default:"10s"`
}

// SecurityConfig holds HTTP API access settings.
type SecurityConfig struct {
	// APIKeys is a comma-separated list of accepted X-API-Key values.
	// The API is open when empty; bind to loopback in that case.
	APIKeys []string `env:"INTAKE_API_KEYS"`
}

// IntakeConfig holds file handling settings.
type IntakeConfig struct {
	// MaxFileSize is the largest upload the HTTP API accepts, in bytes (default: 10MB)
	MaxFileSize int64 `env:"INTAKE_MAX_FILE_SIZE" default:"10485760"`

	// MaxConcurrent is how many uploads the HTTP API parses at once (default: 4)
	MaxConcurrent int `env:"INTAKE_MAX_CONCURRENT" default:"4"`

	// MaxWait is how long an upload waits for a parse slot (default: 10s)
	MaxWait time.Duration `env:"INTAKE_MAX_WAIT" default:"10s"`
}

// Addr returns the server listen address in host:port format.
func (c *ServerConfig) Addr() string {
	return net.JoinHostPort(c.Host, strconv.Itoa(c.Port))
}

// RelayAddr returns the SMTP relay address in host:port format.
func (c *MailConfig) RelayAddr() string {
	return net.JoinHostPort(c.Host, strconv.Itoa(c.Port))
}

package config

import (
	"errors"
	"fmt"
	"os"
	"reflect"
	"strconv"
	"strings"
	"time"
)

// Load reads configuration from environment variables.
// It applies defaults for unset values and validates the result.
// Returns an error if required values are missing or validation fails.
func Load() (*Config, error) {
	cfg := &Config{}

	if err := loadStruct(reflect.ValueOf(cfg).Elem()); err != nil {
		return nil, fmt.Errorf("config load: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config validation: %w", err)
	}

	return cfg, nil
}

// LoadLogging reads and validates only the logging section, so a bad
// setting elsewhere cannot stop a command that never uses it.
func LoadLogging() (LoggingConfig, error) {
	var l LoggingConfig
	if err := loadStruct(reflect.ValueOf(&l).Elem()); err != nil {
		return DefaultLogging(), fmt.Errorf("config load: %w", err)
	}
	if errs := l.problems(); len(errs) > 0 {
		return DefaultLogging(), fmt.Errorf("config validation: validation failed:\n  - %s", strings.Join(errs, "\n  - "))
	}
	return l, nil
}

// DefaultLogging returns the logging settings used when none are configured.
func DefaultLogging() LoggingConfig {
	return LoggingConfig{Level: "warn", Format: "text"}
}

// LoadMail reads the mail section and checks it with ValidateMail.
func LoadMail() (MailConfig, error) {
	cfg := &Config{}
	if err := loadStruct(reflect.ValueOf(&cfg.Mail).Elem()); err != nil {
		return MailConfig{}, fmt.Errorf("config load: %w", err)
	}
	if err := cfg.ValidateMail(); err != nil {
		return MailConfig{}, err
	}
	return cfg.Mail, nil
}

// LoadDatabase reads the database section and checks it with ValidateDatabase.
func LoadDatabase() (DatabaseConfig, error) {
	cfg := &Config{}
	if err := loadStruct(reflect.ValueOf(&cfg.Database).Elem()); err != nil {
		return DatabaseConfig{}, fmt.Errorf("config load: %w", err)
	}
	if err := cfg.ValidateDatabase(); err != nil {
		return DatabaseConfig{}, err
	}
	return cfg.Database, nil
}

// loadStruct recursively populates struct fields from environment variables.
func loadStruct(v reflect.Value) error {
	t := v.Type()

	for i := 0; i < t.NumField(); i++ {
		field := t.Field(i)
		fieldVal := v.Field(i)

		if !fieldVal.CanSet() {
			continue
		}

		if field.Type.Kind() == reflect.Struct && field.Type != reflect.TypeOf(time.Time{}) {
			if err := loadStruct(fieldVal); err != nil {
				return err
			}
			continue
		}

		envName := field.Tag.Get("env")
		envAlt := field.Tag.Get("envAlt")
		defaultVal := field.Tag.Get("default")
		required := field.Tag.Get("required") == "true"

		if envName == "" {
			continue
		}

		// Try primary env var, then alternate
		value := os.Getenv(envName)
		if value == "" && envAlt != "" {
			value = os.Getenv(envAlt)
		}

		if value == "" {
			if required {
				return fmt.Errorf("required environment variable %s is not set", envName)
			}
			value = defaultVal
		}

		if value == "" {
			continue
		}

		if err := setField(fieldVal, value); err != nil {
			return fmt.Errorf("invalid value for %s=%q: %w", envName, value, err)
		}
	}

	return nil
}

// setField sets a reflect.Value from a string based on its type.
func setField(field reflect.Value, value string) error {
	switch field.Kind() {
	case reflect.String:
		field.SetString(value)

	case reflect.Int, reflect.Int64:
		if field.Type() == reflect.TypeOf(time.Duration(0)) {
			d, err := time.ParseDuration(value)
			if err != nil {
				return fmt.Errorf("invalid duration: %w", err)
			}
			field.Set(reflect.ValueOf(d))
		} else {
			i, err := strconv.ParseInt(value, 10, 64)
			if err != nil {
				return fmt.Errorf("invalid integer: %w", err)
			}
			field.SetInt(i)
		}

	case reflect.Bool:
		b, err := strconv.ParseBool(value)
		if err != nil {
			return fmt.Errorf("invalid boolean: %w", err)
		}
		field.SetBool(b)

	case reflect.Slice:
		if field.Type().Elem().Kind() == reflect.String {
			// Split comma-separated values, trim whitespace
			parts := strings.Split(value, ",")
			result := make([]string, 0, len(parts))
			for _, p := range parts {
				if trimmed := strings.TrimSpace(p); trimmed != "" {
					result = append(result, trimmed)
				}
			}
			field.Set(reflect.ValueOf(result))
		} else {
			return fmt.Errorf("unsupported slice type: %s", field.Type().Elem().Kind())
		}

	default:
		return fmt.Errorf("unsupported field type: %s", field.Kind())
	}

	return nil
}

// Validate checks the logging and intake settings.
// Returns an error describing all validation failures.
func (c *Config) Validate() error {
	errs := append(c.Logging.problems(), c.Intake.problems()...)
	if len(errs) > 0 {
		return fmt.Errorf("validation failed:\n  - %s", strings.Join(errs, "\n  - "))
	}

	return nil
}

func (l LoggingConfig) problems() []string {
	var errs []string

	validLevels := map[string]bool{"debug": true, "info": true, "warn": true, "error": true}
	if !validLevels[strings.ToLower(l.Level)] {
		errs = append(errs, fmt.Sprintf("LOG_LEVEL (%q) must be one of: debug, info, warn, error", l.Level))
	}

	validFormats := map[string]bool{"text": true, "json": true}
	if !validFormats[strings.ToLower(l.Format)] {
		errs = append(errs, fmt.Sprintf("LOG_FORMAT (%q) must be one of: text, json", l.Format))
	}

	return errs
}

func (i IntakeConfig) problems() []string {
	var errs []string
	if i.MaxFileSize <= 0 {
		errs = append(errs, "INTAKE_MAX_FILE_SIZE must be positive")
	}
	if i.MaxConcurrent <= 0 {
		errs = append(errs, "INTAKE_MAX_CONCURRENT must be positive")
	}
	return errs
}

// ErrMailCredentials is returned when the relay account is not configured.
var ErrMailCredentials = errors.New("GMAIL_USER or GMAIL_APP_PASS are not set in environment variables")

// ValidateMail checks the settings needed to send mail.
func (c *Config) ValidateMail() error {
	if c.Mail.User == "" || c.Mail.Password == "" {
		return ErrMailCredentials
	}
	if c.Mail.Port <= 0 || c.Mail.Port > 65535 {
		return fmt.Errorf("SMTP_PORT (%d) must be 1-65535", c.Mail.Port)
	}
	if c.Mail.Timeout <= 0 {
		return errors.New("SMTP_TIMEOUT must be positive")
	}
	return nil
}

// ValidateDatabase checks the settings needed by the import command.
func (c *Config) ValidateDatabase() error {
	var errs []string
	if c.Database.URL == "" {
		errs = append(errs, "DATABASE_URL is required")
	}
	if c.Database.MaxConns <= 0 {
		errs = append(errs, "DB_MAX_CONNS must be positive")
	}
	if c.Database.ImportTimeout <= 0 {
		errs = append(errs, "DB_IMPORT_TIMEOUT must be positive")
	}
	if len(errs) > 0 {
		return fmt.Errorf("validation failed:\n  - %s", strings.Join(errs, "\n  - "))
	}
	return nil
}

// ValidateServer checks the settings needed by the HTTP API.
func (c *Config) ValidateServer() error {
	var errs []string
	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		errs = append(errs, fmt.Sprintf("SERVER_PORT (%d) must be 1-65535", c.Server.Port))
	}
	if c.Server.ReadTimeout < 0 {
		errs = append(errs, "SERVER_READ_TIMEOUT must be non-negative")
	}
	if c.Server.ShutdownTimeout <= 0 {
		errs = append(errs, "SERVER_SHUTDOWN_TIMEOUT must be positive")
	}
	if len(errs) > 0 {
		return fmt.Errorf("validation failed:\n  - %s", strings.Join(errs, "\n  - "))
	}
	return nil
}

// String returns a safe representation of the config for logging.
// Credentials and the database URL are masked.
func (c *Config) String() string {
	var b strings.Builder
	b.WriteString("Config{")
	b.WriteString(fmt.Sprintf("Logging: {Level: %q, Format: %q}, ", c.Logging.Level, c.Logging.Format))
	b.WriteString(fmt.Sprintf("Mail: {Relay: %q, User: %q, Password: [MASKED]}, ", c.Mail.RelayAddr(), c.Mail.User))
	b.WriteString(fmt.Sprintf("Database: {URL: [MASKED], MaxConns: %d}, ", c.Database.MaxConns))
	b.WriteString(fmt.Sprintf("Server: {Addr: %q, APIKeys: %d}", c.Server.Addr(), len(c.Security.APIKeys)))
	b.WriteString("}")
	return b.String()
}

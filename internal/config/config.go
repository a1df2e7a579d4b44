package config

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

type Config struct {
	Server   ServerConfig   `koanf:"server"`
	Database DatabaseConfig `koanf:"database"`
	Log      LogConfig      `koanf:"log"`
	NATS     NATSConfig     `koanf:"nats"`
	Breaker  BreakerConfig  `koanf:"breaker"`
	Shutdown ShutdownConfig `koanf:"shutdown"`
}

type ServerConfig struct {
	Port    int                 `koanf:"port"`
	Timeout ServerTimeoutConfig `koanf:"timeout"`
}

type ServerTimeoutConfig struct {
	Read  time.Duration `koanf:"read"`
	Write time.Duration `koanf:"write"`
	Idle  time.Duration `koanf:"idle"`
}

type DatabaseConfig struct {
	URI  string `koanf:"uri"`
	Name string `koanf:"name"`
	// Timeout bounds connecting and the startup ping.
	Timeout time.Duration `koanf:"timeout"`
	// OpTimeout bounds the store work of a single request.
	OpTimeout time.Duration `koanf:"optimeout"`
}

type LogConfig struct {
	Level string `koanf:"level"`
}

// NATSConfig enables order events when URL is set.
type NATSConfig struct {
	URL     string        `koanf:"url"`
	Timeout time.Duration `koanf:"timeout"`
}

type BreakerConfig struct {
	ConsecutiveFailures uint32        `koanf:"consecutivefailures"`
	OpenTimeout         time.Duration `koanf:"opentimeout"`
}

type ShutdownConfig struct {
	Timeout time.Duration `koanf:"timeout"`
}

// Addr returns the listen address of the HTTP server.
func (c *Config) Addr() string {
	return fmt.Sprintf(":%d", c.Server.Port)
}

// Validate checks if the configuration values are valid
func (c *Config) Validate() error {
	var errs []error
	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		errs = append(errs, fmt.Errorf("server.port must be between 1 and 65535, got %d", c.Server.Port))
	}
	if c.Database.URI == "" {
		errs = append(errs, errors.New("database.uri is not configured"))
	} else if !strings.HasPrefix(c.Database.URI, "mongodb://") && !strings.HasPrefix(c.Database.URI, "mongodb+srv://") {
		errs = append(errs, fmt.Errorf("database.uri must start with 'mongodb://' or 'mongodb+srv://': %s", maskURI(c.Database.URI)))
	}
	if c.Database.Name == "" {
		errs = append(errs, errors.New("database.name is not configured"))
	}
	if c.Database.Timeout <= 0 {
		errs = append(errs, errors.New("database.timeout must be greater than 0"))
	}
	if c.Database.OpTimeout <= 0 {
		errs = append(errs, errors.New("database.optimeout must be greater than 0"))
	}
	if c.NATS.URL != "" && c.NATS.Timeout <= 0 {
		errs = append(errs, errors.New("nats.timeout must be greater than 0 when nats.url is set"))
	}
	if c.Breaker.ConsecutiveFailures == 0 {
		errs = append(errs, errors.New("breaker.consecutivefailures must be greater than 0"))
	}
	if c.Breaker.OpenTimeout <= 0 {
		errs = append(errs, errors.New("breaker.opentimeout must be greater than 0"))
	}
	if c.Shutdown.Timeout <= 0 {
		errs = append(errs, errors.New("shutdown.timeout must be greater than 0"))
	}
	return errors.Join(errs...)
}

func (c *Config) String() string {
	var b strings.Builder

	b.WriteString("\n--- Server Configuration ---\n")
	b.WriteString(fmt.Sprintf("  server.port: %d\n", c.Server.Port))
	b.WriteString(fmt.Sprintf("  server.timeout.read: %v\n", c.Server.Timeout.Read))
	b.WriteString(fmt.Sprintf("  server.timeout.write: %v\n", c.Server.Timeout.Write))
	b.WriteString(fmt.Sprintf("  server.timeout.idle: %v\n", c.Server.Timeout.Idle))

	b.WriteString("\n--- Database Configuration ---\n")
	b.WriteString(fmt.Sprintf("  database.uri: %s\n", maskURI(c.Database.URI)))
	b.WriteString(fmt.Sprintf("  database.name: %s\n", c.Database.Name))
	b.WriteString(fmt.Sprintf("  database.timeout: %v\n", c.Database.Timeout))
	b.WriteString(fmt.Sprintf("  database.optimeout: %v\n", c.Database.OpTimeout))

	b.WriteString("\n--- Resilience ---\n")
	b.WriteString(fmt.Sprintf("  breaker.consecutivefailures: %d\n", c.Breaker.ConsecutiveFailures))
	b.WriteString(fmt.Sprintf("  breaker.opentimeout: %v\n", c.Breaker.OpenTimeout))

	b.WriteString("\n--- Events ---\n")
	if c.NATS.URL == "" {
		b.WriteString("  nats.url: <disabled>\n")
	} else {
		b.WriteString(fmt.Sprintf("  nats.url: %s\n", maskURI(c.NATS.URL)))
	}
	b.WriteString(fmt.Sprintf("  nats.timeout: %v\n", c.NATS.Timeout))

	b.WriteString("\n--- Application Behavior ---\n")
	b.WriteString(fmt.Sprintf("  log.level: %s\n", c.Log.Level))
	b.WriteString(fmt.Sprintf("  shutdown.timeout: %v\n", c.Shutdown.Timeout))

	return b.String()
}

// maskURI hides credentials in connection strings.
func maskURI(uri string) string {
	if uri == "" {
		return "<not configured>"
	}
	scheme, rest, ok := strings.Cut(uri, "://")
	if !ok {
		return "****"
	}
	if at := strings.LastIndex(rest, "@"); at >= 0 {
		return scheme + "://****@" + rest[at+1:]
	}
	return uri
}

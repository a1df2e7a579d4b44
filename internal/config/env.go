package config

import (
	"errors"
	"fmt"
	"io/fs"
	"log"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/confmap"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
)

// EnvPrefix is the prefix of environment variables read by Load,
// e.g. ECOMMERCE_DATABASE_URI sets database.uri.
const EnvPrefix = "ECOMMERCE_"

// legacyEnv maps unprefixed variables used by older deployments to config
// keys. Earlier entries win when two map to the same key.
var legacyEnv = []struct{ name, path string }{
	{"MONGO_URI", "database.uri"},
	{"MONGO_URL", "database.uri"},
	{"DB_NAME", "database.name"},
	{"PORT", "server.port"},
}

func defaults() map[string]any {
	return map[string]any{
		"server.port":                 8080,
		"server.timeout.read":         10 * time.Second,
		"server.timeout.write":        15 * time.Second,
		"server.timeout.idle":         60 * time.Second,
		"database.uri":                "mongodb://localhost:27017",
		"database.name":               "ecommerce",
		"database.timeout":            10 * time.Second,
		"database.optimeout":          5 * time.Second,
		"log.level":                   "info",
		"nats.url":                    "",
		"nats.timeout":                5 * time.Second,
		"breaker.consecutivefailures": 5,
		"breaker.opentimeout":         10 * time.Second,
		"shutdown.timeout":            15 * time.Second,
	}
}

// Load reads config.yaml and .env from the working directory, then the
// process environment.
func Load() (*Config, error) {
	return LoadFrom("config.yaml", ".env")
}

// LoadFrom builds the configuration from, lowest priority first: defaults,
// the yaml file, the dotenv file, then the process environment. Missing
// files are skipped.
func LoadFrom(configFile, envFile string) (*Config, error) {
	k := koanf.New(".")

	if err := k.Load(confmap.Provider(defaults(), "."), nil); err != nil {
		return nil, fmt.Errorf("error loading defaults: %w", err)
	}

	if configFile != "" {
		if err := k.Load(file.Provider(configFile), yaml.Parser()); err != nil && !errors.Is(err, fs.ErrNotExist) {
			log.Printf("WARN: error loading YAML config file '%s': %v", configFile, err)
		}
	}

	if envFile != "" {
		if envFileMap, err := godotenv.Read(envFile); err == nil {
			if err := k.Load(confmap.Provider(translateEnv(envFileMap), "."), nil); err != nil {
				log.Printf("WARN: error loading .env config: %v", err)
			}
		} else if !errors.Is(err, fs.ErrNotExist) {
			log.Printf("WARN: error reading .env file: %v", err)
		}
	}

	legacy := make(map[string]string)
	for _, v := range legacyEnv {
		if value, ok := os.LookupEnv(v.name); ok {
			legacy[v.name] = value
		}
	}
	if err := k.Load(confmap.Provider(translateEnv(legacy), "."), nil); err != nil {
		log.Printf("WARN: error loading legacy env vars: %v", err)
	}

	if err := k.Load(env.Provider(EnvPrefix, ".", envKey), nil); err != nil {
		log.Printf("WARN: error loading system env vars: %v", err)
	}

	var cfg Config
	if err := k.Unmarshal("", &cfg); err != nil {
		return nil, fmt.Errorf("error unmarshalling config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}
	return &cfg, nil
}

// envKey turns ECOMMERCE_DATABASE_OPTIMEOUT into database.optimeout.
func envKey(key string) string {
	key = strings.TrimPrefix(strings.ToUpper(key), EnvPrefix)
	return strings.ReplaceAll(strings.ToLower(key), "_", ".")
}

// translateEnv maps dotenv style variables to config keys. Prefixed
// variables win over legacy ones; anything else is ignored.
func translateEnv(vars map[string]string) map[string]any {
	out := make(map[string]any)
	for _, v := range legacyEnv {
		value := strings.TrimSpace(vars[v.name])
		if value == "" {
			continue
		}
		if _, set := out[v.path]; !set {
			out[v.path] = value
		}
	}
	for key, value := range vars {
		if strings.HasPrefix(strings.ToUpper(key), EnvPrefix) {
			out[envKey(key)] = value
		}
	}
	return out
}

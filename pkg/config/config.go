// Package config loads clusterview settings.
//
// Settings come from three layers, later ones winning:
//
//  1. built-in defaults ([Default])
//  2. an optional TOML file
//  3. CLUSTERVIEW_* environment variables, including any set by a .env file
//     in the working directory
//
// The merged result is validated before use.
//
//	[server]
//	addr = ":8080"
//
//	[cache]
//	backend = "redis"
//	redis_addr = "localhost:6379"
//	ttl = "24h"
//
//	[layout]
//	collision_radius = 4
//	charge_strength = -15
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"

	"github.com/matzehuels/clusterview/pkg/errors"
	"github.com/matzehuels/clusterview/pkg/layout"
)

// EnvPrefix prefixes every environment override.
const EnvPrefix = "CLUSTERVIEW_"

// Cache backends.
const (
	CacheNull  = "null"
	CacheFile  = "file"
	CacheRedis = "redis"
)

// Config is the full application configuration.
type Config struct {
	Server ServerConfig  `toml:"server"`
	Cache  CacheConfig   `toml:"cache"`
	Mongo  MongoConfig   `toml:"mongo"`
	Render RenderConfig  `toml:"render"`
	Layout layout.Params `toml:"layout"`
	Log    LogConfig     `toml:"log"`
}

// ServerConfig configures the HTTP server.
type ServerConfig struct {
	Addr            string        `toml:"addr" validate:"required"`
	Dataset         string        `toml:"dataset"`
	ReadTimeout     time.Duration `toml:"read_timeout" validate:"gte=0"`
	WriteTimeout    time.Duration `toml:"write_timeout" validate:"gte=0"`
	ShutdownTimeout time.Duration `toml:"shutdown_timeout" validate:"gt=0"`
}

// CacheConfig selects and configures the render cache.
type CacheConfig struct {
	Backend       string        `toml:"backend" validate:"oneof=null file redis"`
	Dir           string        `toml:"dir"`
	TTL           time.Duration `toml:"ttl" validate:"gte=0"`
	Prefix        string        `toml:"prefix"`
	RedisAddr     string        `toml:"redis_addr" validate:"required_if=Backend redis"`
	RedisPassword string        `toml:"redis_password"`
	RedisDB       int           `toml:"redis_db" validate:"gte=0"`
}

// MongoConfig holds defaults for mongodb:// dataset sources.
type MongoConfig struct {
	URI        string `toml:"uri"`
	Database   string `toml:"database"`
	Collection string `toml:"collection"`
}

// RenderConfig sets the frame of rendered views.
type RenderConfig struct {
	Width      float64 `toml:"width" validate:"gt=0"`
	Height     float64 `toml:"height" validate:"gt=0"`
	Background string  `toml:"background" validate:"required"`
}

// LogConfig sets the log level.
type LogConfig struct {
	Level string `toml:"level" validate:"oneof=debug info warn error"`
}

// Default returns the built-in configuration.
func Default() *Config {
	return &Config{
		Server: ServerConfig{
			Addr:            ":8080",
			ReadTimeout:     15 * time.Second,
			WriteTimeout:    60 * time.Second,
			ShutdownTimeout: 10 * time.Second,
		},
		Cache: CacheConfig{
			Backend: CacheFile,
			TTL:     24 * time.Hour,
			Prefix:  "clusterview:",
		},
		Mongo: MongoConfig{
			Database:   "clusterview",
			Collection: "datasets",
		},
		Render: RenderConfig{
			Width:      800,
			Height:     600,
			Background: "lightgray",
		},
		Layout: layout.DefaultParams(),
		Log:    LogConfig{Level: "info"},
	}
}

// DefaultPath returns ~/.config/clusterview/config.toml.
func DefaultPath() (string, error) {
	dir, err := os.UserConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "clusterview", "config.toml"), nil
}

// Load builds the configuration. An explicit path must exist; with an empty
// path the default location is used when present.
func Load(path string) (*Config, error) {
	cfg := Default()

	explicit := path != ""
	if !explicit {
		if p, err := DefaultPath(); err == nil {
			path = p
		}
	}
	if path != "" {
		if _, err := toml.DecodeFile(path, cfg); err != nil {
			switch {
			case os.IsNotExist(err) && !explicit:
			case os.IsNotExist(err):
				return nil, errors.Wrap(errors.ErrCodeFileNotFound, err, "config %s", path)
			default:
				return nil, errors.Wrap(errors.ErrCodeInvalidFormat, err, "config %s", path)
			}
		}
	}

	_ = godotenv.Load()
	if err := cfg.applyEnv(os.LookupEnv); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

type lookupFunc func(string) (string, bool)

func (c *Config) applyEnv(lookup lookupFunc) error {
	strs := map[string]*string{
		"SERVER_ADDR":      &c.Server.Addr,
		"DATASET":          &c.Server.Dataset,
		"CACHE_BACKEND":    &c.Cache.Backend,
		"CACHE_DIR":        &c.Cache.Dir,
		"CACHE_PREFIX":     &c.Cache.Prefix,
		"REDIS_ADDR":       &c.Cache.RedisAddr,
		"REDIS_PASSWORD":   &c.Cache.RedisPassword,
		"MONGO_URI":        &c.Mongo.URI,
		"MONGO_DATABASE":   &c.Mongo.Database,
		"MONGO_COLLECTION": &c.Mongo.Collection,
		"LOG_LEVEL":        &c.Log.Level,
	}
	for key, dst := range strs {
		if v, ok := lookup(EnvPrefix + key); ok {
			*dst = v
		}
	}

	durations := map[string]*time.Duration{
		"CACHE_TTL":        &c.Cache.TTL,
		"SHUTDOWN_TIMEOUT": &c.Server.ShutdownTimeout,
	}
	for key, dst := range durations {
		v, ok := lookup(EnvPrefix + key)
		if !ok {
			continue
		}
		d, err := time.ParseDuration(v)
		if err != nil {
			return errors.Wrap(errors.ErrCodeInvalidInput, err, "%s%s", EnvPrefix, key)
		}
		*dst = d
	}

	if v, ok := lookup(EnvPrefix + "REDIS_DB"); ok {
		db, err := strconv.Atoi(v)
		if err != nil {
			return errors.Wrap(errors.ErrCodeInvalidInput, err, "%sREDIS_DB", EnvPrefix)
		}
		c.Cache.RedisDB = db
	}
	return nil
}

var validate = validator.New()

// Validate checks every section and reports all failures at once.
func (c *Config) Validate() error {
	if err := validate.Struct(c); err != nil {
		return errors.New(errors.ErrCodeInvalidInput, "invalid config: %s", formatValidationError(err))
	}
	return nil
}

func formatValidationError(err error) string {
	verrs, ok := err.(validator.ValidationErrors)
	if !ok {
		return err.Error()
	}
	msgs := make([]string, 0, len(verrs))
	for _, e := range verrs {
		field := strings.ToLower(strings.TrimPrefix(e.Namespace(), "Config."))
		switch e.Tag() {
		case "required", "required_if":
			msgs = append(msgs, fmt.Sprintf("%s is required", field))
		case "oneof":
			msgs = append(msgs, fmt.Sprintf("%s must be one of: %s", field, e.Param()))
		case "gt":
			msgs = append(msgs, fmt.Sprintf("%s must be greater than %s", field, e.Param()))
		case "gte":
			msgs = append(msgs, fmt.Sprintf("%s must be at least %s", field, e.Param()))
		default:
			msgs = append(msgs, fmt.Sprintf("%s is invalid", field))
		}
	}
	return strings.Join(msgs, "; ")
}

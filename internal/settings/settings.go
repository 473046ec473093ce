// Package settings loads the session configuration from a yaml file, environment variables and flags.
package settings

import (
	"errors"
	"fmt"
	"strings"
	"sync"

	"github.com/fsnotify/fsnotify"
	"github.com/rs/zerolog"
	"github.com/spf13/viper"
	"github.com/wolfeidau/dysession"
)

const (
	// EnvPrefix prefix of environment overrides, for example DYSESSION_TABLE_NAME
	EnvPrefix = "DYSESSION"

	// ConfigName name of the config file searched for when none is given
	ConfigName = "dysession"
)

// Loader reads the configuration and caches the validated result until the file changes
type Loader struct {
	v      *viper.Viper
	logger zerolog.Logger

	mu  sync.RWMutex
	cfg *dysession.Config
}

// Option assign settings to the loader
type Option func(l *Loader)

// WithSearchPath add a directory searched for dysession.yaml
func WithSearchPath(dir string) Option {
	return func(l *Loader) {
		l.v.AddConfigPath(dir)
	}
}

// WithLogger log configuration reloads
func WithLogger(logger zerolog.Logger) Option {
	return func(l *Loader) {
		l.logger = logger
	}
}

// New create a loader, an empty configFile searches the working directory for dysession.yaml
func New(configFile string, options ...Option) *Loader {
	l := &Loader{
		v:      viper.New(),
		logger: zerolog.Nop(),
	}

	if configFile != "" {
		l.v.SetConfigFile(configFile)
	} else {
		l.v.SetConfigName(ConfigName)
		l.v.SetConfigType("yaml")
		l.v.AddConfigPath(".")
	}

	for _, opt := range options {
		opt(l)
	}

	l.v.SetEnvPrefix(EnvPrefix)
	l.v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	l.v.AutomaticEnv()

	setDefaults(l.v)

	return l
}

// Viper the underlying viper instance, used to bind command line flags
func (l *Loader) Viper() *viper.Viper {
	return l.v
}

// Load read and validate the configuration, a missing config file is not an error unless it was named explicitly.
func (l *Loader) Load() (*dysession.Config, error) {
	if err := l.v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("config file error: %w", err)
		}
	}

	return l.reload()
}

// Config the last loaded configuration, loading it on first use
func (l *Loader) Config() (*dysession.Config, error) {
	l.mu.RLock()
	cfg := l.cfg
	l.mu.RUnlock()

	if cfg != nil {
		return cfg, nil
	}

	return l.Load()
}

// Watch reload the configuration when the config file changes, fn receives each valid configuration.
// An invalid file is logged and the previous configuration kept.
func (l *Loader) Watch(fn func(cfg *dysession.Config)) {
	l.v.OnConfigChange(func(e fsnotify.Event) {
		cfg, err := l.reload()
		if err != nil {
			l.logger.Error().Err(err).Str("file", e.Name).Msg("failed to reload config")
			return
		}

		l.logger.Info().Str("file", e.Name).Msg("config reloaded")

		if fn != nil {
			fn(cfg)
		}
	})
	l.v.WatchConfig()
}

func (l *Loader) reload() (*dysession.Config, error) {
	cfg := new(dysession.Config)

	if err := l.v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("config unmarshal error: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	l.mu.Lock()
	l.cfg = cfg
	l.mu.Unlock()

	return cfg, nil
}

func setDefaults(v *viper.Viper) {
	def := dysession.DefaultConfig()

	// Table
	v.SetDefault("table_name", def.TableName)
	v.SetDefault("partition_key", def.PartitionKey)
	v.SetDefault("sort_key", def.SortKey)
	v.SetDefault("ttl_attribute", def.TTLAttribute)
	v.SetDefault("conditional_create", def.ConditionalCreate)

	// AWS
	v.SetDefault("region", def.Region)
	v.SetDefault("endpoint", def.Endpoint)

	// Session
	v.SetDefault("cache_period", def.CachePeriod)

	// Logging
	v.SetDefault("logging.type", def.Logging.Type)
	v.SetDefault("logging.file_path", def.Logging.FilePath)
	v.SetDefault("logging.level", def.Logging.Level)
}

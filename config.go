package dysession

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

const (
	// LoggingConsole writes logs to stdout, coloured when attached to a terminal
	LoggingConsole = "console"

	// LoggingFile appends JSON logs to Logging.FilePath
	LoggingFile = "file"
)

// Config settings shared by the table, facade and session store
type Config struct {
	TableName    string        `mapstructure:"table_name"`
	PartitionKey string        `mapstructure:"partition_key"`
	SortKey      string        `mapstructure:"sort_key"`
	TTLAttribute string        `mapstructure:"ttl_attribute"`
	Region       string        `mapstructure:"region"`
	Endpoint     string        `mapstructure:"endpoint"`
	CachePeriod  time.Duration `mapstructure:"cache_period"`

	// ConditionalCreate use a put-if-absent write for duplicate checked inserts
	// rather than a read followed by an unconditional write.
	ConditionalCreate bool `mapstructure:"conditional_create"`

	Logging LoggingConfig `mapstructure:"logging"`
}

// LoggingConfig log output settings
type LoggingConfig struct {
	Type     string `mapstructure:"type"`
	FilePath string `mapstructure:"file_path"`
	Level    string `mapstructure:"level"`
}

// DefaultConfig returns the configuration used when nothing is overridden
func DefaultConfig() *Config {
	return &Config{
		TableName:    "sessions",
		PartitionKey: "PK",
		SortKey:      "SK",
		TTLAttribute: "ttl",
		Region:       "ap-northeast-1",
		CachePeriod:  time.Hour,
		Logging: LoggingConfig{
			Type:     LoggingConsole,
			FilePath: "session.log",
			Level:    "info",
		},
	}
}

// Validate check the required settings are present
func (c *Config) Validate() error {
	if c.TableName == "" {
		return errors.New("table name must be set")
	}

	if c.PartitionKey == "" {
		return errors.New("partition key name must be set")
	}

	if c.TTLAttribute == "" {
		return errors.New("ttl attribute name must be set")
	}

	if c.TTLAttribute == c.PartitionKey {
		return errors.New("ttl attribute must differ from the partition key")
	}

	if c.CachePeriod <= 0 {
		return errors.New("cache period must be positive")
	}

	switch strings.ToLower(c.Logging.Type) {
	case LoggingConsole:
	case LoggingFile:
		if c.Logging.FilePath == "" {
			return errors.New("logging file path must be set for file logging")
		}
	default:
		return fmt.Errorf("invalid logging type: %s. Must be 'console' or 'file'", c.Logging.Type)
	}

	return nil
}

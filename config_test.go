package dysession

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestDefaultConfig(t *testing.T) {
	assert := require.New(t)

	cfg := DefaultConfig()
	assert.NoError(cfg.Validate())
	assert.Equal("sessions", cfg.TableName)
	assert.Equal("PK", cfg.PartitionKey)
	assert.Equal("ttl", cfg.TTLAttribute)
	assert.False(cfg.ConditionalCreate)
}

func TestConfigValidate(t *testing.T) {
	tests := []struct {
		name   string
		modify func(cfg *Config)
		errMsg string
	}{
		{
			name:   "missing table",
			modify: func(cfg *Config) { cfg.TableName = "" },
			errMsg: "table name must be set",
		},
		{
			name:   "missing partition key",
			modify: func(cfg *Config) { cfg.PartitionKey = "" },
			errMsg: "partition key name must be set",
		},
		{
			name:   "missing ttl attribute",
			modify: func(cfg *Config) { cfg.TTLAttribute = "" },
			errMsg: "ttl attribute name must be set",
		},
		{
			name:   "ttl attribute is the partition key",
			modify: func(cfg *Config) { cfg.TTLAttribute = "PK" },
			errMsg: "ttl attribute must differ from the partition key",
		},
		{
			name:   "zero cache period",
			modify: func(cfg *Config) { cfg.CachePeriod = 0 },
			errMsg: "cache period must be positive",
		},
		{
			name:   "unknown logging type",
			modify: func(cfg *Config) { cfg.Logging.Type = "syslog" },
			errMsg: "invalid logging type: syslog. Must be 'console' or 'file'",
		},
		{
			name: "file logging without path",
			modify: func(cfg *Config) {
				cfg.Logging.Type = LoggingFile
				cfg.Logging.FilePath = ""
			},
			errMsg: "logging file path must be set for file logging",
		},
		{
			name:   "file logging",
			modify: func(cfg *Config) { cfg.Logging.Type = LoggingFile },
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert := require.New(t)

			cfg := DefaultConfig()
			tt.modify(cfg)

			err := cfg.Validate()
			if tt.errMsg == "" {
				assert.NoError(err)
				return
			}
			assert.EqualError(err, tt.errMsg)
		})
	}
}

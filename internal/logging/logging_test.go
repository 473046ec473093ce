package logging

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"
	"github.com/wolfeidau/dysession"
)

func TestNewWithWriter(t *testing.T) {
	tests := []struct {
		name    string
		level   string
		want    zerolog.Level
		wantErr bool
	}{
		{name: "default", level: "", want: zerolog.InfoLevel},
		{name: "debug", level: "debug", want: zerolog.DebugLevel},
		{name: "upper case", level: "WARN", want: zerolog.WarnLevel},
		{name: "invalid", level: "loud", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert := require.New(t)

			logger, err := NewWithWriter(&bytes.Buffer{}, tt.level)
			if tt.wantErr {
				assert.Error(err)
				return
			}
			assert.NoError(err)
			assert.Equal(tt.want, logger.GetLevel())
		})
	}
}

func TestNewFileLogger(t *testing.T) {
	assert := require.New(t)

	path := filepath.Join(t.TempDir(), "session.log")

	logger, closer, err := New(dysession.LoggingConfig{Type: dysession.LoggingFile, FilePath: path, Level: "info"})
	assert.NoError(err)

	logger.Info().Str("table", "sessions").Msg("table created")
	logger.Debug().Msg("hidden")

	assert.NoError(closer.Close())

	data, err := os.ReadFile(path)
	assert.NoError(err)
	assert.Contains(string(data), `"message":"table created"`)
	assert.Contains(string(data), `"table":"sessions"`)
	assert.NotContains(string(data), "hidden")
}

func TestNewFileLoggerMissingDir(t *testing.T) {
	assert := require.New(t)

	path := filepath.Join(t.TempDir(), "missing", "session.log")

	_, _, err := New(dysession.LoggingConfig{Type: dysession.LoggingFile, FilePath: path})
	assert.Error(err)
}

package logger

import (
	"bytes"
	"encoding/json"
	"testing"

	"github.com/raywall/fast-sdb-toolkit/pkg/config"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNew(t *testing.T) {
	t.Run("Default Level Info", func(t *testing.T) {
		logger := New(config.LoggingConf{Enabled: true}, &bytes.Buffer{})
		assert.Equal(t, zerolog.InfoLevel, logger.GetLevel())
	})

	t.Run("Custom Level Debug", func(t *testing.T) {
		logger := New(config.LoggingConf{Enabled: true, Level: "DEBUG"}, &bytes.Buffer{})
		assert.Equal(t, zerolog.DebugLevel, logger.GetLevel())
	})

	t.Run("JSON output carries app field", func(t *testing.T) {
		var buf bytes.Buffer
		logger := New(config.LoggingConf{Enabled: true, Format: "json"}, &buf)
		logger.Info().Str("domain", "users").Msg("ok")

		var entry map[string]interface{}
		require.NoError(t, json.Unmarshal(buf.Bytes(), &entry))
		assert.Equal(t, "fast-sdb-toolkit", entry["app"])
		assert.Equal(t, "users", entry["domain"])
		assert.Equal(t, "ok", entry["message"])
	})

	t.Run("Disabled Logger", func(t *testing.T) {
		var buf bytes.Buffer
		logger := New(config.LoggingConf{Enabled: false}, &buf)
		logger.Info().Msg("teste")
		assert.Zero(t, buf.Len())
	})

	t.Run("Debug suppressed at info", func(t *testing.T) {
		var buf bytes.Buffer
		logger := New(config.LoggingConf{Enabled: true, Level: "info"}, &buf)
		logger.Debug().Msg("hidden")
		assert.Zero(t, buf.Len())
	})
}

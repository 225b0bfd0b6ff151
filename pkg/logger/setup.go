package logger

import (
	"io"
	"os"
	"strings"
	"time"

	"github.com/raywall/fast-sdb-toolkit/pkg/config"
	"github.com/rs/zerolog"
)

// Configure cria o logger do toolkit escrevendo em stdout.
func Configure(cfg config.LoggingConf) zerolog.Logger {
	return New(cfg, os.Stdout)
}

// New cria o logger escrevendo em out. O nível é aplicado ao logger
// retornado, não ao nível global do zerolog.
func New(cfg config.LoggingConf, out io.Writer) zerolog.Logger {
	// Define o nível de log (default: info)
	level, err := zerolog.ParseLevel(strings.ToLower(cfg.Level))
	if err != nil || cfg.Level == "" {
		level = zerolog.InfoLevel
	}

	// JSON para produção, console "bonito" para uso local
	if !cfg.Enabled {
		out = io.Discard
	} else if cfg.Format == "console" {
		out = zerolog.ConsoleWriter{Out: out, TimeFormat: time.RFC3339}
	}

	return zerolog.New(out).
		Level(level).
		With().
		Timestamp().
		Str("app", "fast-sdb-toolkit").
		Logger()
}

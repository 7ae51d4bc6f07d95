package logger

import (
	"context"
	"io"
	"os"
	"time"

	"retreat/config"
	"retreat/shared/constant"

	"github.com/pkg/errors"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

const defaultLevel = zerolog.InfoLevel

// Init configures the global logger from SERVER_ENV and SERVER_LOG_LEVEL.
func Init(cfg *config.Config) {
	InitWithWriter(cfg, os.Stdout)
}

// InitWithWriter is Init with a custom sink. Development gets console output, everything else JSON lines.
func InitWithWriter(cfg *config.Config, out io.Writer) {
	if cfg.Server.Env == constant.ServerEnvDevelopment {
		zerolog.TimeFieldFormat = zerolog.TimeFormatUnix
		log.Logger = log.Output(zerolog.ConsoleWriter{Out: out, TimeFormat: time.RFC3339})
	} else {
		zerolog.TimeFieldFormat = time.RFC3339Nano
		log.Logger = zerolog.New(out).With().Timestamp().Str("service", cfg.App.Name).Logger()
	}

	zerolog.SetGlobalLevel(parseLevel(cfg.Server.LogLevel))
}

func parseLevel(raw string) zerolog.Level {
	level, err := zerolog.ParseLevel(raw)
	if err != nil || level == zerolog.NoLevel {
		return defaultLevel
	}

	return level
}

func ErrorWithStack(err error) {
	log.Error().Msgf("%+v", errors.WithStack(err))
}

// Ctx returns the global logger enriched with the request id carried by ctx.
func Ctx(ctx context.Context) *zerolog.Logger {
	requestID, _ := ctx.Value(constant.ContextKeyRequestID).(string)
	if requestID == constant.Empty {
		return &log.Logger
	}

	l := log.With().Str("request_id", requestID).Logger()

	return &l
}

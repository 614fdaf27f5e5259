package logging

import (
	"os"

	"github.com/hilthontt/converse/internal/infrastructure/env"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"gopkg.in/natefinch/lumberjack.v2"
)

type Config struct {
	Level      string
	FilePath   string // empty disables the rotating file sink
	MaxSizeMB  int
	MaxBackups int
	MaxAgeDays int
}

func NewDefaultConfig() *Config {
	return &Config{
		Level:      env.GetString("LOGGER_LEVEL", "info"),
		FilePath:   env.GetString("LOGGER_FILE_PATH", ""),
		MaxSizeMB:  env.GetInt("LOGGER_MAX_SIZE_MB", 50),
		MaxBackups: env.GetInt("LOGGER_MAX_BACKUPS", 3),
		MaxAgeDays: env.GetInt("LOGGER_MAX_AGE_DAYS", 14),
	}
}

// NewLogger builds the service logger: JSON to stdout, plus a
// lumberjack-rotated file when a path is configured.
func NewLogger(cfg *Config) *zap.SugaredLogger {
	level, err := zapcore.ParseLevel(cfg.Level)
	if err != nil {
		level = zapcore.InfoLevel
	}

	encoderCfg := zap.NewProductionEncoderConfig()
	encoderCfg.EncodeTime = zapcore.ISO8601TimeEncoder
	encoder := zapcore.NewJSONEncoder(encoderCfg)

	sinks := []zapcore.WriteSyncer{zapcore.AddSync(os.Stdout)}
	if cfg.FilePath != "" {
		sinks = append(sinks, zapcore.AddSync(&lumberjack.Logger{
			Filename:   cfg.FilePath,
			MaxSize:    cfg.MaxSizeMB,
			MaxBackups: cfg.MaxBackups,
			MaxAge:     cfg.MaxAgeDays,
			Compress:   true,
		}))
	}

	core := zapcore.NewCore(encoder, zapcore.NewMultiWriteSyncer(sinks...), level)
	return zap.New(core, zap.AddCaller()).Sugar()
}

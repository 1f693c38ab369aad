// Package logging builds the engine's zap logger from the log configuration.
package logging

import (
	"fmt"
	"os"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"gopkg.in/natefinch/lumberjack.v2"

	"github.com/mu-gua-here/OpenGL-3D-Engine-sub000/common"
	"github.com/mu-gua-here/OpenGL-3D-Engine-sub000/engine/config"
)

// New builds a logger writing to stderr, plus a rotating file when cfg.File is set.
// Development mode uses the console encoder; otherwise entries are JSON.
//
// Parameters:
//   - cfg: the log configuration
//
// Returns:
//   - *zap.Logger: the logger
//   - error: error for an unknown level
func New(cfg config.Log) (*zap.Logger, error) {
	level, err := zapcore.ParseLevel(common.Coalesce(cfg.Level, "info"))
	if err != nil {
		return nil, fmt.Errorf("log level: %w", err)
	}

	encCfg := zap.NewProductionEncoderConfig()
	if cfg.Development {
		encCfg = zap.NewDevelopmentEncoderConfig()
	}
	encCfg.EncodeTime = zapcore.ISO8601TimeEncoder

	var enc zapcore.Encoder = zapcore.NewJSONEncoder(encCfg)
	if cfg.Development {
		enc = zapcore.NewConsoleEncoder(encCfg)
	}

	cores := []zapcore.Core{
		zapcore.NewCore(enc, zapcore.Lock(os.Stderr), level),
	}
	if cfg.File != "" {
		sink := zapcore.AddSync(&lumberjack.Logger{
			Filename:   cfg.File,
			MaxSize:    common.Coalesce(cfg.MaxSizeMB, 50), // megabytes
			MaxBackups: common.Coalesce(cfg.MaxBackups, 3),
		})
		cores = append(cores, zapcore.NewCore(zapcore.NewJSONEncoder(zap.NewProductionEncoderConfig()), sink, level))
	}

	opts := []zap.Option{zap.AddCaller()}
	if cfg.Development {
		opts = append(opts, zap.Development())
	}
	return zap.New(zapcore.NewTee(cores...), opts...), nil
}

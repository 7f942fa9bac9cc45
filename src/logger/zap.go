package logger

import (
	"strings"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// ZapLogger adapts a zap sugared logger to Logger.
type ZapLogger struct {
	sugar *zap.SugaredLogger
}

// NewZapLogger builds a zap logger. format "console" selects the development
// encoder, anything else JSON. Unknown levels fall back to info.
func NewZapLogger(level, format string) (*ZapLogger, error) {
	var zapCfg zap.Config
	if strings.EqualFold(format, "console") {
		zapCfg = zap.NewDevelopmentConfig()
	} else {
		zapCfg = zap.NewProductionConfig()
	}
	zapCfg.EncoderConfig.EncodeTime = zapcore.RFC3339NanoTimeEncoder
	zapCfg.Level = zap.NewAtomicLevelAt(parseLevel(level))
	zapCfg.OutputPaths = []string{"stderr"}

	l, err := zapCfg.Build()
	if err != nil {
		return nil, err
	}
	return NewZapLoggerFrom(l), nil
}

// NewZapLoggerFrom wraps an existing zap logger.
func NewZapLoggerFrom(l *zap.Logger) *ZapLogger {
	return &ZapLogger{sugar: l.Sugar()}
}

func parseLevel(level string) zapcore.Level {
	switch strings.ToLower(level) {
	case "debug":
		return zap.DebugLevel
	case "warn":
		return zap.WarnLevel
	case "error":
		return zap.ErrorLevel
	default:
		return zap.InfoLevel
	}
}

func (z *ZapLogger) Info(msg string, args ...interface{})  { z.sugar.Infof(msg, args...) }
func (z *ZapLogger) Warn(msg string, args ...interface{})  { z.sugar.Warnf(msg, args...) }
func (z *ZapLogger) Error(msg string, args ...interface{}) { z.sugar.Errorf(msg, args...) }
func (z *ZapLogger) Debug(msg string, args ...interface{}) { z.sugar.Debugf(msg, args...) }

// Sync flushes buffered entries.
func (z *ZapLogger) Sync() error {
	return z.sugar.Sync()
}

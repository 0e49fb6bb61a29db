package logging

import (
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/calebhs/linkhive/internal/auth/context/loggercontext"
	"github.com/calebhs/linkhive/internal/config"
)

// Logger is the process-wide sugared logger. Request handlers should
// prefer the request-scoped logger from loggercontext.
var Logger *zap.SugaredLogger

// DefaultLogger is used when no logger was put on the context.
var DefaultLogger *zap.SugaredLogger

func init() {
	base, _ := zap.NewProduction()
	DefaultLogger = base.Sugar()
	Logger = DefaultLogger
	loggercontext.SetFallback(DefaultLogger)
}

func Init(cfg *config.AppConfig) {
	var zapCfg zap.Config
	if cfg.IsProduction() {
		zapCfg = zap.NewProductionConfig()
	} else {
		zapCfg = zap.NewDevelopmentConfig()
		zapCfg.EncoderConfig.EncodeLevel = zapcore.CapitalColorLevelEncoder
	}

	if lvl, err := zapcore.ParseLevel(cfg.Logging.LogLevel); err == nil {
		zapCfg.Level = zap.NewAtomicLevelAt(lvl)
	}

	base, err := zapCfg.Build()
	if err != nil {
		panic(err)
	}
	Logger = base.Sugar()
	DefaultLogger = Logger
	loggercontext.SetFallback(DefaultLogger)
}

func Sync() {
	if Logger != nil {
		_ = Logger.Sync()
	}
}

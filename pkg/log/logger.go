package log

import (
	"context"

	"github.com/smallbiznis/payrail/internal/config"
	"github.com/smallbiznis/payrail/pkg/log/ctxlogger"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Module provides the process-wide zap logger.
var Module = fx.Provide(NewLogger)

// NewLogger builds the logger every ledger service writes through. JSON
// to stdout in deployed environments, console encoding in development,
// and globals replaced so code outside fx wiring logs the same way.
func NewLogger(cfg config.Config) (*zap.Logger, error) {
	zapCfg := zap.NewProductionConfig()
	zapCfg.Encoding = "json"
	if cfg.Environment == "development" {
		zapCfg = zap.NewDevelopmentConfig()
	}
	zapCfg.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder

	zapCfg.OutputPaths = []string{"stdout"}
	zapCfg.ErrorOutputPaths = []string{"stderr"}

	logger, err := zapCfg.Build(zap.AddCaller(), zap.AddStacktrace(zapcore.ErrorLevel))
	if err != nil {
		return nil, err
	}

	ctxlogger.SetServiceName(cfg.AppName)
	zap.ReplaceGlobals(logger)
	return logger, nil
}

// L returns the request-scoped logger carried on ctx, falling back to
// the global logger when none was attached.
func L(ctx context.Context) *zap.Logger {
	return ctxlogger.FromContext(ctx)
}

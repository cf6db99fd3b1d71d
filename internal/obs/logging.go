package obs

import (
	"go.uber.org/zap"
)

// InitLogger installs the global zap logger: console encoder for local runs,
// JSON in production. Callers use zap.S()/zap.L() everywhere else.
func InitLogger(env string) (*zap.Logger, error) {
	var cfg zap.Config
	if env == "production" {
		cfg = zap.NewProductionConfig()
	} else {
		cfg = zap.NewDevelopmentConfig()
	}
	cfg.DisableStacktrace = true
	logger, err := cfg.Build(zap.AddCaller())
	if err != nil {
		return nil, err
	}
	zap.ReplaceGlobals(logger)
	return logger, nil
}

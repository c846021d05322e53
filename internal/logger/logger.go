package logger

import (
	"fmt"

	"go.uber.org/zap"
)

// Init replaces the global zap logger. Production logs JSON at info level;
// every other environment logs to the console and panics on DPanic.
func Init(env string) error {
	var (
		l   *zap.Logger
		err error
	)
	if env == "production" {
		l, err = zap.NewProduction()
	} else {
		l, err = zap.NewDevelopment()
	}
	if err != nil {
		return fmt.Errorf("zap.New -> %w", err)
	}

	zap.ReplaceGlobals(l)

	return nil
}

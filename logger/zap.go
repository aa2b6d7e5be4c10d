package logger

import (
	"go.uber.org/zap"

	"github.com/alexhholmes/shelf"
)

// Zap wraps a zap.Logger to implement shelf.Logger.
type Zap struct {
	sugar *zap.SugaredLogger
}

// NewZap creates a shelf.Logger from a zap.Logger.
func NewZap(logger *zap.Logger) shelf.Logger {
	return &Zap{sugar: logger.Sugar()}
}

func (z *Zap) Error(msg string, args ...any) {
	z.sugar.Errorw(msg, args...)
}

func (z *Zap) Warn(msg string, args ...any) {
	z.sugar.Warnw(msg, args...)
}

func (z *Zap) Info(msg string, args ...any) {
	z.sugar.Infow(msg, args...)
}

// Sync flushes buffered entries.
func (z *Zap) Sync() error {
	return z.sugar.Sync()
}

// SPDX-License-Identifier: MIT
package cli

import (
	"fmt"
	"io"

	"github.com/go-logr/logr"
	"github.com/go-logr/zapr"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// newLogger builds a zap logger writing to w and bridges it to logr.
// logr's V(1) maps to zap's debug level.
func newLogger(w io.Writer, level string, dev bool) (logr.Logger, func(), error) {
	lvl, err := zapcore.ParseLevel(level)
	if err != nil {
		return logr.Discard(), nil, fmt.Errorf("cli: --log-level: %w", err)
	}

	var enc zapcore.Encoder
	if dev {
		enc = zapcore.NewConsoleEncoder(zap.NewDevelopmentEncoderConfig())
	} else {
		enc = zapcore.NewJSONEncoder(zap.NewProductionEncoderConfig())
	}
	z := zap.New(zapcore.NewCore(enc, zapcore.AddSync(w), zap.NewAtomicLevelAt(lvl)))

	return zapr.NewLogger(z), func() { _ = z.Sync() }, nil
}
